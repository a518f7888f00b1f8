package imagehost

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/lzx0713/FreeChat/config"
)

// ErrUpstream 图床拒绝了上传或响应不可解析
var ErrUpstream = errors.New("image host upload failed")

// Client 把图片上传转发给外部图床，并用返回的路径拼出公开 URL
type Client struct {
	endpoint   string
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg *config.ImageHostConfig) *Client {
	return &Client{
		endpoint: cfg.UploadEndpoint,
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Upload relays the file to the image host and returns the composed
// public URL. The host answers with a JSON array whose first element
// carries the stored path in src.
func (c *Client) Upload(ctx context.Context, fileName string, file io.Reader) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return "", fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("failed to read upload payload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var result []struct {
		Src string `json:"src"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if len(result) == 0 || result[0].Src == "" {
		return "", fmt.Errorf("%w: response missing src", ErrUpstream)
	}

	return c.baseURL + result[0].Src, nil
}
