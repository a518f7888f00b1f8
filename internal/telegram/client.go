package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/lzx0713/FreeChat/config"
)

var (
	// ErrNotConfigured 机器人凭证缺失，相关接口降级而不是崩溃
	ErrNotConfigured = errors.New("telegram bot token or chat id not configured")
	// ErrFileNotFound Telegram 报文件不存在或已过期
	ErrFileNotFound = errors.New("file not found or expired")
)

// Category 上游调用失败的分类，给用户看得懂的诊断信息
type Category int

const (
	CategoryGeneric Category = iota
	CategoryTimeout
	CategoryConnRefused
)

// UpstreamError wraps a failed bot API call with its failure category.
type UpstreamError struct {
	Category Category
	Err      error
}

func (e *UpstreamError) Error() string {
	switch e.Category {
	case CategoryTimeout:
		return fmt.Sprintf("telegram request timed out: %v", e.Err)
	case CategoryConnRefused:
		return fmt.Sprintf("telegram connection refused: %v", e.Err)
	default:
		return fmt.Sprintf("telegram request failed: %v", e.Err)
	}
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// classify inspects a transport error and tags it as timeout, connection
// refused or generic.
func classify(err error) *UpstreamError {
	category := CategoryGeneric

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		category = CategoryTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		category = CategoryTimeout
	case errors.Is(err, syscall.ECONNREFUSED):
		category = CategoryConnRefused
	}

	return &UpstreamError{Category: category, Err: err}
}

// UploadResult Telegram 返回的文件标识
type UploadResult struct {
	FileID   string
	FileName string
	FileSize int64
}

// DownloadResult 下载流，调用方负责 Close
type DownloadResult struct {
	Body        io.ReadCloser
	ContentType string
	FileName    string
}

// BotInfo getMe 的返回，用于连通性自检
type BotInfo struct {
	ID       int64  `json:"id"`
	IsBot    bool   `json:"is_bot"`
	Username string `json:"username"`
}

// Client 把 Telegram 机器人接口当成免费对象存储用的桥接层
// 上传走 sendDocument，下载走 getFile + 文件路径两步
type Client struct {
	token      string
	chatID     string
	apiBase    string
	httpClient *http.Client
}

// NewClient builds a bot API client. proxyURL, when set, routes all
// outbound calls through the given HTTP proxy.
func NewClient(cfg *config.TelegramConfig) (*Client, error) {
	apiBase := strings.TrimSuffix(cfg.APIBase, "/")
	if apiBase == "" {
		apiBase = "https://api.telegram.org"
	}

	transport := &http.Transport{}
	if cfg.ProxyURL != "" {
		proxy, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxy)
	}

	return &Client{
		token:   cfg.Token,
		chatID:  cfg.ChatID,
		apiBase: apiBase,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   60 * time.Second,
		},
	}, nil
}

// Configured reports whether both bot credentials are present.
func (c *Client) Configured() bool {
	return c.token != "" && c.chatID != ""
}

type apiEnvelope struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

// Upload sends the file as a document to the configured destination chat
// and returns the opaque file identifier Telegram assigned.
func (c *Client) Upload(ctx context.Context, fileName string, file io.Reader) (*UploadResult, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("document", fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to read upload payload: %w", err)
	}
	if err := writer.WriteField("chat_id", c.chatID); err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if err := writer.WriteField("caption", "Uploaded: "+fileName); err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendDocument", c.apiBase, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, &UpstreamError{Category: CategoryGeneric, Err: err}
	}
	if !envelope.OK {
		return nil, &UpstreamError{
			Category: CategoryGeneric,
			Err:      fmt.Errorf("sendDocument rejected: %s (code %d)", envelope.Description, envelope.ErrorCode),
		}
	}

	var result struct {
		Document struct {
			FileID   string `json:"file_id"`
			FileName string `json:"file_name"`
			FileSize int64  `json:"file_size"`
		} `json:"document"`
	}
	if err := json.Unmarshal(envelope.Result, &result); err != nil || result.Document.FileID == "" {
		return nil, &UpstreamError{
			Category: CategoryGeneric,
			Err:      errors.New("sendDocument response missing document"),
		}
	}

	return &UploadResult{
		FileID:   result.Document.FileID,
		FileName: result.Document.FileName,
		FileSize: result.Document.FileSize,
	}, nil
}

// ResolvePath exchanges a file identifier for the bot's internal file path.
// Paths are time-limited, so callers must not cache the result.
func (c *Client) ResolvePath(ctx context.Context, fileID string) (string, error) {
	if c.token == "" {
		return "", ErrNotConfigured
	}

	endpoint := fmt.Sprintf("%s/bot%s/getFile?file_id=%s", c.apiBase, c.token, url.QueryEscape(fileID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", classify(err)
	}
	defer resp.Body.Close()

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", &UpstreamError{Category: CategoryGeneric, Err: err}
	}
	if !envelope.OK {
		return "", ErrFileNotFound
	}

	var result struct {
		FilePath string `json:"file_path"`
	}
	if err := json.Unmarshal(envelope.Result, &result); err != nil || result.FilePath == "" {
		return "", ErrFileNotFound
	}
	return result.FilePath, nil
}

// Download resolves the current path for a file and opens a byte stream.
// Every call re-resolves: cached paths go stale.
func (c *Client) Download(ctx context.Context, fileID string) (*DownloadResult, error) {
	filePath, err := c.ResolvePath(ctx, fileID)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/file/bot%s/%s", c.apiBase, c.token, filePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, ErrFileNotFound
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &UpstreamError{
			Category: CategoryGeneric,
			Err:      fmt.Errorf("file download returned status %d", resp.StatusCode),
		}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	segments := strings.Split(filePath, "/")
	return &DownloadResult{
		Body:        resp.Body,
		ContentType: contentType,
		FileName:    segments[len(segments)-1],
	}, nil
}

// GetMe performs a connectivity self-test against the bot API.
func (c *Client) GetMe(ctx context.Context) (*BotInfo, error) {
	if c.token == "" {
		return nil, ErrNotConfigured
	}

	endpoint := fmt.Sprintf("%s/bot%s/getMe", c.apiBase, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, &UpstreamError{Category: CategoryGeneric, Err: err}
	}
	if !envelope.OK {
		return nil, &UpstreamError{
			Category: CategoryGeneric,
			Err:      fmt.Errorf("getMe rejected: %s (code %d)", envelope.Description, envelope.ErrorCode),
		}
	}

	var info BotInfo
	if err := json.Unmarshal(envelope.Result, &info); err != nil {
		return nil, &UpstreamError{Category: CategoryGeneric, Err: err}
	}
	return &info, nil
}
