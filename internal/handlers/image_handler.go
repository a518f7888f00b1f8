package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lzx0713/FreeChat/internal/imagehost"
)

// ImageHandler 图片上传代理，转发到外部图床
type ImageHandler struct {
	imageClient *imagehost.Client
}

func NewImageHandler(imageClient *imagehost.Client) *ImageHandler {
	return &ImageHandler{imageClient: imageClient}
}

// UploadImage 把 multipart 图片转给图床，返回拼好的公开 URL
// 图床失败算网关错误，不混进 500
func (h *ImageHandler) UploadImage(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "No file uploaded",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Printf("UploadImage: failed to open multipart file: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to read uploaded file",
		})
		return
	}
	defer file.Close()

	url, err := h.imageClient.Upload(c.Request.Context(), fileHeader.Filename, file)
	if err != nil {
		log.Printf("UploadImage: upstream error: %v", err)
		if errors.Is(err, imagehost.ErrUpstream) {
			c.JSON(http.StatusBadGateway, gin.H{
				"error": "Image host upload failed",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to upload image",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url": url,
	})
}
