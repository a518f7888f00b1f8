package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lzx0713/FreeChat/internal/service"
	"github.com/lzx0713/FreeChat/internal/telegram"
)

// FileHandler 附件登记表 + Telegram 文件中转接口
type FileHandler struct {
	fileService service.IFileService
	botClient   *telegram.Client
}

func NewFileHandler(fileService service.IFileService, botClient *telegram.Client) *FileHandler {
	return &FileHandler{
		fileService: fileService,
		botClient:   botClient,
	}
}

// GetFiles 登记表里的全部记录，最新的在前
func (h *FileHandler) GetFiles(c *gin.Context) {
	files := h.fileService.ListFiles(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"files": files,
	})
}

// SaveFile 上传完成后登记一条文件记录
func (h *FileHandler) SaveFile(c *gin.Context) {
	var req service.SaveFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("SaveFile: JSON binding error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request body",
		})
		return
	}

	file, err := h.fileService.SaveFile(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrMissingFileFields) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Missing required fields",
			})
			return
		}
		log.Printf("SaveFile: service error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to save file",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"file":    file,
	})
}

// DeleteFile 按登记 id 删除一条记录
// 底层是整表重写，见 repository.FileRepository.Remove
func (h *FileHandler) DeleteFile(c *gin.Context) {
	var req struct {
		ID string `json:"id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Missing file id",
		})
		return
	}

	if _, err := h.fileService.DeleteFile(c.Request.Context(), req.ID); err != nil {
		log.Printf("DeleteFile: service error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to delete file",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}

// Upload 把 multipart 文件转发给 Telegram 机器人当免费存储
func (h *FileHandler) Upload(c *gin.Context) {
	if !h.botClient.Configured() {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Telegram configuration missing, set TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID",
		})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "No file uploaded",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Printf("Upload: failed to open multipart file: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to read uploaded file",
		})
		return
	}
	defer file.Close()

	result, err := h.botClient.Upload(c.Request.Context(), fileHeader.Filename, file)
	if err != nil {
		h.respondUpstreamError(c, "upload", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"fileId":   result.FileID,
		"fileName": result.FileName,
		"fileSize": result.FileSize,
	})
}

// Download 两步代理下载：先 getFile 换路径，再转发字节流
// 路径有时效，所以每次都重新解析，不做缓存
func (h *FileHandler) Download(c *gin.Context) {
	fileID := c.Param("id")

	result, err := h.botClient.Download(c.Request.Context(), fileID)
	if err != nil {
		if errors.Is(err, telegram.ErrFileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "File not found or expired",
			})
			return
		}
		h.respondUpstreamError(c, "download", err)
		return
	}
	defer result.Body.Close()

	extraHeaders := map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", result.FileName),
	}
	c.DataFromReader(http.StatusOK, -1, result.ContentType, result.Body, extraHeaders)
}

// TestBot 机器人连通性自检
func (h *FileHandler) TestBot(c *gin.Context) {
	info, err := h.botClient.GetMe(c.Request.Context())
	if err != nil {
		h.respondUpstreamError(c, "test", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":  true,
		"bot": info,
	})
}

// respondUpstreamError 按错误类别映射状态码：
// 配置缺失 500，超时 504，拒绝连接 502，其余 500
func (h *FileHandler) respondUpstreamError(c *gin.Context, op string, err error) {
	log.Printf("telegram %s error: %v", op, err)

	if errors.Is(err, telegram.ErrNotConfigured) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Telegram configuration missing, set TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID",
		})
		return
	}

	var upstream *telegram.UpstreamError
	if errors.As(err, &upstream) {
		switch upstream.Category {
		case telegram.CategoryTimeout:
			c.JSON(http.StatusGatewayTimeout, gin.H{
				"error": "Telegram request timed out, check network or proxy settings",
			})
			return
		case telegram.CategoryConnRefused:
			c.JSON(http.StatusBadGateway, gin.H{
				"error": "Cannot reach Telegram, check network or proxy settings",
			})
			return
		}
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"error": err.Error(),
	})
}
