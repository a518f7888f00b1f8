package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lzx0713/FreeChat/internal/service"
)

// MessageHandler 聊天消息接口
type MessageHandler struct {
	messageService service.IMessageService
}

func NewMessageHandler(messageService service.IMessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// GetMessages 拉取当天的会话历史
// 任何存储故障都已经在 service 层兜底，这里永远返回 200
func (h *MessageHandler) GetMessages(c *gin.Context) {
	messages := h.messageService.ListMessages(c.Request.Context(), c.Query("session"))
	c.JSON(http.StatusOK, gin.H{
		"messages": messages,
	})
}

// PostMessage 发送消息
func (h *MessageHandler) PostMessage(c *gin.Context) {
	var req service.PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("PostMessage: JSON binding error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request body",
		})
		return
	}

	_, err := h.messageService.PostMessage(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrEmptyMessage) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Message content or attachments cannot be empty",
			})
			return
		}
		log.Printf("PostMessage: service error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to send message",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok": true,
	})
}

// ClearMessages 清空一个会话当天的历史，幂等
func (h *MessageHandler) ClearMessages(c *gin.Context) {
	if err := h.messageService.ClearSession(c.Request.Context(), c.Query("session")); err != nil {
		log.Printf("ClearMessages: service error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to clear messages",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok": true,
	})
}
