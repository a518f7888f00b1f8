package model

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"
)

const (
	// AttachmentTypeImage 图片附件，前端内联展示
	AttachmentTypeImage = "image"
	// AttachmentTypeFile 其他一律按普通文件处理
	AttachmentTypeFile = "file"

	MaxAttachmentURLLen  = 1000
	MaxAttachmentNameLen = 200

	DefaultUser           = "Anonymous"
	DefaultAttachmentName = "File"
)

// ChatAttachment 消息附件
// URL 可以为空字符串（附件还在上传途中时占位）
type ChatAttachment struct {
	URL  string `json:"url"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// ChatMessage 单条聊天消息
// ID 和 CreatedAt 永远由服务端生成，不信任客户端传入的值
type ChatMessage struct {
	ID          string           `json:"id"`
	User        string           `json:"user"`
	Text        string           `json:"text"`
	CreatedAt   string           `json:"createdAt"`
	Attachments []ChatAttachment `json:"attachments,omitempty"`
}

// NewMessageID generates a message ID in the form
// <millisecond-timestamp>-<random-hex-suffix>. Not globally unique, but
// collisions are negligible at chat-room scale.
func NewMessageID() string {
	return fmt.Sprintf("%d-%x", time.Now().UnixMilli(), rand.Int63())
}

// DecodeMessage normalizes a raw list-store entry into a ChatMessage.
// Historical entries were stored as doubly encoded JSON strings while newer
// ones are plain objects; both forms are accepted. The boolean is false for
// empty or unparseable entries, which callers skip without failing the read.
func DecodeMessage(raw string) (ChatMessage, bool) {
	if raw == "" {
		return ChatMessage{}, false
	}

	var msg ChatMessage
	if err := json.Unmarshal([]byte(raw), &msg); err == nil && msg.ID != "" {
		return msg, true
	}

	// 旧数据：JSON 字符串里再包一层 JSON
	var inner string
	if err := json.Unmarshal([]byte(raw), &inner); err != nil || inner == "" {
		return ChatMessage{}, false
	}
	if err := json.Unmarshal([]byte(inner), &msg); err != nil || msg.ID == "" {
		return ChatMessage{}, false
	}
	return msg, true
}

// Truncate cuts s to at most max runes. Counting runes rather than bytes so
// multi-byte text is never cut mid-character.
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
