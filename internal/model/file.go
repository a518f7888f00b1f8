package model

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"
)

// TelegramFile 附件登记表里的一条记录
// FileID 是 Telegram 返回的不透明标识，后续下载全靠它
type TelegramFile struct {
	ID         string `json:"id"`
	FileID     string `json:"fileId"`
	FileName   string `json:"fileName"`
	FileSize   int64  `json:"fileSize"`
	UploadedAt string `json:"uploadedAt"`
	UploadedBy string `json:"uploadedBy"`
}

// NewFileRecordID generates a registry record ID, same shape as message IDs.
func NewFileRecordID() string {
	return fmt.Sprintf("%d-%x", time.Now().UnixMilli(), rand.Int63())
}

// DecodeFile mirrors DecodeMessage for registry entries: plain JSON object
// or the doubly encoded historical form, anything else is skipped.
func DecodeFile(raw string) (TelegramFile, bool) {
	if raw == "" {
		return TelegramFile{}, false
	}

	var f TelegramFile
	if err := json.Unmarshal([]byte(raw), &f); err == nil && f.ID != "" {
		return f, true
	}

	var inner string
	if err := json.Unmarshal([]byte(raw), &inner); err != nil || inner == "" {
		return TelegramFile{}, false
	}
	if err := json.Unmarshal([]byte(inner), &f); err != nil || f.ID == "" {
		return TelegramFile{}, false
	}
	return f, true
}
