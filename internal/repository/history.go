package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/lzx0713/FreeChat/internal/model"
)

// IHistoryRepository stores one day's messages per session as an ordered
// Redis list under chat:<session>:<YYYY-MM-DD>.
type IHistoryRepository interface {
	Append(ctx context.Context, session string, msg *model.ChatMessage) error
	List(ctx context.Context, session string) ([]model.ChatMessage, error)
	Clear(ctx context.Context, session string) error
}

type HistoryRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewHistoryRepository creates a history repository. ttlDays is the expiry
// renewed on every write (the key dies ttlDays after the last message).
func NewHistoryRepository(client *redis.Client, ttlDays int) IHistoryRepository {
	if ttlDays <= 0 {
		ttlDays = 2
	}
	return &HistoryRepository{
		client: client,
		ttl:    time.Duration(ttlDays) * 24 * time.Hour,
	}
}

// HistoryKey derives the list-store key for a session on a given day.
func HistoryKey(session string, day time.Time) string {
	return fmt.Sprintf("chat:%s:%s", session, day.Format("2006-01-02"))
}

func (r *HistoryRepository) Append(ctx context.Context, session string, msg *model.ChatMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	key := HistoryKey(session, time.Now())
	if err := r.client.RPush(ctx, key, data).Err(); err != nil {
		return fmt.Errorf("failed to append message to %s: %w", key, err)
	}

	// 每次写入都续期，而不是只在创建时设置
	if err := r.client.Expire(ctx, key, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to renew expiry on %s: %w", key, err)
	}
	return nil
}

func (r *HistoryRepository) List(ctx context.Context, session string) ([]model.ChatMessage, error) {
	key := HistoryKey(session, time.Now())
	raw, err := r.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history from %s: %w", key, err)
	}

	messages := make([]model.ChatMessage, 0, len(raw))
	for _, item := range raw {
		// 坏数据跳过，不能让一条脏记录毁掉整页历史
		if msg, ok := model.DecodeMessage(item); ok {
			messages = append(messages, msg)
		}
	}
	return messages, nil
}

func (r *HistoryRepository) Clear(ctx context.Context, session string) error {
	key := HistoryKey(session, time.Now())
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete history key %s: %w", key, err)
	}
	return nil
}
