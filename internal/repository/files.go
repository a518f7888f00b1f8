package repository

import (
	"context"
	"encoding/json"
	"fmt"

	redis "github.com/redis/go-redis/v9"

	"github.com/lzx0713/FreeChat/internal/model"
)

// FilesKey is the single global registry list for uploaded attachments.
// Unlike chat history it never expires.
const FilesKey = "telegram:files"

// IFileRepository is the attachment registry: an append-only Redis list
// with a full read-modify-rewrite removal.
type IFileRepository interface {
	Add(ctx context.Context, file *model.TelegramFile) error
	List(ctx context.Context) ([]model.TelegramFile, error)
	Remove(ctx context.Context, id string) (bool, error)
}

type FileRepository struct {
	client *redis.Client
}

func NewFileRepository(client *redis.Client) IFileRepository {
	return &FileRepository{client: client}
}

func (r *FileRepository) Add(ctx context.Context, file *model.TelegramFile) error {
	data, err := json.Marshal(file)
	if err != nil {
		return fmt.Errorf("failed to marshal file record: %w", err)
	}
	if err := r.client.RPush(ctx, FilesKey, data).Err(); err != nil {
		return fmt.Errorf("failed to append file record: %w", err)
	}
	return nil
}

// List returns registry records in storage (upload) order. Entries that
// fail tolerant decoding are skipped.
func (r *FileRepository) List(ctx context.Context) ([]model.TelegramFile, error) {
	raw, err := r.client.LRange(ctx, FilesKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read file registry: %w", err)
	}

	files := make([]model.TelegramFile, 0, len(raw))
	for _, item := range raw {
		if f, ok := model.DecodeFile(item); ok {
			files = append(files, f)
		}
	}
	return files, nil
}

// Remove deletes the record with the given id by rewriting the whole list.
// Redis lists have no remove-by-value for structured entries, so this is a
// read-filter-del-rewrite. Two concurrent writers can lose records here;
// accepted because the registry is single-admin in practice.
func (r *FileRepository) Remove(ctx context.Context, id string) (bool, error) {
	files, err := r.List(ctx)
	if err != nil {
		return false, err
	}

	remaining := make([]*model.TelegramFile, 0, len(files))
	found := false
	for i := range files {
		if files[i].ID == id {
			found = true
			continue
		}
		remaining = append(remaining, &files[i])
	}

	if err := r.client.Del(ctx, FilesKey).Err(); err != nil {
		return false, fmt.Errorf("failed to reset file registry: %w", err)
	}
	for _, f := range remaining {
		if err := r.Add(ctx, f); err != nil {
			return false, err
		}
	}
	return found, nil
}
