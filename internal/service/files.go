package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lzx0713/FreeChat/internal/model"
	"github.com/lzx0713/FreeChat/internal/repository"
)

var (
	// ErrMissingFileFields is returned when fileId or fileName is absent.
	ErrMissingFileFields = errors.New("missing required fields")
	// ErrMissingFileID is returned by delete when no id was supplied.
	ErrMissingFileID = errors.New("missing file id")
)

// SaveFileRequest carries the caller-supplied registry fields.
type SaveFileRequest struct {
	FileID     string `json:"fileId"`
	FileName   string `json:"fileName"`
	FileSize   int64  `json:"fileSize"`
	UploadedBy string `json:"uploadedBy"`
}

// IFileService is the attachment registry coordinator.
type IFileService interface {
	ListFiles(ctx context.Context) []model.TelegramFile
	SaveFile(ctx context.Context, req *SaveFileRequest) (*model.TelegramFile, error)
	DeleteFile(ctx context.Context, id string) (bool, error)
}

type FileService struct {
	files repository.IFileRepository
}

func NewFileService(files repository.IFileRepository) IFileService {
	return &FileService{files: files}
}

// ListFiles returns registry records most-recently-uploaded first. Store
// errors yield an empty slice, mirroring the message read path.
func (s *FileService) ListFiles(ctx context.Context) []model.TelegramFile {
	files, err := s.files.List(ctx)
	if err != nil {
		return []model.TelegramFile{}
	}

	// 存储顺序是追加顺序，展示要最新的在前
	for i, j := 0, len(files)-1; i < j; i, j = i+1, j-1 {
		files[i], files[j] = files[j], files[i]
	}
	return files
}

// SaveFile appends a new registry record with a server-assigned id and
// upload timestamp.
func (s *FileService) SaveFile(ctx context.Context, req *SaveFileRequest) (*model.TelegramFile, error) {
	if req.FileID == "" || req.FileName == "" {
		return nil, ErrMissingFileFields
	}

	uploadedBy := strings.TrimSpace(req.UploadedBy)
	if uploadedBy == "" {
		uploadedBy = model.DefaultUser
	}

	file := &model.TelegramFile{
		ID:         model.NewFileRecordID(),
		FileID:     req.FileID,
		FileName:   req.FileName,
		FileSize:   req.FileSize,
		UploadedAt: time.Now().Format(time.RFC3339),
		UploadedBy: uploadedBy,
	}

	if err := s.files.Add(ctx, file); err != nil {
		return nil, err
	}
	return file, nil
}

// DeleteFile removes a record by id. The underlying removal is a full
// list rewrite, see repository.FileRepository.Remove.
func (s *FileService) DeleteFile(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, ErrMissingFileID
	}
	return s.files.Remove(ctx, id)
}
