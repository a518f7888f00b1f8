package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lzx0713/FreeChat/config"
	"github.com/lzx0713/FreeChat/internal/model"
	"github.com/lzx0713/FreeChat/internal/repository"
	logger "github.com/lzx0713/FreeChat/middleware/log"
)

var (
	// ErrEmptyMessage is returned when a post has neither text nor attachments.
	ErrEmptyMessage = errors.New("message content or attachments cannot be empty")
	// ErrBroadcastFailed wraps a broadcast publish failure. Persistence is
	// best-effort but broadcast is the delivery path, so this fails the post.
	ErrBroadcastFailed = errors.New("failed to broadcast message")
)

// Broadcaster delivers an accepted message to all viewers of a session.
type Broadcaster interface {
	Broadcast(ctx context.Context, session string, msg *model.ChatMessage) error
}

// PostMessageRequest carries the client-supplied fields of a post. ID and
// CreatedAt are never taken from the client.
type PostMessageRequest struct {
	User        string                 `json:"user"`
	Text        string                 `json:"text"`
	Attachments []model.ChatAttachment `json:"attachments"`
	Session     string                 `json:"session"`
}

// IMessageService defines the message coordinator operations.
type IMessageService interface {
	ListMessages(ctx context.Context, session string) []model.ChatMessage
	PostMessage(ctx context.Context, req *PostMessageRequest) (*model.ChatMessage, error)
	ClearSession(ctx context.Context, session string) error
}

// MessageService coordinates the list store, the fallback buffer and the
// broadcast channel for one message timeline per session and day.
type MessageService struct {
	history     repository.IHistoryRepository
	broadcaster Broadcaster
	fallback    *MemoryCache
	cfg         config.ChatConfig
	log         *logger.Logger
}

func NewMessageService(
	history repository.IHistoryRepository,
	broadcaster Broadcaster,
	fallback *MemoryCache,
	cfg config.ChatConfig,
	log *logger.Logger,
) IMessageService {
	return &MessageService{
		history:     history,
		broadcaster: broadcaster,
		fallback:    fallback,
		cfg:         cfg,
		log:         log,
	}
}

// ListMessages returns today's messages for a session in insertion order.
// Store errors are logged and produce the fallback buffer contents instead;
// the caller never sees an error.
func (s *MessageService) ListMessages(ctx context.Context, session string) []model.ChatMessage {
	session = s.normalizeSession(session)

	messages, err := s.history.List(ctx, session)
	if err != nil {
		s.log.Warn("history read failed, serving fallback buffer",
			zap.String("session", session), zap.Error(err))
		buffered := s.fallback.Get(session)
		if buffered == nil {
			buffered = []model.ChatMessage{}
		}
		return buffered
	}
	return messages
}

// PostMessage validates and normalizes a post, persists it best-effort and
// broadcasts it. Persistence failures are swallowed; broadcast failures are
// returned as ErrBroadcastFailed.
func (s *MessageService) PostMessage(ctx context.Context, req *PostMessageRequest) (*model.ChatMessage, error) {
	hasText := strings.TrimSpace(req.Text) != ""
	if !hasText && len(req.Attachments) == 0 {
		return nil, ErrEmptyMessage
	}

	session := s.normalizeSession(req.Session)
	msg := s.buildMessage(req)

	// 1. 持久化失败只记日志并落入内存兜底，绝不能挡住广播
	if err := s.history.Append(ctx, session, msg); err != nil {
		s.log.Warn("history append failed, message parked in memory",
			zap.String("session", session), zap.String("id", msg.ID), zap.Error(err))
		s.fallback.Add(session, *msg)
	}

	// 2. 广播失败要让请求失败，送达优先于落盘
	if err := s.broadcaster.Broadcast(ctx, session, msg); err != nil {
		s.log.Error("broadcast failed",
			zap.String("session", session), zap.String("id", msg.ID), zap.Error(err))
		return nil, errors.Join(ErrBroadcastFailed, err)
	}

	return msg, nil
}

// ClearSession deletes today's history for a session. Deleting a key that
// does not exist is fine.
func (s *MessageService) ClearSession(ctx context.Context, session string) error {
	session = s.normalizeSession(session)
	s.fallback.Drop(session)
	return s.history.Clear(ctx, session)
}

// buildMessage applies the length bounds and placeholder defaults and stamps
// server-side id and timestamp.
func (s *MessageService) buildMessage(req *PostMessageRequest) *model.ChatMessage {
	user := strings.TrimSpace(req.User)
	if user == "" {
		user = model.DefaultUser
	}

	msg := &model.ChatMessage{
		ID:        model.NewMessageID(),
		User:      model.Truncate(user, s.cfg.MaxUserLen),
		Text:      model.Truncate(req.Text, s.cfg.MaxTextLen),
		CreatedAt: time.Now().Format(time.RFC3339),
	}

	if len(req.Attachments) == 0 {
		return msg
	}

	atts := req.Attachments
	if len(atts) > s.cfg.MaxAttachments {
		atts = atts[:s.cfg.MaxAttachments]
	}
	msg.Attachments = make([]model.ChatAttachment, 0, len(atts))
	for _, att := range atts {
		name := att.Name
		if name == "" {
			name = model.DefaultAttachmentName
		}
		attType := model.AttachmentTypeFile
		if att.Type == model.AttachmentTypeImage {
			attType = model.AttachmentTypeImage
		}
		msg.Attachments = append(msg.Attachments, model.ChatAttachment{
			URL:  model.Truncate(att.URL, model.MaxAttachmentURLLen),
			Name: model.Truncate(name, model.MaxAttachmentNameLen),
			Type: attType,
		})
	}
	return msg
}

func (s *MessageService) normalizeSession(session string) string {
	return model.NormalizeSession(session, s.cfg.DefaultSession)
}
