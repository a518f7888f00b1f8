package service

import (
	"sync"
	"time"

	"github.com/lzx0713/FreeChat/internal/model"
)

// MemoryCache is the degraded-mode message buffer used when Redis writes
// fail. It keeps current-day messages only and prunes stale entries on every
// access. It is strictly best-effort: lost on restart, never shared between
// instances, never the source of truth while the store is reachable.
type MemoryCache struct {
	mu       sync.Mutex
	sessions map[string][]model.ChatMessage
	now      func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		sessions: make(map[string][]model.ChatMessage),
		now:      time.Now,
	}
}

// Add buffers a message for a session. Messages not created today are
// dropped outright.
func (c *MemoryCache) Add(session string, msg model.ChatMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isToday(msg.CreatedAt) {
		return
	}
	c.sessions[session] = c.pruneLocked(append(c.sessions[session], msg))
}

// Get returns the buffered current-day messages for a session, pruning
// anything that has rolled past midnight since it was added.
func (c *MemoryCache) Get(session string) []model.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()

	today := c.pruneLocked(c.sessions[session])
	if len(today) == 0 {
		delete(c.sessions, session)
		return nil
	}
	c.sessions[session] = today

	out := make([]model.ChatMessage, len(today))
	copy(out, today)
	return out
}

// Drop evicts a session's buffer entirely (used by the clear operation).
func (c *MemoryCache) Drop(session string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, session)
}

func (c *MemoryCache) pruneLocked(msgs []model.ChatMessage) []model.ChatMessage {
	kept := msgs[:0]
	for _, m := range msgs {
		if c.isToday(m.CreatedAt) {
			kept = append(kept, m)
		}
	}
	return kept
}

func (c *MemoryCache) isToday(createdAt string) bool {
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return false
	}
	now := c.now()
	y1, m1, d1 := t.Local().Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
