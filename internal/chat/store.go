package chat

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"workshopflow/internal/kvstore"
	"workshopflow/internal/logger"
	"workshopflow/internal/metrics"
	"workshopflow/internal/user"
)

var ErrEmptyMessage = errors.New("message text is empty")

// ThreadStore is the single global support conversation. The whole thread is
// rewritten under one key on every append; writes are best effort.
type ThreadStore struct {
	mu      sync.Mutex
	kv      kvstore.Store
	key     string
	log     *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	thread []Message
	// lastID is the millisecond value used by the newest id
	lastID int64
}

func NewThreadStore(kv kvstore.Store, log *logger.Logger, m *metrics.Metrics) *ThreadStore {
	return &ThreadStore{
		kv:      kv,
		key:     kvstore.KeyChatThread,
		log:     log.WithComponent("chat"),
		metrics: m,
		now:     time.Now,
	}
}

// Load replaces the in-memory thread with the persisted one. Missing or
// unreadable data yields an empty thread; errors are only logged.
func (s *ThreadStore) Load(ctx context.Context) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	var loaded []Message
	err := kvstore.LoadJSON(ctx, s.kv, s.key, &loaded)
	switch {
	case errors.Is(err, kvstore.ErrNotFound):
		loaded = nil
	case err != nil:
		s.log.LogError(err, "error loading chat messages", "key", s.key)
		s.metrics.StoreSoftFailure(s.key, "read")
		loaded = nil
	}

	s.thread = loaded
	s.lastID = 0
	for _, m := range loaded {
		if n, ok := parseID(m.ID); ok && n > s.lastID {
			s.lastID = n
		}
	}
	return s.snapshot()
}

// Append adds a message and persists the whole thread. A failed write is
// logged and swallowed: the in-memory thread still advances.
func (s *ThreadStore) Append(ctx context.Context, rawText string, role user.Role, displayName string) ([]Message, error) {
	text := strings.TrimSpace(rawText)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	msg := Message{
		ID:         s.nextID(now),
		Text:       text,
		Sender:     displayName,
		SenderRole: role,
		Timestamp:  now.Format(timestampLayout),
		Date:       now.Format(dateLayout),
	}
	s.thread = append(s.thread, msg)
	s.metrics.ChatAppended()

	if err := kvstore.SaveJSON(ctx, s.kv, s.key, s.thread); err != nil {
		s.log.LogError(err, "error saving chat messages", "key", s.key, "messages", len(s.thread))
		s.metrics.StoreSoftFailure(s.key, "write")
	}
	return s.snapshot(), nil
}

// Messages returns the in-memory thread without touching the store.
func (s *ThreadStore) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *ThreadStore) snapshot() []Message {
	out := make([]Message, len(s.thread))
	copy(out, s.thread)
	return out
}

// nextID derives the id from the creation time, bumping past the previous id
// when the clock has not advanced.
func (s *ThreadStore) nextID(now time.Time) string {
	ms := now.UnixMilli()
	if ms <= s.lastID {
		ms = s.lastID + 1
	}
	s.lastID = ms
	return fmt.Sprintf("msg-%d", ms)
}

func parseID(id string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimPrefix(id, "msg-"), 10, 64)
	return n, err == nil
}
