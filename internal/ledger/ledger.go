// Package ledger keeps an in-memory record of the tool calls made while
// generating each delivered bot reply, keyed by the reply message's identity
// and creation time. The conversation assembler reads it to splice past tool
// invocations back into the context window.
package ledger

import (
	"log/slog"
	"sync"
	"time"
)

// Call is one tool invocation the model requested.
type Call struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON string
}

// Result is the outcome of one Call, correlated by ToolCallID.
type Result struct {
	ToolCallID string `json:"tool_call_id"`
	Name       string `json:"name"`
	Content    string `json:"content"`
}

// Key identifies a delivered message. The creation time disambiguates
// edited or reposted messages that reuse an ID.
type Key struct {
	MessageID    string
	CreatedMilli int64
}

// NewKey builds a composite key from a message ID and its creation time.
func NewKey(messageID string, createdAt time.Time) Key {
	return Key{MessageID: messageID, CreatedMilli: createdAt.UnixMilli()}
}

// Entry records the tool activity behind one delivered reply.
type Entry struct {
	MessageID string
	Content   string // the reply text as delivered
	CreatedAt time.Time
	Calls     []Call
	Results   []Result
}

// HasCalls reports whether the entry recorded any tool activity.
func (e Entry) HasCalls() bool {
	return len(e.Calls) > 0
}

// Store is the process-wide tool-call ledger. Written by the delivery layer,
// read by the conversation assembler. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries map[Key]Entry
	logger  *slog.Logger
}

// New creates an empty ledger store.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		entries: make(map[Key]Entry),
		logger:  logger,
	}
}

// Put stores an entry under the given key, overwriting any existing entry.
func (s *Store) Put(key Key, entry Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry
}

// Get returns the entry for the exact composite key.
func (s *Store) Get(key Key) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	return e, ok
}

// GetByMessageID returns the entry whose message ID matches, scanning the
// store. Callers use this when they hold a message but not the creation time
// that was cached at store time (the platform may re-resolve timestamps
// differently across fetches).
func (s *Store) GetByMessageID(messageID string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for k, e := range s.entries {
		if k.MessageID == messageID {
			return e, true
		}
	}
	return Entry{}, false
}

// Evict removes entries that have fallen out of the live history window.
// An entry is removed only when its composite key is absent from liveKeys
// AND its message ID is absent from liveIDs. Requiring both to miss keeps an
// entry alive through timestamp drift as long as its message is still in the
// window.
func (s *Store) Evict(liveKeys map[Key]struct{}, liveIDs map[string]struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.entries {
		if _, ok := liveKeys[k]; ok {
			continue
		}
		if _, ok := liveIDs[k.MessageID]; ok {
			continue
		}
		delete(s.entries, k)
		s.logger.Debug("ledger entry evicted",
			"message_id", k.MessageID,
			"created_milli", k.CreatedMilli,
		)
	}
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
