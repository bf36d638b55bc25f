package urlstate

import (
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/NebXTeaath/GNT-Store-sub001/internal/models"
	"github.com/NebXTeaath/GNT-Store-sub001/internal/notify"
)

// NavMode selects how a URL change is recorded in history.
type NavMode int

const (
	// Push adds a new history entry (back-button navigable).
	Push NavMode = iota
	// Replace overwrites the current history entry.
	Replace
)

func (m NavMode) String() string {
	if m == Replace {
		return "replace"
	}
	return "push"
}

// Change is published to subscribers after every navigation.
type Change struct {
	Query string
	Mode  NavMode
}

// Store holds the current URL query and its navigation history. It is the only
// shared mutable search state; all reads and writes go through it.
type Store struct {
	mu      sync.Mutex
	history []string
	index   int
	hub     *notify.Hub[Change]
	logger  *zap.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreLogger sets the logger used for navigation events.
func WithStoreLogger(l *zap.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore creates a store positioned at the given raw query string. A leading
// "?" is ignored; an unparsable query starts empty.
func NewStore(rawQuery string, opts ...StoreOption) *Store {
	s := &Store{
		hub:    notify.NewHub[Change](0),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	v, err := url.ParseQuery(strings.TrimPrefix(rawQuery, "?"))
	if err != nil {
		s.logger.Warn("Ignoring invalid initial query", zap.String("query", rawQuery), zap.Error(err))
		v = url.Values{}
	}
	s.history = []string{v.Encode()}
	return s
}

// Values returns a copy of the current parameters.
func (s *Store) Values() url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked()
}

// String returns the current canonical query string without a leading "?".
func (s *Store) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history[s.index]
}

// Query decodes the current parameters.
func (s *Store) Query() Decoded {
	v := s.Values()
	return Decoded{Values: v, Query: Decode(v)}
}

// Navigate replaces the current parameters with v.
func (s *Store) Navigate(v url.Values, mode NavMode) {
	s.Update(func(cur url.Values) url.Values { return v }, mode)
}

// Update applies fn to a copy of the current parameters and navigates to the
// result. The read and the write happen under one lock so concurrent writers
// never lose each other's updates. A result identical to the current URL is not
// recorded and not published.
func (s *Store) Update(fn func(url.Values) url.Values, mode NavMode) {
	s.mu.Lock()
	next := fn(s.currentLocked())
	if next == nil {
		next = url.Values{}
	}
	raw := next.Encode()
	if raw == s.history[s.index] {
		s.mu.Unlock()
		return
	}
	switch mode {
	case Replace:
		s.history[s.index] = raw
	default:
		s.history = append(s.history[:s.index+1], raw)
		s.index++
	}
	s.mu.Unlock()

	s.logger.Debug("Navigated", zap.String("query", raw), zap.Stringer("mode", mode))
	s.hub.Publish(Change{Query: raw, Mode: mode})
}

// Back moves one entry back in history. It reports false at the oldest entry.
func (s *Store) Back() bool {
	return s.move(-1)
}

// Forward moves one entry forward in history. It reports false at the newest entry.
func (s *Store) Forward() bool {
	return s.move(1)
}

func (s *Store) move(delta int) bool {
	s.mu.Lock()
	next := s.index + delta
	if next < 0 || next >= len(s.history) {
		s.mu.Unlock()
		return false
	}
	s.index = next
	raw := s.history[next]
	s.mu.Unlock()
	s.hub.Publish(Change{Query: raw, Mode: Replace})
	return true
}

// HistoryLen returns the number of history entries.
func (s *Store) HistoryLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// Subscribe registers for change notifications. Call Unsubscribe with the id when done.
func (s *Store) Subscribe() (uint64, <-chan Change) {
	return s.hub.Subscribe()
}

// Unsubscribe removes a subscription.
func (s *Store) Unsubscribe(id uint64) {
	s.hub.Unsubscribe(id)
}

// Close releases every subscriber.
func (s *Store) Close() {
	s.hub.Close()
}

func (s *Store) currentLocked() url.Values {
	v, err := url.ParseQuery(s.history[s.index])
	if err != nil {
		return url.Values{}
	}
	return v
}

// Decoded pairs raw parameters with their decoded query.
type Decoded struct {
	Values url.Values
	Query  models.SearchQuery
}
