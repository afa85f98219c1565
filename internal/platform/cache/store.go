// Package cache provides the TTL-checked quote cache and its persistence backends.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"
)

// ErrMiss is returned by a Backend when the key does not exist.
var ErrMiss = errors.New("cache: key not found")

// Backend is the raw key-value persistence a Store is bound to.
// Implementations must be safe for concurrent use.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Set overwrites key. retention is a hint for backends that can expire keys on
	// their own; Store never relies on it and checks age on every read.
	Set(ctx context.Context, key string, value []byte, retention time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Entry is a cached upstream payload and the time it was stored.
type Entry struct {
	Payload  json.RawMessage
	StoredAt time.Time
}

// record is the persisted layout: {"data": <payload>, "timestamp": <epoch-ms>}.
type record struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// Store caches payloads under namespaced keys and evicts them lazily once they are older
// than ttl. The cache is advisory: no method returns an error, backend failures are logged.
type Store struct {
	backend   Backend
	ttl       time.Duration
	namespace string
	now       func() time.Time
	log       *slog.Logger
}

// Option customizes a Store.
type Option func(*Store)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger used for swallowed backend errors.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// NewStore binds a Store to backend.
// If ttl is 0, it defaults to 5 minutes. namespace is the key prefix cleared by Clear.
func NewStore(backend Backend, ttl time.Duration, namespace string, opts ...Option) *Store {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	s := &Store{
		backend:   backend,
		ttl:       ttl,
		namespace: namespace,
		now:       time.Now,
		log:       slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// TTL returns the maximum age of an entry served by Get.
func (s *Store) TTL() time.Duration { return s.ttl }

// Get returns the entry under key if it exists and is not older than the TTL.
// Expired and corrupt entries are removed before reporting a miss.
func (s *Store) Get(ctx context.Context, key string) (Entry, bool) {
	b, err := s.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			s.log.Warn("cache read failed", "key", key, "error", err)
		}
		return Entry{}, false
	}

	var rec record
	if err := json.Unmarshal(b, &rec); err != nil || len(rec.Data) == 0 {
		s.log.Warn("dropping corrupt cache entry", "key", key, "error", err)
		s.delete(ctx, key)
		return Entry{}, false
	}

	storedAt := time.UnixMilli(rec.Timestamp)
	if s.now().Sub(storedAt) > s.ttl {
		s.delete(ctx, key)
		return Entry{}, false
	}
	return Entry{Payload: rec.Data, StoredAt: storedAt}, true
}

// Set stores payload under key, stamped with the current time.
func (s *Store) Set(ctx context.Context, key string, payload json.RawMessage) {
	b, err := json.Marshal(record{Data: payload, Timestamp: s.now().UnixMilli()})
	if err != nil {
		s.log.Warn("cache encode failed", "key", key, "error", err)
		return
	}
	if err := s.backend.Set(ctx, key, b, s.ttl); err != nil {
		s.log.Warn("cache write failed", "key", key, "error", err)
	}
}

// ClearByPrefix removes every entry whose key starts with prefix.
func (s *Store) ClearByPrefix(ctx context.Context, prefix string) {
	keys, err := s.backend.Keys(ctx, prefix)
	if err != nil {
		s.log.Warn("cache key listing failed", "prefix", prefix, "error", err)
		return
	}
	matched := keys[:0]
	for _, k := range keys {
		if strings.HasPrefix(k, prefix) {
			matched = append(matched, k)
		}
	}
	if len(matched) == 0 {
		return
	}
	s.delete(ctx, matched...)
	s.log.Info("cache cleared", "prefix", prefix, "entries", len(matched))
}

// Clear removes every entry in the store's own namespace.
func (s *Store) Clear(ctx context.Context) {
	s.ClearByPrefix(ctx, s.namespace)
}

func (s *Store) delete(ctx context.Context, keys ...string) {
	if err := s.backend.Delete(ctx, keys...); err != nil {
		s.log.Warn("cache delete failed", "keys", keys, "error", err)
	}
}
