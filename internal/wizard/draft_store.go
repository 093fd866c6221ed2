package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// DraftStore persists drafts under a variant key. Load reports false when no
// draft exists.
type DraftStore interface {
	Load(ctx context.Context, key string) (Fields, bool, error)
	Save(ctx context.Context, key string, f Fields) error
	Clear(ctx context.Context, key string) error
}

// MemoryDraftStore keeps drafts in process memory.
type MemoryDraftStore struct {
	mu     sync.RWMutex
	drafts map[string][]byte
}

func NewMemoryDraftStore() *MemoryDraftStore {
	return &MemoryDraftStore{drafts: make(map[string][]byte)}
}

func (s *MemoryDraftStore) Load(_ context.Context, key string) (Fields, bool, error) {
	s.mu.RLock()
	data, ok := s.drafts[key]
	s.mu.RUnlock()
	if !ok {
		return Fields{}, false, nil
	}
	var f Fields
	if err := json.Unmarshal(data, &f); err != nil {
		return Fields{}, false, fmt.Errorf("wizard: failed to decode draft: %w", err)
	}
	return f, true, nil
}

func (s *MemoryDraftStore) Save(_ context.Context, key string, f Fields) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("wizard: failed to encode draft: %w", err)
	}
	s.mu.Lock()
	s.drafts[key] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryDraftStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.drafts, key)
	s.mu.Unlock()
	return nil
}

// Has reports whether a draft is stored under key.
func (s *MemoryDraftStore) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.drafts[key]
	return ok
}

// ForSession scopes the store to one visitor, matching the Redis key layout.
func (s *MemoryDraftStore) ForSession(sessionID string) DraftStore {
	return &scopedDraftStore{inner: s, prefix: "draft:" + sessionID + ":"}
}

type scopedDraftStore struct {
	inner  DraftStore
	prefix string
}

func (s *scopedDraftStore) Load(ctx context.Context, key string) (Fields, bool, error) {
	return s.inner.Load(ctx, s.prefix+key)
}

func (s *scopedDraftStore) Save(ctx context.Context, key string, f Fields) error {
	return s.inner.Save(ctx, s.prefix+key, f)
}

func (s *scopedDraftStore) Clear(ctx context.Context, key string) error {
	return s.inner.Clear(ctx, s.prefix+key)
}

// RedisDraftStore keeps drafts in Redis under draft:<session>:<variant key>.
type RedisDraftStore struct {
	redis   *redis.Client
	session string
	ttl     time.Duration
	tracer  trace.Tracer
}

// NewRedisDraftStore returns a store with no session bound; use ForSession
// before reading or writing. A zero ttl keeps drafts until cleared.
func NewRedisDraftStore(client *redis.Client, ttl time.Duration) *RedisDraftStore {
	if client == nil {
		panic("wizard: redis client cannot be nil")
	}
	return &RedisDraftStore{
		redis:  client,
		ttl:    ttl,
		tracer: otel.Tracer("renovation.internal.wizard.drafts"),
	}
}

// ForSession scopes the store to one visitor.
func (s *RedisDraftStore) ForSession(sessionID string) DraftStore {
	scoped := *s
	scoped.session = sessionID
	return &scoped
}

func (s *RedisDraftStore) key(variantKey string) (string, error) {
	if s.session == "" {
		return "", ErrNoSession
	}
	return fmt.Sprintf("draft:%s:%s", s.session, variantKey), nil
}

func (s *RedisDraftStore) Load(ctx context.Context, variantKey string) (Fields, bool, error) {
	ctx, span := s.tracer.Start(ctx, "wizard.load_draft")
	defer span.End()

	key, err := s.key(variantKey)
	if err != nil {
		return Fields{}, false, err
	}
	data, err := s.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Fields{}, false, nil
	}
	if err != nil {
		span.RecordError(err)
		return Fields{}, false, fmt.Errorf("wizard: failed to load draft: %w", err)
	}
	var f Fields
	if err := json.Unmarshal(data, &f); err != nil {
		span.RecordError(err)
		return Fields{}, false, fmt.Errorf("wizard: failed to decode draft: %w", err)
	}
	return f, true, nil
}

func (s *RedisDraftStore) Save(ctx context.Context, variantKey string, f Fields) error {
	ctx, span := s.tracer.Start(ctx, "wizard.save_draft")
	defer span.End()

	key, err := s.key(variantKey)
	if err != nil {
		return err
	}
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("wizard: failed to encode draft: %w", err)
	}
	if err := s.redis.Set(ctx, key, data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("wizard: failed to persist draft: %w", err)
	}
	return nil
}

func (s *RedisDraftStore) Clear(ctx context.Context, variantKey string) error {
	ctx, span := s.tracer.Start(ctx, "wizard.clear_draft")
	defer span.End()

	key, err := s.key(variantKey)
	if err != nil {
		return err
	}
	if err := s.redis.Del(ctx, key).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("wizard: failed to clear draft: %w", err)
	}
	return nil
}
