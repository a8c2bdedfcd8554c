package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrDraftNotFound is returned when no live draft exists under a key.
var ErrDraftNotFound = errors.New("draft not found")

// DraftKind namespaces stored drafts.
type DraftKind string

const (
	DraftKindCourse DraftKind = "course"
	DraftKindBadge  DraftKind = "badge"
)

func draftKey(kind DraftKind, id string) string {
	return fmt.Sprintf("drafts:%s:%s", kind, id)
}

// RedisDraftRepository keeps serialised drafts in Redis and lets key expiry
// drop abandoned sessions.
type RedisDraftRepository struct {
	client *redis.Client
}

// NewRedisDraftRepository builds a Redis backed draft store.
func NewRedisDraftRepository(client *redis.Client) *RedisDraftRepository {
	return &RedisDraftRepository{client: client}
}

// Load returns the stored payload.
func (r *RedisDraftRepository) Load(ctx context.Context, kind DraftKind, id string) ([]byte, error) {
	raw, err := r.client.Get(ctx, draftKey(kind, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrDraftNotFound
		}
		return nil, fmt.Errorf("load draft %s: %w", id, err)
	}
	return raw, nil
}

// Save stores payload and refreshes its expiry.
func (r *RedisDraftRepository) Save(ctx context.Context, kind DraftKind, id string, payload []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, draftKey(kind, id), payload, ttl).Err(); err != nil {
		return fmt.Errorf("save draft %s: %w", id, err)
	}
	return nil
}

// PurgeExpired is a no-op; Redis expires keys itself.
func (r *RedisDraftRepository) PurgeExpired(context.Context) (int, error) {
	return 0, nil
}

type memoryDraft struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryDraftRepository keeps drafts in process memory.
type MemoryDraftRepository struct {
	mu     sync.Mutex
	drafts map[string]memoryDraft
	now    func() time.Time
}

// NewMemoryDraftRepository builds an empty in-memory store.
func NewMemoryDraftRepository() *MemoryDraftRepository {
	return &MemoryDraftRepository{drafts: make(map[string]memoryDraft), now: time.Now}
}

// Load returns a copy of the stored payload.
func (r *MemoryDraftRepository) Load(_ context.Context, kind DraftKind, id string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drafts[draftKey(kind, id)]
	if !ok || (!d.expiresAt.IsZero() && r.now().After(d.expiresAt)) {
		return nil, ErrDraftNotFound
	}
	return append([]byte(nil), d.payload...), nil
}

// Save stores a copy of payload. A non-positive ttl never expires.
func (r *MemoryDraftRepository) Save(_ context.Context, kind DraftKind, id string, payload []byte, ttl time.Duration) error {
	d := memoryDraft{payload: append([]byte(nil), payload...)}
	if ttl > 0 {
		d.expiresAt = r.now().Add(ttl)
	}
	r.mu.Lock()
	r.drafts[draftKey(kind, id)] = d
	r.mu.Unlock()
	return nil
}

// PurgeExpired drops expired drafts and reports how many were removed.
func (r *MemoryDraftRepository) PurgeExpired(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	removed := 0
	for key, d := range r.drafts {
		if !d.expiresAt.IsZero() && now.After(d.expiresAt) {
			delete(r.drafts, key)
			removed++
		}
	}
	return removed, nil
}
