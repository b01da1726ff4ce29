package notify

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SeenStore is the "already notified" set. Best effort: it is allowed
// to forget (restart, eviction), in which case a duplicate notification
// goes out. That is a tolerated, non-corrupting failure mode.
type SeenStore interface {
	// Seen reports whether the ticket number was already notified.
	Seen(ctx context.Context, ticketNumber string) (bool, error)
	// MarkSeen records the ticket number after a successful send and
	// reports whether it was seen before.
	MarkSeen(ctx context.Context, ticketNumber string) (alreadySeen bool, err error)
}

// RedisSeenStore backs the set with SETNX and a TTL, so entries age out
// on their own.
type RedisSeenStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSeenStore builds a Redis-backed seen set.
func NewRedisSeenStore(client *redis.Client, ttl time.Duration) *RedisSeenStore {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &RedisSeenStore{client: client, ttl: ttl}
}

func (s *RedisSeenStore) Seen(ctx context.Context, ticketNumber string) (bool, error) {
	n, err := s.client.Exists(ctx, "notified:"+ticketNumber).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisSeenStore) MarkSeen(ctx context.Context, ticketNumber string) (bool, error) {
	set, err := s.client.SetNX(ctx, "notified:"+ticketNumber, 1, s.ttl).Result()
	if err != nil {
		return false, err
	}
	return !set, nil
}

// MemorySeenStore is a size-bounded in-process set, used in tests and
// when Redis is not configured. Oldest entries are dropped first.
type MemorySeenStore struct {
	mu      sync.Mutex
	maxSize int
	seen    map[string]struct{}
	order   []string
}

// NewMemorySeenStore builds an in-memory seen set holding at most
// maxSize entries.
func NewMemorySeenStore(maxSize int) *MemorySeenStore {
	if maxSize <= 0 {
		maxSize = 10000
	}
	return &MemorySeenStore{
		maxSize: maxSize,
		seen:    make(map[string]struct{}, maxSize),
	}
}

func (s *MemorySeenStore) Seen(_ context.Context, ticketNumber string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[ticketNumber]
	return ok, nil
}

func (s *MemorySeenStore) MarkSeen(_ context.Context, ticketNumber string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[ticketNumber]; ok {
		return true, nil
	}
	if len(s.order) >= s.maxSize {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.seen, oldest)
	}
	s.seen[ticketNumber] = struct{}{}
	s.order = append(s.order, ticketNumber)
	return false, nil
}
