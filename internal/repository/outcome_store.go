package repository

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

// OutcomeStore counts classification terminal states. Recording is best
// effort; callers must not let a store error change a classification.
type OutcomeStore interface {
	Record(ctx context.Context, outcome domain.ClassificationOutcome) error
	Counts(ctx context.Context) (map[domain.ClassificationOutcome]int64, error)
}

// RedisOutcomeStore keeps one hash field per outcome.
type RedisOutcomeStore struct {
	rdb *redis.Client
	key string
}

// RedisOutcomeOption configures a RedisOutcomeStore.
type RedisOutcomeOption func(*RedisOutcomeStore)

// WithOutcomePrefix namespaces the hash key.
func WithOutcomePrefix(prefix string) RedisOutcomeOption {
	return func(s *RedisOutcomeStore) { s.key = strings.Trim(prefix, ":") + ":outcomes" }
}

// NewRedisOutcomeStore builds a store on an existing client.
func NewRedisOutcomeStore(rdb *redis.Client, opts ...RedisOutcomeOption) *RedisOutcomeStore {
	s := &RedisOutcomeStore{rdb: rdb, key: "classify:outcomes"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisOutcomeStore) Record(ctx context.Context, outcome domain.ClassificationOutcome) error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.HIncrBy(ctx, s.key, string(outcome), 1).Err()
}

func (s *RedisOutcomeStore) Counts(ctx context.Context) (map[domain.ClassificationOutcome]int64, error) {
	out := zeroOutcomes()
	if s == nil || s.rdb == nil {
		return out, nil
	}
	raw, err := s.rdb.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, err
	}
	for field, val := range raw {
		outcome := domain.ClassificationOutcome(field)
		if _, known := out[outcome]; !known {
			continue
		}
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			continue
		}
		out[outcome] = n
	}
	return out, nil
}

// MemoryOutcomeStore is the in-process OutcomeStore used without Redis.
type MemoryOutcomeStore struct {
	mu     sync.Mutex
	counts map[domain.ClassificationOutcome]int64
}

// NewMemoryOutcomeStore returns an empty store.
func NewMemoryOutcomeStore() *MemoryOutcomeStore {
	return &MemoryOutcomeStore{counts: make(map[domain.ClassificationOutcome]int64)}
}

func (s *MemoryOutcomeStore) Record(_ context.Context, outcome domain.ClassificationOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[outcome]++
	return nil
}

func (s *MemoryOutcomeStore) Counts(_ context.Context) (map[domain.ClassificationOutcome]int64, error) {
	out := zeroOutcomes()
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range s.counts {
		out[k] = v
	}
	return out, nil
}

func zeroOutcomes() map[domain.ClassificationOutcome]int64 {
	out := make(map[domain.ClassificationOutcome]int64)
	for _, o := range domain.ClassificationOutcomes() {
		out[o] = 0
	}
	return out
}
