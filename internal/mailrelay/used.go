package mailrelay

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// MaxCodeAttempts é o número de códigos errados que um ticket aceita antes de ser descartado.
const MaxCodeAttempts = 5

// UsedTokens acompanha cada ticket pelo jti. MarkUsed devolve false se o ticket já havia sido
// usado; CountFailure soma uma tentativa errada e devolve o total.
type UsedTokens interface {
	MarkUsed(ctx context.Context, jti string, ttl time.Duration) (bool, error)
	CountFailure(ctx context.Context, jti string, ttl time.Duration) (int64, error)
}

type expiring struct {
	count int64
	until time.Time
}

// MemoryUsedTokens guarda marcações e tentativas no processo até expirarem.
type MemoryUsedTokens struct {
	mu       sync.Mutex
	seen     map[string]time.Time
	failures map[string]expiring
	now      func() time.Time
}

func NewMemoryUsedTokens() *MemoryUsedTokens {
	return &MemoryUsedTokens{
		seen:     make(map[string]time.Time),
		failures: make(map[string]expiring),
		now:      time.Now,
	}
}

func (m *MemoryUsedTokens) MarkUsed(ctx context.Context, jti string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.pruneLocked(now)
	if _, ok := m.seen[jti]; ok {
		return false, nil
	}
	m.seen[jti] = now.Add(ttl)
	return true, nil
}

func (m *MemoryUsedTokens) CountFailure(ctx context.Context, jti string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.pruneLocked(now)
	entry, ok := m.failures[jti]
	if !ok {
		entry.until = now.Add(ttl)
	}
	entry.count++
	m.failures[jti] = entry
	return entry.count, nil
}

func (m *MemoryUsedTokens) pruneLocked(now time.Time) {
	for k, exp := range m.seen {
		if now.After(exp) {
			delete(m.seen, k)
		}
	}
	for k, entry := range m.failures {
		if now.After(entry.until) {
			delete(m.failures, k)
		}
	}
}

type redisTicketStore interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RedisUsedTokens compartilha marcações e tentativas entre instâncias do relay.
type RedisUsedTokens struct {
	client redisTicketStore
}

func NewRedisUsedTokens(client redisTicketStore) *RedisUsedTokens {
	return &RedisUsedTokens{client: client}
}

func (r *RedisUsedTokens) MarkUsed(ctx context.Context, jti string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = time.Second
	}
	return r.client.SetNX(ctx, "reset:used:"+jti, 1, ttl).Result()
}

func (r *RedisUsedTokens) CountFailure(ctx context.Context, jti string, ttl time.Duration) (int64, error) {
	if ttl <= 0 {
		ttl = time.Second
	}
	key := "reset:failures:" + jti
	n, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := r.client.Expire(ctx, key, ttl).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}
