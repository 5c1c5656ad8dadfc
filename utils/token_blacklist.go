package utils

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist remembers revoked session token ids until they expire.
// Redis is preferred so revocations are shared across instances; without it
// the list lives in process memory.
type TokenBlacklist struct {
	rc  *redis.Client
	mu  sync.RWMutex
	mem map[string]time.Time
}

// NewTokenBlacklist creates a blacklist. rc may be nil.
func NewTokenBlacklist(rc *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{rc: rc, mem: map[string]time.Time{}}
}

func blacklistKey(id string) string { return "session:revoked:" + id }

// Revoke blacklists a token id until expiresAt.
func (b *TokenBlacklist) Revoke(ctx context.Context, id string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if id == "" || ttl <= 0 {
		return
	}
	if b.rc != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := b.rc.Set(ctx, blacklistKey(id), "1", ttl).Err(); err == nil {
			return
		}
	}
	b.mu.Lock()
	b.mem[id] = expiresAt
	b.mu.Unlock()
}

// IsRevoked checks if a token id was revoked before natural expiration.
func (b *TokenBlacklist) IsRevoked(ctx context.Context, id string) bool {
	if b.rc != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if n, err := b.rc.Exists(ctx, blacklistKey(id)).Result(); err == nil && n > 0 {
			return true
		}
		// On Redis error fall through to memory; fail-open avoids locking the visitor out.
	}

	b.mu.RLock()
	expiresAt, ok := b.mem[id]
	b.mu.RUnlock()
	if !ok {
		return false
	}
	if time.Now().After(expiresAt) {
		b.mu.Lock()
		delete(b.mem, id)
		b.mu.Unlock()
		return false
	}
	return true
}
