package utils

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cppla/keepsake/engagement"
)

const defaultStateCacheTTL = 10 * time.Minute

// setIfNewer writes the entry unless the cached version is already ahead.
// KEYS[1] state key, ARGV[1] version, ARGV[2] payload, ARGV[3] ttl in ms.
var setIfNewer = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'v')
if cur and tonumber(cur) > tonumber(ARGV[1]) then
  return 0
end
redis.call('HSET', KEYS[1], 'v', ARGV[1], 's', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

// StateCache caches engagement records in Redis under state:<identity> as a
// hash of version and payload.
type StateCache struct {
	rc  *redis.Client
	ttl time.Duration
}

// NewStateCache returns nil when rc is nil.
func NewStateCache(rc *redis.Client, ttl time.Duration) *StateCache {
	if rc == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultStateCacheTTL
	}
	return &StateCache{rc: rc, ttl: ttl}
}

func stateKey(identity string) string { return "state:" + identity }

// Get returns the cached record for identity.
func (c *StateCache) Get(ctx context.Context, identity string) (engagement.State, bool) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	b, err := c.rc.HGet(ctx, stateKey(identity), "s").Bytes()
	if err != nil {
		if err != redis.Nil {
			Sugar.Debugf("state cache get failed identity=%s err=%v", identity, err)
		}
		return engagement.State{}, false
	}
	var s engagement.State
	if err := json.Unmarshal(b, &s); err != nil {
		return engagement.State{}, false
	}
	return s, true
}

// Set stores s at version unless a newer version is cached. When the write
// fails the key is dropped so an older entry cannot outlive the commit.
func (c *StateCache) Set(ctx context.Context, identity string, version int64, s engagement.State) {
	b, err := json.Marshal(s)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	key := stateKey(identity)
	if err := setIfNewer.Run(ctx, c.rc, []string{key}, version, b, c.ttl.Milliseconds()).Err(); err != nil {
		Sugar.Warnf("state cache set failed identity=%s err=%v", identity, err)
		if err := c.rc.Del(ctx, key).Err(); err != nil {
			Sugar.Warnf("state cache drop failed identity=%s err=%v", identity, err)
		}
	}
}
