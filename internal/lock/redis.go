package lock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"verdict/api/internal/util"
)

// releaseScript deletes the lock only when the stored token matches, so a
// stale release can never revoke a newer owner's claim.
const releaseScript = `
local raw = redis.call("GET", KEYS[1])
if not raw then
	return 0
end
local grant = cjson.decode(raw)
if grant.token == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// RedisLocker implements Locker on Redis. The key TTL is the lock TTL,
// so expiry needs no sweeper: an expired lock is simply an absent key.
type RedisLocker struct {
	client  *redis.Client
	prefix  string
	ttl     time.Duration
	release *redis.Script
}

// NewRedisLocker connects to Redis and returns a TTL-based locker.
func NewRedisLocker(redisURL string, ttl time.Duration) (*RedisLocker, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisLockerWithClient(client, ttl), nil
}

// NewRedisLockerWithClient builds a locker from an existing client.
func NewRedisLockerWithClient(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		client:  client,
		prefix:  "itemlock:",
		ttl:     ttl,
		release: redis.NewScript(releaseScript),
	}
}

func (l *RedisLocker) key(itemID string) string {
	return l.prefix + itemID
}

func (l *RedisLocker) Acquire(ctx context.Context, itemID, ownerID, ownerName string) (Grant, error) {
	grant := Grant{
		Token:     util.NewID("lck"),
		OwnerID:   ownerID,
		OwnerName: ownerName,
		ExpiresAt: time.Now().Add(l.ttl).UTC(),
	}
	payload, err := json.Marshal(grant)
	if err != nil {
		return Grant{}, fmt.Errorf("marshal grant: %w", err)
	}

	key := l.key(itemID)
	ok, err := l.client.SetNX(ctx, key, payload, l.ttl).Result()
	if err != nil {
		return Grant{}, fmt.Errorf("acquire lock: %w", err)
	}
	if ok {
		return grant, nil
	}

	current, err := l.Inspect(ctx, itemID)
	if err != nil {
		return Grant{}, err
	}
	if current == nil {
		// Expired between SETNX and GET; one retry claims the free slot.
		ok, err := l.client.SetNX(ctx, key, payload, l.ttl).Result()
		if err != nil {
			return Grant{}, fmt.Errorf("acquire lock: %w", err)
		}
		if ok {
			return grant, nil
		}
		current, err = l.Inspect(ctx, itemID)
		if err != nil {
			return Grant{}, err
		}
		if current == nil {
			return Grant{}, errors.New("acquire lock: key churn")
		}
	}

	if current.OwnerID == ownerID {
		// Idempotent re-acquire: same token back, TTL refreshed.
		refreshed := *current
		refreshed.ExpiresAt = time.Now().Add(l.ttl).UTC()
		payload, err := json.Marshal(refreshed)
		if err != nil {
			return Grant{}, fmt.Errorf("marshal grant: %w", err)
		}
		if err := l.client.Set(ctx, key, payload, l.ttl).Err(); err != nil {
			return Grant{}, fmt.Errorf("refresh lock: %w", err)
		}
		return refreshed, nil
	}

	return Grant{}, &HeldError{
		OwnerID:   current.OwnerID,
		OwnerName: current.OwnerName,
		ExpiresAt: current.ExpiresAt,
	}
}

func (l *RedisLocker) Release(ctx context.Context, itemID, token string) (bool, error) {
	deleted, err := l.release.Run(ctx, l.client, []string{l.key(itemID)}, token).Int()
	if err != nil {
		return false, fmt.Errorf("release lock: %w", err)
	}
	return deleted > 0, nil
}

func (l *RedisLocker) Check(ctx context.Context, itemID, token string) error {
	current, err := l.Inspect(ctx, itemID)
	if err != nil {
		return err
	}
	if current == nil {
		// Expired locks are logically absent; the version check catches
		// any decision raced past this point.
		return nil
	}
	if current.Token != token {
		return &HeldError{OwnerID: current.OwnerID, OwnerName: current.OwnerName, ExpiresAt: current.ExpiresAt}
	}
	return nil
}

func (l *RedisLocker) Inspect(ctx context.Context, itemID string) (*Grant, error) {
	raw, err := l.client.Get(ctx, l.key(itemID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("inspect lock: %w", err)
	}
	var grant Grant
	if err := json.Unmarshal([]byte(raw), &grant); err != nil {
		return nil, fmt.Errorf("unmarshal grant: %w", err)
	}
	return &grant, nil
}

// Close closes the underlying Redis connection.
func (l *RedisLocker) Close() error {
	return l.client.Close()
}

// Ping checks if Redis is reachable.
func (l *RedisLocker) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}
