package distlock

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Lock values are "<owner>|<acquired-at-millis>" so any observer can judge
// staleness without a round trip to the holder.

// reclaimScript swaps in our value only if the current holder is still the
// one we judged stale, so two reclaimers cannot both win.
var reclaimScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	redis.call("set", KEYS[1], ARGV[2], "px", ARGV[3])
	return 1
end
return 0
`)

// releaseScript deletes the key only when we still own it.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker implements Locker on a shared redis. Keys expire at the
// staleness threshold as a backstop; explicit reclamation handles holders
// whose clock kept the key alive.
type RedisLocker struct {
	client     *redis.Client
	staleAfter time.Duration
	keyPrefix  string
	logger     *zap.Logger
}

func NewRedisLocker(client *redis.Client, staleAfter time.Duration, logger *zap.Logger) *RedisLocker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLocker{
		client:     client,
		staleAfter: staleAfter,
		keyPrefix:  "lock.",
		logger:     logger,
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, timeout time.Duration) (*Handle, error) {
	deadline := time.Now().Add(timeout)
	redisKey := l.keyPrefix + key

	for {
		now := time.Now()
		owner := uuid.New().String()
		value := lockValue(owner, now)

		ok, err := l.client.SetNX(ctx, redisKey, value, l.staleAfter).Result()
		if err != nil {
			return nil, fmt.Errorf("distlock: setnx %s: %w", key, err)
		}
		if ok {
			return &Handle{Key: key, Owner: owner, AcquiredAt: now}, nil
		}

		if handle, err := l.tryReclaim(ctx, redisKey, key); err != nil {
			return nil, err
		} else if handle != nil {
			return handle, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(acquirePollInterval):
		}
		if time.Now().After(deadline) {
			return nil, ErrAcquireTimeout
		}
	}
}

// tryReclaim takes over a lock whose recorded acquisition time is older than
// the staleness threshold.
func (l *RedisLocker) tryReclaim(ctx context.Context, redisKey, key string) (*Handle, error) {
	current, err := l.client.Get(ctx, redisKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("distlock: get %s: %w", key, err)
	}

	_, acquiredAt, parseErr := parseLockValue(current)
	if parseErr != nil {
		return nil, nil
	}
	if time.Since(acquiredAt) < l.staleAfter {
		return nil, nil
	}

	now := time.Now()
	owner := uuid.New().String()
	won, err := reclaimScript.Run(ctx, l.client, []string{redisKey},
		current, lockValue(owner, now), l.staleAfter.Milliseconds()).Int()
	if err != nil {
		return nil, fmt.Errorf("distlock: reclaim %s: %w", key, err)
	}
	if won == 0 {
		return nil, nil
	}

	l.logger.Warn("reclaimed stale lock",
		zap.String("key", key),
		zap.Time("stale_since", acquiredAt))
	return &Handle{Key: key, Owner: owner, AcquiredAt: now}, nil
}

func (l *RedisLocker) Release(ctx context.Context, handle *Handle) error {
	value := lockValue(handle.Owner, handle.AcquiredAt)
	deleted, err := releaseScript.Run(ctx, l.client, []string{l.keyPrefix + handle.Key}, value).Int()
	if err != nil {
		return fmt.Errorf("distlock: release %s: %w", handle.Key, err)
	}
	if deleted == 0 {
		return ErrNotHeld
	}
	return nil
}

func lockValue(owner string, acquiredAt time.Time) string {
	return owner + "|" + strconv.FormatInt(acquiredAt.UnixMilli(), 10)
}

func parseLockValue(value string) (string, time.Time, error) {
	parts := strings.SplitN(value, "|", 2)
	if len(parts) != 2 {
		return "", time.Time{}, fmt.Errorf("distlock: malformed lock value %q", value)
	}
	millis, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", time.Time{}, err
	}
	return parts[0], time.UnixMilli(millis), nil
}
