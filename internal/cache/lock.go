package cache

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"MonikaNotify/storage/redis"
)

const lockPrefix = "lock"

// Locker 基于 SETNX 的分布式锁
type Locker struct {
	client goredis.Cmdable
}

func NewLocker(client goredis.Cmdable) *Locker {
	return &Locker{client: client}
}

// TryLock 获取成功返回 true，锁已被占用返回 false
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, redis.Key(lockPrefix, key), 1, ttl).Result()
}

func (l *Locker) Unlock(ctx context.Context, key string) error {
	return l.client.Del(ctx, redis.Key(lockPrefix, key)).Err()
}
