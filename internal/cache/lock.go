package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockNotAcquired 锁已被其他请求持有
var ErrLockNotAcquired = errors.New("lock not acquired")

var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock 分布式互斥锁句柄，未启用 Redis 时为空操作
type Lock struct {
	key   string
	token string
}

// SellerSettlementLockKey 卖家结算申请锁
func SellerSettlementLockKey(sellerID uint) string {
	return fmt.Sprintf("lock:settlement:seller:%d", sellerID)
}

// AcquireLock 尝试获取锁，已被占用时返回 ErrLockNotAcquired
func AcquireLock(ctx context.Context, key string, ttl time.Duration) (*Lock, error) {
	if !Enabled() {
		return &Lock{}, nil
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	token := uuid.NewString()
	ok, err := redisClient.SetNX(ctx, buildKey(key), token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockNotAcquired
	}
	return &Lock{key: key, token: token}, nil
}

// Release 释放锁，仅删除自己持有的值
func (l *Lock) Release(ctx context.Context) error {
	if l == nil || l.token == "" || !Enabled() {
		return nil
	}
	return releaseLockScript.Run(ctx, redisClient, []string{buildKey(l.key)}, l.token).Err()
}
