package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sanosuguru/go-ticket-marketplace/internal/pkg/metrics"
)

var (
	ErrLockNotAcquired = errors.New("ロックを取得できませんでした")
	ErrLockNotOwned    = errors.New("ロックの所有者ではありません")
)

// 所有者確認と削除をアトミックに行う
var releaseScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

// DistributedLock は Redis を使用した分散ロック
type DistributedLock struct {
	manager *LockManager
	key     string
	value   string
}

// LockManager は分散ロックを管理する
// 複数レプリカで同じ定期処理が重複しないようにするために使う
type LockManager struct {
	client   redis.Cmdable
	metrics  *metrics.Metrics
	newToken func() string
}

func NewLockManager(client redis.Cmdable, m *metrics.Metrics) *LockManager {
	return &LockManager{
		client:   client,
		metrics:  m,
		newToken: func() string { return uuid.New().String() },
	}
}

// AcquireLock はロックを取得する。他が保持中なら ErrLockNotAcquired
func (m *LockManager) AcquireLock(ctx context.Context, key string, ttl time.Duration) (*DistributedLock, error) {
	start := time.Now()
	lockKey := "lock:" + key
	lockValue := m.newToken()

	ok, err := m.client.SetNX(ctx, lockKey, lockValue, ttl).Result()
	if err != nil {
		m.observe("acquire", "error", start)
		return nil, fmt.Errorf("ロック取得に失敗: %w", err)
	}
	if !ok {
		m.observe("acquire", "failed", start)
		return nil, ErrLockNotAcquired
	}
	m.observe("acquire", "success", start)

	return &DistributedLock{manager: m, key: lockKey, value: lockValue}, nil
}

// WithLock はロックを取得できた場合だけ fn を実行する
// 取得できなかった場合は (false, nil) を返す
func (m *LockManager) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) (bool, error) {
	lock, err := m.AcquireLock(ctx, key, ttl)
	if errors.Is(err, ErrLockNotAcquired) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer func() {
		// TTL切れで他に渡っている場合もあるため解放失敗は無視する
		_ = lock.Release(context.WithoutCancel(ctx))
	}()

	return true, fn(ctx)
}

// Release はロックを解放する
func (l *DistributedLock) Release(ctx context.Context) error {
	start := time.Now()
	result, err := releaseScript.Run(ctx, l.manager.client, []string{l.key}, l.value).Int()
	if err != nil {
		l.manager.observe("release", "error", start)
		return fmt.Errorf("ロック解放に失敗: %w", err)
	}
	if result == 0 {
		l.manager.observe("release", "failed", start)
		return ErrLockNotOwned
	}
	l.manager.observe("release", "success", start)
	return nil
}

func (m *LockManager) observe(operation, status string, start time.Time) {
	if m.metrics == nil {
		return
	}
	m.metrics.DistributedLockDuration.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
}
