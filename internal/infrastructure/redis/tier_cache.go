package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/tickettier"
)

var (
	ErrCacheMiss = errors.New("キャッシュが見つかりません")
)

// DefaultTierCacheTTL はチケット種別一覧のキャッシュ保持期間
// 無効化の直後に古い一覧が書き戻された場合も、この期間で解消される
const DefaultTierCacheTTL = 10 * time.Second

// TierCache はイベントごとのチケット種別一覧をキャッシュする
// 残り枚数を含むため購入・価格変更・種別追加のたびに無効化する
type TierCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewTierCache は新しいTierCacheインスタンスを作成する
func NewTierCache(client redis.Cmdable, ttl time.Duration) *TierCache {
	if ttl <= 0 {
		ttl = DefaultTierCacheTTL
	}
	return &TierCache{client: client, ttl: ttl}
}

// GetTiers はキャッシュ済みの一覧を返す。未登録なら ErrCacheMiss
func (c *TierCache) GetTiers(ctx context.Context, eventID string) ([]*tickettier.TicketTier, error) {
	data, err := c.client.Get(ctx, tiersKey(eventID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}

	var tiers []*tickettier.TicketTier
	if err := json.Unmarshal(data, &tiers); err != nil {
		return nil, fmt.Errorf("キャッシュの復元に失敗: %w", err)
	}
	return tiers, nil
}

// SetTiers は一覧をキャッシュに保存する
func (c *TierCache) SetTiers(ctx context.Context, eventID string, tiers []*tickettier.TicketTier) error {
	data, err := json.Marshal(tiers)
	if err != nil {
		return fmt.Errorf("キャッシュのシリアライズに失敗: %w", err)
	}
	if err := c.client.Set(ctx, tiersKey(eventID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

// Invalidate はイベントの一覧キャッシュを削除する
func (c *TierCache) Invalidate(ctx context.Context, eventID string) error {
	if err := c.client.Del(ctx, tiersKey(eventID)).Err(); err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

func tiersKey(eventID string) string {
	return fmt.Sprintf("tiers:event:%s", eventID)
}
