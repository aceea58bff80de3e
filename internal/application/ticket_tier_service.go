package application

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/event"
	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/identity"
	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/tickettier"
	redisinfra "github.com/sanosuguru/go-ticket-marketplace/internal/infrastructure/redis"
	"github.com/sanosuguru/go-ticket-marketplace/internal/pkg/apperror"
	"github.com/sanosuguru/go-ticket-marketplace/internal/pkg/logger"
)

// TicketTierService はイベントのチケット種別（販売枠）を管理する
type TicketTierService struct {
	tierRepo  tickettier.Repository
	eventRepo event.Repository
	cache     TierCache
}

// NewTicketTierService は TicketTierService を作成する。cache は nil でもよい
func NewTicketTierService(tierRepo tickettier.Repository, eventRepo event.Repository, cache TierCache) *TicketTierService {
	return &TicketTierService{tierRepo: tierRepo, eventRepo: eventRepo, cache: cache}
}

type CreateTicketTierInput struct {
	EventID       string
	Name          string
	Category      tickettier.Category
	Price         decimal.Decimal
	TotalQuantity int
	SaleStart     time.Time
	SaleEnd       time.Time
}

func (s *TicketTierService) CreateTicketTier(ctx context.Context, actor identity.Actor, input CreateTicketTierInput) (*tickettier.TicketTier, error) {
	if err := s.authorize(ctx, actor, input.EventID); err != nil {
		return nil, err
	}

	tier := tickettier.NewTicketTier(input.EventID, input.Name, input.Category, input.Price,
		input.TotalQuantity, input.SaleStart, input.SaleEnd)
	if err := tier.Validate(); err != nil {
		return nil, toAppError(err)
	}
	if err := s.tierRepo.Create(ctx, tier); err != nil {
		return nil, toAppError(err)
	}
	s.invalidate(ctx, input.EventID)

	logger.Info("チケット種別を作成しました",
		zap.String("event_id", tier.EventID),
		zap.String("ticket_tier_id", tier.ID),
		zap.String("category", string(tier.Category)),
	)
	return tier, nil
}

// ListTicketTiers はイベントのチケット種別を価格の昇順で返す
func (s *TicketTierService) ListTicketTiers(ctx context.Context, eventID string) ([]*tickettier.TicketTier, error) {
	if s.cache != nil {
		tiers, err := s.cache.GetTiers(ctx, eventID)
		if err == nil {
			logger.Debug("キャッシュヒット", zap.String("event_id", eventID), zap.Int("count", len(tiers)))
			return tiers, nil
		}
		if !errors.Is(err, redisinfra.ErrCacheMiss) {
			logger.Warn("キャッシュ取得エラー", zap.Error(err))
		}
	}

	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		return nil, toAppError(err)
	}
	tiers, err := s.tierRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, toAppError(err)
	}

	// 読み取り後に他のリクエストが Invalidate していても、古い一覧を書き戻しうる
	// 表示用の残り枚数がTTLの間ずれるだけで、在庫の確保は常にDBで判定する
	if s.cache != nil {
		if err := s.cache.SetTiers(ctx, eventID, tiers); err != nil {
			logger.Warn("キャッシュ保存エラー", zap.Error(err))
		}
	}
	return tiers, nil
}

type UpdateTierPriceInput struct {
	EventID      string
	TicketTierID string
	Price        decimal.Decimal
}

// UpdateTierPrice は以降の購入に適用される価格を変更する
// 作成済みの注文の合計金額は変わらない
func (s *TicketTierService) UpdateTierPrice(ctx context.Context, actor identity.Actor, input UpdateTierPriceInput) (*tickettier.TicketTier, error) {
	if input.Price.IsNegative() {
		return nil, toAppError(tickettier.ErrInvalidPrice)
	}
	if err := s.authorize(ctx, actor, input.EventID); err != nil {
		return nil, err
	}

	current, err := s.tierRepo.GetByID(ctx, input.TicketTierID)
	if err != nil {
		return nil, toAppError(err)
	}
	if current.EventID != input.EventID {
		return nil, apperror.NotFound("チケット種別", tickettier.ErrTicketTierNotFound)
	}

	updated, err := s.tierRepo.UpdatePrice(ctx, input.TicketTierID, input.Price)
	if err != nil {
		return nil, toAppError(err)
	}
	s.invalidate(ctx, input.EventID)

	logger.Info("チケット価格を変更しました",
		zap.String("ticket_tier_id", updated.ID),
		zap.String("old_price", current.Price.String()),
		zap.String("new_price", updated.Price.String()),
	)
	return updated, nil
}

func (s *TicketTierService) authorize(ctx context.Context, actor identity.Actor, eventID string) error {
	e, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return toAppError(err)
	}
	if !actor.CanManage(e.OrganizerID) {
		return toAppError(event.ErrNotEventOrganizer)
	}
	return nil
}

func (s *TicketTierService) invalidate(ctx context.Context, eventID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, eventID); err != nil {
		logger.Warn("キャッシュ無効化エラー", zap.String("event_id", eventID), zap.Error(err))
	}
}
