package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/order"
	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/tickettier"
	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/transaction"
	"github.com/sanosuguru/go-ticket-marketplace/internal/pkg/apperror"
	"github.com/sanosuguru/go-ticket-marketplace/internal/pkg/logger"
	"github.com/sanosuguru/go-ticket-marketplace/internal/pkg/metrics"
)

const (
	defaultPurchaseMaxRetries   = 3
	defaultPurchaseRetryBackoff = 50 * time.Millisecond
)

// PurchaseService は在庫の確保と注文の作成を1つのトランザクションで行う
// 購入経路ではプロセス内ロックを使わず、在庫台帳の条件付き更新で売り越しを防ぐ
type PurchaseService struct {
	txManager transaction.Manager
	tierRepo  tickettier.Repository
	orderRepo order.Repository

	cache     TierCache
	publisher OrderEventPublisher
	metrics   *metrics.Metrics

	now          func() time.Time
	newPaymentID func() string
	maxRetries   int
	retryBackoff time.Duration
}

type PurchaseOption func(*PurchaseService)

// WithTierCache はコミット後に無効化するキャッシュを設定する
func WithTierCache(c TierCache) PurchaseOption {
	return func(s *PurchaseService) { s.cache = c }
}

func WithOrderEventPublisher(p OrderEventPublisher) PurchaseOption {
	return func(s *PurchaseService) { s.publisher = p }
}

func WithPurchaseMetrics(m *metrics.Metrics) PurchaseOption {
	return func(s *PurchaseService) { s.metrics = m }
}

// WithClock は販売期間の判定に使う時計を差し替える
func WithClock(now func() time.Time) PurchaseOption {
	return func(s *PurchaseService) { s.now = now }
}

// WithRetryPolicy は一時的な競合時の再試行回数と待ち時間を設定する
func WithRetryPolicy(maxRetries int, backoff time.Duration) PurchaseOption {
	return func(s *PurchaseService) {
		if maxRetries >= 0 {
			s.maxRetries = maxRetries
		}
		if backoff >= 0 {
			s.retryBackoff = backoff
		}
	}
}

func NewPurchaseService(tm transaction.Manager, tierRepo tickettier.Repository, orderRepo order.Repository, opts ...PurchaseOption) *PurchaseService {
	s := &PurchaseService{
		txManager:    tm,
		tierRepo:     tierRepo,
		orderRepo:    orderRepo,
		now:          time.Now,
		newPaymentID: newPaymentID,
		maxRetries:   defaultPurchaseMaxRetries,
		retryBackoff: defaultPurchaseRetryBackoff,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newPaymentID() string {
	return "PAY-" + uuid.NewString()
}

type PurchaseInput struct {
	UserID       string
	EventID      string
	TicketTierID string
	Quantity     int
}

// PurchaseTickets は在庫を確保して支払い待ちの注文を作成する
// 成功した場合のみ在庫が減り、失敗時は在庫も注文も変化しない
func (s *PurchaseService) PurchaseTickets(ctx context.Context, input PurchaseInput) (*order.Order, error) {
	start := time.Now()

	if err := tickettier.ValidatePurchaseQuantity(input.Quantity); err != nil {
		s.countPurchase("invalid")
		return nil, apperror.BadRequest(err.Error(), err).WithReason(apperror.ReasonInvalidQuantity)
	}
	if input.UserID == "" {
		return nil, apperror.Unauthorized("認証が必要です", order.ErrUserIDRequired)
	}

	var (
		o    *order.Order
		tier *tickettier.TicketTier
		err  error
	)
	for attempt := 0; ; attempt++ {
		o, tier, err = s.purchaseOnce(ctx, input)
		if err == nil || !isRetryablePurchaseError(err) {
			break
		}
		if attempt >= s.maxRetries {
			s.countPurchase("contention")
			logger.Warn("購入処理の再試行上限に達しました",
				zap.String("ticket_tier_id", input.TicketTierID),
				zap.Int("attempts", attempt+1),
				zap.Error(err),
			)
			return nil, apperror.RetryableConflict("購入処理が混み合っています。しばらくしてから再度お試しください", err)
		}
		if s.metrics != nil {
			s.metrics.PurchaseRetriesTotal.Inc()
		}
		if werr := s.waitRetry(ctx, attempt); werr != nil {
			return nil, apperror.Internal(werr)
		}
	}
	if err != nil {
		return nil, s.classifyPurchaseError(ctx, input, err)
	}

	s.afterCommit(ctx, o, tier, start)
	return o, nil
}

// purchaseOnce は1回分のトランザクションを実行する
// どの経路で抜けても defer の Rollback で未コミットの変更は破棄される
func (s *PurchaseService) purchaseOnce(ctx context.Context, input PurchaseInput) (*order.Order, *tickettier.TicketTier, error) {
	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	tier, err := s.tierRepo.Reserve(ctx, tx, input.TicketTierID, input.EventID, input.Quantity)
	if err != nil {
		return nil, nil, err
	}
	if !tier.IsOnSale(s.now()) {
		return nil, nil, tickettier.ErrSaleWindowClosed
	}

	o := order.NewOrder(input.UserID, input.EventID, tier.ID, input.Quantity, tier.TotalPriceFor(input.Quantity), s.newPaymentID())
	if err := o.Validate(); err != nil {
		return nil, nil, err
	}
	if err := s.orderRepo.Create(ctx, tx, o); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	return o, tier, nil
}

func isRetryablePurchaseError(err error) bool {
	return transaction.IsTransient(err) || errors.Is(err, order.ErrPaymentIDCollision)
}

func (s *PurchaseService) waitRetry(ctx context.Context, attempt int) error {
	if s.retryBackoff <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.retryBackoff * time.Duration(attempt+1))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// classifyPurchaseError はロールバック済みの失敗を呼び出し側向けのエラーに変換する
func (s *PurchaseService) classifyPurchaseError(ctx context.Context, input PurchaseInput, err error) error {
	switch {
	case errors.Is(err, tickettier.ErrReservationRejected):
		return s.diagnoseRejection(ctx, input)
	case errors.Is(err, tickettier.ErrSaleWindowClosed):
		s.countPurchase("sale_closed")
		return apperror.BadRequest(err.Error(), err).WithReason(apperror.ReasonSaleWindowClosed)
	case errors.Is(err, order.ErrEventIDRequired), errors.Is(err, order.ErrTicketTierIDRequired):
		s.countPurchase("invalid")
		return apperror.BadRequest(err.Error(), err)
	default:
		s.countPurchase("error")
		logger.Error("購入処理に失敗しました",
			zap.String("ticket_tier_id", input.TicketTierID),
			zap.String("event_id", input.EventID),
			zap.Error(err),
		)
		return apperror.Internal(err)
	}
}

// diagnoseRejection は確保に失敗した理由を読み直して判定する
// この読み取りはメッセージの組み立てにのみ使い、結果の正否には影響しない
func (s *PurchaseService) diagnoseRejection(ctx context.Context, input PurchaseInput) error {
	tier, err := s.tierRepo.GetByID(ctx, input.TicketTierID)
	if err != nil {
		if errors.Is(err, tickettier.ErrTicketTierNotFound) {
			s.countPurchase("not_found")
			return apperror.NotFound("チケット種別", err)
		}
		s.countPurchase("error")
		return apperror.Internal(err)
	}
	if tier.EventID != input.EventID {
		s.countPurchase("not_found")
		return apperror.NotFound("チケット種別", tickettier.ErrTicketTierNotFound)
	}

	available := tier.AvailableQuantity()
	if available < 0 {
		available = 0
	}
	s.countPurchase("insufficient")
	msg := fmt.Sprintf("在庫が不足しています（リクエスト: %d枚、残り: %d枚）", input.Quantity, available)
	return apperror.Conflict(msg, tickettier.ErrInsufficientStock).WithReason(apperror.ReasonInsufficientInventory)
}

// afterCommit はコミット後の付随処理。失敗しても購入結果は変わらない
func (s *PurchaseService) afterCommit(ctx context.Context, o *order.Order, tier *tickettier.TicketTier, start time.Time) {
	log := logger.FromContext(ctx)
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, o.EventID); err != nil {
			log.Warn("チケット種別キャッシュの無効化に失敗しました", zap.String("event_id", o.EventID), zap.Error(err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishOrderCreated(ctx, o); err != nil {
			log.Warn("注文作成イベントの配信に失敗しました", zap.String("payment_id", o.PaymentID), zap.Error(err))
		}
	}
	if s.metrics != nil {
		s.metrics.PurchasesTotal.WithLabelValues("success").Inc()
		s.metrics.TicketsSoldTotal.WithLabelValues(string(tier.Category)).Add(float64(o.Quantity))
		s.metrics.PurchaseDuration.Observe(time.Since(start).Seconds())
	}

	log.Info("注文を作成しました",
		zap.String("order_id", o.ID),
		zap.String("payment_id", o.PaymentID),
		zap.String("ticket_tier_id", o.TicketTierID),
		zap.Int("quantity", o.Quantity),
		zap.String("total_price", o.TotalPrice.String()),
	)
}

func (s *PurchaseService) countPurchase(status string) {
	if s.metrics != nil {
		s.metrics.PurchasesTotal.WithLabelValues(status).Inc()
	}
}

// GetOrderHistory は利用者の注文履歴を新しい順に返す
func (s *PurchaseService) GetOrderHistory(ctx context.Context, userID string) ([]*order.OrderDetail, error) {
	orders, err := s.orderRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return orders, nil
}
