package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/order"
	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/tickettier"
	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/transaction"
	"github.com/sanosuguru/go-ticket-marketplace/internal/pkg/apperror"
	"github.com/sanosuguru/go-ticket-marketplace/internal/pkg/metrics"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

type purchaseDeps struct {
	txManager *MockTxManager
	tx        *MockTx
	tierRepo  *MockTicketTierRepository
	orderRepo *MockOrderRepository
	cache     *MockTierCache
	publisher *MockOrderEventPublisher
	metrics   *metrics.Metrics
	service   *PurchaseService
}

func newPurchaseDeps() *purchaseDeps {
	d := &purchaseDeps{
		txManager: new(MockTxManager),
		tx:        new(MockTx),
		tierRepo:  new(MockTicketTierRepository),
		orderRepo: new(MockOrderRepository),
		cache:     new(MockTierCache),
		publisher: new(MockOrderEventPublisher),
		metrics:   metrics.NewWithRegistry(prometheus.NewRegistry()),
	}
	d.service = NewPurchaseService(d.txManager, d.tierRepo, d.orderRepo,
		WithTierCache(d.cache),
		WithOrderEventPublisher(d.publisher),
		WithPurchaseMetrics(d.metrics),
		WithClock(func() time.Time { return testNow }),
		WithRetryPolicy(3, 0),
	)
	// Rollback はコミット後も defer で呼ばれる
	d.tx.On("Rollback").Return(nil)
	return d
}

func openTier(sold, total int, price string) *tickettier.TicketTier {
	return &tickettier.TicketTier{
		ID:            "tier-1",
		EventID:       "event-1",
		Name:          "一般",
		Category:      tickettier.CategoryRegular,
		Price:         decimal.RequireFromString(price),
		TotalQuantity: total,
		SoldQuantity:  sold,
		SaleStart:     testNow.Add(-time.Hour),
		SaleEnd:       testNow.Add(time.Hour),
	}
}

func purchaseInput(qty int) PurchaseInput {
	return PurchaseInput{UserID: "user-1", EventID: "event-1", TicketTierID: "tier-1", Quantity: qty}
}

func TestPurchaseService_PurchaseTickets_Success(t *testing.T) {
	d := newPurchaseDeps()
	ctx := context.Background()

	d.txManager.On("Begin", ctx).Return(d.tx, nil)
	d.tierRepo.On("Reserve", ctx, d.tx, "tier-1", "event-1", 3).Return(openTier(3, 10, "20.00"), nil)
	d.orderRepo.On("Create", ctx, d.tx, mock.AnythingOfType("*order.Order")).
		Run(func(args mock.Arguments) { args.Get(2).(*order.Order).ID = "order-1" }).
		Return(nil)
	d.tx.On("Commit").Return(nil)
	d.cache.On("Invalidate", ctx, "event-1").Return(nil)
	d.publisher.On("PublishOrderCreated", ctx, mock.AnythingOfType("*order.Order")).Return(nil)

	o, err := d.service.PurchaseTickets(ctx, purchaseInput(3))

	require.NoError(t, err)
	assert.Equal(t, "order-1", o.ID)
	assert.Equal(t, order.PaymentStatusPending, o.PaymentStatus)
	assert.Equal(t, "60.00", o.TotalPrice.StringFixed(2))
	assert.True(t, strings.HasPrefix(o.PaymentID, "PAY-"))
	assert.Greater(t, len(o.PaymentID), len("PAY-"))
	assert.Equal(t, 3, o.Quantity)

	d.tx.AssertCalled(t, "Commit")
	d.cache.AssertExpectations(t)
	d.publisher.AssertExpectations(t)
	assert.Equal(t, float64(1), testutil.ToFloat64(d.metrics.PurchasesTotal.WithLabelValues("success")))
	assert.Equal(t, float64(3), testutil.ToFloat64(d.metrics.TicketsSoldTotal.WithLabelValues("REGULAR")))
}

func TestPurchaseService_PurchaseTickets_InvalidQuantity(t *testing.T) {
	for _, qty := range []int{0, -1, 11} {
		t.Run(fmt.Sprintf("quantity=%d", qty), func(t *testing.T) {
			d := newPurchaseDeps()

			_, err := d.service.PurchaseTickets(context.Background(), purchaseInput(qty))

			appErr, ok := apperror.As(err)
			require.True(t, ok)
			assert.Equal(t, apperror.KindBadRequest, appErr.Kind)
			assert.Equal(t, apperror.ReasonInvalidQuantity, appErr.Reason)
			d.txManager.AssertNotCalled(t, "Begin", mock.Anything)
		})
	}
}

func TestPurchaseService_PurchaseTickets_InsufficientStock(t *testing.T) {
	d := newPurchaseDeps()
	ctx := context.Background()

	d.txManager.On("Begin", ctx).Return(d.tx, nil)
	d.tierRepo.On("Reserve", ctx, d.tx, "tier-1", "event-1", 3).Return(nil, tickettier.ErrReservationRejected)
	d.tierRepo.On("GetByID", ctx, "tier-1").Return(openTier(8, 10, "20.00"), nil)

	_, err := d.service.PurchaseTickets(ctx, purchaseInput(3))

	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindConflict, appErr.Kind)
	assert.Equal(t, apperror.ReasonInsufficientInventory, appErr.Reason)
	assert.Contains(t, appErr.Message, "リクエスト: 3枚")
	assert.Contains(t, appErr.Message, "残り: 2枚")
	assert.ErrorIs(t, err, tickettier.ErrInsufficientStock)

	d.orderRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	d.tx.AssertNotCalled(t, "Commit")
	d.tx.AssertCalled(t, "Rollback")
	d.cache.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
}

func TestPurchaseService_PurchaseTickets_TierNotFound(t *testing.T) {
	tests := []struct {
		name    string
		tier    *tickettier.TicketTier
		readErr error
	}{
		{"チケット種別が存在しない", nil, tickettier.ErrTicketTierNotFound},
		{"別イベントのチケット種別", &tickettier.TicketTier{ID: "tier-1", EventID: "event-2", TotalQuantity: 10}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newPurchaseDeps()
			ctx := context.Background()

			d.txManager.On("Begin", ctx).Return(d.tx, nil)
			d.tierRepo.On("Reserve", ctx, d.tx, "tier-1", "event-1", 1).Return(nil, tickettier.ErrReservationRejected)
			if tt.tier != nil {
				d.tierRepo.On("GetByID", ctx, "tier-1").Return(tt.tier, nil)
			} else {
				d.tierRepo.On("GetByID", ctx, "tier-1").Return(nil, tt.readErr)
			}

			_, err := d.service.PurchaseTickets(ctx, purchaseInput(1))

			assert.True(t, apperror.Is(err, apperror.KindNotFound))
			d.tx.AssertNotCalled(t, "Commit")
		})
	}
}

func TestPurchaseService_PurchaseTickets_SaleWindow(t *testing.T) {
	tests := []struct {
		name      string
		saleStart time.Time
		saleEnd   time.Time
		wantErr   bool
	}{
		{"販売開始前", testNow.Add(time.Minute), testNow.Add(time.Hour), true},
		{"販売終了後", testNow.Add(-time.Hour), testNow.Add(-time.Nanosecond), true},
		{"販売開始時刻ちょうど", testNow, testNow.Add(time.Hour), false},
		{"販売終了時刻ちょうど", testNow.Add(-time.Hour), testNow, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newPurchaseDeps()
			ctx := context.Background()
			tier := openTier(5, 10, "10.00")
			tier.SaleStart, tier.SaleEnd = tt.saleStart, tt.saleEnd

			d.txManager.On("Begin", ctx).Return(d.tx, nil)
			d.tierRepo.On("Reserve", ctx, d.tx, "tier-1", "event-1", 5).Return(tier, nil)
			d.orderRepo.On("Create", ctx, d.tx, mock.Anything).Return(nil).Maybe()
			d.tx.On("Commit").Return(nil).Maybe()
			d.cache.On("Invalidate", ctx, "event-1").Return(nil).Maybe()
			d.publisher.On("PublishOrderCreated", ctx, mock.Anything).Return(nil).Maybe()

			_, err := d.service.PurchaseTickets(ctx, purchaseInput(5))

			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			appErr, ok := apperror.As(err)
			require.True(t, ok)
			assert.Equal(t, apperror.KindBadRequest, appErr.Kind)
			assert.Equal(t, apperror.ReasonSaleWindowClosed, appErr.Reason)
			// 在庫の加算はロールバックで取り消される
			d.tx.AssertNotCalled(t, "Commit")
			d.tx.AssertCalled(t, "Rollback")
			d.orderRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestPurchaseService_PurchaseTickets_RetriesTransientConflict(t *testing.T) {
	d := newPurchaseDeps()
	ctx := context.Background()
	transient := fmt.Errorf("在庫の確保に失敗: %w", transaction.ErrTransient)

	d.txManager.On("Begin", ctx).Return(d.tx, nil)
	d.tierRepo.On("Reserve", ctx, d.tx, "tier-1", "event-1", 2).Return(nil, transient).Once()
	d.tierRepo.On("Reserve", ctx, d.tx, "tier-1", "event-1", 2).Return(openTier(2, 10, "15.00"), nil).Once()
	d.orderRepo.On("Create", ctx, d.tx, mock.Anything).Return(nil)
	d.tx.On("Commit").Return(nil)
	d.cache.On("Invalidate", ctx, "event-1").Return(nil)
	d.publisher.On("PublishOrderCreated", ctx, mock.Anything).Return(nil)

	o, err := d.service.PurchaseTickets(ctx, purchaseInput(2))

	require.NoError(t, err)
	assert.Equal(t, "30.00", o.TotalPrice.StringFixed(2))
	d.txManager.AssertNumberOfCalls(t, "Begin", 2)
	assert.Equal(t, float64(1), testutil.ToFloat64(d.metrics.PurchaseRetriesTotal))
}

func TestPurchaseService_PurchaseTickets_RetryExhausted(t *testing.T) {
	d := newPurchaseDeps()
	ctx := context.Background()

	d.txManager.On("Begin", ctx).Return(d.tx, nil)
	d.tierRepo.On("Reserve", ctx, d.tx, "tier-1", "event-1", 1).Return(nil, transaction.ErrTransient)

	_, err := d.service.PurchaseTickets(ctx, purchaseInput(1))

	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindRetryableConflict, appErr.Kind)
	assert.Equal(t, apperror.ReasonTransactionContention, appErr.Reason)
	// 初回 + 再試行3回
	d.txManager.AssertNumberOfCalls(t, "Begin", 4)
	d.tx.AssertNotCalled(t, "Commit")
}

func TestPurchaseService_PurchaseTickets_PaymentIDCollisionRetried(t *testing.T) {
	d := newPurchaseDeps()
	ctx := context.Background()
	ids := []string{"PAY-dup", "PAY-fresh"}
	d.service.newPaymentID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	d.txManager.On("Begin", ctx).Return(d.tx, nil)
	d.tierRepo.On("Reserve", ctx, d.tx, "tier-1", "event-1", 1).Return(openTier(1, 10, "5.00"), nil)
	d.orderRepo.On("Create", ctx, d.tx, mock.MatchedBy(func(o *order.Order) bool { return o.PaymentID == "PAY-dup" })).
		Return(order.ErrPaymentIDCollision)
	d.orderRepo.On("Create", ctx, d.tx, mock.MatchedBy(func(o *order.Order) bool { return o.PaymentID == "PAY-fresh" })).
		Return(nil)
	d.tx.On("Commit").Return(nil)
	d.cache.On("Invalidate", ctx, "event-1").Return(nil)
	d.publisher.On("PublishOrderCreated", ctx, mock.Anything).Return(nil)

	o, err := d.service.PurchaseTickets(ctx, purchaseInput(1))

	require.NoError(t, err)
	assert.Equal(t, "PAY-fresh", o.PaymentID)
	d.tx.AssertNumberOfCalls(t, "Commit", 1)
}

func TestPurchaseService_PurchaseTickets_StorageErrorIsInternal(t *testing.T) {
	d := newPurchaseDeps()
	ctx := context.Background()

	d.txManager.On("Begin", ctx).Return(d.tx, nil)
	d.tierRepo.On("Reserve", ctx, d.tx, "tier-1", "event-1", 1).Return(openTier(1, 10, "5.00"), nil)
	d.orderRepo.On("Create", ctx, d.tx, mock.Anything).Return(errors.New("connection reset"))

	_, err := d.service.PurchaseTickets(ctx, purchaseInput(1))

	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindInternal, appErr.Kind)
	assert.NotContains(t, appErr.Message, "connection reset")
	d.txManager.AssertNumberOfCalls(t, "Begin", 1)
	d.tx.AssertNotCalled(t, "Commit")
}

func TestPurchaseService_PurchaseTickets_BeginError(t *testing.T) {
	d := newPurchaseDeps()
	ctx := context.Background()
	d.txManager.On("Begin", ctx).Return(nil, errors.New("too many connections"))

	_, err := d.service.PurchaseTickets(ctx, purchaseInput(1))

	assert.True(t, apperror.Is(err, apperror.KindInternal))
}

func TestPurchaseService_PurchaseTickets_SideEffectFailuresIgnored(t *testing.T) {
	d := newPurchaseDeps()
	ctx := context.Background()

	d.txManager.On("Begin", ctx).Return(d.tx, nil)
	d.tierRepo.On("Reserve", ctx, d.tx, "tier-1", "event-1", 1).Return(openTier(1, 10, "5.00"), nil)
	d.orderRepo.On("Create", ctx, d.tx, mock.Anything).Return(nil)
	d.tx.On("Commit").Return(nil)
	d.cache.On("Invalidate", ctx, "event-1").Return(errors.New("redis down"))
	d.publisher.On("PublishOrderCreated", ctx, mock.Anything).Return(errors.New("broker down"))

	o, err := d.service.PurchaseTickets(ctx, purchaseInput(1))

	require.NoError(t, err)
	assert.NotNil(t, o)
}

func TestPurchaseService_PurchaseTickets_RequiresUser(t *testing.T) {
	d := newPurchaseDeps()
	input := purchaseInput(1)
	input.UserID = ""

	_, err := d.service.PurchaseTickets(context.Background(), input)

	assert.True(t, apperror.Is(err, apperror.KindUnauthorized))
}

func TestPurchaseService_GetOrderHistory(t *testing.T) {
	d := newPurchaseDeps()
	ctx := context.Background()
	history := []*order.OrderDetail{
		{Order: order.Order{ID: "o2", CreatedAt: testNow}},
		{Order: order.Order{ID: "o1", CreatedAt: testNow.Add(-time.Hour)}},
	}
	d.orderRepo.On("ListByUserID", ctx, "user-1").Return(history, nil)

	got, err := d.service.GetOrderHistory(ctx, "user-1")

	require.NoError(t, err)
	assert.Equal(t, history, got)
}

func TestPurchaseService_GetOrderHistory_Error(t *testing.T) {
	d := newPurchaseDeps()
	ctx := context.Background()
	d.orderRepo.On("ListByUserID", ctx, "user-1").Return(nil, errors.New("boom"))

	_, err := d.service.GetOrderHistory(ctx, "user-1")

	assert.True(t, apperror.Is(err, apperror.KindInternal))
}
