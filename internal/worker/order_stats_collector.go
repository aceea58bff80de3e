package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/order"
	"github.com/sanosuguru/go-ticket-marketplace/internal/pkg/logger"
	"github.com/sanosuguru/go-ticket-marketplace/internal/pkg/metrics"
)

const orderStatsLockKey = "worker:order-stats"

// DefaultStatsInterval は集計間隔が未指定の場合に使う
const DefaultStatsInterval = time.Minute

// StatusCounter は支払い状態ごとの注文数を数える
type StatusCounter interface {
	CountByStatus(ctx context.Context) ([]order.StatusCount, error)
}

// Locker はレプリカ間で定期処理を1つに絞る
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) (bool, error)
}

// OrderStatsCollector は支払い状態ごとの注文数を定期的にゲージへ反映するワーカー
type OrderStatsCollector struct {
	counter  StatusCounter
	locker   Locker
	metrics  *metrics.Metrics
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewOrderStatsCollector は新しいコレクターを作成する。locker が nil ならロックせずに集計する
func NewOrderStatsCollector(counter StatusCounter, locker Locker, m *metrics.Metrics, interval time.Duration) *OrderStatsCollector {
	if interval <= 0 {
		interval = DefaultStatsInterval
	}
	return &OrderStatsCollector{
		counter:  counter,
		locker:   locker,
		metrics:  m,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start は起動直後に1回集計し、その後 interval ごとに集計する
func (c *OrderStatsCollector) Start(ctx context.Context) {
	logger.Info("注文集計ワーカー開始", zap.Duration("interval", c.interval))

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	defer close(c.doneCh)

	c.collect(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.Info("注文集計ワーカー停止（コンテキストキャンセル）")
			return
		case <-c.stopCh:
			logger.Info("注文集計ワーカー停止（シグナル受信）")
			return
		case <-ticker.C:
			c.collect(ctx)
		}
	}
}

// Stop はワーカーを停止し、終了を待つ
func (c *OrderStatsCollector) Stop() {
	close(c.stopCh)
	<-c.doneCh
}

func (c *OrderStatsCollector) collect(ctx context.Context) {
	log := logger.Get()

	if c.locker == nil {
		if err := c.refresh(ctx); err != nil {
			log.Error("注文集計に失敗", zap.Error(err))
		}
		return
	}

	ran, err := c.locker.WithLock(ctx, orderStatsLockKey, c.interval, c.refresh)
	if err != nil {
		log.Error("注文集計に失敗", zap.Error(err))
		return
	}
	if !ran {
		log.Debug("他のレプリカが集計中のためスキップ")
	}
}

func (c *OrderStatsCollector) refresh(ctx context.Context) error {
	counts, err := c.counter.CountByStatus(ctx)
	if err != nil {
		return err
	}

	byStatus := map[order.PaymentStatus]int{
		order.PaymentStatusPending: 0,
		order.PaymentStatusPaid:    0,
		order.PaymentStatusFailed:  0,
	}
	for _, sc := range counts {
		byStatus[sc.Status] = sc.Count
	}

	if c.metrics != nil {
		for status, n := range byStatus {
			c.metrics.OrdersByStatus.WithLabelValues(string(status)).Set(float64(n))
		}
	}
	logger.Get().Debug("注文集計を更新",
		zap.Int("pending", byStatus[order.PaymentStatusPending]),
		zap.Int("paid", byStatus[order.PaymentStatusPaid]),
		zap.Int("failed", byStatus[order.PaymentStatusFailed]),
	)
	return nil
}
