package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics はアプリケーションのメトリクスを管理する
type Metrics struct {
	// HTTPリクエストの総数（method, path, status_code）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPリクエストのレイテンシ（method, path）
	HTTPRequestDuration *prometheus.HistogramVec

	// 購入試行の総数（status: success, insufficient, not_found, sale_closed, contention, error）
	PurchasesTotal *prometheus.CounterVec

	// 購入トランザクションの再試行回数
	PurchaseRetriesTotal prometheus.Counter

	// 購入処理全体の所要時間
	PurchaseDuration prometheus.Histogram

	// 販売済みチケット枚数（category）
	TicketsSoldTotal *prometheus.CounterVec

	// 決済確定の総数（status: paid, failed, idempotent, conflict, unauthorized, not_found）
	PaymentConfirmationsTotal *prometheus.CounterVec

	// 支払い状態ごとの注文数（status: PENDING, PAID, FAILED）
	OrdersByStatus *prometheus.GaugeVec

	// 分散ロックの操作時間（operation: acquire/release, status: success/failed）
	DistributedLockDuration *prometheus.HistogramVec
}

// New は新しいMetricsインスタンスを作成し、デフォルトレジストリに登録する
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry は指定したレジストリにメトリクスを登録する
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		PurchasesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticket_purchases_total",
				Help: "Total number of ticket purchase attempts",
			},
			[]string{"status"},
		),
		PurchaseRetriesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ticket_purchase_retries_total",
				Help: "Total number of purchase transactions retried after contention",
			},
		),
		PurchaseDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ticket_purchase_duration_seconds",
				Help:    "Time spent committing a ticket purchase",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
		),
		TicketsSoldTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tickets_sold_total",
				Help: "Total number of tickets reserved by committed purchases",
			},
			[]string{"category"},
		),
		PaymentConfirmationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_confirmations_total",
				Help: "Total number of payment confirmation callbacks",
			},
			[]string{"status"},
		),
		OrdersByStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "orders_by_status",
				Help: "Current number of orders per payment status",
			},
			[]string{"status"},
		),
		DistributedLockDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "distributed_lock_duration_seconds",
				Help:    "Time spent on distributed lock operations",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation", "status"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.PurchasesTotal,
		m.PurchaseRetriesTotal,
		m.PurchaseDuration,
		m.TicketsSoldTotal,
		m.PaymentConfirmationsTotal,
		m.OrdersByStatus,
		m.DistributedLockDuration,
	)

	return m
}

// デフォルトのメトリクスインスタンス
var defaultMetrics *Metrics

// Init はデフォルトのメトリクスインスタンスを初期化する
func Init() *Metrics {
	defaultMetrics = New()
	return defaultMetrics
}

// Get はデフォルトのメトリクスインスタンスを返す
func Get() *Metrics {
	return defaultMetrics
}
