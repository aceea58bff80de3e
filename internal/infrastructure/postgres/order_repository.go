package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/order"
	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/transaction"
)

const (
	orderColumns        = `id, user_id, event_id, ticket_tier_id, quantity, total_price, payment_status, payment_id, created_at, updated_at`
	paymentIDConstraint = "orders_payment_id_key"
)

type orderRow struct {
	ID            string          `db:"id"`
	UserID        string          `db:"user_id"`
	EventID       string          `db:"event_id"`
	TicketTierID  string          `db:"ticket_tier_id"`
	Quantity      int             `db:"quantity"`
	TotalPrice    decimal.Decimal `db:"total_price"`
	PaymentStatus string          `db:"payment_status"`
	PaymentID     string          `db:"payment_id"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

func (r *orderRow) toEntity() *order.Order {
	return &order.Order{
		ID:            r.ID,
		UserID:        r.UserID,
		EventID:       r.EventID,
		TicketTierID:  r.TicketTierID,
		Quantity:      r.Quantity,
		TotalPrice:    r.TotalPrice,
		PaymentStatus: order.PaymentStatus(r.PaymentStatus),
		PaymentID:     r.PaymentID,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

type orderDetailRow struct {
	orderRow
	EventTitle     string          `db:"event_title"`
	EventDate      time.Time       `db:"event_date"`
	EventLocation  string          `db:"event_location"`
	TicketTierName string          `db:"ticket_tier_name"`
	TicketCategory string          `db:"ticket_category"`
	UnitPrice      decimal.Decimal `db:"unit_price"`
}

type tierSalesRow struct {
	TicketTierID   string          `db:"ticket_tier_id"`
	TicketTierName string          `db:"ticket_tier_name"`
	Category       string          `db:"category"`
	TicketsSold    int             `db:"tickets_sold"`
	Revenue        decimal.Decimal `db:"revenue"`
	Orders         int             `db:"orders"`
}

// OrderRepository は注文ストアのPostgreSQL実装
type OrderRepository struct{ db *sqlx.DB }

func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, tx transaction.Tx, o *order.Order) error {
	sqlxTx, err := UnwrapTx(tx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO orders (user_id, event_id, ticket_tier_id, quantity, total_price, payment_status, payment_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	err = sqlxTx.QueryRowContext(ctx, query,
		o.UserID, o.EventID, o.TicketTierID, o.Quantity, o.TotalPrice,
		string(o.PaymentStatus), o.PaymentID, o.CreatedAt, o.UpdatedAt,
	).Scan(&o.ID)
	if err != nil {
		if isUniqueViolation(err, paymentIDConstraint) {
			return order.ErrPaymentIDCollision
		}
		return wrapDBError("注文作成に失敗", err)
	}
	return nil
}

func (r *OrderRepository) GetByPaymentID(ctx context.Context, paymentID string) (*order.Order, error) {
	var row orderRow
	query := `SELECT ` + orderColumns + ` FROM orders WHERE payment_id = $1`
	if err := r.db.GetContext(ctx, &row, query, paymentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, order.ErrOrderNotFound
		}
		return nil, fmt.Errorf("注文取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

// UpdateStatus は PENDING の注文だけを更新する
// 同じ支払いIDへの同時コールバックでも遷移は1回しか起きない
func (r *OrderRepository) UpdateStatus(ctx context.Context, paymentID string, status order.PaymentStatus) (*order.Order, error) {
	var row orderRow
	query := `
		UPDATE orders
		SET payment_status = $1, updated_at = NOW()
		WHERE payment_id = $2 AND payment_status = 'PENDING'
		RETURNING ` + orderColumns
	err := r.db.GetContext(ctx, &row, query, string(status), paymentID)
	if err == nil {
		return row.toEntity(), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("支払い状態の更新に失敗: %w", err)
	}

	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM orders WHERE payment_id = $1)`, paymentID); err != nil {
		return nil, fmt.Errorf("注文の存在確認に失敗: %w", err)
	}
	if !exists {
		return nil, order.ErrOrderNotFound
	}
	return nil, order.ErrOrderNotPending
}

func (r *OrderRepository) ListByUserID(ctx context.Context, userID string) ([]*order.OrderDetail, error) {
	query := `
		SELECT o.id, o.user_id, o.event_id, o.ticket_tier_id, o.quantity, o.total_price,
		       o.payment_status, o.payment_id, o.created_at, o.updated_at,
		       e.title AS event_title, e.start_at AS event_date, e.location AS event_location,
		       t.name AS ticket_tier_name, t.category AS ticket_category, t.price AS unit_price
		FROM orders o
		JOIN events e ON e.id = o.event_id
		JOIN ticket_tiers t ON t.id = o.ticket_tier_id
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC
	`
	var rows []orderDetailRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("注文履歴取得に失敗: %w", err)
	}

	details := make([]*order.OrderDetail, len(rows))
	for i := range rows {
		row := &rows[i]
		details[i] = &order.OrderDetail{
			Order:          *row.orderRow.toEntity(),
			EventTitle:     row.EventTitle,
			EventDate:      row.EventDate,
			EventLocation:  row.EventLocation,
			TicketTierName: row.TicketTierName,
			TicketCategory: row.TicketCategory,
			UnitPrice:      row.UnitPrice,
		}
	}
	return details, nil
}

// SummarizeByEvent は支払い済みの注文だけを対象に売上を集計する
// 内訳は売上の降順
func (r *OrderRepository) SummarizeByEvent(ctx context.Context, eventID string) (*order.SalesSummary, error) {
	query := `
		SELECT o.ticket_tier_id, t.name AS ticket_tier_name, t.category,
		       SUM(o.quantity) AS tickets_sold, SUM(o.total_price) AS revenue, COUNT(*) AS orders
		FROM orders o
		JOIN ticket_tiers t ON t.id = o.ticket_tier_id
		WHERE o.event_id = $1 AND o.payment_status = 'PAID'
		GROUP BY o.ticket_tier_id, t.name, t.category
		ORDER BY revenue DESC
	`
	var rows []tierSalesRow
	if err := r.db.SelectContext(ctx, &rows, query, eventID); err != nil {
		return nil, fmt.Errorf("売上集計に失敗: %w", err)
	}

	summary := &order.SalesSummary{
		EventID:      eventID,
		TotalRevenue: decimal.Zero,
		Breakdown:    make([]order.TierSales, 0, len(rows)),
	}
	for _, row := range rows {
		summary.TotalTicketsSold += row.TicketsSold
		summary.TotalRevenue = summary.TotalRevenue.Add(row.Revenue)
		summary.TotalOrders += row.Orders
		summary.Breakdown = append(summary.Breakdown, order.TierSales{
			TicketTierID:   row.TicketTierID,
			TicketTierName: row.TicketTierName,
			Category:       row.Category,
			TicketsSold:    row.TicketsSold,
			Revenue:        row.Revenue,
		})
	}
	return summary, nil
}

func (r *OrderRepository) SummarizePlatform(ctx context.Context, since time.Time, topN int) (*order.PlatformSummary, error) {
	var total struct {
		TicketsSold int             `db:"tickets_sold"`
		Revenue     decimal.Decimal `db:"revenue"`
		Orders      int             `db:"orders"`
	}
	totalQuery := `
		SELECT COALESCE(SUM(quantity), 0) AS tickets_sold, COALESCE(SUM(total_price), 0) AS revenue, COUNT(*) AS orders
		FROM orders WHERE payment_status = 'PAID'
	`
	if err := r.db.GetContext(ctx, &total, totalQuery); err != nil {
		return nil, fmt.Errorf("全体売上の集計に失敗: %w", err)
	}

	var top []struct {
		EventID     string          `db:"event_id"`
		Title       string          `db:"title"`
		TicketsSold int             `db:"tickets_sold"`
		Revenue     decimal.Decimal `db:"revenue"`
		Orders      int             `db:"orders"`
	}
	topQuery := `
		SELECT o.event_id, e.title, SUM(o.quantity) AS tickets_sold, SUM(o.total_price) AS revenue, COUNT(*) AS orders
		FROM orders o
		JOIN events e ON e.id = o.event_id
		WHERE o.payment_status = 'PAID'
		GROUP BY o.event_id, e.title
		ORDER BY revenue DESC
		LIMIT $1
	`
	if err := r.db.SelectContext(ctx, &top, topQuery, topN); err != nil {
		return nil, fmt.Errorf("売上上位イベントの集計に失敗: %w", err)
	}

	var daily []struct {
		Date    string          `db:"day"`
		Revenue decimal.Decimal `db:"revenue"`
		Orders  int             `db:"orders"`
	}
	dailyQuery := `
		SELECT to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, SUM(total_price) AS revenue, COUNT(*) AS orders
		FROM orders
		WHERE payment_status = 'PAID' AND created_at >= $1
		GROUP BY day
		ORDER BY day ASC
	`
	if err := r.db.SelectContext(ctx, &daily, dailyQuery, since); err != nil {
		return nil, fmt.Errorf("日別売上の集計に失敗: %w", err)
	}

	summary := &order.PlatformSummary{
		TotalTicketsSold: total.TicketsSold,
		TotalRevenue:     total.Revenue,
		TotalOrders:      total.Orders,
		TopEvents:        make([]order.EventSales, len(top)),
		DailySales:       make([]order.DailySales, len(daily)),
	}
	for i, row := range top {
		summary.TopEvents[i] = order.EventSales{
			EventID:     row.EventID,
			Title:       row.Title,
			TicketsSold: row.TicketsSold,
			Revenue:     row.Revenue,
			TotalOrders: row.Orders,
		}
	}
	for i, row := range daily {
		summary.DailySales[i] = order.DailySales{Date: row.Date, Revenue: row.Revenue, Orders: row.Orders}
	}
	return summary, nil
}

func (r *OrderRepository) CountByStatus(ctx context.Context) ([]order.StatusCount, error) {
	var rows []struct {
		Status string `db:"payment_status"`
		Count  int    `db:"count"`
	}
	query := `SELECT payment_status, COUNT(*) AS count FROM orders GROUP BY payment_status`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("支払い状態別の集計に失敗: %w", err)
	}

	counts := make([]order.StatusCount, len(rows))
	for i, row := range rows {
		counts[i] = order.StatusCount{Status: order.PaymentStatus(row.Status), Count: row.Count}
	}
	return counts, nil
}

var _ order.Repository = (*OrderRepository)(nil)
