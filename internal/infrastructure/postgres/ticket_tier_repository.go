package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/tickettier"
	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/transaction"
)

const ticketTierColumns = `id, event_id, name, category, price, total_quantity, sold_quantity,
	sale_start, sale_end, created_at, updated_at`

type ticketTierRow struct {
	ID            string          `db:"id"`
	EventID       string          `db:"event_id"`
	Name          string          `db:"name"`
	Category      string          `db:"category"`
	Price         decimal.Decimal `db:"price"`
	TotalQuantity int             `db:"total_quantity"`
	SoldQuantity  int             `db:"sold_quantity"`
	SaleStart     time.Time       `db:"sale_start"`
	SaleEnd       time.Time       `db:"sale_end"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

func (r *ticketTierRow) toEntity() *tickettier.TicketTier {
	return &tickettier.TicketTier{
		ID:            r.ID,
		EventID:       r.EventID,
		Name:          r.Name,
		Category:      tickettier.Category(r.Category),
		Price:         r.Price,
		TotalQuantity: r.TotalQuantity,
		SoldQuantity:  r.SoldQuantity,
		SaleStart:     r.SaleStart,
		SaleEnd:       r.SaleEnd,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// TicketTierRepository はチケット種別（在庫台帳）のPostgreSQL実装
type TicketTierRepository struct{ db *sqlx.DB }

func NewTicketTierRepository(db *sqlx.DB) *TicketTierRepository {
	return &TicketTierRepository{db: db}
}

func (r *TicketTierRepository) Create(ctx context.Context, t *tickettier.TicketTier) error {
	query := `
		INSERT INTO ticket_tiers (event_id, name, category, price, total_quantity, sold_quantity,
			sale_start, sale_end, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		t.EventID, t.Name, string(t.Category), t.Price, t.TotalQuantity, t.SoldQuantity,
		t.SaleStart, t.SaleEnd, t.CreatedAt, t.UpdatedAt,
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("チケット種別作成に失敗: %w", err)
	}
	return nil
}

func (r *TicketTierRepository) GetByID(ctx context.Context, id string) (*tickettier.TicketTier, error) {
	var row ticketTierRow
	query := `SELECT ` + ticketTierColumns + ` FROM ticket_tiers WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
			return nil, tickettier.ErrTicketTierNotFound
		}
		return nil, fmt.Errorf("チケット種別取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *TicketTierRepository) ListByEventID(ctx context.Context, eventID string) ([]*tickettier.TicketTier, error) {
	var rows []ticketTierRow
	query := `SELECT ` + ticketTierColumns + ` FROM ticket_tiers WHERE event_id = $1 ORDER BY price ASC, created_at ASC`
	if err := r.db.SelectContext(ctx, &rows, query, eventID); err != nil {
		if isInvalidID(err) {
			return []*tickettier.TicketTier{}, nil
		}
		return nil, fmt.Errorf("チケット種別一覧取得に失敗: %w", err)
	}
	tiers := make([]*tickettier.TicketTier, len(rows))
	for i := range rows {
		tiers[i] = rows[i].toEntity()
	}
	return tiers, nil
}

// UpdatePrice は価格のみを更新する。注文の合計金額は作成時に固定済みのため変わらない
func (r *TicketTierRepository) UpdatePrice(ctx context.Context, id string, price decimal.Decimal) (*tickettier.TicketTier, error) {
	var row ticketTierRow
	query := `UPDATE ticket_tiers SET price = $1, updated_at = NOW() WHERE id = $2 RETURNING ` + ticketTierColumns
	if err := r.db.GetContext(ctx, &row, query, price, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
			return nil, tickettier.ErrTicketTierNotFound
		}
		return nil, fmt.Errorf("価格更新に失敗: %w", err)
	}
	return row.toEntity(), nil
}

// Reserve は在庫の確認と販売数の加算を1回の条件付きUPDATEで行う
// 同時実行されても sold_quantity が total_quantity を超えることはない
func (r *TicketTierRepository) Reserve(ctx context.Context, tx transaction.Tx, id, eventID string, quantity int) (*tickettier.TicketTier, error) {
	sqlxTx, err := UnwrapTx(tx)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE ticket_tiers
		SET sold_quantity = sold_quantity + $1, updated_at = NOW()
		WHERE id = $2 AND event_id = $3 AND sold_quantity + $1 <= total_quantity
		RETURNING ` + ticketTierColumns

	var row ticketTierRow
	if err := sqlxTx.GetContext(ctx, &row, query, quantity, id, eventID); err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
			return nil, tickettier.ErrReservationRejected
		}
		return nil, wrapDBError("在庫の確保に失敗", err)
	}
	return row.toEntity(), nil
}

var _ tickettier.Repository = (*TicketTierRepository)(nil)
