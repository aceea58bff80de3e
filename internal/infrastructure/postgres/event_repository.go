package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/event"
)

const eventColumns = `id, organizer_id, title, description, category, location, venue,
	start_at, end_at, capacity, is_published, created_at, updated_at, version`

type eventRow struct {
	ID          string    `db:"id"`
	OrganizerID string    `db:"organizer_id"`
	Title       string    `db:"title"`
	Description *string   `db:"description"`
	Category    string    `db:"category"`
	Location    string    `db:"location"`
	Venue       *string   `db:"venue"`
	StartAt     time.Time `db:"start_at"`
	EndAt       time.Time `db:"end_at"`
	Capacity    int       `db:"capacity"`
	IsPublished bool      `db:"is_published"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
	Version     int       `db:"version"`
}

func (r *eventRow) toEntity() *event.Event {
	return &event.Event{
		ID:          r.ID,
		OrganizerID: r.OrganizerID,
		Title:       r.Title,
		Description: derefString(r.Description),
		Category:    r.Category,
		Location:    r.Location,
		Venue:       derefString(r.Venue),
		StartAt:     r.StartAt,
		EndAt:       r.EndAt,
		Capacity:    r.Capacity,
		IsPublished: r.IsPublished,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		Version:     r.Version,
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// EventRepository はイベントリポジトリのPostgreSQL実装
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository はEventRepositoryを作成する
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create は新しいイベントを作成する
func (r *EventRepository) Create(ctx context.Context, e *event.Event) error {
	query := `
		INSERT INTO events (organizer_id, title, description, category, location, venue,
			start_at, end_at, capacity, is_published, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		e.OrganizerID, e.Title, nullableString(e.Description), e.Category, e.Location, nullableString(e.Venue),
		e.StartAt, e.EndAt, e.Capacity, e.IsPublished, e.CreatedAt, e.UpdatedAt, e.Version,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("イベント作成に失敗しました: %w", err)
	}
	return nil
}

// GetByID はIDからイベントを取得する
func (r *EventRepository) GetByID(ctx context.Context, id string) (*event.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	var row eventRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
			return nil, event.ErrEventNotFound
		}
		return nil, fmt.Errorf("イベント取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// List は条件に合うイベントを開催日の昇順で取得する
func (r *EventRepository) List(ctx context.Context, filter event.ListFilter) ([]*event.Event, error) {
	query, args := buildEventListQuery(filter)

	var rows []eventRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("イベント一覧取得に失敗しました: %w", err)
	}

	events := make([]*event.Event, len(rows))
	for i := range rows {
		events[i] = rows[i].toEntity()
	}
	return events, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// buildEventListQuery は絞り込み条件からSQLとバインド値を組み立てる
func buildEventListQuery(f event.ListFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	bind := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.PublishedOnly {
		conds = append(conds, "is_published = TRUE")
	}
	if f.Category != "" {
		conds = append(conds, "category = "+bind(f.Category))
	}
	if f.DateFrom != nil {
		conds = append(conds, "start_at >= "+bind(*f.DateFrom))
	}
	if f.DateTo != nil {
		conds = append(conds, "start_at <= "+bind(*f.DateTo))
	}
	if f.Search != "" {
		p := bind("%" + likeEscaper.Replace(f.Search) + "%")
		conds = append(conds, "(title ILIKE "+p+" OR description ILIKE "+p+" OR location ILIKE "+p+")")
	}

	query := `SELECT ` + eventColumns + ` FROM events`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY start_at ASC LIMIT " + bind(f.Limit) + " OFFSET " + bind(f.Offset)
	return query, args
}

// Update はイベントを更新する（楽観的ロック）
// バージョンが一致しない場合は ErrOptimisticLockConflict を返す
func (r *EventRepository) Update(ctx context.Context, e *event.Event) error {
	query := `
		UPDATE events
		SET title = $1, description = $2, category = $3, location = $4, venue = $5,
		    start_at = $6, end_at = $7, capacity = $8, is_published = $9,
		    updated_at = NOW(), version = version + 1
		WHERE id = $10 AND version = $11
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		e.Title, nullableString(e.Description), e.Category, e.Location, nullableString(e.Venue),
		e.StartAt, e.EndAt, e.Capacity, e.IsPublished, e.ID, e.Version,
	).Scan(&e.UpdatedAt)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("イベント更新に失敗しました: %w", err)
		}
		if _, getErr := r.GetByID(ctx, e.ID); getErr != nil {
			return getErr
		}
		return event.ErrOptimisticLockConflict
	}

	e.Version++
	return nil
}

// Delete はイベントを削除する。チケット種別も連動して削除される
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		if isInvalidID(err) {
			return event.ErrEventNotFound
		}
		if isForeignKeyViolation(err) {
			return event.ErrEventHasOrders
		}
		return fmt.Errorf("イベント削除に失敗しました: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の確認に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return event.ErrEventNotFound
	}
	return nil
}

var _ event.Repository = (*EventRepository)(nil)
