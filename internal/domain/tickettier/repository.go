package tickettier

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/transaction"
)

// Repository はチケット種別リポジトリ（在庫台帳）のインターフェース
type Repository interface {
	// Create は新しいチケット種別を作成する
	Create(ctx context.Context, tier *TicketTier) error

	// GetByID はIDからチケット種別を取得する
	GetByID(ctx context.Context, id string) (*TicketTier, error)

	// ListByEventID はイベントのチケット種別一覧を価格の昇順で取得する
	ListByEventID(ctx context.Context, eventID string) ([]*TicketTier, error)

	// UpdatePrice は価格を更新する。既存の注文金額には影響しない
	UpdatePrice(ctx context.Context, id string, price decimal.Decimal) (*TicketTier, error)

	// Reserve は販売数を条件付きで加算する（トランザクション必須）
	// 加算後も総数を超えない場合のみ1回の更新で反映し、更新後の状態を返す
	// 対象が存在しない、または在庫不足の場合は何も変更せず ErrReservationRejected を返す
	Reserve(ctx context.Context, tx transaction.Tx, id, eventID string, quantity int) (*TicketTier, error)
}
