package order

import (
	"context"
	"time"

	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/transaction"
)

// Repository は注文リポジトリのインターフェース
type Repository interface {
	// Create は支払い待ちの注文を作成する（トランザクション必須）
	// 支払いIDが既存と重複した場合は ErrPaymentIDCollision を返す
	Create(ctx context.Context, tx transaction.Tx, order *Order) error

	// GetByPaymentID は支払いIDから注文を取得する
	GetByPaymentID(ctx context.Context, paymentID string) (*Order, error)

	// UpdateStatus は支払い待ちの注文の支払い状態を1回の条件付き更新で変更する
	// 注文が存在しなければ ErrOrderNotFound、支払い待ちでなければ ErrOrderNotPending を返す
	UpdateStatus(ctx context.Context, paymentID string, status PaymentStatus) (*Order, error)

	// ListByUserID はユーザーの注文履歴を新しい順に取得する
	ListByUserID(ctx context.Context, userID string) ([]*OrderDetail, error)

	// SummarizeByEvent はイベントの支払い済み注文を集計する
	SummarizeByEvent(ctx context.Context, eventID string) (*SalesSummary, error)

	// SummarizePlatform は全体の支払い済み売上、売上上位イベント、since以降の日別売上を集計する
	SummarizePlatform(ctx context.Context, since time.Time, topN int) (*PlatformSummary, error)

	// CountByStatus は支払い状態ごとの注文数を返す
	CountByStatus(ctx context.Context) ([]StatusCount, error)
}
