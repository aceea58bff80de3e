package event

import (
	"context"
	"time"
)

// ListFilter はイベント一覧の絞り込み条件
// ゼロ値の項目は条件に含めない
type ListFilter struct {
	PublishedOnly bool
	Category      string
	DateFrom      *time.Time // 開催日時がこれ以降
	DateTo        *time.Time // 開催日時がこれ以前
	Search        string     // タイトル・説明・開催地の部分一致
	Limit         int
	Offset        int
}

// Repository はイベントリポジトリのインターフェース
type Repository interface {
	// Create は新しいイベントを作成する
	Create(ctx context.Context, event *Event) error

	// GetByID はIDからイベントを取得する
	GetByID(ctx context.Context, id string) (*Event, error)

	// List は条件に合うイベントを開催日の昇順で取得する
	List(ctx context.Context, filter ListFilter) ([]*Event, error)

	// Update はイベントを更新する（楽観的ロック）
	Update(ctx context.Context, event *Event) error

	// Delete はイベントを削除する
	Delete(ctx context.Context, id string) error
}
