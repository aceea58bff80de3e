package transaction

import (
	"context"
	"errors"
)

// ErrTransient はやり直せば成功しうる競合（シリアライゼーション失敗・デッドロック）を表す
// インフラ層は元のエラーと一緒にこれをラップして返す
var ErrTransient = errors.New("トランザクションが競合しました")

// Tx はトランザクションを表すインターフェース
// ドメイン層がインフラ層（sqlx等）に依存しないようにするための抽象化
type Tx interface {
	// Commit はトランザクションをコミットする
	Commit() error
	// Rollback はトランザクションをロールバックする
	// コミット済みの場合は何もしないため、deferで常に呼んでよい
	Rollback() error
}

// Manager はトランザクションを管理するインターフェース
type Manager interface {
	// Begin は新しいトランザクションを開始する
	// ctxがキャンセルされると未コミットのトランザクションは破棄される
	Begin(ctx context.Context) (Tx, error)
}

// IsTransient は再試行で解消しうるエラーかを返す
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
