package postgres

import (
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/transaction"
)

// PostgreSQL のエラーコード
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeInvalidTextRepr      = "22P02"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

func pqCode(err error) (pq.ErrorCode, string, bool) {
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.Constraint, true
	}
	return "", "", false
}

// isRetryable はシリアライゼーション失敗またはデッドロックかを返す
func isRetryable(err error) bool {
	code, _, ok := pqCode(err)
	return ok && (code == codeSerializationFailure || code == codeDeadlockDetected)
}

func isUniqueViolation(err error, constraint string) bool {
	code, c, ok := pqCode(err)
	return ok && code == codeUniqueViolation && (constraint == "" || c == constraint)
}

func isForeignKeyViolation(err error) bool {
	code, _, ok := pqCode(err)
	return ok && code == codeForeignKeyViolation
}

// isInvalidID はUUID列に不正な文字列を渡したときのエラーかを返す
func isInvalidID(err error) bool {
	code, _, ok := pqCode(err)
	return ok && code == codeInvalidTextRepr
}

// wrapDBError はメッセージを付けてラップする
// 再試行可能なエラーには transaction.ErrTransient も付与する
func wrapDBError(msg string, err error) error {
	if isRetryable(err) {
		return fmt.Errorf("%s: %w: %w", msg, transaction.ErrTransient, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
