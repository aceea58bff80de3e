package apperror

import (
	"errors"
	"fmt"
)

// Kind はアプリケーションエラーの種別を表す
// API層はこの種別だけを見てステータスコードとerrorCodeを決める
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindBadRequest
	KindValidation
	KindUnauthorized
	KindForbidden
	KindRetryableConflict
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindBadRequest:
		return "bad_request"
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindRetryableConflict:
		return "retryable_conflict"
	default:
		return "internal"
	}
}

// 機械可読な理由
const (
	ReasonInsufficientInventory = "insufficient_inventory"
	ReasonSaleWindowClosed      = "sale_window_closed"
	ReasonInvalidQuantity       = "invalid_quantity"
	ReasonAlreadyFinalized      = "payment_already_finalized"
	ReasonTransactionContention = "transaction_contention"
)

// Error は種別付きのアプリケーションエラー
type Error struct {
	Kind    Kind
	Reason  string
	Message string
	Err     error

	// Concealed が true の場合、API層は存在有無を漏らさないようNotFoundとして応答する
	Concealed bool
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithReason は理由を設定したコピーを返す
func (e *Error) WithReason(reason string) *Error {
	c := *e
	c.Reason = reason
	return &c
}

// NotFound は対象リソースが存在しないことを表す
func NotFound(resource string, err error) *Error {
	return &Error{Kind: KindNotFound, Message: resource + "が見つかりません", Err: err}
}

func Conflict(message string, err error) *Error {
	return &Error{Kind: KindConflict, Message: message, Err: err}
}

func BadRequest(message string, err error) *Error {
	return &Error{Kind: KindBadRequest, Message: message, Err: err}
}

func Validation(message string, err error) *Error {
	return &Error{Kind: KindValidation, Message: message, Err: err}
}

func Unauthorized(message string, err error) *Error {
	return &Error{Kind: KindUnauthorized, Message: message, Err: err}
}

// ConcealedUnauthorized は認証失敗を呼び出し側にはNotFoundとして見せる
func ConcealedUnauthorized(resource string, err error) *Error {
	return &Error{Kind: KindUnauthorized, Message: resource + "が見つかりません", Err: err, Concealed: true}
}

func Forbidden(message string, err error) *Error {
	return &Error{Kind: KindForbidden, Message: message, Err: err}
}

// RetryableConflict は一時的な競合でリトライ上限に達したことを表す
func RetryableConflict(message string, err error) *Error {
	return &Error{Kind: KindRetryableConflict, Reason: ReasonTransactionContention, Message: message, Err: err}
}

// Internal は内部エラー。メッセージは固定で、原因はErrにのみ保持する
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "内部サーバーエラー", Err: err}
}

// As はerrからアプリケーションエラーを取り出す
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// KindOf はerrの種別を返す。アプリケーションエラーでなければKindInternal
func KindOf(err error) Kind {
	if ae, ok := As(err); ok {
		return ae.Kind
	}
	return KindInternal
}

// Is はerrが指定種別のアプリケーションエラーかを返す
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
