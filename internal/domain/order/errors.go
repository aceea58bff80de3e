package order

import "errors"

// Order ドメインのエラー定義
var (
	ErrOrderNotFound        = errors.New("注文が見つかりません")
	ErrOrderNotPending      = errors.New("注文は支払い待ちではありません")
	ErrPaymentAlreadyFinal  = errors.New("支払い状態は既に確定しています")
	ErrPaymentIDCollision   = errors.New("支払いIDが重複しました")
	ErrInvalidPaymentStatus = errors.New("支払い状態が不正です")
	ErrUserIDRequired       = errors.New("ユーザーIDは必須です")
	ErrEventIDRequired      = errors.New("イベントIDは必須です")
	ErrTicketTierIDRequired = errors.New("チケット種別IDは必須です")
	ErrPaymentIDRequired    = errors.New("支払いIDは必須です")
	ErrInvalidQuantity      = errors.New("購入枚数は1〜10枚である必要があります")
	ErrInvalidTotalPrice    = errors.New("合計金額は0以上である必要があります")
)
