package tickettier

import "errors"

// TicketTier ドメインのエラー定義
var (
	ErrTicketTierNotFound  = errors.New("チケット種別が見つかりません")
	ErrReservationRejected = errors.New("在庫の確保に失敗しました")
	ErrInsufficientStock   = errors.New("チケットの在庫が不足しています")
	ErrSaleWindowClosed    = errors.New("チケットの販売期間外です")
	ErrEventIDRequired     = errors.New("イベントIDは必須です")
	ErrNameTooShort        = errors.New("チケット名は2文字以上である必要があります")
	ErrInvalidCategory     = errors.New("チケット区分が不正です")
	ErrInvalidPrice        = errors.New("価格は0以上である必要があります")
	ErrInvalidTotalQty     = errors.New("販売枚数は1以上である必要があります")
	ErrInvalidSaleWindow   = errors.New("販売終了日時は販売開始日時より後である必要があります")
	ErrInvalidQuantity     = errors.New("購入枚数は1〜10枚である必要があります")
)
