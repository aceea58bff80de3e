package event

import "errors"

// Event ドメインのエラー定義
var (
	ErrEventNotFound          = errors.New("イベントが見つかりません")
	ErrOrganizerIDRequired    = errors.New("主催者IDは必須です")
	ErrInvalidTitle           = errors.New("イベント名は3〜200文字である必要があります")
	ErrInvalidCapacity        = errors.New("定員は1以上である必要があります")
	ErrInvalidEventTime       = errors.New("終了時刻は開始時刻より後である必要があります")
	ErrNotEventOrganizer      = errors.New("イベントの主催者ではありません")
	ErrOptimisticLockConflict = errors.New("楽観的ロックの競合が発生しました")
	ErrEventHasOrders         = errors.New("注文が存在するイベントは削除できません")
)
