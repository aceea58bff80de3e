package application

import (
	"context"

	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/order"
	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/tickettier"
)

// OrderEventPublisher は注文と支払いのイベントを下流へ配信する
// 配信の失敗は購入・決済の結果を変えない
type OrderEventPublisher interface {
	PublishOrderCreated(ctx context.Context, o *order.Order) error
	PublishPaymentStatusChanged(ctx context.Context, o *order.Order) error
}

// TierCache はイベントごとのチケット種別一覧のキャッシュ
type TierCache interface {
	GetTiers(ctx context.Context, eventID string) ([]*tickettier.TicketTier, error)
	SetTiers(ctx context.Context, eventID string, tiers []*tickettier.TicketTier) error
	Invalidate(ctx context.Context, eventID string) error
}
