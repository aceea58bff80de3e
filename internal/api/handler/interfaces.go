package handler

import (
	"context"

	"github.com/sanosuguru/go-ticket-marketplace/internal/application"
	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/event"
	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/identity"
	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/order"
	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/tickettier"
)

// EventServiceInterface はイベントサービスのインターフェース
type EventServiceInterface interface {
	CreateEvent(ctx context.Context, actor identity.Actor, input application.CreateEventInput) (*event.Event, error)
	GetEvent(ctx context.Context, id string) (*event.Event, error)
	ListEvents(ctx context.Context, filter event.ListFilter) ([]*event.Event, error)
	UpdateEvent(ctx context.Context, actor identity.Actor, input application.UpdateEventInput) (*event.Event, error)
	SetPublished(ctx context.Context, actor identity.Actor, id string, published bool) (*event.Event, error)
	DeleteEvent(ctx context.Context, actor identity.Actor, id string) error
}

// TicketTierServiceInterface はチケット種別サービスのインターフェース
type TicketTierServiceInterface interface {
	CreateTicketTier(ctx context.Context, actor identity.Actor, input application.CreateTicketTierInput) (*tickettier.TicketTier, error)
	ListTicketTiers(ctx context.Context, eventID string) ([]*tickettier.TicketTier, error)
	UpdateTierPrice(ctx context.Context, actor identity.Actor, input application.UpdateTierPriceInput) (*tickettier.TicketTier, error)
}

// PurchaseServiceInterface は購入サービスのインターフェース
type PurchaseServiceInterface interface {
	PurchaseTickets(ctx context.Context, input application.PurchaseInput) (*order.Order, error)
	GetOrderHistory(ctx context.Context, userID string) ([]*order.OrderDetail, error)
}

// PaymentServiceInterface は決済サービスのインターフェース
type PaymentServiceInterface interface {
	ConfirmPayment(ctx context.Context, input application.ConfirmPaymentInput) (*application.ConfirmPaymentResult, error)
	GetPaymentStatus(ctx context.Context, userID, paymentID string) (*order.Order, error)
}

// AnalyticsServiceInterface は売上集計サービスのインターフェース
type AnalyticsServiceInterface interface {
	GetEventAnalytics(ctx context.Context, actor identity.Actor, eventID string) (*order.SalesSummary, error)
	GetPlatformSummary(ctx context.Context, actor identity.Actor) (*order.PlatformSummary, error)
}
