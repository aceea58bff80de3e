package kafka

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated         = "OrderCreated"
	EventPaymentStatusChanged = "PaymentStatusChanged"

	eventVersion = 1
	producerName = "ticket-marketplace"
)

// Envelope は全イベント共通のメッセージ形式
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // 支払いID
	Payload       json.RawMessage `json:"payload"`
}

type OrderCreatedPayload struct {
	OrderID      string `json:"order_id"`
	PaymentID    string `json:"payment_id"`
	UserID       string `json:"user_id"`
	EventID      string `json:"event_id"`
	TicketTierID string `json:"ticket_tier_id"`
	Quantity     int    `json:"quantity"`
	TotalPrice   string `json:"total_price"`
}

type PaymentStatusChangedPayload struct {
	OrderID       string `json:"order_id"`
	PaymentID     string `json:"payment_id"`
	EventID       string `json:"event_id"`
	TicketTierID  string `json:"ticket_tier_id"`
	Quantity      int    `json:"quantity"`
	PaymentStatus string `json:"payment_status"`
	// FAILED でも在庫は戻さないため、下流で検知できるよう明示する
	InventoryReleased bool `json:"inventory_released"`
}
