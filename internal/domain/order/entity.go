package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus は注文の支払い状態を表す
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

// IsValid は定義済みの状態かを返す
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed:
		return true
	}
	return false
}

// IsFinal はPAIDまたはFAILEDかを返す
func (s PaymentStatus) IsFinal() bool {
	return s == PaymentStatusPaid || s == PaymentStatusFailed
}

// PaymentOutcome は決済コールバックが通知する結果
type PaymentOutcome string

const (
	PaymentOutcomeSuccess PaymentOutcome = "success"
	PaymentOutcomeFailed  PaymentOutcome = "failed"
)

// ToPaymentStatus は決済結果を支払い状態に変換する
// success 以外はすべて FAILED とみなす
func (o PaymentOutcome) ToPaymentStatus() PaymentStatus {
	if o == PaymentOutcomeSuccess {
		return PaymentStatusPaid
	}
	return PaymentStatusFailed
}

// Order は注文エンティティを表す
// TotalPrice は購入時点の単価から計算して固定する
type Order struct {
	ID            string
	UserID        string
	EventID       string
	TicketTierID  string
	Quantity      int
	TotalPrice    decimal.Decimal
	PaymentStatus PaymentStatus
	PaymentID     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewOrder は支払い待ちの新しい注文を作成する
func NewOrder(userID, eventID, ticketTierID string, quantity int, totalPrice decimal.Decimal, paymentID string) *Order {
	now := time.Now()
	return &Order{
		UserID:        userID,
		EventID:       eventID,
		TicketTierID:  ticketTierID,
		Quantity:      quantity,
		TotalPrice:    totalPrice,
		PaymentStatus: PaymentStatusPending,
		PaymentID:     paymentID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// IsPending は支払い待ちかを返す
func (o *Order) IsPending() bool {
	return o.PaymentStatus == PaymentStatusPending
}

// Validate は注文の検証を行う
func (o *Order) Validate() error {
	if o.UserID == "" {
		return ErrUserIDRequired
	}
	if o.EventID == "" {
		return ErrEventIDRequired
	}
	if o.TicketTierID == "" {
		return ErrTicketTierIDRequired
	}
	if o.PaymentID == "" {
		return ErrPaymentIDRequired
	}
	if o.Quantity < 1 || o.Quantity > 10 {
		return ErrInvalidQuantity
	}
	if o.TotalPrice.IsNegative() {
		return ErrInvalidTotalPrice
	}
	if !o.PaymentStatus.IsValid() {
		return ErrInvalidPaymentStatus
	}
	return nil
}

// OrderDetail は注文履歴の表示用にイベントとチケット種別の情報を付与したもの
type OrderDetail struct {
	Order

	EventTitle     string
	EventDate      time.Time
	EventLocation  string
	TicketTierName string
	TicketCategory string
	UnitPrice      decimal.Decimal
}

// SalesSummary はイベント単位の支払い済み売上集計
type SalesSummary struct {
	EventID          string
	TotalTicketsSold int
	TotalRevenue     decimal.Decimal
	TotalOrders      int
	Breakdown        []TierSales
}

// TierSales はチケット種別ごとの売上
type TierSales struct {
	TicketTierID   string
	TicketTierName string
	Category       string
	TicketsSold    int
	Revenue        decimal.Decimal
}

// StatusCount は支払い状態ごとの注文数
type StatusCount struct {
	Status PaymentStatus
	Count  int
}

// PlatformSummary は全イベントの支払い済み売上集計
type PlatformSummary struct {
	TotalTicketsSold int
	TotalRevenue     decimal.Decimal
	TotalOrders      int
	TopEvents        []EventSales
	DailySales       []DailySales
}

// EventSales はイベントごとの売上
type EventSales struct {
	EventID     string
	Title       string
	TicketsSold int
	Revenue     decimal.Decimal
	TotalOrders int
}

// DailySales は日別の売上。Date は YYYY-MM-DD
type DailySales struct {
	Date    string
	Revenue decimal.Decimal
	Orders  int
}
