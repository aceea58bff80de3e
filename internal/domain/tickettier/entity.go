package tickettier

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Category はチケット区分を表す
type Category string

const (
	CategoryVIP       Category = "VIP"
	CategoryRegular   Category = "REGULAR"
	CategoryEarlyBird Category = "EARLY_BIRD"
)

// IsValid は定義済みの区分かを返す
func (c Category) IsValid() bool {
	switch c {
	case CategoryVIP, CategoryRegular, CategoryEarlyBird:
		return true
	}
	return false
}

// 1回の購入で指定できる枚数
const (
	MinPurchaseQuantity = 1
	MaxPurchaseQuantity = 10
)

// TicketTier はイベントに紐づくチケット種別エンティティ
// SoldQuantity は購入処理の条件付き更新でのみ増える
type TicketTier struct {
	ID            string
	EventID       string
	Name          string
	Category      Category
	Price         decimal.Decimal
	TotalQuantity int
	SoldQuantity  int
	SaleStart     time.Time
	SaleEnd       time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewTicketTier は新しいチケット種別を作成する
func NewTicketTier(eventID, name string, category Category, price decimal.Decimal, totalQuantity int, saleStart, saleEnd time.Time) *TicketTier {
	now := time.Now()
	return &TicketTier{
		EventID:       eventID,
		Name:          strings.TrimSpace(name),
		Category:      category,
		Price:         price,
		TotalQuantity: totalQuantity,
		SoldQuantity:  0,
		SaleStart:     saleStart,
		SaleEnd:       saleEnd,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// AvailableQuantity は残り枚数を返す
func (t *TicketTier) AvailableQuantity() int {
	return t.TotalQuantity - t.SoldQuantity
}

// IsSoldOut は完売かを返す
func (t *TicketTier) IsSoldOut() bool {
	return t.AvailableQuantity() <= 0
}

// IsOnSale は指定時刻が販売期間 [SaleStart, SaleEnd] 内かを返す
func (t *TicketTier) IsOnSale(now time.Time) bool {
	return !now.Before(t.SaleStart) && !now.After(t.SaleEnd)
}

// TotalPriceFor は購入枚数分の合計金額を返す
func (t *TicketTier) TotalPriceFor(quantity int) decimal.Decimal {
	return t.Price.Mul(decimal.NewFromInt(int64(quantity)))
}

// Validate はチケット種別の検証を行う
func (t *TicketTier) Validate() error {
	if t.EventID == "" {
		return ErrEventIDRequired
	}
	if utf8.RuneCountInString(t.Name) < 2 {
		return ErrNameTooShort
	}
	if !t.Category.IsValid() {
		return ErrInvalidCategory
	}
	if t.Price.IsNegative() {
		return ErrInvalidPrice
	}
	if t.TotalQuantity < 1 {
		return ErrInvalidTotalQty
	}
	if !t.SaleEnd.After(t.SaleStart) {
		return ErrInvalidSaleWindow
	}
	return nil
}

// ValidatePurchaseQuantity は購入枚数が許容範囲かを検証する
func ValidatePurchaseQuantity(quantity int) error {
	if quantity < MinPurchaseQuantity || quantity > MaxPurchaseQuantity {
		return ErrInvalidQuantity
	}
	return nil
}
