package application

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/order"
	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/tickettier"
	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/transaction"
)

// fakeLedger はメモリ上の在庫台帳と注文ストア
// Reserve で取った行ロックはコミットかロールバックまで保持する
type fakeLedger struct {
	mu        sync.Mutex
	tiers     map[string]*tickettier.TicketTier
	orders    map[string]*order.Order
	rowLocks  map[string]*sync.Mutex
	nextOrder int
}

func newFakeLedger(tiers ...*tickettier.TicketTier) *fakeLedger {
	l := &fakeLedger{
		tiers:    make(map[string]*tickettier.TicketTier),
		orders:   make(map[string]*order.Order),
		rowLocks: make(map[string]*sync.Mutex),
	}
	for _, t := range tiers {
		c := *t
		l.tiers[t.ID] = &c
	}
	return l
}

type fakeTx struct {
	ledger   *fakeLedger
	held     []*sync.Mutex
	reserved map[string]int
	pending  []*order.Order
	done     bool
}

func (l *fakeLedger) Begin(ctx context.Context) (transaction.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &fakeTx{ledger: l, reserved: make(map[string]int)}, nil
}

func (tx *fakeTx) Commit() error {
	if tx.done {
		return fmt.Errorf("トランザクションは終了しています")
	}
	l := tx.ledger
	l.mu.Lock()
	for id, qty := range tx.reserved {
		l.tiers[id].SoldQuantity += qty
	}
	for _, o := range tx.pending {
		l.orders[o.PaymentID] = o
	}
	l.mu.Unlock()
	tx.finish()
	return nil
}

func (tx *fakeTx) Rollback() error {
	if tx.done {
		return nil
	}
	tx.finish()
	return nil
}

func (tx *fakeTx) finish() {
	tx.done = true
	for _, m := range tx.held {
		m.Unlock()
	}
	tx.held = nil
}

func (l *fakeLedger) rowLock(id string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.rowLocks[id]
	if !ok {
		m = &sync.Mutex{}
		l.rowLocks[id] = m
	}
	return m
}

// --- tickettier.Repository ---

func (l *fakeLedger) Create(ctx context.Context, t *tickettier.TicketTier) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	c := *t
	l.tiers[t.ID] = &c
	return nil
}

func (l *fakeLedger) GetByID(ctx context.Context, id string) (*tickettier.TicketTier, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.tiers[id]
	if !ok {
		return nil, tickettier.ErrTicketTierNotFound
	}
	c := *t
	return &c, nil
}

func (l *fakeLedger) ListByEventID(ctx context.Context, eventID string) ([]*tickettier.TicketTier, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*tickettier.TicketTier
	for _, t := range l.tiers {
		if t.EventID == eventID {
			c := *t
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price.LessThan(out[j].Price) })
	return out, nil
}

func (l *fakeLedger) UpdatePrice(ctx context.Context, id string, price decimal.Decimal) (*tickettier.TicketTier, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.tiers[id]
	if !ok {
		return nil, tickettier.ErrTicketTierNotFound
	}
	t.Price = price
	c := *t
	return &c, nil
}

func (l *fakeLedger) Reserve(ctx context.Context, tx transaction.Tx, id, eventID string, quantity int) (*tickettier.TicketTier, error) {
	ftx := tx.(*fakeTx)
	lock := l.rowLock(id)
	lock.Lock()
	ftx.held = append(ftx.held, lock)

	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.tiers[id]
	if !ok || t.EventID != eventID {
		return nil, tickettier.ErrReservationRejected
	}
	sold := t.SoldQuantity + ftx.reserved[id] + quantity
	if sold > t.TotalQuantity {
		return nil, tickettier.ErrReservationRejected
	}
	ftx.reserved[id] += quantity
	c := *t
	c.SoldQuantity = sold
	return &c, nil
}

// soldQuantity はコミット済みの販売数を返す
func (l *fakeLedger) soldQuantity(id string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tiers[id].SoldQuantity
}

// --- order.Repository ---

// fakeOrders は同じ台帳を order.Repository として見せる
type fakeOrders struct {
	*fakeLedger
}

func (r fakeOrders) Create(ctx context.Context, tx transaction.Tx, o *order.Order) error {
	ftx := tx.(*fakeTx)
	l := r.fakeLedger
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.orders[o.PaymentID]; exists {
		return order.ErrPaymentIDCollision
	}
	for _, p := range ftx.pending {
		if p.PaymentID == o.PaymentID {
			return order.ErrPaymentIDCollision
		}
	}
	l.nextOrder++
	o.ID = fmt.Sprintf("order-%d", l.nextOrder)
	c := *o
	ftx.pending = append(ftx.pending, &c)
	return nil
}

func (r fakeOrders) GetByPaymentID(ctx context.Context, paymentID string) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[paymentID]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	c := *o
	return &c, nil
}

func (r fakeOrders) UpdateStatus(ctx context.Context, paymentID string, status order.PaymentStatus) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[paymentID]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	if !o.IsPending() {
		return nil, order.ErrOrderNotPending
	}
	o.PaymentStatus = status
	o.UpdatedAt = time.Now()
	c := *o
	return &c, nil
}

func (r fakeOrders) ListByUserID(ctx context.Context, userID string) ([]*order.OrderDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*order.OrderDetail
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, &order.OrderDetail{Order: *o})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r fakeOrders) SummarizeByEvent(ctx context.Context, eventID string) (*order.SalesSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &order.SalesSummary{EventID: eventID, TotalRevenue: decimal.Zero}
	for _, o := range r.orders {
		if o.EventID == eventID && o.PaymentStatus == order.PaymentStatusPaid {
			s.TotalOrders++
			s.TotalTicketsSold += o.Quantity
			s.TotalRevenue = s.TotalRevenue.Add(o.TotalPrice)
		}
	}
	return s, nil
}

func (r fakeOrders) SummarizePlatform(ctx context.Context, since time.Time, topN int) (*order.PlatformSummary, error) {
	return &order.PlatformSummary{TotalRevenue: decimal.Zero}, nil
}

func (r fakeOrders) CountByStatus(ctx context.Context) ([]order.StatusCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[order.PaymentStatus]int)
	for _, o := range r.orders {
		counts[o.PaymentStatus]++
	}
	out := make([]order.StatusCount, 0, len(counts))
	for s, n := range counts {
		out = append(out, order.StatusCount{Status: s, Count: n})
	}
	return out, nil
}

// committedOrders はコミット済みの注文をすべて返す
func (r fakeOrders) committedOrders() []order.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]order.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, *o)
	}
	return out
}
