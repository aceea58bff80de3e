package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-ticket-marketplace/internal/config"
	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/order"
	"github.com/sanosuguru/go-ticket-marketplace/internal/pkg/logger"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// OrderEventPublisher は注文と支払いのイベントをKafkaに配信する
// 配信は非同期で、失敗しても購入・決済の結果には影響しない
type OrderEventPublisher struct {
	w   messageWriter
	now func() time.Time
}

// NewOrderEventPublisher は非同期Writerで配信するパブリッシャーを作成する
func NewOrderEventPublisher(cfg *config.KafkaConfig) *OrderEventPublisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.OrderTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		Async:        true,
		Completion: func(messages []kafkago.Message, err error) {
			if err != nil {
				logger.Error("注文イベントの配信に失敗しました",
					zap.Int("messages", len(messages)),
					zap.Error(err),
				)
			}
		},
	}
	return newOrderEventPublisher(w)
}

func newOrderEventPublisher(w messageWriter) *OrderEventPublisher {
	return &OrderEventPublisher{w: w, now: time.Now}
}

func (p *OrderEventPublisher) PublishOrderCreated(ctx context.Context, o *order.Order) error {
	return p.publish(ctx, EventOrderCreated, o.PaymentID, OrderCreatedPayload{
		OrderID:      o.ID,
		PaymentID:    o.PaymentID,
		UserID:       o.UserID,
		EventID:      o.EventID,
		TicketTierID: o.TicketTierID,
		Quantity:     o.Quantity,
		TotalPrice:   o.TotalPrice.StringFixed(2),
	})
}

func (p *OrderEventPublisher) PublishPaymentStatusChanged(ctx context.Context, o *order.Order) error {
	return p.publish(ctx, EventPaymentStatusChanged, o.PaymentID, PaymentStatusChangedPayload{
		OrderID:           o.ID,
		PaymentID:         o.PaymentID,
		EventID:           o.EventID,
		TicketTierID:      o.TicketTierID,
		Quantity:          o.Quantity,
		PaymentStatus:     string(o.PaymentStatus),
		InventoryReleased: false,
	})
}

// Close は未送信のメッセージを送り切ってからWriterを閉じる
func (p *OrderEventPublisher) Close() error {
	return p.w.Close()
}

// publish は支払いIDをキーにして同じ注文のイベントを同じパーティションに載せる
func (p *OrderEventPublisher) publish(ctx context.Context, eventType, paymentID string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("ペイロードのシリアライズに失敗: %w", err)
	}
	env := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  eventVersion,
		OccurredAt:    p.now().UTC(),
		Producer:      producerName,
		CorrelationID: paymentID,
		Payload:       body,
	}
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("エンベロープのシリアライズに失敗: %w", err)
	}

	msg := kafkago.Message{
		Key:   []byte(paymentID),
		Value: value,
		Time:  env.OccurredAt,
		Headers: []kafkago.Header{
			{Key: "x-event-type", Value: []byte(eventType)},
			{Key: "x-event-version", Value: []byte(strconv.Itoa(eventVersion))},
		},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("%s の配信に失敗: %w", eventType, err)
	}
	return nil
}
