package application

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/order"
	"github.com/sanosuguru/go-ticket-marketplace/internal/pkg/apperror"
	"github.com/sanosuguru/go-ticket-marketplace/internal/pkg/logger"
	"github.com/sanosuguru/go-ticket-marketplace/internal/pkg/metrics"
)

var ErrInvalidWebhookSecret = errors.New("決済コールバックのシークレットが一致しません")

// PaymentService は決済プロバイダからの結果通知で注文を確定する
type PaymentService struct {
	orderRepo     order.Repository
	webhookSecret string
	publisher     OrderEventPublisher
	metrics       *metrics.Metrics
}

// NewPaymentService は PaymentService を作成する。publisher と m は nil でもよい
func NewPaymentService(orderRepo order.Repository, webhookSecret string, publisher OrderEventPublisher, m *metrics.Metrics) *PaymentService {
	return &PaymentService{orderRepo: orderRepo, webhookSecret: webhookSecret, publisher: publisher, metrics: m}
}

type ConfirmPaymentInput struct {
	PaymentID     string
	Status        order.PaymentOutcome
	WebhookSecret string
}

type ConfirmPaymentResult struct {
	Order *order.Order
	// Changed は今回の呼び出しで状態が遷移したか。同じ結果の再通知では false
	Changed bool
}

// ConfirmPayment は PENDING の注文を PAID または FAILED に遷移させる
// シークレット不一致は注文が存在しない場合と同じ応答にする
func (s *PaymentService) ConfirmPayment(ctx context.Context, input ConfirmPaymentInput) (*ConfirmPaymentResult, error) {
	if !s.secretMatches(input.WebhookSecret) {
		s.count("unauthorized")
		logger.Warn("決済コールバックのシークレットが一致しません", zap.String("payment_id", input.PaymentID))
		return nil, apperror.ConcealedUnauthorized("注文", ErrInvalidWebhookSecret)
	}

	target := input.Status.ToPaymentStatus()
	updated, err := s.orderRepo.UpdateStatus(ctx, input.PaymentID, target)
	switch {
	case err == nil:
		s.afterTransition(ctx, updated)
		return &ConfirmPaymentResult{Order: updated, Changed: true}, nil
	case errors.Is(err, order.ErrOrderNotFound):
		s.count("not_found")
		return nil, apperror.NotFound("注文", err)
	case errors.Is(err, order.ErrOrderNotPending):
		return s.resolveFinalized(ctx, input.PaymentID, target)
	default:
		s.count("error")
		logger.Error("支払い状態の更新に失敗しました", zap.String("payment_id", input.PaymentID), zap.Error(err))
		return nil, apperror.Internal(err)
	}
}

// resolveFinalized は確定済みの注文への再通知を扱う
// 同じ結果なら冪等な成功、異なる結果なら競合として拒否する
func (s *PaymentService) resolveFinalized(ctx context.Context, paymentID string, target order.PaymentStatus) (*ConfirmPaymentResult, error) {
	current, err := s.orderRepo.GetByPaymentID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			s.count("not_found")
			return nil, apperror.NotFound("注文", err)
		}
		s.count("error")
		return nil, apperror.Internal(err)
	}
	// PENDINGに戻ることはないため、未確定なら整合性が崩れている
	if !current.PaymentStatus.IsFinal() {
		s.count("error")
		logger.Error("確定済みのはずの注文が未確定です",
			zap.String("payment_id", paymentID),
			zap.String("current", string(current.PaymentStatus)),
		)
		return nil, apperror.Internal(fmt.Errorf("注文 %s の支払い状態が不整合です: %s", paymentID, current.PaymentStatus))
	}
	if current.PaymentStatus == target {
		s.count("idempotent")
		return &ConfirmPaymentResult{Order: current, Changed: false}, nil
	}

	s.count("conflict")
	logger.Warn("確定済みの注文に異なる決済結果が通知されました",
		zap.String("payment_id", paymentID),
		zap.String("current", string(current.PaymentStatus)),
		zap.String("requested", string(target)),
	)
	return nil, apperror.Conflict("この注文の支払いはすでに確定しています", order.ErrPaymentAlreadyFinal).
		WithReason(apperror.ReasonAlreadyFinalized)
}

func (s *PaymentService) afterTransition(ctx context.Context, o *order.Order) {
	log := logger.FromContext(ctx)
	if o.PaymentStatus == order.PaymentStatusPaid {
		s.count("paid")
	} else {
		s.count("failed")
		// 支払い失敗でも確保済みの在庫は戻さない
		log.Warn("支払いが失敗しました。確保済みの在庫は解放されません",
			zap.String("payment_id", o.PaymentID),
			zap.String("ticket_tier_id", o.TicketTierID),
			zap.Int("quantity", o.Quantity),
		)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishPaymentStatusChanged(ctx, o); err != nil {
			log.Warn("支払い状態変更イベントの配信に失敗しました", zap.String("payment_id", o.PaymentID), zap.Error(err))
		}
	}
	log.Info("支払い状態を更新しました",
		zap.String("payment_id", o.PaymentID),
		zap.String("status", string(o.PaymentStatus)),
	)
}

func (s *PaymentService) secretMatches(given string) bool {
	if s.webhookSecret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(given), []byte(s.webhookSecret)) == 1
}

func (s *PaymentService) count(status string) {
	if s.metrics != nil {
		s.metrics.PaymentConfirmationsTotal.WithLabelValues(status).Inc()
	}
}

// GetPaymentStatus は購入者本人の注文の支払い状態を返す
// 他人の注文は存在しないものとして扱う
func (s *PaymentService) GetPaymentStatus(ctx context.Context, userID, paymentID string) (*order.Order, error) {
	o, err := s.orderRepo.GetByPaymentID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			return nil, apperror.NotFound("注文", err)
		}
		return nil, apperror.Internal(err)
	}
	if o.UserID != userID {
		return nil, apperror.NotFound("注文", order.ErrOrderNotFound)
	}
	return o, nil
}
