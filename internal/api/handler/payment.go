package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/sanosuguru/go-ticket-marketplace/internal/api"
	"github.com/sanosuguru/go-ticket-marketplace/internal/application"
	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/order"
)

type PaymentHandler struct {
	paymentService PaymentServiceInterface
}

func NewPaymentHandler(paymentService PaymentServiceInterface) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// WebhookRequest は決済プロバイダからの結果通知
// シークレットは webhookSecret と sharedSecret のどちらでも受け付ける
type WebhookRequest struct {
	PaymentID     string `json:"paymentId" validate:"required" example:"PAY-0f8fad5b-d9cb-469f-a165-70867728950e"`
	Status        string `json:"status" validate:"required" example:"success"`
	WebhookSecret string `json:"webhookSecret"`
	SharedSecret  string `json:"sharedSecret"`
}

func (r *WebhookRequest) secret() string {
	if r.WebhookSecret != "" {
		return r.WebhookSecret
	}
	return r.SharedSecret
}

type PaymentStatusResponse struct {
	PaymentID  string          `json:"paymentId"`
	Status     string          `json:"status"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	CreatedAt  string          `json:"createdAt"`
}

func toPaymentStatusResponse(o *order.Order) *PaymentStatusResponse {
	return &PaymentStatusResponse{
		PaymentID:  o.PaymentID,
		Status:     string(o.PaymentStatus),
		TotalPrice: o.TotalPrice,
		CreatedAt:  formatTime(o.CreatedAt),
	}
}

// Webhook godoc
// @Summary 決済結果の通知
// @Description 支払い待ちの注文を PAID または FAILED に確定します。同じ結果の再通知は成功として扱います
// @Tags payments
// @Accept json
// @Produce json
// @Param request body WebhookRequest true "決済結果"
// @Success 200 {object} api.Response
// @Failure 404 {object} api.ErrorResponse "注文なし、またはシークレット不一致"
// @Failure 409 {object} api.ErrorResponse "異なる結果で確定済み"
// @Router /payments/webhook [post]
func (h *PaymentHandler) Webhook(c echo.Context) error {
	var req WebhookRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.paymentService.ConfirmPayment(c.Request().Context(), application.ConfirmPaymentInput{
		PaymentID:     req.PaymentID,
		Status:        order.PaymentOutcome(req.Status),
		WebhookSecret: req.secret(),
	})
	if err != nil {
		return err
	}

	msg := "支払い状態を更新しました"
	if !res.Changed {
		msg = "支払い状態は確定済みです"
	}
	return api.OK(c, toOrderResponse(res.Order), msg)
}

// Status godoc
// @Summary 支払い状態の確認
// @Tags payments
// @Produce json
// @Param paymentId path string true "支払いID"
// @Success 200 {object} api.Response
// @Failure 404 {object} api.ErrorResponse
// @Router /payments/{paymentId}/status [get]
func (h *PaymentHandler) Status(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	o, err := h.paymentService.GetPaymentStatus(c.Request().Context(), actor.UserID, c.Param("paymentId"))
	if err != nil {
		return err
	}
	return api.OK(c, toPaymentStatusResponse(o), "")
}
