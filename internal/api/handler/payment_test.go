package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-ticket-marketplace/internal/application"
	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/order"
	"github.com/sanosuguru/go-ticket-marketplace/internal/pkg/apperror"
)

func setupPaymentRoutes(svc *MockPaymentService) *echo.Echo {
	e := NewTestEcho()
	h := NewPaymentHandler(svc)
	e.POST("/payments/webhook", h.Webhook)
	e.GET("/payments/:paymentId/status", h.Status, authed())
	return e
}

func TestPaymentHandler_Webhook(t *testing.T) {
	paid := &order.Order{ID: "order-1", PaymentID: "PAY-1", PaymentStatus: order.PaymentStatusPaid, TotalPrice: decimal.NewFromInt(60)}

	t.Run("支払い成功を反映する", func(t *testing.T) {
		svc := new(MockPaymentService)
		e := setupPaymentRoutes(svc)
		svc.On("ConfirmPayment", mock.Anything, application.ConfirmPaymentInput{
			PaymentID: "PAY-1", Status: order.PaymentOutcomeSuccess, WebhookSecret: "s3cret",
		}).Return(&application.ConfirmPaymentResult{Order: paid, Changed: true}, nil)

		rec := doRequest(e, http.MethodPost, "/payments/webhook", `{"paymentId":"PAY-1","status":"success","webhookSecret":"s3cret"}`, "")

		assert.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec.Body.Bytes())
		assert.True(t, env.Success)
		assert.Equal(t, "支払い状態を更新しました", env.Message)
	})

	t.Run("sharedSecretも受け付ける", func(t *testing.T) {
		svc := new(MockPaymentService)
		e := setupPaymentRoutes(svc)
		svc.On("ConfirmPayment", mock.Anything, mock.MatchedBy(func(in application.ConfirmPaymentInput) bool {
			return in.WebhookSecret == "alias"
		})).Return(&application.ConfirmPaymentResult{Order: paid, Changed: false}, nil)

		rec := doRequest(e, http.MethodPost, "/payments/webhook", `{"paymentId":"PAY-1","status":"success","sharedSecret":"alias"}`, "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "支払い状態は確定済みです", decodeEnvelope(t, rec.Body.Bytes()).Message)
	})

	t.Run("シークレット不一致は注文なしと同じ応答", func(t *testing.T) {
		svc := new(MockPaymentService)
		e := setupPaymentRoutes(svc)
		svc.On("ConfirmPayment", mock.Anything, mock.Anything).Return(nil,
			apperror.ConcealedUnauthorized("注文", application.ErrInvalidWebhookSecret))

		wrong := doRequest(e, http.MethodPost, "/payments/webhook", `{"paymentId":"PAY-1","status":"success","webhookSecret":"bad"}`, "")

		svcMissing := new(MockPaymentService)
		eMissing := setupPaymentRoutes(svcMissing)
		svcMissing.On("ConfirmPayment", mock.Anything, mock.Anything).Return(nil,
			apperror.NotFound("注文", order.ErrOrderNotFound))
		missing := doRequest(eMissing, http.MethodPost, "/payments/webhook", `{"paymentId":"PAY-x","status":"success","webhookSecret":"s3cret"}`, "")

		assert.Equal(t, http.StatusNotFound, wrong.Code)
		assert.Equal(t, missing.Code, wrong.Code)
		assert.JSONEq(t, missing.Body.String(), wrong.Body.String())
	})

	t.Run("確定済みの注文に異なる結果は409", func(t *testing.T) {
		svc := new(MockPaymentService)
		e := setupPaymentRoutes(svc)
		svc.On("ConfirmPayment", mock.Anything, mock.Anything).Return(nil,
			apperror.Conflict("この注文の支払いはすでに確定しています", order.ErrPaymentAlreadyFinal).WithReason(apperror.ReasonAlreadyFinalized))

		rec := doRequest(e, http.MethodPost, "/payments/webhook", `{"paymentId":"PAY-1","status":"failed","webhookSecret":"s3cret"}`, "")

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, apperror.ReasonAlreadyFinalized, decodeEnvelope(t, rec.Body.Bytes()).Reason)
	})

	t.Run("paymentIdなしは422", func(t *testing.T) {
		svc := new(MockPaymentService)
		e := setupPaymentRoutes(svc)

		rec := doRequest(e, http.MethodPost, "/payments/webhook", `{"status":"success","webhookSecret":"s3cret"}`, "")

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		svc.AssertNotCalled(t, "ConfirmPayment", mock.Anything, mock.Anything)
	})
}

func TestPaymentHandler_Status(t *testing.T) {
	svc := new(MockPaymentService)
	e := setupPaymentRoutes(svc)
	svc.On("GetPaymentStatus", mock.Anything, "user-1", "PAY-1").Return(&order.Order{
		PaymentID: "PAY-1", PaymentStatus: order.PaymentStatusPending, TotalPrice: decimal.NewFromInt(60),
	}, nil)
	svc.On("GetPaymentStatus", mock.Anything, "organizer-1", "PAY-1").Return(nil, apperror.NotFound("注文", order.ErrOrderNotFound))

	rec := doRequest(e, http.MethodGet, "/payments/PAY-1/status", "", tokenFor(t, buyerActor))
	assert.Equal(t, http.StatusOK, rec.Code)
	var got PaymentStatusResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec.Body.Bytes()).Data, &got))
	assert.Equal(t, "PENDING", got.Status)

	other := doRequest(e, http.MethodGet, "/payments/PAY-1/status", "", tokenFor(t, organizerActor))
	assert.Equal(t, http.StatusNotFound, other.Code)
}
