package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/sanosuguru/go-ticket-marketplace/internal/api"
	"github.com/sanosuguru/go-ticket-marketplace/internal/application"
	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/order"
)

type OrderHandler struct {
	purchaseService PurchaseServiceInterface
}

func NewOrderHandler(purchaseService PurchaseServiceInterface) *OrderHandler {
	return &OrderHandler{purchaseService: purchaseService}
}

// PurchaseRequest は購入リクエスト
// 枚数の範囲はサービス層で検証する（範囲外は 400 invalid_quantity）
type PurchaseRequest struct {
	EventID      string `json:"eventId" validate:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	TicketTypeID string `json:"ticketTypeId" validate:"required" example:"6ba7b810-9dad-11d1-80b4-00c04fd430c8"`
	Quantity     int    `json:"quantity" example:"2"`
}

type OrderResponse struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	EventID       string          `json:"eventId"`
	TicketTypeID  string          `json:"ticketTypeId"`
	Quantity      int             `json:"quantity"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	PaymentStatus string          `json:"paymentStatus"`
	PaymentID     string          `json:"paymentId"`
	CreatedAt     string          `json:"createdAt"`
}

func toOrderResponse(o *order.Order) *OrderResponse {
	return &OrderResponse{
		ID:            o.ID,
		UserID:        o.UserID,
		EventID:       o.EventID,
		TicketTypeID:  o.TicketTierID,
		Quantity:      o.Quantity,
		TotalPrice:    o.TotalPrice,
		PaymentStatus: string(o.PaymentStatus),
		PaymentID:     o.PaymentID,
		CreatedAt:     formatTime(o.CreatedAt),
	}
}

type OrderHistoryResponse struct {
	OrderResponse
	Event struct {
		Title    string `json:"title"`
		Date     string `json:"date"`
		Location string `json:"location"`
	} `json:"event"`
	TicketType struct {
		Name  string          `json:"name"`
		Type  string          `json:"type"`
		Price decimal.Decimal `json:"price"`
	} `json:"ticketType"`
}

func toOrderHistoryResponse(d *order.OrderDetail) *OrderHistoryResponse {
	r := &OrderHistoryResponse{OrderResponse: *toOrderResponse(&d.Order)}
	r.Event.Title = d.EventTitle
	r.Event.Date = formatTime(d.EventDate)
	r.Event.Location = d.EventLocation
	r.TicketType.Name = d.TicketTierName
	r.TicketType.Type = d.TicketCategory
	r.TicketType.Price = d.UnitPrice
	return r
}

// Purchase godoc
// @Summary チケットを購入
// @Description 在庫を確保して支払い待ちの注文を作成します
// @Tags orders
// @Accept json
// @Produce json
// @Param request body PurchaseRequest true "購入内容"
// @Success 201 {object} api.Response
// @Failure 400 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse "在庫不足"
// @Failure 503 {object} api.ErrorResponse "競合によるリトライ上限"
// @Router /orders [post]
func (h *OrderHandler) Purchase(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req PurchaseRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	o, err := h.purchaseService.PurchaseTickets(c.Request().Context(), application.PurchaseInput{
		UserID:       actor.UserID,
		EventID:      req.EventID,
		TicketTierID: req.TicketTypeID,
		Quantity:     req.Quantity,
	})
	if err != nil {
		return err
	}
	return api.Created(c, toOrderResponse(o), "注文を作成しました。支払いを完了してください")
}

// History godoc
// @Summary 自分の注文履歴
// @Tags orders
// @Produce json
// @Success 200 {object} api.Response
// @Router /orders/me [get]
func (h *OrderHandler) History(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	orders, err := h.purchaseService.GetOrderHistory(c.Request().Context(), actor.UserID)
	if err != nil {
		return err
	}
	responses := make([]*OrderHistoryResponse, len(orders))
	for i, d := range orders {
		responses[i] = toOrderHistoryResponse(d)
	}
	return api.OK(c, responses, "")
}
