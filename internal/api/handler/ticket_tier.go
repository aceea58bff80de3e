package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/sanosuguru/go-ticket-marketplace/internal/api"
	"github.com/sanosuguru/go-ticket-marketplace/internal/application"
	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/tickettier"
)

type TicketTierHandler struct {
	tierService TicketTierServiceInterface
}

func NewTicketTierHandler(tierService TicketTierServiceInterface) *TicketTierHandler {
	return &TicketTierHandler{tierService: tierService}
}

type CreateTicketTierRequest struct {
	Name          string          `json:"name" validate:"required,min=2" example:"アリーナ席"`
	Type          string          `json:"type" validate:"required,oneof=VIP REGULAR EARLY_BIRD" example:"VIP"`
	Price         decimal.Decimal `json:"price" example:"15000"`
	TotalQuantity int             `json:"totalQuantity" validate:"required,gt=0" example:"500"`
	SaleStart     string          `json:"saleStart" validate:"required" example:"2026-10-01T10:00:00+09:00"`
	SaleEnd       string          `json:"saleEnd" validate:"required" example:"2026-12-30T23:59:59+09:00"`
}

type UpdateTierPriceRequest struct {
	Price decimal.Decimal `json:"price" example:"18000"`
}

type TicketTierResponse struct {
	ID                string          `json:"id"`
	EventID           string          `json:"eventId"`
	Name              string          `json:"name"`
	Type              string          `json:"type"`
	Price             decimal.Decimal `json:"price"`
	TotalQuantity     int             `json:"totalQuantity"`
	SoldQuantity      int             `json:"soldQuantity"`
	AvailableQuantity int             `json:"availableQuantity"`
	SoldOut           bool            `json:"soldOut"`
	SaleStart         string          `json:"saleStart"`
	SaleEnd           string          `json:"saleEnd"`
}

func toTicketTierResponse(t *tickettier.TicketTier) *TicketTierResponse {
	return &TicketTierResponse{
		ID:                t.ID,
		EventID:           t.EventID,
		Name:              t.Name,
		Type:              string(t.Category),
		Price:             t.Price,
		TotalQuantity:     t.TotalQuantity,
		SoldQuantity:      t.SoldQuantity,
		AvailableQuantity: max(t.AvailableQuantity(), 0),
		SoldOut:           t.IsSoldOut(),
		SaleStart:         formatTime(t.SaleStart),
		SaleEnd:           formatTime(t.SaleEnd),
	}
}

// Create godoc
// @Summary チケット種別を作成
// @Tags ticket-types
// @Accept json
// @Produce json
// @Param eventId path string true "イベントID"
// @Param request body CreateTicketTierRequest true "チケット種別"
// @Success 201 {object} api.Response
// @Router /events/{eventId}/ticket-types [post]
func (h *TicketTierHandler) Create(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req CreateTicketTierRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	saleStart, err := parseTime("saleStart", req.SaleStart)
	if err != nil {
		return err
	}
	saleEnd, err := parseTime("saleEnd", req.SaleEnd)
	if err != nil {
		return err
	}

	tier, err := h.tierService.CreateTicketTier(c.Request().Context(), actor, application.CreateTicketTierInput{
		EventID:       c.Param("eventId"),
		Name:          req.Name,
		Category:      tickettier.Category(req.Type),
		Price:         req.Price,
		TotalQuantity: req.TotalQuantity,
		SaleStart:     saleStart,
		SaleEnd:       saleEnd,
	})
	if err != nil {
		return err
	}
	return api.Created(c, toTicketTierResponse(tier), "チケット種別を作成しました")
}

// List godoc
// @Summary イベントのチケット種別一覧（価格の昇順）
// @Tags ticket-types
// @Produce json
// @Param eventId path string true "イベントID"
// @Success 200 {object} api.Response
// @Router /events/{eventId}/ticket-types [get]
func (h *TicketTierHandler) List(c echo.Context) error {
	tiers, err := h.tierService.ListTicketTiers(c.Request().Context(), c.Param("eventId"))
	if err != nil {
		return err
	}
	responses := make([]*TicketTierResponse, len(tiers))
	for i, t := range tiers {
		responses[i] = toTicketTierResponse(t)
	}
	return api.OK(c, responses, "")
}

// UpdatePrice godoc
// @Summary チケット価格を変更（以降の購入にのみ適用）
// @Tags ticket-types
// @Accept json
// @Produce json
// @Param eventId path string true "イベントID"
// @Param id path string true "チケット種別ID"
// @Param request body UpdateTierPriceRequest true "価格"
// @Success 200 {object} api.Response
// @Router /events/{eventId}/ticket-types/{id}/price [patch]
func (h *TicketTierHandler) UpdatePrice(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req UpdateTierPriceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	tier, err := h.tierService.UpdateTierPrice(c.Request().Context(), actor, application.UpdateTierPriceInput{
		EventID:      c.Param("eventId"),
		TicketTierID: c.Param("id"),
		Price:        req.Price,
	})
	if err != nil {
		return err
	}
	return api.OK(c, toTicketTierResponse(tier), "価格を変更しました")
}
