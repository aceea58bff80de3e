package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/sanosuguru/go-ticket-marketplace/internal/api"
	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/order"
)

type AnalyticsHandler struct {
	analyticsService AnalyticsServiceInterface
}

func NewAnalyticsHandler(analyticsService AnalyticsServiceInterface) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

type TierSalesResponse struct {
	TicketTypeID string          `json:"ticketTypeId"`
	Name         string          `json:"name"`
	Type         string          `json:"type"`
	TicketsSold  int             `json:"ticketsSold"`
	Revenue      decimal.Decimal `json:"revenue"`
}

type EventAnalyticsResponse struct {
	EventID          string              `json:"eventId"`
	TotalTicketsSold int                 `json:"totalTicketsSold"`
	TotalRevenue     decimal.Decimal     `json:"totalRevenue"`
	TotalOrders      int                 `json:"totalOrders"`
	Breakdown        []TierSalesResponse `json:"ticketBreakdown"`
}

type EventSalesResponse struct {
	EventID     string          `json:"eventId"`
	Title       string          `json:"title"`
	TicketsSold int             `json:"ticketsSold"`
	Revenue     decimal.Decimal `json:"revenue"`
	TotalOrders int             `json:"totalOrders"`
}

type DailySalesResponse struct {
	Date    string          `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int             `json:"orders"`
}

type PlatformSummaryResponse struct {
	TotalTicketsSold int                  `json:"totalTicketsSold"`
	TotalRevenue     decimal.Decimal      `json:"totalRevenue"`
	TotalOrders      int                  `json:"totalOrders"`
	TopEvents        []EventSalesResponse `json:"topEvents"`
	DailySales       []DailySalesResponse `json:"dailySales"`
}

func toEventAnalyticsResponse(s *order.SalesSummary) *EventAnalyticsResponse {
	r := &EventAnalyticsResponse{
		EventID:          s.EventID,
		TotalTicketsSold: s.TotalTicketsSold,
		TotalRevenue:     s.TotalRevenue,
		TotalOrders:      s.TotalOrders,
		Breakdown:        make([]TierSalesResponse, len(s.Breakdown)),
	}
	for i, b := range s.Breakdown {
		r.Breakdown[i] = TierSalesResponse{
			TicketTypeID: b.TicketTierID,
			Name:         b.TicketTierName,
			Type:         b.Category,
			TicketsSold:  b.TicketsSold,
			Revenue:      b.Revenue,
		}
	}
	return r
}

func toPlatformSummaryResponse(s *order.PlatformSummary) *PlatformSummaryResponse {
	r := &PlatformSummaryResponse{
		TotalTicketsSold: s.TotalTicketsSold,
		TotalRevenue:     s.TotalRevenue,
		TotalOrders:      s.TotalOrders,
		TopEvents:        make([]EventSalesResponse, len(s.TopEvents)),
		DailySales:       make([]DailySalesResponse, len(s.DailySales)),
	}
	for i, e := range s.TopEvents {
		r.TopEvents[i] = EventSalesResponse(e)
	}
	for i, d := range s.DailySales {
		r.DailySales[i] = DailySalesResponse(d)
	}
	return r
}

// EventAnalytics godoc
// @Summary イベントの売上集計（支払い済みのみ）
// @Tags analytics
// @Produce json
// @Param eventId path string true "イベントID"
// @Success 200 {object} api.Response
// @Router /events/{eventId}/analytics [get]
func (h *AnalyticsHandler) EventAnalytics(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	summary, err := h.analyticsService.GetEventAnalytics(c.Request().Context(), actor, c.Param("eventId"))
	if err != nil {
		return err
	}
	return api.OK(c, toEventAnalyticsResponse(summary), "")
}

// PlatformSummary godoc
// @Summary 全体の売上集計（管理者のみ）
// @Tags analytics
// @Produce json
// @Success 200 {object} api.Response
// @Router /analytics/summary [get]
func (h *AnalyticsHandler) PlatformSummary(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	summary, err := h.analyticsService.GetPlatformSummary(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return api.OK(c, toPlatformSummaryResponse(summary), "")
}
