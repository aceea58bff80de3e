package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-ticket-marketplace/internal/api"
	"github.com/sanosuguru/go-ticket-marketplace/internal/application"
	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/event"
)

type EventHandler struct {
	eventService EventServiceInterface
}

func NewEventHandler(eventService EventServiceInterface) *EventHandler {
	return &EventHandler{eventService: eventService}
}

type EventRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=200" example:"東京ドームコンサート2026"`
	Description string `json:"description" example:"年末スペシャルコンサート"`
	Category    string `json:"category" validate:"required,min=2" example:"music"`
	Location    string `json:"location" validate:"required,min=2" example:"東京"`
	Venue       string `json:"venue" validate:"required,min=2" example:"東京ドーム"`
	Date        string `json:"date" validate:"required" example:"2026-12-31T18:00:00+09:00"`
	EndDate     string `json:"endDate" validate:"required" example:"2026-12-31T21:00:00+09:00"`
	Capacity    int    `json:"capacity" validate:"required,gt=0" example:"50000"`
}

type PublishRequest struct {
	IsPublished bool `json:"isPublished"`
}

type EventResponse struct {
	ID          string `json:"id"`
	OrganizerID string `json:"organizerId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Location    string `json:"location"`
	Venue       string `json:"venue"`
	Date        string `json:"date"`
	EndDate     string `json:"endDate"`
	Capacity    int    `json:"capacity"`
	IsPublished bool   `json:"isPublished"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

func toEventResponse(e *event.Event) *EventResponse {
	return &EventResponse{
		ID:          e.ID,
		OrganizerID: e.OrganizerID,
		Title:       e.Title,
		Description: e.Description,
		Category:    e.Category,
		Location:    e.Location,
		Venue:       e.Venue,
		Date:        formatTime(e.StartAt),
		EndDate:     formatTime(e.EndAt),
		Capacity:    e.Capacity,
		IsPublished: e.IsPublished,
		CreatedAt:   formatTime(e.CreatedAt),
		UpdatedAt:   formatTime(e.UpdatedAt),
	}
}

// Create godoc
// @Summary イベントを作成
// @Tags events
// @Accept json
// @Produce json
// @Param request body EventRequest true "イベント情報"
// @Success 201 {object} api.Response
// @Router /events [post]
func (h *EventHandler) Create(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req EventRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	startAt, err := parseTime("date", req.Date)
	if err != nil {
		return err
	}
	endAt, err := parseTime("endDate", req.EndDate)
	if err != nil {
		return err
	}

	e, err := h.eventService.CreateEvent(c.Request().Context(), actor, application.CreateEventInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
		Venue:       req.Venue,
		StartAt:     startAt,
		EndAt:       endAt,
		Capacity:    req.Capacity,
	})
	if err != nil {
		return err
	}
	return api.Created(c, toEventResponse(e), "イベントを作成しました")
}

// GetByID godoc
// @Summary イベントを取得
// @Tags events
// @Produce json
// @Param id path string true "イベントID"
// @Success 200 {object} api.Response
// @Failure 404 {object} api.ErrorResponse
// @Router /events/{id} [get]
func (h *EventHandler) GetByID(c echo.Context) error {
	e, err := h.eventService.GetEvent(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return api.OK(c, toEventResponse(e), "")
}

// List godoc
// @Summary イベント一覧を取得
// @Tags events
// @Produce json
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Param category query string false "カテゴリ"
// @Param dateFrom query string false "開催日時の下限 (RFC3339 または YYYY-MM-DD)"
// @Param dateTo query string false "開催日時の上限 (RFC3339 または YYYY-MM-DD)"
// @Param search query string false "キーワード"
// @Success 200 {object} api.Response
// @Router /events [get]
func (h *EventHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	dateFrom, err := parseDateBound("dateFrom", c.QueryParam("dateFrom"), false)
	if err != nil {
		return err
	}
	dateTo, err := parseDateBound("dateTo", c.QueryParam("dateTo"), true)
	if err != nil {
		return err
	}

	events, err := h.eventService.ListEvents(c.Request().Context(), event.ListFilter{
		Category: strings.TrimSpace(c.QueryParam("category")),
		DateFrom: dateFrom,
		DateTo:   dateTo,
		Search:   strings.TrimSpace(c.QueryParam("search")),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return err
	}

	responses := make([]*EventResponse, len(events))
	for i, e := range events {
		responses[i] = toEventResponse(e)
	}
	return api.OK(c, responses, "")
}

// Update godoc
// @Summary イベントを更新
// @Tags events
// @Accept json
// @Produce json
// @Param id path string true "イベントID"
// @Param request body EventRequest true "イベント情報"
// @Success 200 {object} api.Response
// @Router /events/{id} [put]
func (h *EventHandler) Update(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req EventRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	startAt, err := parseTime("date", req.Date)
	if err != nil {
		return err
	}
	endAt, err := parseTime("endDate", req.EndDate)
	if err != nil {
		return err
	}

	e, err := h.eventService.UpdateEvent(c.Request().Context(), actor, application.UpdateEventInput{
		ID:          c.Param("id"),
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
		Venue:       req.Venue,
		StartAt:     startAt,
		EndAt:       endAt,
		Capacity:    req.Capacity,
	})
	if err != nil {
		return err
	}
	return api.OK(c, toEventResponse(e), "イベントを更新しました")
}

// Publish godoc
// @Summary イベントの公開状態を変更
// @Tags events
// @Accept json
// @Produce json
// @Param id path string true "イベントID"
// @Param request body PublishRequest true "公開状態"
// @Success 200 {object} api.Response
// @Router /events/{id}/publish [patch]
func (h *EventHandler) Publish(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req PublishRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	e, err := h.eventService.SetPublished(c.Request().Context(), actor, c.Param("id"), req.IsPublished)
	if err != nil {
		return err
	}
	return api.OK(c, toEventResponse(e), "")
}

// Delete godoc
// @Summary イベントを削除
// @Tags events
// @Param id path string true "イベントID"
// @Success 204
// @Router /events/{id} [delete]
func (h *EventHandler) Delete(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	if err := h.eventService.DeleteEvent(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
