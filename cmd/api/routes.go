package main

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sanosuguru/go-ticket-marketplace/internal/api/handler"
	"github.com/sanosuguru/go-ticket-marketplace/internal/api/middleware"
	"github.com/sanosuguru/go-ticket-marketplace/internal/config"
	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/identity"
)

type routeHandlers struct {
	event     *handler.EventHandler
	tier      *handler.TicketTierHandler
	order     *handler.OrderHandler
	payment   *handler.PaymentHandler
	analytics *handler.AnalyticsHandler
	health    *handler.HealthHandler
}

func registerRoutes(e *echo.Echo, cfg *config.Config, h routeHandlers) {
	e.GET("/health", h.health.Check)
	e.GET("/health/ready", h.health.Ready)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), middleware.MetricsBasicAuth(cfg.Metrics))

	v1 := e.Group("/api/v1")
	auth := middleware.JWTAuth(cfg.Auth.AccessSecret)
	organizer := middleware.RequireRole(identity.RoleOrganizer, identity.RoleAdmin)

	// イベント
	v1.GET("/events", h.event.List)
	v1.GET("/events/:id", h.event.GetByID)
	v1.POST("/events", h.event.Create, auth, organizer)
	v1.PUT("/events/:id", h.event.Update, auth, organizer)
	v1.PATCH("/events/:id/publish", h.event.Publish, auth, organizer)
	v1.DELETE("/events/:id", h.event.Delete, auth, organizer)

	// チケット種別
	v1.GET("/events/:eventId/ticket-types", h.tier.List)
	v1.POST("/events/:eventId/ticket-types", h.tier.Create, auth, organizer)
	v1.PATCH("/events/:eventId/ticket-types/:id/price", h.tier.UpdatePrice, auth, organizer)

	// 売上
	v1.GET("/events/:eventId/analytics", h.analytics.EventAnalytics, auth, organizer)
	v1.GET("/analytics/summary", h.analytics.PlatformSummary, auth, middleware.RequireRole(identity.RoleAdmin))

	// 注文
	v1.POST("/orders", h.order.Purchase, auth)
	v1.GET("/orders", h.order.History, auth)
	v1.GET("/orders/me", h.order.History, auth)

	// 決済
	v1.POST("/payments/webhook", h.payment.Webhook)
	v1.GET("/payments/:paymentId/status", h.payment.Status, auth)
}
