package handler

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-ticket-marketplace/internal/api/middleware"
	"github.com/sanosuguru/go-ticket-marketplace/internal/application"
	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/event"
	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/identity"
	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/order"
	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/tickettier"
)

const testJWTSecret = "handler-test-secret"

var (
	buyerActor     = identity.Actor{UserID: "user-1", Role: identity.RoleUser}
	organizerActor = identity.Actor{UserID: "organizer-1", Role: identity.RoleOrganizer}
	adminActor     = identity.Actor{UserID: "admin-1", Role: identity.RoleAdmin}
)

func tokenFor(t *testing.T, actor identity.Actor) string {
	t.Helper()
	token, err := middleware.IssueToken(testJWTSecret, actor, time.Hour)
	require.NoError(t, err)
	return token
}

func authed() echo.MiddlewareFunc {
	return middleware.JWTAuth(testJWTSecret)
}

func doRequest(e *echo.Echo, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// MockEventService はEventServiceInterfaceのモック
type MockEventService struct {
	mock.Mock
}

func (m *MockEventService) CreateEvent(ctx context.Context, actor identity.Actor, input application.CreateEventInput) (*event.Event, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.Event), args.Error(1)
}

func (m *MockEventService) GetEvent(ctx context.Context, id string) (*event.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.Event), args.Error(1)
}

func (m *MockEventService) ListEvents(ctx context.Context, filter event.ListFilter) ([]*event.Event, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*event.Event), args.Error(1)
}

func (m *MockEventService) UpdateEvent(ctx context.Context, actor identity.Actor, input application.UpdateEventInput) (*event.Event, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.Event), args.Error(1)
}

func (m *MockEventService) SetPublished(ctx context.Context, actor identity.Actor, id string, published bool) (*event.Event, error) {
	args := m.Called(ctx, actor, id, published)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.Event), args.Error(1)
}

func (m *MockEventService) DeleteEvent(ctx context.Context, actor identity.Actor, id string) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

// MockTicketTierService はTicketTierServiceInterfaceのモック
type MockTicketTierService struct {
	mock.Mock
}

func (m *MockTicketTierService) CreateTicketTier(ctx context.Context, actor identity.Actor, input application.CreateTicketTierInput) (*tickettier.TicketTier, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tickettier.TicketTier), args.Error(1)
}

func (m *MockTicketTierService) ListTicketTiers(ctx context.Context, eventID string) ([]*tickettier.TicketTier, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*tickettier.TicketTier), args.Error(1)
}

func (m *MockTicketTierService) UpdateTierPrice(ctx context.Context, actor identity.Actor, input application.UpdateTierPriceInput) (*tickettier.TicketTier, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tickettier.TicketTier), args.Error(1)
}

// MockPurchaseService はPurchaseServiceInterfaceのモック
type MockPurchaseService struct {
	mock.Mock
}

func (m *MockPurchaseService) PurchaseTickets(ctx context.Context, input application.PurchaseInput) (*order.Order, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockPurchaseService) GetOrderHistory(ctx context.Context, userID string) ([]*order.OrderDetail, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.OrderDetail), args.Error(1)
}

// MockPaymentService はPaymentServiceInterfaceのモック
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) ConfirmPayment(ctx context.Context, input application.ConfirmPaymentInput) (*application.ConfirmPaymentResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*application.ConfirmPaymentResult), args.Error(1)
}

func (m *MockPaymentService) GetPaymentStatus(ctx context.Context, userID, paymentID string) (*order.Order, error) {
	args := m.Called(ctx, userID, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

// MockAnalyticsService はAnalyticsServiceInterfaceのモック
type MockAnalyticsService struct {
	mock.Mock
}

func (m *MockAnalyticsService) GetEventAnalytics(ctx context.Context, actor identity.Actor, eventID string) (*order.SalesSummary, error) {
	args := m.Called(ctx, actor, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.SalesSummary), args.Error(1)
}

func (m *MockAnalyticsService) GetPlatformSummary(ctx context.Context, actor identity.Actor) (*order.PlatformSummary, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.PlatformSummary), args.Error(1)
}
