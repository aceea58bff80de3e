package application

import (
	"context"
	"time"

	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/event"
	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/identity"
	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/order"
	"github.com/sanosuguru/go-ticket-marketplace/internal/pkg/apperror"
)

const (
	platformTopEvents     = 10
	platformTrendWindow   = 30 * 24 * time.Hour
	msgAdminOnlyAnalytics = "全体の売上は管理者のみ参照できます"
)

// AnalyticsService は支払い済み注文の売上を集計する
type AnalyticsService struct {
	orderRepo order.Repository
	eventRepo event.Repository
	now       func() time.Time
}

func NewAnalyticsService(orderRepo order.Repository, eventRepo event.Repository) *AnalyticsService {
	return &AnalyticsService{orderRepo: orderRepo, eventRepo: eventRepo, now: time.Now}
}

// GetEventAnalytics はイベントの売上集計を返す。主催者本人または管理者のみ
func (s *AnalyticsService) GetEventAnalytics(ctx context.Context, actor identity.Actor, eventID string) (*order.SalesSummary, error) {
	e, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, toAppError(err)
	}
	if !actor.CanManage(e.OrganizerID) {
		return nil, toAppError(event.ErrNotEventOrganizer)
	}

	summary, err := s.orderRepo.SummarizeByEvent(ctx, eventID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return summary, nil
}

// GetPlatformSummary は全体の売上、上位イベント、直近30日の日別売上を返す
func (s *AnalyticsService) GetPlatformSummary(ctx context.Context, actor identity.Actor) (*order.PlatformSummary, error) {
	if !actor.IsAdmin() {
		return nil, apperror.Forbidden(msgAdminOnlyAnalytics, nil)
	}
	summary, err := s.orderRepo.SummarizePlatform(ctx, s.now().Add(-platformTrendWindow), platformTopEvents)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return summary, nil
}
