package application

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/event"
	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/identity"
	"github.com/sanosuguru/go-ticket-marketplace/internal/pkg/apperror"
	"github.com/sanosuguru/go-ticket-marketplace/internal/pkg/logger"
)

type EventService struct {
	eventRepo event.Repository
}

func NewEventService(eventRepo event.Repository) *EventService {
	return &EventService{eventRepo: eventRepo}
}

type CreateEventInput struct {
	Title       string
	Description string
	Category    string
	Location    string
	Venue       string
	StartAt     time.Time
	EndAt       time.Time
	Capacity    int
}

func (s *EventService) CreateEvent(ctx context.Context, actor identity.Actor, input CreateEventInput) (*event.Event, error) {
	e := event.NewEvent(actor.UserID, input.Title, input.Description, input.Category, input.Location, input.Venue,
		input.StartAt, input.EndAt, input.Capacity)
	if err := e.Validate(); err != nil {
		return nil, toAppError(err)
	}
	if err := s.eventRepo.Create(ctx, e); err != nil {
		return nil, toAppError(err)
	}
	logger.Info("イベントを作成しました", zap.String("event_id", e.ID), zap.String("organizer_id", e.OrganizerID))
	return e, nil
}

func (s *EventService) GetEvent(ctx context.Context, id string) (*event.Event, error) {
	e, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, toAppError(err)
	}
	return e, nil
}

// ListEvents は公開済みイベントを条件で絞り込んで返す
// 下書きは常に除外される
func (s *EventService) ListEvents(ctx context.Context, filter event.ListFilter) ([]*event.Event, error) {
	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateFrom.After(*filter.DateTo) {
		return nil, apperror.BadRequest("dateFrom は dateTo 以前を指定してください", nil)
	}
	filter.PublishedOnly = true
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	events, err := s.eventRepo.List(ctx, filter)
	if err != nil {
		return nil, toAppError(err)
	}
	return events, nil
}

type UpdateEventInput struct {
	ID          string
	Title       string
	Description string
	Category    string
	Location    string
	Venue       string
	StartAt     time.Time
	EndAt       time.Time
	Capacity    int
}

// UpdateEvent は主催者本人または管理者だけが実行できる
func (s *EventService) UpdateEvent(ctx context.Context, actor identity.Actor, input UpdateEventInput) (*event.Event, error) {
	e, err := s.getManagedEvent(ctx, actor, input.ID)
	if err != nil {
		return nil, err
	}
	e.Title = input.Title
	e.Description = input.Description
	e.Category = input.Category
	e.Location = input.Location
	e.Venue = input.Venue
	e.StartAt = input.StartAt
	e.EndAt = input.EndAt
	e.Capacity = input.Capacity
	if err := e.Validate(); err != nil {
		return nil, toAppError(err)
	}
	if err := s.eventRepo.Update(ctx, e); err != nil {
		return nil, toAppError(err)
	}
	return e, nil
}

// SetPublished はイベントの公開状態を切り替える
func (s *EventService) SetPublished(ctx context.Context, actor identity.Actor, id string, published bool) (*event.Event, error) {
	e, err := s.getManagedEvent(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	e.IsPublished = published
	if err := s.eventRepo.Update(ctx, e); err != nil {
		return nil, toAppError(err)
	}
	return e, nil
}

func (s *EventService) DeleteEvent(ctx context.Context, actor identity.Actor, id string) error {
	if _, err := s.getManagedEvent(ctx, actor, id); err != nil {
		return err
	}
	if err := s.eventRepo.Delete(ctx, id); err != nil {
		return toAppError(err)
	}
	return nil
}

// getManagedEvent はイベントを取得し、呼び出し元が管理できるかを確認する
func (s *EventService) getManagedEvent(ctx context.Context, actor identity.Actor, id string) (*event.Event, error) {
	e, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, toAppError(err)
	}
	if !actor.CanManage(e.OrganizerID) {
		return nil, toAppError(event.ErrNotEventOrganizer)
	}
	return e, nil
}
