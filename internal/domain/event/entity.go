package event

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Event はイベントエンティティを表す
// チケットの在庫と販売期間はチケット種別側で管理する
type Event struct {
	ID          string
	OrganizerID string
	Title       string
	Description string
	Category    string
	Location    string
	Venue       string
	StartAt     time.Time
	EndAt       time.Time
	Capacity    int
	IsPublished bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int // 楽観的ロック用
}

// NewEvent は新しいイベントを作成する
func NewEvent(organizerID, title, description, category, location, venue string, startAt, endAt time.Time, capacity int) *Event {
	now := time.Now()
	return &Event{
		OrganizerID: organizerID,
		Title:       strings.TrimSpace(title),
		Description: description,
		Category:    strings.TrimSpace(category),
		Location:    strings.TrimSpace(location),
		Venue:       strings.TrimSpace(venue),
		StartAt:     startAt,
		EndAt:       endAt,
		Capacity:    capacity,
		IsPublished: false,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     0,
	}
}

// IsOwnedBy は指定ユーザーが主催者かを返す
func (e *Event) IsOwnedBy(userID string) bool {
	return e.OrganizerID == userID
}

// Validate はイベントの検証を行う
func (e *Event) Validate() error {
	if e.OrganizerID == "" {
		return ErrOrganizerIDRequired
	}
	if n := utf8.RuneCountInString(e.Title); n < 3 || n > 200 {
		return ErrInvalidTitle
	}
	if e.Capacity <= 0 {
		return ErrInvalidCapacity
	}
	if e.EndAt.Before(e.StartAt) {
		return ErrInvalidEventTime
	}
	return nil
}
