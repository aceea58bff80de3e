package handler

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-ticket-marketplace/internal/api/middleware"
	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/identity"
	"github.com/sanosuguru/go-ticket-marketplace/internal/pkg/apperror"
)

// bindAndValidate はリクエストボディを読み取り、タグで検証する
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return apperror.BadRequest("リクエストの形式が不正です", err)
	}
	return c.Validate(req)
}

func currentActor(c echo.Context) (identity.Actor, error) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return identity.Actor{}, apperror.Unauthorized("認証が必要です", nil)
	}
	return actor, nil
}

// parseTime はISO 8601（RFC3339）の日時を読む
func parseTime(field, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, apperror.BadRequest(field+" の日時形式が不正です", err)
	}
	return t, nil
}

// parseDateBound は日付範囲の境界を解釈する
// 日付のみ指定された場合、endOfDay ならその日の終わりを返す
func parseDateBound(field, value string, endOfDay bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if d, err := time.Parse(time.DateOnly, value); err == nil {
		if endOfDay {
			d = d.Add(24*time.Hour - time.Nanosecond)
		}
		return &d, nil
	}
	t, err := parseTime(field, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}
