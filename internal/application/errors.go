package application

import (
	"errors"

	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/event"
	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/tickettier"
	"github.com/sanosuguru/go-ticket-marketplace/internal/pkg/apperror"
)

// toAppError はカタログ系のドメインエラーをアプリケーションエラーに変換する
func toAppError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperror.As(err); ok {
		return err
	}

	switch {
	case errors.Is(err, event.ErrEventNotFound):
		return apperror.NotFound("イベント", err)
	case errors.Is(err, tickettier.ErrTicketTierNotFound):
		return apperror.NotFound("チケット種別", err)
	case errors.Is(err, event.ErrNotEventOrganizer):
		return apperror.Forbidden(err.Error(), err)
	case errors.Is(err, event.ErrOptimisticLockConflict),
		errors.Is(err, event.ErrEventHasOrders):
		return apperror.Conflict(err.Error(), err)
	case errors.Is(err, event.ErrOrganizerIDRequired),
		errors.Is(err, event.ErrInvalidTitle),
		errors.Is(err, event.ErrInvalidCapacity),
		errors.Is(err, event.ErrInvalidEventTime),
		errors.Is(err, tickettier.ErrEventIDRequired),
		errors.Is(err, tickettier.ErrNameTooShort),
		errors.Is(err, tickettier.ErrInvalidCategory),
		errors.Is(err, tickettier.ErrInvalidPrice),
		errors.Is(err, tickettier.ErrInvalidTotalQty),
		errors.Is(err, tickettier.ErrInvalidSaleWindow):
		return apperror.Validation(err.Error(), err)
	default:
		return apperror.Internal(err)
	}
}
