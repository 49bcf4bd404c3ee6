package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Freeeeeet/lesson_booking/internal/model"
)

// Ошибки ядра бронирования, которые можно показать пользователю
var (
	ErrBookingNotFound    = errors.New("booking request not found")
	ErrSlotsUnavailable   = errors.New("slots no longer available")
	ErrInvalidTimeSlot    = errors.New("invalid time slot")
	ErrInvalidDateRange   = errors.New("invalid date range")
	ErrNothingToReserve   = errors.New("booking request has nothing to reserve")
	ErrBookingNotPending  = errors.New("booking request is not awaiting a decision")
	ErrBlockNotFound      = errors.New("block not found")
	ErrInvalidWorkingHour = errors.New("invalid working hours")
	ErrNotBookingOwner    = errors.New("booking request belongs to another user")
	ErrNoHolds            = errors.New("booking request has no holds to confirm")
)

// ConflictError возвращается протоколом резервирования если хотя бы один слот уже занят
type ConflictError struct {
	BookingRequestID int64
	Conflicts        []*model.BlockingInterval
}

func (e *ConflictError) Error() string {
	var parts []string
	for _, c := range e.Conflicts {
		parts = append(parts, fmt.Sprintf("%s %s-%s",
			c.StartDatetime.Format("2006-01-02"),
			model.TimeOfDayOf(c.StartDatetime),
			model.TimeOfDayOf(c.EndDatetime)))
	}
	return fmt.Sprintf("%s: booking %d conflicts with %s", ErrSlotsUnavailable, e.BookingRequestID, strings.Join(parts, ", "))
}

func (e *ConflictError) Unwrap() error {
	return ErrSlotsUnavailable
}
