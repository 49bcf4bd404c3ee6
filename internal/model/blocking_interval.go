package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BlockSource причина занятости интервала
type BlockSource string

const (
	BlockSourceExternalCalendar BlockSource = "external_calendar"
	BlockSourceHoldPending      BlockSource = "hold_pending"
	BlockSourceBookingConfirmed BlockSource = "booking_confirmed"
	BlockSourceManual           BlockSource = "manual"
)

// BlockingInterval полуоткрытый интервал [Start, End), в который инструктор недоступен
type BlockingInterval struct {
	ID               uuid.UUID   `json:"id"`
	InstructorID     int64       `json:"instructor_id"`
	StartDatetime    time.Time   `json:"start_datetime"`
	EndDatetime      time.Time   `json:"end_datetime"`
	AllDay           bool        `json:"all_day"`
	Source           BlockSource `json:"source"`
	BookingRequestID *int64      `json:"booking_request_id,omitempty"`
	GoogleEventID    *string     `json:"google_event_id,omitempty"`
	ExpiresAt        *time.Time  `json:"expires_at,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
}

// Validate проверяет инварианты интервала для его источника
func (b *BlockingInterval) Validate() error {
	if !b.StartDatetime.Before(b.EndDatetime) {
		return fmt.Errorf("interval start %s must be before end %s",
			b.StartDatetime.Format(time.DateTime), b.EndDatetime.Format(time.DateTime))
	}

	switch b.Source {
	case BlockSourceHoldPending:
		if b.BookingRequestID == nil || b.ExpiresAt == nil {
			return fmt.Errorf("hold requires booking request and expiry")
		}
	case BlockSourceBookingConfirmed:
		if b.BookingRequestID == nil || b.ExpiresAt != nil {
			return fmt.Errorf("confirmed block requires booking request and no expiry")
		}
	case BlockSourceExternalCalendar:
		if b.GoogleEventID == nil {
			return fmt.Errorf("external calendar block requires event id")
		}
	case BlockSourceManual:
		if b.BookingRequestID != nil || b.GoogleEventID != nil {
			return fmt.Errorf("manual block must not reference booking or event")
		}
	default:
		return fmt.Errorf("unknown block source %q", b.Source)
	}

	return nil
}

// BelongsTo проверяет принадлежность интервала бронированию
func (b *BlockingInterval) BelongsTo(bookingRequestID int64) bool {
	return b.BookingRequestID != nil && *b.BookingRequestID == bookingRequestID
}

// IsHold является ли интервал временным удержанием
func (b *BlockingInterval) IsHold() bool {
	return b.Source == BlockSourceHoldPending
}
