package model

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"   // Ожидает решения инструктора
	BookingStatusViewed    BookingStatus = "viewed"    // Просмотрено инструктором
	BookingStatusAccepted  BookingStatus = "accepted"  // Принято
	BookingStatusRejected  BookingStatus = "rejected"  // Отклонено инструктором
	BookingStatusExpired   BookingStatus = "expired"   // Удержание истекло или слоты заняты
	BookingStatusCancelled BookingStatus = "cancelled" // Отменено
	BookingStatusCompleted BookingStatus = "completed" // Занятие проведено
)

// BookingRequest заявка клиента на занятия у инструктора
type BookingRequest struct {
	ID           int64         `json:"id"`
	InstructorID int64         `json:"instructor_id"`
	ClientID     int64         `json:"client_id"`
	StartDate    time.Time     `json:"start_date"`
	EndDate      time.Time     `json:"end_date"`
	HoursPerDay  int           `json:"hours_per_day"`
	TimeSlots    []string      `json:"time_slots"` // начала часовых слотов HH:MM
	Status       BookingStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    *time.Time    `json:"updated_at,omitempty"`
}

// Days возвращает все даты заявки включительно
func (b *BookingRequest) Days() []time.Time {
	var days []time.Time
	end := DateOf(b.EndDate)
	for d := DateOf(b.StartDate); !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// IsAwaitingDecision ожидает ли заявка решения инструктора
func (b *BookingRequest) IsAwaitingDecision() bool {
	return b.Status == BookingStatusPending || b.Status == BookingStatusViewed
}
