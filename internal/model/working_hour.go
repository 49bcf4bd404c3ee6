package model

import (
	"fmt"
	"time"
)

// WorkingHourRule еженедельное рабочее окно инструктора, опционально ограниченное сезоном
type WorkingHourRule struct {
	ID           int64      `json:"id"`
	InstructorID int64      `json:"instructor_id"`
	DayOfWeek    int        `json:"day_of_week"` // 0 = Sunday, 6 = Saturday
	StartTime    TimeOfDay  `json:"start_time"`
	EndTime      TimeOfDay  `json:"end_time"`
	SeasonStart  *MonthDay  `json:"season_start,omitempty"`
	SeasonEnd    *MonthDay  `json:"season_end,omitempty"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// Validate проверяет инварианты правила
func (r *WorkingHourRule) Validate() error {
	if r.DayOfWeek < 0 || r.DayOfWeek > 6 {
		return fmt.Errorf("day of week must be within 0..6, got %d", r.DayOfWeek)
	}
	if !r.StartTime.Valid() || !r.EndTime.Valid() || r.StartTime >= r.EndTime {
		return fmt.Errorf("working hours %s-%s are not a valid range", r.StartTime, r.EndTime)
	}
	if (r.SeasonStart == nil) != (r.SeasonEnd == nil) {
		return fmt.Errorf("season needs both start and end")
	}
	return nil
}

// HasSeason показывает ограничено ли правило сезоном
func (r *WorkingHourRule) HasSeason() bool {
	return r.SeasonStart != nil && r.SeasonEnd != nil
}

// InSeason проверяет попадает ли дата в сезонное окно.
// Год берётся из проверяемой даты; окно вида 12-01..04-15 переходит через Новый год.
func (r *WorkingHourRule) InSeason(date time.Time) bool {
	if !r.HasSeason() {
		return true
	}
	day := DateOf(date)
	start := r.SeasonStart.In(day.Year(), day.Location())
	end := r.SeasonEnd.In(day.Year(), day.Location())

	if !start.After(end) {
		return !day.Before(start) && !day.After(end)
	}
	return !day.Before(start) || !day.After(end)
}
