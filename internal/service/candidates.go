package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/availability"
	"github.com/Freeeeeet/lesson_booking/internal/model"
)

// HoldPolicy параметры удержания слотов
type HoldPolicy struct {
	TTL        time.Duration // сколько живёт удержание
	AnchorHour int           // начало непрерывного блока, если слоты не указаны
	SlotLength time.Duration // длина слота в режиме списка HH:MM
}

// DefaultHoldPolicy 48 часов, якорь 09:00, часовые слоты
func DefaultHoldPolicy() HoldPolicy {
	return HoldPolicy{TTL: 48 * time.Hour, AnchorHour: 9, SlotLength: time.Hour}
}

// candidateIntervals строит интервалы заявки: день × слот, либо непрерывный блок на каждый день
func (p HoldPolicy) candidateIntervals(req *model.BookingRequest, timeSlots []string) ([]availability.Interval, error) {
	if req.EndDate.Before(req.StartDate) {
		return nil, fmt.Errorf("%w: %s after %s", ErrInvalidDateRange,
			req.StartDate.Format(time.DateOnly), req.EndDate.Format(time.DateOnly))
	}

	if len(timeSlots) == 0 {
		timeSlots = req.TimeSlots
	}

	days := req.Days()
	var out []availability.Interval

	if len(timeSlots) == 0 {
		if req.HoursPerDay <= 0 || p.AnchorHour+req.HoursPerDay > 24 {
			return nil, fmt.Errorf("%w: %d hours per day from %02d:00", ErrNothingToReserve, req.HoursPerDay, p.AnchorHour)
		}
		for _, day := range days {
			start := model.NewTimeOfDay(p.AnchorHour, 0).On(day)
			out = append(out, availability.Interval{Start: start, End: start.Add(time.Duration(req.HoursPerDay) * time.Hour)})
		}
		return out, nil
	}

	starts, err := p.parseSlots(timeSlots)
	if err != nil {
		return nil, err
	}
	for _, day := range days {
		for _, s := range starts {
			start := s.On(day)
			out = append(out, availability.Interval{Start: start, End: start.Add(p.SlotLength)})
		}
	}
	return out, nil
}

// parseSlots разбирает, сортирует и убирает дубли
func (p HoldPolicy) parseSlots(timeSlots []string) ([]model.TimeOfDay, error) {
	seen := make(map[model.TimeOfDay]bool, len(timeSlots))
	var starts []model.TimeOfDay
	for _, raw := range timeSlots {
		tod, err := model.ParseTimeOfDay(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTimeSlot, err)
		}
		if time.Duration(tod)*time.Minute+p.SlotLength > 24*time.Hour {
			return nil, fmt.Errorf("%w: %s runs past midnight", ErrInvalidTimeSlot, raw)
		}
		if seen[tod] {
			continue
		}
		seen[tod] = true
		starts = append(starts, tod)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })
	return starts, nil
}

// span минимальный интервал, покрывающий все кандидаты
func span(intervals []availability.Interval) availability.Interval {
	out := intervals[0]
	for _, iv := range intervals[1:] {
		if iv.Start.Before(out.Start) {
			out.Start = iv.Start
		}
		if iv.End.After(out.End) {
			out.End = iv.End
		}
	}
	return out
}
