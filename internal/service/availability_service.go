package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/availability"
	"github.com/Freeeeeet/lesson_booking/internal/model"
	"go.uber.org/zap"
)

// MaxRangeDays ограничение на размер запрашиваемой сетки
const MaxRangeDays = 92

type AvailabilityService struct {
	hours  WorkingHourStore
	blocks BlockStore
	logger *zap.Logger
}

func NewAvailabilityService(hours WorkingHourStore, blocks BlockStore, logger *zap.Logger) *AvailabilityService {
	return &AvailabilityService{
		hours:  hours,
		blocks: blocks,
		logger: logger,
	}
}

// GenerateSlotsForDateRange строит сетку слотов по дням включительно
func (s *AvailabilityService) GenerateSlotsForDateRange(
	ctx context.Context,
	instructorID int64,
	startDate, endDate time.Time,
	slotDurationMinutes int,
) ([]model.DayAvailability, error) {
	startDate, endDate = model.DateOf(startDate), model.DateOf(endDate)
	if endDate.Before(startDate) {
		return nil, fmt.Errorf("%w: end before start", ErrInvalidDateRange)
	}
	if endDate.Sub(startDate) > MaxRangeDays*24*time.Hour {
		return nil, fmt.Errorf("%w: more than %d days", ErrInvalidDateRange, MaxRangeDays)
	}

	rules, err := s.hours.ListActiveByInstructor(ctx, instructorID)
	if err != nil {
		return nil, fmt.Errorf("list working hours: %w", err)
	}

	blocks, err := s.blocks.ListByInstructorRange(ctx, instructorID, startDate, endDate.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}

	days := availability.BuildRange(startDate, endDate, rules, blocks, slotDurationMinutes)

	s.logger.Debug("Availability generated",
		zap.Int64("instructor_id", instructorID),
		zap.String("start", startDate.Format(time.DateOnly)),
		zap.String("end", endDate.Format(time.DateOnly)),
		zap.Int("rules", len(rules)),
		zap.Int("blocks", len(blocks)),
	)

	return days, nil
}

// CheckSlotsAvailable проверяет один интервал HH:MM-HH:MM на дату
func (s *AvailabilityService) CheckSlotsAvailable(
	ctx context.Context,
	instructorID int64,
	date time.Time,
	startTime, endTime string,
) (availability.SlotCheck, error) {
	start, err := model.ParseTimeOfDay(startTime)
	if err != nil {
		return availability.SlotCheck{}, fmt.Errorf("%w: %v", ErrInvalidTimeSlot, err)
	}
	end, err := model.ParseTimeOfDay(endTime)
	if err != nil {
		return availability.SlotCheck{}, fmt.Errorf("%w: %v", ErrInvalidTimeSlot, err)
	}
	if end <= start {
		return availability.SlotCheck{}, fmt.Errorf("%w: %s-%s", ErrInvalidTimeSlot, startTime, endTime)
	}

	date = model.DateOf(date)

	rules, err := s.hours.ListActiveByInstructor(ctx, instructorID)
	if err != nil {
		return availability.SlotCheck{}, fmt.Errorf("list working hours: %w", err)
	}

	blocks, err := s.blocks.ListByInstructorRange(ctx, instructorID, start.On(date), end.On(date))
	if err != nil {
		return availability.SlotCheck{}, fmt.Errorf("list blocks: %w", err)
	}

	return availability.CheckSlot(date, start, end, rules, blocks), nil
}
