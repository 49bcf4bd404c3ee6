package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"go.uber.org/zap"
)

type WorkingHoursService struct {
	hours  WorkingHourStore
	logger *zap.Logger
}

func NewWorkingHoursService(hours WorkingHourStore, logger *zap.Logger) *WorkingHoursService {
	return &WorkingHoursService{
		hours:  hours,
		logger: logger,
	}
}

// SetRule заменяет активное правило инструктора на этот день недели
func (s *WorkingHoursService) SetRule(ctx context.Context, rule *model.WorkingHourRule) error {
	rule.IsActive = true
	if err := rule.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidWorkingHour, err)
	}

	if err := s.hours.Upsert(ctx, rule); err != nil {
		return fmt.Errorf("upsert working hours: %w", err)
	}

	fields := []zap.Field{
		zap.Int64("instructor_id", rule.InstructorID),
		zap.Int("day_of_week", rule.DayOfWeek),
		zap.Stringer("start", rule.StartTime),
		zap.Stringer("end", rule.EndTime),
	}
	if rule.HasSeason() {
		fields = append(fields, zap.Stringer("season_start", rule.SeasonStart), zap.Stringer("season_end", rule.SeasonEnd))
	}
	s.logger.Info("Working hours set", fields...)

	return nil
}

// ListRules активные правила инструктора
func (s *WorkingHoursService) ListRules(ctx context.Context, instructorID int64) ([]*model.WorkingHourRule, error) {
	return s.hours.ListActiveByInstructor(ctx, instructorID)
}

// DeactivateRule делает день нерабочим
func (s *WorkingHoursService) DeactivateRule(ctx context.Context, instructorID int64, dayOfWeek int) error {
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return fmt.Errorf("%w: day of week %d", ErrInvalidWorkingHour, dayOfWeek)
	}

	found, err := s.hours.Deactivate(ctx, instructorID, dayOfWeek)
	if err != nil {
		return fmt.Errorf("deactivate working hours: %w", err)
	}

	s.logger.Info("Working hours deactivated",
		zap.Int64("instructor_id", instructorID),
		zap.Int("day_of_week", dayOfWeek),
		zap.Bool("found", found),
	)

	return nil
}
