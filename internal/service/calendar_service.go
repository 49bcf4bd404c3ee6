package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ExternalEvent нормализованное событие внешнего календаря
type ExternalEvent struct {
	EventID string
	Start   time.Time
	End     time.Time
	AllDay  bool
}

// CalendarService ручные блоки и блоки внешнего календаря
type CalendarService struct {
	blocks BlockStore
	clock  Clock
	logger *zap.Logger
}

func NewCalendarService(blocks BlockStore, clock Clock, logger *zap.Logger) *CalendarService {
	return &CalendarService{
		blocks: blocks,
		clock:  clock,
		logger: logger,
	}
}

// AddManualBlock закрывает время вручную. Пересечения с удержаниями разрешены.
func (s *CalendarService) AddManualBlock(ctx context.Context, instructorID int64, start, end time.Time, allDay bool) (*model.BlockingInterval, error) {
	if allDay {
		start = model.DateOf(start)
		end = model.DateOf(end).AddDate(0, 0, 1)
	}

	block := &model.BlockingInterval{
		ID:            uuid.New(),
		InstructorID:  instructorID,
		StartDatetime: start,
		EndDatetime:   end,
		AllDay:        allDay,
		Source:        model.BlockSourceManual,
		CreatedAt:     s.clock.Now(),
	}
	if err := block.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDateRange, err)
	}

	if err := s.blocks.Create(ctx, block); err != nil {
		return nil, fmt.Errorf("create manual block: %w", err)
	}

	s.logger.Info("Manual block added",
		zap.Int64("instructor_id", instructorID),
		zap.String("block_id", block.ID.String()),
		zap.Time("start", start),
		zap.Time("end", end),
	)

	return block, nil
}

// RemoveManualBlock удаляет ручной блок инструктора
func (s *CalendarService) RemoveManualBlock(ctx context.Context, instructorID int64, blockID uuid.UUID) error {
	found, err := s.blocks.DeleteManual(ctx, instructorID, blockID)
	if err != nil {
		return fmt.Errorf("delete manual block: %w", err)
	}
	if !found {
		return ErrBlockNotFound
	}

	s.logger.Info("Manual block removed",
		zap.Int64("instructor_id", instructorID),
		zap.String("block_id", blockID.String()),
	)

	return nil
}

// ReplaceExternalBlocks полностью заменяет блоки внешнего календаря инструктора
func (s *CalendarService) ReplaceExternalBlocks(ctx context.Context, instructorID int64, events []ExternalEvent) ([]*model.BlockingInterval, error) {
	now := s.clock.Now()
	blocks := make([]*model.BlockingInterval, 0, len(events))
	for _, ev := range events {
		eventID := ev.EventID
		start, end := ev.Start, ev.End
		if ev.AllDay {
			start = model.DateOf(start)
			end = model.DateOf(end)
			if !end.After(start) {
				end = start.AddDate(0, 0, 1)
			}
		}
		block := &model.BlockingInterval{
			ID:            uuid.New(),
			InstructorID:  instructorID,
			StartDatetime: start,
			EndDatetime:   end,
			AllDay:        ev.AllDay,
			Source:        model.BlockSourceExternalCalendar,
			GoogleEventID: &eventID,
			CreatedAt:     now,
		}
		if err := block.Validate(); err != nil {
			return nil, fmt.Errorf("%w: event %s: %v", ErrInvalidDateRange, ev.EventID, err)
		}
		blocks = append(blocks, block)
	}

	if err := s.blocks.ReplaceExternal(ctx, instructorID, blocks); err != nil {
		return nil, fmt.Errorf("replace external blocks: %w", err)
	}

	s.logger.Info("External calendar blocks replaced",
		zap.Int64("instructor_id", instructorID),
		zap.Int("blocks", len(blocks)),
	)

	return blocks, nil
}
