package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/availability"
	"github.com/Freeeeeet/lesson_booking/internal/model"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// SweepResult итог очистки просроченных удержаний
type SweepResult struct {
	BlocksDeleted   int64
	BookingsExpired int
	Message         string
	Err             error // ошибки по отдельным заявкам, остальные заявки обработаны
}

// AcceptCheck ответ на вопрос можно ли принять заявку
type AcceptCheck struct {
	CanAccept bool
	Reason    string
}

type HoldService struct {
	bookings BookingStore
	blocks   BlockStore
	clock    Clock
	policy   HoldPolicy
	notifier Notifier
	logger   *zap.Logger
}

func NewHoldService(bookings BookingStore, blocks BlockStore, clock Clock, policy HoldPolicy, notifier Notifier, logger *zap.Logger) *HoldService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &HoldService{
		bookings: bookings,
		blocks:   blocks,
		clock:    clock,
		policy:   policy,
		notifier: notifier,
		logger:   logger,
	}
}

// ConfirmBooking переводит удержания заявки в подтверждённые без повторной проверки пересечений
func (s *HoldService) ConfirmBooking(ctx context.Context, bookingRequestID int64) ([]*model.BlockingInterval, error) {
	promoted, err := s.blocks.PromoteHolds(ctx, bookingRequestID)
	if err != nil {
		return nil, fmt.Errorf("promote holds: %w", err)
	}

	s.logger.Info("Holds promoted",
		zap.Int64("booking_request_id", bookingRequestID),
		zap.Int("blocks", len(promoted)),
	)

	return promoted, nil
}

// Blocks все интервалы заявки: удержания и подтверждённые
func (s *HoldService) Blocks(ctx context.Context, bookingRequestID int64) ([]*model.BlockingInterval, error) {
	blocks, err := s.blocks.ListByBooking(ctx, bookingRequestID)
	if err != nil {
		return nil, fmt.Errorf("list booking blocks: %w", err)
	}
	return blocks, nil
}

// ReleaseTentativeBlocks удаляет удержания заявки
func (s *HoldService) ReleaseTentativeBlocks(ctx context.Context, bookingRequestID int64) ([]*model.BlockingInterval, error) {
	deleted, err := s.blocks.DeleteHolds(ctx, bookingRequestID)
	if err != nil {
		return nil, fmt.Errorf("delete holds: %w", err)
	}

	s.logger.Info("Holds released",
		zap.Int64("booking_request_id", bookingRequestID),
		zap.Int("blocks", len(deleted)),
	)

	return deleted, nil
}

// CleanupExpiredBlocks удаляет просроченные удержания и переводит их заявки в expired.
// Каждая заявка обрабатывается отдельно, ошибка одной не мешает остальным.
func (s *HoldService) CleanupExpiredBlocks(ctx context.Context) (*SweepResult, error) {
	now := s.clock.Now()

	groups, err := s.blocks.ExpiredHoldGroups(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("list expired holds: %w", err)
	}

	result := &SweepResult{}
	for _, bookingID := range groups {
		deleted, expired, err := s.expireGroup(ctx, bookingID, now)
		result.BlocksDeleted += deleted
		if expired {
			result.BookingsExpired++
		}
		if err != nil {
			s.logger.Error("Failed to expire holds",
				zap.Int64("booking_request_id", bookingID),
				zap.Error(err),
			)
			result.Err = multierr.Append(result.Err, fmt.Errorf("booking %d: %w", bookingID, err))
		}
	}

	result.Message = fmt.Sprintf("deleted %d expired holds, expired %d booking requests", result.BlocksDeleted, result.BookingsExpired)
	if n := len(multierr.Errors(result.Err)); n > 0 {
		result.Message += fmt.Sprintf(", %d failed", n)
	}

	s.logger.Info("Expired holds swept",
		zap.Int("groups", len(groups)),
		zap.Int64("blocks_deleted", result.BlocksDeleted),
		zap.Int("bookings_expired", result.BookingsExpired),
		zap.Int("errors", len(multierr.Errors(result.Err))),
	)

	return result, nil
}

func (s *HoldService) expireGroup(ctx context.Context, bookingID int64, now time.Time) (int64, bool, error) {
	deleted, expired, err := s.blocks.ExpireGroup(ctx, bookingID, now)
	if err != nil {
		return 0, false, fmt.Errorf("expire hold group: %w", err)
	}

	if expired {
		req, err := s.bookings.GetByID(ctx, bookingID)
		if err == nil && req != nil {
			s.notifier.HoldExpired(ctx, req)
		}
	}

	return deleted, expired, nil
}

// acceptGroup продвигает удержания и принимает заявку одной транзакцией
func (s *HoldService) acceptGroup(ctx context.Context, bookingRequestID int64) ([]*model.BlockingInterval, error) {
	promoted, err := s.blocks.AcceptGroup(ctx, bookingRequestID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Holds promoted",
		zap.Int64("booking_request_id", bookingRequestID),
		zap.Int("blocks", len(promoted)),
	)

	return promoted, nil
}

// CanAcceptBooking проверяет, что интервалы заявки не пересекаются с чужими подтверждёнными бронированиями
func (s *HoldService) CanAcceptBooking(ctx context.Context, bookingRequestID int64) (AcceptCheck, error) {
	req, err := s.bookings.GetByID(ctx, bookingRequestID)
	if err != nil {
		return AcceptCheck{}, fmt.Errorf("get booking request: %w", err)
	}
	if req == nil {
		return AcceptCheck{}, ErrBookingNotFound
	}

	if !req.IsAwaitingDecision() {
		return AcceptCheck{Reason: fmt.Sprintf("booking request is %s", req.Status)}, nil
	}

	own, err := s.blocks.ListByBooking(ctx, req.ID)
	if err != nil {
		return AcceptCheck{}, fmt.Errorf("list booking blocks: %w", err)
	}

	var wanted []availability.Interval
	for _, b := range own {
		if b.IsHold() {
			wanted = append(wanted, availability.Of(b))
		}
	}
	if len(wanted) == 0 {
		wanted, err = s.policy.candidateIntervals(req, nil)
		if err != nil {
			return AcceptCheck{Reason: err.Error()}, nil
		}
	}

	window := span(wanted)
	existing, err := s.blocks.ListByInstructorRange(ctx, req.InstructorID, window.Start, window.End)
	if err != nil {
		return AcceptCheck{}, fmt.Errorf("list instructor blocks: %w", err)
	}

	var confirmed []*model.BlockingInterval
	for _, b := range existing {
		if b.Source == model.BlockSourceBookingConfirmed && !b.BelongsTo(req.ID) {
			confirmed = append(confirmed, b)
		}
	}

	for _, iv := range wanted {
		if c := availability.FirstConflict(iv, confirmed); c != nil {
			return AcceptCheck{
				Reason: fmt.Sprintf("instructor already has a confirmed booking on %s %s-%s",
					c.StartDatetime.Format(time.DateOnly),
					model.TimeOfDayOf(c.StartDatetime),
					model.TimeOfDayOf(c.EndDatetime)),
			}, nil
		}
	}

	return AcceptCheck{CanAccept: true}, nil
}
