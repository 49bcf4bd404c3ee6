package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/availability"
	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TentativeHold результат успешного резервирования
type TentativeHold struct {
	Blocks    []*model.BlockingInterval
	ExpiresAt time.Time
}

type ReservationService struct {
	bookings BookingStore
	blocks   BlockStore
	clock    Clock
	policy   HoldPolicy
	logger   *zap.Logger
}

func NewReservationService(bookings BookingStore, blocks BlockStore, clock Clock, policy HoldPolicy, logger *zap.Logger) *ReservationService {
	return &ReservationService{
		bookings: bookings,
		blocks:   blocks,
		clock:    clock,
		policy:   policy,
		logger:   logger,
	}
}

// CreateTentativeBlock атомарно удерживает все слоты заявки или не удерживает ни одного.
// Повторный вызов для той же заявки заменяет её прежние удержания.
// Решённая заявка удержаний не получает.
func (s *ReservationService) CreateTentativeBlock(ctx context.Context, bookingRequestID int64, timeSlots []string) (*TentativeHold, error) {
	req, err := s.bookings.GetByID(ctx, bookingRequestID)
	if err != nil {
		return nil, fmt.Errorf("get booking request: %w", err)
	}
	if req == nil {
		return nil, ErrBookingNotFound
	}
	if !req.IsAwaitingDecision() {
		return nil, fmt.Errorf("%w: status %s", ErrBookingNotPending, req.Status)
	}

	candidates, err := s.policy.candidateIntervals(req, timeSlots)
	if err != nil {
		return nil, err
	}
	window := span(candidates)

	now := s.clock.Now()
	expiresAt := now.Add(s.policy.TTL)

	holds := make([]*model.BlockingInterval, 0, len(candidates))
	for _, c := range candidates {
		holds = append(holds, &model.BlockingInterval{
			ID:               uuid.New(),
			InstructorID:     req.InstructorID,
			StartDatetime:    c.Start,
			EndDatetime:      c.End,
			Source:           model.BlockSourceHoldPending,
			BookingRequestID: &req.ID,
			ExpiresAt:        &expiresAt,
			CreatedAt:        now,
		})
	}

	var replaced int64
	err = s.blocks.Reserve(ctx, req.InstructorID, func(ctx context.Context, tx ReservationTx) error {
		replaced, err = tx.DeleteHolds(ctx, req.ID)
		if err != nil {
			return fmt.Errorf("delete previous holds: %w", err)
		}

		locked, err := tx.LockRange(ctx, req.InstructorID, req.ID, window.Start, window.End)
		if err != nil {
			return fmt.Errorf("lock instructor blocks: %w", err)
		}

		var conflicts []*model.BlockingInterval
		for _, c := range candidates {
			conflicts = append(conflicts, availability.FindConflicts(c, locked)...)
		}
		if len(conflicts) > 0 {
			return &ConflictError{BookingRequestID: req.ID, Conflicts: dedupe(conflicts)}
		}

		if err := tx.InsertHolds(ctx, holds); err != nil {
			return fmt.Errorf("insert holds: %w", err)
		}
		return nil
	})
	if err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			s.logger.Info("Tentative block rejected",
				zap.Int64("booking_request_id", req.ID),
				zap.Int64("instructor_id", req.InstructorID),
				zap.Int("conflicts", len(conflict.Conflicts)),
			)
		}
		return nil, err
	}

	s.logger.Info("Tentative block created",
		zap.Int64("booking_request_id", req.ID),
		zap.Int64("instructor_id", req.InstructorID),
		zap.Int("holds", len(holds)),
		zap.Int64("replaced", replaced),
		zap.Time("expires_at", expiresAt),
	)

	return &TentativeHold{Blocks: holds, ExpiresAt: expiresAt}, nil
}

func dedupe(blocks []*model.BlockingInterval) []*model.BlockingInterval {
	seen := make(map[uuid.UUID]bool, len(blocks))
	out := blocks[:0]
	for _, b := range blocks {
		if seen[b.ID] {
			continue
		}
		seen[b.ID] = true
		out = append(out, b)
	}
	return out
}
