package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"go.uber.org/zap"
)

// BookingInput параметры новой заявки от клиента
type BookingInput struct {
	InstructorID int64
	ClientID     int64
	StartDate    time.Time
	EndDate      time.Time
	HoursPerDay  int
	TimeSlots    []string
}

// BookingService жизненный цикл заявки поверх ядра удержаний
type BookingService struct {
	bookings    BookingStore
	reservation *ReservationService
	holds       *HoldService
	clock       Clock
	notifier    Notifier
	logger      *zap.Logger
}

func NewBookingService(
	bookings BookingStore,
	reservation *ReservationService,
	holds *HoldService,
	clock Clock,
	notifier Notifier,
	logger *zap.Logger,
) *BookingService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &BookingService{
		bookings:    bookings,
		reservation: reservation,
		holds:       holds,
		clock:       clock,
		notifier:    notifier,
		logger:      logger,
	}
}

// GetBooking возвращает заявку или ErrBookingNotFound
func (s *BookingService) GetBooking(ctx context.Context, bookingID int64) (*model.BookingRequest, error) {
	req, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking request: %w", err)
	}
	if req == nil {
		return nil, ErrBookingNotFound
	}
	return req, nil
}

// CreateBookingRequest создаёт заявку и сразу удерживает её слоты.
// При конфликте заявка переводится в expired, клиент должен выбрать другое время.
func (s *BookingService) CreateBookingRequest(ctx context.Context, in BookingInput) (*model.BookingRequest, *TentativeHold, error) {
	start, end := model.DateOf(in.StartDate), model.DateOf(in.EndDate)
	if end.Before(start) {
		return nil, nil, fmt.Errorf("%w: end before start", ErrInvalidDateRange)
	}
	if start.Before(model.DateOf(s.clock.Now())) {
		return nil, nil, fmt.Errorf("%w: start date in the past", ErrInvalidDateRange)
	}
	if len(in.TimeSlots) == 0 && in.HoursPerDay <= 0 {
		return nil, nil, ErrNothingToReserve
	}

	req := &model.BookingRequest{
		InstructorID: in.InstructorID,
		ClientID:     in.ClientID,
		StartDate:    start,
		EndDate:      end,
		HoursPerDay:  in.HoursPerDay,
		TimeSlots:    in.TimeSlots,
		Status:       model.BookingStatusPending,
	}

	if err := s.bookings.Create(ctx, req); err != nil {
		return nil, nil, fmt.Errorf("create booking request: %w", err)
	}

	hold, err := s.reservation.CreateTentativeBlock(ctx, req.ID, nil)
	if err != nil {
		if errors.Is(err, ErrSlotsUnavailable) {
			if uerr := s.bookings.UpdateStatus(ctx, req.ID, model.BookingStatusExpired); uerr != nil {
				s.logger.Error("Failed to expire conflicting booking request",
					zap.Int64("booking_request_id", req.ID),
					zap.Error(uerr),
				)
			} else {
				req.Status = model.BookingStatusExpired
			}
		}
		return req, nil, err
	}

	s.logger.Info("Booking request created",
		zap.Int64("booking_request_id", req.ID),
		zap.Int64("instructor_id", req.InstructorID),
		zap.Int64("client_id", req.ClientID),
		zap.Int("holds", len(hold.Blocks)),
	)

	s.notifier.BookingRequested(ctx, req, hold.ExpiresAt)

	return req, hold, nil
}

// ListPending заявки инструктора, ожидающие решения
func (s *BookingService) ListPending(ctx context.Context, instructorID int64) ([]*model.BookingRequest, error) {
	return s.bookings.ListPendingByInstructor(ctx, instructorID)
}

// MarkViewed отмечает что инструктор открыл заявку
func (s *BookingService) MarkViewed(ctx context.Context, bookingID, instructorID int64) error {
	req, err := s.instructorBooking(ctx, bookingID, instructorID)
	if err != nil {
		return err
	}
	if req.Status != model.BookingStatusPending {
		return nil
	}
	if err := s.bookings.UpdateStatus(ctx, req.ID, model.BookingStatusViewed); err != nil {
		return fmt.Errorf("mark viewed: %w", err)
	}
	return nil
}

// AcceptBooking принимает заявку: проверка, продвижение удержаний, смена статуса
func (s *BookingService) AcceptBooking(ctx context.Context, bookingID, instructorID int64) (*model.BookingRequest, error) {
	req, err := s.instructorBooking(ctx, bookingID, instructorID)
	if err != nil {
		return nil, err
	}

	check, err := s.holds.CanAcceptBooking(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if !check.CanAccept {
		if !req.IsAwaitingDecision() {
			return nil, fmt.Errorf("%w: %s", ErrBookingNotPending, check.Reason)
		}
		return nil, fmt.Errorf("%w: %s", ErrSlotsUnavailable, check.Reason)
	}

	_, err = s.holds.acceptGroup(ctx, req.ID)
	if errors.Is(err, ErrNoHolds) {
		// удержаний нет: либо истекли, либо не создавались
		if _, err := s.reservation.CreateTentativeBlock(ctx, req.ID, nil); err != nil {
			return nil, err
		}
		_, err = s.holds.acceptGroup(ctx, req.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("accept booking request: %w", err)
	}
	req.Status = model.BookingStatusAccepted

	s.logger.Info("Booking accepted",
		zap.Int64("booking_request_id", req.ID),
		zap.Int64("instructor_id", instructorID),
	)

	s.notifier.BookingAccepted(ctx, req)

	return req, nil
}

// RejectBooking отклоняет заявку и освобождает её слоты
func (s *BookingService) RejectBooking(ctx context.Context, bookingID, instructorID int64) (*model.BookingRequest, error) {
	req, err := s.instructorBooking(ctx, bookingID, instructorID)
	if err != nil {
		return nil, err
	}
	if !req.IsAwaitingDecision() {
		return nil, fmt.Errorf("%w: status %s", ErrBookingNotPending, req.Status)
	}

	if err := s.bookings.UpdateStatus(ctx, req.ID, model.BookingStatusRejected); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	req.Status = model.BookingStatusRejected

	// оставшиеся удержания снимет очистка по истечении срока
	if _, err := s.holds.ReleaseTentativeBlocks(ctx, req.ID); err != nil {
		return nil, err
	}

	s.logger.Info("Booking rejected",
		zap.Int64("booking_request_id", req.ID),
		zap.Int64("instructor_id", instructorID),
	)

	s.notifier.BookingRejected(ctx, req)

	return req, nil
}

// CancelBooking отзыв заявки клиентом до решения инструктора
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, clientID int64) (*model.BookingRequest, error) {
	req, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if req.ClientID != clientID {
		return nil, ErrNotBookingOwner
	}
	if !req.IsAwaitingDecision() {
		return nil, fmt.Errorf("%w: status %s", ErrBookingNotPending, req.Status)
	}

	if err := s.bookings.UpdateStatus(ctx, req.ID, model.BookingStatusCancelled); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	req.Status = model.BookingStatusCancelled

	// оставшиеся удержания снимет очистка по истечении срока
	if _, err := s.holds.ReleaseTentativeBlocks(ctx, req.ID); err != nil {
		return nil, err
	}

	s.logger.Info("Booking cancelled",
		zap.Int64("booking_request_id", req.ID),
		zap.Int64("client_id", clientID),
	)

	return req, nil
}

func (s *BookingService) instructorBooking(ctx context.Context, bookingID, instructorID int64) (*model.BookingRequest, error) {
	req, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if req.InstructorID != instructorID {
		return nil, ErrNotBookingOwner
	}
	return req, nil
}
