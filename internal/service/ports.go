package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/google/uuid"
)

// WorkingHourStore хранилище рабочих часов
type WorkingHourStore interface {
	ListActiveByInstructor(ctx context.Context, instructorID int64) ([]*model.WorkingHourRule, error)
	Upsert(ctx context.Context, rule *model.WorkingHourRule) error
	Deactivate(ctx context.Context, instructorID int64, dayOfWeek int) (bool, error)
}

// BookingStore хранилище заявок. GetByID возвращает nil, nil если заявки нет.
type BookingStore interface {
	Create(ctx context.Context, req *model.BookingRequest) error
	GetByID(ctx context.Context, id int64) (*model.BookingRequest, error)
	UpdateStatus(ctx context.Context, id int64, status model.BookingStatus) error
	ListPendingByInstructor(ctx context.Context, instructorID int64) ([]*model.BookingRequest, error)
}

// BlockStore хранилище интервалов занятости
type BlockStore interface {
	ListByInstructorRange(ctx context.Context, instructorID int64, from, to time.Time) ([]*model.BlockingInterval, error)
	ListByBooking(ctx context.Context, bookingRequestID int64) ([]*model.BlockingInterval, error)
	PromoteHolds(ctx context.Context, bookingRequestID int64) ([]*model.BlockingInterval, error)
	DeleteHolds(ctx context.Context, bookingRequestID int64) ([]*model.BlockingInterval, error)
	ExpiredHoldGroups(ctx context.Context, now time.Time) ([]int64, error)
	// ExpireGroup одной транзакцией удаляет просроченные удержания заявки и переводит
	// её из pending в expired. При ошибке не меняется ничего.
	ExpireGroup(ctx context.Context, bookingRequestID int64, now time.Time) (deleted int64, expired bool, err error)
	// AcceptGroup одной транзакцией продвигает удержания заявки и переводит её в accepted.
	// ErrBookingNotPending если заявка уже решена, ErrNoHolds если продвигать нечего.
	AcceptGroup(ctx context.Context, bookingRequestID int64) ([]*model.BlockingInterval, error)
	Create(ctx context.Context, block *model.BlockingInterval) error
	DeleteManual(ctx context.Context, instructorID int64, id uuid.UUID) (bool, error)
	ReplaceExternal(ctx context.Context, instructorID int64, blocks []*model.BlockingInterval) error

	// Reserve выполняет fn в одной транзакции, сериализованной по инструктору.
	// Ошибка из fn откатывает всё, что было сделано через tx.
	Reserve(ctx context.Context, instructorID int64, fn func(ctx context.Context, tx ReservationTx) error) error
}

// ReservationTx операции внутри транзакции резервирования
type ReservationTx interface {
	DeleteHolds(ctx context.Context, bookingRequestID int64) (int64, error)
	// LockRange возвращает интервалы инструктора, задевающие [from, to), кроме строк
	// указанной заявки, и блокирует их до конца транзакции
	LockRange(ctx context.Context, instructorID, excludeBookingID int64, from, to time.Time) ([]*model.BlockingInterval, error)
	InsertHolds(ctx context.Context, blocks []*model.BlockingInterval) error
}

// UserStore хранилище пользователей. Get* возвращают nil, nil если пользователя нет.
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
}

// Notifier уведомления участникам. Ошибки доставки не влияют на бронирование.
type Notifier interface {
	BookingRequested(ctx context.Context, req *model.BookingRequest, expiresAt time.Time)
	BookingAccepted(ctx context.Context, req *model.BookingRequest)
	BookingRejected(ctx context.Context, req *model.BookingRequest)
	HoldExpired(ctx context.Context, req *model.BookingRequest)
}

// NopNotifier ничего не отправляет
type NopNotifier struct{}

func (NopNotifier) BookingRequested(context.Context, *model.BookingRequest, time.Time) {}
func (NopNotifier) BookingAccepted(context.Context, *model.BookingRequest)             {}
func (NopNotifier) BookingRejected(context.Context, *model.BookingRequest)             {}
func (NopNotifier) HoldExpired(context.Context, *model.BookingRequest)                 {}
