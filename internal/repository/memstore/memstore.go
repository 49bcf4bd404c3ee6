// Package memstore хранилища в памяти для тестов и локального запуска без Postgres.
// Резервирование сериализуется мьютексом инструктора, как advisory lock в Postgres.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/service"
	"github.com/google/uuid"
)

// Store набор связанных хранилищ с общим состоянием
type Store struct {
	Users        *UserStore
	WorkingHours *WorkingHourStore
	Bookings     *BookingStore
	Blocks       *BlockStore
}

func New() *Store {
	bookings := &BookingStore{byID: map[int64]*model.BookingRequest{}}
	return &Store{
		Users:        &UserStore{byID: map[int64]*model.User{}},
		WorkingHours: &WorkingHourStore{},
		Bookings:     bookings,
		Blocks: &BlockStore{
			byID:     map[uuid.UUID]*model.BlockingInterval{},
			locks:    map[int64]*sync.Mutex{},
			bookings: bookings,
		},
	}
}

var (
	_ service.UserStore        = (*UserStore)(nil)
	_ service.WorkingHourStore = (*WorkingHourStore)(nil)
	_ service.BookingStore     = (*BookingStore)(nil)
	_ service.BlockStore       = (*BlockStore)(nil)
)

// UserStore пользователи
type UserStore struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*model.User
}

func (s *UserStore) Create(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.TelegramID != nil {
		for _, u := range s.byID {
			if u.TelegramID != nil && *u.TelegramID == *user.TelegramID {
				return fmt.Errorf("create user: telegram id %d already registered", *user.TelegramID)
			}
		}
	}

	s.nextID++
	user.ID = s.nextID
	user.CreatedAt = time.Now()
	cp := *user
	s.byID[user.ID] = &cp
	return nil
}

func (s *UserStore) GetByID(_ context.Context, id int64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *UserStore) GetByTelegramID(_ context.Context, telegramID int64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.byID {
		if u.TelegramID != nil && *u.TelegramID == telegramID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *UserStore) Update(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[user.ID]; !ok {
		return fmt.Errorf("update user: user %d not found", user.ID)
	}
	cp := *user
	s.byID[user.ID] = &cp
	return nil
}

// WorkingHourStore правила рабочих часов
type WorkingHourStore struct {
	mu     sync.Mutex
	nextID int64
	rules  []*model.WorkingHourRule
}

func (s *WorkingHourStore) ListActiveByInstructor(_ context.Context, instructorID int64) ([]*model.WorkingHourRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*model.WorkingHourRule
	for _, r := range s.rules {
		if r.InstructorID == instructorID && r.IsActive {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DayOfWeek < out[j].DayOfWeek })
	return out, nil
}

func (s *WorkingHourStore) Upsert(_ context.Context, rule *model.WorkingHourRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.deactivateLocked(rule.InstructorID, rule.DayOfWeek, now)

	s.nextID++
	rule.ID = s.nextID
	rule.IsActive = true
	rule.CreatedAt = now
	cp := *rule
	s.rules = append(s.rules, &cp)
	return nil
}

func (s *WorkingHourStore) Deactivate(_ context.Context, instructorID int64, dayOfWeek int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deactivateLocked(instructorID, dayOfWeek, time.Now()), nil
}

func (s *WorkingHourStore) deactivateLocked(instructorID int64, dayOfWeek int, now time.Time) bool {
	found := false
	for _, r := range s.rules {
		if r.InstructorID == instructorID && r.DayOfWeek == dayOfWeek && r.IsActive {
			r.IsActive = false
			r.UpdatedAt = &now
			found = true
		}
	}
	return found
}

// BookingStore заявки
type BookingStore struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*model.BookingRequest

	// FailExpire и FailAccept имитируют отказ хранилища на смене статуса заявки
	FailExpire map[int64]error
	FailAccept map[int64]error
}

func (s *BookingStore) Create(_ context.Context, req *model.BookingRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	req.ID = s.nextID
	req.CreatedAt = time.Now()
	s.byID[req.ID] = copyBooking(req)
	return nil
}

func (s *BookingStore) GetByID(_ context.Context, id int64) (*model.BookingRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	return copyBooking(req), nil
}

func (s *BookingStore) UpdateStatus(_ context.Context, id int64, status model.BookingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("update booking status: booking request %d not found", id)
	}
	now := time.Now()
	req.Status = status
	req.UpdatedAt = &now
	return nil
}

func (s *BookingStore) ListPendingByInstructor(_ context.Context, instructorID int64) ([]*model.BookingRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*model.BookingRequest
	for _, req := range s.byID {
		if req.InstructorID == instructorID && req.IsAwaitingDecision() {
			out = append(out, copyBooking(req))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func copyBooking(req *model.BookingRequest) *model.BookingRequest {
	cp := *req
	cp.TimeSlots = append([]string(nil), req.TimeSlots...)
	return &cp
}
