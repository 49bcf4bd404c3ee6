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

// BlockStore интервалы занятости
type BlockStore struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*model.BlockingInterval

	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex

	// заявки для операций, меняющих интервалы и статус вместе; блокируется после mu
	bookings *BookingStore
}

// All копия всех интервалов по возрастанию начала
func (s *BlockStore) All() []*model.BlockingInterval {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.filterLocked(func(*model.BlockingInterval) bool { return true })
}

func (s *BlockStore) ListByInstructorRange(_ context.Context, instructorID int64, from, to time.Time) ([]*model.BlockingInterval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.filterLocked(func(b *model.BlockingInterval) bool {
		return b.InstructorID == instructorID && b.StartDatetime.Before(to) && b.EndDatetime.After(from)
	}), nil
}

func (s *BlockStore) ListByBooking(_ context.Context, bookingRequestID int64) ([]*model.BlockingInterval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.filterLocked(func(b *model.BlockingInterval) bool { return b.BelongsTo(bookingRequestID) }), nil
}

func (s *BlockStore) PromoteHolds(_ context.Context, bookingRequestID int64) ([]*model.BlockingInterval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.byID {
		if b.IsHold() && b.BelongsTo(bookingRequestID) {
			b.Source = model.BlockSourceBookingConfirmed
			b.ExpiresAt = nil
		}
	}
	return s.filterLocked(func(b *model.BlockingInterval) bool {
		return b.Source == model.BlockSourceBookingConfirmed && b.BelongsTo(bookingRequestID)
	}), nil
}

func (s *BlockStore) DeleteHolds(_ context.Context, bookingRequestID int64) ([]*model.BlockingInterval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := s.filterLocked(func(b *model.BlockingInterval) bool { return b.IsHold() && b.BelongsTo(bookingRequestID) })
	for _, b := range deleted {
		delete(s.byID, b.ID)
	}
	return deleted, nil
}

func (s *BlockStore) ExpiredHoldGroups(_ context.Context, now time.Time) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := map[int64]bool{}
	var ids []int64
	for _, b := range s.byID {
		if b.IsHold() && b.ExpiresAt.Before(now) && !seen[*b.BookingRequestID] {
			seen[*b.BookingRequestID] = true
			ids = append(ids, *b.BookingRequestID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *BlockStore) ExpireGroup(_ context.Context, bookingRequestID int64, now time.Time) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings.mu.Lock()
	defer s.bookings.mu.Unlock()

	if err := s.bookings.FailExpire[bookingRequestID]; err != nil {
		return 0, false, err
	}

	var n int64
	for id, b := range s.byID {
		if b.IsHold() && b.BelongsTo(bookingRequestID) && b.ExpiresAt.Before(now) {
			delete(s.byID, id)
			n++
		}
	}

	req, ok := s.bookings.byID[bookingRequestID]
	if !ok || req.Status != model.BookingStatusPending {
		return n, false, nil
	}
	updated := time.Now()
	req.Status = model.BookingStatusExpired
	req.UpdatedAt = &updated
	return n, true, nil
}

func (s *BlockStore) AcceptGroup(_ context.Context, bookingRequestID int64) ([]*model.BlockingInterval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings.mu.Lock()
	defer s.bookings.mu.Unlock()

	if err := s.bookings.FailAccept[bookingRequestID]; err != nil {
		return nil, err
	}

	req, ok := s.bookings.byID[bookingRequestID]
	if !ok || !req.IsAwaitingDecision() {
		return nil, service.ErrBookingNotPending
	}

	holds := s.filterLocked(func(b *model.BlockingInterval) bool { return b.IsHold() && b.BelongsTo(bookingRequestID) })
	if len(holds) == 0 {
		return nil, service.ErrNoHolds
	}

	for _, h := range holds {
		b := s.byID[h.ID]
		b.Source = model.BlockSourceBookingConfirmed
		b.ExpiresAt = nil
		h.Source = model.BlockSourceBookingConfirmed
		h.ExpiresAt = nil
	}
	updated := time.Now()
	req.Status = model.BookingStatusAccepted
	req.UpdatedAt = &updated

	return holds, nil
}

func (s *BlockStore) Create(_ context.Context, block *model.BlockingInterval) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insertLocked([]*model.BlockingInterval{block})
}

func (s *BlockStore) DeleteManual(_ context.Context, instructorID int64, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.byID[id]
	if !ok || b.InstructorID != instructorID || b.Source != model.BlockSourceManual {
		return false, nil
	}
	delete(s.byID, id)
	return true, nil
}

func (s *BlockStore) ReplaceExternal(_ context.Context, instructorID int64, blocks []*model.BlockingInterval) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range blocks {
		if _, ok := s.byID[b.ID]; ok {
			return fmt.Errorf("insert block: duplicate id %s", b.ID)
		}
	}
	for id, b := range s.byID {
		if b.InstructorID == instructorID && b.Source == model.BlockSourceExternalCalendar {
			delete(s.byID, id)
		}
	}
	return s.insertLocked(blocks)
}

func (s *BlockStore) Reserve(ctx context.Context, instructorID int64, fn func(ctx context.Context, tx service.ReservationTx) error) error {
	lock := s.instructorLock(instructorID)
	lock.Lock()
	defer lock.Unlock()

	tx := &reservationTx{store: s, releases: map[int64]bool{}}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	released := make(map[uuid.UUID]*model.BlockingInterval)
	for id, b := range s.byID {
		if b.IsHold() && b.BookingRequestID != nil && tx.releases[*b.BookingRequestID] {
			released[id] = b
			delete(s.byID, id)
		}
	}
	if err := s.insertLocked(tx.inserts); err != nil {
		for id, b := range released {
			s.byID[id] = b
		}
		return err
	}
	return nil
}

func (s *BlockStore) instructorLock(instructorID int64) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	lock, ok := s.locks[instructorID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[instructorID] = lock
	}
	return lock
}

func (s *BlockStore) insertLocked(blocks []*model.BlockingInterval) error {
	for _, b := range blocks {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("insert block: %w", err)
		}
		if _, ok := s.byID[b.ID]; ok {
			return fmt.Errorf("insert block: duplicate id %s", b.ID)
		}
	}
	for _, b := range blocks {
		s.byID[b.ID] = copyBlock(b)
	}
	return nil
}

func (s *BlockStore) filterLocked(keep func(*model.BlockingInterval) bool) []*model.BlockingInterval {
	var out []*model.BlockingInterval
	for _, b := range s.byID {
		if keep(b) {
			out = append(out, copyBlock(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartDatetime.Equal(out[j].StartDatetime) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].StartDatetime.Before(out[j].StartDatetime)
	})
	return out
}

// reservationTx копит изменения и применяет их только при успехе fn
type reservationTx struct {
	store    *BlockStore
	releases map[int64]bool
	inserts  []*model.BlockingInterval
}

func (t *reservationTx) DeleteHolds(_ context.Context, bookingRequestID int64) (int64, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	t.releases[bookingRequestID] = true
	var n int64
	for _, b := range t.store.byID {
		if b.IsHold() && b.BelongsTo(bookingRequestID) {
			n++
		}
	}
	return n, nil
}

func (t *reservationTx) LockRange(_ context.Context, instructorID, excludeBookingID int64, from, to time.Time) ([]*model.BlockingInterval, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	return t.store.filterLocked(func(b *model.BlockingInterval) bool {
		return b.InstructorID == instructorID &&
			!b.BelongsTo(excludeBookingID) &&
			b.StartDatetime.Before(to) && b.EndDatetime.After(from)
	}), nil
}

func (t *reservationTx) InsertHolds(_ context.Context, blocks []*model.BlockingInterval) error {
	t.inserts = append(t.inserts, blocks...)
	return nil
}

func copyBlock(b *model.BlockingInterval) *model.BlockingInterval {
	cp := *b
	if b.BookingRequestID != nil {
		id := *b.BookingRequestID
		cp.BookingRequestID = &id
	}
	if b.GoogleEventID != nil {
		ev := *b.GoogleEventID
		cp.GoogleEventID = &ev
	}
	if b.ExpiresAt != nil {
		exp := *b.ExpiresAt
		cp.ExpiresAt = &exp
	}
	return &cp
}
