package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository/memstore"
	"github.com/Freeeeeet/lesson_booking/internal/service"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// monday 2025-01-06
var monday = time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingNotifier struct {
	mu        sync.Mutex
	requested []int64
	accepted  []int64
	rejected  []int64
	expired   []int64
}

func (n *recordingNotifier) BookingRequested(_ context.Context, req *model.BookingRequest, _ time.Time) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.requested = append(n.requested, req.ID)
}

func (n *recordingNotifier) BookingAccepted(_ context.Context, req *model.BookingRequest) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.accepted = append(n.accepted, req.ID)
}

func (n *recordingNotifier) BookingRejected(_ context.Context, req *model.BookingRequest) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rejected = append(n.rejected, req.ID)
}

func (n *recordingNotifier) HoldExpired(_ context.Context, req *model.BookingRequest) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.expired = append(n.expired, req.ID)
}

type testEnv struct {
	store    *memstore.Store
	clock    *fakeClock
	notifier *recordingNotifier

	availability *service.AvailabilityService
	reservation  *service.ReservationService
	holds        *service.HoldService
	bookings     *service.BookingService
	hours        *service.WorkingHoursService
	calendar     *service.CalendarService

	instructor int64
	clientA    int64
	clientB    int64
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memstore.New()
	clock := &fakeClock{now: time.Date(2025, time.January, 1, 10, 0, 0, 0, time.UTC)}
	notifier := &recordingNotifier{}
	logger := zap.NewNop()
	policy := service.DefaultHoldPolicy()

	reservation := service.NewReservationService(store.Bookings, store.Blocks, clock, policy, logger)
	holds := service.NewHoldService(store.Bookings, store.Blocks, clock, policy, notifier, logger)

	env := &testEnv{
		store:        store,
		clock:        clock,
		notifier:     notifier,
		availability: service.NewAvailabilityService(store.WorkingHours, store.Blocks, logger),
		reservation:  reservation,
		holds:        holds,
		bookings:     service.NewBookingService(store.Bookings, reservation, holds, clock, notifier, logger),
		hours:        service.NewWorkingHoursService(store.WorkingHours, logger),
		calendar:     service.NewCalendarService(store.Blocks, clock, logger),
	}

	ctx := context.Background()
	for _, u := range []*model.User{
		{Username: "instructor", IsInstructor: true},
		{Username: "client_a"},
		{Username: "client_b"},
	} {
		require.NoError(t, store.Users.Create(ctx, u))
	}
	env.instructor, env.clientA, env.clientB = 1, 2, 3

	return env
}

// setHours задаёт рабочие часы инструктора на день недели
func (e *testEnv) setHours(t *testing.T, day time.Weekday, start, end string) {
	t.Helper()
	s, err := model.ParseTimeOfDay(start)
	require.NoError(t, err)
	en, err := model.ParseTimeOfDay(end)
	require.NoError(t, err)
	require.NoError(t, e.hours.SetRule(context.Background(), &model.WorkingHourRule{
		InstructorID: e.instructor,
		DayOfWeek:    int(day),
		StartTime:    s,
		EndTime:      en,
	}))
}

// newRequest создаёт заявку на один день без удержаний
func (e *testEnv) newRequest(t *testing.T, clientID int64, day time.Time, slots ...string) *model.BookingRequest {
	t.Helper()
	req := &model.BookingRequest{
		InstructorID: e.instructor,
		ClientID:     clientID,
		StartDate:    day,
		EndDate:      day,
		TimeSlots:    slots,
		Status:       model.BookingStatusPending,
	}
	require.NoError(t, e.store.Bookings.Create(context.Background(), req))
	return req
}

func (e *testEnv) status(t *testing.T, bookingID int64) model.BookingStatus {
	t.Helper()
	req, err := e.store.Bookings.GetByID(context.Background(), bookingID)
	require.NoError(t, err)
	require.NotNil(t, req)
	return req.Status
}

func at(day time.Time, hour, minute int) time.Time {
	return model.NewTimeOfDay(hour, minute).On(day)
}

func slotStatuses(day model.DayAvailability) map[string]model.SlotStatus {
	out := make(map[string]model.SlotStatus, len(day.Slots))
	for _, s := range day.Slots {
		out[s.StartTime.String()] = s.Status
	}
	return out
}
