package memstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository/memstore"
	"github.com/Freeeeeet/lesson_booking/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)

func hold(bookingID int64, startHour int) *model.BlockingInterval {
	expires := day.Add(-time.Hour)
	return &model.BlockingInterval{
		ID:               uuid.New(),
		InstructorID:     1,
		StartDatetime:    day.Add(time.Duration(startHour) * time.Hour),
		EndDatetime:      day.Add(time.Duration(startHour+1) * time.Hour),
		Source:           model.BlockSourceHoldPending,
		BookingRequestID: &bookingID,
		ExpiresAt:        &expires,
	}
}

func TestReserveAppliesOnlyOnSuccess(t *testing.T) {
	ctx := context.Background()
	store := memstore.New().Blocks
	require.NoError(t, store.Create(ctx, hold(7, 9)))

	errStop := errors.New("stop")
	err := store.Reserve(ctx, 1, func(ctx context.Context, tx service.ReservationTx) error {
		n, err := tx.DeleteHolds(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		require.NoError(t, tx.InsertHolds(ctx, []*model.BlockingInterval{hold(7, 10)}))
		return errStop
	})
	require.ErrorIs(t, err, errStop)

	all := store.All()
	require.Len(t, all, 1)
	assert.Equal(t, 9, all[0].StartDatetime.Hour())

	err = store.Reserve(ctx, 1, func(ctx context.Context, tx service.ReservationTx) error {
		if _, err := tx.DeleteHolds(ctx, 7); err != nil {
			return err
		}
		return tx.InsertHolds(ctx, []*model.BlockingInterval{hold(7, 10)})
	})
	require.NoError(t, err)

	all = store.All()
	require.Len(t, all, 1)
	assert.Equal(t, 10, all[0].StartDatetime.Hour())
}

func TestReserveRestoresReleasedHoldsOnInvalidInsert(t *testing.T) {
	ctx := context.Background()
	store := memstore.New().Blocks
	require.NoError(t, store.Create(ctx, hold(7, 9)))

	broken := hold(7, 10)
	broken.ExpiresAt = nil

	err := store.Reserve(ctx, 1, func(ctx context.Context, tx service.ReservationTx) error {
		if _, err := tx.DeleteHolds(ctx, 7); err != nil {
			return err
		}
		return tx.InsertHolds(ctx, []*model.BlockingInterval{broken})
	})
	require.Error(t, err)

	all := store.All()
	require.Len(t, all, 1)
	assert.Equal(t, 9, all[0].StartDatetime.Hour())
}

func TestLockRangeExcludesOwnBooking(t *testing.T) {
	ctx := context.Background()
	store := memstore.New().Blocks
	require.NoError(t, store.Create(ctx, hold(7, 9)))
	require.NoError(t, store.Create(ctx, hold(8, 10)))

	err := store.Reserve(ctx, 1, func(ctx context.Context, tx service.ReservationTx) error {
		locked, err := tx.LockRange(ctx, 1, 7, day, day.AddDate(0, 0, 1))
		require.NoError(t, err)
		require.Len(t, locked, 1)
		assert.Equal(t, int64(8), *locked[0].BookingRequestID)
		return nil
	})
	require.NoError(t, err)
}

func TestExpiredHoldGroups(t *testing.T) {
	ctx := context.Background()
	store := memstore.New().Blocks
	require.NoError(t, store.Create(ctx, hold(7, 9)))
	require.NoError(t, store.Create(ctx, hold(7, 10)))

	groups, err := store.ExpiredHoldGroups(ctx, day.Add(-2*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, groups)

	groups, err = store.ExpiredHoldGroups(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, groups)

	n, expired, err := store.ExpireGroup(ctx, 7, day)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.False(t, expired)
	assert.Empty(t, store.All())
}

func pendingRequest(t *testing.T, store *memstore.Store) int64 {
	t.Helper()
	req := &model.BookingRequest{
		InstructorID: 1,
		ClientID:     2,
		StartDate:    day,
		EndDate:      day,
		TimeSlots:    []string{"09:00"},
		Status:       model.BookingStatusPending,
	}
	require.NoError(t, store.Bookings.Create(context.Background(), req))
	return req.ID
}

func TestExpireGroupIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	id := pendingRequest(t, store)
	require.NoError(t, store.Blocks.Create(ctx, hold(id, 9)))

	store.Bookings.FailExpire = map[int64]error{id: errors.New("connection reset")}
	_, _, err := store.Blocks.ExpireGroup(ctx, id, day)
	require.Error(t, err)
	assert.Len(t, store.Blocks.All(), 1)

	store.Bookings.FailExpire = nil
	n, expired, err := store.Blocks.ExpireGroup(ctx, id, day)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.True(t, expired)

	req, err := store.Bookings.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusExpired, req.Status)
}

func TestAcceptGroup(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	id := pendingRequest(t, store)

	_, err := store.Blocks.AcceptGroup(ctx, id)
	require.ErrorIs(t, err, service.ErrNoHolds)

	require.NoError(t, store.Blocks.Create(ctx, hold(id, 9)))
	store.Bookings.FailAccept = map[int64]error{id: errors.New("connection reset")}
	_, err = store.Blocks.AcceptGroup(ctx, id)
	require.Error(t, err)
	assert.Equal(t, model.BlockSourceHoldPending, store.Blocks.All()[0].Source)

	store.Bookings.FailAccept = nil
	promoted, err := store.Blocks.AcceptGroup(ctx, id)
	require.NoError(t, err)
	require.Len(t, promoted, 1)
	assert.Equal(t, model.BlockSourceBookingConfirmed, promoted[0].Source)
	assert.Nil(t, promoted[0].ExpiresAt)

	req, err := store.Bookings.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusAccepted, req.Status)

	_, err = store.Blocks.AcceptGroup(ctx, id)
	assert.ErrorIs(t, err, service.ErrBookingNotPending)
}
