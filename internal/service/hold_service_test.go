package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestConfirmBooking_PromotesInPlace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := env.newRequest(t, env.clientA, monday, "09:00", "10:00")
	hold, err := env.reservation.CreateTentativeBlock(ctx, req.ID, nil)
	require.NoError(t, err)

	promoted, err := env.holds.ConfirmBooking(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, promoted, len(hold.Blocks))

	all := env.store.Blocks.All()
	require.Len(t, all, len(hold.Blocks))

	var heldIDs, promotedIDs []string
	for i := range promoted {
		heldIDs = append(heldIDs, hold.Blocks[i].ID.String())
		promotedIDs = append(promotedIDs, promoted[i].ID.String())
		assert.Equal(t, model.BlockSourceBookingConfirmed, promoted[i].Source)
		assert.Nil(t, promoted[i].ExpiresAt)
	}
	assert.ElementsMatch(t, heldIDs, promotedIDs)
}

func TestConfirmBooking_SkipsForeignRows(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.newRequest(t, env.clientA, monday, "09:00")
	b := env.newRequest(t, env.clientB, monday, "10:00")
	_, err := env.reservation.CreateTentativeBlock(ctx, a.ID, nil)
	require.NoError(t, err)
	_, err = env.reservation.CreateTentativeBlock(ctx, b.ID, nil)
	require.NoError(t, err)

	_, err = env.holds.ConfirmBooking(ctx, a.ID)
	require.NoError(t, err)

	other, err := env.store.Blocks.ListByBooking(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.True(t, other[0].IsHold())
}

func TestReleaseTentativeBlocks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := env.newRequest(t, env.clientA, monday, "09:00", "10:00")
	_, err := env.reservation.CreateTentativeBlock(ctx, req.ID, nil)
	require.NoError(t, err)
	manual, err := env.calendar.AddManualBlock(ctx, env.instructor, at(monday, 13, 0), at(monday, 14, 0), false)
	require.NoError(t, err)

	deleted, err := env.holds.ReleaseTentativeBlocks(ctx, req.ID)
	require.NoError(t, err)
	assert.Len(t, deleted, 2)

	all := env.store.Blocks.All()
	require.Len(t, all, 1)
	assert.Equal(t, manual.ID, all[0].ID)

	again, err := env.holds.ReleaseTentativeBlocks(ctx, req.ID)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestCleanupExpiredBlocks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	stale := env.newRequest(t, env.clientA, monday, "09:00", "10:00")
	_, err := env.reservation.CreateTentativeBlock(ctx, stale.ID, nil)
	require.NoError(t, err)

	env.clock.Advance(24 * time.Hour)
	fresh := env.newRequest(t, env.clientB, monday, "12:00")
	_, err = env.reservation.CreateTentativeBlock(ctx, fresh.ID, nil)
	require.NoError(t, err)

	env.clock.Advance(24*time.Hour + time.Minute)
	result, err := env.holds.CleanupExpiredBlocks(ctx)
	require.NoError(t, err)
	require.NoError(t, result.Err)

	assert.Equal(t, int64(2), result.BlocksDeleted)
	assert.Equal(t, 1, result.BookingsExpired)
	assert.Contains(t, result.Message, "deleted 2 expired holds")

	assert.Equal(t, model.BookingStatusExpired, env.status(t, stale.ID))
	assert.Equal(t, model.BookingStatusPending, env.status(t, fresh.ID))

	left := env.store.Blocks.All()
	require.Len(t, left, 1)
	assert.True(t, left[0].BelongsTo(fresh.ID))

	assert.Equal(t, []int64{stale.ID}, env.notifier.expired)
}

func TestCleanupExpiredBlocks_KeepsDecidedStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := env.newRequest(t, env.clientA, monday, "09:00")
	_, err := env.reservation.CreateTentativeBlock(ctx, req.ID, nil)
	require.NoError(t, err)
	require.NoError(t, env.store.Bookings.UpdateStatus(ctx, req.ID, model.BookingStatusViewed))

	env.clock.Advance(49 * time.Hour)
	result, err := env.holds.CleanupExpiredBlocks(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(1), result.BlocksDeleted)
	assert.Zero(t, result.BookingsExpired)
	assert.Equal(t, model.BookingStatusViewed, env.status(t, req.ID))
}

func TestCleanupExpiredBlocks_GroupFailureDoesNotStopOthers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	broken := env.newRequest(t, env.clientA, monday, "09:00")
	healthy := env.newRequest(t, env.clientB, monday, "10:00")
	for _, req := range []*model.BookingRequest{broken, healthy} {
		_, err := env.reservation.CreateTentativeBlock(ctx, req.ID, nil)
		require.NoError(t, err)
	}
	env.store.Bookings.FailExpire = map[int64]error{broken.ID: errors.New("connection reset")}

	env.clock.Advance(49 * time.Hour)
	result, err := env.holds.CleanupExpiredBlocks(ctx)
	require.NoError(t, err)

	require.Error(t, result.Err)
	assert.Len(t, multierr.Errors(result.Err), 1)
	assert.Contains(t, result.Err.Error(), "connection reset")
	assert.Contains(t, result.Message, "1 failed")

	assert.Equal(t, int64(1), result.BlocksDeleted)
	assert.Equal(t, 1, result.BookingsExpired)
	assert.Equal(t, model.BookingStatusExpired, env.status(t, healthy.ID))

	// неудачная группа откатилась целиком и остаётся в очереди очистки
	assert.Equal(t, model.BookingStatusPending, env.status(t, broken.ID))
	left := env.store.Blocks.All()
	require.Len(t, left, 1)
	assert.True(t, left[0].BelongsTo(broken.ID))

	env.store.Bookings.FailExpire = nil
	result, err = env.holds.CleanupExpiredBlocks(ctx)
	require.NoError(t, err)
	require.NoError(t, result.Err)
	assert.Equal(t, int64(1), result.BlocksDeleted)
	assert.Equal(t, 1, result.BookingsExpired)
	assert.Equal(t, model.BookingStatusExpired, env.status(t, broken.ID))
	assert.Empty(t, env.store.Blocks.All())
}

func TestCleanupExpiredBlocks_NothingToDo(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.holds.CleanupExpiredBlocks(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.BlocksDeleted)
	assert.Equal(t, "deleted 0 expired holds, expired 0 booking requests", result.Message)
}

func TestCanAcceptBooking(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	accepted := env.newRequest(t, env.clientA, monday, "09:00")
	_, err := env.reservation.CreateTentativeBlock(ctx, accepted.ID, nil)
	require.NoError(t, err)

	check, err := env.holds.CanAcceptBooking(ctx, accepted.ID)
	require.NoError(t, err)
	assert.True(t, check.CanAccept)

	_, err = env.holds.ConfirmBooking(ctx, accepted.ID)
	require.NoError(t, err)
	require.NoError(t, env.store.Bookings.UpdateStatus(ctx, accepted.ID, model.BookingStatusAccepted))

	// заявка без удержаний на то же время, проверка по её слотам
	late := env.newRequest(t, env.clientB, monday, "09:00")
	check, err = env.holds.CanAcceptBooking(ctx, late.ID)
	require.NoError(t, err)
	assert.False(t, check.CanAccept)
	assert.Contains(t, check.Reason, "confirmed booking on 2025-01-06 09:00-10:00")

	decided, err := env.holds.CanAcceptBooking(ctx, accepted.ID)
	require.NoError(t, err)
	assert.False(t, decided.CanAccept)
	assert.Equal(t, "booking request is accepted", decided.Reason)

	_, err = env.holds.CanAcceptBooking(ctx, 999)
	assert.Error(t, err)
}

func TestCanAcceptBooking_IgnoresHoldsAndManualBlocks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := env.newRequest(t, env.clientA, monday, "09:00")
	_, err := env.reservation.CreateTentativeBlock(ctx, req.ID, nil)
	require.NoError(t, err)

	_, err = env.calendar.AddManualBlock(ctx, env.instructor, at(monday, 9, 0), at(monday, 10, 0), false)
	require.NoError(t, err)

	check, err := env.holds.CanAcceptBooking(ctx, req.ID)
	require.NoError(t, err)
	assert.True(t, check.CanAccept)
}
