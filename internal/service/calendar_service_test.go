package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestManualBlocks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.setHours(t, time.Monday, "09:00", "12:00")

	block, err := env.calendar.AddManualBlock(ctx, env.instructor, monday, monday, true)
	require.NoError(t, err)
	assert.Equal(t, monday, block.StartDatetime)
	assert.Equal(t, monday.AddDate(0, 0, 1), block.EndDatetime)

	days, err := env.availability.GenerateSlotsForDateRange(ctx, env.instructor, monday, monday, 60)
	require.NoError(t, err)
	for _, s := range days[0].Slots {
		assert.Equal(t, model.SlotStatusBlocked, s.Status)
	}

	assert.ErrorIs(t, env.calendar.RemoveManualBlock(ctx, env.clientA, block.ID), service.ErrBlockNotFound)
	require.NoError(t, env.calendar.RemoveManualBlock(ctx, env.instructor, block.ID))
	assert.ErrorIs(t, env.calendar.RemoveManualBlock(ctx, env.instructor, uuid.New()), service.ErrBlockNotFound)

	_, err = env.calendar.AddManualBlock(ctx, env.instructor, at(monday, 11, 0), at(monday, 10, 0), false)
	assert.ErrorIs(t, err, service.ErrInvalidDateRange)
}

func TestReplaceExternalBlocks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.calendar.ReplaceExternalBlocks(ctx, env.instructor, []service.ExternalEvent{
		{EventID: "evt-1", Start: at(monday, 9, 0), End: at(monday, 10, 0)},
		{EventID: "evt-2", Start: at(monday, 13, 0), End: at(monday, 14, 0)},
	})
	require.NoError(t, err)

	manual, err := env.calendar.AddManualBlock(ctx, env.instructor, at(monday, 15, 0), at(monday, 16, 0), false)
	require.NoError(t, err)

	replaced, err := env.calendar.ReplaceExternalBlocks(ctx, env.instructor, []service.ExternalEvent{
		{EventID: "evt-3", Start: monday.AddDate(0, 0, 1), AllDay: true},
	})
	require.NoError(t, err)
	require.Len(t, replaced, 1)
	assert.Equal(t, monday.AddDate(0, 0, 2), replaced[0].EndDatetime)

	all := env.store.Blocks.All()
	require.Len(t, all, 2)
	assert.Equal(t, manual.ID, all[0].ID)
	require.NotNil(t, all[1].GoogleEventID)
	assert.Equal(t, "evt-3", *all[1].GoogleEventID)

	// внешний блок мешает удержанию
	req := env.newRequest(t, env.clientA, monday.AddDate(0, 0, 1), "09:00")
	_, err = env.reservation.CreateTentativeBlock(ctx, req.ID, nil)
	assert.ErrorIs(t, err, service.ErrSlotsUnavailable)
}

func TestWorkingHoursService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.setHours(t, time.Monday, "09:00", "12:00")
	env.setHours(t, time.Monday, "10:00", "18:00")
	env.setHours(t, time.Wednesday, "08:00", "09:30")

	rules, err := env.hours.ListRules(ctx, env.instructor)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, model.NewTimeOfDay(10, 0), rules[0].StartTime)
	assert.Equal(t, int(time.Wednesday), rules[1].DayOfWeek)

	require.NoError(t, env.hours.DeactivateRule(ctx, env.instructor, int(time.Wednesday)))
	rules, err = env.hours.ListRules(ctx, env.instructor)
	require.NoError(t, err)
	assert.Len(t, rules, 1)

	err = env.hours.SetRule(ctx, &model.WorkingHourRule{
		InstructorID: env.instructor,
		DayOfWeek:    int(time.Friday),
		StartTime:    model.NewTimeOfDay(12, 0),
		EndTime:      model.NewTimeOfDay(9, 0),
	})
	assert.ErrorIs(t, err, service.ErrInvalidWorkingHour)

	assert.ErrorIs(t, env.hours.DeactivateRule(ctx, env.instructor, 7), service.ErrInvalidWorkingHour)
}

func TestUserService_RegisterUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	users := service.NewUserService(env.store.Users, zap.NewNop())

	created, err := users.RegisterUser(ctx, 777, "anna", "Anna", false)
	require.NoError(t, err)
	assert.False(t, created.IsInstructor)

	updated, err := users.RegisterUser(ctx, 777, "anna_ski", "Anna", true)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.True(t, updated.IsInstructor)

	// роль инструктора не снимается повторной регистрацией
	again, err := users.RegisterUser(ctx, 777, "anna_ski", "Anna", false)
	require.NoError(t, err)
	assert.True(t, again.IsInstructor)

	byTelegram, err := users.GetByTelegramID(ctx, 777)
	require.NoError(t, err)
	assert.Equal(t, "anna_ski", byTelegram.Username)

	missing, err := users.GetByTelegramID(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, missing)
}
