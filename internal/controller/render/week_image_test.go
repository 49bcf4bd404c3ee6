package render

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/availability"
	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekImage(t *testing.T) {
	monday := time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)
	rules := []*model.WorkingHourRule{{
		DayOfWeek: int(time.Monday),
		StartTime: model.NewTimeOfDay(9, 0),
		EndTime:   model.NewTimeOfDay(12, 30),
		IsActive:  true,
	}}
	bookingID := int64(42)
	expires := monday.AddDate(0, 0, 2)
	blocks := []*model.BlockingInterval{{
		InstructorID:     1,
		StartDatetime:    monday.Add(10 * time.Hour),
		EndDatetime:      monday.Add(11 * time.Hour),
		Source:           model.BlockSourceHoldPending,
		BookingRequestID: &bookingID,
		ExpiresAt:        &expires,
	}}
	days := availability.BuildRange(monday, monday.AddDate(0, 0, 6), rules, blocks, 60)

	data, err := WeekImage(days, monday.Add(10*time.Hour+30*time.Minute))
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, imageWidth, img.Bounds().Dx())
	assert.Equal(t, imageHeight, img.Bounds().Dy())
}

func TestWeekImageWithoutSlots(t *testing.T) {
	monday := time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)
	days := availability.BuildRange(monday, monday.AddDate(0, 0, 13), nil, nil, 60)

	data, err := WeekImage(days, monday)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestCalculateHourRange(t *testing.T) {
	day := model.DayAvailability{Slots: []model.Slot{
		{StartTime: model.NewTimeOfDay(9, 0), EndTime: model.NewTimeOfDay(10, 0)},
		{StartTime: model.NewTimeOfDay(16, 0), EndTime: model.NewTimeOfDay(16, 30)},
	}}

	hours := calculateHourRange([]model.DayAvailability{day})
	assert.Equal(t, hourRange{start: 8, end: 18, total: 10}, hours)

	empty := calculateHourRange(nil)
	assert.Equal(t, hourRange{start: 7, end: 21, total: 14}, empty)
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "08:00", formatHourLabel(8))
	assert.Equal(t, "14:00", formatHourLabel(14))
	assert.Equal(t, "Пн", weekdayShort(time.Monday))
	assert.Equal(t, "Декабрь", monthName(time.December))
}
