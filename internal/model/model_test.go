package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("09:30")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay(570), tod)
	assert.Equal(t, "09:30", tod.String())

	end, err := ParseTimeOfDay("24:00")
	require.NoError(t, err)
	assert.True(t, end.Valid())

	_, err = ParseTimeOfDay("25:00")
	assert.Error(t, err)
	_, err = ParseTimeOfDay("nine")
	assert.Error(t, err)
}

func TestWorkingHourRule_InSeason(t *testing.T) {
	winterStart := MonthDay{Month: time.December, Day: 1}
	winterEnd := MonthDay{Month: time.April, Day: 15}
	winter := &WorkingHourRule{SeasonStart: &winterStart, SeasonEnd: &winterEnd}

	day := func(m time.Month, d int) time.Time { return time.Date(2025, m, d, 0, 0, 0, 0, time.UTC) }

	assert.False(t, winter.InSeason(day(time.November, 30)))
	assert.True(t, winter.InSeason(day(time.December, 1)))
	assert.True(t, winter.InSeason(day(time.January, 20)))
	assert.True(t, winter.InSeason(day(time.April, 15)))
	assert.False(t, winter.InSeason(day(time.April, 16)))

	summerStart := MonthDay{Month: time.June, Day: 1}
	summerEnd := MonthDay{Month: time.August, Day: 31}
	summer := &WorkingHourRule{SeasonStart: &summerStart, SeasonEnd: &summerEnd}

	assert.True(t, summer.InSeason(day(time.July, 10)))
	assert.False(t, summer.InSeason(day(time.September, 1)))

	assert.True(t, (&WorkingHourRule{}).InSeason(day(time.March, 3)))
}

func TestWorkingHourRule_Validate(t *testing.T) {
	ok := &WorkingHourRule{DayOfWeek: 1, StartTime: NewTimeOfDay(9, 0), EndTime: NewTimeOfDay(17, 0)}
	assert.NoError(t, ok.Validate())

	assert.Error(t, (&WorkingHourRule{DayOfWeek: 7, StartTime: 0, EndTime: 60}).Validate())
	assert.Error(t, (&WorkingHourRule{DayOfWeek: 1, StartTime: 600, EndTime: 600}).Validate())

	start := MonthDay{Month: time.May, Day: 1}
	assert.Error(t, (&WorkingHourRule{DayOfWeek: 1, StartTime: 0, EndTime: 60, SeasonStart: &start}).Validate())
}

func TestBlockingInterval_Validate(t *testing.T) {
	start := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	bookingID := int64(7)
	expires := start.Add(48 * time.Hour)
	eventID := "evt-1"

	hold := &BlockingInterval{StartDatetime: start, EndDatetime: start.Add(time.Hour), Source: BlockSourceHoldPending,
		BookingRequestID: &bookingID, ExpiresAt: &expires}
	assert.NoError(t, hold.Validate())

	hold.ExpiresAt = nil
	assert.Error(t, hold.Validate())

	confirmed := &BlockingInterval{StartDatetime: start, EndDatetime: start.Add(time.Hour), Source: BlockSourceBookingConfirmed,
		BookingRequestID: &bookingID}
	assert.NoError(t, confirmed.Validate())

	external := &BlockingInterval{StartDatetime: start, EndDatetime: start.Add(time.Hour), Source: BlockSourceExternalCalendar,
		GoogleEventID: &eventID}
	assert.NoError(t, external.Validate())

	inverted := &BlockingInterval{StartDatetime: start, EndDatetime: start, Source: BlockSourceManual}
	assert.Error(t, inverted.Validate())
}

func TestBookingRequest_Days(t *testing.T) {
	req := &BookingRequest{
		StartDate: time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC),
	}
	assert.Len(t, req.Days(), 3)
}
