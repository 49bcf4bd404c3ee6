package availability

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Freeeeeet/lesson_booking/internal/model"
)

func TestCheckSlot(t *testing.T) {
	rules := []*model.WorkingHourRule{mondayRule("09:00", "12:00")}
	blocks := []*model.BlockingInterval{
		block(model.BlockSourceHoldPending, at(9, 0), at(10, 0)),
		block(model.BlockSourceBookingConfirmed, at(10, 0), at(11, 0)),
		block(model.BlockSourceManual, at(11, 0), at(11, 30)),
	}

	cases := []struct {
		name       string
		date       bool
		start, end model.TimeOfDay
		want       SlotCheck
	}{
		{"tentative", true, model.NewTimeOfDay(9, 0), model.NewTimeOfDay(10, 0), SlotCheck{Reason: ReasonTentativelyBooked}},
		{"booked", true, model.NewTimeOfDay(10, 0), model.NewTimeOfDay(11, 0), SlotCheck{Reason: ReasonAlreadyBooked}},
		{"blocked", true, model.NewTimeOfDay(11, 0), model.NewTimeOfDay(12, 0), SlotCheck{Reason: ReasonBlocked}},
		{"free", true, model.NewTimeOfDay(11, 30), model.NewTimeOfDay(12, 0), SlotCheck{Available: true}},
		{"outside hours", true, model.NewTimeOfDay(11, 30), model.NewTimeOfDay(12, 30), SlotCheck{Reason: ReasonOutsideHours}},
		{"not working day", false, model.NewTimeOfDay(9, 0), model.NewTimeOfDay(10, 0), SlotCheck{Reason: ReasonNotWorkingDay}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			date := monday
			if !tc.date {
				date = monday.AddDate(0, 0, 1)
			}
			assert.Equal(t, tc.want, CheckSlot(date, tc.start, tc.end, rules, blocks))
		})
	}
}
