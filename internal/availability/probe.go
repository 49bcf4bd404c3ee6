package availability

import (
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
)

const (
	ReasonNotWorkingDay     = "Instructor does not work on this day"
	ReasonOutsideHours      = "Requested time is outside working hours"
	ReasonTentativelyBooked = "Time slot is tentatively booked"
	ReasonAlreadyBooked     = "Time slot is already booked"
	ReasonBlocked           = "Time slot is blocked in the instructor's calendar"
)

// SlotCheck результат точечной проверки слота
type SlotCheck struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// CheckSlot проверяет один интервал на рабочие часы и пересечения без построения сетки
func CheckSlot(date time.Time, start, end model.TimeOfDay, rules []*model.WorkingHourRule, blocks []*model.BlockingInterval) SlotCheck {
	rule := IndexRules(rules).RuleFor(date)
	if rule == nil {
		return SlotCheck{Reason: ReasonNotWorkingDay}
	}
	if start < rule.StartTime || end > rule.EndTime {
		return SlotCheck{Reason: ReasonOutsideHours}
	}

	candidate := Interval{Start: start.On(date), End: end.On(date)}
	slot := model.Slot{Status: model.SlotStatusAvailable}
	applyBlocks(&slot, FindConflicts(candidate, blocks))

	switch slot.Status {
	case model.SlotStatusPending:
		return SlotCheck{Reason: ReasonTentativelyBooked}
	case model.SlotStatusBooked:
		return SlotCheck{Reason: ReasonAlreadyBooked}
	case model.SlotStatusBlocked:
		return SlotCheck{Reason: ReasonBlocked}
	}
	return SlotCheck{Available: true}
}
