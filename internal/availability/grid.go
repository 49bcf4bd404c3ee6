package availability

import (
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
)

// DefaultSlotDuration длительность слота по умолчанию в минутах
const DefaultSlotDuration = 60

// statusPriority порядок важности при пересечении нескольких блоков с одним слотом
var statusPriority = map[model.SlotStatus]int{
	model.SlotStatusAvailable: 0,
	model.SlotStatusBlocked:   1,
	model.SlotStatusPending:   2,
	model.SlotStatusBooked:    3,
}

// StatusFor отображает источник блока на статус слота
func StatusFor(source model.BlockSource) model.SlotStatus {
	switch source {
	case model.BlockSourceHoldPending:
		return model.SlotStatusPending
	case model.BlockSourceBookingConfirmed:
		return model.SlotStatusBooked
	default:
		return model.SlotStatusBlocked
	}
}

// RuleIndex активные правила по дню недели
type RuleIndex map[time.Weekday]*model.WorkingHourRule

// IndexRules строит индекс активных правил; при дублях побеждает более позднее
func IndexRules(rules []*model.WorkingHourRule) RuleIndex {
	idx := make(RuleIndex, len(rules))
	for _, r := range rules {
		if r == nil || !r.IsActive {
			continue
		}
		idx[time.Weekday(r.DayOfWeek)] = r
	}
	return idx
}

// RuleFor возвращает правило действующее на дату с учётом сезона
func (idx RuleIndex) RuleFor(date time.Time) *model.WorkingHourRule {
	rule, ok := idx[date.Weekday()]
	if !ok || !rule.InSeason(date) {
		return nil
	}
	return rule
}

// TileWindows режет рабочее окно на последовательные слоты длительностью durationMinutes.
// Последний неполный слот сохраняется и обрезается по концу окна.
func TileWindows(start, end model.TimeOfDay, durationMinutes int) [][2]model.TimeOfDay {
	if durationMinutes <= 0 {
		durationMinutes = DefaultSlotDuration
	}

	var windows [][2]model.TimeOfDay
	for cur := start; cur < end; cur += model.TimeOfDay(durationMinutes) {
		next := cur + model.TimeOfDay(durationMinutes)
		if next > end {
			next = end
		}
		windows = append(windows, [2]model.TimeOfDay{cur, next})
	}
	return windows
}

// BuildDay строит сетку на один день. blocks могут содержать интервалы других дней.
func BuildDay(date time.Time, idx RuleIndex, blocks []*model.BlockingInterval, durationMinutes int) model.DayAvailability {
	day := model.DateOf(date)
	result := model.DayAvailability{
		Date:      day,
		DayOfWeek: int(day.Weekday()),
		Slots:     []model.Slot{},
	}

	rule := idx.RuleFor(day)
	if rule == nil {
		return result
	}
	result.IsWorkingDay = true

	dayBlocks := FindConflicts(DayInterval(day), blocks)

	for _, w := range TileWindows(rule.StartTime, rule.EndTime, durationMinutes) {
		slot := model.Slot{
			Date:      day,
			StartTime: w[0],
			EndTime:   w[1],
			Status:    model.SlotStatusAvailable,
		}
		applyBlocks(&slot, FindConflicts(Interval{Start: slot.Start(), End: slot.End()}, dayBlocks))
		result.Slots = append(result.Slots, slot)
	}

	return result
}

// applyBlocks выставляет статус по самому важному пересекающему блоку
func applyBlocks(slot *model.Slot, conflicts []*model.BlockingInterval) {
	for _, b := range conflicts {
		status := StatusFor(b.Source)
		if statusPriority[status] <= statusPriority[slot.Status] {
			continue
		}
		source := b.Source
		slot.Status = status
		slot.BlockSource = &source
		slot.BookingID = b.BookingRequestID
	}
}

// BuildRange строит сетку на каждый день диапазона [startDate, endDate] включительно
func BuildRange(startDate, endDate time.Time, rules []*model.WorkingHourRule, blocks []*model.BlockingInterval, durationMinutes int) []model.DayAvailability {
	idx := IndexRules(rules)
	end := model.DateOf(endDate)

	days := []model.DayAvailability{}
	for d := model.DateOf(startDate); !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, BuildDay(d, idx, blocks, durationMinutes))
	}
	return days
}
