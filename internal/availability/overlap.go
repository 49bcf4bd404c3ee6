// Package availability содержит чистые алгоритмы доступности: детектор пересечений
// интервалов и построение сетки слотов. Пакет не ходит в БД.
package availability

import (
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
)

// Interval полуоткрытый интервал [Start, End)
type Interval struct {
	Start time.Time
	End   time.Time
}

// Of возвращает интервал занятости
func Of(b *model.BlockingInterval) Interval {
	return Interval{Start: b.StartDatetime, End: b.EndDatetime}
}

// Overlaps пересекаются ли полуоткрытые интервалы. Касание концами не пересечение.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// FindConflicts возвращает все интервалы из existing, пересекающие candidate, в исходном порядке
func FindConflicts(candidate Interval, existing []*model.BlockingInterval) []*model.BlockingInterval {
	var conflicts []*model.BlockingInterval
	for _, b := range existing {
		if Overlaps(candidate, Of(b)) {
			conflicts = append(conflicts, b)
		}
	}
	return conflicts
}

// FirstConflict возвращает первый пересекающий интервал или nil
func FirstConflict(candidate Interval, existing []*model.BlockingInterval) *model.BlockingInterval {
	for _, b := range existing {
		if Overlaps(candidate, Of(b)) {
			return b
		}
	}
	return nil
}

// DayInterval интервал календарного дня [00:00, 00:00 следующего дня)
func DayInterval(date time.Time) Interval {
	day := model.DateOf(date)
	return Interval{Start: day, End: day.AddDate(0, 0, 1)}
}
