package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/lesson_booking/internal/model"
)

func at(hour, min int) time.Time {
	return time.Date(2025, 1, 6, hour, min, 0, 0, time.UTC)
}

func block(source model.BlockSource, start, end time.Time) *model.BlockingInterval {
	return &model.BlockingInterval{Source: source, StartDatetime: start, EndDatetime: end}
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"disjoint", Interval{at(9, 0), at(10, 0)}, Interval{at(11, 0), at(12, 0)}, false},
		{"touching end", Interval{at(9, 0), at(10, 0)}, Interval{at(10, 0), at(11, 0)}, false},
		{"touching start", Interval{at(10, 0), at(11, 0)}, Interval{at(9, 0), at(10, 0)}, false},
		{"partial", Interval{at(9, 0), at(10, 30)}, Interval{at(10, 0), at(11, 0)}, true},
		{"contained", Interval{at(9, 0), at(12, 0)}, Interval{at(10, 0), at(11, 0)}, true},
		{"identical", Interval{at(9, 0), at(10, 0)}, Interval{at(9, 0), at(10, 0)}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Overlaps(tc.a, tc.b))
			assert.Equal(t, tc.want, Overlaps(tc.b, tc.a), "overlap must be symmetric")
		})
	}
}

func TestFindConflicts_ReturnsAllInOrder(t *testing.T) {
	existing := []*model.BlockingInterval{
		block(model.BlockSourceManual, at(8, 0), at(9, 0)),
		block(model.BlockSourceHoldPending, at(9, 30), at(10, 30)),
		block(model.BlockSourceExternalCalendar, at(10, 0), at(12, 0)),
		block(model.BlockSourceBookingConfirmed, at(12, 0), at(13, 0)),
	}

	conflicts := FindConflicts(Interval{at(9, 0), at(12, 0)}, existing)

	require.Len(t, conflicts, 2)
	assert.Same(t, existing[1], conflicts[0])
	assert.Same(t, existing[2], conflicts[1])

	assert.Same(t, existing[1], FirstConflict(Interval{at(9, 0), at(12, 0)}, existing))
	assert.Nil(t, FirstConflict(Interval{at(13, 0), at(14, 0)}, existing))
}
