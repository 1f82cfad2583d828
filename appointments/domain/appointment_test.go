package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOverlaps(t *testing.T) {
	base := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	m := time.Minute

	cases := []struct {
		name   string
		s2     time.Time
		d1, d2 time.Duration
		want   bool
	}{
		{"identical", base, 30 * m, 30 * m, true},
		{"partial overlap", base.Add(15 * m), 30 * m, 30 * m, true},
		{"back to back after", base.Add(30 * m), 30 * m, 30 * m, false},
		{"back to back before", base.Add(-30 * m), 30 * m, 30 * m, false},
		{"contained", base.Add(10 * m), 30 * m, 5 * m, true},
		{"containing", base.Add(-10 * m), 30 * m, 60 * m, true},
		{"zero length at start", base, 30 * m, 0, false},
		{"zero length inside", base.Add(10 * m), 30 * m, 0, true},
		{"zero length at end", base.Add(30 * m), 30 * m, 0, false},
		{"disjoint", base.Add(2 * time.Hour), 30 * m, 30 * m, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Overlaps(base, tc.d1, tc.s2, tc.d2))
			// the relation is symmetric
			assert.Equal(t, tc.want, Overlaps(tc.s2, tc.d2, base, tc.d1))
		})
	}
}

func TestCancelledAppointmentNeverConflicts(t *testing.T) {
	start := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	appt := &Appointment{ScheduledTime: start, Duration: 30, Status: StatusScheduled}
	assert.True(t, appt.ConflictsWith(start, 30*time.Minute))

	appt.Status = StatusCancelled
	assert.False(t, appt.ConflictsWith(start, 30*time.Minute))
}

func TestAppointmentStatusTransitions(t *testing.T) {
	assert.True(t, StatusScheduled.CanTransitionTo(StatusConfirmed))
	assert.True(t, StatusScheduled.CanTransitionTo(StatusCompleted))
	assert.True(t, StatusConfirmed.CanTransitionTo(StatusNoShow))
	assert.True(t, StatusCancelled.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusConfirmed.CanTransitionTo(StatusScheduled))
	assert.False(t, StatusCompleted.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusCancelled.CanTransitionTo(StatusScheduled))
	assert.False(t, StatusNoShow.CanTransitionTo(StatusConfirmed))
}
