package application

import (
	"context"
	"iter"
	"time"

	agentDomain "github.com/AzielCF/az-agent/agents/domain"
	"github.com/AzielCF/az-agent/appointments/domain"
	"github.com/sirupsen/logrus"
)

const (
	legacyWindowStart = 9 * 60
	legacyWindowEnd   = 17 * 60
	dateLayout        = "2006-01-02"
)

// AvailabilityEngine computes bookable slots. Results are recomputed on every call.
type AvailabilityEngine struct {
	agents AgentDirectory
	repo   domain.AppointmentRepository
	now    func() time.Time
}

func NewAvailabilityEngine(agents AgentDirectory, repo domain.AppointmentRepository) *AvailabilityEngine {
	return &AvailabilityEngine{agents: agents, repo: repo, now: time.Now}
}

// WithClock replaces the engine's notion of "now".
func (e *AvailabilityEngine) WithClock(now func() time.Time) *AvailabilityEngine {
	e.now = now
	return e
}

// ListAvailableSlots returns the free start times on date (YYYY-MM-DD, agent local time)
// for a meeting of durationMinutes. A non-positive duration uses the agent default.
func (e *AvailabilityEngine) ListAvailableSlots(ctx context.Context, agentID, date string, durationMinutes int) (*domain.Availability, error) {
	agent, err := e.agents.GetActive(ctx, agentID)
	if err != nil {
		return nil, err
	}

	cfg := agent.AppointmentConfig
	loc := cfg.Location()
	day, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		return nil, domain.ErrInvalidDate
	}

	if durationMinutes <= 0 {
		durationMinutes = cfg.Duration
	}
	if durationMinutes <= 0 {
		durationMinutes = domain.DefaultDuration
	}

	result := &domain.Availability{Date: date, Duration: durationMinutes, Slots: []time.Time{}}

	windowStart, windowEnd, ok := workingWindow(agent, day)
	if !ok {
		return result, nil
	}

	booked, err := e.repo.ListBlocking(ctx, agentID, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}

	now := e.now()
	length := time.Duration(durationMinutes) * time.Minute
	for slot := range candidateSlots(windowStart, windowEnd, length) {
		if !slot.After(now) || conflicts(booked, slot, length) {
			continue
		}
		result.Slots = append(result.Slots, slot.UTC())
	}
	return result, nil
}

// workingWindow resolves the agent's hours for day. Agents without any working-hours
// configuration fall back to 09:00-17:00; a configured weekday that is missing or
// disabled has no window.
func workingWindow(agent *agentDomain.Agent, day time.Time) (time.Time, time.Time, bool) {
	cfg := agent.AppointmentConfig
	startMin, endMin := legacyWindowStart, legacyWindowEnd

	if len(cfg.WorkingHours) > 0 {
		hours, ok := cfg.DayFor(day.Weekday())
		if !ok || !hours.Enabled {
			return time.Time{}, time.Time{}, false
		}
		var err error
		startMin, endMin, err = hours.Window()
		if err != nil {
			logrus.WithError(err).WithField("agent_id", agent.ID).Warn("[BOOKING] Invalid working hours, no slots offered")
			return time.Time{}, time.Time{}, false
		}
	}
	if startMin >= endMin {
		return time.Time{}, time.Time{}, false
	}

	y, m, d := day.Date()
	loc := day.Location()
	start := time.Date(y, m, d, startMin/60, startMin%60, 0, 0, loc)
	end := time.Date(y, m, d, endMin/60, endMin%60, 0, 0, loc)
	return start, end, true
}

// candidateSlots yields start times at a stride of length whose whole interval fits in the window.
func candidateSlots(windowStart, windowEnd time.Time, length time.Duration) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		if length <= 0 {
			return
		}
		for slot := windowStart; !slot.Add(length).After(windowEnd); slot = slot.Add(length) {
			if !yield(slot) {
				return
			}
		}
	}
}

func conflicts(booked []*domain.Appointment, start time.Time, length time.Duration) bool {
	for _, appt := range booked {
		if appt.ConflictsWith(start, length) {
			return true
		}
	}
	return false
}
