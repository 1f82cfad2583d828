package application

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	agentDomain "github.com/AzielCF/az-agent/agents/domain"
	"github.com/AzielCF/az-agent/appointments/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookSlot_OverlapIsRejected(t *testing.T) {
	f := newFixture(t)
	agent := f.agent(t, nil)
	lead := f.lead(t, agent.ID)

	first, err := f.book(agent.ID, lead.ID, at(10, 0), 30)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusScheduled, first.Status)
	assert.Equal(t, domain.MeetingVideo, first.MeetingType)

	_, err = f.book(agent.ID, lead.ID, at(10, 15), 30)
	assert.ErrorIs(t, err, domain.ErrSlotTaken)
}

func TestBookSlot_BackToBackSucceeds(t *testing.T) {
	f := newFixture(t)
	agent := f.agent(t, nil)
	lead := f.lead(t, agent.ID)

	_, err := f.book(agent.ID, lead.ID, at(10, 0), 30)
	require.NoError(t, err)
	_, err = f.book(agent.ID, lead.ID, at(10, 30), 30)
	assert.NoError(t, err)
	_, err = f.book(agent.ID, lead.ID, at(9, 30), 30)
	assert.NoError(t, err)
}

func TestBookSlot_CancelFreesSlot(t *testing.T) {
	f := newFixture(t)
	agent := f.agent(t, nil)
	lead := f.lead(t, agent.ID)
	ctx := context.Background()

	first, err := f.book(agent.ID, lead.ID, at(10, 0), 30)
	require.NoError(t, err)

	cancelled, err := f.booking.Cancel(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)

	// idempotent
	_, err = f.booking.Cancel(ctx, first.ID)
	require.NoError(t, err)
	assert.Len(t, f.notifier.cancelled, 1)

	avail, err := f.engine.ListAvailableSlots(ctx, agent.ID, "2024-01-02", 30)
	require.NoError(t, err)
	assert.Contains(t, avail.Slots, at(10, 0))

	_, err = f.book(agent.ID, lead.ID, at(10, 0), 30)
	assert.NoError(t, err)
}

func TestBookSlot_OtherAgentsDoNotConflict(t *testing.T) {
	f := newFixture(t)
	a1, a2 := f.agent(t, nil), f.agent(t, nil)
	l1, l2 := f.lead(t, a1.ID), f.lead(t, a2.ID)

	_, err := f.book(a1.ID, l1.ID, at(10, 0), 30)
	require.NoError(t, err)
	_, err = f.book(a2.ID, l2.ID, at(10, 0), 30)
	assert.NoError(t, err)
}

func TestBookSlot_Validation(t *testing.T) {
	f := newFixture(t)
	agent := f.agent(t, nil)
	other := f.agent(t, nil)
	lead := f.lead(t, agent.ID)
	ctx := context.Background()

	_, err := f.book(agent.ID, lead.ID, fixedNow.Add(-time.Hour), 30)
	assert.ErrorIs(t, err, domain.ErrStartInPast)

	_, err = f.book(agent.ID, lead.ID, fixedNow, 30)
	assert.ErrorIs(t, err, domain.ErrStartInPast)

	_, err = f.book(agent.ID, lead.ID, at(10, 0), -5)
	assert.ErrorIs(t, err, domain.ErrInvalidDuration)

	_, err = f.book(other.ID, lead.ID, at(10, 0), 30)
	assert.ErrorIs(t, err, domain.ErrLeadAgentMismatch)

	_, err = f.book("ghost", lead.ID, at(10, 0), 30)
	assert.ErrorIs(t, err, agentDomain.ErrAgentNotFound)

	_, err = f.booking.BookSlot(ctx, domain.BookingRequest{AgentID: agent.ID, LeadID: lead.ID, Start: at(10, 0), MeetingType: "carrier-pigeon"})
	assert.ErrorIs(t, err, domain.ErrInvalidMeetingType)

	_, err = f.booking.BookSlot(ctx, domain.BookingRequest{AgentID: agent.ID})
	assert.ErrorIs(t, err, domain.ErrBookingFieldsMissing)

	require.NoError(t, f.agents.Delete(ctx, agent.ID))
	_, err = f.book(agent.ID, lead.ID, at(10, 0), 30)
	assert.ErrorIs(t, err, agentDomain.ErrAgentInactive)
}

func TestBookSlot_SideEffects(t *testing.T) {
	f := newFixture(t)
	agent := f.agent(t, func(a *agentDomain.Agent) { a.AppointmentConfig.Duration = 45 })
	lead := f.lead(t, agent.ID)
	ctx := context.Background()

	appt, err := f.book(agent.ID, lead.ID, at(10, 0), 0)
	require.NoError(t, err)
	assert.Equal(t, 45, appt.Duration, "zero duration uses the agent default")

	stored, err := f.agents.GetByID(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Analytics.TotalAppointments)
	require.Len(t, f.notifier.booked, 1)
	assert.Equal(t, appt.ID, f.notifier.booked[0].ID)
}

// Random pairs of intervals: the second booking must fail exactly when it intersects the first.
func TestBookSlot_RandomIntervals(t *testing.T) {
	f := newFixture(t)
	agent := f.agent(t, nil)
	lead := f.lead(t, agent.ID)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	base := at(8, 0)
	for i := 0; i < 150; i++ {
		s1 := base.Add(time.Duration(rng.Intn(24*60)) * time.Minute)
		d1 := 1 + rng.Intn(120)
		s2 := s1.Add(time.Duration(rng.Intn(300)-150) * time.Minute)
		d2 := 1 + rng.Intn(120)

		first, err := f.book(agent.ID, lead.ID, s1, d1)
		require.NoError(t, err)

		second, err := f.book(agent.ID, lead.ID, s2, d2)
		overlap := domain.Overlaps(s1, time.Duration(d1)*time.Minute, s2, time.Duration(d2)*time.Minute)
		if overlap {
			assert.ErrorIs(t, err, domain.ErrSlotTaken, "s1=%s d1=%d s2=%s d2=%d", s1, d1, s2, d2)
		} else {
			require.NoError(t, err, "s1=%s d1=%d s2=%s d2=%d", s1, d1, s2, d2)
			_, err = f.booking.Cancel(ctx, second.ID)
			require.NoError(t, err)
		}
		_, err = f.booking.Cancel(ctx, first.ID)
		require.NoError(t, err)
	}
}

func TestBookSlot_ConcurrentRequestsBookOnce(t *testing.T) {
	f := newFixture(t)
	agent := f.agent(t, nil)
	lead := f.lead(t, agent.ID)

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		conflicts atomic.Int32
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// staggered starts that all intersect 10:00-10:30
			_, err := f.book(agent.ID, lead.ID, at(10, i), 30)
			switch {
			case err == nil:
				succeeded.Add(1)
			case assert.ErrorIs(t, err, domain.ErrSlotTaken):
				conflicts.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(11), conflicts.Load())
}

type countingLocker struct {
	acquired atomic.Int32
	released atomic.Int32
}

func (l *countingLocker) Acquire(_ context.Context, _ string) (func(), error) {
	l.acquired.Add(1)
	return func() { l.released.Add(1) }, nil
}

func TestBookSlot_UsesDistributedLock(t *testing.T) {
	f := newFixture(t)
	locker := &countingLocker{}
	f.booking.WithLocker(locker)
	agent := f.agent(t, nil)
	lead := f.lead(t, agent.ID)

	_, err := f.book(agent.ID, lead.ID, at(10, 0), 30)
	require.NoError(t, err)
	_, err = f.book(agent.ID, lead.ID, at(10, 0), 30)
	require.ErrorIs(t, err, domain.ErrSlotTaken)

	assert.Equal(t, int32(2), locker.acquired.Load())
	assert.Equal(t, int32(2), locker.released.Load())
}

func TestUpdate_RescheduleChecksOverlap(t *testing.T) {
	f := newFixture(t)
	agent := f.agent(t, nil)
	lead := f.lead(t, agent.ID)
	ctx := context.Background()

	a, err := f.book(agent.ID, lead.ID, at(10, 0), 30)
	require.NoError(t, err)
	b, err := f.book(agent.ID, lead.ID, at(11, 0), 30)
	require.NoError(t, err)

	clash := at(10, 15)
	_, err = f.booking.Update(ctx, b.ID, domain.UpdateRequest{ScheduledTime: &clash})
	assert.ErrorIs(t, err, domain.ErrSlotTaken)

	// moving within its own interval does not conflict with itself
	shift := at(11, 10)
	moved, err := f.booking.Update(ctx, b.ID, domain.UpdateRequest{ScheduledTime: &shift})
	require.NoError(t, err)
	assert.Equal(t, shift, moved.ScheduledTime)

	longer := 90
	_, err = f.booking.Update(ctx, a.ID, domain.UpdateRequest{Duration: &longer})
	assert.ErrorIs(t, err, domain.ErrSlotTaken)

	confirmed := domain.StatusConfirmed
	_, err = f.booking.Update(ctx, a.ID, domain.UpdateRequest{Status: &confirmed})
	require.NoError(t, err)

	completed := domain.StatusCompleted
	_, err = f.booking.Update(ctx, a.ID, domain.UpdateRequest{Status: &completed})
	require.NoError(t, err)

	scheduled := domain.StatusScheduled
	_, err = f.booking.Update(ctx, a.ID, domain.UpdateRequest{Status: &scheduled})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.booking.Cancel(ctx, a.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.booking.Update(ctx, a.ID, domain.UpdateRequest{ScheduledTime: &shift})
	assert.ErrorIs(t, err, domain.ErrImmutable)
}

func TestList_Paginates(t *testing.T) {
	f := newFixture(t)
	agent := f.agent(t, nil)
	lead := f.lead(t, agent.ID)
	ctx := context.Background()

	for h := 9; h < 14; h++ {
		_, err := f.book(agent.ID, lead.ID, at(h, 0), 30)
		require.NoError(t, err)
	}

	_, err := f.booking.List(ctx, domain.AppointmentFilter{})
	assert.ErrorIs(t, err, domain.ErrAgentIDRequired)

	page, err := f.booking.List(ctx, domain.AppointmentFilter{AgentID: agent.ID, Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Pagination.Total)
	assert.Equal(t, 3, page.Pagination.Pages)
	require.Len(t, page.Appointments, 2)
	assert.Equal(t, at(11, 0), page.Appointments[0].ScheduledTime)

	from, to := at(10, 0), at(12, 0)
	page, err = f.booking.List(ctx, domain.AppointmentFilter{LeadID: lead.ID, StartDate: &from, EndDate: &to})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Pagination.Total)
}
