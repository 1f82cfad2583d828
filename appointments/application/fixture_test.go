package application

import (
	"context"
	"sync"
	"testing"
	"time"

	agentApp "github.com/AzielCF/az-agent/agents/application"
	agentDomain "github.com/AzielCF/az-agent/agents/domain"
	agentRepo "github.com/AzielCF/az-agent/agents/repository"
	"github.com/AzielCF/az-agent/appointments/domain"
	"github.com/AzielCF/az-agent/appointments/repository"
	"github.com/AzielCF/az-agent/core/database"
	leadDomain "github.com/AzielCF/az-agent/leads/domain"
	leadRepo "github.com/AzielCF/az-agent/leads/repository"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu        sync.Mutex
	booked    []*domain.Appointment
	cancelled []*domain.Appointment
}

func (n *recordingNotifier) AppointmentBooked(_ *agentDomain.Agent, _ *leadDomain.Lead, appt *domain.Appointment) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.booked = append(n.booked, appt)
}

func (n *recordingNotifier) AppointmentCancelled(appt *domain.Appointment) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelled = append(n.cancelled, appt)
}

type fixture struct {
	agents   *agentApp.AgentService
	leads    *leadRepo.LeadGormRepository
	repo     *repository.AppointmentGormRepository
	notifier *recordingNotifier
	booking  *BookingService
	engine   *AvailabilityEngine
	now      time.Time
}

// 2024-01-01T00:00Z, the day before the scenario bookings.
var fixedNow = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db, err := database.OpenInMemory()
	require.NoError(t, err)

	agents := agentRepo.NewAgentGormRepository(db)
	require.NoError(t, agents.InitSchema(ctx))
	leads := leadRepo.NewLeadGormRepository(db)
	require.NoError(t, leads.InitSchema(ctx))
	appts := repository.NewAppointmentGormRepository(db)
	require.NoError(t, appts.InitSchema(ctx))

	f := &fixture{
		agents:   agentApp.NewAgentService(agents, ""),
		leads:    leads,
		repo:     appts,
		notifier: &recordingNotifier{},
		now:      fixedNow,
	}
	clock := func() time.Time { return f.now }
	f.booking = NewBookingService(f.agents, leads, appts, f.notifier).WithClock(clock)
	f.engine = NewAvailabilityEngine(f.agents, appts).WithClock(clock)
	return f
}

func (f *fixture) agent(t *testing.T, mutate func(*agentDomain.Agent)) *agentDomain.Agent {
	t.Helper()
	a := &agentDomain.Agent{Name: "Scheduler"}
	if mutate != nil {
		mutate(a)
	}
	require.NoError(t, f.agents.Create(context.Background(), a))
	return a
}

func (f *fixture) lead(t *testing.T, agentID string) *leadDomain.Lead {
	t.Helper()
	l := &leadDomain.Lead{
		AgentID:     agentID,
		ContactInfo: leadDomain.ContactInfo{Name: "Lead", Email: "lead@example.com"},
		Status:      leadDomain.StatusNew,
	}
	require.NoError(t, f.leads.Create(context.Background(), l))
	return l
}

func (f *fixture) book(agentID, leadID string, start time.Time, minutes int) (*domain.Appointment, error) {
	return f.booking.BookSlot(context.Background(), domain.BookingRequest{
		AgentID:  agentID,
		LeadID:   leadID,
		Start:    start,
		Duration: minutes,
	})
}

func at(hour, minute int) time.Time {
	return time.Date(2024, 1, 2, hour, minute, 0, 0, time.UTC)
}
