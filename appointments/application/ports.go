package application

import (
	"context"

	agentDomain "github.com/AzielCF/az-agent/agents/domain"
	"github.com/AzielCF/az-agent/appointments/domain"
	leadDomain "github.com/AzielCF/az-agent/leads/domain"
)

// AgentDirectory is the slice of the agent service the scheduler depends on.
type AgentDirectory interface {
	GetActive(ctx context.Context, id string) (*agentDomain.Agent, error)
	RecordAppointment(ctx context.Context, id string) error
}

type LeadDirectory interface {
	GetByID(ctx context.Context, id string) (*leadDomain.Lead, error)
}

// Locker is an optional cross-instance lock taken around booking transactions.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Notifier receives booking side effects. Implementations must not block.
type Notifier interface {
	AppointmentBooked(agent *agentDomain.Agent, lead *leadDomain.Lead, appt *domain.Appointment)
	AppointmentCancelled(appt *domain.Appointment)
}

// ReminderSender delivers one reminder synchronously so the caller can record the outcome.
type ReminderSender interface {
	SendReminder(ctx context.Context, agent *agentDomain.Agent, lead *leadDomain.Lead, appt *domain.Appointment) error
}
