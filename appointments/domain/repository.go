package domain

import (
	"context"
	"time"
)

type AppointmentRepository interface {
	// CreateIfNoOverlap inserts appt unless a blocking appointment of the same agent
	// intersects it, in which case ErrSlotTaken is returned. The check and the insert
	// are serialized per agent.
	CreateIfNoOverlap(ctx context.Context, appt *Appointment) error
	// UpdateIfNoOverlap saves appt, re-running the overlap check (excluding appt itself)
	// when appt still blocks its interval.
	UpdateIfNoOverlap(ctx context.Context, appt *Appointment) error
	GetByID(ctx context.Context, id string) (*Appointment, error)
	List(ctx context.Context, filter AppointmentFilter) ([]*Appointment, int64, error)
	// ListBlocking returns the agent's non-cancelled appointments intersecting [from, to).
	ListBlocking(ctx context.Context, agentID string, from, to time.Time) ([]*Appointment, error)
	// DueForReminder returns scheduled or confirmed appointments starting in [from, to)
	// that have not had a reminder yet.
	DueForReminder(ctx context.Context, from, to time.Time) ([]*Appointment, error)
	MarkReminderSent(ctx context.Context, id string) error
	MarkConfirmationSent(ctx context.Context, id string) error
}
