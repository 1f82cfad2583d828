package domain

import (
	"context"
	"time"
)

type EventType string

const (
	EventLeadCaptured         EventType = "lead.captured"
	EventAppointmentBooked    EventType = "appointment.booked"
	EventAppointmentCancelled EventType = "appointment.cancelled"
	EventReminderSent         EventType = "appointment.reminder_sent"
)

// Event is the domain event published to the broker. Data is JSON encoded.
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	AgentID    string    `json:"agentId"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data"`
}

type Email struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

type Mailer interface {
	Send(ctx context.Context, email Email) error
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Broadcaster pushes a realtime frame to every client watching an agent.
type Broadcaster interface {
	BroadcastToAgent(agentID, event string, data any)
}
