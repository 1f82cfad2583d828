package application

import (
	"context"
	"time"

	agentDomain "github.com/AzielCF/az-agent/agents/domain"
	apptDomain "github.com/AzielCF/az-agent/appointments/domain"
	leadDomain "github.com/AzielCF/az-agent/leads/domain"
	"github.com/AzielCF/az-agent/notifications/domain"
	"github.com/AzielCF/az-agent/pkg/metrics"
	"github.com/AzielCF/az-agent/pkg/taskpool"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ConfirmationMarker records that a booking confirmation reached the lead.
type ConfirmationMarker interface {
	MarkConfirmationSent(ctx context.Context, id string) error
}

type Dispatcher interface {
	TryDispatch(task taskpool.Task) bool
}

const (
	mailTimeout    = 30 * time.Second
	publishTimeout = 5 * time.Second
)

// Service fans lead and booking side effects out to mail, the broker and the
// realtime channel. Every entry point used by the domain services returns
// immediately; the work runs on the task pool partitioned by agent.
type Service struct {
	mailer        domain.Mailer
	publisher     domain.Publisher
	broadcaster   domain.Broadcaster
	confirmations ConfirmationMarker
	tasks         Dispatcher
	adminEmail    string
	now           func() time.Time
}

func NewService(mailer domain.Mailer, publisher domain.Publisher, tasks Dispatcher, adminEmail string) *Service {
	return &Service{
		mailer:     mailer,
		publisher:  publisher,
		tasks:      tasks,
		adminEmail: adminEmail,
		now:        time.Now,
	}
}

// WithBroadcaster is set once the realtime hub exists.
func (s *Service) WithBroadcaster(b domain.Broadcaster) *Service {
	s.broadcaster = b
	return s
}

func (s *Service) WithConfirmationMarker(m ConfirmationMarker) *Service {
	s.confirmations = m
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) LeadCaptured(agent *agentDomain.Agent, lead *leadDomain.Lead) {
	s.dispatch(agent.ID, "notify.lead_captured", func(ctx context.Context) error {
		if s.adminEmail != "" {
			email, err := leadCapturedEmail(s.adminEmail, agent, lead)
			if err == nil {
				err = s.send(ctx, email)
			}
			if err != nil {
				logrus.WithError(err).WithField("lead_id", lead.ID).Warn("[MAIL] Lead notification failed")
			}
		}

		s.broadcast(agent.ID, "lead-captured", lead)
		s.publish(ctx, domain.EventLeadCaptured, agent.ID, lead)
		return nil
	})
}

func (s *Service) AppointmentBooked(agent *agentDomain.Agent, lead *leadDomain.Lead, appt *apptDomain.Appointment) {
	snapshot := *appt
	s.dispatch(agent.ID, "notify.appointment_booked", func(ctx context.Context) error {
		log := logrus.WithFields(logrus.Fields{"appointment_id": snapshot.ID, "agent_id": agent.ID})

		email, err := confirmationEmail(agent, lead, &snapshot, s.now())
		if err == nil {
			err = s.send(ctx, email)
		}
		if err != nil {
			log.WithError(err).Warn("[MAIL] Appointment confirmation failed")
		} else if s.confirmations != nil {
			if err := s.confirmations.MarkConfirmationSent(ctx, snapshot.ID); err != nil {
				log.WithError(err).Error("[MAIL] Failed to mark confirmation as sent")
			} else {
				snapshot.ConfirmationSent = true
			}
		}

		s.broadcast(agent.ID, "appointment-booked", snapshot)
		s.publish(ctx, domain.EventAppointmentBooked, agent.ID, snapshot)
		return nil
	})
}

func (s *Service) AppointmentCancelled(appt *apptDomain.Appointment) {
	snapshot := *appt
	s.dispatch(appt.AgentID, "notify.appointment_cancelled", func(ctx context.Context) error {
		s.broadcast(snapshot.AgentID, "appointment-cancelled", snapshot)
		s.publish(ctx, domain.EventAppointmentCancelled, snapshot.AgentID, snapshot)
		return nil
	})
}

// SendReminder is synchronous so the scheduler only marks delivered reminders.
func (s *Service) SendReminder(ctx context.Context, agent *agentDomain.Agent, lead *leadDomain.Lead, appt *apptDomain.Appointment) error {
	email, err := reminderEmail(agent, lead, appt, s.now())
	if err != nil {
		return err
	}
	if err := s.send(ctx, email); err != nil {
		return err
	}
	s.publish(ctx, domain.EventReminderSent, agent.ID, appt)
	return nil
}

func (s *Service) send(ctx context.Context, email domain.Email) error {
	if s.mailer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, mailTimeout)
	defer cancel()
	err := s.mailer.Send(ctx, email)
	metrics.RecordNotification("email", err)
	return err
}

func (s *Service) publish(ctx context.Context, eventType domain.EventType, agentID string, data any) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err := s.publisher.Publish(ctx, domain.Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		AgentID:    agentID,
		OccurredAt: s.now().UTC(),
		Data:       data,
	})
	metrics.RecordNotification("amqp", err)
	if err != nil {
		logrus.WithError(err).WithField("event", eventType).Warn("[QUEUE] Publish failed")
	}
}

func (s *Service) broadcast(agentID, event string, data any) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.BroadcastToAgent(agentID, event, data)
}

func (s *Service) dispatch(partition, name string, fn func(ctx context.Context) error) {
	task := taskpool.Task{Partition: partition, Name: name, Handler: fn}
	if s.tasks == nil {
		// no pool wired: run detached
		go func() { _ = fn(context.Background()) }()
		return
	}
	s.tasks.TryDispatch(task)
}
