package application

import (
	"context"
	"errors"
	"time"

	"github.com/AzielCF/az-agent/appointments/domain"
	"github.com/AzielCF/az-agent/pkg/metrics"
	"github.com/AzielCF/az-agent/pkg/utils"
	"github.com/sirupsen/logrus"
)

// BookingService owns the appointment lifecycle. Check-and-insert is delegated to the
// repository, which serializes it per agent inside a transaction.
type BookingService struct {
	agents   AgentDirectory
	leads    LeadDirectory
	repo     domain.AppointmentRepository
	locker   Locker
	notifier Notifier
	now      func() time.Time
}

func NewBookingService(agents AgentDirectory, leads LeadDirectory, repo domain.AppointmentRepository, notifier Notifier) *BookingService {
	return &BookingService{
		agents:   agents,
		leads:    leads,
		repo:     repo,
		notifier: notifier,
		now:      time.Now,
	}
}

// WithLocker adds a distributed per-agent lock around booking writes.
func (s *BookingService) WithLocker(locker Locker) *BookingService {
	s.locker = locker
	return s
}

func (s *BookingService) WithClock(now func() time.Time) *BookingService {
	s.now = now
	return s
}

// BookSlot books [req.Start, req.Start+duration) for the lead, or fails with
// domain.ErrSlotTaken when the agent already has a blocking appointment there.
func (s *BookingService) BookSlot(ctx context.Context, req domain.BookingRequest) (*domain.Appointment, error) {
	if req.AgentID == "" || req.LeadID == "" || req.Start.IsZero() {
		return nil, domain.ErrBookingFieldsMissing
	}
	if req.Duration < 0 {
		return nil, domain.ErrInvalidDuration
	}
	if req.MeetingType == "" {
		req.MeetingType = domain.MeetingVideo
	}
	if !req.MeetingType.Valid() {
		return nil, domain.ErrInvalidMeetingType
	}

	agent, err := s.agents.GetActive(ctx, req.AgentID)
	if err != nil {
		return nil, err
	}
	lead, err := s.leads.GetByID(ctx, req.LeadID)
	if err != nil {
		return nil, err
	}
	if lead.AgentID != agent.ID {
		return nil, domain.ErrLeadAgentMismatch
	}

	start := req.Start.UTC().Truncate(time.Second)
	if !start.After(s.now()) {
		return nil, domain.ErrStartInPast
	}
	duration := req.Duration
	if duration == 0 {
		duration = agent.AppointmentConfig.Duration
	}
	if duration <= 0 {
		duration = domain.DefaultDuration
	}

	appt := &domain.Appointment{
		AgentID:       agent.ID,
		LeadID:        lead.ID,
		ScheduledTime: start,
		Duration:      duration,
		Status:        domain.StatusScheduled,
		MeetingType:   req.MeetingType,
		MeetingLink:   req.MeetingLink,
		Notes:         req.Notes,
	}

	release := s.lock(ctx, agent.ID)
	err = s.repo.CreateIfNoOverlap(ctx, appt)
	release()
	if err != nil {
		if errors.Is(err, domain.ErrSlotTaken) {
			metrics.RecordBooking("conflict")
			logrus.WithFields(logrus.Fields{"agent_id": agent.ID, "start": start}).Info("[BOOKING] Slot already taken")
		}
		return nil, err
	}
	metrics.RecordBooking("booked")

	if err := s.agents.RecordAppointment(ctx, agent.ID); err != nil {
		logrus.WithError(err).WithField("agent_id", agent.ID).Warn("[BOOKING] Failed to increment appointment counter")
	}
	if s.notifier != nil {
		s.notifier.AppointmentBooked(agent, lead, appt)
	}

	logrus.WithFields(logrus.Fields{
		"appointment_id": appt.ID,
		"agent_id":       agent.ID,
		"start":          start.Format(time.RFC3339),
		"duration":       duration,
	}).Info("[BOOKING] Appointment booked")
	return appt, nil
}

// Cancel frees the appointment's slot. Cancelling twice is a no-op.
func (s *BookingService) Cancel(ctx context.Context, id string) (*domain.Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status == domain.StatusCancelled {
		return appt, nil
	}
	if !appt.Status.CanTransitionTo(domain.StatusCancelled) {
		return nil, domain.ErrInvalidTransition
	}

	appt.Status = domain.StatusCancelled
	if err := s.repo.UpdateIfNoOverlap(ctx, appt); err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.AppointmentCancelled(appt)
	}

	logrus.WithFields(logrus.Fields{"appointment_id": id, "agent_id": appt.AgentID}).Info("[BOOKING] Appointment cancelled")
	return appt, nil
}

// Update applies req. Rescheduling re-runs the overlap check against the agent's other appointments.
func (s *BookingService) Update(ctx context.Context, id string, req domain.UpdateRequest) (*domain.Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	rescheduled := req.ScheduledTime != nil || req.Duration != nil
	if rescheduled && appt.Status.Terminal() {
		return nil, domain.ErrImmutable
	}

	if req.Status != nil {
		if !req.Status.Valid() || !appt.Status.CanTransitionTo(*req.Status) {
			return nil, domain.ErrInvalidTransition
		}
		appt.Status = *req.Status
	}
	if req.ScheduledTime != nil {
		start := req.ScheduledTime.UTC().Truncate(time.Second)
		if !start.After(s.now()) {
			return nil, domain.ErrStartInPast
		}
		if !start.Equal(appt.ScheduledTime) {
			appt.ReminderSent = false
		}
		appt.ScheduledTime = start
	}
	if req.Duration != nil {
		if *req.Duration <= 0 {
			return nil, domain.ErrInvalidDuration
		}
		appt.Duration = *req.Duration
	}
	if req.MeetingType != nil {
		if !req.MeetingType.Valid() {
			return nil, domain.ErrInvalidMeetingType
		}
		appt.MeetingType = *req.MeetingType
	}
	if req.MeetingLink != nil {
		appt.MeetingLink = *req.MeetingLink
	}
	if req.Notes != nil {
		appt.Notes = *req.Notes
	}

	release := s.lock(ctx, appt.AgentID)
	err = s.repo.UpdateIfNoOverlap(ctx, appt)
	release()
	if err != nil {
		return nil, err
	}

	if appt.Status == domain.StatusCancelled && s.notifier != nil {
		s.notifier.AppointmentCancelled(appt)
	}
	return appt, nil
}

func (s *BookingService) GetByID(ctx context.Context, id string) (*domain.Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

// List pages through appointments ordered by start time. Either agentId or leadId is required.
func (s *BookingService) List(ctx context.Context, filter domain.AppointmentFilter) (*domain.AppointmentPage, error) {
	if filter.AgentID == "" && filter.LeadID == "" {
		return nil, domain.ErrAgentIDRequired
	}
	filter.Page, filter.Limit = utils.NormalizePage(filter.Page, filter.Limit)

	appts, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &domain.AppointmentPage{
		Appointments: appts,
		Pagination:   utils.NewPagination(filter.Page, filter.Limit, total),
	}, nil
}

// lock takes the optional distributed lock. A lock failure is logged and the
// booking proceeds on the database serialization alone.
func (s *BookingService) lock(ctx context.Context, agentID string) func() {
	if s.locker == nil {
		return func() {}
	}
	release, err := s.locker.Acquire(ctx, "booking:"+agentID)
	if err != nil {
		logrus.WithError(err).WithField("agent_id", agentID).Warn("[BOOKING] Distributed lock unavailable, relying on database lock")
		return func() {}
	}
	return release
}
