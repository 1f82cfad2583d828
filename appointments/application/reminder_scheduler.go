package application

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AzielCF/az-agent/appointments/domain"
	"github.com/sirupsen/logrus"
)

// ReminderScheduler periodically sends reminders for appointments starting within the window.
type ReminderScheduler struct {
	agents   AgentDirectory
	leads    LeadDirectory
	repo     domain.AppointmentRepository
	sender   ReminderSender
	interval time.Duration
	window   time.Duration
	now      func() time.Time

	started  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewReminderScheduler(agents AgentDirectory, leads LeadDirectory, repo domain.AppointmentRepository, sender ReminderSender, interval, window time.Duration) *ReminderScheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &ReminderScheduler{
		agents:   agents,
		leads:    leads,
		repo:     repo,
		sender:   sender,
		interval: interval,
		window:   window,
		now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

func (r *ReminderScheduler) WithClock(now func() time.Time) *ReminderScheduler {
	r.now = now
	return r
}

// Start runs the scheduler loop until ctx ends or Stop is called.
func (r *ReminderScheduler) Start(ctx context.Context) {
	if !r.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(r.doneCh)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		logrus.Infof("[REMINDERS] Scheduler started (interval=%s, window=%s)", r.interval, r.window)
		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stopCh:
				return
			case <-ticker.C:
				if _, err := r.RunOnce(ctx); err != nil {
					logrus.WithError(err).Error("[REMINDERS] Run failed")
				}
			}
		}
	}()
}

func (r *ReminderScheduler) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
		if r.started.Load() {
			<-r.doneCh
		}
	})
}

// RunOnce sends every due reminder and returns how many were delivered.
// An appointment whose reminder fails stays pending for the next run.
func (r *ReminderScheduler) RunOnce(ctx context.Context) (int, error) {
	now := r.now()
	due, err := r.repo.DueForReminder(ctx, now, now.Add(r.window))
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, appt := range due {
		log := logrus.WithFields(logrus.Fields{"appointment_id": appt.ID, "agent_id": appt.AgentID})

		agent, err := r.agents.GetActive(ctx, appt.AgentID)
		if err != nil {
			log.WithError(err).Debug("[REMINDERS] Skipping appointment of unavailable agent")
			continue
		}
		lead, err := r.leads.GetByID(ctx, appt.LeadID)
		if err != nil {
			log.WithError(err).Warn("[REMINDERS] Lead not found")
			continue
		}
		if err := r.sender.SendReminder(ctx, agent, lead, appt); err != nil {
			log.WithError(err).Warn("[REMINDERS] Failed to send reminder")
			continue
		}
		if err := r.repo.MarkReminderSent(ctx, appt.ID); err != nil {
			log.WithError(err).Error("[REMINDERS] Failed to mark reminder as sent")
			continue
		}
		sent++
	}

	if sent > 0 {
		logrus.Infof("[REMINDERS] Sent %d reminder(s)", sent)
	}
	return sent, nil
}
