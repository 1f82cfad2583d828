package repository

import (
	"context"
	"errors"
	"time"

	"github.com/AzielCF/az-agent/appointments/domain"
	"github.com/AzielCF/az-agent/pkg/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- Persistence Model ---

type appointmentModel struct {
	ID               string    `gorm:"primaryKey"`
	AgentID          string    `gorm:"index:idx_appointments_agent_time,priority:1;not null"`
	LeadID           string    `gorm:"index;not null"`
	ScheduledTime    time.Time `gorm:"index:idx_appointments_agent_time,priority:2;index:idx_appointments_status_time,priority:2;not null"`
	EndTime          time.Time `gorm:"not null"` // ScheduledTime + Duration, kept for range queries
	Duration         int       `gorm:"not null;default:30"`
	Status           string    `gorm:"index:idx_appointments_status_time,priority:1;not null;default:'scheduled'"`
	MeetingType      string    `gorm:"default:'video'"`
	MeetingLink      string
	Notes            string    `gorm:"type:text"`
	ReminderSent     bool      `gorm:"not null;default:false"`
	ConfirmationSent bool      `gorm:"not null;default:false"`
	CreatedAt        time.Time `gorm:"not null"`
	UpdatedAt        time.Time `gorm:"not null"`
}

func (appointmentModel) TableName() string {
	return "appointments"
}

// --- Repository Implementation ---

type AppointmentGormRepository struct {
	db *gorm.DB
}

func NewAppointmentGormRepository(db *gorm.DB) *AppointmentGormRepository {
	return &AppointmentGormRepository{db: db}
}

func (r *AppointmentGormRepository) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&appointmentModel{})
}

// lockAgent serializes booking transactions of one agent. Postgres takes a
// transaction-scoped advisory lock; SQLite runs on a single connection, so every
// transaction is already exclusive.
func lockAgent(tx *gorm.DB, agentID string) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	return tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", agentID).Error
}

func overlapQuery(tx *gorm.DB, agentID string, start, end time.Time) *gorm.DB {
	return tx.Model(&appointmentModel{}).
		Where("agent_id = ?", agentID).
		Where("status <> ?", string(domain.StatusCancelled)).
		Where("scheduled_time < ? AND end_time > ?", end, start)
}

func (r *AppointmentGormRepository) CreateIfNoOverlap(ctx context.Context, appt *domain.Appointment) error {
	if appt.ID == "" {
		appt.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if appt.CreatedAt.IsZero() {
		appt.CreatedAt = now
	}
	appt.UpdatedAt = now
	model := toAppointmentModel(appt)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockAgent(tx, appt.AgentID); err != nil {
			return err
		}

		var conflicts int64
		if err := overlapQuery(tx, model.AgentID, model.ScheduledTime, model.EndTime).
			Count(&conflicts).Error; err != nil {
			return err
		}
		if conflicts > 0 {
			return domain.ErrSlotTaken
		}

		return tx.Select("*").Create(&model).Error
	})
}

func (r *AppointmentGormRepository) UpdateIfNoOverlap(ctx context.Context, appt *domain.Appointment) error {
	appt.UpdatedAt = time.Now().UTC()
	model := toAppointmentModel(appt)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockAgent(tx, appt.AgentID); err != nil {
			return err
		}

		if appt.Blocks() {
			var conflicts int64
			if err := overlapQuery(tx, model.AgentID, model.ScheduledTime, model.EndTime).
				Where("id <> ?", model.ID).
				Count(&conflicts).Error; err != nil {
				return err
			}
			if conflicts > 0 {
				return domain.ErrSlotTaken
			}
		}

		result := tx.Model(&appointmentModel{ID: model.ID}).
			Select("scheduled_time", "end_time", "duration", "status", "meeting_type",
				"meeting_link", "notes", "reminder_sent", "confirmation_sent", "updated_at").
			Updates(&model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrAppointmentNotFound
		}
		return nil
	})
}

func (r *AppointmentGormRepository) GetByID(ctx context.Context, id string) (*domain.Appointment, error) {
	var m appointmentModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAppointmentNotFound
		}
		return nil, err
	}
	return fromAppointmentModel(m), nil
}

func (r *AppointmentGormRepository) List(ctx context.Context, filter domain.AppointmentFilter) ([]*domain.Appointment, int64, error) {
	query := r.db.WithContext(ctx).Model(&appointmentModel{})
	if filter.AgentID != "" {
		query = query.Where("agent_id = ?", filter.AgentID)
	}
	if filter.LeadID != "" {
		query = query.Where("lead_id = ?", filter.LeadID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.StartDate != nil {
		query = query.Where("scheduled_time >= ?", filter.StartDate.UTC())
	}
	if filter.EndDate != nil {
		query = query.Where("scheduled_time <= ?", filter.EndDate.UTC())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := utils.NormalizePage(filter.Page, filter.Limit)
	var models []appointmentModel
	if err := query.Order("scheduled_time ASC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&models).Error; err != nil {
		return nil, 0, err
	}
	return fromAppointmentModels(models), total, nil
}

func (r *AppointmentGormRepository) ListBlocking(ctx context.Context, agentID string, from, to time.Time) ([]*domain.Appointment, error) {
	var models []appointmentModel
	if err := overlapQuery(r.db.WithContext(ctx), agentID, from.UTC(), to.UTC()).
		Order("scheduled_time ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	return fromAppointmentModels(models), nil
}

func (r *AppointmentGormRepository) DueForReminder(ctx context.Context, from, to time.Time) ([]*domain.Appointment, error) {
	var models []appointmentModel
	err := r.db.WithContext(ctx).
		Where("status IN ?", []string{string(domain.StatusScheduled), string(domain.StatusConfirmed)}).
		Where("reminder_sent = ?", false).
		Where("scheduled_time >= ? AND scheduled_time < ?", from.UTC(), to.UTC()).
		Order("scheduled_time ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return fromAppointmentModels(models), nil
}

func (r *AppointmentGormRepository) MarkReminderSent(ctx context.Context, id string) error {
	return r.setFlag(ctx, id, "reminder_sent")
}

func (r *AppointmentGormRepository) MarkConfirmationSent(ctx context.Context, id string) error {
	return r.setFlag(ctx, id, "confirmation_sent")
}

func (r *AppointmentGormRepository) setFlag(ctx context.Context, id, column string) error {
	result := r.db.WithContext(ctx).Model(&appointmentModel{}).Where("id = ?", id).
		UpdateColumn(column, true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrAppointmentNotFound
	}
	return nil
}

// Mappers

func toAppointmentModel(a *domain.Appointment) appointmentModel {
	start := a.ScheduledTime.UTC()
	return appointmentModel{
		ID:               a.ID,
		AgentID:          a.AgentID,
		LeadID:           a.LeadID,
		ScheduledTime:    start,
		EndTime:          start.Add(time.Duration(a.Duration) * time.Minute),
		Duration:         a.Duration,
		Status:           string(a.Status),
		MeetingType:      string(a.MeetingType),
		MeetingLink:      a.MeetingLink,
		Notes:            a.Notes,
		ReminderSent:     a.ReminderSent,
		ConfirmationSent: a.ConfirmationSent,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func fromAppointmentModel(m appointmentModel) *domain.Appointment {
	return &domain.Appointment{
		ID:               m.ID,
		AgentID:          m.AgentID,
		LeadID:           m.LeadID,
		ScheduledTime:    m.ScheduledTime.UTC(),
		Duration:         m.Duration,
		Status:           domain.Status(m.Status),
		MeetingType:      domain.MeetingType(m.MeetingType),
		MeetingLink:      m.MeetingLink,
		Notes:            m.Notes,
		ReminderSent:     m.ReminderSent,
		ConfirmationSent: m.ConfirmationSent,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func fromAppointmentModels(models []appointmentModel) []*domain.Appointment {
	out := make([]*domain.Appointment, 0, len(models))
	for _, m := range models {
		out = append(out, fromAppointmentModel(m))
	}
	return out
}
