package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/AzielCF/az-agent/agents/domain"
	"github.com/AzielCF/az-agent/core/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- Persistence Model ---

type agentModel struct {
	ID                 string    `gorm:"primaryKey"`
	OwnerID            string    `gorm:"index:idx_agents_owner_active,priority:1;not null"`
	Name               string    `gorm:"not null"`
	Description        string
	Avatar             string    `gorm:"type:text;default:'{}'"` // JSON
	Personality        string
	Language           string    `gorm:"default:'en'"`
	SalesConfig        string    `gorm:"type:text;default:'{}'"` // JSON
	LeadCapture        string    `gorm:"type:text;default:'{}'"` // JSON
	AppointmentConfig  string    `gorm:"type:text;default:'{}'"` // JSON
	WidgetConfig       string    `gorm:"type:text;default:'{}'"` // JSON
	TotalConversations int64     `gorm:"not null;default:0"`
	TotalLeads         int64     `gorm:"not null;default:0"`
	TotalAppointments  int64     `gorm:"not null;default:0"`
	IsActive           bool      `gorm:"index:idx_agents_owner_active,priority:2;default:true"`
	CreatedAt          time.Time `gorm:"not null"`
	UpdatedAt          time.Time `gorm:"not null"`
}

func (agentModel) TableName() string {
	return "agents"
}

// --- Repository Implementation ---

type AgentGormRepository struct {
	db *gorm.DB
}

func NewAgentGormRepository(db *gorm.DB) *AgentGormRepository {
	return &AgentGormRepository{db: db}
}

func (r *AgentGormRepository) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&agentModel{})
}

func (r *AgentGormRepository) Create(ctx context.Context, agent *domain.Agent) error {
	if agent.ID == "" {
		agent.ID = uuid.New().String()
	}
	now := time.Now()
	if agent.CreatedAt.IsZero() {
		agent.CreatedAt = now
	}
	agent.UpdatedAt = now

	model, err := toAgentModel(agent)
	if err != nil {
		return err
	}
	// IsActive=false would be swallowed by the column default on insert
	if err := r.db.WithContext(ctx).Select("*").Create(&model).Error; err != nil {
		if database.IsDuplicateKey(err) {
			return domain.ErrAgentExists
		}
		return err
	}
	return nil
}

func (r *AgentGormRepository) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	var m agentModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAgentNotFound
		}
		return nil, err
	}
	return fromAgentModel(m)
}

// Update rewrites the editable columns. Analytics counters are left untouched so an
// admin edit never rolls back concurrent increments.
func (r *AgentGormRepository) Update(ctx context.Context, agent *domain.Agent) error {
	agent.UpdatedAt = time.Now()
	model, err := toAgentModel(agent)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Model(&agentModel{ID: agent.ID}).
		Select("owner_id", "name", "description", "avatar", "personality", "language",
			"sales_config", "lead_capture", "appointment_config", "widget_config", "is_active", "updated_at").
		Updates(&model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrAgentNotFound
	}
	return nil
}

func (r *AgentGormRepository) SetActive(ctx context.Context, id string, active bool) error {
	result := r.db.WithContext(ctx).Model(&agentModel{}).Where("id = ?", id).
		Updates(map[string]any{"is_active": active, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrAgentNotFound
	}
	return nil
}

func (r *AgentGormRepository) List(ctx context.Context, filter domain.AgentFilter) ([]*domain.Agent, error) {
	query := r.db.WithContext(ctx).Model(&agentModel{})
	if filter.OwnerID != "" {
		query = query.Where("owner_id = ?", filter.OwnerID)
	}
	if !filter.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var models []agentModel
	if err := query.Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}

	agents := make([]*domain.Agent, 0, len(models))
	for _, m := range models {
		a, err := fromAgentModel(m)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return agents, nil
}

func (r *AgentGormRepository) IncrementAnalytics(ctx context.Context, id string, delta domain.AnalyticsDelta) error {
	updates := map[string]any{}
	if delta.Conversations != 0 {
		updates["total_conversations"] = gorm.Expr("total_conversations + ?", delta.Conversations)
	}
	if delta.Leads != 0 {
		updates["total_leads"] = gorm.Expr("total_leads + ?", delta.Leads)
	}
	if delta.Appointments != 0 {
		updates["total_appointments"] = gorm.Expr("total_appointments + ?", delta.Appointments)
	}
	if len(updates) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).Model(&agentModel{}).Where("id = ?", id).UpdateColumns(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrAgentNotFound
	}
	return nil
}

// Mappers

func toAgentModel(a *domain.Agent) (agentModel, error) {
	avatar, err := json.Marshal(a.Avatar)
	if err != nil {
		return agentModel{}, fmt.Errorf("marshal avatar: %w", err)
	}
	sales, err := json.Marshal(a.SalesConfig)
	if err != nil {
		return agentModel{}, fmt.Errorf("marshal sales config: %w", err)
	}
	lead, err := json.Marshal(a.LeadCapture)
	if err != nil {
		return agentModel{}, fmt.Errorf("marshal lead capture: %w", err)
	}
	appt, err := json.Marshal(a.AppointmentConfig)
	if err != nil {
		return agentModel{}, fmt.Errorf("marshal appointment config: %w", err)
	}
	widget, err := json.Marshal(a.WidgetConfig)
	if err != nil {
		return agentModel{}, fmt.Errorf("marshal widget config: %w", err)
	}

	return agentModel{
		ID:                 a.ID,
		OwnerID:            a.OwnerID,
		Name:               a.Name,
		Description:        a.Description,
		Avatar:             string(avatar),
		Personality:        a.Personality,
		Language:           string(a.Language),
		SalesConfig:        string(sales),
		LeadCapture:        string(lead),
		AppointmentConfig:  string(appt),
		WidgetConfig:       string(widget),
		TotalConversations: a.Analytics.TotalConversations,
		TotalLeads:         a.Analytics.TotalLeads,
		TotalAppointments:  a.Analytics.TotalAppointments,
		IsActive:           a.IsActive,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}, nil
}

func fromAgentModel(m agentModel) (*domain.Agent, error) {
	a := &domain.Agent{
		ID:          m.ID,
		OwnerID:     m.OwnerID,
		Name:        m.Name,
		Description: m.Description,
		Personality: m.Personality,
		Language:    domain.Language(m.Language),
		Analytics: domain.Analytics{
			TotalConversations: m.TotalConversations,
			TotalLeads:         m.TotalLeads,
			TotalAppointments:  m.TotalAppointments,
		},
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	a.Analytics.ConversionRate = a.Analytics.ComputeConversionRate()

	blobs := []struct {
		raw    string
		target any
	}{
		{m.Avatar, &a.Avatar},
		{m.SalesConfig, &a.SalesConfig},
		{m.LeadCapture, &a.LeadCapture},
		{m.AppointmentConfig, &a.AppointmentConfig},
		{m.WidgetConfig, &a.WidgetConfig},
	}
	for _, b := range blobs {
		if b.raw == "" {
			continue
		}
		if err := json.Unmarshal([]byte(b.raw), b.target); err != nil {
			return nil, fmt.Errorf("decode agent %s config: %w", m.ID, err)
		}
	}
	a.ApplyDefaults()
	return a, nil
}
