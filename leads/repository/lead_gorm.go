package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/AzielCF/az-agent/leads/domain"
	"github.com/AzielCF/az-agent/pkg/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- Persistence Models ---

type leadModel struct {
	ID           string    `gorm:"primaryKey"`
	AgentID      string    `gorm:"index:idx_leads_agent_status,priority:1;not null"`
	Name         string    `gorm:"not null"`
	Email        string    `gorm:"index;not null"`
	Phone        string
	Company      string
	CustomFields string    `gorm:"type:text"` // JSON
	Status       string    `gorm:"index:idx_leads_agent_status,priority:2;default:'new'"`
	Source       string    `gorm:"default:'widget'"`
	Tags         string    `gorm:"type:text"` // JSON
	Notes        string    `gorm:"type:text"`
	LastContact  time.Time
	CreatedAt    time.Time `gorm:"index;not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (leadModel) TableName() string {
	return "leads"
}

// conversationEntryModel keeps history as rows so concurrent appends never overwrite each other.
type conversationEntryModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	LeadID    string    `gorm:"index:idx_lead_entries_lead_ts,priority:1;not null"`
	Timestamp time.Time `gorm:"index:idx_lead_entries_lead_ts,priority:2;not null"`
	Message   string    `gorm:"type:text"`
	Sender    string
	Intent    string
}

func (conversationEntryModel) TableName() string {
	return "lead_conversation_entries"
}

// --- Repository Implementation ---

type LeadGormRepository struct {
	db *gorm.DB
}

func NewLeadGormRepository(db *gorm.DB) *LeadGormRepository {
	return &LeadGormRepository{db: db}
}

func (r *LeadGormRepository) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&leadModel{}, &conversationEntryModel{})
}

func (r *LeadGormRepository) Create(ctx context.Context, lead *domain.Lead) error {
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = now
	}
	lead.UpdatedAt = now

	model, err := toLeadModel(lead)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		if len(lead.ConversationHistory) == 0 {
			return nil
		}
		entries := make([]conversationEntryModel, 0, len(lead.ConversationHistory))
		for _, e := range lead.ConversationHistory {
			entries = append(entries, toEntryModel(lead.ID, e))
		}
		return tx.Create(&entries).Error
	})
}

func (r *LeadGormRepository) GetByID(ctx context.Context, id string) (*domain.Lead, error) {
	var m leadModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLeadNotFound
		}
		return nil, err
	}

	lead, err := fromLeadModel(m)
	if err != nil {
		return nil, err
	}

	var entries []conversationEntryModel
	if err := r.db.WithContext(ctx).
		Where("lead_id = ?", id).
		Order("timestamp ASC, id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	for _, e := range entries {
		lead.ConversationHistory = append(lead.ConversationHistory, domain.ConversationEntry{
			Timestamp: e.Timestamp,
			Message:   e.Message,
			Sender:    domain.Sender(e.Sender),
			Intent:    e.Intent,
		})
	}
	return lead, nil
}

func (r *LeadGormRepository) Update(ctx context.Context, lead *domain.Lead) error {
	lead.UpdatedAt = time.Now().UTC()
	model, err := toLeadModel(lead)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Model(&leadModel{ID: lead.ID}).
		Select("name", "email", "phone", "company", "custom_fields", "status",
			"tags", "notes", "last_contact", "updated_at").
		Updates(&model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrLeadNotFound
	}
	return nil
}

func (r *LeadGormRepository) List(ctx context.Context, filter domain.LeadFilter) ([]*domain.Lead, int64, error) {
	query := r.db.WithContext(ctx).Model(&leadModel{}).Where("agent_id = ?", filter.AgentID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := utils.NormalizePage(filter.Page, filter.Limit)
	var models []leadModel
	if err := query.Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&models).Error; err != nil {
		return nil, 0, err
	}

	leads := make([]*domain.Lead, 0, len(models))
	for _, m := range models {
		l, err := fromLeadModel(m)
		if err != nil {
			return nil, 0, err
		}
		leads = append(leads, l)
	}
	return leads, total, nil
}

func (r *LeadGormRepository) AppendConversation(ctx context.Context, leadID string, entry domain.ConversationEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&leadModel{}).Where("id = ?", leadID).
			Updates(map[string]any{"last_contact": entry.Timestamp, "updated_at": time.Now().UTC()})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrLeadNotFound
		}
		row := toEntryModel(leadID, entry)
		return tx.Create(&row).Error
	})
}

// Mappers

func toLeadModel(l *domain.Lead) (leadModel, error) {
	customFields, err := json.Marshal(nonNil(l.CustomFields))
	if err != nil {
		return leadModel{}, fmt.Errorf("marshal custom fields: %w", err)
	}
	tags, err := json.Marshal(nonNil(l.Tags))
	if err != nil {
		return leadModel{}, fmt.Errorf("marshal tags: %w", err)
	}

	return leadModel{
		ID:           l.ID,
		AgentID:      l.AgentID,
		Name:         l.ContactInfo.Name,
		Email:        l.ContactInfo.Email,
		Phone:        l.ContactInfo.Phone,
		Company:      l.ContactInfo.Company,
		CustomFields: string(customFields),
		Status:       string(l.Status),
		Source:       l.Source,
		Tags:         string(tags),
		Notes:        l.Notes,
		LastContact:  l.LastContact,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}, nil
}

func fromLeadModel(m leadModel) (*domain.Lead, error) {
	lead := &domain.Lead{
		ID:      m.ID,
		AgentID: m.AgentID,
		ContactInfo: domain.ContactInfo{
			Name:    m.Name,
			Email:   m.Email,
			Phone:   m.Phone,
			Company: m.Company,
		},
		CustomFields:        []domain.CustomFieldValue{},
		ConversationHistory: []domain.ConversationEntry{},
		Status:              domain.Status(m.Status),
		Source:              m.Source,
		Tags:                []string{},
		Notes:               m.Notes,
		LastContact:         m.LastContact,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
	if m.CustomFields != "" {
		if err := json.Unmarshal([]byte(m.CustomFields), &lead.CustomFields); err != nil {
			return nil, fmt.Errorf("unmarshal custom fields for lead %s: %w", m.ID, err)
		}
	}
	if m.Tags != "" {
		if err := json.Unmarshal([]byte(m.Tags), &lead.Tags); err != nil {
			return nil, fmt.Errorf("unmarshal tags for lead %s: %w", m.ID, err)
		}
	}
	return lead, nil
}

func toEntryModel(leadID string, e domain.ConversationEntry) conversationEntryModel {
	return conversationEntryModel{
		LeadID:    leadID,
		Timestamp: e.Timestamp,
		Message:   e.Message,
		Sender:    string(e.Sender),
		Intent:    e.Intent,
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
