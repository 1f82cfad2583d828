package rest

import "github.com/AzielCF/az-agent/agents/domain"

// CreateAgentRequest is the body of POST /agents.
type CreateAgentRequest struct {
	OwnerID           string                   `json:"ownerId"`
	Name              string                   `json:"name"`
	Description       string                   `json:"description"`
	Avatar            domain.Avatar            `json:"avatar"`
	Personality       string                   `json:"personality"`
	Language          string                   `json:"language"`
	SalesConfig       domain.SalesConfig       `json:"salesConfig"`
	LeadCapture       domain.LeadCaptureConfig `json:"leadCapture"`
	AppointmentConfig domain.AppointmentConfig `json:"appointmentConfig"`
	WidgetConfig      domain.WidgetConfig      `json:"widgetConfig"`
}

func (r CreateAgentRequest) toDomain() *domain.Agent {
	return &domain.Agent{
		OwnerID:           r.OwnerID,
		Name:              r.Name,
		Description:       r.Description,
		Avatar:            r.Avatar,
		Personality:       r.Personality,
		Language:          domain.Language(r.Language),
		SalesConfig:       r.SalesConfig,
		LeadCapture:       r.LeadCapture,
		AppointmentConfig: r.AppointmentConfig,
		WidgetConfig:      r.WidgetConfig,
	}
}

// UpdateAgentRequest is the body of PUT /agents/:id. Nil fields are left unchanged.
type UpdateAgentRequest struct {
	Name              *string                   `json:"name"`
	Description       *string                   `json:"description"`
	Avatar            *domain.Avatar            `json:"avatar"`
	Personality       *string                   `json:"personality"`
	Language          *string                   `json:"language"`
	SalesConfig       *domain.SalesConfig       `json:"salesConfig"`
	LeadCapture       *domain.LeadCaptureConfig `json:"leadCapture"`
	AppointmentConfig *domain.AppointmentConfig `json:"appointmentConfig"`
	WidgetConfig      *domain.WidgetConfig      `json:"widgetConfig"`
	IsActive          *bool                     `json:"isActive"`
}

func (r UpdateAgentRequest) apply(a *domain.Agent) {
	if r.Name != nil {
		a.Name = *r.Name
	}
	if r.Description != nil {
		a.Description = *r.Description
	}
	if r.Avatar != nil {
		a.Avatar = *r.Avatar
	}
	if r.Personality != nil {
		a.Personality = *r.Personality
	}
	if r.Language != nil {
		a.Language = domain.Language(*r.Language)
	}
	if r.SalesConfig != nil {
		a.SalesConfig = *r.SalesConfig
	}
	if r.LeadCapture != nil {
		a.LeadCapture = *r.LeadCapture
	}
	if r.AppointmentConfig != nil {
		a.AppointmentConfig = *r.AppointmentConfig
	}
	if r.WidgetConfig != nil {
		a.WidgetConfig = *r.WidgetConfig
	}
	if r.IsActive != nil {
		a.IsActive = *r.IsActive
	}
}

// WidgetResponse is the public subset of an agent served to embedding sites.
type WidgetResponse struct {
	AgentID        string              `json:"agentId"`
	Name           string              `json:"name"`
	Avatar         domain.Avatar       `json:"avatar"`
	Language       domain.Language     `json:"language"`
	WidgetConfig   domain.WidgetConfig `json:"widgetConfig"`
	LeadCapture    bool                `json:"leadCapture"`
	Appointments   bool                `json:"appointments"`
	AppointmentMin int                 `json:"appointmentDuration"`
}
