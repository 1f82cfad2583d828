package domain

import "time"

type Language string

const (
	LanguageHebrew  Language = "he"
	LanguageEnglish Language = "en"
	LanguageArabic  Language = "ar"
)

// Valid reports whether l is one of the supported languages.
func (l Language) Valid() bool {
	switch l {
	case LanguageHebrew, LanguageEnglish, LanguageArabic:
		return true
	}
	return false
}

type AvatarType string

const (
	AvatarGallery   AvatarType = "gallery"
	AvatarCustom    AvatarType = "custom"
	AvatarGenerated AvatarType = "generated"
)

const (
	DefaultAvatarID    = "avatar-001"
	DefaultPersonality = "friendly and helpful"
	DefaultOwnerID     = "default-user"
)

type Avatar struct {
	Type         AvatarType `json:"type"`
	BaseAvatarID string     `json:"baseAvatarId"`
	ModelURL     string     `json:"modelUrl,omitempty"`
}

// Analytics are maintained by atomic increments; ConversionRate is derived on read.
type Analytics struct {
	TotalConversations int64   `json:"totalConversations"`
	TotalLeads         int64   `json:"totalLeads"`
	TotalAppointments  int64   `json:"totalAppointments"`
	ConversionRate     float64 `json:"conversionRate"`
}

// ComputeConversionRate returns leads per conversation as a percentage.
func (a Analytics) ComputeConversionRate() float64 {
	if a.TotalConversations <= 0 {
		return 0
	}
	return float64(a.TotalLeads) / float64(a.TotalConversations) * 100
}

// AnalyticsDelta is applied with a single UPDATE so concurrent increments never race.
type AnalyticsDelta struct {
	Conversations int64
	Leads         int64
	Appointments  int64
}

type Agent struct {
	ID                string            `json:"id"`
	OwnerID           string            `json:"ownerId"`
	Name              string            `json:"name"`
	Description       string            `json:"description"`
	Avatar            Avatar            `json:"avatar"`
	Personality       string            `json:"personality"`
	Language          Language          `json:"language"`
	SalesConfig       SalesConfig       `json:"salesConfig"`
	LeadCapture       LeadCaptureConfig `json:"leadCapture"`
	AppointmentConfig AppointmentConfig `json:"appointmentConfig"`
	WidgetConfig      WidgetConfig      `json:"widgetConfig"`
	Analytics         Analytics         `json:"analytics"`
	IsActive          bool              `json:"isActive"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// ApplyDefaults fills the zero-valued presentation and behaviour settings.
func (a *Agent) ApplyDefaults() {
	if a.OwnerID == "" {
		a.OwnerID = DefaultOwnerID
	}
	if a.Avatar.Type == "" {
		a.Avatar.Type = AvatarGallery
	}
	if a.Avatar.BaseAvatarID == "" {
		a.Avatar.BaseAvatarID = DefaultAvatarID
	}
	if a.Personality == "" {
		a.Personality = DefaultPersonality
	}
	if a.Language == "" {
		a.Language = LanguageEnglish
	}
	a.LeadCapture.applyDefaults()
	a.AppointmentConfig.applyDefaults()
	a.WidgetConfig.applyDefaults()
}

type AgentFilter struct {
	OwnerID         string
	IncludeInactive bool
	Limit           int
	Offset          int
}
