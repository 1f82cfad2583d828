package domain

import (
	"fmt"
	"strings"
	"time"
)

type Product struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description,omitempty"`
}

type SalesConfig struct {
	Enabled             bool      `json:"enabled"`
	Products            []Product `json:"products"`
	SalesScript         string    `json:"salesScript"`
	QualifyingQuestions []string  `json:"qualifyingQuestions"`
}

// LeadField is one of the built-in contact fields an agent may require.
type LeadField string

const (
	LeadFieldName    LeadField = "name"
	LeadFieldEmail   LeadField = "email"
	LeadFieldPhone   LeadField = "phone"
	LeadFieldCompany LeadField = "company"
)

func (f LeadField) Valid() bool {
	switch f {
	case LeadFieldName, LeadFieldEmail, LeadFieldPhone, LeadFieldCompany:
		return true
	}
	return false
}

type CustomFieldType string

const (
	CustomFieldText   CustomFieldType = "text"
	CustomFieldNumber CustomFieldType = "number"
	CustomFieldEmail  CustomFieldType = "email"
	CustomFieldPhone  CustomFieldType = "phone"
	CustomFieldSelect CustomFieldType = "select"
)

type CustomFieldDef struct {
	Name     string          `json:"name"`
	Label    string          `json:"label,omitempty"`
	Type     CustomFieldType `json:"type"`
	Required bool            `json:"required"`
	Options  []string        `json:"options,omitempty"`
}

type LeadCaptureConfig struct {
	Enabled        bool             `json:"enabled"`
	RequiredFields []LeadField      `json:"requiredFields"`
	CustomFields   []CustomFieldDef `json:"customFields"`
}

func (c *LeadCaptureConfig) applyDefaults() {
	if c.RequiredFields == nil {
		c.RequiredFields = []LeadField{LeadFieldName, LeadFieldEmail}
	}
	if c.CustomFields == nil {
		c.CustomFields = []CustomFieldDef{}
	}
}

// Weekday keys used in WorkingHours, matching time.Weekday names in lower case.
const (
	Monday    = "monday"
	Tuesday   = "tuesday"
	Wednesday = "wednesday"
	Thursday  = "thursday"
	Friday    = "friday"
	Saturday  = "saturday"
	Sunday    = "sunday"
)

const DefaultAppointmentDuration = 30

type WorkingDay struct {
	Start   string `json:"start"` // HH:MM, agent local time
	End     string `json:"end"`
	Enabled bool   `json:"enabled"`
}

// Window parses the day's start and end as minutes after midnight.
func (d WorkingDay) Window() (startMin, endMin int, err error) {
	if startMin, err = parseClock(d.Start); err != nil {
		return 0, 0, err
	}
	if endMin, err = parseClock(d.End); err != nil {
		return 0, 0, err
	}
	return startMin, endMin, nil
}

type AppointmentConfig struct {
	Enabled      bool                  `json:"enabled"`
	Duration     int                   `json:"duration"`
	Timezone     string                `json:"timezone"`
	WorkingHours map[string]WorkingDay `json:"workingHours"`
}

func (c *AppointmentConfig) applyDefaults() {
	if c.Duration <= 0 {
		c.Duration = DefaultAppointmentDuration
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
}

// Location resolves Timezone, falling back to UTC when unset or unknown.
func (c AppointmentConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DayFor returns the configured working day for wd; ok is false when that weekday is not configured.
func (c AppointmentConfig) DayFor(wd time.Weekday) (WorkingDay, bool) {
	if len(c.WorkingHours) == 0 {
		return WorkingDay{}, false
	}
	day, ok := c.WorkingHours[strings.ToLower(wd.String())]
	return day, ok
}

type WidgetPosition string

const (
	PositionBottomRight WidgetPosition = "bottom-right"
	PositionBottomLeft  WidgetPosition = "bottom-left"
	PositionTopRight    WidgetPosition = "top-right"
	PositionTopLeft     WidgetPosition = "top-left"
)

type WidgetSize string

const (
	SizeSmall  WidgetSize = "small"
	SizeMedium WidgetSize = "medium"
	SizeLarge  WidgetSize = "large"
)

type WidgetTheme struct {
	PrimaryColor    string `json:"primaryColor"`
	BackgroundColor string `json:"backgroundColor"`
	TextColor       string `json:"textColor"`
}

type WidgetConfig struct {
	Theme    WidgetTheme    `json:"theme"`
	Position WidgetPosition `json:"position"`
	Size     WidgetSize     `json:"size"`
	Greeting string         `json:"greeting,omitempty"`
}

func (c *WidgetConfig) applyDefaults() {
	if c.Theme.PrimaryColor == "" {
		c.Theme.PrimaryColor = "#3b82f6"
	}
	if c.Theme.BackgroundColor == "" {
		c.Theme.BackgroundColor = "#ffffff"
	}
	if c.Theme.TextColor == "" {
		c.Theme.TextColor = "#000000"
	}
	if c.Position == "" {
		c.Position = PositionBottomRight
	}
	if c.Size == "" {
		c.Size = SizeMedium
	}
}

func parseClock(v string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", v)
	}
	return t.Hour()*60 + t.Minute(), nil
}
