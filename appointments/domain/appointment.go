package domain

import (
	"time"

	"github.com/AzielCF/az-agent/pkg/utils"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no-show"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

// CanTransitionTo reports whether s may move to next. Re-applying the current status is a no-op.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return true
	}
	switch s {
	case StatusScheduled:
		return next == StatusConfirmed || next == StatusCompleted || next == StatusCancelled || next == StatusNoShow
	case StatusConfirmed:
		return next == StatusCompleted || next == StatusCancelled || next == StatusNoShow
	}
	return false
}

type MeetingType string

const (
	MeetingVideo    MeetingType = "video"
	MeetingPhone    MeetingType = "phone"
	MeetingInPerson MeetingType = "in-person"
)

func (m MeetingType) Valid() bool {
	switch m {
	case MeetingVideo, MeetingPhone, MeetingInPerson:
		return true
	}
	return false
}

const DefaultDuration = 30

type Appointment struct {
	ID               string      `json:"id"`
	AgentID          string      `json:"agentId"`
	LeadID           string      `json:"leadId"`
	ScheduledTime    time.Time   `json:"scheduledTime"`
	Duration         int         `json:"duration"` // minutes
	Status           Status      `json:"status"`
	MeetingType      MeetingType `json:"meetingType"`
	MeetingLink      string      `json:"meetingLink,omitempty"`
	Notes            string      `json:"notes,omitempty"`
	ReminderSent     bool        `json:"reminderSent"`
	ConfirmationSent bool        `json:"confirmationSent"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

func (a *Appointment) EndTime() time.Time {
	return a.ScheduledTime.Add(time.Duration(a.Duration) * time.Minute)
}

// Blocks reports whether the appointment still occupies its interval.
func (a *Appointment) Blocks() bool {
	return a.Status != StatusCancelled
}

// Overlaps reports whether [s1, s1+d1) and [s2, s2+d2) intersect.
// Back-to-back intervals do not overlap, and a zero-length interval overlaps nothing
// that merely touches it.
func Overlaps(s1 time.Time, d1 time.Duration, s2 time.Time, d2 time.Duration) bool {
	return s1.Before(s2.Add(d2)) && s2.Before(s1.Add(d1))
}

// ConflictsWith reports whether a blocking appointment intersects [start, start+d).
func (a *Appointment) ConflictsWith(start time.Time, d time.Duration) bool {
	return a.Blocks() && Overlaps(a.ScheduledTime, time.Duration(a.Duration)*time.Minute, start, d)
}

type BookingRequest struct {
	AgentID     string
	LeadID      string
	Start       time.Time
	Duration    int
	MeetingType MeetingType
	MeetingLink string
	Notes       string
}

// UpdateRequest carries the editable fields of an appointment; nil means unchanged.
type UpdateRequest struct {
	Status        *Status
	ScheduledTime *time.Time
	Duration      *int
	MeetingType   *MeetingType
	MeetingLink   *string
	Notes         *string
}

type AppointmentFilter struct {
	AgentID   string
	LeadID    string
	Status    Status
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Limit     int
}

type AppointmentPage struct {
	Appointments []*Appointment   `json:"appointments"`
	Pagination   utils.Pagination `json:"pagination"`
}

// Availability is the result of a slot query for one calendar day.
type Availability struct {
	Date     string      `json:"date"`
	Duration int         `json:"duration"`
	Slots    []time.Time `json:"slots"`
}
