package rest

import (
	"time"

	"github.com/AzielCF/az-agent/appointments/domain"
)

type BookAppointmentRequest struct {
	AgentID       string     `json:"agentId"`
	LeadID        string     `json:"leadId"`
	ScheduledTime *time.Time `json:"scheduledTime"`
	Duration      int        `json:"duration"`
	MeetingType   string     `json:"meetingType"`
	MeetingLink   string     `json:"meetingLink"`
	Notes         string     `json:"notes"`
}

func (r BookAppointmentRequest) toDomain() domain.BookingRequest {
	req := domain.BookingRequest{
		AgentID:     r.AgentID,
		LeadID:      r.LeadID,
		Duration:    r.Duration,
		MeetingType: domain.MeetingType(r.MeetingType),
		MeetingLink: r.MeetingLink,
		Notes:       r.Notes,
	}
	if r.ScheduledTime != nil {
		req.Start = *r.ScheduledTime
	}
	return req
}

type UpdateAppointmentRequest struct {
	Status        *string    `json:"status"`
	ScheduledTime *time.Time `json:"scheduledTime"`
	Duration      *int       `json:"duration"`
	MeetingType   *string    `json:"meetingType"`
	MeetingLink   *string    `json:"meetingLink"`
	Notes         *string    `json:"notes"`
}

func (r UpdateAppointmentRequest) toDomain() domain.UpdateRequest {
	req := domain.UpdateRequest{
		ScheduledTime: r.ScheduledTime,
		Duration:      r.Duration,
		MeetingLink:   r.MeetingLink,
		Notes:         r.Notes,
	}
	if r.Status != nil {
		s := domain.Status(*r.Status)
		req.Status = &s
	}
	if r.MeetingType != nil {
		m := domain.MeetingType(*r.MeetingType)
		req.MeetingType = &m
	}
	return req
}

// AvailabilityResponse also carries the slots under availableSlots, the key
// the embedded widget reads.
type AvailabilityResponse struct {
	domain.Availability
	AvailableSlots []time.Time `json:"availableSlots"`
}
