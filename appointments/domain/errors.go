package domain

import pkgError "github.com/AzielCF/az-agent/pkg/error"

const (
	ErrAppointmentNotFound = pkgError.NotFoundError("appointment not found")
	ErrSlotTaken           = pkgError.ConflictError("time slot is already booked")

	ErrAgentIDRequired      = pkgError.ValidationError("agentId is required")
	ErrBookingFieldsMissing = pkgError.ValidationError("agentId, leadId and scheduledTime are required")
	ErrStartInPast          = pkgError.ValidationError("scheduledTime must be in the future")
	ErrInvalidDuration      = pkgError.ValidationError("duration must be greater than 0")
	ErrInvalidMeetingType   = pkgError.ValidationError("meetingType must be one of video, phone, in-person")
	ErrInvalidDate          = pkgError.ValidationError("date must be formatted as YYYY-MM-DD")
	ErrLeadAgentMismatch    = pkgError.ValidationError("lead does not belong to agent")
	ErrInvalidTransition    = pkgError.ValidationError("invalid appointment status transition")
	ErrImmutable            = pkgError.ValidationError("appointment can no longer be changed")
)
