package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	apptDomain "github.com/AzielCF/az-agent/appointments/domain"
	convDomain "github.com/AzielCF/az-agent/conversation/domain"
	leadDomain "github.com/AzielCF/az-agent/leads/domain"
	pkgError "github.com/AzielCF/az-agent/pkg/error"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type Availability interface {
	ListAvailableSlots(ctx context.Context, agentID, date string, durationMinutes int) (*apptDomain.Availability, error)
}

type Booking interface {
	BookSlot(ctx context.Context, req apptDomain.BookingRequest) (*apptDomain.Appointment, error)
	Cancel(ctx context.Context, id string) (*apptDomain.Appointment, error)
}

type Leads interface {
	Create(ctx context.Context, lead *leadDomain.Lead) error
}

type IntentClassifier interface {
	ClassifyIntent(message string) convDomain.Intent
}

// SchedulingHandler exposes the booking and lead flows as MCP tools so an
// external assistant can act on behalf of an agent.
type SchedulingHandler struct {
	availability Availability
	booking      Booking
	leads        Leads
	intents      IntentClassifier
}

func InitMcpScheduling(availability Availability, booking Booking, leads Leads, intents IntentClassifier) *SchedulingHandler {
	return &SchedulingHandler{
		availability: availability,
		booking:      booking,
		leads:        leads,
		intents:      intents,
	}
}

func (h *SchedulingHandler) AddSchedulingTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(h.toolListSlots(), h.handleListSlots)
	mcpServer.AddTool(h.toolBook(), h.handleBook)
	mcpServer.AddTool(h.toolCancel(), h.handleCancel)
	mcpServer.AddTool(h.toolCaptureLead(), h.handleCaptureLead)
	mcpServer.AddTool(h.toolClassifyIntent(), h.handleClassifyIntent)
}

func (h *SchedulingHandler) toolListSlots() mcp.Tool {
	return mcp.NewTool(
		"agent_list_available_slots",
		mcp.WithDescription("List the free appointment start times of an agent for one day."),
		mcp.WithTitleAnnotation("List Available Slots"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("agent_id",
			mcp.Description("The agent whose calendar is queried."),
			mcp.Required(),
		),
		mcp.WithString("date",
			mcp.Description("Day to inspect, formatted YYYY-MM-DD in the agent's timezone."),
			mcp.Required(),
		),
		mcp.WithNumber("duration",
			mcp.Description("Slot length in minutes. Defaults to the agent's configured duration."),
		),
	)
}

func (h *SchedulingHandler) handleListSlots(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	agentID, err := request.RequireString("agent_id")
	if err != nil {
		return nil, err
	}
	date, err := request.RequireString("date")
	if err != nil {
		return nil, err
	}

	res, err := h.availability.ListAvailableSlots(ctx, agentID, date, request.GetInt("duration", 0))
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultStructured(res, fmt.Sprintf("Found %d available slots on %s", len(res.Slots), res.Date)), nil
}

func (h *SchedulingHandler) toolBook() mcp.Tool {
	return mcp.NewTool(
		"agent_book_appointment",
		mcp.WithDescription("Book an appointment for a lead. Fails when the slot overlaps an existing booking."),
		mcp.WithTitleAnnotation("Book Appointment"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithString("agent_id", mcp.Description("The agent to book with."), mcp.Required()),
		mcp.WithString("lead_id", mcp.Description("The lead attending the appointment."), mcp.Required()),
		mcp.WithString("scheduled_time",
			mcp.Description("Start time in RFC 3339, e.g. 2024-03-10T09:00:00Z."),
			mcp.Required(),
		),
		mcp.WithNumber("duration", mcp.Description("Length in minutes. Defaults to the agent's configured duration.")),
		mcp.WithString("meeting_type",
			mcp.Description("Meeting channel."),
			mcp.Enum(string(apptDomain.MeetingVideo), string(apptDomain.MeetingPhone), string(apptDomain.MeetingInPerson)),
		),
		mcp.WithString("notes", mcp.Description("Free-form notes for the agent.")),
	)
}

func (h *SchedulingHandler) handleBook(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	agentID, err := request.RequireString("agent_id")
	if err != nil {
		return nil, err
	}
	leadID, err := request.RequireString("lead_id")
	if err != nil {
		return nil, err
	}
	raw, err := request.RequireString("scheduled_time")
	if err != nil {
		return nil, err
	}
	start, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return mcp.NewToolResultError("scheduled_time must be RFC 3339"), nil
	}

	appt, err := h.booking.BookSlot(ctx, apptDomain.BookingRequest{
		AgentID:     agentID,
		LeadID:      leadID,
		Start:       start,
		Duration:    request.GetInt("duration", 0),
		MeetingType: apptDomain.MeetingType(request.GetString("meeting_type", "")),
		Notes:       request.GetString("notes", ""),
	})
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultStructured(appt, fmt.Sprintf("Appointment %s booked for %s", appt.ID, appt.ScheduledTime.Format(time.RFC3339))), nil
}

func (h *SchedulingHandler) toolCancel() mcp.Tool {
	return mcp.NewTool(
		"agent_cancel_appointment",
		mcp.WithDescription("Cancel an appointment and free its slot."),
		mcp.WithTitleAnnotation("Cancel Appointment"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("appointment_id", mcp.Description("The appointment to cancel."), mcp.Required()),
	)
}

func (h *SchedulingHandler) handleCancel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("appointment_id")
	if err != nil {
		return nil, err
	}
	appt, err := h.booking.Cancel(ctx, id)
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultStructured(appt, fmt.Sprintf("Appointment %s cancelled", appt.ID)), nil
}

func (h *SchedulingHandler) toolCaptureLead() mcp.Tool {
	return mcp.NewTool(
		"agent_capture_lead",
		mcp.WithDescription("Store a new lead for an agent and notify the business."),
		mcp.WithTitleAnnotation("Capture Lead"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithString("agent_id", mcp.Description("The agent that captured the lead."), mcp.Required()),
		mcp.WithString("name", mcp.Description("Contact name."), mcp.Required()),
		mcp.WithString("email", mcp.Description("Contact email."), mcp.Required()),
		mcp.WithString("phone", mcp.Description("Contact phone number.")),
		mcp.WithString("company", mcp.Description("Contact company.")),
		mcp.WithString("source", mcp.Description("Where the lead came from. Defaults to widget.")),
	)
}

func (h *SchedulingHandler) handleCaptureLead(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	agentID, err := request.RequireString("agent_id")
	if err != nil {
		return nil, err
	}
	name, err := request.RequireString("name")
	if err != nil {
		return nil, err
	}
	email, err := request.RequireString("email")
	if err != nil {
		return nil, err
	}

	lead := &leadDomain.Lead{
		AgentID: agentID,
		ContactInfo: leadDomain.ContactInfo{
			Name:    name,
			Email:   email,
			Phone:   request.GetString("phone", ""),
			Company: request.GetString("company", ""),
		},
		Source: request.GetString("source", ""),
	}
	if err := h.leads.Create(ctx, lead); err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultStructured(lead, fmt.Sprintf("Lead %s captured", lead.ID)), nil
}

func (h *SchedulingHandler) toolClassifyIntent() mcp.Tool {
	return mcp.NewTool(
		"agent_classify_intent",
		mcp.WithDescription("Classify a visitor message into one of the conversation intents."),
		mcp.WithTitleAnnotation("Classify Intent"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("message", mcp.Description("The visitor message."), mcp.Required()),
	)
}

func (h *SchedulingHandler) handleClassifyIntent(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := request.RequireString("message")
	if err != nil {
		return nil, err
	}
	intent := h.intents.ClassifyIntent(message)
	return mcp.NewToolResultStructured(map[string]string{"intent": string(intent)}, string(intent)), nil
}

// toolError reports domain failures to the model as tool errors and keeps
// transport errors for the unexpected ones.
func toolError(err error) (*mcp.CallToolResult, error) {
	var generic pkgError.GenericError
	if errors.As(err, &generic) && generic.StatusCode() < 500 {
		return mcp.NewToolResultError(generic.Error()), nil
	}
	return nil, err
}
