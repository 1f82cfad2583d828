package rest

import (
	"time"

	"github.com/AzielCF/az-agent/appointments/application"
	"github.com/AzielCF/az-agent/appointments/domain"
	pkgError "github.com/AzielCF/az-agent/pkg/error"
	"github.com/AzielCF/az-agent/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type AppointmentHandler struct {
	booking *application.BookingService
	engine  *application.AvailabilityEngine
}

func NewAppointmentHandler(booking *application.BookingService, engine *application.AvailabilityEngine) *AppointmentHandler {
	return &AppointmentHandler{booking: booking, engine: engine}
}

func (h *AppointmentHandler) RegisterRoutes(router fiber.Router) {
	appointments := router.Group("/appointments")

	appointments.Post("/", h.BookAppointment)
	appointments.Get("/", h.ListAppointments)
	appointments.Get("/agent/:id/availability", h.GetAvailability)
	appointments.Get("/:id", h.GetAppointment)
	appointments.Put("/:id", h.UpdateAppointment)
	appointments.Delete("/:id", h.CancelAppointment)
}

// BookAppointment answers 201 on success and 409 when the slot is taken.
func (h *AppointmentHandler) BookAppointment(c *fiber.Ctx) error {
	var req BookAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, pkgError.ValidationError("invalid request body"))
	}

	appt, err := h.booking.BookSlot(c.UserContext(), req.toDomain())
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(appt)
}

func (h *AppointmentHandler) ListAppointments(c *fiber.Ctx) error {
	filter := domain.AppointmentFilter{
		AgentID: c.Query("agentId"),
		LeadID:  c.Query("leadId"),
		Status:  domain.Status(c.Query("status")),
		Page:    c.QueryInt("page", 1),
		Limit:   c.QueryInt("limit", utils.DefaultPageLimit),
	}

	var err error
	if filter.StartDate, err = parseDateParam(c.Query("startDate")); err != nil {
		return utils.ErrorResponse(c, err)
	}
	if filter.EndDate, err = parseDateParam(c.Query("endDate")); err != nil {
		return utils.ErrorResponse(c, err)
	}

	page, err := h.booking.List(c.UserContext(), filter)
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return c.JSON(page)
}

func (h *AppointmentHandler) GetAvailability(c *fiber.Ctx) error {
	date := c.Query("date")
	if date == "" {
		return utils.ErrorResponse(c, pkgError.ValidationError("date is required"))
	}

	avail, err := h.engine.ListAvailableSlots(c.UserContext(), c.Params("id"), date, c.QueryInt("duration", 0))
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return c.JSON(AvailabilityResponse{Availability: *avail, AvailableSlots: avail.Slots})
}

func (h *AppointmentHandler) GetAppointment(c *fiber.Ctx) error {
	appt, err := h.booking.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return c.JSON(appt)
}

func (h *AppointmentHandler) UpdateAppointment(c *fiber.Ctx) error {
	var req UpdateAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, pkgError.ValidationError("invalid request body"))
	}

	appt, err := h.booking.Update(c.UserContext(), c.Params("id"), req.toDomain())
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return c.JSON(appt)
}

func (h *AppointmentHandler) CancelAppointment(c *fiber.Ctx) error {
	appt, err := h.booking.Cancel(c.UserContext(), c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return c.JSON(appt)
}

// parseDateParam accepts RFC3339 timestamps or plain YYYY-MM-DD dates (UTC midnight).
func parseDateParam(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, nil
		}
	}
	return nil, pkgError.ValidationError("invalid date " + v)
}
