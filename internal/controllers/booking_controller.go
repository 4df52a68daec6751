package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/poofware/booking-service/internal/dtos"
	"github.com/poofware/booking-service/internal/models"
	"github.com/poofware/booking-service/internal/services"
	"github.com/poofware/booking-service/internal/utils"
)

type BookingController struct {
	bookingService *services.BookingService
	validate       *validator.Validate
}

func NewBookingController(bs *services.BookingService) *BookingController {
	return &BookingController{bookingService: bs, validate: validator.New()}
}

// ----------------------------------------------------------------
// GET /api/v1/agents/{agent_id}/availability
// ----------------------------------------------------------------
func (c *BookingController) AvailabilityHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	agentID, err := pathUUID(r, "agent_id")
	if err != nil {
		respondError(w, err)
		return
	}
	propertyID, err := queryUUID(r, "property_id")
	if err != nil {
		respondError(w, err)
		return
	}
	asOf, err := parseAsOf(r.URL.Query().Get("as_of"))
	if err != nil {
		respondError(w, err)
		return
	}

	starts, err := c.bookingService.ResolveAvailableStartTimes(r.Context(), actor, agentID, propertyID, asOf)
	if err != nil {
		respondError(w, err)
		return
	}
	if starts == nil {
		starts = []services.AvailableStartTime{}
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.AvailabilityResponse{AgentID: agentID, StartTimes: starts})
}

// parseAsOf accepts an RFC 3339 instant or a bare date. Empty means now.
func parseAsOf(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("as_of %q: %w", raw, utils.ErrInvalidPayload)
	}
	return t, nil
}

// ----------------------------------------------------------------
// POST /api/v1/bookings
// ----------------------------------------------------------------
func (c *BookingController) CreateBookingHandler(w http.ResponseWriter, r *http.Request) {
	log := utils.Logger.WithField("handler", "CreateBookingHandler")
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req dtos.CreateBookingRequest
	if !decodeBody(w, r, c.validate, &req) {
		return
	}
	date, start, err := parseDateTime(req.Date, req.StartTime)
	if err != nil {
		respondError(w, err)
		return
	}
	customerID, err := ownOrGiven(actor, req.CustomerID, "customer_id")
	if err != nil {
		respondError(w, err)
		return
	}

	appt, err := c.bookingService.CreateBooking(r.Context(), actor, services.BookingRequest{
		PropertyID: req.PropertyID,
		AgentID:    req.AgentID,
		CustomerID: customerID,
		Date:       date,
		StartTime:  start,
	})
	if err != nil {
		log.WithError(err).Debug("Booking refused")
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, appt)
}

// ----------------------------------------------------------------
// GET /api/v1/appointments/{id}
// ----------------------------------------------------------------
func (c *BookingController) GetAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	appt, err := c.bookingService.GetAppointment(r.Context(), actor, id)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, appt)
}

// appointmentAction runs fn for the {id} in the path and writes the
// resulting appointment.
func (c *BookingController) appointmentAction(
	w http.ResponseWriter,
	r *http.Request,
	fn func(actor models.Actor, id uuid.UUID) (*models.Appointment, error),
) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	appt, err := fn(actor, id)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, appt)
}

// POST /api/v1/appointments/{id}/accept
func (c *BookingController) AcceptHandler(w http.ResponseWriter, r *http.Request) {
	c.appointmentAction(w, r, func(actor models.Actor, id uuid.UUID) (*models.Appointment, error) {
		return c.bookingService.AcceptAppointment(r.Context(), actor, id)
	})
}

// POST /api/v1/appointments/{id}/reject
func (c *BookingController) RejectHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.ReasonRequest
	if !decodeBody(w, r, c.validate, &req) {
		return
	}
	c.appointmentAction(w, r, func(actor models.Actor, id uuid.UUID) (*models.Appointment, error) {
		return c.bookingService.RejectAppointment(r.Context(), actor, id, req.Reason)
	})
}

// POST /api/v1/appointments/{id}/cancel
func (c *BookingController) CancelHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.ReasonRequest
	if !decodeBody(w, r, c.validate, &req) {
		return
	}
	c.appointmentAction(w, r, func(actor models.Actor, id uuid.UUID) (*models.Appointment, error) {
		return c.bookingService.CancelAppointment(r.Context(), actor, id, req.Reason)
	})
}

// POST /api/v1/appointments/{id}/done
func (c *BookingController) MarkDoneHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.MarkDoneRequest
	if !decodeBody(w, r, c.validate, &req) {
		return
	}
	var endTime *models.TimeOfDay
	if req.EndTime != nil {
		t, err := models.ParseTimeOfDay(*req.EndTime)
		if err != nil {
			respondError(w, fmt.Errorf("end_time: %w", utils.ErrInvalidPayload))
			return
		}
		endTime = &t
	}
	c.appointmentAction(w, r, func(actor models.Actor, id uuid.UUID) (*models.Appointment, error) {
		return c.bookingService.MarkDone(r.Context(), actor, id, endTime)
	})
}

// POST /api/v1/appointments/{id}/reassign
func (c *BookingController) ReassignHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.ReassignRequest
	if !decodeBody(w, r, c.validate, &req) {
		return
	}
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	appt, err := c.bookingService.ReassignAfterRejection(r.Context(), actor, id, req.NewAgentID)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, appt)
}

// POST /api/v1/appointments/{id}/approve
func (c *BookingController) ApproveReassignmentHandler(w http.ResponseWriter, r *http.Request) {
	c.appointmentAction(w, r, func(actor models.Actor, id uuid.UUID) (*models.Appointment, error) {
		return c.bookingService.ApproveReassignment(r.Context(), actor, id)
	})
}

// POST /api/v1/appointments/{id}/decline
func (c *BookingController) DeclineReassignmentHandler(w http.ResponseWriter, r *http.Request) {
	c.appointmentAction(w, r, func(actor models.Actor, id uuid.UUID) (*models.Appointment, error) {
		return c.bookingService.DeclineReassignment(r.Context(), actor, id)
	})
}

// ----------------------------------------------------------------
// POST /api/v1/admin/appointments/{id}/override
// ----------------------------------------------------------------
func (c *BookingController) OverrideAgentHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.OverrideAgentRequest
	if !decodeBody(w, r, c.validate, &req) {
		return
	}
	c.appointmentAction(w, r, func(actor models.Actor, id uuid.UUID) (*models.Appointment, error) {
		return c.bookingService.OverrideAgent(r.Context(), actor, id, req.NewAgentID, req.Reason)
	})
}

// ----------------------------------------------------------------
// POST /api/v1/properties/{property_id}/close
// ----------------------------------------------------------------
func (c *BookingController) ClosePropertyHandler(w http.ResponseWriter, r *http.Request) {
	log := utils.Logger.WithField("handler", "ClosePropertyHandler")
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	propertyID, err := pathUUID(r, "property_id")
	if err != nil {
		respondError(w, err)
		return
	}
	var req dtos.ClosePropertyRequest
	if !decodeBody(w, r, c.validate, &req) {
		return
	}
	agentID, err := ownOrGiven(actor, req.AgentID, "agent_id")
	if err != nil {
		respondError(w, err)
		return
	}

	prop, err := c.bookingService.MarkSoldOrRented(r.Context(), actor, services.CloseRequest{
		PropertyID:    propertyID,
		Status:        req.Status,
		ActorAgentID:  agentID,
		AppointmentID: req.AppointmentID,
		SalePrice:     req.SalePrice,
	})
	if err != nil {
		log.WithError(err).Warn("Close property failed")
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, prop)
}

// ----------------------------------------------------------------
// GET /api/v1/properties/{property_id}/priority-queue
// ----------------------------------------------------------------
func (c *BookingController) PriorityQueueHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	propertyID, err := pathUUID(r, "property_id")
	if err != nil {
		respondError(w, err)
		return
	}
	customerID, err := queryUUID(r, "customer_id")
	if err != nil {
		respondError(w, err)
		return
	}

	queue, err := c.bookingService.GetPurchasePriorityQueue(r.Context(), actor, propertyID)
	if err != nil {
		respondError(w, err)
		return
	}
	resp := dtos.PriorityQueueResponse{PropertyID: propertyID, Queue: queue}
	if resp.Queue == nil {
		resp.Queue = []*models.Appointment{}
	}
	if customerID != nil {
		pos, err := c.bookingService.GetPriorityPosition(r.Context(), propertyID, *customerID)
		if err != nil {
			respondError(w, err)
			return
		}
		resp.Position = &pos
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// ----------------------------------------------------------------
// GET /api/v1/waitlist?property_id=&agent_id=&date=&start_time=
// ----------------------------------------------------------------
func (c *BookingController) WaitlistHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	propertyID, err := queryUUID(r, "property_id")
	if err != nil {
		respondError(w, err)
		return
	}
	agentID, err := queryUUID(r, "agent_id")
	if err != nil {
		respondError(w, err)
		return
	}
	if propertyID == nil || agentID == nil {
		respondError(w, fmt.Errorf("property_id and agent_id are required: %w", utils.ErrInvalidPayload))
		return
	}
	q := r.URL.Query()
	date, start, err := parseDateTime(q.Get("date"), q.Get("start_time"))
	if err != nil {
		respondError(w, err)
		return
	}

	entries, err := c.bookingService.GetWaitlist(r.Context(), actor, *propertyID, *agentID, date, start)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.WaitlistResponse{Entries: entries})
}
