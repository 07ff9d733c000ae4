package controllers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	h "gatherplan/internal/delivery/http/helpers"
	"gatherplan/internal/delivery/http/middleware"
	"gatherplan/internal/domain"
)

// CreateEventRequest is the request body for POST /events.
type CreateEventRequest struct {
	Title               string     `json:"title"`
	Description         *string    `json:"description"`
	ScheduledAt         *time.Time `json:"scheduled_at"`
	ExpectedAttendees   int        `json:"expected_attendees"`
	MaxAttendees        int        `json:"max_attendees"`
	AcceptanceThreshold float64    `json:"acceptance_threshold"`
	ChosenVenueID       *string    `json:"chosen_venue_id"`
	RSVPDeadline        *time.Time `json:"rsvp_deadline"`
	InvitationDeadline  *time.Time `json:"invitation_deadline"`
	BudgetPerPerson     *float64   `json:"budget_per_person"`
}

// Validate implements Validator.
func (c CreateEventRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Title) == "" {
		errs = append(errs, "title is required")
	}
	if c.ExpectedAttendees <= 0 {
		errs = append(errs, "expected_attendees must be positive")
	}
	return errs
}

// UpdateEventRequest is the request body for PATCH /events/{eventID}.
// All fields optional; omitted fields are unchanged.
type UpdateEventRequest struct {
	Title               *string    `json:"title"`
	Description         *string    `json:"description"`
	ScheduledAt         *time.Time `json:"scheduled_at"`
	ExpectedAttendees   *int       `json:"expected_attendees"`
	MaxAttendees        *int       `json:"max_attendees"`
	AcceptanceThreshold *float64   `json:"acceptance_threshold"`
	BudgetPerPerson     *float64   `json:"budget_per_person"`
	RSVPDeadline        *time.Time `json:"rsvp_deadline"`
	InvitationDeadline  *time.Time `json:"invitation_deadline"`
}

// CancelEventRequest is the request body for POST /events/{eventID}/cancel.
type CancelEventRequest struct {
	Reason string `json:"reason"`
}

// RescheduleEventRequest is the request body for POST /events/{eventID}/reschedule.
type RescheduleEventRequest struct {
	ScheduledAt time.Time `json:"scheduled_at"`
	Reason      string    `json:"reason"`
}

// Validate implements Validator.
func (c RescheduleEventRequest) Validate() []string {
	var errs []string
	if c.ScheduledAt.IsZero() {
		errs = append(errs, "scheduled_at is required")
	}
	return errs
}

// ConfirmEventRequest is the request body for POST /events/{eventID}/confirm.
// venue_id is optional; when omitted the winning voted option is used.
type ConfirmEventRequest struct {
	VenueID *string `json:"venue_id"`
}

// ListEventsResponse is the response body for GET /events.
type ListEventsResponse struct {
	Events     []*domain.Event  `json:"events"`
	Pagination h.PaginationMeta `json:"pagination"`
}

type EventController struct {
	Logger    *slog.Logger
	Lifecycle domain.LifecycleService
	Votes     domain.VoteService
}

func NewEventController(logger *slog.Logger, lifecycle domain.LifecycleService, votes domain.VoteService) *EventController {
	return &EventController{
		Logger:    logger,
		Lifecycle: lifecycle,
		Votes:     votes,
	}
}

func (c *EventController) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if h.WriteDomainError(w, err) {
		return
	}
	c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
}

// Create godoc
// @Summary Create an event
// @Description Create a gathering in draft status. The authenticated user becomes the organizer and counts as an accepted participant.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateEventRequest true "Event data"
// @Success 201 {object} helpers.APIResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 422 {object} helpers.APIResponse "error.code: rule code"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [post]
func (c *EventController) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	event := &domain.Event{
		OrganizerID:         userID,
		Title:               strings.TrimSpace(req.Title),
		Description:         req.Description,
		ScheduledAt:         req.ScheduledAt,
		ExpectedAttendees:   req.ExpectedAttendees,
		MaxAttendees:        req.MaxAttendees,
		AcceptanceThreshold: req.AcceptanceThreshold,
		ChosenVenueID:       req.ChosenVenueID,
		RSVPDeadline:        req.RSVPDeadline,
		InvitationDeadline:  req.InvitationDeadline,
		BudgetPerPerson:     req.BudgetPerPerson,
	}
	if err := c.Lifecycle.CreateEvent(r.Context(), event); err != nil {
		c.writeError(w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, event)
}

// List godoc
// @Summary List my events
// @Description Returns the authenticated user's events, newest first.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse "data contains events and pagination"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [get]
func (c *EventController) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	events, err := c.Lifecycle.ListEvents(r.Context(), userID)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	params := h.ParsePagination(r)
	total := len(events)
	start := params.Offset()
	if start > total {
		start = total
	}
	end := start + params.PageSize
	if end > total {
		end = total
	}
	h.WriteJSONSuccess(w, http.StatusOK, ListEventsResponse{
		Events:     events[start:end],
		Pagination: h.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}

// Get godoc
// @Summary Get an event
// @Description Returns the event. Reading may advance the event's status when its thresholds are already met.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse "data contains the event"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [get]
func (c *EventController) Get(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "missing eventID")
		return
	}
	event, err := c.Lifecycle.GetEvent(r.Context(), eventID)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, event)
}

// Update godoc
// @Summary Update an event
// @Description Partially update a draft or planning event. Updating a draft moves it to planning.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body UpdateEventRequest true "Fields to update"
// @Success 200 {object} helpers.APIResponse "data contains the updated event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 422 {object} helpers.APIResponse "error.code: rule code"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [patch]
func (c *EventController) Update(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req UpdateEventRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Lifecycle.UpdateEvent(r.Context(), eventID, userID, domain.EventUpdate{
		Title:               req.Title,
		Description:         req.Description,
		ScheduledAt:         req.ScheduledAt,
		ExpectedAttendees:   req.ExpectedAttendees,
		MaxAttendees:        req.MaxAttendees,
		AcceptanceThreshold: req.AcceptanceThreshold,
		BudgetPerPerson:     req.BudgetPerPerson,
		RSVPDeadline:        req.RSVPDeadline,
		InvitationDeadline:  req.InvitationDeadline,
	})
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, event)
}

// Cancel godoc
// @Summary Cancel an event
// @Description Cancel from any non-terminal status with a reason (10-500 characters). Cancelling an already-cancelled event is a no-op.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body CancelEventRequest true "Cancellation reason"
// @Success 200 {object} helpers.APIResponse "data contains the cancelled event"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 422 {object} helpers.APIResponse "error.code: rule code"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/cancel [post]
func (c *EventController) Cancel(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req CancelEventRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := c.Lifecycle.CancelEvent(r.Context(), eventID, userID, req.Reason); err != nil {
		c.writeError(w, r, err)
		return
	}
	event, err := c.Lifecycle.GetEvent(r.Context(), eventID)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, event)
}

// Confirm godoc
// @Summary Confirm an event
// @Description Lock in the venue and move the event to confirmed. When venue_id is omitted, the winning voted option is used.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body ConfirmEventRequest true "Venue to confirm (optional)"
// @Success 200 {object} helpers.APIResponse "data contains the confirmed event"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 422 {object} helpers.APIResponse "error.code: rule code"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/confirm [post]
func (c *EventController) Confirm(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req ConfirmEventRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	venueID := ""
	if req.VenueID != nil {
		venueID = *req.VenueID
	}
	if venueID == "" {
		winner, err := c.Votes.CalculateWinningVenue(r.Context(), eventID)
		if err != nil {
			c.writeError(w, r, err)
			return
		}
		if winner == nil || winner.VenueID == nil {
			h.WriteJSONError(w, http.StatusUnprocessableEntity, h.ErrCodeBusinessRule, "no winning venue to confirm")
			return
		}
		venueID = *winner.VenueID
	}
	event, err := c.Lifecycle.ConfirmEvent(r.Context(), eventID, userID, venueID)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, event)
}

// Complete godoc
// @Summary Complete an event
// @Description Move a confirmed event to completed.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse "data contains the completed event"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 422 {object} helpers.APIResponse "error.code: rule code"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/complete [post]
func (c *EventController) Complete(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	event, err := c.Lifecycle.CompleteEvent(r.Context(), eventID, userID)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, event)
}

// Reschedule godoc
// @Summary Reschedule an event
// @Description Move the event to a new time with a reason; the previous time and a reschedule count are kept.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body RescheduleEventRequest true "New time and reason"
// @Success 200 {object} helpers.APIResponse "data contains the rescheduled event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 422 {object} helpers.APIResponse "error.code: rule code"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/reschedule [post]
func (c *EventController) Reschedule(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req RescheduleEventRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Lifecycle.RescheduleEvent(r.Context(), eventID, userID, req.ScheduledAt, req.Reason)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, event)
}
