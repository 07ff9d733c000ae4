package controllers

import (
	"log/slog"
	"net/http"

	h "gatherplan/internal/delivery/http/helpers"
	"gatherplan/internal/delivery/http/middleware"
	"gatherplan/internal/domain"
)

// InviteParticipantsRequest is the request body for POST /events/{eventID}/participants.
type InviteParticipantsRequest struct {
	UserIDs []string `json:"user_ids"`
}

// Validate implements Validator.
func (i InviteParticipantsRequest) Validate() []string {
	if len(i.UserIDs) == 0 {
		return []string{"user_ids is required"}
	}
	return nil
}

// RespondRequest is the request body for POST /events/{eventID}/participants/respond.
type RespondRequest struct {
	Accept bool `json:"accept"`
}

type ParticipantController struct {
	Logger  *slog.Logger
	Service domain.ParticipantService
}

func NewParticipantController(logger *slog.Logger, svc domain.ParticipantService) *ParticipantController {
	return &ParticipantController{
		Logger:  logger,
		Service: svc,
	}
}

func (c *ParticipantController) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if h.WriteDomainError(w, err) {
		return
	}
	c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
}

// Invite godoc
// @Summary Invite participants
// @Description Invite a batch of users. Duplicates and the organizer are ignored; declined users are re-invited as pending; pending and accepted users are skipped.
// @Tags participants
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body InviteParticipantsRequest true "User IDs to invite"
// @Success 200 {object} helpers.APIResponse "data contains invited, reopened, and skipped IDs"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 422 {object} helpers.APIResponse "error.code: rule code"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/participants [post]
func (c *ParticipantController) Invite(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req InviteParticipantsRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	result, err := c.Service.InviteParticipants(r.Context(), eventID, userID, req.UserIDs)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, result)
}

// Respond godoc
// @Summary Respond to an invitation
// @Description Accept or decline the authenticated user's invitation to the event.
// @Tags participants
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body RespondRequest true "Accept or decline"
// @Success 200 {object} helpers.APIResponse "data contains the updated participant"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 422 {object} helpers.APIResponse "error.code: rule code"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/participants/respond [post]
func (c *ParticipantController) Respond(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req RespondRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	participant, err := c.Service.Respond(r.Context(), eventID, userID, req.Accept)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, participant)
}

// Remove godoc
// @Summary Remove a participant
// @Description Organizer removes an invited user from the event. Organizers cannot remove themselves.
// @Tags participants
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param userID path string true "User ID"
// @Success 204 "no content"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 422 {object} helpers.APIResponse "error.code: rule code"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/participants/{userID} [delete]
func (c *ParticipantController) Remove(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	targetID := r.PathValue("userID")
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.RemoveParticipant(r.Context(), eventID, userID, targetID); err != nil {
		c.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// List godoc
// @Summary List participants
// @Description Returns the event's participants and their invitation status.
// @Tags participants
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse "data contains participants"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/participants [get]
func (c *ParticipantController) List(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	participants, err := c.Service.ListParticipants(r.Context(), eventID, userID)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, participants)
}
