package controllers

import (
	"log/slog"
	"net/http"

	h "gatherplan/internal/delivery/http/helpers"
	"gatherplan/internal/delivery/http/middleware"
	"gatherplan/internal/domain"
)

// CastVoteRequest is the request body for POST /events/{eventID}/votes.
// Value is typically -1, 0, or 1; re-voting on the same option replaces the
// previous value.
type CastVoteRequest struct {
	OptionID string  `json:"option_id"`
	Value    int     `json:"value"`
	Comment  *string `json:"comment"`
}

// Validate implements Validator.
func (c CastVoteRequest) Validate() []string {
	var errs []string
	if c.OptionID == "" {
		errs = append(errs, "option_id is required")
	}
	if c.Value < -1 || c.Value > 1 {
		errs = append(errs, "value must be -1, 0, or 1")
	}
	return errs
}

type VoteController struct {
	Logger  *slog.Logger
	Service domain.VoteService
}

func NewVoteController(logger *slog.Logger, svc domain.VoteService) *VoteController {
	return &VoteController{
		Logger:  logger,
		Service: svc,
	}
}

func (c *VoteController) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if h.WriteDomainError(w, err) {
		return
	}
	c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
}

// Cast godoc
// @Summary Cast a vote
// @Description Vote on one of the event's venue options. Accepted participants only, while preferences are being gathered. Voting again on the same option replaces the prior vote.
// @Tags votes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body CastVoteRequest true "Vote"
// @Success 200 {object} helpers.APIResponse "data contains the recorded vote"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 422 {object} helpers.APIResponse "error.code: rule code"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/votes [post]
func (c *VoteController) Cast(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req CastVoteRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	vote, err := c.Service.CastVote(r.Context(), eventID, req.OptionID, userID, req.Value, req.Comment)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, vote)
}

// Results godoc
// @Summary Vote results
// @Description Returns the per-option tallies for the event's ballot.
// @Tags votes
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse "data contains the tallies"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/votes [get]
func (c *VoteController) Results(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	results, err := c.Service.ListResults(r.Context(), eventID, userID)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, results)
}
