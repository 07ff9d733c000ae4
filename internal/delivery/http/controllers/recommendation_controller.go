package controllers

import (
	"log/slog"
	"net/http"

	h "gatherplan/internal/delivery/http/helpers"
	"gatherplan/internal/delivery/http/middleware"
	"gatherplan/internal/domain"
)

// GenerateRecommendationsRequest is the request body for
// POST /events/{eventID}/recommendations. It carries the aggregated group
// preference profile the selection and scoring pipeline consumes.
type GenerateRecommendationsRequest struct {
	Preferences domain.AggregatedPreferences `json:"preferences"`
}

// AddOptionRequest is the request body for POST /events/{eventID}/options.
// Exactly one of venue_id (catalog venue) or external_ref (a venue outside
// the catalog) must be set.
type AddOptionRequest struct {
	VenueID     *string `json:"venue_id"`
	ExternalRef *string `json:"external_ref"`
}

// Validate implements Validator.
func (a AddOptionRequest) Validate() []string {
	hasVenue := a.VenueID != nil && *a.VenueID != ""
	hasRef := a.ExternalRef != nil && *a.ExternalRef != ""
	if hasVenue == hasRef {
		return []string{"exactly one of venue_id or external_ref is required"}
	}
	return nil
}

type RecommendationController struct {
	Logger  *slog.Logger
	Service domain.RecommendationService
}

func NewRecommendationController(logger *slog.Logger, svc domain.RecommendationService) *RecommendationController {
	return &RecommendationController{
		Logger:  logger,
		Service: svc,
	}
}

func (c *RecommendationController) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if h.WriteDomainError(w, err) {
		return
	}
	c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
}

// Generate godoc
// @Summary Generate venue recommendations
// @Description Selects candidate venues for the group's preferences, scores them, optionally enriches them with the AI scorer, and replaces the event's AI-generated options with the results.
// @Tags recommendations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body GenerateRecommendationsRequest true "Aggregated group preferences"
// @Success 200 {object} helpers.APIResponse "data contains the generated options"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 422 {object} helpers.APIResponse "error.code: rule code"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/recommendations [post]
func (c *RecommendationController) Generate(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req GenerateRecommendationsRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	options, err := c.Service.GenerateRecommendations(r.Context(), eventID, userID, &req.Preferences)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, options)
}

// ListOptions godoc
// @Summary List venue options
// @Description Returns the event's venue options in creation order.
// @Tags recommendations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse "data contains the options"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/options [get]
func (c *RecommendationController) ListOptions(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	options, err := c.Service.ListOptions(r.Context(), eventID, userID)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, options)
}

// AddOption godoc
// @Summary Add a manual venue option
// @Description Attach a venue to the ballot by catalog ID or external reference. Organizers and accepted participants only, while preferences are being gathered.
// @Tags recommendations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body AddOptionRequest true "Venue reference"
// @Success 201 {object} helpers.APIResponse "data contains the created option"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 422 {object} helpers.APIResponse "error.code: rule code"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/options [post]
func (c *RecommendationController) AddOption(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req AddOptionRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	option, err := c.Service.AddManualOption(r.Context(), eventID, userID, req.VenueID, req.ExternalRef)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, option)
}
