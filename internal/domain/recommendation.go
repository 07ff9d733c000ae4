package domain

import (
	"context"
	"time"
)

// AggregatedPreferences is the group preference profile produced by an
// external aggregator and consumed as selection/scoring input.
type AggregatedPreferences struct {
	CuisineTags    []string       `json:"cuisine_tags"`
	TagWeights     map[string]int `json:"tag_weights"`
	AverageBudget  float64        `json:"average_budget"`
	SearchRadiusM  float64        `json:"search_radius_m"`
	ParticipantIDs []string       `json:"participant_ids"`

	ParticipantLocations []Coordinate `json:"participant_locations,omitempty"`
	Center               *Coordinate  `json:"center,omitempty"`

	// SuggestedCategory and SuggestedTags come from the external AI pass over
	// the raw preferences; they feed the tier-4 fallback search.
	SuggestedCategory string   `json:"suggested_category,omitempty"`
	SuggestedTags     []string `json:"suggested_tags,omitempty"`
}

// ScoredVenue is one candidate with its multi-factor score and the
// rule-generated reasoning.
type ScoredVenue struct {
	Venue     *Venue   `json:"venue"`
	Score     float64  `json:"score"`
	Reasoning string   `json:"reasoning"`
	Pros      []string `json:"pros"`
	Cons      []string `json:"cons"`
}

// VenueAdjustment is the per-venue override returned by the external AI
// scorer. Nil/empty fields leave the traditional values untouched.
type VenueAdjustment struct {
	VenueID   string   `json:"venue_id"`
	Score     *float64 `json:"score,omitempty"`
	Reasoning string   `json:"reasoning,omitempty"`
	Pros      []string `json:"pros,omitempty"`
	Cons      []string `json:"cons,omitempty"`
}

// VenueAnalysisRequest is the payload sent to the external AI scorer.
type VenueAnalysisRequest struct {
	Event                *Event                 `json:"event"`
	Candidates           []*ScoredVenue         `json:"candidates"`
	Preferences          *AggregatedPreferences `json:"preferences"`
	ParticipantLocations []Coordinate           `json:"participant_locations,omitempty"`
}

// VenueScorer is the external AI scoring collaborator.
type VenueScorer interface {
	AnalyzeVenues(ctx context.Context, req *VenueAnalysisRequest) ([]*VenueAdjustment, error)
}

// Enrichment outcome states recorded on the progress record.
const (
	EnrichmentPending   = "pending"
	EnrichmentCompleted = "completed"
	EnrichmentTimedOut  = "timed_out"
	EnrichmentErrored   = "errored"
	EnrichmentSkipped   = "skipped"
)

// RecommendationProgress tracks the named pipeline steps (0-100%). It is
// persisted best-effort on the event record; write failures never interrupt
// the pipeline.
type RecommendationProgress struct {
	Step       string    `json:"step"`
	Percent    int       `json:"percent"`
	Enrichment string    `json:"enrichment"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// RecommendationService runs the candidate selection, scoring, and
// enrichment pipeline.
type RecommendationService interface {
	// GenerateRecommendations selects, scores, and enriches candidates, and
	// replaces the event's AI-originated options with the results.
	GenerateRecommendations(ctx context.Context, eventID, callerID string, prefs *AggregatedPreferences) ([]*VenueOption, error)
	ListOptions(ctx context.Context, eventID, callerID string) ([]*VenueOption, error)
	// AddManualOption attaches an organizer- or participant-chosen venue.
	AddManualOption(ctx context.Context, eventID, callerID string, venueID *string, externalRef *string) (*VenueOption, error)
}
