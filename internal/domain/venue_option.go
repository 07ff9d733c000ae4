package domain

import (
	"context"
	"time"
)

// OptionOrigin records who attached a venue option to an event.
type OptionOrigin string

const (
	OriginAI        OptionOrigin = "ai"
	OriginOrganizer OptionOrigin = "organizer"
	OriginUser      OptionOrigin = "user"
)

// VenueOption is a candidate venue attached to an event for voting or direct
// selection. Options become immutable once the event is confirmed.
// swagger:model VenueOption
type VenueOption struct {
	ID      string       `json:"id"`
	EventID string       `json:"event_id"`
	VenueID *string      `json:"venue_id,omitempty"`
	// ExternalRef identifies a venue outside the catalog (manual additions).
	ExternalRef *string      `json:"external_ref,omitempty"`
	Origin      OptionOrigin `json:"origin"`

	Score            *float64 `json:"score,omitempty"`
	Reasoning        string   `json:"reasoning,omitempty"`
	Pros             []string `json:"pros,omitempty"`
	Cons             []string `json:"cons,omitempty"`
	EstimatedPerHead *float64 `json:"estimated_per_head,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// VenueOptionRepository defines storage operations for venue options.
type VenueOptionRepository interface {
	Create(ctx context.Context, opt *VenueOption) error
	GetByID(ctx context.Context, id string) (*VenueOption, error)
	Update(ctx context.Context, opt *VenueOption) error
	Delete(ctx context.Context, id string) error
	// ListByEventID returns the event's options ordered by creation
	// (earliest first); this order is the vote tie-break.
	ListByEventID(ctx context.Context, eventID string) ([]*VenueOption, error)
	DeleteByEventAndOrigin(ctx context.Context, eventID string, origin OptionOrigin) error
}
