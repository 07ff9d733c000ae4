package domain

import (
	"context"
	"time"
)

// EventStatus is the lifecycle status of an event. Statuses only move
// forward along the transition table, except cancellation which is reachable
// from any non-terminal status.
type EventStatus string

const (
	StatusDraft                EventStatus = "draft"
	StatusPlanning             EventStatus = "planning"
	StatusInviting             EventStatus = "inviting"
	StatusGatheringPreferences EventStatus = "gathering_preferences"
	StatusConfirmed            EventStatus = "confirmed"
	StatusCompleted            EventStatus = "completed"
	StatusCancelled            EventStatus = "cancelled"
)

// statusTransitions is the closed transition table. A transition absent here
// is illegal regardless of guards.
var statusTransitions = map[EventStatus][]EventStatus{
	StatusDraft:                {StatusPlanning, StatusCancelled},
	StatusPlanning:             {StatusInviting, StatusCancelled},
	StatusInviting:             {StatusGatheringPreferences, StatusConfirmed, StatusCancelled},
	StatusGatheringPreferences: {StatusConfirmed, StatusCancelled},
	StatusConfirmed:            {StatusCompleted, StatusCancelled},
	StatusCompleted:            {},
	StatusCancelled:            {},
}

// CanTransitionTo reports whether moving from s to target is in the
// transition table.
func (s EventStatus) CanTransitionTo(target EventStatus) bool {
	for _, t := range statusTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s EventStatus) IsTerminal() bool {
	return len(statusTransitions[s]) == 0
}

// Event represents a group gathering being coordinated from proposal through
// completion.
// swagger:model Event
type Event struct {
	ID          string      `json:"id"`
	OrganizerID string      `json:"organizer_id"`
	Title       string      `json:"title"`
	Description *string     `json:"description,omitempty"`
	Status      EventStatus `json:"status"`

	ScheduledAt           *time.Time `json:"scheduled_at,omitempty"`
	TimezoneOffsetMinutes int        `json:"timezone_offset_minutes"`

	ExpectedAttendees   int     `json:"expected_attendees"`
	MaxAttendees        int     `json:"max_attendees"`
	AcceptanceThreshold float64 `json:"acceptance_threshold"`

	// ChosenVenueID is set when the organizer picks a venue directly at
	// creation time (fast path) or when finalization resolves a winner.
	ChosenVenueID *string `json:"chosen_venue_id,omitempty"`

	RSVPDeadline       *time.Time `json:"rsvp_deadline,omitempty"`
	InvitationDeadline *time.Time `json:"invitation_deadline,omitempty"`

	BudgetPerPerson *float64 `json:"budget_per_person,omitempty"`

	PreviousScheduledAt *time.Time `json:"previous_scheduled_at,omitempty"`
	RescheduleCount     int        `json:"reschedule_count"`
	RescheduleReason    *string    `json:"reschedule_reason,omitempty"`

	CancellationReason *string `json:"cancellation_reason,omitempty"`

	// ConversationID is the shared chat conversation for participants,
	// created when the event enters the inviting phase.
	ConversationID *string `json:"conversation_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsFrozen reports whether the event no longer accepts modifications
// (invites, options, votes).
func (e *Event) IsFrozen() bool {
	return e.Status == StatusCancelled || e.Status == StatusCompleted
}

// EventRepository defines storage operations for events.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	Update(ctx context.Context, event *Event) error
	// UpdateStatus persists a status change together with the fields a
	// transition mutates (cancellation reason, conversation, venue, timezone).
	UpdateStatus(ctx context.Context, event *Event) error
	ListByOrganizerID(ctx context.Context, organizerID string) ([]*Event, error)
	// ListOverlapping returns the organizer's non-terminal events scheduled
	// inside the window.
	ListOverlapping(ctx context.Context, organizerID string, from, to time.Time) ([]*Event, error)
	// SaveRecommendationProgress persists the recommendation progress record
	// attached to the event.
	SaveRecommendationProgress(ctx context.Context, eventID string, progress *RecommendationProgress) error
}

// LifecycleService orchestrates the event state machine.
type LifecycleService interface {
	CreateEvent(ctx context.Context, event *Event) error
	// GetEvent loads the event and opportunistically advances its status as
	// far as the guards allow (best effort; advance failures are swallowed).
	GetEvent(ctx context.Context, eventID string) (*Event, error)
	UpdateEvent(ctx context.Context, eventID, organizerID string, update EventUpdate) (*Event, error)
	ListEvents(ctx context.Context, organizerID string) ([]*Event, error)
	RescheduleEvent(ctx context.Context, eventID, organizerID string, newTime time.Time, reason string) (*Event, error)
	CancelEvent(ctx context.Context, eventID, actorID, reason string) error
	// ConfirmEvent finalizes the winning venue and locks option mutation.
	ConfirmEvent(ctx context.Context, eventID, actorID string, venueID string) (*Event, error)
	CompleteEvent(ctx context.Context, eventID, actorID string) (*Event, error)
	// AutoAdvance re-evaluates the guards and applies as many transitions as
	// they allow. It never returns an error caused by an individual step.
	AutoAdvance(ctx context.Context, eventID string) (*Event, error)
}

// EventUpdate carries the mutable event fields for partial updates.
type EventUpdate struct {
	Title               *string
	Description         *string
	ScheduledAt         *time.Time
	ExpectedAttendees   *int
	MaxAttendees        *int
	AcceptanceThreshold *float64
	BudgetPerPerson     *float64
	RSVPDeadline        *time.Time
	InvitationDeadline  *time.Time
}
