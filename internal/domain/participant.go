package domain

import (
	"context"
	"time"
)

// InvitationStatus is the lifecycle of a participant's invitation.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
)

// Participant is a user invited to an event. At most one active record
// exists per (event, user); a declined record may be reopened to pending by
// re-invitation.
// swagger:model Participant
type Participant struct {
	ID          string           `json:"id"`
	EventID     string           `json:"event_id"`
	UserID      string           `json:"user_id"`
	Status      InvitationStatus `json:"status"`
	InvitedBy   string           `json:"invited_by"`
	InvitedAt   time.Time        `json:"invited_at"`
	RespondedAt *time.Time       `json:"responded_at,omitempty"`
}

// ParticipantRepository defines storage operations for participants.
type ParticipantRepository interface {
	Create(ctx context.Context, p *Participant) error
	GetByEventAndUser(ctx context.Context, eventID, userID string) (*Participant, error)
	Update(ctx context.Context, p *Participant) error
	Delete(ctx context.Context, id string) error
	ListByEventID(ctx context.Context, eventID string) ([]*Participant, error)
	// CountByStatus returns the number of participants of the event in the
	// given status.
	CountByStatus(ctx context.Context, eventID string, status InvitationStatus) (int, error)
}

// InviteResult reports the outcome of an invitation batch.
type InviteResult struct {
	Invited  []string `json:"invited"`
	Reopened []string `json:"reopened"`
	Skipped  []string `json:"skipped"`
}

// ParticipantService tracks invitation state and acceptance.
type ParticipantService interface {
	// InviteParticipants invites the deduplicated batch, excluding the
	// organizer. Previously declined users are reset to pending; pending and
	// accepted users are silently skipped.
	InviteParticipants(ctx context.Context, eventID, organizerID string, userIDs []string) (*InviteResult, error)
	// Respond records an accept or decline for an existing invitation.
	Respond(ctx context.Context, eventID, userID string, accept bool) (*Participant, error)
	RemoveParticipant(ctx context.Context, eventID, organizerID, userID string) error
	ListParticipants(ctx context.Context, eventID, callerID string) ([]*Participant, error)
}
