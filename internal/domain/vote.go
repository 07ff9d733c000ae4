package domain

import (
	"context"
	"time"
)

// Vote is one participant's vote on a venue option. The (event, option,
// voter) key is unique; re-submission updates the existing record.
// swagger:model Vote
type Vote struct {
	ID       string  `json:"id"`
	EventID  string  `json:"event_id"`
	OptionID string  `json:"option_id"`
	VoterID  string  `json:"voter_id"`
	Value    int     `json:"value"`
	Comment  *string `json:"comment,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VoteRepository defines storage operations for votes.
type VoteRepository interface {
	// Upsert inserts the vote or updates value/comment/timestamp of the
	// existing (event, option, voter) record.
	Upsert(ctx context.Context, vote *Vote) error
	ListByEventID(ctx context.Context, eventID string) ([]*Vote, error)
	CountByEventID(ctx context.Context, eventID string) (int, error)
}

// VoteTally is the aggregated result for one option.
type VoteTally struct {
	Option    *VenueOption `json:"option"`
	VoteSum   int          `json:"vote_sum"`
	VoteCount int          `json:"vote_count"`
}

// VoteService aggregates votes and resolves the winning venue option.
type VoteService interface {
	CastVote(ctx context.Context, eventID, optionID, voterID string, value int, comment *string) (*Vote, error)
	ListResults(ctx context.Context, eventID, callerID string) ([]*VoteTally, error)
	// CalculateWinningVenue resolves the winner: highest vote sum, ties
	// broken by earliest-created option. With zero votes it falls back to
	// the highest-scored option; with no scores either it returns nil.
	CalculateWinningVenue(ctx context.Context, eventID string) (*VenueOption, error)
}
