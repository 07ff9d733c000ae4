package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"gatherplan/internal/domain"
)

type voteService struct {
	eventRepo       domain.EventRepository
	optionRepo      domain.VenueOptionRepository
	voteRepo        domain.VoteRepository
	participantRepo domain.ParticipantRepository
	logger          *slog.Logger
	contextTimeout  time.Duration
}

// NewVoteService creates the vote tally service.
func NewVoteService(
	eventRepo domain.EventRepository,
	optionRepo domain.VenueOptionRepository,
	voteRepo domain.VoteRepository,
	participantRepo domain.ParticipantRepository,
	logger *slog.Logger,
	timeout time.Duration,
) domain.VoteService {
	return &voteService{
		eventRepo:       eventRepo,
		optionRepo:      optionRepo,
		voteRepo:        voteRepo,
		participantRepo: participantRepo,
		logger:          logger,
		contextTimeout:  timeout,
	}
}

func (s *voteService) CastVote(ctx context.Context, eventID, optionID, voterID string, value int, comment *string) (*domain.Vote, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	// Votes exist only while options are mutable.
	if event.Status != domain.StatusGatheringPreferences {
		return nil, domain.NewBusinessRuleError(domain.RuleVotingClosed, "voting is closed while the event is %s", event.Status)
	}

	p, err := s.participantRepo.GetByEventAndUser(ctx, eventID, voterID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrForbidden
		}
		return nil, fmt.Errorf("get participant: %w", err)
	}
	if p.Status != domain.InvitationAccepted {
		return nil, domain.ErrForbidden
	}

	opt, err := s.optionRepo.GetByID(ctx, optionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get option: %w", err)
	}
	if opt.EventID != eventID {
		return nil, domain.ErrNotFound
	}

	now := time.Now()
	vote := &domain.Vote{
		ID:        uuid.NewString(),
		EventID:   eventID,
		OptionID:  optionID,
		VoterID:   voterID,
		Value:     value,
		Comment:   comment,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.voteRepo.Upsert(ctx, vote); err != nil {
		return nil, fmt.Errorf("upsert vote: %w", err)
	}
	return vote, nil
}

func (s *voteService) ListResults(ctx context.Context, eventID, callerID string) ([]*domain.VoteTally, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.OrganizerID != callerID {
		if _, err := s.participantRepo.GetByEventAndUser(ctx, eventID, callerID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrForbidden
			}
			return nil, fmt.Errorf("get participant: %w", err)
		}
	}

	options, err := s.optionRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list options: %w", err)
	}
	votes, err := s.voteRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}

	sums := make(map[string]int)
	counts := make(map[string]int)
	for _, v := range votes {
		sums[v.OptionID] += v.Value
		counts[v.OptionID]++
	}
	tallies := make([]*domain.VoteTally, 0, len(options))
	for _, opt := range options {
		tallies = append(tallies, &domain.VoteTally{
			Option:    opt,
			VoteSum:   sums[opt.ID],
			VoteCount: counts[opt.ID],
		})
	}
	return tallies, nil
}

// CalculateWinningVenue resolves the winner. Options arrive ordered by
// creation time, so scanning with a strict > comparison gives the
// first-created tie-break for free.
func (s *voteService) CalculateWinningVenue(ctx context.Context, eventID string) (*domain.VenueOption, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	options, err := s.optionRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list options: %w", err)
	}
	if len(options) == 0 {
		return nil, nil
	}
	votes, err := s.voteRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}

	if len(votes) == 0 {
		// No votes: fall back to the highest traditional/enriched score.
		var best *domain.VenueOption
		for _, opt := range options {
			if opt.Score == nil {
				continue
			}
			if best == nil || *opt.Score > *best.Score {
				best = opt
			}
		}
		// best stays nil when no option has a score; never guess.
		return best, nil
	}

	sums := make(map[string]int)
	for _, v := range votes {
		sums[v.OptionID] += v.Value
	}
	var winner *domain.VenueOption
	bestSum := 0
	for _, opt := range options {
		sum := sums[opt.ID]
		if winner == nil || sum > bestSum {
			winner = opt
			bestSum = sum
		}
	}
	return winner, nil
}
