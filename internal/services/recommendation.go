package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"gatherplan/internal/domain"
	"gatherplan/internal/geo"
)

const (
	// candidateCap bounds every selection tier and the final option list.
	candidateCap = 20
	// enrichTopN is how many scored candidates go to the external AI scorer.
	enrichTopN = 5
)

// Named pipeline steps recorded on the progress record.
const (
	stepLoadingEvent        = "loading_event"
	stepSelectingCandidates = "selecting_candidates"
	stepScoringCandidates   = "scoring_candidates"
	stepCreatingOptions     = "creating_options"
	stepAIEnrichment        = "ai_enrichment"
	stepFinalizing          = "finalizing"
)

type recommendationService struct {
	eventRepo       domain.EventRepository
	venueRepo       domain.VenueRepository
	optionRepo      domain.VenueOptionRepository
	participantRepo domain.ParticipantRepository
	scorer          domain.VenueScorer
	logger          *slog.Logger
	aiTimeout       time.Duration
}

// NewRecommendationService creates the candidate selection, scoring, and
// enrichment pipeline.
func NewRecommendationService(
	eventRepo domain.EventRepository,
	venueRepo domain.VenueRepository,
	optionRepo domain.VenueOptionRepository,
	participantRepo domain.ParticipantRepository,
	scorer domain.VenueScorer,
	logger *slog.Logger,
	aiTimeout time.Duration,
) domain.RecommendationService {
	if aiTimeout <= 0 {
		aiTimeout = 30 * time.Second
	}
	return &recommendationService{
		eventRepo:       eventRepo,
		venueRepo:       venueRepo,
		optionRepo:      optionRepo,
		participantRepo: participantRepo,
		scorer:          scorer,
		logger:          logger,
		aiTimeout:       aiTimeout,
	}
}

func (s *recommendationService) GenerateRecommendations(ctx context.Context, eventID, callerID string, prefs *domain.AggregatedPreferences) ([]*domain.VenueOption, error) {
	s.saveProgress(ctx, eventID, stepLoadingEvent, 10, domain.EnrichmentPending)

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.OrganizerID != callerID {
		return nil, domain.ErrForbidden
	}
	if event.Status != domain.StatusGatheringPreferences {
		return nil, domain.NewBusinessRuleError(domain.RuleOptionsLocked, "recommendations can only be generated while gathering preferences (event is %s)", event.Status)
	}
	if prefs == nil {
		return nil, domain.ErrInvalidInput
	}

	s.saveProgress(ctx, eventID, stepSelectingCandidates, 30, domain.EnrichmentPending)
	candidates, err := s.selectCandidates(ctx, eventID, prefs)
	if err != nil {
		return nil, fmt.Errorf("select candidates: %w", err)
	}

	s.saveProgress(ctx, eventID, stepScoringCandidates, 50, domain.EnrichmentPending)
	scored := make([]*domain.ScoredVenue, 0, len(candidates))
	for _, v := range candidates {
		scored = append(scored, ScoreVenue(v, prefs, event))
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > candidateCap {
		scored = scored[:candidateCap]
	}

	s.saveProgress(ctx, eventID, stepAIEnrichment, 65, domain.EnrichmentPending)
	aiState := s.enrich(ctx, event, prefs, scored)
	s.saveProgress(ctx, eventID, stepCreatingOptions, 90, aiState)

	// Regenerating replaces the previous AI-originated options wholesale.
	if err := s.optionRepo.DeleteByEventAndOrigin(ctx, eventID, domain.OriginAI); err != nil {
		return nil, fmt.Errorf("clear previous options: %w", err)
	}
	now := time.Now()
	options := make([]*domain.VenueOption, 0, len(scored))
	for _, sv := range scored {
		venueID := sv.Venue.ID
		score := sv.Score
		opt := &domain.VenueOption{
			ID:               uuid.NewString(),
			EventID:          eventID,
			VenueID:          &venueID,
			Origin:           domain.OriginAI,
			Score:            &score,
			Reasoning:        sv.Reasoning,
			Pros:             sv.Pros,
			Cons:             sv.Cons,
			EstimatedPerHead: sv.Venue.PricePerHead,
			CreatedAt:        now,
		}
		if err := s.optionRepo.Create(ctx, opt); err != nil {
			return nil, fmt.Errorf("create venue option: %w", err)
		}
		options = append(options, opt)
	}

	s.saveProgress(ctx, eventID, stepFinalizing, 100, aiState)
	return options, nil
}

// searchTier is one step of the fallback cascade.
type searchTier struct {
	name string
	run  func(ctx context.Context) ([]*domain.Venue, error)
}

// selectCandidates runs the fallback tiers in strict order and stops at the
// first non-empty result.
func (s *recommendationService) selectCandidates(ctx context.Context, eventID string, prefs *domain.AggregatedPreferences) ([]*domain.Venue, error) {
	tiers := []searchTier{
		{
			name: "tag_match_radius",
			run: func(ctx context.Context) ([]*domain.Venue, error) {
				if len(prefs.CuisineTags) == 0 || prefs.Center == nil || prefs.SearchRadiusM <= 0 {
					return nil, nil
				}
				// Overfetch so the radius filter still has enough to cap.
				venues, err := s.venueRepo.Search(ctx, domain.VenueSearch{Tags: prefs.CuisineTags, Limit: candidateCap * 5})
				if err != nil {
					return nil, err
				}
				return capVenues(filterByRadius(venues, *prefs.Center, prefs.SearchRadiusM)), nil
			},
		},
		{
			name: "tag_match",
			run: func(ctx context.Context) ([]*domain.Venue, error) {
				if len(prefs.CuisineTags) == 0 {
					return nil, nil
				}
				return s.venueRepo.Search(ctx, domain.VenueSearch{Tags: prefs.CuisineTags, Limit: candidateCap})
			},
		},
		{
			name: "category_match",
			run: func(ctx context.Context) ([]*domain.Venue, error) {
				if len(prefs.CuisineTags) == 0 {
					return nil, nil
				}
				return s.venueRepo.Search(ctx, domain.VenueSearch{Categories: prefs.CuisineTags, Limit: candidateCap})
			},
		},
		{
			name: "ai_category",
			run: func(ctx context.Context) ([]*domain.Venue, error) {
				if prefs.SuggestedCategory == "" {
					return nil, nil
				}
				return s.venueRepo.Search(ctx, domain.VenueSearch{Categories: []string{prefs.SuggestedCategory}, Limit: candidateCap})
			},
		},
		{
			name: "ai_tags",
			run: func(ctx context.Context) ([]*domain.Venue, error) {
				if len(prefs.SuggestedTags) == 0 {
					return nil, nil
				}
				return s.venueRepo.Search(ctx, domain.VenueSearch{Tags: prefs.SuggestedTags, Limit: candidateCap})
			},
		},
		{
			name: "ai_category_or_tags",
			run: func(ctx context.Context) ([]*domain.Venue, error) {
				if prefs.SuggestedCategory == "" && len(prefs.SuggestedTags) == 0 {
					return nil, nil
				}
				search := domain.VenueSearch{Tags: prefs.SuggestedTags, MatchAny: true, Limit: candidateCap}
				if prefs.SuggestedCategory != "" {
					search.Categories = []string{prefs.SuggestedCategory}
				}
				return s.venueRepo.Search(ctx, search)
			},
		},
		{
			name: "cuisine_fallback",
			run: func(ctx context.Context) ([]*domain.Venue, error) {
				if len(prefs.CuisineTags) == 0 {
					return nil, nil
				}
				return s.venueRepo.Search(ctx, domain.VenueSearch{Categories: prefs.CuisineTags, Limit: candidateCap})
			},
		},
		{
			name: "top_rated",
			run: func(ctx context.Context) ([]*domain.Venue, error) {
				return s.venueRepo.TopRated(ctx, candidateCap)
			},
		},
	}

	for _, tier := range tiers {
		venues, err := tier.run(ctx)
		if err != nil {
			return nil, fmt.Errorf("tier %s: %w", tier.name, err)
		}
		if len(venues) > 0 {
			s.logger.Info("candidate tier selected", "event_id", eventID, "tier", tier.name, "count", len(venues))
			return venues, nil
		}
	}
	return nil, nil
}

func filterByRadius(venues []*domain.Venue, center domain.Coordinate, radiusM float64) []*domain.Venue {
	var out []*domain.Venue
	for _, v := range venues {
		if v.Lat == nil || v.Lng == nil {
			continue
		}
		if geo.Distance(center.Lat, center.Lng, *v.Lat, *v.Lng) <= radiusM {
			out = append(out, v)
		}
	}
	return out
}

func capVenues(venues []*domain.Venue) []*domain.Venue {
	if len(venues) > candidateCap {
		return venues[:candidateCap]
	}
	return venues
}

// ScoreVenue computes the deterministic multi-factor score in [0, 100] for a
// candidate, plus rule-generated reasoning, pros, and cons.
func ScoreVenue(venue *domain.Venue, prefs *domain.AggregatedPreferences, event *domain.Event) *domain.ScoredVenue {
	cuisine := cuisineScore(venue, prefs)
	budget := budgetScore(venue, prefs)
	capacity := capacityScore(venue, event.ExpectedAttendees)
	location, avgDistance, hasDistance := locationScore(venue, prefs)
	rating := ratingScore(venue)
	extras := extrasScore(venue)

	total := cuisine + budget + capacity + location + rating + extras
	total = math.Max(0, math.Min(100, total))

	sv := &domain.ScoredVenue{Venue: venue, Score: total}
	sv.Reasoning = fmt.Sprintf(
		"Scored %.0f/100: cuisine %.1f/25, budget %.1f/20, capacity %.1f/20, location %.1f/15, rating %.1f/15, extras %.1f/5.",
		total, cuisine, budget, capacity, location, rating, extras)
	sv.Pros, sv.Cons = prosAndCons(venue, prefs, event.ExpectedAttendees, avgDistance, hasDistance)
	return sv
}

// cuisineScore: 0-25. A category held by 50%+ of the group saturates; a
// non-matching category still earns partial credit.
func cuisineScore(venue *domain.Venue, prefs *domain.AggregatedPreferences) float64 {
	if venue.Category == "" {
		return 0
	}
	if !containsFold(prefs.CuisineTags, venue.Category) {
		return 5
	}
	participants := len(prefs.ParticipantIDs)
	if participants == 0 {
		return 25
	}
	freq := 0
	for tag, weight := range prefs.TagWeights {
		if strings.EqualFold(tag, venue.Category) {
			freq = weight
			break
		}
	}
	ratio := (float64(freq) / float64(participants)) * 2
	return 25 * math.Min(ratio, 1.0)
}

// budgetScore: 0-20, linear falloff over a 20-unit price gap.
func budgetScore(venue *domain.Venue, prefs *domain.AggregatedPreferences) float64 {
	if venue.PricePerHead == nil {
		return 5
	}
	gap := math.Abs(*venue.PricePerHead-prefs.AverageBudget) / 20
	return 20 * (1 - math.Min(gap, 1.0))
}

// capacityScore: 0-20. Full marks inside the ideal band (up to 1.2x the
// expected group); spacious venues decay gently, tight venues sharply.
func capacityScore(venue *domain.Venue, expected int) float64 {
	if venue.Capacity == nil {
		return 5
	}
	if expected <= 0 {
		return 5
	}
	capVal := float64(*venue.Capacity)
	ideal := float64(expected) * 1.2
	if capVal >= float64(expected) {
		if capVal <= ideal {
			return 20
		}
		return 20 * (0.7 + 0.3*math.Min(ideal/capVal, 1.0))
	}
	return 20 * math.Max(capVal/float64(expected)-0.3, 0)
}

// locationScore: 0-15 via (1-ratio)^1.5 inside the radius, 0 outside. The
// second return is the average distance, the third whether it was computable.
func locationScore(venue *domain.Venue, prefs *domain.AggregatedPreferences) (float64, float64, bool) {
	if venue.Lat == nil || venue.Lng == nil || len(prefs.ParticipantLocations) == 0 || prefs.SearchRadiusM <= 0 {
		return 7.5, 0, false
	}
	var sum float64
	for _, loc := range prefs.ParticipantLocations {
		sum += geo.Distance(loc.Lat, loc.Lng, *venue.Lat, *venue.Lng)
	}
	avg := sum / float64(len(prefs.ParticipantLocations))
	if avg > prefs.SearchRadiusM {
		return 0, avg, true
	}
	ratio := avg / prefs.SearchRadiusM
	return 15 * math.Pow(1-ratio, 1.5), avg, true
}

// ratingScore: 0-15 (10 from the rating, up to 5 from review volume).
func ratingScore(venue *domain.Venue) float64 {
	if venue.AvgRating == nil {
		return 2
	}
	score := 10 * (*venue.AvgRating / 5)
	switch {
	case venue.ReviewCount >= 100:
		score += 5
	case venue.ReviewCount >= 50:
		score += 4
	case venue.ReviewCount >= 20:
		score += 3
	case venue.ReviewCount >= 10:
		score += 2
	case venue.ReviewCount >= 5:
		score += 1
	}
	return score
}

// extrasScore: 0-5 from tag assignments, likes, and verification.
func extrasScore(venue *domain.Venue) float64 {
	var score float64
	if len(venue.Tags) > 0 {
		score += 2
	}
	if venue.LikeCount > 20 {
		score += 2
	} else if venue.LikeCount > 0 {
		score += 1
	}
	if venue.Verification == domain.VerificationApproved {
		score++
	}
	return math.Min(score, 5)
}

// prosAndCons produces reproducible pros/cons keyed to the same thresholds
// the score components use.
func prosAndCons(venue *domain.Venue, prefs *domain.AggregatedPreferences, expected int, avgDistance float64, hasDistance bool) (pros, cons []string) {
	if venue.AvgRating != nil {
		if *venue.AvgRating >= 4.0 {
			pros = append(pros, fmt.Sprintf("Highly rated: %.1f/5 from %d reviews", *venue.AvgRating, venue.ReviewCount))
		} else if *venue.AvgRating < 3.5 {
			cons = append(cons, fmt.Sprintf("Mixed reviews: %.1f/5", *venue.AvgRating))
		}
	} else {
		cons = append(cons, "No ratings yet")
	}
	if containsFold(prefs.CuisineTags, venue.Category) {
		pros = append(pros, fmt.Sprintf("Matches the group's %s preference", venue.Category))
	}
	if venue.Capacity != nil && expected > 0 {
		if *venue.Capacity >= expected {
			pros = append(pros, fmt.Sprintf("Seats the whole group (capacity %d)", *venue.Capacity))
		} else {
			cons = append(cons, fmt.Sprintf("Capacity %d is below the expected %d attendees", *venue.Capacity, expected))
		}
	}
	if venue.PricePerHead != nil && prefs.AverageBudget > 0 {
		if *venue.PricePerHead <= prefs.AverageBudget {
			pros = append(pros, "Within the group's average budget")
		} else {
			cons = append(cons, "Above the group's average budget")
		}
	}
	if hasDistance {
		if avgDistance <= prefs.SearchRadiusM {
			pros = append(pros, fmt.Sprintf("Convenient location (%.0fm on average)", avgDistance))
		} else {
			cons = append(cons, "Outside the group's preferred radius")
		}
	}
	if venue.LikeCount > 20 {
		pros = append(pros, "Popular with other groups")
	}
	return pros, cons
}

func containsFold(haystack []string, needle string) bool {
	if needle == "" {
		return false
	}
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}

type enrichResult struct {
	adjustments []*domain.VenueAdjustment
	err         error
}

// enrich submits the top candidates to the external AI scorer, racing the
// call against the timeout. The traditional scores survive untouched when
// the call loses the race or fails; enrichment never errors to the caller.
func (s *recommendationService) enrich(ctx context.Context, event *domain.Event, prefs *domain.AggregatedPreferences, scored []*domain.ScoredVenue) string {
	if s.scorer == nil || len(scored) == 0 {
		return domain.EnrichmentSkipped
	}
	top := scored
	if len(top) > enrichTopN {
		top = top[:enrichTopN]
	}

	resultCh := make(chan enrichResult, 1)
	// The call runs on a detached context: the race loser is abandoned, not
	// cancelled, trading a background goroutine for bounded latency.
	callCtx := context.WithoutCancel(ctx)
	go func() {
		adjustments, err := s.scorer.AnalyzeVenues(callCtx, &domain.VenueAnalysisRequest{
			Event:                event,
			Candidates:           top,
			Preferences:          prefs,
			ParticipantLocations: prefs.ParticipantLocations,
		})
		resultCh <- enrichResult{adjustments: adjustments, err: err}
	}()

	timer := time.NewTimer(s.aiTimeout)
	defer timer.Stop()
	select {
	case res := <-resultCh:
		if res.err != nil {
			s.logger.Warn("ai enrichment errored", "event_id", event.ID, "err", res.err)
			return domain.EnrichmentErrored
		}
		s.mergeAdjustments(top, res.adjustments)
		s.logger.Info("ai enrichment completed", "event_id", event.ID, "adjustments", len(res.adjustments))
		return domain.EnrichmentCompleted
	case <-timer.C:
		s.logger.Warn("ai enrichment timed out, call abandoned", "event_id", event.ID, "timeout", s.aiTimeout)
		return domain.EnrichmentTimedOut
	}
}

// mergeAdjustments overrides traditional results per venue, only where the
// adjustment provides a value.
func (s *recommendationService) mergeAdjustments(scored []*domain.ScoredVenue, adjustments []*domain.VenueAdjustment) {
	byVenue := make(map[string]*domain.VenueAdjustment, len(adjustments))
	for _, adj := range adjustments {
		if adj != nil {
			byVenue[adj.VenueID] = adj
		}
	}
	for _, sv := range scored {
		adj, ok := byVenue[sv.Venue.ID]
		if !ok {
			continue
		}
		if adj.Score != nil {
			sv.Score = math.Max(0, math.Min(100, *adj.Score))
		}
		if adj.Reasoning != "" {
			sv.Reasoning = adj.Reasoning
		}
		if len(adj.Pros) > 0 {
			sv.Pros = adj.Pros
		}
		if len(adj.Cons) > 0 {
			sv.Cons = adj.Cons
		}
	}
}

// saveProgress persists the progress record best-effort. Write failures are
// logged and ignored.
func (s *recommendationService) saveProgress(ctx context.Context, eventID, step string, percent int, enrichment string) {
	progress := &domain.RecommendationProgress{
		Step:       step,
		Percent:    percent,
		Enrichment: enrichment,
		UpdatedAt:  time.Now(),
	}
	if err := s.eventRepo.SaveRecommendationProgress(ctx, eventID, progress); err != nil {
		s.logger.Warn("save recommendation progress failed", "event_id", eventID, "step", step, "err", err)
	}
}

func (s *recommendationService) ListOptions(ctx context.Context, eventID, callerID string) ([]*domain.VenueOption, error) {
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
	if options == nil {
		options = []*domain.VenueOption{}
	}
	return options, nil
}

func (s *recommendationService) AddManualOption(ctx context.Context, eventID, callerID string, venueID *string, externalRef *string) (*domain.VenueOption, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.Status != domain.StatusGatheringPreferences {
		return nil, domain.NewBusinessRuleError(domain.RuleOptionsLocked, "options cannot be added while the event is %s", event.Status)
	}
	if venueID == nil && externalRef == nil {
		return nil, domain.ErrInvalidInput
	}

	origin := domain.OriginOrganizer
	if event.OrganizerID != callerID {
		p, err := s.participantRepo.GetByEventAndUser(ctx, eventID, callerID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrForbidden
			}
			return nil, fmt.Errorf("get participant: %w", err)
		}
		if p.Status != domain.InvitationAccepted {
			return nil, domain.ErrForbidden
		}
		origin = domain.OriginUser
	}

	opt := &domain.VenueOption{
		ID:          uuid.NewString(),
		EventID:     eventID,
		VenueID:     venueID,
		ExternalRef: externalRef,
		Origin:      origin,
		CreatedAt:   time.Now(),
	}
	if venueID != nil {
		venue, err := s.venueRepo.GetByID(ctx, *venueID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrNotFound
			}
			return nil, fmt.Errorf("get venue: %w", err)
		}
		opt.EstimatedPerHead = venue.PricePerHead
	}
	if err := s.optionRepo.Create(ctx, opt); err != nil {
		return nil, fmt.Errorf("create option: %w", err)
	}
	return opt, nil
}
