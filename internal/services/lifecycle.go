package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"gatherplan/internal/domain"
)

const (
	minReasonLen = 10
	maxReasonLen = 500

	// overlapWindow is the window around the scheduled time inside which a
	// second event for the same organizer is rejected.
	overlapWindow = 2 * time.Hour

	// maxAdvanceSteps caps one auto-advance pass; the transition graph has no
	// auto path longer than this.
	maxAdvanceSteps = 4
)

// cityOffsets maps lowercase city names to UTC offsets in minutes. Fallback
// for confirmed venues without usable coordinates.
var cityOffsets = map[string]int{
	"ho chi minh city": 420,
	"hanoi":            420,
	"da nang":          420,
	"bangkok":          420,
	"jakarta":          420,
	"singapore":        480,
	"kuala lumpur":     480,
	"manila":           480,
	"tokyo":            540,
	"seoul":            540,
	"sydney":           600,
	"london":           0,
	"paris":            60,
	"berlin":           60,
	"new york":         -300,
	"san francisco":    -480,
}

type lifecycleService struct {
	eventRepo       domain.EventRepository
	participantRepo domain.ParticipantRepository
	venueRepo       domain.VenueRepository
	userRepo        domain.UserRepository
	chat            domain.ChatService
	notifier        domain.Notifier
	emailService    domain.EmailService
	background      *Background
	logger          *slog.Logger
	contextTimeout  time.Duration

	defaultThreshold float64
}

// NewLifecycleService creates the event lifecycle orchestrator.
func NewLifecycleService(
	eventRepo domain.EventRepository,
	participantRepo domain.ParticipantRepository,
	venueRepo domain.VenueRepository,
	userRepo domain.UserRepository,
	chat domain.ChatService,
	notifier domain.Notifier,
	emailService domain.EmailService,
	background *Background,
	logger *slog.Logger,
	timeout time.Duration,
	defaultThreshold float64,
) domain.LifecycleService {
	if defaultThreshold <= 0 || defaultThreshold > 1 {
		defaultThreshold = 0.70
	}
	return &lifecycleService{
		eventRepo:        eventRepo,
		participantRepo:  participantRepo,
		venueRepo:        venueRepo,
		userRepo:         userRepo,
		chat:             chat,
		notifier:         notifier,
		emailService:     emailService,
		background:       background,
		logger:           logger,
		contextTimeout:   timeout,
		defaultThreshold: defaultThreshold,
	}
}

func (s *lifecycleService) CreateEvent(ctx context.Context, event *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if event.OrganizerID == "" {
		return domain.ErrInvalidInput
	}
	if strings.TrimSpace(event.Title) == "" {
		return domain.ErrInvalidInput
	}
	if event.ExpectedAttendees <= 0 {
		return domain.NewBusinessRuleError(domain.RuleInvalidSchedule, "expected attendees must be positive")
	}
	if event.MaxAttendees == 0 {
		event.MaxAttendees = event.ExpectedAttendees
	}
	if event.MaxAttendees < event.ExpectedAttendees {
		return domain.NewBusinessRuleError(domain.RuleInvalidSchedule, "max attendees (%d) below expected attendees (%d)", event.MaxAttendees, event.ExpectedAttendees)
	}
	if event.AcceptanceThreshold == 0 {
		event.AcceptanceThreshold = s.defaultThreshold
	}
	if event.AcceptanceThreshold <= 0 || event.AcceptanceThreshold > 1 {
		return domain.NewBusinessRuleError(domain.RuleInvalidThreshold, "acceptance threshold must be in (0, 1]")
	}
	if event.ScheduledAt != nil {
		overlapping, err := s.eventRepo.ListOverlapping(ctx, event.OrganizerID,
			event.ScheduledAt.Add(-overlapWindow), event.ScheduledAt.Add(overlapWindow))
		if err != nil {
			return fmt.Errorf("check overlapping events: %w", err)
		}
		if len(overlapping) > 0 {
			return domain.NewBusinessRuleError(domain.RuleOverlappingEvent, "organizer already has an event within %s of the scheduled time", overlapWindow)
		}
	}

	now := time.Now()
	event.Status = domain.StatusDraft
	event.CreatedAt = now
	event.UpdatedAt = now
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}

	// The organizer is a participant with accepted status from creation.
	organizer := &domain.Participant{
		EventID:     event.ID,
		UserID:      event.OrganizerID,
		Status:      domain.InvitationAccepted,
		InvitedBy:   event.OrganizerID,
		InvitedAt:   now,
		RespondedAt: &now,
	}
	if err := s.participantRepo.Create(ctx, organizer); err != nil {
		return fmt.Errorf("create organizer participant: %w", err)
	}
	return nil
}

func (s *lifecycleService) ListEvents(ctx context.Context, organizerID string) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.ListByOrganizerID(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

func (s *lifecycleService) GetEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	// Opportunistic advance on read; never fails the read itself.
	if advanced, err := s.AutoAdvance(ctx, eventID); err == nil && advanced != nil {
		event = advanced
	}
	return event, nil
}

func (s *lifecycleService) UpdateEvent(ctx context.Context, eventID, organizerID string, update domain.EventUpdate) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.OrganizerID != organizerID {
		return nil, domain.ErrForbidden
	}
	if event.IsFrozen() {
		return nil, domain.NewBusinessRuleError(domain.RuleEventNotModifiable, "event is %s", event.Status)
	}

	if update.Title != nil {
		if strings.TrimSpace(*update.Title) == "" {
			return nil, domain.ErrInvalidInput
		}
		event.Title = *update.Title
	}
	if update.Description != nil {
		event.Description = update.Description
	}
	if update.ScheduledAt != nil {
		event.ScheduledAt = update.ScheduledAt
	}
	if update.ExpectedAttendees != nil {
		if *update.ExpectedAttendees <= 0 {
			return nil, domain.NewBusinessRuleError(domain.RuleInvalidSchedule, "expected attendees must be positive")
		}
		event.ExpectedAttendees = *update.ExpectedAttendees
	}
	if update.MaxAttendees != nil {
		event.MaxAttendees = *update.MaxAttendees
	}
	if event.MaxAttendees < event.ExpectedAttendees {
		return nil, domain.NewBusinessRuleError(domain.RuleInvalidSchedule, "max attendees (%d) below expected attendees (%d)", event.MaxAttendees, event.ExpectedAttendees)
	}
	if update.AcceptanceThreshold != nil {
		if *update.AcceptanceThreshold <= 0 || *update.AcceptanceThreshold > 1 {
			return nil, domain.NewBusinessRuleError(domain.RuleInvalidThreshold, "acceptance threshold must be in (0, 1]")
		}
		event.AcceptanceThreshold = *update.AcceptanceThreshold
	}
	if update.BudgetPerPerson != nil {
		if *update.BudgetPerPerson < 0 {
			return nil, domain.NewBusinessRuleError(domain.RuleInvalidBudget, "budget per person cannot be negative")
		}
		event.BudgetPerPerson = update.BudgetPerPerson
	}
	if update.RSVPDeadline != nil {
		event.RSVPDeadline = update.RSVPDeadline
	}
	if update.InvitationDeadline != nil {
		event.InvitationDeadline = update.InvitationDeadline
	}

	event.UpdatedAt = time.Now()
	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}

	// Updating details while still in draft moves the event into planning.
	if event.Status == domain.StatusDraft {
		if err := s.transition(ctx, event, domain.StatusPlanning); err != nil {
			s.logger.Warn("draft to planning on update failed", "event_id", event.ID, "err", err)
		}
		if advanced, err := s.AutoAdvance(ctx, event.ID); err == nil && advanced != nil {
			event = advanced
		}
	}
	return event, nil
}

func (s *lifecycleService) RescheduleEvent(ctx context.Context, eventID, organizerID string, newTime time.Time, reason string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	reason = strings.TrimSpace(reason)
	if len(reason) < minReasonLen || len(reason) > maxReasonLen {
		return nil, domain.NewBusinessRuleError(domain.RuleInvalidRescheduleReason, "reschedule reason must be %d-%d characters", minReasonLen, maxReasonLen)
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.OrganizerID != organizerID {
		return nil, domain.ErrForbidden
	}
	if event.IsFrozen() {
		return nil, domain.NewBusinessRuleError(domain.RuleEventNotModifiable, "event is %s", event.Status)
	}

	event.PreviousScheduledAt = event.ScheduledAt
	event.ScheduledAt = &newTime
	event.RescheduleCount++
	event.RescheduleReason = &reason
	event.UpdatedAt = time.Now()
	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}

	s.notifyParticipants(event, "event_rescheduled",
		fmt.Sprintf("%s was rescheduled", event.Title), reason,
		func(user *domain.User) error {
			data := &domain.RescheduleEmailData{
				Email:      user.Email,
				EventTitle: event.Title,
				NewDate:    newTime.Format(time.RFC1123),
				Reason:     reason,
			}
			if event.PreviousScheduledAt != nil {
				data.PreviousDate = event.PreviousScheduledAt.Format(time.RFC1123)
			}
			return s.emailService.SendReschedule(context.Background(), data)
		})
	return event, nil
}

func (s *lifecycleService) CancelEvent(ctx context.Context, eventID, actorID, reason string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	// Reason validation happens before any transition or notification.
	reason = strings.TrimSpace(reason)
	if len(reason) < minReasonLen || len(reason) > maxReasonLen {
		return domain.NewBusinessRuleError(domain.RuleInvalidCancellationReason, "cancellation reason must be %d-%d characters", minReasonLen, maxReasonLen)
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}
	if event.OrganizerID != actorID {
		return domain.ErrForbidden
	}
	if event.Status == domain.StatusCancelled {
		// Idempotent: repeating a cancellation returns the prior success.
		return nil
	}
	if event.Status == domain.StatusCompleted {
		return domain.NewBusinessRuleError(domain.RuleEventNotModifiable, "completed events cannot be cancelled")
	}

	event.Status = domain.StatusCancelled
	event.CancellationReason = &reason
	event.UpdatedAt = time.Now()
	if err := s.eventRepo.UpdateStatus(ctx, event); err != nil {
		return fmt.Errorf("cancel event: %w", err)
	}
	s.logger.Info("event cancelled", "event_id", event.ID)

	// Best effort: notification failures never roll back the cancellation.
	s.notifyParticipants(event, "event_cancelled",
		fmt.Sprintf("%s was cancelled", event.Title), reason,
		func(user *domain.User) error {
			return s.emailService.SendCancellation(context.Background(), &domain.CancellationEmailData{
				Email:      user.Email,
				EventTitle: event.Title,
				Reason:     reason,
			})
		})
	return nil
}

func (s *lifecycleService) ConfirmEvent(ctx context.Context, eventID, actorID string, venueID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.OrganizerID != actorID {
		return nil, domain.ErrForbidden
	}
	if !event.Status.CanTransitionTo(domain.StatusConfirmed) {
		return nil, domain.NewBusinessRuleError(domain.RuleInvalidTransition, "cannot confirm an event in %s", event.Status)
	}
	if venueID == "" {
		return nil, domain.ErrInvalidInput
	}

	event.ChosenVenueID = &venueID
	s.applyConfirmation(ctx, event)
	event.UpdatedAt = time.Now()
	if err := s.eventRepo.UpdateStatus(ctx, event); err != nil {
		return nil, fmt.Errorf("confirm event: %w", err)
	}
	s.logger.Info("event confirmed", "event_id", event.ID, "venue_id", venueID)

	s.notifyParticipants(event, "event_confirmed",
		fmt.Sprintf("%s is confirmed", event.Title), "venue locked in", nil)
	return event, nil
}

func (s *lifecycleService) CompleteEvent(ctx context.Context, eventID, actorID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.OrganizerID != actorID {
		return nil, domain.ErrForbidden
	}
	if !event.Status.CanTransitionTo(domain.StatusCompleted) {
		return nil, domain.NewBusinessRuleError(domain.RuleInvalidTransition, "cannot complete an event in %s", event.Status)
	}
	event.Status = domain.StatusCompleted
	event.UpdatedAt = time.Now()
	if err := s.eventRepo.UpdateStatus(ctx, event); err != nil {
		return nil, fmt.Errorf("complete event: %w", err)
	}
	return event, nil
}

// AutoAdvance applies as many guarded transitions as accumulated state
// allows, reloading the event between steps. Step failures are logged and
// swallowed; the caller gets the furthest state reached.
func (s *lifecycleService) AutoAdvance(ctx context.Context, eventID string) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	for i := 0; i < maxAdvanceSteps; i++ {
		next, ok := s.nextAutoStatus(ctx, event)
		if !ok {
			break
		}
		if err := s.transition(ctx, event, next); err != nil {
			s.logger.Warn("auto-advance step failed", "event_id", eventID, "from", event.Status, "to", next, "err", err)
			break
		}
		reloaded, err := s.eventRepo.GetByID(ctx, eventID)
		if err != nil {
			s.logger.Warn("auto-advance reload failed", "event_id", eventID, "err", err)
			break
		}
		event = reloaded
	}
	return event, nil
}

// nextAutoStatus evaluates the guard for the event's current status.
func (s *lifecycleService) nextAutoStatus(ctx context.Context, event *domain.Event) (domain.EventStatus, bool) {
	switch event.Status {
	case domain.StatusDraft, domain.StatusPlanning:
		invited, err := s.countInvited(ctx, event)
		if err != nil {
			s.logger.Warn("auto-advance guard failed", "event_id", event.ID, "err", err)
			return "", false
		}
		if invited == 0 {
			return "", false
		}
		if event.Status == domain.StatusDraft {
			return domain.StatusPlanning, true
		}
		return domain.StatusInviting, true
	case domain.StatusInviting:
		accepted, err := s.participantRepo.CountByStatus(ctx, event.ID, domain.InvitationAccepted)
		if err != nil {
			s.logger.Warn("auto-advance guard failed", "event_id", event.ID, "err", err)
			return "", false
		}
		if !MeetsThreshold(accepted, event.ExpectedAttendees, event.AcceptanceThreshold) {
			return "", false
		}
		if event.ChosenVenueID != nil {
			// Direct-selection fast path.
			return domain.StatusConfirmed, true
		}
		return domain.StatusGatheringPreferences, true
	default:
		return "", false
	}
}

// transition applies one legal status change and its entry side effects.
func (s *lifecycleService) transition(ctx context.Context, event *domain.Event, next domain.EventStatus) error {
	if !event.Status.CanTransitionTo(next) {
		return domain.NewBusinessRuleError(domain.RuleInvalidTransition, "%s -> %s is not a legal transition", event.Status, next)
	}
	from := event.Status
	event.Status = next

	switch next {
	case domain.StatusInviting:
		s.ensureConversation(ctx, event)
	case domain.StatusConfirmed:
		s.applyConfirmation(ctx, event)
	}

	event.UpdatedAt = time.Now()
	if err := s.eventRepo.UpdateStatus(ctx, event); err != nil {
		event.Status = from
		return fmt.Errorf("persist transition: %w", err)
	}
	s.logger.Info("event transitioned", "event_id", event.ID, "from", from, "to", next)
	return nil
}

// ensureConversation creates the shared chat conversation for accepted and
// pending participants. Best effort; a chat failure never blocks entry into
// inviting.
func (s *lifecycleService) ensureConversation(ctx context.Context, event *domain.Event) {
	if event.ConversationID != nil {
		return
	}
	participants, err := s.participantRepo.ListByEventID(ctx, event.ID)
	if err != nil {
		s.logger.Warn("list participants for conversation failed", "event_id", event.ID, "err", err)
		return
	}
	var memberIDs []string
	for _, p := range participants {
		if p.Status == domain.InvitationAccepted || p.Status == domain.InvitationPending {
			memberIDs = append(memberIDs, p.UserID)
		}
	}
	convID, err := s.chat.EnsureConversation(ctx, event.ID, memberIDs)
	if err != nil {
		s.logger.Warn("ensure conversation failed", "event_id", event.ID, "err", err)
		return
	}
	event.ConversationID = &convID
}

// applyConfirmation locks the venue choice and derives the display timezone:
// venue coordinates first, then the static city table, then the organizer's
// stored offset.
func (s *lifecycleService) applyConfirmation(ctx context.Context, event *domain.Event) {
	var venue *domain.Venue
	if event.ChosenVenueID != nil {
		v, err := s.venueRepo.GetByID(ctx, *event.ChosenVenueID)
		if err != nil {
			s.logger.Warn("load chosen venue failed", "event_id", event.ID, "venue_id", *event.ChosenVenueID, "err", err)
		} else {
			venue = v
		}
	}
	var organizer *domain.User
	if u, err := s.userRepo.GetByID(ctx, event.OrganizerID); err == nil {
		organizer = u
	}
	event.TimezoneOffsetMinutes = deriveTimezoneOffset(venue, organizer)
}

// deriveTimezoneOffset returns the UTC offset in minutes for a confirmed
// event's display timezone.
func deriveTimezoneOffset(venue *domain.Venue, organizer *domain.User) int {
	if venue != nil && venue.Lng != nil {
		return int(math.Round(*venue.Lng/15.0)) * 60
	}
	if venue != nil {
		if off, ok := cityOffsets[strings.ToLower(strings.TrimSpace(venue.City))]; ok {
			return off
		}
	}
	if organizer != nil {
		return organizer.TimezoneOffsetMinutes
	}
	return 0
}

// countInvited counts participant records other than the organizer.
func (s *lifecycleService) countInvited(ctx context.Context, event *domain.Event) (int, error) {
	participants, err := s.participantRepo.ListByEventID(ctx, event.ID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, p := range participants {
		if p.UserID != event.OrganizerID {
			n++
		}
	}
	return n, nil
}

// notifyParticipants fans out an in-app notification and, when sendEmail is
// non-nil, an email to every participant on the background dispatcher.
func (s *lifecycleService) notifyParticipants(event *domain.Event, kind, title, body string, sendEmail func(*domain.User) error) {
	eventID := event.ID
	s.background.Go("notify:"+kind, func(ctx context.Context) error {
		participants, err := s.participantRepo.ListByEventID(ctx, eventID)
		if err != nil {
			return fmt.Errorf("list participants: %w", err)
		}
		payload := domain.NotificationPayload{Kind: kind, EventID: eventID, Title: title, Body: body}
		for _, p := range participants {
			if err := s.notifier.NotifyUser(ctx, p.UserID, payload); err != nil {
				s.logger.Warn("notify user failed", "event_id", eventID, "user_id", p.UserID, "err", err)
			}
			if sendEmail == nil {
				continue
			}
			user, err := s.userRepo.GetByID(ctx, p.UserID)
			if err != nil {
				s.logger.Warn("load user for email failed", "event_id", eventID, "user_id", p.UserID, "err", err)
				continue
			}
			if err := sendEmail(user); err != nil {
				s.logger.Warn("send email failed", "event_id", eventID, "user_id", p.UserID, "err", err)
			}
		}
		return nil
	})
}
