package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"gatherplan/internal/domain"
)

// MeetsThreshold reports whether the accepted count satisfies the event's
// acceptance threshold: accepted >= ceil(expected * threshold). Pure and
// deterministic.
func MeetsThreshold(accepted, expected int, threshold float64) bool {
	if expected <= 0 {
		return false
	}
	required := int(math.Ceil(float64(expected) * threshold))
	return accepted >= required
}

type participantService struct {
	eventRepo       domain.EventRepository
	participantRepo domain.ParticipantRepository
	userRepo        domain.UserRepository
	lifecycle       domain.LifecycleService
	chat            domain.ChatService
	notifier        domain.Notifier
	emailService    domain.EmailService
	background      *Background
	logger          *slog.Logger
	contextTimeout  time.Duration
}

// NewParticipantService creates the invitation/acceptance tracker.
func NewParticipantService(
	eventRepo domain.EventRepository,
	participantRepo domain.ParticipantRepository,
	userRepo domain.UserRepository,
	lifecycle domain.LifecycleService,
	chat domain.ChatService,
	notifier domain.Notifier,
	emailService domain.EmailService,
	background *Background,
	logger *slog.Logger,
	timeout time.Duration,
) domain.ParticipantService {
	return &participantService{
		eventRepo:       eventRepo,
		participantRepo: participantRepo,
		userRepo:        userRepo,
		lifecycle:       lifecycle,
		chat:            chat,
		notifier:        notifier,
		emailService:    emailService,
		background:      background,
		logger:          logger,
		contextTimeout:  timeout,
	}
}

func (s *participantService) InviteParticipants(ctx context.Context, eventID, organizerID string, userIDs []string) (*domain.InviteResult, error) {
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

	// Deduplicate and exclude the organizer; the organizer is a participant
	// already and inviting them is a no-op batch entry, not an error.
	seen := make(map[string]struct{}, len(userIDs))
	var batch []string
	for _, id := range userIDs {
		if id == "" || id == event.OrganizerID {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		batch = append(batch, id)
	}
	if len(batch) == 0 {
		return nil, domain.NewBusinessRuleError(domain.RuleEmptyInviteBatch, "no users to invite after excluding the organizer")
	}

	accepted, err := s.participantRepo.CountByStatus(ctx, eventID, domain.InvitationAccepted)
	if err != nil {
		return nil, fmt.Errorf("count accepted: %w", err)
	}
	pending, err := s.participantRepo.CountByStatus(ctx, eventID, domain.InvitationPending)
	if err != nil {
		return nil, fmt.Errorf("count pending: %w", err)
	}
	if accepted+pending+len(batch) > event.MaxAttendees {
		shortfall := event.MaxAttendees - accepted - pending
		if shortfall < 0 {
			shortfall = 0
		}
		return nil, domain.NewBusinessRuleError(domain.RuleCapacityExceeded, "only %d invitation slots remain", shortfall)
	}

	now := time.Now()
	result := &domain.InviteResult{}
	for _, userID := range batch {
		existing, err := s.participantRepo.GetByEventAndUser(ctx, eventID, userID)
		switch {
		case err == nil && existing.Status == domain.InvitationDeclined:
			// Re-invitation reopens a declined record.
			existing.Status = domain.InvitationPending
			existing.RespondedAt = nil
			existing.InvitedBy = organizerID
			existing.InvitedAt = now
			if err := s.participantRepo.Update(ctx, existing); err != nil {
				return nil, fmt.Errorf("reopen invitation: %w", err)
			}
			result.Reopened = append(result.Reopened, userID)
			s.sendInvitation(event, userID)
		case err == nil:
			// Pending or accepted already: silent no-op, no duplicate
			// notification.
			result.Skipped = append(result.Skipped, userID)
		case errors.Is(err, domain.ErrNotFound):
			p := &domain.Participant{
				EventID:   eventID,
				UserID:    userID,
				Status:    domain.InvitationPending,
				InvitedBy: organizerID,
				InvitedAt: now,
			}
			if err := s.participantRepo.Create(ctx, p); err != nil {
				return nil, fmt.Errorf("create participant: %w", err)
			}
			result.Invited = append(result.Invited, userID)
			s.sendInvitation(event, userID)
		default:
			return nil, fmt.Errorf("get participant: %w", err)
		}
	}

	// The first invitation moves draft through planning into inviting.
	if _, err := s.lifecycle.AutoAdvance(ctx, eventID); err != nil {
		s.logger.Warn("auto-advance after invite failed", "event_id", eventID, "err", err)
	}
	return result, nil
}

func (s *participantService) Respond(ctx context.Context, eventID, userID string, accept bool) (*domain.Participant, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.IsFrozen() {
		return nil, domain.NewBusinessRuleError(domain.RuleEventNotModifiable, "event is %s", event.Status)
	}
	if event.InvitationDeadline != nil && time.Now().After(*event.InvitationDeadline) {
		return nil, domain.NewBusinessRuleError(domain.RuleInvitationDeadlinePassed, "the invitation deadline has passed")
	}

	p, err := s.participantRepo.GetByEventAndUser(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get participant: %w", err)
	}

	now := time.Now()
	if accept {
		p.Status = domain.InvitationAccepted
	} else {
		p.Status = domain.InvitationDeclined
	}
	p.RespondedAt = &now
	if err := s.participantRepo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update participant: %w", err)
	}

	if accept {
		if event.ConversationID != nil {
			convID, uid := *event.ConversationID, userID
			s.background.Go("chat:add-participant", func(ctx context.Context) error {
				return s.chat.AddParticipants(ctx, convID, []string{uid})
			})
		}
		// An acceptance may satisfy the threshold guard.
		if _, err := s.lifecycle.AutoAdvance(ctx, eventID); err != nil {
			s.logger.Warn("auto-advance after accept failed", "event_id", eventID, "err", err)
		}
	}
	return p, nil
}

func (s *participantService) RemoveParticipant(ctx context.Context, eventID, organizerID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}
	if event.OrganizerID != organizerID {
		return domain.ErrForbidden
	}
	if userID == organizerID {
		return domain.NewBusinessRuleError(domain.RuleCannotRemoveSelf, "the organizer cannot be removed")
	}

	p, err := s.participantRepo.GetByEventAndUser(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get participant: %w", err)
	}
	if err := s.participantRepo.Delete(ctx, p.ID); err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}

	// Removing an accepted participant also removes them from the shared
	// conversation.
	if p.Status == domain.InvitationAccepted && event.ConversationID != nil {
		convID, uid := *event.ConversationID, userID
		s.background.Go("chat:remove-participant", func(ctx context.Context) error {
			return s.chat.RemoveParticipant(ctx, convID, uid)
		})
	}
	return nil
}

func (s *participantService) ListParticipants(ctx context.Context, eventID, callerID string) ([]*domain.Participant, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	// Organizer or invited participants may see the list.
	if event.OrganizerID != callerID {
		if _, err := s.participantRepo.GetByEventAndUser(ctx, eventID, callerID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrForbidden
			}
			return nil, fmt.Errorf("get participant: %w", err)
		}
	}
	participants, err := s.participantRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	if participants == nil {
		participants = []*domain.Participant{}
	}
	return participants, nil
}

// sendInvitation dispatches the in-app notification and invitation email for
// one invitee in the background.
func (s *participantService) sendInvitation(event *domain.Event, userID string) {
	eventID, title := event.ID, event.Title
	organizerID := event.OrganizerID
	var eventDate, deadline string
	if event.ScheduledAt != nil {
		eventDate = event.ScheduledAt.Format(time.RFC1123)
	}
	if event.RSVPDeadline != nil {
		deadline = event.RSVPDeadline.Format(time.RFC1123)
	}

	s.background.Go("invite:notify", func(ctx context.Context) error {
		if err := s.notifier.NotifyUser(ctx, userID, domain.NotificationPayload{
			Kind:    "event_invitation",
			EventID: eventID,
			Title:   fmt.Sprintf("You're invited to %s", title),
		}); err != nil {
			s.logger.Warn("invitation notification failed", "event_id", eventID, "user_id", userID, "err", err)
		}

		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("load invitee: %w", err)
		}
		organizerName := "The organizer"
		if organizer, err := s.userRepo.GetByID(ctx, organizerID); err == nil && organizer.Name != "" {
			organizerName = organizer.Name
		}
		return s.emailService.SendInvitation(ctx, &domain.InvitationEmailData{
			Email:         user.Email,
			OrganizerName: organizerName,
			EventTitle:    title,
			EventDate:     eventDate,
			RSVPDeadline:  deadline,
		})
	})
}
