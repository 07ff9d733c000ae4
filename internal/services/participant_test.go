package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatherplan/internal/domain"
)

type participantFixture struct {
	*lifecycleFixture
	svc domain.ParticipantService
}

func newParticipantFixture() *participantFixture {
	lf := newLifecycleFixture()
	svc := NewParticipantService(lf.events, lf.participants, lf.users, lf.svc,
		lf.chat, lf.notifier, lf.emails, lf.background, testLogger(), 5*time.Second)
	return &participantFixture{lifecycleFixture: lf, svc: svc}
}

func TestParticipantService_InviteParticipants(t *testing.T) {
	ctx := context.Background()

	t.Run("batch is deduplicated and excludes the organizer", func(t *testing.T) {
		f := newParticipantFixture()
		seed := f.seedEvent(&domain.Event{OrganizerID: "org-1", Title: "Dinner", ExpectedAttendees: 6, MaxAttendees: 10})
		f.addUser("org-1", "org@example.com")
		f.addUser("user-2", "u2@example.com")
		f.addUser("user-3", "u3@example.com")

		result, err := f.svc.InviteParticipants(ctx, seed.ID, "org-1", []string{"user-2", "user-2", "org-1", "", "user-3"})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"user-2", "user-3"}, result.Invited)
		assert.Empty(t, result.Reopened)
		assert.Empty(t, result.Skipped)

		p, err := f.participants.GetByEventAndUser(ctx, seed.ID, "user-2")
		require.NoError(t, err)
		assert.Equal(t, domain.InvitationPending, p.Status)
		assert.Equal(t, "org-1", p.InvitedBy)

		f.background.Wait()
		assert.Equal(t, 2, f.emails.invitations)
	})

	t.Run("empty batch after exclusions", func(t *testing.T) {
		f := newParticipantFixture()
		seed := f.seedEvent(&domain.Event{OrganizerID: "org-1", Title: "Dinner", ExpectedAttendees: 6})
		_, err := f.svc.InviteParticipants(ctx, seed.ID, "org-1", []string{"org-1", ""})
		bre, ok := domain.AsBusinessRule(err)
		require.True(t, ok, "expected business rule error, got %v", err)
		assert.Equal(t, domain.RuleEmptyInviteBatch, bre.Code)
	})

	t.Run("declined invitation is reopened", func(t *testing.T) {
		f := newParticipantFixture()
		seed := f.seedEvent(&domain.Event{OrganizerID: "org-1", Title: "Dinner", ExpectedAttendees: 6, MaxAttendees: 10, Status: domain.StatusInviting})
		f.addParticipant(seed.ID, "user-2", domain.InvitationDeclined)
		f.addUser("user-2", "u2@example.com")

		result, err := f.svc.InviteParticipants(ctx, seed.ID, "org-1", []string{"user-2"})
		require.NoError(t, err)
		assert.Equal(t, []string{"user-2"}, result.Reopened)

		p, err := f.participants.GetByEventAndUser(ctx, seed.ID, "user-2")
		require.NoError(t, err)
		assert.Equal(t, domain.InvitationPending, p.Status)
		assert.Nil(t, p.RespondedAt)
		f.background.Wait()
	})

	t.Run("pending and accepted invitees are skipped silently", func(t *testing.T) {
		f := newParticipantFixture()
		seed := f.seedEvent(&domain.Event{OrganizerID: "org-1", Title: "Dinner", ExpectedAttendees: 6, MaxAttendees: 10, Status: domain.StatusInviting})
		f.addParticipant(seed.ID, "user-2", domain.InvitationPending)
		f.addParticipant(seed.ID, "user-3", domain.InvitationAccepted)

		result, err := f.svc.InviteParticipants(ctx, seed.ID, "org-1", []string{"user-2", "user-3"})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"user-2", "user-3"}, result.Skipped)
		assert.Empty(t, result.Invited)

		f.background.Wait()
		assert.Equal(t, 0, f.emails.invitations, "no duplicate invitations")
	})

	t.Run("capacity shortfall rejects the whole batch", func(t *testing.T) {
		f := newParticipantFixture()
		// Organizer accepted plus two pending leaves one slot of four.
		seed := f.seedEvent(&domain.Event{OrganizerID: "org-1", Title: "Dinner", ExpectedAttendees: 4, MaxAttendees: 4, Status: domain.StatusInviting})
		f.addParticipant(seed.ID, "user-2", domain.InvitationPending)
		f.addParticipant(seed.ID, "user-3", domain.InvitationPending)

		_, err := f.svc.InviteParticipants(ctx, seed.ID, "org-1", []string{"user-4", "user-5"})
		bre, ok := domain.AsBusinessRule(err)
		require.True(t, ok)
		assert.Equal(t, domain.RuleCapacityExceeded, bre.Code)
		assert.Contains(t, bre.Message, "1 invitation slots remain")
	})

	t.Run("frozen event rejects invitations", func(t *testing.T) {
		f := newParticipantFixture()
		seed := f.seedEvent(&domain.Event{OrganizerID: "org-1", Title: "Dinner", ExpectedAttendees: 6, Status: domain.StatusCancelled})
		_, err := f.svc.InviteParticipants(ctx, seed.ID, "org-1", []string{"user-2"})
		bre, ok := domain.AsBusinessRule(err)
		require.True(t, ok)
		assert.Equal(t, domain.RuleEventNotModifiable, bre.Code)
	})

	t.Run("only the organizer invites", func(t *testing.T) {
		f := newParticipantFixture()
		seed := f.seedEvent(&domain.Event{OrganizerID: "org-1", Title: "Dinner", ExpectedAttendees: 6})
		_, err := f.svc.InviteParticipants(ctx, seed.ID, "user-2", []string{"user-3"})
		require.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("first invitation advances the draft", func(t *testing.T) {
		f := newParticipantFixture()
		seed := f.seedEvent(&domain.Event{OrganizerID: "org-1", Title: "Dinner", ExpectedAttendees: 6, MaxAttendees: 10})
		f.addUser("user-2", "u2@example.com")

		_, err := f.svc.InviteParticipants(ctx, seed.ID, "org-1", []string{"user-2"})
		require.NoError(t, err)

		stored, err := f.events.GetByID(ctx, seed.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusInviting, stored.Status)
		f.background.Wait()
	})
}

func TestParticipantService_Respond(t *testing.T) {
	ctx := context.Background()

	t.Run("accept records response and joins the conversation", func(t *testing.T) {
		f := newParticipantFixture()
		convID := "conv-9"
		seed := f.seedEvent(&domain.Event{OrganizerID: "org-1", Title: "Dinner", ExpectedAttendees: 6, Status: domain.StatusInviting, ConversationID: &convID})
		f.addParticipant(seed.ID, "user-2", domain.InvitationPending)

		p, err := f.svc.Respond(ctx, seed.ID, "user-2", true)
		require.NoError(t, err)
		assert.Equal(t, domain.InvitationAccepted, p.Status)
		require.NotNil(t, p.RespondedAt)

		f.background.Wait()
		require.Len(t, f.chat.added, 1)
		assert.Equal(t, []string{"user-2"}, f.chat.added[0])
	})

	t.Run("decline records response without chat sync", func(t *testing.T) {
		f := newParticipantFixture()
		seed := f.seedEvent(&domain.Event{OrganizerID: "org-1", Title: "Dinner", ExpectedAttendees: 6, Status: domain.StatusInviting})
		f.addParticipant(seed.ID, "user-2", domain.InvitationPending)

		p, err := f.svc.Respond(ctx, seed.ID, "user-2", false)
		require.NoError(t, err)
		assert.Equal(t, domain.InvitationDeclined, p.Status)

		f.background.Wait()
		assert.Empty(t, f.chat.added)
	})

	t.Run("acceptance can satisfy the threshold", func(t *testing.T) {
		f := newParticipantFixture()
		// expected 2 at 0.70 requires 2 acceptances; the organizer is one.
		seed := f.seedEvent(&domain.Event{OrganizerID: "org-1", Title: "Dinner", ExpectedAttendees: 2, AcceptanceThreshold: 0.70, Status: domain.StatusInviting})
		f.addParticipant(seed.ID, "user-2", domain.InvitationPending)

		_, err := f.svc.Respond(ctx, seed.ID, "user-2", true)
		require.NoError(t, err)

		stored, err := f.events.GetByID(ctx, seed.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusGatheringPreferences, stored.Status)
		f.background.Wait()
	})

	t.Run("deadline passed", func(t *testing.T) {
		f := newParticipantFixture()
		past := time.Now().Add(-time.Hour)
		seed := f.seedEvent(&domain.Event{OrganizerID: "org-1", Title: "Dinner", ExpectedAttendees: 6, Status: domain.StatusInviting, InvitationDeadline: &past})
		f.addParticipant(seed.ID, "user-2", domain.InvitationPending)

		_, err := f.svc.Respond(ctx, seed.ID, "user-2", true)
		bre, ok := domain.AsBusinessRule(err)
		require.True(t, ok)
		assert.Equal(t, domain.RuleInvitationDeadlinePassed, bre.Code)
	})

	t.Run("no invitation on record", func(t *testing.T) {
		f := newParticipantFixture()
		seed := f.seedEvent(&domain.Event{OrganizerID: "org-1", Title: "Dinner", ExpectedAttendees: 6, Status: domain.StatusInviting})
		_, err := f.svc.Respond(ctx, seed.ID, "stranger", true)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("frozen event", func(t *testing.T) {
		f := newParticipantFixture()
		seed := f.seedEvent(&domain.Event{OrganizerID: "org-1", Title: "Dinner", ExpectedAttendees: 6, Status: domain.StatusCompleted})
		f.addParticipant(seed.ID, "user-2", domain.InvitationPending)
		_, err := f.svc.Respond(ctx, seed.ID, "user-2", true)
		bre, ok := domain.AsBusinessRule(err)
		require.True(t, ok)
		assert.Equal(t, domain.RuleEventNotModifiable, bre.Code)
	})
}

func TestParticipantService_RemoveParticipant(t *testing.T) {
	ctx := context.Background()

	t.Run("organizer cannot remove themselves", func(t *testing.T) {
		f := newParticipantFixture()
		seed := f.seedEvent(&domain.Event{OrganizerID: "org-1", Title: "Dinner", ExpectedAttendees: 6, Status: domain.StatusInviting})
		err := f.svc.RemoveParticipant(ctx, seed.ID, "org-1", "org-1")
		bre, ok := domain.AsBusinessRule(err)
		require.True(t, ok)
		assert.Equal(t, domain.RuleCannotRemoveSelf, bre.Code)
	})

	t.Run("accepted participant leaves the conversation too", func(t *testing.T) {
		f := newParticipantFixture()
		convID := "conv-1"
		seed := f.seedEvent(&domain.Event{OrganizerID: "org-1", Title: "Dinner", ExpectedAttendees: 6, Status: domain.StatusInviting, ConversationID: &convID})
		f.addParticipant(seed.ID, "user-2", domain.InvitationAccepted)

		err := f.svc.RemoveParticipant(ctx, seed.ID, "org-1", "user-2")
		require.NoError(t, err)
		_, err = f.participants.GetByEventAndUser(ctx, seed.ID, "user-2")
		require.ErrorIs(t, err, domain.ErrNotFound)

		f.background.Wait()
		assert.Equal(t, []string{"user-2"}, f.chat.removed)
	})

	t.Run("pending participant removed without chat sync", func(t *testing.T) {
		f := newParticipantFixture()
		convID := "conv-1"
		seed := f.seedEvent(&domain.Event{OrganizerID: "org-1", Title: "Dinner", ExpectedAttendees: 6, Status: domain.StatusInviting, ConversationID: &convID})
		f.addParticipant(seed.ID, "user-2", domain.InvitationPending)

		err := f.svc.RemoveParticipant(ctx, seed.ID, "org-1", "user-2")
		require.NoError(t, err)
		f.background.Wait()
		assert.Empty(t, f.chat.removed)
	})

	t.Run("only the organizer removes", func(t *testing.T) {
		f := newParticipantFixture()
		seed := f.seedEvent(&domain.Event{OrganizerID: "org-1", Title: "Dinner", ExpectedAttendees: 6, Status: domain.StatusInviting})
		f.addParticipant(seed.ID, "user-2", domain.InvitationAccepted)
		err := f.svc.RemoveParticipant(ctx, seed.ID, "user-2", "user-2")
		require.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestParticipantService_ListParticipants(t *testing.T) {
	ctx := context.Background()

	t.Run("organizer sees the list", func(t *testing.T) {
		f := newParticipantFixture()
		seed := f.seedEvent(&domain.Event{OrganizerID: "org-1", Title: "Dinner", ExpectedAttendees: 6, Status: domain.StatusInviting})
		f.addParticipant(seed.ID, "user-2", domain.InvitationPending)

		got, err := f.svc.ListParticipants(ctx, seed.ID, "org-1")
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("invited participant sees the list", func(t *testing.T) {
		f := newParticipantFixture()
		seed := f.seedEvent(&domain.Event{OrganizerID: "org-1", Title: "Dinner", ExpectedAttendees: 6, Status: domain.StatusInviting})
		f.addParticipant(seed.ID, "user-2", domain.InvitationPending)

		got, err := f.svc.ListParticipants(ctx, seed.ID, "user-2")
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("outsiders are rejected", func(t *testing.T) {
		f := newParticipantFixture()
		seed := f.seedEvent(&domain.Event{OrganizerID: "org-1", Title: "Dinner", ExpectedAttendees: 6, Status: domain.StatusInviting})
		_, err := f.svc.ListParticipants(ctx, seed.ID, "stranger")
		require.ErrorIs(t, err, domain.ErrForbidden)
	})
}
