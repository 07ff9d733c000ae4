package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"gatherplan/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeEventRepo is an in-memory EventRepository for tests.
type fakeEventRepo struct {
	byID      map[string]*domain.Event
	nextID    int
	createErr error
	updateErr error

	progress []*domain.RecommendationProgress
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{
		byID:   make(map[string]*domain.Event),
		nextID: 1,
	}
}

func (f *fakeEventRepo) add(e *domain.Event) *domain.Event {
	if e.ID == "" {
		e.ID = fmt.Sprintf("ev-%d", f.nextID)
		f.nextID++
	}
	f.byID[e.ID] = e
	return e
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.add(e)
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if e, ok := f.byID[id]; ok {
		copied := *e
		return &copied, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) Update(ctx context.Context, e *domain.Event) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.byID[e.ID]; !ok {
		return domain.ErrNotFound
	}
	copied := *e
	f.byID[e.ID] = &copied
	return nil
}

func (f *fakeEventRepo) UpdateStatus(ctx context.Context, e *domain.Event) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	stored, ok := f.byID[e.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stored.Status = e.Status
	stored.ChosenVenueID = e.ChosenVenueID
	stored.TimezoneOffsetMinutes = e.TimezoneOffsetMinutes
	stored.CancellationReason = e.CancellationReason
	stored.ConversationID = e.ConversationID
	stored.UpdatedAt = e.UpdatedAt
	return nil
}

func (f *fakeEventRepo) ListByOrganizerID(ctx context.Context, organizerID string) ([]*domain.Event, error) {
	var out []*domain.Event
	for _, e := range f.byID {
		if e.OrganizerID == organizerID {
			copied := *e
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) ListOverlapping(ctx context.Context, organizerID string, from, to time.Time) ([]*domain.Event, error) {
	var out []*domain.Event
	for _, e := range f.byID {
		if e.OrganizerID != organizerID || e.ScheduledAt == nil || e.Status.IsTerminal() {
			continue
		}
		if !e.ScheduledAt.Before(from) && !e.ScheduledAt.After(to) {
			copied := *e
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) SaveRecommendationProgress(ctx context.Context, eventID string, progress *domain.RecommendationProgress) error {
	if _, ok := f.byID[eventID]; !ok {
		return domain.ErrNotFound
	}
	f.progress = append(f.progress, progress)
	return nil
}

// fakeParticipantRepo is an in-memory ParticipantRepository for tests.
type fakeParticipantRepo struct {
	mu      sync.Mutex
	records []*domain.Participant
	nextID  int
}

func newFakeParticipantRepo() *fakeParticipantRepo {
	return &fakeParticipantRepo{nextID: 1}
}

func (f *fakeParticipantRepo) Create(ctx context.Context, p *domain.Participant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = fmt.Sprintf("p-%d", f.nextID)
	f.nextID++
	copied := *p
	f.records = append(f.records, &copied)
	return nil
}

func (f *fakeParticipantRepo) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.records {
		if p.EventID == eventID && p.UserID == userID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeParticipantRepo) Update(ctx context.Context, p *domain.Participant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, stored := range f.records {
		if stored.ID == p.ID {
			copied := *p
			f.records[i] = &copied
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeParticipantRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, stored := range f.records {
		if stored.ID == id {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeParticipantRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Participant
	for _, p := range f.records {
		if p.EventID == eventID {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeParticipantRepo) CountByStatus(ctx context.Context, eventID string, status domain.InvitationStatus) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.records {
		if p.EventID == eventID && p.Status == status {
			n++
		}
	}
	return n, nil
}

// fakeVenueRepo records queries and replays canned results.
type fakeVenueRepo struct {
	byID map[string]*domain.Venue

	// searchResults are popped in call order; nil entries yield empty results.
	searchResults [][]*domain.Venue
	searchCalls   []domain.VenueSearch
	topRated      []*domain.Venue
	topRatedCalls int
}

func newFakeVenueRepo() *fakeVenueRepo {
	return &fakeVenueRepo{byID: make(map[string]*domain.Venue)}
}

func (f *fakeVenueRepo) GetByID(ctx context.Context, id string) (*domain.Venue, error) {
	if v, ok := f.byID[id]; ok {
		return v, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeVenueRepo) Search(ctx context.Context, filter domain.VenueSearch) ([]*domain.Venue, error) {
	f.searchCalls = append(f.searchCalls, filter)
	if len(f.searchResults) == 0 {
		return nil, nil
	}
	result := f.searchResults[0]
	f.searchResults = f.searchResults[1:]
	return result, nil
}

func (f *fakeVenueRepo) TopRated(ctx context.Context, limit int) ([]*domain.Venue, error) {
	f.topRatedCalls++
	return f.topRated, nil
}

// fakeOptionRepo is an in-memory VenueOptionRepository preserving creation
// order.
type fakeOptionRepo struct {
	options []*domain.VenueOption
}

func newFakeOptionRepo() *fakeOptionRepo {
	return &fakeOptionRepo{}
}

func (f *fakeOptionRepo) Create(ctx context.Context, opt *domain.VenueOption) error {
	copied := *opt
	f.options = append(f.options, &copied)
	return nil
}

func (f *fakeOptionRepo) GetByID(ctx context.Context, id string) (*domain.VenueOption, error) {
	for _, opt := range f.options {
		if opt.ID == id {
			copied := *opt
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeOptionRepo) Update(ctx context.Context, opt *domain.VenueOption) error {
	for i, stored := range f.options {
		if stored.ID == opt.ID {
			copied := *opt
			f.options[i] = &copied
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeOptionRepo) Delete(ctx context.Context, id string) error {
	for i, stored := range f.options {
		if stored.ID == id {
			f.options = append(f.options[:i], f.options[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeOptionRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.VenueOption, error) {
	var out []*domain.VenueOption
	for _, opt := range f.options {
		if opt.EventID == eventID {
			copied := *opt
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeOptionRepo) DeleteByEventAndOrigin(ctx context.Context, eventID string, origin domain.OptionOrigin) error {
	var kept []*domain.VenueOption
	for _, opt := range f.options {
		if opt.EventID == eventID && opt.Origin == origin {
			continue
		}
		kept = append(kept, opt)
	}
	f.options = kept
	return nil
}

// fakeVoteRepo is an in-memory VoteRepository with upsert semantics on
// (event, option, voter).
type fakeVoteRepo struct {
	votes []*domain.Vote
}

func newFakeVoteRepo() *fakeVoteRepo {
	return &fakeVoteRepo{}
}

func (f *fakeVoteRepo) Upsert(ctx context.Context, v *domain.Vote) error {
	for _, stored := range f.votes {
		if stored.EventID == v.EventID && stored.OptionID == v.OptionID && stored.VoterID == v.VoterID {
			stored.Value = v.Value
			stored.Comment = v.Comment
			stored.UpdatedAt = v.UpdatedAt
			v.ID = stored.ID
			v.CreatedAt = stored.CreatedAt
			return nil
		}
	}
	copied := *v
	f.votes = append(f.votes, &copied)
	return nil
}

func (f *fakeVoteRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.Vote, error) {
	var out []*domain.Vote
	for _, v := range f.votes {
		if v.EventID == eventID {
			copied := *v
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeVoteRepo) CountByEventID(ctx context.Context, eventID string) (int, error) {
	n := 0
	for _, v := range f.votes {
		if v.EventID == eventID {
			n++
		}
	}
	return n, nil
}

// fakeUserRepo is an in-memory UserRepository for tests.
type fakeUserRepo struct {
	mu   sync.Mutex
	byID map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[string]*domain.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, stored := range f.byID {
		if stored.Email == u.Email {
			return domain.ErrDuplicateEmail
		}
	}
	if u.ID == "" {
		u.ID = fmt.Sprintf("user-%d", len(f.byID)+1)
	}
	copied := *u
	f.byID[u.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) Update(ctx context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[u.ID]; !ok {
		return domain.ErrNotFound
	}
	copied := *u
	f.byID[u.ID] = &copied
	return nil
}

// fakeChat records conversation operations.
type fakeChat struct {
	mu            sync.Mutex
	conversations map[string]string // eventID -> conversationID
	added         [][]string
	removed       []string
	ensureErr     error
}

func newFakeChat() *fakeChat {
	return &fakeChat{conversations: make(map[string]string)}
}

func (f *fakeChat) EnsureConversation(ctx context.Context, eventID string, participantIDs []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ensureErr != nil {
		return "", f.ensureErr
	}
	if id, ok := f.conversations[eventID]; ok {
		return id, nil
	}
	id := fmt.Sprintf("conv-%d", len(f.conversations)+1)
	f.conversations[eventID] = id
	return id, nil
}

func (f *fakeChat) AddParticipants(ctx context.Context, conversationID string, userIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, userIDs)
	return nil
}

func (f *fakeChat) RemoveParticipant(ctx context.Context, conversationID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, userID)
	return nil
}

// fakeNotifier counts notifications per user.
type fakeNotifier struct {
	mu       sync.Mutex
	byUser   map[string]int
	payloads []domain.NotificationPayload
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{byUser: make(map[string]int)}
}

func (f *fakeNotifier) NotifyUser(ctx context.Context, userID string, payload domain.NotificationPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byUser[userID]++
	f.payloads = append(f.payloads, payload)
	return nil
}

func (f *fakeNotifier) NotifyRole(ctx context.Context, role string, payload domain.NotificationPayload) error {
	return nil
}

func (f *fakeNotifier) NotifyAll(ctx context.Context, payload domain.NotificationPayload) error {
	return nil
}

// fakeEmailService counts sends per message kind.
type fakeEmailService struct {
	mu            sync.Mutex
	welcomes      int
	invitations   int
	cancellations int
	reschedules   int
	reminders     int
}

func newFakeEmailService() *fakeEmailService {
	return &fakeEmailService{}
}

func (f *fakeEmailService) SendWelcomeMessage(ctx context.Context, data *domain.WelcomeMessageEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.welcomes++
	return nil
}

func (f *fakeEmailService) SendInvitation(ctx context.Context, data *domain.InvitationEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invitations++
	return nil
}

func (f *fakeEmailService) SendCancellation(ctx context.Context, data *domain.CancellationEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancellations++
	return nil
}

func (f *fakeEmailService) SendReschedule(ctx context.Context, data *domain.RescheduleEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reschedules++
	return nil
}

func (f *fakeEmailService) SendReminder(ctx context.Context, data *domain.ReminderEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reminders++
	return nil
}

// fakeScorer runs a configurable AnalyzeVenues, optionally delayed.
type fakeScorer struct {
	adjustments []*domain.VenueAdjustment
	err         error
	delay       time.Duration
}

func (f *fakeScorer) AnalyzeVenues(ctx context.Context, req *domain.VenueAnalysisRequest) ([]*domain.VenueAdjustment, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.adjustments, f.err
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
func strPtr(s string) *string     { return &s }
