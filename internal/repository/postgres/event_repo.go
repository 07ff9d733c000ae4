package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gatherplan/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

const eventColumns = `
	id, organizer_id, title, description, status,
	scheduled_at, timezone_offset_minutes,
	expected_attendees, max_attendees, acceptance_threshold,
	chosen_venue_id, rsvp_deadline, invitation_deadline, budget_per_person,
	previous_scheduled_at, reschedule_count, reschedule_reason,
	cancellation_reason, conversation_id, created_at, updated_at
`

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (
			organizer_id, title, description, status,
			scheduled_at, timezone_offset_minutes,
			expected_attendees, max_attendees, acceptance_threshold,
			chosen_venue_id, rsvp_deadline, invitation_deadline, budget_per_person,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		e.OrganizerID, e.Title, e.Description, string(e.Status),
		e.ScheduledAt, e.TimezoneOffsetMinutes,
		e.ExpectedAttendees, e.MaxAttendees, e.AcceptanceThreshold,
		e.ChosenVenueID, e.RSVPDeadline, e.InvitationDeadline, e.BudgetPerPerson,
		e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) Update(ctx context.Context, e *domain.Event) error {
	query := `
		UPDATE events
		SET title = $1, description = $2,
			scheduled_at = $3, timezone_offset_minutes = $4,
			expected_attendees = $5, max_attendees = $6, acceptance_threshold = $7,
			chosen_venue_id = $8, rsvp_deadline = $9, invitation_deadline = $10,
			budget_per_person = $11,
			previous_scheduled_at = $12, reschedule_count = $13, reschedule_reason = $14,
			updated_at = $15
		WHERE id = $16
	`
	result, err := r.DB.ExecContext(ctx, query,
		e.Title, e.Description,
		e.ScheduledAt, e.TimezoneOffsetMinutes,
		e.ExpectedAttendees, e.MaxAttendees, e.AcceptanceThreshold,
		e.ChosenVenueID, e.RSVPDeadline, e.InvitationDeadline,
		e.BudgetPerPerson,
		e.PreviousScheduledAt, e.RescheduleCount, e.RescheduleReason,
		e.UpdatedAt, e.ID,
	)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *eventRepository) UpdateStatus(ctx context.Context, e *domain.Event) error {
	query := `
		UPDATE events
		SET status = $1, chosen_venue_id = $2, timezone_offset_minutes = $3,
			cancellation_reason = $4, conversation_id = $5, updated_at = $6
		WHERE id = $7
	`
	result, err := r.DB.ExecContext(ctx, query,
		string(e.Status), e.ChosenVenueID, e.TimezoneOffsetMinutes,
		e.CancellationReason, e.ConversationID, e.UpdatedAt, e.ID,
	)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *eventRepository) ListByOrganizerID(ctx context.Context, organizerID string) ([]*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE organizer_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, organizerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEvents(rows)
}

func (r *eventRepository) ListOverlapping(ctx context.Context, organizerID string, from, to time.Time) ([]*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE organizer_id = $1
		  AND status NOT IN ('cancelled', 'completed')
		  AND scheduled_at IS NOT NULL
		  AND scheduled_at >= $2
		  AND scheduled_at <= $3
		ORDER BY scheduled_at ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, organizerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEvents(rows)
}

func (r *eventRepository) SaveRecommendationProgress(ctx context.Context, eventID string, progress *domain.RecommendationProgress) error {
	payload, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("marshal recommendation progress: %w", err)
	}
	query := `
		UPDATE events
		SET recommendation_progress = $1, updated_at = $2
		WHERE id = $3
	`
	result, err := r.DB.ExecContext(ctx, query, payload, progress.UpdatedAt, eventID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var (
		description        sql.NullString
		status             string
		scheduledAt        sql.NullTime
		chosenVenueID      sql.NullString
		rsvpDeadline       sql.NullTime
		invitationDeadline sql.NullTime
		budgetPerPerson    sql.NullFloat64
		previousScheduled  sql.NullTime
		rescheduleReason   sql.NullString
		cancellationReason sql.NullString
		conversationID     sql.NullString
	)
	err := row.Scan(
		&e.ID, &e.OrganizerID, &e.Title, &description, &status,
		&scheduledAt, &e.TimezoneOffsetMinutes,
		&e.ExpectedAttendees, &e.MaxAttendees, &e.AcceptanceThreshold,
		&chosenVenueID, &rsvpDeadline, &invitationDeadline, &budgetPerPerson,
		&previousScheduled, &e.RescheduleCount, &rescheduleReason,
		&cancellationReason, &conversationID, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Status = domain.EventStatus(status)
	if description.Valid {
		e.Description = &description.String
	}
	if scheduledAt.Valid {
		e.ScheduledAt = &scheduledAt.Time
	}
	if chosenVenueID.Valid {
		e.ChosenVenueID = &chosenVenueID.String
	}
	if rsvpDeadline.Valid {
		e.RSVPDeadline = &rsvpDeadline.Time
	}
	if invitationDeadline.Valid {
		e.InvitationDeadline = &invitationDeadline.Time
	}
	if budgetPerPerson.Valid {
		e.BudgetPerPerson = &budgetPerPerson.Float64
	}
	if previousScheduled.Valid {
		e.PreviousScheduledAt = &previousScheduled.Time
	}
	if rescheduleReason.Valid {
		e.RescheduleReason = &rescheduleReason.String
	}
	if cancellationReason.Valid {
		e.CancellationReason = &cancellationReason.String
	}
	if conversationID.Valid {
		e.ConversationID = &conversationID.String
	}
	return e, nil
}

func collectEvents(rows *sql.Rows) ([]*domain.Event, error) {
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
