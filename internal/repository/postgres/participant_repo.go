package postgres

import (
	"context"
	"database/sql"
	"errors"

	"gatherplan/internal/domain"
)

type participantRepository struct {
	DB *sql.DB
}

func NewParticipantRepository(db *sql.DB) domain.ParticipantRepository {
	return &participantRepository{
		DB: db,
	}
}

func (r *participantRepository) Create(ctx context.Context, p *domain.Participant) error {
	query := `
		INSERT INTO participants (event_id, user_id, status, invited_by, invited_at, responded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		p.EventID, p.UserID, string(p.Status), p.InvitedBy, p.InvitedAt, p.RespondedAt,
	).Scan(&p.ID)
}

func (r *participantRepository) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Participant, error) {
	query := `
		SELECT id, event_id, user_id, status, invited_by, invited_at, responded_at
		FROM participants
		WHERE event_id = $1 AND user_id = $2
	`
	p, err := scanParticipant(r.DB.QueryRowContext(ctx, query, eventID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *participantRepository) Update(ctx context.Context, p *domain.Participant) error {
	query := `
		UPDATE participants
		SET status = $1, invited_by = $2, invited_at = $3, responded_at = $4
		WHERE id = $5
	`
	result, err := r.DB.ExecContext(ctx, query,
		string(p.Status), p.InvitedBy, p.InvitedAt, p.RespondedAt, p.ID,
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

func (r *participantRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM participants WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *participantRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Participant, error) {
	query := `
		SELECT id, event_id, user_id, status, invited_by, invited_at, responded_at
		FROM participants
		WHERE event_id = $1
		ORDER BY invited_at ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	participants := make([]*domain.Participant, 0)
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (r *participantRepository) CountByStatus(ctx context.Context, eventID string, status domain.InvitationStatus) (int, error) {
	query := `SELECT COUNT(*) FROM participants WHERE event_id = $1 AND status = $2`
	var count int
	err := r.DB.QueryRowContext(ctx, query, eventID, string(status)).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func scanParticipant(row rowScanner) (*domain.Participant, error) {
	p := &domain.Participant{}
	var status string
	var respondedAt sql.NullTime
	err := row.Scan(&p.ID, &p.EventID, &p.UserID, &status, &p.InvitedBy, &p.InvitedAt, &respondedAt)
	if err != nil {
		return nil, err
	}
	p.Status = domain.InvitationStatus(status)
	if respondedAt.Valid {
		p.RespondedAt = &respondedAt.Time
	}
	return p, nil
}
