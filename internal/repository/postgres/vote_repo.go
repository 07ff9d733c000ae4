package postgres

import (
	"context"
	"database/sql"

	"gatherplan/internal/domain"
)

type voteRepository struct {
	DB *sql.DB
}

func NewVoteRepository(db *sql.DB) domain.VoteRepository {
	return &voteRepository{
		DB: db,
	}
}

func (r *voteRepository) Upsert(ctx context.Context, v *domain.Vote) error {
	query := `
		INSERT INTO votes (id, event_id, option_id, voter_id, value, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (event_id, option_id, voter_id)
		DO UPDATE SET value = EXCLUDED.value, comment = EXCLUDED.comment, updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`
	return r.DB.QueryRowContext(ctx, query,
		v.ID, v.EventID, v.OptionID, v.VoterID, v.Value, v.Comment, v.CreatedAt, v.UpdatedAt,
	).Scan(&v.ID, &v.CreatedAt)
}

func (r *voteRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Vote, error) {
	query := `
		SELECT id, event_id, option_id, voter_id, value, comment, created_at, updated_at
		FROM votes
		WHERE event_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	votes := make([]*domain.Vote, 0)
	for rows.Next() {
		v := &domain.Vote{}
		var comment sql.NullString
		if err := rows.Scan(&v.ID, &v.EventID, &v.OptionID, &v.VoterID, &v.Value, &comment, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		if comment.Valid {
			v.Comment = &comment.String
		}
		votes = append(votes, v)
	}
	return votes, rows.Err()
}

func (r *voteRepository) CountByEventID(ctx context.Context, eventID string) (int, error) {
	query := `SELECT COUNT(*) FROM votes WHERE event_id = $1`
	var count int
	err := r.DB.QueryRowContext(ctx, query, eventID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
