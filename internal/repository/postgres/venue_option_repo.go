package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"gatherplan/internal/domain"
)

type venueOptionRepository struct {
	DB *sql.DB
}

func NewVenueOptionRepository(db *sql.DB) domain.VenueOptionRepository {
	return &venueOptionRepository{
		DB: db,
	}
}

const venueOptionColumns = `
	id, event_id, venue_id, external_ref, origin,
	score, reasoning, pros, cons, estimated_per_head, created_at
`

func (r *venueOptionRepository) Create(ctx context.Context, opt *domain.VenueOption) error {
	query := `
		INSERT INTO venue_options (
			id, event_id, venue_id, external_ref, origin,
			score, reasoning, pros, cons, estimated_per_head, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.DB.ExecContext(ctx, query,
		opt.ID, opt.EventID, opt.VenueID, opt.ExternalRef, string(opt.Origin),
		opt.Score, opt.Reasoning, pq.Array(opt.Pros), pq.Array(opt.Cons),
		opt.EstimatedPerHead, opt.CreatedAt,
	)
	return err
}

func (r *venueOptionRepository) GetByID(ctx context.Context, id string) (*domain.VenueOption, error) {
	query := `SELECT ` + venueOptionColumns + ` FROM venue_options WHERE id = $1`
	opt, err := scanVenueOption(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return opt, nil
}

func (r *venueOptionRepository) Update(ctx context.Context, opt *domain.VenueOption) error {
	query := `
		UPDATE venue_options
		SET score = $1, reasoning = $2, pros = $3, cons = $4, estimated_per_head = $5
		WHERE id = $6
	`
	result, err := r.DB.ExecContext(ctx, query,
		opt.Score, opt.Reasoning, pq.Array(opt.Pros), pq.Array(opt.Cons),
		opt.EstimatedPerHead, opt.ID,
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

func (r *venueOptionRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM venue_options WHERE id = $1`
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

func (r *venueOptionRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.VenueOption, error) {
	query := `
		SELECT ` + venueOptionColumns + `
		FROM venue_options
		WHERE event_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	options := make([]*domain.VenueOption, 0)
	for rows.Next() {
		opt, err := scanVenueOption(rows)
		if err != nil {
			return nil, err
		}
		options = append(options, opt)
	}
	return options, rows.Err()
}

func (r *venueOptionRepository) DeleteByEventAndOrigin(ctx context.Context, eventID string, origin domain.OptionOrigin) error {
	query := `DELETE FROM venue_options WHERE event_id = $1 AND origin = $2`
	_, err := r.DB.ExecContext(ctx, query, eventID, string(origin))
	return err
}

func scanVenueOption(row rowScanner) (*domain.VenueOption, error) {
	opt := &domain.VenueOption{}
	var (
		venueID     sql.NullString
		externalRef sql.NullString
		origin      string
		score       sql.NullFloat64
		reasoning   sql.NullString
		pros, cons  pq.StringArray
		perHead     sql.NullFloat64
	)
	err := row.Scan(
		&opt.ID, &opt.EventID, &venueID, &externalRef, &origin,
		&score, &reasoning, &pros, &cons, &perHead, &opt.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	opt.Origin = domain.OptionOrigin(origin)
	opt.Pros = pros
	opt.Cons = cons
	if venueID.Valid {
		opt.VenueID = &venueID.String
	}
	if externalRef.Valid {
		opt.ExternalRef = &externalRef.String
	}
	if score.Valid {
		opt.Score = &score.Float64
	}
	if reasoning.Valid {
		opt.Reasoning = reasoning.String
	}
	if perHead.Valid {
		opt.EstimatedPerHead = &perHead.Float64
	}
	return opt, nil
}
