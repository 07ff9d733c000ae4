package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"gatherplan/internal/domain"
)

type venueRepository struct {
	DB *sql.DB
}

func NewVenueRepository(db *sql.DB) domain.VenueRepository {
	return &venueRepository{
		DB: db,
	}
}

const venueColumns = `
	id, name, category, tags, city, lat, lng,
	avg_rating, review_count, like_count, price_per_head, capacity,
	opening_hours, verification
`

func (r *venueRepository) GetByID(ctx context.Context, id string) (*domain.Venue, error) {
	query := `SELECT ` + venueColumns + ` FROM venues WHERE id = $1 AND deleted_at IS NULL`
	v, err := scanVenue(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

func (r *venueRepository) Search(ctx context.Context, filter domain.VenueSearch) ([]*domain.Venue, error) {
	conditions := []string{"deleted_at IS NULL", "verification = $1"}
	args := []interface{}{domain.VerificationApproved}
	n := 2

	filterClauses := []string{}
	if len(filter.Categories) > 0 {
		filterClauses = append(filterClauses, fmt.Sprintf("category = ANY($%d)", n))
		args = append(args, pq.Array(filter.Categories))
		n++
	}
	if len(filter.Tags) > 0 {
		filterClauses = append(filterClauses, fmt.Sprintf("tags && $%d", n))
		args = append(args, pq.Array(filter.Tags))
		n++
	}
	if len(filterClauses) > 0 {
		join := " AND "
		if filter.MatchAny {
			join = " OR "
		}
		conditions = append(conditions, "("+strings.Join(filterClauses, join)+")")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT %s
		FROM venues
		WHERE %s
		ORDER BY avg_rating DESC NULLS LAST, review_count DESC
		LIMIT $%d
	`, venueColumns, strings.Join(conditions, " AND "), n)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVenues(rows)
}

func (r *venueRepository) TopRated(ctx context.Context, limit int) ([]*domain.Venue, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT ` + venueColumns + `
		FROM venues
		WHERE deleted_at IS NULL AND verification = $1
		ORDER BY avg_rating DESC NULLS LAST, review_count DESC
		LIMIT $2
	`
	rows, err := r.DB.QueryContext(ctx, query, domain.VerificationApproved, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVenues(rows)
}

func scanVenue(row rowScanner) (*domain.Venue, error) {
	v := &domain.Venue{}
	var (
		tags         pq.StringArray
		lat, lng     sql.NullFloat64
		avgRating    sql.NullFloat64
		pricePerHead sql.NullFloat64
		capacity     sql.NullInt64
		openingHours sql.NullString
	)
	err := row.Scan(
		&v.ID, &v.Name, &v.Category, &tags, &v.City, &lat, &lng,
		&avgRating, &v.ReviewCount, &v.LikeCount, &pricePerHead, &capacity,
		&openingHours, &v.Verification,
	)
	if err != nil {
		return nil, err
	}
	v.Tags = tags
	if lat.Valid {
		v.Lat = &lat.Float64
	}
	if lng.Valid {
		v.Lng = &lng.Float64
	}
	if avgRating.Valid {
		v.AvgRating = &avgRating.Float64
	}
	if pricePerHead.Valid {
		v.PricePerHead = &pricePerHead.Float64
	}
	if capacity.Valid {
		c := int(capacity.Int64)
		v.Capacity = &c
	}
	if openingHours.Valid {
		v.OpeningHours = openingHours.String
	}
	return v, nil
}

func collectVenues(rows *sql.Rows) ([]*domain.Venue, error) {
	venues := make([]*domain.Venue, 0)
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, err
		}
		venues = append(venues, v)
	}
	return venues, rows.Err()
}
