package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"gatherplan/internal/domain"
)

const uniqueViolation = "23505"

func mapUserErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return domain.ErrDuplicateEmail
	}
	return err
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) domain.UserRepository {
	return &userRepository{DB: db}
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (email, password_hash, salt, name, city, timezone_offset_minutes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		u.Email, u.PasswordHash, u.Salt, u.Name, u.City, u.TimezoneOffsetMinutes, u.CreatedAt, u.UpdatedAt,
	).Scan(&u.ID)
	if err != nil {
		return mapUserErr(err)
	}
	return nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, email, password_hash, salt, name, city, timezone_offset_minutes, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	return scanUser(r.DB.QueryRowContext(ctx, query, email))
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT id, email, password_hash, salt, name, city, timezone_offset_minutes, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	return scanUser(r.DB.QueryRowContext(ctx, query, id))
}

func (r *userRepository) Update(ctx context.Context, u *domain.User) error {
	query := `
		UPDATE users
		SET email = $1, password_hash = $2, salt = $3, name = $4,
			city = $5, timezone_offset_minutes = $6, updated_at = $7
		WHERE id = $8
	`
	result, err := r.DB.ExecContext(ctx, query,
		u.Email, u.PasswordHash, u.Salt, u.Name, u.City, u.TimezoneOffsetMinutes, u.UpdatedAt, u.ID,
	)
	if err != nil {
		return mapUserErr(err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanUser(row rowScanner) (*domain.User, error) {
	u := &domain.User{}
	var city sql.NullString
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Salt, &u.Name, &city, &u.TimezoneOffsetMinutes, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if city.Valid {
		u.City = city.String
	}
	return u, nil
}
