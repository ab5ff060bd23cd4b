package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ayush/habit-tracker/backend/internal/models"
)

const pgUniqueViolation = "23505"

// PostgresStore handles user CRUD against PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the users table if it doesn't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id                UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			email             VARCHAR(255) UNIQUE NOT NULL,
			username          VARCHAR(30)  NOT NULL,
			password_hash     VARCHAR(255) NOT NULL,
			is_setup_complete BOOLEAN      NOT NULL DEFAULT FALSE,
			created_at        TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (email, username, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, email, username, created_at, is_setup_complete`,
		user.Email, user.Username, user.PasswordHash,
	).Scan(&u.ID, &u.Email, &u.Username, &u.CreatedAt, &u.IsSetupComplete)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, username, password_hash, created_at, is_setup_complete
		 FROM users WHERE email = $1`, email,
	).Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.IsSetupComplete)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, username, created_at, is_setup_complete
		 FROM users WHERE id::text = $1`, id,
	).Scan(&u.ID, &u.Email, &u.Username, &u.CreatedAt, &u.IsSetupComplete)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return &u, nil
}

// UpdateUser applies the provided fields; COALESCE keeps the others.
func (s *PostgresStore) UpdateUser(ctx context.Context, id string, update models.UserUpdate) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`UPDATE users
		 SET username = COALESCE($2, username),
		     is_setup_complete = COALESCE($3, is_setup_complete)
		 WHERE id::text = $1
		 RETURNING id, email, username, created_at, is_setup_complete`,
		id, update.Username, update.IsSetupComplete,
	).Scan(&u.ID, &u.Email, &u.Username, &u.CreatedAt, &u.IsSetupComplete)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return &u, nil
}
