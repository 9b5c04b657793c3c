package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// uniqueViolation is the PostgreSQL error code for unique constraint breaks.
const uniqueViolation = "23505"

// UserRepository handles user account database operations.
type UserRepository struct {
	pool *pgxpool.Pool
}

// Create registers a new user with a bcrypt-hashed password.
// Returns ErrUsernameTaken when the username exists.
func (r *UserRepository) Create(ctx context.Context, username, password, nickname string, apiKeys APIKeys) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: string(hash),
		Nickname:     nickname,
		APIKeys:      apiKeys,
		Genres:       []string{},
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	query := `
		INSERT INTO users (id, username, password_hash, nickname, api_keys, genres, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.Nickname,
		user.APIKeys,
		user.Genres,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("inserting user: %w", err)
	}
	return user, nil
}

// Authenticate verifies a username/password pair and records the login time.
// Returns ErrInvalidCredentials on unknown username or password mismatch,
// deliberately not distinguishing the two.
func (r *UserRepository) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := r.getBy(ctx, "username = $1", username)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	if _, err := r.pool.Exec(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, user.ID, now); err != nil {
		return nil, fmt.Errorf("recording login: %w", err)
	}
	user.LastLogin = &now
	return user, nil
}

// GetByID retrieves a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.getBy(ctx, "id = $1", id)
}

// UpdateProfile updates mutable profile fields. Username and password are
// immutable through this path. Nil arguments leave the field untouched.
func (r *UserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, nickname *string, genres []string, apiKeys *APIKeys) (*User, error) {
	query := `
		UPDATE users
		SET nickname = COALESCE($2, nickname),
		    genres = COALESCE($3, genres),
		    api_keys = COALESCE($4, api_keys),
		    updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query, id, nickname, genres, apiKeys)
	if err != nil {
		return nil, fmt.Errorf("updating user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// getBy retrieves a single user matching the given predicate.
func (r *UserRepository) getBy(ctx context.Context, where string, arg any) (*User, error) {
	query := `
		SELECT id, username, password_hash, nickname, api_keys, genres, last_login, created_at, updated_at
		FROM users
		WHERE ` + where

	var user User
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Nickname,
		&user.APIKeys,
		&user.Genres,
		&user.LastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return &user, nil
}
