package repository

import (
	"context"
	"errors"
	"fmt"

	"pennybid/database"
	"pennybid/domain/entities"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const userColumns = `id, email, name, password_hash, is_blocked, created_at, updated_at`

// UserRepository implements the UserRepository interface
type UserRepository struct {
	q Queryable
}

// NewUserRepository creates a new user repository on the pool
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

func newUserRepository(q Queryable) *UserRepository {
	return &UserRepository{q: q}
}

// Create inserts a user. A duplicate email yields entities.ErrUserExists.
func (r *UserRepository) Create(ctx context.Context, email, name, passwordHash string) (*entities.User, error) {
	query := `
		INSERT INTO users (email, name, password_hash)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns

	rows, err := r.q.Query(ctx, query, email, name, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to create user %s: %w", email, err)
	}
	user, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[entities.User])
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, entities.ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user %s: %w", email, err)
	}
	return user, nil
}

// GetByID retrieves a user. Returns nil if not found.
func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*entities.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
}

// GetByEmail retrieves a user by email, ignoring case. Returns nil if not found.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*entities.User, error) {
	rows, err := r.q.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %v: %w", arg, err)
	}
	user, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[entities.User])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %v: %w", arg, err)
	}
	return user, nil
}
