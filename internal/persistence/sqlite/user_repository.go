package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/roomreserve/internal/persistence"
)

// UserRepository implements persistence.UserRepository on SQLite.
type UserRepository struct {
	pool  *ConnectionPool
	retry RetryConfig
}

// NewUserRepository creates a SQLite-backed user repository.
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{pool: pool, retry: DefaultRetryConfig()}
}

// CreateUser inserts a new user. The email is stored as given and matched
// case-insensitively by the schema.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" || strings.TrimSpace(user.Email) == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	return withRetry(ctx, r.retry, func() error {
		_, err := r.pool.db.ExecContext(ctx, `
			INSERT INTO users (id, email, first_name, last_name, role, verified, password_hash, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			user.ID,
			user.Email,
			user.FirstName,
			user.LastName,
			user.Role,
			boolToInt(user.Verified),
			user.PasswordHash,
			user.CreatedAt.Format(time.RFC3339),
			user.UpdatedAt.Format(time.RFC3339),
		)
		return err
	})
}

// UpdateUser updates an existing user.
func (r *UserRepository) UpdateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" {
		return persistence.ErrNotFound
	}

	user.UpdatedAt = time.Now().UTC()

	return withRetry(ctx, r.retry, func() error {
		result, err := r.pool.db.ExecContext(ctx, `
			UPDATE users
			SET email = ?, first_name = ?, last_name = ?, role = ?, verified = ?, password_hash = ?, updated_at = ?
			WHERE id = ?
		`,
			user.Email,
			user.FirstName,
			user.LastName,
			user.Role,
			boolToInt(user.Verified),
			user.PasswordHash,
			user.UpdatedAt.Format(time.RFC3339),
			user.ID,
		)
		if err != nil {
			return err
		}
		return requireRowsAffected(result)
	})
}

// GetUser retrieves a user by ID.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if id == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx, userSelect+" WHERE id = ?", id)
	return scanUser(row)
}

// GetUserByEmail retrieves a user by email, case-insensitively.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	if strings.TrimSpace(email) == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx, userSelect+" WHERE email = ? COLLATE NOCASE", email)
	return scanUser(row)
}

// ListUsers returns all users ordered by email.
func (r *UserRepository) ListUsers(ctx context.Context) ([]persistence.User, error) {
	rows, err := r.pool.db.QueryContext(ctx, userSelect+" ORDER BY email ASC")
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var users []persistence.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError(err)
	}
	return users, nil
}

// DeleteUser removes a user by ID.
func (r *UserRepository) DeleteUser(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	return withRetry(ctx, r.retry, func() error {
		result, err := r.pool.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
		if err != nil {
			return err
		}
		return requireRowsAffected(result)
	})
}

const userSelect = `
	SELECT id, email, first_name, last_name, role, verified, password_hash, created_at, updated_at
	FROM users`

func scanUser(row rowScanner) (persistence.User, error) {
	var (
		user                       persistence.User
		verified                   int
		createdAtStr, updatedAtStr string
	)

	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.Role,
		&verified,
		&user.PasswordHash,
		&createdAtStr,
		&updatedAtStr,
	); err != nil {
		return persistence.User{}, mapSQLiteError(err)
	}

	user.Verified = verified != 0

	var err error
	if user.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.User{}, fmt.Errorf("sqlite: failed to parse created_at: %w", err)
	}
	if user.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.User{}, fmt.Errorf("sqlite: failed to parse updated_at: %w", err)
	}

	return user, nil
}
