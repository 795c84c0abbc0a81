package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/roomreserve/internal/persistence"
)

// SessionRepository implements persistence.SessionRepository on SQLite.
type SessionRepository struct {
	pool  *ConnectionPool
	retry RetryConfig
}

// NewSessionRepository creates a SQLite-backed session repository.
func NewSessionRepository(pool *ConnectionPool) *SessionRepository {
	return &SessionRepository{pool: pool, retry: DefaultRetryConfig()}
}

// CreateSession inserts a new session and returns the stored record.
func (r *SessionRepository) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	if session.ID == "" || session.UserID == "" || session.Token == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now

	err := withRetry(ctx, r.retry, func() error {
		_, err := r.pool.db.ExecContext(ctx, `
			INSERT INTO sessions (id, user_id, token, expires_at, created_at, updated_at, revoked_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			session.ID,
			session.UserID,
			session.Token,
			session.ExpiresAt.UTC().Format(time.RFC3339),
			session.CreatedAt.Format(time.RFC3339),
			session.UpdatedAt.Format(time.RFC3339),
			nullInstant(session.RevokedAt),
		)
		return err
	})
	if err != nil {
		return persistence.Session{}, err
	}
	return session, nil
}

// GetSession retrieves a session by its token.
func (r *SessionRepository) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	if token == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx, sessionSelect+" WHERE token = ?", token)
	return scanSession(row)
}

// UpdateSession updates a session, matched by token, and returns the stored
// record.
func (r *SessionRepository) UpdateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	if session.Token == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}

	session.UpdatedAt = time.Now().UTC()

	err := withRetry(ctx, r.retry, func() error {
		result, err := r.pool.db.ExecContext(ctx, `
			UPDATE sessions
			SET expires_at = ?, updated_at = ?, revoked_at = ?
			WHERE token = ?
		`,
			session.ExpiresAt.UTC().Format(time.RFC3339),
			session.UpdatedAt.Format(time.RFC3339),
			nullInstant(session.RevokedAt),
			session.Token,
		)
		if err != nil {
			return err
		}
		return requireRowsAffected(result)
	})
	if err != nil {
		return persistence.Session{}, err
	}
	return session, nil
}

// RevokeSession marks the session identified by token as revoked.
func (r *SessionRepository) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	if token == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}

	err := withRetry(ctx, r.retry, func() error {
		result, err := r.pool.db.ExecContext(ctx, `
			UPDATE sessions
			SET revoked_at = ?, updated_at = ?
			WHERE token = ?
		`,
			revokedAt.UTC().Format(time.RFC3339),
			time.Now().UTC().Format(time.RFC3339),
			token,
		)
		if err != nil {
			return err
		}
		return requireRowsAffected(result)
	})
	if err != nil {
		return persistence.Session{}, err
	}
	return r.GetSession(ctx, token)
}

// DeleteExpiredSessions removes sessions that expired before the reference
// instant.
func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return withRetry(ctx, r.retry, func() error {
		_, err := r.pool.db.ExecContext(ctx,
			"DELETE FROM sessions WHERE expires_at < ?",
			reference.UTC().Format(time.RFC3339),
		)
		return err
	})
}

const sessionSelect = `
	SELECT id, user_id, token, expires_at, created_at, updated_at, revoked_at
	FROM sessions`

func scanSession(row rowScanner) (persistence.Session, error) {
	var (
		session                                  persistence.Session
		expiresAtStr, createdAtStr, updatedAtStr string
		revokedAtStr                             sql.NullString
	)

	if err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.Token,
		&expiresAtStr,
		&createdAtStr,
		&updatedAtStr,
		&revokedAtStr,
	); err != nil {
		return persistence.Session{}, mapSQLiteError(err)
	}

	var err error
	if session.ExpiresAt, err = time.Parse(time.RFC3339, expiresAtStr); err != nil {
		return persistence.Session{}, fmt.Errorf("sqlite: failed to parse expires_at: %w", err)
	}
	if session.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Session{}, fmt.Errorf("sqlite: failed to parse created_at: %w", err)
	}
	if session.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.Session{}, fmt.Errorf("sqlite: failed to parse updated_at: %w", err)
	}
	if revokedAtStr.Valid {
		revokedAt, err := time.Parse(time.RFC3339, revokedAtStr.String)
		if err != nil {
			return persistence.Session{}, fmt.Errorf("sqlite: failed to parse revoked_at: %w", err)
		}
		session.RevokedAt = &revokedAt
	}

	return session, nil
}

func nullInstant(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}
