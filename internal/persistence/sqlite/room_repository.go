package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/roomreserve/internal/persistence"
)

// RoomRepository implements persistence.RoomRepository on SQLite.
type RoomRepository struct {
	pool  *ConnectionPool
	retry RetryConfig
}

// NewRoomRepository creates a SQLite-backed room repository.
func NewRoomRepository(pool *ConnectionPool) *RoomRepository {
	return &RoomRepository{pool: pool, retry: DefaultRetryConfig()}
}

// CreateRoom inserts a new room.
func (r *RoomRepository) CreateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" || room.Capacity <= 0 {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	room.CreatedAt = now
	room.UpdatedAt = now

	features, err := encodeFeatures(room.Features)
	if err != nil {
		return err
	}

	return withRetry(ctx, r.retry, func() error {
		_, err := r.pool.db.ExecContext(ctx, `
			INSERT INTO meeting_rooms (id, name, capacity, location, features, photo_url, is_active, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			room.ID,
			room.Name,
			room.Capacity,
			room.Location,
			features,
			nullString(room.PhotoURL),
			boolToInt(room.Active),
			room.CreatedAt.Format(time.RFC3339),
			room.UpdatedAt.Format(time.RFC3339),
		)
		return err
	})
}

// UpdateRoom updates an existing room.
func (r *RoomRepository) UpdateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" || room.Capacity <= 0 {
		return persistence.ErrConstraintViolation
	}

	room.UpdatedAt = time.Now().UTC()

	features, err := encodeFeatures(room.Features)
	if err != nil {
		return err
	}

	return withRetry(ctx, r.retry, func() error {
		result, err := r.pool.db.ExecContext(ctx, `
			UPDATE meeting_rooms
			SET name = ?, capacity = ?, location = ?, features = ?, photo_url = ?, is_active = ?, updated_at = ?
			WHERE id = ?
		`,
			room.Name,
			room.Capacity,
			room.Location,
			features,
			nullString(room.PhotoURL),
			boolToInt(room.Active),
			room.UpdatedAt.Format(time.RFC3339),
			room.ID,
		)
		if err != nil {
			return err
		}
		return requireRowsAffected(result)
	})
}

// GetRoom retrieves a room by ID.
func (r *RoomRepository) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	if id == "" {
		return persistence.Room{}, persistence.ErrNotFound
	}

	row := r.pool.db.QueryRowContext(ctx, `
		SELECT id, name, capacity, location, features, photo_url, is_active, created_at, updated_at
		FROM meeting_rooms
		WHERE id = ?
	`, id)

	room, err := scanRoom(row)
	if err != nil {
		return persistence.Room{}, mapSQLiteError(err)
	}
	return room, nil
}

// ListRooms returns all rooms ordered by name then ID.
func (r *RoomRepository) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT id, name, capacity, location, features, photo_url, is_active, created_at, updated_at
		FROM meeting_rooms
		ORDER BY name ASC, id ASC
	`)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var rooms []persistence.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, mapSQLiteError(err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError(err)
	}
	return rooms, nil
}

// DeleteRoom removes a room and its reservations.
func (r *RoomRepository) DeleteRoom(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			"DELETE FROM reservation_attendees WHERE reservation_id IN (SELECT id FROM reservations WHERE room_id = ?)", id,
		); err != nil {
			return mapSQLiteError(err)
		}
		if _, err := tx.Exec("DELETE FROM reservations WHERE room_id = ?", id); err != nil {
			return mapSQLiteError(err)
		}

		result, err := tx.Exec("DELETE FROM meeting_rooms WHERE id = ?", id)
		if err != nil {
			return mapSQLiteError(err)
		}
		return requireRowsAffected(result)
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (persistence.Room, error) {
	var (
		room                       persistence.Room
		features, photoURL         sql.NullString
		active                     int
		createdAtStr, updatedAtStr string
	)

	if err := row.Scan(
		&room.ID,
		&room.Name,
		&room.Capacity,
		&room.Location,
		&features,
		&photoURL,
		&active,
		&createdAtStr,
		&updatedAtStr,
	); err != nil {
		return persistence.Room{}, err
	}

	if features.Valid && features.String != "" {
		if err := json.Unmarshal([]byte(features.String), &room.Features); err != nil {
			return persistence.Room{}, fmt.Errorf("sqlite: failed to decode room features: %w", err)
		}
	}
	if photoURL.Valid {
		room.PhotoURL = &photoURL.String
	}
	room.Active = active != 0

	var err error
	if room.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Room{}, fmt.Errorf("sqlite: failed to parse created_at: %w", err)
	}
	if room.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.Room{}, fmt.Errorf("sqlite: failed to parse updated_at: %w", err)
	}

	return room, nil
}

func encodeFeatures(features []string) (sql.NullString, error) {
	if len(features) == 0 {
		return sql.NullString{}, nil
	}
	encoded, err := json.Marshal(features)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("sqlite: failed to encode room features: %w", err)
	}
	return sql.NullString{String: string(encoded), Valid: true}, nil
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func requireRowsAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
