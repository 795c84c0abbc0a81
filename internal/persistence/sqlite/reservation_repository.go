package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/roomreserve/internal/persistence"
)

// ReservationRepository implements persistence.ReservationRepository on SQLite.
type ReservationRepository struct {
	pool  *ConnectionPool
	retry RetryConfig
}

// NewReservationRepository creates a SQLite-backed reservation repository.
func NewReservationRepository(pool *ConnectionPool) *ReservationRepository {
	return &ReservationRepository{pool: pool, retry: DefaultRetryConfig()}
}

// CreateReservation inserts a reservation and its attendee list in one
// transaction.
func (r *ReservationRepository) CreateReservation(ctx context.Context, reservation persistence.Reservation) error {
	if reservation.ID == "" || reservation.RoomID == "" || reservation.UserID == "" {
		return persistence.ErrConstraintViolation
	}
	if !reservation.Start.Before(reservation.End) {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	reservation.CreatedAt = now
	reservation.UpdatedAt = now

	return withRetry(ctx, r.retry, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				INSERT INTO reservations (id, room_id, user_id, title, description, start_time, end_time, status, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
				reservation.ID,
				reservation.RoomID,
				reservation.UserID,
				reservation.Title,
				nullString(reservation.Description),
				formatInstant(reservation.Start),
				formatInstant(reservation.End),
				reservation.Status,
				reservation.CreatedAt.Format(time.RFC3339),
				reservation.UpdatedAt.Format(time.RFC3339),
			)
			if err != nil {
				return err
			}
			return insertAttendees(tx, reservation.ID, reservation.Attendees)
		})
	})
}

// UpdateReservation replaces a reservation and rewrites its attendee list.
func (r *ReservationRepository) UpdateReservation(ctx context.Context, reservation persistence.Reservation) error {
	if reservation.ID == "" {
		return persistence.ErrNotFound
	}
	if !reservation.Start.Before(reservation.End) {
		return persistence.ErrConstraintViolation
	}

	reservation.UpdatedAt = time.Now().UTC()

	return withRetry(ctx, r.retry, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			result, err := tx.Exec(`
				UPDATE reservations
				SET room_id = ?, user_id = ?, title = ?, description = ?, start_time = ?, end_time = ?, status = ?, updated_at = ?
				WHERE id = ?
			`,
				reservation.RoomID,
				reservation.UserID,
				reservation.Title,
				nullString(reservation.Description),
				formatInstant(reservation.Start),
				formatInstant(reservation.End),
				reservation.Status,
				reservation.UpdatedAt.Format(time.RFC3339),
				reservation.ID,
			)
			if err != nil {
				return err
			}
			if err := requireRowsAffected(result); err != nil {
				return err
			}

			if _, err := tx.Exec("DELETE FROM reservation_attendees WHERE reservation_id = ?", reservation.ID); err != nil {
				return err
			}
			return insertAttendees(tx, reservation.ID, reservation.Attendees)
		})
	})
}

// GetReservation retrieves a reservation by ID, attendees included.
func (r *ReservationRepository) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	if id == "" {
		return persistence.Reservation{}, persistence.ErrNotFound
	}

	row := r.pool.db.QueryRowContext(ctx, reservationSelect+" WHERE id = ?", id)
	reservation, err := scanReservation(row)
	if err != nil {
		return persistence.Reservation{}, mapSQLiteError(err)
	}

	if reservation.Attendees, err = r.loadAttendees(ctx, id); err != nil {
		return persistence.Reservation{}, err
	}
	return reservation, nil
}

// ListReservations returns reservations matching the filter, ordered by start
// time then ID.
func (r *ReservationRepository) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error) {
	query := reservationSelect
	var (
		conditions []string
		args       []any
	)
	if filter.RoomID != "" {
		conditions = append(conditions, "room_id = ?")
		args = append(args, filter.RoomID)
	}
	if filter.UserID != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.StartsAfter != nil {
		conditions = append(conditions, "start_time >= ?")
		args = append(args, formatInstant(*filter.StartsAfter))
	}
	if filter.EndsBefore != nil {
		conditions = append(conditions, "end_time <= ?")
		args = append(args, formatInstant(*filter.EndsBefore))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_time ASC, id ASC"

	return r.queryReservations(ctx, query, args...)
}

// ListReservationsForRoomAndRange returns every confirmed reservation on the
// room whose interval touches [rangeStart, rangeEnd]. The comparison is
// inclusive on both boundaries so a reservation ending exactly at rangeStart,
// or starting exactly at rangeEnd, is returned.
func (r *ReservationRepository) ListReservationsForRoomAndRange(ctx context.Context, roomID string, rangeStart, rangeEnd time.Time) ([]persistence.Reservation, error) {
	if roomID == "" {
		return nil, persistence.ErrNotFound
	}

	query := reservationSelect + `
		WHERE room_id = ? AND status = ? AND start_time <= ? AND end_time >= ?
		ORDER BY start_time ASC, id ASC`
	return r.queryReservations(ctx, query, roomID, persistence.ReservationStatusConfirmed, formatInstant(rangeEnd), formatInstant(rangeStart))
}

// DeleteReservation removes a reservation and its attendees.
func (r *ReservationRepository) DeleteReservation(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM reservation_attendees WHERE reservation_id = ?", id); err != nil {
			return mapSQLiteError(err)
		}
		result, err := tx.Exec("DELETE FROM reservations WHERE id = ?", id)
		if err != nil {
			return mapSQLiteError(err)
		}
		return requireRowsAffected(result)
	})
}

// DeleteReservationsEndedBefore removes reservations whose end time is before
// the cutoff and reports how many were removed.
func (r *ReservationRepository) DeleteReservationsEndedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			"DELETE FROM reservation_attendees WHERE reservation_id IN (SELECT id FROM reservations WHERE end_time < ?)",
			formatInstant(cutoff),
		); err != nil {
			return mapSQLiteError(err)
		}

		result, err := tx.Exec("DELETE FROM reservations WHERE end_time < ?", formatInstant(cutoff))
		if err != nil {
			return mapSQLiteError(err)
		}
		removed, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: failed to read rows affected: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

const reservationSelect = `
	SELECT id, room_id, user_id, title, description, start_time, end_time, status, created_at, updated_at
	FROM reservations`

func (r *ReservationRepository) queryReservations(ctx context.Context, query string, args ...any) ([]persistence.Reservation, error) {
	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var reservations []persistence.Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, mapSQLiteError(err)
		}
		reservations = append(reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError(err)
	}

	for i := range reservations {
		if reservations[i].Attendees, err = r.loadAttendees(ctx, reservations[i].ID); err != nil {
			return nil, err
		}
	}
	return reservations, nil
}

func (r *ReservationRepository) loadAttendees(ctx context.Context, reservationID string) ([]string, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		"SELECT email FROM reservation_attendees WHERE reservation_id = ? ORDER BY position ASC",
		reservationID,
	)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var attendees []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, mapSQLiteError(err)
		}
		attendees = append(attendees, email)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError(err)
	}
	return attendees, nil
}

func insertAttendees(tx *sql.Tx, reservationID string, attendees []string) error {
	for position, email := range attendees {
		if _, err := tx.Exec(
			"INSERT INTO reservation_attendees (reservation_id, position, email) VALUES (?, ?, ?)",
			reservationID, position, email,
		); err != nil {
			return err
		}
	}
	return nil
}

func scanReservation(row rowScanner) (persistence.Reservation, error) {
	var (
		reservation                persistence.Reservation
		description                sql.NullString
		startStr, endStr           string
		createdAtStr, updatedAtStr string
	)

	if err := row.Scan(
		&reservation.ID,
		&reservation.RoomID,
		&reservation.UserID,
		&reservation.Title,
		&description,
		&startStr,
		&endStr,
		&reservation.Status,
		&createdAtStr,
		&updatedAtStr,
	); err != nil {
		return persistence.Reservation{}, err
	}

	if description.Valid {
		reservation.Description = &description.String
	}

	var err error
	if reservation.Start, err = time.Parse(time.RFC3339, startStr); err != nil {
		return persistence.Reservation{}, fmt.Errorf("sqlite: failed to parse start_time: %w", err)
	}
	if reservation.End, err = time.Parse(time.RFC3339, endStr); err != nil {
		return persistence.Reservation{}, fmt.Errorf("sqlite: failed to parse end_time: %w", err)
	}
	if reservation.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Reservation{}, fmt.Errorf("sqlite: failed to parse created_at: %w", err)
	}
	if reservation.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.Reservation{}, fmt.Errorf("sqlite: failed to parse updated_at: %w", err)
	}

	return reservation, nil
}

// formatInstant normalises an instant to UTC before encoding so that the
// stored strings order lexicographically by time.
func formatInstant(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
