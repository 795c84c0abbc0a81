package persistence

import (
	"context"
	"time"
)

// UserRepository exposes CRUD operations for users.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
}

// RoomRepository exposes CRUD operations for meeting rooms.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	DeleteRoom(ctx context.Context, id string) error
}

// ReservationFilter narrows reservation queries.
type ReservationFilter struct {
	RoomID      string
	UserID      string
	StartsAfter *time.Time
	EndsBefore  *time.Time
}

// ReservationStatusConfirmed is the only status persisted today. Cancellation
// deletes the row outright rather than flipping a status flag.
const ReservationStatusConfirmed = "confirmed"

// ReservationRepository stores room reservations.
//
// ListReservationsForRoomAndRange is the fetch the availability engine runs
// immediately before every decision: it must return every confirmed
// reservation on the room whose interval could touch [rangeStart, rangeEnd],
// boundary instants included.
type ReservationRepository interface {
	CreateReservation(ctx context.Context, reservation Reservation) error
	UpdateReservation(ctx context.Context, reservation Reservation) error
	GetReservation(ctx context.Context, id string) (Reservation, error)
	ListReservations(ctx context.Context, filter ReservationFilter) ([]Reservation, error)
	ListReservationsForRoomAndRange(ctx context.Context, roomID string, rangeStart, rangeEnd time.Time) ([]Reservation, error)
	DeleteReservation(ctx context.Context, id string) error
	DeleteReservationsEndedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}
