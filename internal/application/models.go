package application

import "time"

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// Room represents a meeting room exposed by the application services.
type Room struct {
	ID        string
	Name      string
	Location  string
	Capacity  int
	Features  []string
	PhotoURL  *string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RoomInput captures caller provided room fields.
type RoomInput struct {
	Name     string
	Location string
	Capacity int
	Features []string
	PhotoURL *string
	Active   bool
}

// CreateRoomParams wraps the data required to create a room.
type CreateRoomParams struct {
	Principal Principal
	Input     RoomInput
}

// UpdateRoomParams wraps the data required to update a room.
type UpdateRoomParams struct {
	Principal Principal
	RoomID    string
	Input     RoomInput
}

// Reservation represents a persisted room booking. Start and End are absolute
// instants.
type Reservation struct {
	ID          string
	RoomID      string
	UserID      string
	Title       string
	Description *string
	Start       time.Time
	End         time.Time
	Attendees   []string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ReservationInput captures caller provided reservation fields. Attendees is
// the raw comma separated list as typed by the user.
type ReservationInput struct {
	RoomID      string
	Title       string
	Description *string
	Start       time.Time
	End         time.Time
	Attendees   string
}

// CreateReservationParams wraps the data required to create a reservation.
type CreateReservationParams struct {
	Principal Principal
	Input     ReservationInput
}

// UpdateReservationParams wraps the data required to update a reservation.
type UpdateReservationParams struct {
	Principal     Principal
	ReservationID string
	Input         ReservationInput
}

// ListReservationsParams wraps the data required to list reservations.
type ListReservationsParams struct {
	Principal   Principal
	RoomID      string
	UserID      string
	StartsAfter *time.Time
	EndsBefore  *time.Time
}

// AvailabilityQuery identifies a room and candidate window to check.
type AvailabilityQuery struct {
	RoomID string
	Start  time.Time
	End    time.Time
}

// PendingReservation is a reservation draft preserved across an
// authentication round trip. A visitor who fills the booking form before
// signing in gets the draft replayed, and re-checked, once a session exists.
type PendingReservation struct {
	Input   ReservationInput
	SavedAt time.Time
}

// UserInput captures caller provided user attributes.
type UserInput struct {
	Email     string
	FirstName string
	LastName  string
	Role      string
	Verified  bool
	Password  string
}

// User represents an employee account exposed by the application services.
type User struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	Role      string
	Verified  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// User roles.
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// CreateUserParams wraps the data required to create a user.
type CreateUserParams struct {
	Principal Principal
	Input     UserInput
}

// UpdateUserParams wraps the data required to update a user.
type UpdateUserParams struct {
	Principal Principal
	UserID    string
	Input     UserInput
}

// RegisterUserParams wraps the data required for self service sign up.
type RegisterUserParams struct {
	Input UserInput
}

// Session represents an authenticated session issued to a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult captures the outcome of a successful authentication attempt.
type AuthenticateResult struct {
	User    User
	Session Session
}

// RefreshSessionParams captures the data required to refresh an existing session.
type RefreshSessionParams struct {
	Token string
}

// RefreshSessionResult captures the outcome of rotating a session token.
type RefreshSessionResult struct {
	Session Session
}
