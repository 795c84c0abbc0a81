package persistence

import "time"

// User represents an employee account in the reservation domain.
type User struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	Role         string
	Verified     bool
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Room represents a bookable meeting room catalog entry.
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

// Reservation represents a booking of a room for a fixed time window.
// Start and End are absolute instants persisted as RFC 3339 UTC strings.
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

// Session represents an authentication session persisted for a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}
