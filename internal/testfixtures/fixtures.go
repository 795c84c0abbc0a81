// Package testfixtures provides deterministic clocks, identifier generators,
// and entity builders shared by tests across packages.
package testfixtures

import (
	"time"

	"github.com/example/roomreserve/internal/application"
	"github.com/example/roomreserve/internal/persistence"
)

// ReferenceTime returns the fixed instant fixtures are anchored to. The date
// is a Thursday so business-hours slots land on a working day.
func ReferenceTime() time.Time {
	return time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)
}

// UserFixture describes a user account used across persistence and service tests.
type UserFixture struct {
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

// UserOption mutates a UserFixture during construction.
type UserOption func(*UserFixture)

// NewUserFixture builds a verified member account with stable defaults.
func NewUserFixture(opts ...UserOption) UserFixture {
	fixture := UserFixture{
		ID:           "user-1",
		Email:        "alice@example.com",
		FirstName:    "Alice",
		LastName:     "Yamada",
		Role:         application.RoleMember,
		Verified:     true,
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		CreatedAt:    ReferenceTime(),
		UpdatedAt:    ReferenceTime(),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the fixture identifier.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) { f.ID = id }
}

// WithUserEmail overrides the fixture email address.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) { f.Email = email }
}

// WithUserName overrides the fixture first and last name.
func WithUserName(first, last string) UserOption {
	return func(f *UserFixture) {
		f.FirstName = first
		f.LastName = last
	}
}

// WithUserRole overrides the fixture role.
func WithUserRole(role string) UserOption {
	return func(f *UserFixture) { f.Role = role }
}

// WithUserAdmin marks the fixture as an administrator.
func WithUserAdmin() UserOption {
	return func(f *UserFixture) { f.Role = application.RoleAdmin }
}

// WithUserVerified overrides the verification flag.
func WithUserVerified(verified bool) UserOption {
	return func(f *UserFixture) { f.Verified = verified }
}

// WithUserPasswordHash overrides the stored password hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(f *UserFixture) { f.PasswordHash = hash }
}

// WithUserTimestamps overrides both audit timestamps.
func WithUserTimestamps(created, updated time.Time) UserOption {
	return func(f *UserFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

// Application converts the fixture to the service layer representation.
func (f UserFixture) Application() application.User {
	return application.User{
		ID:        f.ID,
		Email:     f.Email,
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Role:      f.Role,
		Verified:  f.Verified,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Principal converts the fixture to an authenticated principal.
func (f UserFixture) Principal() application.Principal {
	return application.Principal{
		UserID:  f.ID,
		IsAdmin: f.Role == application.RoleAdmin,
	}
}

// Persistence converts the fixture to the repository record representation.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:           f.ID,
		Email:        f.Email,
		FirstName:    f.FirstName,
		LastName:     f.LastName,
		Role:         f.Role,
		Verified:     f.Verified,
		PasswordHash: f.PasswordHash,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// RoomFixture describes a meeting room used across persistence and service tests.
type RoomFixture struct {
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

// RoomOption mutates a RoomFixture during construction.
type RoomOption func(*RoomFixture)

// NewRoomFixture builds an active room with stable defaults.
func NewRoomFixture(opts ...RoomOption) RoomFixture {
	fixture := RoomFixture{
		ID:        "room-1",
		Name:      "Sakura",
		Location:  "Tokyo HQ 3F",
		Capacity:  8,
		Features:  []string{"projector", "whiteboard"},
		Active:    true,
		CreatedAt: ReferenceTime(),
		UpdatedAt: ReferenceTime(),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithRoomID overrides the fixture identifier.
func WithRoomID(id string) RoomOption {
	return func(f *RoomFixture) { f.ID = id }
}

// WithRoomName overrides the fixture name.
func WithRoomName(name string) RoomOption {
	return func(f *RoomFixture) { f.Name = name }
}

// WithRoomCapacity overrides the fixture capacity.
func WithRoomCapacity(capacity int) RoomOption {
	return func(f *RoomFixture) { f.Capacity = capacity }
}

// WithRoomFeatures overrides the fixture feature list.
func WithRoomFeatures(features ...string) RoomOption {
	return func(f *RoomFixture) { f.Features = features }
}

// WithRoomPhotoURL sets an optional photo link.
func WithRoomPhotoURL(url string) RoomOption {
	return func(f *RoomFixture) { f.PhotoURL = &url }
}

// WithRoomInactive withdraws the room from booking.
func WithRoomInactive() RoomOption {
	return func(f *RoomFixture) { f.Active = false }
}

// Application converts the fixture to the service layer representation.
func (f RoomFixture) Application() application.Room {
	return application.Room{
		ID:        f.ID,
		Name:      f.Name,
		Location:  f.Location,
		Capacity:  f.Capacity,
		Features:  f.Features,
		PhotoURL:  f.PhotoURL,
		Active:    f.Active,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Persistence converts the fixture to the repository record representation.
func (f RoomFixture) Persistence() persistence.Room {
	return persistence.Room{
		ID:        f.ID,
		Name:      f.Name,
		Location:  f.Location,
		Capacity:  f.Capacity,
		Features:  f.Features,
		PhotoURL:  f.PhotoURL,
		Active:    f.Active,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Input converts the fixture to caller provided input.
func (f RoomFixture) Input() application.RoomInput {
	return application.RoomInput{
		Name:     f.Name,
		Location: f.Location,
		Capacity: f.Capacity,
		Features: f.Features,
		PhotoURL: f.PhotoURL,
		Active:   f.Active,
	}
}

// ReservationFixture describes a booking used across persistence and service tests.
type ReservationFixture struct {
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

// ReservationOption mutates a ReservationFixture during construction.
type ReservationOption func(*ReservationFixture)

// NewReservationFixture builds a confirmed one-hour booking starting at 10:00
// UTC on the reference day.
func NewReservationFixture(opts ...ReservationOption) ReservationFixture {
	day := ReferenceTime()
	fixture := ReservationFixture{
		ID:        "res-1",
		RoomID:    "room-1",
		UserID:    "user-1",
		Title:     "Weekly sync",
		Start:     day.Add(10 * time.Hour),
		End:       day.Add(11 * time.Hour),
		Status:    persistence.ReservationStatusConfirmed,
		CreatedAt: day,
		UpdatedAt: day,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithReservationID overrides the fixture identifier.
func WithReservationID(id string) ReservationOption {
	return func(f *ReservationFixture) { f.ID = id }
}

// WithReservationRoom overrides the booked room.
func WithReservationRoom(roomID string) ReservationOption {
	return func(f *ReservationFixture) { f.RoomID = roomID }
}

// WithReservationUser overrides the booking owner.
func WithReservationUser(userID string) ReservationOption {
	return func(f *ReservationFixture) { f.UserID = userID }
}

// WithReservationTitle overrides the fixture title.
func WithReservationTitle(title string) ReservationOption {
	return func(f *ReservationFixture) { f.Title = title }
}

// WithReservationWindow overrides the booked window.
func WithReservationWindow(start, end time.Time) ReservationOption {
	return func(f *ReservationFixture) {
		f.Start = start
		f.End = end
	}
}

// WithReservationAttendees overrides the attendee list.
func WithReservationAttendees(attendees ...string) ReservationOption {
	return func(f *ReservationFixture) { f.Attendees = attendees }
}

// Application converts the fixture to the service layer representation.
func (f ReservationFixture) Application() application.Reservation {
	return application.Reservation{
		ID:          f.ID,
		RoomID:      f.RoomID,
		UserID:      f.UserID,
		Title:       f.Title,
		Description: f.Description,
		Start:       f.Start,
		End:         f.End,
		Attendees:   f.Attendees,
		Status:      f.Status,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Persistence converts the fixture to the repository record representation.
func (f ReservationFixture) Persistence() persistence.Reservation {
	return persistence.Reservation{
		ID:          f.ID,
		RoomID:      f.RoomID,
		UserID:      f.UserID,
		Title:       f.Title,
		Description: f.Description,
		Start:       f.Start,
		End:         f.End,
		Attendees:   f.Attendees,
		Status:      f.Status,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}
