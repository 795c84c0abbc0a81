package testfixtures

import (
	"time"

	"github.com/example/roomreserve/internal/application"
)

// ServiceFactory assembles application services with deterministic clocks and
// identifier generators for tests.
type ServiceFactory struct {
	clock     *Clock
	generator *IDGenerator
}

// ServiceFactoryOption mutates a ServiceFactory during construction.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory builds a factory anchored to the fixture reference time.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		clock:     NewClock(ReferenceTime()),
		generator: NewIDGenerator("id"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	return factory
}

// WithClock overrides the factory clock.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(f *ServiceFactory) {
		if clock != nil {
			f.clock = clock
		}
	}
}

// WithIDGenerator overrides the factory identifier generator.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(f *ServiceFactory) {
		if generator != nil {
			f.generator = generator
		}
	}
}

// Clock exposes the factory clock for assertions and time travel.
func (f *ServiceFactory) Clock() *Clock {
	return f.clock
}

// NewReservationService builds a reservation service over the given stores.
func (f *ServiceFactory) NewReservationService(reservations application.ReservationStore, rooms application.RoomCatalog) *application.ReservationService {
	return application.NewReservationService(reservations, rooms, f.generator.NextFunc(), f.clock.NowFunc())
}

// NewRoomService builds a room service over the given store.
func (f *ServiceFactory) NewRoomService(rooms application.RoomStore) *application.RoomService {
	return application.NewRoomService(rooms, f.generator.NextFunc(), f.clock.NowFunc())
}

// NewUserService builds a user service over the given store. A nil hasher
// falls back to the production argon2id implementation.
func (f *ServiceFactory) NewUserService(users application.UserStore, hasher application.PasswordHasher) *application.UserService {
	return application.NewUserService(users, hasher, f.generator.NextFunc(), f.clock.NowFunc())
}

// NewAuthService builds an auth service over the given stores.
func (f *ServiceFactory) NewAuthService(credentials application.CredentialStore, sessions application.SessionStore, verify application.PasswordVerifier, ttl time.Duration) *application.AuthService {
	return application.NewAuthService(credentials, sessions, verify, f.generator.NextFunc(), f.clock.NowFunc(), ttl)
}
