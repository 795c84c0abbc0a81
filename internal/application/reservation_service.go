package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/roomreserve/internal/booking"
	"github.com/example/roomreserve/internal/persistence"
)

// ReservationStore captures the persistence interactions needed by the service.
type ReservationStore interface {
	CreateReservation(ctx context.Context, reservation persistence.Reservation) error
	UpdateReservation(ctx context.Context, reservation persistence.Reservation) error
	GetReservation(ctx context.Context, id string) (persistence.Reservation, error)
	ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error)
	ListReservationsForRoomAndRange(ctx context.Context, roomID string, rangeStart, rangeEnd time.Time) ([]persistence.Reservation, error)
	DeleteReservation(ctx context.Context, id string) error
	DeleteReservationsEndedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RoomCatalog exposes the room lookups needed when booking.
type RoomCatalog interface {
	GetRoom(ctx context.Context, id string) (persistence.Room, error)
	ListRooms(ctx context.Context) ([]persistence.Room, error)
}

// ReservationService orchestrates validation, availability checking, and
// persistence for reservations. Availability is always decided on a fresh
// fetch taken inside the same call as the write; the window between that
// fetch and the insert is not covered by a lock, so two simultaneous commits
// can still both pass the check.
type ReservationService struct {
	reservations ReservationStore
	rooms        RoomCatalog
	idGenerator  func() string
	now          func() time.Time
	location     *time.Location
	retention    time.Duration
	logger       *slog.Logger
}

// DefaultRetention is how long a reservation outlives its end time before the
// cleanup pass removes it.
const DefaultRetention = 31 * 24 * time.Hour

// NewReservationService wires dependencies for reservation operations.
func NewReservationService(reservations ReservationStore, rooms RoomCatalog, idGenerator func() string, now func() time.Time) *ReservationService {
	return NewReservationServiceWithLogger(reservations, rooms, idGenerator, now, nil)
}

// NewReservationServiceWithLogger constructs a reservation service with a
// specified logger.
func NewReservationServiceWithLogger(reservations ReservationStore, rooms RoomCatalog, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ReservationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ReservationService{
		reservations: reservations,
		rooms:        rooms,
		idGenerator:  idGenerator,
		now:          now,
		location:     time.FixedZone("JST", 9*60*60),
		retention:    DefaultRetention,
		logger:       defaultLogger(logger),
	}
}

// SetLocation overrides the wall-clock zone used to validate booking windows.
func (s *ReservationService) SetLocation(loc *time.Location) {
	if loc != nil {
		s.location = loc
	}
}

// SetRetention overrides how long finished reservations are kept.
func (s *ReservationService) SetRetention(retention time.Duration) {
	if retention > 0 {
		s.retention = retention
	}
}

func (s *ReservationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ReservationService", operation, attrs...)
}

// CheckAvailability reports whether the room is free for the candidate
// window. The decision is made on a fetch taken inside this call; a fetch
// failure is returned as a FetchError, never treated as "available".
func (s *ReservationService) CheckAvailability(ctx context.Context, query AvailabilityQuery) (available bool, err error) {
	if s == nil {
		return false, fmt.Errorf("ReservationService is nil")
	}
	if s.reservations == nil {
		return false, fmt.Errorf("reservation store not configured")
	}

	logger := s.loggerWith(ctx, "CheckAvailability", "room_id", query.RoomID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "availability check failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("available", available).InfoContext(ctx, "availability checked")
	}()

	candidate := booking.Interval{Start: query.Start, End: query.End}
	existing, err := s.fetchWindow(ctx, query.RoomID, candidate)
	if err != nil {
		return false, err
	}
	return booking.IsAvailable(candidate, existing), nil
}

// FilterAvailableRooms returns the active rooms free for the whole window, in
// catalog order. A fetch failure for any room fails the whole call; the
// result never silently omits or includes a room whose state was unreadable.
func (s *ReservationService) FilterAvailableRooms(ctx context.Context, principal Principal, start, end time.Time) (rooms []Room, err error) {
	if s == nil {
		return nil, fmt.Errorf("ReservationService is nil")
	}
	if s.rooms == nil || s.reservations == nil {
		return nil, fmt.Errorf("reservation store not configured")
	}

	logger := s.loggerWith(ctx, "FilterAvailableRooms", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to filter rooms", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(rooms)).InfoContext(ctx, "rooms filtered")
	}()

	catalog, err := s.rooms.ListRooms(ctx)
	if err != nil {
		return nil, err
	}

	candidate := booking.Interval{Start: start, End: end}
	for _, room := range catalog {
		if !room.Active {
			continue
		}
		existing, err := s.fetchWindow(ctx, room.ID, candidate)
		if err != nil {
			return nil, err
		}
		if booking.IsAvailable(candidate, existing) {
			rooms = append(rooms, roomFromRecord(room))
		}
	}
	return rooms, nil
}

// CreateReservation validates the request, re-checks availability against a
// fresh fetch, and persists the reservation.
func (s *ReservationService) CreateReservation(ctx context.Context, params CreateReservationParams) (reservation Reservation, err error) {
	if s == nil {
		return Reservation{}, fmt.Errorf("ReservationService is nil")
	}
	if s.reservations == nil {
		return Reservation{}, fmt.Errorf("reservation store not configured")
	}

	logger := s.loggerWith(ctx, "CreateReservation",
		"principal_id", params.Principal.UserID,
		"room_id", params.Input.RoomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("reservation_id", reservation.ID).InfoContext(ctx, "reservation created")
	}()

	input := params.Input

	vErr := &ValidationError{}
	s.validateReservationCore(input, vErr)
	if vErr.HasErrors() {
		return Reservation{}, vErr
	}

	if err := s.ensureRoomBookable(ctx, input.RoomID); err != nil {
		return Reservation{}, err
	}

	candidate := booking.Interval{Start: input.Start, End: input.End}
	existing, err := s.fetchWindow(ctx, input.RoomID, candidate)
	if err != nil {
		return Reservation{}, err
	}
	if conflicts := booking.Conflicts(candidate, existing); len(conflicts) > 0 {
		return Reservation{}, conflictError(input.RoomID, candidate, conflicts)
	}

	now := s.now()
	record := persistence.Reservation{
		ID:          s.idGenerator(),
		RoomID:      input.RoomID,
		UserID:      params.Principal.UserID,
		Title:       strings.TrimSpace(input.Title),
		Description: normalizeOptionalString(input.Description),
		Start:       input.Start,
		End:         input.End,
		Attendees:   ParseAttendees(input.Attendees),
		Status:      persistence.ReservationStatusConfirmed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.reservations.CreateReservation(ctx, record); err != nil {
		return Reservation{}, s.mapCommitError(input.RoomID, err)
	}

	return reservationFromRecord(record), nil
}

// UpdateReservation re-validates and re-checks a changed reservation. The
// reservation being edited never conflicts with itself.
func (s *ReservationService) UpdateReservation(ctx context.Context, params UpdateReservationParams) (reservation Reservation, err error) {
	if s == nil {
		return Reservation{}, fmt.Errorf("ReservationService is nil")
	}
	if s.reservations == nil {
		return Reservation{}, fmt.Errorf("reservation store not configured")
	}

	logger := s.loggerWith(ctx, "UpdateReservation",
		"principal_id", params.Principal.UserID,
		"reservation_id", params.ReservationID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("reservation_id", reservation.ID).InfoContext(ctx, "reservation updated")
	}()

	existing, err := s.reservations.GetReservation(ctx, params.ReservationID)
	if err != nil {
		return Reservation{}, mapReservationRepoError(err)
	}

	if existing.UserID != params.Principal.UserID && !params.Principal.IsAdmin {
		return Reservation{}, ErrUnauthorized
	}

	input := params.Input
	vErr := &ValidationError{}
	s.validateReservationCore(input, vErr)
	if vErr.HasErrors() {
		return Reservation{}, vErr
	}

	if err := s.ensureRoomBookable(ctx, input.RoomID); err != nil {
		return Reservation{}, err
	}

	candidate := booking.Interval{Start: input.Start, End: input.End}
	window, err := s.fetchWindow(ctx, input.RoomID, candidate)
	if err != nil {
		return Reservation{}, err
	}
	window = booking.Excluding(window, existing.ID)
	if conflicts := booking.Conflicts(candidate, window); len(conflicts) > 0 {
		return Reservation{}, conflictError(input.RoomID, candidate, conflicts)
	}

	updated := existing
	updated.RoomID = input.RoomID
	updated.Title = strings.TrimSpace(input.Title)
	updated.Description = normalizeOptionalString(input.Description)
	updated.Start = input.Start
	updated.End = input.End
	updated.Attendees = ParseAttendees(input.Attendees)
	updated.UpdatedAt = s.now()

	if err := s.reservations.UpdateReservation(ctx, updated); err != nil {
		return Reservation{}, s.mapCommitError(input.RoomID, err)
	}

	return reservationFromRecord(updated), nil
}

// CancelReservation removes a reservation so it stops blocking its room.
// Cancellation is a hard delete; there is no soft-cancel state. Only the
// owner or an administrator may cancel.
func (s *ReservationService) CancelReservation(ctx context.Context, principal Principal, reservationID string) error {
	if s == nil {
		return fmt.Errorf("ReservationService is nil")
	}
	if s.reservations == nil {
		return fmt.Errorf("reservation store not configured")
	}

	logger := s.loggerWith(ctx, "CancelReservation",
		"principal_id", principal.UserID,
		"reservation_id", reservationID,
	)

	existing, err := s.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		err = mapReservationRepoError(err)
		logger.ErrorContext(ctx, "failed to cancel reservation", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	if existing.UserID != principal.UserID && !principal.IsAdmin {
		logger.ErrorContext(ctx, "failed to cancel reservation", "error", ErrUnauthorized, "error_kind", ErrorKind(ErrUnauthorized))
		return ErrUnauthorized
	}

	if err := s.reservations.DeleteReservation(ctx, reservationID); err != nil {
		err = mapReservationRepoError(err)
		logger.ErrorContext(ctx, "failed to cancel reservation", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "reservation cancelled")
	return nil
}

// GetReservation fetches a single reservation visible to the principal.
func (s *ReservationService) GetReservation(ctx context.Context, principal Principal, reservationID string) (Reservation, error) {
	if s == nil {
		return Reservation{}, fmt.Errorf("ReservationService is nil")
	}
	if s.reservations == nil {
		return Reservation{}, fmt.Errorf("reservation store not configured")
	}

	record, err := s.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		return Reservation{}, mapReservationRepoError(err)
	}
	if record.UserID != principal.UserID && !principal.IsAdmin {
		return Reservation{}, ErrUnauthorized
	}
	return reservationFromRecord(record), nil
}

// ListReservations enumerates reservations visible to the principal, ordered
// by start time. Non-administrators only see their own.
func (s *ReservationService) ListReservations(ctx context.Context, params ListReservationsParams) (reservations []Reservation, err error) {
	if s == nil {
		return nil, fmt.Errorf("ReservationService is nil")
	}
	if s.reservations == nil {
		return nil, fmt.Errorf("reservation store not configured")
	}

	logger := s.loggerWith(ctx, "ListReservations", "principal_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list reservations", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(reservations)).InfoContext(ctx, "reservations listed")
	}()

	userID := params.UserID
	if !params.Principal.IsAdmin {
		if userID != "" && userID != params.Principal.UserID {
			return nil, ErrUnauthorized
		}
		userID = params.Principal.UserID
	}

	records, err := s.reservations.ListReservations(ctx, persistence.ReservationFilter{
		RoomID:      params.RoomID,
		UserID:      userID,
		StartsAfter: params.StartsAfter,
		EndsBefore:  params.EndsBefore,
	})
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	reservations = make([]Reservation, 0, len(records))
	for _, record := range records {
		reservations = append(reservations, reservationFromRecord(record))
	}
	sort.SliceStable(reservations, func(i, j int) bool {
		if reservations[i].Start.Equal(reservations[j].Start) {
			return reservations[i].ID < reservations[j].ID
		}
		return reservations[i].Start.Before(reservations[j].Start)
	})
	return reservations, nil
}

// DailyRoomSchedule returns the confirmed reservations touching the given
// calendar day for one room, in start order.
func (s *ReservationService) DailyRoomSchedule(ctx context.Context, roomID string, date time.Time) ([]Reservation, error) {
	if s == nil {
		return nil, fmt.Errorf("ReservationService is nil")
	}
	if s.reservations == nil {
		return nil, fmt.Errorf("reservation store not configured")
	}

	local := date.In(s.location)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), booking.OpeningHour, 0, 0, 0, s.location)
	dayEnd := time.Date(local.Year(), local.Month(), local.Day(), booking.ClosingHour, 0, 0, 0, s.location)

	records, err := s.reservations.ListReservationsForRoomAndRange(ctx, roomID, dayStart, dayEnd)
	if err != nil {
		return nil, &FetchError{RoomID: roomID, Err: err}
	}

	out := make([]Reservation, 0, len(records))
	for _, record := range records {
		out = append(out, reservationFromRecord(record))
	}
	return out, nil
}

// ResumePendingReservation replays a draft saved before authentication. The
// full validation and availability pipeline runs again; a slot taken while
// the visitor signed in surfaces as a ConflictError.
func (s *ReservationService) ResumePendingReservation(ctx context.Context, principal Principal, pending PendingReservation) (Reservation, error) {
	return s.CreateReservation(ctx, CreateReservationParams{
		Principal: principal,
		Input:     pending.Input,
	})
}

// PurgeOldReservations deletes reservations whose end time fell out of the
// retention window and reports how many were removed.
func (s *ReservationService) PurgeOldReservations(ctx context.Context) (removed int64, err error) {
	if s == nil {
		return 0, fmt.Errorf("ReservationService is nil")
	}
	if s.reservations == nil {
		return 0, fmt.Errorf("reservation store not configured")
	}

	cutoff := s.now().Add(-s.retention)
	logger := s.loggerWith(ctx, "PurgeOldReservations", "cutoff", cutoff)

	removed, err = s.reservations.DeleteReservationsEndedBefore(ctx, cutoff)
	if err != nil {
		logger.ErrorContext(ctx, "failed to purge old reservations", "error", err, "error_kind", ErrorKind(err))
		return 0, err
	}
	logger.With("removed", removed).InfoContext(ctx, "old reservations purged")
	return removed, nil
}

// TimeSlots returns the bookable grid boundaries for the business day.
func (s *ReservationService) TimeSlots() []string {
	return booking.Slots()
}

// NextBookableSlot returns the default start slot offered for a new booking.
func (s *ReservationService) NextBookableSlot() string {
	return booking.NextBookableSlot(s.now().In(s.location))
}

// fetchWindow loads the confirmed reservations that could overlap the
// candidate window and converts them for the availability predicates.
func (s *ReservationService) fetchWindow(ctx context.Context, roomID string, candidate booking.Interval) ([]booking.Booking, error) {
	records, err := s.reservations.ListReservationsForRoomAndRange(ctx, roomID, candidate.Start, candidate.End)
	if err != nil {
		return nil, &FetchError{RoomID: roomID, Err: err}
	}

	existing := make([]booking.Booking, 0, len(records))
	for _, record := range records {
		existing = append(existing, booking.Booking{
			ID:     record.ID,
			RoomID: record.RoomID,
			Start:  record.Start,
			End:    record.End,
		})
	}
	return existing, nil
}

func (s *ReservationService) ensureRoomBookable(ctx context.Context, roomID string) error {
	if s.rooms == nil {
		return nil
	}
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			vErr := &ValidationError{}
			vErr.add("room_id", "room does not exist")
			return vErr
		}
		return err
	}
	if !room.Active {
		return ErrRoomInactive
	}
	return nil
}

func (s *ReservationService) validateReservationCore(input ReservationInput, vErr *ValidationError) {
	if strings.TrimSpace(input.Title) == "" {
		vErr.add("title", "title is required")
	}
	if input.RoomID == "" {
		vErr.add("room_id", "room is required")
	}

	if input.Start.IsZero() {
		vErr.add("start", "start is required")
	} else if !booking.OnGrid(input.Start, s.location) {
		vErr.add("start", "start must be on a 30-minute boundary within business hours")
	}

	if input.End.IsZero() {
		vErr.add("end", "end is required")
	} else if !booking.OnGrid(input.End, s.location) {
		vErr.add("end", "end must be on a 30-minute boundary within business hours")
	}

	if !input.Start.IsZero() && !input.End.IsZero() && !input.Start.Before(input.End) {
		vErr.add("time", "start must be before end")
	}
}

// ParseAttendees splits a comma separated attendee list, trimming whitespace
// and dropping empty entries. Order is preserved exactly as typed, duplicates
// included.
func ParseAttendees(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	attendees := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		attendees = append(attendees, trimmed)
	}
	if len(attendees) == 0 {
		return nil
	}
	return attendees
}

func conflictError(roomID string, candidate booking.Interval, conflicts []booking.Booking) *ConflictError {
	ids := make([]string, 0, len(conflicts))
	for _, conflict := range conflicts {
		ids = append(ids, conflict.ID)
	}
	return &ConflictError{
		RoomID:        roomID,
		Start:         candidate.Start,
		End:           candidate.End,
		ConflictsWith: ids,
	}
}

func (s *ReservationService) mapCommitError(roomID string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		vErr := &ValidationError{}
		vErr.add("room_id", "related records are missing")
		return vErr
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("time", "start must be before end")
		return vErr
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	return &CommitError{RoomID: roomID, Err: err}
}

func mapReservationRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	return err
}

func reservationFromRecord(record persistence.Reservation) Reservation {
	attendees := make([]string, len(record.Attendees))
	copy(attendees, record.Attendees)
	if len(attendees) == 0 {
		attendees = nil
	}
	return Reservation{
		ID:          record.ID,
		RoomID:      record.RoomID,
		UserID:      record.UserID,
		Title:       record.Title,
		Description: record.Description,
		Start:       record.Start,
		End:         record.End,
		Attendees:   attendees,
		Status:      record.Status,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}
