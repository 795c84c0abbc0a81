package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/roomreserve/internal/application"
)

type authServiceStub struct {
	authenticateResult application.AuthenticateResult
	authenticateErr    error
	refreshResult      application.RefreshSessionResult
	refreshErr         error
	revokedTokens      []string
	revokeErr          error
}

func (s *authServiceStub) Authenticate(ctx context.Context, params application.AuthenticateParams) (application.AuthenticateResult, error) {
	if s.authenticateErr != nil {
		return application.AuthenticateResult{}, s.authenticateErr
	}
	return s.authenticateResult, nil
}

func (s *authServiceStub) RefreshSession(ctx context.Context, params application.RefreshSessionParams) (application.RefreshSessionResult, error) {
	if s.refreshErr != nil {
		return application.RefreshSessionResult{}, s.refreshErr
	}
	return s.refreshResult, nil
}

func (s *authServiceStub) RevokeSession(ctx context.Context, token string) error {
	if s.revokeErr != nil {
		return s.revokeErr
	}
	s.revokedTokens = append(s.revokedTokens, token)
	return nil
}

type resumerStub struct {
	reservation application.Reservation
	err         error
	resumed     []application.PendingReservation
}

func (s *resumerStub) ResumePendingReservation(ctx context.Context, principal application.Principal, pending application.PendingReservation) (application.Reservation, error) {
	s.resumed = append(s.resumed, pending)
	if s.err != nil {
		return application.Reservation{}, s.err
	}
	return s.reservation, nil
}

type reservationServiceStub struct {
	created      []application.CreateReservationParams
	createResult application.Reservation
	createErr    error
	updateResult application.Reservation
	updateErr    error
	cancelled    []string
	cancelErr    error
	getResult    application.Reservation
	getErr       error
	listResult   []application.Reservation
	listErr      error
}

func (s *reservationServiceStub) CreateReservation(ctx context.Context, params application.CreateReservationParams) (application.Reservation, error) {
	s.created = append(s.created, params)
	if s.createErr != nil {
		return application.Reservation{}, s.createErr
	}
	return s.createResult, nil
}

func (s *reservationServiceStub) UpdateReservation(ctx context.Context, params application.UpdateReservationParams) (application.Reservation, error) {
	if s.updateErr != nil {
		return application.Reservation{}, s.updateErr
	}
	return s.updateResult, nil
}

func (s *reservationServiceStub) CancelReservation(ctx context.Context, principal application.Principal, reservationID string) error {
	if s.cancelErr != nil {
		return s.cancelErr
	}
	s.cancelled = append(s.cancelled, reservationID)
	return nil
}

func (s *reservationServiceStub) GetReservation(ctx context.Context, principal application.Principal, reservationID string) (application.Reservation, error) {
	if s.getErr != nil {
		return application.Reservation{}, s.getErr
	}
	return s.getResult, nil
}

func (s *reservationServiceStub) ListReservations(ctx context.Context, params application.ListReservationsParams) ([]application.Reservation, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.listResult, nil
}

type roomServiceStub struct {
	rooms     []application.Room
	listErr   error
	getResult application.Room
	getErr    error
}

func (s *roomServiceStub) CreateRoom(ctx context.Context, params application.CreateRoomParams) (application.Room, error) {
	return application.Room{}, nil
}

func (s *roomServiceStub) UpdateRoom(ctx context.Context, params application.UpdateRoomParams) (application.Room, error) {
	return application.Room{}, nil
}

func (s *roomServiceStub) DeleteRoom(ctx context.Context, principal application.Principal, roomID string) error {
	return nil
}

func (s *roomServiceStub) GetRoom(ctx context.Context, principal application.Principal, roomID string) (application.Room, error) {
	if s.getErr != nil {
		return application.Room{}, s.getErr
	}
	return s.getResult, nil
}

func (s *roomServiceStub) ListRooms(ctx context.Context, principal application.Principal) ([]application.Room, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.rooms, nil
}

type roomSchedulerStub struct {
	reservations []application.Reservation
	err          error
	dates        []time.Time
}

func (s *roomSchedulerStub) DailyRoomSchedule(ctx context.Context, roomID string, date time.Time) ([]application.Reservation, error) {
	s.dates = append(s.dates, date)
	if s.err != nil {
		return nil, s.err
	}
	return s.reservations, nil
}

type availabilityServiceStub struct {
	available bool
	checkErr  error
	queries   []application.AvailabilityQuery
	rooms     []application.Room
	filterErr error
	windows   [][2]time.Time
}

func (s *availabilityServiceStub) CheckAvailability(ctx context.Context, query application.AvailabilityQuery) (bool, error) {
	s.queries = append(s.queries, query)
	if s.checkErr != nil {
		return false, s.checkErr
	}
	return s.available, nil
}

func (s *availabilityServiceStub) FilterAvailableRooms(ctx context.Context, principal application.Principal, start, end time.Time) ([]application.Room, error) {
	s.windows = append(s.windows, [2]time.Time{start, end})
	if s.filterErr != nil {
		return nil, s.filterErr
	}
	return s.rooms, nil
}

func (s *availabilityServiceStub) TimeSlots() []string {
	return []string{"08:00", "08:30"}
}

func (s *availabilityServiceStub) NextBookableSlot() string {
	return "08:30"
}

type maintenanceServiceStub struct {
	removed int64
	err     error
	calls   int
}

func (s *maintenanceServiceStub) PurgeOldReservations(ctx context.Context) (int64, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	return s.removed, nil
}

type userServiceStub struct {
	registered []application.RegisterUserParams
	user       application.User
	err        error
}

func (s *userServiceStub) RegisterUser(ctx context.Context, params application.RegisterUserParams) (application.User, error) {
	s.registered = append(s.registered, params)
	if s.err != nil {
		return application.User{}, s.err
	}
	return s.user, nil
}

func (s *userServiceStub) CreateUser(ctx context.Context, params application.CreateUserParams) (application.User, error) {
	if s.err != nil {
		return application.User{}, s.err
	}
	return s.user, nil
}

func (s *userServiceStub) UpdateUser(ctx context.Context, params application.UpdateUserParams) (application.User, error) {
	if s.err != nil {
		return application.User{}, s.err
	}
	return s.user, nil
}

func (s *userServiceStub) DeleteUser(ctx context.Context, principal application.Principal, userID string) error {
	return s.err
}

func (s *userServiceStub) GetUser(ctx context.Context, principal application.Principal, userID string) (application.User, error) {
	if s.err != nil {
		return application.User{}, s.err
	}
	return s.user, nil
}

func (s *userServiceStub) ListUsers(ctx context.Context, principal application.Principal) ([]application.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []application.User{s.user}, nil
}

func withPrincipal(req *http.Request, principal application.Principal) *http.Request {
	return req.WithContext(ContextWithPrincipal(req.Context(), principal))
}

func jsonBody(t *testing.T, payload any) *bytes.Reader {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	return bytes.NewReader(data)
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.NewDecoder(recorder.Body).Decode(target); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
}

func TestAuthHandler_CreateSession_IssuesToken(t *testing.T) {
	t.Parallel()

	expires := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	service := &authServiceStub{
		authenticateResult: application.AuthenticateResult{
			User:    application.User{ID: "user-1", Role: application.RoleMember},
			Session: application.Session{Token: "token-abc", ExpiresAt: expires},
		},
	}
	handler := NewAuthHandler(service, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/sessions", jsonBody(t, loginRequest{Email: "Alice@Example.com", Password: "secret"}))
	recorder := httptest.NewRecorder()

	handler.CreateSession(recorder, req)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", recorder.Code)
	}
	if got := recorder.Header().Get("X-Session-Token"); got != "token-abc" {
		t.Fatalf("expected session token header, got %q", got)
	}

	foundCookie := false
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == "session_token" && cookie.Value == "token-abc" {
			foundCookie = true
		}
	}
	if !foundCookie {
		t.Fatal("expected session_token cookie to be set")
	}

	var resp loginResponse
	decodeBody(t, recorder, &resp)
	if resp.Token != "token-abc" {
		t.Fatalf("expected token in body, got %q", resp.Token)
	}
}

func TestAuthHandler_CreateSession_InvalidCredentials(t *testing.T) {
	t.Parallel()

	service := &authServiceStub{authenticateErr: application.ErrInvalidCredentials}
	handler := NewAuthHandler(service, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/sessions", jsonBody(t, loginRequest{Email: "x@example.com", Password: "bad"}))
	recorder := httptest.NewRecorder()

	handler.CreateSession(recorder, req)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", recorder.Code)
	}
	var resp errorResponse
	decodeBody(t, recorder, &resp)
	if resp.ErrorCode != "AUTH_INVALID_CREDENTIALS" {
		t.Fatalf("expected AUTH_INVALID_CREDENTIALS, got %q", resp.ErrorCode)
	}
}

func TestAuthHandler_CreateSession_ReplaysPendingDraft(t *testing.T) {
	t.Parallel()

	service := &authServiceStub{
		authenticateResult: application.AuthenticateResult{
			User:    application.User{ID: "user-1", Role: application.RoleMember},
			Session: application.Session{Token: "token-abc", ExpiresAt: time.Now().Add(time.Hour)},
		},
	}
	resumer := &resumerStub{reservation: application.Reservation{ID: "res-9", RoomID: "room-1", Status: "confirmed"}}
	handler := NewAuthHandler(service, resumer, nil)

	body := loginRequest{
		Email:    "alice@example.com",
		Password: "secret",
		PendingReservation: &pendingReservationRequest{
			Draft: reservationRequest{
				RoomID: "room-1",
				Title:  "Sync",
				Start:  "2024-03-14T01:00:00Z",
				End:    "2024-03-14T02:00:00Z",
			},
		},
	}
	req := httptest.NewRequest(http.MethodPost, "/sessions", jsonBody(t, body))
	recorder := httptest.NewRecorder()

	handler.CreateSession(recorder, req)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", recorder.Code)
	}
	if len(resumer.resumed) != 1 {
		t.Fatalf("expected one replayed draft, got %d", len(resumer.resumed))
	}

	var resp loginResponse
	decodeBody(t, recorder, &resp)
	if resp.Reservation == nil || resp.Reservation.ID != "res-9" {
		t.Fatalf("expected replayed reservation in response, got %+v", resp.Reservation)
	}
}

func TestAuthHandler_CreateSession_PendingConflictDoesNotFailLogin(t *testing.T) {
	t.Parallel()

	service := &authServiceStub{
		authenticateResult: application.AuthenticateResult{
			User:    application.User{ID: "user-1", Role: application.RoleMember},
			Session: application.Session{Token: "token-abc", ExpiresAt: time.Now().Add(time.Hour)},
		},
	}
	resumer := &resumerStub{err: &application.ConflictError{
		RoomID:        "room-1",
		Start:         time.Date(2024, 3, 14, 1, 0, 0, 0, time.UTC),
		End:           time.Date(2024, 3, 14, 2, 0, 0, 0, time.UTC),
		ConflictsWith: []string{"res-1"},
	}}
	handler := NewAuthHandler(service, resumer, nil)

	body := loginRequest{
		Email:    "alice@example.com",
		Password: "secret",
		PendingReservation: &pendingReservationRequest{
			Draft: reservationRequest{
				RoomID: "room-1",
				Title:  "Sync",
				Start:  "2024-03-14T01:00:00Z",
				End:    "2024-03-14T02:00:00Z",
			},
		},
	}
	req := httptest.NewRequest(http.MethodPost, "/sessions", jsonBody(t, body))
	recorder := httptest.NewRecorder()

	handler.CreateSession(recorder, req)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("login should still succeed, got status %d", recorder.Code)
	}
	var resp loginResponse
	decodeBody(t, recorder, &resp)
	if resp.Reservation != nil {
		t.Fatal("conflicting draft must not produce a reservation")
	}
	if resp.PendingOutcome == nil || resp.PendingOutcome.ErrorCode != "RESERVATION_CONFLICT" {
		t.Fatalf("expected conflict outcome, got %+v", resp.PendingOutcome)
	}
	if resp.PendingOutcome.Conflict == nil || len(resp.PendingOutcome.Conflict.ConflictsWith) != 1 {
		t.Fatalf("expected conflicting ids in outcome, got %+v", resp.PendingOutcome.Conflict)
	}
}

func TestAuthHandler_DeleteSession_RequiresAdmin(t *testing.T) {
	t.Parallel()

	service := &authServiceStub{}
	handler := NewAuthHandler(service, nil, nil)

	req := httptest.NewRequest(http.MethodDelete, "/sessions/some-token", nil)
	req = withPrincipal(req, application.Principal{UserID: "user-1"})
	recorder := httptest.NewRecorder()

	handler.DeleteSession(recorder, req, "some-token")

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", recorder.Code)
	}
	if len(service.revokedTokens) != 0 {
		t.Fatal("no revocation expected for non-admin caller")
	}
}

func TestAuthHandler_RefreshSession_RotatesToken(t *testing.T) {
	t.Parallel()

	expires := time.Date(2024, 3, 14, 13, 0, 0, 0, time.UTC)
	service := &authServiceStub{
		refreshResult: application.RefreshSessionResult{
			Session: application.Session{Token: "token-rotated", ExpiresAt: expires},
		},
	}
	handler := NewAuthHandler(service, nil, nil)

	req := httptest.NewRequest(http.MethodPut, "/sessions/current", nil)
	req.Header.Set("Authorization", "Bearer token-old")
	recorder := httptest.NewRecorder()

	handler.RefreshSession(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	var resp loginResponse
	decodeBody(t, recorder, &resp)
	if resp.Token != "token-rotated" {
		t.Fatalf("expected rotated token, got %q", resp.Token)
	}
	if got := recorder.Header().Get("X-Session-Token"); got != "token-rotated" {
		t.Fatalf("expected rotated token header, got %q", got)
	}
}

func TestReservationHandler_Create_ReturnsCreated(t *testing.T) {
	t.Parallel()

	service := &reservationServiceStub{
		createResult: application.Reservation{ID: "res-1", RoomID: "room-1", Status: "confirmed"},
	}
	handler := NewReservationHandler(service, nil)

	body := reservationRequest{
		RoomID:    "room-1",
		Title:     "Planning",
		Start:     "2024-03-14T01:00:00Z",
		End:       "2024-03-14T02:00:00Z",
		Attendees: "alice@example.com, bob@example.com",
	}
	req := httptest.NewRequest(http.MethodPost, "/reservations", jsonBody(t, body))
	req = withPrincipal(req, application.Principal{UserID: "user-1"})
	recorder := httptest.NewRecorder()

	handler.Create(recorder, req)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d (body %s)", recorder.Code, recorder.Body.String())
	}
	if len(service.created) != 1 {
		t.Fatalf("expected one create call, got %d", len(service.created))
	}
	if got := service.created[0].Input.Attendees; got != "alice@example.com, bob@example.com" {
		t.Fatalf("raw attendees string should pass through, got %q", got)
	}
}

func TestReservationHandler_Create_ConflictMapsTo409(t *testing.T) {
	t.Parallel()

	service := &reservationServiceStub{
		createErr: &application.ConflictError{
			RoomID:        "room-1",
			Start:         time.Date(2024, 3, 14, 1, 0, 0, 0, time.UTC),
			End:           time.Date(2024, 3, 14, 2, 0, 0, 0, time.UTC),
			ConflictsWith: []string{"res-1", "res-2"},
		},
	}
	handler := NewReservationHandler(service, nil)

	body := reservationRequest{RoomID: "room-1", Title: "Planning", Start: "2024-03-14T01:00:00Z", End: "2024-03-14T02:00:00Z"}
	req := httptest.NewRequest(http.MethodPost, "/reservations", jsonBody(t, body))
	req = withPrincipal(req, application.Principal{UserID: "user-1"})
	recorder := httptest.NewRecorder()

	handler.Create(recorder, req)

	if recorder.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", recorder.Code)
	}
	var resp errorResponse
	decodeBody(t, recorder, &resp)
	if resp.ErrorCode != "RESERVATION_CONFLICT" {
		t.Fatalf("expected RESERVATION_CONFLICT, got %q", resp.ErrorCode)
	}
	if resp.Conflict == nil || len(resp.Conflict.ConflictsWith) != 2 {
		t.Fatalf("expected conflicting reservation ids, got %+v", resp.Conflict)
	}
}

func TestReservationHandler_Create_FetchFailureMapsTo503(t *testing.T) {
	t.Parallel()

	service := &reservationServiceStub{
		createErr: &application.FetchError{RoomID: "room-1", Err: context.DeadlineExceeded},
	}
	handler := NewReservationHandler(service, nil)

	body := reservationRequest{RoomID: "room-1", Title: "Planning", Start: "2024-03-14T01:00:00Z", End: "2024-03-14T02:00:00Z"}
	req := httptest.NewRequest(http.MethodPost, "/reservations", jsonBody(t, body))
	req = withPrincipal(req, application.Principal{UserID: "user-1"})
	recorder := httptest.NewRecorder()

	handler.Create(recorder, req)

	if recorder.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", recorder.Code)
	}
	var resp errorResponse
	decodeBody(t, recorder, &resp)
	if resp.ErrorCode != "AVAILABILITY_UNKNOWN" {
		t.Fatalf("expected AVAILABILITY_UNKNOWN, got %q", resp.ErrorCode)
	}
}

func TestReservationHandler_Create_MalformedTimestampIsFieldError(t *testing.T) {
	t.Parallel()

	service := &reservationServiceStub{}
	handler := NewReservationHandler(service, nil)

	body := reservationRequest{RoomID: "room-1", Title: "Planning", Start: "not-a-time", End: "2024-03-14T02:00:00Z"}
	req := httptest.NewRequest(http.MethodPost, "/reservations", jsonBody(t, body))
	req = withPrincipal(req, application.Principal{UserID: "user-1"})
	recorder := httptest.NewRecorder()

	handler.Create(recorder, req)

	if recorder.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", recorder.Code)
	}
	var resp errorResponse
	decodeBody(t, recorder, &resp)
	if _, ok := resp.Errors["start"]; !ok {
		t.Fatalf("expected start field error, got %+v", resp.Errors)
	}
	if len(service.created) != 0 {
		t.Fatal("service must not be called for malformed input")
	}
}

func TestReservationHandler_Cancel_ViaRouter(t *testing.T) {
	t.Parallel()

	service := &reservationServiceStub{}
	router := NewRouter(RouterConfig{Reservations: NewReservationHandler(service, nil)})

	req := httptest.NewRequest(http.MethodDelete, "/reservations/res-42", nil)
	req = withPrincipal(req, application.Principal{UserID: "user-1"})
	recorder := httptest.NewRecorder()

	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", recorder.Code)
	}
	if len(service.cancelled) != 1 || service.cancelled[0] != "res-42" {
		t.Fatalf("expected cancel of res-42, got %v", service.cancelled)
	}
}

func TestRoomHandler_Schedule_ParsesDate(t *testing.T) {
	t.Parallel()

	schedules := &roomSchedulerStub{
		reservations: []application.Reservation{{ID: "res-1", RoomID: "room-7", Status: "confirmed"}},
	}
	router := NewRouter(RouterConfig{Rooms: NewRoomHandler(&roomServiceStub{}, schedules, nil)})

	req := httptest.NewRequest(http.MethodGet, "/rooms/room-7/schedule?date=2024-03-14", nil)
	req = withPrincipal(req, application.Principal{UserID: "user-1"})
	recorder := httptest.NewRecorder()

	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d (body %s)", recorder.Code, recorder.Body.String())
	}
	if len(schedules.dates) != 1 {
		t.Fatalf("expected one schedule lookup, got %d", len(schedules.dates))
	}

	var resp roomScheduleResponse
	decodeBody(t, recorder, &resp)
	if resp.RoomID != "room-7" || len(resp.Reservations) != 1 {
		t.Fatalf("unexpected schedule payload: %+v", resp)
	}
}

func TestRoomHandler_Schedule_RejectsBadDate(t *testing.T) {
	t.Parallel()

	router := NewRouter(RouterConfig{Rooms: NewRoomHandler(&roomServiceStub{}, &roomSchedulerStub{}, nil)})

	req := httptest.NewRequest(http.MethodGet, "/rooms/room-7/schedule?date=14-03-2024", nil)
	req = withPrincipal(req, application.Principal{UserID: "user-1"})
	recorder := httptest.NewRecorder()

	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", recorder.Code)
	}
}

func TestAvailabilityHandler_Check_DefaultsEndToOneHourLater(t *testing.T) {
	t.Parallel()

	service := &availabilityServiceStub{available: true}
	handler := NewAvailabilityHandler(service, time.UTC, nil)

	req := httptest.NewRequest(http.MethodGet, "/availability?room_id=room-1&date=2024-03-14&from=09:00", nil)
	req = withPrincipal(req, application.Principal{UserID: "user-1"})
	recorder := httptest.NewRecorder()

	handler.Check(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d (body %s)", recorder.Code, recorder.Body.String())
	}
	if len(service.queries) != 1 {
		t.Fatalf("expected one availability query, got %d", len(service.queries))
	}

	query := service.queries[0]
	wantStart := time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)
	if !query.Start.Equal(wantStart) || !query.End.Equal(wantEnd) {
		t.Fatalf("expected window %v-%v, got %v-%v", wantStart, wantEnd, query.Start, query.End)
	}

	var resp availabilityResponse
	decodeBody(t, recorder, &resp)
	if !resp.Available {
		t.Fatal("expected available=true in response")
	}
}

func TestAvailabilityHandler_Check_RejectsInvalidSlot(t *testing.T) {
	t.Parallel()

	service := &availabilityServiceStub{}
	handler := NewAvailabilityHandler(service, time.UTC, nil)

	req := httptest.NewRequest(http.MethodGet, "/availability?room_id=room-1&date=2024-03-14&from=09:15", nil)
	req = withPrincipal(req, application.Principal{UserID: "user-1"})
	recorder := httptest.NewRecorder()

	handler.Check(recorder, req)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", recorder.Code)
	}
	if len(service.queries) != 0 {
		t.Fatal("service must not be queried for an off-grid slot")
	}
}

func TestAvailabilityHandler_FilterRooms(t *testing.T) {
	t.Parallel()

	service := &availabilityServiceStub{
		rooms: []application.Room{{ID: "room-1", Name: "Sakura", Active: true}},
	}
	handler := NewAvailabilityHandler(service, time.UTC, nil)

	req := httptest.NewRequest(http.MethodGet, "/availability/rooms?date=2024-03-14&from=10:00&to=11:00", nil)
	req = withPrincipal(req, application.Principal{UserID: "user-1"})
	recorder := httptest.NewRecorder()

	handler.FilterRooms(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	var resp availableRoomsResponse
	decodeBody(t, recorder, &resp)
	if len(resp.Rooms) != 1 || resp.Rooms[0].ID != "room-1" {
		t.Fatalf("unexpected rooms payload: %+v", resp.Rooms)
	}
}

func TestAvailabilityHandler_TimeSlots(t *testing.T) {
	t.Parallel()

	handler := NewAvailabilityHandler(&availabilityServiceStub{}, time.UTC, nil)

	req := httptest.NewRequest(http.MethodGet, "/timeslots", nil)
	recorder := httptest.NewRecorder()

	handler.TimeSlots(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	var resp timeSlotsResponse
	decodeBody(t, recorder, &resp)
	if len(resp.Slots) == 0 || resp.NextBookable == "" {
		t.Fatalf("unexpected timeslots payload: %+v", resp)
	}
}

func TestMaintenanceHandler_Purge_RequiresAdmin(t *testing.T) {
	t.Parallel()

	service := &maintenanceServiceStub{removed: 5}
	handler := NewMaintenanceHandler(service, nil)

	req := httptest.NewRequest(http.MethodPost, "/maintenance/reservations/purge", nil)
	req = withPrincipal(req, application.Principal{UserID: "user-1"})
	recorder := httptest.NewRecorder()

	handler.PurgeReservations(recorder, req)

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", recorder.Code)
	}
	if service.calls != 0 {
		t.Fatal("purge must not run for non-admin caller")
	}
}

func TestMaintenanceHandler_Purge_ReportsRemovedCount(t *testing.T) {
	t.Parallel()

	service := &maintenanceServiceStub{removed: 5}
	handler := NewMaintenanceHandler(service, nil)

	req := httptest.NewRequest(http.MethodPost, "/maintenance/reservations/purge", nil)
	req = withPrincipal(req, application.Principal{UserID: "admin-1", IsAdmin: true})
	recorder := httptest.NewRecorder()

	handler.PurgeReservations(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	var resp purgeResponse
	decodeBody(t, recorder, &resp)
	if resp.Removed != 5 {
		t.Fatalf("expected 5 removed, got %d", resp.Removed)
	}
}

func TestUserHandler_Register_ReturnsCreated(t *testing.T) {
	t.Parallel()

	service := &userServiceStub{
		user: application.User{ID: "user-1", Email: "alice@example.com", Role: application.RoleMember},
	}
	router := NewRouter(RouterConfig{Users: NewUserHandler(service, nil)})

	body := userRequest{Email: "alice@example.com", FirstName: "Alice", LastName: "Yamada", Password: "hunter2!"}
	req := httptest.NewRequest(http.MethodPost, "/register", jsonBody(t, body))
	recorder := httptest.NewRecorder()

	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d (body %s)", recorder.Code, recorder.Body.String())
	}
	if len(service.registered) != 1 {
		t.Fatalf("expected one registration, got %d", len(service.registered))
	}

	var resp userDTO
	decodeBody(t, recorder, &resp)
	if resp.Email != "alice@example.com" {
		t.Fatalf("unexpected user payload: %+v", resp)
	}
}

func TestUserHandler_ValidationErrorsAreLocalized(t *testing.T) {
	t.Parallel()

	service := &userServiceStub{
		err: &application.ValidationError{FieldErrors: map[string]string{"email": "email is required"}},
	}
	router := NewRouter(RouterConfig{Users: NewUserHandler(service, nil)})

	req := httptest.NewRequest(http.MethodPost, "/register", jsonBody(t, userRequest{}))
	recorder := httptest.NewRecorder()

	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", recorder.Code)
	}
	var resp errorResponse
	decodeBody(t, recorder, &resp)
	if !strings.Contains(resp.Errors["email"], "メールアドレス") {
		t.Fatalf("expected localized email error, got %q", resp.Errors["email"])
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	router := NewRouter(RouterConfig{Auth: NewAuthHandler(&authServiceStub{}, nil, nil)})

	req := httptest.NewRequest(http.MethodGet, "/sessions", nil)
	recorder := httptest.NewRecorder()

	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", recorder.Code)
	}
	if got := recorder.Header().Get("Allow"); got != http.MethodPost {
		t.Fatalf("expected Allow header POST, got %q", got)
	}
}
