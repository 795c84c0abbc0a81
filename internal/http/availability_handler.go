package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/roomreserve/internal/application"
	"github.com/example/roomreserve/internal/booking"
)

type availabilityService interface {
	CheckAvailability(ctx context.Context, query application.AvailabilityQuery) (bool, error)
	FilterAvailableRooms(ctx context.Context, principal application.Principal, start, end time.Time) ([]application.Room, error)
	TimeSlots() []string
	NextBookableSlot() string
}

type AvailabilityHandler struct {
	service   availabilityService
	location  *time.Location
	responder responder
	logger    *slog.Logger
}

// NewAvailabilityHandler builds the handler. The location interprets the
// date and slot labels of availability queries and must match the zone the
// reservation service was configured with.
func NewAvailabilityHandler(service availabilityService, location *time.Location, logger *slog.Logger) *AvailabilityHandler {
	if location == nil {
		location = time.FixedZone("JST", 9*60*60)
	}
	base := defaultLogger(logger)
	return &AvailabilityHandler{service: service, location: location, responder: newResponder(base), logger: base}
}

func (h *AvailabilityHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AvailabilityHandler", operation, attrs...)
}

// Check answers whether one room is free for the window described by a date
// plus grid slot labels. An omitted "to" defaults to one hour after "from",
// clamped to business hours.
func (h *AvailabilityHandler) Check(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if _, ok := PrincipalFromContext(r.Context()); !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	roomID := strings.TrimSpace(r.URL.Query().Get("room_id"))
	if roomID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoomID)
		return
	}

	window, errResp := h.parseWindow(r)
	if errResp != nil {
		h.responder.writeJSON(r.Context(), w, http.StatusBadRequest, *errResp)
		return
	}

	logger := h.log(r.Context(), "Check", "room_id", roomID)

	available, err := h.service.CheckAvailability(r.Context(), application.AvailabilityQuery{
		RoomID: roomID,
		Start:  window.start,
		End:    window.end,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "availability check failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, availabilityResponse{
		RoomID:    roomID,
		Start:     window.start.UTC().Format(time.RFC3339Nano),
		End:       window.end.UTC().Format(time.RFC3339Nano),
		Available: available,
	})
}

// FilterRooms lists active rooms free for the requested window.
func (h *AvailabilityHandler) FilterRooms(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	window, errResp := h.parseWindow(r)
	if errResp != nil {
		h.responder.writeJSON(r.Context(), w, http.StatusBadRequest, *errResp)
		return
	}

	logger := h.log(r.Context(), "FilterRooms", "actor_id", principal.UserID)

	rooms, err := h.service.FilterAvailableRooms(r.Context(), principal, window.start, window.end)
	if err != nil {
		logger.ErrorContext(r.Context(), "room availability filter failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]roomDTO, 0, len(rooms))
	for _, room := range rooms {
		dtos = append(dtos, toRoomDTO(room))
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, availableRoomsResponse{
		Start: window.start.UTC().Format(time.RFC3339Nano),
		End:   window.end.UTC().Format(time.RFC3339Nano),
		Rooms: dtos,
	})
}

// TimeSlots exposes the booking grid and the default slot for a new form.
func (h *AvailabilityHandler) TimeSlots(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, timeSlotsResponse{
		Slots:        h.service.TimeSlots(),
		NextBookable: h.service.NextBookableSlot(),
	})
}

type requestWindow struct {
	start time.Time
	end   time.Time
}

func (h *AvailabilityHandler) parseWindow(r *http.Request) (requestWindow, *errorResponse) {
	query := r.URL.Query()

	rawDate := strings.TrimSpace(query.Get("date"))
	date, err := time.ParseInLocation("2006-01-02", rawDate, h.location)
	if err != nil {
		return requestWindow{}, &errorResponse{Message: "date は YYYY-MM-DD 形式で指定してください。"}
	}

	from := strings.TrimSpace(query.Get("from"))
	start, err := booking.SlotInstant(date, from, h.location)
	if err != nil {
		return requestWindow{}, &errorResponse{Message: "from は HH:MM 形式の時間枠で指定してください。"}
	}

	to := strings.TrimSpace(query.Get("to"))
	if to == "" {
		to, err = booking.DefaultEnd(from)
		if err != nil {
			return requestWindow{}, &errorResponse{Message: "from は HH:MM 形式の時間枠で指定してください。"}
		}
	}
	end, err := booking.SlotInstant(date, to, h.location)
	if err != nil {
		return requestWindow{}, &errorResponse{Message: "to は HH:MM 形式の時間枠で指定してください。"}
	}

	if !start.Before(end) {
		return requestWindow{}, &errorResponse{Message: "to は from より後の時間枠を指定してください。"}
	}

	return requestWindow{start: start, end: end}, nil
}

type availabilityResponse struct {
	RoomID    string `json:"room_id"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Available bool   `json:"available"`
}

type availableRoomsResponse struct {
	Start string    `json:"start"`
	End   string    `json:"end"`
	Rooms []roomDTO `json:"rooms"`
}

type timeSlotsResponse struct {
	Slots        []string `json:"slots"`
	NextBookable string   `json:"next_bookable"`
}
