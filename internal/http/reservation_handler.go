package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/roomreserve/internal/application"
)

type reservationService interface {
	CreateReservation(ctx context.Context, params application.CreateReservationParams) (application.Reservation, error)
	UpdateReservation(ctx context.Context, params application.UpdateReservationParams) (application.Reservation, error)
	CancelReservation(ctx context.Context, principal application.Principal, reservationID string) error
	GetReservation(ctx context.Context, principal application.Principal, reservationID string) (application.Reservation, error)
	ListReservations(ctx context.Context, params application.ListReservationsParams) ([]application.Reservation, error)
}

type ReservationHandler struct {
	service   reservationService
	responder responder
	logger    *slog.Logger
}

func NewReservationHandler(service reservationService, logger *slog.Logger) *ReservationHandler {
	base := defaultLogger(logger)
	return &ReservationHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ReservationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ReservationHandler", operation, attrs...)
}

func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	params := application.ListReservationsParams{
		Principal: principal,
		RoomID:    strings.TrimSpace(r.URL.Query().Get("room_id")),
		UserID:    strings.TrimSpace(r.URL.Query().Get("user_id")),
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("starts_after")); raw != "" {
		instant, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.responder.writeJSON(r.Context(), w, http.StatusBadRequest, errorResponse{Message: "starts_after の形式が不正です。"})
			return
		}
		params.StartsAfter = &instant
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("ends_before")); raw != "" {
		instant, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.responder.writeJSON(r.Context(), w, http.StatusBadRequest, errorResponse{Message: "ends_before の形式が不正です。"})
			return
		}
		params.EndsBefore = &instant
	}

	logger := h.log(r.Context(), "List", "actor_id", principal.UserID)

	reservations, err := h.service.ListReservations(r.Context(), params)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to list reservations", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]reservationDTO, 0, len(reservations))
	for _, reservation := range reservations {
		dtos = append(dtos, toReservationDTO(reservation))
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listReservationsResponse{Reservations: dtos})
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode reservation request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, vErr := req.toInput()
	if vErr != nil {
		h.responder.writeJSON(r.Context(), w, http.StatusUnprocessableEntity, errorResponse{
			Message: "入力内容に誤りがあります。",
			Errors:  localizeValidationErrors(vErr),
		})
		return
	}

	logger := h.log(r.Context(), "Create", "actor_id", principal.UserID, "room_id", input.RoomID)

	reservation, err := h.service.CreateReservation(r.Context(), application.CreateReservationParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to create reservation", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("reservation_id", reservation.ID).InfoContext(r.Context(), "reservation created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toReservationDTO(reservation))
}

func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	reservationID, ok := ReservationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(reservationID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	logger := h.log(r.Context(), "Get", "reservation_id", reservationID)

	reservation, err := h.service.GetReservation(r.Context(), principal, reservationID)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to get reservation", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReservationDTO(reservation))
}

func (h *ReservationHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	reservationID, ok := ReservationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(reservationID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode reservation request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, vErr := req.toInput()
	if vErr != nil {
		h.responder.writeJSON(r.Context(), w, http.StatusUnprocessableEntity, errorResponse{
			Message: "入力内容に誤りがあります。",
			Errors:  localizeValidationErrors(vErr),
		})
		return
	}

	logger := h.log(r.Context(), "Update", "reservation_id", reservationID, "actor_id", principal.UserID)

	reservation, err := h.service.UpdateReservation(r.Context(), application.UpdateReservationParams{
		Principal:     principal,
		ReservationID: reservationID,
		Input:         input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to update reservation", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "reservation updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReservationDTO(reservation))
}

func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	reservationID, ok := ReservationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(reservationID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	logger := h.log(r.Context(), "Cancel", "reservation_id", reservationID, "actor_id", principal.UserID)

	if err := h.service.CancelReservation(r.Context(), principal, reservationID); err != nil {
		logger.ErrorContext(r.Context(), "failed to cancel reservation", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "reservation cancelled")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type reservationRequest struct {
	RoomID      string  `json:"room_id"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Start       string  `json:"start"`
	End         string  `json:"end"`
	Attendees   string  `json:"attendees,omitempty"`
}

// toInput converts the wire form into service input. Timestamp parse failures
// surface as field errors so the caller sees them alongside the service side
// validation.
func (req reservationRequest) toInput() (application.ReservationInput, *application.ValidationError) {
	input := application.ReservationInput{
		RoomID:      strings.TrimSpace(req.RoomID),
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Attendees:   req.Attendees,
	}

	fieldErrors := map[string]string{}
	if raw := strings.TrimSpace(req.Start); raw == "" {
		fieldErrors["start"] = "start is required"
	} else if instant, err := time.Parse(time.RFC3339, raw); err != nil {
		fieldErrors["start"] = "start must be on a 30-minute boundary within business hours"
	} else {
		input.Start = instant
	}
	if raw := strings.TrimSpace(req.End); raw == "" {
		fieldErrors["end"] = "end is required"
	} else if instant, err := time.Parse(time.RFC3339, raw); err != nil {
		fieldErrors["end"] = "end must be on a 30-minute boundary within business hours"
	} else {
		input.End = instant
	}

	if len(fieldErrors) > 0 {
		return application.ReservationInput{}, &application.ValidationError{FieldErrors: fieldErrors}
	}
	return input, nil
}

type reservationDTO struct {
	ID          string   `json:"id"`
	RoomID      string   `json:"room_id"`
	UserID      string   `json:"user_id"`
	Title       string   `json:"title"`
	Description *string  `json:"description,omitempty"`
	Start       string   `json:"start"`
	End         string   `json:"end"`
	Attendees   []string `json:"attendees,omitempty"`
	Status      string   `json:"status"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

type listReservationsResponse struct {
	Reservations []reservationDTO `json:"reservations"`
}

func toReservationDTO(reservation application.Reservation) reservationDTO {
	return reservationDTO{
		ID:          reservation.ID,
		RoomID:      reservation.RoomID,
		UserID:      reservation.UserID,
		Title:       reservation.Title,
		Description: reservation.Description,
		Start:       reservation.Start.UTC().Format(time.RFC3339Nano),
		End:         reservation.End.UTC().Format(time.RFC3339Nano),
		Attendees:   reservation.Attendees,
		Status:      reservation.Status,
		CreatedAt:   reservation.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   reservation.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}
