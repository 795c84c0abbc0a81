package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/roomreserve/internal/application"
)

type maintenanceService interface {
	PurgeOldReservations(ctx context.Context) (int64, error)
}

type MaintenanceHandler struct {
	service   maintenanceService
	responder responder
	logger    *slog.Logger
}

func NewMaintenanceHandler(service maintenanceService, logger *slog.Logger) *MaintenanceHandler {
	base := defaultLogger(logger)
	return &MaintenanceHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *MaintenanceHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "MaintenanceHandler", operation, attrs...)
}

// PurgeReservations removes reservations whose retention window has lapsed.
// Administrator only.
func (h *MaintenanceHandler) PurgeReservations(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok || !principal.IsAdmin {
		h.log(r.Context(), "PurgeReservations", "error_kind", "forbidden").ErrorContext(r.Context(), "non-administrator attempted reservation purge")
		h.responder.writeJSON(r.Context(), w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "この操作を実行する権限がありません。",
		})
		return
	}

	logger := h.log(r.Context(), "PurgeReservations", "actor_id", principal.UserID)

	removed, err := h.service.PurgeOldReservations(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "reservation purge failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("removed", removed).InfoContext(r.Context(), "old reservations purged")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, purgeResponse{Removed: removed})
}

type purgeResponse struct {
	Removed int64 `json:"removed"`
}
