package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/roomreserve/internal/application"
)

type authService interface {
	Authenticate(ctx context.Context, params application.AuthenticateParams) (application.AuthenticateResult, error)
	RefreshSession(ctx context.Context, params application.RefreshSessionParams) (application.RefreshSessionResult, error)
	RevokeSession(ctx context.Context, token string) error
}

type reservationResumer interface {
	ResumePendingReservation(ctx context.Context, principal application.Principal, pending application.PendingReservation) (application.Reservation, error)
}

type AuthHandler struct {
	service      authService
	reservations reservationResumer
	responder    responder
	logger       *slog.Logger
}

func NewAuthHandler(service authService, reservations reservationResumer, logger *slog.Logger) *AuthHandler {
	base := defaultLogger(logger)
	return &AuthHandler{service: service, reservations: reservations, responder: newResponder(base), logger: base}
}

func (h *AuthHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AuthHandler", operation, attrs...)
}

func (h *AuthHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "CreateSession", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode session request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	logger := h.log(r.Context(), "CreateSession", "email", email)

	result, err := h.service.Authenticate(r.Context(), application.AuthenticateParams{
		Email:    email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, application.ErrInvalidCredentials) {
			logger.ErrorContext(r.Context(), "authentication rejected", "error", err, "error_kind", application.ErrorKind(err))
			h.responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{
				ErrorCode: "AUTH_INVALID_CREDENTIALS",
				Message:   "メールアドレスまたはパスワードが正しくありません",
			})
			return
		}
		if errors.Is(err, application.ErrAccountDisabled) {
			logger.ErrorContext(r.Context(), "authentication rejected", "error", err, "error_kind", application.ErrorKind(err))
			h.responder.writeJSON(r.Context(), w, http.StatusForbidden, errorResponse{
				ErrorCode: "AUTH_ACCOUNT_DISABLED",
				Message:   "このアカウントはまだ有効化されていません。",
			})
			return
		}
		logger.ErrorContext(r.Context(), "authentication failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	setSessionCookie(w, result.Session.Token, result.Session.ExpiresAt)
	w.Header().Set("X-Session-Token", result.Session.Token)

	logger.With("user_id", result.User.ID).InfoContext(r.Context(), "user authenticated")

	resp := loginResponse{
		Token:     result.Session.Token,
		ExpiresAt: result.Session.ExpiresAt.UTC().Format(time.RFC3339Nano),
	}

	// A booking form filled in before sign-in rides along on the login
	// request. The draft is replayed as a regular create, so it is
	// re-validated and re-checked against current availability.
	if req.PendingReservation != nil && h.reservations != nil {
		principal := application.Principal{UserID: result.User.ID, IsAdmin: result.User.IsAdmin()}
		reservation, resumeErr := h.resumePending(r.Context(), logger, principal, *req.PendingReservation)
		if resumeErr != nil {
			resp.PendingOutcome = resumeErr
		} else {
			dto := toReservationDTO(reservation)
			resp.Reservation = &dto
		}
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, resp)
}

func (h *AuthHandler) resumePending(ctx context.Context, logger *slog.Logger, principal application.Principal, req pendingReservationRequest) (application.Reservation, *errorResponse) {
	input, vErr := req.Draft.toInput()
	if vErr != nil {
		return application.Reservation{}, &errorResponse{
			Message: "入力内容に誤りがあります。",
			Errors:  localizeValidationErrors(vErr),
		}
	}

	savedAt, _ := time.Parse(time.RFC3339Nano, req.SavedAt)
	reservation, err := h.reservations.ResumePendingReservation(ctx, principal, application.PendingReservation{
		Input:   input,
		SavedAt: savedAt,
	})
	if err != nil {
		logger.ErrorContext(ctx, "pending reservation replay failed", "error", err, "error_kind", application.ErrorKind(err))
		return application.Reservation{}, pendingOutcomeFromError(err)
	}

	logger.With("reservation_id", reservation.ID).InfoContext(ctx, "pending reservation replayed")
	return reservation, nil
}

// pendingOutcomeFromError reduces a replay failure to an inline error payload.
// Login itself still succeeds; only the draft is reported back as rejected.
func pendingOutcomeFromError(err error) *errorResponse {
	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		return &errorResponse{
			Message: "入力内容に誤りがあります。",
			Errors:  localizeValidationErrors(vErr),
		}
	}

	var cErr *application.ConflictError
	if errors.As(err, &cErr) {
		return &errorResponse{
			ErrorCode: "RESERVATION_CONFLICT",
			Message:   "指定された時間帯は既に予約されています。",
			Conflict:  toConflictDTO(cErr),
		}
	}

	if errors.Is(err, application.ErrRoomInactive) {
		return &errorResponse{
			ErrorCode: "ROOM_INACTIVE",
			Message:   "この会議室は現在利用できません。",
		}
	}

	return &errorResponse{Message: "予約の保存に失敗しました。予約は確定していません。"}
}

func (h *AuthHandler) RefreshSession(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	token := extractTokenFromRequest(r)
	if token == "" {
		h.log(r.Context(), "RefreshSession", "error_kind", "unauthorized").ErrorContext(r.Context(), "missing session token for refresh")
		h.responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_SESSION_EXPIRED",
			Message:   errMissingSessionToken.Error(),
		})
		return
	}

	logger := h.log(r.Context(), "RefreshSession", "token_present", true)

	result, err := h.service.RefreshSession(r.Context(), application.RefreshSessionParams{Token: token})
	if err != nil {
		switch {
		case errors.Is(err, application.ErrSessionExpired):
			logger.ErrorContext(r.Context(), "refresh rejected", "error", err, "error_kind", application.ErrorKind(err))
			h.responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{
				ErrorCode: "AUTH_SESSION_EXPIRED",
				Message:   "セッションの有効期限が切れました。再度ログインしてください。",
			})
		case errors.Is(err, application.ErrSessionRevoked):
			logger.ErrorContext(r.Context(), "refresh rejected", "error", err, "error_kind", application.ErrorKind(err))
			h.responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{
				ErrorCode: "AUTH_SESSION_REVOKED",
				Message:   "セッションは失効しています。再度ログインしてください。",
			})
		default:
			logger.ErrorContext(r.Context(), "refresh failed", "error", err, "error_kind", application.ErrorKind(err))
			h.responder.handleServiceError(r.Context(), w, err)
		}
		return
	}

	setSessionCookie(w, result.Session.Token, result.Session.ExpiresAt)
	w.Header().Set("X-Session-Token", result.Session.Token)

	logger.InfoContext(r.Context(), "session refreshed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, loginResponse{
		Token:     result.Session.Token,
		ExpiresAt: result.Session.ExpiresAt.UTC().Format(time.RFC3339Nano),
	})
}

func (h *AuthHandler) DeleteCurrentSession(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	token := extractTokenFromRequest(r)
	if token == "" {
		h.log(r.Context(), "DeleteCurrentSession", "error_kind", "unauthorized").ErrorContext(r.Context(), "missing session token for current session revocation")
		h.responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_SESSION_EXPIRED",
			Message:   errMissingSessionToken.Error(),
		})
		return
	}

	logger := h.log(r.Context(), "DeleteCurrentSession", "token_present", true)

	if err := h.service.RevokeSession(r.Context(), token); err != nil {
		logger.ErrorContext(r.Context(), "failed to revoke session", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	clearSessionCookie(w)
	logger.InfoContext(r.Context(), "session revoked for current principal")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *AuthHandler) DeleteSession(w http.ResponseWriter, r *http.Request, token string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok || !principal.IsAdmin {
		h.log(r.Context(), "DeleteSession", "error_kind", "forbidden").ErrorContext(r.Context(), "non-administrator attempted session revocation")
		h.responder.writeJSON(r.Context(), w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "この操作を実行する権限がありません。",
		})
		return
	}

	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		h.log(r.Context(), "DeleteSession", "error_kind", "bad_request").ErrorContext(r.Context(), "empty token provided for admin revocation")
		h.responder.writeJSON(r.Context(), w, http.StatusBadRequest, errorResponse{Message: "失効対象のトークンを指定してください。"})
		return
	}

	logger := h.log(r.Context(), "DeleteSession", "token_present", true, "actor_id", principal.UserID)

	if err := h.service.RevokeSession(r.Context(), trimmed); err != nil {
		logger.ErrorContext(r.Context(), "failed to revoke session", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "session revoked by administrator")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type loginRequest struct {
	Email              string                     `json:"email"`
	Password           string                     `json:"password"`
	PendingReservation *pendingReservationRequest `json:"pending_reservation,omitempty"`
}

type pendingReservationRequest struct {
	Draft   reservationRequest `json:"draft"`
	SavedAt string             `json:"saved_at,omitempty"`
}

type loginResponse struct {
	Token          string          `json:"token"`
	ExpiresAt      string          `json:"expires_at"`
	Reservation    *reservationDTO `json:"reservation,omitempty"`
	PendingOutcome *errorResponse  `json:"pending_outcome,omitempty"`
}

func setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	cookie := &http.Cookie{
		Name:     "session_token",
		Value:    token,
		HttpOnly: true,
		Secure:   true,
		Path:     "/",
	}
	if !expires.IsZero() {
		cookie.Expires = expires.UTC()
	}
	http.SetCookie(w, cookie)
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "session_token",
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
	})
}

func extractTokenFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		const prefix = "Bearer "
		if strings.HasPrefix(header, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(header, prefix))
		}
	}
	if cookie, err := r.Cookie("session_token"); err == nil {
		return cookie.Value
	}
	return ""
}
