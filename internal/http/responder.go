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

var (
	errBadRequestBody       = errors.New("無効なリクエスト形式です。")
	errInvalidReservationID = errors.New("無効な予約 ID です。")
	errInvalidRoomID        = errors.New("無効な会議室 ID です。")
	errInvalidUserID        = errors.New("無効なユーザー ID です。")
	errMissingSessionToken  = errors.New("認証トークンを指定してください")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "この操作を実行する権限がありません。",
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "指定されたリソースが見つかりません。"})
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{Message: "同じ内容のリソースが既に存在します。"})
	case errors.Is(err, application.ErrRoomInactive):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "ROOM_INACTIVE",
			Message:   "この会議室は現在利用できません。",
		})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				Message: "入力内容に誤りがあります。",
				Errors:  localizeValidationErrors(vErr),
			})
			return
		}

		var cErr *application.ConflictError
		if errors.As(err, &cErr) {
			r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
				ErrorCode: "RESERVATION_CONFLICT",
				Message:   "指定された時間帯は既に予約されています。",
				Conflict:  toConflictDTO(cErr),
			})
			return
		}

		var fErr *application.FetchError
		if errors.As(err, &fErr) {
			r.writeJSON(ctx, w, http.StatusServiceUnavailable, errorResponse{
				ErrorCode: "AVAILABILITY_UNKNOWN",
				Message:   "空き状況を確認できませんでした。時間をおいて再度お試しください。",
			})
			return
		}

		var cmErr *application.CommitError
		if errors.As(err, &cmErr) {
			r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{
				ErrorCode: "RESERVATION_COMMIT_FAILED",
				Message:   "予約の保存に失敗しました。予約は確定していません。",
			})
			return
		}

		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "サーバー内部でエラーが発生しました。"})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "リクエスト内容が正しくありません。"
	case http.StatusUnauthorized:
		return "認証が必要です。"
	case http.StatusForbidden:
		return "この操作を実行する権限がありません。"
	case http.StatusNotFound:
		return "指定されたリソースが見つかりません。"
	case http.StatusConflict:
		return "要求はリソースの現在の状態と競合しています。"
	case http.StatusUnprocessableEntity:
		return "入力内容に誤りがあります。"
	default:
		return "サーバー内部でエラーが発生しました。"
	}
}

func localizeValidationErrors(vErr *application.ValidationError) map[string]string {
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return nil
	}

	translated := make(map[string]string, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		translated[field] = translateValidationMessage(msg)
	}
	return translated
}

func translateValidationMessage(message string) string {
	switch message {
	case "email is required":
		return "メールアドレスは必須です。"
	case "email is invalid":
		return "メールアドレスの形式が不正です。"
	case "first name is required":
		return "名は必須です。"
	case "last name is required":
		return "姓は必須です。"
	case "role must be member or admin":
		return "ロールの指定が不正です。"
	case "password must be at least 8 characters":
		return "パスワードは 8 文字以上で指定してください。"
	case "name is required":
		return "会議室名は必須です。"
	case "location is required":
		return "所在地は必須です。"
	case "capacity must be positive":
		return "収容人数は正の整数で指定してください。"
	case "title is required":
		return "タイトルは必須です。"
	case "room is required":
		return "会議室を指定してください。"
	case "start is required":
		return "開始日時は必須です。"
	case "end is required":
		return "終了日時は必須です。"
	case "start must be on a 30-minute boundary within business hours":
		return "開始日時は営業時間内の 30 分刻みで指定してください。"
	case "end must be on a 30-minute boundary within business hours":
		return "終了日時は営業時間内の 30 分刻みで指定してください。"
	case "start must be before end":
		return "終了日時は開始日時より後である必要があります。"
	case "room does not exist":
		return "指定された会議室は存在しません。"
	case "related records are missing":
		return "関連するレコードが見つかりません。"
	default:
		return message
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
	Conflict  *conflictDTO      `json:"conflict,omitempty"`
}

type conflictDTO struct {
	RoomID        string   `json:"room_id"`
	Start         string   `json:"start"`
	End           string   `json:"end"`
	ConflictsWith []string `json:"conflicts_with,omitempty"`
}

func toConflictDTO(cErr *application.ConflictError) *conflictDTO {
	if cErr == nil {
		return nil
	}
	return &conflictDTO{
		RoomID:        cErr.RoomID,
		Start:         cErr.Start.UTC().Format(time.RFC3339Nano),
		End:           cErr.End.UTC().Format(time.RFC3339Nano),
		ConflictsWith: append([]string(nil), cErr.ConflictsWith...),
	}
}
