package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/room-reservation/internal/application"
	"github.com/example/room-reservation/internal/logging"
	"github.com/example/room-reservation/internal/recurrence"
)

var (
	errBadRequestBody       = errors.New("無効なリクエスト形式です。")
	errInvalidUserID        = errors.New("無効なユーザー ID です。")
	errInvalidRoomID        = errors.New("無効な会議室 ID です。")
	errInvalidReservationID = errors.New("無効な予約 ID です。")
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

	var cErr *application.ConflictError
	var vErr *application.ValidationError

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
	case errors.Is(err, application.ErrInvalidTransition):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{Message: "指定されたステータスへは変更できません。"})
	case errors.As(err, &cErr):
		r.writeJSON(ctx, w, http.StatusConflict, conflictResponse{
			ErrorCode: "RESERVATION_CONFLICT",
			Message: fmt.Sprintf("%s の %s〜%s は既に予約されています。",
				cErr.Occurrence.Date, cErr.Occurrence.Start, cErr.Occurrence.End),
			Conflict: conflictDTO{
				Date:                cErr.Occurrence.Date.String(),
				StartTime:           cErr.Occurrence.Start.String(),
				EndTime:             cErr.Occurrence.End.String(),
				BlockingReservation: cErr.Blocking.ID,
				BlockingStartTime:   cErr.Blocking.Start.String(),
				BlockingEndTime:     cErr.Blocking.End.String(),
				BlockingStatus:      string(cErr.Blocking.Status),
				BlockingRequesterID: cErr.Blocking.RequesterID,
			},
		})
	case isRecurrenceError(err):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			Message: localizeRecurrenceError(err),
		})
	case errors.As(err, &vErr):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			Message: "入力内容に誤りがあります。",
			Errors:  localizeValidationErrors(vErr),
		})
	case errors.Is(err, application.ErrStorageUnavailable):
		r.writeJSON(ctx, w, http.StatusServiceUnavailable, errorResponse{
			Message: "データベースが一時的に利用できません。しばらくしてから再試行してください。",
		})
	default:
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "サーバー内部でエラーが発生しました。"})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := logging.FromContext(ctx); logger != nil {
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

func isRecurrenceError(err error) bool {
	return errors.Is(err, recurrence.ErrInvalidWindow) ||
		errors.Is(err, recurrence.ErrInvalidRange) ||
		errors.Is(err, recurrence.ErrNoEnabledDay) ||
		errors.Is(err, recurrence.ErrRangeTooLarge) ||
		errors.Is(err, recurrence.ErrInvalidKind)
}

func localizeRecurrenceError(err error) string {
	switch {
	case errors.Is(err, recurrence.ErrInvalidWindow):
		return "開始時刻は終了時刻より前である必要があります。"
	case errors.Is(err, recurrence.ErrInvalidRange):
		return "繰り返しの終了日は開始日以降である必要があります。"
	case errors.Is(err, recurrence.ErrNoEnabledDay):
		return "繰り返しスケジュールに有効な曜日がありません。"
	case errors.Is(err, recurrence.ErrRangeTooLarge):
		return "繰り返しの期間が長すぎます。"
	default:
		return "繰り返しの指定が正しくありません。"
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
	case "display name is required":
		return "表示名は必須です。"
	case "password is required":
		return "パスワードは必須です。"
	case "password must be at least 8 characters":
		return "パスワードは 8 文字以上で指定してください。"
	case "name is required":
		return "会議室名は必須です。"
	case "capacity must be positive":
		return "収容人数は正の整数で指定してください。"
	case "title is required":
		return "タイトルは必須です。"
	case "room is required":
		return "会議室を指定してください。"
	case "room does not exist":
		return "指定された会議室は存在しません。"
	case "date is required":
		return "日付は必須です。"
	case "requester is required":
		return "予約者を指定してください。"
	case "requester does not exist":
		return "指定された予約者は存在しません。"
	case "status must be approved or rejected":
		return "ステータスは approved または rejected を指定してください。"
	default:
		return message
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}

type conflictDTO struct {
	Date                string `json:"date"`
	StartTime           string `json:"start_time"`
	EndTime             string `json:"end_time"`
	BlockingReservation string `json:"blocking_reservation_id"`
	BlockingStartTime   string `json:"blocking_start_time"`
	BlockingEndTime     string `json:"blocking_end_time"`
	BlockingStatus      string `json:"blocking_status"`
	BlockingRequesterID string `json:"blocking_requester_id"`
}

type conflictResponse struct {
	ErrorCode string      `json:"error_code"`
	Message   string      `json:"message"`
	Conflict  conflictDTO `json:"conflict"`
}
