// errors стандартизирует ответы об ошибках HTTP-слоя cms-console.
// На вход он принимает ошибку стора или клиента CMS, а на выход даёт:
//   - корректный HTTP-статус;
//   - краткое безопасное message без утечки деталей;
//   - для ошибок валидации — сообщения по полям формы.
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/pribylovaa/articles-cms/internal/cmsclient"
	"github.com/pribylovaa/articles-cms/internal/store"
	"github.com/pribylovaa/articles-cms/internal/validation"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// APIError — единый формат для фронта.
// Code — короткий стабильный код для машиночитаемой обработки на FE.
// Message — безопасное человекочитаемое описание.
// Fields — ошибки формы по полям (только для invalid_argument).
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует ошибку в HTTP-статус и унифицированный ответ.
//
// Поведение:
//   - err == nil — программная ошибка вызова: 500/internal;
//   - валидация формы — 400 с полями;
//   - нет сессии / неверные учётные данные — 401;
//   - ответ отброшен более поздним запросом — 409;
//   - отмена клиентом — 499, дедлайн — 504;
//   - не-2xx от CMS — класс статуса CMS (5xx — 502);
//   - битый конверт CMS — 502, транспорт — 503;
//   - прочее — 500/internal.
func ToHTTP(err error) (int, ErrorResponse) {
	if err == nil {
		return internal()
	}

	if fields, ok := validation.AsFields(err); ok {
		return http.StatusBadRequest, ErrorResponse{Error: APIError{
			Code:    "invalid_argument",
			Message: "invalid argument",
			Fields:  fields,
		}}
	}

	httpStatus, code, msg := base(err)
	if httpStatus == 0 {
		return internal()
	}

	return httpStatus, ErrorResponse{Error: APIError{Code: code, Message: msg}}
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func base(err error) (int, string, string) {
	switch {
	case stderrors.Is(err, store.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials", validation.MsgCredentialsIncorrect
	case stderrors.Is(err, store.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthenticated", "unauthenticated"
	case stderrors.Is(err, store.ErrSuperseded):
		return http.StatusConflict, "superseded", "superseded by a newer request"
	case stderrors.Is(err, context.Canceled):
		return StatusClientClosedRequest, "canceled", "canceled"
	case stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded"
	}

	if se, ok := cmsclient.AsStatus(err); ok {
		return fromStatus(se)
	}

	switch {
	case stderrors.Is(err, cmsclient.ErrMalformedResponse):
		return http.StatusBadGateway, "bad_gateway", "invalid API response structure"
	case stderrors.Is(err, cmsclient.ErrTransport):
		return http.StatusServiceUnavailable, "unavailable", "cms unavailable"
	}

	return 0, "", ""
}

// fromStatus — маппинг статуса CMS. 4xx прокидываются с текстом сервера
// (его и так видит пользователь в уведомлении), 5xx сворачиваются в 502.
func fromStatus(se *cmsclient.StatusError) (int, string, string) {
	msg := func(fallback string) string {
		if se.Message != "" {
			return se.Message
		}
		return fallback
	}

	switch se.Status {
	case http.StatusBadRequest:
		return http.StatusBadRequest, "invalid_argument", msg("invalid argument")
	case http.StatusUnauthorized:
		return http.StatusUnauthorized, "unauthenticated", msg("unauthenticated")
	case http.StatusForbidden:
		return http.StatusForbidden, "permission_denied", msg("permission denied")
	case http.StatusNotFound:
		return http.StatusNotFound, "not_found", msg("not found")
	case http.StatusConflict:
		return http.StatusConflict, "already_exists", msg("already exists")
	case http.StatusTooManyRequests:
		return http.StatusTooManyRequests, "resource_exhausted", "resource exhausted"
	}

	if se.Status >= 500 {
		return http.StatusBadGateway, "bad_gateway", "cms error"
	}

	return http.StatusBadRequest, "invalid_argument", msg("invalid argument")
}

func internal() (int, ErrorResponse) {
	return http.StatusInternalServerError, ErrorResponse{Error: APIError{
		Code:    "internal",
		Message: "internal error",
	}}
}
