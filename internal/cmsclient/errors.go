package cmsclient

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrTransport — сетевая/транспортная ошибка: запрос не дошёл или ответ не прочитан.
	ErrTransport = errors.New("transport failure")
	// ErrMalformedResponse — 2xx, но тело не соответствует ожидаемому конверту
	// (нет data или meta.pagination, битый JSON).
	ErrMalformedResponse = errors.New("invalid API response structure")
)

// StatusError — ответ CMS с не-2xx статусом.
// Message — текст из тела (error.message или message), если сервер его прислал.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("cms status %d", e.Status)
	}

	return fmt.Sprintf("cms status %d: %s", e.Status, e.Message)
}

// AsStatus — удобная обёртка над errors.As.
func AsStatus(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}

	return nil, false
}

// errorBody — форма тела ошибки CMS:
//
//	{"data": null, "error": {"status": 400, "name": "...", "message": "..."}}
//
// Некоторые прокси отдают плоское {"message": "..."}.
type errorBody struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
	Message string `json:"message"`
}

func parseErrorMessage(b []byte) string {
	var body errorBody
	if err := json.Unmarshal(b, &body); err != nil {
		return ""
	}

	if body.Error != nil && body.Error.Message != "" {
		return body.Error.Message
	}

	return body.Message
}
