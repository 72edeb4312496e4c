package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pribylovaa/articles-cms/internal/app"
	"github.com/pribylovaa/articles-cms/internal/validation"
)

// Handlers агрегирует зависимости (сторы приложения).
type Handlers struct {
	App *app.App
}

func New(a *app.App) *Handlers {
	return &Handlers{App: a}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(value); err != nil {
		return validation.FieldErrors{"body": "malformed JSON body"}
	}
	return nil
}

// intParam — положительное целое из query; пустое значение — def.
func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, validation.FieldErrors{name: "must be a positive integer"}
	}

	return n, nil
}

func boolParam(r *http.Request, name string) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return false, nil
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, validation.FieldErrors{name: "must be a boolean"}
	}

	return b, nil
}
