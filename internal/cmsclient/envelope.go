package cmsclient

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pribylovaa/articles-cms/internal/models"
)

// List — конверт списочного ответа:
//
//	{"data": [...], "meta": {"pagination": {"page", "pageSize", "pageCount", "total"}}}
//
// Отсутствие data или meta.pagination — ErrMalformedResponse.
type List[T any] struct {
	Data       []T
	Pagination models.Pagination
}

func (l *List[T]) UnmarshalJSON(b []byte) error {
	var raw struct {
		Data json.RawMessage `json:"data"`
		Meta *struct {
			Pagination *models.Pagination `json:"pagination"`
		} `json:"meta"`
	}

	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if absent(raw.Data) {
		return fmt.Errorf("%w: missing data", ErrMalformedResponse)
	}

	if raw.Meta == nil || raw.Meta.Pagination == nil {
		return fmt.Errorf("%w: missing meta.pagination", ErrMalformedResponse)
	}

	data := []T{}
	if err := json.Unmarshal(raw.Data, &data); err != nil {
		return fmt.Errorf("%w: data: %v", ErrMalformedResponse, err)
	}

	l.Data = data
	l.Pagination = *raw.Meta.Pagination

	return nil
}

// Item — конверт detail/write-ответа: {"data": {...}}.
type Item[T any] struct {
	Data T
}

func (i *Item[T]) UnmarshalJSON(b []byte) error {
	var raw struct {
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if absent(raw.Data) {
		return fmt.Errorf("%w: missing data", ErrMalformedResponse)
	}

	if err := json.Unmarshal(raw.Data, &i.Data); err != nil {
		return fmt.Errorf("%w: data: %v", ErrMalformedResponse, err)
	}

	return nil
}

// envelope — тело write-запроса: {"data": {...}}.
type envelope struct {
	Data any `json:"data"`
}

func absent(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
