// store — сторы состояния клиента CMS: статьи, категории, комментарии, сессия.
//
// Каждый стор — сконструированный сервис: состояние читается снапшотом,
// меняется только действиями. Ошибки транспорта, не-2xx и битого конверта
// превращаются на границе стора в строку состояния и уведомление.
// Чтения при ошибке сбрасывают коллекцию, записи сохраняют прежнее состояние.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pribylovaa/articles-cms/internal/cmsclient"
	"github.com/pribylovaa/articles-cms/internal/models"
	"github.com/pribylovaa/articles-cms/internal/session"
)

var (
	// ErrUnauthorized — действие требует токена, а сессия анонимная.
	ErrUnauthorized = errors.New("not signed in")
	// ErrSuperseded — ответ пришёл после более позднего запроса того же ключа
	// и отброшен; состояние не изменено.
	ErrSuperseded = errors.New("superseded by a newer request")
)

// Значения по умолчанию для списков.
const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

// Doer — то, что сторам нужно от HTTP-клиента CMS.
type Doer interface {
	Do(ctx context.Context, req cmsclient.Request, out any) error
}

// Tokens — источник сессионного токена; "" — анонимный режим.
type Tokens interface {
	Token(ctx context.Context) string
}

// Sessions — токен плюс его запись/удаление (нужно только Auth-стору).
type Sessions interface {
	Tokens
	Set(ctx context.Context, raw string) error
	Clear(ctx context.Context) error
}

var _ Sessions = (*session.Session)(nil)

// Status — состояние одной операции стора.
type Status struct {
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

type opStatus struct {
	inflight int
	err      string
}

// Tracker — статус по операциям и последовательность запросов по ключам.
//
// Статус ведётся отдельно для каждой операции, поэтому параллельные чтения
// и записи не затирают друг другу loading/error. Агрегаты Loading/Error
// повторяют единый флаг стора: «хоть что-то в полёте» и «последняя ошибка».
type Tracker struct {
	mu   sync.Mutex
	ops  map[string]*opStatus
	last string
	seq  map[string]uint64
}

func NewTracker() *Tracker {
	return &Tracker{
		ops: make(map[string]*opStatus),
		seq: make(map[string]uint64),
	}
}

// Begin отмечает старт операции и сбрасывает её прошлую ошибку.
func (t *Tracker) Begin(op string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.op(op)
	st.inflight++
	st.err = ""
}

// End завершает операцию; msg == "" — успех.
func (t *Tracker) End(op, msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.op(op)
	if st.inflight > 0 {
		st.inflight--
	}
	st.err = msg
	t.last = msg
}

// Drop снимает операцию с учёта без результата: ответ отброшен как устаревший,
// поэтому ни ошибка операции, ни агрегат Error не меняются.
func (t *Tracker) Drop(op string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if st := t.op(op); st.inflight > 0 {
		st.inflight--
	}
}

// Issue выдаёт следующий токен для ключа. Ответ применяется, только если
// его токен всё ещё последний выданный (см. Current).
func (t *Tracker) Issue(key string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq[key]++
	return t.seq[key]
}

// Current — token последний выданный для key.
func (t *Tracker) Current(key string, token uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.seq[key] == token
}

// seqOf — последний выданный токен ключа (0 — ещё не выдавался).
func (t *Tracker) seqOf(key string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.seq[key]
}

// Loading — есть ли операции в полёте.
func (t *Tracker) Loading() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, st := range t.ops {
		if st.inflight > 0 {
			return true
		}
	}
	return false
}

// Error — сообщение последней завершившейся операции ("" — успех).
func (t *Tracker) Error() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.last
}

// Ops — копия статусов операций.
func (t *Tracker) Ops() map[string]Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]Status, len(t.ops))
	for name, st := range t.ops {
		out[name] = Status{Loading: st.inflight > 0, Error: st.err}
	}
	return out
}

func (t *Tracker) op(name string) *opStatus {
	st, ok := t.ops[name]
	if !ok {
		st = &opStatus{}
		t.ops[name] = st
	}
	return st
}

// describe — человекочитаемое сообщение об ошибке действия action
// ("fetch articles" → "Failed to fetch articles: 500").
func describe(action string, err error) string {
	switch se, isStatus := cmsclient.AsStatus(err); {
	case errors.Is(err, cmsclient.ErrMalformedResponse):
		return "Invalid API response structure"
	case isStatus:
		return fmt.Sprintf("Failed to %s: %d", action, se.Status)
	case errors.Is(err, ErrUnauthorized):
		return fmt.Sprintf("Failed to %s: you must be signed in", action)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("Failed to %s: request timed out", action)
	case errors.Is(err, cmsclient.ErrTransport):
		return fmt.Sprintf("Failed to %s: network error", action)
	default:
		return "Failed to " + action
	}
}

// describeServer — текст сервера, если он есть, иначе fallback.
func describeServer(fallback string, err error) string {
	if se, ok := cmsclient.AsStatus(err); ok && se.Message != "" {
		return se.Message
	}
	return fallback
}

// normalizeCursor — page/pageSize по умолчанию.
func normalizeCursor(page, pageSize int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return page, pageSize
}

func emptyList[T any](pageSize int) ([]T, models.Pagination) {
	return []T{}, models.EmptyPagination(pageSize)
}
