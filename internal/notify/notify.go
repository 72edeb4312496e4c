// notify — транзиентные уведомления пользователю (аналог toast'ов UI).
//
// Сторы сообщают об успехах и ошибках через Notifier; console-BFF отдаёт
// накопленные уведомления UI из Feed.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pribylovaa/articles-cms/internal/pkg/log"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// DefaultCapacity — размер ленты по умолчанию.
const DefaultCapacity = 50

// Notifier — получатель пользовательских уведомлений.
type Notifier interface {
	Success(ctx context.Context, msg string)
	Error(ctx context.Context, msg string)
}

// Notice — одно уведомление.
type Notice struct {
	ID      uint64    `json:"id"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Feed — ограниченная лента уведомлений: при переполнении вытесняются старые.
// Каждое уведомление пишется в лог и считается метрикой по уровню.
type Feed struct {
	mu       sync.Mutex
	items    []Notice
	capacity int
	seq      uint64
	now      func() time.Time

	counter *prometheus.CounterVec
}

// NewFeed — capacity <= 0 означает DefaultCapacity; reg == nil — без метрик.
func NewFeed(capacity int, reg prometheus.Registerer) *Feed {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	f := &Feed{
		capacity: capacity,
		now:      time.Now,
		counter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cms_console",
			Name:      "notifications_total",
			Help:      "User-visible notifications by level.",
		}, []string{"level"}),
	}

	if reg != nil {
		reg.MustRegister(f.counter)
	}

	return f
}

func (f *Feed) Success(ctx context.Context, msg string) { f.push(ctx, LevelSuccess, msg) }
func (f *Feed) Error(ctx context.Context, msg string)   { f.push(ctx, LevelError, msg) }

func (f *Feed) push(ctx context.Context, lvl Level, msg string) {
	f.mu.Lock()
	f.seq++
	n := Notice{ID: f.seq, Level: lvl, Message: msg, At: f.now()}
	f.items = append(f.items, n)
	if over := len(f.items) - f.capacity; over > 0 {
		f.items = append([]Notice(nil), f.items[over:]...)
	}
	f.mu.Unlock()

	f.counter.WithLabelValues(string(lvl)).Inc()

	level := slog.LevelInfo
	if lvl == LevelError {
		level = slog.LevelWarn
	}
	log.From(ctx).Log(ctx, level, "notification", slog.String("level", string(lvl)), slog.String("message", msg))
}

// List — копия текущей ленты (от старых к новым).
func (f *Feed) List() []Notice {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]Notice(nil), f.items...)
}

// Drain возвращает ленту и очищает её: уведомление показывается один раз.
func (f *Feed) Drain() []Notice {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := f.items
	f.items = nil

	if out == nil {
		return []Notice{}
	}

	return out
}

// Discard — Notifier, который ничего не делает.
type Discard struct{}

func (Discard) Success(context.Context, string) {}
func (Discard) Error(context.Context, string)   {}
