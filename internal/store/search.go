package store

import (
	"context"
	"errors"
	"time"

	"github.com/pribylovaa/articles-cms/internal/debounce"
	"github.com/pribylovaa/articles-cms/internal/pkg/log"
)

// Параметры поиска по умолчанию.
const (
	DefaultSearchDelay    = 800 * time.Millisecond
	DefaultSearchPageSize = 6
)

// Search — поиск статей по заголовку с debounce: пока пользователь печатает,
// запросы не уходят; устоявшийся term загружает первую страницу результатов.
type Search struct {
	articles *Articles
	pageSize int
	timeout  time.Duration
	base     context.Context
	d        *debounce.Debouncer[string]
}

// NewSearch — base задаёт логгер и время жизни запросов поиска
// (отмена base гасит и запрос в полёте). timeout <= 0 — без отдельного дедлайна.
func NewSearch(base context.Context, articles *Articles, delay time.Duration, pageSize int, timeout time.Duration) *Search {
	if delay <= 0 {
		delay = DefaultSearchDelay
	}
	if pageSize <= 0 {
		pageSize = DefaultSearchPageSize
	}

	s := &Search{
		articles: articles,
		pageSize: pageSize,
		timeout:  timeout,
		base:     base,
	}
	s.d = debounce.New(delay, "", s.run)

	return s
}

// Set — очередное значение строки поиска.
func (s *Search) Set(term string) { s.d.Set(term) }

// Term — последний устоявшийся term.
func (s *Search) Term() string { return s.d.Value() }

// Pending — term, который ещё ждёт окончания окна.
func (s *Search) Pending() (string, bool) { return s.d.Pending() }

// Flush — не ждать окна.
func (s *Search) Flush() { s.d.Flush() }

func (s *Search) Stop() { s.d.Stop() }

func (s *Search) run(term string) {
	const op = "store/Search.run"

	ctx := s.base
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	log.Op(ctx, op).Debug("search_settled", "term", term)

	err := s.articles.FetchArticles(ctx, ListParams{
		Page:     1,
		PageSize: s.pageSize,
		Search:   term,
		WithAuth: true,
	})
	if err != nil && !errors.Is(err, ErrSuperseded) {
		log.Op(ctx, op).Warn("search_failed", "err", err)
	}
}
