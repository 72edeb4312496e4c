// app — composition root: собирает клиент CMS, сессию, ленту уведомлений
// и сторы из конфигурации. Сторы — обычные значения, передаваемые HTTP-слою.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pribylovaa/articles-cms/internal/cmsclient"
	"github.com/pribylovaa/articles-cms/internal/cmsclient/transport"
	"github.com/pribylovaa/articles-cms/internal/config"
	"github.com/pribylovaa/articles-cms/internal/notify"
	"github.com/pribylovaa/articles-cms/internal/pkg/log"
	"github.com/pribylovaa/articles-cms/internal/session"
	sessredis "github.com/pribylovaa/articles-cms/internal/session/redis"
	"github.com/pribylovaa/articles-cms/internal/store"
)

type App struct {
	Client  *cmsclient.Client
	Session *session.Session
	Feed    *notify.Feed

	Articles   *store.Articles
	Categories *store.Categories
	Comments   *store.Comments
	Auth       *store.Auth
	Search     *store.Search

	// PageSize — размер страницы списков по умолчанию.
	PageSize int

	closers []func() error
}

// Options — зависимости, которые не берутся из конфигурации.
type Options struct {
	Logger   *slog.Logger
	Registry prometheus.Registerer
	// Client — готовый клиент CMS (тесты); nil — собрать по cfg.CMS.
	Client *cmsclient.Client
	// SessionStore — готовое хранилище токена (тесты); nil — по cfg.Session.
	SessionStore session.Store
}

// New собирает приложение. ctx задаёт время жизни фоновых запросов поиска.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	const op = "app/New"

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	ctx = log.Into(ctx, opts.Logger)

	a := &App{PageSize: cfg.Pagination.PageSize}

	client := opts.Client
	if client == nil {
		var err error
		client, err = cmsclient.New(cfg.CMS.BaseURL,
			cmsclient.WithTimeout(cfg.CMS.Timeout),
			cmsclient.WithUserAgent(cfg.CMS.UserAgent),
			cmsclient.WithRateLimit(cfg.CMS.RPS, cfg.CMS.Burst),
			cmsclient.WithLogger(opts.Logger),
			cmsclient.WithMetrics(transport.NewMetrics(opts.Registry)),
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	a.Client = client

	st := opts.SessionStore
	if st == nil {
		var err error
		st, err = a.sessionStore(ctx, cfg.Session)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	a.Session = session.New(st, cfg.Session.TTL)
	a.Feed = notify.NewFeed(cfg.Notifications.Capacity, opts.Registry)

	a.Articles = store.NewArticles(client, a.Session, a.Feed)
	a.Categories = store.NewCategories(client, a.Session, a.Feed)
	a.Comments = store.NewComments(client, a.Session, a.Feed)
	a.Auth = store.NewAuth(client, a.Session, a.Feed)
	a.Search = store.NewSearch(ctx, a.Articles, cfg.Search.Debounce, cfg.Search.PageSize, cfg.CMS.Timeout)
	a.closers = append(a.closers, func() error { a.Search.Stop(); return nil })

	log.Op(ctx, op).Info("app_ready",
		"cms", cfg.CMS.BaseURL,
		"session_driver", cfg.Session.Driver,
	)

	return a, nil
}

func (a *App) sessionStore(ctx context.Context, cfg config.SessionConfig) (session.Store, error) {
	switch cfg.Driver {
	case config.SessionMemory:
		return session.NewMemoryStore(), nil
	case config.SessionRedis:
		rs, err := sessredis.New(ctx, cfg.RedisURL, cfg.Prefix)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rs.Close)
		return rs, nil
	case config.SessionFile:
		fs, err := session.NewFileStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return fs, nil
	default:
		return nil, fmt.Errorf("unknown session driver %q", cfg.Driver)
	}
}

// Close останавливает поиск и закрывает соединения хранилищ.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
