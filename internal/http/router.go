package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/articles-cms/internal/app"
	"github.com/pribylovaa/articles-cms/internal/http/handlers"
	"github.com/pribylovaa/articles-cms/internal/http/middleware"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	BasePath string // например, "/api"; если пустой — роуты регистрируются на корне.
	// Metrics — nil отключает метрики входящих запросов.
	Metrics *middleware.HTTPMetrics
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(a *app.App, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
		opts.Metrics.Middleware(),
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	h := handlers.New(a)

	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h)
	return root
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers) {
	// articles
	r.Get("/articles", h.ListArticles)
	r.Get("/articles/state", h.ArticlesState)
	r.Post("/articles/search", h.SearchArticles)
	r.Get("/articles/{documentId}", h.GetArticle)
	r.Post("/articles", h.CreateArticle)
	r.Put("/articles/{documentId}", h.UpdateArticle)
	r.Delete("/articles/{documentId}", h.DeleteArticle)

	// categories
	r.Get("/categories", h.ListCategories)
	r.Get("/categories/{documentId}", h.GetCategory)
	r.Post("/categories", h.CreateCategory)
	r.Put("/categories/{documentId}", h.EditCategory)
	r.Delete("/categories/{documentId}", h.DeleteCategory)

	// comments
	r.Get("/threads", h.Thread)
	r.Post("/threads/{articleDocumentId}", h.OpenThread)
	r.Delete("/threads", h.CloseThread)
	r.Post("/comments", h.AddComment)
	r.Put("/comments/{documentId}", h.UpdateComment)
	r.Delete("/comments/{documentId}", h.DeleteComment)

	// auth
	r.Post("/auth/sign-in", h.SignIn)
	r.Post("/auth/sign-up", h.SignUp)
	r.Get("/auth/me", h.Me)
	r.Post("/auth/sign-out", h.SignOut)

	r.Get("/notifications", h.Notifications)
}
