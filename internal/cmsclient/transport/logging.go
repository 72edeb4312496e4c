package transport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/pribylovaa/articles-cms/internal/pkg/log"
)

// Logging — логирование исходящих запросов к CMS.
// Поведение:
//   - обогащает логгер полями request_id/method/path и кладёт его в контекст;
//   - пишет одну финальную запись: msg="cms_http", status, dur
//     (или err при транспортной ошибке).
//
// Безопасность: не логирует тело, query и заголовок Authorization.
func Logging(base *slog.Logger) Middleware {
	if base == nil {
		base = slog.Default()
	}

	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()

			l := base.With(
				slog.String("request_id", r.Header.Get("X-Request-Id")),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)
			r = r.WithContext(log.Into(r.Context(), l))

			resp, err := next.RoundTrip(r)
			if err != nil {
				l.Warn("cms_http",
					slog.String("err", err.Error()),
					slog.Duration("dur", time.Since(start)),
				)
				return nil, err
			}

			l.Info("cms_http",
				slog.Int("status", resp.StatusCode),
				slog.Duration("dur", time.Since(start)),
			)

			return resp, nil
		})
	}
}
