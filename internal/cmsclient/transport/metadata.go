package transport

import (
	"net/http"

	"github.com/google/uuid"
)

// WithMetadata — добавляет в исходящий запрос заголовки:
//   - X-Request-Id (из контекста; если нет — из запроса; иначе новый UUID);
//   - User-Agent (если передан параметром).
//
// Исходный *http.Request не модифицируется (контракт RoundTripper).
func WithMetadata(userAgent string) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			r = r.Clone(r.Context())

			rid := ""
			if v := r.Context().Value(CtxRequestID); v != nil {
				rid, _ = v.(string)
			}
			if rid == "" {
				rid = r.Header.Get("X-Request-Id")
			}
			if rid == "" {
				rid = uuid.NewString()
			}
			r.Header.Set("X-Request-Id", rid)

			if userAgent != "" {
				r.Header.Set("User-Agent", userAgent)
			}

			return next.RoundTrip(r)
		})
	}
}
