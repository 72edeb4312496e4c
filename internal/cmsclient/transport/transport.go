// transport — цепочка http.RoundTripper'ов для исходящих запросов к CMS:
// metadata -> rate limit -> logging -> metrics.
package transport

import (
	"net/http"
)

type CtxKey string

// CtxRequestID — ключ контекста с X-Request-Id входящего запроса;
// его кладёт middleware.RequestID, а WithMetadata прокидывает в CMS.
const CtxRequestID CtxKey = "request_id"

// RoundTripperFunc — адаптер функции к http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// Middleware — обёртка над RoundTripper.
type Middleware func(http.RoundTripper) http.RoundTripper

// Chain применяет обёртки в порядке перечисления: первая — самая внешняя.
func Chain(base http.RoundTripper, mws ...Middleware) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}

	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			base = mws[i](base)
		}
	}

	return base
}
