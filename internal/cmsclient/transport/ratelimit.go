package transport

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimit ограничивает частоту исходящих запросов. nil-лимитер — no-op.
// Ожидание прерывается отменой контекста запроса. Если слот не успевает
// освободиться до дедлайна, ошибка оборачивает context.DeadlineExceeded.
func RateLimit(l *rate.Limiter) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		if l == nil {
			return next
		}

		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			if err := l.Wait(r.Context()); err != nil {
				return nil, waitError(r.Context(), err)
			}

			return next.RoundTrip(r)
		})
	}
}

// waitError — Wait отказывает заранее ("would exceed context deadline"),
// не дожидаясь дедлайна; такой отказ приравнивается к истёкшему дедлайну.
func waitError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("rate limit wait: %w", ctx.Err())
	}
	if _, ok := ctx.Deadline(); ok {
		return fmt.Errorf("rate limit wait: %w: %w", context.DeadlineExceeded, err)
	}

	return fmt.Errorf("rate limit wait: %w", err)
}
