package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"
)

// HeaderTimeout — бюджет запроса в миллисекундах, который UI может сузить
// (например, для подсказок поиска). Больше серверного значения не бывает.
const HeaderTimeout = "X-Timeout-Ms"

// Timeout ограничивает запрос дедлайном d либо меньшим бюджетом из
// заголовка X-Timeout-Ms. Уже установленный дедлайн не переопределяется;
// d <= 0 выключает мидлвар.
func Timeout(d time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := r.Context().Deadline(); ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), budget(r, d))
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func budget(r *http.Request, limit time.Duration) time.Duration {
	ms, err := strconv.Atoi(r.Header.Get(HeaderTimeout))
	if err != nil || ms <= 0 {
		return limit
	}

	return min(time.Duration(ms)*time.Millisecond, limit)
}
