package transport

import (
	"context"
	"time"
)

// WithDeadline навешивает таймаут d на контекст исходящего запроса,
// если у контекста ещё нет дедлайна.
//
// Контракт:
//  1. d <= 0 — контекст не меняется, cancel — no-op;
//  2. у ctx уже есть deadline — оставляет как есть;
//  3. иначе — context.WithTimeout(ctx, d).
//
// cancel нужно вызывать после чтения тела ответа, поэтому дедлайн ставится
// в клиенте, а не внутри RoundTripper.
func WithDeadline(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}

	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, d)
}
