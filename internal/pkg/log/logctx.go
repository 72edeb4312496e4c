// log — прокладка request-scoped логгера через context.Context.
package log

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// Into кладёт логгер в контекст.
func Into(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From достаёт логгер из контекста (или возвращает slog.Default()).
func From(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return slog.Default()
	}

	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}

	return slog.Default()
}

// Op — логгер из контекста, обогащённый именем операции.
// Ключ "op" совпадает с константами op в сторах и клиенте.
func Op(ctx context.Context, op string) *slog.Logger {
	return From(ctx).With(slog.String("op", op))
}
