// session — хранение сессионного токена CMS.
//
// Токен персистится в закодированном виде (base64). Это ОБФУСКАЦИЯ, а не
// шифрование: любой, у кого есть доступ к хранилищу (cookie-файл, Redis),
// получает рабочий bearer-токен. Конфиденциальность обеспечивается только
// правами доступа к самому хранилищу.
package session

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pribylovaa/articles-cms/internal/pkg/log"
)

const (
	// CookieName — имя cookie с закодированным токеном.
	CookieName = "token"
	// DefaultTTL — срок жизни сохранённого токена (2 дня).
	DefaultTTL = 48 * time.Hour
)

var (
	// ErrNoToken — токен не сохранён или истёк.
	ErrNoToken = errors.New("no session token")
	// ErrInvalidToken — сохранённое значение не декодируется.
	ErrInvalidToken = errors.New("invalid session token")
)

// Store — персистентное хранилище закодированного токена.
type Store interface {
	// Load возвращает закодированный токен или ErrNoToken.
	Load(ctx context.Context) (string, error)
	// Save сохраняет закодированный токен на ttl.
	Save(ctx context.Context, encoded string, ttl time.Duration) error
	// Clear удаляет токен; отсутствие токена — не ошибка.
	Clear(ctx context.Context) error
}

// Encode — обратимая обфускация токена перед сохранением.
func Encode(raw string) string {
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// Decode — обратная операция к Encode.
func Decode(encoded string) (string, error) {
	b, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if len(b) == 0 {
		return "", ErrInvalidToken
	}

	return string(b), nil
}

// Session — процесс-общий держатель токена поверх Store.
// Читается всеми сторами; никто не владеет им монопольно.
type Session struct {
	store Store
	ttl   time.Duration

	mu sync.Mutex
}

// New создаёт Session. ttl <= 0 — DefaultTTL.
func New(store Store, ttl time.Duration) *Session {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Session{store: store, ttl: ttl}
}

// Token возвращает декодированный токен или "" (анонимный режим).
// Ошибки хранилища не пробрасываются: для вызывающих это то же, что
// отсутствие токена.
func (s *Session) Token(ctx context.Context) string {
	const op = "session/Token"

	s.mu.Lock()
	defer s.mu.Unlock()

	encoded, err := s.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoToken) {
			log.Op(ctx, op).Warn("session_load_failed", "err", err)
		}
		return ""
	}

	raw, err := Decode(encoded)
	if err != nil {
		log.Op(ctx, op).Warn("session_token_corrupted")
		return ""
	}

	return raw
}

// Set сохраняет токен в закодированном виде на TTL сессии.
func (s *Session) Set(ctx context.Context, raw string) error {
	const op = "session/Set"

	if raw == "" {
		return fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Save(ctx, Encode(raw), s.ttl); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Clear стирает токен.
func (s *Session) Clear(ctx context.Context) error {
	const op = "session/Clear"

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// TTL — срок жизни сохраняемого токена.
func (s *Session) TTL() time.Duration { return s.ttl }
