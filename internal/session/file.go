package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileStore хранит токен как строку Set-Cookie в файле:
//
//	token=<base64>; Path=/; Expires=...; Max-Age=172800; SameSite=Lax
//
// Истёкшая cookie трактуется как отсутствие токена.
type FileStore struct {
	path string
	now  func() time.Time
}

// NewFileStore — path обязателен; каталог создаётся при первом Save.
func NewFileStore(path string) (*FileStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("session/NewFileStore: empty path")
	}

	return &FileStore{path: path, now: time.Now}, nil
}

func (f *FileStore) Load(context.Context) (string, error) {
	const op = "session/FileStore.Load"

	b, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNoToken
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	line := strings.TrimSpace(string(b))
	if line == "" {
		return "", ErrNoToken
	}

	c, err := http.ParseSetCookie(line)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %v", op, ErrInvalidToken, err)
	}

	if c.Name != CookieName || c.Value == "" {
		return "", ErrNoToken
	}

	if !c.Expires.IsZero() && !f.now().Before(c.Expires) {
		return "", ErrNoToken
	}

	return c.Value, nil
}

func (f *FileStore) Save(_ context.Context, encoded string, ttl time.Duration) error {
	const op = "session/FileStore.Save"

	c := Cookie(encoded, ttl, f.now())
	if err := c.Valid(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(c.String()+"\n"), 0o600); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (f *FileStore) Clear(context.Context) error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("session/FileStore.Clear: %w", err)
	}

	return nil
}

// Cookie — cookie с закодированным токеном: Path "/", SameSite Lax,
// Max-Age = ttl (2 дня по умолчанию).
func Cookie(encoded string, ttl time.Duration, now time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    encoded,
		Path:     "/",
		Expires:  now.Add(ttl).UTC(),
		MaxAge:   int(ttl / time.Second),
		SameSite: http.SameSiteLaxMode,
	}
}
