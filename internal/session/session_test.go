package session

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/articles-cms/mocks"
)

func TestEncodeDecode(t *testing.T) {
	t.Parallel()

	enc := Encode("header.payload.sig")
	require.NotEqual(t, "header.payload.sig", enc)

	raw, err := Decode(enc)
	require.NoError(t, err)
	require.Equal(t, "header.payload.sig", raw)

	_, err = Decode("%%%not-base64")
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = Decode("")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestSession_MemoryRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New(NewMemoryStore(), 0)
	require.Equal(t, DefaultTTL, s.TTL())

	require.Empty(t, s.Token(ctx))
	require.NoError(t, s.Set(ctx, "jwt-1"))
	require.Equal(t, "jwt-1", s.Token(ctx))
	require.NoError(t, s.Clear(ctx))
	require.Empty(t, s.Token(ctx))

	require.ErrorIs(t, s.Set(ctx, ""), ErrInvalidToken)
}

func TestMemoryStore_Expiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemoryStore()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Save(context.Background(), "dG9r", time.Hour))
	_, err := m.Load(context.Background())
	require.NoError(t, err)

	now = now.Add(time.Hour)
	_, err = m.Load(context.Background())
	require.ErrorIs(t, err, ErrNoToken)
}

// Ошибка хранилища для читателей равна анонимному режиму.
func TestSession_Token_StoreErrorMeansAnonymous(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	st := mocks.NewMockStore(ctrl)
	st.EXPECT().Load(gomock.Any()).Return("", errors.New("disk on fire"))

	require.Empty(t, New(st, time.Hour).Token(context.Background()))
}

func TestSession_Token_CorruptedValueMeansAnonymous(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	st := mocks.NewMockStore(ctrl)
	st.EXPECT().Load(gomock.Any()).Return("***", nil)

	require.Empty(t, New(st, time.Hour).Token(context.Background()))
}

func TestSession_Set_SavesEncodedWithTTL(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	st := mocks.NewMockStore(ctrl)
	st.EXPECT().Save(gomock.Any(), Encode("jwt-2"), 2*time.Hour).Return(nil)

	require.NoError(t, New(st, 2*time.Hour).Set(context.Background(), "jwt-2"))
}

func TestSession_Set_PropagatesStoreError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	st := mocks.NewMockStore(ctrl)
	boom := errors.New("boom")
	st.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any()).Return(boom)
	st.EXPECT().Clear(gomock.Any()).Return(boom)

	s := New(st, time.Hour)
	require.ErrorIs(t, s.Set(context.Background(), "jwt"), boom)
	require.ErrorIs(t, s.Clear(context.Background()), boom)
}

func TestFileStore_RoundTripAndCookieAttributes(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "cookie")
	fs, err := NewFileStore(path)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = fs.Load(ctx)
	require.ErrorIs(t, err, ErrNoToken)

	require.NoError(t, fs.Save(ctx, Encode("jwt-3"), DefaultTTL))

	b, err := os.ReadFile(path)
	require.NoError(t, err)

	c, err := http.ParseSetCookie(strings.TrimSpace(string(b)))
	require.NoError(t, err)
	require.Equal(t, CookieName, c.Name)
	require.Equal(t, "/", c.Path)
	require.Equal(t, http.SameSiteLaxMode, c.SameSite)
	require.Equal(t, int(DefaultTTL/time.Second), c.MaxAge)

	got, err := fs.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, Encode("jwt-3"), got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, fs.Clear(ctx))
	require.NoError(t, fs.Clear(ctx))
	_, err = fs.Load(ctx)
	require.ErrorIs(t, err, ErrNoToken)
}

func TestFileStore_ExpiredCookie(t *testing.T) {
	t.Parallel()

	fs, err := NewFileStore(filepath.Join(t.TempDir(), "cookie"))
	require.NoError(t, err)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	fs.now = func() time.Time { return now }

	require.NoError(t, fs.Save(context.Background(), Encode("jwt"), DefaultTTL))

	now = now.Add(DefaultTTL + time.Second)
	_, err = fs.Load(context.Background())
	require.ErrorIs(t, err, ErrNoToken)
}

func TestFileStore_Garbage(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cookie")
	require.NoError(t, os.WriteFile(path, []byte("no-equals-sign"), 0o600))

	fs, err := NewFileStore(path)
	require.NoError(t, err)

	_, err = fs.Load(context.Background())
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewFileStore_EmptyPath(t *testing.T) {
	t.Parallel()

	_, err := NewFileStore("  ")
	require.Error(t, err)
}
