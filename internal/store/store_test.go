package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/articles-cms/internal/cmsclient"
	"github.com/pribylovaa/articles-cms/internal/cmsclient/cmsfake"
	"github.com/pribylovaa/articles-cms/internal/notify"
	"github.com/pribylovaa/articles-cms/internal/session"
)

// env — фейковый CMS, настоящий клиент, сессия в памяти и лента уведомлений.
type env struct {
	cms    *cmsfake.Server
	client *cmsclient.Client
	sess   *session.Session
	mem    *session.MemoryStore
	feed   *notify.Feed
}

func newEnv(t *testing.T) *env {
	t.Helper()

	cms := cmsfake.New()
	t.Cleanup(cms.Close)

	client, err := cmsclient.New(cms.BaseURL(),
		cmsclient.WithHTTPClient(cms.Client()),
		cmsclient.WithTimeout(2*time.Second),
	)
	require.NoError(t, err)

	mem := session.NewMemoryStore()

	return &env{
		cms:    cms,
		client: client,
		sess:   session.New(mem, 0),
		mem:    mem,
		feed:   notify.NewFeed(0, nil),
	}
}

func (e *env) signIn(t *testing.T) {
	t.Helper()
	require.NoError(t, e.sess.Set(context.Background(), cmsfake.JWT))
}

// notices — сообщения ленты заданного уровня.
func (e *env) notices(lvl notify.Level) []string {
	var out []string
	for _, n := range e.feed.List() {
		if n.Level == lvl {
			out = append(out, n.Message)
		}
	}
	return out
}

func TestTracker_PerOperationStatus(t *testing.T) {
	t.Parallel()

	tr := NewTracker()

	tr.Begin("read")
	tr.Begin("write")
	require.True(t, tr.Loading())

	tr.End("write", "Failed to write: 500")
	require.True(t, tr.Loading())
	require.Equal(t, "Failed to write: 500", tr.Error())

	tr.End("read", "")
	require.False(t, tr.Loading())

	ops := tr.Ops()
	require.Equal(t, Status{Error: "Failed to write: 500"}, ops["write"])
	require.Equal(t, Status{}, ops["read"])

	// Повторный старт сбрасывает ошибку операции.
	tr.Begin("write")
	require.Equal(t, Status{Loading: true}, tr.Ops()["write"])
}

func TestTracker_DropKeepsErrors(t *testing.T) {
	t.Parallel()

	tr := NewTracker()

	tr.Begin("write")
	tr.End("write", "Failed to write: 500")

	tr.Begin("read")
	require.True(t, tr.Loading())
	tr.Drop("read")

	require.False(t, tr.Loading())
	require.Equal(t, "Failed to write: 500", tr.Error())
	require.Equal(t, Status{Error: "Failed to write: 500"}, tr.Ops()["write"])
	require.Equal(t, Status{}, tr.Ops()["read"])
}

func TestTracker_Sequence(t *testing.T) {
	t.Parallel()

	tr := NewTracker()

	first := tr.Issue("k")
	second := tr.Issue("k")
	other := tr.Issue("other")

	require.False(t, tr.Current("k", first))
	require.True(t, tr.Current("k", second))
	require.True(t, tr.Current("other", other))
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "status", err: &cmsclient.StatusError{Status: 500}, want: "Failed to fetch articles: 500"},
		{name: "malformed", err: cmsclient.ErrMalformedResponse, want: "Invalid API response structure"},
		{name: "unauthorized", err: ErrUnauthorized, want: "Failed to fetch articles: you must be signed in"},
		{name: "transport", err: cmsclient.ErrTransport, want: "Failed to fetch articles: network error"},
		{name: "deadline", err: context.DeadlineExceeded, want: "Failed to fetch articles: request timed out"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, describe("fetch articles", tt.err))
		})
	}
}
