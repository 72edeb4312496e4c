package store

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/articles-cms/internal/cmsclient"
	"github.com/pribylovaa/articles-cms/internal/cmsclient/cmsfake"
	"github.com/pribylovaa/articles-cms/internal/models"
	"github.com/pribylovaa/articles-cms/internal/notify"
	"github.com/pribylovaa/articles-cms/internal/validation"
)

func seedArticles(e *env, n int) []models.Article {
	out := make([]models.Article, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, e.cms.SeedArticle(fmt.Sprintf("article %02d", i), "some description"))
	}
	return out
}

func TestFetchArticles_PaginationComesFromServer(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	seedArticles(e, 13)
	s := NewArticles(e.client, e.sess, e.feed)

	require.NoError(t, s.FetchArticles(context.Background(), ListParams{Page: 2, PageSize: 6}))

	st := s.Snapshot()
	require.Equal(t, models.Pagination{Page: 2, PageSize: 6, PageCount: 3, Total: 13}, st.Pagination)
	require.Len(t, st.Articles, 6)
	require.Equal(t, "article 06", st.Articles[0].Title)
	require.False(t, st.Loading)
	require.Empty(t, st.Error)
}

func TestFetchArticles_Idempotent(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	seedArticles(e, 4)
	s := NewArticles(e.client, e.sess, e.feed)
	ctx := context.Background()

	require.NoError(t, s.FetchArticles(ctx, ListParams{Page: 1, PageSize: 3}))
	first := s.Snapshot()

	require.NoError(t, s.FetchArticles(ctx, ListParams{Page: 1, PageSize: 3}))
	second := s.Snapshot()

	require.Equal(t, first.Articles, second.Articles)
	require.Equal(t, first.Pagination, second.Pagination)
}

func TestFetchArticles_DefaultsAndQuery(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.cms.SeedArticle("alpha", "some description")
	e.cms.SeedArticle("beta", "some description")
	e.signIn(t)

	var (
		mu  sync.Mutex
		got *http.Request
	)
	e.cms.SetHook(func(_ http.ResponseWriter, r *http.Request) bool {
		mu.Lock()
		got = r.Clone(context.Background())
		mu.Unlock()
		return false
	})

	s := NewArticles(e.client, e.sess, e.feed)
	require.NoError(t, s.FetchArticles(context.Background(), ListParams{Search: "alp", WithAuth: true}))

	mu.Lock()
	defer mu.Unlock()

	q := got.URL.Query()
	require.Equal(t, "1", q.Get("pagination[page]"))
	require.Equal(t, "10", q.Get("pagination[pageSize]"))
	require.Equal(t, "*", q.Get("populate"))
	require.Equal(t, "alp", q.Get("filters[title][$contains]"))
	require.Equal(t, "Bearer "+cmsfake.JWT, got.Header.Get("Authorization"))

	st := s.Snapshot()
	require.Len(t, st.Articles, 1)
	require.Equal(t, "alpha", st.Articles[0].Title)
}

// Без WithAuth токен не прикладывается, даже если он есть.
func TestFetchArticles_WithoutAuthIsAnonymous(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.signIn(t)

	var (
		mu   sync.Mutex
		auth string
	)
	e.cms.SetHook(func(_ http.ResponseWriter, r *http.Request) bool {
		mu.Lock()
		auth = r.Header.Get("Authorization")
		mu.Unlock()
		return false
	})

	s := NewArticles(e.client, e.sess, e.feed)
	require.NoError(t, s.FetchArticles(context.Background(), ListParams{}))

	mu.Lock()
	require.Empty(t, auth)
	mu.Unlock()
}

func TestFetchArticles_MissingPaginationResetsState(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	seedArticles(e, 3)
	s := NewArticles(e.client, e.sess, e.feed)
	ctx := context.Background()

	require.NoError(t, s.FetchArticles(ctx, ListParams{Page: 1, PageSize: 5}))
	require.Len(t, s.Snapshot().Articles, 3)

	e.cms.SetHook(func(w http.ResponseWriter, _ *http.Request) bool {
		_, _ = io.WriteString(w, `{"data":[{"id":1,"documentId":"x","title":"x"}],"meta":{}}`)
		return true
	})

	err := s.FetchArticles(ctx, ListParams{Page: 2, PageSize: 5})
	require.ErrorIs(t, err, cmsclient.ErrMalformedResponse)

	st := s.Snapshot()
	require.Empty(t, st.Articles)
	require.NotNil(t, st.Articles)
	require.Equal(t, models.Pagination{Page: 1, PageSize: 5, PageCount: 1, Total: 0}, st.Pagination)
	require.Equal(t, "Invalid API response structure", st.Error)
	require.Equal(t, []string{"Invalid API response structure"}, e.notices(notify.LevelError))
}

func TestFetchArticles_StatusErrorResetsState(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	seedArticles(e, 2)
	s := NewArticles(e.client, e.sess, e.feed)
	ctx := context.Background()

	require.NoError(t, s.FetchArticles(ctx, ListParams{}))

	e.cms.SetHook(func(w http.ResponseWriter, _ *http.Request) bool {
		cmsfake.WriteError(w, http.StatusInternalServerError, "boom")
		return true
	})

	err := s.FetchArticles(ctx, ListParams{})
	se, ok := cmsclient.AsStatus(err)
	require.True(t, ok)
	require.Equal(t, http.StatusInternalServerError, se.Status)

	st := s.Snapshot()
	require.Empty(t, st.Articles)
	require.Equal(t, "Failed to fetch articles: 500", st.Error)
	require.Equal(t, Status{Error: "Failed to fetch articles: 500"}, st.Ops[OpFetchArticles])
	require.Equal(t, 2, e.cms.Hits("GET /articles"))
}

// Ответ запроса, выданного раньше, не перетирает более поздний.
func TestFetchArticles_LateResponseIsDiscarded(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	seedArticles(e, 4)
	s := NewArticles(e.client, e.sess, e.feed)
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	e.cms.SetHook(func(_ http.ResponseWriter, r *http.Request) bool {
		if r.URL.Query().Get("pagination[page]") == "1" {
			close(entered)
			<-release
		}
		return false
	})

	slow := make(chan error, 1)
	go func() { slow <- s.FetchArticles(ctx, ListParams{Page: 1, PageSize: 2}) }()

	<-entered
	require.NoError(t, s.FetchArticles(ctx, ListParams{Page: 2, PageSize: 2}))
	close(release)

	require.ErrorIs(t, <-slow, ErrSuperseded)

	st := s.Snapshot()
	require.Equal(t, 2, st.Pagination.Page)
	require.Equal(t, "article 02", st.Articles[0].Title)
	require.Empty(t, e.notices(notify.LevelError))
}

// Отброшенный ответ не стирает ошибку записи, завершившейся раньше него.
func TestFetchArticles_DiscardedResponseKeepsWriteError(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.signIn(t)
	arts := seedArticles(e, 4)
	s := NewArticles(e.client, e.sess, e.feed)
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	e.cms.SetHook(func(w http.ResponseWriter, r *http.Request) bool {
		switch {
		case r.Method == http.MethodDelete:
			cmsfake.WriteError(w, http.StatusInternalServerError, "boom")
			return true
		case r.URL.Query().Get("pagination[page]") == "1":
			close(entered)
			<-release
		}
		return false
	})

	slow := make(chan error, 1)
	go func() { slow <- s.FetchArticles(ctx, ListParams{Page: 1, PageSize: 2}) }()

	<-entered
	require.NoError(t, s.FetchArticles(ctx, ListParams{Page: 2, PageSize: 2}))
	require.Error(t, s.DeleteArticle(ctx, arts[0].DocumentID))

	failed := s.Snapshot().Error
	require.NotEmpty(t, failed)

	close(release)
	require.ErrorIs(t, <-slow, ErrSuperseded)

	st := s.Snapshot()
	require.False(t, st.Loading)
	require.Equal(t, failed, st.Error)
	require.Equal(t, failed, st.Ops[OpDeleteArticle].Error)
}

func TestFetchArticleByDocumentID_CacheFirst(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	arts := seedArticles(e, 3)
	s := NewArticles(e.client, e.sess, e.feed)
	ctx := context.Background()

	require.NoError(t, s.FetchArticles(ctx, ListParams{Page: 1, PageSize: 2}))

	got, err := s.FetchArticleByDocumentID(ctx, arts[0].DocumentID)
	require.NoError(t, err)
	require.Equal(t, arts[0].Title, got.Title)
	require.Zero(t, e.cms.Hits("GET /articles/"+arts[0].DocumentID))
	require.Equal(t, arts[0].DocumentID, s.Snapshot().Selected.DocumentID)

	// Третьей статьи нет на текущей странице — ровно один сетевой запрос.
	got, err = s.FetchArticleByDocumentID(ctx, arts[2].DocumentID)
	require.NoError(t, err)
	require.Equal(t, arts[2].Title, got.Title)
	require.Equal(t, 1, e.cms.Hits("GET /articles/"+arts[2].DocumentID))
}

func TestFetchArticleByDocumentID_FailureResetsSelected(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	arts := seedArticles(e, 1)
	s := NewArticles(e.client, e.sess, e.feed)
	ctx := context.Background()

	_, err := s.FetchArticleByDocumentID(ctx, arts[0].DocumentID)
	require.NoError(t, err)
	require.NotNil(t, s.Snapshot().Selected)

	_, err = s.FetchArticleByDocumentID(ctx, "missing")
	require.Error(t, err)

	st := s.Snapshot()
	require.Nil(t, st.Selected)
	require.Equal(t, "Failed to fetch article: 404", st.Error)
}

// Устаревший id идёт в сеть, пока коллекцию не перечитают.
func TestFetchArticleByDocumentID_StaleEntrySkipsCache(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	arts := seedArticles(e, 1)
	s := NewArticles(e.client, e.sess, e.feed)
	ctx := context.Background()
	id := arts[0].DocumentID

	require.NoError(t, s.FetchArticles(ctx, ListParams{}))

	s.mu.Lock()
	s.stale[id] = s.track.seqOf(keyArticleList)
	s.mu.Unlock()

	_, err := s.FetchArticleByDocumentID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 1, e.cms.Hits("GET /articles/"+id))

	require.NoError(t, s.FetchArticles(ctx, ListParams{}))

	_, err = s.FetchArticleByDocumentID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 1, e.cms.Hits("GET /articles/"+id))
}

func TestCreateArticle_RoundTrip(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.signIn(t)
	cat := e.cms.SeedCategory("Go")
	s := NewArticles(e.client, e.sess, e.feed)
	ctx := context.Background()

	payload := models.ArticlePayload{
		Title:         "Generics in practice",
		Description:   "Type parameters without tears",
		CoverImageURL: "https://img.example.com/g.png",
		Category:      cat.ID,
	}

	require.NoError(t, s.CreateArticle(ctx, payload))
	require.Equal(t, 1, e.cms.Hits("POST /articles"))
	require.Equal(t, 1, e.cms.Hits("GET /articles"))

	st := s.Snapshot()
	require.Len(t, st.Articles, 1)
	got := st.Articles[0]
	require.Equal(t, payload.Title, got.Title)
	require.Equal(t, payload.Description, got.Description)
	require.Equal(t, payload.CoverImageURL, got.CoverImageURL)
	require.NotNil(t, got.Category)
	require.Equal(t, payload.Category, got.Category.ID)
	require.NotEmpty(t, got.DocumentID)

	require.Equal(t, []string{"Article created successfully"}, e.notices(notify.LevelSuccess))
}

func TestCreateArticle_ValidationFailsBeforeRequest(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.signIn(t)
	s := NewArticles(e.client, e.sess, e.feed)

	err := s.CreateArticle(context.Background(), models.ArticlePayload{Title: "x"})
	require.ErrorIs(t, err, validation.ErrInvalid)
	require.Zero(t, e.cms.Hits("POST /articles"))
	require.Empty(t, e.feed.List())
}

func TestCreateArticle_RequiresToken(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	s := NewArticles(e.client, e.sess, e.feed)

	err := s.CreateArticle(context.Background(), models.ArticlePayload{
		Title:       "Anonymous",
		Description: "Nobody is signed in",
		Category:    1,
	})
	require.ErrorIs(t, err, ErrUnauthorized)
	require.Zero(t, e.cms.Hits("POST /articles"))
	require.Equal(t, []string{"Failed to create article: you must be signed in"}, e.notices(notify.LevelError))
}

// Неудачная запись сохраняет прежнее состояние и не перечитывает список.
func TestUpdateArticle_FailurePreservesState(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.signIn(t)
	arts := seedArticles(e, 2)
	s := NewArticles(e.client, e.sess, e.feed)
	ctx := context.Background()

	require.NoError(t, s.FetchArticles(ctx, ListParams{}))
	before := s.Snapshot()

	e.cms.SetHook(func(w http.ResponseWriter, r *http.Request) bool {
		if r.Method == http.MethodPut {
			cmsfake.WriteError(w, http.StatusInternalServerError, "boom")
			return true
		}
		return false
	})

	err := s.UpdateArticle(ctx, arts[0].DocumentID, models.ArticlePayload{
		Title:       "Renamed",
		Description: "Updated description",
		Category:    1,
	})
	require.Error(t, err)

	after := s.Snapshot()
	require.Equal(t, before.Articles, after.Articles)
	require.Equal(t, before.Pagination, after.Pagination)
	require.Equal(t, "Failed to update article: 500", after.Error)
	require.Equal(t, 1, e.cms.Hits("GET /articles"))
	require.Equal(t, Status{}, after.Ops[OpFetchArticles])
}

func TestUpdateArticle_RefetchesWithLastParams(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.signIn(t)
	arts := seedArticles(e, 5)
	s := NewArticles(e.client, e.sess, e.feed)
	ctx := context.Background()

	require.NoError(t, s.FetchArticles(ctx, ListParams{Page: 2, PageSize: 2, WithAuth: true}))

	var (
		mu   sync.Mutex
		last *http.Request
	)
	e.cms.SetHook(func(_ http.ResponseWriter, r *http.Request) bool {
		if r.Method == http.MethodGet {
			mu.Lock()
			last = r.Clone(context.Background())
			mu.Unlock()
		}
		return false
	})

	target := arts[2]
	require.NoError(t, s.UpdateArticle(ctx, target.DocumentID, models.ArticlePayload{
		Title:       "Renamed",
		Description: "Updated description",
		Category:    1,
	}))

	mu.Lock()
	require.NotNil(t, last)
	require.Equal(t, "2", last.URL.Query().Get("pagination[page]"))
	require.Equal(t, "2", last.URL.Query().Get("pagination[pageSize]"))
	require.Equal(t, "Bearer "+cmsfake.JWT, last.Header.Get("Authorization"))
	mu.Unlock()

	got, err := s.FetchArticleByDocumentID(ctx, target.DocumentID)
	require.NoError(t, err)
	require.Equal(t, "Renamed", got.Title)
	require.Equal(t, []string{"Article updated successfully"}, e.notices(notify.LevelSuccess))
}

func TestDeleteArticle_RefetchDropsEntity(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.signIn(t)
	arts := seedArticles(e, 3)
	s := NewArticles(e.client, e.sess, e.feed)
	ctx := context.Background()

	require.NoError(t, s.FetchArticles(ctx, ListParams{}))
	_, err := s.FetchArticleByDocumentID(ctx, arts[1].DocumentID)
	require.NoError(t, err)

	require.NoError(t, s.DeleteArticle(ctx, arts[1].DocumentID))

	st := s.Snapshot()
	require.Len(t, st.Articles, 2)
	for _, a := range st.Articles {
		require.NotEqual(t, arts[1].DocumentID, a.DocumentID)
	}
	require.Nil(t, st.Selected)
	require.Equal(t, 2, st.Pagination.Total)
}

func TestSearch_TypingIssuesOneFetch(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.cms.SeedArticle("alpha release", "some description")
	e.cms.SeedArticle("beta release", "some description")

	var (
		mu    sync.Mutex
		terms []string
		sizes []string
	)
	e.cms.SetHook(func(_ http.ResponseWriter, r *http.Request) bool {
		mu.Lock()
		terms = append(terms, r.URL.Query().Get("filters[title][$contains]"))
		sizes = append(sizes, r.URL.Query().Get("pagination[pageSize]"))
		mu.Unlock()
		return false
	})

	s := NewArticles(e.client, e.sess, e.feed)
	search := NewSearch(context.Background(), s, 50*time.Millisecond, 0, time.Second)
	t.Cleanup(search.Stop)

	for _, term := range []string{"a", "al", "alp", "alph", "alpha"} {
		search.Set(term)
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return e.cms.Hits("GET /articles") == 1 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, 1, e.cms.Hits("GET /articles"))

	mu.Lock()
	require.Equal(t, []string{"alpha"}, terms)
	require.Equal(t, []string{"6"}, sizes)
	mu.Unlock()

	require.Equal(t, "alpha", search.Term())
	require.Eventually(t, func() bool {
		st := s.Snapshot()
		return len(st.Articles) == 1 && st.Articles[0].Title == "alpha release"
	}, time.Second, 5*time.Millisecond)
}
