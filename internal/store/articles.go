package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/pribylovaa/articles-cms/internal/cmsclient"
	"github.com/pribylovaa/articles-cms/internal/models"
	"github.com/pribylovaa/articles-cms/internal/notify"
	"github.com/pribylovaa/articles-cms/internal/pkg/log"
	"github.com/pribylovaa/articles-cms/internal/validation"
)

// Операции Article-стора (ключи статусов).
const (
	OpFetchArticles = "fetch_articles"
	OpFetchArticle  = "fetch_article"
	OpCreateArticle = "create_article"
	OpUpdateArticle = "update_article"
	OpDeleteArticle = "delete_article"
)

const (
	keyArticleList   = "articles"
	keyArticleDetail = "article"
)

// ListParams — параметры FetchArticles. Нулевые Page/PageSize — 1/10.
type ListParams struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Search   string `json:"search,omitempty"`
	// WithAuth — приложить bearer-токен, если он есть.
	WithAuth bool `json:"with_auth"`
}

// ArticlesState — снапшот Article-стора.
type ArticlesState struct {
	Articles   []models.Article  `json:"articles"`
	Pagination models.Pagination `json:"pagination"`
	Params     ListParams        `json:"params"`
	Selected   *models.Article   `json:"selected"`
	Loading    bool              `json:"loading"`
	Error      string            `json:"error,omitempty"`
	Ops        map[string]Status `json:"ops"`
}

// Articles — стор статей.
//
// Кэш: FetchArticleByDocumentID сначала ищет статью в текущей коллекции.
// Успешные update/delete помечают documentId устаревшим; такой id берётся
// из сети, пока коллекцию не перечитает запрос, выданный после пометки.
type Articles struct {
	client   Doer
	tokens   Tokens
	notifier notify.Notifier
	track    *Tracker

	mu         sync.RWMutex
	articles   []models.Article
	pagination models.Pagination
	params     ListParams
	selected   *models.Article
	// stale — documentId -> токен списка на момент пометки.
	stale map[string]uint64
}

func NewArticles(client Doer, tokens Tokens, notifier notify.Notifier) *Articles {
	if notifier == nil {
		notifier = notify.Discard{}
	}

	articles, pagination := emptyList[models.Article](DefaultPageSize)

	return &Articles{
		client:     client,
		tokens:     tokens,
		notifier:   notifier,
		track:      NewTracker(),
		articles:   articles,
		pagination: pagination,
		params:     ListParams{Page: DefaultPage, PageSize: DefaultPageSize},
		stale:      make(map[string]uint64),
	}
}

// Snapshot — копия состояния стора.
func (s *Articles) Snapshot() ArticlesState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := ArticlesState{
		Articles:   append([]models.Article(nil), s.articles...),
		Pagination: s.pagination,
		Params:     s.params,
		Loading:    s.track.Loading(),
		Error:      s.track.Error(),
		Ops:        s.track.Ops(),
	}
	if s.selected != nil {
		sel := *s.selected
		st.Selected = &sel
	}
	if st.Articles == nil {
		st.Articles = []models.Article{}
	}

	return st
}

// FetchArticles загружает страницу статей и атомарно заменяет коллекцию и курсор.
// Курсор — ровно meta.pagination ответа. При ошибке коллекция пустая,
// курсор {1, pageSize, 1, 0}; повторов нет.
func (s *Articles) FetchArticles(ctx context.Context, p ListParams) error {
	const op = "store/Articles.FetchArticles"

	p.Page, p.PageSize = normalizeCursor(p.Page, p.PageSize)

	token := s.track.Issue(keyArticleList)
	s.track.Begin(OpFetchArticles)

	q := cmsclient.NewQuery().
		Page(p.Page, p.PageSize).
		Populate("*").
		TitleContains(p.Search)

	req := cmsclient.Request{Method: http.MethodGet, Path: "/articles", Query: q}
	if p.WithAuth {
		req.Token = s.tokens.Token(ctx)
	}

	var list cmsclient.List[models.Article]
	err := s.client.Do(ctx, req, &list)

	s.mu.Lock()
	if !s.track.Current(keyArticleList, token) {
		s.mu.Unlock()
		s.track.Drop(OpFetchArticles)
		log.Op(ctx, op).Debug("articles_response_discarded", "page", p.Page)
		return fmt.Errorf("%s: %w", op, ErrSuperseded)
	}

	s.params = p
	if err != nil {
		s.articles, s.pagination = emptyList[models.Article](p.PageSize)
		s.mu.Unlock()

		return s.fail(ctx, op, OpFetchArticles, "fetch articles", err)
	}

	s.articles = list.Data
	s.pagination = list.Pagination
	for id, mark := range s.stale {
		if token > mark {
			delete(s.stale, id)
		}
	}
	s.mu.Unlock()

	s.track.End(OpFetchArticles, "")
	log.Op(ctx, op).Debug("articles_fetched",
		"page", list.Pagination.Page,
		"count", len(list.Data),
		"total", list.Pagination.Total,
	)

	return nil
}

// FetchArticleByDocumentID заполняет selected. Статья из текущей коллекции
// отдаётся без сети (если не помечена устаревшей); иначе — один запрос
// GET /articles/{id}?populate=*. Ошибка сбрасывает selected.
func (s *Articles) FetchArticleByDocumentID(ctx context.Context, documentID string) (models.Article, error) {
	const op = "store/Articles.FetchArticleByDocumentID"

	token := s.track.Issue(keyArticleDetail)

	s.mu.Lock()
	if a, ok := s.cached(documentID); ok {
		s.selected = &a
		s.mu.Unlock()

		log.Op(ctx, op).Debug("article_cache_hit", "document_id", documentID)
		return a, nil
	}
	s.mu.Unlock()

	s.track.Begin(OpFetchArticle)

	var item cmsclient.Item[models.Article]
	err := s.client.Do(ctx, cmsclient.Request{
		Method: http.MethodGet,
		Path:   "/articles/" + url.PathEscape(documentID),
		Query:  cmsclient.NewQuery().Populate("*"),
		Token:  s.tokens.Token(ctx),
	}, &item)

	s.mu.Lock()
	if !s.track.Current(keyArticleDetail, token) {
		s.mu.Unlock()
		s.track.Drop(OpFetchArticle)
		return models.Article{}, fmt.Errorf("%s: %w", op, ErrSuperseded)
	}

	if err != nil {
		s.selected = nil
		s.mu.Unlock()

		return models.Article{}, s.fail(ctx, op, OpFetchArticle, "fetch article", err)
	}

	a := item.Data
	s.selected = &a
	s.mu.Unlock()

	s.track.End(OpFetchArticle, "")

	return a, nil
}

// CreateArticle — POST /articles, затем перечитать текущую страницу.
func (s *Articles) CreateArticle(ctx context.Context, p models.ArticlePayload) error {
	const op = "store/Articles.CreateArticle"

	if err := validation.Article(p); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return s.write(ctx, op, OpCreateArticle, "create article", "Article created successfully", "",
		cmsclient.Request{Method: http.MethodPost, Path: "/articles", Body: p, Envelope: true})
}

// UpdateArticle — PUT /articles/{documentId}, затем перечитать текущую страницу.
func (s *Articles) UpdateArticle(ctx context.Context, documentID string, p models.ArticlePayload) error {
	const op = "store/Articles.UpdateArticle"

	if err := validation.Article(p); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return s.write(ctx, op, OpUpdateArticle, "update article", "Article updated successfully", documentID,
		cmsclient.Request{Method: http.MethodPut, Path: "/articles/" + url.PathEscape(documentID), Body: p, Envelope: true})
}

// DeleteArticle — DELETE /articles/{documentId}, затем перечитать текущую страницу.
func (s *Articles) DeleteArticle(ctx context.Context, documentID string) error {
	const op = "store/Articles.DeleteArticle"

	return s.write(ctx, op, OpDeleteArticle, "delete article", "Article deleted successfully", documentID,
		cmsclient.Request{Method: http.MethodDelete, Path: "/articles/" + url.PathEscape(documentID)})
}

// write — общий путь мутации: токен обязателен, состояние при ошибке
// не трогается, refetch выполняется только после успешного ответа.
// Ошибка refetch отражается в состоянии списка, а не в результате записи.
func (s *Articles) write(ctx context.Context, op, opName, action, success, target string, req cmsclient.Request) error {
	s.track.Begin(opName)

	req.Token = s.tokens.Token(ctx)
	if req.Token == "" {
		return s.fail(ctx, op, opName, action, ErrUnauthorized)
	}

	if err := s.client.Do(ctx, req, nil); err != nil {
		return s.fail(ctx, op, opName, action, err)
	}

	s.mu.Lock()
	if target != "" {
		s.stale[target] = s.track.seqOf(keyArticleList)
		if s.selected != nil && s.selected.DocumentID == target {
			s.selected = nil
		}
	}
	params := s.params
	s.mu.Unlock()

	s.track.End(opName, "")
	s.notifier.Success(ctx, success)
	log.Op(ctx, op).Info("article_written", "document_id", target)

	if err := s.FetchArticles(ctx, params); err != nil && !errors.Is(err, ErrSuperseded) {
		log.Op(ctx, op).Warn("article_refetch_failed", "err", err)
	}

	return nil
}

// cached — статья из коллекции, если она не устарела. Вызывать под s.mu.
func (s *Articles) cached(documentID string) (models.Article, bool) {
	if _, stale := s.stale[documentID]; stale {
		return models.Article{}, false
	}

	for _, a := range s.articles {
		if a.DocumentID == documentID {
			return a, true
		}
	}

	return models.Article{}, false
}

func (s *Articles) fail(ctx context.Context, op, opName, action string, err error) error {
	msg := describe(action, err)
	s.track.End(opName, msg)
	s.notifier.Error(ctx, msg)
	log.Op(ctx, op).Warn("article_op_failed", "err", err)

	return fmt.Errorf("%s: %w", op, err)
}
