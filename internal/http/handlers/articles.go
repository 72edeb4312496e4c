package handlers

import (
	"net/http"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/pribylovaa/articles-cms/internal/errors"
	"github.com/pribylovaa/articles-cms/internal/models"
	"github.com/pribylovaa/articles-cms/internal/store"
	"github.com/pribylovaa/articles-cms/internal/validation"
)

// ListArticles — GET /articles?page&page_size&search&with_auth.
func (h *Handlers) ListArticles(w http.ResponseWriter, r *http.Request) {
	var p store.ListParams
	var err error

	if p.Page, err = intParam(r, "page", store.DefaultPage); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}
	if p.PageSize, err = intParam(r, "page_size", h.App.PageSize); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}
	if p.WithAuth, err = boolParam(r, "with_auth"); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}
	p.Search = r.URL.Query().Get("search")

	if err := h.App.Articles.FetchArticles(r.Context(), p); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.App.Articles.Snapshot())
}

// ArticlesState — GET /articles/state: снапшот без запроса к CMS.
func (h *Handlers) ArticlesState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.App.Articles.Snapshot())
}

// GetArticle — GET /articles/{documentId}, сначала из текущей страницы.
func (h *Handlers) GetArticle(w http.ResponseWriter, r *http.Request) {
	a, err := h.App.Articles.FetchArticleByDocumentID(r.Context(), chi.URLParam(r, "documentId"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, a)
}

func (h *Handlers) CreateArticle(w http.ResponseWriter, r *http.Request) {
	var p models.ArticlePayload
	if err := decodeStrict(r, &p); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if err := h.App.Articles.CreateArticle(r.Context(), p); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, h.App.Articles.Snapshot())
}

func (h *Handlers) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	var p models.ArticlePayload
	if err := decodeStrict(r, &p); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if err := h.App.Articles.UpdateArticle(r.Context(), chi.URLParam(r, "documentId"), p); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.App.Articles.Snapshot())
}

func (h *Handlers) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	if err := h.App.Articles.DeleteArticle(r.Context(), chi.URLParam(r, "documentId")); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.App.Articles.Snapshot())
}

// maxSearchTerm — предел строки поиска в символах.
const maxSearchTerm = 100

type searchRequest struct {
	Term string `json:"term"`
	// Flush — не ждать окна debounce (Enter в строке поиска).
	Flush bool `json:"flush,omitempty"`
}

type searchResponse struct {
	Term    string `json:"term"`
	Pending string `json:"pending,omitempty"`
}

// SearchArticles — POST /articles/search: очередное значение строки поиска.
// Запрос к CMS уйдёт, когда значение устоится; результат — в /articles/state.
func (h *Handlers) SearchArticles(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeStrict(r, &req); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if utf8.RuneCountInString(req.Term) > maxSearchTerm {
		apierrors.WriteError(w, r, validation.FieldErrors{"term": "must not exceed 100 characters"})
		return
	}

	h.App.Search.Set(req.Term)
	if req.Flush {
		h.App.Search.Flush()
	}

	resp := searchResponse{Term: h.App.Search.Term()}
	if pending, ok := h.App.Search.Pending(); ok {
		resp.Pending = pending
	}

	writeJSON(w, http.StatusAccepted, resp)
}
