package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/pribylovaa/articles-cms/internal/errors"
	"github.com/pribylovaa/articles-cms/internal/validation"
)

// OpenThread — POST /threads/{articleDocumentId}: открыть панель (предыдущая закрывается).
func (h *Handlers) OpenThread(w http.ResponseWriter, r *http.Request) {
	if err := h.App.Comments.OpenThread(r.Context(), chi.URLParam(r, "articleDocumentId")); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.App.Comments.Snapshot())
}

// CloseThread — DELETE /threads.
func (h *Handlers) CloseThread(w http.ResponseWriter, _ *http.Request) {
	h.App.Comments.CloseThread()
	writeJSON(w, http.StatusOK, h.App.Comments.Snapshot())
}

// Thread — GET /threads: состояние панели без запроса к CMS.
func (h *Handlers) Thread(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.App.Comments.Snapshot())
}

type addCommentRequest struct {
	Content           string `json:"content"`
	ArticleID         int64  `json:"article_id"`
	ArticleDocumentID string `json:"article_document_id"`
}

func (h *Handlers) AddComment(w http.ResponseWriter, r *http.Request) {
	var req addCommentRequest
	if err := decodeStrict(r, &req); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if req.ArticleID < 1 || req.ArticleDocumentID == "" {
		apierrors.WriteError(w, r, validation.FieldErrors{"article": "article_id and article_document_id are required"})
		return
	}

	if err := h.App.Comments.AddComment(r.Context(), req.Content, req.ArticleID, req.ArticleDocumentID); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, h.App.Comments.Snapshot())
}

type updateCommentRequest struct {
	Content string `json:"content"`
}

func (h *Handlers) UpdateComment(w http.ResponseWriter, r *http.Request) {
	var req updateCommentRequest
	if err := decodeStrict(r, &req); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if err := h.App.Comments.UpdateComment(r.Context(), chi.URLParam(r, "documentId"), req.Content); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.App.Comments.Snapshot())
}

func (h *Handlers) DeleteComment(w http.ResponseWriter, r *http.Request) {
	if err := h.App.Comments.DeleteComment(r.Context(), chi.URLParam(r, "documentId")); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.App.Comments.Snapshot())
}
