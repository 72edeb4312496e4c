package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/pribylovaa/articles-cms/internal/errors"
	"github.com/pribylovaa/articles-cms/internal/models"
	"github.com/pribylovaa/articles-cms/internal/store"
)

// ListCategories — GET /categories?page&page_size.
func (h *Handlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	page, err := intParam(r, "page", store.DefaultPage)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	size, err := intParam(r, "page_size", h.App.PageSize)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if err := h.App.Categories.FetchCategories(r.Context(), page, size); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.App.Categories.Snapshot())
}

// GetCategory — GET /categories/{documentId}, всегда из CMS.
func (h *Handlers) GetCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.App.Categories.FetchDetailCategory(r.Context(), chi.URLParam(r, "documentId"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

func (h *Handlers) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var p models.CategoryPayload
	if err := decodeStrict(r, &p); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if err := h.App.Categories.CreateCategory(r.Context(), p); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, h.App.Categories.Snapshot())
}

func (h *Handlers) EditCategory(w http.ResponseWriter, r *http.Request) {
	var p models.CategoryPayload
	if err := decodeStrict(r, &p); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if err := h.App.Categories.EditCategory(r.Context(), chi.URLParam(r, "documentId"), p); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.App.Categories.Snapshot())
}

func (h *Handlers) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.App.Categories.DeleteCategory(r.Context(), chi.URLParam(r, "documentId")); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.App.Categories.Snapshot())
}
