package handlers

import (
	"net/http"

	apierrors "github.com/pribylovaa/articles-cms/internal/errors"
	"github.com/pribylovaa/articles-cms/internal/models"
)

func (h *Handlers) SignIn(w http.ResponseWriter, r *http.Request) {
	var c models.Credentials
	if err := decodeStrict(r, &c); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if err := h.App.Auth.SignIn(r.Context(), c); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.App.Auth.Snapshot())
}

// SignUp — регистрация без входа: UI затем отправляет на форму входа.
func (h *Handlers) SignUp(w http.ResponseWriter, r *http.Request) {
	var reg models.Registration
	if err := decodeStrict(r, &reg); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if err := h.App.Auth.SignUp(r.Context(), reg); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, h.App.Auth.Snapshot())
}

// Me — GET /auth/me: проба сессии и текущее состояние.
// Отсутствие токена — не ошибка, а анонимное состояние.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	if err := h.App.Auth.GetMe(r.Context()); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.App.Auth.Snapshot())
}

func (h *Handlers) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.App.Auth.ClearAuth(r.Context()); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Notifications — GET /notifications: накопленные уведомления (каждое отдаётся один раз).
func (h *Handlers) Notifications(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.App.Feed.Drain())
}
