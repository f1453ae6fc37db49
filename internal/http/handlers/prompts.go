package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"styleai/internal/domain"
)

type promptRequest struct {
	Title      string `json:"title"`
	PromptText string `json:"prompt_text"`
	StyleType  string `json:"style_type"`
	IsFavorite bool   `json:"is_favorite"`
}

func (a *App) CreatePrompt(w http.ResponseWriter, r *http.Request) {
	userID := a.requireUser(w, r)
	if userID == "" {
		return
	}
	var req promptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	p := &domain.SavedPrompt{
		UserID:     userID,
		Title:      req.Title,
		PromptText: req.PromptText,
		StyleType:  req.StyleType,
		IsFavorite: req.IsFavorite,
	}
	if err := a.Prompts.Create(r.Context(), p); err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, map[string]any{"prompt": p})
}

func (a *App) ListPrompts(w http.ResponseWriter, r *http.Request) {
	userID := a.requireUser(w, r)
	if userID == "" {
		return
	}
	prompts, err := a.Prompts.ListByUser(r.Context(), userID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"prompts": prompts})
}

// UpdatePrompt applies a partial update; absent fields keep their values.
func (a *App) UpdatePrompt(w http.ResponseWriter, r *http.Request) {
	userID := a.requireUser(w, r)
	if userID == "" {
		return
	}
	var patch domain.PromptPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	p, err := a.Prompts.GetByID(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	p.Apply(patch)
	if err := a.Prompts.Update(r.Context(), p); err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"prompt": p})
}

func (a *App) DeletePrompt(w http.ResponseWriter, r *http.Request) {
	userID := a.requireUser(w, r)
	if userID == "" {
		return
	}
	if err := a.Prompts.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
