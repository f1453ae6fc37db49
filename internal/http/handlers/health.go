package handlers

import (
	"net/http"

	"styleai/internal/domain"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) Styles(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"styles": domain.Styles})
}

// RateLimitStatus reports generative-model usage against the limits.
func (a *App) RateLimitStatus(w http.ResponseWriter, r *http.Request) {
	if a.Limiter == nil {
		a.json(w, http.StatusOK, map[string]any{"enabled": false, "model": a.Model})
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"enabled": true,
		"model":   a.Model,
		"status":  a.Limiter.Status(),
	})
}
