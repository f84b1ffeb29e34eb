package handler

import (
	"net/http"

	"biolink/internal/auth"
	"biolink/internal/service"

	"github.com/go-chi/chi/v5"
)

type SettingsHandler struct {
	settings service.SettingsService
}

func NewSettingsHandler(settings service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

func (h *SettingsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/settings", h.get)
	r.Patch("/api/settings", h.update)
}

func (h *SettingsHandler) get(w http.ResponseWriter, r *http.Request) {
	writeResult(w, h.settings.Get(r.Context(), auth.FromContext(r.Context())))
}

func (h *SettingsHandler) update(w http.ResponseWriter, r *http.Request) {
	var in service.SettingsInput
	if err := decode(w, r, &in); err != nil {
		badBody(w)
		return
	}
	writeResult(w, h.settings.Update(r.Context(), auth.FromContext(r.Context()), &in))
}
