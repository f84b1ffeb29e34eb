package handler

import (
	"net/http"

	"biolink/internal/auth"
	"biolink/internal/service"

	"github.com/go-chi/chi/v5"
)

type SocialLinkHandler struct {
	socials service.SocialLinkService
}

func NewSocialLinkHandler(socials service.SocialLinkService) *SocialLinkHandler {
	return &SocialLinkHandler{socials: socials}
}

func (h *SocialLinkHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/social-links", h.list)
	r.Post("/api/social-links", h.create)
	r.Put("/api/social-links/order", h.reorder)
	r.Patch("/api/social-links/{id}", h.update)
	r.Delete("/api/social-links/{id}", h.delete)
}

func (h *SocialLinkHandler) list(w http.ResponseWriter, r *http.Request) {
	writeResult(w, h.socials.List(r.Context(), auth.FromContext(r.Context())))
}

func (h *SocialLinkHandler) create(w http.ResponseWriter, r *http.Request) {
	var in service.SocialLinkInput
	if err := decode(w, r, &in); err != nil {
		badBody(w)
		return
	}
	writeResult(w, h.socials.Create(r.Context(), auth.FromContext(r.Context()), &in))
}

func (h *SocialLinkHandler) update(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateSocialLinkInput
	if err := decode(w, r, &in); err != nil {
		badBody(w)
		return
	}
	in.ID = chi.URLParam(r, "id")
	writeResult(w, h.socials.Update(r.Context(), auth.FromContext(r.Context()), &in))
}

func (h *SocialLinkHandler) delete(w http.ResponseWriter, r *http.Request) {
	in := service.IDInput{ID: chi.URLParam(r, "id")}
	writeResult(w, h.socials.Delete(r.Context(), auth.FromContext(r.Context()), &in))
}

func (h *SocialLinkHandler) reorder(w http.ResponseWriter, r *http.Request) {
	var in service.ReorderInput
	if err := decode(w, r, &in); err != nil {
		badBody(w)
		return
	}
	writeResult(w, h.socials.Reorder(r.Context(), auth.FromContext(r.Context()), &in))
}
