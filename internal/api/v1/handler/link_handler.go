package handler

import (
	"net/http"

	"biolink/internal/apperr"
	"biolink/internal/auth"
	"biolink/internal/service"

	"github.com/go-chi/chi/v5"
)

type LinkHandler struct {
	links service.LinkService
}

func NewLinkHandler(links service.LinkService) *LinkHandler {
	return &LinkHandler{links: links}
}

func (h *LinkHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/links", h.list)
	r.Post("/api/links", h.create)
	r.Put("/api/links/order", h.reorder)
	r.Patch("/api/links/{id}", h.update)
	r.Delete("/api/links/{id}", h.delete)
}

// RegisterPublicRoutes mounts the visitor click counter.
func (h *LinkHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/api/links/{id}/click", h.click)
}

func (h *LinkHandler) list(w http.ResponseWriter, r *http.Request) {
	writeResult(w, h.links.List(r.Context(), auth.FromContext(r.Context())))
}

func (h *LinkHandler) create(w http.ResponseWriter, r *http.Request) {
	var in service.CreateLinkInput
	if err := decode(w, r, &in); err != nil {
		badBody(w)
		return
	}
	writeResult(w, h.links.Create(r.Context(), auth.FromContext(r.Context()), &in))
}

func (h *LinkHandler) update(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateLinkInput
	if err := decode(w, r, &in); err != nil {
		badBody(w)
		return
	}
	in.ID = chi.URLParam(r, "id")
	writeResult(w, h.links.Update(r.Context(), auth.FromContext(r.Context()), &in))
}

func (h *LinkHandler) delete(w http.ResponseWriter, r *http.Request) {
	in := service.IDInput{ID: chi.URLParam(r, "id")}
	writeResult(w, h.links.Delete(r.Context(), auth.FromContext(r.Context()), &in))
}

func (h *LinkHandler) reorder(w http.ResponseWriter, r *http.Request) {
	var in service.ReorderInput
	if err := decode(w, r, &in); err != nil {
		badBody(w)
		return
	}
	writeResult(w, h.links.Reorder(r.Context(), auth.FromContext(r.Context()), &in))
}

// click answers 204 whether or not the count was stored; only unknown links are reported.
func (h *LinkHandler) click(w http.ResponseWriter, r *http.Request) {
	if err := h.links.RecordClick(r.Context(), chi.URLParam(r, "id")); apperr.Is(err, apperr.NotFound) {
		writeError(w, http.StatusNotFound, "Link not found.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
