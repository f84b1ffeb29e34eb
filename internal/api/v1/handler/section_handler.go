package handler

import (
	"net/http"

	"biolink/internal/auth"
	"biolink/internal/service"

	"github.com/go-chi/chi/v5"
)

type SectionHandler struct {
	sections service.SectionService
}

func NewSectionHandler(sections service.SectionService) *SectionHandler {
	return &SectionHandler{sections: sections}
}

func (h *SectionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/sections", h.list)
	r.Post("/api/sections", h.create)
	r.Put("/api/sections/order", h.reorder)
	r.Patch("/api/sections/{id}", h.update)
	r.Delete("/api/sections/{id}", h.delete)
}

func (h *SectionHandler) list(w http.ResponseWriter, r *http.Request) {
	writeResult(w, h.sections.List(r.Context(), auth.FromContext(r.Context())))
}

func (h *SectionHandler) create(w http.ResponseWriter, r *http.Request) {
	var in service.SectionInput
	if err := decode(w, r, &in); err != nil {
		badBody(w)
		return
	}
	writeResult(w, h.sections.Create(r.Context(), auth.FromContext(r.Context()), &in))
}

func (h *SectionHandler) update(w http.ResponseWriter, r *http.Request) {
	var in service.SectionInput
	if err := decode(w, r, &in); err != nil {
		badBody(w)
		return
	}
	in.ID = chi.URLParam(r, "id")
	writeResult(w, h.sections.Update(r.Context(), auth.FromContext(r.Context()), &in))
}

func (h *SectionHandler) delete(w http.ResponseWriter, r *http.Request) {
	in := service.IDInput{ID: chi.URLParam(r, "id")}
	writeResult(w, h.sections.Delete(r.Context(), auth.FromContext(r.Context()), &in))
}

func (h *SectionHandler) reorder(w http.ResponseWriter, r *http.Request) {
	var in service.ReorderInput
	if err := decode(w, r, &in); err != nil {
		badBody(w)
		return
	}
	writeResult(w, h.sections.Reorder(r.Context(), auth.FromContext(r.Context()), &in))
}
