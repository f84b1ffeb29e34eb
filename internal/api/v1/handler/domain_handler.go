package handler

import (
	"net/http"

	"biolink/internal/auth"
	"biolink/internal/service"

	"github.com/go-chi/chi/v5"
)

type DomainHandler struct {
	domains service.DomainService
}

func NewDomainHandler(domains service.DomainService) *DomainHandler {
	return &DomainHandler{domains: domains}
}

func (h *DomainHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/domains", h.list)
	r.Post("/api/domains", h.add)
	r.Post("/api/domains/{id}/verify", h.verify)
	r.Delete("/api/domains/{id}", h.delete)
}

func (h *DomainHandler) list(w http.ResponseWriter, r *http.Request) {
	writeResult(w, h.domains.List(r.Context(), auth.FromContext(r.Context())))
}

func (h *DomainHandler) add(w http.ResponseWriter, r *http.Request) {
	var in service.DomainInput
	if err := decode(w, r, &in); err != nil {
		badBody(w)
		return
	}
	writeResult(w, h.domains.Add(r.Context(), auth.FromContext(r.Context()), &in))
}

func (h *DomainHandler) verify(w http.ResponseWriter, r *http.Request) {
	in := service.IDInput{ID: chi.URLParam(r, "id")}
	writeResult(w, h.domains.Verify(r.Context(), auth.FromContext(r.Context()), &in))
}

func (h *DomainHandler) delete(w http.ResponseWriter, r *http.Request) {
	in := service.IDInput{ID: chi.URLParam(r, "id")}
	writeResult(w, h.domains.Delete(r.Context(), auth.FromContext(r.Context()), &in))
}
