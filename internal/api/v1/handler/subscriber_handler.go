package handler

import (
	"net/http"

	"biolink/internal/auth"
	"biolink/internal/export"
	"biolink/internal/service"

	"github.com/go-chi/chi/v5"
)

type SubscriberHandler struct {
	subscribers service.SubscriberService
}

func NewSubscriberHandler(subscribers service.SubscriberService) *SubscriberHandler {
	return &SubscriberHandler{subscribers: subscribers}
}

func (h *SubscriberHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/subscribers", h.list)
	r.Get("/api/subscribers/export", h.export)
	r.Delete("/api/subscribers/{id}", h.delete)
}

// RegisterPublicRoutes mounts the visitor subscribe and lead-capture forms.
func (h *SubscriberHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/api/subscribe", h.subscribe)
	r.Post("/api/lead-capture", h.capture)
}

type leadResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
}

func (h *SubscriberHandler) subscribe(w http.ResponseWriter, r *http.Request) {
	var in service.SubscribeInput
	if err := decode(w, r, &in); err != nil {
		badBody(w)
		return
	}
	writeResult(w, h.subscribers.Subscribe(r.Context(), &in))
}

func (h *SubscriberHandler) capture(w http.ResponseWriter, r *http.Request) {
	var in service.LeadCaptureInput
	if err := decode(w, r, &in); err != nil {
		badBody(w)
		return
	}
	res := h.subscribers.Capture(r.Context(), &in)
	if !res.OK() {
		writeError(w, res.Status(), res.Error)
		return
	}
	lead, _ := res.Data.(service.Lead)
	writeJSON(w, http.StatusOK, leadResponse{Success: true, URL: lead.URL})
}

func (h *SubscriberHandler) list(w http.ResponseWriter, r *http.Request) {
	writeResult(w, h.subscribers.List(r.Context(), auth.FromContext(r.Context())))
}

func (h *SubscriberHandler) delete(w http.ResponseWriter, r *http.Request) {
	in := service.IDInput{ID: chi.URLParam(r, "id")}
	writeResult(w, h.subscribers.Delete(r.Context(), auth.FromContext(r.Context()), &in))
}

func (h *SubscriberHandler) export(w http.ResponseWriter, r *http.Request) {
	res := h.subscribers.ExportCSV(r.Context(), auth.FromContext(r.Context()))
	out, ok := res.Data.(service.CSVExport)
	if !res.OK() || !ok {
		writeResult(w, res)
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", export.Disposition())
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Body)
}
