package handler

import (
	"net/http"

	"biolink/internal/auth"
	"biolink/internal/service"

	"github.com/go-chi/chi/v5"
)

type UploadHandler struct {
	uploads service.UploadService
}

func NewUploadHandler(uploads service.UploadService) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

func (h *UploadHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/uploads", h.presign)
}

func (h *UploadHandler) presign(w http.ResponseWriter, r *http.Request) {
	var in service.UploadInput
	if err := decode(w, r, &in); err != nil {
		badBody(w)
		return
	}
	writeResult(w, h.uploads.PresignUpload(r.Context(), auth.FromContext(r.Context()), &in))
}
