package handler

import (
	"bytes"
	"net/http"
	"strings"

	"biolink/internal/render"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const msgPageNotFound = "Page not found."

type PageHandler struct {
	pages  *render.Assembler
	appURL string
	logger zerolog.Logger
}

func NewPageHandler(pages *render.Assembler, appURL string, logger zerolog.Logger) *PageHandler {
	return &PageHandler{
		pages:  pages,
		appURL: strings.TrimRight(appURL, "/"),
		logger: logger.With().Str("handler", "PageHandler").Logger(),
	}
}

// RegisterRoutes mounts the public pages. It must be registered after every
// /api route so the username pattern does not shadow them.
func (h *PageHandler) RegisterRoutes(r chi.Router) {
	r.Get("/d/{domain}", h.byDomain)
	r.Get("/{username}", h.byUsername)
}

func (h *PageHandler) byUsername(w http.ResponseWriter, r *http.Request) {
	out, err := h.pages.ByUsername(r.Context(), chi.URLParam(r, "username"))
	h.respond(w, r, out, err)
}

func (h *PageHandler) byDomain(w http.ResponseWriter, r *http.Request) {
	domain := strings.ToLower(strings.TrimSuffix(chi.URLParam(r, "domain"), "."))
	out, err := h.pages.ByDomain(r.Context(), domain)
	h.respond(w, r, out, err)
}

func (h *PageHandler) respond(w http.ResponseWriter, r *http.Request, out render.Outcome, err error) {
	asJSON := r.URL.Query().Get("format") == "json"

	switch {
	case err != nil:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Failed to assemble page")
		if asJSON {
			writeError(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
			return
		}
		http.Error(w, "Something went wrong. Please try again.", http.StatusInternalServerError)

	case out.NotFound:
		if asJSON {
			writeError(w, http.StatusNotFound, msgPageNotFound)
			return
		}
		h.writeHTML(w, http.StatusNotFound, func(b *bytes.Buffer) error { return render.WriteNotFound(b, h.appURL) })

	case out.RedirectURL != "":
		http.Redirect(w, r, out.RedirectURL, http.StatusTemporaryRedirect)

	case asJSON:
		writeJSON(w, http.StatusOK, out.Page)

	default:
		h.writeHTML(w, http.StatusOK, func(b *bytes.Buffer) error { return render.WritePage(b, out.Page) })
	}
}

// writeHTML renders into a buffer first so a template error still yields a clean 500.
func (h *PageHandler) writeHTML(w http.ResponseWriter, status int, fn func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		h.logger.Error().Err(err).Msg("Failed to render page template")
		http.Error(w, "Something went wrong. Please try again.", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
