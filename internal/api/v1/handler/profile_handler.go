package handler

import (
	"net/http"

	"biolink/internal/auth"
	"biolink/internal/service"

	"github.com/go-chi/chi/v5"
)

type ProfileHandler struct {
	profiles service.ProfileService
}

func NewProfileHandler(profiles service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// RegisterRoutes mounts the owner's profile and account routes.
func (h *ProfileHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/onboarding", h.onboard)
	r.Get("/api/usernames/{username}", h.checkUsername)
	r.Get("/api/profile", h.get)
	r.Patch("/api/profile", h.update)
	r.Delete("/api/account", h.deleteAccount)
	r.Get("/api/flags", h.flags)
}

func (h *ProfileHandler) onboard(w http.ResponseWriter, r *http.Request) {
	var in service.OnboardingInput
	if err := decode(w, r, &in); err != nil {
		badBody(w)
		return
	}
	writeResult(w, h.profiles.CompleteOnboarding(r.Context(), auth.FromContext(r.Context()), &in))
}

func (h *ProfileHandler) checkUsername(w http.ResponseWriter, r *http.Request) {
	in := service.UsernameInput{Username: chi.URLParam(r, "username")}
	writeResult(w, h.profiles.CheckUsername(r.Context(), auth.FromContext(r.Context()), &in))
}

func (h *ProfileHandler) get(w http.ResponseWriter, r *http.Request) {
	writeResult(w, h.profiles.GetProfile(r.Context(), auth.FromContext(r.Context())))
}

func (h *ProfileHandler) update(w http.ResponseWriter, r *http.Request) {
	var in service.ProfileInput
	if err := decode(w, r, &in); err != nil {
		badBody(w)
		return
	}
	writeResult(w, h.profiles.UpdateProfile(r.Context(), auth.FromContext(r.Context()), &in))
}

func (h *ProfileHandler) deleteAccount(w http.ResponseWriter, r *http.Request) {
	writeResult(w, h.profiles.DeleteAccount(r.Context(), auth.FromContext(r.Context())))
}

func (h *ProfileHandler) flags(w http.ResponseWriter, r *http.Request) {
	writeResult(w, h.profiles.GetFlags(r.Context(), auth.FromContext(r.Context())))
}
