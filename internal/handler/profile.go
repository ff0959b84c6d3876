package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/vocapp/internal/model"
	"github.com/sakif/vocapp/internal/service"
)

// ProfileHandler serves onboarding and the caller's own profile.
type ProfileHandler struct {
	profiles *service.ProfileService
	logger   *slog.Logger
}

func NewProfileHandler(profiles *service.ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, logger: logger}
}

type onboardRequest struct {
	NativeLanguage string `json:"nativeLanguage"`
}

// HandleOnboard creates the caller's profile.
//
// HTTP: POST /api/profile
// REQUEST BODY: {"nativeLanguage": "en"}
// Auth: Required
//
// 409 when the profile already exists.
func (h *ProfileHandler) HandleOnboard(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r)
	if !ok {
		writeError(w, errNoPrincipal)
		return
	}

	var req onboardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	profile, err := h.profiles.Onboard(r.Context(), *p, req.NativeLanguage)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newProfileView(profile))
}

// HandleGet returns the caller's profile, 404 before onboarding.
//
// HTTP: GET /api/profile
// Auth: Required
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r)
	if !ok {
		writeError(w, errNoPrincipal)
		return
	}

	profile, err := h.profiles.Get(r.Context(), p.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newProfileView(profile))
}

// HandleLanguages lists the languages accepted for native and study
// languages.
//
// HTTP: GET /api/languages
func HandleLanguages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.SupportedLanguages())
}
