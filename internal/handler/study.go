package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/vocapp/internal/service"
	"github.com/sakif/vocapp/internal/study"
)

// StudyHandler drives study sessions held in a Registry.
type StudyHandler struct {
	ownership *service.OwnershipService
	sessions  *study.Registry
	logger    *slog.Logger
}

func NewStudyHandler(ownership *service.OwnershipService, sessions *study.Registry, logger *slog.Logger) *StudyHandler {
	return &StudyHandler{ownership: ownership, sessions: sessions, logger: logger}
}

// HandleStart opens a session on one of the caller's decks, replacing any
// session the caller already had.
//
// HTTP: POST /api/decks/{id}/study
//
// 422 empty_deck when the deck has no words.
func (h *StudyHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r)
	if !ok {
		writeError(w, errNoPrincipal)
		return
	}

	deck, err := h.ownership.GetDeck(r.Context(), p.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	id, s, err := h.sessions.Open(p.ID, deck)
	if err != nil {
		writeError(w, err)
		return
	}
	h.logger.Debug("study session opened",
		slog.String("userID", p.ID),
		slog.String("deckID", deck.ID),
		slog.String("sessionID", id),
	)
	writeJSON(w, http.StatusCreated, newSessionView(id, s))
}

// HandleGet returns a session's current card.
//
// HTTP: GET /api/study/{sid}
func (h *StudyHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r)
	if !ok {
		writeError(w, errNoPrincipal)
		return
	}

	sid := chi.URLParam(r, "sid")
	s, err := h.sessions.Get(p.ID, sid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(sid, s))
}

// HandleAction applies flip, next, previous or close.
//
// HTTP: POST /api/study/{sid}/{action}
//
// 409 session_ended once the session is over. Previous on the first card
// and Flip twice are not errors.
func (h *StudyHandler) HandleAction(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r)
	if !ok {
		writeError(w, errNoPrincipal)
		return
	}

	sid := chi.URLParam(r, "sid")
	s, err := h.sessions.Get(p.ID, sid)
	if err != nil {
		writeError(w, err)
		return
	}

	switch chi.URLParam(r, "action") {
	case "flip":
		err = s.Flip()
	case "next":
		err = s.Next()
	case "previous":
		err = s.Previous()
	case "close":
		err = s.Close()
	default:
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "unknown study action " + chi.URLParam(r, "action"),
		})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(sid, s))
}

// HandleDrop forgets a session.
//
// HTTP: DELETE /api/study/{sid}
func (h *StudyHandler) HandleDrop(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r)
	if !ok {
		writeError(w, errNoPrincipal)
		return
	}

	if err := h.sessions.Drop(p.ID, chi.URLParam(r, "sid")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
