package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/vocapp/internal/model"
	"github.com/sakif/vocapp/internal/service"
)

// DeckHandler exposes the ownership operations on the caller's decks.
//
// Every route is authenticated; the deck list always comes from the
// caller's own ownership index.
type DeckHandler struct {
	ownership *service.OwnershipService
	logger    *slog.Logger
}

func NewDeckHandler(ownership *service.OwnershipService, logger *slog.Logger) *DeckHandler {
	return &DeckHandler{ownership: ownership, logger: logger}
}

type createDeckRequest struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Study       string       `json:"study"`
	Language    string       `json:"language"`
	Words       []model.Word `json:"words"`
}

type mergeWordsRequest struct {
	Words []model.Word `json:"words"`
}

// HandleList materializes the caller's decks. Ids whose deck no longer
// exists are skipped.
//
// HTTP: GET /api/decks
func (h *DeckHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r)
	if !ok {
		writeError(w, errNoPrincipal)
		return
	}

	decks, err := h.ownership.Materialize(r.Context(), p.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newDeckViews(decks))
}

// HandleGet returns one of the caller's decks.
//
// HTTP: GET /api/decks/{id}
func (h *DeckHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
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
	writeJSON(w, http.StatusOK, deckView{ID: deck.ID, Deck: *deck})
}

// HandleCreate links a new deck to the caller.
//
// HTTP: POST /api/decks
// REQUEST BODY: {"name": "...", "study": "da", "language": "en", "words": [...]}
//
// A 502 partial_link response still carries the new deck's id: the deck
// exists but is not in the caller's list.
func (h *DeckHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r)
	if !ok {
		writeError(w, errNoPrincipal)
		return
	}

	var req createDeckRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	id, err := h.ownership.LinkNewDeck(r.Context(), p.ID, model.DeckParams{
		Name:        req.Name,
		Description: req.Description,
		Study:       req.Study,
		Language:    req.Language,
		Words:       req.Words,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// HandleDelete deletes one of the caller's decks and unlinks it.
//
// HTTP: DELETE /api/decks/{id}
func (h *DeckHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r)
	if !ok {
		writeError(w, errNoPrincipal)
		return
	}

	if err := h.ownership.UnlinkAndDeleteDeck(r.Context(), p.ID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleMergeWords appends words to a deck and returns the merged list.
// Concurrent merges on one deck are last-writer-wins.
//
// HTTP: POST /api/decks/{id}/words
// REQUEST BODY: {"words": [{"word": "hus", "translation": "house"}]}
func (h *DeckHandler) HandleMergeWords(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r)
	if !ok {
		writeError(w, errNoPrincipal)
		return
	}

	var req mergeWordsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	words, err := h.ownership.MergeWordsIntoDeck(r.Context(), p.ID, chi.URLParam(r, "id"), req.Words)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]model.Word{"words": words})
}
