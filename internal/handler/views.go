package handler

import (
	"github.com/sakif/vocapp/internal/model"
	"github.com/sakif/vocapp/internal/study"
)

// Documents keep their id outside the JSON body, so responses add it back.

type profileView struct {
	ID string `json:"id"`
	model.UserProfile
}

func newProfileView(p *model.UserProfile) *profileView {
	if p == nil {
		return nil
	}
	return &profileView{ID: p.ID, UserProfile: *p}
}

type deckView struct {
	ID string `json:"id"`
	model.Deck
}

func newDeckViews(decks []model.Deck) []deckView {
	out := make([]deckView, 0, len(decks))
	for _, d := range decks {
		out = append(out, deckView{ID: d.ID, Deck: d})
	}
	return out
}

type sessionView struct {
	ID       string      `json:"id"`
	DeckID   string      `json:"deckId"`
	DeckName string      `json:"deckName"`
	State    study.State `json:"state"`
	Card     model.Word  `json:"card"`
	Shown    string      `json:"shown"`
	IsFirst  bool        `json:"isFirst"`
	IsLast   bool        `json:"isLast"`
}

func newSessionView(id string, s *study.Session) sessionView {
	snap := s.Snapshot()
	return sessionView{
		ID:       id,
		DeckID:   s.DeckID(),
		DeckName: s.DeckName(),
		State:    snap.State,
		Card:     snap.Card,
		Shown:    snap.Shown,
		IsFirst:  snap.IsFirst,
		IsLast:   snap.IsLast,
	}
}
