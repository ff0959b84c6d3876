// Package study runs flashcard study sessions over one materialized deck.
//
// A Session is a small state machine: a cursor over the deck's words, a
// flipped flag (front shows the word, back shows the translation) and an
// active flag. Next on the last card finishes the session instead of
// wrapping. Once inactive, a session accepts no transitions; start a new
// one to study again.
//
// Sessions are never persisted and never touch word accuracy.
package study

import (
	"fmt"
	"sync"

	"github.com/sakif/vocapp/internal/apperror"
	"github.com/sakif/vocapp/internal/model"
)

// State is a snapshot of a session.
type State struct {
	Cursor  int  `json:"cursor"`
	Flipped bool `json:"flipped"`
	Active  bool `json:"active"`
	Total   int  `json:"total"`
}

// Session is one run over a deck. It is safe for concurrent use.
type Session struct {
	mu       sync.Mutex
	deckID   string
	deckName string
	words    []model.Word
	cursor   int
	flipped  bool
	active   bool
}

// Start opens a session on the first card, front side up. A deck without
// words is rejected with ErrEmptyDeck.
func Start(deck *model.Deck) (*Session, error) {
	if deck == nil || len(deck.Words) == 0 {
		id := ""
		if deck != nil {
			id = deck.ID
		}
		return nil, apperror.EmptyDeck(id)
	}
	return &Session{
		deckID:   deck.ID,
		deckName: deck.Name,
		words:    append([]model.Word(nil), deck.Words...),
		active:   true,
	}, nil
}

// Flip turns the current card over.
func (s *Session) Flip() error {
	return s.transition(func() {
		s.flipped = !s.flipped
	})
}

// Next moves to the following card front side up, or ends the session when
// already on the last card.
func (s *Session) Next() error {
	return s.transition(func() {
		if s.cursor < len(s.words)-1 {
			s.cursor++
			s.flipped = false
			return
		}
		s.active = false
	})
}

// Previous moves back one card front side up. On the first card it does
// nothing.
func (s *Session) Previous() error {
	return s.transition(func() {
		if s.cursor > 0 {
			s.cursor--
			s.flipped = false
		}
	})
}

// Close ends the session from any card, discarding the position.
func (s *Session) Close() error {
	return s.transition(func() {
		s.active = false
	})
}

func (s *Session) transition(apply func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return apperror.SessionEnded()
	}
	apply()
	return nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{Cursor: s.cursor, Flipped: s.flipped, Active: s.active, Total: len(s.words)}
}

// Card returns the word under the cursor. After the session ends it is the
// last card shown.
func (s *Session) Card() model.Word {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.words[s.cursor]
}

// Shown is the visible side of the current card.
func (s *Session) Shown() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := s.words[s.cursor]
	if s.flipped {
		return w.Translation
	}
	return w.Word
}

// Snapshot is the whole visible session, read under one lock.
type Snapshot struct {
	State   State
	Card    model.Word
	Shown   string
	IsFirst bool
	IsLast  bool
}

// Snapshot returns the state and current card together, so a concurrent
// transition cannot leave them out of step.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := s.words[s.cursor]
	shown := w.Word
	if s.flipped {
		shown = w.Translation
	}
	return Snapshot{
		State:   State{Cursor: s.cursor, Flipped: s.flipped, Active: s.active, Total: len(s.words)},
		Card:    w,
		Shown:   shown,
		IsFirst: s.cursor == 0,
		IsLast:  s.cursor == len(s.words)-1,
	}
}

func (s *Session) IsFirst() bool {
	return s.State().Cursor == 0
}

// IsLast reports whether Next would finish the session.
func (s *Session) IsLast() bool {
	st := s.State()
	return st.Cursor == st.Total-1
}

func (s *Session) DeckID() string   { return s.deckID }
func (s *Session) DeckName() string { return s.deckName }

// Render is the one-line text form of the session used by the CLI.
func Render(s *Session) string {
	snap := s.Snapshot()
	st := snap.State
	if !st.Active {
		return "session ended"
	}
	side := "front"
	if st.Flipped {
		side = "back"
	}
	return fmt.Sprintf("card %d/%d %s: %s", st.Cursor+1, st.Total, side, snap.Shown)
}
