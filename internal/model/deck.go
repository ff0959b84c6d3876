package model

import (
	"math"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Deck is a named, ordered list of words for one study/native language pair.
// The order of Words is the study order.
type Deck struct {
	ID          string    `json:"-"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Study       string    `json:"study"`    // language being learnt
	Language    string    `json:"language"` // learner's native language
	Words       []Word    `json:"words"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Word is one card of a deck.
//
// Accuracy is written once when the word is created and never updated.
// Picture is an opaque base64 image.
type Word struct {
	Word        string  `json:"word"`
	Translation string  `json:"translation"`
	Example     string  `json:"example,omitempty"`
	Picture     string  `json:"picture,omitempty"`
	Accuracy    float64 `json:"accuracy"`
}

// DeckParams holds the caller-supplied fields of a new deck.
type DeckParams struct {
	Name        string
	Description string
	Study       string
	Language    string
	Words       []Word
}

// CleanWords normalises word rows and silently drops the ones whose word or
// translation is blank. Order is preserved. Accuracy is clamped to [0,1].
func CleanWords(rows []Word) []Word {
	out := make([]Word, 0, len(rows))
	for _, r := range rows {
		w := Word{
			Word:        normalize(r.Word),
			Translation: normalize(r.Translation),
			Example:     normalize(r.Example),
			Picture:     strings.TrimSpace(r.Picture),
			Accuracy:    clamp01(r.Accuracy),
		}
		if w.Word == "" || w.Translation == "" {
			continue
		}
		out = append(out, w)
	}
	return out
}

// normalize trims surrounding whitespace and composes the text to NFC so the
// same word typed on different keyboards is stored the same way.
func normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func clamp01(f float64) float64 {
	switch {
	case f < 0 || math.IsNaN(f):
		return 0
	case f > 1:
		return 1
	}
	return f
}
