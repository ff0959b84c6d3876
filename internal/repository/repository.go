// Package repository declares the persistence interfaces the services depend
// on. The documents subpackage implements them on a docstore.Store.
package repository

import (
	"context"

	"github.com/sakif/vocapp/internal/model"
)

// DeckRepository stores deck documents. It knows nothing about ownership:
// linking a deck to a user is the ownership service's job.
type DeckRepository interface {
	// CreateDeck cleans the word rows, writes the deck and returns its new id.
	CreateDeck(ctx context.Context, params model.DeckParams) (string, error)

	// DeleteDeck removes the deck unconditionally.
	DeleteDeck(ctx context.Context, id string) error

	// MergeWords appends the cleaned words to the deck and returns the full
	// resulting list. It reads then overwrites the whole words field, so two
	// concurrent merges may lose one side (last writer wins).
	MergeWords(ctx context.Context, deckID string, words []model.Word) ([]model.Word, error)

	GetByID(ctx context.Context, id string) (*model.Deck, error)

	// GetManyByIDs returns the decks that exist, in the order of ids. Missing
	// ids are dropped without error.
	GetManyByIDs(ctx context.Context, ids []string) ([]model.Deck, error)
}

// ProfileRepository stores one profile per principal, keyed by principal id.
type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*model.UserProfile, error)
	Create(ctx context.Context, profile *model.UserProfile) error

	// AddDeckID and RemoveDeckID change the ownership index with the store's
	// atomic array operations.
	AddDeckID(ctx context.Context, userID, deckID string) error
	RemoveDeckID(ctx context.Context, userID, deckID string) error
}

// AccountRepository stores sign-in records.
type AccountRepository interface {
	// Create assigns account.ID. Returns ErrConflict when the email is taken.
	Create(ctx context.Context, account *model.Account) error
	GetByID(ctx context.Context, id string) (*model.Account, error)
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	GetByGitHubID(ctx context.Context, githubID int64) (*model.Account, error)
}
