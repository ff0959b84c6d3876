// Package documents implements the repository interfaces on top of a
// docstore.Store. Model json tags are the document field names.
package documents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/vocapp/internal/apperror"
	"github.com/sakif/vocapp/internal/docstore"
	"github.com/sakif/vocapp/internal/model"
	"github.com/sakif/vocapp/internal/repository"
)

var (
	_ repository.DeckRepository    = (*Decks)(nil)
	_ repository.ProfileRepository = (*Profiles)(nil)
	_ repository.AccountRepository = (*Accounts)(nil)
)

// Decks is the deck repository.
type Decks struct {
	store  docstore.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewDecks returns a deck repository over store. logger records decks
// skipped while materializing.
func NewDecks(store docstore.Store, logger *slog.Logger) *Decks {
	return &Decks{store: store, logger: logger, now: time.Now}
}

// CreateDeck trims the name and description, cleans the word rows and adds
// the deck under a store-generated id, which it returns.
func (d *Decks) CreateDeck(ctx context.Context, params model.DeckParams) (string, error) {
	deck := model.Deck{
		Name:        strings.TrimSpace(params.Name),
		Description: strings.TrimSpace(params.Description),
		Study:       params.Study,
		Language:    params.Language,
		Words:       model.CleanWords(params.Words),
		CreatedAt:   d.now().UTC(),
	}
	id, err := d.store.Add(ctx, docstore.Decks, deck)
	if err != nil {
		return "", fmt.Errorf("documents: creating deck: %w", err)
	}
	return id, nil
}

// DeleteDeck removes the deck document. Deleting a missing deck is not an
// error.
func (d *Decks) DeleteDeck(ctx context.Context, id string) error {
	if err := d.store.Delete(ctx, docstore.Decks, id); err != nil {
		return fmt.Errorf("documents: deleting deck %s: %w", id, err)
	}
	return nil
}

// MergeWords appends the cleaned words to the deck and writes the whole list
// back. The read and the write are not atomic: of two concurrent merges the
// last writer wins and the other's words are lost. Returns the list written.
func (d *Decks) MergeWords(ctx context.Context, deckID string, words []model.Word) ([]model.Word, error) {
	deck, err := d.GetByID(ctx, deckID)
	if err != nil {
		return nil, err
	}

	merged := append(deck.Words, model.CleanWords(words)...)
	if merged == nil {
		merged = []model.Word{}
	}
	if err := d.store.UpdateField(ctx, docstore.Decks, deckID, "words", merged); err != nil {
		return nil, fmt.Errorf("documents: writing words of deck %s: %w", deckID, err)
	}
	return merged, nil
}

// GetByID loads one deck. A missing deck is apperror.ErrNotFound.
func (d *Decks) GetByID(ctx context.Context, id string) (*model.Deck, error) {
	var deck model.Deck
	if err := d.store.Get(ctx, docstore.Decks, id, &deck); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("deck", id)
		}
		return nil, fmt.Errorf("documents: getting deck %s: %w", id, err)
	}
	deck.ID = id
	if deck.Words == nil {
		deck.Words = []model.Word{}
	}
	return &deck, nil
}

// GetManyByIDs fetches sequentially; each Get is one round trip.
func (d *Decks) GetManyByIDs(ctx context.Context, ids []string) ([]model.Deck, error) {
	decks := make([]model.Deck, 0, len(ids))
	for _, id := range ids {
		deck, err := d.GetByID(ctx, id)
		if errors.Is(err, apperror.ErrNotFound) {
			d.logger.Debug("skipping missing deck", slog.String("deckID", id))
			continue
		}
		if err != nil {
			return nil, err
		}
		decks = append(decks, *deck)
	}
	return decks, nil
}

// Profiles is the profile repository.
type Profiles struct {
	store docstore.Store
}

// NewProfiles returns a profile repository over store. Profiles are keyed by
// user id.
func NewProfiles(store docstore.Store) *Profiles {
	return &Profiles{store: store}
}

// Get loads the profile of userID. A user who has not onboarded yet has no
// profile and gets apperror.ErrNotFound.
func (p *Profiles) Get(ctx context.Context, userID string) (*model.UserProfile, error) {
	var profile model.UserProfile
	if err := p.store.Get(ctx, docstore.Users, userID, &profile); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("profile", userID)
		}
		return nil, fmt.Errorf("documents: getting profile %s: %w", userID, err)
	}
	profile.ID = userID
	if profile.VocabIDs == nil {
		profile.VocabIDs = []string{}
	}
	return &profile, nil
}

// Create writes profile under its ID, replacing any existing document.
func (p *Profiles) Create(ctx context.Context, profile *model.UserProfile) error {
	if profile.VocabIDs == nil {
		profile.VocabIDs = []string{}
	}
	if err := p.store.Set(ctx, docstore.Users, profile.ID, profile); err != nil {
		return fmt.Errorf("documents: creating profile %s: %w", profile.ID, err)
	}
	return nil
}

// AddDeckID adds deckID to the owned-deck index. Adding an id already present
// is a no-op.
func (p *Profiles) AddDeckID(ctx context.Context, userID, deckID string) error {
	if err := p.store.ArrayUnion(ctx, docstore.Users, userID, "vocabIDs", deckID); err != nil {
		return fmt.Errorf("documents: linking deck %s to %s: %w", deckID, userID, err)
	}
	return nil
}

// RemoveDeckID removes every occurrence of deckID from the owned-deck index.
func (p *Profiles) RemoveDeckID(ctx context.Context, userID, deckID string) error {
	if err := p.store.ArrayRemove(ctx, docstore.Users, userID, "vocabIDs", deckID); err != nil {
		return fmt.Errorf("documents: unlinking deck %s from %s: %w", deckID, userID, err)
	}
	return nil
}

// Accounts is the account repository. Emails are stored lower-cased.
type Accounts struct {
	store docstore.Store
	now   func() time.Time
}

// NewAccounts returns an account repository over store.
func NewAccounts(store docstore.Store) *Accounts {
	return &Accounts{store: store, now: time.Now}
}

// Create stores a new account and sets its ID. An email already in use is
// apperror.ErrConflict.
func (a *Accounts) Create(ctx context.Context, account *model.Account) error {
	account.Email = normalizeEmail(account.Email)
	if account.Email != "" {
		existing, err := a.GetByEmail(ctx, account.Email)
		if err != nil && !errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		if existing != nil {
			return apperror.Conflict("account", existing.ID)
		}
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = a.now().UTC()
	}

	id, err := a.store.Add(ctx, docstore.Accounts, account)
	if err != nil {
		return fmt.Errorf("documents: creating account: %w", err)
	}
	account.ID = id
	return nil
}

// GetByID loads an account by its id.
func (a *Accounts) GetByID(ctx context.Context, id string) (*model.Account, error) {
	var account model.Account
	if err := a.store.Get(ctx, docstore.Accounts, id, &account); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("account", id)
		}
		return nil, fmt.Errorf("documents: getting account %s: %w", id, err)
	}
	account.ID = id
	return &account, nil
}

// GetByEmail looks an account up by email, ignoring case and surrounding
// whitespace.
func (a *Accounts) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	email = normalizeEmail(email)
	return a.queryOne(ctx, "email", email, email)
}

// GetByGitHubID finds the account linked to a GitHub user.
func (a *Accounts) GetByGitHubID(ctx context.Context, githubID int64) (*model.Account, error) {
	return a.queryOne(ctx, "githubId", githubID, fmt.Sprint(githubID))
}

func (a *Accounts) queryOne(ctx context.Context, field string, value any, label string) (*model.Account, error) {
	docs, err := a.store.Query(ctx, docstore.Accounts, field, value)
	if err != nil {
		return nil, fmt.Errorf("documents: looking up account by %s: %w", field, err)
	}
	if len(docs) == 0 {
		return nil, apperror.NotFound("account", label)
	}
	var account model.Account
	if err := docs[0].Decode(&account); err != nil {
		return nil, err
	}
	account.ID = docs[0].ID
	return &account, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
