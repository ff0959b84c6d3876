package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/sakif/vocapp/internal/apperror"
	"github.com/sakif/vocapp/internal/model"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// The fakes are small in-memory repositories with error injection fields.
// A non-nil *Err field makes the matching method fail.

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeDeckRepo struct {
	mu     sync.Mutex
	decks  map[string]*model.Deck
	nextID int

	createErr error
	deleteErr error
	getErr    error
}

func newFakeDeckRepo() *fakeDeckRepo {
	return &fakeDeckRepo{decks: make(map[string]*model.Deck)}
}

func (f *fakeDeckRepo) CreateDeck(_ context.Context, p model.DeckParams) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.nextID++
	id := fmt.Sprintf("deck-%d", f.nextID)
	f.decks[id] = &model.Deck{
		ID:       id,
		Name:     p.Name,
		Study:    p.Study,
		Language: p.Language,
		Words:    model.CleanWords(p.Words),
	}
	return id, nil
}

func (f *fakeDeckRepo) DeleteDeck(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.decks, id)
	return nil
}

func (f *fakeDeckRepo) MergeWords(_ context.Context, deckID string, words []model.Word) ([]model.Word, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.decks[deckID]
	if !ok {
		return nil, apperror.NotFound("deck", deckID)
	}
	d.Words = append(d.Words, model.CleanWords(words)...)
	return d.Words, nil
}

func (f *fakeDeckRepo) GetByID(_ context.Context, id string) (*model.Deck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	d, ok := f.decks[id]
	if !ok {
		return nil, apperror.NotFound("deck", id)
	}
	c := *d
	return &c, nil
}

func (f *fakeDeckRepo) GetManyByIDs(ctx context.Context, ids []string) ([]model.Deck, error) {
	out := []model.Deck{}
	for _, id := range ids {
		d, err := f.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, *d)
	}
	return out, nil
}

func (f *fakeDeckRepo) exists(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.decks[id]
	return ok
}

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*model.UserProfile

	getErr    error
	createErr error
	addErr    error
	removeErr error
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[string]*model.UserProfile)}
}

func (f *fakeProfileRepo) Get(_ context.Context, userID string) (*model.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.profiles[userID]
	if !ok {
		return nil, apperror.NotFound("profile", userID)
	}
	c := *p
	c.VocabIDs = append([]string{}, p.VocabIDs...)
	return &c, nil
}

func (f *fakeProfileRepo) Create(_ context.Context, p *model.UserProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	c := *p
	f.profiles[p.ID] = &c
	return nil
}

func (f *fakeProfileRepo) AddDeckID(_ context.Context, userID, deckID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	p, ok := f.profiles[userID]
	if !ok {
		return apperror.NotFound("profile", userID)
	}
	if !p.Owns(deckID) {
		p.VocabIDs = append(p.VocabIDs, deckID)
	}
	return nil
}

func (f *fakeProfileRepo) RemoveDeckID(_ context.Context, userID, deckID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	p, ok := f.profiles[userID]
	if !ok {
		return apperror.NotFound("profile", userID)
	}
	kept := []string{}
	for _, id := range p.VocabIDs {
		if id != deckID {
			kept = append(kept, id)
		}
	}
	p.VocabIDs = kept
	return nil
}

// seed stores a profile with the given deck ids.
func (f *fakeProfileRepo) seed(userID string, deckIDs ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[userID] = &model.UserProfile{
		ID: userID, VocabIDs: append([]string{}, deckIDs...), Name: userID, Tier: model.TierFree,
	}
}

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*model.Account
	nextID   int

	createErr error
	lookupErr error
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[string]*model.Account)}
}

func (f *fakeAccountRepo) Create(_ context.Context, a *model.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	a.Email = strings.ToLower(a.Email)
	for _, existing := range f.accounts {
		if a.Email != "" && existing.Email == a.Email {
			return apperror.Conflict("account", existing.ID)
		}
	}
	f.nextID++
	a.ID = fmt.Sprintf("acct-%d", f.nextID)
	c := *a
	f.accounts[a.ID] = &c
	return nil
}

func (f *fakeAccountRepo) GetByID(_ context.Context, id string) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return nil, apperror.NotFound("account", id)
	}
	c := *a
	return &c, nil
}

func (f *fakeAccountRepo) GetByEmail(_ context.Context, email string) (*model.Account, error) {
	return f.find(func(a *model.Account) bool { return a.Email == strings.ToLower(strings.TrimSpace(email)) }, email)
}

func (f *fakeAccountRepo) GetByGitHubID(_ context.Context, id int64) (*model.Account, error) {
	return f.find(func(a *model.Account) bool { return a.GitHubID == id }, fmt.Sprint(id))
}

func (f *fakeAccountRepo) find(match func(*model.Account) bool, label string) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	for _, a := range f.accounts {
		if match(a) {
			c := *a
			return &c, nil
		}
	}
	return nil, apperror.NotFound("account", label)
}
