// Package service holds the business rules that sit between the transports
// (HTTP handlers, CLI, bootstrap gate) and the repositories.
//
//	Handler / CLI / Gate → Service (rules, sagas) → Repository → docstore
//
// Services never touch HTTP. They return apperror values that each
// transport maps to its own surface.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/vocapp/internal/apperror"
	"github.com/sakif/vocapp/internal/model"
	"github.com/sakif/vocapp/internal/repository"
)

// OwnershipService keeps the deck documents and each user's ownership index
// (the profile's vocabIDs) in step.
//
// Linking and unlinking are two-phase writes with no transaction and no
// compensation. A failure between the phases leaves a known inconsistency
// and is reported as PartialLink or PartialUnlink:
//
//	link:   deck written, index not updated → orphan deck (owned by nobody)
//	unlink: deck deleted, index not updated → dangling id (skipped on read)
//
// Calls are strictly sequential and never retried.
type OwnershipService struct {
	decks    repository.DeckRepository
	profiles repository.ProfileRepository
	logger   *slog.Logger
}

func NewOwnershipService(
	decks repository.DeckRepository,
	profiles repository.ProfileRepository,
	logger *slog.Logger,
) *OwnershipService {
	return &OwnershipService{decks: decks, profiles: profiles, logger: logger}
}

// LinkNewDeck creates a deck and adds its id to userID's index.
func (s *OwnershipService) LinkNewDeck(ctx context.Context, userID string, params model.DeckParams) (string, error) {
	params, err := normalizeDeckParams(params)
	if err != nil {
		return "", err
	}

	// Phase 1: the deck document.
	deckID, err := s.decks.CreateDeck(ctx, params)
	if err != nil {
		return "", fmt.Errorf("service/ownership: creating deck: %w", err)
	}

	// Phase 2: the ownership index.
	if err := s.profiles.AddDeckID(ctx, userID, deckID); err != nil {
		s.logger.Error("deck created but not linked",
			slog.String("userID", userID),
			slog.String("deckID", deckID),
			slog.String("error", err.Error()),
		)
		return "", apperror.PartialLink(deckID, err)
	}

	s.logger.Info("deck linked", slog.String("userID", userID), slog.String("deckID", deckID))
	return deckID, nil
}

// UnlinkAndDeleteDeck deletes a deck the user owns and removes it from the
// index. A failed delete leaves the index untouched.
func (s *OwnershipService) UnlinkAndDeleteDeck(ctx context.Context, userID, deckID string) error {
	if _, err := s.requireOwner(ctx, userID, deckID); err != nil {
		return err
	}

	// Phase 1
	if err := s.decks.DeleteDeck(ctx, deckID); err != nil {
		return fmt.Errorf("service/ownership: deleting deck %s: %w", deckID, err)
	}

	// Phase 2
	if err := s.profiles.RemoveDeckID(ctx, userID, deckID); err != nil {
		s.logger.Error("deck deleted but not unlinked",
			slog.String("userID", userID),
			slog.String("deckID", deckID),
			slog.String("error", err.Error()),
		)
		return apperror.PartialUnlink(deckID, err)
	}

	s.logger.Info("deck unlinked", slog.String("userID", userID), slog.String("deckID", deckID))
	return nil
}

// MergeWordsIntoDeck appends words to an owned deck. The index is not
// touched: the deck keeps its id.
func (s *OwnershipService) MergeWordsIntoDeck(ctx context.Context, userID, deckID string, words []model.Word) ([]model.Word, error) {
	if _, err := s.requireOwner(ctx, userID, deckID); err != nil {
		return nil, err
	}
	merged, err := s.decks.MergeWords(ctx, deckID, words)
	if err != nil {
		return nil, fmt.Errorf("service/ownership: merging words into %s: %w", deckID, err)
	}
	return merged, nil
}

// Materialize resolves userID's index into decks, in index order. It is a
// point-in-time snapshot. Ids without a deck document are skipped.
// A missing profile is returned as ErrNotFound.
func (s *OwnershipService) Materialize(ctx context.Context, userID string) ([]model.Deck, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.materialize(ctx, profile)
}

// MaterializeProfile is Materialize for an already loaded profile.
func (s *OwnershipService) MaterializeProfile(ctx context.Context, profile *model.UserProfile) ([]model.Deck, error) {
	return s.materialize(ctx, profile)
}

func (s *OwnershipService) materialize(ctx context.Context, profile *model.UserProfile) ([]model.Deck, error) {
	decks, err := s.decks.GetManyByIDs(ctx, profile.VocabIDs)
	if err != nil {
		return nil, fmt.Errorf("service/ownership: materializing %s: %w", profile.ID, err)
	}
	if dangling := len(profile.VocabIDs) - len(decks); dangling > 0 {
		s.logger.Debug("skipped dangling deck references",
			slog.String("userID", profile.ID),
			slog.Int("count", dangling),
		)
	}
	return decks, nil
}

// GetDeck returns one deck the user owns.
func (s *OwnershipService) GetDeck(ctx context.Context, userID, deckID string) (*model.Deck, error) {
	if _, err := s.requireOwner(ctx, userID, deckID); err != nil {
		return nil, err
	}
	return s.decks.GetByID(ctx, deckID)
}

func (s *OwnershipService) requireOwner(ctx context.Context, userID, deckID string) (*model.UserProfile, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !profile.Owns(deckID) {
		return nil, apperror.Forbidden("deck is not in your list")
	}
	return profile, nil
}

// normalizeDeckParams requires a name and replaces both language codes with
// their supported base code.
func normalizeDeckParams(p model.DeckParams) (model.DeckParams, error) {
	if strings.TrimSpace(p.Name) == "" {
		return p, apperror.ValidationFailed("name", "deck name is required")
	}
	study, ok := model.LookupLanguage(p.Study)
	if !ok {
		return p, apperror.ValidationFailed("study", fmt.Sprintf("unsupported study language %q", p.Study))
	}
	native, ok := model.LookupLanguage(p.Language)
	if !ok {
		return p, apperror.ValidationFailed("language", fmt.Sprintf("unsupported language %q", p.Language))
	}
	p.Study = study.Code
	p.Language = native.Code
	return p, nil
}
