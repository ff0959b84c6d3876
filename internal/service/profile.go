package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/vocapp/internal/apperror"
	"github.com/sakif/vocapp/internal/identity"
	"github.com/sakif/vocapp/internal/model"
	"github.com/sakif/vocapp/internal/repository"
)

// ProfileService creates and reads user profiles.
type ProfileService struct {
	profiles repository.ProfileRepository
	logger   *slog.Logger
}

func NewProfileService(profiles repository.ProfileRepository, logger *slog.Logger) *ProfileService {
	return &ProfileService{profiles: profiles, logger: logger}
}

// Onboard creates the profile for a principal that has none: free tier, an
// empty deck list and the chosen native language.
func (s *ProfileService) Onboard(ctx context.Context, p identity.Principal, nativeLanguage string) (*model.UserProfile, error) {
	if p.ID == "" {
		return nil, apperror.Unauthenticated("sign in before onboarding")
	}
	lang, ok := model.LookupLanguage(nativeLanguage)
	if !ok {
		return nil, apperror.ValidationFailed("nativeLanguage", fmt.Sprintf("unsupported language %q", nativeLanguage))
	}

	_, err := s.profiles.Get(ctx, p.ID)
	switch {
	case err == nil:
		return nil, apperror.Conflict("profile", p.ID)
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("service/profile: checking profile %s: %w", p.ID, err)
	}

	profile := &model.UserProfile{
		ID:             p.ID,
		VocabIDs:       []string{},
		NativeLanguage: lang.Code,
		Name:           ProfileName(p),
		Tier:           model.TierFree,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("service/profile: creating profile %s: %w", p.ID, err)
	}

	s.logger.Info("user onboarded",
		slog.String("userID", p.ID),
		slog.String("nativeLanguage", lang.Code),
	)
	return profile, nil
}

// Get returns the profile, or ErrNotFound when the user has not onboarded.
func (s *ProfileService) Get(ctx context.Context, userID string) (*model.UserProfile, error) {
	return s.profiles.Get(ctx, userID)
}

// ProfileName picks the display name stored on a new profile: the
// principal's display name, else the local part of the email, else "User".
func ProfileName(p identity.Principal) string {
	if name := strings.TrimSpace(p.DisplayName); name != "" {
		return name
	}
	if local, _, ok := strings.Cut(strings.TrimSpace(p.Email), "@"); ok && local != "" {
		return local
	}
	return "User"
}
