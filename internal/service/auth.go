package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/sakif/vocapp/internal/apperror"
	"github.com/sakif/vocapp/internal/auth"
	"github.com/sakif/vocapp/internal/identity"
	"github.com/sakif/vocapp/internal/model"
	"github.com/sakif/vocapp/internal/repository"
)

// AuthService signs principals in and turns session tokens back into
// principals.
//
//	AuthHandler / CLI → AuthService → AccountRepository
//	                               ↘ TokenService, PasswordService
//
// It never sets cookies or reads requests. That stays in the handler.
type AuthService struct {
	accounts  repository.AccountRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	accounts repository.AccountRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		accounts:  accounts,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the signed-in principal with its session token.
type AuthResult struct {
	Principal identity.Principal
	Token     string
}

// Register creates an email/password account and signs it in.
func (s *AuthService) Register(ctx context.Context, email, password, displayName string) (*AuthResult, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return nil, apperror.ValidationFailed("email", "a valid email address is required")
	}
	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, err
	}

	account := &model.Account{
		Email:        addr.Address,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(displayName),
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.ValidationFailed("email", "an account with this email already exists")
		}
		return nil, fmt.Errorf("service/auth: creating account: %w", err)
	}

	s.logger.Info("account registered", slog.String("userID", account.ID))
	return s.issue(account)
}

// LoginWithPassword checks the credentials and issues a token. Unknown
// emails and wrong passwords give the same ErrUnauthenticated.
func (s *AuthService) LoginWithPassword(ctx context.Context, email, password string) (*AuthResult, error) {
	invalid := apperror.Unauthenticated("invalid email or password")

	account, err := s.accounts.GetByEmail(ctx, email)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, fmt.Errorf("service/auth: looking up account: %w", err)
	}
	if account.PasswordHash == "" {
		return nil, apperror.Unauthenticated("this account signs in with GitHub")
	}
	if err := s.passwords.Verify(account.PasswordHash, password); err != nil {
		if errors.Is(err, apperror.ErrUnauthenticated) {
			return nil, invalid
		}
		return nil, fmt.Errorf("service/auth: verifying password: %w", err)
	}

	s.logger.Info("user signed in", slog.String("userID", account.ID), slog.String("method", "password"))
	return s.issue(account)
}

// LoginOrRegisterGitHub handles the OAuth callback: it finds the account by
// GitHub id, creating it on first sign-in, and issues a token.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	account, err := s.accounts.GetByGitHubID(ctx, ghUser.ID)
	if errors.Is(err, apperror.ErrNotFound) {
		account = &model.Account{
			Email:       ghUser.Email,
			GitHubID:    ghUser.ID,
			DisplayName: ghUser.DisplayName(),
		}
		if err := s.accounts.Create(ctx, account); err != nil {
			return nil, fmt.Errorf("service/auth: creating account (githubID=%d): %w", ghUser.ID, err)
		}
		s.logger.Info("account registered", slog.String("userID", account.ID), slog.String("method", "github"))
	} else if err != nil {
		return nil, fmt.Errorf("service/auth: looking up account (githubID=%d): %w", ghUser.ID, err)
	}

	s.logger.Info("user signed in", slog.String("userID", account.ID), slog.String("method", "github"))
	return s.issue(account)
}

// Principal validates a session token.
func (s *AuthService) Principal(token string) (*identity.Principal, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	return PrincipalFromClaims(claims), nil
}

// PrincipalFromClaims converts validated token claims.
func PrincipalFromClaims(c *auth.Claims) *identity.Principal {
	return &identity.Principal{ID: c.UserID, Email: c.Email, DisplayName: c.Name}
}

func (s *AuthService) issue(account *model.Account) (*AuthResult, error) {
	p := identity.Principal{ID: account.ID, Email: account.Email, DisplayName: account.DisplayName}
	token, err := s.tokens.Generate(auth.Claims{UserID: p.ID, Email: p.Email, Name: p.DisplayName})
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for %s: %w", account.ID, err)
	}
	return &AuthResult{Principal: p, Token: token}, nil
}
