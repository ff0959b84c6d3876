package cli

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sakif/vocapp/internal/apperror"
	"github.com/sakif/vocapp/internal/auth"
	"github.com/sakif/vocapp/internal/config"
	"github.com/sakif/vocapp/internal/docstore"
	"github.com/sakif/vocapp/internal/gate"
	"github.com/sakif/vocapp/internal/identity"
	"github.com/sakif/vocapp/internal/repository/documents"
	"github.com/sakif/vocapp/internal/server"
	"github.com/sakif/vocapp/internal/service"
)

// storeOpener is server.OpenStore; tests swap it for a shared memory store.
type storeOpener func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (docstore.Store, error)

var openStore storeOpener = server.OpenStore

// app is everything one command invocation needs.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     docstore.Store
	auth      *service.AuthService
	profiles  *service.ProfileService
	ownership *service.OwnershipService
	out       *OutputFormatter
}

// loadConfig reads --config and applies --store.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.Store != "" {
		cfg.Store.Driver = opts.Store
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger writes slog text to stderr. Commands other than serve stay
// quiet below Warn unless --verbose is set.
func newLogger(cmd *cobra.Command, cfg *config.Config, opts *RootOptions, quiet bool) *slog.Logger {
	level, _ := cfg.SlogLevel()
	if quiet && level < slog.LevelWarn {
		level = slog.LevelWarn
	}
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func openApp(cmd *cobra.Command, opts *RootOptions) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cmd, cfg, opts, true)

	store, err := openStore(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, err
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		// Tokens never leave the process, so any secret will do.
		if secret, err = randomSecret(); err != nil {
			store.Close()
			return nil, err
		}
	}
	tokens, err := auth.NewTokenService(secret, cfg.Auth.TokenTTL)
	if err != nil {
		store.Close()
		return nil, err
	}

	profileRepo := documents.NewProfiles(store)
	return &app{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		auth:      service.NewAuthService(documents.NewAccounts(store), tokens, auth.NewPasswordService(), logger),
		profiles:  service.NewProfileService(profileRepo, logger),
		ownership: service.NewOwnershipService(documents.NewDecks(store, logger), profileRepo, logger),
		out: &OutputFormatter{
			Format:    opts.Format,
			Writer:    cmd.OutOrStdout(),
			ErrWriter: cmd.ErrOrStderr(),
			Verbose:   opts.Verbose,
		},
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("cli: generating token secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// credentials are the --email/--password flags shared by the signed-in
// commands.
type credentials struct {
	Email    string
	Password string
}

func addCredentialFlags(cmd *cobra.Command, c *credentials) {
	cmd.Flags().StringVar(&c.Email, "email", "", "account email")
	cmd.Flags().StringVar(&c.Password, "password", "", "account password (or VOCAPP_PASSWORD)")
	cmd.MarkFlagRequired("email")
}

func (c *credentials) password() string {
	if c.Password != "" {
		return c.Password
	}
	return os.Getenv("VOCAPP_PASSWORD")
}

// bootstrap signs in and runs the gate, the way a client starting up does:
// the identity session is resolved by the sign-in running alongside the
// gate, so a slow sign-in hits the auth timeout.
func (a *app) bootstrap(ctx context.Context, c *credentials) (gate.Result, error) {
	session := identity.NewSession()
	loginErr := make(chan error, 1)
	go func() {
		res, err := a.auth.LoginWithPassword(ctx, c.Email, c.password())
		loginErr <- err
		if err != nil {
			session.SignOut()
			return
		}
		session.SignIn(res.Principal)
	}()

	timeouts := gate.Timeouts{Auth: a.cfg.Gate.AuthTimeout, ProfileLoad: a.cfg.Gate.ProfileLoadTimeout}
	res := gate.New(session, a.profiles, a.ownership, timeouts, a.logger,
		gate.WithObserver(func(s gate.State) { a.out.VerboseLog("gate: %s", s) }),
	).Run(ctx)
	a.out.VerboseLog("principal: %s", principalLine(res.Principal))

	switch {
	case res.State == gate.Unauthenticated:
		if err := <-loginErr; err != nil {
			return res, err
		}
		return res, apperror.Unauthenticated("sign in to continue")
	case res.Err != nil:
		return res, res.Err
	}
	return res, nil
}

// requireReady is bootstrap for commands that need an onboarded profile.
func (a *app) requireReady(ctx context.Context, c *credentials) (gate.Result, error) {
	res, err := a.bootstrap(ctx, c)
	if err != nil {
		return res, err
	}
	if res.State != gate.Ready {
		return res, &ExitError{Code: ExitFailure, Message: res.Message()}
	}
	return res, nil
}

// withApp opens the app for one command and closes it afterwards.
func withApp(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, a *app) error) error {
	a, err := openApp(cmd, opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && !errors.Is(cerr, context.Canceled) {
			a.logger.Warn("closing store", slog.String("error", cerr.Error()))
		}
	}()
	return fn(cmd.Context(), a)
}

func principalLine(p *identity.Principal) string {
	if p == nil {
		return "signed out"
	}
	return fmt.Sprintf("%s <%s>", p.ID, p.Email)
}
