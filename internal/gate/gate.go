// Package gate decides what a freshly started client may show: it waits for
// the identity provider to resolve, then loads the signed-in user's profile
// and decks, each phase bounded by its own timer.
//
//	Initializing ─┬─ no event in time ─────────→ AuthTimeout
//	              ├─ signed out ───────────────→ Unauthenticated
//	              └─ principal ─→ Authenticated ─┬─ no profile ──→ NeedsOnboarding
//	                                             ├─ too slow ────→ ProfileLoadTimeout
//	                                             ├─ store error ─→ ProfileLoadError
//	                                             └─ loaded ──────→ Ready
//
// Cancelling the Run context is teardown: the subscription and every
// pending timer are released and no later transition is reported.
package gate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/sakif/vocapp/internal/apperror"
	"github.com/sakif/vocapp/internal/identity"
	"github.com/sakif/vocapp/internal/model"
)

type State int

const (
	Initializing State = iota
	Misconfigured
	AuthTimeout
	Unauthenticated
	Authenticated
	NeedsOnboarding
	ProfileLoadTimeout
	ProfileLoadError
	Ready
)

var stateNames = map[State]string{
	Initializing:       "initializing",
	Misconfigured:      "misconfigured",
	AuthTimeout:        "auth_timeout",
	Unauthenticated:    "unauthenticated",
	Authenticated:      "authenticated",
	NeedsOnboarding:    "needs_onboarding",
	ProfileLoadTimeout: "profile_load_timeout",
	ProfileLoadError:   "profile_load_error",
	Ready:              "ready",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalText lets State appear by name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Fatal states stop the client until the user reloads or signs in again.
func (s State) Fatal() bool {
	switch s {
	case Misconfigured, AuthTimeout, ProfileLoadTimeout, ProfileLoadError:
		return true
	}
	return false
}

// Action is a way out offered to the user.
type Action string

const (
	ActionReload Action = "reload"
	ActionLogin  Action = "login"
)

// Timeouts bound the two waiting phases.
type Timeouts struct {
	Auth        time.Duration
	ProfileLoad time.Duration
}

// DefaultTimeouts are the production windows.
var DefaultTimeouts = Timeouts{Auth: 10 * time.Second, ProfileLoad: 5 * time.Second}

// ProfileLoader reads a profile. ErrNotFound means "not onboarded".
type ProfileLoader interface {
	Get(ctx context.Context, userID string) (*model.UserProfile, error)
}

// DeckMaterializer resolves a profile's ownership index into decks.
type DeckMaterializer interface {
	MaterializeProfile(ctx context.Context, profile *model.UserProfile) ([]model.Deck, error)
}

// Result is where a Run stopped.
type Result struct {
	State     State
	Principal *identity.Principal
	Profile   *model.UserProfile
	Decks     []model.Deck
	Err       error
}

// Actions lists what the user can do from a terminal state.
func (r Result) Actions() []Action {
	switch {
	case r.State.Fatal():
		return []Action{ActionReload, ActionLogin}
	case r.State == Unauthenticated:
		return []Action{ActionLogin}
	}
	return nil
}

// Message is a user-facing line for the state, or "" when there is nothing
// to say.
func (r Result) Message() string {
	var appErr *apperror.AppError
	switch {
	case r.State == Unauthenticated:
		return "Sign in to continue."
	case r.State == NeedsOnboarding:
		return "Choose your native language to finish setting up."
	case r.State == ProfileLoadError:
		return "Unable to load your data. Please reload or sign in again."
	case r.State.Fatal() && errors.As(r.Err, &appErr):
		return appErr.Message
	}
	return ""
}

// Gate runs the bootstrap sequence. Build one with New.
type Gate struct {
	provider identity.Provider
	profiles ProfileLoader
	decks    DeckMaterializer
	timeouts Timeouts
	logger   *slog.Logger
	observe  func(State)
}

// Option configures a Gate.
type Option func(*Gate)

// WithObserver calls fn on every transition, from the Run goroutine.
func WithObserver(fn func(State)) Option {
	return func(g *Gate) { g.observe = fn }
}

func New(provider identity.Provider, profiles ProfileLoader, decks DeckMaterializer, timeouts Timeouts, logger *slog.Logger, opts ...Option) *Gate {
	g := &Gate{
		provider: provider,
		profiles: profiles,
		decks:    decks,
		timeouts: timeouts,
		logger:   logger,
	}
	if g.logger == nil {
		g.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type loaded struct {
	profile *model.UserProfile
	decks   []model.Deck
	err     error
}

// Run blocks until a terminal state is reached or ctx is cancelled. On
// cancellation the Result keeps the last state reached and Err is ctx.Err().
func (g *Gate) Run(ctx context.Context) Result {
	res := Result{State: Initializing}
	g.enter(&res, Initializing)

	if err := g.check(); err != nil {
		res.Err = err
		g.enter(&res, Misconfigured)
		return res
	}

	// Only the first notification matters; later ones are dropped.
	events := make(chan *identity.Principal, 1)
	sub := g.provider.Subscribe(func(p *identity.Principal) {
		select {
		case events <- p:
		default:
		}
	})
	defer sub.Unsubscribe()

	authTimer := time.NewTimer(g.timeouts.Auth)
	defer authTimer.Stop()

	var principal *identity.Principal
	select {
	case <-ctx.Done():
		res.Err = ctx.Err()
		return res
	case <-authTimer.C:
		res.Err = apperror.AuthTimeout()
		g.enter(&res, AuthTimeout)
		return res
	case principal = <-events:
		authTimer.Stop()
	}

	if principal == nil {
		g.enter(&res, Unauthenticated)
		return res
	}
	res.Principal = principal
	g.enter(&res, Authenticated)

	loadCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan loaded, 1)
	go func() { done <- g.load(loadCtx, principal.ID) }()

	profileTimer := time.NewTimer(g.timeouts.ProfileLoad)
	defer profileTimer.Stop()

	select {
	case <-ctx.Done():
		res.Err = ctx.Err()
		return res
	case <-profileTimer.C:
		res.Err = apperror.ProfileLoadTimeout()
		g.enter(&res, ProfileLoadTimeout)
		return res
	case l := <-done:
		switch {
		case l.err == nil:
			res.Profile = l.profile
			res.Decks = l.decks
			g.enter(&res, Ready)
		case l.profile == nil && errors.Is(l.err, apperror.ErrNotFound):
			g.enter(&res, NeedsOnboarding)
		default:
			res.Err = l.err
			g.logger.Error("profile load failed",
				slog.String("userID", principal.ID),
				slog.String("error", l.err.Error()),
			)
			g.enter(&res, ProfileLoadError)
		}
		return res
	}
}

// load fetches the profile and materializes its decks. Both count against
// the profile-load window.
func (g *Gate) load(ctx context.Context, userID string) loaded {
	profile, err := g.profiles.Get(ctx, userID)
	if err != nil {
		return loaded{err: err}
	}
	decks, err := g.decks.MaterializeProfile(ctx, profile)
	if err != nil {
		return loaded{profile: profile, err: err}
	}
	return loaded{profile: profile, decks: decks}
}

func (g *Gate) check() error {
	switch {
	case g.provider == nil:
		return apperror.Configuration("identity", "no identity provider configured")
	case g.profiles == nil || g.decks == nil:
		return apperror.Configuration("store", "no document store configured")
	case g.timeouts.Auth <= 0 || g.timeouts.ProfileLoad <= 0:
		return apperror.Configuration("gate", "gate timeouts must be positive")
	}
	return nil
}

func (g *Gate) enter(res *Result, s State) {
	res.State = s
	g.logger.Debug("gate transition", slog.String("state", s.String()))
	if g.observe != nil {
		g.observe(s)
	}
}
