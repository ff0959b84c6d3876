package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/vocapp/internal/gate"
	"github.com/sakif/vocapp/internal/identity"
)

// BootstrapHandler runs the gate once per request. The caller's token is the
// identity provider: a valid token resolves to its principal, anything else
// resolves to signed out.
type BootstrapHandler struct {
	profiles gate.ProfileLoader
	decks    gate.DeckMaterializer
	timeouts gate.Timeouts
	logger   *slog.Logger
}

func NewBootstrapHandler(profiles gate.ProfileLoader, decks gate.DeckMaterializer, timeouts gate.Timeouts, logger *slog.Logger) *BootstrapHandler {
	return &BootstrapHandler{profiles: profiles, decks: decks, timeouts: timeouts, logger: logger}
}

type bootstrapResponse struct {
	State     gate.State          `json:"state"`
	Principal *identity.Principal `json:"principal,omitempty"`
	Profile   *profileView        `json:"profile,omitempty"`
	Decks     []deckView          `json:"decks"`
	Message   string              `json:"message,omitempty"`
	Actions   []gate.Action       `json:"actions"`
}

// HandleBootstrap reports where a client starting now would land.
//
// HTTP: GET /api/bootstrap
// Auth: Optional
//
// Always 200 with the state: an unauthenticated caller or a timeout is a
// result to show, not a transport error.
func (h *BootstrapHandler) HandleBootstrap(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r)
	session := identity.NewResolvedSession(p)

	res := gate.New(session, h.profiles, h.decks, h.timeouts, h.logger).Run(r.Context())
	if res.Err != nil && res.State.Fatal() {
		h.logger.Warn("bootstrap stopped",
			slog.String("state", res.State.String()),
			slog.String("error", res.Err.Error()),
		)
	}

	actions := res.Actions()
	if actions == nil {
		actions = []gate.Action{}
	}
	writeJSON(w, http.StatusOK, bootstrapResponse{
		State:     res.State,
		Principal: res.Principal,
		Profile:   newProfileView(res.Profile),
		Decks:     newDeckViews(res.Decks),
		Message:   res.Message(),
		Actions:   actions,
	})
}
