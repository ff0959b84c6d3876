package handler_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/vocapp/internal/auth"
	"github.com/sakif/vocapp/internal/gate"
	"github.com/sakif/vocapp/internal/handler"
	"github.com/sakif/vocapp/internal/model"
	"github.com/sakif/vocapp/internal/study"
)

// =========================================================================
// AUTH
// =========================================================================

func TestAuthHandler_RegisterThenLogin(t *testing.T) {
	env := newTestEnv(t)
	h := handler.NewAuthHandler(env.auth, nil, time.Hour, discardLogger())

	rr := httptest.NewRecorder()
	h.HandleRegister(rr, request(http.MethodPost, "/auth/register",
		map[string]string{"email": "Ann@Example.com", "password": "hunter22", "displayName": "Ann"}, nil))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	claims, err := env.tokens.Validate(cookies[0].Value)
	require.NoError(t, err)
	assert.Equal(t, "Ann", claims.Name)

	rr = httptest.NewRecorder()
	h.HandleLogin(rr, request(http.MethodPost, "/auth/login",
		map[string]string{"email": "ann@example.com", "password": "hunter22"}, nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.HandleLogin(rr, request(http.MethodPost, "/auth/login",
		map[string]string{"email": "ann@example.com", "password": "wrong-password"}, nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuthHandler_RejectsBadBodies(t *testing.T) {
	env := newTestEnv(t)
	h := handler.NewAuthHandler(env.auth, nil, time.Hour, discardLogger())

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"email":`},
		{"unknown field", `{"email":"a@b.c","password":"hunter22","admin":true}`},
		{"bad email", `{"email":"not-an-email","password":"hunter22"}`},
		{"short password", `{"email":"a@b.c","password":"abc"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.HandleRegister(rr, request(http.MethodPost, "/auth/register", tt.body, nil))
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	h := handler.NewAuthHandler(nil, nil, time.Hour, discardLogger())

	rr := httptest.NewRecorder()
	h.HandleLogout(rr, request(http.MethodPost, "/auth/logout", nil, nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestAuthHandler_GitHubCallbackRejectsBadState(t *testing.T) {
	gh := auth.NewGitHubProvider("id", "secret", "http://localhost/auth/github/callback")
	h := handler.NewAuthHandler(nil, gh, time.Hour, discardLogger())

	// No state cookie.
	rr := httptest.NewRecorder()
	h.HandleGitHubCallback(rr, request(http.MethodGet, "/auth/github/callback?state=abc&code=x", nil, nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// Mismatched state.
	r := request(http.MethodGet, "/auth/github/callback?state=abc&code=x", nil, nil)
	r.AddCookie(&http.Cookie{Name: "oauth_state", Value: "other"})
	rr = httptest.NewRecorder()
	h.HandleGitHubCallback(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAuthHandler_GitHubLoginSetsState(t *testing.T) {
	gh := auth.NewGitHubProvider("id", "secret", "http://localhost/auth/github/callback")
	h := handler.NewAuthHandler(nil, gh, time.Hour, discardLogger())

	rr := httptest.NewRecorder()
	h.HandleGitHubLogin(rr, request(http.MethodGet, "/auth/github/login", nil, nil))

	assert.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Contains(t, rr.Header().Get("Location"), "state="+cookies[0].Value)
}

func TestAuthHandler_Me(t *testing.T) {
	h := handler.NewAuthHandler(nil, nil, time.Hour, discardLogger())

	rr := httptest.NewRecorder()
	h.HandleMe(rr, request(http.MethodGet, "/api/me", nil, &auth.Claims{UserID: "u1", Email: "u1@example.com"}))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"id":"u1"`)

	rr = httptest.NewRecorder()
	h.HandleMe(rr, request(http.MethodGet, "/api/me", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

// =========================================================================
// PROFILE
// =========================================================================

func TestProfileHandler_OnboardAndGet(t *testing.T) {
	env := newTestEnv(t)
	h := handler.NewProfileHandler(env.profiles, discardLogger())
	claims := &auth.Claims{UserID: "u1", Email: "ann@example.com"}

	rr := httptest.NewRecorder()
	h.HandleGet(rr, request(http.MethodGet, "/api/profile", nil, claims))
	assert.Equal(t, http.StatusNotFound, rr.Code, "no profile before onboarding")

	rr = httptest.NewRecorder()
	h.HandleOnboard(rr, request(http.MethodPost, "/api/profile", map[string]string{"nativeLanguage": "EN"}, claims))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	type profileBody struct {
		ID             string   `json:"id"`
		Name           string   `json:"name"`
		NativeLanguage string   `json:"nativeLanguage"`
		Tier           string   `json:"tier"`
		VocabIDs       []string `json:"vocabIDs"`
	}
	created := decode[profileBody](t, rr)
	assert.Equal(t, profileBody{ID: "u1", Name: "ann", NativeLanguage: "en", Tier: "free", VocabIDs: []string{}}, created)

	rr = httptest.NewRecorder()
	h.HandleOnboard(rr, request(http.MethodPost, "/api/profile", map[string]string{"nativeLanguage": "en"}, claims))
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = httptest.NewRecorder()
	h.HandleGet(rr, request(http.MethodGet, "/api/profile", nil, claims))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestProfileHandler_RejectsUnknownLanguage(t *testing.T) {
	env := newTestEnv(t)
	h := handler.NewProfileHandler(env.profiles, discardLogger())

	rr := httptest.NewRecorder()
	h.HandleOnboard(rr, request(http.MethodPost, "/api/profile",
		map[string]string{"nativeLanguage": "klingon"}, &auth.Claims{UserID: "u1"}))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), `"field":"nativeLanguage"`)
}

func TestHandleLanguages(t *testing.T) {
	rr := httptest.NewRecorder()
	handler.HandleLanguages(rr, request(http.MethodGet, "/api/languages", nil, nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	langs := decode[[]model.Language](t, rr)
	assert.Len(t, langs, len(model.SupportedLanguages()))
}

// =========================================================================
// DECKS
// =========================================================================

type deckBody struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Words []model.Word `json:"words"`
}

func createDeck(t *testing.T, h *handler.DeckHandler, claims *auth.Claims, words ...model.Word) string {
	t.Helper()
	rr := httptest.NewRecorder()
	h.HandleCreate(rr, request(http.MethodPost, "/api/decks", map[string]any{
		"name": "Danish basics", "study": "da", "language": "en", "words": words,
	}, claims))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[map[string]string](t, rr)["id"]
}

func TestDeckHandler_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	h := handler.NewDeckHandler(env.ownership, discardLogger())
	claims := env.onboard(t, "u1")

	id := createDeck(t, h, claims, model.Word{Word: "hus", Translation: "house"})

	rr := httptest.NewRecorder()
	h.HandleList(rr, request(http.MethodGet, "/api/decks", nil, claims))
	require.Equal(t, http.StatusOK, rr.Code)
	decks := decode[[]deckBody](t, rr)
	require.Len(t, decks, 1)
	assert.Equal(t, id, decks[0].ID)

	rr = httptest.NewRecorder()
	h.HandleMergeWords(rr, request(http.MethodPost, "/api/decks/"+id+"/words",
		map[string]any{"words": []model.Word{{Word: "bil", Translation: "car"}, {Word: " ", Translation: "blank"}}},
		claims, "id", id))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	merged := decode[map[string][]model.Word](t, rr)["words"]
	require.Len(t, merged, 2)
	assert.Equal(t, "bil", merged[1].Word)

	rr = httptest.NewRecorder()
	h.HandleGet(rr, request(http.MethodGet, "/api/decks/"+id, nil, claims, "id", id))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[deckBody](t, rr).Words, 2)

	rr = httptest.NewRecorder()
	h.HandleDelete(rr, request(http.MethodDelete, "/api/decks/"+id, nil, claims, "id", id))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = httptest.NewRecorder()
	h.HandleList(rr, request(http.MethodGet, "/api/decks", nil, claims))
	assert.Empty(t, decode[[]deckBody](t, rr))
}

func TestDeckHandler_OtherUsersDeckIsForbidden(t *testing.T) {
	env := newTestEnv(t)
	h := handler.NewDeckHandler(env.ownership, discardLogger())
	ann := env.onboard(t, "ann")
	bob := env.onboard(t, "bob")

	id := createDeck(t, h, ann, model.Word{Word: "hus", Translation: "house"})

	rr := httptest.NewRecorder()
	h.HandleDelete(rr, request(http.MethodDelete, "/api/decks/"+id, nil, bob, "id", id))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = httptest.NewRecorder()
	h.HandleMergeWords(rr, request(http.MethodPost, "/api/decks/"+id+"/words",
		map[string]any{"words": []model.Word{{Word: "bil", Translation: "car"}}}, bob, "id", id))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestDeckHandler_CreateValidation(t *testing.T) {
	env := newTestEnv(t)
	h := handler.NewDeckHandler(env.ownership, discardLogger())
	claims := env.onboard(t, "u1")

	rr := httptest.NewRecorder()
	h.HandleCreate(rr, request(http.MethodPost, "/api/decks",
		map[string]any{"name": "  ", "study": "da", "language": "en"}, claims))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDeckHandler_PartialLinkReportsOrphan(t *testing.T) {
	env := newTestEnv(t)
	h := handler.NewDeckHandler(env.ownership, discardLogger())
	claims := env.onboard(t, "u1")
	env.store.err = errors.New("network partition")

	rr := httptest.NewRecorder()
	h.HandleCreate(rr, request(http.MethodPost, "/api/decks", map[string]any{
		"name": "Orphan", "study": "da", "language": "en",
	}, claims))

	require.Equal(t, http.StatusBadGateway, rr.Code)
	body := decode[handler.ErrorResponse](t, rr)
	assert.Equal(t, "partial_link", body.Error)
	require.NotEmpty(t, body.ID)

	// The deck exists but the user's list does not include it.
	env.store.err = nil
	rr = httptest.NewRecorder()
	h.HandleList(rr, request(http.MethodGet, "/api/decks", nil, claims))
	assert.Empty(t, decode[[]deckBody](t, rr))

	rr = httptest.NewRecorder()
	h.HandleGet(rr, request(http.MethodGet, "/api/decks/"+body.ID, nil, claims, "id", body.ID))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestDeckHandler_CreateWithoutProfileIsPartialLink(t *testing.T) {
	env := newTestEnv(t)
	h := handler.NewDeckHandler(env.ownership, discardLogger())
	claims := &auth.Claims{UserID: "not-onboarded", Email: "new@example.com"}

	rr := httptest.NewRecorder()
	h.HandleCreate(rr, request(http.MethodPost, "/api/decks", map[string]any{
		"name": "Early", "study": "da", "language": "en",
	}, claims))

	// The index update fails with NotFound, but the response is still the
	// partial link, not a 404.
	require.Equal(t, http.StatusBadGateway, rr.Code, rr.Body.String())
	body := decode[handler.ErrorResponse](t, rr)
	assert.Equal(t, "partial_link", body.Error)
	assert.NotEmpty(t, body.ID)
}

// =========================================================================
// STUDY
// =========================================================================

type sessionBody struct {
	ID    string      `json:"id"`
	State study.State `json:"state"`
	Shown string      `json:"shown"`
}

func TestStudyHandler_Walkthrough(t *testing.T) {
	env := newTestEnv(t)
	decks := handler.NewDeckHandler(env.ownership, discardLogger())
	h := handler.NewStudyHandler(env.ownership, study.NewRegistry(), discardLogger())
	claims := env.onboard(t, "u1")

	id := createDeck(t, decks, claims,
		model.Word{Word: "hus", Translation: "house"},
		model.Word{Word: "bil", Translation: "car"},
	)

	rr := httptest.NewRecorder()
	h.HandleStart(rr, request(http.MethodPost, "/api/decks/"+id+"/study", nil, claims, "id", id))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	s := decode[sessionBody](t, rr)
	assert.Equal(t, "hus", s.Shown)

	act := func(action string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		h.HandleAction(rr, request(http.MethodPost, "/api/study/"+s.ID+"/"+action, nil, claims,
			"sid", s.ID, "action", action))
		return rr
	}

	rr = act("flip")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "house", decode[sessionBody](t, rr).Shown)

	rr = act("next")
	got := decode[sessionBody](t, rr)
	assert.Equal(t, "bil", got.Shown)
	assert.False(t, got.State.Flipped)

	rr = act("next")
	got = decode[sessionBody](t, rr)
	assert.False(t, got.State.Active)

	rr = act("flip")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "session_ended")

	rr = act("jump")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestStudyHandler_EmptyDeckAndForeignSession(t *testing.T) {
	env := newTestEnv(t)
	decks := handler.NewDeckHandler(env.ownership, discardLogger())
	h := handler.NewStudyHandler(env.ownership, study.NewRegistry(), discardLogger())
	ann := env.onboard(t, "ann")
	bob := env.onboard(t, "bob")

	empty := createDeck(t, decks, ann)
	rr := httptest.NewRecorder()
	h.HandleStart(rr, request(http.MethodPost, "/api/decks/"+empty+"/study", nil, ann, "id", empty))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	full := createDeck(t, decks, ann, model.Word{Word: "hus", Translation: "house"})
	rr = httptest.NewRecorder()
	h.HandleStart(rr, request(http.MethodPost, "/api/decks/"+full+"/study", nil, ann, "id", full))
	require.Equal(t, http.StatusCreated, rr.Code)
	sid := decode[sessionBody](t, rr).ID

	rr = httptest.NewRecorder()
	h.HandleGet(rr, request(http.MethodGet, "/api/study/"+sid, nil, bob, "sid", sid))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

// =========================================================================
// BOOTSTRAP
// =========================================================================

type bootstrapBody struct {
	State   string        `json:"state"`
	Decks   []deckBody    `json:"decks"`
	Message string        `json:"message"`
	Actions []gate.Action `json:"actions"`
}

func TestBootstrapHandler(t *testing.T) {
	env := newTestEnv(t)
	h := handler.NewBootstrapHandler(env.profiles, env.ownership, gate.DefaultTimeouts, discardLogger())
	decks := handler.NewDeckHandler(env.ownership, discardLogger())

	t.Run("anonymous", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.HandleBootstrap(rr, request(http.MethodGet, "/api/bootstrap", nil, nil))
		require.Equal(t, http.StatusOK, rr.Code)
		body := decode[bootstrapBody](t, rr)
		assert.Equal(t, "unauthenticated", body.State)
		assert.Equal(t, []gate.Action{gate.ActionLogin}, body.Actions)
	})

	t.Run("needs onboarding", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.HandleBootstrap(rr, request(http.MethodGet, "/api/bootstrap", nil, &auth.Claims{UserID: "new"}))
		body := decode[bootstrapBody](t, rr)
		assert.Equal(t, "needs_onboarding", body.State)
		assert.Empty(t, body.Actions)
	})

	t.Run("ready", func(t *testing.T) {
		claims := env.onboard(t, "u1")
		createDeck(t, decks, claims, model.Word{Word: "hus", Translation: "house"})

		rr := httptest.NewRecorder()
		h.HandleBootstrap(rr, request(http.MethodGet, "/api/bootstrap", nil, claims))
		body := decode[bootstrapBody](t, rr)
		assert.Equal(t, "ready", body.State)
		require.Len(t, body.Decks, 1)
		assert.Equal(t, "Danish basics", body.Decks[0].Name)
		assert.True(t, strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json"))
	})
}
