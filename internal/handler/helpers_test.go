package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sakif/vocapp/internal/auth"
	"github.com/sakif/vocapp/internal/docstore"
	"github.com/sakif/vocapp/internal/repository/documents"
	"github.com/sakif/vocapp/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// unionFailStore makes every ArrayUnion fail, which breaks phase 2 of
// linking a new deck.
type unionFailStore struct {
	*docstore.Memory
	err error
}

func (s *unionFailStore) ArrayUnion(ctx context.Context, collection, id, field string, values ...string) error {
	if s.err != nil {
		return s.err
	}
	return s.Memory.ArrayUnion(ctx, collection, id, field, values...)
}

// testEnv is a full service stack over an in-memory store.
type testEnv struct {
	store     *unionFailStore
	tokens    *auth.TokenService
	auth      *service.AuthService
	profiles  *service.ProfileService
	ownership *service.OwnershipService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := discardLogger()
	store := &unionFailStore{Memory: docstore.NewMemory()}

	tokens, err := auth.NewTokenService("handler-test-secret-at-least-32-bytes!", time.Hour)
	require.NoError(t, err)

	profileRepo := documents.NewProfiles(store)
	return &testEnv{
		store:     store,
		tokens:    tokens,
		auth:      service.NewAuthService(documents.NewAccounts(store), tokens, auth.NewPasswordServiceForTest(4), logger),
		profiles:  service.NewProfileService(profileRepo, logger),
		ownership: service.NewOwnershipService(documents.NewDecks(store, logger), profileRepo, logger),
	}
}

// onboard creates a profile for userID and returns its claims.
func (e *testEnv) onboard(t *testing.T, userID string) *auth.Claims {
	t.Helper()
	claims := &auth.Claims{UserID: userID, Email: userID + "@example.com"}
	_, err := e.profiles.Onboard(context.Background(), *service.PrincipalFromClaims(claims), "en")
	require.NoError(t, err)
	return claims
}

// request builds a request carrying claims (when non-nil) and chi URL
// params given as key/value pairs.
func request(method, target string, body any, claims *auth.Claims, params ...string) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			json.NewEncoder(&buf).Encode(body)
		}
	}
	r := httptest.NewRequest(method, target, &buf)
	r.Header.Set("Content-Type", "application/json")

	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(params); i += 2 {
		rctx.URLParams.Add(params[i], params[i+1])
	}
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	if claims != nil {
		ctx = auth.WithClaims(ctx, claims)
	}
	return r.WithContext(ctx)
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v), rr.Body.String())
	return v
}
