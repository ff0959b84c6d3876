package handler

import (
	"net/http"

	"github.com/sakif/vocapp/internal/apperror"
	"github.com/sakif/vocapp/internal/auth"
	"github.com/sakif/vocapp/internal/identity"
	"github.com/sakif/vocapp/internal/service"
)

// errNoPrincipal only fires if a protected route was registered without
// RequireAuth.
var errNoPrincipal = apperror.Unauthenticated("valid authentication required")

// principalFrom reads the principal that auth.RequireAuth or
// auth.OptionalAuth stored in the request context.
func principalFrom(r *http.Request) (*identity.Principal, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		return nil, false
	}
	return service.PrincipalFromClaims(claims), true
}
