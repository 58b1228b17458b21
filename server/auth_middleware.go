package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/stevohstine/rolebase-access/token"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// RequireAccessToken guards a route with full access-token validation: the
// signature must verify, the algorithm must be the issued HS256, and the
// token must not be expired. This is the validation posture every consumer of
// issued tokens is expected to take.
func (s *Server) RequireAccessToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if raw == "" || raw == r.Header.Get("Authorization") {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}

		decoded, err := s.signer.Decode(raw, true)
		if err != nil || decoded.Algorithm != token.SigningAlgorithm {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey, decoded.Claims)
		next(w, r.WithContext(ctx))
	}
}

// ClaimsFromContext returns the claim set placed by RequireAccessToken.
func ClaimsFromContext(ctx context.Context) (token.ClaimSet, bool) {
	claims, ok := ctx.Value(claimsContextKey).(token.ClaimSet)
	return claims, ok
}

// MeHandler echoes the caller's verified claims.
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", contentTypeJSON)
		_ = json.NewEncoder(w).Encode(claims)
	}
}
