package handlers

import (
	"net/http"
	"strings"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/tokens"
)

// requireAuth wraps a handler so it only runs with a verified access token,
// taken from the access cookie or an Authorization bearer header. The
// authenticated user ID is stored on the request context.
func requireAuth(verifier TokenVerifier, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authenticatedUser(verifier, r)
		if userID == "" {
			respondJSON(r.Context(), w, http.StatusUnauthorized, nil, "unauthorized")
			return
		}
		next(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
	}
}

// maybeAuth attaches the user ID when a valid access token is present but
// lets anonymous requests through.
func maybeAuth(verifier TokenVerifier, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if userID := authenticatedUser(verifier, r); userID != "" {
			r = r.WithContext(auth.WithUserID(r.Context(), userID))
		}
		next(w, r)
	}
}

func authenticatedUser(verifier TokenVerifier, r *http.Request) string {
	if verifier == nil {
		return ""
	}

	token := ""
	if cookie, err := r.Cookie(accessCookieName); err == nil {
		token = cookie.Value
	}
	if token == "" {
		header := r.Header.Get("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			token = strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		}
	}
	if token == "" {
		return ""
	}

	claims, err := verifier.Verify(token, tokens.TypeAccess)
	if err != nil {
		return ""
	}

	return claims.Subject
}
