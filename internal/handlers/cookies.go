package handlers

import (
	"net/http"
	"time"

	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/models"
)

// Cookie names the session tokens travel under. The refresh token may also
// arrive in a request body for non-browser clients.
const (
	accessCookieName  = "accessToken"
	refreshCookieName = "refreshToken"
)

func writeSessionCookies(w http.ResponseWriter, cfg config.CookieConfig, pair models.SessionTokens) {
	http.SetCookie(w, sessionCookie(cfg, accessCookieName, pair.AccessToken, pair.AccessExpiresAt))
	http.SetCookie(w, sessionCookie(cfg, refreshCookieName, pair.RefreshToken, pair.RefreshExpiresAt))
}

func clearSessionCookies(w http.ResponseWriter, cfg config.CookieConfig) {
	expired := time.Unix(0, 0)
	for _, name := range []string{accessCookieName, refreshCookieName} {
		cookie := sessionCookie(cfg, name, "", expired)
		cookie.MaxAge = -1
		http.SetCookie(w, cookie)
	}
}

func sessionCookie(cfg config.CookieConfig, name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: cfg.SameSite,
	}
}
