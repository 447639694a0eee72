package handlers

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"strings"

	"github.com/vidtube/backend/internal/accounts"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
)

// AuthHandler implements registration and session endpoints.
type AuthHandler struct {
	Accounts AccountService
	Sessions SessionCoordinator
	Cookies  config.CookieConfig
	Limiter  RateLimiter
}

// Register handles POST /api/v1/auth/register requests. Registration is a
// multipart form: text fields plus a required avatar file and an optional
// cover image.
func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "register") {
		respondJSON(ctx, w, http.StatusTooManyRequests, nil, "too many requests")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		logger.Warn("invalid register payload", "error", err)
		respondValidation(ctx, w, "invalid multipart form")
		return
	}

	in := accounts.RegisterInput{
		Username: strings.TrimSpace(strings.ToLower(r.FormValue("username"))),
		FullName: strings.TrimSpace(r.FormValue("fullName")),
		Email:    strings.TrimSpace(strings.ToLower(r.FormValue("email"))),
		Password: r.FormValue("password"),
	}

	if in.Username == "" || in.FullName == "" || in.Email == "" || in.Password == "" {
		respondValidation(ctx, w, "username, fullName, email and password are required")
		return
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		respondValidation(ctx, w, "invalid email address")
		return
	}
	if len(in.Password) < 8 {
		respondValidation(ctx, w, "password must be at least 8 characters")
		return
	}

	avatarPath, err := stageFormFile(r, "avatar")
	if err != nil {
		logger.Error("stage avatar upload", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, nil, "unable to read uploaded files")
		return
	}
	coverPath, err := stageFormFile(r, "coverImage")
	if err != nil {
		cleanupStaged(r, avatarPath)
		logger.Error("stage cover upload", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, nil, "unable to read uploaded files")
		return
	}
	defer cleanupStaged(r, avatarPath, coverPath)

	if avatarPath == "" {
		respondValidation(ctx, w, "avatar file is required")
		return
	}

	in.AvatarPath = avatarPath
	in.CoverPath = coverPath

	user, err := h.Accounts.Register(ctx, in)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, user.Public(), "user registered successfully")
}

// Login handles POST /api/v1/auth/login requests. A successful login
// replaces any previously active session for the user.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	if !allowRequest(h.Limiter, r, "login") {
		respondJSON(ctx, w, http.StatusTooManyRequests, nil, "too many requests")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondValidation(ctx, w, "invalid request body")
		return
	}

	identity := strings.TrimSpace(strings.ToLower(firstNonEmpty(req.Username, req.Email)))
	if identity == "" || req.Password == "" {
		respondValidation(ctx, w, "username or email, and password are required")
		return
	}

	user, pair, err := h.Sessions.Login(ctx, identity, req.Password)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	writeSessionCookies(w, h.Cookies, pair)
	respondJSON(ctx, w, http.StatusOK, loginResponse{
		User:   user.Public(),
		Tokens: pair,
	}, "user logged in successfully")
}

// Refresh handles POST /api/v1/auth/refresh requests. The refresh token is
// read from its cookie, falling back to the request body for non-browser
// clients.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	if !allowRequest(h.Limiter, r, "refresh") {
		respondJSON(ctx, w, http.StatusTooManyRequests, nil, "too many requests")
		return
	}

	token := ""
	if cookie, err := r.Cookie(refreshCookieName); err == nil {
		token = cookie.Value
	}
	if token == "" && r.Body != nil {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			token = strings.TrimSpace(req.RefreshToken)
		}
	}

	if token == "" {
		respondJSON(ctx, w, http.StatusUnauthorized, nil, "refresh token is required")
		return
	}

	pair, err := h.Sessions.Refresh(ctx, token)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	writeSessionCookies(w, h.Cookies, pair)
	respondJSON(ctx, w, http.StatusOK, pair, "access token refreshed")
}

// Logout handles POST /api/v1/auth/logout requests. Logging out twice is
// not an error.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	userID := auth.UserIDFromContext(ctx)

	if err := h.Sessions.Logout(ctx, userID); err != nil {
		respondError(ctx, w, err)
		return
	}

	clearSessionCookies(w, h.Cookies)
	respondJSON(ctx, w, http.StatusOK, struct{}{}, "user logged out successfully")
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type loginResponse struct {
	User   models.PublicUser    `json:"user"`
	Tokens models.SessionTokens `json:"tokens"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
