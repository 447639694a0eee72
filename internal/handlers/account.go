package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/mail"
	"strconv"
	"strings"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
)

type replaceFunc func(ctx context.Context, userID, localPath string) (models.User, error)

// AccountHandler serves the authenticated user's own profile endpoints.
type AccountHandler struct {
	Accounts AccountService
	History  WatchHistoryReader
}

// Me handles GET /api/v1/account requests.
func (h AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	user, err := h.Accounts.Get(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, user.Public(), "current user fetched")
}

// UpdateDetails handles PATCH /api/v1/account/details requests.
func (h AccountHandler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch && r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	var req struct {
		FullName string `json:"fullName"`
		Email    string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondValidation(ctx, w, "invalid request body")
		return
	}

	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.FullName == "" || req.Email == "" {
		respondValidation(ctx, w, "fullName and email are required")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		respondValidation(ctx, w, "invalid email address")
		return
	}

	user, err := h.Accounts.UpdateDetails(ctx, auth.UserIDFromContext(ctx), req.FullName, req.Email)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, user.Public(), "account details updated")
}

// ChangePassword handles POST /api/v1/account/password requests.
func (h AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondValidation(ctx, w, "invalid request body")
		return
	}

	if req.CurrentPassword == "" || req.NewPassword == "" {
		respondValidation(ctx, w, "currentPassword and newPassword are required")
		return
	}
	if len(req.NewPassword) < 8 {
		respondValidation(ctx, w, "newPassword must be at least 8 characters")
		return
	}

	if err := h.Accounts.ChangePassword(ctx, auth.UserIDFromContext(ctx), req.CurrentPassword, req.NewPassword); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, struct{}{}, "password changed successfully")
}

// ReplaceAvatar handles POST /api/v1/account/avatar requests.
func (h AccountHandler) ReplaceAvatar(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, "avatar", h.Accounts.ReplaceAvatar)
}

// ReplaceCover handles POST /api/v1/account/cover requests.
func (h AccountHandler) ReplaceCover(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, "coverImage", h.Accounts.ReplaceCover)
}

func (h AccountHandler) replaceImage(w http.ResponseWriter, r *http.Request, field string, replace replaceFunc) {
	if r.Method != http.MethodPost && r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondValidation(ctx, w, "invalid multipart form")
		return
	}

	path, err := stageFormFile(r, field)
	if err != nil {
		logging.FromContext(ctx).Error("stage image upload", "field", field, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, nil, "unable to read uploaded file")
		return
	}
	defer cleanupStaged(r, path)

	if path == "" {
		respondValidation(ctx, w, field+" file is required")
		return
	}

	user, err := replace(ctx, auth.UserIDFromContext(ctx), path)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, user.Public(), field+" updated successfully")
}

// WatchHistory handles GET /api/v1/account/history requests.
func (h AccountHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondValidation(ctx, w, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	entries, err := h.History.ListByUser(ctx, auth.UserIDFromContext(ctx), limit)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, entries, "watch history fetched")
}
