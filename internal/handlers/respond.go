package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vidtube/backend/internal/accounts"
	"github.com/vidtube/backend/internal/assets"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/catalog"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/social"
)

// apiResponse is the uniform envelope every endpoint returns.
type apiResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	body := apiResponse{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < http.StatusBadRequest,
	}

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "message", message)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "message", message)
	}
}

func respondValidation(ctx context.Context, w http.ResponseWriter, message string) {
	respondJSON(ctx, w, http.StatusBadRequest, nil, message)
}

// respondError maps domain sentinels onto HTTP statuses with stable
// messages. Unknown errors become opaque 500s.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondJSON(ctx, w, http.StatusUnauthorized, nil, "invalid credentials")
	case errors.Is(err, auth.ErrTokenReuse):
		// Same status as any unauthorized failure; the distinct security
		// logging already happened in the coordinator.
		respondJSON(ctx, w, http.StatusUnauthorized, nil, "refresh token is invalid or expired")
	case errors.Is(err, auth.ErrUnauthorized):
		respondJSON(ctx, w, http.StatusUnauthorized, nil, "unauthorized")
	case errors.Is(err, catalog.ErrForbidden), errors.Is(err, social.ErrNotCommentAuthor):
		respondJSON(ctx, w, http.StatusForbidden, nil, "not allowed")
	case errors.Is(err, social.ErrSelfSubscription):
		respondJSON(ctx, w, http.StatusBadRequest, nil, "cannot subscribe to own channel")
	case errors.Is(err, accounts.ErrWrongPassword):
		respondJSON(ctx, w, http.StatusBadRequest, nil, "current password is incorrect")
	case errors.Is(err, repositories.ErrNotFound):
		respondJSON(ctx, w, http.StatusNotFound, nil, "not found")
	case errors.Is(err, repositories.ErrConflict):
		respondJSON(ctx, w, http.StatusConflict, nil, "already exists")
	case errors.Is(err, assets.ErrUploadFailed):
		respondJSON(ctx, w, http.StatusBadGateway, nil, "file upload failed")
	case errors.Is(err, assets.ErrPersistenceFailed):
		respondJSON(ctx, w, http.StatusInternalServerError, nil, "unable to save record")
	default:
		logging.FromContext(ctx).Error("unhandled error", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, nil, "internal error")
	}
}
