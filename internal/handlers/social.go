package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vidtube/backend/internal/auth"
)

// SocialHandler serves likes, subscriptions, comments, and channel pages.
type SocialHandler struct {
	Social SocialService
}

type toggleResponse struct {
	Active bool `json:"active"`
}

// ToggleVideoLike handles POST /api/v1/likes/video?id= requests.
func (h SocialHandler) ToggleVideoLike(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "video liked", "video like removed", h.Social.ToggleVideoLike)
}

// ToggleCommentLike handles POST /api/v1/likes/comment?id= requests.
func (h SocialHandler) ToggleCommentLike(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "comment liked", "comment like removed", h.Social.ToggleCommentLike)
}

func (h SocialHandler) toggle(w http.ResponseWriter, r *http.Request, onMsg, offMsg string, fn toggleFunc) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	id := r.URL.Query().Get("id")
	if id == "" {
		respondValidation(ctx, w, "id is required")
		return
	}

	active, err := fn(ctx, auth.UserIDFromContext(ctx), id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	msg := offMsg
	if active {
		msg = onMsg
	}
	respondJSON(ctx, w, http.StatusOK, toggleResponse{Active: active}, msg)
}

// ToggleSubscription handles POST /api/v1/subscriptions?channelId= requests.
func (h SocialHandler) ToggleSubscription(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	channelID := r.URL.Query().Get("channelId")
	if channelID == "" {
		respondValidation(ctx, w, "channelId is required")
		return
	}

	active, err := h.Social.ToggleSubscription(ctx, auth.UserIDFromContext(ctx), channelID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	msg := "unsubscribed from channel"
	if active {
		msg = "subscribed to channel"
	}
	respondJSON(ctx, w, http.StatusOK, toggleResponse{Active: active}, msg)
}

// Comments handles /api/v1/comments requests: POST adds a comment, GET
// lists a video's comments, DELETE removes the caller's own comment.
func (h SocialHandler) Comments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.addComment(w, r)
	case http.MethodGet:
		h.listComments(w, r)
	case http.MethodDelete:
		h.deleteComment(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h SocialHandler) addComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		VideoID string `json:"videoId"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondValidation(ctx, w, "invalid request body")
		return
	}

	req.Content = strings.TrimSpace(req.Content)
	if req.VideoID == "" || req.Content == "" {
		respondValidation(ctx, w, "videoId and content are required")
		return
	}

	comment, err := h.Social.AddComment(ctx, auth.UserIDFromContext(ctx), req.VideoID, req.Content)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, comment, "comment added")
}

func (h SocialHandler) listComments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	videoID := r.URL.Query().Get("videoId")
	if videoID == "" {
		respondValidation(ctx, w, "videoId is required")
		return
	}

	comments, err := h.Social.ListComments(ctx, videoID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, comments, "comments fetched")
}

func (h SocialHandler) deleteComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := r.URL.Query().Get("id")
	if id == "" {
		respondValidation(ctx, w, "id is required")
		return
	}

	if err := h.Social.DeleteComment(ctx, auth.UserIDFromContext(ctx), id); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, struct{}{}, "comment deleted")
}

// Channel handles GET /api/v1/channels?username= requests. Viewer identity
// is optional; when present the response reports subscription state.
func (h SocialHandler) Channel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	username := strings.TrimSpace(strings.ToLower(r.URL.Query().Get("username")))
	if username == "" {
		respondValidation(ctx, w, "username is required")
		return
	}

	profile, err := h.Social.ChannelProfile(ctx, username, auth.UserIDFromContext(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, profile, "channel profile fetched")
}

type toggleFunc func(ctx context.Context, userID, targetID string) (bool, error)
