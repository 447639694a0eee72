package handlers

import (
	"net/http"
	"strings"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/catalog"
	"github.com/vidtube/backend/internal/logging"
)

// VideoHandler serves video publishing and lifecycle endpoints.
type VideoHandler struct {
	Catalog CatalogService
}

// Collection handles /api/v1/videos requests: POST publishes a new video,
// GET fetches one by id, DELETE removes one with its full cascade.
func (h VideoHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.publish(w, r)
	case http.MethodGet:
		h.view(w, r)
	case http.MethodDelete:
		h.remove(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h VideoHandler) publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondValidation(ctx, w, "invalid multipart form")
		return
	}

	in := catalog.PublishInput{
		OwnerID:     auth.UserIDFromContext(ctx),
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: strings.TrimSpace(r.FormValue("description")),
	}
	if in.Title == "" {
		respondValidation(ctx, w, "title is required")
		return
	}

	videoPath, err := stageFormFile(r, "videoFile")
	if err != nil {
		logger.Error("stage video upload", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, nil, "unable to read uploaded files")
		return
	}
	thumbPath, err := stageFormFile(r, "thumbnail")
	if err != nil {
		cleanupStaged(r, videoPath)
		logger.Error("stage thumbnail upload", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, nil, "unable to read uploaded files")
		return
	}
	defer cleanupStaged(r, videoPath, thumbPath)

	if videoPath == "" || thumbPath == "" {
		respondValidation(ctx, w, "videoFile and thumbnail are required")
		return
	}

	in.VideoPath = videoPath
	in.ThumbnailPath = thumbPath

	video, err := h.Catalog.Publish(ctx, in)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, video, "video published successfully")
}

func (h VideoHandler) view(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := r.URL.Query().Get("id")
	if id == "" {
		respondValidation(ctx, w, "id is required")
		return
	}

	video, err := h.Catalog.View(ctx, id, auth.UserIDFromContext(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, video, "video fetched")
}

func (h VideoHandler) remove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := r.URL.Query().Get("id")
	if id == "" {
		respondValidation(ctx, w, "id is required")
		return
	}

	if err := h.Catalog.Delete(ctx, id, auth.UserIDFromContext(ctx)); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, struct{}{}, "video deleted successfully")
}

// Mine handles GET /api/v1/videos/mine requests, listing the caller's own
// uploads including unpublished ones.
func (h VideoHandler) Mine(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	videos, err := h.Catalog.ListByOwner(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, videos, "videos fetched")
}

// ReplaceThumbnail handles POST /api/v1/videos/thumbnail?id= requests.
func (h VideoHandler) ReplaceThumbnail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	id := r.URL.Query().Get("id")
	if id == "" {
		respondValidation(ctx, w, "id is required")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondValidation(ctx, w, "invalid multipart form")
		return
	}

	path, err := stageFormFile(r, "thumbnail")
	if err != nil {
		logging.FromContext(ctx).Error("stage thumbnail upload", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, nil, "unable to read uploaded file")
		return
	}
	defer cleanupStaged(r, path)

	if path == "" {
		respondValidation(ctx, w, "thumbnail file is required")
		return
	}

	video, err := h.Catalog.ReplaceThumbnail(ctx, id, auth.UserIDFromContext(ctx), path)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, video, "thumbnail updated successfully")
}

// TogglePublish handles POST /api/v1/videos/toggle-publish?id= requests.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
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

	video, err := h.Catalog.TogglePublish(ctx, id, auth.UserIDFromContext(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, video, "publish state toggled")
}
