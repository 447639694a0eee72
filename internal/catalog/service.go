package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/assets"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
)

const (
	videoFolder     = "vidtube/videos"
	thumbnailFolder = "vidtube/thumbnails"
)

var (
	// ErrForbidden indicates the requester does not own the video.
	ErrForbidden = errors.New("requester does not own this video")
)

// VideoStore captures video persistence for the catalog flows.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Video, error)
	UpdateThumbnail(ctx context.Context, id string, ref models.AssetRef) error
	SetPublished(ctx context.Context, id string, published bool) error
	IncrementViews(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// CommentStore is the slice of comment persistence cascade deletion needs.
type CommentStore interface {
	DeleteByVideo(ctx context.Context, videoID string) (int64, error)
}

// LikeStore is the slice of like persistence cascade deletion needs.
type LikeStore interface {
	DeleteByVideo(ctx context.Context, videoID string) (int64, error)
}

// WatchHistoryStore records views.
type WatchHistoryStore interface {
	Append(ctx context.Context, entry models.WatchEntry) error
}

// Service implements video publishing, thumbnail replacement, viewing, and
// cascading deletion.
type Service struct {
	videos   VideoStore
	comments CommentStore
	likes    LikeStore
	history  WatchHistoryStore
	saga     *assets.Executor
	store    assets.ObjectStore

	// NowFunc overrides the clock in tests.
	NowFunc func() time.Time
}

// NewService constructs the catalog service.
func NewService(videos VideoStore, comments CommentStore, likes LikeStore, history WatchHistoryStore, saga *assets.Executor, store assets.ObjectStore) *Service {
	if videos == nil || comments == nil || likes == nil || saga == nil || store == nil {
		panic("catalog: service dependencies must not be nil")
	}
	return &Service{
		videos:   videos,
		comments: comments,
		likes:    likes,
		history:  history,
		saga:     saga,
		store:    store,
	}
}

// PublishInput carries the metadata and staged upload paths for publishing.
// Video and thumbnail are required together; handlers reject partial
// payloads before any upload starts.
type PublishInput struct {
	OwnerID       string
	Title         string
	Description   string
	VideoPath     string
	ThumbnailPath string
	Duration      float64
}

// Publish uploads the video file and thumbnail, then writes the video row.
// A failure at any point deletes whatever was uploaded within this call.
func (s *Service) Publish(ctx context.Context, in PublishInput) (models.Video, error) {
	uploads := []assets.Upload{
		{Slot: "video", LocalPath: in.VideoPath, Folder: videoFolder},
		{Slot: "thumbnail", LocalPath: in.ThumbnailPath, Folder: thumbnailFolder},
	}

	now := s.now()
	video := models.Video{
		ID:          uuid.NewString(),
		OwnerID:     in.OwnerID,
		Title:       in.Title,
		Description: in.Description,
		Duration:    in.Duration,
		Published:   true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := s.saga.Run(ctx, uploads, func(ctx context.Context, refs map[string]models.AssetRef) error {
		video.VideoFile = refs["video"]
		video.Thumbnail = refs["thumbnail"]
		return s.videos.Create(ctx, video)
	})
	if err != nil {
		return models.Video{}, err
	}

	logging.FromContext(ctx).Info("video published", "videoId", video.ID, "ownerId", video.OwnerID)
	return video, nil
}

// ReplaceThumbnail swaps a video's thumbnail for a newly uploaded one. The
// superseded object is deleted best-effort after the record commit.
func (s *Service) ReplaceThumbnail(ctx context.Context, videoID, requesterID, localPath string) (models.Video, error) {
	video, err := s.authorize(ctx, videoID, requesterID)
	if err != nil {
		return models.Video{}, err
	}

	uploads := []assets.Upload{
		{Slot: "thumbnail", LocalPath: localPath, Folder: thumbnailFolder, Previous: video.Thumbnail},
	}

	refs, err := s.saga.Run(ctx, uploads, func(ctx context.Context, refs map[string]models.AssetRef) error {
		return s.videos.UpdateThumbnail(ctx, videoID, refs["thumbnail"])
	})
	if err != nil {
		return models.Video{}, err
	}

	video.Thumbnail = refs["thumbnail"]
	return video, nil
}

// Delete removes a video, its external objects, and every dependent record.
//
// The order is fixed: external objects (best-effort), comments, likes, then
// the video row. Dependents go before the owner so a crash mid-sequence can
// only leave orphaned dependents pointing at a doomed video, never a deleted
// video with live dependents. Every step is a delete-where-match, so
// re-running the same deletion after a crash converges.
func (s *Service) Delete(ctx context.Context, videoID, requesterID string) error {
	video, err := s.authorize(ctx, videoID, requesterID)
	if err != nil {
		return err
	}

	ctx, span := logging.StartSpan(ctx, "catalog.delete")
	defer span.End()

	logger := logging.FromContext(ctx)

	for _, ref := range []models.AssetRef{video.VideoFile, video.Thumbnail} {
		if ref.IsZero() {
			continue
		}
		if err := s.store.Delete(ctx, ref.Key); err != nil {
			logger.Warn("delete external object", "videoId", videoID, "key", ref.Key, "error", err)
		}
	}

	if n, err := s.comments.DeleteByVideo(ctx, videoID); err != nil {
		return fmt.Errorf("delete comments: %w", err)
	} else if n > 0 {
		logger.Info("deleted video comments", "videoId", videoID, "count", n)
	}

	if n, err := s.likes.DeleteByVideo(ctx, videoID); err != nil {
		return fmt.Errorf("delete likes: %w", err)
	} else if n > 0 {
		logger.Info("deleted video likes", "videoId", videoID, "count", n)
	}

	if err := s.videos.Delete(ctx, videoID); err != nil {
		return fmt.Errorf("delete video: %w", err)
	}

	logger.Info("video deleted", "videoId", videoID)
	return nil
}

// TogglePublish flips the publish flag, owner only.
func (s *Service) TogglePublish(ctx context.Context, videoID, requesterID string) (models.Video, error) {
	video, err := s.authorize(ctx, videoID, requesterID)
	if err != nil {
		return models.Video{}, err
	}

	if err := s.videos.SetPublished(ctx, videoID, !video.Published); err != nil {
		return models.Video{}, err
	}

	video.Published = !video.Published
	return video, nil
}

// View fetches a video, bumps its view counter, and appends it to the
// viewer's watch history when a viewer is known.
func (s *Service) View(ctx context.Context, videoID, viewerID string) (models.Video, error) {
	video, err := s.videos.FindByID(ctx, videoID)
	if err != nil {
		return models.Video{}, err
	}

	if err := s.videos.IncrementViews(ctx, videoID); err != nil {
		logging.FromContext(ctx).Warn("increment views", "videoId", videoID, "error", err)
	} else {
		video.Views++
	}

	if viewerID != "" && s.history != nil {
		entry := models.WatchEntry{UserID: viewerID, VideoID: videoID, WatchedAt: s.now()}
		if err := s.history.Append(ctx, entry); err != nil {
			logging.FromContext(ctx).Warn("append watch history", "videoId", videoID, "userId", viewerID, "error", err)
		}
	}

	return video, nil
}

// ListByOwner returns a channel's videos.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]models.Video, error) {
	return s.videos.ListByOwner(ctx, ownerID)
}

func (s *Service) authorize(ctx context.Context, videoID, requesterID string) (models.Video, error) {
	video, err := s.videos.FindByID(ctx, videoID)
	if err != nil {
		return models.Video{}, err
	}

	if video.OwnerID != requesterID {
		return models.Video{}, ErrForbidden
	}

	return video, nil
}

func (s *Service) now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc()
	}
	return time.Now().UTC()
}
