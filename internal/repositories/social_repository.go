package repositories

import (
	"context"

	"github.com/vidtube/backend/internal/models"
)

// CommentRepository defines data access for video comments.
// DeleteByVideo removes every comment attached to a video and reports the
// number removed; deleting against an empty match set is not an error, which
// keeps cascade deletion retryable.
type CommentRepository interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	ListByVideo(ctx context.Context, videoID string) ([]models.Comment, error)
	Delete(ctx context.Context, id string) error
	DeleteByVideo(ctx context.Context, videoID string) (int64, error)
}

// LikeRepository defines data access for like join rows.
type LikeRepository interface {
	Create(ctx context.Context, like models.Like) error
	FindByUserAndVideo(ctx context.Context, userID, videoID string) (models.Like, error)
	FindByUserAndComment(ctx context.Context, userID, commentID string) (models.Like, error)
	Delete(ctx context.Context, id string) error
	DeleteByVideo(ctx context.Context, videoID string) (int64, error)
	DeleteByComment(ctx context.Context, commentID string) (int64, error)
}

// SubscriptionRepository defines data access for subscription join rows.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub models.Subscription) error
	FindPair(ctx context.Context, subscriberID, channelID string) (models.Subscription, error)
	Delete(ctx context.Context, id string) error
	CountForChannel(ctx context.Context, channelID string) (int64, error)
	CountForSubscriber(ctx context.Context, subscriberID string) (int64, error)
}

// WatchHistoryRepository appends and lists per-user watch history, ordered
// most recent first.
type WatchHistoryRepository interface {
	Append(ctx context.Context, entry models.WatchEntry) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.WatchEntry, error)
}
