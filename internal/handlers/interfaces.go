package handlers

import (
	"context"

	"github.com/vidtube/backend/internal/accounts"
	"github.com/vidtube/backend/internal/catalog"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/tokens"
)

// SessionCoordinator drives login, refresh, and logout.
type SessionCoordinator interface {
	Login(ctx context.Context, identity, password string) (models.User, models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Logout(ctx context.Context, userID string) error
}

// TokenVerifier checks access tokens presented on authenticated requests.
type TokenVerifier interface {
	Verify(token, expectedType string) (*tokens.Claims, error)
}

// AccountService captures account registration and profile maintenance.
type AccountService interface {
	Register(ctx context.Context, in accounts.RegisterInput) (models.User, error)
	Get(ctx context.Context, id string) (models.User, error)
	ReplaceAvatar(ctx context.Context, userID, localPath string) (models.User, error)
	ReplaceCover(ctx context.Context, userID, localPath string) (models.User, error)
	ChangePassword(ctx context.Context, userID, current, next string) error
	UpdateDetails(ctx context.Context, userID, fullName, email string) (models.User, error)
}

// CatalogService captures video publishing and lifecycle operations.
type CatalogService interface {
	Publish(ctx context.Context, in catalog.PublishInput) (models.Video, error)
	ReplaceThumbnail(ctx context.Context, videoID, requesterID, localPath string) (models.Video, error)
	Delete(ctx context.Context, videoID, requesterID string) error
	TogglePublish(ctx context.Context, videoID, requesterID string) (models.Video, error)
	View(ctx context.Context, videoID, viewerID string) (models.Video, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Video, error)
}

// SocialService captures likes, subscriptions, and comments.
type SocialService interface {
	ToggleVideoLike(ctx context.Context, userID, videoID string) (bool, error)
	ToggleCommentLike(ctx context.Context, userID, commentID string) (bool, error)
	ToggleSubscription(ctx context.Context, subscriberID, channelID string) (bool, error)
	AddComment(ctx context.Context, userID, videoID, content string) (models.Comment, error)
	DeleteComment(ctx context.Context, userID, commentID string) error
	ListComments(ctx context.Context, videoID string) ([]models.Comment, error)
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
}

// WatchHistoryReader lists a user's viewing history.
type WatchHistoryReader interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]models.WatchEntry, error)
}
