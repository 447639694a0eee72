package social

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

var (
	// ErrSelfSubscription rejects subscribing to one's own channel. This is
	// a domain rule, not a storage constraint.
	ErrSelfSubscription = errors.New("cannot subscribe to own channel")
	// ErrNotCommentAuthor rejects deleting someone else's comment.
	ErrNotCommentAuthor = errors.New("requester did not write this comment")
)

// LikeStore captures like persistence for the toggle flows.
type LikeStore interface {
	Create(ctx context.Context, like models.Like) error
	FindByUserAndVideo(ctx context.Context, userID, videoID string) (models.Like, error)
	FindByUserAndComment(ctx context.Context, userID, commentID string) (models.Like, error)
	Delete(ctx context.Context, id string) error
	DeleteByComment(ctx context.Context, commentID string) (int64, error)
}

// SubscriptionStore captures subscription persistence.
type SubscriptionStore interface {
	Create(ctx context.Context, sub models.Subscription) error
	FindPair(ctx context.Context, subscriberID, channelID string) (models.Subscription, error)
	Delete(ctx context.Context, id string) error
	CountForChannel(ctx context.Context, channelID string) (int64, error)
	CountForSubscriber(ctx context.Context, subscriberID string) (int64, error)
}

// CommentStore captures comment persistence.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	ListByVideo(ctx context.Context, videoID string) ([]models.Comment, error)
	Delete(ctx context.Context, id string) error
}

// VideoFinder checks target existence for likes and comments.
type VideoFinder interface {
	FindByID(ctx context.Context, id string) (models.Video, error)
}

// UserFinder resolves channel identities.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByIdentity(ctx context.Context, identity string) (models.User, error)
}

// Service implements likes, subscriptions, and comments. All toggles are
// pure functions of current join-row existence: absent creates, present
// deletes. There is no client-supplied intent flag to drift from the truth.
type Service struct {
	likes    LikeStore
	subs     SubscriptionStore
	comments CommentStore
	videos   VideoFinder
	users    UserFinder

	// NowFunc overrides the clock in tests.
	NowFunc func() time.Time
}

// NewService constructs the social service.
func NewService(likes LikeStore, subs SubscriptionStore, comments CommentStore, videos VideoFinder, users UserFinder) *Service {
	if likes == nil || subs == nil || comments == nil || videos == nil || users == nil {
		panic("social: service dependencies must not be nil")
	}
	return &Service{likes: likes, subs: subs, comments: comments, videos: videos, users: users}
}

// ToggleVideoLike likes the video if no like exists, otherwise removes the
// existing like. Returns whether a like exists after the call.
func (s *Service) ToggleVideoLike(ctx context.Context, userID, videoID string) (bool, error) {
	if _, err := s.videos.FindByID(ctx, videoID); err != nil {
		return false, err
	}

	existing, err := s.likes.FindByUserAndVideo(ctx, userID, videoID)
	switch {
	case err == nil:
		if err := s.likes.Delete(ctx, existing.ID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return true, fmt.Errorf("remove like: %w", err)
		}
		return false, nil
	case errors.Is(err, repositories.ErrNotFound):
		like := models.Like{ID: uuid.NewString(), UserID: userID, VideoID: videoID, CreatedAt: s.now()}
		if err := s.likes.Create(ctx, like); err != nil && !errors.Is(err, repositories.ErrConflict) {
			return false, fmt.Errorf("create like: %w", err)
		}
		return true, nil
	default:
		return false, fmt.Errorf("look up like: %w", err)
	}
}

// ToggleCommentLike mirrors ToggleVideoLike for comments.
func (s *Service) ToggleCommentLike(ctx context.Context, userID, commentID string) (bool, error) {
	if _, err := s.comments.FindByID(ctx, commentID); err != nil {
		return false, err
	}

	existing, err := s.likes.FindByUserAndComment(ctx, userID, commentID)
	switch {
	case err == nil:
		if err := s.likes.Delete(ctx, existing.ID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return true, fmt.Errorf("remove like: %w", err)
		}
		return false, nil
	case errors.Is(err, repositories.ErrNotFound):
		like := models.Like{ID: uuid.NewString(), UserID: userID, CommentID: commentID, CreatedAt: s.now()}
		if err := s.likes.Create(ctx, like); err != nil && !errors.Is(err, repositories.ErrConflict) {
			return false, fmt.Errorf("create like: %w", err)
		}
		return true, nil
	default:
		return false, fmt.Errorf("look up like: %w", err)
	}
}

// ToggleSubscription subscribes the user to the channel or removes an
// existing subscription. Subscribing to oneself is rejected outright.
func (s *Service) ToggleSubscription(ctx context.Context, subscriberID, channelID string) (bool, error) {
	if subscriberID == channelID {
		return false, ErrSelfSubscription
	}

	if _, err := s.users.FindByID(ctx, channelID); err != nil {
		return false, err
	}

	existing, err := s.subs.FindPair(ctx, subscriberID, channelID)
	switch {
	case err == nil:
		if err := s.subs.Delete(ctx, existing.ID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return true, fmt.Errorf("remove subscription: %w", err)
		}
		return false, nil
	case errors.Is(err, repositories.ErrNotFound):
		sub := models.Subscription{ID: uuid.NewString(), SubscriberID: subscriberID, ChannelID: channelID, CreatedAt: s.now()}
		if err := s.subs.Create(ctx, sub); err != nil && !errors.Is(err, repositories.ErrConflict) {
			return false, fmt.Errorf("create subscription: %w", err)
		}
		return true, nil
	default:
		return false, fmt.Errorf("look up subscription: %w", err)
	}
}

// AddComment attaches a comment to an existing video.
func (s *Service) AddComment(ctx context.Context, userID, videoID, content string) (models.Comment, error) {
	if _, err := s.videos.FindByID(ctx, videoID); err != nil {
		return models.Comment{}, err
	}

	comment := models.Comment{
		ID:        uuid.NewString(),
		VideoID:   videoID,
		AuthorID:  userID,
		Content:   content,
		CreatedAt: s.now(),
	}

	if err := s.comments.Create(ctx, comment); err != nil {
		return models.Comment{}, err
	}

	return comment, nil
}

// DeleteComment removes a comment and its likes; only the author may delete.
func (s *Service) DeleteComment(ctx context.Context, userID, commentID string) error {
	comment, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		return err
	}

	if comment.AuthorID != userID {
		return ErrNotCommentAuthor
	}

	// Dependent likes first, same discipline as the video cascade.
	if _, err := s.likes.DeleteByComment(ctx, commentID); err != nil {
		return fmt.Errorf("delete comment likes: %w", err)
	}

	if err := s.comments.Delete(ctx, commentID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return err
	}

	return nil
}

// ListComments returns a video's comments.
func (s *Service) ListComments(ctx context.Context, videoID string) ([]models.Comment, error) {
	return s.comments.ListByVideo(ctx, videoID)
}

// ChannelProfile builds the channel projection for a username, from the
// viewer's perspective.
func (s *Service) ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error) {
	user, err := s.users.FindByIdentity(ctx, username)
	if err != nil {
		return models.ChannelProfile{}, err
	}

	subscribers, err := s.subs.CountForChannel(ctx, user.ID)
	if err != nil {
		return models.ChannelProfile{}, fmt.Errorf("count subscribers: %w", err)
	}

	subscribedTo, err := s.subs.CountForSubscriber(ctx, user.ID)
	if err != nil {
		return models.ChannelProfile{}, fmt.Errorf("count subscribed channels: %w", err)
	}

	profile := models.ChannelProfile{
		PublicUser:   user.Public(),
		Subscribers:  subscribers,
		SubscribedTo: subscribedTo,
	}

	if viewerID != "" && viewerID != user.ID {
		if _, err := s.subs.FindPair(ctx, viewerID, user.ID); err == nil {
			profile.IsSubscribed = true
		} else if !errors.Is(err, repositories.ErrNotFound) {
			return models.ChannelProfile{}, fmt.Errorf("check subscription: %w", err)
		}
	}

	return profile, nil
}

func (s *Service) now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc()
	}
	return time.Now().UTC()
}
