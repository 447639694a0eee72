package models

import "time"

// AssetRef points at a binary object held in external storage. Key is the
// storage identifier used for deletion, URL is the public location served to
// clients. A zero AssetRef means no object is attached to the slot.
type AssetRef struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// IsZero reports whether the reference points at nothing.
func (a AssetRef) IsZero() bool {
	return a.Key == "" && a.URL == ""
}

// User represents an account within the VidTube platform.
//
// RefreshToken is the single mutable session slot: at most one refresh token
// is valid per user at any time, and rotating it invalidates the previous
// value immediately.
type User struct {
	ID           string
	Username     string
	FullName     string
	Email        string
	Password     string // bcrypt hash
	Avatar       AssetRef
	CoverImage   AssetRef
	RefreshToken string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the sanitized projection returned by the API. Password and
// refresh-token fields never leave the server.
type PublicUser struct {
	ID         string   `json:"id"`
	Username   string   `json:"username"`
	FullName   string   `json:"fullName"`
	Email      string   `json:"email"`
	Avatar     AssetRef `json:"avatar"`
	CoverImage AssetRef `json:"coverImage"`
}

// Public strips credential state from the user record.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:         u.ID,
		Username:   u.Username,
		FullName:   u.FullName,
		Email:      u.Email,
		Avatar:     u.Avatar,
		CoverImage: u.CoverImage,
	}
}

// Video is an uploaded video with its two external assets.
type Video struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	VideoFile   AssetRef  `json:"videoFile"`
	Thumbnail   AssetRef  `json:"thumbnail"`
	Duration    float64   `json:"duration"`
	Views       int64     `json:"views"`
	Published   bool      `json:"published"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Comment is attached to exactly one video.
type Comment struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"videoId"`
	AuthorID  string    `json:"authorId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Like is a join row between a user and either a video or a comment.
// Exactly one of VideoID/CommentID is set.
type Like struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	VideoID   string    `json:"videoId,omitempty"`
	CommentID string    `json:"commentId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Subscription is a join row between a subscriber and a channel (another user).
type Subscription struct {
	ID           string    `json:"id"`
	SubscriberID string    `json:"subscriberId"`
	ChannelID    string    `json:"channelId"`
	CreatedAt    time.Time `json:"createdAt"`
}

// WatchEntry records a video viewed by a user, ordered by WatchedAt.
type WatchEntry struct {
	UserID    string    `json:"userId"`
	VideoID   string    `json:"videoId"`
	WatchedAt time.Time `json:"watchedAt"`
}

// ChannelProfile is the read-side projection for a channel page.
type ChannelProfile struct {
	PublicUser
	Subscribers  int64 `json:"subscribers"`
	SubscribedTo int64 `json:"subscribedTo"`
	IsSubscribed bool  `json:"isSubscribed"`
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
