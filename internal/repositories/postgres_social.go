package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

// PostgresCommentRepository provides PostgreSQL-backed persistence for comments.
type PostgresCommentRepository struct {
	pool db.Pool
}

// NewPostgresCommentRepository constructs a comment repository backed by PostgreSQL.
func NewPostgresCommentRepository(pool db.Pool) *PostgresCommentRepository {
	return &PostgresCommentRepository{pool: pool}
}

// Create persists a new comment.
func (r *PostgresCommentRepository) Create(ctx context.Context, comment models.Comment) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO comments (id, video_id, author_id, content, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `, comment.ID, comment.VideoID, comment.AuthorID, comment.Content, comment.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert comment: %w", err)
	}

	return nil
}

// FindByID fetches a comment by primary key.
func (r *PostgresCommentRepository) FindByID(ctx context.Context, id string) (models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Comment{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, video_id, author_id, content, created_at
        FROM comments
        WHERE id = $1
    `, id)

	var comment models.Comment
	if err := row.Scan(&comment.ID, &comment.VideoID, &comment.AuthorID, &comment.Content, &comment.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Comment{}, ErrNotFound
		}
		return models.Comment{}, fmt.Errorf("select comment: %w", err)
	}

	return comment, nil
}

// ListByVideo returns a video's comments, newest first.
func (r *PostgresCommentRepository) ListByVideo(ctx context.Context, videoID string) ([]models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, video_id, author_id, content, created_at
        FROM comments
        WHERE video_id = $1
        ORDER BY created_at DESC
    `, videoID)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var comment models.Comment
		if err := rows.Scan(&comment.ID, &comment.VideoID, &comment.AuthorID, &comment.Content, &comment.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, comment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}

	return comments, nil
}

// Delete removes a single comment.
func (r *PostgresCommentRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteByVideo removes every comment attached to the video. An empty match
// set deletes zero rows and succeeds.
func (r *PostgresCommentRepository) DeleteByVideo(ctx context.Context, videoID string) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM comments WHERE video_id = $1`, videoID)
	if err != nil {
		return 0, fmt.Errorf("delete comments by video: %w", err)
	}

	return tag.RowsAffected(), nil
}

// PostgresLikeRepository provides PostgreSQL-backed persistence for likes.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

// Create persists a new like row.
func (r *PostgresLikeRepository) Create(ctx context.Context, like models.Like) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO likes (id, user_id, video_id, comment_id, created_at)
        VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5)
    `, like.ID, like.UserID, like.VideoID, like.CommentID, like.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert like: %w", err)
	}

	return nil
}

// FindByUserAndVideo looks up the like row for a (user, video) pair.
func (r *PostgresLikeRepository) FindByUserAndVideo(ctx context.Context, userID, videoID string) (models.Like, error) {
	return r.findOne(ctx, `
        SELECT id, user_id, COALESCE(video_id, ''), COALESCE(comment_id, ''), created_at
        FROM likes
        WHERE user_id = $1 AND video_id = $2
    `, userID, videoID)
}

// FindByUserAndComment looks up the like row for a (user, comment) pair.
func (r *PostgresLikeRepository) FindByUserAndComment(ctx context.Context, userID, commentID string) (models.Like, error) {
	return r.findOne(ctx, `
        SELECT id, user_id, COALESCE(video_id, ''), COALESCE(comment_id, ''), created_at
        FROM likes
        WHERE user_id = $1 AND comment_id = $2
    `, userID, commentID)
}

func (r *PostgresLikeRepository) findOne(ctx context.Context, query string, args ...any) (models.Like, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Like{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, query, args...)

	var like models.Like
	if err := row.Scan(&like.ID, &like.UserID, &like.VideoID, &like.CommentID, &like.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Like{}, ErrNotFound
		}
		return models.Like{}, fmt.Errorf("select like: %w", err)
	}

	return like, nil
}

// Delete removes a single like row.
func (r *PostgresLikeRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM likes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete like: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteByVideo removes every like attached to the video.
func (r *PostgresLikeRepository) DeleteByVideo(ctx context.Context, videoID string) (int64, error) {
	return r.deleteWhere(ctx, `DELETE FROM likes WHERE video_id = $1`, videoID)
}

// DeleteByComment removes every like attached to the comment.
func (r *PostgresLikeRepository) DeleteByComment(ctx context.Context, commentID string) (int64, error) {
	return r.deleteWhere(ctx, `DELETE FROM likes WHERE comment_id = $1`, commentID)
}

func (r *PostgresLikeRepository) deleteWhere(ctx context.Context, query string, args ...any) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete likes: %w", err)
	}

	return tag.RowsAffected(), nil
}

// PostgresSubscriptionRepository provides PostgreSQL-backed persistence for subscriptions.
type PostgresSubscriptionRepository struct {
	pool db.Pool
}

// NewPostgresSubscriptionRepository constructs a subscription repository backed by PostgreSQL.
func NewPostgresSubscriptionRepository(pool db.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// Create persists a new subscription row.
func (r *PostgresSubscriptionRepository) Create(ctx context.Context, sub models.Subscription) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at)
        VALUES ($1, $2, $3, $4)
    `, sub.ID, sub.SubscriberID, sub.ChannelID, sub.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert subscription: %w", err)
	}

	return nil
}

// FindPair looks up the subscription row for a (subscriber, channel) pair.
func (r *PostgresSubscriptionRepository) FindPair(ctx context.Context, subscriberID, channelID string) (models.Subscription, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Subscription{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, subscriber_id, channel_id, created_at
        FROM subscriptions
        WHERE subscriber_id = $1 AND channel_id = $2
    `, subscriberID, channelID)

	var sub models.Subscription
	if err := row.Scan(&sub.ID, &sub.SubscriberID, &sub.ChannelID, &sub.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Subscription{}, ErrNotFound
		}
		return models.Subscription{}, fmt.Errorf("select subscription: %w", err)
	}

	return sub, nil
}

// Delete removes a subscription row.
func (r *PostgresSubscriptionRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// CountForChannel returns how many users subscribe to the channel.
func (r *PostgresSubscriptionRepository) CountForChannel(ctx context.Context, channelID string) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM subscriptions WHERE channel_id = $1`, channelID)
}

// CountForSubscriber returns how many channels the user subscribes to.
func (r *PostgresSubscriptionRepository) CountForSubscriber(ctx context.Context, subscriberID string) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM subscriptions WHERE subscriber_id = $1`, subscriberID)
}

func (r *PostgresSubscriptionRepository) count(ctx context.Context, query string, args ...any) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var count int64
	if err := conn.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count subscriptions: %w", err)
	}

	return count, nil
}

// PostgresWatchHistoryRepository appends and lists per-user watch history.
type PostgresWatchHistoryRepository struct {
	pool db.Pool
}

// NewPostgresWatchHistoryRepository constructs a watch-history repository backed by PostgreSQL.
func NewPostgresWatchHistoryRepository(pool db.Pool) *PostgresWatchHistoryRepository {
	return &PostgresWatchHistoryRepository{pool: pool}
}

// Append records a view. History is append-only.
func (r *PostgresWatchHistoryRepository) Append(ctx context.Context, entry models.WatchEntry) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO watch_history (user_id, video_id, watched_at)
        VALUES ($1, $2, $3)
    `, entry.UserID, entry.VideoID, entry.WatchedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrNotFound
		}
		return fmt.Errorf("insert watch entry: %w", err)
	}

	return nil
}

// ListByUser returns the user's watch history, most recent first.
func (r *PostgresWatchHistoryRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.WatchEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT user_id, video_id, watched_at
        FROM watch_history
        WHERE user_id = $1
        ORDER BY watched_at DESC
        LIMIT $2
    `, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query watch history: %w", err)
	}
	defer rows.Close()

	var entries []models.WatchEntry
	for rows.Next() {
		var entry models.WatchEntry
		if err := rows.Scan(&entry.UserID, &entry.VideoID, &entry.WatchedAt); err != nil {
			return nil, fmt.Errorf("scan watch entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watch history: %w", err)
	}

	return entries, nil
}

var (
	_ CommentRepository      = (*PostgresCommentRepository)(nil)
	_ LikeRepository         = (*PostgresLikeRepository)(nil)
	_ SubscriptionRepository = (*PostgresSubscriptionRepository)(nil)
	_ WatchHistoryRepository = (*PostgresWatchHistoryRepository)(nil)
)
