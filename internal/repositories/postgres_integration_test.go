package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidtube/backend/internal/models"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	server, err := testserver.NewTestServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "start cockroach test server: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, server.PGURL().String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to cockroach test server: %v\n", err)
		server.Stop()
		os.Exit(1)
	}

	if err := applyMigrations(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "apply migrations: %v\n", err)
		pool.Close()
		server.Stop()
		os.Exit(1)
	}

	testPool = pool

	code := m.Run()

	pool.Close()
	server.Stop()

	os.Exit(code)
}

func TestPostgresUserRepository_CreateFindAndIdentity(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, repo, "alice", "alice@example.com")

	dup := user
	dup.ID = uuid.NewString()
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate username, got %v", err)
	}

	byUsername, err := repo.FindByIdentity(ctx, "alice")
	if err != nil {
		t.Fatalf("find by username: %v", err)
	}
	byEmail, err := repo.FindByIdentity(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if byUsername.ID != user.ID || byEmail.ID != user.ID {
		t.Fatalf("identity lookups disagree: %s vs %s", byUsername.ID, byEmail.ID)
	}

	if _, err := repo.FindByIdentity(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresUserRepository_RotateRefreshToken(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, repo, "bob", "bob@example.com")

	if err := repo.SetRefreshToken(ctx, user.ID, "token-a"); err != nil {
		t.Fatalf("set refresh token: %v", err)
	}

	if err := repo.RotateRefreshToken(ctx, user.ID, "token-a", "token-b"); err != nil {
		t.Fatalf("rotate with matching token: %v", err)
	}

	// The swap is conditional on the stored value, so replaying the spent
	// token must fail even though it once matched.
	if err := repo.RotateRefreshToken(ctx, user.ID, "token-a", "token-c"); !errors.Is(err, ErrTokenMismatch) {
		t.Fatalf("expected ErrTokenMismatch for spent token, got %v", err)
	}

	stored, err := repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	if stored.RefreshToken != "token-b" {
		t.Fatalf("expected stored token token-b, got %q", stored.RefreshToken)
	}

	// Clearing the slot makes any rotation a mismatch.
	if err := repo.SetRefreshToken(ctx, user.ID, ""); err != nil {
		t.Fatalf("clear refresh token: %v", err)
	}
	if err := repo.RotateRefreshToken(ctx, user.ID, "token-b", "token-d"); !errors.Is(err, ErrTokenMismatch) {
		t.Fatalf("expected ErrTokenMismatch after clear, got %v", err)
	}
}

func TestPostgresUserRepository_UpdateAvatarAndDetails(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, repo, "carol", "carol@example.com")

	ref := models.AssetRef{Key: "vidtube/avatars/x", URL: "https://cdn.example.com/vidtube/avatars/x"}
	if err := repo.UpdateAvatar(ctx, user.ID, ref); err != nil {
		t.Fatalf("update avatar: %v", err)
	}
	if err := repo.UpdateDetails(ctx, user.ID, "Carol Renamed", "carol@new.com"); err != nil {
		t.Fatalf("update details: %v", err)
	}

	stored, err := repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	if stored.Avatar != ref {
		t.Fatalf("expected avatar %+v, got %+v", ref, stored.Avatar)
	}
	if stored.FullName != "Carol Renamed" || stored.Email != "carol@new.com" {
		t.Fatalf("details did not persist: %+v", stored)
	}

	if err := repo.UpdateDetails(ctx, uuid.NewString(), "Ghost", "ghost@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing user, got %v", err)
	}
}

func TestPostgresVideoRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	owner := createTestUser(t, userRepo, "dave", "dave@example.com")

	repo := NewPostgresVideoRepository(testPool)
	video := createTestVideo(t, repo, owner.ID, "first video")

	fetched, err := repo.FindByID(ctx, video.ID)
	if err != nil {
		t.Fatalf("find video: %v", err)
	}
	if fetched.OwnerID != owner.ID || fetched.Title != "first video" {
		t.Fatalf("unexpected video: %+v", fetched)
	}

	if err := repo.IncrementViews(ctx, video.ID); err != nil {
		t.Fatalf("increment views: %v", err)
	}
	if err := repo.SetPublished(ctx, video.ID, false); err != nil {
		t.Fatalf("set published: %v", err)
	}

	fetched, _ = repo.FindByID(ctx, video.ID)
	if fetched.Views != 1 || fetched.Published {
		t.Fatalf("expected views 1 and unpublished, got %+v", fetched)
	}

	listed, err := repo.ListByOwner(ctx, owner.ID)
	if err != nil {
		t.Fatalf("list by owner: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 video, got %d", len(listed))
	}

	if err := repo.Delete(ctx, video.ID); err != nil {
		t.Fatalf("delete video: %v", err)
	}
	if _, err := repo.FindByID(ctx, video.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, video.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestPostgresLikeRepository_UniquePairsAndBulkDelete(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	videoRepo := NewPostgresVideoRepository(testPool)
	likeRepo := NewPostgresLikeRepository(testPool)

	owner := createTestUser(t, userRepo, "erin", "erin@example.com")
	fan := createTestUser(t, userRepo, "frank", "frank@example.com")
	video := createTestVideo(t, videoRepo, owner.ID, "liked video")

	like := models.Like{ID: uuid.NewString(), UserID: fan.ID, VideoID: video.ID, CreatedAt: time.Now().UTC()}
	if err := likeRepo.Create(ctx, like); err != nil {
		t.Fatalf("create like: %v", err)
	}

	dup := like
	dup.ID = uuid.NewString()
	if err := likeRepo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate like, got %v", err)
	}

	found, err := likeRepo.FindByUserAndVideo(ctx, fan.ID, video.ID)
	if err != nil {
		t.Fatalf("find like: %v", err)
	}
	if found.ID != like.ID {
		t.Fatalf("expected like %s, got %s", like.ID, found.ID)
	}

	n, err := likeRepo.DeleteByVideo(ctx, video.ID)
	if err != nil {
		t.Fatalf("delete by video: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 like deleted, got %d", n)
	}

	// An empty match set is a successful no-op, which keeps cascade
	// retries idempotent.
	n, err = likeRepo.DeleteByVideo(ctx, video.ID)
	if err != nil {
		t.Fatalf("repeat delete by video: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 likes deleted on repeat, got %d", n)
	}
}

func TestPostgresCommentRepository_DeleteByVideo(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	videoRepo := NewPostgresVideoRepository(testPool)
	commentRepo := NewPostgresCommentRepository(testPool)

	owner := createTestUser(t, userRepo, "gina", "gina@example.com")
	video := createTestVideo(t, videoRepo, owner.ID, "commented video")

	for i := 0; i < 3; i++ {
		comment := models.Comment{
			ID:        uuid.NewString(),
			VideoID:   video.ID,
			AuthorID:  owner.ID,
			Content:   fmt.Sprintf("comment %d", i),
			CreatedAt: time.Now().UTC(),
		}
		if err := commentRepo.Create(ctx, comment); err != nil {
			t.Fatalf("create comment %d: %v", i, err)
		}
	}

	listed, err := commentRepo.ListByVideo(ctx, video.ID)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("expected 3 comments, got %d", len(listed))
	}

	n, err := commentRepo.DeleteByVideo(ctx, video.ID)
	if err != nil {
		t.Fatalf("delete by video: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 comments deleted, got %d", n)
	}

	n, err = commentRepo.DeleteByVideo(ctx, video.ID)
	if err != nil || n != 0 {
		t.Fatalf("expected idempotent no-op, got n=%d err=%v", n, err)
	}
}

func TestPostgresSubscriptionRepository_PairAndCounts(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	subRepo := NewPostgresSubscriptionRepository(testPool)

	subscriber := createTestUser(t, userRepo, "henry", "henry@example.com")
	channel := createTestUser(t, userRepo, "iris", "iris@example.com")

	sub := models.Subscription{
		ID:           uuid.NewString(),
		SubscriberID: subscriber.ID,
		ChannelID:    channel.ID,
		CreatedAt:    time.Now().UTC(),
	}
	if err := subRepo.Create(ctx, sub); err != nil {
		t.Fatalf("create subscription: %v", err)
	}

	dup := sub
	dup.ID = uuid.NewString()
	if err := subRepo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate pair, got %v", err)
	}

	found, err := subRepo.FindPair(ctx, subscriber.ID, channel.ID)
	if err != nil {
		t.Fatalf("find pair: %v", err)
	}
	if found.ID != sub.ID {
		t.Fatalf("expected subscription %s, got %s", sub.ID, found.ID)
	}

	channelCount, err := subRepo.CountForChannel(ctx, channel.ID)
	if err != nil {
		t.Fatalf("count for channel: %v", err)
	}
	if channelCount != 1 {
		t.Fatalf("expected 1 subscriber, got %d", channelCount)
	}

	if err := subRepo.Delete(ctx, sub.ID); err != nil {
		t.Fatalf("delete subscription: %v", err)
	}
	if _, err := subRepo.FindPair(ctx, subscriber.ID, channel.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestPostgresWatchHistoryRepository_AppendAndList(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	historyRepo := NewPostgresWatchHistoryRepository(testPool)

	viewer := createTestUser(t, userRepo, "judy", "judy@example.com")

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		entry := models.WatchEntry{
			UserID:    viewer.ID,
			VideoID:   fmt.Sprintf("video-%d", i),
			WatchedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := historyRepo.Append(ctx, entry); err != nil {
			t.Fatalf("append entry %d: %v", i, err)
		}
	}

	entries, err := historyRepo.ListByUser(ctx, viewer.ID, 2)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	// Most recent first.
	if entries[0].VideoID != "video-2" || entries[1].VideoID != "video-1" {
		t.Fatalf("unexpected order: %+v", entries)
	}
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir := filepath.Join("..", "..", "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(migrationsDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		if _, err := pool.Exec(ctx, string(contents)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func resetDatabase(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	conn, err := testPool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "TRUNCATE TABLE watch_history, subscriptions, likes, comments, videos, users CASCADE"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func createTestUser(t *testing.T, repo *PostgresUserRepository, username, email string) models.User {
	t.Helper()
	now := time.Now().UTC()
	user := models.User{
		ID:        uuid.NewString(),
		Username:  username,
		FullName:  "Test " + username,
		Email:     email,
		Password:  "password-hash",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return user
}

func createTestVideo(t *testing.T, repo *PostgresVideoRepository, ownerID, title string) models.Video {
	t.Helper()
	now := time.Now().UTC()
	video := models.Video{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Title:     title,
		VideoFile: models.AssetRef{Key: "vidtube/videos/" + uuid.NewString(), URL: "https://cdn.example.com/v"},
		Thumbnail: models.AssetRef{Key: "vidtube/thumbnails/" + uuid.NewString(), URL: "https://cdn.example.com/t"},
		Published: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.Create(context.Background(), video); err != nil {
		t.Fatalf("create test video: %v", err)
	}
	return video
}
