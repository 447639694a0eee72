package app

import (
	"context"
	"time"

	"github.com/vidtube/backend/internal/accounts"
	"github.com/vidtube/backend/internal/assets"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/catalog"
	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/handlers"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/social"
	"github.com/vidtube/backend/internal/storage"
	"github.com/vidtube/backend/internal/tokens"
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, error) {
	store, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, err
	}
	saga := assets.NewExecutor(store)

	users := repositories.NewPostgresUserRepository(pool)
	videos := repositories.NewPostgresVideoRepository(pool)
	comments := repositories.NewPostgresCommentRepository(pool)
	likes := repositories.NewPostgresLikeRepository(pool)
	subs := repositories.NewPostgresSubscriptionRepository(pool)
	history := repositories.NewPostgresWatchHistoryRepository(pool)

	issuer := tokens.NewIssuer(
		cfg.Tokens.AccessSecret,
		cfg.Tokens.RefreshSecret,
		cfg.Tokens.AccessTTL,
		cfg.Tokens.RefreshTTL,
	)

	return handlers.Dependencies{
		Sessions: auth.NewCoordinator(users, issuer),
		Verifier: issuer,
		Accounts: accounts.NewService(users, saga),
		Catalog:  catalog.NewService(videos, comments, likes, history, saga, store),
		Social:   social.NewService(likes, subs, comments, videos, users),
		History:  history,
		Cookies:  cfg.Cookies,
		Limiter:  middleware.NewIPRateLimiter(10, time.Minute, 5, 10*time.Minute),
	}, nil
}
