package handlers

import (
	"net/http"

	"github.com/vidtube/backend/internal/config"
)

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	authn := AuthHandler{
		Accounts: deps.Accounts,
		Sessions: deps.Sessions,
		Cookies:  deps.Cookies,
		Limiter:  deps.Limiter,
	}
	account := AccountHandler{Accounts: deps.Accounts, History: deps.History}
	videos := VideoHandler{Catalog: deps.Catalog}
	social := SocialHandler{Social: deps.Social}

	mux.HandleFunc("/healthz", health.Handle)

	mux.HandleFunc("/api/v1/auth/register", authn.Register)
	mux.HandleFunc("/api/v1/auth/login", authn.Login)
	mux.HandleFunc("/api/v1/auth/refresh", authn.Refresh)
	mux.HandleFunc("/api/v1/auth/logout", requireAuth(deps.Verifier, authn.Logout))

	mux.HandleFunc("/api/v1/account", requireAuth(deps.Verifier, account.Me))
	mux.HandleFunc("/api/v1/account/details", requireAuth(deps.Verifier, account.UpdateDetails))
	mux.HandleFunc("/api/v1/account/password", requireAuth(deps.Verifier, account.ChangePassword))
	mux.HandleFunc("/api/v1/account/avatar", requireAuth(deps.Verifier, account.ReplaceAvatar))
	mux.HandleFunc("/api/v1/account/cover", requireAuth(deps.Verifier, account.ReplaceCover))
	mux.HandleFunc("/api/v1/account/history", requireAuth(deps.Verifier, account.WatchHistory))

	mux.HandleFunc("/api/v1/videos", withAuthForWrites(deps.Verifier, videos.Collection))
	mux.HandleFunc("/api/v1/videos/mine", requireAuth(deps.Verifier, videos.Mine))
	mux.HandleFunc("/api/v1/videos/thumbnail", requireAuth(deps.Verifier, videos.ReplaceThumbnail))
	mux.HandleFunc("/api/v1/videos/toggle-publish", requireAuth(deps.Verifier, videos.TogglePublish))

	mux.HandleFunc("/api/v1/likes/video", requireAuth(deps.Verifier, social.ToggleVideoLike))
	mux.HandleFunc("/api/v1/likes/comment", requireAuth(deps.Verifier, social.ToggleCommentLike))
	mux.HandleFunc("/api/v1/subscriptions", requireAuth(deps.Verifier, social.ToggleSubscription))
	mux.HandleFunc("/api/v1/comments", withAuthForWrites(deps.Verifier, social.Comments))
	mux.HandleFunc("/api/v1/channels", maybeAuth(deps.Verifier, social.Channel))
}

// withAuthForWrites requires authentication for mutating methods while
// letting GET requests through anonymously. Anonymous reads still pick up
// the viewer identity when a valid token happens to be present.
func withAuthForWrites(verifier TokenVerifier, next http.HandlerFunc) http.HandlerFunc {
	guarded := requireAuth(verifier, next)
	open := maybeAuth(verifier, next)
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			open(w, r)
			return
		}
		guarded(w, r)
	}
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Sessions SessionCoordinator
	Verifier TokenVerifier
	Accounts AccountService
	Catalog  CatalogService
	Social   SocialService
	History  WatchHistoryReader
	Cookies  config.CookieConfig
	Limiter  RateLimiter
}
