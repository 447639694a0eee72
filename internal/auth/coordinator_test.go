package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/tokens"
)

func newTestCoordinator(t *testing.T) (*Coordinator, *InMemoryUserStore) {
	t.Helper()
	store := NewInMemoryUserStore()
	issuer := tokens.NewIssuer("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	return NewCoordinator(store, issuer), store
}

func seedUser(t *testing.T, store *InMemoryUserStore, password string) models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := models.User{
		ID:       "user-1",
		Username: "alice",
		Email:    "alice@example.com",
		Password: string(hashed),
	}
	store.Put(user)
	return user
}

func TestLoginStoresRefreshToken(t *testing.T) {
	coord, store := newTestCoordinator(t)
	seedUser(t, store, "correct horse")

	user, pair, err := coord.Login(context.Background(), "alice", "correct horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected token pair, got %+v", pair)
	}

	stored, err := store.FindByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	if stored.RefreshToken != pair.RefreshToken {
		t.Fatal("login must store the issued refresh token")
	}
}

func TestLoginAcceptsEmailIdentity(t *testing.T) {
	coord, store := newTestCoordinator(t)
	seedUser(t, store, "correct horse")

	if _, _, err := coord.Login(context.Background(), "alice@example.com", "correct horse"); err != nil {
		t.Fatalf("login by email: %v", err)
	}
}

func TestLoginFailsUniformly(t *testing.T) {
	coord, store := newTestCoordinator(t)
	seedUser(t, store, "correct horse")

	// Unknown user and wrong password yield the same error so callers
	// cannot probe which identities exist.
	_, _, unknownErr := coord.Login(context.Background(), "nobody", "whatever")
	_, _, wrongErr := coord.Login(context.Background(), "alice", "wrong")

	if !errors.Is(unknownErr, ErrInvalidCredentials) {
		t.Fatalf("unknown user: expected ErrInvalidCredentials, got %v", unknownErr)
	}
	if !errors.Is(wrongErr, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", wrongErr)
	}
}

func TestLoginReplacesPriorSession(t *testing.T) {
	coord, store := newTestCoordinator(t)
	user := seedUser(t, store, "correct horse")

	_, first, err := coord.Login(context.Background(), "alice", "correct horse")
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	_, _, err = coord.Login(context.Background(), "alice", "correct horse")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}

	stored, _ := store.FindByID(context.Background(), user.ID)
	if stored.RefreshToken == first.RefreshToken {
		t.Fatal("second login must overwrite the stored refresh token")
	}

	// The first session's refresh token is now spent.
	if _, err := coord.Refresh(context.Background(), first.RefreshToken); !errors.Is(err, ErrTokenReuse) {
		t.Fatalf("expected ErrTokenReuse for displaced session, got %v", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	coord, store := newTestCoordinator(t)
	user := seedUser(t, store, "correct horse")

	_, pair, err := coord.Login(context.Background(), "alice", "correct horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	next, err := coord.Refresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Fatal("refresh must mint a new refresh token")
	}

	stored, _ := store.FindByID(context.Background(), user.ID)
	if stored.RefreshToken != next.RefreshToken {
		t.Fatal("store must hold the rotated token")
	}
}

func TestRefreshDetectsReuse(t *testing.T) {
	coord, store := newTestCoordinator(t)
	seedUser(t, store, "correct horse")

	_, pair, err := coord.Login(context.Background(), "alice", "correct horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := coord.Refresh(context.Background(), pair.RefreshToken); err != nil {
		t.Fatalf("first refresh: %v", err)
	}

	// Replaying the already-rotated token is a reuse event.
	if _, err := coord.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, ErrTokenReuse) {
		t.Fatalf("expected ErrTokenReuse, got %v", err)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	coord, store := newTestCoordinator(t)
	seedUser(t, store, "correct horse")

	_, pair, err := coord.Login(context.Background(), "alice", "correct horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := coord.Refresh(context.Background(), pair.AccessToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for access token, got %v", err)
	}
}

func TestRefreshAfterLogoutIsReuse(t *testing.T) {
	coord, store := newTestCoordinator(t)
	user := seedUser(t, store, "correct horse")

	_, pair, err := coord.Login(context.Background(), "alice", "correct horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := coord.Logout(context.Background(), user.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if _, err := coord.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, ErrTokenReuse) {
		t.Fatalf("expected ErrTokenReuse after logout, got %v", err)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	coord, store := newTestCoordinator(t)
	user := seedUser(t, store, "correct horse")

	if err := coord.Logout(context.Background(), user.ID); err != nil {
		t.Fatalf("first logout: %v", err)
	}
	if err := coord.Logout(context.Background(), user.ID); err != nil {
		t.Fatalf("second logout: %v", err)
	}

	stored, _ := store.FindByID(context.Background(), user.ID)
	if stored.RefreshToken != "" {
		t.Fatal("logout must clear the stored refresh token")
	}
}

func TestLogoutUnknownUserIsNotAnError(t *testing.T) {
	coord, _ := newTestCoordinator(t)

	if err := coord.Logout(context.Background(), "ghost"); err != nil {
		t.Fatalf("logout of unknown user: %v", err)
	}
}
