package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/tokens"
)

var (
	// ErrInvalidCredentials covers both unknown identity and wrong password,
	// deliberately indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized indicates a refresh token that fails verification.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrTokenReuse indicates a refresh token that verifies cryptographically
	// but no longer matches the stored slot: either it was already rotated or
	// the session was logged out. Treated as a security event.
	ErrTokenReuse = errors.New("refresh token reuse detected")
)

// UserStore captures the persistence operations the coordinator needs.
// RotateRefreshToken must be a single conditional check-and-overwrite
// against the stored value, returning repositories.ErrTokenMismatch when the
// stored token differs.
type UserStore interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByIdentity(ctx context.Context, identity string) (models.User, error)
	SetRefreshToken(ctx context.Context, id, token string) error
	RotateRefreshToken(ctx context.Context, id, current, next string) error
}

// TokenIssuer signs and verifies session token pairs.
type TokenIssuer interface {
	IssuePair(userID string) (models.SessionTokens, error)
	Verify(token, expectedType string) (*tokens.Claims, error)
}

// Coordinator drives the session lifecycle: login, refresh, logout. Each
// user holds exactly one refresh-token slot, so a successful login or
// refresh invalidates whatever token was stored before it.
type Coordinator struct {
	users  UserStore
	issuer TokenIssuer
}

// NewCoordinator constructs a session coordinator.
func NewCoordinator(users UserStore, issuer TokenIssuer) *Coordinator {
	if users == nil || issuer == nil {
		panic("auth: coordinator dependencies must not be nil")
	}
	return &Coordinator{users: users, issuer: issuer}
}

// Login verifies the password for the identity (username or email) and, on
// success, issues a fresh token pair and overwrites the stored refresh token
// unconditionally. Any prior session for the user is terminated silently;
// single active session per user is intended behavior.
func (c *Coordinator) Login(ctx context.Context, identity, password string) (models.User, models.SessionTokens, error) {
	user, err := c.users.FindByIdentity(ctx, identity)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, models.SessionTokens{}, ErrInvalidCredentials
		}
		return models.User{}, models.SessionTokens{}, fmt.Errorf("look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return models.User{}, models.SessionTokens{}, ErrInvalidCredentials
	}

	pair, err := c.issuer.IssuePair(user.ID)
	if err != nil {
		return models.User{}, models.SessionTokens{}, fmt.Errorf("issue token pair: %w", err)
	}

	if err := c.users.SetRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return models.User{}, models.SessionTokens{}, fmt.Errorf("store refresh token: %w", err)
	}

	user.RefreshToken = pair.RefreshToken
	return user, pair, nil
}

// Refresh exchanges a refresh token for a new pair. The rotation is a
// conditional swap against the stored token: if the presented token verifies
// but the slot holds something else, the token was already spent and the
// call fails with ErrTokenReuse.
func (c *Coordinator) Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error) {
	if refreshToken == "" {
		return models.SessionTokens{}, ErrUnauthorized
	}

	claims, err := c.issuer.Verify(refreshToken, tokens.TypeRefresh)
	if err != nil {
		return models.SessionTokens{}, ErrUnauthorized
	}

	user, err := c.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.SessionTokens{}, ErrUnauthorized
		}
		return models.SessionTokens{}, fmt.Errorf("look up user: %w", err)
	}

	pair, err := c.issuer.IssuePair(user.ID)
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("issue token pair: %w", err)
	}

	// The minted pair only becomes a session if this swap lands. On
	// mismatch the new tokens are discarded and never leave the server.
	if err := c.users.RotateRefreshToken(ctx, user.ID, refreshToken, pair.RefreshToken); err != nil {
		if errors.Is(err, repositories.ErrTokenMismatch) {
			logging.FromContext(ctx).Warn("refresh token reuse detected",
				"userId", user.ID, "event", "token_reuse")
			return models.SessionTokens{}, ErrTokenReuse
		}
		return models.SessionTokens{}, fmt.Errorf("rotate refresh token: %w", err)
	}

	return pair, nil
}

// Logout clears the stored refresh token. Logging out an already
// logged-out user is not an error.
func (c *Coordinator) Logout(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrUnauthorized
	}

	if err := c.users.SetRefreshToken(ctx, userID, ""); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("clear refresh token: %w", err)
	}

	return nil
}
