package repositories

import (
	"context"

	"github.com/vidtube/backend/internal/models"
)

// UserRepository defines the data access contract for user accounts.
//
// RotateRefreshToken is the only conditional write: it must compare the
// stored token against the expected value and swap in a single statement so
// two concurrent refreshes cannot both succeed against a stale value.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByIdentity(ctx context.Context, identity string) (models.User, error)
	UpdateDetails(ctx context.Context, id, fullName, email string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateAvatar(ctx context.Context, id string, ref models.AssetRef) error
	UpdateCover(ctx context.Context, id string, ref models.AssetRef) error
	SetRefreshToken(ctx context.Context, id, token string) error
	RotateRefreshToken(ctx context.Context, id, current, next string) error
}
