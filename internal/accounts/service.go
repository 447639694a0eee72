package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidtube/backend/internal/assets"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

const (
	avatarFolder = "vidtube/avatars"
	coverFolder  = "vidtube/covers"
)

var (
	// ErrWrongPassword indicates the current password check failed.
	ErrWrongPassword = errors.New("current password is incorrect")
)

// UserStore captures the persistence operations required by account flows.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByIdentity(ctx context.Context, identity string) (models.User, error)
	UpdateDetails(ctx context.Context, id, fullName, email string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateAvatar(ctx context.Context, id string, ref models.AssetRef) error
	UpdateCover(ctx context.Context, id string, ref models.AssetRef) error
}

// Service implements account registration and profile maintenance. Every
// operation that pairs an external object with a record mutation goes
// through the asset saga.
type Service struct {
	users UserStore
	saga  *assets.Executor

	// NowFunc overrides the clock in tests.
	NowFunc func() time.Time
}

// NewService constructs the accounts service.
func NewService(users UserStore, saga *assets.Executor) *Service {
	if users == nil || saga == nil {
		panic("accounts: service dependencies must not be nil")
	}
	return &Service{users: users, saga: saga}
}

// RegisterInput carries the fields and staged upload paths for registration.
// AvatarPath is required; CoverPath is optional.
type RegisterInput struct {
	Username   string
	FullName   string
	Email      string
	Password   string
	AvatarPath string
	CoverPath  string
}

// Register creates a new account. The avatar (and optional cover) is
// uploaded before the user row is written; if the row cannot be written the
// uploads are deleted again so no orphaned object survives the call.
func (s *Service) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if _, err := s.users.FindByIdentity(ctx, in.Username); err == nil {
		return models.User{}, repositories.ErrConflict
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return models.User{}, fmt.Errorf("check username: %w", err)
	}
	if _, err := s.users.FindByIdentity(ctx, in.Email); err == nil {
		return models.User{}, repositories.ErrConflict
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return models.User{}, fmt.Errorf("check email: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	uploads := []assets.Upload{
		{Slot: "avatar", LocalPath: in.AvatarPath, Folder: avatarFolder},
	}
	if in.CoverPath != "" {
		uploads = append(uploads, assets.Upload{Slot: "cover", LocalPath: in.CoverPath, Folder: coverFolder})
	}

	now := s.now()
	user := models.User{
		ID:        uuid.NewString(),
		Username:  in.Username,
		FullName:  strings.TrimSpace(in.FullName),
		Email:     in.Email,
		Password:  string(hashed),
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = s.saga.Run(ctx, uploads, func(ctx context.Context, refs map[string]models.AssetRef) error {
		user.Avatar = refs["avatar"]
		user.CoverImage = refs["cover"]
		return s.users.Create(ctx, user)
	})
	if err != nil {
		return models.User{}, err
	}

	logging.FromContext(ctx).Info("user registered", "userId", user.ID)
	return user, nil
}

// Get fetches a user by ID.
func (s *Service) Get(ctx context.Context, id string) (models.User, error) {
	return s.users.FindByID(ctx, id)
}

// ReplaceAvatar uploads a new avatar, repoints the record, then deletes the
// superseded object best-effort.
func (s *Service) ReplaceAvatar(ctx context.Context, userID, localPath string) (models.User, error) {
	return s.replaceImage(ctx, userID, localPath, "avatar")
}

// ReplaceCover uploads a new cover image, repoints the record, then deletes
// the superseded object best-effort.
func (s *Service) ReplaceCover(ctx context.Context, userID, localPath string) (models.User, error) {
	return s.replaceImage(ctx, userID, localPath, "cover")
}

func (s *Service) replaceImage(ctx context.Context, userID, localPath, slot string) (models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	previous := user.Avatar
	folder := avatarFolder
	if slot == "cover" {
		previous = user.CoverImage
		folder = coverFolder
	}

	uploads := []assets.Upload{
		{Slot: slot, LocalPath: localPath, Folder: folder, Previous: previous},
	}

	refs, err := s.saga.Run(ctx, uploads, func(ctx context.Context, refs map[string]models.AssetRef) error {
		if slot == "cover" {
			return s.users.UpdateCover(ctx, userID, refs[slot])
		}
		return s.users.UpdateAvatar(ctx, userID, refs[slot])
	})
	if err != nil {
		return models.User{}, err
	}

	if slot == "cover" {
		user.CoverImage = refs[slot]
	} else {
		user.Avatar = refs[slot]
	}
	return user, nil
}

// ChangePassword verifies the current password and stores a new hash.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)); err != nil {
		return ErrWrongPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.users.UpdatePassword(ctx, userID, string(hashed))
}

// UpdateDetails changes the mutable profile fields.
func (s *Service) UpdateDetails(ctx context.Context, userID, fullName, email string) (models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.users.UpdateDetails(ctx, userID, strings.TrimSpace(fullName), email); err != nil {
		return models.User{}, err
	}
	return s.users.FindByID(ctx, userID)
}

func (s *Service) now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc()
	}
	return time.Now().UTC()
}
