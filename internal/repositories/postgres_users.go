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

const userColumns = `id, username, full_name, email, password_hash,
        avatar_key, avatar_url, cover_key, cover_url, refresh_token, created_at, updated_at`

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, username, full_name, email, password_hash,
                avatar_key, avatar_url, cover_key, cover_url, refresh_token, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
    `, user.ID, user.Username, user.FullName, user.Email, user.Password,
		user.Avatar.Key, user.Avatar.URL, user.CoverImage.Key, user.CoverImage.URL,
		user.RefreshToken, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByID fetches a user by primary key.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// FindByIdentity fetches a user by username or email, matching the login
// contract where either identifier is accepted.
func (r *PostgresUserRepository) FindByIdentity(ctx context.Context, identity string) (models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1 OR email = $1`, identity)
}

func (r *PostgresUserRepository) findOne(ctx context.Context, query string, args ...any) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, query, args...)

	var user models.User
	if err := row.Scan(&user.ID, &user.Username, &user.FullName, &user.Email, &user.Password,
		&user.Avatar.Key, &user.Avatar.URL, &user.CoverImage.Key, &user.CoverImage.URL,
		&user.RefreshToken, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user: %w", err)
	}

	return user, nil
}

// UpdateDetails modifies the mutable profile fields.
func (r *PostgresUserRepository) UpdateDetails(ctx context.Context, id, fullName, email string) error {
	return r.exec(ctx, `
        UPDATE users SET full_name = $2, email = $3, updated_at = NOW()
        WHERE id = $1
    `, id, fullName, email)
}

// UpdatePassword replaces the stored password hash.
func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.exec(ctx, `
        UPDATE users SET password_hash = $2, updated_at = NOW()
        WHERE id = $1
    `, id, passwordHash)
}

// UpdateAvatar points the avatar slot at a new external object.
func (r *PostgresUserRepository) UpdateAvatar(ctx context.Context, id string, ref models.AssetRef) error {
	return r.exec(ctx, `
        UPDATE users SET avatar_key = $2, avatar_url = $3, updated_at = NOW()
        WHERE id = $1
    `, id, ref.Key, ref.URL)
}

// UpdateCover points the cover-image slot at a new external object.
func (r *PostgresUserRepository) UpdateCover(ctx context.Context, id string, ref models.AssetRef) error {
	return r.exec(ctx, `
        UPDATE users SET cover_key = $2, cover_url = $3, updated_at = NOW()
        WHERE id = $1
    `, id, ref.Key, ref.URL)
}

// SetRefreshToken overwrites the stored refresh token unconditionally.
// An empty token clears the slot (logout).
func (r *PostgresUserRepository) SetRefreshToken(ctx context.Context, id, token string) error {
	return r.exec(ctx, `
        UPDATE users SET refresh_token = $2, updated_at = NOW()
        WHERE id = $1
    `, id, token)
}

// RotateRefreshToken swaps the stored refresh token for a new one only if
// the stored value still equals current. The compare and the overwrite are a
// single UPDATE so concurrent rotations against the same stale token cannot
// both succeed.
func (r *PostgresUserRepository) RotateRefreshToken(ctx context.Context, id, current, next string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users SET refresh_token = $3, updated_at = NOW()
        WHERE id = $1 AND refresh_token = $2
    `, id, current, next)
	if err != nil {
		return fmt.Errorf("rotate refresh token: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrTokenMismatch
	}

	return nil
}

func (r *PostgresUserRepository) exec(ctx context.Context, query string, args ...any) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("update user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
