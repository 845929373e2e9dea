package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"ecommerce-backend/internal/domains/user/model"
	"ecommerce-backend/pkg/cache"
)

const defaultCacheTTL = 15 * time.Minute

type postgresRepository struct {
	pool     *pgxpool.Pool
	cache    cache.Cache
	cacheTTL time.Duration
}

// NewPostgresRepository returns a user repository reading from postgres,
// with cache-aside lookups by id for display data such as the refund owner.
func NewPostgresRepository(pool *pgxpool.Pool, c cache.Cache, cacheTTL time.Duration) Repository {
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	return &postgresRepository{
		pool:     pool,
		cache:    c,
		cacheTTL: cacheTTL,
	}
}

const selectUserColumns = `
	SELECT id, username, email, password_hash, full_name,
		is_staff, is_active, created_at, updated_at
	FROM users
`

func cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("user:%s", id.String())
}

func (r *postgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var u model.User

	if r.cache != nil {
		found, err := r.cache.Get(ctx, cacheKey(id), &u)
		if err != nil {
			log.Warn().Err(err).Str("user_id", id.String()).Msg("user cache read failed")
		} else if found {
			return &u, nil
		}
	}

	return r.FindByIDUncached(ctx, id)
}

func (r *postgresRepository) FindByIDUncached(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var u model.User

	err := scanUser(r.pool.QueryRow(ctx, selectUserColumns+` WHERE id = $1`, id), &u)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}

	if r.cache != nil {
		// A cache outage must not fail the request.
		_ = r.cache.Set(ctx, cacheKey(id), &u, r.cacheTTL)
	}

	return &u, nil
}

func (r *postgresRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User

	err := scanUser(r.pool.QueryRow(ctx, selectUserColumns+` WHERE username = $1`, username), &u)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by username: %w", err)
	}

	return &u, nil
}

func scanUser(row pgx.Row, u *model.User) error {
	return row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.FullName,
		&u.IsStaff,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
}
