package cached

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"userdesk/internal/adapter/cache"
	domain "userdesk/internal/domain/user"
	"userdesk/internal/usecase/user"
)

// UserRepository implements user.Repository on top of a database repository,
// keeping single rows and the full list in a cache.
// Every successful write advances the cache generation, so reads that started
// before the write cannot repopulate the cache with what they loaded.
type UserRepository struct {
	dbRepo user.Repository
	cache  cache.UserCache
	log    *zap.Logger
	group  singleflight.Group
}

// NewUserRepository wraps dbRepo. A nil cache disables caching.
func NewUserRepository(dbRepo user.Repository, c cache.UserCache, log *zap.Logger) *UserRepository {
	return &UserRepository{
		dbRepo: dbRepo,
		cache:  c,
		log:    log,
	}
}

var _ user.Repository = (*UserRepository)(nil)

// Create inserts through the DB repository and drops the cached list.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (int64, error) {
	id, err := r.dbRepo.Create(ctx, u)
	if err != nil {
		return 0, err
	}
	r.invalidate(ctx)
	return id, nil
}

// GetByID retrieves a user by ID using Cache-Aside pattern.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if r.cache != nil {
		cachedUser, err := r.cache.Get(ctx, id)
		if err != nil {
			r.log.Warn("cache get error, falling back to database", zap.Int64("id", id), zap.Error(err))
		} else if cachedUser != nil {
			return cachedUser, nil
		}
	}

	gen, cacheable := r.generation(ctx)

	// Concurrent misses for the same id and generation share one database read
	result, err, _ := r.group.Do(fmt.Sprintf("user:%d:%d", id, gen), func() (any, error) {
		u, err := r.dbRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if cacheable {
			r.logStore(r.cache.Set(ctx, u, gen), "failed to cache user", zap.Int64("id", id))
		}
		return u, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*domain.User), nil
}

// Update updates the user in DB and invalidates the cache.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) (int64, error) {
	id, err := r.dbRepo.Update(ctx, u)
	if err != nil {
		return 0, err
	}
	r.invalidate(ctx, u.ID)
	return id, nil
}

// Delete deletes the user from DB and invalidates the cache.
func (r *UserRepository) Delete(ctx context.Context, id int64) (int64, error) {
	deletedID, err := r.dbRepo.Delete(ctx, id)
	if err != nil {
		return 0, err
	}
	r.invalidate(ctx, id)
	return deletedID, nil
}

// List serves the cached list when present and repopulates it on a miss.
func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	if r.cache != nil {
		users, err := r.cache.GetList(ctx)
		if err != nil {
			r.log.Warn("cache list error, falling back to database", zap.Error(err))
		} else if users != nil {
			return users, nil
		}
	}

	gen, cacheable := r.generation(ctx)

	result, err, _ := r.group.Do(fmt.Sprintf("user:list:%d", gen), func() (any, error) {
		users, err := r.dbRepo.List(ctx)
		if err != nil {
			return nil, err
		}

		if cacheable {
			r.logStore(r.cache.SetList(ctx, users, gen), "failed to cache user list")
		}
		return users, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]domain.User), nil
}

// generation reads the cache generation before a database load. It reports
// false when there is no cache or the generation cannot be read.
func (r *UserRepository) generation(ctx context.Context) (int64, bool) {
	if r.cache == nil {
		return 0, false
	}
	gen, err := r.cache.Generation(ctx)
	if err != nil {
		r.log.Warn("failed to read cache generation, skipping cache fill", zap.Error(err))
		return 0, false
	}
	return gen, true
}

func (r *UserRepository) logStore(err error, msg string, fields ...zap.Field) {
	switch {
	case err == nil:
	case errors.Is(err, cache.ErrStale):
		r.log.Debug("write raced the load, not caching", fields...)
	default:
		r.log.Warn(msg, append(fields, zap.Error(err))...)
	}
}

func (r *UserRepository) invalidate(ctx context.Context, ids ...int64) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Invalidate(ctx, ids...); err != nil {
		r.log.Warn("failed to invalidate cache after write", zap.Int64s("ids", ids), zap.Error(err))
	}
}
