package service

import (
	"context"
	"time"

	"authd/internal/models"
)

// UserStore is the persistence contract the services consume. The pgx
// implementation lives in internal/repository.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByUsername(ctx context.Context, username string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByActivationToken(ctx context.Context, token string) (models.User, error)
	Update(ctx context.Context, user models.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, isActive *bool) ([]models.User, error)
}

type RefreshTokenStore interface {
	Create(ctx context.Context, token models.RefreshToken) error
	GetByToken(ctx context.Context, token string) (models.RefreshToken, error)
	DeleteByToken(ctx context.Context, token string) error
}

// Notifier delivers account e-mails. The queue-backed implementation only
// enqueues; actual sending happens in the worker.
type Notifier interface {
	SendActivation(ctx context.Context, to, token string, expiresAt time.Time) error
	SendPasswordReset(ctx context.Context, to, token string) error
}

// Cache is the slice of the key/value store the services touch. It is never
// load-bearing: every cache error is logged and swallowed.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// usersListCacheKey caches the unfiltered user listing. Any account-state
// mutation invalidates it.
const usersListCacheKey = "users:list"
