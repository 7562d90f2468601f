package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"authd/internal/models"
	"authd/internal/repository"
	"authd/internal/security"
)

const usersListCacheTTL = 5 * time.Minute

type UserService struct {
	users UserStore
	cache Cache
	log   zerolog.Logger
}

func NewUserService(users UserStore, cache Cache, log zerolog.Logger) *UserService {
	return &UserService{users: users, cache: cache, log: log}
}

type userListing struct {
	ID       string          `json:"id"`
	Username string          `json:"username"`
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Role     models.UserRole `json:"role"`
	IsActive bool            `json:"isActive"`
}

// List returns all users, optionally filtered by active state. The
// unfiltered listing is served read-through from the cache; filtered
// listings always hit the store.
func (s *UserService) List(ctx context.Context, isActive *bool) ([]models.User, error) {
	if isActive == nil {
		if cached, err := s.cache.Get(ctx, usersListCacheKey); err == nil {
			var listing []userListing
			if err := json.Unmarshal([]byte(cached), &listing); err == nil {
				return listingToUsers(listing), nil
			}
		}
	}

	users, err := s.users.List(ctx, isActive)
	if err != nil {
		return nil, err
	}

	if isActive == nil {
		listing := make([]userListing, 0, len(users))
		for _, u := range users {
			listing = append(listing, userListing{
				ID:       u.ID,
				Username: u.Username,
				Name:     u.Name,
				Email:    u.Email,
				Role:     u.Role,
				IsActive: u.IsActive,
			})
		}
		if data, err := json.Marshal(listing); err == nil {
			if err := s.cache.Set(ctx, usersListCacheKey, string(data), usersListCacheTTL); err != nil {
				s.log.Warn().Err(err).Msg("user listing cache write failed")
			}
		}
	}

	return users, nil
}

func (s *UserService) Get(ctx context.Context, id string) (models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

type UpdateUserInput struct {
	ID              string
	Username        string
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// Update replaces a user's profile fields and, when a new password is
// supplied, its hash. The target account is the one named by ID; the caller
// resolves ID from the authorized route, never from the request body, so a
// body naming someone else's username cannot redirect the write.
func (s *UserService) Update(ctx context.Context, input UpdateUserInput) (models.User, error) {
	user, err := s.users.GetByID(ctx, input.ID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}

	if input.Password != "" {
		if input.Password != input.ConfirmPassword {
			return models.User{}, ErrPasswordMismatch
		}
		hash, err := security.HashPassword(input.Password)
		if err != nil {
			return models.User{}, err
		}
		user.PasswordHash = hash
	}

	if input.Username != "" {
		user.Username = strings.TrimSpace(input.Username)
	}
	if input.Name != "" {
		user.Name = input.Name
	}
	if input.Email != "" {
		user.Email = strings.TrimSpace(strings.ToLower(input.Email))
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return models.User{}, ErrUserExists
		}
		return models.User{}, err
	}

	s.invalidateListing(ctx)
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id string) (models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return models.User{}, err
	}

	s.invalidateListing(ctx)
	s.log.Info().Str("user_id", id).Msg("user deleted")
	return user, nil
}

func (s *UserService) invalidateListing(ctx context.Context) {
	if err := s.cache.Delete(ctx, usersListCacheKey); err != nil {
		s.log.Warn().Err(err).Msg("user listing cache invalidation failed")
	}
}

func listingToUsers(listing []userListing) []models.User {
	users := make([]models.User, 0, len(listing))
	for _, l := range listing {
		users = append(users, models.User{
			ID:       l.ID,
			Username: l.Username,
			Name:     l.Name,
			Email:    l.Email,
			Role:     l.Role,
			IsActive: l.IsActive,
		})
	}
	return users
}
