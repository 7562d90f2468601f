package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"authd/internal/models"
	"authd/internal/repository"
)

// In-memory doubles for the store interfaces. They mirror the sentinel
// behavior of the pgx repositories so the services cannot tell them apart.

type memUserStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]models.User)}
}

func (s *memUserStore) Create(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return repository.ErrUserExists
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *memUserStore) GetByID(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (s *memUserStore) GetByUsername(_ context.Context, username string) (models.User, error) {
	return s.find(func(u models.User) bool { return u.Username == username })
}

func (s *memUserStore) GetByEmail(_ context.Context, email string) (models.User, error) {
	return s.find(func(u models.User) bool { return u.Email == email })
}

func (s *memUserStore) GetByActivationToken(_ context.Context, token string) (models.User, error) {
	return s.find(func(u models.User) bool {
		return u.ActivationToken != nil && *u.ActivationToken == token
	})
}

func (s *memUserStore) find(match func(models.User) bool) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if match(user) {
			return user, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (s *memUserStore) Update(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return repository.ErrUserNotFound
	}
	for id, existing := range s.users {
		if id == user.ID {
			continue
		}
		if existing.Username == user.Username || existing.Email == user.Email {
			return repository.ErrUserExists
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *memUserStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *memUserStore) List(_ context.Context, isActive *bool) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.User, 0, len(s.users))
	for _, user := range s.users {
		if isActive != nil && user.IsActive != *isActive {
			continue
		}
		out = append(out, user)
	}
	return out, nil
}

// put bypasses the uniqueness check so tests can mutate stored state.
func (s *memUserStore) put(user models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
}

type memTokenStore struct {
	mu     sync.Mutex
	tokens map[string]models.RefreshToken
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{tokens: make(map[string]models.RefreshToken)}
}

func (s *memTokenStore) Create(_ context.Context, token models.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[token.Token]; ok {
		return errors.New("duplicate refresh token")
	}
	s.tokens[token.Token] = token
	return nil
}

func (s *memTokenStore) GetByToken(_ context.Context, token string) (models.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.tokens[token]
	if !ok {
		return models.RefreshToken{}, repository.ErrRefreshTokenNotFound
	}
	return stored, nil
}

func (s *memTokenStore) DeleteByToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}

func (s *memTokenStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

type sentMail struct {
	To    string
	Token string
}

type memNotifier struct {
	mu          sync.Mutex
	activations []sentMail
	resets      []sentMail
	err         error
}

func (n *memNotifier) SendActivation(_ context.Context, to, token string, _ time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.activations = append(n.activations, sentMail{To: to, Token: token})
	return nil
}

func (n *memNotifier) SendPasswordReset(_ context.Context, to, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.resets = append(n.resets, sentMail{To: to, Token: token})
	return nil
}

var errCacheMiss = errors.New("cache miss")

type memCache struct {
	mu      sync.Mutex
	values  map[string]string
	deletes int
}

func newMemCache() *memCache {
	return &memCache{values: make(map[string]string)}
}

func (c *memCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.values[key]
	if !ok {
		return "", errCacheMiss
	}
	return value, nil
}

func (c *memCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
	c.deletes++
	return nil
}
