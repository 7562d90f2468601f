package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"authd/internal/ids"
	"authd/internal/models"
	"authd/internal/repository"
	"authd/internal/security"
)

var (
	ErrPasswordMismatch   = errors.New("password confirmation does not match")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrMissingCredentials = errors.New("username and password required")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidRefreshToken covers every refresh rejection: unknown token,
	// owner mismatch, lazy expiry. Callers see one soft outcome.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	ErrResetTokenMismatch = errors.New("reset token does not match this account")
	ErrResetUnavailable   = errors.New("password reset unavailable")
)

type AuthService struct {
	users    UserStore
	tokens   RefreshTokenStore
	signer   *security.Signer
	notifier Notifier
	cache    Cache
	log      zerolog.Logger

	activationTTL time.Duration
	resetTTL      time.Duration
}

func NewAuthService(
	users UserStore,
	tokens RefreshTokenStore,
	signer *security.Signer,
	notifier Notifier,
	cache Cache,
	log zerolog.Logger,
	activationTTL time.Duration,
	resetTTL time.Duration,
) *AuthService {
	return &AuthService{
		users:         users,
		tokens:        tokens,
		signer:        signer,
		notifier:      notifier,
		cache:         cache,
		log:           log,
		activationTTL: activationTTL,
		resetTTL:      resetTTL,
	}
}

type SignUpInput struct {
	Username        string
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

type AuthResult struct {
	User             models.User
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// SignUp creates an inactive account, issues the activation token and the
// first access/refresh pair, and enqueues the activation e-mail. E-mail
// delivery is best-effort: a failed enqueue is logged, never propagated.
func (s *AuthService) SignUp(ctx context.Context, input SignUpInput) (AuthResult, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))

	if input.Username == "" || input.Password == "" {
		return AuthResult{}, ErrMissingCredentials
	}
	if input.Password != input.ConfirmPassword {
		return AuthResult{}, ErrPasswordMismatch
	}

	// Fast-path duplicate check. The unique indexes on username and email
	// close the remaining check-then-act window below.
	if _, err := s.users.GetByUsername(ctx, input.Username); err == nil {
		return AuthResult{}, ErrUserExists
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return AuthResult{}, err
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return AuthResult{}, err
	}

	userID := ids.New()
	activationToken, activationExpiresAt, err := s.signer.Issue(userID, input.Username, models.UserRoleUser, s.activationTTL)
	if err != nil {
		return AuthResult{}, err
	}

	user := models.User{
		ID:                       userID,
		Username:                 input.Username,
		Name:                     input.Name,
		Email:                    input.Email,
		PasswordHash:             passwordHash,
		Role:                     models.UserRoleUser,
		IsActive:                 false,
		ActivationToken:          &activationToken,
		ActivationTokenExpiresAt: &activationExpiresAt,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return AuthResult{}, ErrUserExists
		}
		return AuthResult{}, err
	}

	result, err := s.issuePair(ctx, user)
	if err != nil {
		return AuthResult{}, err
	}

	if err := s.notifier.SendActivation(ctx, user.Email, activationToken, activationExpiresAt); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("activation e-mail enqueue failed")
	}

	s.invalidateListing(ctx)

	s.log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("user signed up")
	return result, nil
}

// Activate flips an account to active. The presented token must verify as a
// signed, unexpired token AND match the activation token stored on some user
// AND be within the stored expiry window. Clearing the stored pair on
// success makes activation single-use: old links stop matching.
func (s *AuthService) Activate(ctx context.Context, token string) (models.User, error) {
	if _, err := s.signer.Verify(token); err != nil {
		return models.User{}, err
	}

	user, err := s.users.GetByActivationToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}

	if user.ActivationTokenExpiresAt != nil && time.Now().UTC().After(*user.ActivationTokenExpiresAt) {
		return models.User{}, security.ErrTokenExpired
	}

	user.IsActive = true
	user.ActivationToken = nil
	user.ActivationTokenExpiresAt = nil

	if err := s.users.Update(ctx, user); err != nil {
		return models.User{}, err
	}

	s.invalidateListing(ctx)

	s.log.Info().Str("user_id", user.ID).Msg("user activated")
	return user, nil
}

// Login verifies credentials and issues a fresh access/refresh pair. The
// caller delivers the refresh token out-of-band (HTTP-only cookie).
func (s *AuthService) Login(ctx context.Context, username, password string) (AuthResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return AuthResult{}, ErrMissingCredentials
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return AuthResult{}, ErrUserNotFound
		}
		return AuthResult{}, err
	}

	if !security.VerifyPassword(password, user.PasswordHash) {
		return AuthResult{}, ErrInvalidCredentials
	}

	result, err := s.issuePair(ctx, user)
	if err != nil {
		return AuthResult{}, err
	}

	s.log.Info().Str("user_id", user.ID).Msg("user logged in")
	return result, nil
}

type RefreshInput struct {
	UserID       string
	Username     string
	Role         models.UserRole
	RefreshToken string
}

type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Refresh rotates a refresh token: the presented token must exist, belong to
// the caller-asserted user, and be unexpired. The old row is deleted BEFORE
// the new one is saved. A crash between the two leaves the session with zero
// valid refresh tokens, never two; reversing the order would open a window
// with two live tokens and break the single-use invariant.
func (s *AuthService) Refresh(ctx context.Context, input RefreshInput) (TokenPair, error) {
	stored, err := s.tokens.GetByToken(ctx, input.RefreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			return TokenPair{}, ErrInvalidRefreshToken
		}
		return TokenPair{}, err
	}

	if stored.UserID != input.UserID {
		s.log.Warn().
			Str("asserted_user", input.UserID).
			Str("token_user", stored.UserID).
			Msg("refresh token owner mismatch")
		return TokenPair{}, ErrInvalidRefreshToken
	}

	if stored.Expired(time.Now().UTC()) {
		return TokenPair{}, ErrInvalidRefreshToken
	}

	if err := s.tokens.DeleteByToken(ctx, input.RefreshToken); err != nil {
		return TokenPair{}, err
	}

	accessToken, _, err := s.signer.IssueAccess(input.UserID, input.Username, input.Role)
	if err != nil {
		return TokenPair{}, err
	}
	refreshToken, refreshExpiresAt, err := s.signer.IssueRefresh(input.UserID, input.Username, input.Role)
	if err != nil {
		return TokenPair{}, err
	}

	if err := s.tokens.Create(ctx, models.RefreshToken{
		Token:     refreshToken,
		UserID:    input.UserID,
		ExpiresAt: refreshExpiresAt,
	}); err != nil {
		return TokenPair{}, err
	}

	s.log.Info().Str("user_id", input.UserID).Msg("refresh token rotated")
	return TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

// Logout deletes the presented refresh token. Unknown tokens are fine;
// logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.tokens.DeleteByToken(ctx, refreshToken)
}

// RequestPasswordReset stores a single-purpose token on the account and
// enqueues the reset e-mail. Every failure collapses into a soft outcome;
// this path never exposes internal error text.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		s.log.Error().Err(err).Msg("password reset lookup failed")
		return ErrResetUnavailable
	}

	token, expiresAt, err := s.signer.Issue(user.ID, user.Username, user.Role, s.resetTTL)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("reset token issue failed")
		return ErrResetUnavailable
	}

	user.ResetToken = &token
	user.ResetTokenExpiresAt = &expiresAt

	if err := s.users.Update(ctx, user); err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("reset token store failed")
		return ErrResetUnavailable
	}

	if err := s.notifier.SendPasswordReset(ctx, user.Email, token); err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("reset e-mail enqueue failed")
		return ErrResetUnavailable
	}

	s.log.Info().Str("user_id", user.ID).Msg("password reset requested")
	return nil
}

type ResetPasswordInput struct {
	Email       string
	NewPassword string
	Token       string
}

// ResetPassword applies a password reset. The presented token must verify,
// equal the token stored on the account found by e-mail, be within the
// stored expiry, and name that same account as its subject. Anything less
// lets a holder of any valid token reset any known e-mail's password.
func (s *AuthService) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	email := strings.TrimSpace(strings.ToLower(input.Email))

	claims, err := s.signer.Verify(input.Token)
	if err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		s.log.Error().Err(err).Msg("password reset lookup failed")
		return ErrResetUnavailable
	}

	if user.ResetToken == nil || *user.ResetToken != input.Token {
		return ErrResetTokenMismatch
	}
	if claims.Subject != user.ID {
		return ErrResetTokenMismatch
	}
	if user.ResetTokenExpiresAt != nil && time.Now().UTC().After(*user.ResetTokenExpiresAt) {
		return security.ErrTokenExpired
	}

	passwordHash, err := security.HashPassword(input.NewPassword)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("password hash failed")
		return ErrResetUnavailable
	}

	user.PasswordHash = passwordHash
	user.ResetToken = nil
	user.ResetTokenExpiresAt = nil

	if err := s.users.Update(ctx, user); err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("password reset update failed")
		return ErrResetUnavailable
	}

	s.log.Info().Str("user_id", user.ID).Msg("password reset applied")
	return nil
}

func (s *AuthService) issuePair(ctx context.Context, user models.User) (AuthResult, error) {
	accessToken, _, err := s.signer.IssueAccess(user.ID, user.Username, user.Role)
	if err != nil {
		return AuthResult{}, err
	}

	refreshToken, refreshExpiresAt, err := s.signer.IssueRefresh(user.ID, user.Username, user.Role)
	if err != nil {
		return AuthResult{}, err
	}

	if err := s.tokens.Create(ctx, models.RefreshToken{
		Token:     refreshToken,
		UserID:    user.ID,
		ExpiresAt: refreshExpiresAt,
	}); err != nil {
		return AuthResult{}, err
	}

	return AuthResult{
		User:             user,
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

func (s *AuthService) invalidateListing(ctx context.Context) {
	if err := s.cache.Delete(ctx, usersListCacheKey); err != nil {
		s.log.Warn().Err(err).Msg("user listing cache invalidation failed")
	}
}
