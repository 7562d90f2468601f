package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"authd/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists covers both the service-level duplicate check and the
	// unique indexes on username and email, so the check-then-act race is
	// closed at the data layer with the same outcome.
	ErrUserExists = errors.New("user already exists")
)

type UserRepository struct {
	db DB
}

func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, name, email, password_hash, role, is_active,
	activation_token, activation_token_expires_at, reset_token, reset_token_expires_at,
	created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, user models.User) error {
	const query = `
		INSERT INTO users (
			id, username, name, email, password_hash, role, is_active,
			activation_token, activation_token_expires_at, reset_token, reset_token_expires_at,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW()
		)
	`

	_, err := r.db.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.IsActive,
		user.ActivationToken,
		user.ActivationTokenExpiresAt,
		user.ResetToken,
		user.ResetTokenExpiresAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(ctx, query, id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return r.scanUser(ctx, query, username)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(ctx, query, email)
}

// GetByActivationToken looks a user up by the stored activation token. The
// stored string is the lookup key: once the field is cleared, old links stop
// matching, which is what makes activation single-use.
func (r *UserRepository) GetByActivationToken(ctx context.Context, token string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE activation_token = $1`
	return r.scanUser(ctx, query, token)
}

func (r *UserRepository) Update(ctx context.Context, user models.User) error {
	const query = `
		UPDATE users
		SET username = $2, name = $3, email = $4, password_hash = $5, role = $6,
		    is_active = $7, activation_token = $8, activation_token_expires_at = $9,
		    reset_token = $10, reset_token_expires_at = $11, updated_at = NOW()
		WHERE id = $1
	`

	cmd, err := r.db.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.IsActive,
		user.ActivationToken,
		user.ActivationTokenExpiresAt,
		user.ResetToken,
		user.ResetTokenExpiresAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUserExists
		}
		return fmt.Errorf("update user: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM users WHERE id = $1`
	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// List returns all users, optionally filtered by active state.
func (r *UserRepository) List(ctx context.Context, isActive *bool) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at`
	args := []any{}
	if isActive != nil {
		query = `SELECT ` + userColumns + ` FROM users WHERE is_active = $1 ORDER BY created_at`
		args = append(args, *isActive)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := scanUserRow(rows, &u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepository) scanUser(ctx context.Context, query string, args ...any) (models.User, error) {
	var u models.User
	if err := scanUserRow(r.db.QueryRow(ctx, query, args...), &u); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return u, nil
}

func scanUserRow(row pgx.Row, u *models.User) error {
	return row.Scan(
		&u.ID,
		&u.Username,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.IsActive,
		&u.ActivationToken,
		&u.ActivationTokenExpiresAt,
		&u.ResetToken,
		&u.ResetTokenExpiresAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
}
