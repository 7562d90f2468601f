package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authd/internal/models"
)

var userRows = []string{
	"id", "username", "name", "email", "password_hash", "role", "is_active",
	"activation_token", "activation_token_expires_at", "reset_token", "reset_token_expires_at",
	"created_at", "updated_at",
}

func newUserRepoMock(t *testing.T) (pgxmock.PgxPoolIface, *UserRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewUserRepository(mock)
}

func TestUserRepositoryCreate(t *testing.T) {
	mock, repo := newUserRepoMock(t)

	user := models.User{
		ID:           "u1",
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: []byte("hash"),
		Role:         models.UserRoleUser,
	}

	mock.ExpectExec("INSERT INTO users").
		WithArgs(user.ID, user.Username, user.Name, user.Email, user.PasswordHash,
			user.Role, user.IsActive, user.ActivationToken, user.ActivationTokenExpiresAt,
			user.ResetToken, user.ResetTokenExpiresAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), user))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreateDuplicate(t *testing.T) {
	mock, repo := newUserRepoMock(t)

	mock.ExpectExec("INSERT INTO users").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{
			Code:           "23505",
			Message:        "duplicate key value violates unique constraint",
			ConstraintName: "users_username_key",
		})

	err := repo.Create(context.Background(), models.User{ID: "u1", Username: "alice"})
	assert.ErrorIs(t, err, ErrUserExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryGetByUsername(t *testing.T) {
	mock, repo := newUserRepoMock(t)

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM users WHERE username").
		WithArgs("alice").
		WillReturnRows(pgxmock.NewRows(userRows).AddRow(
			"u1", "alice", "Alice", "alice@example.com", []byte("hash"),
			models.UserRoleUser, true, nil, nil, nil, nil, now, now,
		))

	user, err := repo.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.True(t, user.IsActive)
	assert.Nil(t, user.ActivationToken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryGetByUsernameNotFound(t *testing.T) {
	mock, repo := newUserRepoMock(t)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE username").
		WithArgs("nobody").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByUsername(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryGetByActivationToken(t *testing.T) {
	mock, repo := newUserRepoMock(t)

	now := time.Now().UTC()
	token := "signed-token"
	mock.ExpectQuery("SELECT (.+) FROM users WHERE activation_token").
		WithArgs(token).
		WillReturnRows(pgxmock.NewRows(userRows).AddRow(
			"u1", "alice", "Alice", "alice@example.com", []byte("hash"),
			models.UserRoleUser, false, &token, &now, nil, nil, now, now,
		))

	user, err := repo.GetByActivationToken(context.Background(), token)
	require.NoError(t, err)
	require.NotNil(t, user.ActivationToken)
	assert.Equal(t, token, *user.ActivationToken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryUpdateNotFound(t *testing.T) {
	mock, repo := newUserRepoMock(t)

	mock.ExpectExec("UPDATE users").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Update(context.Background(), models.User{ID: "missing"})
	assert.ErrorIs(t, err, ErrUserNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryDelete(t *testing.T) {
	mock, repo := newUserRepoMock(t)

	mock.ExpectExec("DELETE FROM users").
		WithArgs("u1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM users").
		WithArgs("u1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, repo.Delete(context.Background(), "u1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "u1"), ErrUserNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryList(t *testing.T) {
	mock, repo := newUserRepoMock(t)

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM users ORDER BY created_at").
		WillReturnRows(pgxmock.NewRows(userRows).
			AddRow("u1", "alice", "", "alice@example.com", []byte("h"),
				models.UserRoleUser, true, nil, nil, nil, nil, now, now).
			AddRow("u2", "bob", "", "bob@example.com", []byte("h"),
				models.UserRoleAdmin, false, nil, nil, nil, nil, now, now))

	users, err := repo.List(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, models.UserRoleAdmin, users[1].Role)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryListFiltered(t *testing.T) {
	mock, repo := newUserRepoMock(t)

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM users WHERE is_active").
		WithArgs(true).
		WillReturnRows(pgxmock.NewRows(userRows).
			AddRow("u1", "alice", "", "alice@example.com", []byte("h"),
				models.UserRoleUser, true, nil, nil, nil, nil, now, now))

	active := true
	users, err := repo.List(context.Background(), &active)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)
	require.NoError(t, mock.ExpectationsWereMet())
}
