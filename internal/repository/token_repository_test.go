package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authd/internal/models"
)

func newTokenRepoMock(t *testing.T) (pgxmock.PgxPoolIface, *RefreshTokenRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewRefreshTokenRepository(mock)
}

func TestRefreshTokenRepositoryCreate(t *testing.T) {
	mock, repo := newTokenRepoMock(t)

	expiresAt := time.Now().UTC().Add(24 * time.Hour)
	mock.ExpectExec("INSERT INTO refresh_tokens").
		WithArgs("tok", "u1", expiresAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), models.RefreshToken{
		Token:     "tok",
		UserID:    "u1",
		ExpiresAt: expiresAt,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepositoryGetByToken(t *testing.T) {
	mock, repo := newTokenRepoMock(t)

	now := time.Now().UTC()
	expiresAt := now.Add(24 * time.Hour)
	mock.ExpectQuery("SELECT (.+) FROM refresh_tokens").
		WithArgs("tok").
		WillReturnRows(pgxmock.NewRows([]string{"token", "user_id", "expires_at", "created_at"}).
			AddRow("tok", "u1", expiresAt, now))

	token, err := repo.GetByToken(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "u1", token.UserID)
	assert.False(t, token.Expired(now))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepositoryGetByTokenNotFound(t *testing.T) {
	mock, repo := newTokenRepoMock(t)

	mock.ExpectQuery("SELECT (.+) FROM refresh_tokens").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByToken(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRefreshTokenNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepositoryDeleteByTokenIdempotent(t *testing.T) {
	mock, repo := newTokenRepoMock(t)

	// Zero rows affected is still a clean delete.
	mock.ExpectExec("DELETE FROM refresh_tokens WHERE token").
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, repo.DeleteByToken(context.Background(), "missing"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepositoryDeleteExpired(t *testing.T) {
	mock, repo := newTokenRepoMock(t)

	now := time.Now().UTC()
	mock.ExpectExec("DELETE FROM refresh_tokens WHERE expires_at").
		WithArgs(now).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	removed, err := repo.DeleteExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)
	require.NoError(t, mock.ExpectationsWereMet())
}
