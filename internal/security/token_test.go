package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authd/internal/models"
)

func newTestSigner() *Signer {
	return NewSigner("test-secret", 15*time.Minute, 24*time.Hour)
}

func TestIssueAndVerify(t *testing.T) {
	signer := newTestSigner()

	token, expiresAt, err := signer.IssueAccess("user-1", "alice", models.UserRoleUser)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), expiresAt, 5*time.Second)

	claims, err := signer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, string(models.UserRoleUser), claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestIssuedTokensAreUnique(t *testing.T) {
	signer := newTestSigner()

	// Same subject, same TTL, same second: the jti must still keep the
	// serialized tokens distinct.
	first, _, err := signer.IssueRefresh("user-1", "alice", models.UserRoleUser)
	require.NoError(t, err)
	second, _, err := signer.IssueRefresh("user-1", "alice", models.UserRoleUser)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestVerifyExpiredToken(t *testing.T) {
	signer := newTestSigner()

	token, _, err := signer.Issue("user-1", "alice", models.UserRoleUser, -time.Minute)
	require.NoError(t, err)

	_, err = signer.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyTamperedToken(t *testing.T) {
	signer := newTestSigner()

	token, _, err := signer.IssueAccess("user-1", "alice", models.UserRoleUser)
	require.NoError(t, err)

	_, err = signer.Verify(token + "x")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyForeignSecret(t *testing.T) {
	theirs := NewSigner("their-secret", 15*time.Minute, 24*time.Hour)
	token, _, err := theirs.IssueAccess("user-1", "alice", models.UserRoleUser)
	require.NoError(t, err)

	_, err = newTestSigner().Verify(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyGarbage(t *testing.T) {
	signer := newTestSigner()

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := signer.Verify(token)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	}
}

func TestIsAdminToken(t *testing.T) {
	signer := newTestSigner()

	adminToken, _, err := signer.IssueAccess("admin-1", "root", models.UserRoleAdmin)
	require.NoError(t, err)
	userToken, _, err := signer.IssueAccess("user-1", "alice", models.UserRoleUser)
	require.NoError(t, err)
	expired, _, err := signer.Issue("admin-1", "root", models.UserRoleAdmin, -time.Minute)
	require.NoError(t, err)

	assert.True(t, signer.IsAdminToken(adminToken))
	assert.False(t, signer.IsAdminToken(userToken))
	assert.False(t, signer.IsAdminToken(expired))
	assert.False(t, signer.IsAdminToken("garbage"))
}
