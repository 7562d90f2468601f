package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"authd/internal/ids"
	"authd/internal/models"
)

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Signer issues and verifies HMAC-signed tokens with the single process-wide
// secret. The secret comes from configuration at startup; there is exactly
// one per process and it is never mutated.
type Signer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewSigner(secret string, accessTTL, refreshTTL time.Duration) *Signer {
	return &Signer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Issue signs a token for the subject with the given TTL and returns the
// computed expiry alongside it, so callers can persist expiresAt without
// re-parsing the token.
func (s *Signer) Issue(subjectID, username string, role models.UserRole, ttl time.Duration) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(ttl)

	claims := Claims{
		Username: username,
		Role:     string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			// A unique jti keeps two tokens minted for the same subject in
			// the same second from serializing identically; the refresh
			// token string is a primary key downstream.
			ID: ids.New(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (s *Signer) IssueAccess(subjectID, username string, role models.UserRole) (string, time.Time, error) {
	return s.Issue(subjectID, username, role, s.accessTTL)
}

func (s *Signer) IssueRefresh(subjectID, username string, role models.UserRole) (string, time.Time, error) {
	return s.Issue(subjectID, username, role, s.refreshTTL)
}

// Verify checks signature and expiry. Expired-but-otherwise-valid tokens
// fail with ErrTokenExpired; everything else fails with ErrTokenInvalid.
func (s *Signer) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// IsAdminToken reports whether the token carries the admin role. Any
// verification failure answers false; this path fails closed to non-admin
// and never surfaces the underlying error.
func (s *Signer) IsAdminToken(tokenStr string) bool {
	claims, err := s.Verify(tokenStr)
	if err != nil {
		return false
	}
	return models.UserRole(claims.Role) == models.UserRoleAdmin
}
