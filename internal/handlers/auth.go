package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"authd/internal/middleware"
	"authd/internal/models"
	"authd/internal/security"
	"authd/internal/service"
)

const refreshCookieName = "refreshToken"

type signUpRequest struct {
	Username        string `json:"username" binding:"required"`
	Name            string `json:"name" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	IsActive bool   `json:"isActive"`
}

type authResponse struct {
	User        userResponse `json:"user"`
	AccessToken string       `json:"accessToken"`
}

func (h HandlerSet) SignUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.authService.SignUp(c.Request.Context(), service.SignUpInput{
		Username:        req.Username,
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPasswordMismatch):
			c.JSON(http.StatusBadRequest, gin.H{"error": "password confirmation does not match"})
		case errors.Is(err, service.ErrUserExists):
			c.JSON(http.StatusBadRequest, gin.H{"error": "user already exists"})
		default:
			h.log.Error().Err(err).Msg("sign-up failed")
			c.JSON(http.StatusBadRequest, gin.H{"error": "sign-up failed"})
		}
		return
	}

	h.metrics.SignUps.Inc()
	h.setRefreshCookie(c, result.RefreshToken, result.RefreshExpiresAt)
	c.JSON(http.StatusCreated, authResponse{
		User:        toUserResponse(result.User),
		AccessToken: result.AccessToken,
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingCredentials):
			h.metrics.Logins.WithLabelValues("invalid").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
		case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrInvalidCredentials):
			h.metrics.Logins.WithLabelValues("denied").Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
		default:
			h.metrics.Logins.WithLabelValues("error").Inc()
			h.log.Error().Err(err).Msg("login failed")
			c.JSON(http.StatusBadRequest, gin.H{"error": "login failed"})
		}
		return
	}

	h.metrics.Logins.WithLabelValues("ok").Inc()
	h.setRefreshCookie(c, result.RefreshToken, result.RefreshExpiresAt)
	c.JSON(http.StatusOK, authResponse{
		User:        toUserResponse(result.User),
		AccessToken: result.AccessToken,
	})
}

// Refresh exchanges the cookie-held refresh token for a new pair. Identity
// comes from the verified access token; the service checks that the
// persisted token belongs to that same user.
func (h HandlerSet) Refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(refreshCookieName)
	if err != nil || refreshToken == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "refresh token not found"})
		return
	}

	pair, err := h.authService.Refresh(c.Request.Context(), service.RefreshInput{
		UserID:       c.GetString(middleware.ContextUserID),
		Username:     c.GetString(middleware.ContextUsername),
		Role:         models.UserRole(c.GetString(middleware.ContextRole)),
		RefreshToken: refreshToken,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefreshToken) {
			h.metrics.RotationsDenied.Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		h.log.Error().Err(err).Msg("refresh failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "refresh failed"})
		return
	}

	h.metrics.Rotations.Inc()
	h.setRefreshCookie(c, pair.RefreshToken, pair.RefreshExpiresAt)
	c.JSON(http.StatusCreated, gin.H{"accessToken": pair.AccessToken})
}

func (h HandlerSet) Logout(c *gin.Context) {
	refreshToken, _ := c.Cookie(refreshCookieName)

	if err := h.authService.Logout(c.Request.Context(), refreshToken); err != nil {
		h.log.Error().Err(err).Msg("logout failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}

	h.clearRefreshCookie(c)
	c.Status(http.StatusNoContent)
}

func (h HandlerSet) Activate(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "activation token required"})
		return
	}

	user, err := h.authService.Activate(c.Request.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, security.ErrTokenExpired):
			c.JSON(http.StatusForbidden, gin.H{"error": "activation token expired"})
		case errors.Is(err, security.ErrTokenInvalid):
			c.JSON(http.StatusForbidden, gin.H{"error": "activation token invalid"})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": "user does not exist"})
		default:
			h.log.Error().Err(err).Msg("activation failed")
			c.JSON(http.StatusBadRequest, gin.H{"error": "activation failed"})
		}
		return
	}

	h.metrics.Activations.Inc()
	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// RequestPasswordReset answers uniformly whether or not the e-mail exists,
// so the endpoint cannot be used to enumerate accounts.
func (h HandlerSet) RequestPasswordReset(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	err := h.authService.RequestPasswordReset(c.Request.Context(), req.Email)
	if err != nil && !errors.Is(err, service.ErrUserNotFound) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not process the password reset request"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "if the e-mail exists, a reset link has been sent"})
}

type resetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
	Token       string `json:"token" binding:"required"`
}

func (h HandlerSet) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	err := h.authService.ResetPassword(c.Request.Context(), service.ResetPasswordInput{
		Email:       req.Email,
		NewPassword: req.NewPassword,
		Token:       req.Token,
	})
	if err != nil {
		switch {
		case errors.Is(err, security.ErrTokenInvalid),
			errors.Is(err, security.ErrTokenExpired),
			errors.Is(err, service.ErrResetTokenMismatch):
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid or expired reset token"})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not reset the password"})
		}
		return
	}

	h.metrics.PasswordResets.Inc()
	c.JSON(http.StatusOK, gin.H{"message": "password has been reset"})
}

func (h HandlerSet) setRefreshCookie(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	secure := h.cfg.Environment == "production"
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, token, maxAge, "/", "", secure, true)
}

func (h HandlerSet) clearRefreshCookie(c *gin.Context) {
	secure := h.cfg.Environment == "production"
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, "", -1, "/", "", secure, true)
}

func toUserResponse(user models.User) userResponse {
	return userResponse{
		ID:       user.ID,
		Username: user.Username,
		Name:     user.Name,
		Email:    user.Email,
		Role:     string(user.Role),
		IsActive: user.IsActive,
	}
}
