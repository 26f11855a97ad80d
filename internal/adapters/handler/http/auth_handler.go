package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/habitflow-sync-engine/internal/core/domain"
	"github.com/comitanigiacomo/habitflow-sync-engine/internal/core/services"
)

// Sessions is the part of the habit service the auth endpoints drive:
// documents are loaded at login and flushed at logout.
type Sessions interface {
	StartSession(ctx context.Context, userID string) error
	EndSession(ctx context.Context, userID string) error
}

type AuthHandler struct {
	service  *services.AuthService
	tokens   *services.TokenService
	sessions Sessions
}

func NewAuthHandler(service *services.AuthService, tokens *services.TokenService, sessions Sessions) *AuthHandler {
	return &AuthHandler{
		service:  service,
		tokens:   tokens,
		sessions: sessions,
	}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Timezone string `json:"timezone"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type userResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Timezone string `json:"timezone"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      userResponse `json:"user"`
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
	}
}

// RegisterProtectedRoutes mounts the endpoints that need a valid token.
func (h *AuthHandler) RegisterProtectedRoutes(router *gin.RouterGroup) {
	router.POST("/auth/logout", h.Logout)
}

// Register godoc
// @Summary  Create an account
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body body registerRequest true "credentials"
// @Success  201 {object} userResponse
// @Failure  400 {object} errorResponse
// @Failure  409 {object} errorResponse
// @Router   /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.service.Register(c.Request.Context(), services.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Timezone: req.Timezone,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmailAlreadyExists):
			c.JSON(http.StatusConflict, gin.H{"error": "email already exists"})
		case errors.Is(err, domain.ErrInvalidEmail):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email format"})
		case errors.Is(err, domain.ErrPasswordTooShort):
			c.JSON(http.StatusBadRequest, gin.H{"error": "password too short"})
		case errors.Is(err, domain.ErrInvalidTimezone):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid timezone"})
		default:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusCreated, toUserResponse(user))
}

// Login godoc
// @Summary  Exchange credentials for a bearer token
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body body loginRequest true "credentials"
// @Success  200 {object} loginResponse
// @Failure  401 {object} errorResponse
// @Router   /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	token, err := h.tokens.GenerateToken(user.ID)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	// A failed preload is retried on the first request that needs the document.
	if h.sessions != nil {
		if err := h.sessions.StartSession(c.Request.Context(), user.ID); err != nil {
			_ = c.Error(err)
		}
	}

	c.JSON(http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(h.tokens.TTL()).UTC(),
		User:      toUserResponse(user),
	})
}

// Logout godoc
// @Summary  Save pending changes and close the session
// @Tags     auth
// @Success  204
// @Failure  500 {object} errorResponse
// @Security BearerAuth
// @Router   /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if h.sessions != nil {
		if err := h.sessions.EndSession(c.Request.Context(), userID); err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save your data, try again"})
			return
		}
	}

	c.Status(http.StatusNoContent)
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:       u.ID,
		Email:    u.Email,
		Timezone: u.Timezone,
	}
}
