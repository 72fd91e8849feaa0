package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rjoubert/tablebook/internal/auth"
	"github.com/rjoubert/tablebook/internal/config"
	"github.com/rjoubert/tablebook/internal/domain/user"
	"github.com/rjoubert/tablebook/internal/http/middlewares"
	"github.com/rjoubert/tablebook/internal/security"
)

type UserStore interface {
	Create(ctx context.Context, email, passwordHash, name, role string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type AuthHandler struct {
	users  UserStore
	tokens *auth.Manager
	cfg    config.Config
}

func NewAuthHandler(users UserStore, tokens *auth.Manager, cfg config.Config) *AuthHandler {
	return &AuthHandler{
		users:  users,
		tokens: tokens,
		cfg:    cfg,
	}
}

type SignUpRequest struct {
	Name     string `json:"name" binding:"required,min=3,max=30"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) SignUp(ctx *gin.Context) {
	var req SignUpRequest

	if !BindJSON(ctx, &req) {
		return
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not create account")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	// every signup is a regular user; admins are seeded, not registered
	u, err := h.users.Create(cctx, req.Email, hash, req.Name, user.RoleUser)

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondConflict(ctx, "An account with this email already exists")
			return
		}

		RespondInternal(ctx, "Could not create account")
		return
	}

	token, err := h.tokens.GenerateSessionToken(u.ID.Hex())

	if err != nil {
		RespondInternal(ctx, "Could not create session")
		return
	}

	h.setSessionCookie(ctx, token)

	ctx.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User registered successfully",
		"user":    u.Public(),
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, req.Email)

	if err != nil {
		// same answer for unknown email and wrong password
		RespondUnauthorized(ctx, "Invalid email or password")
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		RespondUnauthorized(ctx, "Invalid email or password")
		return
	}

	token, err := h.tokens.GenerateSessionToken(foundUser.ID.Hex())

	if err != nil {
		RespondInternal(ctx, "Could not create session")
		return
	}

	h.setSessionCookie(ctx, token)

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logged in successfully",
		"user":    foundUser.Public(),
	})
}

// Logout always succeeds: it only clears the cookie client-side.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	h.clearSessionCookie(ctx)

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logged out successfully",
	})
}

// Me returns the public projection of the user the guard resolved.
func (h *AuthHandler) Me(ctx *gin.Context) {
	u, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "Please login to access this resource")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    u.Public(),
	})
}

func (h *AuthHandler) setSessionCookie(ctx *gin.Context, raw string) {
	secure := h.cfg.Env == "prod"

	ctx.SetSameSite(http.SameSiteLaxMode)

	ctx.SetCookie(
		auth.SessionCookie,
		raw,
		int(h.cfg.SessionTTL.Seconds()),
		"/",
		"",
		secure,
		true, // HttpOnly
	)
}

func (h *AuthHandler) clearSessionCookie(ctx *gin.Context) {
	secure := h.cfg.Env == "prod"
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(
		auth.SessionCookie,
		"",
		-1,
		"/",
		"",
		secure,
		true,
	)
}
