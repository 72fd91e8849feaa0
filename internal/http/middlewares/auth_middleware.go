package middlewares

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rjoubert/tablebook/internal/auth"
	"github.com/rjoubert/tablebook/internal/config"
	"github.com/rjoubert/tablebook/internal/domain/user"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Small interfaces so tests can fake both sides of the guard.
type TokenVerifier interface {
	VerifySessionToken(token string) (*auth.Claims, error)
}

type UserResolver interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (user.User, error)
}

type AuthMiddleware struct {
	tokens TokenVerifier
	users  UserResolver
}

func NewAuthMiddleware(tokens TokenVerifier, users UserResolver) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
}

const ctxUserKey = "auth.user"

// RequireSession reads the signed session cookie, verifies it, resolves the
// embedded user id against the store, and attaches the user to the request
// context. Absent, malformed, expired, or orphaned tokens all end in a 401.
func (m *AuthMiddleware) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(auth.SessionCookie)

		if err != nil || raw == "" {
			abortUnauthorized(c, "Please login to access this resource")
			return
		}

		claims, err := m.tokens.VerifySessionToken(raw)

		if err != nil {
			abortUnauthorized(c, "Invalid or expired session")
			return
		}

		oid, err := primitive.ObjectIDFromHex(claims.UserID)

		if err != nil {
			abortUnauthorized(c, "Invalid or expired session")
			return
		}

		cctx, cancel := config.WithTimeout(2 * time.Second)
		defer cancel()

		u, err := m.users.GetByID(cctx, oid)

		if err != nil {
			abortUnauthorized(c, "Please login to access this resource")
			return
		}

		SetUser(c, u)

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"message": message,
	})
}

// SetUser stashes the resolved user on the gin context. Exposed so handler
// tests can stand in for the guard.
func SetUser(c *gin.Context, u user.User) {
	c.Set(ctxUserKey, u)
}

func UserFromContext(c *gin.Context) (user.User, bool) {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return user.User{}, false
	}
	u, ok := v.(user.User)
	return u, ok
}
