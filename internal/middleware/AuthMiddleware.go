package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/waste3d/courseplatform-api/internal/domain"

	"github.com/gin-gonic/gin"
)

const (
	userKey    = "user"
	sessionKey = "session"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, *domain.Session, error)
}

// AuthMiddleware rejects requests without a valid session and stores the caller in the context.
func AuthMiddleware(auth Authenticator, store *SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := store.Token(c.Request)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		user, session, err := auth.Authenticate(c.Request.Context(), token)
		switch {
		case errors.Is(err, domain.ErrSessionExpired):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session expired"})
			return
		case errors.Is(err, domain.ErrUnauthorized):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
			return
		case err != nil:
			log.Printf("authenticate: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		setCaller(c, user, session)
		c.Next()
	}
}

// OptionalAuthMiddleware resolves the caller when a valid session is present and never rejects.
func OptionalAuthMiddleware(auth Authenticator, store *SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := store.Token(c.Request); token != "" {
			if user, session, err := auth.Authenticate(c.Request.Context(), token); err == nil {
				setCaller(c, user, session)
			}
		}
		c.Next()
	}
}

// AdminOnly must run after AuthMiddleware.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		if !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied: admins only"})
			return
		}
		c.Next()
	}
}

func setCaller(c *gin.Context, user *domain.User, session *domain.Session) {
	c.Set("userId", user.ID.String())
	c.Set("userRole", user.Role)
	c.Set(userKey, user)
	c.Set(sessionKey, session)
}

// CurrentUser returns the authenticated caller or nil.
func CurrentUser(c *gin.Context) *domain.User {
	if v, ok := c.Get(userKey); ok {
		if u, ok := v.(*domain.User); ok {
			return u
		}
	}
	return nil
}

func CurrentSession(c *gin.Context) *domain.Session {
	if v, ok := c.Get(sessionKey); ok {
		if s, ok := v.(*domain.Session); ok {
			return s
		}
	}
	return nil
}
