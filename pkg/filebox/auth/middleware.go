package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextKeyIdentity is the key for the caller identity in gin context
const ContextKeyIdentity = "identity"

// Identity is the authenticated caller. The zero value is an anonymous
// caller.
type Identity struct {
	TokenIdentifier string
	Name            string
}

// Authenticated reports whether the identity belongs to a signed-in caller
func (i Identity) Authenticated() bool {
	return i.TokenIdentifier != ""
}

// IdentityMiddleware reads a bearer JWT when one is present and stores the
// caller identity in the context. Requests without a usable token continue
// anonymously; handlers decide whether that is an error.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			slog.Debug("ignoring malformed authorization header", "path", c.FullPath())
			c.Next()
			return
		}

		claims, err := ValidateToken(parts[1])
		if err != nil {
			slog.Debug("ignoring unusable token", "path", c.FullPath(), "error", err)
			c.Next()
			return
		}

		c.Set(ContextKeyIdentity, Identity{TokenIdentifier: claims.Subject, Name: claims.Name})
		c.Next()
	}
}

// RequireAuth aborts with 401 unless the caller is authenticated
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetIdentity(c).Authenticated() {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetIdentity returns the caller identity from the gin context
func GetIdentity(c *gin.Context) Identity {
	v, exists := c.Get(ContextKeyIdentity)
	if !exists {
		return Identity{}
	}
	identity, _ := v.(Identity)
	return identity
}
