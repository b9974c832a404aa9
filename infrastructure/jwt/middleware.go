// Package jwt authenticates bearer tokens and exposes the caller identity to handlers.
package jwt

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const claimsKey = "claims"

var (
	errMissingHeader = errors.New("missing authorization header")
	errBadHeader     = errors.New("invalid authorization header format")
)

// Claims represents JWT claims
type Claims struct {
	jwt.RegisteredClaims
}

// Middleware rejects requests without a valid HS256 bearer token.
func Middleware(secret string) gin.HandlerFunc {
	return authenticate(secret, true)
}

// OptionalMiddleware validates a bearer token when one is sent and lets
// anonymous requests through. A present but invalid token is still rejected.
func OptionalMiddleware(secret string) gin.HandlerFunc {
	return authenticate(secret, false)
}

func authenticate(secret string, required bool) gin.HandlerFunc {
	key := []byte(secret)

	return func(c *gin.Context) {
		tokenString, err := bearerToken(c.GetHeader("Authorization"))
		if errors.Is(err, errMissingHeader) && !required {
			c.Next()
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		claims, err := ParseToken(tokenString, key)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errMissingHeader
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", errBadHeader
	}
	return token, nil
}

// ParseToken validates an HMAC-signed token and returns its claims.
func ParseToken(tokenString string, key []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return key, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// GetClaims extracts claims from the gin context
func GetClaims(c *gin.Context) (*Claims, bool) {
	v, exists := c.Get(claimsKey)
	if !exists {
		return nil, false
	}

	cl, ok := v.(*Claims)
	return cl, ok
}

// Subject returns the authenticated subject, or "" for anonymous requests.
func Subject(c *gin.Context) string {
	if claims, ok := GetClaims(c); ok {
		return claims.Subject
	}
	return ""
}
