// internal/middleware/auth.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/catalog-api/internal/i18n"
	"github.com/javajoker/catalog-api/internal/utils"
)

// bearerClaims returns the claims of the request's bearer token. A nil error
// with nil claims means no Authorization header was sent.
func bearerClaims(c *gin.Context) (*utils.JWTClaims, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, nil
	}

	// Extract token from "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, utils.NewUnauthorizedError(i18n.KeyAuthInvalidToken)
	}

	claims, err := utils.ValidateJWT(parts[1])
	if err != nil {
		return nil, utils.NewUnauthorizedError(i18n.KeyAuthTokenExpired)
	}
	return claims, nil
}

func setIdentity(c *gin.Context, claims *utils.JWTClaims) {
	c.Set("user_id", claims.UserID)
	c.Set("username", claims.Username)
	c.Set("is_staff", claims.IsStaff)
}

// Check inspects a request and aborts it when it fails. It never calls
// c.Next, so checks can be composed ahead of a single handler chain.
type Check func(c *gin.Context) bool

// Authenticated requires a valid bearer token and attaches the caller.
func Authenticated(c *gin.Context) bool {
	claims, err := bearerClaims(c)
	if err == nil && claims == nil {
		err = utils.NewUnauthorizedError(i18n.KeyAuthRequired)
	}
	if err != nil {
		utils.HandleError(c, err)
		c.Abort()
		return false
	}
	setIdentity(c, claims)
	return true
}

// Staff must run after Authenticated.
func Staff(c *gin.Context) bool {
	if !c.GetBool("is_staff") {
		utils.HandleError(c, utils.NewForbiddenError())
		c.Abort()
		return false
	}
	return true
}

func guard(checks ...Check) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, check := range checks {
			if !check(c) {
				return
			}
		}
		c.Next()
	}
}

func AuthRequired() gin.HandlerFunc {
	return guard(Authenticated)
}

// AdminRequired must run after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return guard(Staff)
}

// OptionalAuth attaches the caller when a valid token is present. A
// malformed or expired token is still rejected so clients notice it.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := bearerClaims(c)
		if err != nil {
			utils.HandleError(c, err)
			c.Abort()
			return
		}
		if claims != nil {
			setIdentity(c, claims)
		}
		c.Next()
	}
}

// SafeMethodsOr lets GET, HEAD and OPTIONS through and runs checks on
// every other method.
func SafeMethodsOr(checks ...Check) gin.HandlerFunc {
	guarded := guard(checks...)
	return func(c *gin.Context) {
		switch c.Request.Method {
		case "GET", "HEAD", "OPTIONS":
			c.Next()
		default:
			guarded(c)
		}
	}
}
