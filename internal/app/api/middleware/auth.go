package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"

	"github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/config"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/logctx"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/response"
)

const roleKey = "role"

// RoleAdmin marks tokens issued to dashboard staff.
const RoleAdmin = "admin"

// AuthClaims is the JWT payload issued by the identity service.
type AuthClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role,omitempty"`
	jwt.StandardClaims
}

// AuthMiddleware validates the bearer token and attaches user_id to
// gin.Context and the request context.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			abortUnauthorized(c)
			return
		}

		claims := &AuthClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(cfg.Auth.JWTSecret), nil
		})
		if err != nil || !token.Valid || claims.UserID == "" {
			abortUnauthorized(c)
			return
		}

		c.Set(logctx.UserIDKey, claims.UserID)
		c.Set(roleKey, claims.Role)
		ctx := context.WithValue(c.Request.Context(), logctx.UserIDKey, claims.UserID) //nolint:staticcheck
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// AdminRequired rejects tokens without the admin role. Must run after
// AuthMiddleware.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(roleKey) != RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden,
				response.ErrorT[any](response.APIResponseCodeUnauthorized, nil))
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		response.ErrorT[any](response.APIResponseCodeUnauthorized, nil))
}
