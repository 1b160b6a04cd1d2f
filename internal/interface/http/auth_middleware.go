package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/solarinfra/internal/domain/auth"
	apperrors "github.com/yanqian/solarinfra/pkg/errors"
)

func authMiddleware(svc auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing authorization header", nil))
			return
		}
		if !authenticate(c, svc, header) {
			return
		}
		c.Next()
	}
}

// optionalAuthMiddleware verifies a token when one is sent and lets anonymous requests through.
func optionalAuthMiddleware(svc auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header != "" && !authenticate(c, svc, header) {
			return
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, svc auth.Service, header string) bool {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "invalid authorization header", nil))
		return false
	}
	claims, err := svc.ValidateToken(c.Request.Context(), strings.TrimSpace(parts[1]))
	if err != nil {
		status := http.StatusForbidden
		code := apperrors.CodeInvalidToken
		if !apperrors.IsCode(err, apperrors.CodeInvalidToken) {
			status = http.StatusInternalServerError
			code = "auth_failed"
		}
		abortWithError(c, NewHTTPError(status, code, errMessage(err), err))
		return false
	}
	setClaims(c, claims)
	return true
}

// requireAdmin trusts only the role carried by the signed token.
func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := mustClaims(c)
		if !ok {
			return
		}
		switch claims.Role {
		case auth.RoleAdmin:
			c.Next()
		case auth.RoleUser:
			abortWithError(c, NewHTTPError(http.StatusForbidden, apperrors.CodeForbidden, "admin access required", nil))
		default:
			abortWithError(c, NewHTTPError(http.StatusForbidden, apperrors.CodeForbidden, "unknown role", nil))
		}
	}
}
