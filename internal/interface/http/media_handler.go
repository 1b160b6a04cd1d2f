package http

import (
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/solarinfra/internal/domain/auth"
	apperrors "github.com/yanqian/solarinfra/pkg/errors"
)

// ServeMedia streams a stored object. Bills are visible to their owner and admins only.
func (h *Handler) ServeMedia(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if owner, ok := billOwner(key); ok {
		claims, signedIn := getClaims(c)
		if !signedIn {
			abortWithError(c, NewHTTPError(http.StatusUnauthorized, apperrors.CodeUnauthorized, "sign in to view bills", nil))
			return
		}
		if claims.Role != auth.RoleAdmin && claims.UserID != owner {
			abortWithError(c, NewHTTPError(http.StatusForbidden, apperrors.CodeForbidden, "bill belongs to another account", nil))
			return
		}
	}

	rc, err := h.mediaSvc.Open(c.Request.Context(), key)
	if err != nil {
		fail(c, err)
		return
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		fail(c, apperrors.Wrap(apperrors.CodeMediaError, "failed to read object", err))
		return
	}
	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	c.Header("Cache-Control", "private, max-age=300")
	c.Data(http.StatusOK, contentType, data)
}

func billOwner(key string) (string, bool) {
	rest, ok := strings.CutPrefix(key, "bills/")
	if !ok {
		return "", false
	}
	owner, _, _ := strings.Cut(rest, "/")
	return owner, true
}
