package rbac

import (
	"net/http"

	autherrors "github.com/himanshukumarraut/Leave-It/internal/auth/errors"
	"github.com/himanshukumarraut/Leave-It/internal/shared/apperror"
	"github.com/himanshukumarraut/Leave-It/internal/shared/response"

	"github.com/gin-gonic/gin"
)

const contextRole = "role"

// Authorize expects the auth middleware to have stored the caller's role.
func Authorize(service Service, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(contextRole)
		if role == "" {
			response.Abort(c, http.StatusUnauthorized, apperror.CodeUnauthorized, "missing auth context")
			return
		}

		allowed, err := service.Enforce(EnforceRequest{
			Role:     role,
			Resource: resource,
			Action:   action,
		})
		if err != nil {
			response.Abort(c, http.StatusInternalServerError, apperror.CodeInternalError, "authorization check failed")
			return
		}

		if !allowed {
			forbidden := autherrors.ErrForbidden
			response.Abort(c, forbidden.HTTPStatus, forbidden.Code, forbidden.Message)
			return
		}
		c.Next()
	}
}
