package middleware

import (
	"errors"
	"strings"

	"github.com/himanshukumarraut/Leave-It/internal/auth"
	autherrors "github.com/himanshukumarraut/Leave-It/internal/auth/errors"
	"github.com/himanshukumarraut/Leave-It/internal/shared/apperror"
	"github.com/himanshukumarraut/Leave-It/internal/shared/contextutil"
	"github.com/himanshukumarraut/Leave-It/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	ContextUserID     = "user_id"
	ContextEmployeeID = "employee_id"
	ContextRole       = "role"
)

type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

func AuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !found {
			tokenString = ""
		}
		if tokenString == "" {
			if cookie, err := c.Cookie(auth.AccessTokenCookie); err == nil {
				tokenString = cookie
			}
		}

		if tokenString == "" {
			abortWithError(c, autherrors.ErrTokenMissing)
			return
		}

		claims, err := tokens.Parse(tokenString)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(ContextUserID, claims.Subject)
		c.Set(ContextEmployeeID, claims.EmployeeID)
		c.Set(ContextRole, claims.Role)

		ctx := contextutil.WithEmployeeID(c.Request.Context(), claims.EmployeeID)
		reqLogger := contextutil.GetLogger(ctx, zap.L()).With(zap.String("employee_id", claims.EmployeeID))
		ctx = contextutil.WithLogger(ctx, reqLogger)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func abortWithError(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		appErr = autherrors.ErrInvalidToken
	}
	response.Abort(c, appErr.HTTPStatus, appErr.Code, appErr.Message)
}
