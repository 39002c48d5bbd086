package leave

import (
	"github.com/himanshukumarraut/Leave-It/internal/rbac"

	"github.com/gin-gonic/gin"
)

type RouteOptions struct {
	// Auth is nil when authorisation is not enforced.
	Auth        gin.HandlerFunc
	RBAC        rbac.Service
	Idempotency gin.HandlerFunc
}

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, opts RouteOptions) {
	guard := func(action string, next ...gin.HandlerFunc) []gin.HandlerFunc {
		var chain []gin.HandlerFunc
		if opts.Auth != nil && opts.RBAC != nil {
			chain = append(chain, rbac.Authorize(opts.RBAC, rbac.ResourceLeave, action))
		}
		return append(chain, next...)
	}

	leaves := r.Group("/leaves")
	if opts.Auth != nil {
		leaves.Use(opts.Auth)
	}
	{
		create := []gin.HandlerFunc{handler.Create}
		if opts.Idempotency != nil {
			create = []gin.HandlerFunc{opts.Idempotency, handler.Create}
		}
		leaves.POST("", guard(rbac.ActionCreate, create...)...)
		leaves.GET("/pending", guard(rbac.ActionReadPending, handler.GetPending)...)
		leaves.GET("/employee/:employeeId", guard(rbac.ActionReadOwn, handler.GetEmployeeLeaves)...)
		leaves.PATCH("/:id", guard(rbac.ActionDecide, handler.Decide)...)
	}
}
