package leave

import (
	"net/http"

	autherrors "github.com/himanshukumarraut/Leave-It/internal/auth/errors"
	"github.com/himanshukumarraut/Leave-It/internal/employee"
	"github.com/himanshukumarraut/Leave-It/internal/middleware"
	"github.com/himanshukumarraut/Leave-It/internal/shared/apperror"
	"github.com/himanshukumarraut/Leave-It/internal/shared/contextutil"
	"github.com/himanshukumarraut/Leave-It/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("leave.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	log := contextutil.GetLogger(c.Request.Context(), h.logger)
	if httpErr.Status >= http.StatusInternalServerError {
		log.Error("leave request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", httpErr.Status),
			zap.Error(err),
		)
	} else {
		log.Warn("leave request rejected",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", httpErr.Status),
			zap.String("code", httpErr.Code),
			zap.String("message", httpErr.Message),
		)
	}
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) writeValidationError(c *gin.Context, err error) {
	h.logger.Warn("leave validation failed", zap.String("path", c.FullPath()), zap.Error(err))
	httpErr := apperror.ToHTTP(apperror.MapValidationError(err))
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, apperror.ValidationDetails(err))
}

// allowSelf restricts authenticated employees to their own records.
// Without an auth context (auth not enforced) every caller passes.
func (h *Handler) allowSelf(c *gin.Context, employeeID string) bool {
	if c.GetString(middleware.ContextRole) != employee.RoleEmployee {
		return true
	}
	if c.GetString(middleware.ContextEmployeeID) == employeeID {
		return true
	}
	h.writeServiceError(c, autherrors.ErrForbidden)
	return false
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeValidationError(c, err)
		return
	}
	if !h.allowSelf(c, req.EmployeeID) {
		return
	}

	resp, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, resp)
}

func (h *Handler) GetEmployeeLeaves(c *gin.Context) {
	employeeID := c.Param("employeeId")
	if !h.allowSelf(c, employeeID) {
		return
	}

	resp, err := h.service.GetEmployeeLeaves(c.Request.Context(), employeeID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp)
}

func (h *Handler) GetPending(c *gin.Context) {
	resp, err := h.service.GetPending(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp)
}

func (h *Handler) Decide(c *gin.Context) {
	var req DecideLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeValidationError(c, err)
		return
	}

	resp, err := h.service.Decide(c.Request.Context(), c.Param("id"), req.Action)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp)
}
