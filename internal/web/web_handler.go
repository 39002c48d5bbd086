package web

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/himanshukumarraut/Leave-It/internal/auth"
	"github.com/himanshukumarraut/Leave-It/internal/leave"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const contextIdentity = "web_identity"

type Handler struct {
	api      APIClient
	sessions SessionStore
	logger   *zap.Logger
}

func NewHandler(api APIClient, sessions SessionStore, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("web.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("web.handler")
	}
	return &Handler{api: api, sessions: sessions, logger: l}
}

func (h *Handler) current(c *gin.Context) *Identity {
	identity, err := h.sessions.Current(c)
	if err != nil {
		h.logger.Warn("session lookup failed", zap.Error(err))
		return nil
	}
	return identity
}

func identityFrom(c *gin.Context) Identity {
	v, _ := c.Get(contextIdentity)
	identity, _ := v.(*Identity)
	if identity == nil {
		return Identity{}
	}
	return *identity
}

// RequireSession redirects anonymous visitors to the login page and
// callers outside roles (when given) back to their home page.
func (h *Handler) RequireSession(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := h.current(c)
		if identity == nil {
			c.Redirect(http.StatusFound, "/auth/login")
			c.Abort()
			return
		}
		if len(roles) > 0 && !hasRole(identity.Role, roles) {
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		c.Set(contextIdentity, identity)
		c.Next()
	}
}

func hasRole(role string, roles []string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// errorMessage turns API failures into something safe to show on a page.
func errorMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" && apiErr.Status < http.StatusInternalServerError {
		return apiErr.Message
	}
	return fallback
}

func statusFor(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status >= http.StatusBadRequest && apiErr.Status < http.StatusInternalServerError {
		return apiErr.Status
	}
	return http.StatusBadGateway
}

func redirectWithError(c *gin.Context, path, msg string) {
	c.Redirect(http.StatusSeeOther, path+"?error="+url.QueryEscape(msg))
}

func (h *Handler) Home(c *gin.Context) {
	identity := h.current(c)
	switch {
	case identity == nil:
		c.Redirect(http.StatusFound, "/landing")
	case identity.IsManager():
		c.Redirect(http.StatusFound, "/management/dashboard")
	default:
		c.Redirect(http.StatusFound, "/employee/dashboard")
	}
}

func (h *Handler) Landing(c *gin.Context) {
	c.HTML(http.StatusOK, "landing.html", gin.H{"Identity": h.current(c)})
}

func (h *Handler) LoginPage(c *gin.Context) {
	if h.current(c) != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	data := gin.H{"EmployeeID": "", "Error": c.Query("error")}
	if c.Query("registered") != "" {
		data["Notice"] = "Account created. You can sign in now."
	}
	c.HTML(http.StatusOK, "login.html", data)
}

func (h *Handler) Login(c *gin.Context) {
	employeeID := strings.TrimSpace(c.PostForm("employeeId"))
	password := c.PostForm("password")
	form := gin.H{"EmployeeID": employeeID}

	if employeeID == "" || password == "" {
		form["Error"] = "Employee ID and password are required"
		c.HTML(http.StatusBadRequest, "login.html", form)
		return
	}

	identity, err := h.api.Login(c.Request.Context(), employeeID, password)
	if err != nil {
		h.logger.Warn("web login failed", zap.String("employee_id", employeeID), zap.Error(err))
		form["Error"] = errorMessage(err, "Authentication service unavailable")
		c.HTML(statusFor(err), "login.html", form)
		return
	}

	if err := h.sessions.Set(c, identity); err != nil {
		h.logger.Error("web session store failed", zap.Error(err))
		form["Error"] = "Could not start a session, please try again"
		c.HTML(http.StatusServiceUnavailable, "login.html", form)
		return
	}

	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) RegisterPage(c *gin.Context) {
	c.HTML(http.StatusOK, "register.html", gin.H{
		"EmployeeID": "",
		"Name":       "",
		"Email":      "",
		"Role":       "employee",
	})
}

func (h *Handler) Register(c *gin.Context) {
	req := auth.RegisterRequest{
		EmployeeID: strings.TrimSpace(c.PostForm("employeeId")),
		Name:       strings.TrimSpace(c.PostForm("name")),
		Email:      strings.TrimSpace(c.PostForm("email")),
		Password:   c.PostForm("password"),
		Role:       c.DefaultPostForm("role", "employee"),
	}
	form := gin.H{
		"EmployeeID": req.EmployeeID,
		"Name":       req.Name,
		"Email":      req.Email,
		"Role":       req.Role,
	}

	if _, err := h.api.Register(c.Request.Context(), req); err != nil {
		h.logger.Warn("web register failed", zap.String("employee_id", req.EmployeeID), zap.Error(err))
		form["Error"] = errorMessage(err, "Registration service unavailable")
		c.HTML(statusFor(err), "register.html", form)
		return
	}

	c.Redirect(http.StatusSeeOther, "/auth/login?registered=1")
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.sessions.Clear(c); err != nil {
		h.logger.Warn("web session clear failed", zap.Error(err))
	}
	c.Redirect(http.StatusSeeOther, "/landing")
}

func (h *Handler) EmployeeDashboard(c *gin.Context) {
	identity := identityFrom(c)
	data := gin.H{
		"Identity":       identity,
		"Error":          c.Query("error"),
		"IdempotencyKey": uuid.NewString(),
	}

	summary, err := h.api.EmployeeLeaves(c.Request.Context(), identity.AccessToken, identity.EmployeeID)
	if err != nil {
		h.logger.Warn("web employee dashboard load failed", zap.String("employee_id", identity.EmployeeID), zap.Error(err))
		data["Error"] = errorMessage(err, "Failed to load your leaves")
		c.HTML(statusFor(err), "employee_dashboard.html", data)
		return
	}

	data["Summary"] = summary
	c.HTML(http.StatusOK, "employee_dashboard.html", data)
}

func (h *Handler) CreateLeave(c *gin.Context) {
	identity := identityFrom(c)

	_, err := h.api.CreateLeave(c.Request.Context(), identity.AccessToken, CreateLeaveInput{
		EmployeeID:     identity.EmployeeID,
		FromDate:       c.PostForm("fromDate"),
		ToDate:         c.PostForm("toDate"),
		Reason:         strings.TrimSpace(c.PostForm("reason")),
		IdempotencyKey: c.PostForm("idempotencyKey"),
	})
	if err != nil {
		h.logger.Warn("web create leave failed", zap.String("employee_id", identity.EmployeeID), zap.Error(err))
		redirectWithError(c, "/employee/dashboard", errorMessage(err, "Failed to create leave"))
		return
	}

	c.Redirect(http.StatusSeeOther, "/employee/dashboard")
}

func (h *Handler) ManagementDashboard(c *gin.Context) {
	identity := identityFrom(c)
	data := gin.H{
		"Identity": identity,
		"Error":    c.Query("error"),
	}

	pending, err := h.api.PendingLeaves(c.Request.Context(), identity.AccessToken)
	if err != nil {
		h.logger.Warn("web management dashboard load failed", zap.Error(err))
		data["Error"] = errorMessage(err, "Failed to load pending leaves")
		c.HTML(statusFor(err), "management_dashboard.html", data)
		return
	}

	data["Pending"] = pending
	c.HTML(http.StatusOK, "management_dashboard.html", data)
}

func (h *Handler) DecideLeave(c *gin.Context) {
	identity := identityFrom(c)
	action := c.PostForm("action")
	if action != leave.ActionApprove && action != leave.ActionReject {
		redirectWithError(c, "/management/dashboard", "Unknown action")
		return
	}

	if _, err := h.api.DecideLeave(c.Request.Context(), identity.AccessToken, c.Param("id"), action); err != nil {
		h.logger.Warn("web decide leave failed", zap.String("leave_id", c.Param("id")), zap.Error(err))
		redirectWithError(c, "/management/dashboard", errorMessage(err, "Failed to update leave"))
		return
	}

	c.Redirect(http.StatusSeeOther, "/management/dashboard")
}
