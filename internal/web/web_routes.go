package web

import (
	"embed"
	"html/template"
	"strings"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templateFuncs = template.FuncMap{
	"statusClass": func(status string) string {
		return "status-" + strings.ToLower(status)
	},
}

func LoadTemplates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html")
}

func RegisterRoutes(r *gin.Engine, handler *Handler) error {
	tmpl, err := LoadTemplates()
	if err != nil {
		return err
	}
	r.SetHTMLTemplate(tmpl)

	r.GET("/", handler.Home)
	r.GET("/landing", handler.Landing)

	authGroup := r.Group("/auth")
	{
		authGroup.GET("/login", handler.LoginPage)
		authGroup.POST("/login", handler.Login)
		authGroup.GET("/register", handler.RegisterPage)
		authGroup.POST("/register", handler.Register)
		authGroup.POST("/logout", handler.Logout)
	}

	employeeGroup := r.Group("/employee", handler.RequireSession())
	{
		employeeGroup.GET("/dashboard", handler.EmployeeDashboard)
		employeeGroup.POST("/leaves", handler.CreateLeave)
	}

	managementGroup := r.Group("/management", handler.RequireSession("manager"))
	{
		managementGroup.GET("/dashboard", handler.ManagementDashboard)
		managementGroup.POST("/leaves/:id", handler.DecideLeave)
	}

	return nil
}
