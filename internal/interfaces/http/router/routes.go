package router

import (
	"github.com/crm/backend/internal/interfaces/http/handler"
	"github.com/crm/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Role names used by the route guards
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleAgent   = "agent"
)

// Handlers bundles the handlers mounted under the API prefix
type Handlers struct {
	System      *handler.SystemHandler
	Auth        *handler.AuthHandler
	User        *handler.UserHandler
	Entity      *handler.EntityHandler
	Import      *handler.ImportHandler
	Position    *handler.PositionHandler
	Transaction *handler.TransactionHandler
	Gateway     *handler.GatewayHandler
	AccountType *handler.AccountTypeHandler
	Template    *handler.TemplateHandler
	View        *handler.ViewHandler
}

// Policy carries the middleware that protects routes. LoginLimit may be
// nil when rate limiting is disabled.
type Policy struct {
	LoginLimit gin.HandlerFunc
	Logger     *zap.Logger
}

func (p Policy) roles(roles ...string) gin.HandlerFunc {
	return middleware.RequireRoleWithConfig(middleware.RoleConfig{Logger: p.Logger}, roles...)
}

func (p Policy) login() []gin.HandlerFunc {
	if p.LoginLimit == nil {
		return nil
	}
	return []gin.HandlerFunc{p.LoginLimit}
}

// CRMRoutes builds the domain groups of the CRM API. Authentication is
// applied by the Router; the groups only add role guards.
func CRMRoutes(h Handlers, p Policy) []*DomainGroup {
	backOffice := p.roles(RoleAdmin, RoleManager)

	system := NewDomainGroup("system", "/system")
	system.GET("/info", h.System.GetSystemInfo)
	system.GET("/ping", h.System.Ping)

	auth := NewDomainGroup("auth", "/auth")
	auth.POST("/login", append(p.login(), h.Auth.Login)...)
	auth.POST("/refresh", append(p.login(), h.Auth.RefreshToken)...)
	auth.POST("/logout", h.Auth.Logout)
	auth.GET("/me", h.Auth.GetCurrentUser)
	auth.PUT("/password", h.Auth.ChangePassword)

	users := NewDomainGroup("users", "/users").Use(p.roles(RoleAdmin))
	users.GET("", h.User.List)
	users.POST("", h.User.Create)
	users.GET("/:id", h.User.GetByID)
	users.PUT("/:id", h.User.Update)
	users.DELETE("/:id", h.User.Delete)
	users.PUT("/:id/password", h.User.ResetPassword)
	users.POST("/:id/enable", h.User.Enable)
	users.POST("/:id/disable", h.User.Disable)

	entities := NewDomainGroup("entities", "/entities")
	entities.GET("/fields", h.Entity.Fields)
	entities.GET("/import/columns", h.Import.Columns)
	entities.POST("/import", h.Import.Import)
	entities.GET("", h.Entity.List)
	entities.POST("", h.Entity.Create)
	entities.GET("/:id", h.Entity.GetByID)
	entities.PUT("/:id", h.Entity.Update)
	entities.DELETE("/:id", backOffice, h.Entity.Delete)
	entities.PATCH("/:id/fields", h.Entity.SetField)
	entities.POST("/:id/assign", h.Entity.Assign)
	entities.POST("/:id/status", h.Entity.ChangeStatus)
	entities.POST("/:id/convert", h.Entity.Convert)
	entities.POST("/:id/contact", h.Entity.RecordContact)
	entities.PUT("/:id/account-type", h.Entity.SetAccountType)

	positions := NewDomainGroup("positions", "/positions")
	positions.GET("", h.Position.List)
	positions.POST("", h.Position.Open)
	positions.POST("/prices", backOffice, h.Position.ApplySymbolPrice)
	positions.GET("/:id", h.Position.GetByID)
	positions.PUT("/:id/price", h.Position.UpdatePrice)
	positions.PUT("/:id/exits", h.Position.SetExits)
	positions.POST("/:id/swap", backOffice, h.Position.ChargeSwap)
	positions.POST("/:id/close", h.Position.Close)

	transactions := NewDomainGroup("transactions", "/transactions")
	transactions.GET("", h.Transaction.List)
	transactions.POST("", h.Transaction.Create)
	transactions.GET("/:id", h.Transaction.GetByID)
	transactions.POST("/:id/approve", backOffice, h.Transaction.Approve)
	transactions.POST("/:id/reject", backOffice, h.Transaction.Reject)

	gateways := NewDomainGroup("gateways", "/gateways")
	gateways.GET("", h.Gateway.List)
	gateways.GET("/:id", h.Gateway.GetByID)
	gateways.POST("", backOffice, h.Gateway.Create)
	gateways.PUT("/:id", backOffice, h.Gateway.Update)
	gateways.DELETE("/:id", backOffice, h.Gateway.Delete)

	accountTypes := NewDomainGroup("account-types", "/account-types")
	accountTypes.GET("", h.AccountType.List)
	accountTypes.GET("/:id", h.AccountType.GetByID)
	accountTypes.POST("", backOffice, h.AccountType.Create)
	accountTypes.PUT("/:id", backOffice, h.AccountType.Update)
	accountTypes.DELETE("/:id", backOffice, h.AccountType.Delete)
	accountTypes.POST("/:id/default", backOffice, h.AccountType.SetDefault)
	accountTypes.POST("/:id/enable", backOffice, h.AccountType.Enable)
	accountTypes.POST("/:id/disable", backOffice, h.AccountType.Disable)
	accountTypes.PUT("/:id/rules/:asset_class", backOffice, h.AccountType.UpsertRule)
	accountTypes.DELETE("/:id/rules/:asset_class", backOffice, h.AccountType.RemoveRule)

	templates := NewDomainGroup("email-templates", "/email-templates")
	templates.GET("", h.Template.List)
	templates.GET("/:id", h.Template.GetByID)
	templates.POST("/:id/preview", h.Template.Preview)
	templates.POST("", backOffice, h.Template.Create)
	templates.PUT("/:id", backOffice, h.Template.Update)
	templates.DELETE("/:id", backOffice, h.Template.Delete)

	tables := NewDomainGroup("tables", "/tables")
	tables.GET("", h.View.Tables)
	tables.GET("/:table", h.View.Table)
	tables.GET("/:table/columns", h.View.GetColumns)
	tables.PUT("/:table/columns", h.View.SaveColumns)
	tables.DELETE("/:table/columns", h.View.ResetColumns)
	tables.POST("/:table/columns/move", h.View.MoveColumn)
	tables.POST("/:table/columns/visibility", h.View.SetColumnVisibility)
	tables.GET("/:table/views", h.View.ListViews)
	tables.POST("/:table/views", h.View.CreateView)
	tables.POST("/:table/query", h.View.Query)
	tables.POST("/:table/export", h.View.Export)

	views := NewDomainGroup("views", "/views")
	views.GET("/:id", h.View.GetView)
	views.PUT("/:id", h.View.UpdateView)
	views.DELETE("/:id", h.View.DeleteView)

	return []*DomainGroup{
		system, auth, users, entities, positions, transactions,
		gateways, accountTypes, templates, tables, views,
	}
}

// PublicPaths are the API paths served without a token
func PublicPaths(prefix string) []string {
	return []string{
		"/health",
		prefix + "/health",
		prefix + "/auth/login",
		prefix + "/auth/refresh",
		prefix + "/system/ping",
	}
}
