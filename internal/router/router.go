// Package router assembles the HTTP surface of the marketplace.
package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/sitside-api/internal/handler"
	"github.com/noah-isme/sitside-api/internal/middleware"
	"github.com/noah-isme/sitside-api/internal/models"
	"github.com/noah-isme/sitside-api/internal/service"
	"github.com/noah-isme/sitside-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sitside-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sitside-api/pkg/middleware/requestid"
	"github.com/noah-isme/sitside-api/pkg/observability"
)

// Handlers groups every HTTP handler mounted by the router.
type Handlers struct {
	Auth      *handler.AuthHandler
	Users     *handler.UserHandler
	Bookings  *handler.BookingHandler
	Admin     *handler.AdminHandler
	Dashboard *handler.DashboardHandler
	Metrics   *handler.MetricsHandler
}

// Options carries the cross-cutting dependencies.
type Options struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool
	Logger         *zap.Logger
	Metrics        *service.MetricsService
	Authenticator  middleware.Authenticator
}

// New builds the gin engine with middleware and routes.
func New(opts Options, h Handlers) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.APIPrefix == "" {
		opts.APIPrefix = "/api"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(opts.Logger))
	r.Use(observability.GinMiddleware())
	r.Use(corsmiddleware.New(opts.AllowedOrigins))
	r.Use(middleware.Metrics(opts.Metrics, "/metrics"))

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if opts.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	jwt := middleware.JWT(opts.Authenticator)
	members := middleware.RequireRoles(models.RoleStudent, models.RoleParent)

	api := r.Group(opts.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.GET("/me", jwt, h.Auth.Me)
	auth.PUT("/profile", jwt, h.Auth.UpdateProfile)
	auth.GET("/verify", jwt, h.Auth.Verify)

	users := api.Group("/users", jwt)
	users.GET("/students", members, h.Users.Students)
	users.GET("/students/:id", members, h.Users.Student)
	users.GET("/search", members, h.Users.Search)
	users.PUT("/availability", h.Users.UpdateAvailability)
	users.POST("/certifications", h.Users.AddCertification)
	users.DELETE("/certifications/:certification", h.Users.RemoveCertification)

	bookings := api.Group("/bookings", jwt)
	bookings.POST("", members, h.Bookings.Create)
	bookings.GET("/my-bookings", members, h.Bookings.Mine)
	bookings.GET("/:id", middleware.RequireRoles(models.RoleStudent, models.RoleParent, models.RoleAdmin), h.Bookings.Get)
	bookings.PUT("/:id/status", members, h.Bookings.UpdateStatus)
	bookings.PUT("/:id/complete", members, h.Bookings.Complete)
	bookings.POST("/:id/review", members, h.Bookings.Review)
	bookings.POST("/:id/dispute", members, h.Bookings.Dispute)

	admin := api.Group("/admin", jwt, middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/dashboard", h.Dashboard.Admin)
	admin.GET("/users", h.Admin.Users)
	admin.PUT("/users/:id/toggle", h.Admin.ToggleUser)
	admin.PUT("/users/:id/verify", h.Admin.VerifyStudent)
	admin.DELETE("/users/:id", h.Admin.DeleteUser)
	admin.GET("/bookings", h.Admin.Bookings)
	admin.GET("/bookings/export", h.Admin.Export)
	admin.PUT("/bookings/:id/dispute", h.Admin.ResolveDispute)

	return r
}
