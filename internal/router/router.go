package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/fh-academy-api/internal/handler"
	"github.com/noah-isme/fh-academy-api/internal/middleware"
	"github.com/noah-isme/fh-academy-api/internal/models"
	"github.com/noah-isme/fh-academy-api/internal/policy"
	"github.com/noah-isme/fh-academy-api/internal/service"
	"github.com/noah-isme/fh-academy-api/pkg/config"
	"github.com/noah-isme/fh-academy-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/fh-academy-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/fh-academy-api/pkg/middleware/requestid"
)

// Handlers groups every HTTP handler mounted by New.
type Handlers struct {
	Auth        *handler.AuthHandler
	Courses     *handler.CourseHandler
	Progress    *handler.ProgressHandler
	Badges      *handler.BadgeHandler
	Users       *handler.UserHandler
	Dashboard   *handler.DashboardHandler
	CourseDraft *handler.CourseDraftHandler
	BadgeDraft  *handler.BadgeDraftHandler
	Metrics     *handler.MetricsHandler
}

// Deps are the shared collaborators of the middleware chain.
type Deps struct {
	Config  *config.Config
	Logger  *zap.Logger
	Tokens  middleware.TokenValidator
	Audit   middleware.AuditRecorder
	Metrics *service.MetricsService
}

// New builds the gin engine with the full route table.
func New(deps Deps, h Handlers) *gin.Engine {
	cfg := deps.Config

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	authn := middleware.JWT(deps.Tokens, cfg.JWT.CookieName)

	auth := api.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/logout",
		middleware.OptionalJWT(deps.Tokens, cfg.JWT.CookieName),
		middleware.Audit(deps.Audit, models.AuditActionLogout, models.AuditResourceUser, deps.Logger),
		h.Auth.Logout,
	)
	auth.GET("/me", authn, h.Auth.Me)

	learner := api.Group("", authn)
	learner.GET("/courses", h.Courses.List)
	learner.GET("/courses/:slug", h.Courses.Get)
	learner.POST("/courses/:id/lessons/:lessonId/complete", h.Progress.CompleteLesson)
	learner.GET("/progress", h.Progress.Summary)
	learner.GET("/badges", h.Badges.List)

	admin := api.Group("/admin", authn, middleware.RequireStaff())
	admin.GET("/dashboard", h.Dashboard.View)
	admin.GET("/metrics", h.Metrics.Snapshot)

	users := admin.Group("/users")
	users.GET("", middleware.RequireCapability(policy.CapViewStudentData), h.Users.List)
	users.GET("/export", middleware.RequireCapability(policy.CapViewStudentData), h.Users.Export)
	users.GET("/:id", middleware.RequireCapability(policy.CapViewStudentData), h.Users.Get)
	users.POST("", middleware.RequireCapability(policy.CapManageAdmins), h.Users.Create)

	content := admin.Group("", middleware.RequireCapability(policy.CapManageContent))
	content.GET("/templates", h.CourseDraft.Templates)
	content.GET("/courses", h.Courses.ListAll)
	content.POST("/courses/:id/publish", h.Courses.Publish)
	content.GET("/badges", h.Badges.ListAll)
	content.POST("/badges/:id/publish", h.Badges.Publish)

	courseDrafts := content.Group("/course-drafts")
	courseDrafts.POST("", h.CourseDraft.Create)
	courseDrafts.GET("/:id", h.CourseDraft.Get)
	courseDrafts.PATCH("/:id", h.CourseDraft.Update)
	courseDrafts.DELETE("/:id", h.CourseDraft.Discard)
	courseDrafts.POST("/:id/template", h.CourseDraft.ApplyTemplate)
	courseDrafts.POST("/:id/selector", h.CourseDraft.Select)
	courseDrafts.POST("/:id/reset", h.CourseDraft.Reset)
	courseDrafts.POST("/:id/save", h.CourseDraft.Save)
	courseDrafts.POST("/:id/items", h.CourseDraft.AddItem)
	courseDrafts.POST("/:id/items/move", h.CourseDraft.MoveItem)
	courseDrafts.PATCH("/:id/items/:itemId", h.CourseDraft.UpdateItem)
	courseDrafts.DELETE("/:id/items/:itemId", h.CourseDraft.RemoveItem)
	courseDrafts.POST("/:id/items/:itemId/duplicate", h.CourseDraft.DuplicateItem)
	courseDrafts.POST("/:id/items/:itemId/questions", h.CourseDraft.AddQuestion)
	courseDrafts.PATCH("/:id/items/:itemId/questions/:index", h.CourseDraft.UpdateQuestion)
	courseDrafts.DELETE("/:id/items/:itemId/questions/:index", h.CourseDraft.RemoveQuestion)

	badgeDrafts := content.Group("/badge-drafts")
	badgeDrafts.POST("", h.BadgeDraft.Create)
	badgeDrafts.GET("/:id", h.BadgeDraft.Get)
	badgeDrafts.PATCH("/:id", h.BadgeDraft.Update)
	badgeDrafts.DELETE("/:id", h.BadgeDraft.Discard)
	badgeDrafts.POST("/:id/courses", h.BadgeDraft.AddCourse)
	badgeDrafts.POST("/:id/courses/move", h.BadgeDraft.MoveCourse)
	badgeDrafts.DELETE("/:id/courses/:courseId", h.BadgeDraft.RemoveCourse)
	badgeDrafts.POST("/:id/save", h.BadgeDraft.Save)

	return r
}
