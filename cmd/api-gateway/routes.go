package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-report-card-api/api/swagger"
	"github.com/noah-isme/sma-report-card-api/internal/middleware"
	"github.com/noah-isme/sma-report-card-api/internal/models"
	"github.com/noah-isme/sma-report-card-api/internal/service"
	"github.com/noah-isme/sma-report-card-api/pkg/config"
	"github.com/noah-isme/sma-report-card-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-report-card-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-report-card-api/pkg/middleware/requestid"
)

func newRouter(cfg *config.Config, app *application, metrics *service.MetricsService, logr *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", app.system.Health)
	r.GET("/ready", app.system.Ready)
	r.GET("/metrics", app.system.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	staff := []string{string(models.RoleTeacher), string(models.RoleAdmin)}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta(), middleware.JWT(app.auth))

	cards := api.Group("/report-cards")
	cards.GET("/:studentId", middleware.RBAC(append(staff, middleware.Self)...), app.reportCards.Get)
	cards.GET("/:studentId/export", middleware.RBAC(append(staff, middleware.Self)...), app.exports.Export)
	cards.PUT("/:studentId", middleware.RBAC(staff...), app.reportCards.Save)
	cards.PUT("/reports/:reportId/grades/:subjectId", middleware.RBAC(staff...), app.reportCards.UpsertGrade)
	cards.DELETE("/reports/:reportId/grades/:subjectId", middleware.RBAC(staff...), app.reportCards.DeleteGrade)

	api.GET("/exports/:token", app.exports.Download)

	missing := api.Group("/missing-grades", middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin))
	missing.GET("", app.missingGrades.List)
	missing.POST("/notify", app.missingGrades.Notify)

	api.GET("/metrics/summary", middleware.RequireRoles(models.RoleAdmin), app.system.Summary)

	return r
}
