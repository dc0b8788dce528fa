package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hall-dispatch/backend/config"
	"hall-dispatch/backend/internal/api/handler"
	"hall-dispatch/backend/internal/api/middleware"
	"hall-dispatch/backend/pkg/jwt"
	"hall-dispatch/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证，按来源 IP 限流防爆破）
		auth := v1.Group("/auth")
		auth.Use(middleware.RateLimit(rdb, cfg.Server.LoginRateLimit, cfg.Server.LoginRateWindow))
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)

			// 名册模块
			books := authorized.Group("/books")
			{
				books.GET("", h.Book.List)
				books.GET("/:id", h.Book.Get)
				books.POST("", middleware.RoleAuth("admin"), h.Book.Create)
				books.PUT("/:id", middleware.RoleAuth("admin"), h.Book.Update)
			}

			// 名册登记模块
			registrations := authorized.Group("/registrations")
			{
				registrations.POST("", h.Registration.Register)
				registrations.GET("", h.Registration.ListByWorker)
				registrations.GET("/queue", h.Registration.NextInQueue)
				registrations.GET("/:id", h.Registration.Get)
				registrations.GET("/:id/activities", h.Registration.ListActivities)
				registrations.POST("/:id/check-marks", h.Registration.IssueCheckMark)
				registrations.DELETE("/:id", h.Registration.Remove)
			}

			// 用工申请模块
			requests := authorized.Group("/requests")
			{
				requests.POST("", h.Request.Submit)
				requests.GET("", h.Request.ListByEmployer)
				requests.GET("/:id", h.Request.Get)
				requests.POST("/:id/match", h.Request.Match)
				requests.POST("/:id/cancel", h.Request.Cancel)
				requests.POST("/expire-stale", middleware.RoleAuth("admin"), h.Request.ExpireStale)
			}

			// 派工模块
			dispatches := authorized.Group("/dispatches")
			{
				dispatches.GET("", h.Dispatch.ListActive)
				dispatches.GET("/active", h.Dispatch.GetActiveByWorker)
				dispatches.GET("/history", h.Dispatch.ListByWorker)
				dispatches.GET("/:id", h.Dispatch.Get)
				dispatches.POST("/:id/complete", h.Dispatch.Complete)
				dispatches.POST("/:id/convert", h.Dispatch.ConvertShortCall)
			}

			// 投标模块
			bids := authorized.Group("/bids")
			{
				bids.POST("", h.Bid.Submit)
				bids.GET("", h.Bid.ListByRequest)
			}

			// 晨派处理模块
			morning := authorized.Group("/morning")
			{
				morning.GET("/queue", h.Morning.GetQueue)
			}

			// 导出模块
			export := authorized.Group("/export")
			{
				export.GET("/morning-sheet", h.Export.ExportMorningSheet)
			}
		}
	}

	return r
}

