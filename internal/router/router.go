package router

import (
	"time"

	"github.com/evalforge-dev/evalforge/internal/handlers"
	"github.com/evalforge-dev/evalforge/internal/middleware"
	"github.com/evalforge-dev/evalforge/internal/types"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func NewRouter(h *handlers.Handler) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)
		api.GET("/ws", middleware.AuthMiddleware(), handlers.WebSocket)

		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.CreateUser)
			auth.POST("/login", handlers.LoginUser)
			auth.GET("/me", middleware.AuthMiddleware(), handlers.Me)
		}

		modelsGroup := api.Group("/models", middleware.AuthMiddleware())
		{
			modelsGroup.GET("", h.ListModels)
			modelsGroup.POST("", h.CreateModel)
			modelsGroup.DELETE("/:model_id", h.DeleteModel)
			modelsGroup.GET("/:model_id/test", h.TestModelConnection)
		}

		evaluations := api.Group("/evaluations", middleware.AuthMiddleware())
		{
			evaluations.GET("", h.ListEvaluations)
			evaluations.POST("", h.CreateEvaluation)
			evaluations.POST("/:evaluation_id/run", h.RunEvaluation)
		}

		results := api.Group("/results", middleware.AuthMiddleware())
		{
			results.GET("", h.ListResults)
			results.GET("/:evaluation_id", h.GetEvaluationResults)
			results.DELETE("/:evaluation_id", h.DeleteEvaluationResults)
		}

		tests := api.Group("/tests", middleware.AuthMiddleware())
		{
			tests.GET("", h.ListTests)
			tests.POST("", h.CreateTest)
			tests.PUT("/:test_id", h.UpdateTest)
			tests.DELETE("/:test_id", h.DeleteTest)
			tests.POST("/:test_id/execute", h.ExecuteTestNow)
			tests.GET("/:test_id/executions", h.ListExecutions)
		}

		apps := api.Group("/apps", middleware.AuthMiddleware())
		{
			apps.GET("", h.ListApps)
			apps.POST("", h.CreateApp)
			apps.DELETE("/:app_id", h.DeleteApp)
			apps.GET("/:app_id/health", h.AppHealth)
		}
	}

	return r
}
