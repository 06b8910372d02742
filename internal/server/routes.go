package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
)

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.Use(middleware.RequestID())
	e.Use(NewEchoLogger(s.logger))
	e.Use(middleware.Recover())
	e.Use(otelecho.Middleware("listora-api", otelecho.WithSkipper(skipper)))

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Client-Id", "X-Uid"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	e.GET("/api/health", s.healthHandler)

	var userGroup = e.Group("/api/v1/users")
	userGroup.GET("", s.ListUsers, s.AuthMiddleware)
	userGroup.POST("", s.CreateUser, s.AuthMiddleware)
	userGroup.GET("/:id", s.GetUserByID, s.AuthMiddleware)
	userGroup.GET("/me", s.GetMe, s.AuthMiddleware)

	var productGroup = e.Group("/api/v1/products", s.AuthMiddleware)
	productGroup.GET("", s.ListProducts)
	productGroup.POST("", s.CreateProduct)
	productGroup.POST("/import", s.ImportInventory)
	productGroup.GET("/:id", s.GetProductByID)
	productGroup.PUT("/:id", s.UpdateProduct)
	productGroup.DELETE("/:id", s.DeleteProduct)
	productGroup.GET("/:id/qr", s.GetListingQRCode)
	productGroup.GET("/:id/source-images", s.ListSourceImages)
	productGroup.POST("/:id/source-images/refresh", s.RefreshSourceImages)
	productGroup.POST("/:id/push", s.PushToAmazon)

	var assetTypeGroup = e.Group("/api/v1/asset-types", s.AuthMiddleware)
	assetTypeGroup.GET("", s.ListAssetTypes)
	assetTypeGroup.POST("", s.CreateAssetType)
	assetTypeGroup.GET("/:id", s.GetAssetTypeByID)
	assetTypeGroup.PUT("/:id", s.UpdateAssetType)
	assetTypeGroup.GET("/:id/prompt-versions", s.ListPromptVersions)
	assetTypeGroup.POST("/:id/prompt-versions", s.CreatePromptVersion)

	e.POST("/api/v1/prompt-versions/:id/activate", s.ActivatePromptVersion, s.AuthMiddleware)

	var overrideGroup = e.Group("/api/v1/prompt-overrides", s.AuthMiddleware)
	overrideGroup.GET("", s.GetPromptOverride)
	overrideGroup.PUT("", s.UpsertPromptOverride)
	overrideGroup.DELETE("", s.DeletePromptOverride)
	overrideGroup.GET("/preview", s.PreviewPrompt)

	var assetGroup = e.Group("/api/v1/assets", s.AuthMiddleware)
	assetGroup.GET("", s.ListGeneratedAssets)
	assetGroup.POST("/generate", s.GenerateImage)
	assetGroup.POST("/generate-video", s.GenerateVideo)
	assetGroup.GET("/:id", s.GetGeneratedAssetByID)
	assetGroup.POST("/:id/check-operation", s.CheckVideoOperation)
	assetGroup.POST("/:id/transition", s.TransitionAsset)
	assetGroup.GET("/:id/comments", s.ListComments)
	assetGroup.POST("/:id/comments", s.CreateComment)

	var pushGroup = e.Group("/api/v1/pushes", s.AuthMiddleware)
	pushGroup.GET("", s.ListImagePushes)

	var jobGroup = e.Group("/api/v1/jobs", s.AuthMiddleware)
	jobGroup.GET("", s.ListGenerationJobs)
	jobGroup.POST("", s.EnqueueGenerationJob)
	jobGroup.GET("/:id", s.GetGenerationJobByID)

	e.GET("/api/v1/analytics", s.GetAnalytics, s.AuthMiddleware)

	var activityGroup = e.Group("/api/v1/activity", s.AuthMiddleware)
	activityGroup.GET("", s.ListActivityLogs)
	activityGroup.GET("/stream", s.StreamActivityLogs)

	return e
}
