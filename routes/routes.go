package routes

import (
	"net/http"
	"time"

	"easypro/handlers"
	"easypro/middleware"
	"easypro/models"
	"easypro/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRouter builds the engine with the shared middleware chain and every
// route group registered.
func SetupRouter(hb *handlers.HandlerBundle, requestsPerMin int) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(utils.ErrorHandler())
	r.Use(middleware.RateLimitMiddleware(requestsPerMin))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)
	RegisterUserRoutes(r, hb)
	RegisterWriterRoutes(r, hb)
	RegisterOrderRoutes(r, hb)
	RegisterReviewRoutes(r, hb)
	RegisterResourceRoutes(r, hb)
	RegisterStorageRoutes(r, hb)
	return r
}

// RegisterStorageRoutes registers direct file uploads.
func RegisterStorageRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/storage")
	{
		api.Use(middleware.JWTAuthMiddleware())
		api.POST("/:bucket", hb.Storage.UploadFileHandler)
	}
}

// RegisterUserRoutes registers account endpoints.
func RegisterUserRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/users")
	{
		api.POST("/register", hb.User.RegisterHandler)
		api.POST("/login", hb.User.LoginHandler)

		// Protected routes.
		api.Use(middleware.JWTAuthMiddleware())
		api.POST("/logout", hb.User.LogoutHandler)
		api.GET("/me", hb.User.GetProfileHandler)
		api.PATCH("/me", hb.User.UpdateProfileHandler)
		api.DELETE("/me", hb.User.DeleteProfileHandler)
	}
}

// RegisterWriterRoutes registers writer profile and availability endpoints.
func RegisterWriterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/writers")
	{
		api.Use(middleware.JWTAuthMiddleware())
		api.GET("", hb.Writer.AvailableWritersHandler)
		api.GET("/:id", hb.Writer.GetWriterHandler)
		api.GET("/:id/reviews", hb.Review.ListWriterReviewsHandler)

		admin := api.Group("")
		admin.Use(middleware.JWTAuthMiddleware(models.RoleAdmin))
		admin.POST("", hb.Writer.CreateWriterHandler)
		admin.PATCH("/:id", hb.Writer.UpdateWriterHandler)
		admin.DELETE("/:id", hb.Writer.DeleteWriterHandler)
	}
}

// RegisterOrderRoutes registers the order lifecycle endpoints.
func RegisterOrderRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/orders")
	{
		api.Use(middleware.JWTAuthMiddleware())
		api.POST("", hb.Order.CreateOrderHandler)
		api.GET("", hb.Order.ListOrdersHandler)
		api.GET("/:id", hb.Order.GetOrderHandler)
		api.PATCH("/:id", hb.Order.UpdateOrderHandler)
		api.PATCH("/:id/cancel", hb.Order.CancelOrderHandler)

		admin := api.Group("/admin")
		admin.Use(middleware.JWTAuthMiddleware(models.RoleAdmin))
		admin.GET("/all", hb.Order.ListOrdersHandler)
		admin.PATCH("/:id/assign", hb.Order.AssignOrderHandler)
		admin.PATCH("/:id/response", hb.Order.SubmitResponseHandler)
		admin.PATCH("/:id/submit", hb.Order.CompleteOrderHandler)
		admin.PATCH("/:id/cancel", hb.Order.CancelOrderHandler)
	}
}

// RegisterReviewRoutes registers review submission.
func RegisterReviewRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/reviews")
	{
		api.Use(middleware.JWTAuthMiddleware())
		api.POST("", hb.Review.CreateReviewHandler)
	}
}

// RegisterResourceRoutes registers the resource catalog endpoints.
func RegisterResourceRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/resources")
	{
		api.GET("", hb.Resource.SearchResourcesHandler)
		api.GET("/:id", hb.Resource.GetResourceHandler)

		admin := api.Group("")
		admin.Use(middleware.JWTAuthMiddleware(models.RoleAdmin))
		admin.POST("", hb.Resource.CreateResourceHandler)
		admin.PATCH("/:id", hb.Resource.UpdateResourceHandler)
		admin.DELETE("/:id", hb.Resource.DeleteResourceHandler)
	}
}

// RegisterHealthRoute registers the liveness endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		status := utils.GetHealthStatus()
		code := http.StatusOK
		if !status.Mongo || !status.Redis {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	})
}
