package routes

import (
	"net/http"
	"time"

	"campushub/handlers"
	"campushub/middleware"
	"campushub/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterStudentRoutes registers account endpoints.
func RegisterStudentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/students")
	{
		api.POST("/register", hb.RegisterStudentHandler)
		api.POST("/login", hb.AuthenticateStudentHandler)

		// Protected routes (Require Authentication)
		api.Use(middleware.JWTAuthMiddleware(hb.StudentRepo))
		api.GET("/me", hb.GetOwnProfileHandler)
		api.PUT("/fcm-token", hb.UpdateFCMTokenHandler)
	}
}

// RegisterChargeRoutes registers charge management endpoints. Reads are open
// to any authenticated account; mutations are staff-only.
func RegisterChargeRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/charges")
	api.Use(middleware.JWTAuthMiddleware(hb.StudentRepo))
	{
		api.GET("", hb.ListChargesHandler)
		api.GET("/applicable", hb.ApplicableChargesHandler)
		api.GET("/:id", hb.GetChargeHandler)

		staff := api.Group("")
		staff.Use(middleware.StaffOnly(hb.StudentRepo))
		staff.POST("", hb.CreateChargeHandler)
		staff.PUT("/:id", hb.UpdateChargeHandler)
		staff.DELETE("/:id", hb.DeleteChargeHandler)
	}
}

// RegisterPaymentRoutes registers the payment transaction endpoints.
func RegisterPaymentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/payments")
	api.Use(middleware.JWTAuthMiddleware(hb.StudentRepo))
	{
		api.POST("", hb.MakePaymentHandler)
		api.GET("", hb.ListPaymentsHandler)
		api.GET("/:id/receipt", hb.GetReceiptHandler)

		staff := api.Group("")
		staff.Use(middleware.StaffOnly(hb.StudentRepo))
		staff.POST("/:id/receipt", hb.AttachReceiptHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "services": utils.GetHealthStatus()})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterStudentRoutes(r, hb)
	RegisterChargeRoutes(r, hb)
	RegisterPaymentRoutes(r, hb)
	RegisterHealthRoute(r)
}
