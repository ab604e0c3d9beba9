package routes

import (
	"net/http"
	"time"

	"babyspa/handlers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HandlerBundle groups the handler sets the router wires up.
type HandlerBundle struct {
	Appointments *handlers.AppointmentHandler
	Sessions     *handlers.SessionHandler
	Payments     *handlers.PaymentHandler
	Clients      *handlers.ClientHandler
}

// RegisterRoutes wires every endpoint group onto the router.
func RegisterRoutes(r *gin.Engine, hb *HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Actor-Id", "X-Channel"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	RegisterAvailabilityRoutes(r, hb)
	RegisterAppointmentRoutes(r, hb)
	RegisterSessionRoutes(r, hb)
	RegisterPaymentRoutes(r, hb)
	RegisterClientRoutes(r, hb)
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// RegisterAvailabilityRoutes registers the advisory availability endpoints.
func RegisterAvailabilityRoutes(r *gin.Engine, hb *HandlerBundle) {
	api := r.Group("/api/availability")
	{
		api.GET("", hb.Appointments.CheckAvailability)
		api.GET("/grid/:date", hb.Appointments.DayGrid)
	}
}

// RegisterAppointmentRoutes registers the booking lifecycle endpoints.
func RegisterAppointmentRoutes(r *gin.Engine, hb *HandlerBundle) {
	api := r.Group("/api/appointments")
	{
		api.POST("", hb.Appointments.Create)
		api.GET("/:id", hb.Appointments.Get)
		api.GET("/:id/history", hb.Appointments.History)
		api.PATCH("/:id", hb.Appointments.Update)
		api.POST("/:id/no-show", hb.Appointments.MarkNoShow)
		api.POST("/:id/advance", hb.Appointments.RecordAdvance)
		api.POST("/:id/start", hb.Sessions.Start)
		api.GET("/:id/transactions", hb.Payments.ListForAppointment)
	}
}

// RegisterSessionRoutes registers session checkout endpoints.
func RegisterSessionRoutes(r *gin.Engine, hb *HandlerBundle) {
	api := r.Group("/api/sessions")
	{
		api.GET("/:id", hb.Sessions.Get)
		api.POST("/:id/products", hb.Sessions.AddProduct)
		api.POST("/:id/complete", hb.Sessions.Complete)
		api.POST("/:id/evaluation", hb.Sessions.Evaluate)
	}
}

// RegisterPaymentRoutes registers ledger endpoints.
func RegisterPaymentRoutes(r *gin.Engine, hb *HandlerBundle) {
	api := r.Group("/api")
	{
		api.POST("/purchases/:id/installments", hb.Payments.RecordInstallment)
		api.POST("/transactions/:id/void", hb.Payments.Void)
	}
}

// RegisterClientRoutes registers parent/baby and catalog endpoints.
func RegisterClientRoutes(r *gin.Engine, hb *HandlerBundle) {
	api := r.Group("/api")
	{
		api.POST("/parents", hb.Clients.RegisterParent)
		api.GET("/parents/:id", hb.Clients.GetParent)
		api.POST("/babies", hb.Clients.RegisterBaby)
		api.GET("/clients/:id/purchases", hb.Clients.ListPurchases)
		api.GET("/packages", hb.Clients.ListPackages)
	}
}
