package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"stayfinder/internal/infra/config"
	"stayfinder/internal/infra/obs"
)

type BookingHTTP interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	ListMine(c *gin.Context)
	UpdateStatus(c *gin.Context)
	Cancel(c *gin.Context)
}

type PaymentHTTP interface {
	CreateIntent(c *gin.Context)
	Confirm(c *gin.Context)
	Refund(c *gin.Context)
	Webhook(c *gin.Context)
}

type Handlers struct {
	Booking        BookingHTTP
	Payment        PaymentHTTP
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Booking != nil {
		api.POST("/bookings", h.Booking.Create)
		api.GET("/bookings/my-bookings", h.Booking.ListMine)
		api.GET("/bookings/:id", h.Booking.Get)
		api.PATCH("/bookings/:id/status", h.Booking.UpdateStatus)
		api.PATCH("/bookings/:id/cancel", h.Booking.Cancel)
	}
	if h.Payment != nil {
		api.POST("/bookings/:id/payment-intent", h.Payment.CreateIntent)
		api.POST("/bookings/:id/confirm-payment", h.Payment.Confirm)
		api.POST("/bookings/:id/refund", h.Payment.Refund)
		router.POST("/webhooks/payments", h.Payment.Webhook)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
