package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"homelet/internal/infra/config"
	"homelet/internal/infra/obs"
)

type BookingHTTP interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	ListMine(c *gin.Context)
	Cancel(c *gin.Context)
	Occupancy(c *gin.Context)
}

type EscrowHTTP interface {
	ConfirmMoveIn(c *gin.Context)
	PayInstallment(c *gin.Context)
	Schedule(c *gin.Context)
}

type AdminHTTP interface {
	ReleaseRent(c *gin.Context)
	ReleaseDepositToRenter(c *gin.Context)
	ReleaseDepositToLandlord(c *gin.Context)
	DisputeDeposit(c *gin.Context)
	MarkInstallmentTransferred(c *gin.Context)
	RemoveBooking(c *gin.Context)
	Revenue(c *gin.Context)
}

type Handlers struct {
	Booking         BookingHTTP
	Escrow          EscrowHTTP
	Admin           AdminHTTP
	AdminMiddleware gin.HandlerFunc
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
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key", "X-Actor-Email", "X-Admin-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Booking != nil {
		api.POST("/bookings", h.Booking.Create)
		api.GET("/bookings/:id", h.Booking.Get)
		api.POST("/bookings/:id/cancel", h.Booking.Cancel)
		api.GET("/me/bookings", h.Booking.ListMine)
		api.GET("/properties/:id/occupancy", h.Booking.Occupancy)
	}
	if h.Escrow != nil {
		api.POST("/bookings/:id/move-in", h.Escrow.ConfirmMoveIn)
		api.POST("/bookings/:id/installments/:month/pay", h.Escrow.PayInstallment)
		api.GET("/bookings/:id/schedule", h.Escrow.Schedule)
	}
	if h.Admin != nil {
		adminGroup := api.Group("/admin")
		if h.AdminMiddleware != nil {
			adminGroup.Use(h.AdminMiddleware)
		}
		adminGroup.POST("/bookings/:id/release-rent", h.Admin.ReleaseRent)
		adminGroup.POST("/bookings/:id/release-deposit/renter", h.Admin.ReleaseDepositToRenter)
		adminGroup.POST("/bookings/:id/release-deposit/landlord", h.Admin.ReleaseDepositToLandlord)
		adminGroup.POST("/bookings/:id/dispute-deposit", h.Admin.DisputeDeposit)
		adminGroup.POST("/bookings/:id/installments/:month/transfer", h.Admin.MarkInstallmentTransferred)
		adminGroup.DELETE("/bookings/:id", h.Admin.RemoveBooking)
		adminGroup.GET("/revenue", h.Admin.Revenue)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug", "dev":
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
