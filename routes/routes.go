package routes

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mehdiasadli/yayago-application-sub000/controllers"
	"github.com/mehdiasadli/yayago-application-sub000/middleware"
)

func parseCorsOrigins() []string {
	raw := strings.TrimSpace(os.Getenv("CORS_ORIGINS"))
	if raw == "" {
		return []string{"*"}
	}

	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func SetupRouter(
	pc *controllers.PricingController,
	bc *controllers.BookingController,
	sc *controllers.SettlementController,
	cc *controllers.ConnectController,
	apiKey string,
	logger *zap.Logger,
) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(logger))
	r.Use(gin.Recovery())
	r.Use(middleware.HTTPMetrics())

	origins := parseCorsOrigins()
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", "X-User-ID", "X-API-Key"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		pricing := api.Group("/pricing")
		{
			pricing.POST("/quote", pc.Quote)
		}

		listings := api.Group("/listings")
		{
			listings.GET("/:id/availability", pc.Availability)
		}

		bookings := api.Group("/bookings")
		{
			bookings.POST("", bc.CreateBooking)
			bookings.GET("/:id", bc.GetBooking)
			bookings.PATCH("/:id/status", bc.UpdateStatus)
			bookings.POST("/:id/cancel", bc.Cancel)
			bookings.POST("/:id/start", bc.StartTrip)
			bookings.POST("/:id/complete", bc.CompleteTrip)
		}

		organizations := api.Group("/organizations")
		{
			organizations.POST("/:id/connect-account", cc.EnsureAccount)
			organizations.POST("/:id/connect-account/link", cc.AccountLink)
			organizations.GET("/:id/connect-account", cc.GetStatus)
		}

		admin := api.Group("/admin", middleware.APIKeyAuth(apiKey))
		{
			admin.POST("/bookings/:id/payout", sc.ProcessPayout)
		}
	}

	return r
}
