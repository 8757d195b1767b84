package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mehdiasadli/yayago-application-sub000/config"
	"github.com/mehdiasadli/yayago-application-sub000/controllers"
	"github.com/mehdiasadli/yayago-application-sub000/payments"
	"github.com/mehdiasadli/yayago-application-sub000/routes"
	"github.com/mehdiasadli/yayago-application-sub000/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Config error: %v", err)
	}

	logger := config.NewLogger(cfg.Environment)
	defer logger.Sync()

	// Connect database (config.ConnectDatabase sets config.DB)
	if err := config.ConnectDatabase(); err != nil {
		logger.Fatal("database connect failed", zap.Error(err))
	}
	db := config.DB
	if db == nil {
		logger.Fatal("config.DB is nil after ConnectDatabase()")
	}
	logger.Info("✅ database connection established, migrations applied")

	processor := payments.NewStripe(cfg.StripeSecretKey, logger)

	// Initialize services
	notificationService := services.NewNotificationService(db, logger)
	pricingService := services.NewPricingService(db, logger)
	connectService := services.NewConnectService(db, processor, cfg.ConnectDeniedCountries, cfg.ConnectRefreshURL, cfg.ConnectReturnURL, logger)
	settlementService := services.NewSettlementService(db, processor, connectService, notificationService, cfg.DefaultCommissionRate, logger)
	bookingService := services.NewBookingService(db, pricingService, settlementService, notificationService, logger)

	// Initialize controllers
	pricingController := controllers.NewPricingController(pricingService)
	bookingController := controllers.NewBookingController(bookingService)
	settlementController := controllers.NewSettlementController(settlementService)
	connectController := controllers.NewConnectController(connectService)

	// Build router
	router := routes.SetupRouter(pricingController, bookingController, settlementController, connectController, cfg.AdminAPIKey, logger)

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
		// useful timeouts
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("🚀 server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("ListenAndServe()", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with timeout
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Warn("shutdown signal received, shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("✅ server stopped gracefully")
}
