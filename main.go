package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"babyspa/config"
	"babyspa/cron"
	"babyspa/database"
	appointmentRepo "babyspa/database/repository/appointment"
	auditRepo "babyspa/database/repository/audit"
	catalogRepo "babyspa/database/repository/catalog"
	clientRepo "babyspa/database/repository/client"
	ledgerRepo "babyspa/database/repository/ledger"
	loyaltyRepo "babyspa/database/repository/loyalty"
	purchaseRepo "babyspa/database/repository/purchase"
	sessionRepo "babyspa/database/repository/session"
	"babyspa/handlers"
	"babyspa/middleware"
	"babyspa/routes"
	"babyspa/services/checkout"
	"babyspa/services/payments"
	"babyspa/services/scheduling"
	"babyspa/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	utils.RegisterMetrics()

	stripe.Key = config.AppConfig.StripeKey

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	aptRepo := appointmentRepo.NewMongoAppointmentRepo()
	sessRepo := sessionRepo.NewMongoSessionRepo()
	purchRepo := purchaseRepo.NewMongoPurchaseRepo()
	cliRepo := clientRepo.NewMongoClientRepo()
	catRepo := catalogRepo.NewMongoCatalogRepo()
	ledRepo := ledgerRepo.NewMongoLedgerRepo()
	loyRepo := loyaltyRepo.NewMongoLoyaltyRepo()
	audRepo := auditRepo.NewMongoAuditRepo()

	for name, ensure := range map[string]func() error{
		"appointments": aptRepo.EnsureIndexes,
		"sessions":     sessRepo.EnsureIndexes,
		"purchases":    purchRepo.EnsureIndexes,
		"ledger":       ledRepo.EnsureIndexes,
	} {
		if err := ensure(); err != nil {
			logger.Sugar().Fatalf("main: failed to ensure %s indexes: %v", name, err)
		}
	}

	scheduleCfg := config.ScheduleConfig()

	// services.
	availabilityService := &scheduling.AvailabilityService{
		Appointments: aptRepo,
		Cache:        utils.GetCacheClient(),
		Cfg:          scheduleCfg,
	}

	paymentService := &payments.Service{
		Ledger:      ledRepo,
		Purchases:   purchRepo,
		ChargeCards: config.AppConfig.StripeKey != "",
	}

	bookingManager := &scheduling.DefaultBookingManager{
		Appointments: aptRepo,
		Sessions:     sessRepo,
		Purchases:    purchRepo,
		Clients:      cliRepo,
		Catalog:      catRepo,
		Availability: availabilityService,
		Payments:     paymentService,
		Cfg:          scheduleCfg,
	}

	settlementService := &checkout.SettlementService{
		Sessions:     sessRepo,
		Appointments: aptRepo,
		Purchases:    purchRepo,
		Catalog:      catRepo,
		Ledger:       ledRepo,
		Loyalty:      loyRepo,
		Clients:      cliRepo,
		Audit:        audRepo,
	}

	// Background worker: reminders and pending-payment expiry.
	cron.InitWorker(aptRepo, nil)

	// Assemble the handler bundle.
	handlerBundle := &routes.HandlerBundle{
		Appointments: handlers.NewAppointmentHandler(bookingManager, availabilityService, scheduleCfg),
		Sessions:     handlers.NewSessionHandler(bookingManager, settlementService, sessRepo),
		Payments:     handlers.NewPaymentHandler(paymentService, ledRepo),
		Clients:      handlers.NewClientHandler(cliRepo, purchRepo, catRepo),
	}
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
