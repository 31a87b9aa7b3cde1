package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campushub/config"
	"campushub/cron"
	"campushub/database"
	chargeRepoPkg "campushub/database/repository/charge"
	ledgerRepoPkg "campushub/database/repository/ledger"
	paymentRepoPkg "campushub/database/repository/payment"
	studentRepoPkg "campushub/database/repository/student"
	"campushub/handlers"
	"campushub/middleware"
	"campushub/routes"
	"campushub/services/finance"
	"campushub/services/notification"
	"campushub/services/student"
	"campushub/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	utils.InitAuthCache()
	utils.FirebaseInit()

	receiptStorage, err := utils.NewCloudinaryStorage()
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize receipt storage: %v", err)
	}

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	chargeRepo := chargeRepoPkg.NewMongoChargeRepo()
	ledgerRepo := ledgerRepoPkg.NewMongoLedgerRepo()
	paymentRepo := paymentRepoPkg.NewMongoPaymentRepo()
	studentRepo := studentRepoPkg.NewMongoStudentRepo()

	// services.
	studentService := &student.DefaultStudentService{
		Repo:   studentRepo,
		Logger: logger,
	}
	handlers.SetStudentService(studentService)

	notificationService := &notification.DefaultNotificationService{
		Students: studentService,
	}

	chargeCatalog := &finance.DefaultChargeCatalog{
		Repo:   chargeRepo,
		Logger: logger,
	}

	gateway := finance.NewRazorpayGateway(
		config.AppConfig.RazorpayKeyID,
		config.AppConfig.RazorpayKeySecret,
		logger,
	)
	coordinator := finance.NewTransactionCoordinator(
		chargeRepo,
		ledgerRepo,
		paymentRepo,
		gateway,
		config.AppConfig.RazorpayKeySecret,
		config.AppConfig.PaymentCurrency,
		notificationService,
		logger,
	)

	receiptService := &finance.DefaultReceiptService{
		Payments: paymentRepo,
		Storage:  receiptStorage,
		Logger:   logger,
	}

	chargeHandler := handlers.NewChargeHandler(chargeCatalog, studentService, logger)
	paymentHandler := handlers.NewPaymentHandler(coordinator, paymentRepo, receiptService, logger)

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		StudentRepo: studentRepo,

		// Account endpoints.
		RegisterStudentHandler:     handlers.RegisterStudentHandler,
		AuthenticateStudentHandler: handlers.AuthenticateStudentHandler,
		GetOwnProfileHandler:       handlers.GetOwnProfileHandler,
		UpdateFCMTokenHandler:      handlers.UpdateFCMTokenHandler,

		// Charge endpoints.
		CreateChargeHandler:      chargeHandler.CreateChargeHandler,
		UpdateChargeHandler:      chargeHandler.UpdateChargeHandler,
		DeleteChargeHandler:      chargeHandler.DeleteChargeHandler,
		GetChargeHandler:         chargeHandler.GetChargeHandler,
		ListChargesHandler:       chargeHandler.ListChargesHandler,
		ApplicableChargesHandler: chargeHandler.ApplicableChargesHandler,

		// Payment endpoints.
		MakePaymentHandler:   paymentHandler.MakePaymentHandler,
		ListPaymentsHandler:  paymentHandler.ListPaymentsHandler,
		GetReceiptHandler:    paymentHandler.GetReceiptHandler,
		AttachReceiptHandler: paymentHandler.AttachReceiptHandler,
	}

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle)

	// Background reclamation of abandoned payment locks.
	cron.InitLedgerSweeper(ledgerRepo)

	utils.StartHealthMonitor(
		[]*redis.Client{utils.GetCacheClient(), utils.GetAuthCacheClient()},
		database.MongoClient,
	)

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
