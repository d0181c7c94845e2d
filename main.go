package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"glowdesk/config"
	"glowdesk/cron"
	"glowdesk/database"
	recordsRepo "glowdesk/database/repository/records"
	sessionRepo "glowdesk/database/repository/session"
	"glowdesk/handlers"
	"glowdesk/integrations/pos"
	"glowdesk/middleware"
	"glowdesk/routes"
	"glowdesk/services/conversation"
	"glowdesk/services/finalize"
	"glowdesk/services/intelligence"
	"glowdesk/services/scheduling"
	"glowdesk/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitSessionCache()
	utils.InitCatalogCache()
	utils.StartHealthMonitor(
		[]*redis.Client{utils.GetSessionCacheClient(), utils.GetCatalogCacheClient()},
		database.MongoClient,
	)

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// POS backend façade with a short-lived catalog cache in front.
	posClient := pos.NewClient(
		config.AppConfig.POSBaseURL,
		config.AppConfig.POSAPIKey,
		config.POSTimeout(),
		logger,
	)
	catalog := pos.NewCachedCatalog(posClient, utils.GetCatalogCacheClient(), 30*time.Second)

	sessionStore := sessionRepo.NewRedisStore(utils.GetSessionCacheClient(), config.SessionTTL())
	records := recordsRepo.NewMongoRecordRepo()

	validator := &scheduling.Validator{
		Catalog:          catalog,
		SlotWidthMinutes: config.AppConfig.SlotWidthMinutes,
		DefaultStartTime: config.AppConfig.DefaultStartTime,
	}

	reminders := cron.NewScheduler()
	defer reminders.Close()
	cron.InitReminderWorker(sessionStore, logger)

	finalizer := &finalize.Finalizer{
		Backend:            posClient,
		Records:            records,
		Reminders:          reminders,
		SlotWidthMinutes:   config.AppConfig.SlotWidthMinutes,
		PaymentLinkBaseURL: config.AppConfig.PaymentLinkBaseURL,
		ReminderLead:       time.Duration(config.AppConfig.ReminderLeadHours) * time.Hour,
		Logger:             logger,
	}

	// The reply generator is optional: without an API key the machine
	// answers with its canned prompts.
	var replies conversation.ReplyGenerator
	if key := config.AppConfig.GeminiAPIKey; key != "" {
		gen, err := intelligence.NewGeminiGenerator(context.Background(), key)
		if err != nil {
			logger.Sugar().Fatalf("main: failed to initialize reply generator: %v", err)
		}
		replies = gen
	}

	machine := &conversation.Machine{
		Store:     sessionStore,
		Catalog:   catalog,
		Validator: validator,
		Finalizer: finalizer,
		Replies:   replies,
		Logger:    logger,
	}

	chatHandler := handlers.NewChatHandler(machine, sessionStore, records, logger)
	handlerBundle := &handlers.HandlerBundle{
		ProcessMessageHandler: chatHandler.ProcessMessageHandler,
		GetSessionHandler:     chatHandler.GetSessionHandler,
		ResetSessionHandler:   chatHandler.ResetSessionHandler,
		GetOrdersHandler:      chatHandler.GetOrdersHandler,
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
