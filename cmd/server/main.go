package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"farm_store/internal/config"
	"farm_store/internal/database"
	"farm_store/internal/events"
	"farm_store/internal/handlers"
	"farm_store/internal/migrations"
	"farm_store/internal/redis"
	"farm_store/internal/repository"
	"farm_store/internal/services"
	"farm_store/pkg/paypal"
	"farm_store/pkg/sendgrid"
	"farm_store/pkg/whatsapp"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func main() {
	// Load configuration
	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("service", "farm_store").Logger()
	gin.SetMode(cfg.GinMode)

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 2*time.Minute)
	err = migrations.Run(migrateCtx, db, migrations.SeedConfig{
		AdminUsername: cfg.AdminUsername,
		AdminPassword: cfg.AdminPassword,
		AdminEmail:    cfg.AdminEmail,
		SeedCatalog:   cfg.SeedCatalog,
	}, log)
	cancelMigrate()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	// Initialize Redis
	redisClient, err := redis.Initialize(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// External collaborators
	mailer := sendgrid.NewClient(cfg.SendGridAPIURL, cfg.SendGridAPIKey, cfg.SendGridFromEmail, cfg.StoreName)
	var texter services.Texter
	if wa := whatsapp.NewClient(cfg.WhatsAppAPIURL, cfg.WhatsAppUsername, cfg.WhatsAppPassword, cfg.WhatsAppPath); wa.Configured() {
		texter = wa
	}
	var payments services.PaymentGateway
	if cfg.PayPalClientID != "" {
		payments = paypal.NewClient(cfg.PayPalAPIURL, cfg.PayPalClientID, cfg.PayPalClientSecret)
	}
	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaOrderTopic)
	}

	// Initialize repositories
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	contactRepo := repository.NewContactRepository(db)
	adminRepo := repository.NewAdminUserRepository(db)

	// Initialize services
	dispatcher := services.NewDispatcher(cfg.NotifyTimeout, log)
	notifier := services.NewNotificationService(mailer, texter, services.NotificationConfig{
		StoreName:     cfg.StoreName,
		AdminEmail:    cfg.AdminEmail,
		PickupAddress: cfg.PickupAddress,
	})
	catalogService := services.NewCatalogService(productRepo, redisClient, cfg.CacheTTL, log)
	cartService := services.NewCartService(redis.NewCartStore(redisClient, cfg.CartTTL), catalogService)
	orderService := services.NewOrderService(orderRepo, notifier, publisher, dispatcher, log)
	checkoutService := services.NewCheckoutService(
		orderRepo, catalogService, payments, notifier, publisher, dispatcher,
		services.NewOrderNumberFunc(cfg.OrderNumberPrefix, nil),
		services.CheckoutConfig{DeliveryFee: cfg.DeliveryFee, Currency: cfg.Currency},
		log,
	)
	contactService := services.NewContactService(contactRepo, notifier, dispatcher)
	authService := services.NewAuthService(adminRepo, redisClient, cfg.AdminSessionTTL)

	// Setup routes
	router := handlers.NewRouter(handlers.Services{
		Catalog:  catalogService,
		Carts:    cartService,
		Checkout: checkoutService,
		Orders:   orderService,
		Contacts: contactService,
		Auth:     authService,
	}, map[string]handlers.HealthCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"redis": redisClient.Ping,
	}, log)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.ServerPort).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	// let in-flight confirmations and events finish
	dispatcher.Wait()
	if err := publisher.Close(); err != nil {
		log.Error().Err(err).Msg("event publisher close error")
	}
	if err := redisClient.Close(); err != nil {
		log.Error().Err(err).Msg("redis close error")
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Info().Msg("server stopped")
}
