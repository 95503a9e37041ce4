package main

import (
	"os"
	"os/signal"
	"syscall"

	"harvestiq/internal/config"
	"harvestiq/internal/database"
	"harvestiq/internal/models"
	"harvestiq/internal/repositories"
	"harvestiq/internal/server"
	"harvestiq/internal/services"
	"harvestiq/pkg/blobstore"
	"harvestiq/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load(os.Getenv("HARVESTIQ_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := config.SetupLogging(cfg.LogLevel, cfg.LogFormat); err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}
	if cfg.UsesDevSecret() {
		log.Warn("JWT_SECRET not set, signing tokens with the development secret")
	}

	app, cleanup, err := newApp(cfg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer cleanup()

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.WithField("port", cfg.AppPort).Info("Starting server")
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-quit
	log.Info("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.WithError(err).Error("Error during Fiber shutdown")
	}
	log.Info("Server gracefully stopped")
}

// newApp wires storage, messaging and services into the HTTP application. The
// returned cleanup releases the broker connection and the database.
func newApp(cfg *config.Config) (*fiber.App, func(), error) {
	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseDSN, log.IsLevelEnabled(log.DebugLevel))
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}

	media, err := blobstore.NewOS(cfg.MediaDir)
	if err != nil {
		sqlDB.Close()
		return nil, nil, err
	}

	// Events are optional; the marketplace keeps working without a broker.
	var publisher services.Publisher
	var mqClient *rabbitmq.Client
	if cfg.RabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Exchange: cfg.EventsExchange})
		if err != nil {
			log.WithError(err).Warn("RabbitMQ unavailable. Events will not be published.")
			mqClient = nil
		} else {
			publisher = mqClient
			if cfg.AuditConsumer {
				if err := mqClient.ConsumeEvents(cfg.EventsExchange, "harvestiq.audit", "#", rabbitmq.AuditEvent); err != nil {
					log.WithError(err).Warn("Failed to start audit consumer")
				}
			}
		}
	}

	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	listingRepo := repositories.NewGORMListingRepository(db)
	messageRepo := repositories.NewGORMMessageRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	tx := repositories.NewGORMTransactor(db)

	// --- Services ---
	events := services.NewEvents(publisher, cfg.EventsExchange)
	authService := services.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL)
	if cfg.SeedAccounts {
		if err := authService.SeedAccounts(demoAccounts()); err != nil {
			log.WithError(err).Error("Failed to seed accounts")
		}
	}

	app := server.New(server.Services{
		Auth:          authService,
		Listings:      services.NewListingService(listingRepo, messageRepo, tx, media, events),
		Conversations: services.NewConversationService(listingRepo, messageRepo, events),
		Checkout:      services.NewCheckoutService(tx, events),
		Orders:        services.NewOrderService(orderRepo),
		Media:         media,
	}, server.Options{
		LoginRateLimit: cfg.LoginRateLimit,
		AccessLog:      os.Stdout,
		Ready:          sqlDB.Ping,
	})

	cleanup := func() {
		if mqClient != nil {
			if err := mqClient.Close(); err != nil {
				log.WithError(err).Warn("Error closing RabbitMQ client")
			}
		}
		if err := sqlDB.Close(); err != nil {
			log.WithError(err).Warn("Error closing database")
		}
	}
	return app, cleanup, nil
}

// demoAccounts are the fixed logins of the demo deployment.
func demoAccounts() []services.SeedAccount {
	return []services.SeedAccount{
		{Email: "admin@test.com", Password: "1234", Name: "Admin User", Role: models.RoleAdmin},
		{Email: "farmer@test.com", Password: "abcd", Name: "Farmer User", Role: models.RoleFarmer},
		{Email: "buyer@test.com", Password: "pass", Name: "Buyer User", Role: models.RoleBuyer},
	}
}
