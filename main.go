package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/streadway/amqp"

	"pantry/internal/config"
	"pantry/internal/database"
	"pantry/internal/handlers"
	"pantry/internal/middleware"
	"pantry/internal/models"
	"pantry/internal/repositories"
	"pantry/internal/services"
	"pantry/internal/validation"
	"pantry/pkg/openai"
	"pantry/pkg/rabbitmq"
	"pantry/pkg/storage"
)

const healthPath = "/health"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.SetLevel(logLevel(cfg.LogLevel))

	app, cleanup, err := newApp(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	log.Infof("Starting server on port %s", cfg.AppPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Info("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Errorf("Error during Fiber shutdown: %v", err)
	}
	cleanup()
	log.Info("Server gracefully stopped")
}

// newApp wires the repository, optional integrations, services and routes. The returned
// cleanup releases the broker and database connections.
func newApp(cfg *config.Config) (*fiber.App, func(), error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Errorf("Error during cleanup: %v", err)
			}
		}
	}

	// --- Repository ---
	var repo repositories.PantryRepository
	if cfg.DatabaseDriver == "memory" {
		repo = repositories.NewMemoryPantryRepository()
	} else {
		db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseDSN, cfg.LogLevel)
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, func() error { return database.Close(db) })
		if cfg.DatabaseAutoMigrate {
			if err := repositories.AutoMigrate(db); err != nil {
				cleanup()
				return nil, func() {}, err
			}
		}
		repo = repositories.NewGORMPantryRepository(db)
	}

	if cfg.SeedData {
		seedItems(context.Background(), repo, cfg.DefaultUserID)
	}

	// --- Optional integrations ---
	var events services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			log.Warnf("RabbitMQ unavailable, item events disabled: %v", err)
		} else {
			closers = append(closers, mqClient.Close)
			events = mqClient
			if err := mqClient.Consume(handleItemEvent); err != nil {
				log.Errorf("Failed to start RabbitMQ consumer: %v", err)
			}
		}
	}

	var images services.ImageUploader
	if cfg.S3Bucket != "" {
		s3, err := storage.NewS3(context.Background(), storage.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Endpoint:  cfg.S3Endpoint,
		})
		if err != nil {
			log.Warnf("S3 unavailable, image uploads disabled: %v", err)
		} else {
			images = s3
		}
	}

	var completer services.ChatCompleter
	if cfg.OpenAIAPIKey != "" {
		client, err := openai.NewClient(openai.Config{APIKey: cfg.OpenAIAPIKey, BaseURL: cfg.OpenAIBaseURL})
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		completer = client
	}

	// --- Services and handlers ---
	v := validation.New()
	pantryService := services.NewPantryService(repo, events, images)
	recipeService := services.NewRecipeService(repo, completer, cfg.OpenAIModel, cfg.RecipeRequestsPerMinute, v)

	pantryHandler := handlers.NewPantryHandler(pantryService, v)
	recipeHandler := handlers.NewRecipeHandler(recipeService, v)

	// --- Fiber app ---
	app := fiber.New(fiber.Config{
		AppName:   "pantry",
		BodyLimit: services.MaxImageSize + 1<<20,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSAllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, " + middleware.UserIDHeader,
	}))
	if cfg.RateLimitMax > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimitMax,
			Expiration: time.Minute,
			Next: func(c *fiber.Ctx) bool {
				return c.Path() == healthPath
			},
		}))
	}

	app.Get(healthPath, func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"version":   cfg.AppVersion,
		})
	})

	apiV1 := app.Group("/api/v1", middleware.UserIdentity(cfg.DefaultUserID))
	pantryHandler.RegisterRoutes(apiV1)
	recipeHandler.RegisterRoutes(apiV1)

	return app, cleanup, nil
}

// handleItemEvent logs item change events received from the broker.
func handleItemEvent(msg amqp.Delivery) error {
	var event models.ItemEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		return fmt.Errorf("malformed item event: %w", err)
	}
	log.Infof("Received %s for item %s (user %s)", event.Type, event.ItemID, event.UserID)
	return nil
}

func logLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "trace":
		return log.LevelTrace
	case "debug":
		return log.LevelDebug
	case "warn", "warning":
		return log.LevelWarn
	case "error":
		return log.LevelError
	default:
		return log.LevelInfo
	}
}

// seedItems populates the pantry of userID with sample items.
func seedItems(ctx context.Context, repo repositories.PantryRepository, userID string) {
	today := models.DateOf(time.Now().UTC())
	str := func(s string) *string { return &s }

	items := []models.NewPantryItem{
		{Name: "Bananas", Quantity: 6, Unit: models.UnitPieces, Category: models.CategoryProduce, ExpirationDate: today.AddDays(4)},
		{Name: "Jasmine Rice", Brand: str("Royal"), Quantity: 2, Unit: models.UnitKilograms, Category: models.CategoryGrains, ExpirationDate: today.AddDays(365)},
		{Name: "Chicken Breast", Quantity: 500, Unit: models.UnitGrams, Category: models.CategoryMeat, ExpirationDate: today.AddDays(2)},
		{Name: "Whole Milk", Brand: str("Horizon"), Quantity: 1, Unit: models.UnitLiters, Category: models.CategoryDairy, ExpirationDate: today.AddDays(6), Barcode: str("0742365264153")},
		{Name: "Greek Yogurt", Quantity: 4, Unit: models.UnitPackages, Category: models.CategoryDairy, ExpirationDate: today.AddDays(-1)},
		{Name: "Black Beans", Quantity: 3, Unit: models.UnitCans, Category: models.CategoryCanned, ExpirationDate: today.AddDays(540)},
		{Name: "Olive Oil", Brand: str("Kirkland"), Quantity: 1, Unit: models.UnitBottles, Category: models.CategoryCondiments, ExpirationDate: today.AddDays(200)},
	}

	for _, item := range items {
		created, err := repo.Create(ctx, userID, item)
		if err != nil {
			log.Errorf("Error seeding item %s: %v", item.Name, err)
			continue
		}
		log.Infof("Seeded item: %s (ID: %s)", created.Name, created.ID)
	}
}
