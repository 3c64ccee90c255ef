package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/PaletotCode/Cori/internal/config"
	"github.com/PaletotCode/Cori/internal/database"
	"github.com/PaletotCode/Cori/internal/jobs"
	"github.com/PaletotCode/Cori/internal/push"
	appredis "github.com/PaletotCode/Cori/internal/redis"
	"github.com/PaletotCode/Cori/internal/routes"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if err := database.ConnectDB(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.CloseDB()

	// Redis only backs the public rate limiter; the app runs without it.
	var redisClient *goredis.Client
	if cfg.RedisURL != "" {
		client, err := appredis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, public rate limiting disabled")
		} else {
			redisClient = client.Client
			defer client.Close()
		}
	}

	app := fiber.New()

	app.Use(cors.New())
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})
	routes.RegisterRoutes(app, cfg, database.DB, redisClient)

	sender := push.NewLogSender(log.Logger)
	dispatcher := jobs.NewDispatcher(database.DB, sender, cfg.DispatchInterval(), cfg.DispatchBatchSize, log.Logger)
	if err := dispatcher.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start dispatcher")
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("server starting")
		if err := app.Listen(cfg.Addr()); err != nil {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	dispatcher.Stop()
	if err := app.Shutdown(); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}
