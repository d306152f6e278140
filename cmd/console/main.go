package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/open-teleop/console/domain/diagnostic"
	"github.com/open-teleop/console/domain/teleop"
	"github.com/open-teleop/console/domain/video"
	"github.com/open-teleop/console/pkg/api"
	"github.com/open-teleop/console/pkg/config"
	customlog "github.com/open-teleop/console/pkg/log"
	"github.com/open-teleop/console/pkg/processing"
	"github.com/open-teleop/console/pkg/zeromq"
	"github.com/open-teleop/console/services"
)

func main() {
	// A missing .env file is normal outside development.
	_ = godotenv.Load()

	configDir := os.Getenv("CONSOLE_CONFIG_DIR")
	if configDir == "" {
		configDir = "config"
	}

	bootstrap, err := config.LoadBootstrapConfig(configDir)
	if err != nil {
		log.Fatalf("Failed to load bootstrap config: %v", err)
	}

	appLogger, err := customlog.NewLogrusLogger(bootstrap.Logging.Level, bootstrap.Logging.LogPath)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	configService, err := services.NewTeleopConfigService(bootstrap.Data.TeleopConfigPath(), appLogger)
	if err != nil {
		appLogger.Fatalf("Failed to create config service: %v", err)
	}
	cfg := configService.GetCurrentConfig()

	// Inbound message processing
	registry := processing.NewTopicRegistry(appLogger)
	registry.LoadFromConfig(cfg)

	director := processing.NewMessageDirector(appLogger, registry, &processing.DirectorOptions{
		DefaultQueueSize: bootstrap.Processing.QueueSize,
	})
	director.Initialize(
		bootstrap.Processing.HighPriorityWorkers,
		bootstrap.Processing.StandardPriorityWorkers,
		bootstrap.Processing.LowPriorityWorkers,
	)
	resultHandler := processing.NewLoggingResultHandler(appLogger.WithField("component", "results"))
	director.SetResultHandler(resultHandler.CreateHandlerFunc())

	// Gateway link
	zmqService, err := zeromq.NewZeroMQService(bootstrap.ZeroMQ, director, appLogger.WithField("component", "zeromq"))
	if err != nil {
		appLogger.Fatalf("Failed to create ZeroMQ service: %v", err)
	}
	configPublisher := zeromq.RegisterConfigHandlers(zmqService, configService, appLogger)
	configService.SetPublisher(configPublisher)

	// Console session
	videoService := video.NewVideoService(appLogger)
	particleHub := api.NewParticleHub(appLogger)
	session := teleop.NewSession(cfg, appLogger.WithField("component", "session"), teleop.Sinks{
		Publisher: zeromq.NewROSPublisher(zmqService, appLogger),
		Frames:    videoService,
		Particles: particleHub,
	})

	processor := processing.NewRosMessageProcessor(appLogger, registry)
	session.Register(processor)
	director.SetProcessor(processor.CreateProcessorFunc())

	var topicsMu sync.Mutex
	topics := cfg.Topics
	configService.OnUpdate(func(next *config.Config) {
		registry.LoadFromConfig(next)
		session.ApplyConfig(next)

		topicsMu.Lock()
		changed := next.Topics != topics
		topics = next.Topics
		topicsMu.Unlock()

		if changed {
			if err := session.Calibrate(); err != nil {
				appLogger.Warnf("Calibration after topic change failed: %v", err)
			}
		}
	})

	diagnosticService := diagnostic.NewDiagnosticService(diagnostic.Sources{
		Pools:  director,
		Topics: registry,
		Errors: resultHandler,
		Alerts: session,
		Link:   zmqService,
	})

	director.Start()
	if err := zmqService.Start(); err != nil {
		appLogger.Fatalf("Failed to start ZeroMQ service: %v", err)
	}
	if err := configPublisher.PublishConfigUpdate(); err != nil {
		appLogger.Warnf("Initial configuration publish failed: %v", err)
	}

	// HTTP server
	app := fiber.New(fiber.Config{
		AppName:      "Open-Teleop Console",
		ErrorHandler: api.ErrorHandler,
	})
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "online",
			"service": "open-teleop console",
		})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	api.RegisterTeleopRoutes(app, session, particleHub, appLogger)
	api.RegisterConfigRoutes(app, configService, appLogger)

	apiGroup := app.Group("/api")
	apiGroup.Get("/diagnostics", diagnosticService.GetMetricsHandler)
	videoRoutes := apiGroup.Group("/video")
	videoRoutes.Get("/frame", videoService.FrameHandler)
	videoRoutes.Get("/diff.png", videoService.DiffHandler)
	videoRoutes.Get("/status", videoService.StatusHandler)

	port := os.Getenv("PORT")
	if port == "" {
		port = strconv.Itoa(bootstrap.Server.HTTPPort)
	}

	go func() {
		appLogger.Infof("Server starting on port %s", port)
		if err := app.Listen(fmt.Sprintf(":%s", port)); err != nil {
			appLogger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Infof("Shutting down console...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		appLogger.Errorf("Server forced to shutdown: %v", err)
	}
	zmqService.Stop()
	director.Stop()

	appLogger.Infof("Console exited properly")
}
