package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"

	"github.com/trudslev/kofi-members/app/repository"
	"github.com/trudslev/kofi-members/internal/pkg/cache"
	"github.com/trudslev/kofi-members/internal/pkg/database"
	"github.com/trudslev/kofi-members/internal/pkg/env"
	"github.com/trudslev/kofi-members/internal/pkg/expiry"
	"github.com/trudslev/kofi-members/internal/pkg/logging"
	"github.com/trudslev/kofi-members/internal/pkg/router"
)

func main() {
	app, scheduler := NewApplication()
	scheduler.Start()
	defer scheduler.Stop()

	// Graceful shutdown so an in-flight expiry sweep can finish.
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		_ = app.Shutdown()
	}()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() (*fiber.App, *expiry.Scheduler) {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	// Define possible base paths
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/kofimembers to project root
		"../../../", // Fallback
	}

	// Find the correct base path
	basePath := ""
	for _, path := range basePaths {
		if _, err := os.Stat(path + "views"); !os.IsNotExist(err) {
			basePath = path
			break
		}
	}

	if basePath == "" {
		panic("Could not find project root directory")
	}

	// init fiber app
	app := fiber.New(fiber.Config{
		Views: html.New(basePath+"views", ".html"),
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "admin"),
		},
	}), monitor.New())

	// static files
	app.Static("/", basePath+"public/assets", fiber.Static{
		CacheDuration: 15 * time.Second,
		Compress:      true,
	})

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: basePath + "public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app)

	// Daily role expiry sweep. The boot logger only reflects the settings
	// at startup; each sweep builds its own from the current settings.
	bootOpts, err := repository.GetGlobalRepositories().Setting.GetOptions()
	if err != nil {
		bootOpts = nil
	}
	scheduler := expiry.NewScheduler(database.GetDB(), logging.New(bootOpts), expiryInterval())

	return app, scheduler
}

func expiryInterval() time.Duration {
	raw := env.GetEnv("EXPIRY_SWEEP_INTERVAL", "")
	if raw == "" {
		return expiry.DefaultInterval
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return expiry.DefaultInterval
	}
	return d
}
