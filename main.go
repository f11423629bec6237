package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
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

	engine := html.New("./views", ".html")
	app := fiber.New(fiber.Config{
		Views: engine,
	})
	app.Use(recover.New(), logger.New())
	app.Get("/metrics", monitor.New())
	app.Static("/", "./public/assets")

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: "./public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app)

	bootOpts, err := repository.GetGlobalRepositories().Setting.GetOptions()
	if err != nil {
		bootOpts = nil
	}
	scheduler := expiry.NewScheduler(database.GetDB(), logging.New(bootOpts), expiry.DefaultInterval)

	return app, scheduler
}
