package main

import (
	"os"

	"imagehost/config"
	"imagehost/db"
	"imagehost/logger"
	"imagehost/routes"
	"imagehost/storetables"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	zlog, err := logger.New(cfg)
	if err != nil {
		panic(err)
	}
	defer zlog.Sync()

	// Initialize database
	gdb := db.InitDatabase(cfg.DBPath, zlog)

	// Create uploads directory if it doesn't exist
	if _, err := os.Stat(cfg.UploadDir); os.IsNotExist(err) {
		os.Mkdir(cfg.UploadDir, 0755)
	}

	repo := storetables.NewRepo(gdb, zlog)

	// Create Fiber app
	app := fiber.New()

	// Middleware
	app.Use(fiberlogger.New())
	app.Use(cors.New())

	// Serve static files
	app.Static("/uploads", "./"+cfg.UploadDir)

	// Setup routes
	routes.SetupRoutes(app, repo, cfg.UploadDir)

	// Start server
	if err := app.Listen(cfg.ListenAddr); err != nil {
		// Not Fatal: the deferred Sync must still flush before exit
		zlog.Error("server stopped", zap.Error(err))
	}
}
