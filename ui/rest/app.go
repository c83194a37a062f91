package rest

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// NewApp builds the inspection API used to peek at the review pipeline.
func NewApp(debug bool) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Postwatch",
		DisableStartupMessage: !debug,
	})

	app.Use(recover.New())
	if debug {
		app.Use(logger.New())
	}

	return app
}
