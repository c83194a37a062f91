package rest

import (
	"github.com/agromov/postwatch/config"
	"github.com/gofiber/fiber/v2"
)

func InitRestHealth(app fiber.Router) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"version": config.AppVersion,
		})
	})
}
