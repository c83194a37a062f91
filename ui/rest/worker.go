package rest

import (
	"github.com/agromov/postwatch/pkg/postworker"
	"github.com/gofiber/fiber/v2"
)

func InitRestWorker(app fiber.Router, pool *postworker.Pool) {
	app.Get("/workers/stats", func(c *fiber.Ctx) error {
		return c.JSON(pool.GetStats())
	})
}
