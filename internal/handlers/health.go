package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tasagro-dev/tasagro/internal/database"
)

// HealthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Router /healthz [get]
func HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "healthy",
	})
}

// LivenessCheck godoc
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /liveness [get]
func LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "alive",
	})
}

// ReadinessCheck returns a handler that verifies the database connection.
func ReadinessCheck(db *database.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sqlDB, err := db.DB.DB()
		if err != nil || sqlDB.Ping() != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "not ready",
			})
		}
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	}
}
