package controllers

import (
	"gorm.io/gorm"

	"github.com/gofiber/fiber/v2"
)

type HealthController struct {
	DB *gorm.DB
}

func NewHealthController(db *gorm.DB) *HealthController {
	return &HealthController{DB: db}
}

func (hc *HealthController) Root(c *fiber.Ctx) error {
	return c.SendString("Digital Life Lessons API is running")
}

func (hc *HealthController) Health(c *fiber.Ctx) error {
	status := fiber.Map{"status": "ok", "database": "ok"}

	sqlDB, err := hc.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.UserContext())
	}
	if err != nil {
		status["status"] = "degraded"
		status["database"] = err.Error()
		return c.Status(fiber.StatusServiceUnavailable).JSON(status)
	}
	return c.JSON(status)
}
