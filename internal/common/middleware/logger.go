package middleware

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

// ============================================================
// Logger Middleware
// ============================================================

// Logger возвращает middleware логирования запросов с тегом сервиса.
func Logger(service string) fiber.Handler {
	return logger.New(logger.Config{
		Format:     "[${time}] [" + service + "] ${status} - ${latency} ${method} ${path}?${queryParams} | bytes: ${bytesSent}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	})
}
