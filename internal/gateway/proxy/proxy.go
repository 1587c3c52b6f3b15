package proxy

import (
	"bytes"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Proxy Handler
// ============================================================

var client = &http.Client{Timeout: 15 * time.Second}

// forwardedHeaders копируются из входящего запроса в апстрим.
var forwardedHeaders = []string{"Authorization", "Content-Type", "Accept"}

// ProxyTo проксирует запрос в сервис baseURL, отрезая prefix от пути
// и сохраняя query string.
func ProxyTo(baseURL, prefix string) fiber.Handler {
	baseURL = strings.TrimRight(baseURL, "/")
	return func(c fiber.Ctx) error {
		target := baseURL + strings.TrimPrefix(c.Path(), prefix)
		if qs := string(c.Request().URI().QueryString()); qs != "" {
			target += "?" + qs
		}
		return Forward(c, target)
	}
}

// Forward проксирует запрос по переданному URL.
func Forward(c fiber.Ctx, targetURL string) error {
	log.Printf("[GATEWAY] %s %s -> %s", c.Method(), c.Path(), targetURL)

	req, err := http.NewRequestWithContext(c.Context(), c.Method(), targetURL, bytes.NewReader(c.Body()))
	if err != nil {
		log.Printf("[GATEWAY] build request error: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "proxy failed"})
	}
	for _, name := range forwardedHeaders {
		if value := c.Get(name); value != "" {
			req.Header.Set(name, value)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		log.Printf("[GATEWAY] upstream error: %v", err)
		return c.Status(http.StatusBadGateway).JSON(fiber.Map{"error": "failed to reach upstream service"})
	}
	defer resp.Body.Close()

	return copyResponse(c, resp)
}

func copyResponse(c fiber.Ctx, resp *http.Response) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("[GATEWAY] read response error: %v", err)
		return c.Status(http.StatusBadGateway).JSON(fiber.Map{"error": "invalid upstream response"})
	}

	for key, values := range resp.Header {
		if len(values) > 0 {
			c.Set(key, values[0])
		}
	}

	c.Status(resp.StatusCode)
	return c.Send(data)
}
