package handlers

import "github.com/gofiber/fiber/v3"

// Register подключает маршруты сервиса раскладок.
func Register(router fiber.Router, h *LayoutHandler) {
	router.Post("/sessions", h.CreateSession)
	router.Delete("/sessions", h.DeleteSession)
	router.Get("/breakpoints", h.ResolveBreakpoint)
	router.Get("/pages", h.ListPages)

	// Маршруты страниц требуют токен сессии
	pages := router.Group("/pages")
	pages.Get("/:page/grid", h.RequireSession, h.GetGrid)
	pages.Put("/:page/grid", h.RequireSession, h.CommitGrid)
	pages.Get("/:page/layouts/:bp", h.RequireSession, h.GetLayout)
	pages.Put("/:page/layouts/:bp", h.RequireSession, h.PutLayout)
	pages.Delete("/:page/layouts", h.RequireSession, h.ResetLayout)
	pages.Put("/:page/defaults/:bp", h.RequireSession, h.PutDefaults)
	pages.Get("/:page/cards/:card/collapsed", h.RequireSession, h.GetCollapsed)
	pages.Post("/:page/cards/:card/collapse", h.RequireSession, h.ToggleCollapse)
}
