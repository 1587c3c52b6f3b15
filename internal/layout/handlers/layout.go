package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"dashboard-layout/internal/layout/catalog"
	"dashboard-layout/internal/layout/models"
	"dashboard-layout/internal/layout/service"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Layout Handler
// ============================================================

const ownerLocal = "owner"

type LayoutHandler struct {
	sessions *service.SessionManager
	registry *service.Registry
	grid     *service.Grid
	catalog  *catalog.Catalog
}

func NewLayoutHandler(sessions *service.SessionManager, registry *service.Registry, cat *catalog.Catalog) *LayoutHandler {
	return &LayoutHandler{
		sessions: sessions,
		registry: registry,
		grid:     service.NewGrid(cat),
		catalog:  cat,
	}
}

type sessionRequest struct {
	Owner string `json:"owner"`
}

type itemsRequest struct {
	Items []models.LayoutItem `json:"items"`
}

type layoutResponse struct {
	Page       string              `json:"page"`
	Breakpoint models.Breakpoint   `json:"breakpoint"`
	Cols       int                 `json:"cols"`
	Items      []models.LayoutItem `json:"items"`
}

type pageSummary struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Cards []string `json:"cards"`
}

// ============================================================
// Sessions
// ============================================================

// CreateSession выдает токен, привязанный к владельцу раскладок.
func (h *LayoutHandler) CreateSession(c fiber.Ctx) error {
	if len(c.Body()) == 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "empty body"})
	}

	var req sessionRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}
	req.Owner = strings.TrimSpace(req.Owner)
	if req.Owner == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "owner required"})
	}

	token := h.sessions.Issue(req.Owner)
	log.Printf("[LAYOUT] session issued for %s", req.Owner)

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"token": token,
		"owner": req.Owner,
	})
}

// DeleteSession отзывает текущий токен.
func (h *LayoutHandler) DeleteSession(c fiber.Ctx) error {
	token, ok := bearerToken(c)
	if !ok {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}
	h.sessions.Revoke(token)
	return c.SendStatus(http.StatusNoContent)
}

// RequireSession пропускает только запросы с действующим токеном.
func (h *LayoutHandler) RequireSession(c fiber.Ctx) error {
	token, ok := bearerToken(c)
	if !ok {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}
	owner, ok := h.sessions.Resolve(token)
	if !ok {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}
	c.Locals(ownerLocal, owner)
	return c.Next()
}

// ============================================================
// Catalog & Breakpoints
// ============================================================

// ResolveBreakpoint отдает уровень сетки для ширины контейнера.
func (h *LayoutHandler) ResolveBreakpoint(c fiber.Ctx) error {
	width, err := widthParam(c)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	bp := service.ResolveBreakpoint(width)
	mode := service.ModeGrid
	if width < service.MobileWidth {
		mode = service.ModeTabs
	}
	return c.JSON(fiber.Map{
		"width":      width,
		"breakpoint": bp,
		"cols":       models.Columns(bp),
		"mode":       mode,
	})
}

// ListPages отдает страницы каталога и таблицу уровней.
func (h *LayoutHandler) ListPages(c fiber.Ctx) error {
	pages := h.catalog.Pages()
	out := make([]pageSummary, 0, len(pages))
	for _, p := range pages {
		out = append(out, pageSummary{ID: p.ID, Title: p.Title, Cards: p.CardIDs()})
	}
	return c.JSON(fiber.Map{
		"pages":       out,
		"breakpoints": models.Breakpoints(),
	})
}

// ============================================================
// Grid
// ============================================================

// GetGrid отдает согласованную раскладку страницы для ширины контейнера.
func (h *LayoutHandler) GetGrid(c fiber.Ctx) error {
	width, err := widthParam(c)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	view, err := h.grid.Render(h.store(c), c.Params("page"), width)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(view)
}

// CommitGrid принимает раскладку после завершения drag/resize.
func (h *LayoutHandler) CommitGrid(c fiber.Ctx) error {
	width, err := widthParam(c)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	items, err := decodeItems(c)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	view, err := h.grid.Commit(h.store(c), c.Params("page"), width, items)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(view)
}

// ============================================================
// Layouts
// ============================================================

// GetLayout отдает раскладку (страница, уровень) без учета свернутости.
func (h *LayoutHandler) GetLayout(c fiber.Ctx) error {
	pageID := c.Params("page")
	bp, ok := models.ParseBreakpoint(c.Params("bp"))
	if !ok {
		return writeError(c, service.ErrInvalidBreakpoint)
	}

	store := h.store(c)
	h.registerCatalogDefaults(store, pageID)

	return c.JSON(layoutResponse{
		Page:       pageID,
		Breakpoint: bp,
		Cols:       models.Columns(bp),
		Items:      store.PageLayout(pageID, bp),
	})
}

// PutLayout заменяет сохраненную раскладку (страница, уровень) как есть.
func (h *LayoutHandler) PutLayout(c fiber.Ctx) error {
	pageID := c.Params("page")
	bp, ok := models.ParseBreakpoint(c.Params("bp"))
	if !ok {
		return writeError(c, service.ErrInvalidBreakpoint)
	}
	items, err := decodeItems(c)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	store := h.store(c)
	store.UpdateLayout(pageID, bp, items)
	h.registerCatalogDefaults(store, pageID)

	return c.JSON(layoutResponse{
		Page:       pageID,
		Breakpoint: bp,
		Cols:       models.Columns(bp),
		Items:      store.PageLayout(pageID, bp),
	})
}

// PutDefaults регистрирует дефолт для страниц вне каталога.
// Для страниц каталога дефолт перезаписывается при следующей отрисовке.
func (h *LayoutHandler) PutDefaults(c fiber.Ctx) error {
	pageID := c.Params("page")
	bp, ok := models.ParseBreakpoint(c.Params("bp"))
	if !ok {
		return writeError(c, service.ErrInvalidBreakpoint)
	}
	items, err := decodeItems(c)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	h.store(c).SetDefaultLayout(pageID, bp, items)
	return c.SendStatus(http.StatusNoContent)
}

// ResetLayout удаляет раскладки страницы на всех уровнях.
func (h *LayoutHandler) ResetLayout(c fiber.Ctx) error {
	pageID := c.Params("page")
	store := h.store(c)

	if _, ok := h.catalog.Page(pageID); ok {
		if err := h.grid.Reset(store, pageID); err != nil {
			return writeError(c, err)
		}
	} else {
		store.ResetLayout(pageID, nil)
	}
	return c.SendStatus(http.StatusNoContent)
}

// ============================================================
// Collapse
// ============================================================

func (h *LayoutHandler) GetCollapsed(c fiber.Ctx) error {
	pageID, cardID := c.Params("page"), c.Params("card")
	return c.JSON(fiber.Map{
		"page":      pageID,
		"card":      cardID,
		"collapsed": h.store(c).IsCardCollapsed(pageID, cardID),
	})
}

// ToggleCollapse переключает свернутость карточки. С параметром width
// в ответ добавляется перестроенный вид страницы; у страниц вне каталога
// вида нет, и поле view не отдается.
func (h *LayoutHandler) ToggleCollapse(c fiber.Ctx) error {
	pageID, cardID := c.Params("page"), c.Params("card")
	store := h.store(c)

	withView := c.Query("width") != ""
	var width int
	if withView {
		var err error
		if width, err = widthParam(c); err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
	}

	_, inCatalog := h.catalog.Page(pageID)
	var collapsed bool
	if inCatalog {
		var err error
		if collapsed, err = h.grid.ToggleCollapse(store, pageID, cardID); err != nil {
			return writeError(c, err)
		}
	} else {
		collapsed = store.ToggleCollapse(pageID, cardID)
	}

	resp := fiber.Map{
		"page":      pageID,
		"card":      cardID,
		"collapsed": collapsed,
	}
	if withView && inCatalog {
		view, err := h.grid.Render(store, pageID, width)
		if err != nil {
			return writeError(c, err)
		}
		resp["view"] = view
	}
	return c.JSON(resp)
}

// ============================================================
// Helpers
// ============================================================

func (h *LayoutHandler) store(c fiber.Ctx) *service.Store {
	owner, _ := c.Locals(ownerLocal).(string)
	return h.registry.Get(c.Context(), owner)
}

func (h *LayoutHandler) registerCatalogDefaults(store *service.Store, pageID string) {
	if _, ok := h.catalog.Page(pageID); ok {
		_ = h.grid.RegisterDefaults(store, pageID)
	}
}

func bearerToken(c fiber.Ctx) (string, bool) {
	auth := c.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	token := strings.TrimPrefix(auth, "Bearer ")
	return token, token != ""
}

func widthParam(c fiber.Ctx) (int, error) {
	raw := c.Query("width")
	if raw == "" {
		return 0, errors.New("width required")
	}
	width, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("width must be an integer")
	}
	return width, nil
}

func decodeItems(c fiber.Ctx) ([]models.LayoutItem, error) {
	if len(c.Body()) == 0 {
		return nil, errors.New("empty body")
	}
	var req itemsRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return nil, errors.New("invalid json")
	}

	seen := make(map[string]struct{}, len(req.Items))
	for _, it := range req.Items {
		if it.ID == "" {
			return nil, errors.New("item id required")
		}
		if _, dup := seen[it.ID]; dup {
			return nil, errors.New("duplicate item id " + strconv.Quote(it.ID))
		}
		seen[it.ID] = struct{}{}
	}
	if req.Items == nil {
		req.Items = []models.LayoutItem{}
	}
	return req.Items, nil
}

func writeError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrUnknownPage), errors.Is(err, service.ErrUnknownCard):
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidBreakpoint):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrMobileMode):
		return c.Status(http.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	default:
		log.Printf("[LAYOUT] unexpected error: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}
