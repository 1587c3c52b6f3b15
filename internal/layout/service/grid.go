package service

import (
	"fmt"

	"dashboard-layout/internal/layout/models"
)

// ============================================================
// Dashboard Grid
// ============================================================

type Mode string

const (
	ModeGrid Mode = "grid"
	// ModeTabs - мобильный режим: одна карточка на экран, без раскладки.
	ModeTabs Mode = "tabs"
)

// MobileWidth - ниже этой ширины сетка заменяется вкладками.
const MobileWidth = 768

// PageSource отдает конфигурацию карточек страницы.
type PageSource interface {
	Page(id string) (models.Page, bool)
}

type CardView struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Icon      string `json:"icon,omitempty"`
	Renderer  string `json:"renderer"`
	Collapsed bool   `json:"collapsed"`
}

type GridView struct {
	Page       string              `json:"page"`
	Mode       Mode                `json:"mode"`
	Width      int                 `json:"width"`
	Breakpoint models.Breakpoint   `json:"breakpoint,omitempty"`
	Cols       int                 `json:"cols,omitempty"`
	Items      []models.LayoutItem `json:"items,omitempty"`
	Cards      []CardView          `json:"cards"`
}

// Grid связывает резолвер, реестр дефолтов, сверку и стор для одной страницы.
type Grid struct {
	pages PageSource
}

func NewGrid(pages PageSource) *Grid {
	return &Grid{pages: pages}
}

// Render строит вид страницы для ширины контейнера width.
func (g *Grid) Render(store *Store, pageID string, width int) (GridView, error) {
	page, err := g.page(pageID)
	if err != nil {
		return GridView{}, err
	}
	return g.render(store, page, width), nil
}

// Commit сохраняет раскладку, которую сетка сообщила после drag/resize.
func (g *Grid) Commit(store *Store, pageID string, width int, reported []models.LayoutItem) (GridView, error) {
	page, err := g.page(pageID)
	if err != nil {
		return GridView{}, err
	}
	if width < MobileWidth {
		return GridView{}, ErrMobileMode
	}

	bp := ResolveBreakpoint(width)
	g.registerDefaults(store, page)
	store.CommitLayout(page.ID, bp, knownItems(page, reported))
	return g.render(store, page, width), nil
}

// ToggleCollapse переключает карточку страницы и возвращает новое значение флага.
func (g *Grid) ToggleCollapse(store *Store, pageID, cardID string) (bool, error) {
	page, err := g.page(pageID)
	if err != nil {
		return false, err
	}
	if _, ok := page.Card(cardID); !ok {
		return false, fmt.Errorf("%w: %s/%s", ErrUnknownCard, pageID, cardID)
	}
	return store.ToggleCollapse(page.ID, cardID), nil
}

// RegisterDefaults регистрирует дефолты страницы на всех уровнях.
func (g *Grid) RegisterDefaults(store *Store, pageID string) error {
	page, err := g.page(pageID)
	if err != nil {
		return err
	}
	g.registerDefaults(store, page)
	return nil
}

// Reset сбрасывает раскладку страницы с явным списком ее карточек.
func (g *Grid) Reset(store *Store, pageID string) error {
	page, err := g.page(pageID)
	if err != nil {
		return err
	}
	store.ResetLayout(page.ID, page.CardIDs())
	return nil
}

func (g *Grid) page(pageID string) (models.Page, error) {
	page, ok := g.pages.Page(pageID)
	if !ok {
		return models.Page{}, fmt.Errorf("%w: %s", ErrUnknownPage, pageID)
	}
	return page, nil
}

func (g *Grid) render(store *Store, page models.Page, width int) GridView {
	view := GridView{
		Page:  page.ID,
		Width: width,
		Cards: cardViews(store, page),
	}
	if width < MobileWidth {
		view.Mode = ModeTabs
		return view
	}

	g.registerDefaults(store, page)
	bp := ResolveBreakpoint(width)
	view.Mode = ModeGrid
	view.Breakpoint = bp
	view.Cols = models.Columns(bp)
	view.Items = knownItems(page, store.RenderedLayout(page.ID, bp))
	return view
}

// registerDefaults вызывается на каждую отрисовку; SetDefaultLayout идемпотентен.
func (g *Grid) registerDefaults(store *Store, page models.Page) {
	for _, spec := range models.Breakpoints() {
		store.SetDefaultLayout(page.ID, spec.Name, page.DefaultLayout(spec.Name))
	}
}

func cardViews(store *Store, page models.Page) []CardView {
	views := make([]CardView, 0, len(page.Cards))
	for _, c := range page.Cards {
		views = append(views, CardView{
			ID:        c.ID,
			Title:     c.Title,
			Icon:      c.Icon,
			Renderer:  c.Renderer,
			Collapsed: store.IsCardCollapsed(page.ID, c.ID),
		})
	}
	return views
}

// knownItems отбрасывает карточки, которых больше нет в конфигурации страницы.
func knownItems(page models.Page, items []models.LayoutItem) []models.LayoutItem {
	out := make([]models.LayoutItem, 0, len(items))
	for _, it := range items {
		if _, ok := page.Card(it.ID); ok {
			out = append(out, it)
		}
	}
	return out
}
