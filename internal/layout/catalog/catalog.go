package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"dashboard-layout/internal/layout/models"

	"gopkg.in/yaml.v3"
)

// ============================================================
// Card Catalog
// ============================================================

//go:embed default.yaml
var defaultCatalog []byte

type file struct {
	Pages []models.Page `yaml:"pages"`
}

// Catalog - набор страниц и их карточек в порядке объявления.
type Catalog struct {
	pages []models.Page
	index map[string]int
}

// Default возвращает встроенный каталог страниц мониторинга.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load читает каталог из YAML-файла; пустой путь - встроенный каталог.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := &Catalog{index: make(map[string]int, len(f.Pages))}
	for _, page := range f.Pages {
		if err := validatePage(page); err != nil {
			return nil, err
		}
		if _, dup := c.index[page.ID]; dup {
			return nil, fmt.Errorf("duplicate page %q", page.ID)
		}
		c.index[page.ID] = len(c.pages)
		c.pages = append(c.pages, page)
	}
	return c, nil
}

func (c *Catalog) Page(id string) (models.Page, bool) {
	i, ok := c.index[id]
	if !ok {
		return models.Page{}, false
	}
	return c.pages[i], true
}

func (c *Catalog) Pages() []models.Page {
	out := make([]models.Page, len(c.pages))
	copy(out, c.pages)
	return out
}

func validatePage(page models.Page) error {
	if page.ID == "" {
		return fmt.Errorf("page without id")
	}
	seen := make(map[string]struct{}, len(page.Cards))
	for _, card := range page.Cards {
		if card.ID == "" {
			return fmt.Errorf("page %q: card without id", page.ID)
		}
		if _, dup := seen[card.ID]; dup {
			return fmt.Errorf("page %q: duplicate card %q", page.ID, card.ID)
		}
		seen[card.ID] = struct{}{}

		if card.Layout == nil && len(card.Layouts) == 0 {
			return fmt.Errorf("page %q card %q: no default layout", page.ID, card.ID)
		}
		if card.Layout != nil {
			if err := validateSpan(*card.Layout); err != nil {
				return fmt.Errorf("page %q card %q: %w", page.ID, card.ID, err)
			}
		}
		for bp, item := range card.Layouts {
			if !bp.Valid() {
				return fmt.Errorf("page %q card %q: unknown breakpoint %q", page.ID, card.ID, bp)
			}
			if err := validateSpan(item); err != nil {
				return fmt.Errorf("page %q card %q %s: %w", page.ID, card.ID, bp, err)
			}
		}
		// общий layout обслуживает все уровни без своего дефолта
		for _, spec := range models.Breakpoints() {
			item, ok := card.DefaultFor(spec.Name)
			if ok && !item.InBounds(spec.Cols) {
				return fmt.Errorf("page %q card %q %s: x=%d w=%d exceeds %d columns",
					page.ID, card.ID, spec.Name, item.X, item.W, spec.Cols)
			}
		}
	}
	return nil
}

func validateSpan(item models.LayoutItem) error {
	if item.W <= 0 || item.H <= 0 {
		return fmt.Errorf("non-positive span w=%d h=%d", item.W, item.H)
	}
	if item.X < 0 || item.Y < 0 {
		return fmt.Errorf("negative position x=%d y=%d", item.X, item.Y)
	}
	return nil
}
