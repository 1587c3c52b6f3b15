package service

import (
	"fmt"
	"log"

	"dashboard-layout/internal/layout/models"
)

// ============================================================
// Validity Gate
// ============================================================

// Validation - результат проверки сохраненной раскладки: Valid или Invalid.
type Validation interface {
	validation()
}

type Valid struct {
	Items []models.LayoutItem
}

type Invalid struct {
	Reason string
}

func (Valid) validation()   {}
func (Invalid) validation() {}

// Validate проверяет раскладку целиком: одно нарушение границ отклоняет все.
func Validate(items []models.LayoutItem, cols int) Validation {
	if len(items) == 0 {
		return Invalid{Reason: "empty layout"}
	}
	for _, it := range items {
		if !it.InBounds(cols) {
			return Invalid{Reason: fmt.Sprintf("item %q out of bounds (x=%d y=%d w=%d h=%d cols=%d)",
				it.ID, it.X, it.Y, it.W, it.H, cols)}
		}
	}
	return Valid{Items: items}
}

// SelectCandidate возвращает сохраненную раскладку, если она проходит проверку,
// иначе дефолтную. Результат - копия.
func SelectCandidate(bp models.Breakpoint, stored, defaults []models.LayoutItem) []models.LayoutItem {
	candidate, _ := selectCandidate(bp, stored, defaults)
	return candidate
}

func selectCandidate(bp models.Breakpoint, stored, defaults []models.LayoutItem) ([]models.LayoutItem, Validation) {
	v := Validate(stored, models.Columns(bp))
	switch res := v.(type) {
	case Valid:
		return models.CloneItems(res.Items), v
	default:
		out := models.CloneItems(defaults)
		if out == nil {
			out = []models.LayoutItem{}
		}
		return out, v
	}
}

// ============================================================
// Reconciliation
// ============================================================

// CollapsedFunc сообщает, свернута ли карточка.
type CollapsedFunc func(cardID string) bool

// Reconcile выбирает раскладку для отрисовки и сжимает свернутые карточки
// до CollapsedHeight. Входные срезы не изменяются.
func Reconcile(pageID string, bp models.Breakpoint, stored, defaults []models.LayoutItem, collapsed CollapsedFunc) []models.LayoutItem {
	candidate, v := selectCandidate(bp, stored, defaults)
	if inv, ok := v.(Invalid); ok && len(stored) > 0 {
		log.Printf("[LAYOUT] page=%s bp=%s stored layout rejected: %s", pageID, bp, inv.Reason)
	}
	return applyCollapse(candidate, collapsed)
}

func applyCollapse(items []models.LayoutItem, collapsed CollapsedFunc) []models.LayoutItem {
	if collapsed == nil {
		return items
	}
	for i := range items {
		if collapsed(items[i].ID) {
			items[i].H = models.CollapsedHeight
		}
	}
	return items
}

// CommitLayout готовит геометрию после drag/resize к сохранению:
// свернутым карточкам возвращается высота из previous (раскладки до сжатия).
func CommitLayout(reported, previous []models.LayoutItem, collapsed CollapsedFunc) []models.LayoutItem {
	heights := make(map[string]int, len(previous))
	for _, it := range previous {
		heights[it.ID] = it.H
	}

	out := models.CloneItems(reported)
	if out == nil {
		out = []models.LayoutItem{}
	}
	if collapsed == nil {
		return out
	}
	for i := range out {
		if !collapsed(out[i].ID) {
			continue
		}
		// карточка, которой не было в прежней раскладке, сохраняет присланную высоту
		if h, ok := heights[out[i].ID]; ok {
			out[i].H = h
		}
	}
	return out
}
