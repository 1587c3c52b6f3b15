package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"

	"dashboard-layout/internal/layout/models"
)

// ============================================================
// Collapse Scope
// ============================================================

type CollapseScope string

const (
	// CollapseGlobal - флаг по одному id карточки, общий для всех страниц.
	CollapseGlobal CollapseScope = "global"
	// CollapsePage - флаг по паре (страница, карточка).
	CollapsePage CollapseScope = "page"
)

func ParseCollapseScope(value string) (CollapseScope, error) {
	switch CollapseScope(strings.ToLower(strings.TrimSpace(value))) {
	case "", CollapseGlobal:
		return CollapseGlobal, nil
	case CollapsePage:
		return CollapsePage, nil
	}
	return "", fmt.Errorf("unknown collapse scope %q", value)
}

// ============================================================
// Persistence Contracts
// ============================================================

// StateLoader читает сохраненный блоб; отсутствующий ключ - (nil, nil).
type StateLoader interface {
	Load(ctx context.Context, key string) ([]byte, error)
}

// StateWriter принимает снимок на асинхронную запись.
type StateWriter interface {
	Enqueue(key string, data []byte)
}

// ============================================================
// Layout Store
// ============================================================

// Store хранит раскладки одной сессии (владельца) и флаги свернутости.
// Дефолты живут только в памяти и не сохраняются.
type Store struct {
	mu        sync.RWMutex
	key       string
	scope     CollapseScope
	state     models.LayoutState
	defaults  map[string]map[models.Breakpoint][]models.LayoutItem
	pageCards map[string]map[string]struct{}
	writer    StateWriter
	// memoryOnly - чтение из хранилища не удалось; запись отключена,
	// чтобы пустое состояние не затерло сохраненный блоб.
	memoryOnly bool
}

// LoadStore поднимает состояние из хранилища. Ошибки чтения и битый JSON
// не возвращаются: стор стартует с пустым состоянием. После ошибки чтения
// стор работает только в памяти (MemoryOnly), битый JSON перезаписывается.
func LoadStore(ctx context.Context, key string, loader StateLoader, writer StateWriter, scope CollapseScope) *Store {
	s := &Store{
		key:       key,
		scope:     scope,
		state:     models.NewLayoutState(),
		defaults:  make(map[string]map[models.Breakpoint][]models.LayoutItem),
		pageCards: make(map[string]map[string]struct{}),
		writer:    writer,
	}
	if s.scope == "" {
		s.scope = CollapseGlobal
	}
	if loader == nil {
		return s
	}

	data, err := loader.Load(ctx, key)
	if err != nil {
		log.Printf("[STORE] load %s failed, running memory-only: %v", key, err)
		s.writer = nil
		s.memoryOnly = true
		return s
	}
	if len(data) == 0 {
		return s
	}

	var state models.LayoutState
	if err := json.Unmarshal(data, &state); err != nil {
		log.Printf("[STORE] corrupt state under %s, starting empty: %v", key, err)
		return s
	}
	state.Normalize()
	s.state = state
	for pageID, byBP := range state.Layouts {
		for _, items := range byBP {
			s.indexCards(pageID, items)
		}
	}
	return s
}

func (s *Store) Key() string {
	return s.key
}

func (s *Store) Scope() CollapseScope {
	return s.scope
}

// MemoryOnly сообщает, что изменения этого стора не сохраняются.
func (s *Store) MemoryOnly() bool {
	return s.memoryOnly
}

// PageLayout возвращает сохраненную раскладку, если она есть и валидна,
// иначе зарегистрированный дефолт, иначе пустой срез.
func (s *Store) PageLayout(pageID string, bp models.Breakpoint) []models.LayoutItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SelectCandidate(bp, s.state.Layouts[pageID][bp], s.defaults[pageID][bp])
}

// RenderedLayout - PageLayout со сжатыми свернутыми карточками.
func (s *Store) RenderedLayout(pageID string, bp models.Breakpoint) []models.LayoutItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Reconcile(pageID, bp, s.state.Layouts[pageID][bp], s.defaults[pageID][bp], s.collapsedFunc(pageID))
}

// UpdateLayout заменяет ровно одну ячейку (страница, уровень) и запускает запись.
func (s *Store) UpdateLayout(pageID string, bp models.Breakpoint, items []models.LayoutItem) {
	s.mu.Lock()
	s.setLayoutLocked(pageID, bp, items)
	s.persistLocked()
	s.mu.Unlock()
}

// CommitLayout сохраняет геометрию, пришедшую после drag/resize,
// восстанавливая развернутую высоту свернутых карточек.
func (s *Store) CommitLayout(pageID string, bp models.Breakpoint, reported []models.LayoutItem) []models.LayoutItem {
	s.mu.Lock()
	previous := SelectCandidate(bp, s.state.Layouts[pageID][bp], s.defaults[pageID][bp])
	committed := CommitLayout(reported, previous, s.collapsedFunc(pageID))
	s.setLayoutLocked(pageID, bp, committed)
	s.persistLocked()
	s.mu.Unlock()
	return models.CloneItems(committed)
}

func (s *Store) IsCardCollapsed(pageID, cardID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.CollapsedCards[s.collapseKey(pageID, cardID)]
}

// ToggleCollapse переключает флаг и возвращает новое значение.
// Геометрия карточек не трогается.
func (s *Store) ToggleCollapse(pageID, cardID string) bool {
	s.mu.Lock()
	key := s.collapseKey(pageID, cardID)
	collapsed := !s.state.CollapsedCards[key]
	s.state.CollapsedCards[key] = collapsed
	s.indexCard(pageID, cardID)
	s.persistLocked()
	s.mu.Unlock()
	return collapsed
}

// ResetLayout удаляет раскладки страницы на всех уровнях и снимает флаги
// свернутости с переданных карточек. При cardIDs == nil используется
// индекс карточек, известных стору для этой страницы.
func (s *Store) ResetLayout(pageID string, cardIDs []string) {
	s.mu.Lock()
	delete(s.state.Layouts, pageID)

	if cardIDs == nil {
		for id := range s.pageCards[pageID] {
			cardIDs = append(cardIDs, id)
		}
	}
	for _, id := range cardIDs {
		delete(s.state.CollapsedCards, s.collapseKey(pageID, id))
	}
	if s.scope == CollapsePage {
		prefix := pageID + "/"
		for key := range s.state.CollapsedCards {
			if strings.HasPrefix(key, prefix) {
				delete(s.state.CollapsedCards, key)
			}
		}
	}
	s.persistLocked()
	s.mu.Unlock()

	log.Printf("[STORE] %s: reset page %s (%d cards)", s.key, pageID, len(cardIDs))
}

// SetDefaultLayout регистрирует дефолт для (страница, уровень). Идемпотентно,
// ничего не сохраняет.
func (s *Store) SetDefaultLayout(pageID string, bp models.Breakpoint, items []models.LayoutItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byBP, ok := s.defaults[pageID]
	if !ok {
		byBP = make(map[models.Breakpoint][]models.LayoutItem)
		s.defaults[pageID] = byBP
	}
	byBP[bp] = models.CloneItems(items)
	s.indexCards(pageID, items)
}

// Snapshot возвращает копию сохраняемого состояния.
func (s *Store) Snapshot() models.LayoutState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// ============================================================
// Internals
// ============================================================

func (s *Store) setLayoutLocked(pageID string, bp models.Breakpoint, items []models.LayoutItem) {
	byBP, ok := s.state.Layouts[pageID]
	if !ok {
		byBP = make(map[models.Breakpoint][]models.LayoutItem)
		s.state.Layouts[pageID] = byBP
	}
	stored := models.CloneItems(items)
	if stored == nil {
		stored = []models.LayoutItem{}
	}
	byBP[bp] = stored
	s.indexCards(pageID, items)
}

func (s *Store) collapseKey(pageID, cardID string) string {
	if s.scope == CollapsePage {
		return pageID + "/" + cardID
	}
	return cardID
}

// collapsedFunc вызывается под блокировкой стора.
func (s *Store) collapsedFunc(pageID string) CollapsedFunc {
	return func(cardID string) bool {
		return s.state.CollapsedCards[s.collapseKey(pageID, cardID)]
	}
}

func (s *Store) indexCards(pageID string, items []models.LayoutItem) {
	for _, it := range items {
		s.indexCard(pageID, it.ID)
	}
}

func (s *Store) indexCard(pageID, cardID string) {
	cards, ok := s.pageCards[pageID]
	if !ok {
		cards = make(map[string]struct{})
		s.pageCards[pageID] = cards
	}
	cards[cardID] = struct{}{}
}

// persistLocked ставит снимок в очередь под блокировкой стора,
// чтобы порядок снимков в очереди совпадал с порядком изменений.
func (s *Store) persistLocked() {
	if s.writer == nil {
		return
	}
	data, err := json.Marshal(s.state)
	if err != nil {
		log.Printf("[STORE] %s: marshal state: %v", s.key, err)
		return
	}
	s.writer.Enqueue(s.key, data)
}
