package models

// ============================================================
// Breakpoints
// ============================================================

type Breakpoint string

const (
	BreakpointLG Breakpoint = "lg"
	BreakpointMD Breakpoint = "md"
	BreakpointSM Breakpoint = "sm"
	BreakpointXS Breakpoint = "xs"
)

// BreakpointSpec описывает один уровень сетки: порог ширины и число колонок.
type BreakpointSpec struct {
	Name     Breakpoint `json:"name"`
	MinWidth int        `json:"minWidth"`
	Cols     int        `json:"cols"`
}

// breakpointTable упорядочена от широкого к узкому.
var breakpointTable = []BreakpointSpec{
	{Name: BreakpointLG, MinWidth: 1200, Cols: 12},
	{Name: BreakpointMD, MinWidth: 996, Cols: 10},
	{Name: BreakpointSM, MinWidth: 768, Cols: 6},
	{Name: BreakpointXS, MinWidth: 0, Cols: 4},
}

// Breakpoints возвращает таблицу уровней (копию) в порядке убывания ширины.
func Breakpoints() []BreakpointSpec {
	out := make([]BreakpointSpec, len(breakpointTable))
	copy(out, breakpointTable)
	return out
}

// Columns возвращает число колонок уровня, 0 для неизвестного имени.
func Columns(bp Breakpoint) int {
	for _, spec := range breakpointTable {
		if spec.Name == bp {
			return spec.Cols
		}
	}
	return 0
}

func (bp Breakpoint) Valid() bool {
	return Columns(bp) > 0
}

// ParseBreakpoint проверяет имя уровня, пришедшее снаружи (URL, JSON).
func ParseBreakpoint(name string) (Breakpoint, bool) {
	bp := Breakpoint(name)
	return bp, bp.Valid()
}

// ============================================================
// Layout Items
// ============================================================

// CollapsedHeight - высота свернутой карточки в ячейках сетки.
const CollapsedHeight = 1

// LayoutItem - положение одной карточки на сетке.
type LayoutItem struct {
	ID     string `json:"i" yaml:"i"`
	X      int    `json:"x" yaml:"x"`
	Y      int    `json:"y" yaml:"y"`
	W      int    `json:"w" yaml:"w"`
	H      int    `json:"h" yaml:"h"`
	MinW   *int   `json:"minW,omitempty" yaml:"minW,omitempty"`
	MaxW   *int   `json:"maxW,omitempty" yaml:"maxW,omitempty"`
	MinH   *int   `json:"minH,omitempty" yaml:"minH,omitempty"`
	MaxH   *int   `json:"maxH,omitempty" yaml:"maxH,omitempty"`
	Static bool   `json:"static,omitempty" yaml:"static,omitempty"`
}

// InBounds проверяет инвариант сетки для cols колонок.
func (it LayoutItem) InBounds(cols int) bool {
	return it.X >= 0 && it.Y >= 0 && it.W > 0 && it.H > 0 && it.X+it.W <= cols
}

// CloneItems копирует последовательность; nil остается nil.
func CloneItems(items []LayoutItem) []LayoutItem {
	if items == nil {
		return nil
	}
	out := make([]LayoutItem, len(items))
	copy(out, items)
	return out
}

// ============================================================
// Card Configuration
// ============================================================

// CardConfig - статическое описание карточки страницы.
// Layout задает общий дефолт, Layouts - переопределения по уровням.
type CardConfig struct {
	ID       string                    `json:"id" yaml:"id"`
	Title    string                    `json:"title" yaml:"title"`
	Icon     string                    `json:"icon,omitempty" yaml:"icon,omitempty"`
	Renderer string                    `json:"renderer" yaml:"renderer"`
	Layout   *LayoutItem               `json:"layout,omitempty" yaml:"layout,omitempty"`
	Layouts  map[Breakpoint]LayoutItem `json:"layouts,omitempty" yaml:"layouts,omitempty"`
}

// DefaultFor возвращает дефолтное положение карточки для уровня bp.
func (c CardConfig) DefaultFor(bp Breakpoint) (LayoutItem, bool) {
	item, ok := c.Layouts[bp]
	if !ok {
		if c.Layout == nil {
			return LayoutItem{}, false
		}
		item = *c.Layout
	}
	item.ID = c.ID
	return item, true
}

type Page struct {
	ID    string       `json:"id" yaml:"id"`
	Title string       `json:"title" yaml:"title"`
	Cards []CardConfig `json:"cards" yaml:"cards"`
}

func (p Page) CardIDs() []string {
	ids := make([]string, 0, len(p.Cards))
	for _, c := range p.Cards {
		ids = append(ids, c.ID)
	}
	return ids
}

func (p Page) Card(id string) (CardConfig, bool) {
	for _, c := range p.Cards {
		if c.ID == id {
			return c, true
		}
	}
	return CardConfig{}, false
}

// DefaultLayout собирает дефолтную раскладку страницы для уровня bp
// в порядке объявления карточек.
func (p Page) DefaultLayout(bp Breakpoint) []LayoutItem {
	items := make([]LayoutItem, 0, len(p.Cards))
	for _, c := range p.Cards {
		if item, ok := c.DefaultFor(bp); ok {
			items = append(items, item)
		}
	}
	return items
}

// ============================================================
// Persisted State
// ============================================================

// LayoutState - сохраняемый агрегат: раскладки по страницам и уровням
// плюс флаги свернутости карточек.
type LayoutState struct {
	Layouts        map[string]map[Breakpoint][]LayoutItem `json:"layouts"`
	CollapsedCards map[string]bool                        `json:"collapsedCards"`
}

func NewLayoutState() LayoutState {
	return LayoutState{
		Layouts:        make(map[string]map[Breakpoint][]LayoutItem),
		CollapsedCards: make(map[string]bool),
	}
}

// Clone делает глубокую копию состояния.
func (s LayoutState) Clone() LayoutState {
	out := NewLayoutState()
	for pageID, byBP := range s.Layouts {
		cells := make(map[Breakpoint][]LayoutItem, len(byBP))
		for bp, items := range byBP {
			cells[bp] = CloneItems(items)
		}
		out.Layouts[pageID] = cells
	}
	for id, v := range s.CollapsedCards {
		out.CollapsedCards[id] = v
	}
	return out
}

// Normalize приводит загруженное состояние к рабочему виду:
// nil-карты создаются, неизвестные уровни отбрасываются.
func (s *LayoutState) Normalize() {
	if s.Layouts == nil {
		s.Layouts = make(map[string]map[Breakpoint][]LayoutItem)
	}
	if s.CollapsedCards == nil {
		s.CollapsedCards = make(map[string]bool)
	}
	for pageID, byBP := range s.Layouts {
		if byBP == nil {
			delete(s.Layouts, pageID)
			continue
		}
		for bp := range byBP {
			if !bp.Valid() {
				delete(byBP, bp)
			}
		}
	}
}
