package service

import (
	"context"
	"errors"
	"testing"

	"dashboard-layout/internal/layout/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pageMap map[string]models.Page

func (p pageMap) Page(id string) (models.Page, bool) {
	page, ok := p[id]
	return page, ok
}

func testPages() pageMap {
	return pageMap{
		"settlement": {
			ID: "settlement",
			Cards: []models.CardConfig{
				{
					ID:       "trend",
					Title:    "Trend",
					Renderer: "trend-chart",
					Layouts:  map[models.Breakpoint]models.LayoutItem{models.BreakpointLG: {X: 0, Y: 0, W: 7, H: 4}},
					Layout:   &models.LayoutItem{X: 0, Y: 0, W: 4, H: 4},
				},
				{
					ID:       "detail",
					Title:    "Detail",
					Renderer: "detail-table",
					Layouts:  map[models.Breakpoint]models.LayoutItem{models.BreakpointLG: {X: 7, Y: 0, W: 5, H: 2}},
					Layout:   &models.LayoutItem{X: 0, Y: 4, W: 4, H: 2},
				},
			},
		},
	}
}

func newGridStore() *Store {
	return LoadStore(context.Background(), StateKey("alice"), nil, nil, CollapseGlobal)
}

func TestGridRenderRegistersDefaults(t *testing.T) {
	grid := NewGrid(testPages())
	store := newGridStore()

	view, err := grid.Render(store, "settlement", 1280)
	require.NoError(t, err)
	assert.Equal(t, ModeGrid, view.Mode)
	assert.Equal(t, models.BreakpointLG, view.Breakpoint)
	assert.Equal(t, 12, view.Cols)
	assert.Equal(t, settlementDefaults(), view.Items)

	// общий дефолт переиспользуется на уровнях без переопределения
	md := store.PageLayout("settlement", models.BreakpointMD)
	assert.Equal(t, []models.LayoutItem{
		{ID: "trend", X: 0, Y: 0, W: 4, H: 4},
		{ID: "detail", X: 0, Y: 4, W: 4, H: 2},
	}, md)
}

func TestGridMobileTabs(t *testing.T) {
	grid := NewGrid(testPages())
	store := newGridStore()

	view, err := grid.Render(store, "settlement", 500)
	require.NoError(t, err)
	assert.Equal(t, ModeTabs, view.Mode)
	assert.Empty(t, view.Items)
	require.Len(t, view.Cards, 2)
	assert.Equal(t, "trend", view.Cards[0].ID)
	assert.Equal(t, "detail", view.Cards[1].ID)

	_, err = grid.Commit(store, "settlement", 500, settlementDefaults())
	assert.ErrorIs(t, err, ErrMobileMode)
	assert.Empty(t, store.Snapshot().Layouts)
}

func TestGridCommitAndCollapse(t *testing.T) {
	grid := NewGrid(testPages())
	store := newGridStore()

	collapsed, err := grid.ToggleCollapse(store, "settlement", "trend")
	require.NoError(t, err)
	require.True(t, collapsed)

	view, err := grid.Render(store, "settlement", 1300)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Items[0].H)
	assert.True(t, view.Cards[0].Collapsed)

	view.Items[1].Y = 4
	view, err = grid.Commit(store, "settlement", 1300, view.Items)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Items[0].H)
	assert.Equal(t, 4, store.PageLayout("settlement", models.BreakpointLG)[0].H)
	assert.Equal(t, 4, store.PageLayout("settlement", models.BreakpointLG)[1].Y)
}

func TestGridDropsStaleCards(t *testing.T) {
	grid := NewGrid(testPages())
	store := newGridStore()
	store.UpdateLayout("settlement", models.BreakpointLG, []models.LayoutItem{
		{ID: "trend", X: 0, Y: 0, W: 6, H: 4},
		{ID: "removed-card", X: 6, Y: 0, W: 6, H: 4},
	})

	view, err := grid.Render(store, "settlement", 1300)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "trend", view.Items[0].ID)
}

func TestGridErrors(t *testing.T) {
	grid := NewGrid(testPages())
	store := newGridStore()

	_, err := grid.Render(store, "nope", 1300)
	assert.ErrorIs(t, err, ErrUnknownPage)

	_, err = grid.ToggleCollapse(store, "settlement", "nope")
	assert.ErrorIs(t, err, ErrUnknownCard)

	assert.ErrorIs(t, grid.Reset(store, "nope"), ErrUnknownPage)
}

func TestGridReset(t *testing.T) {
	grid := NewGrid(testPages())
	store := newGridStore()
	store.UpdateLayout("settlement", models.BreakpointLG, []models.LayoutItem{{ID: "trend", X: 0, Y: 0, W: 12, H: 6}})
	_, err := grid.ToggleCollapse(store, "settlement", "detail")
	require.NoError(t, err)

	require.NoError(t, grid.Reset(store, "settlement"))

	view, err := grid.Render(store, "settlement", 1300)
	require.NoError(t, err)
	assert.Equal(t, settlementDefaults(), view.Items)
	assert.False(t, view.Cards[1].Collapsed)
}

func TestRegistryLoadsOncePerOwner(t *testing.T) {
	storage := newMemStorage()
	registry := NewRegistry(storage, nil, CollapseGlobal)

	a := registry.Get(context.Background(), "alice")
	assert.Same(t, a, registry.Get(context.Background(), "alice"))
	assert.NotSame(t, a, registry.Get(context.Background(), "bob"))
	assert.Equal(t, StateKey("alice"), a.Key())
}

func TestRegistryRetriesFailedLoad(t *testing.T) {
	storage := newMemStorage()
	storage.data[StateKey("alice")] = []byte(`{"layouts":{"settlement":{"lg":[{"i":"trend","x":0,"y":0,"w":12,"h":9}]}}}`)
	storage.loadErr = errors.New("database is locked")
	registry := NewRegistry(storage, nil, CollapseGlobal)

	degraded := registry.Get(context.Background(), "alice")
	require.True(t, degraded.MemoryOnly())
	degraded.ToggleCollapse("settlement", "trend")

	// пока хранилище недоступно, владелец остается на том же сторе
	assert.Same(t, degraded, registry.Get(context.Background(), "alice"))

	storage.mu.Lock()
	storage.loadErr = nil
	storage.mu.Unlock()

	recovered := registry.Get(context.Background(), "alice")
	assert.NotSame(t, degraded, recovered)
	assert.False(t, recovered.MemoryOnly())
	assert.Equal(t, []models.LayoutItem{{ID: "trend", W: 12, H: 9}}, recovered.PageLayout("settlement", models.BreakpointLG))
	assert.Same(t, recovered, registry.Get(context.Background(), "alice"))
}

func TestRegistryIgnoresRequestCancellation(t *testing.T) {
	storage := newMemStorage()
	storage.data[StateKey("alice")] = []byte(`{"layouts":{"settlement":{"lg":[{"i":"trend","x":0,"y":0,"w":12,"h":9}]}}}`)
	registry := NewRegistry(storage, nil, CollapseGlobal)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := registry.Get(ctx, "alice")
	assert.False(t, store.MemoryOnly())
	assert.Len(t, store.PageLayout("settlement", models.BreakpointLG), 1)
}
