package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"dashboard-layout/internal/layout/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	cat, err := Default()
	require.NoError(t, err)

	ids := make([]string, 0)
	for _, p := range cat.Pages() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"settlement", "crack", "temperature", "vibration"}, ids)

	page, ok := cat.Page("settlement")
	require.True(t, ok)
	assert.Equal(t, []models.LayoutItem{
		{ID: "trend", X: 0, Y: 0, W: 7, H: 4},
		{ID: "detail", X: 7, Y: 0, W: 5, H: 2},
		{ID: "settlement-alarms", X: 0, Y: 8, W: 4, H: 3, MinH: intPtr(2)},
	}, page.DefaultLayout(models.BreakpointLG))
}

func TestDefaultCatalogFitsEveryBreakpoint(t *testing.T) {
	cat, err := Default()
	require.NoError(t, err)

	for _, page := range cat.Pages() {
		for _, spec := range models.Breakpoints() {
			for _, item := range page.DefaultLayout(spec.Name) {
				assert.True(t, item.InBounds(spec.Cols), "%s/%s %s", page.ID, item.ID, spec.Name)
			}
		}
	}
}

func TestParseRejectsInvalidCatalogs(t *testing.T) {
	cases := map[string]string{
		"duplicate card": `
pages:
  - id: p
    cards:
      - {id: a, layout: {x: 0, y: 0, w: 1, h: 1}}
      - {id: a, layout: {x: 0, y: 0, w: 1, h: 1}}
`,
		"duplicate page": `
pages:
  - id: p
  - id: p
`,
		"shared default wider than xs": `
pages:
  - id: p
    cards:
      - {id: a, layout: {x: 0, y: 0, w: 9, h: 2}}
`,
		"override past grid edge": `
pages:
  - id: p
    cards:
      - id: a
        layout: {x: 0, y: 0, w: 4, h: 2}
        layouts:
          md: {x: 6, y: 0, w: 5, h: 2}
`,
		"zero span": `
pages:
  - id: p
    cards:
      - {id: a, layout: {x: 0, y: 0, w: 0, h: 1}}
`,
		"no default": `
pages:
  - id: p
    cards:
      - {id: a}
`,
		"unknown breakpoint": `
pages:
  - id: p
    cards:
      - id: a
        layouts:
          xxl: {x: 0, y: 0, w: 1, h: 1}
`,
	}
	for name, doc := range cases {
		_, err := Parse([]byte(doc))
		assert.Error(t, err, name)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
pages:
  - id: custom
    title: Custom
    cards:
      - {id: only, renderer: r, layout: {x: 0, y: 0, w: 2, h: 2}}
`), 0o644))

	cat, err := Load(path)
	require.NoError(t, err)
	page, ok := cat.Page("custom")
	require.True(t, ok)
	assert.Equal(t, []string{"only"}, page.CardIDs())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func intPtr(v int) *int { return &v }
