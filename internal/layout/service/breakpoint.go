package service

import "dashboard-layout/internal/layout/models"

// ResolveBreakpoint выбирает самый широкий уровень, порог которого
// ширина контейнера еще достигает. Ниже наименьшего порога - xs без ограничений.
func ResolveBreakpoint(width int) models.Breakpoint {
	table := models.Breakpoints()
	for _, spec := range table {
		if width >= spec.MinWidth && spec.MinWidth > 0 {
			return spec.Name
		}
	}
	return table[len(table)-1].Name
}
