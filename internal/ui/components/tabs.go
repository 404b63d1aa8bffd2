package components

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/uvieugono/lesson-platform-clean/internal/ui/theme"
)

// TabItem is one entry in the tab bar.
type TabItem struct {
	Label  string
	Active bool
	Locked bool
}

// RenderTabBar renders a horizontal tab bar. Locked tabs are dimmed and
// marked so the student can see the exam is not yet reachable.
func RenderTabBar(tabs []TabItem, width int) string {
	parts := make([]string, 0, len(tabs))
	for _, t := range tabs {
		label := t.Label
		switch {
		case t.Active:
			parts = append(parts, theme.TabActive.Render(label))
		case t.Locked:
			parts = append(parts, theme.TabLocked.Render(label+" 🔒"))
		default:
			parts = append(parts, theme.TabInactive.Render(label))
		}
	}

	bar := strings.Join(parts, " ")
	return lipgloss.NewStyle().Width(width).Render(" " + bar)
}
