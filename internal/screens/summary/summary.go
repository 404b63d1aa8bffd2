// Package summary shows the end-of-lesson results and the exported notes
// location.
package summary

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/uvieugono/lesson-platform-clean/internal/screen"
	"github.com/uvieugono/lesson-platform-clean/internal/ui/layout"
	"github.com/uvieugono/lesson-platform-clean/internal/ui/theme"
)

// Scores carries the final assessment results into the summary screen.
type Scores struct {
	QuizSubmitted bool
	QuizScore     int
	ExamSubmitted bool
	ExamScore     int
}

// SummaryScreen implements screen.Screen for the post-lesson summary.
type SummaryScreen struct {
	notesPath string
	scores    Scores
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)

// New creates a summary screen.
func New(notesPath string, scores Scores) *SummaryScreen {
	return &SummaryScreen{notesPath: notesPath, scores: scores}
}

func (s *SummaryScreen) Init() tea.Cmd { return nil }

func (s *SummaryScreen) Title() string { return "Lesson complete" }

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Esc", Description: "Back"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	return s, nil
}

func (s *SummaryScreen) View(width, height int) string {
	var b strings.Builder

	b.WriteString(theme.Title.Width(width).Render("Well done!"))
	b.WriteString("\n\n")

	b.WriteString(scoreLine("Quiz", s.scores.QuizSubmitted, s.scores.QuizScore))
	b.WriteString("\n")
	b.WriteString(scoreLine("Exam", s.scores.ExamSubmitted, s.scores.ExamScore))
	b.WriteString("\n\n")

	if s.notesPath != "" {
		b.WriteString(lipgloss.NewStyle().
			Foreground(theme.TextDim).
			Render("  Your notes were saved to:"))
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().
			Foreground(theme.Secondary).
			Render("  " + s.notesPath))
	}

	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Render("\n\n" + b.String())
}

func scoreLine(label string, submitted bool, score int) string {
	if !submitted {
		return lipgloss.NewStyle().
			Foreground(theme.TextDim).
			Render(fmt.Sprintf("  %s: not taken", label))
	}
	return lipgloss.NewStyle().
		Foreground(theme.Text).
		Bold(true).
		Render(fmt.Sprintf("  %s: %d%%", label, score))
}
