package components

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/uvieugono/lesson-platform-clean/internal/ui/theme"
)

// OptionList is an answer selector for multiple-choice questions. It only
// records the chosen option; correctness is never shown before submission.
type OptionList struct {
	Prompt   string
	Options  []string
	Selected int

	// Chosen is the index of the confirmed answer, -1 before any choice.
	Chosen int

	// Locked disables further changes once the assessment is submitted.
	Locked bool
}

// NewOptionList creates a selector over the given options.
func NewOptionList(prompt string, options []string) OptionList {
	return OptionList{
		Prompt:  prompt,
		Options: options,
		Chosen:  -1,
	}
}

// Update handles keyboard navigation and selection.
func (o OptionList) Update(msg tea.Msg) (OptionList, tea.Cmd) {
	if o.Locked {
		return o, nil
	}

	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return o, nil
	}

	switch kmsg.String() {
	case "up", "k":
		if o.Selected > 0 {
			o.Selected--
		}
	case "down", "j":
		if o.Selected < len(o.Options)-1 {
			o.Selected++
		}
	case "enter":
		o.Chosen = o.Selected
	}

	return o, nil
}

// Value returns the chosen option text, or "" before any choice.
func (o OptionList) Value() string {
	if o.Chosen < 0 || o.Chosen >= len(o.Options) {
		return ""
	}
	return o.Options[o.Chosen]
}

// View renders the prompt and options.
func (o OptionList) View() string {
	s := lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(o.Prompt) + "\n\n"

	labels := "ABCDEFGH"
	for i, opt := range o.Options {
		label := "?"
		if i < len(labels) {
			label = string(labels[i])
		}

		prefix := "  "
		if i == o.Selected && !o.Locked {
			prefix = "▸ "
		}
		marker := " "
		if i == o.Chosen {
			marker = "●"
		}

		line := fmt.Sprintf("%s%s %s)  %s", prefix, marker, label, opt)

		switch {
		case i == o.Chosen:
			s += lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).Render(line) + "\n"
		case i == o.Selected && !o.Locked:
			s += lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(line) + "\n"
		default:
			s += lipgloss.NewStyle().Foreground(theme.Text).Render(line) + "\n"
		}
	}

	return s
}
