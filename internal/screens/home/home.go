// Package home is the entry screen: pick a lesson and start a session.
package home

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/uvieugono/lesson-platform-clean/internal/router"
	"github.com/uvieugono/lesson-platform-clean/internal/screen"
	sessionscreen "github.com/uvieugono/lesson-platform-clean/internal/screens/session"
	sess "github.com/uvieugono/lesson-platform-clean/internal/session"
	"github.com/uvieugono/lesson-platform-clean/internal/ui/components"
	"github.com/uvieugono/lesson-platform-clean/internal/ui/theme"
)

const titleBanner = `
 ██╗     ███████╗███████╗███████╗ ██████╗ ███╗   ██╗███████╗
 ██║     ██╔════╝██╔════╝██╔════╝██╔═══██╗████╗  ██║██╔════╝
 ██║     █████╗  ███████╗███████╗██║   ██║██╔██╗ ██║███████╗
 ██║     ██╔══╝  ╚════██║╚════██║██║   ██║██║╚██╗██║╚════██║
 ███████╗███████╗███████║███████║╚██████╔╝██║ ╚████║███████║
 ╚══════╝╚══════╝╚══════╝╚══════╝ ╚═════╝ ╚═╝  ╚═══╝╚══════╝`

// HomeScreen implements screen.Screen for the lesson picker.
type HomeScreen struct {
	ctrl    *sess.Controller
	input   components.TextInput
	typing  bool
	menu    components.Menu
	lessons []string
}

var _ screen.Screen = (*HomeScreen)(nil)

// New creates the home screen. The lesson list is the set of paths a
// student can start directly; a custom path can always be typed in.
func New(ctrl *sess.Controller, lessons []string) *HomeScreen {
	s := &HomeScreen{
		ctrl:    ctrl,
		lessons: lessons,
		input:   components.NewTextInput("e.g. maths/2d-shapes-intro", 120),
	}

	items := make([]components.MenuItem, 0, len(lessons)+1)
	for _, path := range lessons {
		p := path
		items = append(items, components.MenuItem{
			Label:  p,
			Action: func() tea.Cmd { return s.startLesson(p) },
		})
	}
	items = append(items, components.MenuItem{
		Label:  "Enter a lesson path...",
		Action: func() tea.Cmd { s.typing = true; return s.input.Init() },
	})
	s.menu = components.NewMenu(items)
	return s
}

func (s *HomeScreen) startLesson(path string) tea.Cmd {
	return func() tea.Msg {
		return router.PushScreenMsg{Screen: sessionscreen.New(s.ctrl, path)}
	}
}

func (s *HomeScreen) Init() tea.Cmd { return nil }

func (s *HomeScreen) Title() string { return "Home" }

func (s *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if s.typing {
		if kmsg, ok := msg.(tea.KeyMsg); ok {
			switch kmsg.String() {
			case "enter":
				path := strings.TrimSpace(s.input.Value())
				if path == "" {
					return s, nil
				}
				s.typing = false
				s.input.Reset()
				return s, s.startLesson(path)
			case "esc":
				s.typing = false
				s.input.Reset()
				return s, nil
			}
		}
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}

	var cmd tea.Cmd
	s.menu, cmd = s.menu.Update(msg)
	return s, cmd
}

func (s *HomeScreen) View(width, height int) string {
	var b strings.Builder

	b.WriteString(lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true).
		Render(titleBanner))
	b.WriteString("\n\n")
	b.WriteString(theme.Subtitle.Width(width).Render("Interactive lessons with an AI tutor"))
	b.WriteString("\n\n")

	if s.typing {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Render("  Lesson path: "))
		b.WriteString(s.input.View())
		b.WriteString("\n\n")
		b.WriteString(theme.Hint.Render("  Enter to start, Esc to cancel"))
	} else {
		b.WriteString(s.menu.View())
	}

	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Render(b.String())
}
