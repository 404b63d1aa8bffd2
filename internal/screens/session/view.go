package session

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/uvieugono/lesson-platform-clean/internal/lesson"
	sess "github.com/uvieugono/lesson-platform-clean/internal/session"
	"github.com/uvieugono/lesson-platform-clean/internal/ui/components"
	"github.com/uvieugono/lesson-platform-clean/internal/ui/theme"
)

func (s *SessionScreen) View(width, height int) string {
	st := s.ctrl.State()

	switch st.Phase {
	case sess.PhaseNotStarted, sess.PhaseLoading:
		return renderLoading(width)
	case sess.PhaseError:
		return renderFatal(width, st)
	}

	var b strings.Builder

	b.WriteString(components.RenderTabBar(tabBar(st), width))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width-4, 0))))
	b.WriteString("\n")

	if st.IsPaused {
		b.WriteString(theme.Notice.Render("  ⏸ Paused") + "\n\n")
	}
	if notice := s.noticeLine(st); notice != "" {
		b.WriteString(theme.Notice.Render("  "+notice) + "\n\n")
	}

	switch st.ActiveTab {
	case sess.TabLesson:
		b.WriteString(s.renderLessonTab(width, st))
	case sess.TabQuiz:
		b.WriteString(s.renderAssessmentTab(width, st, lesson.KindQuiz))
	case sess.TabExam:
		b.WriteString(s.renderAssessmentTab(width, st, lesson.KindExam))
	case sess.TabTutor:
		b.WriteString(s.renderTutorTab(width, st))
	}

	return b.String()
}

func (s *SessionScreen) noticeLine(st sess.State) string {
	if st.Notice != "" {
		return st.Notice + "  (Ctrl+D to dismiss)"
	}
	if s.localNotice != "" {
		return s.localNotice + "  (Ctrl+D to dismiss)"
	}
	return ""
}

func tabBar(st sess.State) []components.TabItem {
	return []components.TabItem{
		{Label: "1 Lesson", Active: st.ActiveTab == sess.TabLesson},
		{Label: "2 Quiz", Active: st.ActiveTab == sess.TabQuiz},
		{Label: "3 Exam", Active: st.ActiveTab == sess.TabExam, Locked: !st.ExamActive},
		{Label: "4 Tutor", Active: st.ActiveTab == sess.TabTutor},
	}
}

func renderLoading(width int) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render("\n\n  Preparing your lesson...")
}

// renderFatal renders the retry screen for a session-fatal error. Only the
// classified message is shown, never internals.
func renderFatal(width int, st sess.State) string {
	msg := "Something went wrong"
	if st.Err != nil && st.Err.Message != "" {
		msg = st.Err.Message
	}

	body := theme.Fatal.Render("✗ "+msg) + "\n\n" +
		lipgloss.NewStyle().Foreground(theme.TextDim).Render("Press R to try again")

	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Render("\n\n" + body)
}

func (s *SessionScreen) renderLessonTab(width int, st sess.State) string {
	if st.Content == nil || len(st.Content.GeneratedContent) == 0 {
		return lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.TextDim).
			Render("\n  No lesson content yet.")
	}

	blocks := st.Content.GeneratedContent
	pos := s.contentPos
	if pos >= len(blocks) {
		pos = len(blocks) - 1
	}

	var b strings.Builder
	bar := components.NewProgressBar(
		fmt.Sprintf("Section %d of %d", pos+1, len(blocks)),
		float64(pos+1)/float64(len(blocks)),
		true,
		min(width-8, 48),
	)
	b.WriteString("  " + bar.View())
	b.WriteString("\n\n")
	b.WriteString(theme.Card.Width(max(width-8, 20)).Render(blocks[pos].Content))

	if elements := st.Content.InteractiveElements; len(elements) > 0 {
		idx := min(s.elementIdx, len(elements)-1)
		b.WriteString("\n\n")
		b.WriteString(lipgloss.NewStyle().
			Foreground(theme.TextDim).
			Render(fmt.Sprintf("  Element %d of %d   ←→ to browse, Ctrl+F to interact", idx+1, len(elements))))
		b.WriteString("\n")
		b.WriteString(theme.Card.Width(max(width-8, 20)).Render(s.renderElement(elements[idx])))
	}

	b.WriteString("\n\n")
	for _, m := range st.InstructorThread {
		if m.Role == sess.RoleUser {
			b.WriteString(theme.ChatUser.Render("  You: " + m.Content))
		} else {
			b.WriteString(theme.ChatAssistant.Render("  Instructor: " + m.Content))
		}
		b.WriteString("\n")
	}
	if s.sendingChat {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render("  Sending..."))
	} else {
		b.WriteString("  " + s.chatInput.View())
	}
	return b.String()
}

// renderElement renders the body of one interactive element card.
func (s *SessionScreen) renderElement(el lesson.InteractiveElement) string {
	title := el.Title
	if title == "" {
		title = string(el.Kind)
	}

	switch el.Kind {
	case lesson.ElementFlashcard:
		if el.Flashcard == nil || len(el.Flashcard.Cards) == 0 {
			return title
		}
		card := el.Flashcard.Cards[0]
		side := card.Front
		if s.flipped {
			side = card.Back
		}
		return title + "\n\n" + side
	case lesson.ElementGraph:
		n := 0
		if el.Graph != nil {
			n = len(el.Graph.Points)
		}
		return fmt.Sprintf("%s\nGraph with %d data points", title, n)
	case lesson.ElementAnimation:
		return title + "\nAnimation"
	case lesson.ElementText:
		if el.Text != nil && el.Text.Content != "" {
			return title + "\n" + el.Text.Content
		}
		return title
	}
	return title
}

func (s *SessionScreen) renderAssessmentTab(width int, st sess.State, kind lesson.AssessmentKind) string {
	questions := assessmentQuestions(st, kind)
	sub := submission(st, kind)

	var b strings.Builder

	if kind == lesson.KindExam && st.ExamCountdownRunning {
		left := int(st.ExamTimeLeft.Seconds())
		frac := 0.0
		if st.ExamDuration > 0 {
			frac = float64(st.ExamTimeLeft) / float64(st.ExamDuration)
		}
		bar := components.NewProgressBar(
			fmt.Sprintf("⏱ %d:%02d remaining", left/60, left%60),
			frac,
			false,
			min(width-8, 48),
		)
		b.WriteString("  " + bar.View())
		b.WriteString("\n\n")
	}

	if len(questions) == 0 {
		b.WriteString(lipgloss.NewStyle().
			Foreground(theme.TextDim).
			Render("  No questions available."))
		return b.String()
	}

	if sub.Submitted {
		b.WriteString(theme.Title.Width(width).Render(fmt.Sprintf("Score: %d%%", sub.Score)))
		b.WriteString("\n\n")
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.TextDim).
			Render("Answers are locked."))
		return b.String()
	}

	idx := s.cursor(kind)
	if idx >= len(questions) {
		idx = len(questions) - 1
	}
	q := questions[idx]
	key := kind.ResponseKey(idx)

	answered := 0
	for i := range questions {
		if v, ok := sub.Responses[kind.ResponseKey(i)]; ok && v != "" {
			answered++
		}
	}
	b.WriteString(lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Render(fmt.Sprintf("  Question %d of %d   %d answered", idx+1, len(questions), answered)))
	b.WriteString("\n\n")

	if q.Type == lesson.QuestionMultipleChoice {
		view := s.option.View()
		if s.optionKey != key {
			// Cursor moved since the last key event; render a fresh list.
			fresh := components.NewOptionList(q.Prompt, q.Options)
			if prev, ok := sub.Responses[key]; ok {
				for i, opt := range q.Options {
					if opt == prev {
						fresh.Chosen = i
					}
				}
			}
			view = fresh.View()
		}
		b.WriteString(view)
	} else {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render("  " + q.Prompt))
		b.WriteString("\n\n")
		if prev, ok := sub.Responses[key]; ok && prev != "" {
			b.WriteString(lipgloss.NewStyle().
				Foreground(theme.Secondary).
				Render("  Your answer: " + prev))
			b.WriteString("\n")
		}
		b.WriteString("  " + s.input.View())
	}

	b.WriteString("\n\n")
	b.WriteString(theme.Hint.Render("  Ctrl+S submits all answers for scoring."))
	return b.String()
}

func (s *SessionScreen) renderTutorTab(width int, st sess.State) string {
	var b strings.Builder

	b.WriteString(lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Render(fmt.Sprintf("  %d tutor questions remaining", st.TutorRemaining)))
	b.WriteString("\n\n")

	if len(st.TutorThread) == 0 {
		b.WriteString(theme.Hint.Render("  Ask the tutor anything about this lesson."))
		b.WriteString("\n")
	}
	for _, m := range st.TutorThread {
		if m.Role == sess.RoleUser {
			b.WriteString(theme.ChatUser.Render("  You: ") + theme.ChatUser.Render(m.Content))
		} else {
			b.WriteString(theme.ChatAssistant.Render("  Tutor: " + m.Content))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if s.sending {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render("  Thinking..."))
	} else {
		b.WriteString("  " + s.input.View())
	}
	return b.String()
}
