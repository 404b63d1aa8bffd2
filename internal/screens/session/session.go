package session

import (
	"context"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/uvieugono/lesson-platform-clean/internal/lesson"
	"github.com/uvieugono/lesson-platform-clean/internal/router"
	"github.com/uvieugono/lesson-platform-clean/internal/screen"
	"github.com/uvieugono/lesson-platform-clean/internal/screens/summary"
	sess "github.com/uvieugono/lesson-platform-clean/internal/session"
	"github.com/uvieugono/lesson-platform-clean/internal/ui/components"
	"github.com/uvieugono/lesson-platform-clean/internal/ui/layout"
)

// SessionScreen implements screen.Screen for a live lesson session. All
// state lives in the controller; the screen holds only cursors and input
// widgets.
type SessionScreen struct {
	ctrl       *sess.Controller
	lessonPath string

	input     components.TextInput
	chatInput components.TextInput
	option    components.OptionList

	// optionKey is the response key the option list is currently bound to,
	// so it can be rebuilt when the cursor moves.
	optionKey string

	quizIdx    int
	examIdx    int
	contentPos int
	elementIdx int
	flipped    bool

	sending     bool
	sendingChat bool
	ending      bool

	localNotice string
}

var _ screen.Screen = (*SessionScreen)(nil)
var _ screen.KeyHintProvider = (*SessionScreen)(nil)

// New creates a session screen that starts the given lesson on Init.
func New(ctrl *sess.Controller, lessonPath string) *SessionScreen {
	return &SessionScreen{
		ctrl:       ctrl,
		lessonPath: lessonPath,
		input:      components.NewTextInput("Type here...", 200),
		chatInput:  components.NewTextInput("Message your instructor...", 200),
	}
}

func (s *SessionScreen) Init() tea.Cmd {
	return tea.Batch(
		s.startCmd(),
		s.input.Init(),
		s.chatInput.Init(),
		tickCmd(),
	)
}

func (s *SessionScreen) Title() string {
	st := s.ctrl.State()
	if st.LessonData != nil {
		return st.LessonData.LessonRef
	}
	return "Lesson"
}

func (s *SessionScreen) KeyHints() []layout.KeyHint {
	st := s.ctrl.State()
	if st.Phase == sess.PhaseError {
		return []layout.KeyHint{
			{Key: "R", Description: "Retry"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}
	hints := []layout.KeyHint{
		{Key: "1-4", Description: "Tabs"},
		{Key: "Ctrl+P", Description: "Pause"},
		{Key: "Ctrl+E", Description: "End lesson"},
	}
	switch st.ActiveTab {
	case sess.TabQuiz, sess.TabExam:
		hints = append(hints,
			layout.KeyHint{Key: "Tab", Description: "Next question"},
			layout.KeyHint{Key: "Enter", Description: "Answer"},
			layout.KeyHint{Key: "Ctrl+S", Description: "Submit"},
		)
	case sess.TabTutor:
		hints = append(hints, layout.KeyHint{Key: "Enter", Description: "Send"})
	default:
		hints = append(hints,
			layout.KeyHint{Key: "↑↓", Description: "Scroll"},
			layout.KeyHint{Key: "←→", Description: "Elements"},
			layout.KeyHint{Key: "Ctrl+F", Description: "Interact"},
			layout.KeyHint{Key: "Enter", Description: "Message instructor"},
		)
	}
	return hints
}

func (s *SessionScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case startedMsg, retriedMsg:
		return s, nil

	case tutorRepliedMsg:
		s.sending = false
		return s, nil

	case instructorSentMsg:
		s.sendingChat = false
		return s, nil

	case interactedMsg:
		return s, nil

	case pauseToggledMsg:
		return s, nil

	case submittedMsg:
		if msg.Err != nil {
			s.localNotice = msg.Err.Error()
		}
		return s, nil

	case endedMsg:
		s.ending = false
		if msg.Err != nil {
			return s, nil // notice is already set by the controller
		}
		return s, func() tea.Msg {
			return router.ReplaceScreenMsg{Screen: summary.New(msg.Path, msg.Scores)}
		}

	case tickMsg:
		return s, tickCmd()

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	return s, nil
}

func (s *SessionScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	st := s.ctrl.State()

	if st.Phase == sess.PhaseError {
		if msg.String() == "r" {
			return s, s.retryCmd()
		}
		return s, nil
	}
	if st.Phase != sess.PhaseActive {
		return s, nil
	}

	switch msg.String() {
	case "1":
		s.ctrl.SelectTab(context.Background(), sess.TabLesson)
		return s, nil
	case "2":
		s.ctrl.SelectTab(context.Background(), sess.TabQuiz)
		return s, nil
	case "3":
		s.ctrl.SelectTab(context.Background(), sess.TabExam)
		return s, nil
	case "4":
		s.ctrl.SelectTab(context.Background(), sess.TabTutor)
		return s, nil
	case "ctrl+p":
		return s, s.togglePauseCmd()
	case "ctrl+e":
		if !s.ending {
			s.ending = true
			return s, s.endCmd()
		}
		return s, nil
	case "ctrl+d":
		s.ctrl.DismissNotice()
		s.localNotice = ""
		return s, nil
	}

	switch st.ActiveTab {
	case sess.TabLesson:
		return s.handleLessonKey(msg, st)
	case sess.TabQuiz:
		return s.handleAssessmentKey(msg, st, lesson.KindQuiz)
	case sess.TabExam:
		return s.handleAssessmentKey(msg, st, lesson.KindExam)
	case sess.TabTutor:
		return s.handleTutorKey(msg)
	}
	return s, nil
}

func (s *SessionScreen) handleLessonKey(msg tea.KeyMsg, st sess.State) (screen.Screen, tea.Cmd) {
	if st.Content == nil {
		return s, nil
	}
	elements := st.Content.InteractiveElements

	switch msg.String() {
	case "up":
		if s.contentPos > 0 {
			s.contentPos--
		}
		return s, nil
	case "down":
		if s.contentPos < len(st.Content.GeneratedContent)-1 {
			s.contentPos++
		}
		return s, nil
	case "left":
		if s.elementIdx > 0 {
			s.elementIdx--
			s.flipped = false
		}
		return s, nil
	case "right":
		if s.elementIdx < len(elements)-1 {
			s.elementIdx++
			s.flipped = false
		}
		return s, nil
	case "ctrl+f":
		if len(elements) == 0 {
			return s, nil
		}
		idx := min(s.elementIdx, len(elements)-1)
		el := elements[idx]
		action := "view"
		if el.Kind == lesson.ElementFlashcard {
			s.flipped = !s.flipped
			action = "flip"
		}
		return s, s.interactCmd(el.Kind, action)
	case "enter":
		if s.sendingChat {
			return s, nil
		}
		text := s.chatInput.Value()
		if text == "" {
			return s, nil
		}
		s.chatInput.Reset()
		s.sendingChat = true
		return s, s.sendInstructorCmd(text)
	}

	var cmd tea.Cmd
	s.chatInput, cmd = s.chatInput.Update(msg)
	return s, cmd
}

func (s *SessionScreen) handleAssessmentKey(msg tea.KeyMsg, st sess.State, kind lesson.AssessmentKind) (screen.Screen, tea.Cmd) {
	questions := assessmentQuestions(st, kind)
	if len(questions) == 0 {
		return s, nil
	}

	idx := s.cursor(kind)
	sub := submission(st, kind)

	switch msg.String() {
	case "tab":
		s.setCursor(kind, (idx+1)%len(questions))
		return s, nil
	case "shift+tab":
		s.setCursor(kind, (idx+len(questions)-1)%len(questions))
		return s, nil
	case "ctrl+s":
		if !sub.Submitted {
			return s, s.submitCmd(kind)
		}
		return s, nil
	}

	if sub.Submitted {
		return s, nil
	}

	q := questions[idx]
	if q.Type == lesson.QuestionMultipleChoice {
		s.syncOption(kind, idx, q, st)
		before := s.option.Chosen
		var cmd tea.Cmd
		s.option, cmd = s.option.Update(msg)
		if s.option.Chosen != before && s.option.Value() != "" {
			if err := s.ctrl.SetResponse(kind, idx, s.option.Value()); err != nil {
				s.localNotice = err.Error()
			}
		}
		return s, cmd
	}

	if msg.String() == "enter" {
		if v := s.input.Value(); v != "" {
			if err := s.ctrl.SetResponse(kind, idx, v); err != nil {
				s.localNotice = err.Error()
			}
			s.input.Reset()
		}
		return s, nil
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *SessionScreen) handleTutorKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	if msg.String() == "enter" {
		if s.sending {
			return s, nil
		}
		text := s.input.Value()
		if text == "" {
			return s, nil
		}
		s.input.Reset()
		s.sending = true
		return s, s.sendTutorCmd(text)
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

// syncOption rebuilds the option list when the cursor moves to another
// multiple-choice question, restoring any previously recorded answer.
func (s *SessionScreen) syncOption(kind lesson.AssessmentKind, idx int, q lesson.Question, st sess.State) {
	key := kind.ResponseKey(idx)
	if s.optionKey == key {
		return
	}
	s.optionKey = key
	s.option = components.NewOptionList(q.Prompt, q.Options)
	if prev, ok := submission(st, kind).Responses[key]; ok {
		for i, opt := range q.Options {
			if opt == prev {
				s.option.Chosen = i
				s.option.Selected = i
			}
		}
	}
}

func (s *SessionScreen) cursor(kind lesson.AssessmentKind) int {
	if kind == lesson.KindExam {
		return s.examIdx
	}
	return s.quizIdx
}

func (s *SessionScreen) setCursor(kind lesson.AssessmentKind, idx int) {
	if kind == lesson.KindExam {
		s.examIdx = idx
	} else {
		s.quizIdx = idx
	}
	s.optionKey = ""
}

func assessmentQuestions(st sess.State, kind lesson.AssessmentKind) []lesson.Question {
	if st.Content == nil {
		return nil
	}
	if kind == lesson.KindExam {
		return st.Content.ExamContent
	}
	return st.Content.Quizzes
}

func submission(st sess.State, kind lesson.AssessmentKind) sess.SubmissionState {
	if kind == lesson.KindExam {
		return st.Exam
	}
	return st.Quiz
}

// Commands. Controller calls block on the network, so each runs inside a
// tea.Cmd.

func (s *SessionScreen) startCmd() tea.Cmd {
	return func() tea.Msg {
		return startedMsg{Err: s.ctrl.Start(context.Background(), s.lessonPath)}
	}
}

func (s *SessionScreen) retryCmd() tea.Cmd {
	return func() tea.Msg {
		return retriedMsg{Err: s.ctrl.Retry(context.Background())}
	}
}

func (s *SessionScreen) togglePauseCmd() tea.Cmd {
	return func() tea.Msg {
		s.ctrl.TogglePause(context.Background())
		return pauseToggledMsg{}
	}
}

func (s *SessionScreen) submitCmd(kind lesson.AssessmentKind) tea.Cmd {
	return func() tea.Msg {
		_, err := s.ctrl.Submit(context.Background(), kind)
		return submittedMsg{Err: err}
	}
}

func (s *SessionScreen) sendTutorCmd(text string) tea.Cmd {
	return func() tea.Msg {
		_ = s.ctrl.SendMessage(context.Background(), sess.ThreadTutor, text)
		return tutorRepliedMsg{}
	}
}

func (s *SessionScreen) sendInstructorCmd(text string) tea.Cmd {
	return func() tea.Msg {
		_ = s.ctrl.SendMessage(context.Background(), sess.ThreadInstructor, text)
		return instructorSentMsg{}
	}
}

func (s *SessionScreen) interactCmd(kind lesson.ElementKind, action string) tea.Cmd {
	return func() tea.Msg {
		s.ctrl.RecordInteraction(context.Background(), kind, action)
		return interactedMsg{}
	}
}

func (s *SessionScreen) endCmd() tea.Cmd {
	return func() tea.Msg {
		// Snapshot the scores first; End resets the controller on success.
		st := s.ctrl.State()
		scores := summary.Scores{
			QuizSubmitted: st.Quiz.Submitted,
			QuizScore:     st.Quiz.Score,
			ExamSubmitted: st.Exam.Submitted,
			ExamScore:     st.Exam.Score,
		}
		path, err := s.ctrl.End(context.Background())
		if err != nil {
			return endedMsg{Err: err}
		}
		return endedMsg{Path: path, Scores: scores}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
