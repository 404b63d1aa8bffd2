package session

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uvieugono/lesson-platform-clean/internal/lesson"
	"github.com/uvieugono/lesson-platform-clean/internal/lessonapi"
)

var (
	initBody = json.RawMessage(`{
		"success": true,
		"data": {
			"session_id": "sess-1",
			"lessonData": {"lessonRef": "2d-shapes-intro", "subject": "geometry"}
		}
	}`)

	contentBody = json.RawMessage(`{
		"generatedContent": [{"content": "Shapes have sides."}],
		"interactiveElements": [],
		"quizzes": [
			{"type": "multiple-choice", "question": "Sides of a square?", "options": ["3", "4"], "correctAnswer": "4"},
			{"type": "multiple-choice", "question": "Sides of a triangle?", "options": ["3", "4"], "correctAnswer": "3"},
			{"type": "fill", "question": "A circle has __ corners", "correctAnswer": "0"},
			{"type": "fill", "question": "A hexagon has __ sides", "correctAnswer": "6"}
		],
		"examContent": [
			{"type": "multiple-choice", "question": "Right angles in a square?", "options": ["2", "4"], "correctAnswer": "4"}
		]
	}`)

	ackBody = json.RawMessage(`{"success": true}`)
)

func serverError() error {
	return lessonapi.Classify(lessonapi.Outcome{Status: 500})
}

func newTestController(t *testing.T, mt *lessonapi.MockTransport, tweak func(*Options)) *Controller {
	t.Helper()
	opts := Options{
		Service:   lessonapi.NewService(mt, lessonapi.Config{TutorEnabled: true}),
		StudentID: "student-7",
		NotesDir:  t.TempDir(),
	}
	if tweak != nil {
		tweak(&opts)
	}
	return New(opts)
}

// startActive drives the controller through a successful start.
func startActive(t *testing.T, c *Controller) {
	t.Helper()
	require.NoError(t, c.Start(context.Background(), "maths/2d-shapes-intro"))
	require.Equal(t, PhaseActive, c.State().Phase)
}

func TestController_StartHappyPath(t *testing.T) {
	mt := lessonapi.NewMockTransport(
		lessonapi.MockResponse{Body: initBody},
		lessonapi.MockResponse{Body: contentBody},
	)
	c := newTestController(t, mt, nil)

	require.NoError(t, c.Start(context.Background(), "maths/2d-shapes-intro"))

	s := c.State()
	assert.Equal(t, PhaseActive, s.Phase)
	assert.Equal(t, TabLesson, s.ActiveTab)
	require.NotNil(t, s.Session)
	assert.Equal(t, "sess-1", s.Session.SessionID)
	assert.Equal(t, "2d-shapes-intro", s.Session.LessonRef)
	require.NotNil(t, s.Content)
	assert.Len(t, s.Content.Quizzes, 4)

	require.Equal(t, 2, mt.CallCount())
	assert.Equal(t, "initialize-lesson", mt.Calls[0].Endpoint)
	assert.Equal(t, "lesson-content", mt.Calls[1].Endpoint)
}

func TestController_StartFailureIsFatalAndRetryable(t *testing.T) {
	mt := lessonapi.NewMockTransport(
		lessonapi.MockResponse{Err: serverError()},
	)
	c := newTestController(t, mt, nil)

	err := c.Start(context.Background(), "maths/2d-shapes-intro")
	require.Error(t, err)

	s := c.State()
	assert.Equal(t, PhaseError, s.Phase)
	require.NotNil(t, s.Err)
	assert.Equal(t, lessonapi.KindServer, s.Err.Kind)
	assert.Nil(t, s.Session)

	mt.AddResponse(lessonapi.MockResponse{Body: initBody})
	mt.AddResponse(lessonapi.MockResponse{Body: contentBody})
	require.NoError(t, c.Retry(context.Background()))
	assert.Equal(t, PhaseActive, c.State().Phase)

	// The retry re-issues initialize with the same lesson path.
	first := mt.Calls[0].Payload.(map[string]any)
	second := mt.Calls[1].Payload.(map[string]any)
	assert.Equal(t, first["lesson_path"], second["lesson_path"])
}

func TestController_FetchContentFailureKeepsSession(t *testing.T) {
	mt := lessonapi.NewMockTransport(
		lessonapi.MockResponse{Body: initBody},
		lessonapi.MockResponse{Err: serverError()},
	)
	c := newTestController(t, mt, nil)

	err := c.Start(context.Background(), "maths/2d-shapes-intro")
	require.Error(t, err)

	s := c.State()
	assert.Equal(t, PhaseError, s.Phase)
	require.NotNil(t, s.Err)
	assert.Equal(t, lessonapi.KindServer, s.Err.Kind)
	require.NotNil(t, s.Session, "a content failure must not discard the session")

	mt.AddResponse(lessonapi.MockResponse{Body: contentBody})
	require.NoError(t, c.Retry(context.Background()))

	s = c.State()
	assert.Equal(t, PhaseActive, s.Phase)
	assert.Nil(t, s.Err)

	// Retry goes straight to the content fetch for the same lesson ref.
	last := mt.Calls[len(mt.Calls)-1]
	assert.Equal(t, "lesson-content", last.Endpoint)
	assert.Equal(t, "2d-shapes-intro", last.Payload.(map[string]any)["lesson_ref"])
}

func TestController_ExamTabGatedUntilQuizSubmitted(t *testing.T) {
	mt := lessonapi.NewMockTransport(
		lessonapi.MockResponse{Body: initBody},
		lessonapi.MockResponse{Body: contentBody},
	)
	c := newTestController(t, mt, nil)
	startActive(t, c)
	ctx := context.Background()

	c.SelectTab(ctx, TabExam)
	assert.Equal(t, TabLesson, c.State().ActiveTab, "exam tab must be a no-op before unlock")

	require.NoError(t, c.SetResponse(lesson.KindQuiz, 0, "4"))
	require.NoError(t, c.SetResponse(lesson.KindQuiz, 1, "3"))
	require.NoError(t, c.SetResponse(lesson.KindQuiz, 2, "0"))
	score, err := c.Submit(ctx, lesson.KindQuiz)
	require.NoError(t, err)
	assert.Equal(t, 75, score)

	s := c.State()
	assert.True(t, s.ExamActive)
	assert.True(t, s.LessonCompleted)

	c.SelectTab(ctx, TabExam)
	s = c.State()
	assert.Equal(t, TabExam, s.ActiveTab)
	assert.True(t, s.ExamCountdownRunning)
	assert.Greater(t, s.ExamTimeLeft, time.Duration(0))

	// Leaving the exam tab stops the countdown.
	c.SelectTab(ctx, TabLesson)
	assert.False(t, c.State().ExamCountdownRunning)
}

func TestController_SubmitQuizIdempotent(t *testing.T) {
	mt := lessonapi.NewMockTransport(
		lessonapi.MockResponse{Body: initBody},
		lessonapi.MockResponse{Body: contentBody},
	)
	c := newTestController(t, mt, nil)
	startActive(t, c)
	ctx := context.Background()

	require.NoError(t, c.SetResponse(lesson.KindQuiz, 0, "4"))
	first, err := c.Submit(ctx, lesson.KindQuiz)
	require.NoError(t, err)

	again, err := c.Submit(ctx, lesson.KindQuiz)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	// Responses are locked once submitted.
	err = c.SetResponse(lesson.KindQuiz, 1, "3")
	var pre *PreconditionError
	require.ErrorAs(t, err, &pre)
	assert.Equal(t, first, c.State().Quiz.Score, "score must not change after lock")
}

func TestController_TutorQuota(t *testing.T) {
	mt := lessonapi.NewMockTransport(
		lessonapi.MockResponse{Body: initBody},
		lessonapi.MockResponse{Body: contentBody},
		lessonapi.MockResponse{Body: json.RawMessage(`{"explanation": "a square has equal sides"}`)},
		lessonapi.MockResponse{Body: json.RawMessage(`{"explanation": "a triangle has three"}`)},
	)
	c := newTestController(t, mt, func(o *Options) { o.TutorQuota = 2 })
	startActive(t, c)
	ctx := context.Background()

	require.NoError(t, c.SendMessage(ctx, ThreadTutor, "what is a square?"))
	require.NoError(t, c.SendMessage(ctx, ThreadTutor, "and a triangle?"))

	s := c.State()
	assert.Equal(t, 0, s.TutorRemaining)
	require.Len(t, s.TutorThread, 4)
	assert.Equal(t, RoleAssistant, s.TutorThread[1].Role)

	// Exhausted quota: no-op, no transport call, never negative.
	calls := mt.CallCount()
	require.NoError(t, c.SendMessage(ctx, ThreadTutor, "one more?"))
	assert.Equal(t, calls, mt.CallCount())
	assert.Equal(t, 0, c.State().TutorRemaining)
	assert.Len(t, c.State().TutorThread, 4)
}

func TestController_BlankMessageIsNoOp(t *testing.T) {
	mt := lessonapi.NewMockTransport(
		lessonapi.MockResponse{Body: initBody},
		lessonapi.MockResponse{Body: contentBody},
	)
	c := newTestController(t, mt, nil)
	startActive(t, c)

	require.NoError(t, c.SendMessage(context.Background(), ThreadTutor, "   "))
	assert.Empty(t, c.State().TutorThread)
	assert.Equal(t, 2, mt.CallCount())
}

func TestController_TutorFailureIsTransient(t *testing.T) {
	mt := lessonapi.NewMockTransport(
		lessonapi.MockResponse{Body: initBody},
		lessonapi.MockResponse{Body: contentBody},
		lessonapi.MockResponse{Err: serverError()},
	)
	c := newTestController(t, mt, nil)
	startActive(t, c)

	require.NoError(t, c.SendMessage(context.Background(), ThreadTutor, "help"))

	s := c.State()
	assert.Equal(t, PhaseActive, s.Phase, "a chat failure must not end the session")
	assert.NotEmpty(t, s.Notice)
	require.Len(t, s.TutorThread, 1, "the user message stays in the thread")
	assert.Equal(t, RoleUser, s.TutorThread[0].Role)

	c.DismissNotice()
	assert.Empty(t, c.State().Notice)
}

func TestController_ActionsBeforeStartFailFast(t *testing.T) {
	c := newTestController(t, lessonapi.NewMockTransport(), nil)
	ctx := context.Background()

	var pre *PreconditionError
	require.ErrorAs(t, c.SendMessage(ctx, ThreadTutor, "hello"), &pre)
	_, err := c.Submit(ctx, lesson.KindQuiz)
	require.ErrorAs(t, err, &pre)
	_, err = c.End(ctx)
	require.ErrorAs(t, err, &pre)
	require.ErrorAs(t, c.SetResponse(lesson.KindQuiz, 0, "4"), &pre)
}

func TestController_TogglePause(t *testing.T) {
	mt := lessonapi.NewMockTransport(
		lessonapi.MockResponse{Body: initBody},
		lessonapi.MockResponse{Body: contentBody},
		lessonapi.MockResponse{Body: ackBody},
		lessonapi.MockResponse{Err: serverError()},
	)
	c := newTestController(t, mt, nil)
	startActive(t, c)
	ctx := context.Background()

	c.TogglePause(ctx)
	assert.True(t, c.State().IsPaused)
	assert.Equal(t, "pause-lesson", mt.LastEndpoint())

	// A failed resume call still flips the local flag, with a notice.
	c.TogglePause(ctx)
	s := c.State()
	assert.False(t, s.IsPaused)
	assert.Equal(t, PhaseActive, s.Phase)
	assert.NotEmpty(t, s.Notice)
}

func TestController_LoadExamUnlocks(t *testing.T) {
	mt := lessonapi.NewMockTransport(
		lessonapi.MockResponse{Body: initBody},
		lessonapi.MockResponse{Body: contentBody},
		lessonapi.MockResponse{Body: json.RawMessage(`{
			"success": true,
			"examData": [
				{"type": "fill", "question": "Angles in a triangle sum to __", "correctAnswer": "180"}
			]
		}`)},
	)
	c := newTestController(t, mt, nil)
	startActive(t, c)

	require.NoError(t, c.LoadExam(context.Background(), "exam-geometry-1"))

	s := c.State()
	assert.True(t, s.ExamActive)
	require.Len(t, s.Content.ExamContent, 1)
	assert.Equal(t, "180", s.Content.ExamContent[0].CorrectAnswer)
}

func TestController_ExamAutoSubmitOnExpiry(t *testing.T) {
	mt := lessonapi.NewMockTransport(
		lessonapi.MockResponse{Body: initBody},
		lessonapi.MockResponse{Body: contentBody},
	)
	c := newTestController(t, mt, nil)

	var fire func()
	c.afterFunc = func(_ time.Duration, f func()) *time.Timer {
		fire = f
		return time.NewTimer(time.Hour)
	}

	startActive(t, c)
	ctx := context.Background()

	_, err := c.Submit(ctx, lesson.KindQuiz)
	require.NoError(t, err)
	c.SelectTab(ctx, TabExam)
	require.NoError(t, c.SetResponse(lesson.KindExam, 0, "4"))

	require.NotNil(t, fire, "entering the exam tab must arm the countdown")
	fire()

	s := c.State()
	assert.True(t, s.Exam.Submitted)
	assert.Equal(t, 100, s.Exam.Score)
	assert.NotEmpty(t, s.Notice)
	assert.False(t, s.ExamCountdownRunning)
}

func TestController_EndExportsNotesAndResets(t *testing.T) {
	mt := lessonapi.NewMockTransport(
		lessonapi.MockResponse{Body: initBody},
		lessonapi.MockResponse{Body: contentBody},
		lessonapi.MockResponse{Body: json.RawMessage(`{"noteContent": "Squares have four equal sides."}`)},
		lessonapi.MockResponse{Body: ackBody},
	)
	c := newTestController(t, mt, nil)
	startActive(t, c)

	path, err := c.End(context.Background())
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Squares have four equal sides.", string(content))
	assert.Regexp(t, `lesson-notes-2d-shapes-intro-\d{8}-\d{6}\.txt$`, path)

	s := c.State()
	assert.Equal(t, PhaseNotStarted, s.Phase)
	assert.Nil(t, s.Session)
	assert.Empty(t, s.TutorThread)

	assert.Equal(t, "save-progress", mt.LastEndpoint())
}

// gatedTransport holds ai-tutor calls until released so tests can observe
// the controller while a request is in flight.
type gatedTransport struct {
	inner   *lessonapi.MockTransport
	entered chan struct{}
	release chan struct{}
}

func (g *gatedTransport) Do(ctx context.Context, endpoint string, payload any) (json.RawMessage, error) {
	if endpoint == "ai-tutor" {
		g.entered <- struct{}{}
		<-g.release
	}
	return g.inner.Do(ctx, endpoint, payload)
}

func TestController_InFlightTutorCallDoesNotBlockActions(t *testing.T) {
	mt := lessonapi.NewMockTransport(
		lessonapi.MockResponse{Body: initBody},
		lessonapi.MockResponse{Body: contentBody},
		lessonapi.MockResponse{Body: json.RawMessage(`{"explanation": "a square is a special rectangle"}`)},
	)
	gt := &gatedTransport{inner: mt, entered: make(chan struct{}), release: make(chan struct{})}
	c := New(Options{
		Service:   lessonapi.NewService(gt, lessonapi.Config{TutorEnabled: true}),
		StudentID: "student-7",
		NotesDir:  t.TempDir(),
	})
	startActive(t, c)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- c.SendMessage(ctx, ThreadTutor, "why four sides?") }()
	<-gt.entered

	// With the tutor request still in flight, tab switches and snapshots
	// must complete immediately.
	switched := make(chan struct{})
	go func() {
		c.SelectTab(ctx, TabQuiz)
		_ = c.State()
		close(switched)
	}()
	select {
	case <-switched:
	case <-time.After(time.Second):
		t.Fatal("tab switch blocked behind an in-flight tutor call")
	}
	assert.Equal(t, TabQuiz, c.State().ActiveTab)

	close(gt.release)
	require.NoError(t, <-done)

	// The late reply still lands in the thread after the tab switch.
	s := c.State()
	require.Len(t, s.TutorThread, 2)
	assert.Equal(t, "a square is a special rectangle", s.TutorThread[1].Content)
}

func TestController_ExpiryWithoutExamQuestionsSetsNoNotice(t *testing.T) {
	// An empty exam cannot be scored, so expiry must not claim the exam
	// was submitted.
	emptyExamBody := json.RawMessage(`{
		"generatedContent": [{"content": "Shapes have sides."}],
		"interactiveElements": [],
		"quizzes": [
			{"type": "fill", "question": "A circle has __ corners", "correctAnswer": "0"}
		],
		"examContent": []
	}`)
	mt := lessonapi.NewMockTransport(
		lessonapi.MockResponse{Body: initBody},
		lessonapi.MockResponse{Body: emptyExamBody},
	)
	c := newTestController(t, mt, nil)

	var fire func()
	c.afterFunc = func(_ time.Duration, f func()) *time.Timer {
		fire = f
		return time.NewTimer(time.Hour)
	}

	startActive(t, c)
	ctx := context.Background()

	_, err := c.Submit(ctx, lesson.KindQuiz)
	require.NoError(t, err)
	c.SelectTab(ctx, TabExam)

	require.NotNil(t, fire)
	fire()

	s := c.State()
	assert.False(t, s.Exam.Submitted)
	assert.Empty(t, s.Notice)
}

func TestController_EndExportsWhenRefFallsBackToPath(t *testing.T) {
	// No lessonRef in the metadata: the session falls back to the lesson
	// path, which carries a separator the notes filename must not.
	bareInit := json.RawMessage(`{
		"success": true,
		"data": {"session_id": "sess-2", "lessonData": {}}
	}`)
	mt := lessonapi.NewMockTransport(
		lessonapi.MockResponse{Body: bareInit},
		lessonapi.MockResponse{Body: contentBody},
		lessonapi.MockResponse{Body: json.RawMessage(`{"noteContent": "Shapes recap."}`)},
		lessonapi.MockResponse{Body: ackBody},
	)
	c := newTestController(t, mt, nil)
	startActive(t, c)

	path, err := c.End(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Regexp(t, `lesson-notes-maths-2d-shapes-intro-\d{8}-\d{6}\.txt$`, path)
}

func TestController_EndNotesFailureKeepsSession(t *testing.T) {
	mt := lessonapi.NewMockTransport(
		lessonapi.MockResponse{Body: initBody},
		lessonapi.MockResponse{Body: contentBody},
		lessonapi.MockResponse{Err: serverError()},
	)
	c := newTestController(t, mt, nil)
	startActive(t, c)

	_, err := c.End(context.Background())
	require.Error(t, err)

	s := c.State()
	assert.Equal(t, PhaseActive, s.Phase, "a notes failure must not end the session")
	require.NotNil(t, s.Session)
	assert.NotEmpty(t, s.Notice)
}
