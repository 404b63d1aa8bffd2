package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/uvieugono/lesson-platform-clean/internal/lesson"
	"github.com/uvieugono/lesson-platform-clean/internal/lessonapi"
	"github.com/uvieugono/lesson-platform-clean/internal/scoring"
	"github.com/uvieugono/lesson-platform-clean/internal/store"
)

const (
	defaultExamDuration = 60 * time.Second
	defaultTutorQuota   = 10
)

// Options configures a Controller.
type Options struct {
	// Service performs the remote lesson operations. Required.
	Service *lessonapi.Service

	// Events receives session analytics events. Defaults to a no-op.
	Events store.EventRecorder

	// Logger defaults to a no-op logger.
	Logger *zap.Logger

	// StudentID identifies the student on every backend call. Required.
	StudentID string

	// NotesDir is the directory lesson notes are exported to. Defaults to
	// the current directory.
	NotesDir string

	// ExamDuration is the exam countdown length. Defaults to 60s.
	ExamDuration time.Duration

	// TutorQuota is the per-session tutor message allowance. Defaults to 10.
	TutorQuota int
}

// Controller is the session state machine. All exported methods are safe
// for concurrent use. The mutex guards only in-memory state: every network
// call runs with the lock released, so reads and other actions never wait
// on an in-flight request, and a late-arriving result is applied (or
// dropped, after teardown) when the call returns.
type Controller struct {
	mu     sync.Mutex
	svc    *lessonapi.Service
	events store.EventRecorder
	log    *zap.Logger

	studentID    string
	notesDir     string
	examDuration time.Duration
	tutorQuota   int

	phase           Phase
	activeTab       Tab
	isPaused        bool
	examActive      bool
	lessonCompleted bool
	lastErr         *lessonapi.APIError
	notice          string

	session    *lesson.Session
	lessonData *lesson.LessonData
	content    *lesson.LessonContent

	submissions map[lesson.AssessmentKind]*SubmissionState
	threads     map[Thread][]ChatMessage

	tutorRemaining int

	// lastLessonPath is kept so the retry affordance can re-invoke start
	// with the same lesson identifier.
	lastLessonPath string

	examTimer    *time.Timer
	examDeadline time.Time

	// Injection points for tests.
	now       func() time.Time
	afterFunc func(time.Duration, func()) *time.Timer
}

// New creates a Controller in the NotStarted phase.
func New(opts Options) *Controller {
	if opts.Events == nil {
		opts.Events = store.NopRecorder{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.NotesDir == "" {
		opts.NotesDir = "."
	}
	if opts.ExamDuration <= 0 {
		opts.ExamDuration = defaultExamDuration
	}
	if opts.TutorQuota <= 0 {
		opts.TutorQuota = defaultTutorQuota
	}

	return &Controller{
		svc:          opts.Service,
		events:       opts.Events,
		log:          opts.Logger,
		studentID:    opts.StudentID,
		notesDir:     opts.NotesDir,
		examDuration: opts.ExamDuration,
		tutorQuota:   opts.TutorQuota,

		phase:     PhaseNotStarted,
		activeTab: TabLesson,
		submissions: map[lesson.AssessmentKind]*SubmissionState{
			lesson.KindQuiz: newSubmissionState(),
			lesson.KindExam: newSubmissionState(),
		},
		threads: map[Thread][]ChatMessage{
			ThreadTutor:      nil,
			ThreadInstructor: nil,
		},
		tutorRemaining: opts.TutorQuota,

		now:       time.Now,
		afterFunc: time.AfterFunc,
	}
}

// Start initializes a new session for the lesson path, then fetches the
// lesson content. A failure of either step is session-fatal: the controller
// moves to PhaseError and Retry re-attempts the failed step.
func (c *Controller) Start(ctx context.Context, lessonPath string) error {
	c.mu.Lock()
	if c.phase == PhaseActive || c.phase == PhaseLoading {
		c.mu.Unlock()
		return &PreconditionError{Action: "start", Requires: "no session in progress"}
	}
	c.phase = PhaseLoading
	c.lastErr = nil
	c.lastLessonPath = lessonPath
	c.mu.Unlock()

	res, err := c.svc.InitializeLesson(ctx, c.studentID, lessonPath)
	if err != nil {
		c.failFatal(ctx, "start", err)
		return err
	}

	lessonRef := res.LessonData.LessonRef
	if lessonRef == "" {
		lessonRef = lessonPath
	}

	c.mu.Lock()
	c.session = &lesson.Session{
		SessionID: res.SessionID,
		StudentID: c.studentID,
		LessonRef: lessonRef,
		StartedAt: c.now(),
	}
	data := res.LessonData
	c.lessonData = &data
	c.phase = PhaseActive
	c.activeTab = TabLesson
	sessionID := c.session.SessionID
	c.mu.Unlock()

	c.record(ctx, sessionID, store.EventSessionStarted, map[string]any{
		"lesson_ref": lessonRef,
	})

	return c.fetchContent(ctx)
}

// Retry re-invokes the step behind the current Error phase: initialize if
// no session exists yet, otherwise the content fetch for the same lesson
// reference.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	if c.phase != PhaseError {
		c.mu.Unlock()
		return &PreconditionError{Action: "retry", Requires: "a failed session action"}
	}
	if c.session == nil {
		path := c.lastLessonPath
		c.phase = PhaseNotStarted
		c.mu.Unlock()
		return c.Start(ctx, path)
	}
	c.mu.Unlock()
	return c.fetchContent(ctx)
}

// fetchContent loads the lesson content package. The fetch runs unlocked;
// if the session was torn down or replaced while it was in flight, the
// result is dropped.
func (c *Controller) fetchContent(ctx context.Context) error {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return &PreconditionError{Action: "fetch content", Requires: "an initialized session"}
	}
	sessionID := c.session.SessionID
	lessonRef := c.session.LessonRef
	c.mu.Unlock()

	content, err := c.svc.FetchLessonContent(ctx, c.studentID, lessonRef)
	if err != nil {
		c.failFatal(ctx, "fetch content", err)
		return err
	}

	c.mu.Lock()
	if c.session == nil || c.session.SessionID != sessionID {
		c.mu.Unlock()
		return nil
	}
	c.content = content
	c.phase = PhaseActive
	c.lastErr = nil
	c.mu.Unlock()

	c.record(ctx, sessionID, store.EventContentLoaded, map[string]any{
		"blocks":   len(content.GeneratedContent),
		"elements": len(content.InteractiveElements),
		"quizzes":  len(content.Quizzes),
	})
	return nil
}

// SelectTab switches the active tab. Selecting the exam tab is a no-op
// until the exam has been unlocked; entering it starts the countdown and
// leaving it stops the countdown.
func (c *Controller) SelectTab(ctx context.Context, tab Tab) {
	c.mu.Lock()
	if tab == TabExam && !c.examActive {
		c.mu.Unlock()
		return
	}
	if tab == c.activeTab {
		c.mu.Unlock()
		return
	}

	if c.activeTab == TabExam {
		c.stopExamTimerLocked()
	}
	c.activeTab = tab
	if tab == TabExam && !c.submissions[lesson.KindExam].Submitted {
		c.startExamTimerLocked()
	}
	sessionID := c.sessionIDLocked()
	c.mu.Unlock()

	c.record(ctx, sessionID, store.EventTabSelected, map[string]any{"tab": string(tab)})
}

// TogglePause flips the pause flag and reports the change to the backend.
// Pausing is a display-level gate: it never cancels in-flight requests or
// resets quiz/chat state, and a remote failure only raises a notice.
func (c *Controller) TogglePause(ctx context.Context) {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return
	}
	c.isPaused = !c.isPaused
	paused := c.isPaused
	sessionID := c.session.SessionID
	c.mu.Unlock()

	if paused {
		c.record(ctx, sessionID, store.EventPaused, nil)
		if err := c.svc.PauseLesson(ctx, sessionID, "student_paused"); err != nil {
			c.failTransient(ctx, "pause", err)
		}
	} else {
		c.record(ctx, sessionID, store.EventResumed, nil)
		if err := c.svc.ResumeLesson(ctx, sessionID); err != nil {
			c.failTransient(ctx, "resume", err)
		}
	}
}

// SetResponse records an answer for one question of the given assessment.
// Responses are locked once the assessment is submitted.
func (c *Controller) SetResponse(kind lesson.AssessmentKind, index int, answer string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.content == nil {
		return &PreconditionError{Action: "set response", Requires: "loaded lesson content"}
	}
	sub := c.submissions[kind]
	if sub.Submitted {
		return &PreconditionError{Action: "set response", Requires: "an unsubmitted " + string(kind)}
	}

	sub.Responses[kind.ResponseKey(index)] = answer
	return nil
}

// Submit locks and scores the responses for one assessment kind. It is
// idempotent: a second call returns the stored score without re-scoring.
// Submitting the quiz marks the lesson completed and unlocks the exam;
// submitting the exam stops the countdown.
func (c *Controller) Submit(ctx context.Context, kind lesson.AssessmentKind) (int, error) {
	c.mu.Lock()
	score, already, err := c.submitLocked(kind)
	sessionID := c.sessionIDLocked()
	c.mu.Unlock()

	if err != nil {
		return 0, err
	}
	if !already {
		c.record(ctx, sessionID, store.EventSubmitted, map[string]any{
			"kind":  string(kind),
			"score": score,
		})
	}
	return score, nil
}

// submitLocked scores one assessment. Callers hold c.mu. The second return
// reports whether the assessment had already been submitted.
func (c *Controller) submitLocked(kind lesson.AssessmentKind) (int, bool, error) {
	if c.content == nil {
		return 0, false, &PreconditionError{Action: "submit", Requires: "loaded lesson content"}
	}

	sub := c.submissions[kind]
	if sub.Submitted {
		return sub.Score, true, nil
	}

	questions := c.content.Quizzes
	if kind == lesson.KindExam {
		questions = c.content.ExamContent
	}

	score, err := scoring.Score(kind, questions, sub.Responses)
	if err != nil {
		return 0, false, err
	}

	sub.Submitted = true
	sub.Score = score

	switch kind {
	case lesson.KindQuiz:
		c.lessonCompleted = true
		c.examActive = true
	case lesson.KindExam:
		c.stopExamTimerLocked()
	}

	return score, false, nil
}

// SendMessage appends a user message to the thread and requests a reply.
// Blank messages are ignored; tutor messages are ignored once the quota is
// exhausted or when the tutor capability is disabled. A remote failure
// raises a notice without touching the rest of the session. The reply is
// append-only and tab-independent: a late reply is still applied after the
// user has switched away, and only dropped if the session ended meanwhile.
func (c *Controller) SendMessage(ctx context.Context, thread Thread, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	c.mu.Lock()
	if c.lessonData == nil {
		c.mu.Unlock()
		return &PreconditionError{Action: "send message", Requires: "loaded lesson data"}
	}
	if thread == ThreadTutor {
		if c.tutorRemaining <= 0 {
			c.mu.Unlock()
			return nil
		}
		if !c.svc.TutorAvailable() {
			c.mu.Unlock()
			c.log.Debug("tutor disabled, message dropped")
			return nil
		}
		c.tutorRemaining--
	}
	c.threads[thread] = append(c.threads[thread], ChatMessage{Role: RoleUser, Content: text})
	sessionID := c.session.SessionID
	lessonRef := c.session.LessonRef
	c.mu.Unlock()

	c.record(ctx, sessionID, store.EventChatMessage, map[string]any{
		"thread": string(thread),
		"role":   string(RoleUser),
	})

	switch thread {
	case ThreadTutor:
		reply, err := c.svc.AskTutor(ctx, c.studentID, lessonRef, text)
		if err != nil {
			c.failTransient(ctx, "tutor message", err)
			return nil
		}
		c.mu.Lock()
		if c.lessonData == nil {
			// Session ended while the reply was in flight; no-op apply.
			c.mu.Unlock()
			return nil
		}
		c.threads[thread] = append(c.threads[thread], ChatMessage{Role: RoleAssistant, Content: reply})
		c.mu.Unlock()
		c.record(ctx, sessionID, store.EventChatMessage, map[string]any{
			"thread": string(thread),
			"role":   string(RoleAssistant),
		})
	case ThreadInstructor:
		err := c.svc.ProcessInteraction(ctx, c.studentID, lessonRef, map[string]any{
			"interaction_id": uuid.NewString(),
			"type":           "instructor_message",
			"message":        text,
		})
		if err != nil {
			c.failTransient(ctx, "instructor message", err)
		}
	}
	return nil
}

// RecordInteraction reports engagement with an interactive element. It is
// best-effort: failures are logged and never surfaced to the student.
func (c *Controller) RecordInteraction(ctx context.Context, kind lesson.ElementKind, action string) {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return
	}
	lessonRef := c.session.LessonRef
	c.mu.Unlock()

	err := c.svc.ProcessInteraction(ctx, c.studentID, lessonRef, map[string]any{
		"interaction_id": uuid.NewString(),
		"element_type":   string(kind),
		"action":         action,
	})
	if err != nil {
		c.log.Debug("interaction report failed", zap.Error(err))
	}
}

// LoadExam fetches exam questions for an externally supplied exam ID and
// unlocks the exam tab. This is the second unlock path next to quiz
// completion.
func (c *Controller) LoadExam(ctx context.Context, examID string) error {
	c.mu.Lock()
	if c.content == nil {
		c.mu.Unlock()
		return &PreconditionError{Action: "load exam", Requires: "loaded lesson content"}
	}
	c.mu.Unlock()

	questions, err := c.svc.FetchExam(ctx, examID)
	if err != nil {
		c.failTransient(ctx, "load exam", err)
		return err
	}

	c.mu.Lock()
	if c.content != nil {
		c.content.ExamContent = questions
		c.examActive = true
	}
	c.mu.Unlock()
	return nil
}

// End generates and exports the lesson notes, saves progress, and tears the
// session down. A notes failure raises a notice and keeps the session alive
// so no progress is lost. On success it returns the exported notes path.
func (c *Controller) End(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.lessonData == nil {
		c.mu.Unlock()
		return "", &PreconditionError{Action: "end", Requires: "loaded lesson data"}
	}
	sessionID := c.session.SessionID
	lessonRef := c.session.LessonRef
	c.mu.Unlock()

	notes, err := c.svc.GenerateNotes(ctx, c.studentID, lessonRef)
	if err != nil {
		c.failTransient(ctx, "generate notes", err)
		return "", err
	}

	path, err := exportNotes(c.notesDir, lessonRef, notes, c.now())
	if err != nil {
		c.mu.Lock()
		c.notice = "Could not save lesson notes: " + err.Error()
		c.mu.Unlock()
		return "", err
	}

	c.mu.Lock()
	if c.session == nil || c.session.SessionID != sessionID {
		// Torn down while the notes were generating.
		c.mu.Unlock()
		return path, nil
	}
	progress := c.progressLocked()
	quizSubmitted := c.submissions[lesson.KindQuiz].Submitted
	examSubmitted := c.submissions[lesson.KindExam].Submitted
	c.resetLocked()
	c.mu.Unlock()

	if err := c.svc.SaveProgress(ctx, c.studentID, lessonRef, progress); err != nil {
		c.log.Warn("progress save failed", zap.Error(err))
	}
	c.record(ctx, sessionID, store.EventSessionEnded, map[string]any{
		"quiz_submitted": quizSubmitted,
		"exam_submitted": examSubmitted,
	})
	return path, nil
}

// progressLocked builds the save-progress payload. Callers hold c.mu.
func (c *Controller) progressLocked() map[string]any {
	p := map[string]any{
		"completed":        c.lessonCompleted,
		"duration_seconds": int(c.now().Sub(c.session.StartedAt).Seconds()),
		"tutor_messages":   c.tutorQuota - c.tutorRemaining,
	}
	if quiz := c.submissions[lesson.KindQuiz]; quiz.Submitted {
		p["quiz_score"] = quiz.Score
	}
	if exam := c.submissions[lesson.KindExam]; exam.Submitted {
		p["exam_score"] = exam.Score
	}
	return p
}

// resetLocked returns the controller to a fresh NotStarted state.
func (c *Controller) resetLocked() {
	c.stopExamTimerLocked()
	c.phase = PhaseNotStarted
	c.activeTab = TabLesson
	c.isPaused = false
	c.examActive = false
	c.lessonCompleted = false
	c.lastErr = nil
	c.notice = ""
	c.session = nil
	c.lessonData = nil
	c.content = nil
	c.submissions = map[lesson.AssessmentKind]*SubmissionState{
		lesson.KindQuiz: newSubmissionState(),
		lesson.KindExam: newSubmissionState(),
	}
	c.threads = map[Thread][]ChatMessage{
		ThreadTutor:      nil,
		ThreadInstructor: nil,
	}
	c.tutorRemaining = c.tutorQuota
}

// DismissNotice clears the pending transient alert.
func (c *Controller) DismissNotice() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notice = ""
}

// State returns an observable snapshot of the controller. It only reads
// in-memory state and never waits on an in-flight network call.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := State{
		Phase:           c.phase,
		ActiveTab:       c.activeTab,
		IsPaused:        c.isPaused,
		ExamActive:      c.examActive,
		LessonCompleted: c.lessonCompleted,
		Err:             c.lastErr,
		Notice:          c.notice,
		Quiz:            c.submissions[lesson.KindQuiz].snapshot(),
		Exam:            c.submissions[lesson.KindExam].snapshot(),
		TutorRemaining:  c.tutorRemaining,
		ExamDuration:    c.examDuration,
	}
	if c.session != nil {
		sess := *c.session
		s.Session = &sess
	}
	if c.lessonData != nil {
		data := *c.lessonData
		s.LessonData = &data
	}
	s.Content = c.content
	s.TutorThread = append([]ChatMessage(nil), c.threads[ThreadTutor]...)
	s.InstructorThread = append([]ChatMessage(nil), c.threads[ThreadInstructor]...)
	if c.examTimer != nil {
		s.ExamCountdownRunning = true
		if left := c.examDeadline.Sub(c.now()); left > 0 {
			s.ExamTimeLeft = left
		}
	}
	return s
}

// startExamTimerLocked arms a fresh full-length countdown. Callers hold
// c.mu.
func (c *Controller) startExamTimerLocked() {
	c.stopExamTimerLocked()
	c.examDeadline = c.now().Add(c.examDuration)
	c.examTimer = c.afterFunc(c.examDuration, c.expireExam)
}

func (c *Controller) stopExamTimerLocked() {
	if c.examTimer != nil {
		c.examTimer.Stop()
		c.examTimer = nil
	}
}

// expireExam auto-submits the exam when the countdown reaches zero, scoring
// whatever responses exist at that moment. The notice is only shown when a
// submission actually happened.
func (c *Controller) expireExam() {
	c.mu.Lock()
	c.examTimer = nil
	if c.content == nil || c.submissions[lesson.KindExam].Submitted {
		c.mu.Unlock()
		return
	}
	score, _, err := c.submitLocked(lesson.KindExam)
	if err == nil {
		c.notice = "Time is up - your exam was submitted automatically"
	}
	sessionID := c.sessionIDLocked()
	c.mu.Unlock()

	if err != nil {
		c.log.Warn("exam auto-submit failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c.record(ctx, sessionID, store.EventSubmitted, map[string]any{
		"kind":  string(lesson.KindExam),
		"score": score,
	})
}

// failFatal records a session-fatal failure and moves the controller to
// PhaseError. The session itself is kept so retry can resume from the
// failed step.
func (c *Controller) failFatal(ctx context.Context, action string, err error) {
	apiErr := asAPIError(err)

	c.mu.Lock()
	c.phase = PhaseError
	c.lastErr = apiErr
	sessionID := c.sessionIDLocked()
	c.mu.Unlock()

	c.log.Error("session action failed",
		zap.String("action", action),
		zap.String("kind", string(apiErr.Kind)),
		zap.Error(err),
	)
	c.recordFailure(ctx, sessionID, action, apiErr)
}

// failTransient records a non-fatal failure as a dismissible notice without
// changing phase.
func (c *Controller) failTransient(ctx context.Context, action string, err error) {
	apiErr := asAPIError(err)

	c.mu.Lock()
	c.notice = apiErr.Message
	if c.notice == "" {
		c.notice = "Something went wrong - please try again"
	}
	sessionID := c.sessionIDLocked()
	c.mu.Unlock()

	c.log.Warn("session action failed",
		zap.String("action", action),
		zap.String("kind", string(apiErr.Kind)),
		zap.Error(err),
	)
	c.recordFailure(ctx, sessionID, action, apiErr)
}

func (c *Controller) recordFailure(ctx context.Context, sessionID, action string, apiErr *lessonapi.APIError) {
	if err := c.events.Record(ctx, sessionID, store.EventAPIFailure, map[string]any{
		"action": action,
		"kind":   string(apiErr.Kind),
		"status": apiErr.Status,
	}); err != nil {
		c.log.Debug("event record failed", zap.Error(err))
	}
}

// record appends an analytics event. Recording is best-effort.
func (c *Controller) record(ctx context.Context, sessionID, eventType string, payload map[string]any) {
	if err := c.events.Record(ctx, sessionID, eventType, payload); err != nil {
		c.log.Debug("event record failed", zap.Error(err))
	}
}

// sessionIDLocked returns the current session ID or "". Callers hold c.mu.
func (c *Controller) sessionIDLocked() string {
	if c.session == nil {
		return ""
	}
	return c.session.SessionID
}

// asAPIError normalizes any error into a classified APIError so the
// presentation layer always has a displayable kind and message.
func asAPIError(err error) *lessonapi.APIError {
	var apiErr *lessonapi.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return &lessonapi.APIError{
		Kind:    lessonapi.KindUnknown,
		Message: "An unexpected error occurred",
		Err:     err,
	}
}
