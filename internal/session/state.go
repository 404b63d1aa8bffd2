// Package session implements the lesson session state machine. The
// controller owns all in-memory session state and orchestrates calls into
// the backend service and the scoring engine; the presentation layer only
// observes snapshots and issues intents.
package session

import (
	"time"

	"github.com/uvieugono/lesson-platform-clean/internal/lesson"
	"github.com/uvieugono/lesson-platform-clean/internal/lessonapi"
)

// Phase is the coarse lifecycle phase of the controller.
type Phase int

const (
	PhaseNotStarted Phase = iota // No session yet
	PhaseLoading                 // initialize in flight
	PhaseActive                  // Session established, lesson usable
	PhaseError                   // Last fatal action failed, retry exposed
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not_started"
	case PhaseLoading:
		return "loading"
	case PhaseActive:
		return "active"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// Tab identifies one of the four lesson views.
type Tab string

const (
	TabLesson Tab = "lesson"
	TabQuiz   Tab = "quiz"
	TabExam   Tab = "exam"
	TabTutor  Tab = "tutor"
)

// Thread identifies a chat thread.
type Thread string

const (
	ThreadTutor      Thread = "tutor"
	ThreadInstructor Thread = "instructor"
)

// ChatRole is the author of a chat message.
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatMessage is one entry in a chat thread. Threads are append-only.
type ChatMessage struct {
	Role    ChatRole
	Content string
}

// SubmissionState tracks one gradable activity (quiz or exam).
type SubmissionState struct {
	// Responses maps response keys ("quiz-0", "exam-2") to submitted
	// answers. Read-only once Submitted is set.
	Responses map[string]string

	// Submitted locks the responses and guards against re-scoring.
	Submitted bool

	// Score is the rounded percentage, valid only when Submitted.
	Score int
}

func newSubmissionState() *SubmissionState {
	return &SubmissionState{Responses: make(map[string]string)}
}

func (s *SubmissionState) snapshot() SubmissionState {
	out := SubmissionState{
		Responses: make(map[string]string, len(s.Responses)),
		Submitted: s.Submitted,
		Score:     s.Score,
	}
	for k, v := range s.Responses {
		out.Responses[k] = v
	}
	return out
}

// State is an observable snapshot of the controller. All reference types
// are copies; mutating a snapshot never affects the controller.
type State struct {
	Phase      Phase
	ActiveTab  Tab
	IsPaused   bool
	ExamActive bool

	// LessonCompleted is set once the quiz has been submitted.
	LessonCompleted bool

	// Err is the classified error behind PhaseError, nil otherwise.
	Err *lessonapi.APIError

	// Notice is a dismissible transient alert, empty when none is pending.
	Notice string

	Session    *lesson.Session
	LessonData *lesson.LessonData
	Content    *lesson.LessonContent

	Quiz SubmissionState
	Exam SubmissionState

	TutorThread      []ChatMessage
	InstructorThread []ChatMessage

	// TutorRemaining is the number of tutor messages left in the quota.
	TutorRemaining int

	// ExamTimeLeft is the remaining countdown while the exam timer runs.
	ExamTimeLeft time.Duration

	// ExamDuration is the full countdown length, for rendering remaining
	// time as a fraction.
	ExamDuration time.Duration

	// ExamCountdownRunning reports whether the exam timer is active.
	ExamCountdownRunning bool
}
