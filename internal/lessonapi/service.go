package lessonapi

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/uvieugono/lesson-platform-clean/internal/lesson"
)

// Backend endpoint paths. One logical path per remote capability, appended
// to the base URL by the transport.
const (
	endpointInitialize  = "initialize-lesson"
	endpointPause       = "pause-lesson"
	endpointResume      = "resume-lesson"
	endpointContent     = "lesson-content"
	endpointNotes       = "generate-notes"
	endpointInteraction = "process-interaction"
	endpointProgress    = "save-progress"
	endpointTutor       = "ai-tutor"
	endpointExam        = "get-exam"
)

// Service is the typed set of remote lesson operations. All calls go
// through the configured Transport, which owns retry and timeout policy.
type Service struct {
	transport    Transport
	tutorEnabled bool
	now          func() time.Time
}

// NewService creates a Service on top of the given transport.
func NewService(t Transport, cfg Config) *Service {
	return &Service{
		transport:    t,
		tutorEnabled: cfg.TutorEnabled,
		now:          time.Now,
	}
}

// TutorAvailable reports whether the AI tutor operation is available.
func (s *Service) TutorAvailable() bool { return s.tutorEnabled }

// envelope is the backend's standardized response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// InitializeResult is the outcome of a successful lesson initialization.
type InitializeResult struct {
	SessionID  string
	LessonData lesson.LessonData
}

// InitializeLesson starts a new session for the student and lesson path.
// The success envelope is schema-validated; a malformed envelope fails with
// a ProtocolError.
func (s *Service) InitializeLesson(ctx context.Context, studentID, lessonPath string) (*InitializeResult, error) {
	raw, err := s.transport.Do(ctx, endpointInitialize, map[string]any{
		"student_id":  studentID,
		"lesson_path": lessonPath,
	})
	if err != nil {
		return nil, err
	}

	if err := validateSchema("initialize-envelope", initializeEnvelopeSchema, raw); err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, protocolError(err)
	}
	if !env.Success {
		return nil, operationFailed(env.Message)
	}
	if len(env.Data) == 0 {
		return nil, protocolError(fmt.Errorf("initialize succeeded without data"))
	}

	var data struct {
		SessionID  string            `json:"session_id"`
		LessonData lesson.LessonData `json:"lessonData"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, protocolError(err)
	}

	return &InitializeResult{
		SessionID:  data.SessionID,
		LessonData: data.LessonData,
	}, nil
}

// PauseLesson records a pause with its reason and timestamp.
func (s *Service) PauseLesson(ctx context.Context, sessionID, reason string) error {
	_, err := s.transport.Do(ctx, endpointPause, map[string]any{
		"session_id": sessionID,
		"reason":     reason,
		"timestamp":  s.now().UTC().Format(time.RFC3339),
	})
	return err
}

// ResumeLesson records a resume.
func (s *Service) ResumeLesson(ctx context.Context, sessionID string) error {
	_, err := s.transport.Do(ctx, endpointResume, map[string]any{
		"session_id": sessionID,
		"timestamp":  s.now().UTC().Format(time.RFC3339),
	})
	return err
}

// FetchLessonContent retrieves the full content package for a lesson
// reference. The result replaces any previously fetched content wholesale.
func (s *Service) FetchLessonContent(ctx context.Context, studentID, lessonRef string) (*lesson.LessonContent, error) {
	raw, err := s.transport.Do(ctx, endpointContent, map[string]any{
		"student_id": studentID,
		"lesson_ref": lessonRef,
	})
	if err != nil {
		return nil, err
	}

	var content lesson.LessonContent
	if err := json.Unmarshal(unwrapData(raw), &content); err != nil {
		return nil, protocolError(err)
	}
	return &content, nil
}

// GenerateNotes asks the backend for the session's lesson notes and returns
// the note text.
func (s *Service) GenerateNotes(ctx context.Context, studentID, lessonRef string) (string, error) {
	raw, err := s.transport.Do(ctx, endpointNotes, map[string]any{
		"student_id": studentID,
		"lesson_ref": lessonRef,
	})
	if err != nil {
		return "", err
	}

	var notes struct {
		NoteContent string `json:"noteContent"`
	}
	if err := json.Unmarshal(unwrapData(raw), &notes); err != nil {
		return "", protocolError(err)
	}
	if notes.NoteContent == "" {
		return "", protocolError(fmt.Errorf("no note content in response"))
	}
	return notes.NoteContent, nil
}

// ProcessInteraction reports an interactive element event for analytics.
func (s *Service) ProcessInteraction(ctx context.Context, studentID, lessonRef string, interaction any) error {
	_, err := s.transport.Do(ctx, endpointInteraction, map[string]any{
		"student_id":       studentID,
		"lesson_ref":       lessonRef,
		"interaction_data": interaction,
	})
	return err
}

// SaveProgress persists the student's progress for this lesson.
func (s *Service) SaveProgress(ctx context.Context, studentID, lessonRef string, progress any) error {
	_, err := s.transport.Do(ctx, endpointProgress, map[string]any{
		"student_id":    studentID,
		"lesson_ref":    lessonRef,
		"progress_data": progress,
	})
	return err
}

// AskTutor sends a student question to the AI tutor and returns the
// explanation text.
func (s *Service) AskTutor(ctx context.Context, studentID, lessonRef, message string) (string, error) {
	raw, err := s.transport.Do(ctx, endpointTutor, map[string]any{
		"student_id": studentID,
		"message":    message,
		"lesson_ref": lessonRef,
	})
	if err != nil {
		return "", err
	}

	var reply struct {
		Explanation string `json:"explanation"`
	}
	if err := json.Unmarshal(unwrapData(raw), &reply); err != nil {
		return "", protocolError(err)
	}
	if reply.Explanation == "" {
		return "", protocolError(fmt.Errorf("no explanation in tutor response"))
	}
	return reply.Explanation, nil
}

// FetchExam retrieves the exam questions for an externally supplied exam ID.
func (s *Service) FetchExam(ctx context.Context, examID string) ([]lesson.Question, error) {
	raw, err := s.transport.Do(ctx, endpointExam, map[string]any{
		"exam_id": examID,
	})
	if err != nil {
		return nil, err
	}

	if err := validateSchema("exam-envelope", examEnvelopeSchema, raw); err != nil {
		return nil, err
	}

	var env struct {
		Success  bool              `json:"success"`
		Message  string            `json:"message"`
		ExamData []lesson.Question `json:"examData"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, protocolError(err)
	}
	if !env.Success {
		return nil, operationFailed(env.Message)
	}
	return env.ExamData, nil
}

// unwrapData returns the data field when the body is the standard envelope,
// or the body itself otherwise. Some backend endpoints respond enveloped
// and some respond bare; callers decode the payload either way.
func unwrapData(raw json.RawMessage) json.RawMessage {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return raw
	}
	if len(env.Data) > 0 {
		return env.Data
	}
	return raw
}

// operationFailed builds the error for an envelope with success=false.
func operationFailed(message string) *APIError {
	if message == "" {
		message = "An unexpected error occurred"
	}
	return &APIError{Kind: KindUnknown, Message: message}
}
