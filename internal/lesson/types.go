package lesson

import (
	"encoding/json"
	"fmt"
	"time"
)

// Session is the server-acknowledged instance of a student engaging with
// one lesson reference. It exists only for the lifetime of the lesson and
// is immutable once created; pause state is tracked by the controller.
type Session struct {
	SessionID string
	StudentID string
	LessonRef string
	StartedAt time.Time
}

// LessonData is the lesson metadata returned by initialize. Only the
// fields the controller needs are decoded; the backend sends more.
type LessonData struct {
	LessonRef string `json:"lessonRef"`
	Subject   string `json:"subject,omitempty"`
	Grade     string `json:"grade,omitempty"`
}

// AssessmentKind identifies one of the two gradable activities.
type AssessmentKind string

const (
	KindQuiz AssessmentKind = "quiz"
	KindExam AssessmentKind = "exam"
)

// ResponseKey returns the response-map key for question i of this kind,
// e.g. "quiz-0". The key format matches the backend's analytics payloads.
func (k AssessmentKind) ResponseKey(i int) string {
	return fmt.Sprintf("%s-%d", k, i)
}

// QuestionType enumerates the supported question formats.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple-choice"
	QuestionFillGap        QuestionType = "fill"
	QuestionFreeForm       QuestionType = "free-form"
)

// Question is a single quiz or exam question.
type Question struct {
	Type          QuestionType `json:"type"`
	Prompt        string       `json:"question"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correctAnswer"`
}

// ContentBlock is one unit of generated lesson prose.
type ContentBlock struct {
	Content string `json:"content"`
}

// LessonContent is the full content package for one lesson reference.
// It is fetched once per session and replaced wholesale on re-fetch.
type LessonContent struct {
	GeneratedContent    []ContentBlock       `json:"generatedContent"`
	InteractiveElements []InteractiveElement `json:"interactiveElements"`
	Quizzes             []Question           `json:"quizzes"`
	ExamContent         []Question           `json:"examContent"`
}

// ElementKind tags the interactive element variants.
type ElementKind string

const (
	ElementGraph     ElementKind = "graph"
	ElementAnimation ElementKind = "animation"
	ElementFlashcard ElementKind = "flashcard"
	ElementText      ElementKind = "text"
)

// InteractiveElement is a tagged variant over the renderable element types.
// The core only dispatches by Kind; element payloads are passed through to
// the presentation layer untouched.
type InteractiveElement struct {
	Kind  ElementKind
	Title string

	// Exactly one of the following is non-nil, matching Kind.
	Graph     *GraphData
	Animation *AnimationConfig
	Flashcard *FlashcardDeck
	Text      *TextContent
}

// GraphData is a point series for a line graph.
type GraphData struct {
	Points []Point `json:"data"`
}

// Point is one (x, y) sample.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// AnimationConfig carries the animation parameters.
type AnimationConfig struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotate   float64 `json:"rotate"`
	Duration float64 `json:"duration"`
}

// FlashcardDeck is an ordered set of front/back card pairs.
type FlashcardDeck struct {
	Cards []Flashcard `json:"flashcards"`
}

// Flashcard is one front/back pair.
type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// TextContent is a plain text element.
type TextContent struct {
	Content string `json:"content"`
}

// rawElement mirrors the wire shape of an interactive element before
// variant dispatch.
type rawElement struct {
	Type            string          `json:"type"`
	Title           string          `json:"title"`
	Data            []Point         `json:"data"`
	AnimationConfig json.RawMessage `json:"animationConfig"`
	Flashcards      []Flashcard     `json:"flashcards"`
	Content         string          `json:"content"`
}

// UnmarshalJSON dispatches on the "type" tag. Unknown tags are rejected so
// that a backend contract change surfaces as a parse error rather than a
// silently dropped element.
func (e *InteractiveElement) UnmarshalJSON(b []byte) error {
	var raw rawElement
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	e.Kind = ElementKind(raw.Type)
	e.Title = raw.Title

	switch e.Kind {
	case ElementGraph:
		e.Graph = &GraphData{Points: raw.Data}
	case ElementAnimation:
		var cfg AnimationConfig
		if len(raw.AnimationConfig) > 0 {
			if err := json.Unmarshal(raw.AnimationConfig, &cfg); err != nil {
				return fmt.Errorf("animation config: %w", err)
			}
		}
		e.Animation = &cfg
	case ElementFlashcard:
		e.Flashcard = &FlashcardDeck{Cards: raw.Flashcards}
	case ElementText:
		e.Text = &TextContent{Content: raw.Content}
	default:
		return fmt.Errorf("unknown interactive element type %q", raw.Type)
	}

	return nil
}

// MarshalJSON writes the element back in its wire shape.
func (e InteractiveElement) MarshalJSON() ([]byte, error) {
	raw := rawElement{Type: string(e.Kind), Title: e.Title}

	switch e.Kind {
	case ElementGraph:
		if e.Graph != nil {
			raw.Data = e.Graph.Points
		}
	case ElementAnimation:
		if e.Animation != nil {
			cfg, err := json.Marshal(e.Animation)
			if err != nil {
				return nil, err
			}
			raw.AnimationConfig = cfg
		}
	case ElementFlashcard:
		if e.Flashcard != nil {
			raw.Flashcards = e.Flashcard.Cards
		}
	case ElementText:
		if e.Text != nil {
			raw.Content = e.Text.Content
		}
	default:
		return nil, fmt.Errorf("unknown interactive element type %q", e.Kind)
	}

	return json.Marshal(raw)
}
