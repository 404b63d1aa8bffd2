package lesson

import (
	"encoding/json"
	"testing"
)

func TestInteractiveElement_UnmarshalGraph(t *testing.T) {
	raw := `{"type":"graph","title":"Sample Graph","data":[{"x":1,"y":10},{"x":2,"y":20}]}`

	var e InteractiveElement
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Kind != ElementGraph {
		t.Fatalf("expected graph, got %q", e.Kind)
	}
	if e.Graph == nil || len(e.Graph.Points) != 2 {
		t.Fatalf("expected 2 points, got %+v", e.Graph)
	}
	if e.Graph.Points[1].Y != 20 {
		t.Fatalf("expected y=20, got %v", e.Graph.Points[1].Y)
	}
}

func TestInteractiveElement_UnmarshalAnimation(t *testing.T) {
	raw := `{"type":"animation","title":"Spin","animationConfig":{"x":100,"y":0,"rotate":360,"duration":2}}`

	var e InteractiveElement
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Kind != ElementAnimation {
		t.Fatalf("expected animation, got %q", e.Kind)
	}
	if e.Animation == nil || e.Animation.Rotate != 360 {
		t.Fatalf("unexpected animation config: %+v", e.Animation)
	}
}

func TestInteractiveElement_UnmarshalFlashcards(t *testing.T) {
	raw := `{"type":"flashcard","flashcards":[{"front":"What is 2 + 2?","back":"4"}]}`

	var e InteractiveElement
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Flashcard == nil || len(e.Flashcard.Cards) != 1 {
		t.Fatalf("expected 1 card, got %+v", e.Flashcard)
	}
	if e.Flashcard.Cards[0].Back != "4" {
		t.Fatalf("unexpected card: %+v", e.Flashcard.Cards[0])
	}
}

func TestInteractiveElement_UnknownTypeRejected(t *testing.T) {
	raw := `{"type":"hologram","title":"Future"}`

	var e InteractiveElement
	if err := json.Unmarshal([]byte(raw), &e); err == nil {
		t.Fatal("expected error for unknown element type")
	}
}

func TestInteractiveElement_RoundTrip(t *testing.T) {
	orig := InteractiveElement{
		Kind:  ElementText,
		Title: "Sample Text",
		Text:  &TextContent{Content: "This is a sample text content."},
	}

	b, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got InteractiveElement
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Text == nil || got.Text.Content != orig.Text.Content {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestLessonContent_Unmarshal(t *testing.T) {
	raw := `{
		"generatedContent": [{"content": "Welcome to the lesson!"}],
		"interactiveElements": [{"type": "text", "content": "hi"}],
		"quizzes": [
			{"type": "multiple-choice", "question": "2+2?", "options": ["3","4"], "correctAnswer": "4"}
		],
		"examContent": []
	}`

	var c LessonContent
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.GeneratedContent) != 1 || len(c.Quizzes) != 1 {
		t.Fatalf("unexpected content: %+v", c)
	}
	if c.Quizzes[0].Type != QuestionMultipleChoice {
		t.Fatalf("unexpected question type: %q", c.Quizzes[0].Type)
	}
}

func TestResponseKey(t *testing.T) {
	if got := KindQuiz.ResponseKey(0); got != "quiz-0" {
		t.Fatalf("expected quiz-0, got %q", got)
	}
	if got := KindExam.ResponseKey(3); got != "exam-3" {
		t.Fatalf("expected exam-3, got %q", got)
	}
}
