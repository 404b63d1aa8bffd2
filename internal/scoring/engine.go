// Package scoring grades submitted answers against question keys for the
// quiz and exam assessments.
package scoring

import (
	"errors"
	"math"
	"strings"

	"github.com/uvieugono/lesson-platform-clean/internal/lesson"
)

// ErrNoQuestions is returned when scoring is attempted with zero questions.
// Scoring an empty assessment is a caller bug, not a zero score.
var ErrNoQuestions = errors.New("cannot score an assessment with no questions")

// Score grades the responses for one assessment kind and returns the
// percentage of correct answers, rounded to the nearest integer.
//
// Multiple-choice and fill-gap answers count iff the submitted value equals
// the correct answer exactly (case-sensitive; answers are neither trimmed
// nor normalized, matching the backend's option values verbatim). Free-form
// answers earn attempt credit when non-empty after trimming; they are never
// semantically graded here.
func Score(kind lesson.AssessmentKind, questions []lesson.Question, responses map[string]string) (int, error) {
	if len(questions) == 0 {
		return 0, ErrNoQuestions
	}

	correct := 0
	for i, q := range questions {
		submitted, ok := responses[kind.ResponseKey(i)]
		if !ok {
			continue
		}

		switch q.Type {
		case lesson.QuestionMultipleChoice, lesson.QuestionFillGap:
			if submitted == q.CorrectAnswer {
				correct++
			}
		case lesson.QuestionFreeForm:
			if strings.TrimSpace(submitted) != "" {
				correct++
			}
		}
	}

	return int(math.Round(float64(correct) / float64(len(questions)) * 100)), nil
}
