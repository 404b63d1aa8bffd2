package session

import (
	"time"

	"github.com/uvieugono/lesson-platform-clean/internal/screens/summary"
)

// startedMsg is sent when the start flow (initialize + content fetch) ends.
type startedMsg struct {
	Err error
}

// retriedMsg is sent when the retry affordance completes.
type retriedMsg struct {
	Err error
}

// tutorRepliedMsg is sent when a tutor send round-trip completes. The
// controller has already applied the reply or the failure notice.
type tutorRepliedMsg struct{}

// instructorSentMsg is sent when an instructor message round-trip completes.
type instructorSentMsg struct{}

// interactedMsg is sent when an element interaction report completes.
type interactedMsg struct{}

// pauseToggledMsg is sent when the pause round-trip completes.
type pauseToggledMsg struct{}

// submittedMsg is sent when an assessment submission completes.
type submittedMsg struct {
	Err error
}

// endedMsg is sent when the end flow completes. Path is the exported notes
// file on success. Scores are snapshotted before the controller resets.
type endedMsg struct {
	Path   string
	Scores summary.Scores
	Err    error
}

// tickMsg drives the exam countdown display.
type tickMsg time.Time
