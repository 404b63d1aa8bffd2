package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// exportNotes writes the generated note content to a timestamped text file
// in dir and returns the file path.
func exportNotes(dir, lessonRef, content string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create notes directory: %w", err)
	}

	name := fmt.Sprintf("lesson-notes-%s-%s.txt", sanitizeRef(lessonRef), now.Format("20060102-150405"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write notes file: %w", err)
	}
	return path, nil
}

// sanitizeRef makes a lesson reference safe for use in a filename. Refs that
// fall back to the lesson path can carry separators like "maths/fractions".
func sanitizeRef(ref string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':':
			return '-'
		}
		return r
	}, ref)
}
