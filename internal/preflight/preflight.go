// Package preflight vets the worker's deployable artifact before any
// running instance is disturbed. A restart must never trade a healthy
// worker for a build that silently lost expected content, so validation
// runs strictly before termination and a failure aborts the session.
package preflight

import (
	"fmt"
	"os"
	"strings"
)

// Error reports required markers absent from the artifact.
type Error struct {
	Artifact string
	Missing  []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("artifact %s is missing required markers: %s",
		e.Artifact, strings.Join(e.Missing, ", "))
}

// Validate reads the artifact as text and checks that every required
// marker substring is present. Returns *Error listing all absent
// markers, or a wrapped read error if the artifact cannot be read.
func Validate(artifactPath string, required []string) error {
	b, err := os.ReadFile(artifactPath)
	if err != nil {
		return fmt.Errorf("read artifact: %w", err)
	}
	text := string(b)
	var missing []string
	for _, m := range required {
		if m == "" {
			continue
		}
		if !strings.Contains(text, m) {
			missing = append(missing, m)
		}
	}
	if len(missing) > 0 {
		return &Error{Artifact: artifactPath, Missing: missing}
	}
	return nil
}
