package preflight

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArtifact(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "main.py")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestValidateAllMarkersPresent(t *testing.T) {
	p := writeArtifact(t, `CONTENT = {"faq": ..., "contacts": ..., "start_launch": ...}`)
	err := Validate(p, []string{"faq", "contacts", "start_launch"})
	assert.NoError(t, err)
}

func TestValidateReportsEveryMissingMarker(t *testing.T) {
	p := writeArtifact(t, "only faq here")
	err := Validate(p, []string{"faq", "contacts", "start_launch"})
	require.Error(t, err)
	var pe *Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, []string{"contacts", "start_launch"}, pe.Missing)
	assert.Contains(t, pe.Error(), "contacts")
}

func TestValidateEmptyMarkerIgnored(t *testing.T) {
	p := writeArtifact(t, "anything")
	assert.NoError(t, Validate(p, []string{"", "anything"}))
}

func TestValidateUnreadableArtifact(t *testing.T) {
	err := Validate(filepath.Join(t.TempDir(), "missing.py"), []string{"x"})
	require.Error(t, err)
	var pe *Error
	assert.False(t, errors.As(err, &pe), "read failure is not a marker failure")
}

func TestValidateNoRequiredMarkers(t *testing.T) {
	p := writeArtifact(t, "")
	assert.NoError(t, Validate(p, nil))
}
