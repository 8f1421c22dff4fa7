package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutput_NoFile(t *testing.T) {
	var buf bytes.Buffer
	w, closer := Output(&buf, FileOptions{})
	assert.Same(t, &buf, w)
	assert.NoError(t, closer.Close())
}

func TestOutput_TeesToFile(t *testing.T) {
	restoreDefault(t)

	path := filepath.Join(t.TempDir(), "logs", "pharmadash.log")
	var buf bytes.Buffer
	w, closer := Output(&buf, FileOptions{Path: path, MaxSizeMB: 1, MaxBackups: 1})

	Setup(w, "info", "text").Info("loaded", "records", 3)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "records=3")
	assert.Contains(t, buf.String(), "records=3")
}
