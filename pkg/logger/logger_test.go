package logger

import (
	"PhotoAlbum/config"
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, config.LoggerConfig{Level: "warn", Format: "json"})
	require.NoError(t, err)

	l.Info("dropped")
	l.Warn("kept", "photoId", 5)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, float64(5), entry["photoId"])
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(&bytes.Buffer{}, config.LoggerConfig{Level: "verbose"})
	assert.Error(t, err)
}

func TestInitLogger_RequiresConfig(t *testing.T) {
	saved := config.C
	t.Cleanup(func() { config.C = saved })

	config.C = nil
	assert.Error(t, InitLogger())

	config.C = &config.Config{Logger: config.LoggerConfig{Level: "debug", Format: "text"}}
	assert.NoError(t, InitLogger())
}
