package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
server:
  port: ":9090"
  timeout: 5s
database:
  type: memory
  name: album_test
logger:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))

	require.NoError(t, LoadConfig(dir, false))
	require.NotNil(t, C)

	assert.Equal(t, ":9090", C.Server.Port)
	assert.Equal(t, 5*time.Second, C.Server.Timeout)
	assert.Equal(t, "memory", C.Database.Type)
	assert.Equal(t, "album_test", C.Database.Name)
	assert.Equal(t, "debug", C.Logger.Level)
	assert.Equal(t, "json", C.Logger.Format)
	// 文件中没有的字段取默认值
	assert.Equal(t, 320, C.Upload.ThumbWidth)
	assert.Equal(t, 24*time.Hour, C.Session.TTL)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	dir := t.TempDir()

	assert.Error(t, LoadConfig(dir, false))

	require.NoError(t, LoadConfig(dir, true))
	assert.Equal(t, "mongo", C.Database.Type)
	assert.Equal(t, ":8000", C.Server.Port)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ALBUM_DATABASE_NAME", "from_env")

	require.NoError(t, LoadConfig(dir, true))
	assert.Equal(t, "from_env", C.Database.Name)
}
