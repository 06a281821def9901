package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFileMissing(t *testing.T) {
	fc, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, &FileConfig{}, fc)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
providers: [Codex, claude]
codex_bin: /opt/codex
max_history: 0
edit_interval: 2s
request_timeout: "500"
store: SQLite
`)
	fc, err := LoadFile(path)
	require.NoError(t, err)

	d := fc.apply(defaults())
	assert.Equal(t, []string{"codex", "claude"}, d.Providers)
	assert.Equal(t, "/opt/codex", d.CodexBin)
	assert.Equal(t, "claude", d.ClaudeBin)
	assert.Equal(t, 0, d.MaxHistory)
	assert.Equal(t, 2*time.Second, d.EditInterval)
	assert.Equal(t, 500*time.Millisecond, d.RequestTimeout)
	assert.Equal(t, "sqlite", d.Store)
	assert.Equal(t, 4096, d.MessageLimit)
}

func TestLoadFileInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"syntax", "providers: [claude", "parse config"},
		{"duration", "edit_interval: soon", "edit_interval"},
		{"negative", "max_history: -1", "max_history"},
		{"store", "store: postgres", "unknown kind"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc, err := LoadFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Equal(t, &FileConfig{}, fc)
		})
	}
}

func TestEnvPrecedence(t *testing.T) {
	ResetEnv()
	t.Cleanup(ResetEnv)

	t.Setenv("CLIBRIDGE_CONFIG", writeConfig(t, "claude_bin: /file/claude\nmessage_limit: 2000\n"))
	t.Setenv("CLIBRIDGE_CLAUDE_BIN", "/env/claude")
	t.Setenv("CLIBRIDGE_MESSAGE_LIMIT", "")

	env := Env()
	require.NoError(t, env.ConfigErr)
	assert.Equal(t, "/env/claude", env.ClaudeBin)
	assert.Equal(t, 2000, env.MessageLimit)
}

func TestEnvBadConfigFile(t *testing.T) {
	ResetEnv()
	t.Cleanup(ResetEnv)

	t.Setenv("CLIBRIDGE_CONFIG", writeConfig(t, "store: nowhere"))
	t.Setenv("CLIBRIDGE_STORE", "")

	env := Env()
	assert.Error(t, env.ConfigErr)
	assert.Equal(t, "file", env.Store)
}
