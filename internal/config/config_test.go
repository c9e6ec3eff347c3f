package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "parley.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := write(t, `
log_level: debug
dialogue:
  silence_timeout: 3s
  grammar: grammar.yaml
redis:
  addr: localhost:6379
  ttl: 1h
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 3*time.Second, cfg.Dialogue.SilenceTimeout)
	assert.Equal(t, 100, cfg.Dialogue.MaxMicrosteps, "unset fields keep their default")
	assert.Equal(t, "grammar.yaml", cfg.Dialogue.Grammar)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, time.Hour, cfg.Redis.TTL)
	assert.Equal(t, "parley:knowledge:", cfg.Redis.Prefix)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"Malformed", "dialogue: [\n"},
		{"Zero Microsteps", "dialogue:\n  max_microsteps: 0\n"},
		{"Negative Silence", "dialogue:\n  silence_timeout: -1s\n"},
		{"Invoker Without Command", "invokers:\n  - name: knowledge\n"},
		{"Duplicate Invoker", "invokers:\n  - {name: a, command: x}\n  - {name: a, command: y}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(write(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_Invokers(t *testing.T) {
	path := write(t, `
invokers:
  - name: knowledge
    command: ./lookup.sh
    args: [--json]
    timeout: 2s
    env:
      LANG: en
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Invokers, 1)

	inv := cfg.Invokers[0]
	assert.Equal(t, "knowledge", inv.Name)
	assert.Equal(t, "./lookup.sh", inv.Command)
	assert.Equal(t, []string{"--json"}, inv.Args)
	assert.Equal(t, 2*time.Second, inv.Timeout)
	assert.Equal(t, map[string]string{"LANG": "en"}, inv.Environment)
}
