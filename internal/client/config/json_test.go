package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	path := writeTempJSON(t, dir, "flag.json", map[string]any{
		"redis_addr":             "redis.example:6380",
		"collection":             "team-uploads",
		"progress_tick_interval": "250ms",
	})

	t.Run("loads from flags", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", path}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "redis.example:6380", cfg.RedisAddr)
		assert.Equal(t, "team-uploads", cfg.Collection)
		assert.Equal(t, 250*time.Millisecond, cfg.ProgressTickInterval)
		// Fields absent from the file keep their defaults.
		assert.Equal(t, 10, cfg.ProgressStep)
	})

	t.Run("no config flag means no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{
			RedisAddr:  "defaults:1234",
			Collection: "defaults",
		}
		parseJson(cfg)

		assert.Equal(t, "defaults:1234", cfg.RedisAddr)
		assert.Equal(t, "defaults", cfg.Collection)
	})

	t.Run("unreadable file panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", filepath.Join(dir, "missing.json")}

		cfg := &Config{}
		assert.Panics(t, func() { parseJson(cfg) })
	})
}
