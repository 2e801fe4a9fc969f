package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8085", cfg.ListenAddr)
	assert.Equal(t, "0 */6 * * *", cfg.Schedule.Spec)
	assert.Equal(t, 100, cfg.Browser.MinAnswerLen)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
listen_addr: ":9000"
dataset_path: /tmp/stocks.csv
schedule:
  spec: "0 */2 * * *"
  timezone: UTC
browser:
  service_url: https://answers.example.com
  headless: false
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "/tmp/stocks.csv", cfg.DatasetPath)
	assert.Equal(t, "0 */2 * * *", cfg.Schedule.Spec)
	assert.Equal(t, "UTC", cfg.Schedule.Timezone)
	assert.Equal(t, "https://answers.example.com", cfg.Browser.ServiceURL)
	assert.False(t, cfg.Browser.Headless)

	// Untouched fields keep defaults.
	assert.Equal(t, "data/run_history.db", cfg.HistoryPath)
	assert.NotEmpty(t, cfg.Run.Prompt)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CAPSCOUT_LISTEN", ":7777")
	t.Setenv("CAPSCOUT_SERVICE_URL", "https://env.example.com")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.ListenAddr)
	assert.Equal(t, "https://env.example.com", cfg.Browser.ServiceURL)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := DefaultConfig()
	cfg.ListenAddr = ":1234"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":1234", loaded.ListenAddr)
}
