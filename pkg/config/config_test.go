package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 1, cfg.Fit.Degree)
	assert.Equal(t, 1, cfg.Resample.Interpolation)
	assert.Equal(t, ProgressBar, cfg.Output.Progress)
	assert.Equal(t, "info", cfg.Output.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "polywarp.yaml")
	content := `
fit:
  degree: 2
resample:
  interpolation: 3
  width: 64
  xOffset: -4
  fill: -1.5
output:
  progress: log
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Fit.Degree)
	assert.Equal(t, 3, cfg.Resample.Interpolation)
	assert.Equal(t, 64, cfg.Resample.Width)
	assert.Equal(t, 0, cfg.Resample.Height)
	assert.Equal(t, -4, cfg.Resample.XOffset)
	assert.Equal(t, -1.5, cfg.Resample.Fill)
	assert.Equal(t, ProgressLog, cfg.Output.Progress)
	// untouched keys keep their defaults
	assert.Equal(t, "info", cfg.Output.LogLevel)
	assert.Equal(t, 512, cfg.Output.PreviewMaxSize)
}

func TestLoadConfigJSONC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "polywarp.jsonc")
	content := `{
  // nearest neighbour for label rasters
  "resample": {"interpolation": 0, "height": 32,},
  "output": {"progress": "none"}
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Resample.Interpolation)
	assert.Equal(t, 32, cfg.Resample.Height)
	assert.Equal(t, ProgressNone, cfg.Output.Progress)
	assert.Equal(t, 1, cfg.Fit.Degree)
}

func TestLoadConfigInvalid(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]string{
		"bad_degree.yaml":   "fit:\n  degree: 0\n",
		"bad_progress.yaml": "output:\n  progress: fancy\n",
		"bad_interp.yaml":   "resample:\n  interpolation: -2\n",
		"bad_syntax.yaml":   "fit: [\n",
	}
	for name, content := range tests {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		_, err := LoadConfig(path)
		assert.Error(t, err, name)
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, CreateDefaultConfigFile(path))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}
