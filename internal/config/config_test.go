package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "./docs", cfg.DocsDir)
	assert.Equal(t, 1200, cfg.Chunking.TargetSize)
	assert.Equal(t, 0.15, cfg.Chunking.Overlap)
	assert.Equal(t, 5, cfg.Search.DefaultTopK)
	assert.Equal(t, 50, cfg.Search.MaxTopK)
	assert.Equal(t, RankerBleve, cfg.Search.Ranker)
}

func TestLoadFromParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `docs_dir: ./handbook
log_level: debug
chunking:
  target_size: 800
  overlap: 0.2
search:
  default_top_k: 10
  max_top_k: 20
  ranker: native
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "./handbook", cfg.DocsDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 800, cfg.Chunking.TargetSize)
	assert.Equal(t, 0.2, cfg.Chunking.Overlap)
	assert.Equal(t, 10, cfg.Search.DefaultTopK)
	assert.Equal(t, 20, cfg.Search.MaxTopK)
	assert.Equal(t, RankerNative, cfg.Search.Ranker)
}

func TestLoadFromClampsOutOfRangeValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `chunking:
  target_size: -100
  overlap: 0.9
search:
  default_top_k: 100
  max_top_k: 10
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, 1200, cfg.Chunking.TargetSize)
	assert.Equal(t, 0.15, cfg.Chunking.Overlap)
	assert.Equal(t, 10, cfg.Search.MaxTopK)
	assert.Equal(t, 10, cfg.Search.DefaultTopK)
}

func TestLoadFromInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("docs_dir: [unclosed"), 0644))

	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.DocsDir = "./wiki"
	require.NoError(t, Save(cfg, path))

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestRankerBackendEnvPriority(t *testing.T) {
	cfg := Default()
	cfg.Search.Ranker = RankerBleve

	t.Setenv("SEARCHDOCK_RANKER", RankerNative)
	assert.Equal(t, RankerNative, cfg.RankerBackend())

	t.Setenv("SEARCHDOCK_RANKER", "")
	assert.Equal(t, RankerBleve, cfg.RankerBackend())

	cfg.Search.Ranker = ""
	assert.Equal(t, RankerBleve, cfg.RankerBackend())
}
