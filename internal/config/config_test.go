package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astei/slimeworld/internal/properties"
	"github.com/astei/slimeworld/internal/slime"
)

func writeConfig(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "slime.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvPath, "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	compression, err := cfg.Codec()
	require.NoError(t, err)
	assert.Equal(t, slime.CompressionZstd, compression)
	version, err := cfg.Version()
	require.NoError(t, err)
	assert.Equal(t, slime.V1_8, version)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
store:
  type: redis
  url: localhost:6379
compression: lz4
world_version: "1.13.2"
properties:
  shouldSave: true
  difficulty: peaceful
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Store.Type)
	assert.Equal(t, "localhost:6379", cfg.Store.URL)
	assert.Equal(t, "slime:world:", cfg.Store.KeyPrefix, "unset keys keep defaults")
	assert.Equal(t, "lz4", cfg.Compression)
	assert.True(t, cfg.Properties.ShouldSave)
	assert.Equal(t, properties.Peaceful, cfg.Properties.Difficulty)
	assert.True(t, cfg.Properties.HasAnimals)

	version, err := cfg.Version()
	require.NoError(t, err)
	assert.Equal(t, slime.V1_13_2, version)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv(EnvPath, writeConfig(t, "compression: zlib\n"))
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "zlib", cfg.Compression)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	for name, body := range map[string]string{
		"compression":   "compression: brotli\n",
		"world version": "world_version: \"1.20\"\n",
		"difficulty":    "properties:\n  difficulty: nightmare\n",
		"syntax":        "store: [\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
