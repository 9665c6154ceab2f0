package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults with required values set", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "test-key")

		cfg, err := Load()

		require.NoError(t, err)
		assert.Equal(t, 800, cfg.ChunkSize)
		assert.Equal(t, 100, cfg.ChunkOverlap)
		assert.Equal(t, 5, cfg.MaxResults)
		assert.Equal(t, 2, cfg.MaxHistory)
		assert.Equal(t, "localhost:8080", cfg.WeaviateHost)
		assert.Equal(t, "http", cfg.WeaviateScheme)
		assert.Equal(t, 8000, cfg.ServerPort)
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "test-key")
		t.Setenv("CHUNK_SIZE", "400")
		t.Setenv("CHUNK_OVERLAP", "50")
		t.Setenv("DOCS_PATH", "/srv/docs")

		cfg, err := Load()

		require.NoError(t, err)
		assert.Equal(t, 400, cfg.ChunkSize)
		assert.Equal(t, 50, cfg.ChunkOverlap)
		assert.Equal(t, "/srv/docs", cfg.DocsPath)
	})

	t.Run("missing gemini key fails validation", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "")

		_, err := Load()

		assert.ErrorIs(t, err, ErrMissingRequired)
	})

	t.Run("overlap must stay below chunk size", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "test-key")
		t.Setenv("CHUNK_SIZE", "100")
		t.Setenv("CHUNK_OVERLAP", "100")

		_, err := Load()

		assert.Error(t, err)
	})
}
