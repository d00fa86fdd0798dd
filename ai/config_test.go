package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "embeddinggemma", cfg.EmbeddingModel)
	assert.Equal(t, 768, cfg.Dimensions)
	require.NoError(t, cfg.Validate())
}

func TestNewConfig_Options(t *testing.T) {
	cfg := NewConfig(
		WithHost("http://example.com:9100"),
		WithModel("text-embedding-3-small"),
		WithDimensions(1536),
	)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://example.com:9100/v1", cfg.EmbeddingHost)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
	assert.Equal(t, 1536, cfg.Dimensions)
}

func TestConfig_Normalize(t *testing.T) {
	for input, want := range map[string]string{
		"http://localhost:11434":     "http://localhost:11434/v1",
		"http://localhost:11434/":    "http://localhost:11434/v1",
		"http://localhost:11434/v1":  "http://localhost:11434/v1",
		"":                           "",
	} {
		cfg := &Config{EmbeddingHost: input}
		cfg.Normalize()
		assert.Equal(t, want, cfg.EmbeddingHost, "input %q", input)
	}
}

func TestConfig_ValidateRejectsIncomplete(t *testing.T) {
	assert.Error(t, (&Config{EmbeddingModel: "m", Dimensions: 8}).Validate())
	assert.Error(t, (&Config{EmbeddingHost: "http://x/v1", Dimensions: 8}).Validate())
	assert.Error(t, (&Config{EmbeddingHost: "http://x/v1", EmbeddingModel: "m"}).Validate())
}
