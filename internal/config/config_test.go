package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.InDelta(t, 0.4, cfg.Relevance.Threshold, 0.0001)
	assert.Equal(t, "embedding", cfg.Classify.Strategy)
	assert.Equal(t, 10, cfg.Classify.MaxBatchSize)
	assert.Equal(t, 5, cfg.Classify.MaxRetries)
	assert.Equal(t, 10, cfg.Thumbs.MaxImages)
	assert.Equal(t, "thumbnail_images", cfg.Thumbs.StagingDir)
	assert.Equal(t, "sources.yaml", cfg.Sources.Path)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestThumbsPoolSize_Cap(t *testing.T) {
	assert.Equal(t, 20, ThumbsConfig{Workers: 64}.PoolSize())
	assert.Equal(t, 4, ThumbsConfig{Workers: 4}.PoolSize())

	auto := ThumbsConfig{}.PoolSize()
	assert.GreaterOrEqual(t, auto, 1)
	assert.LessOrEqual(t, auto, 20)
}

func TestReplicaURL(t *testing.T) {
	r := ReplicaConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "envisage"}
	assert.Equal(t, "postgres://u:p@db:5432/envisage", r.URL())
}

func TestValidate_MissingLLMKey(t *testing.T) {
	cfg := &Config{}
	cfg.LLM.Provider = "gemini"
	cfg.Store.Driver = "sqlite"
	assert.Error(t, cfg.Validate())

	cfg.LLM.Gemini.Key = "k"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_UnknownProvider(t *testing.T) {
	cfg := &Config{}
	cfg.LLM.Provider = "oracle"
	assert.Error(t, cfg.Validate())
}

func TestValidate_PostgresNeedsURL(t *testing.T) {
	cfg := &Config{}
	cfg.LLM.Provider = "anthropic"
	cfg.LLM.Anthropic.Key = "k"
	cfg.Store.Driver = "postgres"
	assert.Error(t, cfg.Validate())

	cfg.Store.DatabaseURL = "postgres://localhost/envisage"
	assert.NoError(t, cfg.Validate())
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.Error(t, InitLogger(LogConfig{Level: "nope", Format: "json"}))
}
