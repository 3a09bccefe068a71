package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Replica   ReplicaConfig   `yaml:"replica" mapstructure:"replica"`
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Embed     EmbedConfig     `yaml:"embed" mapstructure:"embed"`
	Relevance RelevanceConfig `yaml:"relevance" mapstructure:"relevance"`
	Classify  ClassifyConfig  `yaml:"classify" mapstructure:"classify"`
	Scrape    ScrapeConfig    `yaml:"scrape" mapstructure:"scrape"`
	Thumbs    ThumbsConfig    `yaml:"thumbs" mapstructure:"thumbs"`
	Storage   StorageConfig   `yaml:"storage" mapstructure:"storage"`
	Sources   SourcesConfig   `yaml:"sources" mapstructure:"sources"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the document store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Path        string `yaml:"path" mapstructure:"path"`
}

// ReplicaConfig holds credentials for the relational store the web
// front-end reads from.
type ReplicaConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	Database string `yaml:"database" mapstructure:"database"`
}

// URL composes a connection string from the individual credentials.
func (r ReplicaConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s", r.User, r.Password, r.Host, r.Port, r.Database)
}

// LLMConfig selects and configures the text generation backend.
type LLMConfig struct {
	Provider  string          `yaml:"provider" mapstructure:"provider"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Gemini    GeminiConfig    `yaml:"gemini" mapstructure:"gemini"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// GeminiConfig holds Gemini API settings.
type GeminiConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// EmbedConfig selects the text-to-vector model.
type EmbedConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"`
	Model    string `yaml:"model" mapstructure:"model"`
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	Key      string `yaml:"key" mapstructure:"key"`
}

// RelevanceConfig configures the relevance filter.
type RelevanceConfig struct {
	Threshold float64 `yaml:"threshold" mapstructure:"threshold"`
}

// ClassifyConfig configures the categorizer.
type ClassifyConfig struct {
	Strategy     string `yaml:"strategy" mapstructure:"strategy"`
	MaxBatchSize int    `yaml:"max_batch_size" mapstructure:"max_batch_size"`
	MaxRetries   int    `yaml:"max_retries" mapstructure:"max_retries"`
}

// ScrapeConfig configures seed scraping and anti-blocking behavior.
type ScrapeConfig struct {
	TimeoutSecs       int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	DelayMinMS        int      `yaml:"delay_min_ms" mapstructure:"delay_min_ms"`
	DelayMaxMS        int      `yaml:"delay_max_ms" mapstructure:"delay_max_ms"`
	Proxies           []string `yaml:"proxies" mapstructure:"proxies"`
	StatsIntervalSecs int      `yaml:"stats_interval_secs" mapstructure:"stats_interval_secs"`
}

// ThumbsConfig configures thumbnail acquisition.
type ThumbsConfig struct {
	Workers     int    `yaml:"workers" mapstructure:"workers"`
	MaxImages   int    `yaml:"max_images" mapstructure:"max_images"`
	StagingDir  string `yaml:"staging_dir" mapstructure:"staging_dir"`
	UnsplashKey string `yaml:"unsplash_key" mapstructure:"unsplash_key"`
	PexelsKey   string `yaml:"pexels_key" mapstructure:"pexels_key"`
}

// PoolSize resolves the worker pool size: min(10, 2*cpu), hard cap 20.
// The cap exists because the image backends rate-limit aggressively.
func (t ThumbsConfig) PoolSize() int {
	n := t.Workers
	if n <= 0 {
		n = min(10, 2*runtime.NumCPU())
	}
	return min(n, 20)
}

// StorageConfig holds object storage credentials.
type StorageConfig struct {
	Bucket          string `yaml:"bucket" mapstructure:"bucket"`
	CredentialsFile string `yaml:"credentials_file" mapstructure:"credentials_file"`
	ProjectID       string `yaml:"project_id" mapstructure:"project_id"`
}

// SourcesConfig locates the seed source groups file.
type SourcesConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the read-only web view server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ENVISAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.path", "envisage.db")
	v.SetDefault("replica.host", "localhost")
	v.SetDefault("replica.port", 5432)
	v.SetDefault("replica.database", "envisage")
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("llm.gemini.model", "gemini-2.5-flash")
	v.SetDefault("embed.provider", "gemini")
	v.SetDefault("embed.model", "gemini-embedding-001")
	v.SetDefault("relevance.threshold", 0.4)
	v.SetDefault("classify.strategy", "embedding")
	v.SetDefault("classify.max_batch_size", 10)
	v.SetDefault("classify.max_retries", 5)
	v.SetDefault("scrape.timeout_secs", 15)
	v.SetDefault("scrape.delay_min_ms", 500)
	v.SetDefault("scrape.delay_max_ms", 2500)
	v.SetDefault("scrape.stats_interval_secs", 120)
	v.SetDefault("thumbs.max_images", 10)
	v.SetDefault("thumbs.staging_dir", "thumbnail_images")
	v.SetDefault("sources.path", "sources.yaml")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks for fatally missing credentials. A missing credential
// aborts the run before any stage executes.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "anthropic":
		if c.LLM.Anthropic.Key == "" {
			return eris.New("config: llm.anthropic.key is required")
		}
	case "gemini":
		if c.LLM.Gemini.Key == "" {
			return eris.New("config: llm.gemini.key is required")
		}
	default:
		return eris.Errorf("config: unknown llm provider %q", c.LLM.Provider)
	}

	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		return eris.New("config: store.database_url is required for the postgres driver")
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
