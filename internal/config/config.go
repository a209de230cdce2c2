package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	SerpAPI   SerpAPIConfig   `yaml:"serpapi" mapstructure:"serpapi"`
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
	Crawl     CrawlConfig     `yaml:"crawl" mapstructure:"crawl"`
	Registry  RegistryConfig  `yaml:"registry" mapstructure:"registry"`
	Redis     RedisConfig     `yaml:"redis" mapstructure:"redis"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnthropicConfig holds Anthropic API settings used by the scorer and the
// outreach email generator.
type AnthropicConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	ScoreModel    string `yaml:"score_model" mapstructure:"score_model"`
	EmailModel    string `yaml:"email_model" mapstructure:"email_model"`
	ScoreTokens   int    `yaml:"score_max_tokens" mapstructure:"score_max_tokens"`
	EmailTokens   int    `yaml:"email_max_tokens" mapstructure:"email_max_tokens"`
	SenderName    string `yaml:"sender_name" mapstructure:"sender_name"`
	SenderCompany string `yaml:"sender_company" mapstructure:"sender_company"`
}

// SerpAPIConfig holds the maps search provider settings.
type SerpAPIConfig struct {
	Key      string `yaml:"key" mapstructure:"key"`
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
	Language string `yaml:"hl" mapstructure:"hl"`
	Country  string `yaml:"gl" mapstructure:"gl"`
}

// SearchConfig tunes the round-robin search engine.
type SearchConfig struct {
	TimeoutSecs      int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxPagesPerQuery int    `yaml:"max_pages_per_query" mapstructure:"max_pages_per_query"`
	PageSize         int    `yaml:"page_size" mapstructure:"page_size"`
	PageIntervalMs   int    `yaml:"page_interval_ms" mapstructure:"page_interval_ms"`
	DefaultLocation  string `yaml:"default_location" mapstructure:"default_location"`
	DefaultLimit     int    `yaml:"default_limit" mapstructure:"default_limit"`
	DefaultMinScore  int    `yaml:"default_min_score" mapstructure:"default_min_score"`
}

// Timeout returns the wall-clock budget of one search.
func (s SearchConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSecs) * time.Second
}

// PageInterval returns the pause between successive provider page fetches.
func (s SearchConfig) PageInterval() time.Duration {
	return time.Duration(s.PageIntervalMs) * time.Millisecond
}

// CrawlConfig configures the lightweight website crawler used for scoring
// and contact enrichment.
type CrawlConfig struct {
	TimeoutSecs     int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent       string `yaml:"user_agent" mapstructure:"user_agent"`
	MaxTextChars    int    `yaml:"max_text_chars" mapstructure:"max_text_chars"`
	MaxTextPages    int    `yaml:"max_text_pages" mapstructure:"max_text_pages"`
	MaxContactPages int    `yaml:"max_contact_pages" mapstructure:"max_contact_pages"`
}

// RegistryConfig configures retention of finished search jobs.
type RegistryConfig struct {
	RetentionSecs int    `yaml:"retention_secs" mapstructure:"retention_secs"`
	SweepSpec     string `yaml:"sweep_spec" mapstructure:"sweep_spec"`
}

// Retention returns how long a finished job stays pollable.
func (r RegistryConfig) Retention() time.Duration {
	return time.Duration(r.RetentionSecs) * time.Second
}

// RedisConfig enables optional event publishing. Empty URL disables it.
type RedisConfig struct {
	URL     string `yaml:"url" mapstructure:"url"`
	Channel string `yaml:"channel" mapstructure:"channel"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	FrontendURL string   `yaml:"frontend_url" mapstructure:"frontend_url"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from config.yaml (optional) and LEADGEN_*
// environment variables.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.database_url", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.frontend_url", "")
	v.SetDefault("server.cors_origins", []string{
		"http://localhost:5173",
		"http://localhost:5174",
		"http://127.0.0.1:5173",
		"http://127.0.0.1:5174",
	})
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.score_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.email_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.score_max_tokens", 1024)
	v.SetDefault("anthropic.email_max_tokens", 1500)
	v.SetDefault("anthropic.sender_name", "")
	v.SetDefault("anthropic.sender_company", "")
	v.SetDefault("serpapi.key", "")
	v.SetDefault("serpapi.base_url", "https://serpapi.com")
	v.SetDefault("serpapi.hl", "it")
	v.SetDefault("serpapi.gl", "it")
	v.SetDefault("search.timeout_secs", 300)
	v.SetDefault("search.max_pages_per_query", 10)
	v.SetDefault("search.page_size", 20)
	v.SetDefault("search.page_interval_ms", 700)
	v.SetDefault("search.default_location", "Italia")
	v.SetDefault("search.default_limit", 10)
	v.SetDefault("search.default_min_score", 50)
	v.SetDefault("crawl.timeout_secs", 10)
	v.SetDefault("crawl.user_agent", "Mozilla/5.0 (compatible; leadgen-cli/1.0)")
	v.SetDefault("crawl.max_text_chars", 5000)
	v.SetDefault("crawl.max_text_pages", 4)
	v.SetDefault("crawl.max_contact_pages", 8)
	v.SetDefault("registry.retention_secs", 1800)
	v.SetDefault("registry.sweep_spec", "@every 1m")
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.channel", "leadgen:events")

	// Read config file (optional)
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

// Mode names the set of keys a command needs.
type Mode string

const (
	// ModeStore needs only a reachable database.
	ModeStore Mode = "store"
	// ModeEmail needs the database and Anthropic.
	ModeEmail Mode = "email"
	// ModeSearch needs the database, Anthropic and SerpAPI.
	ModeSearch Mode = "search"
)

// Validate checks that the keys required by mode are present.
func (c *Config) Validate(mode Mode) error {
	var missing []string

	switch c.Store.Driver {
	case "postgres":
		if c.Store.DatabaseURL == "" {
			missing = append(missing, "store.database_url")
		}
	case "sqlite":
	default:
		return eris.Errorf("config: unsupported store driver %q", c.Store.Driver)
	}

	if mode == ModeEmail || mode == ModeSearch {
		if c.Anthropic.Key == "" {
			missing = append(missing, "anthropic.key")
		}
	}
	if mode == ModeSearch {
		if c.SerpAPI.Key == "" {
			missing = append(missing, "serpapi.key")
		}
		if c.Search.PageSize <= 0 || c.Search.MaxPagesPerQuery <= 0 {
			return eris.New("config: search.page_size and search.max_pages_per_query must be positive")
		}
	}

	if len(missing) > 0 {
		return eris.Errorf("config: missing required keys: %s", strings.Join(missing, ", "))
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
