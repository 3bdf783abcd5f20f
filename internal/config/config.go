package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment variable names of the museum API keys.
const (
	CooperKeyEnv  = "COOPER_API_KEY"
	RijksKeyEnv   = "RIJKS_API_KEY"
	HarvardKeyEnv = "HARVARD_API_KEY"
	SmithKeyEnv   = "SMITH_API_KEY"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName       string `mapstructure:"app_name"`
	Env           string `mapstructure:"app_env"`
	LogLevel      string `mapstructure:"log_level"`
	SourcesFile   string `mapstructure:"sources_file"`
	NotifiersFile string `mapstructure:"notifiers_file"`
	SearchTerm    string `mapstructure:"search_term"`
	RandomSeed    int64  `mapstructure:"random_seed"`
	DryRun        bool   `mapstructure:"dry_run"`

	StorageType string `mapstructure:"storage_type"`
	StoragePath string `mapstructure:"storage_path"`
	RedisAddr   string `mapstructure:"redis_addr"`
	RedisKey    string `mapstructure:"redis_key"`

	BskyService     string `mapstructure:"bsky_service"`
	BskyHandle      string `mapstructure:"bsky_handle"`
	BskyAppPassword string `mapstructure:"bsky_app_password"`
	CaptionLimit    int    `mapstructure:"caption_limit"`
	Hashtags        string `mapstructure:"hashtags"`

	CooperAPIKey  string `mapstructure:"cooper_api_key"`
	RijksAPIKey   string `mapstructure:"rijks_api_key"`
	HarvardAPIKey string `mapstructure:"harvard_api_key"`
	SmithAPIKey   string `mapstructure:"smith_api_key"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("app_name", "tomato-bot")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("sources_file", "./configs/sources.yaml")
	v.SetDefault("notifiers_file", "./configs/notifiers.yaml")
	v.SetDefault("search_term", "tomato")
	v.SetDefault("random_seed", 0)
	v.SetDefault("dry_run", false)
	v.SetDefault("storage_type", "json")
	v.SetDefault("storage_path", "./posted_ids.json")
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_key", "tomatobot:posted")
	v.SetDefault("bsky_service", "https://bsky.social")
	v.SetDefault("bsky_handle", "")
	v.SetDefault("bsky_app_password", "")
	v.SetDefault("caption_limit", 300)
	v.SetDefault("hashtags", "#tomato #art")
	v.SetDefault("cooper_api_key", "")
	v.SetDefault("rijks_api_key", "")
	v.SetDefault("harvard_api_key", "")
	v.SetDefault("smith_api_key", "")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.BskyHandle = strings.TrimSpace(c.BskyHandle)
	c.SearchTerm = strings.TrimSpace(c.SearchTerm)

	if !c.DryRun && (c.BskyHandle == "" || strings.TrimSpace(c.BskyAppPassword) == "") {
		return fmt.Errorf("missing bluesky credentials (BSKY_HANDLE and BSKY_APP_PASSWORD are required)")
	}
	if c.SearchTerm == "" {
		return fmt.Errorf("invalid search_term (must not be empty)")
	}
	if c.CaptionLimit <= 0 {
		return fmt.Errorf("invalid caption_limit (must be positive)")
	}
	if strings.EqualFold(c.StorageType, "redis") && strings.TrimSpace(c.RedisAddr) == "" {
		return fmt.Errorf("redis storage requires redis_addr")
	}
	return nil
}

// SourceKey returns the configured API key for the given environment variable name.
func (c *Config) SourceKey(env string) (string, bool) {
	if c == nil {
		return "", false
	}
	var val string
	switch strings.ToUpper(strings.TrimSpace(env)) {
	case CooperKeyEnv:
		val = c.CooperAPIKey
	case RijksKeyEnv:
		val = c.RijksAPIKey
	case HarvardKeyEnv:
		val = c.HarvardAPIKey
	case SmithKeyEnv:
		val = c.SmithAPIKey
	default:
		return "", false
	}
	val = strings.TrimSpace(val)
	return val, val != ""
}

// Redacted returns a loggable view of the config with secrets masked.
func (c *Config) Redacted() map[string]any {
	if c == nil {
		return nil
	}
	return map[string]any{
		"app_name":       c.AppName,
		"app_env":        c.Env,
		"log_level":      c.LogLevel,
		"sources_file":   c.SourcesFile,
		"notifiers_file": c.NotifiersFile,
		"search_term":    c.SearchTerm,
		"dry_run":        c.DryRun,
		"storage_type":   c.StorageType,
		"storage_path":   c.StoragePath,
		"bsky_service":   c.BskyService,
		"bsky_handle":    c.BskyHandle,
		"caption_limit":  c.CaptionLimit,
		"keys": map[string]bool{
			CooperKeyEnv:  c.CooperAPIKey != "",
			RijksKeyEnv:   c.RijksAPIKey != "",
			HarvardKeyEnv: c.HarvardAPIKey != "",
			SmithKeyEnv:   c.SmithAPIKey != "",
		},
	}
}
