// Package config loads application configuration from a YAML file,
// environment variables, and a local .env file, in that order of
// increasing precedence for the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"newsforge/internal/logger"
)

const (
	// StorageModeLocal fills in development defaults and warns about them.
	StorageModeLocal = "local"
	// StorageModeProduction refuses to run without explicit storage settings.
	StorageModeProduction = "production"

	defaultLocalDBPath = "newsforge.db"
)

// Config holds all application configuration.
type Config struct {
	Gemini   Gemini   `mapstructure:"gemini"`
	News     News     `mapstructure:"news"`
	Storage  Storage  `mapstructure:"storage"`
	Pipeline Pipeline `mapstructure:"pipeline"`
	Notify   Notify   `mapstructure:"notify"`
	Logging  Logging  `mapstructure:"logging"`
}

// Gemini holds the AI model configuration.
type Gemini struct {
	APIKey        string `mapstructure:"api_key"`
	ModelFast     string `mapstructure:"model_fast"`
	ModelAccurate string `mapstructure:"model_accurate"`
	Timeout       string `mapstructure:"timeout"`
}

// News holds per-provider API credentials.
type News struct {
	NewsAPI  ProviderKey `mapstructure:"newsapi"`
	Guardian ProviderKey `mapstructure:"guardian"`
	NYT      ProviderKey `mapstructure:"nyt"`
}

// ProviderKey is a single provider credential.
type ProviderKey struct {
	APIKey string `mapstructure:"api_key"`
}

// Storage holds database configuration.
type Storage struct {
	Mode string `mapstructure:"mode"`
	Path string `mapstructure:"path"`
}

// Pipeline holds run-shaping settings.
type Pipeline struct {
	TargetCount int    `mapstructure:"target_count"`
	Throttle    string `mapstructure:"throttle"`
	StaleAfter  string `mapstructure:"stale_after"`
}

// Notify holds webhook destinations for run notifications.
type Notify struct {
	SlackWebhookURL   string `mapstructure:"slack_webhook_url"`
	DiscordWebhookURL string `mapstructure:"discord_webhook_url"`
}

// Logging holds log output configuration.
type Logging struct {
	Level string `mapstructure:"level"`
}

var globalConfig *Config

// Load reads configuration from the given file, or searches the working
// directory and $HOME for .newsforge.yaml when the path is empty.
func Load(configFile string) (*Config, error) {
	// A missing .env is fine; it only exists in development setups.
	_ = godotenv.Load()

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".newsforge")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	bindEnvironmentVariables()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := resolveStorage(config); err != nil {
		return nil, err
	}
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	globalConfig = config
	return config, nil
}

// Get returns the global configuration, loading it if necessary.
func Get() *Config {
	if globalConfig == nil {
		config, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("Failed to load configuration: %v", err))
		}
		return config
	}
	return globalConfig
}

func setDefaults() {
	viper.SetDefault("gemini.model_fast", "gemini-2.5-flash")
	viper.SetDefault("gemini.model_accurate", "gemini-2.5-pro")
	viper.SetDefault("gemini.timeout", "60s")

	viper.SetDefault("storage.mode", StorageModeLocal)

	viper.SetDefault("pipeline.target_count", 5)
	viper.SetDefault("pipeline.throttle", "1s")
	viper.SetDefault("pipeline.stale_after", "720h")

	viper.SetDefault("logging.level", "info")
}

func bindEnvironmentVariables() {
	bindEnvKeys("gemini.api_key", []string{
		"GEMINI_API_KEY",
		"GOOGLE_GEMINI_API_KEY",
		"GOOGLE_AI_API_KEY",
	})

	bindEnvKeys("news.newsapi.api_key", []string{
		"NEWS_API_KEY",
		"NEWSAPI_API_KEY",
	})
	bindEnvKeys("news.guardian.api_key", []string{
		"GUARDIAN_API_KEY",
	})
	bindEnvKeys("news.nyt.api_key", []string{
		"NYT_API_KEY",
		"NYTIMES_API_KEY",
	})

	bindEnvKeys("storage.mode", []string{
		"STORAGE_MODE",
	})
	bindEnvKeys("storage.path", []string{
		"STORAGE_PATH",
		"DATABASE_PATH",
	})

	bindEnvKeys("pipeline.target_count", []string{
		"TARGET_ARTICLE_COUNT",
	})

	bindEnvKeys("notify.slack_webhook_url", []string{
		"SLACK_WEBHOOK_URL",
		"SLACK_WEBHOOK",
	})
	bindEnvKeys("notify.discord_webhook_url", []string{
		"DISCORD_WEBHOOK_URL",
		"DISCORD_WEBHOOK",
	})
}

// bindEnvKeys binds the first found environment variable to a viper key.
func bindEnvKeys(viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			viper.Set(viperKey, value)
			return
		}
	}
}

// resolveStorage applies the mode contract: local fills in development
// defaults loudly, production refuses to guess.
func resolveStorage(config *Config) error {
	switch config.Storage.Mode {
	case StorageModeLocal:
		if config.Storage.Path == "" {
			config.Storage.Path = defaultLocalDBPath
			logger.Warn("No storage path configured, using local default", "path", defaultLocalDBPath)
		}
	case StorageModeProduction:
		if config.Storage.Path == "" {
			return fmt.Errorf("storage.path is required in production mode. Set STORAGE_PATH or storage.path in config file")
		}
	default:
		return fmt.Errorf("unknown storage mode: %s. Supported: local, production", config.Storage.Mode)
	}
	return nil
}

// validateConfig ensures values that would only fail deep inside a run
// fail at startup instead.
func validateConfig(config *Config) error {
	var errors []string

	durations := map[string]string{
		"gemini.timeout":       config.Gemini.Timeout,
		"pipeline.throttle":    config.Pipeline.Throttle,
		"pipeline.stale_after": config.Pipeline.StaleAfter,
	}
	for key, duration := range durations {
		if duration == "" {
			continue
		}
		if _, err := time.ParseDuration(duration); err != nil {
			errors = append(errors, fmt.Sprintf("invalid duration for %s: %s", key, duration))
		}
	}

	if config.Pipeline.TargetCount < 1 {
		errors = append(errors, fmt.Sprintf("pipeline.target_count must be positive, got %d", config.Pipeline.TargetCount))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ThrottleDuration returns the parsed inter-item pacing delay.
func (c *Config) ThrottleDuration() time.Duration {
	d, err := time.ParseDuration(c.Pipeline.Throttle)
	if err != nil || d < 0 {
		return time.Second
	}
	return d
}

// StaleAfterDuration returns the parsed draft retention window.
func (c *Config) StaleAfterDuration() time.Duration {
	d, err := time.ParseDuration(c.Pipeline.StaleAfter)
	if err != nil || d <= 0 {
		return 720 * time.Hour
	}
	return d
}

// HasNewsKey reports whether at least one news provider is usable.
func (c *Config) HasNewsKey() bool {
	return c.News.NewsAPI.APIKey != "" || c.News.Guardian.APIKey != "" || c.News.NYT.APIKey != ""
}

// Convenience getters for frequently accessed values.
func GetGeminiAPIKey() string { return Get().Gemini.APIKey }
func GetStoragePath() string  { return Get().Storage.Path }

// Reset clears the global configuration (useful for testing).
func Reset() {
	globalConfig = nil
	viper.Reset()
}
