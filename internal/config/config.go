package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"aibrief/internal/core"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App     App     `mapstructure:"app"`
	AI      AI      `mapstructure:"ai"`
	Feeds   Feeds   `mapstructure:"feeds"`
	Profile Profile `mapstructure:"profile"`
	Workers Workers `mapstructure:"workers"`
	Email   Email   `mapstructure:"email"`
}

// App holds general application configuration
type App struct {
	LogLevel string `mapstructure:"log_level"`
	DataDir  string `mapstructure:"data_dir"` // Directory holding the SQLite database
}

// AI holds generation-service configuration
type AI struct {
	Gemini GeminiConfig `mapstructure:"gemini"`
}

// GeminiConfig holds Google Gemini configuration
type GeminiConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Temperature float32 `mapstructure:"temperature"`
}

// Feeds holds every feed endpoint the scrapers poll.
type Feeds struct {
	UserAgent       string            `mapstructure:"user_agent"`
	Timeout         string            `mapstructure:"timeout"`
	LookbackHours   int               `mapstructure:"lookback_hours"`
	YouTubeChannels []string          `mapstructure:"youtube_channels"` // Channel IDs, turned into feed URLs
	OpenAIFeeds     []string          `mapstructure:"openai_feeds"`
	AnthropicFeeds  []string          `mapstructure:"anthropic_feeds"`
	XAccounts       map[string]string `mapstructure:"x_accounts"` // handle -> RSS bridge URL
}

// Profile holds the user profile driving curation and the email greeting.
type Profile struct {
	Name       string `mapstructure:"name"`
	Background string `mapstructure:"background"`
}

// Workers holds pacing and retry knobs for the generation-service workers.
type Workers struct {
	RequestDelay    string `mapstructure:"request_delay"`     // Inter-call pacing on the normal path
	RateLimitWait   string `mapstructure:"rate_limit_wait"`   // Fixed wait after a 429 during enrichment
	MaxAttempts     int    `mapstructure:"max_attempts"`      // Attempt ceiling for rate-limited calls
	CurateBackoff   string `mapstructure:"curate_backoff"`    // Base for linear backoff (base * attempt)
	ContentMaxChars int    `mapstructure:"content_max_chars"` // Truncation budget per enrichment prompt
	TopN            int    `mapstructure:"top_n"`             // Articles included in the email
}

// Email holds SMTP transport configuration.
type Email struct {
	SMTP     SMTPConfig `mapstructure:"smtp"`
	From     string     `mapstructure:"from"`
	To       string     `mapstructure:"to"`
	FromName string     `mapstructure:"from_name"`
}

// SMTPConfig holds SMTP server settings.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

var globalConfig *Config

// Load loads the configuration from the config file, .env, and environment.
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".aibrief")
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
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.data_dir", ".aibrief")

	viper.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("ai.gemini.temperature", 0.7)

	viper.SetDefault("feeds.user_agent", "Mozilla/5.0 (compatible; aibrief/1.0)")
	viper.SetDefault("feeds.timeout", "30s")
	viper.SetDefault("feeds.lookback_hours", 24)

	viper.SetDefault("profile.name", "there")
	viper.SetDefault("profile.background", "Interested in practical AI news.")

	// Free-tier Gemini keys allow roughly 3 requests/minute; the defaults pace
	// well under that and back off hard on a 429.
	viper.SetDefault("workers.request_delay", "30s")
	viper.SetDefault("workers.rate_limit_wait", "180s")
	viper.SetDefault("workers.max_attempts", 3)
	viper.SetDefault("workers.curate_backoff", "120s")
	viper.SetDefault("workers.content_max_chars", 8000)
	viper.SetDefault("workers.top_n", 10)

	viper.SetDefault("email.smtp.port", 587)
	viper.SetDefault("email.from_name", "AI Brief")
}

func bindEnvironmentVariables() {
	envBindings := map[string]string{
		"ai.gemini.api_key":    "GEMINI_API_KEY",
		"email.smtp.host":      "SMTP_HOST",
		"email.smtp.username":  "SMTP_USERNAME",
		"email.smtp.password":  "SMTP_PASSWORD",
		"email.from":           "EMAIL_FROM",
		"email.to":             "EMAIL_TO",
	}

	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			fmt.Printf("Warning: Failed to bind %s: %v\n", env, err)
		}
	}
}

// FeedTimeout parses the feed timeout, falling back to 30s on bad input.
func (f Feeds) FeedTimeout() time.Duration {
	return parseDuration(f.Timeout, 30*time.Second)
}

// RequestDelayDuration parses the inter-call pacing delay.
func (w Workers) RequestDelayDuration() time.Duration {
	return parseDuration(w.RequestDelay, 30*time.Second)
}

// RateLimitWaitDuration parses the fixed rate-limit wait.
func (w Workers) RateLimitWaitDuration() time.Duration {
	return parseDuration(w.RateLimitWait, 180*time.Second)
}

// CurateBackoffDuration parses the curation backoff base.
func (w Workers) CurateBackoffDuration() time.Duration {
	return parseDuration(w.CurateBackoff, 120*time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// UserProfile converts the profile section to the core type.
func (p Profile) UserProfile() core.UserProfile {
	return core.UserProfile{Name: p.Name, Background: p.Background}
}
