package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "moonshotai/kimi-k2-instruct-0905"

// DefaultBaseURL points at the Groq OpenAI-compatible endpoint.
const DefaultBaseURL = "https://api.groq.com/openai/v1"

// Config carries everything the assistant needs at startup. Values are
// resolved from the environment (DONNA_ prefix, plus a few legacy bare names)
// layered over an optional ~/.donna.yaml file.
type Config struct {
	// Planner
	GroqAPIKey  string  `mapstructure:"groq_api_key"`
	Model       string  `mapstructure:"model"`
	BaseURL     string  `mapstructure:"base_url"`
	Temperature float64 `mapstructure:"temperature"`
	TimeoutSecs int     `mapstructure:"timeout_secs"`
	MaxRetries  int     `mapstructure:"max_retries"`

	// Tool backends
	TavilyAPIKey       string   `mapstructure:"tavily_api_key"`
	Timezone           string   `mapstructure:"timezone"`
	CalendarID         string   `mapstructure:"calendar_id"`
	GmailUserID        string   `mapstructure:"gmail_user_id"`
	GoogleClientID     string   `mapstructure:"google_client_id"`
	GoogleClientSecret string   `mapstructure:"google_client_secret"`
	GoogleTokenFile    string   `mapstructure:"google_token_file"`
	NewsFeeds          []string `mapstructure:"news_feeds"`

	// Sessions
	SessionDir string `mapstructure:"session_dir"`

	// Server front end
	ServerAddr     string   `mapstructure:"server_addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	// Approval policy for the CLI front end
	AutoApprove     bool `mapstructure:"auto_approve"`
	ApprovalTimeout int  `mapstructure:"approval_timeout_secs"`

	// Observability
	TraceEndpoint string `mapstructure:"trace_endpoint"`
	TimingLogs    bool   `mapstructure:"timing_logs"`

	// Assistant persona and feed overrides, loaded from the config dir.
	Assistant AssistantFile `mapstructure:"-"`
}

// DefaultNewsFeeds mirror the curated headline sources.
var DefaultNewsFeeds = []string{
	"https://feeds.bbci.co.uk/news/rss.xml",
	"https://feeds.reuters.com/reuters/topNews",
	"http://rss.cnn.com/rss/edition.rss",
}

// Load resolves configuration from env and the optional config file.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("model", DefaultModel)
	v.SetDefault("base_url", DefaultBaseURL)
	v.SetDefault("temperature", 0.0)
	v.SetDefault("timeout_secs", 120)
	v.SetDefault("max_retries", 2)
	v.SetDefault("timezone", "UTC")
	v.SetDefault("calendar_id", "primary")
	v.SetDefault("gmail_user_id", "me")
	v.SetDefault("news_feeds", DefaultNewsFeeds)
	v.SetDefault("session_dir", defaultSessionDir())
	v.SetDefault("server_addr", ":8357")
	v.SetDefault("allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("auto_approve", false)
	v.SetDefault("approval_timeout_secs", 300)
	v.SetDefault("timing_logs", true)
	v.SetDefault("google_token_file", filepath.Join(configDir(), "token.json"))

	v.SetEnvPrefix("DONNA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bare names kept for parity with the original deployment scripts.
	_ = v.BindEnv("groq_api_key", "DONNA_GROQ_API_KEY", "GROQ_API_KEY")
	_ = v.BindEnv("tavily_api_key", "DONNA_TAVILY_API_KEY", "TAVILY_API_KEY")
	_ = v.BindEnv("timezone", "DONNA_TIMEZONE", "TIMEZONE")
	_ = v.BindEnv("calendar_id", "DONNA_CALENDAR_ID", "CALENDAR_ID")

	v.SetConfigName(".donna")
	v.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.GroqAPIKey = cleanSecret(cfg.GroqAPIKey)
	cfg.TavilyAPIKey = cleanSecret(cfg.TavilyAPIKey)

	assistant, err := LoadAssistantFile(filepath.Join(configDir(), "assistant.yaml"))
	if err != nil {
		return nil, err
	}
	cfg.Assistant = assistant
	if len(assistant.Feeds) > 0 {
		cfg.NewsFeeds = assistant.Feeds
	}

	return &cfg, nil
}

// Timeout returns the planner request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	if c.TimeoutSecs <= 0 {
		return 120 * time.Second
	}
	return time.Duration(c.TimeoutSecs) * time.Second
}

// cleanSecret strips whitespace and stray shell quoting from secrets pasted
// into env files.
func cleanSecret(value string) string {
	value = strings.TrimSpace(value)
	value = strings.Trim(value, `"'`)
	return value
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".donna"
	}
	return filepath.Join(home, ".donna")
}

func defaultSessionDir() string {
	return filepath.Join(configDir(), "sessions")
}
