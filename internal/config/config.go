package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Slack     SlackConfig     `mapstructure:"slack"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts"`
	Pacing    PacingConfig    `mapstructure:"pacing"`
	Store     StoreConfig     `mapstructure:"store"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// SlackConfig holds messaging-platform API configuration
type SlackConfig struct {
	BotToken    string        `mapstructure:"bot_token"`
	APIBase     string        `mapstructure:"api_base"`
	WebhookPath string        `mapstructure:"webhook_path"`
	APITimeout  time.Duration `mapstructure:"api_timeout"`
}

// LLMConfig is a placeholder: the rule engine is simulated, but the
// key stays in the environment contract for parity with deployments
// that set it.
type LLMConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// ArtifactsConfig holds generated-document configuration
type ArtifactsConfig struct {
	OutputDir    string `mapstructure:"output_dir"`
	PublicPath   string `mapstructure:"public_path"`
	BaseURL      string `mapstructure:"base_url"`
	TemplatesDir string `mapstructure:"templates_dir"`
}

// PacingConfig bounds the randomized staged-message delay
type PacingConfig struct {
	MinDelay time.Duration `mapstructure:"min_delay"`
	MaxDelay time.Duration `mapstructure:"max_delay"`
}

// StoreConfig selects the audit record store backend
type StoreConfig struct {
	Driver string `mapstructure:"driver"` // memory or sqlite
	Path   string `mapstructure:"path"`   // sqlite only
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 3000)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	viper.SetDefault("slack.api_base", "https://slack.com/api")
	viper.SetDefault("slack.webhook_path", "/slack/events")
	viper.SetDefault("slack.api_timeout", 30*time.Second)

	viper.SetDefault("artifacts.output_dir", "pdf/generated")
	viper.SetDefault("artifacts.public_path", "/pdf/generated")
	viper.SetDefault("artifacts.base_url", "http://localhost:3000/pdf/generated")
	viper.SetDefault("artifacts.templates_dir", "templates")

	viper.SetDefault("pacing.min_delay", 1500*time.Millisecond)
	viper.SetDefault("pacing.max_delay", 4500*time.Millisecond)

	viper.SetDefault("store.driver", "memory")
	viper.SetDefault("store.path", "data/records.db")

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	viper.BindEnv("slack.bot_token", "SLACK_BOT_TOKEN")
	viper.BindEnv("server.port", "PORT")
	viper.BindEnv("llm.api_key", "OPENAI_API_KEY")
	viper.BindEnv("artifacts.base_url", "ARTIFACTS_BASE_URL")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Slack.BotToken == "" {
		return fmt.Errorf("slack.bot_token is required")
	}
	if c.Artifacts.OutputDir == "" {
		return fmt.Errorf("artifacts.output_dir is required")
	}
	if c.Store.Driver != "memory" && c.Store.Driver != "sqlite" {
		return fmt.Errorf("store.driver must be memory or sqlite, got %q", c.Store.Driver)
	}
	if c.Pacing.MaxDelay <= c.Pacing.MinDelay {
		return fmt.Errorf("pacing.max_delay must exceed pacing.min_delay")
	}
	return nil
}
