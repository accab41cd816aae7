package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Voice describes a speech-synthesis voice offered by the server.
type Voice struct {
	Name     string `yaml:"name" json:"name"`
	Language string `yaml:"language" json:"language"`
	Gender   string `yaml:"gender,omitempty" json:"gender,omitempty"`
}

// FileConfig defines the structure loaded from the optional YAML config file.
type FileConfig struct {
	Voices       []Voice `yaml:"voices"`
	DefaultVoice string  `yaml:"default_voice"`
}

// Config holds the application configuration. Fields are loaded from
// environment variables with the prefix "MCP_"; the optional YAML file
// supplies tool-provider settings and is overridden by the environment.
type Config struct {
	// Config file path (loaded first from env)
	ConfigFilePath string `envconfig:"CONFIG_FILE"`

	// File-loaded fields
	Voices       []Voice `ignored:"true"`
	DefaultVoice string  `envconfig:"DEFAULT_VOICE"`

	ListenAddr      string        `envconfig:"LISTEN_ADDR" default:":8080"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`

	// Auth. Requests are rejected outright when neither a master key nor a
	// JWT secret is configured.
	MasterAPIKey    string `envconfig:"MASTER_API_KEY"`
	MinAPIKeyLength int    `envconfig:"MIN_API_KEY_LENGTH" default:"16"`
	JWTSecret       string `envconfig:"JWT_SECRET"`
	JWTAlgorithm    string `envconfig:"JWT_ALGORITHM" default:"HS256"`

	// Tool execution
	ToolTimeout time.Duration `envconfig:"TOOL_TIMEOUT" default:"30s"`

	// Tool providers
	DatabaseURL string `envconfig:"DATABASE_URL"`
	TTSEndpoint string `envconfig:"TTS_ENDPOINT"`
	TTSAPIKey   string `envconfig:"TTS_API_KEY"`
}

// ParsedLogLevel returns the slog.Level for the configured LogLevel string.
func (c *Config) ParsedLogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info":
		fallthrough
	default:
		return slog.LevelInfo
	}
}

// Load loads configuration from environment variables, then merges in the
// optional YAML file, then processes the environment again so env vars win.
func Load() (cfg *Config, err error) {
	var initial Config
	err = envconfig.Process("mcp", &initial)
	if err != nil {
		err = fmt.Errorf("failed to process environment variables: %w", err)
		return cfg, err
	}

	if initial.ConfigFilePath != "" {
		var raw []byte
		raw, err = os.ReadFile(initial.ConfigFilePath)
		if err != nil {
			err = fmt.Errorf("failed to read config file '%s': %w", initial.ConfigFilePath, err)
			return cfg, err
		}

		var fileCfg FileConfig
		err = yaml.Unmarshal(raw, &fileCfg)
		if err != nil {
			err = fmt.Errorf("failed to unmarshal config file '%s': %w", initial.ConfigFilePath, err)
			return cfg, err
		}

		initial.Voices = fileCfg.Voices
		if fileCfg.DefaultVoice != "" {
			initial.DefaultVoice = fileCfg.DefaultVoice
		}

		// Env vars override file settings.
		err = envconfig.Process("mcp", &initial)
		if err != nil {
			err = fmt.Errorf("failed to process overriding environment variables: %w", err)
			return cfg, err
		}
	}

	cfg = &initial
	return cfg, err
}
