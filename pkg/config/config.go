// Package config loads and validates the application configuration from a
// JSON or YAML file plus environment variables. Secrets come from the
// environment (optionally via a .env file); the config file carries the rest.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the CalBolt configuration
type Config struct {
	OpenAI     OpenAIConfig     `json:"openai" yaml:"openai"`
	Calcom     CalcomConfig     `json:"calcom" yaml:"calcom"`
	User       UserConfig       `json:"user" yaml:"user"`
	Server     ServerConfig     `json:"server" yaml:"server"`
	Transcript TranscriptConfig `json:"transcript" yaml:"transcript"`
	Debug      bool             `json:"debug" yaml:"debug"`
}

// OpenAIConfig contains LLM backend settings
type OpenAIConfig struct {
	APIKey      string  `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL     string  `json:"base_url" yaml:"base_url"`
	Model       string  `json:"model" yaml:"model"`
	Temperature float64 `json:"temperature" yaml:"temperature"`
	MaxTokens   int     `json:"max_tokens" yaml:"max_tokens"`
}

// CalcomConfig contains scheduling API settings
type CalcomConfig struct {
	APIKey      string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL     string `json:"base_url" yaml:"base_url"`
	EventTypeID int    `json:"event_type_id" yaml:"event_type_id"`
}

// UserConfig contains per-deployment user settings
type UserConfig struct {
	Email       string `json:"email" yaml:"email"`
	Timezone    string `json:"timezone" yaml:"timezone"`
	PersonaFile string `json:"persona_file,omitempty" yaml:"persona_file,omitempty"`
}

// ServerConfig contains HTTP front-end settings
type ServerConfig struct {
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`
}

// TranscriptConfig contains conversation transcript storage settings.
// An empty DatabaseURL selects the in-memory store.
type TranscriptConfig struct {
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url,omitempty"`
}

// Load loads configuration from a file
func Load(path string) (*Config, error) {
	// A missing .env is fine; the environment may already be populated
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	config.applyEnv()
	config.setDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadDefault attempts to load .calbolt.json or .calbolt.yaml from the
// current directory or home; with neither present, configuration comes from
// the environment alone.
func LoadDefault() (*Config, error) {
	candidates := []string{".calbolt.json", ".calbolt.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, ".calbolt.json"),
			filepath.Join(home, ".calbolt.yaml"),
		)
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	_ = godotenv.Load()

	var config Config
	config.applyEnv()
	config.setDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// applyEnv overrides file values with environment variables
func (c *Config) applyEnv() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		c.OpenAI.Model = v
	}
	if v := os.Getenv("CALCOM_API_KEY"); v != "" {
		c.Calcom.APIKey = v
	}
	if v := os.Getenv("CALCOM_EVENT_TYPE_ID"); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			c.Calcom.EventTypeID = id
		}
	}
	if v := os.Getenv("USER_EMAIL"); v != "" {
		c.User.Email = v
	}
	if v := os.Getenv("USER_TIMEZONE"); v != "" {
		c.User.Timezone = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Transcript.DatabaseURL = v
	}
	if v := os.Getenv("DEBUG"); v != "" {
		c.Debug = strings.EqualFold(v, "true") || v == "1"
	}
}

// setDefaults sets default values for configuration
func (c *Config) setDefaults() {
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = "https://api.openai.com"
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4"
	}
	if c.OpenAI.Temperature == 0 {
		c.OpenAI.Temperature = 0.7
	}
	if c.OpenAI.MaxTokens == 0 {
		c.OpenAI.MaxTokens = 1000
	}

	if c.Calcom.BaseURL == "" {
		c.Calcom.BaseURL = "https://api.cal.com/v2"
	}

	if c.User.Timezone == "" {
		c.User.Timezone = "America/Los_Angeles"
	}

	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
}

// Validate validates the configuration. Missing required settings are fatal
// at startup; nothing re-validates once the tools are constructed.
func (c *Config) Validate() error {
	var missing []string

	if c.OpenAI.APIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if c.Calcom.APIKey == "" {
		missing = append(missing, "CALCOM_API_KEY")
	}
	if c.User.Email == "" {
		missing = append(missing, "USER_EMAIL")
	}
	if c.Calcom.EventTypeID <= 0 {
		missing = append(missing, "CALCOM_EVENT_TYPE_ID")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	return nil
}

// Addr returns the host:port the HTTP front ends listen on
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
