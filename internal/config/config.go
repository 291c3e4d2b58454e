package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	ListenAddr string `yaml:"listen_addr"`

	// Gemini settings
	GeminiBaseURL  string        `yaml:"gemini_base_url"`
	ModelName      string        `yaml:"model"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Generation parameters
	Temperature     float64 `yaml:"temperature"`
	TopP            float64 `yaml:"top_p"`
	TopK            int     `yaml:"top_k"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`

	// Store settings
	StorePath   string `yaml:"store_path"`
	MaxSessions int    `yaml:"max_sessions"`

	// DefaultAPIKey is only ever read from the environment, never from a
	// config file on disk.
	DefaultAPIKey string `yaml:"-"`

	// Feature flags
	Verbose bool `yaml:"verbose"`
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		// Server defaults
		ListenAddr: ":8080",

		// Gemini defaults
		GeminiBaseURL:  "https://generativelanguage.googleapis.com",
		ModelName:      "gemini-2.0-flash-exp",
		RequestTimeout: 60 * time.Second,

		// Generation defaults
		Temperature:     0.9,
		TopP:            1,
		TopK:            1,
		MaxOutputTokens: 2048,

		// Store defaults
		StorePath:   expandHome("~/.fsearch/conversations.db"),
		MaxSessions: 50,

		// Feature flags
		Verbose: false,
	}
}

// LoadFile overlays settings from a YAML file onto the config.
// A missing file is not an error; defaults stay in place.
func (c *Config) LoadFile(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// FromEnv overlays settings from environment variables onto the config.
func (c *Config) FromEnv() {
	if v := GetEnv("FSEARCH_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := GetEnv("FSEARCH_GEMINI_URL"); v != "" {
		c.GeminiBaseURL = v
	}
	if v := GetEnv("FSEARCH_MODEL"); v != "" {
		c.ModelName = v
	}
	if v := GetEnv("FSEARCH_STORE_PATH"); v != "" {
		c.StorePath = v
	}
	if v := GetEnv("FSEARCH_TIMEOUT_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			c.RequestTimeout = time.Duration(secs) * time.Second
		}
	}
	if v := GetEnv("GEMINI_API_KEY"); v != "" {
		c.DefaultAPIKey = v
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address cannot be empty")
	}
	if c.GeminiBaseURL == "" {
		return fmt.Errorf("gemini URL cannot be empty")
	}
	if c.ModelName == "" {
		return fmt.Errorf("model name cannot be empty")
	}
	if c.MaxOutputTokens < 1 {
		return fmt.Errorf("max output tokens must be at least 1")
	}
	if c.MaxSessions < 1 {
		return fmt.Errorf("max sessions must be at least 1")
	}
	return nil
}

// expandHome expands the ~ in file paths to the user's home directory
func expandHome(path string) string {
	if len(path) > 0 && path[0] == '~' {
		homeDir := getHomeDir()
		return homeDir + path[1:]
	}
	return path
}

// getHomeDir returns the user's home directory
func getHomeDir() string {
	if home := GetEnv("HOME"); home != "" {
		return home
	}
	// Fallback for Windows
	if home := GetEnv("USERPROFILE"); home != "" {
		return home
	}
	return "."
}

// GetEnv is a wrapper around os.Getenv for easier testing
var GetEnv = os.Getenv
