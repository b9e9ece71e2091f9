// Package config loads the YAML configuration file. A missing file yields the
// defaults; a present but invalid file is an error.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	AI      AIConfig      `yaml:"ai"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Listen  string `yaml:"listen"`
	WebRoot string `yaml:"web_root"`

	// AuthTokenHash is an optional bcrypt hash. When set, /api/analyze
	// requires a matching bearer token.
	AuthTokenHash string `yaml:"auth_token_hash"`

	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type RateLimitConfig struct {
	Enabled     bool `yaml:"enabled"`
	ClientQPS   int  `yaml:"client_qps"`
	ClientBurst int  `yaml:"client_burst"`
}

type AIConfig struct {
	Model string `yaml:"model"`

	// APIKeyEnv names the environment variable holding the backend API key.
	// The key itself never lives in the config file.
	APIKeyEnv string `yaml:"api_key_env"`

	// BaseURL overrides the backend endpoint, e.g. for a proxy.
	BaseURL string `yaml:"base_url"`
}

type StorageConfig struct {
	Dir string `yaml:"dir"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:  ":8080",
			WebRoot: "./web",
			RateLimit: RateLimitConfig{
				Enabled:     true,
				ClientQPS:   5,
				ClientBurst: 10,
			},
		},
		AI: AIConfig{
			Model:     "gpt-4o-mini",
			APIKeyEnv: "OPENAI_API_KEY",
		},
		Storage: StorageConfig{
			Dir: defaultDataDir(),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".qrshield"
	}
	return home + "/.qrshield"
}

// Load reads the config at path, falling back to Default when the file does
// not exist. Fields absent from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
