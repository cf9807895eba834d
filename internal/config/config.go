package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Current    CurrentConfig    `mapstructure:"current"`
	Log        LogConfig        `mapstructure:"log"`
	History    HistoryConfig    `mapstructure:"history"`
	Validation ValidationConfig `mapstructure:"validation"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// StorageConfig configures profile and template persistence.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// CurrentConfig configures the active configuration file.
type CurrentConfig struct {
	Path     string        `mapstructure:"path"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	Watch    bool          `mapstructure:"watch"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// HistoryConfig configures change-history retention.
type HistoryConfig struct {
	Retention     time.Duration `mapstructure:"retention"`
	MaxPerProfile int           `mapstructure:"max_per_profile"`
}

// ValidationConfig configures default validation behavior.
type ValidationConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	CheckFiles    bool          `mapstructure:"check_files"`
	CheckAPIKeys  bool          `mapstructure:"check_api_keys"`
	CheckModels   bool          `mapstructure:"check_models"`
	OpenAIKey     string        `mapstructure:"openai_key"`
	AnthropicKey  string        `mapstructure:"anthropic_key"`
	OpenRouterKey string        `mapstructure:"openrouter_key"`
}

// Addr returns the listen address for the HTTP server.
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
