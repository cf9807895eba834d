package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation: %s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// Validate validates the entire configuration.
func (v *Validator) Validate(cfg *Config) error {
	v.validateServer(&cfg.Server)
	v.validateStorage(&cfg.Storage)
	v.validateCurrent(&cfg.Current)
	v.validateLog(&cfg.Log)
	v.validateHistory(&cfg.History)
	v.validateValidation(&cfg.Validation)

	if len(v.errors) > 0 {
		return v.errors
	}
	return nil
}

// Errors returns the collected validation errors.
func (v *Validator) Errors() ValidationErrors {
	return v.errors
}

func (v *Validator) addError(field string, value interface{}, msg string) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Value:   value,
		Message: msg,
	})
}

func (v *Validator) validateServer(cfg *ServerConfig) {
	if cfg.Host == "" {
		v.addError("server.host", cfg.Host, "must not be empty")
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		v.addError("server.port", cfg.Port, "must be between 1 and 65535")
	}
	if cfg.RequestTimeout <= 0 {
		v.addError("server.request_timeout", cfg.RequestTimeout, "must be positive")
	}
	if cfg.ShutdownTimeout <= 0 {
		v.addError("server.shutdown_timeout", cfg.ShutdownTimeout, "must be positive")
	}
}

func (v *Validator) validateStorage(cfg *StorageConfig) {
	if cfg.Path == "" {
		v.addError("storage.path", cfg.Path, "must not be empty")
	}
}

func (v *Validator) validateCurrent(cfg *CurrentConfig) {
	if cfg.Path == "" {
		v.addError("current.path", cfg.Path, "must not be empty")
	}
	if cfg.CacheTTL < 0 {
		v.addError("current.cache_ttl", cfg.CacheTTL, "must not be negative")
	}
}

func (v *Validator) validateLog(cfg *LogConfig) {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[cfg.Level] {
		v.addError("log.level", cfg.Level, "must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"auto": true, "text": true, "json": true,
	}
	if !validFormats[cfg.Format] {
		v.addError("log.format", cfg.Format, "must be one of: auto, text, json")
	}
}

func (v *Validator) validateHistory(cfg *HistoryConfig) {
	if cfg.Retention <= 0 {
		v.addError("history.retention", cfg.Retention, "must be positive")
	}
	if cfg.MaxPerProfile < 1 {
		v.addError("history.max_per_profile", cfg.MaxPerProfile, "must be at least 1")
	}
}

func (v *Validator) validateValidation(cfg *ValidationConfig) {
	if cfg.Timeout <= 0 {
		v.addError("validation.timeout", cfg.Timeout, "must be positive")
	}
}
