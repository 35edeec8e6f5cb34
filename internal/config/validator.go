package config

import (
	"fmt"
	"os"
	"path/filepath"
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

// Validate validates the CLI settings.
func (v *Validator) Validate(cfg *Settings) error {
	v.validateLog(&cfg.Log)
	v.validateWorkspace(&cfg.Workspace)
	v.validateDesktop(&cfg.Desktop)

	if len(v.errors) > 0 {
		return v.errors
	}
	return nil
}

// ValidateAutomation validates the automation document invariants.
func (v *Validator) ValidateAutomation(a *Automation) error {
	if strings.TrimSpace(a.DesktopAppName) == "" {
		v.addError("desktop_app_name", a.DesktopAppName, "application name required")
	}
	if a.LaunchTimeout <= 0 {
		v.addError("launch_timeout", a.LaunchTimeout, "must be positive")
	}
	if a.ResponseTimeout <= 0 {
		v.addError("response_timeout", a.ResponseTimeout, "must be positive")
	}
	if a.PollingInterval <= 0 {
		v.addError("polling_interval", a.PollingInterval, "must be positive")
	}
	if a.MaxRetries <= 0 {
		v.addError("max_retries", a.MaxRetries, "must be positive")
	}

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

func (v *Validator) validateLog(cfg *LogSettings) {
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

	if cfg.File != "" && !isValidPath(cfg.File) {
		v.addError("log.file", cfg.File, "invalid file path")
	}
}

func (v *Validator) validateWorkspace(cfg *WorkspaceSettings) {
	if cfg.Root != "" && !isValidPath(cfg.Root) {
		v.addError("workspace.root", cfg.Root, "invalid directory path")
	}
}

func (v *Validator) validateDesktop(cfg *DesktopSettings) {
	if cfg.ConfigFile != "" && !isValidPath(cfg.ConfigFile) {
		v.addError("desktop.config_file", cfg.ConfigFile, "invalid file path")
	}
}

func isValidPath(path string) bool {
	dir := filepath.Dir(path)
	_, err := os.Stat(dir)
	return err == nil || os.IsNotExist(err)
}

// ValidateSettings is a convenience function that creates a validator
// and validates the CLI settings.
func ValidateSettings(cfg *Settings) error {
	v := NewValidator()
	return v.Validate(cfg)
}
