package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Automation is the nine-key document that governs an automated workflow
// run. It is immutable after load; a client that mutates it persists the
// change with Save. Field order matches the on-disk document.
type Automation struct {
	Enabled              bool    `json:"enabled"`
	AutoLaunchDesktop    bool    `json:"auto_launch_desktop"`
	DesktopAppName       string  `json:"desktop_app_name"`
	LaunchTimeout        int     `json:"launch_timeout"`
	ResponseTimeout      int     `json:"response_timeout"`
	PollingInterval      float64 `json:"polling_interval"`
	AutoExecuteProposals bool    `json:"auto_execute_proposals"`
	CreateBackups        bool    `json:"create_backups"`
	MaxRetries           int     `json:"max_retries"`
}

// DefaultAutomation returns the automation defaults.
func DefaultAutomation() *Automation {
	return &Automation{
		Enabled:              true,
		AutoLaunchDesktop:    true,
		DesktopAppName:       "Claude",
		LaunchTimeout:        10,
		ResponseTimeout:      1800,
		PollingInterval:      1.0,
		AutoExecuteProposals: false,
		CreateBackups:        true,
		MaxRetries:           3,
	}
}

// LoadAutomation reads the automation document at path. A missing file
// is created with defaults. The returned Automation is always usable:
// a read or parse failure yields the defaults plus an advisory error
// for the caller to log, and an invalid field inside an otherwise
// readable document silently falls back to that field's default.
func LoadAutomation(path string) (*Automation, error) {
	cfg := DefaultAutomation()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if saveErr := cfg.Save(path); saveErr != nil {
			return cfg, fmt.Errorf("creating automation config: %w", saveErr)
		}
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading automation config: %w", err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return cfg, fmt.Errorf("parsing automation config: %w", err)
	}

	cfg.apply(doc)
	return cfg, nil
}

// apply overlays recognized, well-typed, in-range fields onto the
// defaults. Unknown keys are ignored.
func (a *Automation) apply(doc map[string]json.RawMessage) {
	boolField(doc, "enabled", &a.Enabled)
	boolField(doc, "auto_launch_desktop", &a.AutoLaunchDesktop)
	stringField(doc, "desktop_app_name", &a.DesktopAppName)
	intField(doc, "launch_timeout", &a.LaunchTimeout)
	intField(doc, "response_timeout", &a.ResponseTimeout)
	floatField(doc, "polling_interval", &a.PollingInterval)
	boolField(doc, "auto_execute_proposals", &a.AutoExecuteProposals)
	boolField(doc, "create_backups", &a.CreateBackups)
	intField(doc, "max_retries", &a.MaxRetries)
}

func boolField(doc map[string]json.RawMessage, key string, dst *bool) {
	raw, ok := doc[key]
	if !ok {
		return
	}
	var v bool
	if json.Unmarshal(raw, &v) == nil {
		*dst = v
	}
}

func stringField(doc map[string]json.RawMessage, key string, dst *string) {
	raw, ok := doc[key]
	if !ok {
		return
	}
	var v string
	if json.Unmarshal(raw, &v) == nil && v != "" {
		*dst = v
	}
}

func intField(doc map[string]json.RawMessage, key string, dst *int) {
	raw, ok := doc[key]
	if !ok {
		return
	}
	var num json.Number
	if json.Unmarshal(raw, &num) != nil {
		return
	}
	v, err := num.Int64()
	if err != nil || v <= 0 {
		return
	}
	*dst = int(v)
}

func floatField(doc map[string]json.RawMessage, key string, dst *float64) {
	raw, ok := doc[key]
	if !ok {
		return
	}
	var num json.Number
	if json.Unmarshal(raw, &num) != nil {
		return
	}
	v, err := num.Float64()
	if err != nil || v <= 0 {
		return
	}
	*dst = v
}

// Validate checks the type and range invariants. It gates Save.
func (a *Automation) Validate() error {
	v := NewValidator()
	return v.ValidateAutomation(a)
}

// Save writes the canonical document, creating parent directories.
func (a *Automation) Save(path string) error {
	if err := a.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding automation config: %w", err)
	}
	return AtomicWrite(path, append(data, '\n'))
}

// LaunchTimeoutDuration returns the launch timeout as a duration.
func (a *Automation) LaunchTimeoutDuration() time.Duration {
	return time.Duration(a.LaunchTimeout) * time.Second
}

// ResponseTimeoutDuration returns the response timeout as a duration.
func (a *Automation) ResponseTimeoutDuration() time.Duration {
	return time.Duration(a.ResponseTimeout) * time.Second
}

// PollingIntervalDuration returns the polling interval as a duration.
func (a *Automation) PollingIntervalDuration() time.Duration {
	return time.Duration(a.PollingInterval * float64(time.Second))
}
