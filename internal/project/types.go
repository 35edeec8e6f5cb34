// Package project tracks the repositories that help requests are created
// from. The registry is a small YAML document living in the workspace root,
// listed by the projects command and counted by the dashboard.
package project

import (
	"time"
)

// Project is one repository seen at request creation time.
type Project struct {
	// ID is the unique identifier for the project (cryptographically random)
	ID string `yaml:"id" json:"id"`
	// Path is the absolute filesystem path to the project root
	Path string `yaml:"path" json:"path"`
	// Name is the human-readable name, derived from the path base
	Name string `yaml:"name" json:"name"`
	// FirstUsed is when the first request was created from this project
	FirstUsed time.Time `yaml:"first_used" json:"first_used"`
	// LastUsed is when the most recent request was created
	LastUsed time.Time `yaml:"last_used" json:"last_used"`
	// RequestCount is how many requests were created from this project
	RequestCount int `yaml:"request_count" json:"request_count"`
}

// Clone creates a copy of the project.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

// RegistryConfig holds the persisted registry data.
type RegistryConfig struct {
	// Version is the schema version of the registry file
	Version int `yaml:"version"`
	// Projects is the list of all seen projects
	Projects []*Project `yaml:"projects"`
}
