package project

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kazumasakawahara/claude-bridge/internal/logging"
)

// Registry defines the interface for tracking seen projects.
type Registry interface {
	// List returns all seen projects, most recently used first
	List() ([]*Project, error)

	// Get retrieves a project by ID
	Get(id string) (*Project, error)

	// GetByPath retrieves a project by its filesystem path
	GetByPath(path string) (*Project, error)

	// RecordUse registers a request creation from the given project root,
	// adding the project on first sight and touching it afterwards
	RecordUse(path string) (*Project, error)

	// Remove drops a project from the registry by ID
	Remove(id string) error

	// Count returns how many projects the registry holds
	Count() (int, error)

	// Close releases the registry
	Close() error
}

// FileRegistry implements Registry using a YAML file for persistence.
type FileRegistry struct {
	configPath string
	config     *RegistryConfig
	mu         sync.RWMutex
	logger     *logging.Logger
	now        func() time.Time
	closed     bool
}

// RegistryOption configures a FileRegistry.
type RegistryOption func(*FileRegistry)

// WithLogger sets the logger for the registry.
func WithLogger(logger *logging.Logger) RegistryOption {
	return func(r *FileRegistry) {
		r.logger = logger
	}
}

// WithClock overrides the time source used for usage timestamps.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *FileRegistry) {
		r.now = now
	}
}

// NewFileRegistry creates a registry backed by the YAML document at path.
// A missing document starts the registry empty.
func NewFileRegistry(path string, opts ...RegistryOption) (*FileRegistry, error) {
	r := &FileRegistry{
		configPath: path,
		logger:     logging.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.load(); err != nil {
		return nil, err
	}
	r.logger.Debug("project registry loaded",
		"config_path", r.configPath,
		"project_count", len(r.config.Projects))
	return r, nil
}

// load reads the registry from disk.
func (r *FileRegistry) load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			r.config = &RegistryConfig{
				Version:  1,
				Projects: make([]*Project, 0),
			}
			return nil
		}
		return NewRegistryError("load", err)
	}

	var config RegistryConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return NewRegistryError("load", fmt.Errorf("%w: %v", ErrRegistryCorrupted, err))
	}
	if config.Projects == nil {
		config.Projects = make([]*Project, 0)
	}
	r.config = &config
	return nil
}

// save writes the registry to disk. Caller must hold the write lock.
func (r *FileRegistry) save() error {
	data, err := yaml.Marshal(r.config)
	if err != nil {
		return NewRegistryError("save", err)
	}

	if err := os.MkdirAll(filepath.Dir(r.configPath), 0o750); err != nil {
		return NewRegistryError("save", err)
	}

	// Write to temp file first, then rename for atomicity
	tmpPath := r.configPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return NewRegistryError("save", err)
	}
	if err := os.Rename(tmpPath, r.configPath); err != nil {
		os.Remove(tmpPath)
		return NewRegistryError("save", err)
	}
	return nil
}

// List returns all seen projects, most recently used first.
func (r *FileRegistry) List() ([]*Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, ErrRegistryClosed
	}

	projects := make([]*Project, len(r.config.Projects))
	for i, p := range r.config.Projects {
		projects[i] = p.Clone()
	}
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].LastUsed.After(projects[j].LastUsed)
	})
	return projects, nil
}

// Get retrieves a project by ID.
func (r *FileRegistry) Get(id string) (*Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, ErrRegistryClosed
	}

	for _, p := range r.config.Projects {
		if p.ID == id {
			return p.Clone(), nil
		}
	}
	return nil, ErrProjectNotFound
}

// GetByPath retrieves a project by its filesystem path.
func (r *FileRegistry) GetByPath(path string) (*Project, error) {
	cleanPath := filepath.Clean(path)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, ErrRegistryClosed
	}

	for _, p := range r.config.Projects {
		if filepath.Clean(p.Path) == cleanPath {
			return p.Clone(), nil
		}
	}
	return nil, ErrProjectNotFound
}

// RecordUse registers a request creation from the given project root. First
// sight adds the project; later sightings bump last-used and the counter.
func (r *FileRegistry) RecordUse(path string) (*Project, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, NewRegistryError("record", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrRegistryClosed
	}

	usedAt := r.now()
	for _, p := range r.config.Projects {
		if filepath.Clean(p.Path) == absPath {
			p.LastUsed = usedAt
			p.RequestCount++
			if err := r.save(); err != nil {
				return nil, err
			}
			return p.Clone(), nil
		}
	}

	proj := &Project{
		ID:           generateProjectID(),
		Path:         absPath,
		Name:         filepath.Base(absPath),
		FirstUsed:    usedAt,
		LastUsed:     usedAt,
		RequestCount: 1,
	}
	r.config.Projects = append(r.config.Projects, proj)
	if err := r.save(); err != nil {
		return nil, err
	}
	r.logger.Debug("project registered", "name", proj.Name, "path", proj.Path)
	return proj.Clone(), nil
}

// Remove drops a project from the registry by ID.
func (r *FileRegistry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRegistryClosed
	}

	for i, p := range r.config.Projects {
		if p.ID == id {
			r.config.Projects = append(r.config.Projects[:i], r.config.Projects[i+1:]...)
			return r.save()
		}
	}
	return ErrProjectNotFound
}

// Count returns how many projects the registry holds.
func (r *FileRegistry) Count() (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return 0, ErrRegistryClosed
	}
	return len(r.config.Projects), nil
}

// Close releases the registry. Further calls fail with ErrRegistryClosed.
func (r *FileRegistry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// generateProjectID creates a cryptographically random project ID.
func generateProjectID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		// Extremely unlikely; fall back to a time-derived id.
		return fmt.Sprintf("%x", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}
