// Package state persists the request and response documents that make up
// the bridge workspace, plus the append-only error log. Document writes go
// through an atomic rename so the external reader never observes a partial
// file.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"

	"github.com/kazumasakawahara/claude-bridge/internal/core"
	"github.com/kazumasakawahara/claude-bridge/internal/fsutil"
	"github.com/kazumasakawahara/claude-bridge/internal/workspace"
)

const (
	requestGlob  = "req_*.json"
	responseGlob = "req_*_response.json"
)

// Store implements core.RequestStore over a workspace directory tree.
type Store struct {
	paths workspace.Paths
	now   func() time.Time
}

// StoreOption configures the store.
type StoreOption func(*Store)

// WithClock overrides the time source used for generated ids.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a request store rooted at the given workspace paths.
func NewStore(paths workspace.Paths, opts ...StoreOption) *Store {
	s := &Store{
		paths: paths,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRequest persists a request document and stages its analysis files.
// Missing identity fields are filled in on the passed request: id and
// timestamp from the clock, status pending, project root from the working
// directory. Files that cannot be staged are skipped, not fatal.
func (s *Store) CreateRequest(req *core.HelpRequest) (*core.CreatedRequest, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	createdAt := s.now()
	if req.RequestID == "" {
		req.RequestID = core.RequestIDAt(createdAt)
	}
	if req.Timestamp == "" {
		req.Timestamp = core.TimestampAt(createdAt)
	}
	if req.Status == "" {
		req.Status = core.RequestStatusPending
	}
	if req.ProjectRoot == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, core.ErrIO(core.CodeFileWrite, "resolving project root").WithCause(err)
		}
		req.ProjectRoot = cwd
	}
	if req.Tried == nil {
		req.Tried = []string{}
	}
	if req.FilesToAnalyze == nil {
		req.FilesToAnalyze = []string{}
	}

	data, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	if err := fsutil.EnsureDir(s.paths.Requests); err != nil {
		return nil, core.ErrIO(core.CodeFileWrite, "creating requests directory").WithCause(err)
	}
	requestFile := s.paths.RequestFile(req.RequestID)
	if err := WriteFileAtomic(requestFile, data, 0o644); err != nil {
		return nil, core.ErrIO(core.CodeFileWrite, fmt.Sprintf("writing request %s", req.RequestID)).WithCause(err)
	}

	// The analysis directory exists even when no files are staged, so the
	// external reader has a stable place to look.
	analysisDir := s.paths.RequestDir(req.RequestID)
	if err := fsutil.EnsureDir(analysisDir); err != nil {
		return nil, core.ErrIO(core.CodeFileWrite, fmt.Sprintf("creating analysis directory for %s", req.RequestID)).WithCause(err)
	}

	created := &core.CreatedRequest{
		Request:      req,
		RequestFile:  requestFile,
		AnalysisDir:  analysisDir,
		CopiedFiles:  []string{},
		SkippedFiles: []string{},
	}
	for _, rel := range req.FilesToAnalyze {
		src := rel
		if !filepath.IsAbs(src) {
			src = filepath.Join(req.ProjectRoot, rel)
		}
		dst := filepath.Join(analysisDir, filepath.Base(rel))
		if err := fsutil.CopyFile(src, dst); err != nil {
			created.SkippedFiles = append(created.SkippedFiles, rel)
			continue
		}
		created.CopiedFiles = append(created.CopiedFiles, rel)
	}
	return created, nil
}

// LoadRequest reads one request document by id.
func (s *Store) LoadRequest(requestID string) (*core.HelpRequest, error) {
	data, err := os.ReadFile(s.paths.RequestFile(requestID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.ErrNotFound(core.CodeRequestNotFound, "request", requestID)
		}
		return nil, core.ErrIO(core.CodeFileRead, fmt.Sprintf("reading request %s", requestID)).WithCause(err)
	}
	var req core.HelpRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, core.ErrParse(fmt.Sprintf("decoding request %s", requestID)).WithCause(err)
	}
	return &req, nil
}

// ResponseExists reports whether a response document has arrived for the id.
func (s *Store) ResponseExists(requestID string) bool {
	return fsutil.Exists(s.paths.ResponseFile(requestID))
}

// ReadResponse reads and decodes the response document for the id.
func (s *Store) ReadResponse(requestID string) (*core.Response, error) {
	data, err := os.ReadFile(s.paths.ResponseFile(requestID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.ErrNotFound(core.CodeResponseNotFound, "response", requestID)
		}
		return nil, core.ErrIO(core.CodeFileRead, fmt.Sprintf("reading response for %s", requestID)).WithCause(err)
	}
	var resp core.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, core.ErrParse(fmt.Sprintf("decoding response for %s", requestID)).WithCause(err)
	}
	if resp.RequestID == "" {
		resp.RequestID = requestID
	}
	return &resp, nil
}

// RequestPath returns where the request document for the id lives.
func (s *Store) RequestPath(requestID string) string {
	return s.paths.RequestFile(requestID)
}

// ResponsePath returns where the response document for the id is expected.
func (s *Store) ResponsePath(requestID string) string {
	return s.paths.ResponseFile(requestID)
}

// ListPending returns requests that have no response yet, oldest first.
// Unreadable or corrupt documents are skipped.
func (s *Store) ListPending() ([]core.HelpRequest, error) {
	files, err := filepath.Glob(filepath.Join(s.paths.Requests, requestGlob))
	if err != nil {
		return nil, fmt.Errorf("listing requests: %w", err)
	}
	pending := []core.HelpRequest{}
	for _, file := range files {
		id := strings.TrimSuffix(filepath.Base(file), ".json")
		if s.ResponseExists(id) {
			continue
		}
		req, err := s.LoadRequest(id)
		if err != nil {
			continue
		}
		pending = append(pending, *req)
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].RequestID < pending[j].RequestID
	})
	return pending, nil
}

// ListResponded returns responses present in the workspace, newest first.
// A limit of zero or less means no limit.
func (s *Store) ListResponded(limit int) ([]core.Response, error) {
	files, err := filepath.Glob(filepath.Join(s.paths.Responses, responseGlob))
	if err != nil {
		return nil, fmt.Errorf("listing responses: %w", err)
	}
	responded := []core.Response{}
	for _, file := range files {
		id := strings.TrimSuffix(filepath.Base(file), "_response.json")
		resp, err := s.ReadResponse(id)
		if err != nil {
			continue
		}
		responded = append(responded, *resp)
	}
	sort.Slice(responded, func(i, j int) bool {
		return responded[i].RequestID > responded[j].RequestID
	})
	if limit > 0 && len(responded) > limit {
		responded = responded[:limit]
	}
	return responded, nil
}

// Archive moves a completed request out of the active directories. Both the
// request and its response must exist; the analysis directory moves along
// when present.
func (s *Store) Archive(requestID string) error {
	requestFile := s.paths.RequestFile(requestID)
	responseFile := s.paths.ResponseFile(requestID)
	if !fsutil.Exists(requestFile) {
		return core.ErrNotFound(core.CodeRequestNotFound, "request", requestID)
	}
	if !fsutil.Exists(responseFile) {
		return core.ErrState(core.CodeInvalidState, fmt.Sprintf("request %s has no response yet", requestID))
	}

	archiveDir := s.paths.ArchiveDir(requestID)
	if err := fsutil.EnsureDir(archiveDir); err != nil {
		return core.ErrIO(core.CodeFileWrite, fmt.Sprintf("creating archive directory for %s", requestID)).WithCause(err)
	}
	if err := os.Rename(requestFile, filepath.Join(archiveDir, filepath.Base(requestFile))); err != nil {
		return core.ErrIO(core.CodeFileWrite, fmt.Sprintf("archiving request %s", requestID)).WithCause(err)
	}
	if err := os.Rename(responseFile, filepath.Join(archiveDir, filepath.Base(responseFile))); err != nil {
		return core.ErrIO(core.CodeFileWrite, fmt.Sprintf("archiving response for %s", requestID)).WithCause(err)
	}
	requestDir := s.paths.RequestDir(requestID)
	if fsutil.Exists(requestDir) {
		if err := os.Rename(requestDir, filepath.Join(archiveDir, requestID)); err != nil {
			return core.ErrIO(core.CodeFileWrite, fmt.Sprintf("archiving analysis files for %s", requestID)).WithCause(err)
		}
	}
	return nil
}

// ResolveID expands a partial request id to a full one using the active
// request documents. Exact ids pass through untouched; otherwise a unique
// fuzzy match wins and anything ambiguous is an error.
func (s *Store) ResolveID(partial string) (string, error) {
	ids, err := s.knownIDs()
	if err != nil {
		return "", err
	}
	for _, id := range ids {
		if id == partial {
			return id, nil
		}
	}
	matches := fuzzy.Find(partial, ids)
	switch len(matches) {
	case 0:
		return "", core.ErrNotFound(core.CodeRequestNotFound, "request", partial)
	case 1:
		return matches[0].Str, nil
	default:
		candidates := make([]string, 0, 3)
		for i, m := range matches {
			if i == 3 {
				break
			}
			candidates = append(candidates, m.Str)
		}
		return "", core.ErrValidation(core.CodeAmbiguousID,
			fmt.Sprintf("id %q matches several requests: %s", partial, strings.Join(candidates, ", ")))
	}
}

func (s *Store) knownIDs() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(s.paths.Requests, requestGlob))
	if err != nil {
		return nil, fmt.Errorf("listing requests: %w", err)
	}
	ids := make([]string, 0, len(files))
	for _, file := range files {
		ids = append(ids, strings.TrimSuffix(filepath.Base(file), ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

// Stats summarizes workspace occupancy for the dashboard.
type Stats struct {
	Pending        int
	TotalRequests  int
	TotalResponses int
	Archived       int
	Checkpoints    int
	Backups        int
}

// Stats counts the documents currently in the workspace. Directories that
// do not exist yet count as zero.
func (s *Store) Stats() Stats {
	var st Stats
	if files, err := filepath.Glob(filepath.Join(s.paths.Requests, requestGlob)); err == nil {
		st.TotalRequests = len(files)
		for _, file := range files {
			id := strings.TrimSuffix(filepath.Base(file), ".json")
			if !s.ResponseExists(id) {
				st.Pending++
			}
		}
	}
	if files, err := filepath.Glob(filepath.Join(s.paths.Responses, responseGlob)); err == nil {
		st.TotalResponses = len(files)
	}
	st.Archived = countDirEntries(s.paths.Archive, "req_")
	st.Checkpoints = countDirEntries(s.paths.Checkpoints, "checkpoint_")
	st.Backups = countDirEntries(s.paths.Backups, "")
	return st
}

func countDirEntries(dir, prefix string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if prefix == "" || strings.HasPrefix(e.Name(), prefix) {
			n++
		}
	}
	return n
}
