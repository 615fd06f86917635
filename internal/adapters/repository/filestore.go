package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/okian/gamefit/internal/domain/pipeline"
	"github.com/okian/gamefit/pkg/metrics"
)

// Artifact file names inside a version directory.
const (
	PipelineFile = "pipeline.json"
	MetadataFile = "metadata.json"
)

const (
	defaultFileMode = 0o644
	defaultDirMode  = 0o755
	stagingPrefix   = ".staging-"
	retiredPrefix   = ".retired-"
)

// FileStore keeps one directory per version under a root directory:
//
//	<root>/<version>/pipeline.json
//	<root>/<version>/metadata.json
//
// A save is staged in a sibling directory and swapped in by rename, so a
// reader never sees a half-written version.
type FileStore struct {
	root     string
	fileMode os.FileMode
	dirMode  os.FileMode
	mu       sync.Mutex
}

// NewFileStore creates a store rooted at dir. The directory is created on
// first save.
func NewFileStore(dir string, opts ...Option) *FileStore {
	s := &FileStore{root: dir, fileMode: defaultFileMode, dirMode: defaultDirMode}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the store's root directory.
func (s *FileStore) Root() string { return s.root }

// Save implements Store.
func (s *FileStore) Save(ctx context.Context, a *Artifact) (err error) {
	start := time.Now()
	defer func() { metrics.RecordArtifactOperation("save", status(err), time.Since(start)) }()

	if err := validateArtifact(a); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	pipeJSON, err := a.Pipeline.Marshal()
	if err != nil {
		return fmt.Errorf("encode pipeline: %w", err)
	}
	metaJSON, err := json.MarshalIndent(a.Metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.root, s.dirMode); err != nil {
		return fmt.Errorf("create artifact root: %w", err)
	}
	version := a.Metadata.ModelVersion
	staging, err := os.MkdirTemp(s.root, stagingPrefix+version+"-")
	if err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)
	if err := os.Chmod(staging, s.dirMode); err != nil {
		return fmt.Errorf("chmod staging dir: %w", err)
	}
	if err := s.writeFile(filepath.Join(staging, PipelineFile), pipeJSON); err != nil {
		return err
	}
	if err := s.writeFile(filepath.Join(staging, MetadataFile), metaJSON); err != nil {
		return err
	}

	target := filepath.Join(s.root, version)
	retired := filepath.Join(s.root, retiredPrefix+version)
	if _, err := os.Stat(target); err == nil {
		_ = os.RemoveAll(retired)
		if err := os.Rename(target, retired); err != nil {
			return fmt.Errorf("retire previous artifact: %w", err)
		}
		defer os.RemoveAll(retired)
	}
	if err := os.Rename(staging, target); err != nil {
		return fmt.Errorf("publish artifact: %w", err)
	}
	return nil
}

func (s *FileStore) writeFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, s.fileMode)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// Load implements Store.
func (s *FileStore) Load(ctx context.Context, version string) (a *Artifact, err error) {
	start := time.Now()
	defer func() { metrics.RecordArtifactOperation("load", status(err), time.Since(start)) }()

	if err := ValidateVersion(version); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := filepath.Join(s.root, version)
	metaJSON, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: version %q in %s", ErrNotFound, version, s.root)
	}
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	pipeJSON, err := os.ReadFile(filepath.Join(dir, PipelineFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: version %q has no %s", ErrCorrupt, version, PipelineFile)
	}
	if err != nil {
		return nil, fmt.Errorf("read pipeline: %w", err)
	}
	return decodeArtifact(version, metaJSON, pipeJSON)
}

// Versions implements Store.
func (s *FileStore) Versions(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.root, e.Name(), MetadataFile)); err == nil {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

func decodeArtifact(version string, metaJSON, pipeJSON []byte) (*Artifact, error) {
	var meta Metadata
	if err := json.Unmarshal(metaJSON, &meta); err != nil {
		return nil, fmt.Errorf("%w: metadata: %v", ErrCorrupt, err)
	}
	if meta.ModelVersion != version {
		return nil, fmt.Errorf("%w: metadata names version %q, want %q", ErrCorrupt, meta.ModelVersion, version)
	}
	p, err := pipeline.Unmarshal(pipeJSON)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &Artifact{Pipeline: p, Metadata: meta}, nil
}

func status(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrCorrupt):
		return "corrupt"
	default:
		return "error"
	}
}
