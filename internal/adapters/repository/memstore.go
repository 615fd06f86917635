package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

type encoded struct {
	metadata []byte
	pipeline []byte
}

// MemoryStore keeps encoded artifacts in memory. Every Load decodes a fresh
// copy, matching FileStore semantics.
type MemoryStore struct {
	mu        sync.RWMutex
	artifacts map[string]encoded
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{artifacts: make(map[string]encoded)}
}

// Save implements Store.
func (s *MemoryStore) Save(ctx context.Context, a *Artifact) error {
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
	metaJSON, err := json.Marshal(a.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	s.mu.Lock()
	s.artifacts[a.Metadata.ModelVersion] = encoded{metadata: metaJSON, pipeline: pipeJSON}
	s.mu.Unlock()
	return nil
}

// Load implements Store.
func (s *MemoryStore) Load(ctx context.Context, version string) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	e, ok := s.artifacts[version]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: version %q", ErrNotFound, version)
	}
	return decodeArtifact(version, e.metadata, e.pipeline)
}

// Versions implements Store.
func (s *MemoryStore) Versions(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.artifacts))
	for v := range s.artifacts {
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}
