// Package manifest defines the descriptor written next to the chunk files.
// Downstream consumers use it to fetch and verify chunks, so the schema and
// its invariants live in their own package.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

const Filename = "manifest.json"

var (
	ErrNoChunks  = errors.New("manifest has no chunks")
	ErrZeroDepth = errors.New("min_runnable_depth must be > 0")
)

// Chunk records one output file of a split model.
type Chunk struct {
	// ID is "base" or "layers_<start>-<end>".
	ID       string `json:"id"`
	Filename string `json:"filename,omitempty"`
	// LayerStart and LayerEnd are the inclusive layer range; both 0 for the
	// base chunk.
	LayerStart uint32 `json:"layer_start"`
	LayerEnd   uint32 `json:"layer_end"`
	Bytes      uint64 `json:"bytes"`
	// Digest is the lowercase hex SHA-256 of the chunk file.
	Digest string `json:"digest"`
	// URL is filled in by the upload tooling, not by the splitter.
	URL string `json:"url,omitempty"`
}

// Manifest describes the complete split of one model.
type Manifest struct {
	ModelID string `json:"model_id"`
	Version string `json:"version"`
	Dtype   string `json:"dtype"`
	// MinRunnableDepth is the smallest number of leading layers needed
	// before the model can run at all.
	MinRunnableDepth uint32  `json:"min_runnable_depth"`
	Chunks           []Chunk `json:"chunks"`
}

// Validate checks the manifest's structural invariants.
func (m *Manifest) Validate() error {
	if len(m.Chunks) == 0 {
		return ErrNoChunks
	}
	if m.MinRunnableDepth == 0 {
		return ErrZeroDepth
	}
	return nil
}

// TotalBytes returns the summed size of all chunk files.
func (m *Manifest) TotalBytes() (n uint64) {
	for _, c := range m.Chunks {
		n += c.Bytes
	}
	return
}

// Save validates m and writes it to path as indented JSON.
func (m *Manifest) Save(path string) error {
	if err := m.Validate(); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

// Load reads and validates a manifest from path.
func Load(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var m Manifest
	if err := json.NewDecoder(f).Decode(&m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &m, nil
}
