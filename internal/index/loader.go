// Package index loads the pre-embedded chunk index and hands out consistent read-only snapshots.
package index

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hyperjump/kotae/internal/models"
)

// Load reads the index file at path. A missing file yields an empty index, not an error.
func Load(path string) (*models.Index, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &models.Index{Source: path, LoadedAt: time.Now()}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	idx, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	idx.Source = path
	idx.Fingerprint = Fingerprint(data)
	return idx, nil
}

// Decode parses and validates an index document.
// An empty document (no bytes) is an empty index.
func Decode(r io.Reader) (*models.Index, error) {
	var idx models.Index
	if err := json.NewDecoder(r).Decode(&idx); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse index: %w", err)
	}
	if err := Validate(&idx); err != nil {
		return nil, err
	}
	idx.LoadedAt = time.Now()
	return &idx, nil
}

// Validate checks that every chunk embedding has the same dimensionality.
func Validate(idx *models.Index) error {
	if idx.Empty() {
		return nil
	}
	if idx.EmbModel == "" {
		return errors.New("invalid index: embModel is required")
	}
	dim := len(idx.Chunks[0].Embedding)
	if dim == 0 {
		return errors.New("invalid index: chunk 0 has no embedding")
	}
	for i, c := range idx.Chunks {
		if len(c.Embedding) != dim {
			return fmt.Errorf("invalid index: chunk %d has dimension %d, expected %d", i, len(c.Embedding), dim)
		}
	}
	return nil
}
