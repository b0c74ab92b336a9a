// Package models defines the index, retrieval and answer types shared across kotae.
package models

import "time"

// Chunk is a unit of source text with its precomputed embedding.
type Chunk struct {
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
}

// Index is the read-only corpus an answer is drawn from.
// Every chunk embedding has the same dimensionality, produced by EmbModel.
type Index struct {
	EmbModel string  `json:"embModel"`
	Chunks   []Chunk `json:"chunks"`

	// Loader metadata; not part of the index file.
	Source      string    `json:"-"`
	Fingerprint string    `json:"-"`
	LoadedAt    time.Time `json:"-"`
}

// Empty reports whether the index is missing or has no chunks.
func (idx *Index) Empty() bool {
	return idx == nil || len(idx.Chunks) == 0
}

// Dimension returns the embedding dimensionality, or 0 for an empty index.
func (idx *Index) Dimension() int {
	if idx.Empty() {
		return 0
	}
	return len(idx.Chunks[0].Embedding)
}

// ScoredChunk is a chunk ranked against a query vector.
// Position is the chunk's place in the index, used as the tie-break.
type ScoredChunk struct {
	Chunk
	Position int     `json:"position"`
	Score    float64 `json:"score"`
}
