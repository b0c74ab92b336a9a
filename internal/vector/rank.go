package vector

import (
	"sort"

	"github.com/hyperjump/kotae/internal/models"
)

// Rank scores every chunk in idx against query and returns at most k results,
// descending by score, ties kept in index order.
//
// Results at or above threshold are preferred. When none qualify, the best k of
// the full ranking are returned instead, so Rank only yields nothing for an empty
// index or k <= 0. Deciding whether the candidates are good enough is up to the caller.
func Rank(idx *models.Index, query []float32, k int, threshold float64) []models.ScoredChunk {
	if k <= 0 || idx.Empty() {
		return nil
	}
	scored := make([]models.ScoredChunk, len(idx.Chunks))
	for i, c := range idx.Chunks {
		scored[i] = models.ScoredChunk{
			Chunk:    c,
			Position: i,
			Score:    CosineSimilarity(query, c.Embedding),
		}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	selected := scored
	// scored is sorted, so the qualifying entries are a prefix.
	cut := sort.Search(len(scored), func(i int) bool { return scored[i].Score < threshold })
	if cut > 0 {
		selected = scored[:cut]
	}
	if k > len(selected) {
		k = len(selected)
	}
	return selected[:k]
}
