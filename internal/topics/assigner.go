// Package topics assigns speeches to topics, either by unsupervised
// partitioning of their embeddings or by similarity against a fixed
// keyword taxonomy, and derives topic keywords and labels.
package topics

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/corpus"
)

// Assignment is the result of topic assignment: one topic id per embedding
// row plus the topic-centroid matrix. Topic ids are stable: an empty topic
// keeps its slot (zero centroid) so the fixed integer indexing never shifts.
type Assignment struct {
	// TopicIDs holds one topic id per embedding row.
	TopicIDs []int
	// IDs lists all topic ids in ascending order, row-aligned with Centroids.
	IDs []int
	// Centroids is the (n_topics x dim) centroid matrix.
	Centroids *corpus.Matrix
	// Labels maps topic id to a human-readable label, when known.
	Labels map[int]string
	// Similarity is the full (speeches x topics) similarity matrix.
	// Only the taxonomy strategy produces it; downstream affinity metrics
	// need the soft scores, not just the arg-max.
	Similarity *mat.Dense
}

// Assigner maps an embedding matrix to topics. Both strategies satisfy the
// same contract and are interchangeable.
type Assigner interface {
	Assign(ctx context.Context, m *corpus.Matrix) (*Assignment, error)
}

// centroidsFor computes the mean embedding of the rows assigned to each of
// the given topic ids. A topic with no rows yields the zero vector.
func centroidsFor(m *corpus.Matrix, topicIDs []int, ids []int) (*corpus.Matrix, error) {
	rows := make([][]float64, len(ids))
	for i, id := range ids {
		mask := make([]bool, len(topicIDs))
		for j, t := range topicIDs {
			mask[j] = t == id
		}
		rows[i] = m.MeanRows(mask)
	}
	return corpus.NewMatrix(rows)
}
