package topics

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/corpus"
	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/embed"
	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/logging"
)

// Definition is one curated topic: a stable integer id, a display label and
// the keywords that characterize it.
type Definition struct {
	ID       int      `yaml:"id" json:"id"`
	Label    string   `yaml:"label" json:"label"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// Text renders the definition as the string that gets embedded:
// "label: kw1, kw2, ...".
func (d Definition) Text() string {
	return d.Label + ": " + strings.Join(d.Keywords, ", ")
}

// Taxonomy assigns each speech to the curated topic whose embedded
// definition it is most cosine-similar to. Definition embeddings are
// computed once per Assign call; the full similarity matrix is retained on
// the Assignment for downstream soft-score consumers.
type Taxonomy struct {
	defs     []Definition
	embedder embed.Embedder
}

// NewTaxonomy builds a taxonomy assigner. Definitions are sorted by id so
// assignment and tie-breaking are independent of declaration order.
func NewTaxonomy(defs []Definition, embedder embed.Embedder) (*Taxonomy, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("topics: taxonomy needs at least one definition")
	}
	sorted := make([]Definition, len(defs))
	copy(sorted, defs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].ID == sorted[i-1].ID {
			return nil, fmt.Errorf("topics: duplicate taxonomy id %d", sorted[i].ID)
		}
	}
	return &Taxonomy{defs: sorted, embedder: embedder}, nil
}

// Definitions returns the sorted definitions.
func (tx *Taxonomy) Definitions() []Definition {
	out := make([]Definition, len(tx.defs))
	copy(out, tx.defs)
	return out
}

// Assign embeds every definition, computes the (speeches x topics) cosine
// similarity matrix and picks the arg-max topic per speech. Ties resolve to
// the lowest topic id.
func (tx *Taxonomy) Assign(ctx context.Context, m *corpus.Matrix) (*Assignment, error) {
	topicVecs, err := tx.embedDefinitions(ctx)
	if err != nil {
		return nil, err
	}

	n := m.Rows()
	sim := mat.NewDense(n, len(tx.defs), nil)
	assign := make([]int, n)

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := m.Row(i)
		best := 0
		bestSim := embed.CosineSimilarity(row, topicVecs[0])
		sim.Set(i, 0, bestSim)
		for j := 1; j < len(topicVecs); j++ {
			s := embed.CosineSimilarity(row, topicVecs[j])
			sim.Set(i, j, s)
			// Strict greater-than keeps the lowest id on exact ties.
			if s > bestSim {
				bestSim = s
				best = j
			}
		}
		assign[i] = tx.defs[best].ID
	}

	ids := make([]int, len(tx.defs))
	labels := make(map[int]string, len(tx.defs))
	for i, d := range tx.defs {
		ids[i] = d.ID
		labels[d.ID] = d.Label
	}

	centroids, err := centroidsFor(m, assign, ids)
	if err != nil {
		return nil, err
	}

	logging.Info("taxonomy assignment complete", "speeches", n, "topics", len(ids))

	return &Assignment{
		TopicIDs:   assign,
		IDs:        ids,
		Centroids:  centroids,
		Labels:     labels,
		Similarity: sim,
	}, nil
}

func (tx *Taxonomy) embedDefinitions(ctx context.Context) ([][]float64, error) {
	texts := make([]string, len(tx.defs))
	for i, d := range tx.defs {
		texts[i] = d.Text()
	}

	if be, ok := tx.embedder.(embed.BatchEmbedder); ok {
		vecs, err := be.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed taxonomy definitions: %w", err)
		}
		return vecs, nil
	}

	vecs := make([][]float64, len(texts))
	for i, text := range texts {
		vec, err := tx.embedder.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed taxonomy definition %d: %w", tx.defs[i].ID, err)
		}
		vecs[i] = vec
	}
	return vecs, nil
}

// DefaultTaxonomy is the built-in Italian parliamentary topic set, used when
// the configuration does not supply its own definitions.
func DefaultTaxonomy() []Definition {
	return []Definition{
		{ID: 0, Label: "Fisco e Finanza Pubblica", Keywords: []string{
			"tasse", "fisco", "bilancio", "debito pubblico", "manovra", "iva", "detrazioni",
		}},
		{ID: 1, Label: "Lavoro e Imprese", Keywords: []string{
			"lavoro", "occupazione", "imprese", "salario", "contratti", "sindacati", "pmi",
		}},
		{ID: 2, Label: "Sanità", Keywords: []string{
			"sanità", "ospedali", "medici", "cure", "servizio sanitario", "prevenzione",
		}},
		{ID: 3, Label: "Welfare e Famiglia", Keywords: []string{
			"welfare", "pensioni", "famiglia", "assegno", "povertà", "assistenza sociale",
		}},
		{ID: 4, Label: "Ambiente e Energia", Keywords: []string{
			"ambiente", "clima", "energia", "rinnovabili", "emissioni", "transizione ecologica",
		}},
		{ID: 5, Label: "Giustizia e Legalità", Keywords: []string{
			"giustizia", "magistratura", "processi", "carceri", "mafia", "corruzione",
		}},
		{ID: 6, Label: "Istruzione e Ricerca", Keywords: []string{
			"scuola", "università", "istruzione", "ricerca", "docenti", "studenti",
		}},
		{ID: 7, Label: "Esteri e Difesa", Keywords: []string{
			"esteri", "difesa", "nato", "unione europea", "guerra", "diplomazia", "missioni",
		}},
		{ID: 8, Label: "Immigrazione", Keywords: []string{
			"immigrazione", "migranti", "accoglienza", "frontiere", "asilo", "cittadinanza",
		}},
		{ID: 9, Label: "Infrastrutture e Trasporti", Keywords: []string{
			"infrastrutture", "trasporti", "ferrovie", "strade", "ponte", "mobilità",
		}},
	}
}
