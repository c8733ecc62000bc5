package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/embed"
	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/logging"
)

// IngestRecord is one speech as it arrives from the scraper export.
// Embedding is optional; records without one are embedded during ingestion.
type IngestRecord struct {
	ID        int64     `json:"id"`
	Source    string    `json:"source"`
	Speaker   string    `json:"speaker"`
	Party     string    `json:"party"`
	Date      time.Time `json:"date"`
	Text      string    `json:"text"`
	Embedding []float64 `json:"embedding,omitempty"`
}

// IngestStats summarizes one ingestion run.
type IngestStats struct {
	Read       int
	Embedded   int
	Duplicates int
	Saved      int
}

// ReadRecords loads a JSON array of speech records from path.
func ReadRecords(path string) ([]IngestRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	var records []IngestRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse records %s: %w", path, err)
	}
	return records, nil
}

// Ingest embeds, deduplicates and persists speech records. Records lacking an
// embedding are embedded through the given embedder; near-duplicates of an
// already ingested speech are dropped before they reach the store.
func Ingest(ctx context.Context, store *Store, embedder embed.Embedder, records []IngestRecord) (IngestStats, error) {
	stats := IngestStats{Read: len(records)}
	dedup := NewDedupIndex(0)

	var speeches []Speech
	var ids []int64
	var vectors [][]float64

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		vec := rec.Embedding
		if len(vec) == 0 {
			if embedder == nil {
				return stats, fmt.Errorf("record %d has no embedding and no embedder is configured", rec.ID)
			}
			var err error
			vec, err = embedder.Embed(ctx, rec.Text)
			if err != nil {
				return stats, fmt.Errorf("embed record %d: %w", rec.ID, err)
			}
			stats.Embedded++
		}

		if primary, dup := dedup.Add(rec.ID, vec); dup {
			logging.Debug("dropping near-duplicate speech", "speech", rec.ID, "primary", primary)
			stats.Duplicates++
			continue
		}

		speeches = append(speeches, Speech{
			ID:      rec.ID,
			Source:  rec.Source,
			Speaker: rec.Speaker,
			Party:   rec.Party,
			Date:    rec.Date,
			Text:    rec.Text,
			Topic:   -1,
		})
		ids = append(ids, rec.ID)
		vectors = append(vectors, vec)
	}

	saved, err := store.SaveSpeeches(speeches)
	if err != nil {
		return stats, fmt.Errorf("save speeches: %w", err)
	}
	stats.Saved = saved

	if len(ids) > 0 {
		m, err := NewMatrix(vectors)
		if err != nil {
			return stats, fmt.Errorf("build embedding matrix: %w", err)
		}
		if err := store.SaveEmbeddings(ids, m); err != nil {
			return stats, fmt.Errorf("save embeddings: %w", err)
		}
	}

	logging.Info("ingestion complete", "read", stats.Read, "embedded", stats.Embedded,
		"duplicates", stats.Duplicates, "saved", stats.Saved)
	return stats, nil
}
