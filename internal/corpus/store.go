package corpus

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)

	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/logging"
)

// Store handles SQLite persistence of speeches and their embeddings.
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// OpenStore opens (or creates) the speech database at dbPath.
// Uses WAL mode for better concurrent read performance (file-based DBs only).
func OpenStore(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// Shared cache so every pooled connection sees the same database
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}

	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS speeches (
		id INTEGER PRIMARY KEY,
		source TEXT NOT NULL,
		speaker TEXT NOT NULL,
		party TEXT NOT NULL,
		date DATETIME NOT NULL,
		text TEXT NOT NULL,
		topic INTEGER DEFAULT -1,
		embedding BLOB
	);

	CREATE INDEX IF NOT EXISTS idx_speeches_source ON speeches(source);
	CREATE INDEX IF NOT EXISTS idx_speeches_speaker ON speeches(speaker);
	CREATE INDEX IF NOT EXISTS idx_speeches_date ON speeches(date);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// SaveSpeeches stores speeches, returning the count of new rows inserted.
// Duplicates (by id) are silently ignored via INSERT OR IGNORE.
func (s *Store) SaveSpeeches(speeches []Speech) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(speeches) == 0 {
		return 0, nil
	}

	stmt, err := s.db.Prepare(`
		INSERT OR IGNORE INTO speeches (id, source, speaker, party, date, text, topic)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	newCount := 0
	for _, sp := range speeches {
		result, err := stmt.Exec(sp.ID, sp.Source, sp.Speaker, sp.Party, sp.Date, sp.Text, sp.Topic)
		if err != nil {
			return newCount, fmt.Errorf("insert speech %d: %w", sp.ID, err)
		}
		if n, err := result.RowsAffected(); err == nil {
			newCount += int(n)
		}
	}
	return newCount, nil
}

// SaveEmbeddings stores one embedding per speech id.
func (s *Store) SaveEmbeddings(ids []int64, m *Matrix) error {
	if len(ids) != m.Rows() {
		return fmt.Errorf("corpus: %d ids for %d embedding rows", len(ids), m.Rows())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stmt, err := s.db.Prepare(`UPDATE speeches SET embedding = ? WHERE id = ?`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, id := range ids {
		if _, err := stmt.Exec(encodeVector(m.Row(i)), id); err != nil {
			return fmt.Errorf("save embedding for speech %d: %w", id, err)
		}
	}
	return nil
}

// LoadSource loads all speeches for one source partition, ordered by id,
// together with their embedding matrix. If any row lacks an embedding the
// matrix is returned nil (stale: the caller must regenerate), never a
// partially aligned one.
func (s *Store) LoadSource(source string) (*Table, *Matrix, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, source, speaker, party, date, text, topic, embedding
		FROM speeches WHERE source = ? ORDER BY id
	`, source)
	if err != nil {
		return nil, nil, fmt.Errorf("query speeches: %w", err)
	}
	defer rows.Close()

	var speeches []Speech
	var vectors [][]float64
	complete := true

	for rows.Next() {
		var sp Speech
		var date time.Time
		var blob []byte
		if err := rows.Scan(&sp.ID, &sp.Source, &sp.Speaker, &sp.Party, &date, &sp.Text, &sp.Topic, &blob); err != nil {
			return nil, nil, fmt.Errorf("scan speech: %w", err)
		}
		sp.Date = date
		speeches = append(speeches, sp)
		// A zero-length blob is as useless as a NULL one; both mean the
		// embedding still has to be generated.
		if len(blob) == 0 {
			complete = false
			continue
		}
		vectors = append(vectors, decodeVector(blob))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate speeches: %w", err)
	}

	t := NewTable(speeches, DefaultColumns())
	if len(speeches) == 0 {
		return t, nil, nil
	}

	if !complete || len(vectors) != len(speeches) {
		logging.Warn("embedding cache incomplete, matrix dropped as stale",
			"source", source, "speeches", len(speeches), "embeddings", len(vectors))
		return t, nil, nil
	}

	m, err := NewMatrix(vectors)
	if err != nil {
		return nil, nil, fmt.Errorf("build embedding matrix: %w", err)
	}
	return t, m, nil
}

// CountBySource returns the speech count per source partition.
func (s *Store) CountBySource() (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT source, COUNT(*) FROM speeches GROUP BY source`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var src string
		var n int
		if err := rows.Scan(&src, &n); err != nil {
			return nil, err
		}
		counts[src] = n
	}
	return counts, rows.Err()
}

// encodeVector packs a float64 vector into little-endian bytes.
func encodeVector(v []float64) []byte {
	buf := make([]byte, 8*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

// decodeVector unpacks a little-endian byte blob into a float64 vector.
func decodeVector(b []byte) []float64 {
	v := make([]float64, len(b)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return v
}
