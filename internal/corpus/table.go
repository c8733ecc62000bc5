// Package corpus holds the speech dataset and its row-aligned embeddings.
package corpus

import (
	"fmt"
	"sort"
	"time"
)

// Columns names the canonical dataset columns. The names are fixed for the
// lifetime of one orchestrator but customizable per instantiation.
type Columns struct {
	Text    string
	Speaker string
	Party   string
	Topic   string
	Date    string
}

// DefaultColumns returns the column names used by the exporter.
func DefaultColumns() Columns {
	return Columns{
		Text:    "cleaned_text",
		Speaker: "deputy",
		Party:   "group",
		Topic:   "cluster",
		Date:    "date",
	}
}

// Speech is one utterance. Immutable once loaded, except for the topic id
// which is assigned by the topic assigner before analysis starts.
type Speech struct {
	ID      int64
	Speaker string
	Party   string
	Date    time.Time
	Text    string
	Topic   int
	Source  string
}

// Table is the tabular speech dataset: rows are speeches, attribute access
// is column-wise.
type Table struct {
	speeches []Speech
	cols     Columns
}

// NewTable builds a Table over the given speeches.
func NewTable(speeches []Speech, cols Columns) *Table {
	return &Table{speeches: speeches, cols: cols}
}

// Len returns the row count.
func (t *Table) Len() int { return len(t.speeches) }

// Columns returns the canonical column names.
func (t *Table) Columns() Columns { return t.cols }

// Speech returns the row at index i.
func (t *Table) Speech(i int) Speech { return t.speeches[i] }

// SetTopics assigns one topic id per row. The slice must be row-aligned.
func (t *Table) SetTopics(ids []int) error {
	if len(ids) != len(t.speeches) {
		return fmt.Errorf("corpus: topic assignment has %d rows, table has %d", len(ids), len(t.speeches))
	}
	for i := range t.speeches {
		t.speeches[i].Topic = ids[i]
	}
	return nil
}

// Strings returns the values of a string-valued column by canonical name.
func (t *Table) Strings(col string) ([]string, error) {
	var get func(Speech) string
	switch col {
	case t.cols.Text:
		get = func(s Speech) string { return s.Text }
	case t.cols.Speaker:
		get = func(s Speech) string { return s.Speaker }
	case t.cols.Party:
		get = func(s Speech) string { return s.Party }
	default:
		return nil, fmt.Errorf("corpus: unknown string column %q", col)
	}
	out := make([]string, len(t.speeches))
	for i, s := range t.speeches {
		out[i] = get(s)
	}
	return out, nil
}

// Topics returns the topic id of every row.
func (t *Table) Topics() []int {
	out := make([]int, len(t.speeches))
	for i, s := range t.speeches {
		out[i] = s.Topic
	}
	return out
}

// uniqueStrings collects distinct values preserving first-appearance order.
func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Speakers returns distinct speakers in first-appearance order.
func (t *Table) Speakers() []string {
	vals, _ := t.Strings(t.cols.Speaker)
	return uniqueStrings(vals)
}

// Parties returns distinct party labels in first-appearance order.
func (t *Table) Parties() []string {
	vals, _ := t.Strings(t.cols.Party)
	return uniqueStrings(vals)
}

// Sources returns distinct source partition tags in first-appearance order.
func (t *Table) Sources() []string {
	vals := make([]string, len(t.speeches))
	for i, s := range t.speeches {
		vals[i] = s.Source
	}
	return uniqueStrings(vals)
}

// TopicIDs returns distinct topic ids in ascending order.
func (t *Table) TopicIDs() []int {
	seen := make(map[int]struct{})
	for _, s := range t.speeches {
		seen[s.Topic] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// Mask evaluates pred for every row.
func (t *Table) Mask(pred func(Speech) bool) []bool {
	mask := make([]bool, len(t.speeches))
	for i, s := range t.speeches {
		mask[i] = pred(s)
	}
	return mask
}

// Select returns a new Table containing the rows where mask is true.
func (t *Table) Select(mask []bool) (*Table, error) {
	if len(mask) != len(t.speeches) {
		return nil, fmt.Errorf("corpus: mask has %d rows, table has %d", len(mask), len(t.speeches))
	}
	out := make([]Speech, 0, len(t.speeches))
	for i, keep := range mask {
		if keep {
			out = append(out, t.speeches[i])
		}
	}
	return &Table{speeches: out, cols: t.cols}, nil
}
