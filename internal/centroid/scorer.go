// Package centroid provides the generic centroid-distance scoring used for
// party cohesion, faction detection and speaker consistency.
package centroid

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/corpus"
)

// Policy constants. Exposed as named constants so thresholds can be tuned
// without touching the algorithm.
const (
	// MainstreamThreshold classifies an entity as mainstream when its
	// conformity score exceeds it.
	MainstreamThreshold = 0.7

	// MinObservationsForProfile is the minimum speech count before an
	// entity gets a conformity profile at all.
	MinObservationsForProfile = 1

	// MinObservationsForRebel is the minimum speech count for rebel
	// scoring. Below it no score is produced: insufficient data must never
	// yield a plausible-looking number.
	MinObservationsForRebel = 3

	// UnknownGroupLabel marks rows with no resolved group. Such rows are
	// excluded from centroid computation and from every derived score.
	UnknownGroupLabel = "Unknown Group"
)

// Classification labels.
const (
	LabelMainstream = "mainstream"
	LabelBridge     = "bridge"
	LabelMaverick   = "maverick"
)

// Profile is one entity's conformity record.
type Profile struct {
	Entity          string  `json:"speaker"`
	Group           string  `json:"party"`
	Speeches        int     `json:"n_speeches"`
	Conformity      float64 `json:"conformity"`
	NearestGroup    string  `json:"nearest_other_party"`
	CrossAffinity   float64 `json:"cross_affinity"`
	Label           string  `json:"faction_label"`
	OwnDistance     float64 `json:"own_distance"`
	NearestDistance float64 `json:"nearest_distance"`
}

// Scorer groups rows by one entity column (party or speaker) and scores
// members against the group centroids.
type Scorer struct {
	// GroupColumn selects the grouping attribute (e.g. the party column).
	GroupColumn string
	// Exclude is the group label always left out of centroids and scores.
	Exclude string
	// MinObservations gates scoring per member entity.
	MinObservations int
}

// NewScorer returns a Scorer over the given grouping column with the
// default exclusion label and minimum sample size.
func NewScorer(groupColumn string) *Scorer {
	return &Scorer{
		GroupColumn:     groupColumn,
		Exclude:         UnknownGroupLabel,
		MinObservations: MinObservationsForProfile,
	}
}

// Conformity maps a centroid distance to the bounded (0, 1] score
// 1 / (1 + d), approaching 1 as the distance approaches 0.
func Conformity(distance float64) float64 {
	return 1.0 / (1.0 + distance)
}

// Classify derives the categorical label from the two scores.
func Classify(conformity, crossAffinity float64) string {
	switch {
	case conformity > MainstreamThreshold:
		return LabelMainstream
	case crossAffinity > conformity:
		return LabelBridge
	default:
		return LabelMaverick
	}
}

// Centroids computes the mean embedding per group, excluding the unknown
// label. Keys are returned through Groups for deterministic iteration.
func (s *Scorer) Centroids(t *corpus.Table, m *corpus.Matrix) map[string][]float64 {
	groups, _ := t.Strings(s.GroupColumn)
	centroids := make(map[string][]float64)

	for _, group := range uniqueOrdered(groups) {
		if group == s.Exclude {
			continue
		}
		mask := make([]bool, len(groups))
		any := false
		for i, g := range groups {
			if g == group {
				mask[i] = true
				any = true
			}
		}
		if !any {
			continue
		}
		centroids[group] = m.MeanRows(mask)
	}
	return centroids
}

// ProfileMembers scores every entity in entityColumn against the group
// centroids. An entity's group is the group of its first row. Entities in
// the excluded group, or with fewer than MinObservations rows, are skipped
// entirely.
func (s *Scorer) ProfileMembers(t *corpus.Table, m *corpus.Matrix, entityColumn string) []Profile {
	centroids := s.Centroids(t, m)
	if len(centroids) == 0 {
		return nil
	}

	entities, _ := t.Strings(entityColumn)
	groups, _ := t.Strings(s.GroupColumn)

	var profiles []Profile
	for _, entity := range uniqueOrdered(entities) {
		mask := make([]bool, len(entities))
		n := 0
		group := ""
		for i, e := range entities {
			if e != entity {
				continue
			}
			mask[i] = true
			if n == 0 {
				group = groups[i]
			}
			n++
		}
		if n < s.MinObservations || group == s.Exclude {
			continue
		}
		own, ok := centroids[group]
		if !ok {
			continue
		}

		mean := m.MeanRows(mask)
		ownDistance := floats.Distance(mean, own, 2)

		nearestGroup := ""
		nearestDistance := math.Inf(1)
		for g, c := range centroids {
			if g == group {
				continue
			}
			if d := floats.Distance(mean, c, 2); d < nearestDistance || (d == nearestDistance && g < nearestGroup) {
				nearestDistance = d
				nearestGroup = g
			}
		}

		conformity := Conformity(ownDistance)
		crossAffinity := 0.0
		if nearestGroup == "" {
			// No foreign group to compare against. -1 keeps the record
			// JSON-serializable where +Inf would not be.
			nearestGroup = "N/A"
			nearestDistance = -1
		} else {
			crossAffinity = Conformity(nearestDistance)
		}

		profiles = append(profiles, Profile{
			Entity:          entity,
			Group:           group,
			Speeches:        n,
			Conformity:      round4(conformity),
			NearestGroup:    nearestGroup,
			CrossAffinity:   round4(crossAffinity),
			Label:           Classify(conformity, crossAffinity),
			OwnDistance:     round4(ownDistance),
			NearestDistance: round4(nearestDistance),
		})
	}
	return profiles
}

// GroupNames returns the scored group names sorted alphabetically.
func GroupNames(centroids map[string][]float64) []string {
	names := make([]string, 0, len(centroids))
	for g := range centroids {
		names = append(names, g)
	}
	sort.Strings(names)
	return names
}

func uniqueOrdered(values []string) []string {
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

func round4(f float64) float64 {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return f
	}
	return math.Round(f*10000) / 10000
}
