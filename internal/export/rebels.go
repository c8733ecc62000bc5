package export

import (
	"math"
	"sort"
	"strconv"

	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/corpus"
)

const (
	// minSpeechesForRebel gates rebel scoring per speaker.
	minSpeechesForRebel = 3
	// rebelCandidateThreshold is the minimum share of off-line speeches
	// before a speaker counts as a rebel candidate.
	rebelCandidateThreshold = 0.30
	// maxRebels caps the exported list.
	maxRebels = 15
)

// RebelScore flags a speaker who frequently speaks outside their party's
// dominant topic.
type RebelScore struct {
	Speaker     string         `json:"speaker"`
	Party       string         `json:"party"`
	Speeches    int            `json:"n_speeches"`
	RebelPct    float64        `json:"rebel_pct"`
	PartyTopic  int            `json:"party_dominant_topic"`
	TopicCounts map[string]int `json:"topic_counts"`
}

// RebelScores finds each party's dominant topic, then ranks speakers by the
// share of their speeches falling outside it. Speakers with fewer than three
// speeches are skipped; only shares above 30% qualify, and at most the top
// fifteen are returned.
func RebelScores(t *corpus.Table) []RebelScore {
	partyTopicCounts := make(map[string]map[int]int)
	type speakerKey struct{ speaker, party string }
	speakerTopicCounts := make(map[speakerKey]map[int]int)
	var order []speakerKey

	for i := 0; i < t.Len(); i++ {
		s := t.Speech(i)
		if s.Topic < 0 {
			continue
		}
		if partyTopicCounts[s.Party] == nil {
			partyTopicCounts[s.Party] = make(map[int]int)
		}
		partyTopicCounts[s.Party][s.Topic]++

		key := speakerKey{s.Speaker, s.Party}
		if speakerTopicCounts[key] == nil {
			speakerTopicCounts[key] = make(map[int]int)
			order = append(order, key)
		}
		speakerTopicCounts[key][s.Topic]++
	}

	dominant := make(map[string]int, len(partyTopicCounts))
	for party, counts := range partyTopicCounts {
		dominant[party] = dominantTopic(counts)
	}

	var rebels []RebelScore
	for _, key := range order {
		counts := speakerTopicCounts[key]
		total := 0
		for _, n := range counts {
			total += n
		}
		if total < minSpeechesForRebel {
			continue
		}

		off := total - counts[dominant[key.party]]
		pct := float64(off) / float64(total)
		if pct <= rebelCandidateThreshold {
			continue
		}

		exported := make(map[string]int, len(counts))
		for topic, n := range counts {
			exported[strconv.Itoa(topic)] = n
		}
		rebels = append(rebels, RebelScore{
			Speaker:     key.speaker,
			Party:       key.party,
			Speeches:    total,
			RebelPct:    math.Round(pct*10000) / 100,
			PartyTopic:  dominant[key.party],
			TopicCounts: exported,
		})
	}

	sort.SliceStable(rebels, func(i, j int) bool {
		return rebels[i].RebelPct > rebels[j].RebelPct
	})
	if len(rebels) > maxRebels {
		rebels = rebels[:maxRebels]
	}
	return rebels
}

// dominantTopic returns the most frequent topic id, lowest id on ties.
func dominantTopic(counts map[int]int) int {
	best, bestCount := -1, -1
	for topic, n := range counts {
		if n > bestCount || (n == bestCount && topic < best) {
			best, bestCount = topic, n
		}
	}
	return best
}
