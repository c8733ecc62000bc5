package topics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/james-bowman/nlp"
)

// restWeight discounts how much a term's presence in other topics counts
// against it when ranking distinctive keywords.
const restWeight = 0.5

// Keyword is one ranked term for a topic.
type Keyword struct {
	Term  string  `json:"term"`
	Score float64 `json:"score"`
}

// DefaultStopWords is a short Italian stop list for parliamentary text. The
// corpus is pre-cleaned upstream, so only the highest-frequency function
// words need removing here.
func DefaultStopWords() []string {
	return []string{
		"il", "lo", "la", "i", "gli", "le", "un", "uno", "una",
		"di", "a", "da", "in", "con", "su", "per", "tra", "fra",
		"e", "o", "ma", "se", "che", "chi", "cui", "non", "più",
		"del", "della", "dei", "delle", "dello", "al", "alla", "ai", "alle",
		"nel", "nella", "nei", "nelle", "dal", "dalla", "sul", "sulla",
		"è", "sono", "ha", "hanno", "questo", "questa", "questi", "queste",
		"presidente", "onorevole", "colleghi", "signor", "governo", "aula",
	}
}

// ExtractKeywords ranks the most distinctive terms per topic. Speeches are
// concatenated into one document per topic, vectorised and TF-IDF weighted;
// a term's score for a topic is its weight there minus half its mean weight
// across the other topics, so corpus-wide vocabulary ranks low everywhere.
func ExtractKeywords(texts []string, topicIDs []int, ids []int, topN int, stopWords []string) (map[int][]Keyword, error) {
	if len(texts) != len(topicIDs) {
		return nil, fmt.Errorf("topics: %d texts for %d assignments", len(texts), len(topicIDs))
	}
	if stopWords == nil {
		stopWords = DefaultStopWords()
	}

	docs := make([]string, len(ids))
	col := make(map[int]int, len(ids))
	for i, id := range ids {
		col[id] = i
	}
	for i, text := range texts {
		if c, ok := col[topicIDs[i]]; ok {
			docs[c] += text + " "
		}
	}

	vectoriser := nlp.NewCountVectoriser(stopWords...)
	transformer := nlp.NewTfidfTransformer()
	pipeline := nlp.NewPipeline(vectoriser, transformer)

	// Term-document matrix: rows are vocabulary terms, columns are topics.
	tfidf, err := pipeline.FitTransform(docs...)
	if err != nil {
		return nil, fmt.Errorf("tfidf transform: %w", err)
	}

	vocab := make([]string, len(vectoriser.Vocabulary))
	for term, idx := range vectoriser.Vocabulary {
		vocab[idx] = term
	}

	nTerms, nTopics := tfidf.Dims()
	out := make(map[int][]Keyword, len(ids))
	for _, id := range ids {
		c := col[id]
		scored := make([]Keyword, 0, nTerms)
		for t := 0; t < nTerms; t++ {
			own := tfidf.At(t, c)
			if own == 0 {
				continue
			}
			rest := 0.0
			if nTopics > 1 {
				for other := 0; other < nTopics; other++ {
					if other != c {
						rest += tfidf.At(t, other)
					}
				}
				rest /= float64(nTopics - 1)
			}
			scored = append(scored, Keyword{Term: vocab[t], Score: own - restWeight*rest})
		}

		sort.Slice(scored, func(i, j int) bool {
			if scored[i].Score != scored[j].Score {
				return scored[i].Score > scored[j].Score
			}
			return scored[i].Term < scored[j].Term
		})
		if len(scored) > topN {
			scored = scored[:topN]
		}
		out[id] = scored
	}
	return out, nil
}

// LabelFromKeywords derives a short display label from the top two keywords,
// "Kw1 & Kw2" with each capitalized. Topics with no keywords get "Vario".
func LabelFromKeywords(keywords []Keyword) string {
	if len(keywords) == 0 {
		return "Vario"
	}
	parts := make([]string, 0, 2)
	for _, kw := range keywords {
		parts = append(parts, capitalize(kw.Term))
		if len(parts) == 2 {
			break
		}
	}
	return strings.Join(parts, " & ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
