package topicmodel

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// WordScore is a topic word with its class-based TF-IDF weight.
type WordScore struct {
	Word  string  `json:"word"`
	Score float64 `json:"score"`
}

var stopWords = toSet(strings.Fields(`
a about above after again against all am an and any are as at be because been before being
below between both but by can could did do does doing down during each few for from further
had has have having he her here hers herself him himself his how i if in into is it its itself
just me more most my myself no nor not now of off on once only or other our ours ourselves out
over own same she should so some such than that the their theirs them themselves then there
these they this those through to too under until up very was we were what when where which
while who whom why will with would you your yours yourself yourselves also get got really
much many lot lots dont don't im i'm it's its there's isn't aren't can't won't
`))

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	})
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, "'")
		if len([]rune(f)) < 3 {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		out = append(out, f)
	}
	return out
}

// topicWords scores words per topic with class-based TF-IDF:
// tf(word, topic) * log(1 + avgWordsPerTopic / freq(word over all topics)).
// Words are sorted by score, ties broken alphabetically.
func topicWords(docs []string, labels []int, k, limit int) [][]WordScore {
	tf := make([]map[string]int, k)
	for i := range tf {
		tf[i] = make(map[string]int)
	}
	total := make(map[string]int)
	words := 0

	for i, doc := range docs {
		for _, w := range tokenize(doc) {
			tf[labels[i]][w]++
			total[w]++
			words++
		}
	}

	avg := float64(words) / float64(k)
	result := make([][]WordScore, k)
	for topic := 0; topic < k; topic++ {
		scores := make([]WordScore, 0, len(tf[topic]))
		for w, n := range tf[topic] {
			scores = append(scores, WordScore{
				Word:  w,
				Score: float64(n) * math.Log(1+avg/float64(total[w])),
			})
		}
		sort.Slice(scores, func(a, b int) bool {
			if scores[a].Score != scores[b].Score {
				return scores[a].Score > scores[b].Score
			}
			return scores[a].Word < scores[b].Word
		})
		if len(scores) > limit {
			scores = scores[:limit]
		}
		result[topic] = scores
	}
	return result
}
