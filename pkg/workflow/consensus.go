package workflow

import (
	"sort"

	"github.com/kadirpekel/sentimesh/pkg/analysis"
)

// Disagreement computes 1 - max_count(sentiments)/len(sentiments) over the
// records. Ties for the plurality are broken lexicographically on the
// sentiment tag. Fewer than two records always yield zero.
func Disagreement(records []analysis.Record) (float64, analysis.Sentiment) {
	if len(records) < 2 {
		if len(records) == 1 {
			return 0, records[0].Sentiment
		}
		return 0, analysis.SentimentNeutral
	}

	counts := make(map[analysis.Sentiment]int, 3)
	for _, rec := range records {
		counts[rec.Sentiment]++
	}

	tags := make([]analysis.Sentiment, 0, len(counts))
	for tag := range counts {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })

	plurality := tags[0]
	for _, tag := range tags[1:] {
		if counts[tag] > counts[plurality] {
			plurality = tag
		}
	}

	return 1 - float64(counts[plurality])/float64(len(records)), plurality
}

// CheckConsensus applies the consensus rule for threshold t: reached when
// disagreement is strictly below t, or with fewer than two records.
func CheckConsensus(records []analysis.Record, t float64) (disagreement float64, reached bool) {
	if len(records) < 2 {
		return 0, true
	}
	disagreement, _ = Disagreement(records)
	return disagreement, disagreement < t
}
