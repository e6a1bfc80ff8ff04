package analytics

import "sort"

// DefaultMaxCloudWords caps the word-frequency table handed to cloud
// renderers.
const DefaultMaxCloudWords = 200

// WordFrequencies counts individual tokens across all documents and returns
// the maxWords highest-count tokens as a frequency table. A non-positive
// maxWords applies the default cap. Ties keep first-seen order before the
// cut, so the kept set is deterministic.
func WordFrequencies(docs [][]string, stop StopWordSet, maxWords int) map[string]int {
	if maxWords <= 0 {
		maxWords = DefaultMaxCloudWords
	}

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	seen := 0

	for _, tokens := range docs {
		for _, token := range FilterTokens(tokens, stop) {
			if _, ok := counts[token]; !ok {
				firstSeen[token] = seen
			}
			counts[token]++
			seen++
		}
	}

	if len(counts) <= maxWords {
		return counts
	}

	type pair struct {
		word  string
		count int
	}
	pairs := make([]pair, 0, len(counts))
	for word, count := range counts {
		pairs = append(pairs, pair{word, count})
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].count != pairs[j].count {
			return pairs[i].count > pairs[j].count
		}
		return firstSeen[pairs[i].word] < firstSeen[pairs[j].word]
	})

	kept := make(map[string]int, maxWords)
	for _, p := range pairs[:maxWords] {
		kept[p.word] = p.count
	}
	return kept
}
