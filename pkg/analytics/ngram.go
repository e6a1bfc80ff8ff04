package analytics

import (
	"sort"
	"strings"
)

// NGramEntry is one phrase with its occurrence count.
type NGramEntry struct {
	Phrase string `json:"phrase"`
	Count  int    `json:"count"`
}

// NGramResult is the ranked phrase list plus the total number of n-gram
// windows observed, the denominator for relative frequency.
type NGramResult struct {
	Entries      []NGramEntry `json:"entries"`
	TotalWindows int          `json:"total_windows"`
}

// TopNGrams counts contiguous n-token windows within each document and
// returns the k most frequent, joined with single spaces. Documents shorter
// than n contribute no windows. Ties keep first-seen order, so results are
// deterministic for a given document order. k zero yields no entries but
// still reports the window total.
func TopNGrams(docs [][]string, n, k int) NGramResult {
	if n <= 0 || k < 0 {
		return NGramResult{Entries: []NGramEntry{}}
	}

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	total := 0

	for _, tokens := range docs {
		for i := 0; i+n <= len(tokens); i++ {
			phrase := strings.Join(tokens[i:i+n], " ")
			if _, seen := counts[phrase]; !seen {
				firstSeen[phrase] = total
			}
			counts[phrase]++
			total++
		}
	}

	entries := make([]NGramEntry, 0, len(counts))
	for phrase, count := range counts {
		entries = append(entries, NGramEntry{Phrase: phrase, Count: count})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return firstSeen[entries[i].Phrase] < firstSeen[entries[j].Phrase]
	})

	if len(entries) > k {
		entries = entries[:k]
	}
	return NGramResult{Entries: entries, TotalWindows: total}
}
