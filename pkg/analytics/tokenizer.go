package analytics

import (
	"strings"
	"unicode"

	"github.com/clipperhouse/uax29/v2/words"
	"golang.org/x/text/unicode/norm"
)

// Tokenizer segments post text into tokens for the frequency analyses. The
// default implementation does Unicode word segmentation, which splits CJK
// runs without needing a dictionary; anything smarter can be swapped in
// behind this interface.
type Tokenizer interface {
	Tokenize(text string) []string
}

// UnicodeTokenizer segments NFC-normalized text at UAX #29 word boundaries
// and drops segments with no letter or digit in them.
type UnicodeTokenizer struct{}

// NewTokenizer returns the default tokenizer.
func NewTokenizer() *UnicodeTokenizer {
	return &UnicodeTokenizer{}
}

// Tokenize splits text into word tokens, discarding whitespace and
// punctuation-only segments.
func (t *UnicodeTokenizer) Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	var tokens []string
	segments := words.FromString(norm.NFC.String(text))
	for segments.Next() {
		token := strings.TrimSpace(segments.Value())
		if token == "" || !hasLetterOrDigit(token) {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

func hasLetterOrDigit(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// StopWordSet answers membership queries for stop-word filtering.
type StopWordSet map[string]struct{}

// NewStopWordSet builds a set from a word list.
func NewStopWordSet(words []string) StopWordSet {
	set := make(StopWordSet, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w != "" {
			set[w] = struct{}{}
		}
	}
	return set
}

// Contains reports whether the token is a stop word.
func (s StopWordSet) Contains(token string) bool {
	_, ok := s[token]
	return ok
}

// FilterTokens removes stop words from a token list, preserving order.
func FilterTokens(tokens []string, stop StopWordSet) []string {
	if len(stop) == 0 {
		return tokens
	}
	filtered := tokens[:0:0]
	for _, token := range tokens {
		if !stop.Contains(token) {
			filtered = append(filtered, token)
		}
	}
	return filtered
}
