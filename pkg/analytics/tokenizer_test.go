package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tokenizer := NewTokenizer()

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "latin words",
			in:   "hello, world!",
			want: []string{"hello", "world"},
		},
		{
			name: "mixed scripts, ideographs segment individually",
			in:   "weibolens 数据 tool",
			want: []string{"weibolens", "数", "据", "tool"},
		},
		{
			name: "punctuation only",
			in:   "，。！？—…",
			want: nil,
		},
		{
			name: "empty",
			in:   "",
			want: nil,
		},
		{
			name: "digits survive",
			in:   "2025 年",
			want: []string{"2025", "年"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tokenizer.Tokenize(tt.in))
		})
	}
}

func TestFilterTokens(t *testing.T) {
	stop := NewStopWordSet([]string{"的", "了", ""})

	assert.Equal(t,
		[]string{"春节", "快乐"},
		FilterTokens([]string{"春节", "的", "快乐", "了"}, stop))

	// A nil set filters nothing.
	tokens := []string{"春节", "的"}
	assert.Equal(t, tokens, FilterTokens(tokens, nil))
}
