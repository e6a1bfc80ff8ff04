package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"", zerolog.InfoLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"ERROR", zerolog.ErrorLevel, false},
		{"loud", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseLogLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud"})
	assert.Error(t, err)
}

func TestWithFieldsReturnsChild(t *testing.T) {
	base, err := New(&Config{Level: "error"})
	require.NoError(t, err)

	child := base.WithField("a", 1).WithFields(map[string]interface{}{"b": "two"})
	assert.NotNil(t, child)
	// The parent must not gain the child's fields.
	assert.NotSame(t, base, child)
}

func TestNopLogger(t *testing.T) {
	log := NewNop()
	log.Info("ignored")
	log.WithError(assert.AnError).WithField("k", "v").Error("also ignored")
	log.InfoWithFields("fields", map[string]interface{}{"n": 1})
}
