package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "https://m.weibo.cn", cfg.API.BaseURL)
	assert.Equal(t, 50, cfg.Crawl.MaxCount)
	assert.Equal(t, 50, cfg.Crawl.PageCap)
	assert.Equal(t, 1*time.Second, cfg.Crawl.PreRequestDelayMin)
	assert.Equal(t, 3*time.Second, cfg.Crawl.PreRequestDelayMax)
	assert.Equal(t, 3*time.Second, cfg.Crawl.PostPageDelayMin)
	assert.Equal(t, 5*time.Second, cfg.Crawl.PostPageDelayMax)
	assert.Equal(t, 200, cfg.Analysis.MaxCloudWords)
	assert.Equal(t, "./data", cfg.Output.BaseDirectory)

	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"missing base url", func(c *Config) { c.API.BaseURL = "" }, true},
		{"zero max count", func(c *Config) { c.Crawl.MaxCount = 0 }, true},
		{"zero page cap", func(c *Config) { c.Crawl.PageCap = 0 }, true},
		{"inverted delay range", func(c *Config) {
			c.Crawl.PreRequestDelayMin = 5 * time.Second
			c.Crawl.PreRequestDelayMax = 1 * time.Second
		}, true},
		{"missing output dir", func(c *Config) { c.Output.BaseDirectory = "" }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, true},
		{"zero cloud cap", func(c *Config) { c.Analysis.MaxCloudWords = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
api:
  base_url: https://example.test
crawl:
  max_count: 77
analysis:
  stop_words: ["的", "了"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "https://example.test", cfg.API.BaseURL)
	assert.Equal(t, 77, cfg.Crawl.MaxCount)
	assert.Equal(t, []string{"的", "了"}, cfg.Analysis.StopWords)
	// Untouched fields keep their defaults.
	assert.Equal(t, 50, cfg.Crawl.PageCap)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("WEIBOLENS_BASE_URL", "https://env.test")
	t.Setenv("WEIBOLENS_USE_MOCK", "true")
	t.Setenv("WEIBOLENS_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "https://env.test", cfg.API.BaseURL)
	assert.True(t, cfg.API.UseMock)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"output":    "/tmp/out",
		"mock":      true,
		"addr":      ":9090",
		"log-level": "warn",
	})

	assert.Equal(t, "/tmp/out", cfg.Output.BaseDirectory)
	assert.True(t, cfg.API.UseMock)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Crawl.MaxCount = 123
	require.NoError(t, cfg.Save(path))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, 123, loaded.Crawl.MaxCount)
}
