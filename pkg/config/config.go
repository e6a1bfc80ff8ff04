package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"weibolens/pkg/logger"
)

// Config holds all configuration options for the crawler and the analysis
// pipeline.
type Config struct {
	// Upstream API settings
	API APIConfig `yaml:"api" json:"api"`

	// Crawl policy
	Crawl CrawlConfig `yaml:"crawl" json:"crawl"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Text analysis settings
	Analysis AnalysisConfig `yaml:"analysis" json:"analysis"`

	// HTTP API server settings
	Server ServerConfig `yaml:"server" json:"server"`

	// Logging configuration
	Logging logger.Config `yaml:"logging" json:"logging"`
}

// APIConfig holds upstream endpoint configuration.
type APIConfig struct {
	BaseURL           string        `yaml:"base_url" json:"base_url"`
	UserAgent         string        `yaml:"user_agent" json:"user_agent"`
	Cookie            string        `yaml:"cookie" json:"cookie"`
	RequestTimeout    time.Duration `yaml:"request_timeout" json:"request_timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	// UseMock swaps the live client for the canned one. Useful for
	// development and for the end-to-end tests.
	UseMock bool `yaml:"use_mock" json:"use_mock"`
}

// CrawlConfig holds pagination and courtesy-delay policy.
type CrawlConfig struct {
	MaxCount  int `yaml:"max_count" json:"max_count"`
	SinceDays int `yaml:"since_days" json:"since_days"`
	PageCap   int `yaml:"page_cap" json:"page_cap"`

	// Courtesy delays, uniformly sampled per request and per page.
	PreRequestDelayMin time.Duration `yaml:"pre_request_delay_min" json:"pre_request_delay_min"`
	PreRequestDelayMax time.Duration `yaml:"pre_request_delay_max" json:"pre_request_delay_max"`
	PostPageDelayMin   time.Duration `yaml:"post_page_delay_min" json:"post_page_delay_min"`
	PostPageDelayMax   time.Duration `yaml:"post_page_delay_max" json:"post_page_delay_max"`
}

// OutputConfig holds output directory configuration.
type OutputConfig struct {
	BaseDirectory       string `yaml:"base_directory" json:"base_directory"`
	CreateTargetFolders bool   `yaml:"create_target_folders" json:"create_target_folders"`
}

// AnalysisConfig holds tokenizer and aggregation settings.
type AnalysisConfig struct {
	StopWords     []string `yaml:"stop_words" json:"stop_words"`
	TopK          int      `yaml:"top_k" json:"top_k"`
	MaxCloudWords int      `yaml:"max_cloud_words" json:"max_cloud_words"`
}

// ServerConfig holds the HTTP API listener settings.
type ServerConfig struct {
	Addr          string `yaml:"addr" json:"addr"`
	EnableMetrics bool   `yaml:"enable_metrics" json:"enable_metrics"`
}

// DefaultConfig returns a Config instance with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:           "https://m.weibo.cn",
			UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/86.0.4240.111 Safari/537.36",
			RequestTimeout:    10 * time.Second,
			RequestsPerMinute: 30,
		},
		Crawl: CrawlConfig{
			MaxCount:           50,
			SinceDays:          365,
			PageCap:            50,
			PreRequestDelayMin: 1 * time.Second,
			PreRequestDelayMax: 3 * time.Second,
			PostPageDelayMin:   3 * time.Second,
			PostPageDelayMax:   5 * time.Second,
		},
		Output: OutputConfig{
			BaseDirectory:       "./data",
			CreateTargetFolders: true,
		},
		Analysis: AnalysisConfig{
			TopK:          20,
			MaxCloudWords: 200,
		},
		Server: ServerConfig{
			Addr:          ":8080",
			EnableMetrics: true,
		},
		Logging: logger.Config{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration overrides from environment variables.
func (c *Config) LoadFromEnv() error {
	if baseURL := os.Getenv("WEIBOLENS_BASE_URL"); baseURL != "" {
		c.API.BaseURL = baseURL
	}
	if cookie := os.Getenv("WEIBOLENS_COOKIE"); cookie != "" {
		c.API.Cookie = cookie
	}
	if userAgent := os.Getenv("WEIBOLENS_USER_AGENT"); userAgent != "" {
		c.API.UserAgent = userAgent
	}
	if rpm := os.Getenv("WEIBOLENS_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.API.RequestsPerMinute = val
		}
	}
	if mock := os.Getenv("WEIBOLENS_USE_MOCK"); mock != "" {
		c.API.UseMock = strings.ToLower(mock) == "true"
	}
	if outputDir := os.Getenv("WEIBOLENS_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if addr := os.Getenv("WEIBOLENS_SERVER_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if logLevel := os.Getenv("WEIBOLENS_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file. An empty path falls back
// to the standard locations; a missing file is not an error.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for a config file in standard locations.
func (c *Config) findConfigFile() string {
	locations := []string{
		".weibolens.yaml",
		".weibolens.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "weibolens", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".weibolens.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("API base URL is required"))
	}
	if c.API.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if c.API.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}

	if c.Crawl.MaxCount <= 0 {
		errs = append(errs, errors.New("max count must be positive"))
	}
	if c.Crawl.SinceDays <= 0 {
		errs = append(errs, errors.New("since days must be positive"))
	}
	if c.Crawl.PageCap <= 0 {
		errs = append(errs, errors.New("page cap must be positive"))
	}
	if c.Crawl.PreRequestDelayMin < 0 || c.Crawl.PreRequestDelayMax < c.Crawl.PreRequestDelayMin {
		errs = append(errs, errors.New("pre-request delay range is invalid"))
	}
	if c.Crawl.PostPageDelayMin < 0 || c.Crawl.PostPageDelayMax < c.Crawl.PostPageDelayMin {
		errs = append(errs, errors.New("post-page delay range is invalid"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	if c.Analysis.TopK < 0 {
		errs = append(errs, errors.New("top k cannot be negative"))
	}
	if c.Analysis.MaxCloudWords <= 0 {
		errs = append(errs, errors.New("max cloud words must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if rpm, ok := flags["requests-per-minute"].(int); ok && rpm > 0 {
		c.API.RequestsPerMinute = rpm
	}
	if useMock, ok := flags["mock"].(bool); ok && useMock {
		c.API.UseMock = true
	}
	if addr, ok := flags["addr"].(string); ok && addr != "" {
		c.Server.Addr = addr
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: command line flags > environment variables > .env file >
// config file > defaults.
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".weibolens.env"))

	cfg := DefaultConfig()

	if err := cfg.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg.MergeCommandLineFlags(flags)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}
