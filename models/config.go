// Package models defines data structures for configuration, documents and score records.
package models

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when a loaded configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// DefaultConfigPath is read when no --config flag is given and the file exists.
const DefaultConfigPath = "lcm.yaml"

// Source is a named document location: an http(s) URL or a local file path.
type Source struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
	// Kind overrides host-based detection ("legal" or "app").
	Kind string `yaml:"kind,omitempty"`
}

// Application carries statically known attribute values for attribute mode.
type Application struct {
	Name       string            `yaml:"name"`
	Attributes map[string]string `yaml:"attributes"`
}

// FetchConfig holds runtime configuration for fetch operations.
type FetchConfig struct {
	WorkerCount       int           `yaml:"workers"`
	Timeout           time.Duration `yaml:"timeout"`
	UserAgent         string        `yaml:"user_agent"`
	MaxAge            time.Duration `yaml:"max_age"`
	CacheDir          string        `yaml:"cache_dir"`
	Extract           ExtractMode   `yaml:"extract"`
	MinParagraphChars int           `yaml:"min_paragraph_chars"`
	MaxChars          int           `yaml:"max_chars"`
	LanguageFilter    string        `yaml:"language_filter,omitempty"`
}

// EmbedderConfig selects the embedding oracle.
type EmbedderConfig struct {
	Provider  string `yaml:"provider"` // ollama | openai | hashing
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url,omitempty"`
	APIKey    string `yaml:"api_key,omitempty"`
	Dim       int    `yaml:"dim,omitempty"`
	CacheSize int    `yaml:"cache_size"`
}

// SummarizerConfig enables optional paragraph summarization.
type SummarizerConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Provider  string `yaml:"provider"` // ollama | truncate
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url,omitempty"`
	MaxLength int    `yaml:"max_length"`
}

// ProbeConfig configures the functional checks of site mode.
type ProbeConfig struct {
	GeoIPDB        string        `yaml:"geoip_db"`
	ExpectedRegion string        `yaml:"expected_region"`
	Timeout        time.Duration `yaml:"timeout"`
}

// MonitorConfig configures the polling agent.
type MonitorConfig struct {
	Interval      time.Duration `yaml:"interval"`
	MaxIterations int           `yaml:"max_iterations"`
}

// OutputConfig controls where and how reports are written.
type OutputConfig struct {
	Dir     string   `yaml:"dir"`
	Formats []string `yaml:"formats"`
	DBPath  string   `yaml:"db_path"`
}

// ThresholdConfig holds the default comparison constants.
type ThresholdConfig struct {
	Default  float64 `yaml:"default"`
	HighGap  float64 `yaml:"high_gap"`
	PageText int     `yaml:"page_text_chars"`
}

// Config is the full runtime configuration, loaded from YAML and overridden by CLI flags.
type Config struct {
	Sources         []Source         `yaml:"sources"`
	RuleSources     []Source         `yaml:"rule_sources"`
	Rules           []Rule           `yaml:"rules"`
	Applications    []Application    `yaml:"applications"`
	LegalHosts      []string         `yaml:"legal_hosts"`
	RuleKeywords    []string         `yaml:"rule_keywords"`
	MaxExtractRules int              `yaml:"max_extract_rules"`
	Fetch           FetchConfig      `yaml:"fetch"`
	Embedder        EmbedderConfig   `yaml:"embedder"`
	Summarizer      SummarizerConfig `yaml:"summarizer"`
	Probe           ProbeConfig      `yaml:"probe"`
	Monitor         MonitorConfig    `yaml:"monitor"`
	Output          OutputConfig     `yaml:"output"`
	Thresholds      ThresholdConfig  `yaml:"thresholds"`
}

// DefaultConfig returns the configuration used when no file is present.
// Rules and sources are left empty; callers fill them from pkg/rules defaults.
func DefaultConfig() *Config {
	return &Config{
		LegalHosts:      []string{"sec.gov"},
		RuleKeywords:    []string{"data", "security", "privacy", "encryption", "access", "storage"},
		MaxExtractRules: 50,
		Fetch: FetchConfig{
			WorkerCount:       4,
			Timeout:           10 * time.Second,
			UserAgent:         "Mozilla/5.0",
			MaxAge:            24 * time.Hour,
			CacheDir:          ".lcm-cache",
			Extract:           ExtractParagraphs,
			MinParagraphChars: 20,
			MaxChars:          5000,
		},
		Embedder: EmbedderConfig{
			Provider:  "ollama",
			Model:     "all-minilm",
			CacheSize: 4096,
		},
		Summarizer: SummarizerConfig{
			Provider:  "ollama",
			Model:     "llama3.2",
			MaxLength: 60,
		},
		Probe: ProbeConfig{
			GeoIPDB:        "/usr/share/GeoIP/GeoLite2-Country.mmdb",
			ExpectedRegion: "US",
			Timeout:        5 * time.Second,
		},
		Monitor: MonitorConfig{
			Interval: 10 * time.Minute,
		},
		Output: OutputConfig{
			Dir:     "reports",
			Formats: []string{"console"},
			DBPath:  "lcm.db",
		},
		Thresholds: ThresholdConfig{
			Default:  0.4,
			HighGap:  0.2,
			PageText: 3000,
		},
	}
}

// LoadConfig reads a YAML config file on top of DefaultConfig.
// A missing file at DefaultConfigPath is not an error; any other missing path is.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = DefaultConfigPath
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	var problems []string
	if c.Fetch.WorkerCount < 0 {
		problems = append(problems, "fetch.workers must be >= 0")
	}
	if c.Thresholds.Default < -1 || c.Thresholds.Default > 1 {
		problems = append(problems, "thresholds.default must be within [-1, 1]")
	}
	if _, err := ParseExtractMode(string(c.Fetch.Extract)); err != nil {
		problems = append(problems, err.Error())
	}
	for i, r := range c.Rules {
		if strings.TrimSpace(r.Text) == "" {
			problems = append(problems, fmt.Sprintf("rules[%d] has empty text", i))
		}
		if r.Threshold != nil && (*r.Threshold < -1 || *r.Threshold > 1) {
			problems = append(problems, fmt.Sprintf("rules[%d] threshold out of range", i))
		}
	}
	for i, s := range c.Sources {
		if strings.TrimSpace(s.URL) == "" {
			problems = append(problems, fmt.Sprintf("sources[%d] has empty url", i))
		}
	}
	if c.Monitor.Interval <= 0 {
		problems = append(problems, "monitor.interval must be > 0")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// SourceName returns the configured name for a URL, or the URL itself.
func (c *Config) SourceName(url string) string {
	for _, s := range c.Sources {
		if s.URL == url && s.Name != "" {
			return s.Name
		}
	}
	return url
}
