package common

import (
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/dtnitsch/llm-compliance-monitor/models"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/fetcher"
)

var (
	markdownLinkPattern = regexp.MustCompile(`^\[.*?\]\((https?://[^\)]+)\)$`)
	urlPattern          = regexp.MustCompile(`^https?://[a-zA-Z0-9][-a-zA-Z0-9.]*[a-zA-Z0-9](:[0-9]+)?(/[^\s]*)?$`)
)

// NewLogger builds the process logger. Logs always go to w (stderr in the CLI)
// so tables and summaries on stdout stay clean.
func NewLogger(w io.Writer, quiet, verbose bool, format string) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	if quiet {
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// ContentHash computes SHA256 hash of content and returns hex string.
func ContentHash(data []byte) string {
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash)
}

// SanitizeURL performs basic cleanup on URLs to handle common copy-paste issues.
// Removes whitespace, trailing punctuation and markdown artifacts.
func SanitizeURL(rawURL string) string {
	cleaned := strings.TrimSpace(rawURL)

	// [text](url) -> url
	if matches := markdownLinkPattern.FindStringSubmatch(cleaned); len(matches) > 1 {
		cleaned = matches[1]
	}

	trailingChars := []string{",", ".", ")", "}", "]", "\"", "'", ">", ";"}
	for _, char := range trailingChars {
		cleaned = strings.TrimSuffix(cleaned, char)
	}

	leadingChars := []string{"(", "[", "<", "\"", "'"}
	for _, char := range leadingChars {
		cleaned = strings.TrimPrefix(cleaned, char)
	}

	return strings.TrimSpace(cleaned)
}

// ValidURL reports whether cleaned is a well-formed http(s) URL.
func ValidURL(cleaned string) bool {
	if cleaned == "" || strings.Contains(cleaned, " ") {
		return false
	}
	if !urlPattern.MatchString(cleaned) {
		return false
	}
	parsed, err := url.Parse(cleaned)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	if parsed.Host == "" || strings.ContainsAny(parsed.Host, "{}[]<>\"'") {
		return false
	}
	return true
}

// SanitizeSources cleans every remote source URL and returns the usable sources
// plus the raw values that failed validation. Local paths are only trimmed.
// Sources without a name are named after their URL.
func SanitizeSources(sources []models.Source) ([]models.Source, []string) {
	out := make([]models.Source, 0, len(sources))
	var invalid []string

	for _, s := range sources {
		raw := s.URL
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			invalid = append(invalid, raw)
			continue
		}
		if fetcher.IsRemote(SanitizeURL(trimmed)) {
			cleaned := SanitizeURL(trimmed)
			if !ValidURL(cleaned) {
				invalid = append(invalid, raw)
				continue
			}
			s.URL = cleaned
		} else {
			s.URL = trimmed
		}
		if strings.TrimSpace(s.Name) == "" {
			s.Name = s.URL
		}
		out = append(out, s)
	}
	return out, invalid
}

// SourcesFromList turns comma-separated or repeated --url values into sources.
// A value of the form name=url names the source.
func SourcesFromList(values []string) []models.Source {
	var out []models.Source
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			s := models.Source{URL: part}
			if name, u, ok := strings.Cut(part, "="); ok && !strings.Contains(name, "/") && !strings.Contains(name, ":") {
				s.Name, s.URL = strings.TrimSpace(name), strings.TrimSpace(u)
			}
			out = append(out, s)
		}
	}
	return out
}
