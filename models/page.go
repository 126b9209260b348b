package models

import "strings"

// DocumentKind distinguishes regulator/legal text from application/bank pages.
type DocumentKind string

const (
	KindLegal DocumentKind = "Legal"
	KindApp   DocumentKind = "App"
)

// ParseDocumentKind maps a config value to a kind; unknown values return "".
func ParseDocumentKind(s string) DocumentKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "legal":
		return KindLegal
	case "app":
		return KindApp
	}
	return ""
}

// Document is the text acquired for one named source during a run.
type Document struct {
	Name       string       `json:"name" yaml:"name"`
	Source     string       `json:"source" yaml:"source"`
	Kind       DocumentKind `json:"kind" yaml:"kind"`
	Title      string       `json:"title,omitempty" yaml:"title,omitempty"`
	Language   string       `json:"language,omitempty" yaml:"language,omitempty"`
	Paragraphs []string     `json:"paragraphs" yaml:"paragraphs"`
}

// Empty reports whether the document yielded no text at all.
func (d *Document) Empty() bool {
	return len(d.Paragraphs) == 0
}

// ToPlainText joins all paragraphs with single spaces.
func (d *Document) ToPlainText() string {
	return strings.Join(d.Paragraphs, " ")
}

// Truncate shortens text to n runes, appending "..." when something was cut.
func Truncate(text string, n int) string {
	if n <= 0 {
		return text
	}
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n]) + "..."
}

// Prefix returns at most the first n runes of text without a marker.
func Prefix(text string, n int) string {
	r := []rune(text)
	if n <= 0 || len(r) <= n {
		return text
	}
	return string(r[:n])
}
