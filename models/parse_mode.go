package models

import (
	"fmt"
	"strings"
)

// ExtractMode selects how fetched HTML is turned into text fragments.
type ExtractMode string

const (
	// ExtractParagraphs keeps the text of every <p> longer than the minimum length.
	ExtractParagraphs ExtractMode = "paragraphs"
	ExtractStrings    ExtractMode = "strings" // every stripped text node
	ExtractText       ExtractMode = "text"    // one truncated fragment of all text
	ExtractReadable   ExtractMode = "readability"
)

// ParseExtractMode validates a mode name. Empty means paragraphs.
func ParseExtractMode(s string) (ExtractMode, error) {
	switch ExtractMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ExtractParagraphs:
		return ExtractParagraphs, nil
	case ExtractStrings:
		return ExtractStrings, nil
	case ExtractText:
		return ExtractText, nil
	case ExtractReadable:
		return ExtractReadable, nil
	}
	return "", fmt.Errorf("unknown extract mode %q (want paragraphs, strings, text or readability)", s)
}

// EvalMode selects the evaluation pipeline.
type EvalMode string

const (
	EvalParagraph EvalMode = "paragraph"
	EvalAttribute EvalMode = "attribute"
	EvalSite      EvalMode = "site"
)

// ParseEvalMode validates an evaluation mode name. Empty means paragraph.
func ParseEvalMode(s string) (EvalMode, error) {
	switch EvalMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", EvalParagraph:
		return EvalParagraph, nil
	case EvalAttribute:
		return EvalAttribute, nil
	case EvalSite:
		return EvalSite, nil
	}
	return "", fmt.Errorf("unknown mode %q (want paragraph, attribute or site)", s)
}
