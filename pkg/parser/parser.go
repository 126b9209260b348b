package parser

import (
	"bytes"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/llm-compliance-monitor/models"
	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// DefaultMinParagraphChars drops short <p> fragments such as bylines and labels.
const DefaultMinParagraphChars = 20

// DefaultMaxChars bounds the single fragment produced in text mode.
const DefaultMaxChars = 5000

// Parser turns raw page bodies into text fragments.
type Parser struct {
	Mode              models.ExtractMode
	MinParagraphChars int
	MaxChars          int
}

// Result is the text pulled out of one body.
type Result struct {
	Title     string
	Fragments []string
}

// New returns a Parser with defaults filled in for zero values.
func New(mode models.ExtractMode, minParagraphChars, maxChars int) *Parser {
	if mode == "" {
		mode = models.ExtractParagraphs
	}
	if minParagraphChars <= 0 {
		minParagraphChars = DefaultMinParagraphChars
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Parser{Mode: mode, MinParagraphChars: minParagraphChars, MaxChars: maxChars}
}

// Parse extracts fragments from body. Non-HTML local files are split into lines.
func (p *Parser) Parse(source string, body []byte, contentType string) (*Result, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return &Result{}, nil
	}
	if !LooksLikeHTML(source, body, contentType) {
		return &Result{Fragments: splitLines(string(body))}, nil
	}

	switch p.Mode {
	case models.ExtractStrings:
		return p.parseStrings(body)
	case models.ExtractText:
		return p.parseText(body)
	case models.ExtractReadable:
		return p.parseReadable(source, body)
	default:
		return p.parseParagraphs(body)
	}
}

// LooksLikeHTML decides whether body should go through the HTML extractors.
func LooksLikeHTML(source string, body []byte, contentType string) bool {
	if strings.Contains(strings.ToLower(contentType), "html") {
		return true
	}
	switch strings.ToLower(filepath.Ext(source)) {
	case ".html", ".htm", ".xhtml":
		return true
	case ".txt", ".md":
		return false
	}
	head := bytes.TrimSpace(body)
	if len(head) > 512 {
		head = head[:512]
	}
	lower := bytes.ToLower(head)
	return bytes.HasPrefix(lower, []byte("<!doctype html")) ||
		bytes.HasPrefix(lower, []byte("<html")) ||
		bytes.Contains(lower, []byte("<p")) ||
		bytes.Contains(lower, []byte("<body"))
}

func (p *Parser) parseParagraphs(body []byte) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	res := &Result{Title: normalizeText(doc.Find("title").First().Text())}
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		text := normalizeText(s.Text())
		if len([]rune(text)) > p.MinParagraphChars {
			res.Fragments = append(res.Fragments, text)
		}
	})
	return res, nil
}

func (p *Parser) parseText(body []byte) (*Result, error) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	strs, title := strippedStrings(root)
	text := models.Prefix(strings.Join(strs, " "), p.MaxChars)
	res := &Result{Title: title}
	if text != "" {
		res.Fragments = []string{text}
	}
	return res, nil
}

func (p *Parser) parseStrings(body []byte) (*Result, error) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	strs, title := strippedStrings(root)
	return &Result{Title: title, Fragments: strs}, nil
}

// parseReadable lets go-readability find the main content and then walks its blocks.
func (p *Parser) parseReadable(rawURL string, body []byte) (*Result, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid source url: %w", err)
	}

	readabilityParser := readability.NewParser()
	article, err := readabilityParser.Parse(bytes.NewReader(body), parsedURL)
	if err != nil {
		return nil, fmt.Errorf("readability failed: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse article content: %w", err)
	}

	res := &Result{Title: normalizeText(article.Title)}
	doc.Find("h1,h2,h3,h4,p,li,pre").Each(func(_ int, s *goquery.Selection) {
		// Paragraphs inside a list item are already covered by the li.
		if goquery.NodeName(s) == "p" && s.ParentsFiltered("li").Length() > 0 {
			return
		}
		text := normalizeText(s.Text())
		if text != "" {
			res.Fragments = append(res.Fragments, text)
		}
	})
	return res, nil
}

// strippedStrings returns every non-empty text node outside script and style blocks,
// plus the document title.
func strippedStrings(root *html.Node) ([]string, string) {
	var out []string
	var title string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "template":
				return
			case "title":
				if n.FirstChild != nil {
					title = normalizeText(n.FirstChild.Data)
				}
				return
			}
		}
		if n.Type == html.TextNode {
			if text := normalizeText(n.Data); text != "" {
				out = append(out, text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out, title
}

func splitLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// normalizeText collapses all runs of whitespace, newlines included, into single spaces.
func normalizeText(input string) string {
	return strings.Join(strings.Fields(input), " ")
}
