// Package report renders evaluation results as CSV, XLSX, HTML, JSON, YAML or a console table.
package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dtnitsch/llm-compliance-monitor/models"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/similarity"
)

// Format names one output rendering.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatXLSX    Format = "xlsx"
	FormatHTML    Format = "html"
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatConsole Format = "console"
)

// ParseFormats validates format names, dropping duplicates. "all" expands to every file format plus console.
func ParseFormats(names []string) ([]Format, error) {
	seen := make(map[Format]bool)
	var out []Format
	add := func(f Format) {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	for _, raw := range names {
		for _, n := range strings.Split(raw, ",") {
			f := Format(strings.ToLower(strings.TrimSpace(n)))
			switch f {
			case "":
				continue
			case "all":
				for _, a := range []Format{FormatCSV, FormatXLSX, FormatHTML, FormatJSON, FormatYAML, FormatConsole} {
					add(a)
				}
			case FormatCSV, FormatXLSX, FormatHTML, FormatJSON, FormatYAML, FormatConsole:
				add(f)
			default:
				return nil, fmt.Errorf("unknown report format %q", n)
			}
		}
	}
	return out, nil
}

// Report is everything one run produced. Exactly one of Records, Sites or Hits
// drives the tabular renderings; Apps accompany Records in attribute mode.
type Report struct {
	Title   string               `json:"title" yaml:"title"`
	RunID   string               `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Mode    string               `json:"mode,omitempty" yaml:"mode,omitempty"`
	Records []models.ScoreRecord `json:"records" yaml:"records"`
	Apps    []models.AppReport   `json:"apps,omitempty" yaml:"apps,omitempty"`
	Sites   []models.SiteResult  `json:"sites,omitempty" yaml:"sites,omitempty"`
	Hits    []models.SearchHit   `json:"hits,omitempty" yaml:"hits,omitempty"`
	// Failed maps document names to the error that left them empty.
	Failed map[string]string `json:"failed,omitempty" yaml:"failed,omitempty"`
}

// Table is the flattened, display-ready form of a Report.
type Table struct {
	Headers []string
	Rows    [][]string
	// Groups holds the section (document) of each row; Labels its color key.
	Groups []string
	Labels []string
}

var recordHeaders = []string{
	"Document", "Doc_Type", "Paragraph_ID", "Text", "Rule_Checked", "Rule_Source",
	"Metric", "Value", "Similarity", "Threshold", "Label", "Summary", "Suggestion", "Missing_Actionable",
}

var siteHeaders = []string{
	"URL", "IP", "TLS_Version", "Region", "HTTPS_OK", "TLS_OK", "Region_OK",
	"Matched_Rule", "Rule_Source", "Similarity", "Overall_Compliant", "Suggestion",
}

var hitHeaders = []string{"Rank", "Document", "Paragraph_ID", "Score", "Text", "Summary", "Action_Items"}

// ModeSearch marks reports holding search hits rather than scored records.
const ModeSearch = "search"

// Table flattens the report. The headers follow the mode, so an empty site
// or search report still carries its own columns.
func (r *Report) Table() *Table {
	switch {
	case r.Mode == string(models.EvalSite) || len(r.Sites) > 0:
		return siteTable(r.Sites)
	case r.Mode == ModeSearch || len(r.Hits) > 0:
		return hitTable(r.Hits)
	}
	return recordTable(r.Records)
}

func recordTable(records []models.ScoreRecord) *Table {
	t := &Table{Headers: recordHeaders}
	for i := range records {
		rec := &records[i]
		t.add(rec.Document, rec.Label(), []string{
			rec.Document,
			string(rec.Kind),
			paragraphID(rec.ParagraphID),
			rec.Text,
			rec.Rule,
			rec.RuleSource,
			rec.Metric,
			rec.Value,
			formatScore(rec.Similarity),
			formatScore(rec.Threshold),
			rec.Label(),
			rec.Summary,
			rec.Suggestion,
			yesNo(rec.MissingActionable),
		})
	}
	return t
}

func siteTable(sites []models.SiteResult) *Table {
	t := &Table{Headers: siteHeaders}
	for i := range sites {
		s := &sites[i]
		t.add(s.URL, string(s.Status()), []string{
			s.URL,
			s.IP,
			s.TLSVersion,
			s.Region,
			strconv.FormatBool(s.HTTPSOK),
			strconv.FormatBool(s.TLSOK),
			strconv.FormatBool(s.RegionOK),
			s.MatchedRule,
			s.RuleSource,
			formatScore(s.Similarity),
			strconv.FormatBool(s.OverallCompliant),
			s.Suggestion,
		})
	}
	return t
}

func hitTable(hits []models.SearchHit) *Table {
	t := &Table{Headers: hitHeaders}
	for i := range hits {
		h := &hits[i]
		t.add(h.Document, "", []string{
			strconv.Itoa(i + 1),
			h.Document,
			paragraphID(h.ParagraphID),
			formatScore(h.Score),
			h.Text,
			h.Summary,
			strings.Join(h.ActionItems, "; "),
		})
	}
	return t
}

func (t *Table) add(group, label string, row []string) {
	t.Rows = append(t.Rows, row)
	t.Groups = append(t.Groups, group)
	t.Labels = append(t.Labels, label)
}

// Sections returns row indexes grouped by section, in first-seen order.
func (t *Table) Sections() ([]string, map[string][]int) {
	var order []string
	idx := make(map[string][]int)
	for i, g := range t.Groups {
		if _, ok := idx[g]; !ok {
			order = append(order, g)
		}
		idx[g] = append(idx[g], i)
	}
	return order, idx
}

// DocumentStatus is one line of the per-document summary.
type DocumentStatus struct {
	Name   string
	Status string
	Issues int
	Error  string
}

// Summary computes status and issue counts per document. App reports take
// precedence over records; failed documents are listed last.
func (r *Report) Summary() []DocumentStatus {
	var out []DocumentStatus
	switch {
	case len(r.Apps) > 0:
		for i := range r.Apps {
			a := &r.Apps[i]
			out = append(out, DocumentStatus{Name: a.AppName, Status: statusOf(a.Compliant), Issues: a.Issues()})
		}
	case len(r.Sites) > 0:
		for i := range r.Sites {
			s := &r.Sites[i]
			issues := 0
			for _, ok := range []bool{s.HTTPSOK, s.TLSOK, s.RegionOK} {
				if !ok {
					issues++
				}
			}
			out = append(out, DocumentStatus{Name: s.URL, Status: string(s.Status()), Issues: issues, Error: s.Error})
		}
	default:
		index := make(map[string]int)
		for i := range r.Records {
			rec := &r.Records[i]
			pos, ok := index[rec.Document]
			if !ok {
				pos = len(out)
				index[rec.Document] = pos
				out = append(out, DocumentStatus{Name: rec.Document})
			}
			if rec.MissingActionable {
				out[pos].Issues++
			}
		}
		for i := range out {
			out[i].Status = statusOf(out[i].Issues == 0)
		}
	}

	names := make([]string, 0, len(r.Failed))
	for name := range r.Failed {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		out = append(out, DocumentStatus{Name: name, Status: "Failed", Error: r.Failed[name]})
	}
	return out
}

func statusOf(ok bool) string {
	if ok {
		return string(models.Compliant)
	}
	return string(models.NonCompliant)
}

func paragraphID(id int) string {
	if id <= 0 {
		return ""
	}
	return strconv.Itoa(id)
}

func formatScore(v float64) string {
	return strconv.FormatFloat(similarity.Round3(v), 'f', -1, 64)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
