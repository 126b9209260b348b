package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"io"

	"github.com/dtnitsch/llm-compliance-monitor/models"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// Row background colors by label.
var labelColors = map[string]string{
	string(models.RiskHigh):     "#FF9999",
	string(models.RiskMedium):   "#FFF799",
	string(models.RiskLow):      "#99FF99",
	string(models.NonCompliant): "#FF9999",
	string(models.Compliant):    "#99FF99",
}

// LabelColor returns the row color for label, or "" when it has none.
func LabelColor(label string) string {
	return labelColors[label]
}

// WriteCSV writes the header row and one row per table row.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("failed to write csv rows: %w", err)
	}
	return nil
}

// XLSX builds a one-sheet workbook with a bold header and rows filled by label.
func XLSX(t *Table, sheet string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if sheet == "" {
		sheet = "Report"
	}
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(t.Headers))
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", bold); err != nil {
		return nil, err
	}

	styles := make(map[string]int)
	for i, row := range t.Rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		start, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, start, &cells); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}

		color := LabelColor(t.Labels[i])
		if color == "" {
			continue
		}
		style, ok := styles[color]
		if !ok {
			style, err = f.NewStyle(&excelize.Style{
				Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
			})
			if err != nil {
				return nil, err
			}
			styles[color] = style
		}
		end, _ := excelize.CoordinatesToCellName(len(row), i+2)
		if err := f.SetCellStyle(sheet, start, end, style); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
{{- if .RunID}}
<p>Run: {{.RunID}}</p>
{{- end}}
{{- range .Sections}}
<h2>Document: {{.Name}}</h2>
<table border="1" style="border-collapse: collapse;">
<tr>{{range $.Headers}}<th>{{.}}</th>{{end}}</tr>
{{- range .Rows}}
<tr{{if .Color}} style="background-color:{{.Color}}"{{end}}>{{range .Cells}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
</table>
<br>
{{- end}}
</body>
</html>
`))

type htmlRow struct {
	Color template.CSS
	Cells []string
}

type htmlSection struct {
	Name string
	Rows []htmlRow
}

// WriteHTML renders one table per document section.
func WriteHTML(w io.Writer, title, runID string, t *Table) error {
	order, idx := t.Sections()
	sections := make([]htmlSection, 0, len(order))
	for _, name := range order {
		sec := htmlSection{Name: name}
		for _, i := range idx[name] {
			sec.Rows = append(sec.Rows, htmlRow{Color: template.CSS(LabelColor(t.Labels[i])), Cells: t.Rows[i]})
		}
		sections = append(sections, sec)
	}

	data := struct {
		Title    string
		RunID    string
		Headers  []string
		Sections []htmlSection
	}{title, runID, t.Headers, sections}

	if err := htmlTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render html: %w", err)
	}
	return nil
}

// WriteJSON writes the full report. Records is always an array.
func WriteJSON(w io.Writer, r *Report) error {
	out := *r
	if out.Records == nil {
		out.Records = []models.ScoreRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&out); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	return nil
}

// WriteYAML writes the same document as WriteJSON.
func WriteYAML(w io.Writer, r *Report) error {
	out := *r
	if out.Records == nil {
		out.Records = []models.ScoreRecord{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&out); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	return enc.Close()
}

// WriteAppJSON writes one attribute-mode application report.
func WriteAppJSON(w io.Writer, app *models.AppReport) error {
	out := *app
	if out.Alerts == nil {
		out.Alerts = []string{}
	}
	if out.SuggestedChanges == nil {
		out.SuggestedChanges = []string{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(&out)
}
