package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dtnitsch/llm-compliance-monitor/models"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ECDC4"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFE66D"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	borderColor = lipgloss.Color("#333")
)

// consoleWidth caps each terminal cell.
const consoleWidth = 48

// consoleColumns are the record columns shown in the terminal; the rest only go to files.
var consoleColumns = map[string]bool{
	"Document": true, "Doc_Type": true, "Paragraph_ID": true, "Rule_Checked": true,
	"Metric": true, "Value": true, "Similarity": true, "Label": true, "Missing_Actionable": true,
	"URL": true, "TLS_Version": true, "Region": true, "Overall_Compliant": true, "Suggestion": true,
	"Rank": true, "Score": true, "Text": true, "Summary": true,
}

// WriteConsole prints the result table followed by the per-document summary.
func WriteConsole(w io.Writer, r *Report) error {
	t := r.Table()

	var cols []int
	for i, h := range t.Headers {
		if consoleColumns[h] {
			cols = append(cols, i)
		}
	}
	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = t.Headers[c]
	}
	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = make([]string, len(cols))
		for j, c := range cols {
			rows[i][j] = models.Truncate(row[c], consoleWidth)
		}
	}
	labelCol := -1
	for i, h := range headers {
		if h == "Label" {
			labelCol = i
		}
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(borderColor)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == labelCol && row >= 0 && row < len(t.Labels) {
				return labelStyle(t.Labels[row]).Padding(0, 1)
			}
			return cellStyle
		})

	title := r.Title
	if title == "" {
		title = "Compliance Report"
	}
	if _, err := fmt.Fprintln(w, titleStyle.Render(title)); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, tbl.Render()); err != nil {
		return err
	}
	return WriteSummary(w, r)
}

// WriteSummary prints one line per document: status and the number of issues found.
func WriteSummary(w io.Writer, r *Report) error {
	summary := r.Summary()
	if len(summary) == 0 {
		_, err := fmt.Fprintln(w, subtleStyle.Render("No documents evaluated."))
		return err
	}

	rows := make([][]string, 0, len(summary))
	for _, s := range summary {
		rows = append(rows, []string{s.Name, s.Status, strconv.Itoa(s.Issues), s.Error})
	}
	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(borderColor)).
		Headers("Application", "Status", "Issues Found", "Error").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 1 && row >= 0 && row < len(summary) {
				return labelStyle(summary[row].Status).Padding(0, 1)
			}
			return cellStyle
		})

	if _, err := fmt.Fprintln(w, titleStyle.Render("Compliance Summary")); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, tbl.Render())
	return err
}

func labelStyle(label string) lipgloss.Style {
	switch label {
	case string(models.RiskLow), string(models.Compliant):
		return okStyle
	case string(models.RiskMedium):
		return warnStyle
	case string(models.RiskHigh), string(models.NonCompliant), "Failed":
		return failStyle
	}
	return cellStyle
}

// Styled renders text in the color of label.
func Styled(label, text string) string {
	return labelStyle(label).UnsetPadding().Render(text)
}

// WriteTable prints a plain titled table in the report style, for listings
// that are not evaluation results.
func WriteTable(w io.Writer, title string, headers []string, rows [][]string) error {
	for i := range rows {
		for j := range rows[i] {
			rows[i][j] = models.Truncate(rows[i][j], consoleWidth*2)
		}
	}
	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(borderColor)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	if title != "" {
		if _, err := fmt.Fprintln(w, titleStyle.Render(title)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, tbl.Render())
	return err
}
