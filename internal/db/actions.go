package db

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dtnitsch/llm-compliance-monitor/internal/common"
	dbpkg "github.com/dtnitsch/llm-compliance-monitor/pkg/db"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/mapreduce"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/report"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
)

func openDatabase(c *cli.Context) (*dbpkg.DB, error) {
	cfg, err := common.LoadConfig(c)
	if err != nil {
		return nil, common.ConfigError(err)
	}
	database, err := dbpkg.Open(cfg.Output.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return database, nil
}

// RunsAction lists recent runs.
func RunsAction(c *cli.Context) error {
	database, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer database.Close()

	runs, err := database.ListRuns(c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("No runs found")
		return nil
	}

	if err := report.WriteTable(os.Stdout, "Runs", RunHeaders, RunRows(runs)); err != nil {
		return err
	}
	fmt.Printf("\nTotal: %d runs\n", len(runs))
	fmt.Printf("\nTip: Use 'lcm runs show <id>' to see details\n")
	return nil
}

// RunHeaders are the columns of the run listing.
var RunHeaders = []string{"Run ID", "Created", "Mode", "Rule Set", "Docs", "OK", "Failed", "Records", "Issues"}

// RunRows renders runs for the listing table.
func RunRows(runs []dbpkg.Run) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			ShortID(r.RunID),
			humanize.Time(r.CreatedAt),
			r.Mode,
			r.RuleSet,
			strconv.Itoa(r.DocumentCount),
			strconv.Itoa(r.SuccessCount),
			strconv.Itoa(r.FailedCount),
			humanize.Comma(int64(r.RecordCount)),
			strconv.Itoa(r.IssueCount),
		})
	}
	return rows
}

// ShortID abbreviates a run ID for display; any unique prefix resolves back.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// RunAction shows one run: header, per-document outcomes and the stored records.
func RunAction(c *cli.Context) error {
	database, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer database.Close()

	runID, err := GetRunIDOrLatest(c, database)
	if err != nil {
		return err
	}
	run, err := database.GetRun(runID)
	if err != nil {
		return err
	}
	docs, err := database.GetRunDocuments(runID)
	if err != nil {
		return err
	}
	records, err := database.GetRunRecords(runID, c.Bool("issues-only"))
	if err != nil {
		return err
	}

	fmt.Printf("Run %s\n", run.RunID)
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Created:     %s (%s)\n", run.CreatedAt.Format("2006-01-02 15:04:05"), humanize.Time(run.CreatedAt))
	fmt.Printf("Mode:        %s\n", run.Mode)
	fmt.Printf("Rule set:    %s\n", run.RuleSet)
	fmt.Printf("Embedder:    %s\n", run.Embedder)
	fmt.Printf("Documents:   %d total (%d success, %d failed)\n", run.DocumentCount, run.SuccessCount, run.FailedCount)
	fmt.Printf("Records:     %d (%d issues)\n", run.RecordCount, run.IssueCount)
	if run.ReportDir != "" {
		fmt.Printf("Reports:     %s\n", run.ReportDir)
	}
	if kw := Keywords(run.TopKeywords, 10); len(kw) > 0 {
		fmt.Printf("Keywords:    %s\n", strings.Join(kw, ", "))
	}
	fmt.Println()

	if err := report.WriteTable(os.Stdout, fmt.Sprintf("Documents (%d)", len(docs)),
		[]string{"Name", "URL", "Kind", "Lang", "Paragraphs", "Size", "Status"}, DocumentRows(docs)); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	fmt.Println()
	return report.WriteConsole(os.Stdout, &report.Report{Title: "Records", RunID: run.RunID, Records: records})
}

// DocumentRows renders the per-document outcomes of a run.
func DocumentRows(docs []dbpkg.RunDocument) [][]string {
	rows := make([][]string, 0, len(docs))
	for _, d := range docs {
		status := d.Status
		if d.ErrorType != "" {
			status = fmt.Sprintf("%s [%s] %s", d.Status, d.ErrorType, d.ErrorMessage)
		}
		rows = append(rows, []string{
			d.Name,
			d.URL,
			d.Kind,
			d.Language,
			strconv.Itoa(d.ParagraphCount),
			humanize.Bytes(uint64(d.SizeBytes)),
			status,
		})
	}
	return rows
}

// Keywords decodes the stored {"word": count} JSON into the top n "word:count" entries.
func Keywords(raw string, n int) []string {
	var counts map[string]int
	if raw == "" || json.Unmarshal([]byte(raw), &counts) != nil {
		return nil
	}
	return mapreduce.TopKeywords(counts, n)
}

// PruneAction deletes runs older than --older-than.
func PruneAction(c *cli.Context) error {
	database, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer database.Close()

	age := c.Duration("older-than")
	if age <= 0 {
		return common.ConfigError(fmt.Errorf("--older-than must be positive"))
	}
	cutoff := time.Now().Add(-age)
	n, err := database.DeleteRunsBefore(cutoff)
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d run(s) created before %s\n", n, cutoff.Format("2006-01-02 15:04:05"))
	return nil
}
