package db

import (
	"fmt"
	"strings"

	dbpkg "github.com/dtnitsch/llm-compliance-monitor/pkg/db"
	"github.com/urfave/cli/v2"
)

// GetRunIDOrLatest returns the run ID from args, or the latest run if not provided.
// A unique prefix of a run ID is accepted.
func GetRunIDOrLatest(c *cli.Context, database *dbpkg.DB) (string, error) {
	if c.NArg() == 0 {
		runs, err := database.ListRuns(1)
		if err != nil {
			return "", fmt.Errorf("failed to get latest run: %w", err)
		}
		if len(runs) == 0 {
			return "", fmt.Errorf("no runs found. Run 'lcm check' first")
		}
		return runs[0].RunID, nil
	}
	return ResolveRunID(c.Args().First(), database)
}

// ResolveRunID expands a run ID prefix to the full ID.
func ResolveRunID(arg string, database *dbpkg.DB) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", fmt.Errorf("empty run ID")
	}
	runs, err := database.ListRuns(0)
	if err != nil {
		return "", err
	}
	var matches []string
	for _, r := range runs {
		if r.RunID == arg {
			return arg, nil
		}
		if strings.HasPrefix(r.RunID, arg) {
			matches = append(matches, r.RunID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("run %s not found", arg)
	case 1:
		return matches[0], nil
	}
	return "", fmt.Errorf("run ID prefix %s is ambiguous (%d matches)", arg, len(matches))
}
