package report

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dtnitsch/llm-compliance-monitor/pkg/storage"
)

// DefaultBaseName is the file stem used when a Writer has none.
const DefaultBaseName = "compliance_report"

// Writer renders a Report into files under Dir and the console stream.
type Writer struct {
	Dir      string
	BaseName string
	Console  io.Writer
	Storage  *storage.Storage
	Logger   *slog.Logger
}

// NewWriter returns a Writer rooted at dir that prints console output to out.
func NewWriter(dir string, out io.Writer, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{Dir: dir, BaseName: DefaultBaseName, Console: out, Storage: &storage.Storage{}, Logger: logger}
}

// Write renders r in each format and returns the paths of the files written.
// Attribute-mode app reports are additionally written as <app>_compliance_report.json.
func (w *Writer) Write(r *Report, formats []Format) ([]string, error) {
	t := r.Table()
	var paths []string

	for _, f := range formats {
		if f == FormatConsole {
			if w.Console == nil {
				continue
			}
			if err := WriteConsole(w.Console, r); err != nil {
				return paths, fmt.Errorf("failed to print report: %w", err)
			}
			continue
		}

		var buf bytes.Buffer
		var err error
		switch f {
		case FormatCSV:
			err = WriteCSV(&buf, t)
		case FormatXLSX:
			var data []byte
			data, err = XLSX(t, "Report")
			buf.Write(data)
		case FormatHTML:
			err = WriteHTML(&buf, w.title(r), r.RunID, t)
		case FormatJSON:
			err = WriteJSON(&buf, r)
		case FormatYAML:
			err = WriteYAML(&buf, r)
		default:
			err = fmt.Errorf("unknown report format %q", f)
		}
		if err != nil {
			return paths, err
		}

		path := filepath.Join(w.Dir, w.baseName()+"."+string(f))
		if err := w.Storage.SaveFile(path, buf.Bytes()); err != nil {
			return paths, fmt.Errorf("failed to save %s report: %w", f, err)
		}
		w.Logger.Info("Report saved", "format", f, "path", path, "bytes", buf.Len())
		paths = append(paths, path)
	}

	for i := range r.Apps {
		var buf bytes.Buffer
		if err := WriteAppJSON(&buf, &r.Apps[i]); err != nil {
			return paths, err
		}
		path := filepath.Join(w.Dir, FileSafe(r.Apps[i].AppName)+"_compliance_report.json")
		if err := w.Storage.SaveFile(path, buf.Bytes()); err != nil {
			return paths, fmt.Errorf("failed to save app report: %w", err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (w *Writer) baseName() string {
	if w.BaseName == "" {
		return DefaultBaseName
	}
	return w.BaseName
}

func (w *Writer) title(r *Report) string {
	if r.Title != "" {
		return r.Title
	}
	return "Compliance Monitoring Report"
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileSafe turns a document or app name into a file name stem.
func FileSafe(name string) string {
	s := strings.Trim(unsafeChars.ReplaceAllString(strings.TrimSpace(name), "_"), "_.")
	if s == "" {
		return "unnamed"
	}
	return s
}
