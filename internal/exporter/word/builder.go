package word

import (
	"embed"
	"fmt"
	"strings"

	"erp-merge/internal/config"
	"erp-merge/internal/exporter/common"
	"erp-merge/internal/model"

	"github.com/nguyenthenguyen/docx"
)

//go:embed template.docx
var templateFS embed.FS

type WordExporter struct{}

func NewWordExporter() *WordExporter {
	return &WordExporter{}
}

func (e *WordExporter) Export(report *model.RunReport, cfg *config.Config) (string, error) {
	r, err := docx.ReadDocxFromFS("template.docx", templateFS)
	if err != nil {
		return "", fmt.Errorf("failed to read embedded template: %w", err)
	}
	defer r.Close()

	doc := r.Editable()
	s := common.Summarize(report)

	placeholders := []struct {
		key, value string
	}{
		{"{{RunID}}", s.RunID},
		{"{{Date}}", s.Date},
		{"{{TotalFiles}}", fmt.Sprintf("%d", s.TotalFiles)},
		{"{{Processed}}", fmt.Sprintf("%d", s.Processed)},
		{"{{TotalRows}}", fmt.Sprintf("%d", s.TotalRows)},
		{"{{Content}}", buildContent(&s)},
	}
	for _, p := range placeholders {
		if err := doc.Replace(p.key, p.value, -1); err != nil {
			return "", fmt.Errorf("failed to fill %s: %w", p.key, err)
		}
	}

	outFile := cfg.ReportPath(".docx")
	if err := doc.WriteToFile(outFile); err != nil {
		return "", fmt.Errorf("failed to write Word document: %w", err)
	}
	return outFile, nil
}

// buildContent renders the report body as plain text.
// The docx library handles the XML encoding.
func buildContent(s *common.Summary) string {
	var sb strings.Builder

	sb.WriteString("RUN DETAILS\n\n")
	sb.WriteString(fmt.Sprintf("  • Main workbook: %s\n", s.MainFile))
	sb.WriteString(fmt.Sprintf("  • Project folder: %s\n", s.Folder))
	sb.WriteString(fmt.Sprintf("  • Output file: %s (%s)\n", s.OutputFile, s.Sheet))
	sb.WriteString(fmt.Sprintf("  • Duration: %s\n", s.Duration))
	sb.WriteString(fmt.Sprintf("  • Files: %d processed, %d skipped, %d failed\n", s.Processed, s.Skipped, s.Failed))
	sb.WriteString(fmt.Sprintf("  • Formulas evaluated: %d (%d not evaluable)\n\n", s.Formulas, s.FormulaErrors))
	sb.WriteString(strings.Repeat("=", 80) + "\n\n")

	sb.WriteString("SOURCE FILES:\n")
	sb.WriteString(fmt.Sprintf("%-4s %-40s %-10s %6s  %s\n", "No", "File", "Status", "Rows", "Notes"))
	sb.WriteString(strings.Repeat("-", 100) + "\n")
	for _, f := range s.Files {
		notes := joinNonEmpty("; ", f.Reason, f.Schema)
		if f.Steps != "" {
			notes = joinNonEmpty("; ", notes, "prepared: "+f.Steps)
		}
		sb.WriteString(fmt.Sprintf("%-4d %-40s %-10s %6d  %s\n",
			f.No,
			truncate(f.File, 40),
			f.Status,
			f.Rows,
			notes))
	}

	sb.WriteString("\nMASTER COLUMNS:\n")
	sb.WriteString(strings.Join(s.Columns, ", ") + "\n")

	return sb.String()
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// truncate truncates a string to a maximum length
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
