package common

import (
	"fmt"
	"strings"
	"time"

	"erp-merge/internal/model"
)

// Summary is the presentation form of a run report shared by the report
// exporters
type Summary struct {
	RunID      string
	Date       string
	Duration   string
	MainFile   string
	Folder     string
	OutputFile string
	Sheet      string

	TotalFiles int
	Processed  int
	Skipped    int
	Failed     int
	TotalRows  int
	Columns    []string

	Formulas      int
	FormulaErrors int

	Files []FileRow
}

// FileRow is one line of the per-file table
type FileRow struct {
	No     int
	File   string
	Status string
	Rows   int
	Reason string
	Steps  string // applied preparation steps, comma separated
	Schema string // column differences against the first result
}

// Summarize flattens a run report for display. Files keep processing order.
func Summarize(r *model.RunReport) Summary {
	s := Summary{
		RunID:         r.RunID,
		Date:          r.StartedAt.Format("2006-01-02 15:04:05"),
		Duration:      r.Duration().Round(time.Millisecond).String(),
		MainFile:      r.MainFile,
		Folder:        r.Folder,
		OutputFile:    r.OutputFile,
		Sheet:         r.OutputSheet,
		TotalFiles:    len(r.Files),
		Processed:     r.Count(model.StatusProcessed),
		Skipped:       r.Count(model.StatusSkipped),
		Failed:        r.Count(model.StatusFailed),
		TotalRows:     r.TotalRows,
		Columns:       r.Columns,
		Formulas:      r.Formulas,
		FormulaErrors: r.FormulaErrors,
	}

	for i, f := range r.Files {
		s.Files = append(s.Files, FileRow{
			No:     i + 1,
			File:   f.File,
			Status: string(f.Status),
			Rows:   f.Rows,
			Reason: f.Reason,
			Steps:  AppliedSteps(f.Steps),
			Schema: SchemaNote(f),
		})
	}
	return s
}

// AppliedSteps lists the preparation steps that changed the sheet, marking
// failed ones
func AppliedSteps(steps []model.StepOutcome) string {
	var parts []string
	for _, st := range steps {
		switch {
		case st.Error != "":
			parts = append(parts, st.Step+" (failed)")
		case st.Applied:
			parts = append(parts, st.Step)
		}
	}
	return strings.Join(parts, ", ")
}

// SchemaNote describes how a file's ERP columns differ from the first result
func SchemaNote(f model.FileOutcome) string {
	var parts []string
	if len(f.MissingColumns) > 0 {
		parts = append(parts, fmt.Sprintf("missing %s", strings.Join(f.MissingColumns, ", ")))
	}
	if len(f.ExtraColumns) > 0 {
		parts = append(parts, fmt.Sprintf("extra %s", strings.Join(f.ExtraColumns, ", ")))
	}
	return strings.Join(parts, "; ")
}
