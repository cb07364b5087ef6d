// Package pipeline runs a merge: it validates the environment, feeds every
// source file's Data sheet through the main workbook, collects the ERP
// results and exports the master table.
package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"erp-merge/internal/config"
	"erp-merge/internal/exporter"
	"erp-merge/internal/logger"
	"erp-merge/internal/model"
	"erp-merge/internal/source"
	"erp-merge/internal/table"
	"erp-merge/internal/workbook"

	"github.com/google/uuid"
)

// Progress receives one tick per processed unit of work
type Progress interface {
	Increment() error
	Describe(description string)
}

type noProgress struct{}

func (noProgress) Increment() error { return nil }
func (noProgress) Describe(string)  {}

// Merged is the outcome of the per-file loop
type Merged struct {
	Master *table.Table
	Report *model.RunReport
}

// session is the part of the live workbook the per-file loop drives
type session interface {
	RequireSheets(names ...string) ([]string, error)
	Prepare(sheet string) []model.StepOutcome
	Write(sheet string, t *table.Table) error
	Recalculate() (workbook.RecalcStats, error)
	ReadRegion(sheet string) (*table.Table, error)
	Close() error
}

func openWorkbook(path string, opts workbook.Options) (session, error) {
	s, err := workbook.Open(path, opts)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Runner owns one merge run
type Runner struct {
	cfg      *config.Config
	log      *logger.Logger
	progress Progress
	open     func(path string, opts workbook.Options) (session, error)
}

// NewRunner creates a runner. A nil logger discards every record.
func NewRunner(cfg *config.Config, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.Discard()
	}
	return &Runner{cfg: cfg, log: log, progress: noProgress{}, open: openWorkbook}
}

// SetProgress routes progress ticks of the following calls to p
func (r *Runner) SetProgress(p Progress) {
	if p == nil {
		p = noProgress{}
	}
	r.progress = p
}

// Run performs a whole merge: validation, the per-file loop and export.
// No output is written unless at least one ERP result was collected.
func (r *Runner) Run() (*model.RunReport, error) {
	files, err := ValidateEnvironment(r.cfg)
	if err != nil {
		return nil, err
	}
	merged, err := r.Merge(files)
	if err != nil {
		return nil, err
	}
	if err := r.Export(merged); err != nil {
		return merged.Report, err
	}
	return merged.Report, nil
}

// sheets holds the main workbook's sheet names as stored
type sheets struct {
	data, erp string
}

// Merge opens the main workbook once and processes files strictly in order.
// Each file's write, recalculation and read completes before the next file
// is written. The workbook is released on every return path.
func (r *Runner) Merge(files []string) (*Merged, error) {
	report := &model.RunReport{
		RunID:       uuid.NewString(),
		StartedAt:   time.Now(),
		MainFile:    r.cfg.MainPath(),
		Folder:      r.cfg.ProjectPath(),
		OutputFile:  r.cfg.OutputPath(),
		OutputSheet: r.cfg.Sheets.Output,
	}
	r.log.Info("Run %s: merging %d source file(s) through %s", report.RunID, len(files), filepath.Base(report.MainFile))

	wb, err := r.open(r.cfg.MainPath(), workbook.Options{Password: r.cfg.SheetPassword})
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	names, err := wb.RequireSheets(r.cfg.Sheets.Data, r.cfg.Sheets.ERP)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMissingSheet, err)
	}
	target := sheets{data: names[0], erp: names[1]}

	var (
		results   []*table.Table
		reference *table.Table
	)
	for _, path := range files {
		r.progress.Describe(filepath.Base(path))
		outcome, result, err := r.processFile(wb, path, target, reference, report)
		report.Files = append(report.Files, outcome)
		r.progress.Increment()
		if err != nil {
			return nil, err
		}
		if result == nil {
			continue
		}
		if reference == nil {
			reference = result
		}
		results = append(results, result)
	}

	if len(results) == 0 {
		r.log.Error("No ERP results collected from %d file(s)", len(files))
		return nil, ErrNoResults
	}

	master := table.Concat(results)
	report.Columns = master.Columns
	report.TotalRows = master.Len()
	r.log.Info("Collected %d ERP row(s) from %d of %d file(s)", master.Len(), len(results), len(files))
	return &Merged{Master: master, Report: report}, nil
}

// processFile runs one source file through the session. A nil result with a
// nil error means the file was skipped; a non-nil error aborts the run.
func (r *Runner) processFile(s session, path string, target sheets, reference *table.Table, report *model.RunReport) (model.FileOutcome, *table.Table, error) {
	name := filepath.Base(path)
	outcome := model.FileOutcome{File: name}
	r.log.Info("Processing file: %s", name)

	data, err := source.Read(path, r.cfg.Sheets.Data)
	if err != nil {
		if errors.Is(err, source.ErrSheetNotFound) {
			r.log.Error("Missing %s sheet in %s", r.cfg.Sheets.Data, path)
			if r.cfg.Policy.MissingDataSheet == config.PolicyAbort {
				return r.fail(outcome, StageRead, err)
			}
			return skip(outcome, fmt.Sprintf("missing %s sheet", r.cfg.Sheets.Data)), nil, nil
		}
		r.log.Error("Failed to read %s: %v", path, err)
		if r.cfg.Policy.UnreadableSource == config.PolicyAbort {
			return r.fail(outcome, StageRead, err)
		}
		return skip(outcome, fmt.Sprintf("unreadable: %v", err)), nil, nil
	}
	r.log.Debug("%s: read %d row(s), %d column(s)", name, data.Len(), data.Width())

	outcome.Steps = s.Prepare(target.data)
	for _, step := range outcome.Steps {
		r.log.Debug("%s: prepare %s needed=%t applied=%t %s", name, step.Step, step.Needed, step.Applied, step.Detail)
		if step.Err == nil {
			continue
		}
		switch r.cfg.Policy.PrepareError {
		case config.PolicyAbort:
			return r.fail(outcome, StagePrepare, fmt.Errorf("%s: %w", step.Step, step.Err))
		case config.PolicyWarn:
			r.log.Warn("%s: %s step failed: %v", name, step.Step, step.Err)
		default:
			r.log.Debug("%s: %s step failed: %v", name, step.Step, step.Err)
		}
	}

	if err := s.Write(target.data, data); err != nil {
		r.log.Error("%s: %v", name, err)
		if r.cfg.Policy.WriteError == config.PolicyAbort {
			return r.fail(outcome, StageWrite, err)
		}
		return skip(outcome, fmt.Sprintf("write failed: %v", err)), nil, nil
	}

	stats, err := s.Recalculate()
	if err != nil {
		return r.fail(outcome, StageRecalculate, err)
	}
	report.Formulas += stats.Formulas
	report.FormulaErrors += stats.Errors
	r.log.Debug("%s: recalculated %d formula(s), %d could not be evaluated", name, stats.Formulas, stats.Errors)

	result, err := s.ReadRegion(target.erp)
	if err == nil {
		err = result.InsertLeading(r.cfg.SourceColumn, name)
	}
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrResultShape, err)
		if r.cfg.Policy.ResultError == config.PolicySkip {
			r.log.Error("%s: %v", name, err)
			return skip(outcome, err.Error()), nil, nil
		}
		return r.fail(outcome, StageCollect, err)
	}

	if reference != nil {
		diff := table.CompareSchema(reference, result)
		if !diff.Empty() {
			outcome.MissingColumns, outcome.ExtraColumns = diff.Missing, diff.Extra
			if r.cfg.Policy.SchemaMismatch == config.PolicyAbort {
				return r.fail(outcome, StageSchema, fmt.Errorf("%w: missing %v, extra %v", ErrSchemaMismatch, diff.Missing, diff.Extra))
			}
			r.log.Warn("%s: ERP columns differ from the first result (missing %v, extra %v), aligning by name", name, diff.Missing, diff.Extra)
		}
	}

	outcome.Status = model.StatusProcessed
	outcome.Rows = result.Len()
	r.log.Info("Collected %d ERP row(s) from %s", result.Len(), name)
	return outcome, result, nil
}

func (r *Runner) fail(outcome model.FileOutcome, stage Stage, err error) (model.FileOutcome, *table.Table, error) {
	outcome.Status = model.StatusFailed
	outcome.Reason = err.Error()
	return outcome, nil, &FileError{File: outcome.File, Stage: stage, Err: err}
}

func skip(outcome model.FileOutcome, reason string) model.FileOutcome {
	outcome.Status = model.StatusSkipped
	outcome.Reason = reason
	return outcome
}

// Export writes the master table to the output file and then every
// configured run report. The master file is overwritten if present.
func (r *Runner) Export(m *Merged) error {
	path := r.cfg.OutputPath()
	if err := exporter.NewMasterWriter().Write(path, r.cfg.Sheets.Output, m.Master); err != nil {
		return fmt.Errorf("failed to write master output: %w", err)
	}
	r.log.Info("Master ERP output saved to %s", path)
	r.progress.Increment()

	m.Report.FinishedAt = time.Now()

	exporters := exporter.GetExporters(r.cfg.Report.Formats)
	if len(exporters) == 0 {
		return nil
	}
	if err := r.cfg.EnsureReportDir(); err != nil {
		return err
	}

	failed := 0
	for _, exp := range exporters {
		out, err := exp.Export(m.Report, r.cfg)
		r.progress.Increment()
		if err != nil {
			r.log.Error("Report export failed: %v", err)
			failed++
			continue
		}
		r.log.Info("Run report saved to %s", out)
	}
	if failed > 0 {
		return fmt.Errorf("%d report export(s) failed", failed)
	}
	return nil
}
