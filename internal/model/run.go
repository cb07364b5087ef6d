package model

import "time"

// Preparation step names, in execution order
const (
	StepShow      = "show"
	StepUnprotect = "unprotect"
	StepClear     = "clear"
	StepUnmerge   = "unmerge"
)

// StepOutcome records one sheet preparation step
type StepOutcome struct {
	Step    string `json:"step"`
	Needed  bool   `json:"needed"`  // the sheet was in a state the step addresses
	Applied bool   `json:"applied"` // the step changed the sheet
	Detail  string `json:"detail,omitempty"`
	Error   string `json:"error,omitempty"`

	Err error `json:"-"`
}

// Failed returns a copy of the outcome carrying err
func (o StepOutcome) Failed(err error) StepOutcome {
	o.Err = err
	if err != nil {
		o.Error = err.Error()
	}
	return o
}

// FileStatus is the final state of one source file in a run
type FileStatus string

const (
	StatusProcessed FileStatus = "processed"
	StatusSkipped   FileStatus = "skipped"
	StatusFailed    FileStatus = "failed"
)

// FileOutcome records what happened to one source file
type FileOutcome struct {
	File   string        `json:"file"` // base name, as written to the source column
	Status FileStatus    `json:"status"`
	Rows   int           `json:"rows"`
	Reason string        `json:"reason,omitempty"`
	Steps  []StepOutcome `json:"steps,omitempty"`

	// Columns the ERP result lacked or added compared to the first result
	MissingColumns []string `json:"missing_columns,omitempty"`
	ExtraColumns   []string `json:"extra_columns,omitempty"`
}

// FailedSteps returns the preparation steps that reported an error
func (f FileOutcome) FailedSteps() []StepOutcome {
	var failed []StepOutcome
	for _, s := range f.Steps {
		if s.Err != nil || s.Error != "" {
			failed = append(failed, s)
		}
	}
	return failed
}

// RunReport summarizes a whole merge run
type RunReport struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	MainFile    string `json:"main_file"`
	Folder      string `json:"project_folder"`
	OutputFile  string `json:"output_file"`
	OutputSheet string `json:"output_sheet"`

	Files     []FileOutcome `json:"files"`
	Columns   []string      `json:"columns"`
	TotalRows int           `json:"total_rows"`

	Formulas      int `json:"formulas_evaluated"`
	FormulaErrors int `json:"formula_errors"`
}

// Count returns the number of files with the given status
func (r *RunReport) Count(status FileStatus) int {
	n := 0
	for _, f := range r.Files {
		if f.Status == status {
			n++
		}
	}
	return n
}

// Duration returns the wall time of the run
func (r *RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
