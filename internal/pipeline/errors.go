package pipeline

import (
	"errors"
	"fmt"
)

// Fatal conditions. Any of these ends the run with a non-zero exit code.
var (
	ErrMainFileNotFound      = errors.New("main workbook not found")
	ErrProjectFolderNotFound = errors.New("project folder not found")
	ErrNoSourceFiles         = errors.New("no eligible source files in project folder")
	ErrMissingSheet          = errors.New("main workbook is missing a required sheet")
	ErrNoResults             = errors.New("no ERP results collected")
	ErrResultShape           = errors.New("unexpected ERP result shape")
	ErrSchemaMismatch        = errors.New("ERP result columns differ from the first result")
)

// Stage names the per-file step a failure happened in
type Stage string

const (
	StageRead        Stage = "read"
	StagePrepare     Stage = "prepare"
	StageWrite       Stage = "write"
	StageRecalculate Stage = "recalculate"
	StageCollect     Stage = "collect"
	StageSchema      Stage = "schema"
)

// FileError is a failure while processing one source file
type FileError struct {
	File  string
	Stage Stage
	Err   error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.File, e.Stage, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
