package jsonreport

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"erp-merge/internal/config"
	"erp-merge/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONExport(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{BasePath: dir, OutputFile: "out.xlsx", Report: config.ReportConfig{Dir: "reports"}}
	require.NoError(t, cfg.EnsureReportDir())

	report := &model.RunReport{
		RunID:     "abc",
		StartedAt: time.Now(),
		TotalRows: 3,
		Files: []model.FileOutcome{
			{File: "a.xlsm", Status: model.StatusProcessed, Rows: 3, Steps: []model.StepOutcome{
				model.StepOutcome{Step: model.StepUnprotect, Needed: true}.Failed(errors.New("locked")),
			}},
			{File: "b.xlsm", Status: model.StatusFailed, Reason: "write failed"},
		},
	}

	out, err := NewJSONExporter().Export(report, cfg)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "reports", "out_report.json"), out)

	content, err := os.ReadFile(out)
	require.NoError(t, err)

	var doc struct {
		Totals Totals `json:"totals"`
		Run    struct {
			RunID string `json:"run_id"`
			Files []struct {
				File   string `json:"file"`
				Status string `json:"status"`
				Steps  []struct {
					Step  string `json:"step"`
					Error string `json:"error"`
				} `json:"steps"`
			} `json:"files"`
		} `json:"run"`
	}
	require.NoError(t, json.Unmarshal(content, &doc))

	assert.Equal(t, Totals{Files: 2, Processed: 1, Failed: 1, Rows: 3}, doc.Totals)
	assert.Equal(t, "abc", doc.Run.RunID)
	require.Len(t, doc.Run.Files, 2)
	assert.Equal(t, "failed", doc.Run.Files[1].Status)
	require.Len(t, doc.Run.Files[0].Steps, 1)
	assert.Equal(t, "locked", doc.Run.Files[0].Steps[0].Error)
}
