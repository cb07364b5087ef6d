package e2e

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"erp-merge/internal/config"
	"erp-merge/internal/logger"
	"erp-merge/internal/model"
	"erp-merge/internal/pipeline"
	"erp-merge/internal/workbook/workbooktest"

	"github.com/nguyenthenguyen/docx"
	"github.com/xuri/excelize/v2"
)

func TestEndToEndFlow(t *testing.T) {
	// 1. Lay out a project: main workbook, three project files, a lock file
	rootDir := t.TempDir()
	projects := filepath.Join(rootDir, "projects")
	if err := os.MkdirAll(projects, 0755); err != nil {
		t.Fatal(err)
	}
	workbooktest.MainWorkbook(t, rootDir, "ERP_Main.xlsm", 50)

	header := []string{"Item", "Qty", "Price"}
	workbooktest.SourceWorkbook(t, projects, "Harbor.xlsm", "Data", header, [][]any{
		{"Pile", 12, 150},
		{"Beam", 4, 320.5},
	})
	workbooktest.SourceWorkbook(t, projects, "Bridge.xlsm", "data", header, [][]any{
		{"Cable", 30, 12},
	})
	workbooktest.SourceWorkbook(t, projects, "Notes.xlsm", "", nil, nil)
	if err := os.WriteFile(filepath.Join(projects, "Broken.xlsm"), []byte("truncated"), 0644); err != nil {
		t.Fatal(err)
	}
	workbooktest.SourceWorkbook(t, projects, "~$Harbor.xlsm", "Data", header, [][]any{
		{"Lock", 1, 1},
	})

	// 2. Configure through a real config file
	configContent := fmt.Sprintf(`
base_path: %q
main_file: ERP_Main.xlsm
project_folder: projects
output_file: output/Master_ERP_Output.xlsx
log_file: output/erp_merge.log
sheets:
  output: Master
report:
  formats: [html, word, json]
`, filepath.ToSlash(rootDir))
	configPath := filepath.Join(rootDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to create test config: %v", err)
	}

	cfg, err := config.Load(configPath, nil)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// 3. Run
	log, err := logger.New(io.Discard, cfg.LogPath(), false)
	if err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}
	report, err := pipeline.NewRunner(cfg, log).Run()
	log.Close()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got := report.Count(model.StatusProcessed); got != 2 {
		t.Errorf("processed = %d, want 2", got)
	}
	if got := report.Count(model.StatusSkipped); got != 2 {
		t.Errorf("skipped = %d, want 2", got)
	}

	// 4. Verify outputs
	expectedFiles := []string{
		"Master_ERP_Output.xlsx",
		"Master_ERP_Output_report.html",
		"Master_ERP_Output_report.docx",
		"Master_ERP_Output_report.json",
		"erp_merge.log",
	}
	outputDir := filepath.Join(rootDir, "output")
	for _, f := range expectedFiles {
		path := filepath.Join(outputDir, f)
		info, err := os.Stat(path)
		if os.IsNotExist(err) {
			t.Errorf("Expected output file missing: %s", f)
		} else if info.Size() == 0 {
			t.Errorf("Output file is empty: %s", f)
		}
	}

	// 5. Master table: Source_File first, files in name order, lock file ignored
	rows := readMaster(t, filepath.Join(outputDir, "Master_ERP_Output.xlsx"), "Master")
	want := [][]string{
		{"Source_File", "Item", "Qty", "Total"},
		{"Bridge.xlsm", "Cable", "30", "360"},
		{"Harbor.xlsm", "Pile", "12", "1800"},
		{"Harbor.xlsm", "Beam", "4", "1282"},
	}
	if len(rows) != len(want) {
		t.Fatalf("master rows = %d, want %d: %v", len(rows), len(want), rows)
	}
	for i := range want {
		if strings.Join(rows[i], "|") != strings.Join(want[i], "|") {
			t.Errorf("row %d = %v, want %v", i+1, rows[i], want[i])
		}
	}

	// 6. Reports agree with the master table
	validateJSONReport(t, filepath.Join(outputDir, "Master_ERP_Output_report.json"))
	validateWordReport(t, filepath.Join(outputDir, "Master_ERP_Output_report.docx"), report.RunID)

	logContent, err := os.ReadFile(filepath.Join(outputDir, "erp_merge.log"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"Missing Data sheet in " + filepath.Join(projects, "Notes.xlsm"),
		"Failed to read " + filepath.Join(projects, "Broken.xlsm"),
	} {
		if !strings.Contains(string(logContent), want) {
			t.Errorf("log does not record %q", want)
		}
	}
}

func readMaster(t *testing.T, path, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open master: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("read master: %v", err)
	}
	return rows
}

func validateJSONReport(t *testing.T, path string) {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Totals struct {
			Files     int `json:"files"`
			Processed int `json:"processed"`
			Rows      int `json:"rows"`
		} `json:"totals"`
	}
	if err := json.Unmarshal(content, &doc); err != nil {
		t.Fatalf("invalid JSON report: %v", err)
	}
	if doc.Totals.Files != 4 || doc.Totals.Processed != 2 || doc.Totals.Rows != 3 {
		t.Errorf("unexpected totals: %+v", doc.Totals)
	}
}

func validateWordReport(t *testing.T, path, runID string) {
	t.Helper()
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		t.Fatalf("open Word report: %v", err)
	}
	defer r.Close()
	content := r.Editable().GetContent()
	for _, s := range []string{runID, "Harbor.xlsm", "Bridge.xlsm", "Notes.xlsm"} {
		if !strings.Contains(content, s) {
			t.Errorf("Word report is missing %q", s)
		}
	}
}
