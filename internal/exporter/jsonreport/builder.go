package jsonreport

import (
	"encoding/json"
	"os"

	"erp-merge/internal/config"
	"erp-merge/internal/model"
)

// Document is the JSON form of a run report
type Document struct {
	Tool    string           `json:"tool"`
	Version string           `json:"version"`
	Totals  Totals           `json:"totals"`
	Run     *model.RunReport `json:"run"`
}

// Totals repeats the per-status counts for consumers that skip the file list
type Totals struct {
	Files     int `json:"files"`
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
	Rows      int `json:"rows"`
}

// JSONExporter writes the run report as indented JSON
type JSONExporter struct {
	// Stateless
}

func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

func (b *JSONExporter) Export(report *model.RunReport, cfg *config.Config) (string, error) {
	doc := Document{
		Tool:    "erp-merge",
		Version: "1.0.0",
		Totals: Totals{
			Files:     len(report.Files),
			Processed: report.Count(model.StatusProcessed),
			Skipped:   report.Count(model.StatusSkipped),
			Failed:    report.Count(model.StatusFailed),
			Rows:      report.TotalRows,
		},
		Run: report,
	}

	outputFile := cfg.ReportPath(".json")
	file, err := os.Create(outputFile)
	if err != nil {
		return "", err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return "", err
	}
	return outputFile, nil
}
