package html

import (
	"fmt"
	"html/template"
	"os"

	"erp-merge/internal/config"
	"erp-merge/internal/exporter/common"
	"erp-merge/internal/model"
)

type HTMLExporter struct{}

func NewHTMLExporter() *HTMLExporter {
	return &HTMLExporter{}
}

func (e *HTMLExporter) Export(report *model.RunReport, cfg *config.Config) (string, error) {
	data := common.Summarize(report)

	outputFile := cfg.ReportPath(".html")
	f, err := os.Create(outputFile)
	if err != nil {
		return "", err
	}
	defer f.Close()

	tmpl, err := template.New("run-report").Funcs(template.FuncMap{
		"statusClass": getStatusClass,
		"statusBadge": getStatusBadge,
	}).Parse(RunReportTemplate)
	if err != nil {
		return "", err
	}

	if err := tmpl.Execute(f, data); err != nil {
		return "", fmt.Errorf("failed to render HTML report: %w", err)
	}
	return outputFile, nil
}

// getStatusClass returns CSS color class for a file status
func getStatusClass(status string) string {
	switch model.FileStatus(status) {
	case model.StatusProcessed:
		return "status-processed"
	case model.StatusSkipped:
		return "status-skipped"
	case model.StatusFailed:
		return "status-failed"
	default:
		return "status-default"
	}
}

// getStatusBadge returns badge text for a file status
func getStatusBadge(status string) string {
	switch model.FileStatus(status) {
	case model.StatusProcessed:
		return "OK"
	case model.StatusSkipped:
		return "SKIPPED"
	case model.StatusFailed:
		return "FAILED"
	default:
		return status
	}
}
