package exporter

import (
	"strings"

	"erp-merge/internal/exporter/html"
	"erp-merge/internal/exporter/jsonreport"
	"erp-merge/internal/exporter/word"
)

// GetExporters returns a list of Exporters based on requested formats
func GetExporters(formats []string) []Exporter {
	exporters := []Exporter{}
	seen := make(map[string]bool)

	for _, fmtStr := range formats {
		fmtStr = strings.ToLower(strings.TrimSpace(fmtStr))
		if fmtStr == "docx" {
			fmtStr = "word"
		}
		if seen[fmtStr] {
			continue
		}
		seen[fmtStr] = true

		switch fmtStr {
		case "html":
			exporters = append(exporters, html.NewHTMLExporter())
		case "word":
			exporters = append(exporters, word.NewWordExporter())
		case "json":
			exporters = append(exporters, jsonreport.NewJSONExporter())
		}
	}

	return exporters
}
