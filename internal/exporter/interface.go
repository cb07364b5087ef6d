package exporter

import (
	"erp-merge/internal/config"
	"erp-merge/internal/model"
)

// Exporter is the unified interface for all run report formats.
// Export returns the path of the written report.
type Exporter interface {
	Export(report *model.RunReport, cfg *config.Config) (string, error)
}
