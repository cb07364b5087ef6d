package pipeline

import (
	"fmt"
	"os"

	"erp-merge/internal/config"
	"erp-merge/internal/scanner"
)

// ValidateEnvironment checks that the main workbook and the project folder
// exist and that the folder holds at least one eligible source file. It
// returns the source files in processing order.
func ValidateEnvironment(cfg *config.Config) ([]string, error) {
	mainPath := cfg.MainPath()
	if info, err := os.Stat(mainPath); err != nil || info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrMainFileNotFound, mainPath)
	}

	folder := cfg.ProjectPath()
	if info, err := os.Stat(folder); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrProjectFolderNotFound, folder)
	}

	files, err := scanner.ScanDirectory(folder, cfg.IsEligible, mainPath, cfg.OutputPath())
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s (pattern %s)", ErrNoSourceFiles, folder, cfg.SourcePattern)
	}
	return files, nil
}
