package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"erp-merge/internal/config"
	"erp-merge/internal/exporter"
	"erp-merge/internal/logger"
	"erp-merge/internal/model"
	"erp-merge/internal/pipeline"
	"erp-merge/internal/ui"

	"github.com/spf13/cobra"
)

const (
	appName    = "ERP Merge"
	appVersion = "1.0.0"
	appDesc    = "Runs every project workbook through the main ERP workbook and merges the results"
)

// options holds the flags that are not configuration keys
type options struct {
	configPath string
	pause      bool
	quiet      bool
}

func main() {
	var opts options
	exitCode := 1

	// The pause must run even on panic so a double-clicked console stays open
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("\n❌ PANIC: %v\n", r)
			exitCode = 1
		}
		if opts.pause {
			waitForEnter()
		}
		os.Exit(exitCode)
	}()

	exitCode = run(os.Args[1:], os.Stdout, &opts)
}

// run executes the command line and returns the process exit code
func run(args []string, stdout io.Writer, opts *options) int {
	exitCode := 0
	cmd := newRootCmd(stdout, opts, &exitCode)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stdout, "❌ %v\n", err)
		return 1
	}
	return exitCode
}

func newRootCmd(stdout io.Writer, opts *options, exitCode *int) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "erp-merge",
		Short:         appDesc,
		Version:       appVersion,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			*exitCode = merge(cmd, stdout, opts)
			return nil
		},
	}
	cmd.SetOut(stdout)
	cmd.SetVersionTemplate(appName + " v{{.Version}}\n" + appDesc + "\n")

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "config.yaml", "Path to configuration file")
	flags.String("output", "", "Override output_file from config")
	flags.BoolP("verbose", "v", false, "Enable verbose logging (DEBUG level)")
	flags.StringSlice("format", nil, "Run report formats (html,word,json)")
	flags.BoolVar(&opts.pause, "pause", false, "Wait for Enter before exiting")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "Hide progress bars")
	return cmd
}

func merge(cmd *cobra.Command, stdout io.Writer, opts *options) int {
	if !opts.quiet {
		printBanner(stdout)
	}

	cfg, err := config.Load(opts.configPath, cmd.Flags())
	if err != nil {
		fmt.Fprintf(stdout, "❌ Failed to load configuration: %v\n", err)
		return 1
	}

	log, err := logger.New(stdout, cfg.LogPath(), cfg.Verbose)
	if err != nil {
		fmt.Fprintf(stdout, "❌ Failed to initialize logger: %v\n", err)
		return 1
	}
	defer log.Close()

	if cfg.Verbose {
		cfg.Print()
	}

	log.Info("==== ERP merge started ====")
	out, err := runMerge(cfg, log, stdout, opts.quiet)
	if err != nil {
		var fe *pipeline.FileError
		if errors.As(err, &fe) {
			log.Error("Run aborted at %s: %v", fe.File, fe.Err)
		} else {
			log.Error("Run failed: %v", err)
		}
		log.Info("==== ERP merge finished with errors ====")
		return 1
	}
	log.Info("==== ERP merge finished ====")

	fmt.Fprintf(stdout, "Done! Master ERP results saved to: %s\n", out)
	return 0
}

func runMerge(cfg *config.Config, log *logger.Logger, stdout io.Writer, quiet bool) (string, error) {
	progress := ui.NewPipelineWithOutput([]ui.Phase{
		ui.PhaseValidating,
		ui.PhaseMerging,
		ui.PhaseExporting,
	}, stdout)
	if quiet {
		progress.Disable()
	}
	defer progress.Finish()

	runner := pipeline.NewRunner(cfg, log)

	// --- Phase 1: Validating ---
	log.Info("Phase 1: Validating environment...")
	bar := progress.NextPhase(1)
	files, err := pipeline.ValidateEnvironment(cfg)
	if err != nil {
		return "", err
	}
	bar.Increment()
	log.Info("Found %d source file(s) in %s", len(files), cfg.ProjectPath())

	// --- Phase 2: Merging ---
	log.Info("Phase 2: Merging ERP results...")
	runner.SetProgress(progress.NextPhase(len(files)))
	merged, err := runner.Merge(files)
	if err != nil {
		return "", err
	}

	// --- Phase 3: Exporting ---
	log.Info("Phase 3: Writing outputs...")
	runner.SetProgress(progress.NextPhase(1 + len(exporter.GetExporters(cfg.Report.Formats))))
	if err := runner.Export(merged); err != nil {
		return "", err
	}

	report := merged.Report
	log.Info("Run %s: %d processed, %d skipped, %d row(s) in %s",
		report.RunID,
		report.Count(model.StatusProcessed),
		report.Count(model.StatusSkipped),
		report.TotalRows,
		report.Duration().Round(time.Millisecond))

	return cfg.OutputPath(), nil
}

// waitForEnter keeps the console window open when started by double-click
func waitForEnter() {
	fmt.Println("\n==========================================")
	fmt.Println("Execution Finished. Press 'Enter' to exit.")
	fmt.Println("==========================================")
	bufio.NewReader(os.Stdin).ReadBytes('\n')
}

func printBanner(w io.Writer) {
	banner := `
╔═══════════════════════════════════════════════════════════╗
║                     ERP MERGE v1.0.0                      ║
║       Project workbooks through the main ERP workbook     ║
╚═══════════════════════════════════════════════════════════╝
`
	fmt.Fprintln(w, banner)
}
