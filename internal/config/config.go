package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Policy names how a class of failure is handled during a run
type Policy string

const (
	PolicySkip   Policy = "skip"   // log and continue with the next source file
	PolicyAbort  Policy = "abort"  // terminate the whole run
	PolicyIgnore Policy = "ignore" // record the outcome, log at debug level only
	PolicyWarn   Policy = "warn"   // record the outcome, log a warning
	PolicyAlign  Policy = "align"  // align columns by name, fill gaps with empty cells
)

// ErrConfigNotFound is returned when the configuration file does not exist
var ErrConfigNotFound = errors.New("configuration file not found")

// Config represents the application configuration
type Config struct {
	BasePath      string `mapstructure:"base_path"`      // Root directory for all relative paths
	MainFile      string `mapstructure:"main_file"`      // Main ERP workbook (Data + ERP sheets)
	ProjectFolder string `mapstructure:"project_folder"` // Folder holding the per-project workbooks
	OutputFile    string `mapstructure:"output_file"`    // Master output spreadsheet
	LogFile       string `mapstructure:"log_file"`       // Append-only log file

	SourcePattern   string   `mapstructure:"source_pattern"`   // Glob for eligible source files
	ExcludePatterns []string `mapstructure:"exclude_patterns"` // File name patterns never processed
	SourceColumn    string   `mapstructure:"source_column"`    // Name of the leading filename column
	SheetPassword   string   `mapstructure:"sheet_password"`   // Password tried when lifting protection
	Verbose         bool     `mapstructure:"verbose"`

	Sheets SheetsConfig `mapstructure:"sheets"`
	Policy PolicyConfig `mapstructure:"policy"`
	Report ReportConfig `mapstructure:"report"`
}

// SheetsConfig holds the addressed sheet names
type SheetsConfig struct {
	Data   string `mapstructure:"data"`
	ERP    string `mapstructure:"erp"`
	Output string `mapstructure:"output"`
}

// PolicyConfig makes the boundary between recoverable and fatal failures explicit
type PolicyConfig struct {
	MissingDataSheet Policy `mapstructure:"missing_data_sheet"` // skip | abort
	UnreadableSource Policy `mapstructure:"unreadable_source"`  // skip | abort
	WriteError       Policy `mapstructure:"write_error"`        // skip | abort
	ResultError      Policy `mapstructure:"result_error"`       // skip | abort
	PrepareError     Policy `mapstructure:"prepare_error"`      // ignore | warn | abort
	SchemaMismatch   Policy `mapstructure:"schema_mismatch"`    // align | abort
}

// ReportConfig holds run report settings
type ReportConfig struct {
	Formats []string `mapstructure:"formats"` // html, word, json
	Dir     string   `mapstructure:"dir"`     // Defaults to the output file directory
}

// flagKeys maps CLI flag names onto configuration keys
var flagKeys = map[string]string{
	"output":  "output_file",
	"verbose": "verbose",
	"format":  "report.formats",
}

// Load reads the configuration from configPath.
// Unlike a best-effort loader, a missing or malformed file is an error:
// the run cannot proceed without knowing where the workbooks live.
// Flags (optional) override file values for the keys listed in flagKeys,
// environment variables prefixed with ERP_MERGE_ override both.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath == "" {
		configPath = "config.yaml"
	}
	if _, err := os.Stat(configPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	v.SetConfigFile(configPath)
	v.SetEnvPrefix("ERP_MERGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if flags != nil {
		for name, key := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil || !flag.Changed {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.normalizePaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults configures default values for the optional keys
func setDefaults(v *viper.Viper) {
	// Required keys have no usable default, but viper only applies
	// ERP_MERGE_* overrides to keys it knows about
	v.SetDefault("base_path", "")
	v.SetDefault("log_file", "")
	v.SetDefault("main_file", "")
	v.SetDefault("project_folder", "")
	v.SetDefault("output_file", "")

	v.SetDefault("source_pattern", "*.xlsm")
	v.SetDefault("exclude_patterns", []string{"~$*"})
	v.SetDefault("source_column", "Source_File")
	v.SetDefault("sheet_password", "")
	v.SetDefault("verbose", false)

	v.SetDefault("sheets.data", "Data")
	v.SetDefault("sheets.erp", "ERP")
	v.SetDefault("sheets.output", "Sheet1")

	v.SetDefault("policy.missing_data_sheet", string(PolicySkip))
	v.SetDefault("policy.unreadable_source", string(PolicySkip))
	v.SetDefault("policy.write_error", string(PolicySkip))
	v.SetDefault("policy.result_error", string(PolicyAbort))
	v.SetDefault("policy.prepare_error", string(PolicyIgnore))
	v.SetDefault("policy.schema_mismatch", string(PolicyAlign))

	v.SetDefault("report.formats", []string{})
	v.SetDefault("report.dir", "")
}

// normalizePaths converts base_path to an absolute path
func (c *Config) normalizePaths() error {
	if c.BasePath == "" {
		return nil
	}
	absBase, err := filepath.Abs(c.BasePath)
	if err != nil {
		return fmt.Errorf("failed to resolve base_path: %w", err)
	}
	c.BasePath = absBase
	return nil
}

// resolve joins a configured file name onto base_path unless it is absolute
func (c *Config) resolve(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.BasePath, name)
}

// MainPath returns the full path of the main ERP workbook
func (c *Config) MainPath() string {
	return c.resolve(c.MainFile)
}

// ProjectPath returns the full path of the project folder
func (c *Config) ProjectPath() string {
	return c.resolve(c.ProjectFolder)
}

// OutputPath returns the full path for the master output file
func (c *Config) OutputPath() string {
	return c.resolve(c.OutputFile)
}

// LogPath returns the full path of the log file
func (c *Config) LogPath() string {
	return c.resolve(c.LogFile)
}

// ReportPath returns the path of a run report with the given extension,
// named after the output file
func (c *Config) ReportPath(ext string) string {
	dir := c.resolve(c.Report.Dir)
	if dir == "" {
		dir = filepath.Dir(c.OutputPath())
	}
	base := strings.TrimSuffix(filepath.Base(c.OutputPath()), filepath.Ext(c.OutputPath()))
	return filepath.Join(dir, base+"_report"+ext)
}

// EnsureReportDir creates the report directory if it doesn't exist
func (c *Config) EnsureReportDir() error {
	dir := filepath.Dir(c.ReportPath(".json"))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	return nil
}

// IsEligible reports whether a file name matches source_pattern and none of
// exclude_patterns. Matching is case-insensitive, like the Windows shell.
func (c *Config) IsEligible(name string) bool {
	lower := strings.ToLower(name)
	if !MatchPattern(lower, strings.ToLower(c.SourcePattern)) {
		return false
	}
	for _, pattern := range c.ExcludePatterns {
		if MatchPattern(lower, strings.ToLower(pattern)) {
			return false
		}
	}
	return true
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	required := []struct {
		key, value string
	}{
		{"base_path", c.BasePath},
		{"main_file", c.MainFile},
		{"project_folder", c.ProjectFolder},
		{"output_file", c.OutputFile},
		{"log_file", c.LogFile},
		{"source_pattern", c.SourcePattern},
		{"source_column", c.SourceColumn},
		{"sheets.data", c.Sheets.Data},
		{"sheets.erp", c.Sheets.ERP},
		{"sheets.output", c.Sheets.Output},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%s cannot be empty", r.key)
		}
	}

	if err := checkPolicy("policy.missing_data_sheet", c.Policy.MissingDataSheet, PolicySkip, PolicyAbort); err != nil {
		return err
	}
	if err := checkPolicy("policy.unreadable_source", c.Policy.UnreadableSource, PolicySkip, PolicyAbort); err != nil {
		return err
	}
	if err := checkPolicy("policy.write_error", c.Policy.WriteError, PolicySkip, PolicyAbort); err != nil {
		return err
	}
	if err := checkPolicy("policy.result_error", c.Policy.ResultError, PolicySkip, PolicyAbort); err != nil {
		return err
	}
	if err := checkPolicy("policy.prepare_error", c.Policy.PrepareError, PolicyIgnore, PolicyWarn, PolicyAbort); err != nil {
		return err
	}
	if err := checkPolicy("policy.schema_mismatch", c.Policy.SchemaMismatch, PolicyAlign, PolicyAbort); err != nil {
		return err
	}

	for _, f := range c.Report.Formats {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case "html", "word", "docx", "json":
		default:
			return fmt.Errorf("report.formats: unsupported format %q", f)
		}
	}

	return nil
}

func checkPolicy(key string, p Policy, allowed ...Policy) error {
	for _, a := range allowed {
		if p == a {
			return nil
		}
	}
	return fmt.Errorf("%s: invalid value %q (allowed: %v)", key, p, allowed)
}

// MatchPattern checks if a string matches a simple glob pattern
// Supports only '*' wildcard at the beginning or end
func MatchPattern(str, pattern string) bool {
	if pattern == "*" {
		return true
	}

	if strings.HasPrefix(pattern, "*") && strings.HasSuffix(pattern, "*") && len(pattern) > 1 {
		// *foo* - contains
		middle := pattern[1 : len(pattern)-1]
		return strings.Contains(str, middle)
	} else if strings.HasPrefix(pattern, "*") {
		// *foo - ends with
		suffix := pattern[1:]
		return strings.HasSuffix(str, suffix)
	} else if strings.HasSuffix(pattern, "*") {
		// foo* - starts with
		prefix := pattern[:len(pattern)-1]
		return strings.HasPrefix(str, prefix)
	}

	// Exact match
	return str == pattern
}

// Print displays the current configuration
func (c *Config) Print() {
	fmt.Println("=== ERP Merge Configuration ===")
	fmt.Printf("Base Path:        %s\n", c.BasePath)
	fmt.Printf("Main Workbook:    %s\n", c.MainPath())
	fmt.Printf("Project Folder:   %s\n", c.ProjectPath())
	fmt.Printf("Source Pattern:   %s (exclude %v)\n", c.SourcePattern, c.ExcludePatterns)
	fmt.Printf("Sheets:           data=%s erp=%s\n", c.Sheets.Data, c.Sheets.ERP)
	fmt.Printf("Output File:      %s\n", c.OutputPath())
	fmt.Printf("Log File:         %s\n", c.LogPath())
	fmt.Printf("Policies:         data=%s unreadable=%s write=%s result=%s prepare=%s schema=%s\n",
		c.Policy.MissingDataSheet, c.Policy.UnreadableSource, c.Policy.WriteError,
		c.Policy.ResultError, c.Policy.PrepareError, c.Policy.SchemaMismatch)
	if len(c.Report.Formats) > 0 {
		fmt.Printf("Reports:          %v\n", c.Report.Formats)
	}
	fmt.Println("===============================")
}
