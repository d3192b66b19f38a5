// Package config provides configuration loading and management for perfvoi.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"perfvoi/pkg/aggregation"
	"perfvoi/pkg/evaluation"
	"perfvoi/pkg/pipeline"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Run names the workflow run; the results root defaults to <run>_results
	Run string `yaml:"run"`

	// Aggregation parameters
	Aggregation struct {
		// ResultsRoot is the datasink container holding the region folders
		ResultsRoot string `yaml:"resultsRoot"`

		// Subjects are the subject IDs to tabulate, in row order
		Subjects []string `yaml:"subjects"`

		// RegionFolders are the VOI average folders, in column order
		RegionFolders []string `yaml:"regionFolders"`

		// ValueFileExtension selects the scalar file inside each mask folder
		ValueFileExtension string `yaml:"valueFileExtension"`

		// ValueFileSuffix, when set, selects by name suffix instead (e.g. "_ts.txt")
		ValueFileSuffix string `yaml:"valueFileSuffix"`

		// ColumnSeparator joins region and mask label in column names
		ColumnSeparator string `yaml:"columnSeparator"`

		// StripOrdinalPrefix drops the "34_" prefix of region folders in column names
		StripOrdinalPrefix bool `yaml:"stripOrdinalPrefix"`

		// AllowMissingColumns writes empty cells instead of failing on holes
		AllowMissingColumns bool `yaml:"allowMissingColumns"`

		// RenameRules turn raw column names into clinical labels
		RenameRules []aggregation.RenameRule `yaml:"renameRules"`
	} `yaml:"aggregation"`

	// Output parameters
	Output struct {
		// Directory receives the tables; relative paths resolve against the results root
		Directory string `yaml:"directory"`

		// LongFile is the long-form CSV file name
		LongFile string `yaml:"longFile"`

		// WideFile is the wide-form CSV file name
		WideFile string `yaml:"wideFile"`

		// XLSXFile, when set, also writes both tables as a workbook
		XLSXFile string `yaml:"xlsxFile"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`

	// Evaluation parameters
	Evaluation struct {
		// WideFile overrides the wide table read for evaluation
		WideFile string `yaml:"wideFile"`

		// SimulationFile is the hemodynamic simulation export
		SimulationFile string `yaml:"simulationFile"`

		// StenosisFile holds the side of stenosis per subject
		StenosisFile string `yaml:"stenosisFile"`

		// StenosisColumn is the 0 = left / 1 = right column
		StenosisColumn string `yaml:"stenosisColumn"`

		// Delimiter of the simulation and stenosis tables
		Delimiter string `yaml:"delimiter"`

		// DecimalComma accepts "12,5" in the simulation tables
		DecimalComma bool `yaml:"decimalComma"`

		// NormalizeSubjectIDs maps "PEG_005" onto "PEG0005"
		NormalizeSubjectIDs bool `yaml:"normalizeSubjectIDs"`

		// SimulationColumns names the M2 pressure columns
		SimulationColumns evaluation.SimulationColumns `yaml:"simulationColumns"`

		// RelativeThreshold is the ipsi/contra MTT ratio marking vulnerability
		RelativeThreshold float64 `yaml:"relativeThreshold"`

		// SimulationThreshold is the perfusion pressure (mmHg) below which
		// the simulation marks vulnerability
		SimulationThreshold float64 `yaml:"simulationThreshold"`

		// Analyses are the column pairs to evaluate
		Analyses []evaluation.Analysis `yaml:"analyses"`

		// Evaluation outputs, written to the output directory. An empty
		// SummaryFile or ROCFile skips that table.
		ResultsFile  string `yaml:"resultsFile"`
		SubjectsFile string `yaml:"subjectsFile"`
		SummaryFile  string `yaml:"summaryFile"`
		ROCFile      string `yaml:"rocFile"`
	} `yaml:"evaluation"`

	// Pipeline parameters
	Pipeline struct {
		// PerfusionMaps describe the parameter maps of the workflow
		PerfusionMaps []pipeline.PerfusionMap `yaml:"perfusionMaps"`

		// MaskLabels are the VOI names in mask order
		MaskLabels []string `yaml:"maskLabels"`
	} `yaml:"pipeline"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{Run: "run_01"}

	cfg.Pipeline.PerfusionMaps = pipeline.DefaultPerfusionMaps()
	cfg.Pipeline.MaskLabels = pipeline.DefaultMaskLabels()

	// Set default aggregation parameters
	cfg.Aggregation.Subjects = []string{"PEG0005", "PEG0006"}
	cfg.Aggregation.RegionFolders = pipeline.RegionFolders(cfg.Pipeline.PerfusionMaps)
	cfg.Aggregation.ValueFileExtension = ".txt"
	cfg.Aggregation.ColumnSeparator = "_"
	cfg.Aggregation.StripOrdinalPrefix = true
	cfg.Aggregation.RenameRules = pipeline.ColumnRules()

	// Set default output parameters
	cfg.Output.Directory = "45_Results_VOI_avg"
	cfg.Output.LongFile = "all_averages.csv"
	cfg.Output.WideFile = "all_averages_nice.csv"
	cfg.Output.Verbose = false

	// Set default evaluation parameters
	cfg.Evaluation.StenosisColumn = "Stenosis_L0_R1"
	cfg.Evaluation.Delimiter = ";"
	cfg.Evaluation.NormalizeSubjectIDs = true
	cfg.Evaluation.SimulationColumns = evaluation.DefaultSimulationColumns()
	cfg.Evaluation.RelativeThreshold = 1.387
	cfg.Evaluation.SimulationThreshold = 50
	cfg.Evaluation.Analyses = []evaluation.Analysis{{
		Name:         "MCA_median",
		IpsiColumn:   "DSC_parametric_MTT_reor_avg_MCA_ipsi",
		ContraColumn: "DSC_parametric_MTT_reor_avg_MCA_contra",
	}}
	cfg.Evaluation.ResultsFile = "statistics_results.csv"
	cfg.Evaluation.SubjectsFile = "statistics_subjects.csv"
	cfg.Evaluation.SummaryFile = "statistics_describe.csv"
	cfg.Evaluation.ROCFile = "statistics_roc.csv"

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}

// Validate checks the fields every command depends on
func (c *Config) Validate() error {
	var errs []error
	if len(c.Aggregation.Subjects) == 0 {
		errs = append(errs, errors.New("aggregation.subjects is empty"))
	}
	if len(c.Aggregation.RegionFolders) == 0 {
		errs = append(errs, errors.New("aggregation.regionFolders is empty"))
	}
	if c.Aggregation.ValueFileExtension == "" && c.Aggregation.ValueFileSuffix == "" {
		errs = append(errs, errors.New("aggregation.valueFileExtension or aggregation.valueFileSuffix must be set"))
	}
	if _, err := aggregation.NewRenamer(c.Aggregation.RenameRules); err != nil {
		errs = append(errs, fmt.Errorf("aggregation.renameRules: %w", err))
	}
	if c.Output.LongFile == "" || c.Output.WideFile == "" {
		errs = append(errs, errors.New("output.longFile and output.wideFile must be set"))
	}
	if err := c.checkOutputNames(); err != nil {
		errs = append(errs, err)
	}
	if utf8.RuneCountInString(c.Evaluation.Delimiter) != 1 {
		errs = append(errs, fmt.Errorf("evaluation.delimiter %q must be a single character", c.Evaluation.Delimiter))
	}
	return errors.Join(errs...)
}

// checkOutputNames rejects two outputs sharing a file in the output directory
func (c *Config) checkOutputNames() error {
	names := []struct{ key, name string }{
		{"output.longFile", c.Output.LongFile},
		{"output.wideFile", c.Output.WideFile},
		{"output.xlsxFile", c.Output.XLSXFile},
		{"evaluation.resultsFile", c.Evaluation.ResultsFile},
		{"evaluation.subjectsFile", c.Evaluation.SubjectsFile},
		{"evaluation.summaryFile", c.Evaluation.SummaryFile},
		{"evaluation.rocFile", c.Evaluation.ROCFile},
	}
	seen := make(map[string]string, len(names))
	for _, n := range names {
		if n.name == "" {
			continue
		}
		clean := filepath.Clean(n.name)
		if prev, ok := seen[clean]; ok {
			return fmt.Errorf("%s and %s both write %s", prev, n.key, n.name)
		}
		seen[clean] = n.key
	}
	return nil
}

// ResultsRoot returns the configured results root, or <run>_results
func (c *Config) ResultsRoot() string {
	if c.Aggregation.ResultsRoot != "" {
		return c.Aggregation.ResultsRoot
	}
	return c.Run + "_results"
}

// OutputDir resolves the output directory against the results root
func (c *Config) OutputDir() string {
	if filepath.IsAbs(c.Output.Directory) {
		return c.Output.Directory
	}
	return filepath.Join(c.ResultsRoot(), c.Output.Directory)
}

// AggregationParams builds the aggregation input from the configuration
func (c *Config) AggregationParams() (*aggregation.Params, error) {
	rn, err := aggregation.NewRenamer(c.Aggregation.RenameRules)
	if err != nil {
		return nil, err
	}
	return &aggregation.Params{
		ResultsRoot:   c.ResultsRoot(),
		Subjects:      c.Aggregation.Subjects,
		RegionFolders: c.Aggregation.RegionFolders,
		Selector:      c.valueFileSelector(),
		Naming: aggregation.Naming{
			Separator:          c.Aggregation.ColumnSeparator,
			StripOrdinalPrefix: c.Aggregation.StripOrdinalPrefix,
			Renamer:            rn,
		},
		AllowMissingColumns: c.Aggregation.AllowMissingColumns,
	}, nil
}

func (c *Config) valueFileSelector() aggregation.Selector {
	if c.Aggregation.ValueFileSuffix != "" {
		return aggregation.SuffixSelector(c.Aggregation.ValueFileSuffix)
	}
	return aggregation.ExtensionSelector(c.Aggregation.ValueFileExtension)
}

// TableOptions returns the parse options of the simulation side tables
func (c *Config) TableOptions() evaluation.TableOptions {
	delim, _ := utf8.DecodeRuneInString(c.Evaluation.Delimiter)
	return evaluation.TableOptions{
		Delimiter:    delim,
		DecimalComma: c.Evaluation.DecimalComma,
		NormalizeIDs: c.Evaluation.NormalizeSubjectIDs,
	}
}

// EvaluationParams returns the evaluation thresholds and analyses
func (c *Config) EvaluationParams() evaluation.Params {
	return evaluation.Params{
		RelativeThreshold:   c.Evaluation.RelativeThreshold,
		SimulationThreshold: c.Evaluation.SimulationThreshold,
		Analyses:            c.Evaluation.Analyses,
	}
}

// EvaluationWideFile is the wide table read by the evaluate command
func (c *Config) EvaluationWideFile() string {
	if c.Evaluation.WideFile != "" {
		return c.Evaluation.WideFile
	}
	return filepath.Join(c.OutputDir(), c.Output.WideFile)
}
