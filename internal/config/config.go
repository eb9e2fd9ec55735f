package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"github.com/user/eem_analyzer_go/internal/analysis"
)

// EnvPrefix prefixes every environment variable, e.g. EEM_LOGGING_LEVEL.
const EnvPrefix = "EEM"

// DefaultConfigFile is read when EEM_CONFIG_FILE is not set.
const DefaultConfigFile = "eem.yaml"

// Colour-scale modes.
const (
	ColorScaleAuto           = "auto"
	ColorScaleManualMax      = "manual_max"
	ColorScaleManualMaxSteps = "manual_max_steps"
)

// Config is the complete application configuration.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Analysis   AnalysisConfig   `yaml:"analysis" envconfig:"ANALYSIS"`
	ColorScale ColorScaleConfig `yaml:"color_scale" envconfig:"COLOR_SCALE"`
	Output     OutputConfig     `yaml:"output" envconfig:"OUTPUT"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
}

// AnalysisConfig holds the defaults injected into the pipeline.
type AnalysisConfig struct {
	// DefaultFactors is assigned to dilution columns in header order.
	DefaultFactors []float64 `yaml:"default_factors" envconfig:"DEFAULT_FACTORS" validate:"min=1,dive,gte=0"`
	// FactorFile optionally names a YAML column → factor map applied on top.
	FactorFile string `yaml:"factor_file" envconfig:"FACTOR_FILE"`
	// Sheet selects the worksheet when reading workbooks.
	Sheet string `yaml:"sheet" envconfig:"SHEET"`
}

// ColorScaleConfig mirrors the contour map's colour-scale control.
type ColorScaleConfig struct {
	Mode  string  `yaml:"mode" envconfig:"MODE" validate:"oneof=auto manual_max manual_max_steps"`
	MaxF  float64 `yaml:"max_f" envconfig:"MAX_F" validate:"required_unless=Mode auto,gte=0"`
	Steps int     `yaml:"steps" envconfig:"STEPS" validate:"min=3,max=20"`
}

// OutputConfig names the generated artifacts.
type OutputConfig struct {
	Dir         string  `yaml:"dir" envconfig:"DIR" validate:"required"`
	CSVName     string  `yaml:"csv_name" envconfig:"CSV_NAME" validate:"required"`
	XLSXName    string  `yaml:"xlsx_name" envconfig:"XLSX_NAME"`
	JSONName    string  `yaml:"json_name" envconfig:"JSON_NAME"`
	PDFName     string  `yaml:"pdf_name" envconfig:"PDF_NAME"`
	ImageWidth  float64 `yaml:"image_width" envconfig:"IMAGE_WIDTH" validate:"gt=0"`  // Points
	ImageHeight float64 `yaml:"image_height" envconfig:"IMAGE_HEIGHT" validate:"gt=0"` // Points
}

// Default returns the built-in configuration.
func Default() Config {
	factors := make([]float64, len(analysis.DefaultFactorSequence))
	copy(factors, analysis.DefaultFactorSequence)

	return Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "text",
			Output:   "console",
			FilePath: "logs/eem_analyzer.log",
		},
		Analysis: AnalysisConfig{
			DefaultFactors: factors,
		},
		ColorScale: ColorScaleConfig{
			Mode:  ColorScaleAuto,
			Steps: 9,
		},
		Output: OutputConfig{
			Dir:         ".",
			CSVName:     "final_map.csv",
			XLSXName:    "final_map.xlsx",
			JSONName:    "eem_results.json",
			PDFName:     "eem_report.pdf",
			ImageWidth:  800,
			ImageHeight: 600,
		},
	}
}

// Load builds the configuration from, in increasing precedence: built-in
// defaults, the YAML config file, and the environment (a .env file in the
// working directory is loaded into the environment first).
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()

	configFile := os.Getenv(EnvPrefix + "_CONFIG_FILE")
	explicit := configFile != ""
	if !explicit {
		configFile = DefaultConfigFile
	}
	if _, err := os.Stat(configFile); err == nil {
		if err := mergeFile(&cfg, configFile); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config file %s: %w", configFile, err)
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// mergeFile overlays the keys present in a YAML file onto cfg.
func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(data, cfg)
}

// Validate checks field constraints and reports every failing field.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, formatFieldError(fe))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

func formatFieldError(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", field, fe.Param(), fe.Value())
	case "required", "required_unless":
		return fmt.Sprintf("%s is required", field)
	case "min", "max", "gte", "gt":
		return fmt.Sprintf("%s must satisfy %s=%s, got %v", field, fe.Tag(), fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// DefaultFactorsFor builds the starting factors for a file's schema from
// the configured sequence, overlaid with the factor file when one is set.
func (c *Config) DefaultFactorsFor(schema analysis.Schema) (analysis.CorrectionFactors, error) {
	factors := analysis.DefaultFactors(schema, c.Analysis.DefaultFactors)
	if c.Analysis.FactorFile == "" {
		return factors, nil
	}
	fromFile, err := LoadFactorFile(c.Analysis.FactorFile)
	if err != nil {
		return nil, err
	}
	return factors.Merge(fromFile), nil
}

// OutputPath joins name onto the output directory.
func (c *Config) OutputPath(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Output.Dir, name)
}
