package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/eem_analyzer_go/internal/analysis"
)

// inTempDir runs the test from an empty directory so no stray .env or
// eem.yaml is picked up.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	inTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Output)
	assert.Equal(t, []float64{1.0, 1.4, 2.2, 3.4, 5.0, 1.0}, cfg.Analysis.DefaultFactors)
	assert.Equal(t, ColorScaleAuto, cfg.ColorScale.Mode)
	assert.Equal(t, 9, cfg.ColorScale.Steps)
	assert.Equal(t, "final_map.csv", cfg.Output.CSVName)
}

func TestLoadPrecedence(t *testing.T) {
	dir := inTempDir(t)

	yamlBody := `
logging:
  level: debug
  format: json
analysis:
  default_factors: [2, 3]
color_scale:
  mode: manual_max
  max_f: 250
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte(yamlBody), 0o644))
	t.Setenv("EEM_LOGGING_LEVEL", "warn")
	t.Setenv("EEM_COLOR_SCALE_STEPS", "12")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Logging.Level)  // env beats file
	assert.Equal(t, "json", cfg.Logging.Format) // file beats default
	assert.Equal(t, []float64{2, 3}, cfg.Analysis.DefaultFactors)
	assert.Equal(t, ColorScaleManualMax, cfg.ColorScale.Mode)
	assert.Equal(t, 250.0, cfg.ColorScale.MaxF)
	assert.Equal(t, 12, cfg.ColorScale.Steps)
	assert.Equal(t, "final_map.csv", cfg.Output.CSVName) // untouched default
}

func TestLoadFactorsFromEnvAndDotEnv(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("EEM_OUTPUT_DIR=out\n"), 0o644))
	t.Setenv("EEM_ANALYSIS_DEFAULT_FACTORS", "1,2.5,4")
	t.Cleanup(func() { _ = os.Unsetenv("EEM_OUTPUT_DIR") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2.5, 4}, cfg.Analysis.DefaultFactors)
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.Equal(t, filepath.Join("out", "final_map.csv"), cfg.OutputPath(cfg.Output.CSVName))
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad level", map[string]string{"EEM_LOGGING_LEVEL": "chatty"}, "Logging.Level"},
		{"negative factor", map[string]string{"EEM_ANALYSIS_DEFAULT_FACTORS": "1,-2"}, "DefaultFactors"},
		{"steps out of range", map[string]string{"EEM_COLOR_SCALE_STEPS": "40"}, "ColorScale.Steps"},
		{"manual mode without max", map[string]string{"EEM_COLOR_SCALE_MODE": "manual_max"}, "ColorScale.MaxF"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inTempDir(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadMissingExplicitConfigFile(t *testing.T) {
	dir := inTempDir(t)
	t.Setenv("EEM_CONFIG_FILE", filepath.Join(dir, "absent.yaml"))
	_, err := Load()
	assert.Error(t, err)
}

func TestFactorFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "factors.yaml")
	want := analysis.CorrectionFactors{"18u0": 1, "18u2": 1.4, "100": 2}

	require.NoError(t, WriteFactorFile(path, want))
	got, err := LoadFactorFile(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadFactorFileRejectsNegative(t *testing.T) {
	path := filepath.Join(t.TempDir(), "factors.yaml")
	require.NoError(t, os.WriteFile(path, []byte("A: -1\n"), 0o644))
	_, err := LoadFactorFile(path)
	assert.ErrorIs(t, err, analysis.ErrInvalidFactor)
}

func TestDefaultFactorsForOverlaysFactorFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "factors.yaml")
	require.NoError(t, os.WriteFile(path, []byte("B: 9\n"), 0o644))

	cfg := Default()
	cfg.Analysis.FactorFile = path
	schema := analysis.Schema{ExColumn: "Ex", EmColumn: "Em", MeasurementColumns: []string{"A", "B"}}

	factors, err := cfg.DefaultFactorsFor(schema)
	require.NoError(t, err)
	assert.Equal(t, analysis.CorrectionFactors{"A": 1.0, "B": 9}, factors)
}
