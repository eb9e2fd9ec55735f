package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/user/eem_analyzer_go/internal/analysis"
)

// LoadFactorFile reads a YAML mapping of dilution column to correction
// factor, for example:
//
//	18u0: 1.0
//	18u2: 1.4
func LoadFactorFile(path string) (analysis.CorrectionFactors, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read factor file: %w", err)
	}

	raw := make(map[string]float64)
	if err := yaml.UnmarshalStrict(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse factor file %s: %w", path, err)
	}

	factors := analysis.CorrectionFactors(raw)
	if err := factors.Validate(); err != nil {
		return nil, fmt.Errorf("factor file %s: %w", path, err)
	}
	return factors, nil
}

// WriteFactorFile stores factors in the format LoadFactorFile reads.
func WriteFactorFile(path string, factors analysis.CorrectionFactors) error {
	ordered := make(yaml.MapSlice, 0, len(factors))
	for _, col := range factors.Columns() {
		ordered = append(ordered, yaml.MapItem{Key: col, Value: factors[col]})
	}
	data, err := yaml.Marshal(ordered)
	if err != nil {
		return fmt.Errorf("failed to encode factors: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write factor file: %w", err)
	}
	return nil
}
