package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/user/eem_analyzer_go/internal/analysis"
	"github.com/user/eem_analyzer_go/internal/parser"
)

// factorFlags collects repeated -factor col=value overrides. Values accept
// the same number formats as the input files, so "18u2=1,4" works.
type factorFlags analysis.CorrectionFactors

func (f factorFlags) String() string {
	cols := make([]string, 0, len(f))
	for col := range f {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = fmt.Sprintf("%s=%g", col, f[col])
	}
	return strings.Join(parts, ",")
}

func (f factorFlags) Set(value string) error {
	col, raw, ok := strings.Cut(value, "=")
	col = strings.TrimSpace(col)
	if !ok || col == "" {
		return fmt.Errorf("expected column=value, got %q", value)
	}
	v, ok := parser.ParseNumberString(raw)
	if !ok {
		return fmt.Errorf("factor for %q is not a number: %q", col, raw)
	}
	f[col] = v
	return nil
}
