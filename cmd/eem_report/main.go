// Command eem_report runs the EEM pipeline over one measurement file and
// writes the corrected row table, the grid/curve/peaks as JSON, both plots
// and a PDF report.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/user/eem_analyzer_go/internal/analysis"
	"github.com/user/eem_analyzer_go/internal/config"
	"github.com/user/eem_analyzer_go/internal/infrastructure"
	"github.com/user/eem_analyzer_go/internal/parser"
	"github.com/user/eem_analyzer_go/internal/report"
)

type options struct {
	input        string
	sheet        string
	factorFile   string
	outDir       string
	writeFactors string
	legacy       bool
	overrides    factorFlags
}

func main() {
	opts := options{overrides: make(factorFlags)}
	flag.StringVar(&opts.input, "input", "", "measurement file (.csv, .txt or .xlsx)")
	flag.StringVar(&opts.sheet, "sheet", "", "worksheet to read from a workbook (defaults to the first)")
	flag.StringVar(&opts.factorFile, "factors", "", "YAML file mapping dilution column to correction factor")
	flag.StringVar(&opts.outDir, "out", "", "output directory (overrides EEM_OUTPUT_DIR)")
	flag.StringVar(&opts.writeFactors, "write-factors", "", "write the effective correction factors to this YAML file")
	flag.BoolVar(&opts.legacy, "legacy-factors", false, "start from the fixed 18u0..18u512 factor table")
	flag.Var(opts.overrides, "factor", "correction factor override as column=value (repeatable)")
	flag.Parse()

	if opts.input == "" && flag.NArg() > 0 {
		opts.input = flag.Arg(0)
	}
	if opts.input == "" {
		fmt.Fprintln(os.Stderr, "usage: eem_report -input <file> [-factor col=value ...]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if opts.outDir != "" {
		cfg.Output.Dir = opts.outDir
	}
	if opts.sheet != "" {
		cfg.Analysis.Sheet = opts.sheet
	}
	if opts.factorFile != "" {
		cfg.Analysis.FactorFile = opts.factorFile
	}

	logger, closeLog, err := infrastructure.InitLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := run(context.Background(), cfg, opts, logger); err != nil {
		logger.Error("Report generation failed", "error", err)
		closeLog()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options, logger *slog.Logger) error {
	reportID := uuid.New().String()
	logger = logger.With(slog.String("report_id", reportID))

	logger.Info("Parsing input", slog.String("file", opts.input))
	table, err := parser.ParseFile(opts.input, cfg.Analysis.Sheet)
	if err != nil {
		return err
	}
	logger.Info("Parsed input", slog.Int("rows", len(table.Records)), slog.Int("columns", len(table.Header)))
	for _, w := range table.ParseErrors {
		logger.Warn("Parse warning", slog.String("detail", w))
	}

	schema, err := analysis.ValidateSchema(table.Records)
	if err != nil {
		return fmt.Errorf("invalid measurement table %s: %w", table.Source, err)
	}

	var factors analysis.CorrectionFactors
	if opts.legacy {
		factors = analysis.LegacyFactors()
		if cfg.Analysis.FactorFile != "" {
			fromFile, err := config.LoadFactorFile(cfg.Analysis.FactorFile)
			if err != nil {
				return err
			}
			factors = factors.Merge(fromFile)
		}
	} else {
		factors, err = cfg.DefaultFactorsFor(schema)
		if err != nil {
			return err
		}
	}
	factors = factors.Merge(analysis.CorrectionFactors(opts.overrides))

	if opts.writeFactors != "" {
		if err := config.WriteFactorFile(opts.writeFactors, factors); err != nil {
			return err
		}
		logger.Info("Wrote correction factors", slog.String("file", opts.writeFactors))
	}

	results, err := analysis.Analyze(table.Records, factors)
	if err != nil {
		return err
	}
	logger.Info("Analysis complete",
		slog.Int("rows", len(results.Rows)),
		slog.Int("skipped", results.SkippedRows),
		slog.Int("curve_points", len(results.Curve)),
		slog.Int("peaks", len(results.Peaks)),
	)
	for _, w := range results.AnalysisErrors {
		logger.Warn("Analysis warning", slog.String("detail", w))
	}

	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	csvPath := cfg.OutputPath(cfg.Output.CSVName)
	if err := report.SaveRowsCSV(csvPath, results.Rows); err != nil {
		return err
	}
	logger.Info("Wrote row table", slog.String("file", csvPath))

	if cfg.Output.XLSXName != "" {
		path := cfg.OutputPath(cfg.Output.XLSXName)
		if err := report.SaveResultsXLSX(path, results); err != nil {
			return err
		}
		logger.Info("Wrote workbook", slog.String("file", path))
	}
	if cfg.Output.JSONName != "" {
		path := cfg.OutputPath(cfg.Output.JSONName)
		if err := report.SaveResultsJSON(path, table.Source, results); err != nil {
			return err
		}
		logger.Info("Wrote results JSON", slog.String("file", path))
	}

	if len(results.Rows) == 0 {
		logger.Warn("No rows with numeric Ex and Em; skipping plots and PDF")
		return nil
	}

	scale := report.ResolveColorScale(cfg.ColorScale, results.Grid.AutoMaxF())
	images, err := report.RenderPlots(ctx, results, scale, cfg.Output.ImageWidth, cfg.Output.ImageHeight)
	if err != nil {
		// The PDF notes missing plots; keep going with what rendered.
		logger.Warn("Plot rendering failed", "error", err)
	}
	for key, img := range images {
		path := cfg.OutputPath(key + ".png")
		if err := os.WriteFile(path, img, 0o644); err != nil {
			return fmt.Errorf("failed to write plot %s: %w", key, err)
		}
		logger.Debug("Wrote plot", slog.String("file", path))
	}

	if cfg.Output.PDFName != "" {
		path := cfg.OutputPath(cfg.Output.PDFName)
		meta := report.ReportMeta{
			ID:          reportID,
			Source:      filepath.Base(table.Source),
			GeneratedAt: time.Now(),
			Scale:       scale,
			ScaleMode:   cfg.ColorScale.Mode,
		}
		if err := report.BuildPDFReport(path, results, meta, images); err != nil {
			return err
		}
		logger.Info("Wrote PDF report", slog.String("file", path))
	}
	return nil
}
