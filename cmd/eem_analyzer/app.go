package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/user/eem_analyzer_go/internal/analysis"
	"github.com/user/eem_analyzer_go/internal/config"
	"github.com/user/eem_analyzer_go/internal/parser"
	"github.com/user/eem_analyzer_go/internal/report"
)

var errNoFile = errors.New("no measurement file loaded")

// LoadSummary is returned to the front end after a file is read.
type LoadSummary struct {
	Source   string                     `json:"source"`
	Rows     int                        `json:"rows"`
	Schema   analysis.Schema            `json:"schema"`
	Factors  analysis.CorrectionFactors `json:"factors"`
	Warnings []string                   `json:"warnings"`
}

// AnalysisView is what the front end charts: the grid, the curve with its
// peaks and the resolved colour scale.
type AnalysisView struct {
	Grid     analysis.HeatmapGrid      `json:"grid"`
	Curve    []analysis.ExMaxPoint     `json:"curve"`
	Peaks    []analysis.PeakPoint      `json:"peaks"`
	Summary  analysis.IntensitySummary `json:"summary"`
	AutoMaxF float64                   `json:"autoMaxF"`
	Scale    report.ColorScale         `json:"scale"`
	Warnings []string                  `json:"warnings"`
}

// App is bound to the Wails front end. The loaded dataset, factors and
// last results are guarded by mu; report generation runs in the
// background on a snapshot.
type App struct {
	ctx    context.Context
	cfg    *config.Config
	logger *slog.Logger

	mu         sync.Mutex
	table      *parser.ParsedTable
	schema     analysis.Schema
	factors    analysis.CorrectionFactors
	colorScale config.ColorScaleConfig
	results    *analysis.AnalysisResults // nil when stale
}

// NewApp creates a new App application struct
func NewApp(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:        cfg,
		logger:     logger,
		colorScale: cfg.ColorScale,
	}
}

// Startup is called when the app starts. The context is saved
// so we can call the runtime methods
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx
	runtime.WindowSetTitle(a.ctx, "EEM Analyzer")
}

func (a *App) sendStatus(message string) {
	if a.ctx != nil {
		runtime.EventsEmit(a.ctx, "statusUpdate", message)
	}
	a.logger.Info(message)
}

func (a *App) emit(event string, data ...interface{}) {
	if a.ctx != nil {
		runtime.EventsEmit(a.ctx, event, data...)
	}
}

// LoadFile reads a CSV or workbook, resolves its columns and resets the
// factors to the configured defaults for those columns.
func (a *App) LoadFile(path string, sheet string) (*LoadSummary, error) {
	if sheet == "" {
		sheet = a.cfg.Analysis.Sheet
	}
	table, err := parser.ParseFile(path, sheet)
	if err != nil {
		return nil, err
	}
	schema, err := analysis.ValidateSchema(table.Records)
	if err != nil {
		return nil, fmt.Errorf("invalid measurement table %s: %w", table.Source, err)
	}
	factors, err := a.cfg.DefaultFactorsFor(schema)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.table = table
	a.schema = schema
	a.factors = factors
	a.results = nil
	a.mu.Unlock()

	a.logger.Info("Loaded measurement file",
		slog.String("file", table.Source),
		slog.Int("rows", len(table.Records)),
		slog.Int("dilution_columns", len(schema.MeasurementColumns)),
	)
	return &LoadSummary{
		Source:   table.Source,
		Rows:     len(table.Records),
		Schema:   schema,
		Factors:  factors.Clone(),
		Warnings: append([]string(nil), table.ParseErrors...),
	}, nil
}

// SetFactor changes the correction factor of one column.
func (a *App) SetFactor(column string, value float64) error {
	if err := (analysis.CorrectionFactors{column: value}).Validate(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.table == nil {
		return errNoFile
	}
	a.factors = a.factors.With(column, value)
	a.results = nil
	return nil
}

// SetFactors replaces the whole factor set.
func (a *App) SetFactors(factors map[string]float64) error {
	next := analysis.CorrectionFactors(factors).Clone()
	if err := next.Validate(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.table == nil {
		return errNoFile
	}
	a.factors = next
	a.results = nil
	return nil
}

// ResetFactors restores the configured defaults for the loaded file. With
// legacy set, the fixed 18u0..18u512 table is used instead.
func (a *App) ResetFactors(legacy bool) (analysis.CorrectionFactors, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.table == nil {
		return nil, errNoFile
	}
	factors := analysis.LegacyFactors()
	if !legacy {
		var err error
		if factors, err = a.cfg.DefaultFactorsFor(a.schema); err != nil {
			return nil, err
		}
	}
	a.factors = factors
	a.results = nil
	return factors.Clone(), nil
}

// SetColorScale switches the contour map's colour-scale mode.
func (a *App) SetColorScale(mode string, maxF float64, steps int) (report.ColorScale, error) {
	next := *a.cfg
	next.ColorScale = config.ColorScaleConfig{Mode: mode, MaxF: maxF, Steps: steps}
	if next.ColorScale.Steps == 0 {
		next.ColorScale.Steps = a.cfg.ColorScale.Steps
	}
	if err := next.Validate(); err != nil {
		return report.ColorScale{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.colorScale = next.ColorScale
	autoMaxF := analysis.HeatmapGrid{}.AutoMaxF()
	if a.results != nil {
		autoMaxF = a.results.Grid.AutoMaxF()
	}
	return report.ResolveColorScale(a.colorScale, autoMaxF), nil
}

// Analyze runs the pipeline with the current factors.
func (a *App) Analyze() (*AnalysisView, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	results, err := a.analyzeLocked()
	if err != nil {
		return nil, err
	}
	autoMaxF := results.Grid.AutoMaxF()
	return &AnalysisView{
		Grid:     results.Grid,
		Curve:    results.Curve,
		Peaks:    results.Peaks,
		Summary:  results.Summary,
		AutoMaxF: autoMaxF,
		Scale:    report.ResolveColorScale(a.colorScale, autoMaxF),
		Warnings: results.AnalysisErrors,
	}, nil
}

// analyzeLocked returns the cached results, recomputing them when the
// factors changed. a.mu must be held.
func (a *App) analyzeLocked() (*analysis.AnalysisResults, error) {
	if a.table == nil {
		return nil, errNoFile
	}
	if a.results != nil {
		return a.results, nil
	}
	results, err := analysis.Analyze(a.table.Records, a.factors)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("Analysis complete", slog.Int("rows", len(results.Rows)), slog.Int("peaks", len(results.Peaks)))
	a.results = results
	return results, nil
}

// ExportCSV writes the corrected row table. An empty path uses the
// configured name in the output directory.
func (a *App) ExportCSV(path string) (string, error) {
	a.mu.Lock()
	results, err := a.analyzeLocked()
	a.mu.Unlock()
	if err != nil {
		return "", err
	}
	if path == "" {
		path = a.cfg.OutputPath(a.cfg.Output.CSVName)
	}
	if err := report.SaveRowsCSV(path, results.Rows); err != nil {
		return "", err
	}
	a.sendStatus(fmt.Sprintf("Row table written: %s", path))
	return path, nil
}

// HandleGenerateReport is called from the frontend to start the report generation process
func (a *App) HandleGenerateReport(pdfFilePath string) (string, error) {
	a.mu.Lock()
	results, err := a.analyzeLocked()
	scaleCfg := a.colorScale
	var source string
	if a.table != nil {
		source = a.table.Source
	}
	a.mu.Unlock()
	if err != nil {
		return "", err
	}
	if pdfFilePath == "" {
		pdfFilePath = a.cfg.OutputPath(a.cfg.Output.PDFName)
	}

	a.emit("clearLog")
	a.sendStatus(fmt.Sprintf("Request: source=[%s], PDF=[%s]", source, pdfFilePath))

	// results is never mutated once cached, so the goroutine can read it
	// without holding mu.
	go a.generateReport(results, scaleCfg, source, pdfFilePath)

	return "Report generation started in background.", nil
}

func (a *App) generateReport(results *analysis.AnalysisResults, scaleCfg config.ColorScaleConfig, source, pdfFilePath string) {
	defer func() {
		if r := recover(); r != nil {
			errMsg := fmt.Sprintf("PANIC recovered: %v", r)
			a.sendStatus(errMsg)
			a.emit("generationComplete", false, errMsg)
		}
	}()
	a.emit("generationStart")

	ctx := a.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	scale := report.ResolveColorScale(scaleCfg, results.Grid.AutoMaxF())
	a.sendStatus("Generating plots...")
	images, err := report.RenderPlots(ctx, results, scale, a.cfg.Output.ImageWidth, a.cfg.Output.ImageHeight)
	if err != nil {
		// The PDF notes missing plots; keep going with what rendered.
		a.sendStatus(fmt.Sprintf("Error generating plots: %v", err))
	}

	a.sendStatus(fmt.Sprintf("Generating PDF: %s...", pdfFilePath))
	meta := report.ReportMeta{
		ID:          uuid.New().String(),
		Source:      filepath.Base(source),
		GeneratedAt: time.Now(),
		Scale:       scale,
		ScaleMode:   scaleCfg.Mode,
	}
	if err := report.BuildPDFReport(pdfFilePath, results, meta, images); err != nil {
		errMsg := fmt.Sprintf("Error generating PDF report: %v", err)
		a.sendStatus(errMsg)
		a.emit("generationComplete", false, errMsg)
		return
	}
	successMsg := fmt.Sprintf("PDF report successfully generated: %s", pdfFilePath)
	a.sendStatus(successMsg)
	a.emit("generationComplete", true, successMsg)
}
