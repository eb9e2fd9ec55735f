package analysis

// ReducedRow is one input row after correction: its coordinates and the
// largest corrected reading over the factor columns.
type ReducedRow struct {
	Ex   float64 `json:"Ex"`
	Em   float64 `json:"Em"`
	MaxF float64 `json:"MaxF"`
}

// HeatmapGrid is the dense Ex × Em matrix. Z is row-major with one row per
// Em value: Z[i][j] is the MaxF at (X[j], Y[i]). Cells without a measurement
// hold 0, the same as a measured zero.
type HeatmapGrid struct {
	X []float64   `json:"x"`
	Y []float64   `json:"y"`
	Z [][]float64 `json:"z"`
}

// ExMaxPoint is one point of the excitation-maxima curve: the largest grid
// value in the Ex column and the Em where it was found.
type ExMaxPoint struct {
	Ex   float64 `json:"Ex"`
	MaxF float64 `json:"MaxF"`
	Em   float64 `json:"Em"`
}

// PeakPoint is a local maximum of the excitation-maxima curve.
type PeakPoint struct {
	Ex   float64 `json:"Ex"`
	Em   float64 `json:"Em"`
	MaxF float64 `json:"MaxF"`
}

// Schema is the column layout resolved once from the first row of a file.
type Schema struct {
	ExColumn           string   `json:"exColumn"`
	EmColumn           string   `json:"emColumn"`
	MeasurementColumns []string `json:"measurementColumns"` // Header order, Ex/Em excluded
}

// IntensitySummary describes the distribution of MaxF over the reduced rows.
type IntensitySummary struct {
	Count        int     `json:"count"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Mean         float64 `json:"mean"`
	Median       float64 `json:"median"`
	P95          float64 `json:"p95"`
	CellCoverage float64 `json:"cellCoverage"` // Share of grid cells backed by a row, 0..1
}

// AnalysisResults holds every artifact produced by one pipeline run.
type AnalysisResults struct {
	Schema         Schema            `json:"schema"`
	Factors        CorrectionFactors `json:"factors"`
	Rows           []ReducedRow      `json:"rows"`
	Grid           HeatmapGrid       `json:"grid"`
	Curve          []ExMaxPoint      `json:"curve"`
	Peaks          []PeakPoint       `json:"peaks"`
	Summary        IntensitySummary  `json:"summary"`
	InputRows      int               `json:"inputRows"`
	SkippedRows    int               `json:"skippedRows"` // Rows dropped for unparseable Ex or Em
	AnalysisErrors []string          `json:"analysisErrors"`
}

// NewAnalysisResults returns empty results with every slice and map allocated.
func NewAnalysisResults() *AnalysisResults {
	return &AnalysisResults{
		Factors:        make(CorrectionFactors),
		Rows:           make([]ReducedRow, 0),
		Grid:           HeatmapGrid{X: make([]float64, 0), Y: make([]float64, 0), Z: make([][]float64, 0)},
		Curve:          make([]ExMaxPoint, 0),
		Peaks:          make([]PeakPoint, 0),
		AnalysisErrors: make([]string, 0),
	}
}
