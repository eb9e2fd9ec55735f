package report

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/user/eem_analyzer_go/internal/analysis"
)

const (
	inchToMm               = 25.4
	pdfPageWidthLandscape  = 11 * inchToMm // Letter landscape
	pdfPageHeightLandscape = 8.5 * inchToMm
	pdfMargin              = 0.5 * inchToMm
	pdfContentWidth        = pdfPageWidthLandscape - (2 * pdfMargin)

	maxCurveTableRows = 40
)

// Keys of the plotImages map passed to the PDF builders.
const (
	PlotKeyHeatmap = "heatmap_maxf"
	PlotKeyCurve   = "line_exmax"
)

// ReportMeta identifies one generated report.
type ReportMeta struct {
	ID          string
	Source      string
	GeneratedAt time.Time
	Scale       ColorScale
	ScaleMode   string
}

// pdfStyler holds reusable styling and flow state for PDF generation.
type pdfStyler struct {
	pdf         *gofpdf.Fpdf
	styles      map[string]func()
	lineHeight  float64
	currentY    float64
	pageHeight  float64
	contentTopY float64
}

func newPDFStyler(pdf *gofpdf.Fpdf) *pdfStyler {
	s := &pdfStyler{
		pdf:         pdf,
		styles:      make(map[string]func()),
		lineHeight:  6, // mm
		pageHeight:  pdfPageHeightLandscape - pdfMargin,
		contentTopY: pdfMargin,
	}
	s.currentY = s.contentTopY
	s.defineStyles()
	return s
}

func (s *pdfStyler) defineStyles() {
	s.styles["h1"] = func() {
		s.pdf.SetFont("Arial", "B", 16)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["h2"] = func() {
		s.pdf.SetFont("Arial", "B", 14)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["normal"] = func() {
		s.pdf.SetFont("Arial", "", 10)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["muted"] = func() {
		s.pdf.SetFont("Arial", "I", 9)
		s.pdf.SetTextColor(90, 90, 90)
	}
	s.styles["tableHeader"] = func() {
		s.pdf.SetFont("Arial", "B", 9)
		s.pdf.SetFillColor(200, 200, 200) // Light grey
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["tableCell"] = func() {
		s.pdf.SetFont("Arial", "", 9)
		s.pdf.SetTextColor(50, 50, 50)
	}
	s.styles["tableCellPeak"] = func() {
		s.pdf.SetFont("Arial", "B", 9)
		s.pdf.SetTextColor(200, 0, 0)
	}
}

func (s *pdfStyler) applyStyle(styleName string) {
	if fn, ok := s.styles[styleName]; ok {
		fn()
	} else {
		s.styles["normal"]()
	}
}

func (s *pdfStyler) checkAddPage(neededHeight float64) {
	if s.currentY+neededHeight > s.pageHeight {
		s.newPage()
	}
}

func (s *pdfStyler) newPage() {
	s.pdf.AddPage()
	s.currentY = s.contentTopY
}

func (s *pdfStyler) writeParagraph(text string, styleName string, align string) {
	s.applyStyle(styleName)
	lines := s.pdf.SplitLines([]byte(text), pdfContentWidth)
	s.checkAddPage(math.Max(1, float64(len(lines))) * s.lineHeight)

	s.pdf.SetXY(pdfMargin, s.currentY)
	s.pdf.MultiCell(pdfContentWidth, s.lineHeight, text, "", align, false)
	s.currentY = s.pdf.GetY() + 1
}

func (s *pdfStyler) addSpacer(height float64) {
	s.checkAddPage(height)
	s.currentY += height
}

func (s *pdfStyler) addImage(imageBytes []byte, imageName string, width float64, height float64, caption string) {
	s.pdf.RegisterImageOptionsReader(imageName, gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(imageBytes))

	if width > pdfContentWidth {
		ratio := pdfContentWidth / width
		width = pdfContentWidth
		height *= ratio
	}

	captionHeight := 0.0
	if caption != "" {
		captionHeight = s.lineHeight + 1
	}
	s.checkAddPage(height + captionHeight)

	x := pdfMargin + (pdfContentWidth-width)/2
	s.pdf.ImageOptions(imageName, x, s.currentY, width, height, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	s.currentY += height

	if caption != "" {
		s.addSpacer(1)
		s.writeParagraph(caption, "muted", "C")
	}
	s.addSpacer(2)
}

// table draws a bordered table. highlight, when non-nil, selects rows drawn
// in the peak style.
func (s *pdfStyler) table(headers []string, colWidthsRel []float64, rows [][]string, highlight func(int) bool) {
	colWidths := make([]float64, len(colWidthsRel))
	for i, rel := range colWidthsRel {
		colWidths[i] = rel * pdfContentWidth
	}

	header := func() {
		sX := pdfMargin
		s.applyStyle("tableHeader")
		for i, h := range headers {
			s.pdf.SetXY(sX, s.currentY)
			s.pdf.CellFormat(colWidths[i], s.lineHeight, h, "1", 0, "C", true, 0, "")
			sX += colWidths[i]
		}
		s.currentY += s.lineHeight
	}

	s.checkAddPage(s.lineHeight * 2)
	header()
	for r, row := range rows {
		if s.currentY+s.lineHeight > s.pageHeight {
			s.newPage()
			header()
		}
		if highlight != nil && highlight(r) {
			s.applyStyle("tableCellPeak")
		} else {
			s.applyStyle("tableCell")
		}
		sX := pdfMargin
		for i, cell := range row {
			s.pdf.SetXY(sX, s.currentY)
			s.pdf.CellFormat(colWidths[i], s.lineHeight, cell, "1", 0, "C", false, 0, "")
			sX += colWidths[i]
		}
		s.currentY += s.lineHeight
	}
}

// WritePDFReport renders the report for results to w. plotImages holds PNG
// bytes under PlotKeyHeatmap and PlotKeyCurve; missing plots are noted in
// the document instead.
func WritePDFReport(w io.Writer, results *analysis.AnalysisResults, meta ReportMeta, plotImages map[string][]byte) error {
	pdf := buildPDF(results, meta, plotImages)
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write PDF report: %w", err)
	}
	return nil
}

// BuildPDFReport renders the report to filepath.
func BuildPDFReport(filepath string, results *analysis.AnalysisResults, meta ReportMeta, plotImages map[string][]byte) error {
	pdf := buildPDF(results, meta, plotImages)
	if err := pdf.OutputFileAndClose(filepath); err != nil {
		return fmt.Errorf("failed to write PDF report %s: %w", filepath, err)
	}
	return nil
}

func buildPDF(results *analysis.AnalysisResults, meta ReportMeta, plotImages map[string][]byte) *gofpdf.Fpdf {
	pdf := gofpdf.New("L", "mm", "Letter", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.SetTitle("EEM Fluorescence Map Report", true)
	pdf.AddPage()

	styler := newPDFStyler(pdf)

	styler.writeParagraph("EEM Fluorescence Map Report", "h1", "C")
	styler.addSpacer(3)
	if meta.Source != "" {
		styler.writeParagraph(fmt.Sprintf("Source: %s", meta.Source), "normal", "L")
	}
	if !meta.GeneratedAt.IsZero() {
		styler.writeParagraph(fmt.Sprintf("Generated: %s", meta.GeneratedAt.Format(time.RFC3339)), "normal", "L")
	}
	if meta.ID != "" {
		styler.writeParagraph(fmt.Sprintf("Report ID: %s", meta.ID), "muted", "L")
	}
	styler.addSpacer(5)

	if results == nil || len(results.Rows) == 0 {
		styler.writeParagraph("No analysis results to display.", "normal", "L")
		return pdf
	}

	styler.writeParagraph("Summary", "h2", "L")
	cols, rows := results.Grid.Dims()
	sum := results.Summary
	styler.table(
		[]string{"Rows", "Skipped", "Grid (Ex x Em)", "Coverage", "Min", "Mean", "Median", "P95", "Max"},
		[]float64{0.09, 0.09, 0.14, 0.12, 0.11, 0.11, 0.11, 0.11, 0.12},
		[][]string{{
			fmt.Sprintf("%d", sum.Count),
			fmt.Sprintf("%d", results.SkippedRows),
			fmt.Sprintf("%d x %d", cols, rows),
			fmt.Sprintf("%.1f%%", sum.CellCoverage*100),
			fmt.Sprintf("%.2f", sum.Min),
			fmt.Sprintf("%.2f", sum.Mean),
			fmt.Sprintf("%.2f", sum.Median),
			fmt.Sprintf("%.2f", sum.P95),
			fmt.Sprintf("%.2f", sum.Max),
		}},
		nil,
	)
	styler.addSpacer(2)
	scaleText := fmt.Sprintf("Colour scale: %s, MaxF 0 to %.2f", meta.ScaleMode, meta.Scale.Max)
	if meta.Scale.Steps > 0 {
		scaleText += fmt.Sprintf(", %d steps", meta.Scale.Steps)
	}
	styler.writeParagraph(scaleText, "normal", "L")
	styler.addSpacer(5)

	styler.writeParagraph("Correction Factors", "h2", "L")
	factorRows := make([][]string, 0, len(results.Factors))
	for _, col := range results.Factors.OrderedFor(results.Schema) {
		factorRows = append(factorRows, []string{col, FormatNumber(results.Factors[col])})
	}
	if len(factorRows) > 0 {
		styler.table([]string{"Column", "Factor"}, []float64{0.5, 0.5}, factorRows, nil)
	} else {
		styler.writeParagraph("No correction factors set; every measurement column was ignored.", "normal", "L")
	}
	styler.addSpacer(5)

	styler.writeParagraph("Local Maxima of the Excitation Curve", "h2", "L")
	if len(results.Peaks) > 0 {
		peakRows := make([][]string, len(results.Peaks))
		for i, pk := range results.Peaks {
			peakRows[i] = []string{FormatNumber(pk.Ex), FormatNumber(pk.Em), fmt.Sprintf("%.2f", pk.MaxF)}
		}
		styler.table([]string{"EX max", "EM max", "MaxF"}, []float64{1.0 / 3, 1.0 / 3, 1.0 / 3}, peakRows, nil)
	} else {
		styler.writeParagraph("No local maxima detected.", "normal", "L")
	}
	styler.addSpacer(5)

	if len(results.AnalysisErrors) > 0 {
		styler.writeParagraph("Warnings", "h2", "L")
		for _, msg := range results.AnalysisErrors {
			styler.writeParagraph("- "+msg, "normal", "L")
		}
		styler.addSpacer(5)
	}

	styler.newPage()
	styler.writeParagraph("Graphical Analysis", "h1", "C")
	styler.addSpacer(3)

	plotDefs := []struct {
		Key     string
		Title   string
		Caption string
		Aspect  float64
	}{
		{PlotKeyHeatmap, "Fluorescence Map", "Corrected MaxF over Excitation (Ex) and Emission (Em)", 3.0 / 4.0},
		{PlotKeyCurve, "Excitation Maxima Curve", "Largest MaxF per Ex with detected local maxima", 3.5 / 9.0},
	}
	for i, pDef := range plotDefs {
		if i > 0 {
			styler.newPage()
		}
		styler.writeParagraph(pDef.Title, "h2", "L")
		imgBytes, ok := plotImages[pDef.Key]
		if !ok || len(imgBytes) == 0 {
			slog.Warn("plot missing from report", slog.String("plot", pDef.Key))
			styler.writeParagraph(fmt.Sprintf("Plot for %s not available.", pDef.Title), "normal", "L")
			continue
		}
		imgHeight := styler.pageHeight - styler.currentY - 2*styler.lineHeight
		imgWidth := imgHeight / pDef.Aspect
		if imgWidth > pdfContentWidth*0.9 {
			imgWidth = pdfContentWidth * 0.9
			imgHeight = imgWidth * pDef.Aspect
		}
		styler.addImage(imgBytes, pDef.Key, imgWidth, imgHeight, pDef.Caption)
	}

	if len(results.Curve) > 0 {
		styler.newPage()
		styler.writeParagraph("Excitation Maxima Curve Data", "h2", "L")
		peakAt := make(map[float64]bool, len(results.Peaks))
		for _, pk := range results.Peaks {
			peakAt[pk.Ex] = true
		}
		curve := results.Curve
		if len(curve) > maxCurveTableRows {
			curve = curve[:maxCurveTableRows]
		}
		curveRows := make([][]string, len(curve))
		for i, pt := range curve {
			curveRows[i] = []string{FormatNumber(pt.Ex), FormatNumber(pt.Em), fmt.Sprintf("%.2f", pt.MaxF)}
		}
		styler.table([]string{"Ex", "Em at max", "MaxF"}, []float64{1.0 / 3, 1.0 / 3, 1.0 / 3}, curveRows,
			func(i int) bool { return peakAt[curve[i].Ex] })
		if len(results.Curve) > maxCurveTableRows {
			styler.addSpacer(1)
			styler.writeParagraph(fmt.Sprintf("%d further points omitted; see the exported data.", len(results.Curve)-maxCurveTableRows), "muted", "L")
		}
	}

	return pdf
}
