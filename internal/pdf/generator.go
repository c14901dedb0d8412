package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/nurpe/marketplace-payments/internal/model"
)

// Core PDF fonts only cover Latin-1, which is enough for the report labels.
const fontName = "Helvetica"

type Generator struct {
	fontName string
}

func NewGenerator() (*Generator, error) {
	return &Generator{fontName: fontName}, nil
}

func (g *Generator) Generate(report model.RevenueReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 10, "Marketplace revenue report", "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Period: %s - %s", formatDate(report.PeriodStart), formatDate(report.PeriodEnd)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Best profession", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	if report.BestProfession != nil {
		pdf.CellFormat(0, 6, tr(fmt.Sprintf("%s: %s (%s of paid job prices)",
			report.BestProfession.Profession,
			formatAmount(report.BestProfession.Amount),
			metricLabel(report.Metric),
		)), "", 1, "L", false, 0, "")
	} else {
		pdf.CellFormat(0, 6, "No paid jobs in this period.", "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Best clients", "", 1, "L", false, 0, "")

	colWidths := []float64{12, 70, 98}
	drawTableRow(pdf, g.fontName, []string{"#", "Client", "Paid"}, colWidths, true)
	for i, client := range report.Clients {
		drawTableRow(pdf, g.fontName, []string{
			fmt.Sprintf("%d", i+1),
			tr(safeValue(client.FullName)),
			formatAmount(client.Paid),
		}, colWidths, false)
	}
	if len(report.Clients) == 0 {
		pdf.SetFont(g.fontName, "", 10)
		pdf.CellFormat(0, 8, "No client payments in this period.", "1", 1, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 10)
	for i, col := range cols {
		align := "L"
		if i == len(cols)-1 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 8, col, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func metricLabel(metric model.ProfessionMetric) string {
	if metric == model.ProfessionMetricSum {
		return "sum"
	}
	return "highest"
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func formatAmount(value decimal.Decimal) string {
	return value.StringFixed(2)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02.01.2006")
}
