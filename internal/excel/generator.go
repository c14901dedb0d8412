package excel

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/nurpe/marketplace-payments/internal/model"
)

const (
	summarySheet = "Summary"
	clientsSheet = "Clients"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Generate(report model.RevenueReport) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if err := g.writeSummary(file, report); err != nil {
		return nil, err
	}

	if _, err := file.NewSheet(clientsSheet); err != nil {
		return nil, err
	}
	if err := g.writeClients(file, report); err != nil {
		return nil, err
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, report model.RevenueReport) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(summarySheet, cell, value)
	}

	set("A1", "Period start")
	set("B1", formatDateTime(report.PeriodStart))
	set("A2", "Period end")
	set("B2", formatDateTime(report.PeriodEnd))
	set("A3", "Profession metric")
	set("B3", string(report.Metric))

	set("A5", "Best profession")
	set("A6", "Earned")
	if report.BestProfession != nil {
		set("B5", report.BestProfession.Profession)
		set("B6", formatAmount(report.BestProfession.Amount))
	} else {
		set("B5", "no paid jobs in period")
	}

	set("A8", "Clients listed")
	set("B8", len(report.Clients))
	set("A9", "Paid by listed clients")
	set("B9", formatAmount(totalPaid(report.Clients)))

	_ = file.SetColWidth(summarySheet, "A", "A", 28)
	_ = file.SetColWidth(summarySheet, "B", "B", 28)
	return nil
}

func (g *Generator) writeClients(file *excelize.File, report model.RevenueReport) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(clientsSheet, cell, value)
	}

	headers := []string{"#", "Client ID", "Full name", "Paid"}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		set(cell, header)
	}

	for i, client := range report.Clients {
		row := i + 2
		set(fmt.Sprintf("A%d", row), i+1)
		set(fmt.Sprintf("B%d", row), client.ID.String())
		set(fmt.Sprintf("C%d", row), client.FullName)
		set(fmt.Sprintf("D%d", row), formatAmount(client.Paid))
	}

	_ = file.SetColWidth(clientsSheet, "A", "A", 6)
	_ = file.SetColWidth(clientsSheet, "B", "B", 40)
	_ = file.SetColWidth(clientsSheet, "C", "C", 32)
	_ = file.SetColWidth(clientsSheet, "D", "D", 16)
	return nil
}

func totalPaid(clients []model.ClientSpending) decimal.Decimal {
	total := decimal.Zero
	for _, client := range clients {
		total = total.Add(client.Paid)
	}
	return total
}

func formatAmount(value decimal.Decimal) string {
	return value.StringFixed(2)
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}
