package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"procurement/models"
)

const maxSheetName = 31

type ExcelGenerator struct{}

func NewExcelGenerator() *ExcelGenerator {
	return &ExcelGenerator{}
}

// Comparison builds a workbook with a summary sheet listing every RFP and
// its proposals, plus one price-matrix sheet per RFP.
func (g *ExcelGenerator) Comparison(project *models.Project, rfps []models.RFP) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	summarySheet := "Summary"
	if err := file.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	g.writeSummary(file, summarySheet, project, rfps)

	used := map[string]struct{}{summarySheet: {}}
	for _, rfp := range rfps {
		sheet := buildSheetName(rfp, used)
		used[sheet] = struct{}{}
		if _, err := file.NewSheet(sheet); err != nil {
			return nil, err
		}
		g.writeMatrix(file, sheet, rfp)
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *ExcelGenerator) writeSummary(file *excelize.File, sheet string, project *models.Project, rfps []models.RFP) {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Project")
	set("B1", project.Title)
	set("A2", "Customer")
	if project.Customer != nil {
		set("B2", fullName(project.Customer))
	}
	set("A3", "Generated")
	set("B3", time.Now().UTC().Format(time.RFC3339))

	tableRow := 5
	headers := []string{"RFP", "RFP status", "Deadline", "Supplier", "Company", "Proposal status", "Submitted", "Total amount"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}

	row := tableRow + 1
	for _, rfp := range rfps {
		if len(rfp.Proposals) == 0 {
			set(fmt.Sprintf("A%d", row), rfp.Title)
			set(fmt.Sprintf("B%d", row), string(rfp.Status))
			set(fmt.Sprintf("C%d", row), formatDate(rfp.EndDate))
			set(fmt.Sprintf("D%d", row), "no proposals")
			row++
			continue
		}
		for _, p := range rfp.Proposals {
			set(fmt.Sprintf("A%d", row), rfp.Title)
			set(fmt.Sprintf("B%d", row), string(rfp.Status))
			set(fmt.Sprintf("C%d", row), formatDate(rfp.EndDate))
			if p.Supplier != nil {
				set(fmt.Sprintf("D%d", row), fullName(p.Supplier))
				set(fmt.Sprintf("E%d", row), deref(p.Supplier.Company))
			}
			set(fmt.Sprintf("F%d", row), string(p.Status))
			set(fmt.Sprintf("G%d", row), formatDate(p.SubmittedAt))
			set(fmt.Sprintf("H%d", row), p.TotalAmount.InexactFloat64())
			row++
		}
	}

	_ = file.SetColWidth(sheet, "A", "A", 36)
	_ = file.SetColWidth(sheet, "B", "C", 14)
	_ = file.SetColWidth(sheet, "D", "E", 28)
	_ = file.SetColWidth(sheet, "F", "H", 16)
}

// writeMatrix lays out RFP items as rows and proposals as columns of unit
// and line prices, with totals in the last row.
func (g *ExcelGenerator) writeMatrix(file *excelize.File, sheet string, rfp models.RFP) {
	set := func(col, row int, value interface{}) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = file.SetCellValue(sheet, cell, value)
	}

	set(1, 1, "RFP")
	set(2, 1, rfp.Title)
	set(1, 2, "Window")
	set(2, 2, fmt.Sprintf("%s - %s", formatDate(rfp.StartDate), formatDate(rfp.EndDate)))

	header := 4
	set(1, header, "Item")
	set(2, header, "Unit")
	set(3, header, "Quantity")
	for i, p := range rfp.Proposals {
		col := 4 + i*2
		set(col, header, fmt.Sprintf("%s unit price", supplierLabel(p)))
		set(col+1, header, fmt.Sprintf("%s line total (%s)", supplierLabel(p), p.Status))
	}

	prices := make([]map[int64]models.ProposalItem, len(rfp.Proposals))
	for i, p := range rfp.Proposals {
		prices[i] = make(map[int64]models.ProposalItem, len(p.Items))
		for _, item := range p.Items {
			prices[i][item.RFPItemID] = item
		}
	}

	row := header + 1
	for _, item := range rfp.Items {
		name, unit := fmt.Sprintf("item %d", item.ID), ""
		if item.Product != nil {
			name, unit = item.Product.Name, deref(item.Product.Unit)
		}
		set(1, row, name)
		set(2, row, unit)
		set(3, row, item.Quantity)
		for i := range rfp.Proposals {
			if priced, ok := prices[i][item.ID]; ok {
				set(4+i*2, row, priced.UnitPrice.InexactFloat64())
				set(5+i*2, row, priced.TotalPrice.InexactFloat64())
			}
		}
		row++
	}

	set(1, row, "Total")
	for i, p := range rfp.Proposals {
		set(5+i*2, row, p.TotalAmount.InexactFloat64())
	}

	_ = file.SetColWidth(sheet, "A", "A", 36)
	_ = file.SetColWidth(sheet, "B", "C", 12)
	if n := len(rfp.Proposals); n > 0 {
		last, _ := excelize.ColumnNumberToName(3 + n*2)
		_ = file.SetColWidth(sheet, "D", last, 22)
	}
}

func buildSheetName(rfp models.RFP, used map[string]struct{}) string {
	title := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '-'
		}
		return r
	}, strings.TrimSpace(rfp.Title))
	prefix := fmt.Sprintf("%d ", rfp.ID)
	name := truncate(prefix+title, maxSheetName)
	for i := 2; ; i++ {
		if _, taken := used[name]; !taken {
			return name
		}
		suffix := fmt.Sprintf(" (%d)", i)
		name = truncate(prefix+title, maxSheetName-len(suffix)) + suffix
	}
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func supplierLabel(p models.Proposal) string {
	if p.Supplier == nil {
		return fmt.Sprintf("Proposal %d", p.ID)
	}
	if p.Supplier.Company != nil && *p.Supplier.Company != "" {
		return *p.Supplier.Company
	}
	return fullName(p.Supplier)
}
