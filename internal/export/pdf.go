package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"procurement/models"
)

const fontName = "Helvetica"

type PDFGenerator struct{}

func NewPDFGenerator() *PDFGenerator {
	return &PDFGenerator{}
}

// Proposal renders a one-document summary of a proposal: parties, RFP,
// priced items and the total.
func (g *PDFGenerator) Proposal(p *models.Proposal) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont(fontName, "B", 14)
	pdf.CellFormat(0, 10, tr(fmt.Sprintf("Proposal #%d", p.ID)), "", 1, "C", false, 0, "")

	pdf.SetFont(fontName, "", 11)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Status: %s", p.Status)), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Submitted: %s", formatDate(p.SubmittedAt))), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	if p.RFP != nil {
		pdf.SetFont(fontName, "B", 12)
		pdf.CellFormat(0, 8, "Request for proposal", "", 1, "L", false, 0, "")
		pdf.SetFont(fontName, "", 10)
		pdf.MultiCell(0, 5, tr(p.RFP.Title), "", "L", false)
		if p.RFP.Project != nil {
			pdf.MultiCell(0, 5, tr(fmt.Sprintf("Project: %s", p.RFP.Project.Title)), "", "L", false)
		}
		pdf.MultiCell(0, 5, tr(fmt.Sprintf("Window: %s - %s", formatDate(p.RFP.StartDate), formatDate(p.RFP.EndDate))), "", "L", false)
		pdf.Ln(2)
	}

	if p.Supplier != nil {
		pdf.SetFont(fontName, "B", 12)
		pdf.CellFormat(0, 8, "Supplier", "", 1, "L", false, 0, "")
		pdf.SetFont(fontName, "", 10)
		lines := []string{
			fullName(p.Supplier),
			fmt.Sprintf("Company: %s", safeValue(deref(p.Supplier.Company))),
			fmt.Sprintf("Email: %s", p.Supplier.Email),
			fmt.Sprintf("Phone: %s", safeValue(deref(p.Supplier.Phone))),
		}
		for _, line := range lines {
			pdf.MultiCell(0, 5, tr(line), "", "L", false)
		}
		pdf.Ln(2)
	}

	pdf.SetFont(fontName, "B", 12)
	pdf.CellFormat(0, 8, "Items", "", 1, "L", false, 0, "")

	widths := []float64{80, 20, 25, 27, 28}
	drawTableRow(pdf, tr, []string{"Product", "Unit", "Quantity", "Unit price", "Line total"}, widths, true)
	for _, item := range p.Items {
		name, unit, qty := fmt.Sprintf("RFP item %d", item.RFPItemID), "", ""
		if item.RFPItem != nil {
			qty = fmt.Sprintf("%d", item.RFPItem.Quantity)
			if item.RFPItem.Product != nil {
				name = item.RFPItem.Product.Name
				unit = deref(item.RFPItem.Product.Unit)
			}
		}
		drawTableRow(pdf, tr, []string{
			name,
			unit,
			qty,
			item.UnitPrice.StringFixed(2),
			item.TotalPrice.StringFixed(2),
		}, widths, false)
	}

	pdf.Ln(2)
	pdf.SetFont(fontName, "B", 11)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Total amount: %s", p.TotalAmount.StringFixed(2))), "", 1, "R", false, 0, "")

	if p.Notes != nil && *p.Notes != "" {
		pdf.Ln(2)
		pdf.SetFont(fontName, "B", 11)
		pdf.CellFormat(0, 6, "Notes", "", 1, "L", false, 0, "")
		pdf.SetFont(fontName, "", 10)
		pdf.MultiCell(0, 5, tr(*p.Notes), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawTableRow(pdf *gofpdf.Fpdf, tr func(string) string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 10)
	for i, col := range cols {
		align := "L"
		if i > 1 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 8, tr(col), "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}
