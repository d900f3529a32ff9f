package sales

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"
)

// ReceiptPDF renders the sale as an A4 receipt and returns the file
// path.
func ReceiptPDF(sale Sale, shopName, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	filePath := filepath.Join(dir, sale.ID+".pdf")

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, shopName)
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Recu de vente %s", sale.ID))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Date: %s", sale.CreatedAt.Format("2006-01-02 15:04")))
	pdf.Ln(7)
	if sale.CustomerName != "" {
		pdf.Cell(0, 8, fmt.Sprintf("Client: %s", sale.CustomerName))
		pdf.Ln(7)
	}
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(80, 7, "Article", "1", 0, "L", false, 0, "")
	pdf.CellFormat(25, 7, "Qte", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 7, "PU (FCFA)", "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 7, "Total", "1", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	for _, item := range sale.Items {
		pdf.CellFormat(80, 7, item.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 7, fmt.Sprintf("%g", item.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, fmt.Sprintf("%d", item.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 7, fmt.Sprintf("%d", item.LineTotal), "1", 1, "R", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Total: %d FCFA", sale.Total))
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Paye: %d FCFA (%s)", sale.AmountPaid, sale.PaymentMethod))
	if sale.Total > sale.AmountPaid {
		pdf.Ln(7)
		pdf.Cell(0, 8, fmt.Sprintf("Reste a payer: %d FCFA", sale.Total-sale.AmountPaid))
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", err
	}
	return filePath, nil
}
