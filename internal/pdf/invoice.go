// Package pdf renders invoice documents with the Swiss QR-bill payment part.
package pdf

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/simplifaq/simplifaq/internal/swiss"
)

// Item is one rendered invoice line.
type Item struct {
	Description string
	Quantity    float64
	UnitPrice   float64
	VATRate     float64
	Subtotal    float64
}

// Document carries everything the renderer needs; callers map their models
// into it so this package stays free of persistence types.
type Document struct {
	Number   string
	Date     string
	DueDate  string
	Currency string

	CompanyName    string
	CompanyAddress []string
	ClientName     string
	ClientAddress  []string

	Items    []Item
	Subtotal float64
	Discount float64
	VAT      float64
	Total    float64

	// Payment part; skipped when Bill.IBAN is empty.
	Bill swiss.Bill
}

// Invoice renders the document to PDF bytes.
func Invoice(doc Document) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	// header
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, tr("Facture "+doc.Number))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(95, 5, tr(doc.CompanyName))
	pdf.Cell(0, 5, tr(doc.ClientName))
	pdf.Ln(5)
	rows := len(doc.CompanyAddress)
	if len(doc.ClientAddress) > rows {
		rows = len(doc.ClientAddress)
	}
	for i := 0; i < rows; i++ {
		left, right := "", ""
		if i < len(doc.CompanyAddress) {
			left = doc.CompanyAddress[i]
		}
		if i < len(doc.ClientAddress) {
			right = doc.ClientAddress[i]
		}
		pdf.Cell(95, 5, tr(left))
		pdf.Cell(0, 5, tr(right))
		pdf.Ln(5)
	}
	pdf.Ln(4)
	pdf.Cell(0, 5, tr("Date: "+doc.Date+"    Échéance: "+doc.DueDate))
	pdf.Ln(10)

	// line items
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(235, 235, 235)
	pdf.CellFormat(80, 7, tr("Description"), "1", 0, "L", true, 0, "")
	pdf.CellFormat(20, 7, tr("Qté"), "1", 0, "R", true, 0, "")
	pdf.CellFormat(30, 7, tr("Prix unitaire"), "1", 0, "R", true, 0, "")
	pdf.CellFormat(20, 7, tr("TVA %"), "1", 0, "R", true, 0, "")
	pdf.CellFormat(30, 7, tr("Montant"), "1", 1, "R", true, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	for _, it := range doc.Items {
		pdf.CellFormat(80, 6, tr(it.Description), "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%.2f", it.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f", it.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%.1f", it.VATRate), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f", it.Subtotal), "1", 1, "R", false, 0, "")
	}

	// totals
	pdf.Ln(4)
	totalRow := func(label string, amount float64, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.CellFormat(150, 6, tr(label), "", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f %s", amount, doc.Currency), "", 1, "R", false, 0, "")
	}
	totalRow("Sous-total", doc.Subtotal, false)
	if doc.Discount > 0 {
		totalRow("Remise", -doc.Discount, false)
	}
	totalRow("TVA", doc.VAT, false)
	totalRow("Total", doc.Total, true)

	if doc.Bill.IBAN != "" {
		if err := paymentPart(pdf, tr, doc.Bill); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf output: %w", err)
	}
	return buf.Bytes(), nil
}

// paymentPart draws the QR-bill section on its own page: Swiss QR code,
// creditor account, reference and amount.
func paymentPart(pdf *gofpdf.Fpdf, tr func(string) string, bill swiss.Bill) error {
	payload := swiss.EncodePayload(bill)
	png, err := qrcode.Encode(payload, qrcode.Medium, 512)
	if err != nil {
		return fmt.Errorf("qr encode: %w", err)
	}

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, tr("Section paiement"))
	pdf.Ln(12)

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("swissqr", opts, bytes.NewReader(png))
	pdf.ImageOptions("swissqr", 15, pdf.GetY(), 46, 46, false, opts, 0, "")

	x := 70.0
	pdf.SetXY(x, pdf.GetY())
	line := func(label, value string) {
		pdf.SetX(x)
		pdf.SetFont("Helvetica", "B", 8)
		pdf.Cell(0, 4, tr(label))
		pdf.Ln(4)
		pdf.SetX(x)
		pdf.SetFont("Helvetica", "", 9)
		pdf.Cell(0, 5, tr(value))
		pdf.Ln(6)
	}
	line("Compte / Payable à", swiss.NormalizeIBAN(bill.IBAN))
	pdf.SetX(x)
	pdf.SetFont("Helvetica", "", 9)
	pdf.Cell(0, 5, tr(bill.Creditor.Name))
	pdf.Ln(6)
	if bill.Reference.Type == swiss.RefQRR {
		line("Référence", swiss.FormatQRReference(bill.Reference.Reference))
	}
	line("Montant", fmt.Sprintf("%s %.2f", bill.Currency, bill.Amount))
	if bill.Debtor.Name != "" {
		line("Payable par", bill.Debtor.Name)
	}
	return nil
}
