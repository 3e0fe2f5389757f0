package pdf

import (
	"bytes"
	"testing"

	"github.com/simplifaq/simplifaq/internal/swiss"
)

func sampleDocument() Document {
	return Document{
		Number:         "FAC-0042",
		Date:           "2026-08-01",
		DueDate:        "2026-09-01",
		Currency:       "CHF",
		CompanyName:    "Muller Consulting",
		CompanyAddress: []string{"Rue du Marché 12", "1204 Genève"},
		ClientName:     "Client SA",
		ClientAddress:  []string{"Bahnhofstrasse 1", "8001 Zürich"},
		Items: []Item{
			{Description: "Conseil", Quantity: 2, UnitPrice: 150, VATRate: 8.1, Subtotal: 300},
		},
		Subtotal: 300,
		VAT:      24.30,
		Total:    324.30,
		Bill: swiss.Bill{
			IBAN:     "CH4431999123000889012",
			Creditor: swiss.Party{Name: "Muller Consulting", Country: "CH"},
			Debtor:   swiss.Party{Name: "Client SA", Country: "CH"},
			Amount:   324.30,
			Currency: "CHF",
			Reference: swiss.ReferenceResult{
				Reference: swiss.GenerateQRReference("42"),
				Type:      swiss.RefQRR,
			},
		},
	}
}

func TestInvoiceRendersPDF(t *testing.T) {
	data, err := Invoice(sampleDocument())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("output does not look like a PDF")
	}

	// the payment part adds a page with the QR image: output must be
	// noticeably larger than the same document without it
	doc := sampleDocument()
	doc.Bill = swiss.Bill{}
	plain, err := Invoice(doc)
	if err != nil {
		t.Fatalf("render without bill: %v", err)
	}
	if len(data) <= len(plain) {
		t.Fatalf("payment part missing: %d <= %d bytes", len(data), len(plain))
	}
}

func TestInvoiceWithoutIBANSkipsPaymentPart(t *testing.T) {
	doc := sampleDocument()
	doc.Bill = swiss.Bill{}
	data, err := Invoice(doc)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("empty output")
	}
}
