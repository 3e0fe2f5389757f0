package swiss

import (
	"fmt"
	"strings"
)

// ReferenceType is the QR-bill reference type field.
type ReferenceType string

const (
	// RefQRR indicates a structured 27-digit QR reference is present.
	RefQRR ReferenceType = "QRR"
	// RefNON indicates no structured reference (usable with non-QR accounts).
	RefNON ReferenceType = "NON"
)

// ReferenceMode is the per-user configuration controlling how the QR
// reference is produced.
type ReferenceMode string

const (
	RefModeAuto     ReferenceMode = "auto"
	RefModeManual   ReferenceMode = "manual"
	RefModeDisabled ReferenceMode = "disabled"
)

// ReferenceOptions carries everything needed to decide the reference for one
// invoice.
type ReferenceOptions struct {
	Mode            ReferenceMode
	Prefix          string
	IBAN            string
	InvoiceNumber   string
	ManualReference string
}

// ReferenceResult is the computed reference plus its QR-bill type.
type ReferenceResult struct {
	Reference string
	Type      ReferenceType
}

// ComputeQRReference decides which reference goes on the payment part.
//
// disabled   -> no reference (NON).
// manual     -> the supplied reference when it validates, NON otherwise.
//               The type stays QRR even without a QR-IBAN creditor account;
//               callers are expected to have configured a matching account.
// auto       -> derive a reference from prefix+invoice number, but only when
//               the creditor IBAN is a valid QR-IBAN. Anything else degrades
//               silently to NON, which is always printable.
func ComputeQRReference(opts ReferenceOptions) ReferenceResult {
	mode := opts.Mode
	if mode == "" {
		mode = RefModeAuto
	}
	switch mode {
	case RefModeDisabled:
		return ReferenceResult{Type: RefNON}
	case RefModeManual:
		manual := strings.Join(strings.Fields(opts.ManualReference), "")
		if manual == "" || !IsValidQRReference(manual) {
			return ReferenceResult{Type: RefNON}
		}
		return ReferenceResult{Reference: manual, Type: RefQRR}
	default:
		if !IsQRIBAN(opts.IBAN) {
			return ReferenceResult{Type: RefNON}
		}
		seed := ReferenceSeed(opts.Prefix, opts.InvoiceNumber)
		return ReferenceResult{Reference: GenerateQRReference(seed), Type: RefQRR}
	}
}

// Party is one side of the payment part (creditor or debtor).
type Party struct {
	Name       string
	Street     string
	HouseNo    string
	PostalCode string
	City       string
	Country    string
}

// Bill is the assembled QR-bill input consumed by the payload builder and
// the PDF renderer.
type Bill struct {
	IBAN           string
	Creditor       Party
	Debtor         Party
	Amount         float64
	Currency       string
	Reference      ReferenceResult
	AdditionalInfo string
}

// EncodePayload renders the Swiss QR code payload (SPC type, version 0200):
// 31 CRLF-separated lines of creditor, amount, debtor and reference data.
func EncodePayload(b Bill) string {
	currency := b.Currency
	if currency == "" {
		currency = "CHF"
	}
	lines := []string{
		"SPC",  // QR type
		"0200", // version
		"1",    // coding: latin-1
		NormalizeIBAN(b.IBAN),
		"S", // creditor address type: structured
		truncate(b.Creditor.Name, 70),
		truncate(b.Creditor.Street, 70),
		truncate(b.Creditor.HouseNo, 16),
		truncate(b.Creditor.PostalCode, 16),
		truncate(b.Creditor.City, 35),
		CountryCode(b.Creditor.Country),
		// ultimate creditor: unused
		"", "", "", "", "", "", "",
		fmt.Sprintf("%.2f", b.Amount),
		truncate(currency, 3),
		"S", // debtor address type
		truncate(b.Debtor.Name, 70),
		truncate(b.Debtor.Street, 70),
		truncate(b.Debtor.HouseNo, 16),
		truncate(b.Debtor.PostalCode, 16),
		truncate(b.Debtor.City, 35),
		CountryCode(b.Debtor.Country),
		string(b.Reference.Type),
		b.Reference.Reference,
		truncate(b.AdditionalInfo, 140),
		"EPD", // end of payment data
	}
	return strings.Join(lines, "\r\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
