package services

import (
	"github.com/shopspring/decimal"

	"github.com/simplifaq/simplifaq/internal/billing"
)

// LineInput is one document line as received from handlers, with product
// values already resolved and frozen.
type LineInput struct {
	ProductID     uint
	Description   string
	Quantity      float64
	UnitPrice     float64
	VATRate       float64
	DiscountType  string
	DiscountValue float64
}

// LineTotals is a computed line ready to persist.
type LineTotals struct {
	LineInput
	Subtotal float64
	VAT      float64
}

// DocumentTotals carries the computed amounts for an invoice or quote.
type DocumentTotals struct {
	Lines    []LineTotals
	Subtotal float64
	Discount float64
	VAT      float64
	Total    float64
}

// ComputeTotals runs the billing computation over raw lines plus an optional
// global discount and converts the results back to the float64 fields the
// models persist.
func ComputeTotals(lines []LineInput, discountType string, discountValue float64) DocumentTotals {
	in := make([]billing.Line, 0, len(lines))
	for _, ln := range lines {
		bl := billing.Line{
			Description: ln.Description,
			Quantity:    decimal.NewFromFloat(ln.Quantity),
			UnitPrice:   decimal.NewFromFloat(ln.UnitPrice),
			VATRate:     decimal.NewFromFloat(ln.VATRate),
		}
		if ln.DiscountType != "" {
			bl.Discount = &billing.Discount{
				Type:  billing.DiscountType(ln.DiscountType),
				Value: decimal.NewFromFloat(ln.DiscountValue),
			}
		}
		in = append(in, bl)
	}
	var global *billing.Discount
	if discountType != "" {
		global = &billing.Discount{
			Type:  billing.DiscountType(discountType),
			Value: decimal.NewFromFloat(discountValue),
		}
	}
	res := billing.ApplyDiscounts(in, global)

	out := DocumentTotals{
		Subtotal: res.Subtotal.InexactFloat64(),
		Discount: res.GlobalDiscount.InexactFloat64(),
		VAT:      res.VAT.InexactFloat64(),
		Total:    res.Total.InexactFloat64(),
	}
	for i, lr := range res.Lines {
		out.Lines = append(out.Lines, LineTotals{
			LineInput: lines[i],
			Subtotal:  lr.Subtotal.InexactFloat64(),
			VAT:       lr.VAT.InexactFloat64(),
		})
	}
	return out
}
