// Package billing implements line and invoice level discount application and
// VAT computation. All monetary intermediates are rounded to 2 decimals at
// each step: totals must match cent for cent what the PDF shows.
package billing

import "github.com/shopspring/decimal"

// DiscountType selects how a discount value is interpreted.
type DiscountType string

const (
	// DiscountPercent applies value as a percentage (0-100).
	DiscountPercent DiscountType = "PERCENT"
	// DiscountAmount subtracts a fixed amount, capped at the discountable base.
	DiscountAmount DiscountType = "AMOUNT"
)

// Discount is a percentage or fixed-amount reduction.
type Discount struct {
	Type  DiscountType
	Value decimal.Decimal
}

// Line is one invoice position before computation.
type Line struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	// VATRate is a percentage, e.g. 8.1 for the standard Swiss rate.
	VATRate  decimal.Decimal
	Discount *Discount
}

// LineResult is a line with all computed amounts.
type LineResult struct {
	Line
	SubtotalBeforeDiscount decimal.Decimal
	DiscountAmount         decimal.Decimal
	Subtotal               decimal.Decimal // after line discount
	GlobalDiscountShare    decimal.Decimal
	VAT                    decimal.Decimal
}

// Totals is the full computation result for one invoice.
type Totals struct {
	Lines          []LineResult
	Subtotal       decimal.Decimal // sum of line subtotals after line discounts
	GlobalDiscount decimal.Decimal
	VAT            decimal.Decimal
	Total          decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// ApplyDiscounts computes per-line discounts and VAT, then applies the
// optional global discount. The global discount is distributed pro-rata over
// the line subtotals and VAT is recomputed per line on the post-distribution
// base, so invoices mixing VAT rates stay correct.
func ApplyDiscounts(lines []Line, global *Discount) Totals {
	out := Totals{Lines: make([]LineResult, 0, len(lines))}
	for _, ln := range lines {
		res := LineResult{Line: ln}
		res.SubtotalBeforeDiscount = ln.Quantity.Mul(ln.UnitPrice).Round(2)
		res.DiscountAmount = discountAmount(ln.Discount, res.SubtotalBeforeDiscount)
		res.Subtotal = res.SubtotalBeforeDiscount.Sub(res.DiscountAmount)
		out.Subtotal = out.Subtotal.Add(res.Subtotal)
		out.Lines = append(out.Lines, res)
	}

	out.GlobalDiscount = discountAmount(global, out.Subtotal)

	for i := range out.Lines {
		res := &out.Lines[i]
		taxableBase := res.Subtotal
		if out.GlobalDiscount.IsPositive() && out.Subtotal.IsPositive() {
			res.GlobalDiscountShare = out.GlobalDiscount.Mul(res.Subtotal).Div(out.Subtotal).Round(2)
			taxableBase = res.Subtotal.Sub(res.GlobalDiscountShare)
		}
		res.VAT = taxableBase.Mul(res.VATRate).Div(hundred).Round(2)
		out.VAT = out.VAT.Add(res.VAT)
	}

	out.Total = out.Subtotal.Sub(out.GlobalDiscount).Add(out.VAT).Round(2)
	return out
}

// discountAmount resolves a discount against its base, already rounded.
// AMOUNT discounts never exceed the base; nil or non-positive values are a
// no-op.
func discountAmount(d *Discount, base decimal.Decimal) decimal.Decimal {
	if d == nil || !d.Value.IsPositive() {
		return decimal.Zero
	}
	switch d.Type {
	case DiscountPercent:
		return base.Mul(d.Value).Div(hundred).Round(2)
	case DiscountAmount:
		if d.Value.GreaterThan(base) {
			return base
		}
		return d.Value.Round(2)
	default:
		return decimal.Zero
	}
}
