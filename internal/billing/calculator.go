package billing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/godown-app/godown/internal/shared"
	"github.com/godown-app/godown/internal/units"
)

var hundred = decimal.NewFromInt(100)

// Totals aggregates the computed amounts of a bill.
type Totals struct {
	TotalItems      int64
	TotalBeforeTax  decimal.Decimal
	TotalTax        decimal.Decimal
	GrandTotal      decimal.Decimal
	AmountCollected decimal.Decimal
	BalanceAmount   decimal.Decimal
}

// ComputeLine turns a raw line into a stored line. Discounts apply to the
// unit price, clamped at zero. SellingPrice is tax-inclusive, so tax is
// extracted by division: tax = gross * pct / (100 + pct). Amounts round to
// two decimal places at the line boundary.
func ComputeLine(in LineInput) (Line, error) {
	if in.SellingPrice.IsNegative() {
		return Line{}, fmt.Errorf("%w: selling price must not be negative", shared.ErrValidation)
	}
	if in.TaxPercent.IsNegative() || in.TaxPercent.GreaterThan(hundred) {
		return Line{}, fmt.Errorf("%w: tax percent must be within [0,100]", shared.ErrValidation)
	}
	if in.DiscountValue.IsNegative() {
		return Line{}, fmt.Errorf("%w: discount value must not be negative", shared.ErrValidation)
	}

	pieces, err := units.ToPieces(in.QuantityBoxes, in.QuantityLoose, in.PiecesPerBox)
	if err != nil {
		return Line{}, err
	}
	if pieces == 0 {
		return Line{}, fmt.Errorf("%w: line quantity must be positive", shared.ErrValidation)
	}

	price := in.SellingPrice
	switch in.DiscountType {
	case DiscountPercent:
		price = price.Sub(price.Mul(in.DiscountValue).Div(hundred))
	case DiscountCash:
		price = price.Sub(in.DiscountValue)
	case DiscountNone, "":
	default:
		return Line{}, fmt.Errorf("%w: unknown discount type %q", shared.ErrValidation, in.DiscountType)
	}
	if price.IsNegative() {
		price = decimal.Zero
	}

	gross := price.Mul(decimal.NewFromInt(pieces)).Round(2)
	var tax decimal.Decimal
	if in.TaxPercent.IsPositive() {
		tax = gross.Mul(in.TaxPercent).Div(hundred.Add(in.TaxPercent)).Round(2)
	}

	return Line{
		LineInput:       in,
		TotalPieces:     pieces,
		GrossAmount:     gross,
		TaxAmount:       tax,
		AmountBeforeTax: gross.Sub(tax),
		LineTotal:       gross,
	}, nil
}

// ComputeBill computes every line and the bill aggregates, then validates the
// payment against the grand total. No stock is touched here.
func ComputeBill(inputs []LineInput, payment Payment) ([]Line, Totals, error) {
	if len(inputs) == 0 {
		return nil, Totals{}, fmt.Errorf("%w: bill requires at least one line", shared.ErrValidation)
	}
	lines := make([]Line, 0, len(inputs))
	var totals Totals
	for i, in := range inputs {
		line, err := ComputeLine(in)
		if err != nil {
			return nil, Totals{}, fmt.Errorf("line %d: %w", i+1, err)
		}
		lines = append(lines, line)
		totals.TotalItems += line.TotalPieces
		totals.TotalBeforeTax = totals.TotalBeforeTax.Add(line.AmountBeforeTax)
		totals.TotalTax = totals.TotalTax.Add(line.TaxAmount)
		totals.GrandTotal = totals.GrandTotal.Add(line.LineTotal)
	}

	if err := ValidatePayment(payment, totals.GrandTotal); err != nil {
		return nil, Totals{}, err
	}
	totals.AmountCollected = payment.Collected()
	totals.BalanceAmount = totals.GrandTotal.Sub(totals.AmountCollected)
	return lines, totals, nil
}

// ValidatePayment rejects negative instrument amounts and overpayment.
func ValidatePayment(p Payment, grandTotal decimal.Decimal) error {
	if p.CashAmount.IsNegative() || p.UPIAmount.IsNegative() || p.CardAmount.IsNegative() {
		return fmt.Errorf("%w: payment amounts must not be negative", shared.ErrValidation)
	}
	if p.Collected().GreaterThan(grandTotal) {
		return fmt.Errorf("%w: collected %s exceeds grand total %s", shared.ErrOverpaid, p.Collected(), grandTotal)
	}
	return nil
}
