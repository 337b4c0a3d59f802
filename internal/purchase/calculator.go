package purchase

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/godown-app/godown/internal/shared"
	"github.com/godown-app/godown/internal/units"
)

var hundred = decimal.NewFromInt(100)

// Totals aggregates the computed amounts of a purchase order.
type Totals struct {
	SubTotal   decimal.Decimal
	TaxTotal   decimal.Decimal
	GrandTotal decimal.Decimal
}

// ComputeLine turns a raw purchase line into a stored line. The discount
// percent is clamped into [0,100]; tax is additive on the discounted amount
// because purchase prices are quoted tax-exclusive.
func ComputeLine(in LineInput) (Line, error) {
	if in.PurchasePrice.IsNegative() {
		return Line{}, fmt.Errorf("%w: purchase price must not be negative", shared.ErrValidation)
	}
	if in.TaxPercent.IsNegative() || in.TaxPercent.GreaterThan(hundred) {
		return Line{}, fmt.Errorf("%w: tax percent must be within [0,100]", shared.ErrValidation)
	}

	qty, err := units.ToPieces(in.Boxes, in.LooseItems, in.PiecesPerBox)
	if err != nil {
		return Line{}, err
	}
	if qty == 0 {
		return Line{}, fmt.Errorf("%w: line quantity must be positive", shared.ErrValidation)
	}

	discount := in.DiscountPercent
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if discount.GreaterThan(hundred) {
		discount = hundred
	}
	in.DiscountPercent = discount

	gross := in.PurchasePrice.Mul(decimal.NewFromInt(qty)).Round(2)
	taxable := gross.Sub(gross.Mul(discount).Div(hundred)).Round(2)
	tax := taxable.Mul(in.TaxPercent).Div(hundred).Round(2)

	return Line{
		LineInput:     in,
		TotalQty:      qty,
		GrossAmount:   gross,
		TaxableAmount: taxable,
		TaxAmount:     tax,
		TotalAmount:   taxable.Add(tax),
	}, nil
}

// ComputeOrder computes every line and the order aggregates.
func ComputeOrder(inputs []LineInput) ([]Line, Totals, error) {
	if len(inputs) == 0 {
		return nil, Totals{}, fmt.Errorf("%w: purchase requires at least one line", shared.ErrValidation)
	}
	lines := make([]Line, 0, len(inputs))
	var totals Totals
	for i, in := range inputs {
		line, err := ComputeLine(in)
		if err != nil {
			return nil, Totals{}, fmt.Errorf("line %d: %w", i+1, err)
		}
		lines = append(lines, line)
		totals.SubTotal = totals.SubTotal.Add(line.TaxableAmount)
		totals.TaxTotal = totals.TaxTotal.Add(line.TaxAmount)
		totals.GrandTotal = totals.GrandTotal.Add(line.TotalAmount)
	}
	return lines, totals, nil
}
