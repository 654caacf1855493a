package model

import "github.com/shopspring/decimal"

const (
	lakh  = 100_000
	crore = 10_000_000
)

// FormatAmount renders a rupee amount the way the floor announces it:
// whole lakhs below a crore ("₹50L"), crores with two decimals above
// ("₹2.25 Cr").
func FormatAmount(amount int64) string {
	d := decimal.NewFromInt(amount)
	if amount >= crore {
		return "₹" + d.Div(decimal.NewFromInt(crore)).StringFixed(2) + " Cr"
	}
	return "₹" + d.Div(decimal.NewFromInt(lakh)).StringFixed(0) + "L"
}
