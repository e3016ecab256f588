package report

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// formatMoney renders an amount with the currency's symbol, grouping and
// minor units. Unknown currency codes fall back to a plain decimal.
func formatMoney(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return amount.StringFixed(2) + " " + currency
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

// toLocal converts a base currency amount with the run's rate.
func toLocal(amount decimal.Decimal, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate)
}
