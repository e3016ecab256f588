package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Position is a held quantity of one instrument together with the facts
// recorded when it was bought.
type Position struct {
	Symbol               string
	UnitsHeld            int64
	PurchaseUnitPrice    decimal.Decimal
	PurchaseDate         time.Time
	PurchaseROE          float64
	PurchasePER          float64
	PurchaseScore        float64
	PurchaseExchangeRate decimal.Decimal
}

// CostBasis is the purchase cost in local currency.
func (p Position) CostBasis() decimal.Decimal {
	return p.PurchaseUnitPrice.Mul(p.PurchaseExchangeRate).Mul(decimal.NewFromInt(p.UnitsHeld))
}

// UnrealizedPnL is the gain in local currency at the given price and rate.
func (p Position) UnrealizedPnL(currentUnitPrice, currentExchangeRate decimal.Decimal) decimal.Decimal {
	now := currentUnitPrice.Mul(currentExchangeRate)
	then := p.PurchaseUnitPrice.Mul(p.PurchaseExchangeRate)
	return now.Sub(then).Mul(decimal.NewFromInt(p.UnitsHeld))
}

type Holdings []Position

func (h Holdings) HeldSymbols() []string {
	seen := map[string]bool{}
	symbols := []string{}
	for _, p := range h {
		if !seen[p.Symbol] {
			seen[p.Symbol] = true
			symbols = append(symbols, p.Symbol)
		}
	}
	sort.Strings(symbols)
	return symbols
}

func (h Holdings) Holds(symbol string) bool {
	for _, p := range h {
		if p.Symbol == symbol {
			return true
		}
	}
	return false
}

type TradeSide string

const (
	TradeSideBuy  TradeSide = "BUY"
	TradeSideSell TradeSide = "SELL"
)

type ProposedTrade struct {
	Symbol        string
	Side          TradeSide
	Units         int64
	ExpectedPrice *decimal.Decimal
}

// ExpectedAmount is nil when the price is unknown.
func (p ProposedTrade) ExpectedAmount() *decimal.Decimal {
	if p.ExpectedPrice == nil {
		return nil
	}
	amt := p.ExpectedPrice.Mul(decimal.NewFromInt(p.Units)).Abs()
	return &amt
}
