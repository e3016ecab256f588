package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

type RebalanceResult struct {
	TargetSymbols []string
	ToBuy         AllocationResult
	ToSell        []Position
	Retained      []Position
	// UnrealizedPnL is keyed by held symbol in local currency. A nil value
	// means the current price is unknown.
	UnrealizedPnL map[string]*decimal.Decimal
	// CurrentPrices holds the base currency price of every priced held or
	// target symbol
	CurrentPrices map[string]decimal.Decimal
	Warnings      []Warning
}

// TotalUnrealizedPnL sums the known PnL values. complete is false when at
// least one held symbol has an unknown PnL.
func (r RebalanceResult) TotalUnrealizedPnL() (total decimal.Decimal, complete bool) {
	total = decimal.Zero
	complete = true
	for _, pnl := range r.UnrealizedPnL {
		if pnl == nil {
			complete = false
			continue
		}
		total = total.Add(*pnl)
	}
	return total, complete
}

func (r RebalanceResult) ProposedTrades() []ProposedTrade {
	trades := []ProposedTrade{}
	for _, e := range r.ToBuy.Purchases() {
		trades = append(trades, ProposedTrade{
			Symbol:        e.Symbol,
			Side:          TradeSideBuy,
			Units:         e.UnitsToBuy,
			ExpectedPrice: e.UnitPrice,
		})
	}
	for _, p := range r.ToSell {
		t := ProposedTrade{
			Symbol: p.Symbol,
			Side:   TradeSideSell,
			Units:  p.UnitsHeld,
		}
		if price, ok := r.CurrentPrices[p.Symbol]; ok {
			t.ExpectedPrice = &price
		}
		trades = append(trades, t)
	}
	sort.SliceStable(trades, func(i, j int) bool {
		if trades[i].Side != trades[j].Side {
			return trades[i].Side == TradeSideSell
		}
		return false
	})
	return trades
}
