package l3_service

import (
	"fmt"

	"stockalloc/internal/domain"
	l2_service "stockalloc/internal/service/l2"

	"github.com/shopspring/decimal"
)

type RebalanceInput struct {
	Ranked domain.ScoredSet
	Held   domain.Holdings
	TopN   int
	// AdditionalBudget is in base currency
	AdditionalBudget decimal.Decimal
	// defaults to ScoreWeighted
	Mode                domain.AllocationMode
	CurrentExchangeRate decimal.Decimal
	// HeldPrices prices held symbols that are not part of the ranked set
	HeldPrices map[string]decimal.Decimal
}

// Rebalance compares the held positions against the top-N priced
// candidates of a freshly ranked set. Target symbols that are not held are bought with the
// additional budget; held symbols outside the target set are proposed
// for a full exit. A held symbol without a current price has an unknown
// PnL and is always retained.
func Rebalance(in RebalanceInput) (*domain.RebalanceResult, error) {
	if in.TopN < 1 {
		return nil, fmt.Errorf("%w: top n must be >= 1, got %d", domain.ErrInvalidInput, in.TopN)
	}
	if in.AdditionalBudget.IsNegative() {
		return nil, fmt.Errorf("%w: additional budget must be >= 0, got %s", domain.ErrInvalidInput, in.AdditionalBudget.String())
	}
	if !in.CurrentExchangeRate.IsPositive() {
		return nil, fmt.Errorf("%w: exchange rate must be > 0, got %s", domain.ErrInvalidInput, in.CurrentExchangeRate.String())
	}
	mode := in.Mode
	if mode == "" {
		mode = domain.AllocationModeScoreWeighted
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: unknown allocation mode %q", domain.ErrInvalidInput, mode)
	}

	result := &domain.RebalanceResult{
		TargetSymbols: []string{},
		ToBuy:         emptyAllocation(mode, in.AdditionalBudget),
		ToSell:        []domain.Position{},
		Retained:      []domain.Position{},
		UnrealizedPnL: map[string]*decimal.Decimal{},
		CurrentPrices: currentPrices(in.Ranked, in.HeldPrices),
		Warnings:      []domain.Warning{},
	}

	for _, symbol := range in.Held.HeldSymbols() {
		pnl, ok := symbolPnL(in.Held, symbol, result.CurrentPrices, in.CurrentExchangeRate)
		if !ok {
			result.UnrealizedPnL[symbol] = nil
			result.Warnings = append(result.Warnings, domain.NewWarning(
				domain.WarningPriceUnavailable, symbol, "current price unknown; PnL unknown and position retained",
			))
			continue
		}
		result.UnrealizedPnL[symbol] = &pnl
	}

	if in.Ranked.Degenerate {
		result.Retained = append(result.Retained, in.Held...)
		result.Warnings = append(result.Warnings, domain.NewWarning(
			domain.WarningDegenerateScoring, "", "scores are degenerate; no buy or sell proposed",
		))
		return result, nil
	}

	// an unpriced candidate cannot be bought, so it never displaces a
	// held position from the target set
	targets := in.Ranked.TopBuyable(in.TopN)
	target := map[string]bool{}
	for _, c := range targets {
		target[c.Symbol] = true
		result.TargetSymbols = append(result.TargetSymbols, c.Symbol)
	}

	for _, p := range in.Held {
		_, priced := result.CurrentPrices[p.Symbol]
		if target[p.Symbol] || !priced {
			result.Retained = append(result.Retained, p)
		} else {
			result.ToSell = append(result.ToSell, p)
		}
	}

	buySet := domain.ScoredSet{
		Candidates: []domain.ScoredCandidate{},
		RoeWeight:  in.Ranked.RoeWeight,
	}
	for _, c := range targets {
		if !in.Held.Holds(c.Symbol) {
			buySet.Candidates = append(buySet.Candidates, c)
		}
	}
	if len(buySet.Candidates) == 0 {
		return result, nil
	}

	toBuy, err := l2_service.Allocate(l2_service.AllocateInput{
		Ranked:       buySet,
		Budget:       in.AdditionalBudget,
		MaxPositions: len(buySet.Candidates),
		Mode:         mode,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to allocate additional budget: %w", err)
	}
	result.ToBuy = *toBuy

	return result, nil
}

func emptyAllocation(mode domain.AllocationMode, budget decimal.Decimal) domain.AllocationResult {
	return domain.AllocationResult{
		Mode:     mode,
		Budget:   budget,
		Entries:  []domain.AllocationEntry{},
		Leftover: budget,
		Warnings: []domain.Warning{},
	}
}

func currentPrices(ranked domain.ScoredSet, heldPrices map[string]decimal.Decimal) map[string]decimal.Decimal {
	out := map[string]decimal.Decimal{}
	for symbol, price := range heldPrices {
		if price.IsPositive() {
			out[symbol] = price
		}
	}
	for _, c := range ranked.Candidates {
		if c.UnitPrice != nil && c.UnitPrice.IsPositive() {
			out[c.Symbol] = *c.UnitPrice
		}
	}
	return out
}

// symbolPnL sums the PnL of every position of a symbol, since a record
// can carry more than one lot per symbol.
func symbolPnL(held domain.Holdings, symbol string, prices map[string]decimal.Decimal, rate decimal.Decimal) (decimal.Decimal, bool) {
	price, ok := prices[symbol]
	if !ok {
		return decimal.Zero, false
	}
	total := decimal.Zero
	for _, p := range held {
		if p.Symbol == symbol {
			total = total.Add(p.UnrealizedPnL(price, rate))
		}
	}
	return total, true
}
