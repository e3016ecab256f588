package l2_service

import (
	"fmt"

	"stockalloc/internal/domain"

	"github.com/shopspring/decimal"
)

type AllocateInput struct {
	Ranked       domain.ScoredSet
	Budget       decimal.Decimal
	MaxPositions int
	Mode         domain.AllocationMode
}

// Allocate turns a ranked candidate set and a cash budget into whole-unit
// buy decisions. Every ranked candidate gets an entry, in ranked order;
// candidates that receive no units carry a skip reason. The total spent
// never exceeds the budget.
func Allocate(in AllocateInput) (*domain.AllocationResult, error) {
	if in.Budget.IsNegative() {
		return nil, fmt.Errorf("%w: budget must be >= 0, got %s", domain.ErrInvalidInput, in.Budget.String())
	}
	if in.MaxPositions < 1 {
		return nil, fmt.Errorf("%w: max positions must be >= 1, got %d", domain.ErrInvalidInput, in.MaxPositions)
	}
	if !in.Mode.Valid() {
		return nil, fmt.Errorf("%w: unknown allocation mode %q", domain.ErrInvalidInput, in.Mode)
	}

	result := &domain.AllocationResult{
		Mode:     in.Mode,
		Budget:   in.Budget,
		Entries:  make([]domain.AllocationEntry, 0, len(in.Ranked.Candidates)),
		Leftover: in.Budget,
		Warnings: []domain.Warning{},
	}

	for _, c := range in.Ranked.Candidates {
		result.Entries = append(result.Entries, newEntry(c))
	}

	if in.Ranked.Degenerate {
		for i := range result.Entries {
			result.Entries[i].SkipReason = domain.SkipReasonDegenerateScoring
		}
		result.Warnings = append(result.Warnings, domain.NewWarning(
			domain.WarningDegenerateScoring, "", "scores are degenerate; nothing allocated",
		))
		return result, nil
	}

	for i, c := range in.Ranked.Candidates {
		if !isPriced(c) {
			result.Entries[i].SkipReason = domain.SkipReasonPriceUnavailable
			result.Warnings = append(result.Warnings, domain.NewWarning(
				domain.WarningPriceUnavailable, c.Symbol, "no price available; excluded from allocation",
			))
		}
	}

	switch in.Mode {
	case domain.AllocationModeGreedyFill:
		result.Leftover = greedyFill(result.Entries, in.Budget, in.MaxPositions)
	default:
		result.Leftover = splitBudget(result.Entries, in.Budget, in.MaxPositions, in.Mode)
	}

	return result, nil
}

func newEntry(c domain.ScoredCandidate) domain.AllocationEntry {
	return domain.AllocationEntry{
		Symbol:    c.Symbol,
		Rank:      c.Rank,
		Score:     c.Score,
		Weight:    c.Weight,
		UnitPrice: c.UnitPrice,
		Allocated: decimal.Zero,
		Spent:     decimal.Zero,
		Quality:   c.Quality,
	}
}

func isPriced(c domain.ScoredCandidate) bool {
	return c.IsBuyable()
}

// splitBudget earmarks a share of the budget for each of the top-N priced
// entries (equal or score weighted) and buys whole units within that
// share. Per-entry leftovers are not redistributed.
func splitBudget(entries []domain.AllocationEntry, budget decimal.Decimal, maxPositions int, mode domain.AllocationMode) decimal.Decimal {
	top := []int{}
	for i, e := range entries {
		if e.SkipReason != domain.SkipReasonNone {
			continue
		}
		if len(top) >= maxPositions {
			entries[i].SkipReason = domain.SkipReasonPositionLimit
			continue
		}
		top = append(top, i)
	}
	if len(top) == 0 {
		return budget
	}

	// weight/Σweight over the top-N equals score/Σscore over the top-N, so
	// the split works on scores and the sign of the universe-wide sum
	// drops out. Only positive scores take part.
	positiveScoreSum := decimal.Zero
	if mode == domain.AllocationModeScoreWeighted {
		for _, i := range top {
			if entries[i].Score > 0 {
				positiveScoreSum = positiveScoreSum.Add(decimal.NewFromFloat(entries[i].Score))
			}
		}
	}

	remaining := budget
	for _, i := range top {
		var share decimal.Decimal
		switch mode {
		case domain.AllocationModeEqualSplit:
			share = budget.Div(decimal.NewFromInt(int64(len(top))))
		case domain.AllocationModeScoreWeighted:
			if entries[i].Score <= 0 || !positiveScoreSum.IsPositive() {
				entries[i].SkipReason = domain.SkipReasonNonPositiveWeight
				continue
			}
			share = budget.Mul(decimal.NewFromFloat(entries[i].Score)).Div(positiveScoreSum)
		}
		entries[i].Allocated = share

		remaining = buy(&entries[i], share, remaining)
	}
	return remaining
}

// greedyFill walks the ranked entries, buying as many units of each as
// the running budget allows, until maxPositions purchases were made.
func greedyFill(entries []domain.AllocationEntry, budget decimal.Decimal, maxPositions int) decimal.Decimal {
	remaining := budget
	purchases := 0
	for i, e := range entries {
		if e.SkipReason != domain.SkipReasonNone {
			continue
		}
		if purchases >= maxPositions {
			entries[i].SkipReason = domain.SkipReasonPositionLimit
			continue
		}
		entries[i].Allocated = remaining
		remaining = buy(&entries[i], remaining, remaining)
		if entries[i].UnitsToBuy >= 1 {
			purchases++
		}
	}
	return remaining
}

// buy commits floor(amount/price) units, capped by what the running budget
// can still pay for, and returns the new remaining budget.
func buy(e *domain.AllocationEntry, amount, remaining decimal.Decimal) decimal.Decimal {
	price := *e.UnitPrice
	units := wholeUnits(amount, price)
	if affordable := wholeUnits(remaining, price); affordable < units {
		units = affordable
	}
	if units < 1 {
		e.SkipReason = domain.SkipReasonUnaffordable
		return remaining
	}
	e.UnitsToBuy = units
	e.Spent = price.Mul(decimal.NewFromInt(units))
	return remaining.Sub(e.Spent)
}

func wholeUnits(amount, price decimal.Decimal) int64 {
	if !amount.IsPositive() {
		return 0
	}
	return amount.Div(price).Floor().IntPart()
}
