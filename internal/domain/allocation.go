package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type AllocationMode string

const (
	AllocationModeEqualSplit    AllocationMode = "EqualSplit"
	AllocationModeScoreWeighted AllocationMode = "ScoreWeighted"
	AllocationModeGreedyFill    AllocationMode = "GreedyFill"
)

func (m AllocationMode) Valid() bool {
	switch m {
	case AllocationModeEqualSplit, AllocationModeScoreWeighted, AllocationModeGreedyFill:
		return true
	}
	return false
}

// ParseAllocationMode accepts mode names case-insensitively.
func ParseAllocationMode(s string) (AllocationMode, error) {
	for _, m := range []AllocationMode{AllocationModeEqualSplit, AllocationModeScoreWeighted, AllocationModeGreedyFill} {
		if strings.EqualFold(string(m), strings.TrimSpace(s)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: unknown allocation mode %q (want EqualSplit, ScoreWeighted or GreedyFill)", ErrInvalidInput, s)
}

type SkipReason string

const (
	SkipReasonNone              SkipReason = ""
	SkipReasonPriceUnavailable  SkipReason = "PriceUnavailable"
	SkipReasonUnaffordable      SkipReason = "Unaffordable"
	SkipReasonNonPositiveWeight SkipReason = "NonPositiveWeight"
	SkipReasonPositionLimit     SkipReason = "PositionLimit"
	SkipReasonDegenerateScoring SkipReason = "DegenerateScoring"
)

// AllocationEntry is the decision for one ranked candidate. Entries with
// zero units carry the reason they were skipped.
type AllocationEntry struct {
	Symbol     string
	Rank       int
	Score      float64
	Weight     float64
	UnitsToBuy int64
	UnitPrice  *decimal.Decimal
	// Allocated is the amount earmarked for the candidate before rounding
	// down to whole units
	Allocated  decimal.Decimal
	Spent      decimal.Decimal
	SkipReason SkipReason
	Quality    DataQuality
}

type AllocationResult struct {
	Mode     AllocationMode
	Budget   decimal.Decimal
	Entries  []AllocationEntry
	Leftover decimal.Decimal
	Warnings []Warning
}

// Purchases is the recommended view: entries with at least one unit, in
// ranked order.
func (r AllocationResult) Purchases() []AllocationEntry {
	out := []AllocationEntry{}
	for _, e := range r.Entries {
		if e.UnitsToBuy >= 1 {
			out = append(out, e)
		}
	}
	return out
}

// Skipped is the view of candidates that received no units.
func (r AllocationResult) Skipped() []AllocationEntry {
	out := []AllocationEntry{}
	for _, e := range r.Entries {
		if e.UnitsToBuy < 1 {
			out = append(out, e)
		}
	}
	return out
}

func (r AllocationResult) TotalSpent() decimal.Decimal {
	total := decimal.Zero
	for _, e := range r.Entries {
		total = total.Add(e.Spent)
	}
	return total
}
