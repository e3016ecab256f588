package domain

import "fmt"

type WarningKind string

const (
	WarningCollaboratorUnavailable WarningKind = "CollaboratorUnavailable"
	WarningDefaultSubstituted      WarningKind = "DefaultSubstituted"
	WarningPriceUnavailable        WarningKind = "PriceUnavailable"
	WarningDegenerateScoring       WarningKind = "DegenerateScoring"
	WarningZeroVariance            WarningKind = "ZeroVariance"
	WarningRateLookupFailure       WarningKind = "RateLookupFailure"
	WarningLookupBudgetExceeded    WarningKind = "LookupBudgetExceeded"
)

// Warning is a recovered condition that must stay visible in the output
// because it biases the score or the budget math.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Symbol  string      `json:"symbol,omitempty"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	if w.Symbol == "" {
		return fmt.Sprintf("[%s] %s", w.Kind, w.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", w.Kind, w.Symbol, w.Message)
}

func NewWarning(kind WarningKind, symbol string, format string, args ...interface{}) Warning {
	return Warning{
		Kind:    kind,
		Symbol:  symbol,
		Message: fmt.Sprintf(format, args...),
	}
}

// DedupeWarnings keeps the first warning of each kind per symbol, in
// order. Warnings without a symbol are only merged when their messages
// match too.
func DedupeWarnings(warnings []Warning) []Warning {
	type key struct {
		kind    WarningKind
		symbol  string
		message string
	}
	seen := map[key]bool{}
	out := []Warning{}
	for _, w := range warnings {
		k := key{kind: w.Kind, symbol: w.Symbol}
		if w.Symbol == "" {
			k.message = w.Message
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, w)
	}
	return out
}
