package domain

import (
	"github.com/shopspring/decimal"
)

// Candidate is one instrument of the universe as returned by the quote
// collaborator, after default substitution.
type Candidate struct {
	Symbol          string
	ReturnOnEquity  float64 // percent
	PriceToEarnings float64
	// nil when the collaborator could not provide a price; such a
	// candidate is still scored but never allocated
	UnitPrice *decimal.Decimal
	Quality   DataQuality
}

func (c Candidate) HasPrice() bool {
	return c.UnitPrice != nil
}

// IsBuyable reports whether the candidate has a positive unit price.
func (c Candidate) IsBuyable() bool {
	return c.HasPrice() && c.UnitPrice.IsPositive()
}

// DataQuality records which values of a candidate are not real
// collaborator data.
type DataQuality struct {
	DefaultROE   bool   `json:"defaultRoe,omitempty"`
	DefaultPER   bool   `json:"defaultPer,omitempty"`
	MissingPrice bool   `json:"missingPrice,omitempty"`
	FetchError   string `json:"fetchError,omitempty"`
}

func (q DataQuality) IsClean() bool {
	return !q.DefaultROE && !q.DefaultPER && !q.MissingPrice && q.FetchError == ""
}

// Quote is the raw answer of the quote collaborator for one symbol. Any
// field may be absent.
type Quote struct {
	Symbol          string
	UnitPrice       *decimal.Decimal
	ReturnOnEquity  *float64
	PriceToEarnings *float64
}

type ScoredCandidate struct {
	Candidate
	NormalizedROE float64
	NormalizedPER float64
	Score         float64
	// Weight is score / Σscore over the co-scored set
	Weight float64
	Rank   int
}

// ScoredSet is the ranked output of the scorer. Scores and weights only
// have meaning relative to the other members of the same set.
type ScoredSet struct {
	Candidates []ScoredCandidate
	RoeWeight  float64
	// Degenerate is set when Σscore == 0; every weight is then 0
	Degenerate bool
	Warnings   []Warning
}

func (s ScoredSet) Symbols() []string {
	out := make([]string, 0, len(s.Candidates))
	for _, c := range s.Candidates {
		out = append(out, c.Symbol)
	}
	return out
}

func (s ScoredSet) Get(symbol string) (ScoredCandidate, bool) {
	for _, c := range s.Candidates {
		if c.Symbol == symbol {
			return c, true
		}
	}
	return ScoredCandidate{}, false
}

// TopBuyable returns the first n ranked candidates that have a price,
// skipping the ones that could never be bought.
func (s ScoredSet) TopBuyable(n int) []ScoredCandidate {
	out := []ScoredCandidate{}
	for _, c := range s.Candidates {
		if len(out) >= n {
			break
		}
		if c.IsBuyable() {
			out = append(out, c)
		}
	}
	return out
}
