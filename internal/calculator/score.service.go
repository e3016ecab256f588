package calculator

import (
	"fmt"
	"math"
	"sort"

	"stockalloc/internal/domain"

	"github.com/montanaflynn/stats"
)

// below this the score sum is treated as zero
const scoreSumEpsilon = 1e-12

type ScoreInput struct {
	Candidates []domain.Candidate
	// RoeWeight in [0,1]; PER gets 1-RoeWeight
	RoeWeight float64
	// Expression optionally replaces the default
	// normRoe*roeWeight - normPer*(1-roeWeight) formula
	Expression string
}

// Score min-max normalises ROE and PER over the given candidates, combines
// them into a score, derives weights relative to the score sum and ranks
// the result by descending score, then symbol.
func Score(in ScoreInput) (*domain.ScoredSet, error) {
	if math.IsNaN(in.RoeWeight) || in.RoeWeight < 0 || in.RoeWeight > 1 {
		return nil, fmt.Errorf("%w: roe weight must be in [0,1], got %f", domain.ErrInvalidInput, in.RoeWeight)
	}

	out := &domain.ScoredSet{
		Candidates: []domain.ScoredCandidate{},
		RoeWeight:  in.RoeWeight,
		Warnings:   []domain.Warning{},
	}
	if len(in.Candidates) == 0 {
		out.Degenerate = true
		out.Warnings = append(out.Warnings, domain.NewWarning(domain.WarningDegenerateScoring, "", "no candidates to score"))
		return out, nil
	}

	seen := map[string]bool{}
	roes := make(stats.Float64Data, 0, len(in.Candidates))
	pers := make(stats.Float64Data, 0, len(in.Candidates))
	for _, c := range in.Candidates {
		if seen[c.Symbol] {
			return nil, fmt.Errorf("%w: duplicate candidate %s", domain.ErrInvalidInput, c.Symbol)
		}
		seen[c.Symbol] = true
		if !isFinite(c.ReturnOnEquity) || !isFinite(c.PriceToEarnings) {
			return nil, fmt.Errorf("%w: non-finite fundamentals for %s", domain.ErrInvalidInput, c.Symbol)
		}
		roes = append(roes, c.ReturnOnEquity)
		pers = append(pers, c.PriceToEarnings)
	}

	normROE, roeDegenerate, err := minMaxNormalize(roes)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize ROE: %w", err)
	}
	if roeDegenerate {
		out.Warnings = append(out.Warnings, domain.NewWarning(domain.WarningZeroVariance, "", "ROE is constant across %d candidate(s); normalized ROE set to 0", len(roes)))
	}
	normPER, perDegenerate, err := minMaxNormalize(pers)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize PER: %w", err)
	}
	if perDegenerate {
		out.Warnings = append(out.Warnings, domain.NewWarning(domain.WarningZeroVariance, "", "PER is constant across %d candidate(s); normalized PER set to 0", len(pers)))
	}

	var evaluator *ExpressionEvaluator
	if in.Expression != "" {
		evaluator = NewExpressionEvaluator(in.Expression)
	}

	scores := make(stats.Float64Data, 0, len(in.Candidates))
	for i, c := range in.Candidates {
		sc := domain.ScoredCandidate{
			Candidate:     c,
			NormalizedROE: normROE[i],
			NormalizedPER: normPER[i],
		}
		if evaluator == nil {
			sc.Score = sc.NormalizedROE*in.RoeWeight - sc.NormalizedPER*(1-in.RoeWeight)
		} else {
			sc.Score, err = evaluator.Evaluate(ExpressionVariables{
				NormROE:   sc.NormalizedROE,
				NormPER:   sc.NormalizedPER,
				ROE:       c.ReturnOnEquity,
				PER:       c.PriceToEarnings,
				RoeWeight: in.RoeWeight,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to score %s: %w", c.Symbol, err)
			}
		}
		scores = append(scores, sc.Score)
		out.Candidates = append(out.Candidates, sc)
	}

	sum, err := stats.Sum(scores)
	if err != nil {
		return nil, fmt.Errorf("failed to sum scores: %w", err)
	}
	if math.Abs(sum) < scoreSumEpsilon {
		out.Degenerate = true
		out.Warnings = append(out.Warnings, domain.NewWarning(domain.WarningDegenerateScoring, "", "score sum is zero over %d candidate(s); all weights set to 0", len(scores)))
	} else {
		for i := range out.Candidates {
			out.Candidates[i].Weight = out.Candidates[i].Score / sum
		}
	}

	Rank(out.Candidates)

	return out, nil
}

// Rank orders candidates by descending score with ties broken by symbol,
// and assigns 1-based ranks.
func Rank(candidates []domain.ScoredCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Symbol < candidates[j].Symbol
	})
	for i := range candidates {
		candidates[i].Rank = i + 1
	}
}

// minMaxNormalize maps min to 0 and max to 1. A constant column maps to
// all zeros and reports degenerate.
func minMaxNormalize(data stats.Float64Data) ([]float64, bool, error) {
	min, err := stats.Min(data)
	if err != nil {
		return nil, false, err
	}
	max, err := stats.Max(data)
	if err != nil {
		return nil, false, err
	}

	out := make([]float64, len(data))
	if max == min {
		return out, true, nil
	}
	spread := max - min
	for i, v := range data {
		switch v {
		case min:
			out[i] = 0
		case max:
			out[i] = 1
		default:
			out[i] = (v - min) / spread
		}
	}
	return out, false, nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
