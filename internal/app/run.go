package app

import (
	"context"
	"time"

	"stockalloc/internal/calculator"
	"stockalloc/internal/domain"
	"stockalloc/internal/logger"
	l1_service "stockalloc/internal/service/l1"
	"stockalloc/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Run identifies one invocation. Every log line of the invocation carries
// the run id.
type Run struct {
	ID      uuid.UUID
	Date    time.Time
	Profile *domain.Profile
}

func startRun(ctx context.Context, now time.Time, name string) (context.Context, Run, func()) {
	run := Run{
		ID:   uuid.New(),
		Date: util.Today(now),
	}
	profile, endProfile := domain.NewProfile()
	run.Profile = profile

	log := logger.FromContext(ctx).With("runID", run.ID.String(), "op", name)
	ctx = logger.WithLogger(ctx, log)
	ctx = domain.ContextWithProfile(ctx, profile)

	log.Infow("starting run", "date", run.Date.Format(util.DateLayout))
	return ctx, run, func() {
		endProfile()
		log.Infow("finished run", "totalMs", *profile.TotalMs)
	}
}

type scoredUniverse struct {
	Scored   *domain.ScoredSet
	Rate     l1_service.RateResult
	Warnings []domain.Warning
}

type scoreUniverseInput struct {
	Symbols       []string
	RoeWeight     float64
	Expression    string
	BaseCurrency  string
	LocalCurrency string
}

// scoreUniverse is the fetch -> rate -> score pipeline shared by both
// operations.
func scoreUniverse(
	ctx context.Context,
	marketDataService l1_service.MarketDataService,
	exchangeRateService l1_service.ExchangeRateService,
	in scoreUniverseInput,
) (*scoredUniverse, error) {
	profile := domain.ProfileFromContext(ctx)
	log := logger.FromContext(ctx)
	out := &scoredUniverse{
		Warnings: []domain.Warning{},
	}

	_, endSpan := profile.StartNewSpan("fetch candidates")
	fetched, err := marketDataService.FetchCandidates(ctx, in.Symbols)
	endSpan()
	if err != nil {
		return nil, err
	}
	out.Warnings = append(out.Warnings, fetched.Warnings...)

	_, endSpan = profile.StartNewSpan("exchange rate")
	rate, err := exchangeRateService.GetRate(ctx, in.BaseCurrency, in.LocalCurrency)
	endSpan()
	if err != nil {
		return nil, err
	}
	out.Rate = *rate
	if rate.Warning != nil {
		out.Warnings = append(out.Warnings, *rate.Warning)
	}

	_, endSpan = profile.StartNewSpan("score")
	scored, err := calculator.Score(calculator.ScoreInput{
		Candidates: fetched.Candidates,
		RoeWeight:  in.RoeWeight,
		Expression: in.Expression,
	})
	endSpan()
	if err != nil {
		return nil, err
	}
	out.Scored = scored
	out.Warnings = append(out.Warnings, scored.Warnings...)

	if scored.Degenerate {
		log.Warnw("degenerate scoring", "symbols", scored.Symbols())
	}

	return out, nil
}

// toBaseCurrency converts a local currency amount with the run's rate,
// truncated to cents so the converted budget never exceeds the input.
func toBaseCurrency(amount decimal.Decimal, rate decimal.Decimal) decimal.Decimal {
	return amount.Div(rate).Truncate(2)
}

// positionsFromPurchases records every purchase of an allocation as a new
// position, with the fundamentals and rate it was bought at.
func positionsFromPurchases(allocation domain.AllocationResult, scored domain.ScoredSet, date time.Time, rate decimal.Decimal) []domain.Position {
	positions := []domain.Position{}
	for _, e := range allocation.Purchases() {
		p := domain.Position{
			Symbol:               e.Symbol,
			UnitsHeld:            e.UnitsToBuy,
			PurchaseUnitPrice:    *e.UnitPrice,
			PurchaseDate:         date,
			PurchaseScore:        e.Score,
			PurchaseExchangeRate: rate,
		}
		if c, ok := scored.Get(e.Symbol); ok {
			p.PurchaseROE = c.ReturnOnEquity
			p.PurchasePER = c.PriceToEarnings
		}
		positions = append(positions, p)
	}
	return positions
}
