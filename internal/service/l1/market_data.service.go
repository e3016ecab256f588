package l1_service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"stockalloc/internal/domain"
	"stockalloc/internal/logger"
	"stockalloc/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

/**

behavior - lookups go out in batches of BatchSize, with BatchInterval between
batches. the whole fetch is capped by TimeBudget; whatever was not fetched
by then is treated as unavailable instead of blocking the run.

a failure for one symbol never aborts the rest. after BreakerThreshold
consecutive failures the breaker opens and remaining lookups fail fast.

*/

var errLookupBudgetExceeded = errors.New("lookup time budget exceeded")

type MarketDataConfig struct {
	BatchSize        int
	BatchInterval    time.Duration
	TimeBudget       time.Duration
	BreakerThreshold uint32
	MissingROE       float64
	MissingPER       float64
}

type MarketDataService interface {
	FetchCandidates(ctx context.Context, symbols []string) (*FetchCandidatesResult, error)
	FetchPrices(ctx context.Context, symbols []string) (*FetchPricesResult, error)
}

type FetchCandidatesResult struct {
	Candidates []domain.Candidate
	Warnings   []domain.Warning
}

type FetchPricesResult struct {
	Prices   map[string]decimal.Decimal
	Warnings []domain.Warning
}

type marketDataServiceHandler struct {
	QuoteRepository repository.QuoteRepository
	Config          MarketDataConfig
}

func NewMarketDataService(quoteRepository repository.QuoteRepository, config MarketDataConfig) MarketDataService {
	if config.BatchSize < 1 {
		config.BatchSize = 1
	}
	return marketDataServiceHandler{
		QuoteRepository: quoteRepository,
		Config:          config,
	}
}

type quoteOutcome struct {
	quote *domain.Quote
	err   error
}

// FetchCandidates looks up every symbol and substitutes the configured
// defaults for missing fundamentals. Each substitution is flagged on the
// candidate and reported as a warning.
func (h marketDataServiceHandler) FetchCandidates(ctx context.Context, symbols []string) (*FetchCandidatesResult, error) {
	symbols = normalizeSymbols(symbols)
	if len(symbols) == 0 {
		return nil, domain.ErrEmptyUniverse
	}

	outcomes, warnings := h.fetchQuotes(ctx, symbols)

	candidates := make([]domain.Candidate, 0, len(symbols))
	for _, symbol := range symbols {
		c, w := h.buildCandidate(symbol, outcomes[symbol])
		candidates = append(candidates, c)
		warnings = append(warnings, w...)
	}

	return &FetchCandidatesResult{
		Candidates: candidates,
		Warnings:   warnings,
	}, nil
}

// FetchPrices only resolves current prices, for held symbols that are
// not part of the scored universe.
func (h marketDataServiceHandler) FetchPrices(ctx context.Context, symbols []string) (*FetchPricesResult, error) {
	symbols = normalizeSymbols(symbols)
	out := &FetchPricesResult{
		Prices:   map[string]decimal.Decimal{},
		Warnings: []domain.Warning{},
	}
	if len(symbols) == 0 {
		return out, nil
	}

	outcomes, warnings := h.fetchQuotes(ctx, symbols)
	out.Warnings = append(out.Warnings, warnings...)
	for _, symbol := range symbols {
		o := outcomes[symbol]
		if o.err != nil {
			out.Warnings = append(out.Warnings, domain.NewWarning(domain.WarningCollaboratorUnavailable, symbol, "%s", o.err.Error()))
		}
		if p := validPrice(o.quote); p != nil {
			out.Prices[symbol] = *p
		} else {
			out.Warnings = append(out.Warnings, domain.NewWarning(domain.WarningPriceUnavailable, symbol, "current price unavailable"))
		}
	}
	return out, nil
}

func (h marketDataServiceHandler) fetchQuotes(ctx context.Context, symbols []string) (map[string]quoteOutcome, []domain.Warning) {
	log := logger.FromContext(ctx)

	if h.Config.TimeBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Config.TimeBudget)
		defer cancel()
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if h.Config.BatchInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(h.Config.BatchInterval), 1)
	}
	breaker := newQuoteBreaker(h.Config.BreakerThreshold)

	out := map[string]quoteOutcome{}
	warnings := []domain.Warning{}

	for i, symbol := range symbols {
		err := ctx.Err()
		if err == nil && i%h.Config.BatchSize == 0 {
			err = limiter.Wait(ctx)
		}
		if err != nil {
			skipped := symbols[i:]
			for _, s := range skipped {
				out[s] = quoteOutcome{err: fmt.Errorf("%w: %v", errLookupBudgetExceeded, err)}
			}
			log.Warnw("stopped issuing quote lookups", "skipped", skipped, "error", err)
			warnings = append(warnings, domain.NewWarning(
				domain.WarningLookupBudgetExceeded,
				"",
				"stopped after %d of %d lookups; not fetched: %s", i, len(symbols), strings.Join(skipped, ", "),
			))
			break
		}

		res, err := breaker.Execute(func() (interface{}, error) {
			q, err := h.QuoteRepository.GetQuote(ctx, symbol)
			if err != nil {
				return nil, err
			}
			if q == nil {
				return nil, fmt.Errorf("%w: %s", repository.ErrQuoteNotFound, symbol)
			}
			return q, nil
		})
		if err != nil {
			log.Warnw("quote lookup failed", "symbol", symbol, "error", err)
			out[symbol] = quoteOutcome{err: err}
			continue
		}
		out[symbol] = quoteOutcome{quote: res.(*domain.Quote)}
	}

	return out, warnings
}

func newQuoteBreaker(threshold uint32) *gobreaker.CircuitBreaker {
	st := gobreaker.Settings{
		Name:    "quotes",
		Timeout: 60 * time.Second,
	}
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return threshold > 0 && counts.ConsecutiveFailures >= threshold
	}
	return gobreaker.NewCircuitBreaker(st)
}

func (h marketDataServiceHandler) buildCandidate(symbol string, o quoteOutcome) (domain.Candidate, []domain.Warning) {
	warnings := []domain.Warning{}
	c := domain.Candidate{
		Symbol: symbol,
	}

	if o.err != nil {
		c.Quality.FetchError = o.err.Error()
		warnings = append(warnings, domain.NewWarning(domain.WarningCollaboratorUnavailable, symbol, "%s", o.err.Error()))
	}

	substituted := []string{}
	if o.quote != nil && o.quote.ReturnOnEquity != nil && isFinite(*o.quote.ReturnOnEquity) {
		c.ReturnOnEquity = *o.quote.ReturnOnEquity
	} else {
		c.ReturnOnEquity = h.Config.MissingROE
		c.Quality.DefaultROE = true
		substituted = append(substituted, fmt.Sprintf("ROE=%g", h.Config.MissingROE))
	}
	if o.quote != nil && o.quote.PriceToEarnings != nil && isFinite(*o.quote.PriceToEarnings) {
		c.PriceToEarnings = *o.quote.PriceToEarnings
	} else {
		c.PriceToEarnings = h.Config.MissingPER
		c.Quality.DefaultPER = true
		substituted = append(substituted, fmt.Sprintf("PER=%g", h.Config.MissingPER))
	}
	if len(substituted) > 0 {
		warnings = append(warnings, domain.NewWarning(domain.WarningDefaultSubstituted, symbol, "substituted default %s", strings.Join(substituted, ", ")))
	}

	if p := validPrice(o.quote); p != nil {
		c.UnitPrice = p
	} else {
		c.Quality.MissingPrice = true
		warnings = append(warnings, domain.NewWarning(domain.WarningPriceUnavailable, symbol, "no price; scored but excluded from allocation"))
	}

	return c, warnings
}

func validPrice(q *domain.Quote) *decimal.Decimal {
	if q == nil || q.UnitPrice == nil || !q.UnitPrice.IsPositive() {
		return nil
	}
	p := *q.UnitPrice
	return &p
}

func normalizeSymbols(symbols []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
