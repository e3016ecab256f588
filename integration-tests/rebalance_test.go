package integration_tests

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"stockalloc/internal/app"
	"stockalloc/internal/domain"
	"stockalloc/internal/logger"
	"stockalloc/internal/repository"
	l1_service "stockalloc/internal/service/l1"
	"stockalloc/internal/util"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var universe = []string{"NVDA", "AMD", "AVGO", "ASML", "SMCI"}

func f(v float64) *float64 {
	return &v
}

func marketDataService(quotes map[string]scriptedQuote) l1_service.MarketDataService {
	return l1_service.NewMarketDataService(NewScriptedQuoteRepository(quotes), l1_service.MarketDataConfig{
		BatchSize:        2,
		TimeBudget:       5 * time.Second,
		BreakerThreshold: 3,
		MissingROE:       0,
		MissingPER:       100,
	})
}

func exchangeRateService(rate float64, err error) l1_service.ExchangeRateService {
	return l1_service.NewExchangeRateService(
		NewScriptedExchangeRateRepository(rate, err),
		decimal.NewFromFloat(152.80),
	)
}

type positionSummary struct {
	Symbol string
	Units  int64
	Price  string
	Date   string
	Rate   string
}

func summarize(positions []domain.Position) []positionSummary {
	out := []positionSummary{}
	for _, p := range positions {
		out = append(out, positionSummary{
			Symbol: p.Symbol,
			Units:  p.UnitsHeld,
			Price:  p.PurchaseUnitPrice.String(),
			Date:   p.PurchaseDate.Format(util.DateLayout),
			Rate:   p.PurchaseExchangeRate.String(),
		})
	}
	return out
}

// allocate on day one, then rebalance on day two against the exported
// record while one held symbol cannot be priced
func TestAllocateThenRebalance(t *testing.T) {
	ctx := logger.WithLogger(context.Background(), zap.NewNop().Sugar())
	records := repository.NewPositionRecordRepository()
	recordPath := filepath.Join(t.TempDir(), "positions.csv")

	dayOne := app.AllocateHandler{
		MarketDataService: marketDataService(map[string]scriptedQuote{
			"NVDA": {Price: f(180), ROE: f(90), PER: f(50)},
			"AMD":  {Price: f(150), ROE: f(10), PER: f(120)},
			"AVGO": {Price: f(300), ROE: f(30), PER: f(60)},
			"ASML": {Price: f(900), ROE: f(50), PER: f(35)},
			"SMCI": {Price: f(40), PER: f(20)},
		}),
		ExchangeRateService:      exchangeRateService(150, nil),
		PositionRecordRepository: records,
		BaseCurrency:             "USD",
		LocalCurrency:            "JPY",
		Now:                      func() time.Time { return time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC) },
	}

	allocated, err := dayOne.Allocate(ctx, app.AllocateRequest{
		Symbols:      universe,
		Budget:       decimal.NewFromInt(600000),
		RoeWeight:    0.6,
		MaxPositions: 2,
		Mode:         domain.AllocationModeEqualSplit,
		RecordPath:   recordPath,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"NVDA", "ASML", "AVGO", "SMCI", "AMD"}, allocated.Scored.Symbols())
	require.True(t, allocated.Allocation.Leftover.Equal(decimal.NewFromInt(220)))

	smci, ok := allocated.Scored.Get("SMCI")
	require.True(t, ok)
	require.True(t, smci.Quality.DefaultROE)

	held, err := records.ReadFile(recordPath)
	require.NoError(t, err)
	require.Equal(t, "", cmp.Diff([]positionSummary{
		{"NVDA", 11, "180", "2025-10-01", "150"},
		{"ASML", 2, "900", "2025-10-01", "150"},
	}, summarize(held)))

	dayTwo := app.RebalanceHandler{
		MarketDataService: marketDataService(map[string]scriptedQuote{
			"NVDA": {Price: f(200), ROE: f(90), PER: f(55)},
			"AMD":  {Price: f(160), ROE: f(10), PER: f(120)},
			"AVGO": {Price: f(320), ROE: f(60), PER: f(30)},
			"ASML": {Err: errors.New("upstream timeout")},
			"SMCI": {Price: f(42), ROE: f(5), PER: f(20)},
		}),
		ExchangeRateService:      exchangeRateService(155, nil),
		PositionRecordRepository: records,
		BaseCurrency:             "USD",
		LocalCurrency:            "JPY",
		Now:                      func() time.Time { return time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC) },
	}

	rebalanced, err := dayTwo.Rebalance(ctx, app.RebalanceRequest{
		Symbols:          universe,
		RecordPath:       recordPath,
		AdditionalBudget: decimal.NewFromInt(155000),
		RoeWeight:        0.6,
		TopN:             2,
		OutputPath:       recordPath,
	})
	require.NoError(t, err)

	result := rebalanced.Rebalance
	require.Equal(t, []string{"NVDA", "AVGO"}, result.TargetSymbols)
	// ASML fell out of the target set but has no price, so it is kept
	require.Empty(t, result.ToSell)
	require.Equal(t, []string{"NVDA", "ASML"}, symbolsOf(result.Retained))
	require.Nil(t, result.UnrealizedPnL["ASML"])
	// (200*155 - 180*150) * 11
	require.True(t, result.UnrealizedPnL["NVDA"].Equal(decimal.NewFromInt(44000)))
	_, complete := result.TotalUnrealizedPnL()
	require.False(t, complete)

	purchases := result.ToBuy.Purchases()
	require.Len(t, purchases, 1)
	require.Equal(t, "AVGO", purchases[0].Symbol)
	require.Equal(t, int64(3), purchases[0].UnitsToBuy)
	require.True(t, result.ToBuy.Leftover.Equal(decimal.NewFromInt(40)))

	kinds := map[domain.WarningKind]bool{}
	for _, w := range rebalanced.Warnings {
		if w.Symbol == "ASML" {
			kinds[w.Kind] = true
		}
	}
	require.True(t, kinds[domain.WarningCollaboratorUnavailable])
	require.True(t, kinds[domain.WarningDefaultSubstituted])
	require.True(t, kinds[domain.WarningPriceUnavailable])

	updated, err := records.ReadFile(recordPath)
	require.NoError(t, err)
	require.Equal(t, "", cmp.Diff([]positionSummary{
		{"NVDA", 11, "180", "2025-10-01", "150"},
		{"ASML", 2, "900", "2025-10-01", "150"},
		{"AVGO", 3, "320", "2025-11-03", "155"},
	}, summarize(updated)))
}

func TestAllocate_rateFallback(t *testing.T) {
	ctx := logger.WithLogger(context.Background(), zap.NewNop().Sugar())

	handler := app.AllocateHandler{
		MarketDataService: marketDataService(map[string]scriptedQuote{
			"NVDA": {Price: f(180), ROE: f(90), PER: f(50)},
			"AMD":  {Price: f(150), ROE: f(10), PER: f(120)},
		}),
		ExchangeRateService:      exchangeRateService(0, errors.New("forex down")),
		PositionRecordRepository: repository.NewPositionRecordRepository(),
		BaseCurrency:             "USD",
		LocalCurrency:            "JPY",
	}

	resp, err := handler.Allocate(ctx, app.AllocateRequest{
		Symbols:      []string{"NVDA", "AMD"},
		Budget:       decimal.NewFromInt(100000),
		RoeWeight:    0.6,
		MaxPositions: 1,
		Mode:         domain.AllocationModeGreedyFill,
	})
	require.NoError(t, err)
	require.True(t, resp.Rate.IsFallback)
	require.True(t, resp.Rate.Rate.Equal(decimal.NewFromFloat(152.80)))
	require.Equal(t, domain.WarningRateLookupFailure, resp.Warnings[0].Kind)
	// 100000 / 152.8 = 654.45 -> 3 units at 180
	require.Equal(t, int64(3), resp.Allocation.Purchases()[0].UnitsToBuy)
}

func symbolsOf(positions []domain.Position) []string {
	out := []string{}
	for _, p := range positions {
		out = append(out, p.Symbol)
	}
	return out
}
