package l1_service

import (
	"context"
	"errors"
	"testing"
	"time"

	"stockalloc/internal/domain"
	"stockalloc/internal/logger"
	"stockalloc/internal/repository"
	mock_repository "stockalloc/internal/repository/mocks"
	"stockalloc/internal/util"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func testContext() context.Context {
	return logger.WithLogger(context.Background(), zap.NewNop().Sugar())
}

func testConfig() MarketDataConfig {
	return MarketDataConfig{
		BatchSize:        5,
		TimeBudget:       time.Second,
		BreakerThreshold: 3,
		MissingROE:       0,
		MissingPER:       100,
	}
}

func quote(symbol string, price float64, roe, per *float64) *domain.Quote {
	p := decimal.NewFromFloat(price)
	return &domain.Quote{
		Symbol:          symbol,
		UnitPrice:       &p,
		ReturnOnEquity:  roe,
		PriceToEarnings: per,
	}
}

func warningKinds(warnings []domain.Warning) []domain.WarningKind {
	out := []domain.WarningKind{}
	for _, w := range warnings {
		out = append(out, w.Kind)
	}
	return out
}

func Test_marketDataServiceHandler_FetchCandidates(t *testing.T) {
	t.Run("complete quotes", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		quoteRepository := mock_repository.NewMockQuoteRepository(ctrl)
		quoteRepository.EXPECT().GetQuote(gomock.Any(), "NVDA").Return(quote("NVDA", 185.3, util.FloatPointer(91.87), util.FloatPointer(52.1)), nil)
		quoteRepository.EXPECT().GetQuote(gomock.Any(), "AMD").Return(quote("AMD", 250.15, util.FloatPointer(5.3), util.FloatPointer(120)), nil)

		handler := NewMarketDataService(quoteRepository, testConfig())
		result, err := handler.FetchCandidates(testContext(), []string{"nvda", "AMD", "NVDA"})
		require.NoError(t, err)
		require.Empty(t, result.Warnings)
		require.Len(t, result.Candidates, 2)

		nvda := result.Candidates[0]
		require.Equal(t, "NVDA", nvda.Symbol)
		require.Equal(t, 91.87, nvda.ReturnOnEquity)
		require.Equal(t, 52.1, nvda.PriceToEarnings)
		require.True(t, nvda.UnitPrice.Equal(decimal.NewFromFloat(185.3)))
		require.True(t, nvda.Quality.IsClean())
	})

	t.Run("missing fundamentals get defaults", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		quoteRepository := mock_repository.NewMockQuoteRepository(ctrl)
		quoteRepository.EXPECT().GetQuote(gomock.Any(), "SMCI").Return(quote("SMCI", 48.66, nil, util.FloatPointer(30)), nil)

		handler := NewMarketDataService(quoteRepository, testConfig())
		result, err := handler.FetchCandidates(testContext(), []string{"SMCI"})
		require.NoError(t, err)

		c := result.Candidates[0]
		require.Equal(t, 0.0, c.ReturnOnEquity)
		require.Equal(t, 30.0, c.PriceToEarnings)
		require.Equal(t, domain.DataQuality{DefaultROE: true}, c.Quality)
		require.Equal(t, "", cmp.Diff([]domain.Warning{
			{Kind: domain.WarningDefaultSubstituted, Symbol: "SMCI", Message: "substituted default ROE=0"},
		}, result.Warnings))
	})

	t.Run("failed lookup keeps the candidate without a price", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		quoteRepository := mock_repository.NewMockQuoteRepository(ctrl)
		quoteRepository.EXPECT().GetQuote(gomock.Any(), "ASML").Return(nil, errors.New("connection reset"))
		quoteRepository.EXPECT().GetQuote(gomock.Any(), "AVGO").Return(quote("AVGO", 356.66, util.FloatPointer(30), util.FloatPointer(40)), nil)

		handler := NewMarketDataService(quoteRepository, testConfig())
		result, err := handler.FetchCandidates(testContext(), []string{"ASML", "AVGO"})
		require.NoError(t, err)
		require.Len(t, result.Candidates, 2)

		asml := result.Candidates[0]
		require.Nil(t, asml.UnitPrice)
		require.Equal(t, 0.0, asml.ReturnOnEquity)
		require.Equal(t, 100.0, asml.PriceToEarnings)
		require.True(t, asml.Quality.DefaultROE)
		require.True(t, asml.Quality.DefaultPER)
		require.True(t, asml.Quality.MissingPrice)
		require.Equal(t, "connection reset", asml.Quality.FetchError)

		require.Equal(t, []domain.WarningKind{
			domain.WarningCollaboratorUnavailable,
			domain.WarningDefaultSubstituted,
			domain.WarningPriceUnavailable,
		}, warningKinds(result.Warnings))
		require.True(t, result.Candidates[1].Quality.IsClean())
	})

	t.Run("nil quote is treated as not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		quoteRepository := mock_repository.NewMockQuoteRepository(ctrl)
		quoteRepository.EXPECT().GetQuote(gomock.Any(), "NVDA").Return(nil, nil)

		handler := NewMarketDataService(quoteRepository, testConfig())
		result, err := handler.FetchCandidates(testContext(), []string{"NVDA"})
		require.NoError(t, err)
		require.Contains(t, result.Candidates[0].Quality.FetchError, repository.ErrQuoteNotFound.Error())
	})

	t.Run("breaker fails fast after consecutive failures", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		quoteRepository := mock_repository.NewMockQuoteRepository(ctrl)
		quoteRepository.EXPECT().GetQuote(gomock.Any(), gomock.Any()).Return(nil, errors.New("503")).Times(2)

		config := testConfig()
		config.BreakerThreshold = 2
		handler := NewMarketDataService(quoteRepository, config)
		result, err := handler.FetchCandidates(testContext(), []string{"A", "B", "C", "D"})
		require.NoError(t, err)
		require.Len(t, result.Candidates, 4)
		require.Equal(t, "503", result.Candidates[1].Quality.FetchError)
		require.Equal(t, gobreaker.ErrOpenState.Error(), result.Candidates[2].Quality.FetchError)
		require.Equal(t, gobreaker.ErrOpenState.Error(), result.Candidates[3].Quality.FetchError)
	})

	t.Run("time budget stops further lookups", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		quoteRepository := mock_repository.NewMockQuoteRepository(ctrl)
		quoteRepository.EXPECT().GetQuote(gomock.Any(), "A").Return(quote("A", 10, util.FloatPointer(1), util.FloatPointer(1)), nil)

		config := testConfig()
		config.BatchSize = 1
		config.BatchInterval = time.Minute
		config.TimeBudget = 50 * time.Millisecond
		handler := NewMarketDataService(quoteRepository, config)

		start := time.Now()
		result, err := handler.FetchCandidates(testContext(), []string{"A", "B", "C"})
		require.NoError(t, err)
		require.Less(t, time.Since(start), 5*time.Second)

		require.True(t, result.Candidates[0].Quality.IsClean())
		require.Nil(t, result.Candidates[1].UnitPrice)
		require.Nil(t, result.Candidates[2].UnitPrice)
		require.Contains(t, result.Candidates[2].Quality.FetchError, errLookupBudgetExceeded.Error())

		require.Equal(t, domain.WarningLookupBudgetExceeded, result.Warnings[0].Kind)
		require.Contains(t, result.Warnings[0].Message, "not fetched: B, C")
	})

	t.Run("empty universe", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		handler := NewMarketDataService(mock_repository.NewMockQuoteRepository(ctrl), testConfig())
		_, err := handler.FetchCandidates(testContext(), []string{" "})
		require.ErrorIs(t, err, domain.ErrEmptyUniverse)
	})
}

func Test_marketDataServiceHandler_FetchPrices(t *testing.T) {
	ctrl := gomock.NewController(t)
	quoteRepository := mock_repository.NewMockQuoteRepository(ctrl)
	quoteRepository.EXPECT().GetQuote(gomock.Any(), "INTC").Return(quote("INTC", 21.5, nil, nil), nil)
	quoteRepository.EXPECT().GetQuote(gomock.Any(), "GONE").Return(nil, repository.ErrQuoteNotFound)

	handler := NewMarketDataService(quoteRepository, testConfig())
	result, err := handler.FetchPrices(testContext(), []string{"INTC", "GONE"})
	require.NoError(t, err)
	require.Len(t, result.Prices, 1)
	require.True(t, result.Prices["INTC"].Equal(decimal.NewFromFloat(21.5)))
	require.Equal(t, []domain.WarningKind{
		domain.WarningCollaboratorUnavailable,
		domain.WarningPriceUnavailable,
	}, warningKinds(result.Warnings))

	empty, err := handler.FetchPrices(testContext(), nil)
	require.NoError(t, err)
	require.Empty(t, empty.Prices)
}
