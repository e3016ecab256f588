package cmd

import (
	"os"
	"strings"

	"stockalloc/internal/app"
	"stockalloc/internal/logger"
	"stockalloc/internal/repository"
	l1_service "stockalloc/internal/service/l1"
	"stockalloc/internal/util"

	"github.com/shopspring/decimal"
)

type Dependencies struct {
	Config           util.Config
	AllocateHandler  app.AllocateHandler
	RebalanceHandler app.RebalanceHandler
}

func InitializeDependencies(cfg util.Config, offline bool) *Dependencies {
	fallbackRate := decimal.NewFromFloat(cfg.FallbackExchangeRate)

	quoteRepository := repository.NewYahooQuoteRepository()
	exchangeRateRepository := repository.NewYahooExchangeRateRepository()
	if offline || strings.EqualFold(os.Getenv(logger.EnvVar), "test") {
		quoteRepository = NewStaticQuoteRepository(cfg.Universe)
		exchangeRateRepository = NewStaticExchangeRateRepository(fallbackRate)
	}
	positionRecordRepository := repository.NewPositionRecordRepository()

	marketDataService := l1_service.NewMarketDataService(quoteRepository, l1_service.MarketDataConfig{
		BatchSize:        cfg.Fetch.BatchSize,
		BatchInterval:    cfg.Fetch.BatchInterval,
		TimeBudget:       cfg.Fetch.TimeBudget,
		BreakerThreshold: cfg.Fetch.BreakerThreshold,
		MissingROE:       cfg.Defaults.MissingROE,
		MissingPER:       cfg.Defaults.MissingPER,
	})
	exchangeRateService := l1_service.NewExchangeRateService(exchangeRateRepository, fallbackRate)

	return &Dependencies{
		Config: cfg,
		AllocateHandler: app.AllocateHandler{
			MarketDataService:        marketDataService,
			ExchangeRateService:      exchangeRateService,
			PositionRecordRepository: positionRecordRepository,
			BaseCurrency:             cfg.BaseCurrency,
			LocalCurrency:            cfg.LocalCurrency,
		},
		RebalanceHandler: app.RebalanceHandler{
			MarketDataService:        marketDataService,
			ExchangeRateService:      exchangeRateService,
			PositionRecordRepository: positionRecordRepository,
			BaseCurrency:             cfg.BaseCurrency,
			LocalCurrency:            cfg.LocalCurrency,
		},
	}
}
