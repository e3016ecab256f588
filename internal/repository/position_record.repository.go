package repository

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"stockalloc/internal/domain"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

// PositionRecordColumns is the column set and order of the persisted
// position record. Prior exports depend on it.
var PositionRecordColumns = []string{
	"symbol",
	"units_held",
	"purchase_unit_price",
	"purchase_date",
	"roe_at_purchase",
	"per_at_purchase",
	"score_at_purchase",
	"purchase_exchange_rate",
}

// positionRecordRow mirrors PositionRecordColumns. Money columns stay
// strings so they round-trip without float formatting.
type positionRecordRow struct {
	Symbol               string  `csv:"symbol"`
	UnitsHeld            int64   `csv:"units_held"`
	PurchaseUnitPrice    string  `csv:"purchase_unit_price"`
	PurchaseDate         string  `csv:"purchase_date"`
	ROEAtPurchase        float64 `csv:"roe_at_purchase"`
	PERAtPurchase        float64 `csv:"per_at_purchase"`
	ScoreAtPurchase      float64 `csv:"score_at_purchase"`
	PurchaseExchangeRate string  `csv:"purchase_exchange_rate"`
}

type PositionRecordRepository interface {
	Read(r io.Reader) ([]domain.Position, error)
	Write(w io.Writer, positions []domain.Position) error
	ReadFile(path string) ([]domain.Position, error)
	WriteFile(path string, positions []domain.Position) error
}

type positionRecordRepositoryHandler struct{}

func NewPositionRecordRepository() PositionRecordRepository {
	return positionRecordRepositoryHandler{}
}

func (h positionRecordRepositoryHandler) ReadFile(path string) ([]domain.Position, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open position record: %w", err)
	}
	defer f.Close()

	return h.Read(f)
}

func (h positionRecordRepositoryHandler) WriteFile(path string, positions []domain.Position) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create position record: %w", err)
	}
	if err := h.Write(f, positions); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (h positionRecordRepositoryHandler) Read(r io.Reader) ([]domain.Position, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read position record: %w", err)
	}
	b = bytes.TrimPrefix(b, []byte("\ufeff"))

	records, err := csv.NewReader(bytes.NewReader(b)).ReadAll()
	if err != nil {
		return nil, domain.PositionRecordMalformedError{Reason: err.Error()}
	}
	if err := checkRequiredColumns(records); err != nil {
		return nil, err
	}
	if len(records) == 1 {
		return []domain.Position{}, nil
	}

	rows := []positionRecordRow{}
	if err := gocsv.UnmarshalBytes(b, &rows); err != nil {
		return nil, domain.PositionRecordMalformedError{Reason: err.Error()}
	}

	positions := make([]domain.Position, 0, len(rows))
	for i, row := range rows {
		p, err := row.toPosition()
		if err != nil {
			// header is line 1
			return nil, domain.PositionRecordMalformedError{Reason: fmt.Sprintf("line %d: %s", i+2, err.Error())}
		}
		positions = append(positions, *p)
	}
	return positions, nil
}

func (h positionRecordRepositoryHandler) Write(w io.Writer, positions []domain.Position) error {
	rows := make([]*positionRecordRow, 0, len(positions))
	for _, p := range positions {
		rows = append(rows, rowFromPosition(p))
	}
	if len(rows) == 0 {
		// gocsv writes nothing for an empty slice; keep the header so the
		// record stays readable
		cw := csv.NewWriter(w)
		if err := cw.Write(PositionRecordColumns); err != nil {
			return err
		}
		cw.Flush()
		return cw.Error()
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("failed to write position record: %w", err)
	}
	return nil
}

// checkRequiredColumns reports every required column absent from the
// header line.
func checkRequiredColumns(records [][]string) error {
	if len(records) == 0 {
		return domain.PositionRecordMalformedError{Missing: append([]string{}, PositionRecordColumns...)}
	}

	present := map[string]bool{}
	for _, col := range records[0] {
		present[strings.TrimSpace(col)] = true
	}
	missing := []string{}
	for _, col := range PositionRecordColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return domain.PositionRecordMalformedError{Missing: missing}
	}
	return nil
}

func (r positionRecordRow) toPosition() (*domain.Position, error) {
	symbol := strings.ToUpper(strings.TrimSpace(r.Symbol))
	if symbol == "" {
		return nil, fmt.Errorf("empty symbol")
	}
	if r.UnitsHeld < 0 {
		return nil, fmt.Errorf("negative units_held %d for %s", r.UnitsHeld, symbol)
	}
	price, err := decimal.NewFromString(strings.TrimSpace(r.PurchaseUnitPrice))
	if err != nil {
		return nil, fmt.Errorf("invalid purchase_unit_price %q for %s: %w", r.PurchaseUnitPrice, symbol, err)
	}
	date, err := time.Parse(time.DateOnly, strings.TrimSpace(r.PurchaseDate))
	if err != nil {
		return nil, fmt.Errorf("invalid purchase_date %q for %s: %w", r.PurchaseDate, symbol, err)
	}
	rate, err := decimal.NewFromString(strings.TrimSpace(r.PurchaseExchangeRate))
	if err != nil {
		return nil, fmt.Errorf("invalid purchase_exchange_rate %q for %s: %w", r.PurchaseExchangeRate, symbol, err)
	}

	return &domain.Position{
		Symbol:               symbol,
		UnitsHeld:            r.UnitsHeld,
		PurchaseUnitPrice:    price,
		PurchaseDate:         date,
		PurchaseROE:          r.ROEAtPurchase,
		PurchasePER:          r.PERAtPurchase,
		PurchaseScore:        r.ScoreAtPurchase,
		PurchaseExchangeRate: rate,
	}, nil
}

func rowFromPosition(p domain.Position) *positionRecordRow {
	return &positionRecordRow{
		Symbol:               p.Symbol,
		UnitsHeld:            p.UnitsHeld,
		PurchaseUnitPrice:    p.PurchaseUnitPrice.String(),
		PurchaseDate:         p.PurchaseDate.Format(time.DateOnly),
		ROEAtPurchase:        p.PurchaseROE,
		PERAtPurchase:        p.PurchasePER,
		ScoreAtPurchase:      p.PurchaseScore,
		PurchaseExchangeRate: p.PurchaseExchangeRate.String(),
	}
}
