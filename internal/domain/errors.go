package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyUniverse           = errors.New("candidate universe is empty")
	ErrDegenerateScoring       = errors.New("degenerate scoring: score sum is zero")
	ErrExchangeRateUnavailable = errors.New("exchange rate unavailable and no fallback configured")
	ErrInvalidInput            = errors.New("invalid input")
)

// PositionRecordMalformedError is returned when a persisted position
// record lacks required columns. It aborts a rebalance before any
// buy/sell computation.
type PositionRecordMalformedError struct {
	Missing []string
	Reason  string
}

func (e PositionRecordMalformedError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("position record is missing required column(s): %s", strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("position record is malformed: %s", e.Reason)
}
