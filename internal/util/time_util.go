package util

import (
	"time"
)

const DateLayout = time.DateOnly

func NewDate(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// Today truncates now to a UTC calendar date.
func Today(now time.Time) time.Time {
	now = now.UTC()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}
