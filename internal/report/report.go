package report

import (
	"fmt"
	"io"
	"strings"

	"stockalloc/internal/app"
	"stockalloc/internal/domain"
)

type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatTable, "":
		return FormatTable, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: unknown output format %q (want table or json)", domain.ErrInvalidInput, s)
}

func RenderAllocation(w io.Writer, resp *app.AllocateResponse, format Format) error {
	if format == FormatJSON {
		return writeJSON(w, newAllocationView(resp))
	}
	return writeAllocationTable(w, resp)
}

func RenderRebalance(w io.Writer, resp *app.RebalanceResponse, format Format) error {
	if format == FormatJSON {
		return writeJSON(w, newRebalanceView(resp))
	}
	return writeRebalanceTable(w, resp)
}

// qualityFlags lists every value of a candidate that is not real data,
// so defaults are never blended in silently.
func qualityFlags(q domain.DataQuality) string {
	flags := []string{}
	if q.DefaultROE {
		flags = append(flags, "default-roe")
	}
	if q.DefaultPER {
		flags = append(flags, "default-per")
	}
	if q.MissingPrice {
		flags = append(flags, "no-price")
	}
	if q.FetchError != "" {
		flags = append(flags, "fetch-error")
	}
	if len(flags) == 0 {
		return "-"
	}
	return strings.Join(flags, ",")
}
