package http

import (
	"net/http"
	"strconv"
	"strings"

	"centime/internal/core"
)

// parseYear reads the required year query parameter. Missing or non-numeric
// values are a validation error, same policy as parsePeriod.
func parseYear(r *http.Request) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get("year"))
	if v == "" {
		return 0, core.ErrInvalidYear
	}
	year, err := strconv.Atoi(v)
	if err != nil || year < 1 || year > 9999 {
		return 0, core.ErrInvalidYear
	}
	return year, nil
}

// parsePeriod reads from/to query parameters as an inclusive date range.
func parsePeriod(r *http.Request) (core.Period, error) {
	start, err := core.ParseDate(strings.TrimSpace(r.URL.Query().Get("from")))
	if err != nil {
		return core.Period{}, err
	}
	end, err := core.ParseDate(strings.TrimSpace(r.URL.Query().Get("to")))
	if err != nil {
		return core.Period{}, err
	}
	p := core.Period{Start: start, End: end}
	return p, p.Validate()
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
