// Package timeutil parses the ISO-8601 timestamps accepted at the API boundary
// and renders the millisecond format expected by Jicofo.
package timeutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// MillisLayout has exactly three fractional digits and a colon-free offset.
const MillisLayout = "2006-01-02T15:04:05.000-0700"

var ErrEmpty = errors.New("timestamp is empty")

var (
	awareLayouts = []string{
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02T15:04:05Z0700",
		"2006-01-02T15:04:05Z07",
		"2006-01-02T15:04Z07:00",
		"2006-01-02T15:04Z0700",
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02 15:04:05Z0700",
	}
	naiveLayouts = []string{
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
	}
)

// Parse reads an ISO-8601 timestamp. A timestamp carrying an offset keeps it;
// a naive one is interpreted as wall-clock time in loc.
func Parse(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrEmpty
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range awareLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

func FormatMillis(t time.Time) string {
	return t.Format(MillisLayout)
}
