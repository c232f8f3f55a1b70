package domain

import (
	"regexp"
	"strings"
	"time"
)

// DateTimeRange is a resolved temporal window extracted from free text.
// Both endpoints are UTC-normalized to second precision; EndUnix >= StartUnix
// holds for every value produced by ParseDateTimeRange.
type DateTimeRange struct {
	Original  string
	StartISO  string
	StartUnix int64
	EndISO    string
	EndUnix   int64
}

var rangeExpr = regexp.MustCompile(`(?i)from (.+) to (.+)`)

// datetimeLayouts are tried in order until one parses. Layouts without an
// offset are interpreted as UTC.
var datetimeLayouts = []string{
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05.000Z",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2006-01-02T15:04:05-07:00",
}

// ParseDateTime parses a single datetime string against the supported layout
// set and normalizes it to an ISO 8601 UTC string plus Unix epoch seconds.
// Returns ok=false when no layout matches.
func ParseDateTime(value string) (iso string, unix int64, ok bool) {
	value = strings.TrimSpace(value)
	for _, layout := range datetimeLayouts {
		t, err := time.ParseInLocation(layout, value, time.UTC)
		if err != nil {
			continue
		}
		t = t.UTC()
		return t.Format("2006-01-02T15:04:05Z"), t.Unix(), true
	}
	return "", 0, false
}

// ParseDateTimeRange parses a "from <datetime> to <datetime>" expression.
// Any input that does not match the pattern, or whose sides fail to parse,
// yields (nil, false): the caller degrades to no temporal contribution.
func ParseDateTimeRange(original, rangeText string) (*DateTimeRange, bool) {
	m := rangeExpr.FindStringSubmatch(strings.TrimSpace(rangeText))
	if m == nil {
		return nil, false
	}
	startISO, startUnix, ok := ParseDateTime(m[1])
	if !ok {
		return nil, false
	}
	endISO, endUnix, ok := ParseDateTime(m[2])
	if !ok {
		return nil, false
	}
	if endUnix < startUnix {
		return nil, false
	}
	return &DateTimeRange{
		Original:  original,
		StartISO:  startISO,
		StartUnix: startUnix,
		EndISO:    endISO,
		EndUnix:   endUnix,
	}, true
}
