package util

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

var timeLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"20060102",
}

// ParseTime tries the common snapshot layouts and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if ts, err := strconv.ParseFloat(s, 64); err == nil && ts > 0 {
		return unixOf(ts), true
	}
	return time.Time{}, false
}

// TimeOf converts a loosely-typed JSON value (string, unix seconds or millis) into a time.
func TimeOf(v any) (time.Time, bool) {
	switch x := v.(type) {
	case string:
		return ParseTime(x)
	case json.Number:
		return ParseTime(x.String())
	case float64:
		if x > 0 && !math.IsInf(x, 0) {
			return unixOf(x), true
		}
	case int64:
		if x > 0 {
			return unixOf(float64(x)), true
		}
	case int:
		if x > 0 {
			return unixOf(float64(x)), true
		}
	}
	return time.Time{}, false
}

// unixOf treats values above 1e12 as milliseconds.
func unixOf(ts float64) time.Time {
	if ts > 1e12 {
		return time.UnixMilli(int64(ts)).UTC()
	}
	sec, frac := math.Modf(ts)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}
