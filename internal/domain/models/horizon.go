package models

import "strings"

// Horizon is a fixed prediction look-ahead bucket.
type Horizon string

const (
	H1d  Horizon = "1d"
	H3d  Horizon = "3d"
	H1w  Horizon = "1w"
	H2w  Horizon = "2w"
	H4w  Horizon = "4w"
	H13w Horizon = "13w"
	H26w Horizon = "26w"
	H52w Horizon = "52w"
)

// Horizons lists every known horizon, shortest first.
var Horizons = []Horizon{H1d, H3d, H1w, H2w, H4w, H13w, H26w, H52w}

var (
	ShortHorizons = []Horizon{H1d, H3d}
	MidHorizons   = []Horizon{H1w, H2w}
	LongHorizons  = []Horizon{H4w, H13w, H26w, H52w}
)

// ParseHorizon normalizes s and reports whether it names a known horizon.
func ParseHorizon(s string) (Horizon, bool) {
	h := Horizon(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Horizons {
		if h == known {
			return h, true
		}
	}
	return "", false
}

// ParseHorizons keeps the known horizons of ss, in order.
func ParseHorizons(ss []string) []Horizon {
	out := make([]Horizon, 0, len(ss))
	for _, s := range ss {
		if h, ok := ParseHorizon(s); ok {
			out = append(out, h)
		}
	}
	return out
}
