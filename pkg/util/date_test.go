package util

import (
	"encoding/json"
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeDateOnly(t *testing.T) {
	got, ok := ParseTime("2024-10-10")
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Year() != 2024 || got.Month() != time.October || got.Day() != 10 {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestTimeOfMillis(t *testing.T) {
	want := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got, ok := TimeOf(json.Number(strconv.FormatInt(want.UnixMilli(), 10)))
	if !ok {
		t.Fatalf("expected ok")
	}
	if !got.Equal(want) {
		t.Fatalf("unexpected time %v", got)
	}
}
