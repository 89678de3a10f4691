package util

import (
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

func TestParseDate(t *testing.T) {
	want := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2020-01-01", " 2020-01-01 ", "2020-01-01T00:00:00.000Z", "2020-01-01T17:45:00Z"} {
		got, err := ParseDate(in)
		if err != nil {
			t.Fatalf("%q: %v", in, err)
		}
		if !got.Equal(want) {
			t.Fatalf("%q: got %v", in, got)
		}
	}
}

func TestParseDateInvalid(t *testing.T) {
	for _, in := range []string{"", "yesterday", "2020-13-01"} {
		if _, err := ParseDate(in); err == nil {
			t.Fatalf("%q: expected error", in)
		}
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate(time.Date(2017, 8, 1, 23, 0, 0, 0, time.UTC)); got != "2017-08-01" {
		t.Fatalf("unexpected %q", got)
	}
	if got := FormatDate(time.Time{}); got != "" {
		t.Fatalf("zero time should render empty, got %q", got)
	}
}

func TestParseIntDefault(t *testing.T) {
	if ParseIntDefault("", 7) != 7 || ParseIntDefault("x", 7) != 7 || ParseIntDefault("12", 7) != 12 {
		t.Fatalf("unexpected ParseIntDefault behavior")
	}
}
