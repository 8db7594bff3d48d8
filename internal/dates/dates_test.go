package dates_test

import (
	"errors"
	"testing"

	"go-rover-gallery/internal/dates"
)

func TestParse_SameCalendarDay(t *testing.T) {
	for _, raw := range []string{"2020-01-02", "01/02/2020", "1/2/2020", "Jan 2 2020", "Jan 2, 2020", "January 2, 2020", "2 Jan 2020", "2020-01-02T23:59:00Z", " 2020/01/02 "} {
		d, err := dates.Parse(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if got := dates.Format(d); got != "2020-01-02" {
			t.Fatalf("%q formatted as %q", raw, got)
		}
	}
}

func TestParse_ManifestStyles(t *testing.T) {
	cases := map[string]string{
		"02/27/17":     "2017-02-27",
		"June 2, 2018": "2018-06-02",
		"Jul-13-2016":  "2016-07-13",
	}
	for raw, want := range cases {
		d, err := dates.Parse(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if got := dates.Format(d); got != want {
			t.Fatalf("%q formatted as %q, want %q", raw, got, want)
		}
	}
}

func TestParse_Rejects(t *testing.T) {
	for _, raw := range []string{"", "not-a-date", "April 31, 2018", "1234567890", "2020", "20200101", "12", "1/2"} {
		if _, err := dates.Parse(raw); !errors.Is(err, dates.ErrUnparseable) {
			t.Fatalf("%q: expected ErrUnparseable, got %v", raw, err)
		}
	}
}
