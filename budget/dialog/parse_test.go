package dialog

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseDateCanonicalRoundTrip(t *testing.T) {
	start := time.Date(1995, 1, 1, 0, 0, 0, 0, time.UTC)
	for d := start; d.Year() < 2030; d = d.AddDate(0, 0, 17) {
		in := FormatDate(d)
		got, ok := ParseDate(in, fixedNow)
		if assert.True(t, ok, in) {
			assert.Equal(t, in, FormatDate(got))
		}
	}
}

func TestParseDateLenientForms(t *testing.T) {
	cases := map[string]string{
		"13.09.2025":   "13.09.2025",
		"13/09/2025":   "13.09.2025",
		"13-09-2025":   "13.09.2025",
		"13 09 2025":   "13.09.2025",
		"13,09,2025":   "13.09.2025",
		"13..09..2025": "13.09.2025",
		" 1.2.2024 ":   "01.02.2024",
		"13.09.25":     "13.09.2025",
		"13.09.49":     "13.09.2049",
		"13.09.50":     "13.09.1950",
		"13.09":        "13.09.2025",
		"7":            "07.03.2025",
		"29.02.2024":   "29.02.2024",
	}
	for in, want := range cases {
		got, ok := ParseDate(in, fixedNow)
		if assert.True(t, ok, in) {
			assert.Equal(t, want, FormatDate(got), in)
		}
	}
}

func TestParseDateRejects(t *testing.T) {
	for _, in := range []string{
		"", "abc", "32.01.2025", "00.01.2025", "29.02.2025", "31.04.2025",
		"01.13.2025", "01.00.2025", "01.01.1899", "01.01.0150", "1a.01.2025",
		"01.01.2025.01", "+1.01.2025",
	} {
		_, ok := ParseDate(in, fixedNow)
		assert.False(t, ok, in)
	}
}

func TestParseAmountSeparatorsAgree(t *testing.T) {
	want := decimal.RequireFromString("123.45")
	for _, in := range []string{"123,45", " 123.45 ", "123.45", "\t123,45\n", "1 23,45"} {
		got, ok := ParseAmount(in)
		if assert.True(t, ok, in) {
			assert.True(t, want.Equal(got), in)
		}
	}
}

func TestParseAmountSignsAndIntegers(t *testing.T) {
	for in, want := range map[string]string{"50": "50", "-50": "-50", "-0,5": "-0.5", "1e2": "100"} {
		got, ok := ParseAmount(in)
		if assert.True(t, ok, in) {
			assert.True(t, decimal.RequireFromString(want).Equal(got), fmt.Sprintf("%s -> %s", in, got))
		}
	}
}

func TestParseAmountRejects(t *testing.T) {
	for _, in := range []string{"", "   ", "abc", "12abc", "1,2,3", "NaN", "Inf", "1e400", "-1e400", "1e309"} {
		_, ok := ParseAmount(in)
		assert.False(t, ok, in)
	}
}
