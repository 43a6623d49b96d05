package dialog

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

const dateLayout = "02.01.2006"

// ParseDate reads a calendar date in day-first order. Accepted separators
// are dot, comma, slash, backslash, dash and whitespace. "DD" and "DD.MM"
// take the missing parts from now; two-digit years below 50 are 20xx and
// the rest 19xx. Years before 1900 and impossible dates are rejected.
func ParseDate(text string, now time.Time) (time.Time, bool) {
	fields := strings.FieldsFunc(strings.TrimSpace(text), func(r rune) bool {
		switch r {
		case '.', ',', '/', '\\', '-':
			return true
		}
		return unicode.IsSpace(r)
	})
	if len(fields) == 0 || len(fields) > 3 {
		return time.Time{}, false
	}

	nums := make([]int, len(fields))
	for i, f := range fields {
		n, ok := atoi(f)
		if !ok {
			return time.Time{}, false
		}
		nums[i] = n
	}

	day, month, year := nums[0], int(now.Month()), now.Year()
	if len(nums) > 1 {
		month = nums[1]
	}
	if len(nums) > 2 {
		year = nums[2]
		if year < 100 {
			if year < 50 {
				year += 2000
			} else {
				year += 1900
			}
		}
	}

	if year < 1900 || month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return time.Time{}, false
	}
	return t, true
}

// FormatDate renders t as DD.MM.YYYY.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// ParseAmount reads a signed decimal amount. Whitespace anywhere is ignored
// and the first comma is taken as the decimal point. Amounts too large to
// write as a float64 cell are rejected.
func ParseAmount(text string) (decimal.Decimal, bool) {
	s := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
	if s == "" {
		return decimal.Decimal{}, false
	}
	s = strings.Replace(s, ",", ".", 1)
	d, err := decimal.NewFromString(s)
	if err != nil || math.IsInf(d.InexactFloat64(), 0) {
		return decimal.Decimal{}, false
	}
	return d, true
}

func atoi(s string) (int, bool) {
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}
