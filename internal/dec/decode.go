package dec

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DecodeAmount decodes a fixed-width currency field with an implicit
// decimal point. Only digits contribute; a minus sign anywhere makes the
// amount negative; blank, all-zero or otherwise unreadable input decodes
// to exactly zero. It never fails.
func DecodeAmount(raw string, places int) decimal.Decimal {
	var digits strings.Builder
	negative := false
	for _, c := range raw {
		switch {
		case c == '-':
			negative = true
		case c >= '0' && c <= '9':
			digits.WriteRune(c)
		}
	}
	s := strings.TrimLeft(digits.String(), "0")
	if s == "" {
		return decimal.Zero
	}
	v := decimal.RequireFromString(s).Shift(int32(-places))
	if negative {
		return v.Neg()
	}
	return v
}

// DecodeDate decodes an 8-character DDMMYYYY field. Blank, all-zero,
// wrong-length or impossible dates are reported as absent rather than
// as errors.
func DecodeDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if len(s) != 8 || s == "00000000" {
		return time.Time{}, false
	}
	t, err := time.Parse("02012006", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DecodeIdentifier strips everything but digits from a CPF/CNPJ field.
// No checksum is applied here; validity is an analyzer concern.
func DecodeIdentifier(raw string) string {
	var b strings.Builder
	for _, c := range raw {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// ScanDigitRun searches the window [from:to] of line for the first run of
// width consecutive digits that is not all zeros. Disposal records bury
// the registry number at a position that drifts between program versions,
// so a bounded scan is the only stable way to read it.
func ScanDigitRun(line string, from, to, width int) (string, bool) {
	limit := min(to, len(line)-width)
	for i := from; i < limit; i++ {
		run := line[i : i+width]
		if !allDigits(run) || run == strings.Repeat("0", width) {
			continue
		}
		return run, true
	}
	return "", false
}

// ScanDate searches the window [from:to] of line for the first decodable
// DDMMYYYY date with year >= minYear.
func ScanDate(line string, from, to, minYear int) (time.Time, bool) {
	limit := min(to, len(line)-8)
	for i := from; i < limit; i++ {
		run := line[i : i+8]
		if !allDigits(run) || run == "00000000" {
			continue
		}
		if t, ok := DecodeDate(run); ok && t.Year() >= minYear {
			return t, true
		}
	}
	return time.Time{}, false
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
