package dec

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDecodeAmount(t *testing.T) {
	cases := []struct {
		raw    string
		places int
		want   string
	}{
		{"0000000123456", 2, "1234.56"},
		{"123456", 2, "1234.56"},
		{"5", 2, "0.05"},
		{"-0000123", 2, "-1.23"},
		{"0000123-", 2, "-1.23"},
		{"0000000000000", 2, "0"},
		{"             ", 2, "0"},
		{"", 2, "0"},
		{"ABCDEF", 2, "0"},
		{"12X34", 2, "12.34"},
		{"0001234567890", 3, "1234567.89"},
	}
	for _, tc := range cases {
		got := DecodeAmount(tc.raw, tc.places)
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("DecodeAmount(%q, %d) = %s, want %s", tc.raw, tc.places, got, tc.want)
		}
	}
}

func TestDecodeAmountRoundTrip(t *testing.T) {
	// Encoding an amount as zero-padded cents and decoding it back must
	// reproduce the amount.
	cases := []string{"0.01", "1234.56", "999999999.99", "0.99"}
	for _, want := range cases {
		amount := decimal.RequireFromString(want)
		cents := amount.Shift(2).StringFixed(0)
		for len(cents) < 13 {
			cents = "0" + cents
		}
		if got := DecodeAmount(cents, 2); !got.Equal(amount) {
			t.Fatalf("round trip of %s through %q gave %s", want, cents, got)
		}
	}
}

func TestDecodeDate(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Time
		ok   bool
	}{
		{"29062017", time.Date(2017, 6, 29, 0, 0, 0, 0, time.UTC), true},
		{"01011990", time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"00000000", time.Time{}, false},
		{"        ", time.Time{}, false},
		{"2906201", time.Time{}, false},
		{"32132020", time.Time{}, false},
		{"29022023", time.Time{}, false}, // not a leap year
	}
	for _, tc := range cases {
		got, ok := DecodeDate(tc.raw)
		if ok != tc.ok {
			t.Fatalf("DecodeDate(%q) ok = %v, want %v", tc.raw, ok, tc.ok)
		}
		if ok && !got.Equal(tc.want) {
			t.Fatalf("DecodeDate(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestDecodeIdentifier(t *testing.T) {
	cases := []struct {
		raw, want string
	}{
		{"529.982.247-25", "52998224725"},
		{"  52998224725 ", "52998224725"},
		{"no digits", ""},
	}
	for _, tc := range cases {
		if got := DecodeIdentifier(tc.raw); got != tc.want {
			t.Fatalf("DecodeIdentifier(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestScanDigitRun(t *testing.T) {
	pad := func(n int) string {
		b := make([]byte, n)
		for i := range b {
			b[i] = ' '
		}
		return string(b)
	}

	line := pad(160) + "11222333000181" + pad(60)
	run, ok := ScanDigitRun(line, 150, 220, 14)
	if !ok || run != "11222333000181" {
		t.Fatalf("ScanDigitRun = %q, %v", run, ok)
	}

	// All-zero runs are not a match.
	line = pad(160) + "00000000000000" + pad(60)
	if _, ok := ScanDigitRun(line, 150, 220, 14); ok {
		t.Fatal("all-zero run should not match")
	}

	// Nothing in the window.
	if _, ok := ScanDigitRun(pad(300), 150, 220, 14); ok {
		t.Fatal("blank window should not match")
	}

	// Line shorter than the window start.
	if _, ok := ScanDigitRun("63 short", 150, 220, 14); ok {
		t.Fatal("short line should not match")
	}
}

func TestScanDate(t *testing.T) {
	pad := func(n int) string {
		b := make([]byte, n)
		for i := range b {
			b[i] = ' '
		}
		return string(b)
	}

	line := pad(400) + "15032023" + pad(60)
	got, ok := ScanDate(line, 380, 450, 2020)
	if !ok || !got.Equal(time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("ScanDate = %v, %v", got, ok)
	}

	// Dates before the floor year are skipped.
	line = pad(400) + "15032019" + pad(60)
	if _, ok := ScanDate(line, 380, 450, 2020); ok {
		t.Fatal("pre-floor date should not match")
	}
}
