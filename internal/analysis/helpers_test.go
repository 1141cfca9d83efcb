package analysis

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"irpfscan/internal/log"
	"irpfscan/internal/model"
)

func money(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

func testLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

// validCPF and validCNPJ carry correct check digits.
const (
	validCPF  = "52998224725"
	validCPF2 = "83158073072"
	validCNPJ = "11222333000181"
)

func findInconsistency(fs []model.Finding, category string) (model.Inconsistency, bool) {
	for _, f := range fs {
		if inc, ok := f.(model.Inconsistency); ok && inc.Category == category {
			return inc, true
		}
	}
	return model.Inconsistency{}, false
}

func countInconsistencies(fs []model.Finding, category string) int {
	n := 0
	for _, f := range fs {
		if inc, ok := f.(model.Inconsistency); ok && inc.Category == category {
			n++
		}
	}
	return n
}

func findWarning(fs []model.Finding, substr string) (model.Warning, bool) {
	for _, f := range fs {
		if w, ok := f.(model.Warning); ok && strings.Contains(w.Message, substr) {
			return w, true
		}
	}
	return model.Warning{}, false
}
