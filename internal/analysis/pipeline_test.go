package analysis

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"irpfscan/internal/log"
	"irpfscan/internal/model"
	"irpfscan/internal/rules"
)

// cleanDeclaration builds a filing no analyzer objects to.
func cleanDeclaration(t *testing.T) *model.Declaration {
	t.Helper()
	return &model.Declaration{
		Taxpayer:     model.Taxpayer{CPF: validCPF, Name: "MARIA DA SILVA"},
		ExerciseYear: 2025,
		CalendarYear: 2024,
		FilingType:   model.FilingComplete,
		Deductions: []model.Deduction{
			{Category: model.DeductionMedical, Amount: money(t, "4800.00"), ProviderID: validCNPJ, ProviderName: "CLINICA SAO LUCAS"},
			{Category: model.DeductionEducation, Amount: money(t, "3100.00"), Description: "MENSALIDADE FACULDADE"},
		},
		Assets: []model.Asset{
			{Group: model.AssetRealEstate, Code: "01", Description: "APARTAMENTO RUA X 100",
				PriorValue: money(t, "500000.00"), CurrentValue: money(t, "500000.00")},
		},
		TaxableIncome: money(t, "120000.00"),
		TaxDue:        money(t, "16748.00"),
		TaxPaid:       money(t, "16748.00"),
	}
}

func TestAnalyzeCleanDeclaration(t *testing.T) {
	p := New(rules.DefaultTables(), testLogger())
	res, err := p.Analyze(context.Background(), cleanDeclaration(t))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if len(res.Inconsistencies) != 0 {
		t.Fatalf("inconsistencies = %+v, want none", res.Inconsistencies)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("warnings = %+v, want none", res.Warnings)
	}
	if res.Score.Score != 100 || res.Score.Level != model.RiskLow {
		t.Fatalf("score = %d/%s, want 100/low", res.Score.Score, res.Score.Level)
	}
	if len(res.Score.Factors) != 1 {
		t.Fatalf("factors = %v, want the compliance message only", res.Score.Factors)
	}
	// A complete filer with few deductions should at least be pointed at
	// the simplified regime.
	if len(res.Suggestions) == 0 {
		t.Fatal("expected optimization suggestions")
	}
	if res.TaxpayerCPF != "***.***.**7-25" {
		t.Fatalf("TaxpayerCPF = %q, want masked", res.TaxpayerCPF)
	}
	if res.ExerciseYear != 2025 {
		t.Fatalf("ExerciseYear = %d, want 2025", res.ExerciseYear)
	}
	if res.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Fatal("result ID not stamped")
	}
}

func TestAnalyzeZeroIncomeWithPatrimonyGrowth(t *testing.T) {
	d := &model.Declaration{
		Taxpayer:     model.Taxpayer{CPF: validCPF, Name: "JOAO"},
		ExerciseYear: 2025,
		CalendarYear: 2024,
		Assets: []model.Asset{
			{Group: model.AssetRealEstate, Code: "01", Description: "CASA RUA Y",
				PriorValue: money(t, "100000.00"), CurrentValue: money(t, "300000.00")},
		},
	}

	p := New(rules.DefaultTables(), testLogger())
	res, err := p.Analyze(context.Background(), d)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	var sawPatrimony, sawZeroIncome bool
	for _, inc := range res.Inconsistencies {
		switch inc.Category {
		case model.CatPatrimonyVsIncome:
			sawPatrimony = true
			if inc.Severity != model.SeverityHigh {
				t.Errorf("patrimony finding severity = %s, want high", inc.Severity)
			}
		case model.CatSuspiciousZeroValue:
			sawZeroIncome = true
		}
	}
	if !sawPatrimony {
		t.Error("missing patrimony-vs-income inconsistency")
	}
	if !sawZeroIncome {
		t.Error("missing zero-income inconsistency")
	}
	if res.Score.Score > 70 {
		t.Fatalf("score = %d, want <= 70", res.Score.Score)
	}
}

func TestAnalyzeLogsEachAnalyzer(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{
		Handler: slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	})

	p := New(rules.DefaultTables(), logger)
	if _, err := p.Analyze(context.Background(), cleanDeclaration(t)); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	logged := buf.String()
	for _, a := range DefaultAnalyzers(rules.DefaultTables()) {
		want := log.FieldAnalyzer + "=" + a.Name()
		if !strings.Contains(logged, want) {
			t.Errorf("log output missing %q", want)
		}
	}
}

func TestAnalyzeCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(rules.DefaultTables(), testLogger())
	if _, err := p.Analyze(ctx, cleanDeclaration(t)); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestCompareValidation(t *testing.T) {
	p := New(rules.DefaultTables(), testLogger())
	ctx := context.Background()

	base := cleanDeclaration(t)

	_, err := p.Compare(ctx, []*model.Declaration{base})
	if !errors.Is(err, ErrNotEnoughDeclarations) {
		t.Fatalf("single declaration: err = %v, want ErrNotEnoughDeclarations", err)
	}

	other := cleanDeclaration(t)
	other.ExerciseYear = 2024
	other.Taxpayer.CPF = validCPF2
	_, err = p.Compare(ctx, []*model.Declaration{base, other})
	if !errors.Is(err, ErrMixedFilers) {
		t.Fatalf("mixed filers: err = %v, want ErrMixedFilers", err)
	}

	dup := cleanDeclaration(t)
	_, err = p.Compare(ctx, []*model.Declaration{base, dup})
	if !errors.Is(err, ErrDuplicateYear) {
		t.Fatalf("duplicate year: err = %v, want ErrDuplicateYear", err)
	}
}

func TestCompareSpousesValidation(t *testing.T) {
	p := New(rules.DefaultTables(), testLogger())
	ctx := context.Background()

	primary := cleanDeclaration(t)
	same := cleanDeclaration(t)
	if _, err := p.CompareSpouses(ctx, primary, same); !errors.Is(err, ErrSameFiler) {
		t.Fatalf("same filer: err = %v, want ErrSameFiler", err)
	}

	spouse := cleanDeclaration(t)
	spouse.Taxpayer.CPF = validCPF2
	spouse.ExerciseYear = 2024
	if _, err := p.CompareSpouses(ctx, primary, spouse); !errors.Is(err, ErrMismatchedYears) {
		t.Fatalf("different years: err = %v, want ErrMismatchedYears", err)
	}
}

func TestCompareSpousesSharedDependent(t *testing.T) {
	primary := cleanDeclaration(t)
	primary.Dependents = []model.Dependent{{CPF: "11144477735", Name: "FILHO"}}

	spouse := cleanDeclaration(t)
	spouse.Taxpayer.CPF = validCPF2
	spouse.Taxpayer.Name = "JOSE DA SILVA"
	spouse.Dependents = []model.Dependent{{CPF: "11144477735", Name: "FILHO"}}

	p := New(rules.DefaultTables(), testLogger())
	res, err := p.CompareSpouses(context.Background(), primary, spouse)
	if err != nil {
		t.Fatalf("CompareSpouses() error = %v", err)
	}

	if len(res.Inconsistencies) != 1 || res.Inconsistencies[0].Category != model.CatDuplicateDependent {
		t.Fatalf("inconsistencies = %+v, want the shared dependent", res.Inconsistencies)
	}
	if res.TaxpayerName != "MARIA DA SILVA" {
		t.Fatalf("TaxpayerName = %q, findings must be reported against the primary filing", res.TaxpayerName)
	}
	if res.Score.Score >= 100 {
		t.Fatalf("score = %d, want penalized", res.Score.Score)
	}
}

func TestCompareCleanHistory(t *testing.T) {
	newer := cleanDeclaration(t)
	older := cleanDeclaration(t)
	older.ExerciseYear = 2024
	older.CalendarYear = 2023

	p := New(rules.DefaultTables(), testLogger())
	// Pass out of order on purpose; Compare sorts by exercise year.
	res, err := p.Compare(context.Background(), []*model.Declaration{newer, older})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	if len(res.Years) != 2 || res.Years[0] != 2024 || res.Years[1] != 2025 {
		t.Fatalf("Years = %v, want [2024 2025]", res.Years)
	}
	if res.ExerciseYear != 2025 {
		t.Fatalf("ExerciseYear = %d, want latest year", res.ExerciseYear)
	}
	if res.Score.Score != 100 {
		t.Fatalf("score = %d, want 100 for a stable history", res.Score.Score)
	}
}
