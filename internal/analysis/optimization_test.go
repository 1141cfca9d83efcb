package analysis

import (
	"strings"
	"testing"

	"irpfscan/internal/model"
	"irpfscan/internal/rules"
)

func findSuggestion(fs []model.Finding, substr string) (model.Suggestion, bool) {
	for _, f := range fs {
		s, ok := f.(model.Suggestion)
		if !ok {
			continue
		}
		if strings.Contains(s.Title, substr) || strings.Contains(s.Description, substr) {
			return s, true
		}
	}
	return model.Suggestion{}, false
}

func TestOptimizationGate(t *testing.T) {
	a := NewOptimization(rules.DefaultTables())

	if fs := a.Analyze(&model.Declaration{}); len(fs) != 0 {
		t.Fatalf("findings = %+v, want none without taxable income", fs)
	}

	d := &model.Declaration{TaxableIncome: money(t, "99000000")}
	if fs := a.Analyze(d); len(fs) != 0 {
		t.Fatalf("findings = %+v, want none above the plausible bound", fs)
	}
}

func TestSimplifiedRegimeSuggestion(t *testing.T) {
	a := NewOptimization(rules.DefaultTables())
	d := &model.Declaration{
		FilingType:    model.FilingComplete,
		TaxableIncome: money(t, "100000"),
		Deductions: []model.Deduction{
			{Category: model.DeductionEducation, Amount: money(t, "1000")},
		},
	}

	s, ok := findSuggestion(a.Analyze(d), "simplificada")
	if !ok {
		t.Fatal("expected simplified-regime suggestion")
	}
	if s.Priority != 1 || !s.PotentialSaving.IsPositive() {
		t.Fatalf("suggestion = %+v, want priority 1 with a positive saving", s)
	}
}

func TestCompleteRegimeSuggestion(t *testing.T) {
	a := NewOptimization(rules.DefaultTables())
	d := &model.Declaration{
		FilingType:    model.FilingSimplified,
		TaxableIncome: money(t, "100000"),
		Deductions: []model.Deduction{
			{Category: model.DeductionMedical, Amount: money(t, "30000")},
		},
	}

	// itemized 30000 vs capped discount 16754.34, saving at 27.5%
	s, ok := findSuggestion(a.Analyze(d), "completa")
	if !ok {
		t.Fatal("expected complete-regime suggestion")
	}
	if s.PotentialSaving.StringFixed(2) != "3642.56" {
		t.Fatalf("saving = %s, want 3642.56", s.PotentialSaving.StringFixed(2))
	}
}

func TestPGBLSuggestion(t *testing.T) {
	a := NewOptimization(rules.DefaultTables())
	d := &model.Declaration{
		FilingType:    model.FilingSimplified,
		TaxableIncome: money(t, "100000"),
	}

	s, ok := findSuggestion(a.Analyze(d), "PGBL")
	if !ok {
		t.Fatal("expected PGBL suggestion")
	}
	// headroom 12000 at 27.5%
	if s.PotentialSaving.StringFixed(2) != "3300.00" {
		t.Fatalf("saving = %s, want 3300.00", s.PotentialSaving.StringFixed(2))
	}

	d.Deductions = []model.Deduction{
		{Category: model.DeductionPrivatePension, Amount: money(t, "11500")},
	}
	if _, ok := findSuggestion(a.Analyze(d), "PGBL"); ok {
		t.Fatal("PGBL space under the headroom floor must not be suggested")
	}
}

func TestDonationSuggestion(t *testing.T) {
	a := NewOptimization(rules.DefaultTables())
	d := &model.Declaration{
		FilingType:    model.FilingSimplified,
		TaxableIncome: money(t, "40000"),
		TaxDue:        money(t, "10000"),
	}

	s, ok := findSuggestion(a.Analyze(d), "doações")
	if !ok {
		t.Fatal("expected donation suggestion")
	}
	if s.Priority != 2 || s.PotentialSaving.StringFixed(2) != "600.00" {
		t.Fatalf("suggestion = %+v, want priority 2 saving 600.00", s)
	}

	d.Deductions = []model.Deduction{
		{Category: model.DeductionOther, Amount: money(t, "600"), Description: "DOACAO FUNDO DA CRIANÇA E DO ADOLESCENTE"},
	}
	if _, ok := findSuggestion(a.Analyze(d), "doações"); ok {
		t.Fatal("donation space already used must not be suggested")
	}
}

func TestCashBookSuggestion(t *testing.T) {
	a := NewOptimization(rules.DefaultTables())
	d := &model.Declaration{
		FilingType:    model.FilingSimplified,
		TaxableIncome: money(t, "40000"),
		Incomes: []model.Income{
			{Category: model.IncomeSelfEmployed, Annual: money(t, "40000")},
		},
	}

	if _, ok := findSuggestion(a.Analyze(d), "livro-caixa"); !ok {
		t.Fatal("expected cash-book suggestion")
	}

	d.Deductions = []model.Deduction{
		{Category: model.DeductionCashBook, Amount: money(t, "2000")},
	}
	if _, ok := findSuggestion(a.Analyze(d), "livro-caixa"); ok {
		t.Fatal("cash book already in use must not be suggested")
	}
}

func TestSuggestionsSortedByPriority(t *testing.T) {
	a := NewOptimization(rules.DefaultTables())
	d := &model.Declaration{
		FilingType:    model.FilingSimplified,
		TaxableIncome: money(t, "100000"),
		TaxDue:        money(t, "10000"),
		Incomes: []model.Income{
			{Category: model.IncomeSelfEmployed, Annual: money(t, "100000")},
		},
	}

	fs := a.Analyze(d)
	if len(fs) < 3 {
		t.Fatalf("findings = %+v, want PGBL, donation and cash-book suggestions", fs)
	}
	prev := 0
	for _, f := range fs {
		s, ok := f.(model.Suggestion)
		if !ok {
			t.Fatalf("unexpected non-suggestion finding %+v", f)
		}
		if s.Priority < prev {
			t.Fatalf("suggestions not sorted by priority: %+v", fs)
		}
		prev = s.Priority
	}
}
