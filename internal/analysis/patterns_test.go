package analysis

import (
	"testing"

	"irpfscan/internal/model"
	"irpfscan/internal/rules"
)

func TestIdentifierValidation(t *testing.T) {
	a := NewPatterns(rules.DefaultTables())

	t.Run("invalid taxpayer CPF", func(t *testing.T) {
		d := &model.Declaration{Taxpayer: model.Taxpayer{CPF: "52998224724"}}
		inc, ok := findInconsistency(a.checkIdentifiers(d), model.CatInvalidCPF)
		if !ok || inc.Severity != model.SeverityCritical {
			t.Fatalf("want critical invalid-CPF inconsistency, got %+v", inc)
		}
	})

	t.Run("invalid dependent CPF", func(t *testing.T) {
		d := &model.Declaration{
			Taxpayer:   model.Taxpayer{CPF: validCPF},
			Dependents: []model.Dependent{{CPF: "11111111111", Name: "FILHO"}},
		}
		inc, ok := findInconsistency(a.checkIdentifiers(d), model.CatInvalidCPF)
		if !ok || inc.Severity != model.SeverityHigh {
			t.Fatalf("want high invalid-CPF inconsistency, got %+v", inc)
		}
	})

	t.Run("invalid income source CNPJ", func(t *testing.T) {
		d := &model.Declaration{
			Taxpayer: model.Taxpayer{CPF: validCPF},
			Incomes: []model.Income{{
				SourceID: "11222333000180", SourceName: "EMPREGADOR",
				Annual: money(t, "80000"),
			}},
		}
		inc, ok := findInconsistency(a.checkIdentifiers(d), model.CatInvalidCNPJ)
		if !ok || inc.Severity != model.SeverityHigh {
			t.Fatalf("want high invalid-CNPJ inconsistency, got %+v", inc)
		}
		if inc.Impact.StringFixed(0) != "80000" {
			t.Fatalf("impact = %s, want the annual amount", inc.Impact)
		}
	})

	t.Run("invalid provider CNPJ is a warning", func(t *testing.T) {
		d := &model.Declaration{
			Taxpayer: model.Taxpayer{CPF: validCPF},
			Deductions: []model.Deduction{{
				Category: model.DeductionMedical, Amount: money(t, "2000"),
				ProviderID: "11222333000180",
			}},
		}
		fs := a.checkIdentifiers(d)
		if n := countInconsistencies(fs, model.CatInvalidCNPJ); n != 0 {
			t.Fatalf("provider CNPJ produced %d inconsistencies, want warning only", n)
		}
		if _, ok := findWarning(fs, "CNPJ de prestador"); !ok {
			t.Fatalf("findings = %+v, want provider warning", fs)
		}
	})

	t.Run("all valid", func(t *testing.T) {
		d := &model.Declaration{
			Taxpayer:   model.Taxpayer{CPF: validCPF},
			Dependents: []model.Dependent{{CPF: validCPF2, Name: "FILHO"}},
			Incomes:    []model.Income{{SourceID: validCNPJ, Annual: money(t, "80000")}},
		}
		if fs := a.checkIdentifiers(d); len(fs) != 0 {
			t.Fatalf("findings = %+v, want none", fs)
		}
	})
}

func TestVehicleDepreciation(t *testing.T) {
	cases := []struct {
		name    string
		prior   string
		current string
		want    string // substring of the expected warning, "" for none
		sev     model.Severity
	}{
		{"normal depreciation", "100000", "90000", "", ""},
		{"no depreciation", "100000", "100000", "abaixo do esperado", model.SeverityLow},
		{"appreciation", "100000", "110000", "abaixo do esperado", model.SeverityLow},
		{"excessive drop", "100000", "60000", "acima do esperado", model.SeverityMedium},
		{"sold to zero ignored", "100000", "0", "", ""},
	}

	a := NewPatterns(rules.DefaultTables())
	for _, c := range cases {
		d := &model.Declaration{Assets: []model.Asset{{
			Group: model.AssetVehicles, Code: "21",
			Description:  "FIAT ARGO 2021",
			PriorValue:   money(t, c.prior),
			CurrentValue: money(t, c.current),
		}}}
		fs := a.checkVehicleDepreciation(d)
		if c.want == "" {
			if len(fs) != 0 {
				t.Errorf("%s: findings = %+v, want none", c.name, fs)
			}
			continue
		}
		w, ok := findWarning(fs, c.want)
		if !ok {
			t.Errorf("%s: findings = %+v, want %q warning", c.name, fs, c.want)
			continue
		}
		if w.Severity != c.sev {
			t.Errorf("%s: severity = %s, want %s", c.name, w.Severity, c.sev)
		}
	}
}

func TestRoundValueDeductions(t *testing.T) {
	a := NewPatterns(rules.DefaultTables())

	d := &model.Declaration{Deductions: []model.Deduction{
		{Category: model.DeductionEducation, Amount: money(t, "2000.00")},
		{Category: model.DeductionEducation, Amount: money(t, "3000.00")},
		{Category: model.DeductionOther, Amount: money(t, "1500.00")},
		{Category: model.DeductionMedical, Amount: money(t, "1234.56")}, // excluded
	}}
	if _, ok := findWarning(a.checkRoundValues(d), "valores redondos"); !ok {
		t.Fatal("expected round-values warning")
	}

	d.Deductions[1].Amount = money(t, "3127.43")
	d.Deductions[2].Amount = money(t, "1581.90")
	if fs := a.checkRoundValues(d); len(fs) != 0 {
		t.Fatalf("findings = %+v, want none when values are organic", fs)
	}
}

func TestMedicalConcentration(t *testing.T) {
	a := NewPatterns(rules.DefaultTables())

	d := &model.Declaration{Deductions: []model.Deduction{
		{Category: model.DeductionMedical, Amount: money(t, "9000"), ProviderID: validCNPJ},
		{Category: model.DeductionMedical, Amount: money(t, "1000")},
	}}
	w, ok := findWarning(a.checkMedicalConcentration(d), "concentradas")
	if !ok || w.Severity != model.SeverityMedium {
		t.Fatalf("want medium concentration warning, got %+v", w)
	}

	d.Deductions[0].Amount = money(t, "1200")
	if fs := a.checkMedicalConcentration(d); len(fs) != 0 {
		t.Fatalf("findings = %+v, want none when balanced", fs)
	}
}

func TestRepeatedMedicalValues(t *testing.T) {
	a := NewPatterns(rules.DefaultTables())
	d := &model.Declaration{Deductions: []model.Deduction{
		{Category: model.DeductionMedical, Amount: money(t, "1500.00")},
		{Category: model.DeductionMedical, Amount: money(t, "1500.00")},
		{Category: model.DeductionMedical, Amount: money(t, "1500.00")},
		{Category: model.DeductionMedical, Amount: money(t, "830.00")},
	}}

	w, ok := findWarning(a.checkRepeatedMedicalValues(d), "valor idêntico")
	if !ok {
		t.Fatal("expected repeated-value warning")
	}
	if w.Impact.StringFixed(2) != "4500.00" {
		t.Fatalf("impact = %s, want 4500.00", w.Impact.StringFixed(2))
	}
}

func TestNearDuplicateDeductions(t *testing.T) {
	a := NewPatterns(rules.DefaultTables())
	d := &model.Declaration{Deductions: []model.Deduction{
		{Category: model.DeductionOther, Amount: money(t, "1000.00")},
		{Category: model.DeductionOther, Amount: money(t, "1000.01")},
		{Category: model.DeductionOther, Amount: money(t, "1000.02")},
	}}

	w, ok := findWarning(a.checkNearDuplicateDeductions(d), "repetido")
	if !ok {
		t.Fatal("expected near-duplicate warning for almost identical amounts")
	}
	if w.Impact.StringFixed(2) != "2000.00" {
		t.Fatalf("impact = %s, want 2000.00", w.Impact.StringFixed(2))
	}

	spread := &model.Declaration{Deductions: []model.Deduction{
		{Category: model.DeductionOther, Amount: money(t, "1000.00")},
		{Category: model.DeductionOther, Amount: money(t, "1200.00")},
		{Category: model.DeductionOther, Amount: money(t, "1400.00")},
	}}
	if fs := a.checkNearDuplicateDeductions(spread); fs != nil {
		t.Fatalf("distinct amounts flagged: %+v", fs)
	}
}

func TestDeductionOutliersInformational(t *testing.T) {
	a := NewPatterns(rules.DefaultTables())
	d := &model.Declaration{Deductions: []model.Deduction{
		{Category: model.DeductionEducation, Amount: money(t, "1000")},
		{Category: model.DeductionEducation, Amount: money(t, "1100")},
		{Category: model.DeductionEducation, Amount: money(t, "1200")},
		{Category: model.DeductionEducation, Amount: money(t, "1300")},
		{Category: model.DeductionOther, Amount: money(t, "50000")},
	}}

	fs := a.checkDeductionOutliers(d)
	w, ok := findWarning(fs, "outlier")
	if !ok {
		t.Fatalf("findings = %+v, want outlier warning", fs)
	}
	if !w.Informational {
		t.Fatal("outlier warnings must be informational")
	}
}
