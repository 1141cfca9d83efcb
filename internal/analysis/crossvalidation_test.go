package analysis

import (
	"testing"

	"irpfscan/internal/model"
	"irpfscan/internal/rules"
)

func TestMissingWithheldOnLargeIncome(t *testing.T) {
	a := NewCrossValidation(rules.DefaultTables())
	d := &model.Declaration{
		Incomes: []model.Income{
			{Category: model.IncomeSalaried, Annual: money(t, "80000"), SourceName: "EMPRESA A"},
			{Category: model.IncomeSalaried, Annual: money(t, "60000"), SourceName: "EMPRESA B",
				TaxWithheld: money(t, "9000")},
			{Category: model.IncomeRental, Annual: money(t, "70000")},
			{Category: model.IncomeSalaried, Annual: money(t, "30000"), SourceName: "EMPRESA C"},
		},
	}

	fs := a.checkMissingWithheld(d)
	if len(fs) != 1 {
		t.Fatalf("findings = %+v, want exactly one warning", fs)
	}
	w := fs[0].(model.Warning)
	if w.Severity != model.SeverityMedium || w.Impact.StringFixed(2) != "80000.00" {
		t.Fatalf("warning = %+v, want medium over 80000.00", w)
	}
}

func TestRealEstateAcquisitionBeyondIncome(t *testing.T) {
	a := NewCrossValidation(rules.DefaultTables())
	d := &model.Declaration{
		TaxableIncome: money(t, "90000"),
		Assets: []model.Asset{
			{Group: model.AssetRealEstate, Code: "01", Description: "APARTAMENTO NOVO",
				CurrentValue: money(t, "400000")},
			{Group: model.AssetRealEstate, Code: "01", Description: "CASA ANTIGA",
				PriorValue: money(t, "300000"), CurrentValue: money(t, "300000")},
		},
	}

	fs := a.checkRealEstateAcquisitions(d)
	if len(fs) != 1 {
		t.Fatalf("findings = %+v, want exactly one warning", fs)
	}
	w := fs[0].(model.Warning)
	// excess of the acquisition over the income
	if w.Impact.StringFixed(2) != "310000.00" {
		t.Fatalf("impact = %s, want 310000.00", w.Impact.StringFixed(2))
	}

	d.TaxableIncome = money(t, "500000")
	if fs := a.checkRealEstateAcquisitions(d); len(fs) != 0 {
		t.Fatalf("findings = %+v, want none when income covers the purchase", fs)
	}
}

func TestFinancialHoldingsVsIncome(t *testing.T) {
	a := NewCrossValidation(rules.DefaultTables())
	d := &model.Declaration{
		TaxableIncome: money(t, "50000"),
		Assets: []model.Asset{
			{Group: model.AssetSavings, CurrentValue: money(t, "100000")},
			{Group: model.AssetFunds, CurrentValue: money(t, "80000")},
			{Group: model.AssetRealEstate, CurrentValue: money(t, "900000")},
		},
	}

	w, ok := findWarning(a.checkFinancialHoldings(d), "Aplicações financeiras")
	if !ok {
		t.Fatal("expected financial-holdings warning")
	}
	if !w.Informational {
		t.Fatal("financial-holdings warning must be informational")
	}
	// real estate must not count toward the financial total
	if w.Impact.StringFixed(2) != "180000.00" {
		t.Fatalf("impact = %s, want 180000.00", w.Impact.StringFixed(2))
	}

	d.TaxableIncome = money(t, "70000")
	if fs := a.checkFinancialHoldings(d); len(fs) != 0 {
		t.Fatalf("findings = %+v, want none within the income multiple", fs)
	}
}

func TestMedicalProviderMatching(t *testing.T) {
	a := NewCrossValidation(rules.DefaultTables())
	d := &model.Declaration{
		Deductions: []model.Deduction{
			{Category: model.DeductionMedical, Amount: money(t, "8000"), ProviderID: validCNPJ},
			{Category: model.DeductionMedical, Amount: money(t, "8000")},
			{Category: model.DeductionMedical, Amount: money(t, "4000"), ProviderID: validCNPJ},
		},
	}

	fs := a.checkMedicalProviders(d)
	if len(fs) != 1 {
		t.Fatalf("findings = %+v, want exactly one warning", fs)
	}
	w := fs[0].(model.Warning)
	if !w.Informational || w.Impact.StringFixed(2) != "8000.00" {
		t.Fatalf("warning = %+v, want informational over 8000.00", w)
	}
}

func TestLifestyleMismatch(t *testing.T) {
	a := NewCrossValidation(rules.DefaultTables())
	d := &model.Declaration{
		TaxableIncome: money(t, "60000"),
		Assets: []model.Asset{
			{Group: model.AssetRealEstate, CurrentValue: money(t, "1500000"),
				PriorValue: money(t, "1500000")},
		},
	}

	if _, ok := findWarning(a.checkLifestyle(d), "DECRED"); !ok {
		t.Fatal("expected lifestyle warning")
	}

	d.TaxableIncome = money(t, "250000")
	if fs := a.checkLifestyle(d); len(fs) != 0 {
		t.Fatalf("findings = %+v, want none for a compatible income", fs)
	}
}

func TestRentalPropertiesWithoutRentalIncome(t *testing.T) {
	a := NewCrossValidation(rules.DefaultTables())
	d := &model.Declaration{
		Assets: []model.Asset{
			{Group: model.AssetRealEstate, Code: "01", CurrentValue: money(t, "300000"),
				PriorValue: money(t, "300000")},
			{Group: model.AssetRealEstate, Code: "12", CurrentValue: money(t, "200000"),
				PriorValue: money(t, "200000")},
			{Group: model.AssetRealEstate, Code: "13", CurrentValue: money(t, "90000"),
				PriorValue: money(t, "90000")}, // unbuilt land, not countable
		},
	}

	w, ok := findWarning(a.checkRentalProperties(d), "aluguel")
	if !ok {
		t.Fatal("expected missing-rental warning")
	}
	if w.Message != "2 imóveis edificados sem rendimento de aluguel declarado" {
		t.Fatalf("message = %q", w.Message)
	}

	d.Incomes = []model.Income{{Category: model.IncomeRental, Annual: money(t, "24000")}}
	if fs := a.checkRentalProperties(d); len(fs) != 0 {
		t.Fatalf("findings = %+v, want none with rental income", fs)
	}
}

func TestNewAssetsTransferTrail(t *testing.T) {
	a := NewCrossValidation(rules.DefaultTables())
	d := &model.Declaration{
		Assets: []model.Asset{
			{Group: model.AssetVehicles, CurrentValue: money(t, "90000")},
			{Group: model.AssetInvestments, CurrentValue: money(t, "60000")},
			{Group: model.AssetVehicles, CurrentValue: money(t, "30000")},
			{Group: model.AssetSavings, PriorValue: money(t, "80000"),
				CurrentValue: money(t, "85000")},
		},
	}

	w, ok := findWarning(a.checkNewAssets(d), "DOC/TED")
	if !ok {
		t.Fatal("expected transfer-trail warning")
	}
	if w.Impact.StringFixed(2) != "150000.00" {
		t.Fatalf("impact = %s, want 150000.00", w.Impact.StringFixed(2))
	}
}
