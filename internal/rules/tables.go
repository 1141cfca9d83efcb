// Package rules holds the immutable domain data tables shared by the
// analyzers: deduction limits, tax brackets and detection thresholds.
// Analyzers receive a Tables value at construction so tests can substitute
// alternate tables.
package rules

import "github.com/shopspring/decimal"

// Bracket is one annual progressive tax bracket.
type Bracket struct {
	Floor     decimal.Decimal // bracket applies above this taxable income
	Rate      decimal.Decimal
	Deduction decimal.Decimal // fixed parcel subtracted from rate*income
}

// WithheldBand is the expected range of withheld tax as a fraction of
// annual taxable income. Bands are contiguous, ascending by floor.
type WithheldBand struct {
	Floor   decimal.Decimal // band applies at and above this taxable income
	MinRate decimal.Decimal
	MaxRate decimal.Decimal
}

// Tables bundles every constant an analyzer consults. Values are for the
// 2025 exercise (calendar year 2024) unless a test injects others.
type Tables struct {
	// Deduction limits
	SimplifiedDiscountCap decimal.Decimal // 20% discount cap for simplified filings
	EducationPerPerson    decimal.Decimal // education expenses limit per person/year
	PerDependent          decimal.Decimal // fixed deduction per dependent
	PGBLRate              decimal.Decimal // private pension: fraction of gross taxable income
	DonationRate          decimal.Decimal // incentive donations: fraction of tax due

	// Annual progressive brackets, ascending by floor.
	Brackets []Bracket

	// Suggestion gates
	MinIncomeForPGBL  decimal.Decimal
	MinSavingToReport decimal.Decimal
	MinPGBLHeadroom   decimal.Decimal

	// Sanity bounds on parsed income
	MaxPlausibleIncome decimal.Decimal

	// Consistency thresholds
	PatrimonyVariationRatio decimal.Decimal // variation/disposable-income ratio considered suspicious
	MinPatrimonyVariation   decimal.Decimal // ignore variations below this
	MinPatrimonyNoIncome    decimal.Decimal // patrimony with zero income above this is flagged

	// Deduction thresholds
	MedicalIncomeRatio   decimal.Decimal // medical/income ratio considered high
	MedicalNeedsProvider decimal.Decimal // medical deduction above this needs a provider id
	MedicalConcentration decimal.Decimal // share of one provider considered concentrated

	// Pattern thresholds
	VehicleDepreciation          decimal.Decimal // expected annual depreciation
	VehicleDepreciationTolerance decimal.Decimal
	BenfordMinSamples            int
	RoundValueTolerance          decimal.Decimal
	RoundValueFloor              decimal.Decimal

	// Crypto thresholds (IN RFB 1888/2019)
	CryptoMonthlyExemption decimal.Decimal // monthly gains above this must be reported
	CryptoReportingFloor   decimal.Decimal // holdings above this must be declared
	CryptoMinAnalysisValue decimal.Decimal // ignore dust positions below this
	CryptoMaxAppreciation  decimal.Decimal // year-over-year gain above this is atypical
	CryptoMaxDepreciation  decimal.Decimal // year-over-year loss above this is atypical
	CryptoGiniAlert        decimal.Decimal

	// Dependent age limits
	ChildAgeLimit   int // child, sibling and custody dependents
	StudentAgeLimit int // university student dependents

	// Government cross-check thresholds
	WithheldReportFloor     decimal.Decimal // income above this normally carries withheld tax
	AcquisitionReportFloor  decimal.Decimal // real estate acquired above this is reported via DIMOB
	TransferReportFloor     decimal.Decimal // new assets above this leave a bank transfer trail
	FinancialIncomeMultiple decimal.Decimal // financial holdings above income times this are checked
	HighPatrimonyFloor      decimal.Decimal // patrimony incompatible with a modest income
	ModestIncomeCeiling     decimal.Decimal

	// Income composition thresholds
	AlimonyCriticalRatio decimal.Decimal // alimony/income ratio treated as inconsistent
	AlimonyWatchRatio    decimal.Decimal
	CashBookExpenseRatio decimal.Decimal // cash-book share of self-employment income considered high
	ExemptIncomeRatio    decimal.Decimal // exempt share of total income worth a note
	WithheldBands        []WithheldBand
	WithheldLowSlack     decimal.Decimal // tolerated shortfall below a band's minimum rate
	WithheldHighSlack    decimal.Decimal // tolerated excess above a band's maximum rate
	INSSMinRate          decimal.Decimal
	INSSMaxRate          decimal.Decimal
	INSSRateSlack        decimal.Decimal
	INSSAnnualCeiling    decimal.Decimal // 12x the monthly contribution ceiling
	IncomeGiniAlert      decimal.Decimal
	RepeatedIncomeFloor  decimal.Decimal // ignore identical income values below this

	// Temporal thresholds
	StagnantIncomeBand    decimal.Decimal // income variation below this = stagnant
	PatrimonyGrowthBand   decimal.Decimal // patrimony growth above this = growing
	IncomeDropBand        decimal.Decimal // income drop above this = sudden
	ConstantVariationBand decimal.Decimal // variation below this = constant
	LiquidationFloor      decimal.Decimal // liquidated total per year worth flagging
}

// DefaultTables returns the published 2025 values.
func DefaultTables() Tables {
	return Tables{
		SimplifiedDiscountCap: dec("16754.34"),
		EducationPerPerson:    dec("3561.50"),
		PerDependent:          dec("2275.08"),
		PGBLRate:              dec("0.12"),
		DonationRate:          dec("0.06"),

		Brackets: []Bracket{
			{Floor: dec("0"), Rate: dec("0"), Deduction: dec("0")},
			{Floor: dec("27110.52"), Rate: dec("0.075"), Deduction: dec("2033.28")},
			{Floor: dec("33919.92"), Rate: dec("0.15"), Deduction: dec("4577.28")},
			{Floor: dec("45012.72"), Rate: dec("0.225"), Deduction: dec("7953.24")},
			{Floor: dec("55976.16"), Rate: dec("0.275"), Deduction: dec("10752.00")},
		},

		MinIncomeForPGBL:  dec("50000"),
		MinSavingToReport: dec("100"),
		MinPGBLHeadroom:   dec("1000"),

		MaxPlausibleIncome: dec("10000000"),

		PatrimonyVariationRatio: dec("2.0"),
		MinPatrimonyVariation:   dec("10000"),
		MinPatrimonyNoIncome:    dec("100000"),

		MedicalIncomeRatio:   dec("0.15"),
		MedicalNeedsProvider: dec("5000"),
		MedicalConcentration: dec("0.70"),

		VehicleDepreciation:          dec("0.10"),
		VehicleDepreciationTolerance: dec("0.05"),
		BenfordMinSamples:            50,
		RoundValueTolerance:          dec("100"),
		RoundValueFloor:              dec("500"),

		CryptoMonthlyExemption: dec("35000"),
		CryptoReportingFloor:   dec("5000"),
		CryptoMinAnalysisValue: dec("1000"),
		CryptoMaxAppreciation:  dec("2.0"),
		CryptoMaxDepreciation:  dec("0.80"),
		CryptoGiniAlert:        dec("0.85"),

		ChildAgeLimit:   21,
		StudentAgeLimit: 24,

		WithheldReportFloor:     dec("50000"),
		AcquisitionReportFloor:  dec("100000"),
		TransferReportFloor:     dec("50000"),
		FinancialIncomeMultiple: dec("3"),
		HighPatrimonyFloor:      dec("1000000"),
		ModestIncomeCeiling:     dec("100000"),

		AlimonyCriticalRatio: dec("0.40"),
		AlimonyWatchRatio:    dec("0.30"),
		CashBookExpenseRatio: dec("0.80"),
		ExemptIncomeRatio:    dec("0.60"),
		WithheldBands: []WithheldBand{
			{Floor: dec("0"), MinRate: dec("0"), MaxRate: dec("0")},
			{Floor: dec("27110.52"), MinRate: dec("0"), MaxRate: dec("0.05")},
			{Floor: dec("33919.80"), MinRate: dec("0.02"), MaxRate: dec("0.10")},
			{Floor: dec("45012.60"), MinRate: dec("0.05"), MaxRate: dec("0.15")},
			{Floor: dec("55976.16"), MinRate: dec("0.08"), MaxRate: dec("0.20")},
		},
		WithheldLowSlack:    dec("0.02"),
		WithheldHighSlack:   dec("0.05"),
		INSSMinRate:         dec("0.07"),
		INSSMaxRate:         dec("0.14"),
		INSSRateSlack:       dec("0.02"),
		INSSAnnualCeiling:   dec("93432.24"),
		IncomeGiniAlert:     dec("0.85"),
		RepeatedIncomeFloor: dec("10000"),

		StagnantIncomeBand:    dec("0.05"),
		PatrimonyGrowthBand:   dec("0.20"),
		IncomeDropBand:        dec("0.30"),
		ConstantVariationBand: dec("0.10"),
		LiquidationFloor:      dec("50000"),
	}
}

// WithheldBandFor returns the expected withholding band for an annual
// taxable income.
func (t Tables) WithheldBandFor(taxable decimal.Decimal) (WithheldBand, bool) {
	for i := len(t.WithheldBands) - 1; i >= 0; i-- {
		if taxable.GreaterThanOrEqual(t.WithheldBands[i].Floor) {
			return t.WithheldBands[i], true
		}
	}
	return WithheldBand{}, false
}

// MarginalRate returns the marginal tax rate for an annual taxable income.
func (t Tables) MarginalRate(taxable decimal.Decimal) decimal.Decimal {
	for i := len(t.Brackets) - 1; i >= 0; i-- {
		if taxable.GreaterThan(t.Brackets[i].Floor) {
			return t.Brackets[i].Rate
		}
	}
	return decimal.Zero
}

// AnnualTax computes the annual tax for a taxable income using the
// progressive brackets.
func (t Tables) AnnualTax(taxable decimal.Decimal) decimal.Decimal {
	for i := len(t.Brackets) - 1; i >= 0; i-- {
		b := t.Brackets[i]
		if taxable.GreaterThan(b.Floor) {
			tax := taxable.Mul(b.Rate).Sub(b.Deduction)
			if tax.IsNegative() {
				return decimal.Zero
			}
			return tax
		}
	}
	return decimal.Zero
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
