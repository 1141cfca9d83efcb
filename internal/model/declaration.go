// Package model holds the declaration aggregate built by the parser and the
// finding types produced by the analyzers. Everything here is a value object:
// built once, read-only afterwards.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Taxpayer identifies the filer.
type Taxpayer struct {
	CPF       string
	Name      string
	BirthDate time.Time // zero when absent
}

// MaskedCPF returns the CPF masked for display as ***.***.**X-XX.
func (t Taxpayer) MaskedCPF() string {
	digits := digitsOnly(t.CPF)
	if len(digits) != 11 {
		return "***.***.***-**"
	}
	return "***.***.**" + digits[8:9] + "-" + digits[9:]
}

// Dependent is one dependent entry of the filing.
type Dependent struct {
	Type      DependentType
	CPF       string
	Name      string
	BirthDate time.Time // zero when absent
}

// AgeAt returns the dependent's age at the given reference date, or -1 when
// the birth date is unknown.
func (d Dependent) AgeAt(ref time.Time) int {
	if d.BirthDate.IsZero() {
		return -1
	}
	age := ref.Year() - d.BirthDate.Year()
	if ref.Month() < d.BirthDate.Month() ||
		(ref.Month() == d.BirthDate.Month() && ref.Day() < d.BirthDate.Day()) {
		age--
	}
	return age
}

// Deduction is one deduction entry. Amount is never negative: the parser
// coerces garbled values to zero.
type Deduction struct {
	Category       DeductionCategory
	Amount         decimal.Decimal
	ProviderID     string // CNPJ or CPF of the provider, optional
	ProviderName   string
	BeneficiaryCPF string // optional, for expenses attributed to a dependent
	Description    string
}

// Asset is one asset entry. Prior and current values are independent
// snapshots; matching assets across filings is an analyzer concern.
type Asset struct {
	Group        AssetGroup
	Code         string // sub-code within the group
	Description  string
	PriorValue   decimal.Decimal // value on Dec 31 of the previous year
	CurrentValue decimal.Decimal // value on Dec 31 of the reference year
	Result       decimal.Decimal // declared profit/loss, used for foreign stocks
	CustodianID  string          // CNPJ of the custodian institution, optional
	CountryCode  string          // optional
}

// Delta returns the absolute year-over-year variation.
func (a Asset) Delta() decimal.Decimal {
	return a.CurrentValue.Sub(a.PriorValue)
}

// DeltaPercent returns the percentage year-over-year variation. A previously
// absent asset counts as +100% when it now has value.
func (a Asset) DeltaPercent() decimal.Decimal {
	if a.PriorValue.IsZero() {
		if a.CurrentValue.IsPositive() {
			return decimal.NewFromInt(100)
		}
		return decimal.Zero
	}
	return a.CurrentValue.Sub(a.PriorValue).Div(a.PriorValue).Mul(decimal.NewFromInt(100))
}

// HasDeclaredResult reports whether a profit/loss was declared on the asset
// itself.
func (a Asset) HasDeclaredResult() bool {
	return !a.Result.IsZero()
}

// Disposal is one sale/disposal entry.
type Disposal struct {
	AssetName       string
	RegistryNumber  string    // company registry number, optional (free-search field)
	Date            time.Time // zero when absent
	SaleValue       decimal.Decimal
	AcquisitionCost decimal.Decimal
	CapitalGain     decimal.Decimal
	TaxDue          decimal.Decimal
}

// HasGain reports a positive realized gain.
func (d Disposal) HasGain() bool { return d.CapitalGain.IsPositive() }

// HasLoss reports a realized loss.
func (d Disposal) HasLoss() bool { return d.CapitalGain.IsNegative() }

// Income is one income entry.
type Income struct {
	Category    IncomeCategory
	SourceID    string // CNPJ/CPF of the paying source, optional
	SourceName  string
	Annual      decimal.Decimal
	TaxWithheld decimal.Decimal
	Description string
}

// Declaration is the root aggregate for one annual filing. Collections are
// never nil and totals never absent: missing sections degrade to empty.
type Declaration struct {
	Taxpayer      Taxpayer
	ExerciseYear  int // year the filing was submitted
	CalendarYear  int // year the filing refers to
	FilingType    FilingType
	Amended       bool
	ReceiptNumber string
	State         string

	Dependents []Dependent
	Deductions []Deduction
	Assets     []Asset
	Disposals  []Disposal
	Incomes    []Income

	TaxableIncome   decimal.Decimal
	ExemptIncome    decimal.Decimal
	ExclusiveIncome decimal.Decimal
	TotalDeductions decimal.Decimal
	TaxBase         decimal.Decimal
	TaxDue          decimal.Decimal
	TaxPaid         decimal.Decimal
	TaxBalance      decimal.Decimal // positive to pay, negative refund
}

// TotalIncome is the sum of taxable, exempt and exclusively-taxed income.
func (d *Declaration) TotalIncome() decimal.Decimal {
	return d.TaxableIncome.Add(d.ExemptIncome).Add(d.ExclusiveIncome)
}

// PatrimonySummary aggregates asset totals for both snapshots.
type PatrimonySummary struct {
	PriorTotal   decimal.Decimal
	CurrentTotal decimal.Decimal
}

// Delta returns the patrimony variation during the year.
func (p PatrimonySummary) Delta() decimal.Decimal {
	return p.CurrentTotal.Sub(p.PriorTotal)
}

// Patrimony sums the asset snapshots.
func (d *Declaration) Patrimony() PatrimonySummary {
	var prior, current decimal.Decimal
	for _, a := range d.Assets {
		prior = prior.Add(a.PriorValue)
		current = current.Add(a.CurrentValue)
	}
	return PatrimonySummary{PriorTotal: prior, CurrentTotal: current}
}

// DeductionTotals returns per-category deduction sums.
func (d *Declaration) DeductionTotals() map[DeductionCategory]decimal.Decimal {
	totals := make(map[DeductionCategory]decimal.Decimal)
	for _, ded := range d.Deductions {
		totals[ded.Category] = totals[ded.Category].Add(ded.Amount)
	}
	return totals
}

// DeductionTotal sums deductions of one category.
func (d *Declaration) DeductionTotal(cat DeductionCategory) decimal.Decimal {
	var total decimal.Decimal
	for _, ded := range d.Deductions {
		if ded.Category == cat {
			total = total.Add(ded.Amount)
		}
	}
	return total
}

// AssetsInGroup returns the assets of one group, in filing order.
func (d *Declaration) AssetsInGroup(group AssetGroup) []Asset {
	var out []Asset
	for _, a := range d.Assets {
		if a.Group == group {
			out = append(out, a)
		}
	}
	return out
}

// HasRefund reports whether the filing results in a tax refund.
func (d *Declaration) HasRefund() bool { return d.TaxBalance.IsNegative() }

func digitsOnly(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			out = append(out, s[i])
		}
	}
	return string(out)
}
