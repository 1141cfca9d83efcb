package analysis

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"irpfscan/internal/model"
	"irpfscan/internal/rules"
)

// Deductions checks deduction entries against legal limits and audit
// heuristics.
type Deductions struct {
	tables rules.Tables
}

func NewDeductions(tables rules.Tables) *Deductions {
	return &Deductions{tables: tables}
}

func (a *Deductions) Name() string { return "deductions" }

func (a *Deductions) Analyze(d *model.Declaration) []model.Finding {
	var out []model.Finding
	out = append(out, a.checkMedicalRatio(d)...)
	out = append(out, a.checkEducationLimit(d)...)
	out = append(out, a.checkDuplicateDependents(d)...)
	out = append(out, a.checkUndocumentedMedical(d)...)
	return out
}

// checkMedicalRatio flags medical expenses out of proportion to income.
// Deductible medical expenses have no legal cap, which makes them the
// most commonly inflated deduction.
func (a *Deductions) checkMedicalRatio(d *model.Declaration) []model.Finding {
	medical := d.DeductionTotal(model.DeductionMedical)
	income := d.TaxableIncome.Add(d.ExemptIncome)
	if !income.IsPositive() || !medical.IsPositive() {
		return nil
	}

	ratio := medical.Div(income)
	if !ratio.GreaterThan(a.tables.MedicalIncomeRatio) {
		return nil
	}

	pct := ratio.Mul(decimal.NewFromInt(100))
	var sev model.Severity
	switch {
	case pct.GreaterThan(decimal.NewFromInt(30)):
		sev = model.SeverityHigh
	case pct.GreaterThan(decimal.NewFromInt(20)):
		sev = model.SeverityMedium
	default:
		sev = model.SeverityLow
	}

	return []model.Finding{model.Inconsistency{
		Category: model.CatHighMedicalExpenses,
		Severity: sev,
		Description: fmt.Sprintf(
			"Despesas médicas representam %s%% da renda (R$ %s de R$ %s)",
			pct.StringFixed(1), medical.StringFixed(2), income.StringFixed(2)),
		Declared:    medical,
		Expected:    income.Mul(a.tables.MedicalIncomeRatio),
		Remediation: "Proporção alta de despesas médicas requer documentação completa (notas fiscais, recibos)",
		Impact:      medical,
	}}
}

// checkEducationLimit verifies the per-person education deduction cap
// over the filer plus dependents.
func (a *Deductions) checkEducationLimit(d *model.Declaration) []model.Finding {
	education := d.DeductionTotal(model.DeductionEducation)
	if !education.IsPositive() {
		return nil
	}

	persons := int64(1 + len(d.Dependents))
	limit := a.tables.EducationPerPerson.Mul(decimal.NewFromInt(persons))
	if !education.GreaterThan(limit) {
		return nil
	}

	return []model.Finding{model.Inconsistency{
		Category: model.CatEducationOverLimit,
		Severity: model.SeverityHigh,
		Description: fmt.Sprintf(
			"Despesas com educação (R$ %s) excedem limite legal de R$ %s para %d pessoa(s)",
			education.StringFixed(2), limit.StringFixed(2), persons),
		Declared: education,
		Expected: limit,
		Remediation: fmt.Sprintf("Limite de dedução com educação é R$ %s por pessoa/ano",
			a.tables.EducationPerPerson.StringFixed(2)),
		Impact: education.Sub(limit),
	}}
}

// checkDuplicateDependents flags the same CPF listed twice as a
// dependent, which the revenue service rejects automatically.
func (a *Deductions) checkDuplicateDependents(d *model.Declaration) []model.Finding {
	seen := make(map[string]bool)
	dup := make(map[string]bool)
	for _, dep := range d.Dependents {
		if seen[dep.CPF] {
			dup[dep.CPF] = true
		}
		seen[dep.CPF] = true
	}
	if len(dup) == 0 {
		return nil
	}

	cpfs := make([]string, 0, len(dup))
	for cpf := range dup {
		cpfs = append(cpfs, cpf)
	}
	sort.Strings(cpfs)

	desc := "CPF(s) de dependente(s) duplicado(s): "
	for i, cpf := range cpfs {
		if i > 0 {
			desc += ", "
		}
		desc += cpf
	}
	return []model.Finding{model.Inconsistency{
		Category:    model.CatDuplicateDependent,
		Severity:    model.SeverityCritical,
		Description: desc,
		Remediation: "Cada dependente deve aparecer apenas uma vez",
	}}
}

// checkUndocumentedMedical warns about large medical deductions that
// carry no provider identification.
func (a *Deductions) checkUndocumentedMedical(d *model.Declaration) []model.Finding {
	var out []model.Finding
	for _, ded := range d.Deductions {
		if ded.Category != model.DeductionMedical {
			continue
		}
		if ded.Amount.GreaterThan(a.tables.MedicalNeedsProvider) && ded.ProviderID == "" {
			out = append(out, model.Warning{
				Category: model.WarnDeduction,
				Severity: model.SeverityMedium,
				Field:    "deducoes",
				Message: fmt.Sprintf("Despesa médica de R$ %s sem CNPJ do prestador informado",
					ded.Amount.StringFixed(2)),
				Impact: ded.Amount,
			})
		}
	}
	return out
}
