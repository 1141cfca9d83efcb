package analysis

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"irpfscan/internal/model"
	"irpfscan/internal/rules"
	"irpfscan/internal/stats"
)

// Income checks the composition of declared income: alimony proportion,
// cash-book coverage, withholding rates, social security contributions
// and source concentration.
type Income struct {
	tables rules.Tables
}

func NewIncome(tables rules.Tables) *Income {
	return &Income{tables: tables}
}

func (a *Income) Name() string { return "income" }

func (a *Income) Analyze(d *model.Declaration) []model.Finding {
	var out []model.Finding
	out = append(out, a.checkAlimonyRatio(d)...)
	out = append(out, a.checkCashBook(d)...)
	out = append(out, a.checkExemptShare(d)...)
	out = append(out, a.checkWithheldRate(d)...)
	out = append(out, a.checkINSS(d)...)
	out = append(out, a.checkConcentration(d)...)
	out = append(out, a.checkRepeatedValues(d)...)
	return out
}

// checkAlimonyRatio flags alimony deductions out of proportion to income.
// Court-ordered alimony is fully deductible, which makes it a recurring
// inflation target.
func (a *Income) checkAlimonyRatio(d *model.Declaration) []model.Finding {
	alimony := d.DeductionTotal(model.DeductionAlimony)
	income := d.TaxableIncome.Add(d.ExemptIncome)
	if !alimony.IsPositive() || !income.IsPositive() {
		return nil
	}

	ratio := alimony.Div(income)
	if ratio.GreaterThan(a.tables.AlimonyCriticalRatio) {
		expected := income.Mul(a.tables.AlimonyCriticalRatio)
		return []model.Finding{model.Inconsistency{
			Category: model.CatHighAlimony,
			Severity: model.SeverityHigh,
			Description: fmt.Sprintf(
				"Pensão alimentícia (R$ %s) representa %s%% da renda declarada",
				alimony.StringFixed(2), ratio.Mul(decimal.NewFromInt(100)).StringFixed(1)),
			Declared:    alimony,
			Expected:    expected,
			Remediation: "Pensão dedutível exige decisão judicial ou escritura pública; manter comprovantes de pagamento",
			Impact:      alimony.Sub(expected),
		}}
	}
	if ratio.GreaterThan(a.tables.AlimonyWatchRatio) {
		return []model.Finding{model.Warning{
			Category: model.WarnGeneral,
			Severity: model.SeverityLow,
			Field:    "deducoes",
			Message: fmt.Sprintf("Pensão alimentícia consome %s%% da renda",
				ratio.Mul(decimal.NewFromInt(100)).StringFixed(1)),
			Informational: true,
			Impact:        alimony,
		}}
	}
	return nil
}

// checkCashBook verifies livro-caixa deductions against self-employment
// income. The deduction only exists for autonomous professionals.
func (a *Income) checkCashBook(d *model.Declaration) []model.Finding {
	cashBook := d.DeductionTotal(model.DeductionCashBook)
	if !cashBook.IsPositive() {
		return nil
	}

	autonomous := incomeInCategory(d, model.IncomeSelfEmployed)
	if !autonomous.IsPositive() {
		return []model.Finding{model.Inconsistency{
			Category: model.CatUndocumentedDeduction,
			Severity: model.SeverityHigh,
			Description: fmt.Sprintf(
				"Dedução de livro-caixa (R$ %s) sem rendimento de trabalho não assalariado",
				cashBook.StringFixed(2)),
			Declared:    cashBook,
			Remediation: "Livro-caixa só é dedutível para quem declara rendimento de trabalho não assalariado",
			Impact:      cashBook,
		}}
	}
	if cashBook.Div(autonomous).GreaterThan(a.tables.CashBookExpenseRatio) {
		return []model.Finding{model.Warning{
			Category: model.WarnDeduction,
			Severity: model.SeverityMedium,
			Field:    "deducoes",
			Message: fmt.Sprintf(
				"Livro-caixa (R$ %s) consome mais de %s%% do rendimento de autônomo",
				cashBook.StringFixed(2),
				a.tables.CashBookExpenseRatio.Mul(decimal.NewFromInt(100)).StringFixed(0)),
			Impact: cashBook,
		}}
	}
	return nil
}

// checkExemptShare notes a high proportion of exempt income. Legitimate
// on its own, but a common shape for reclassified taxable income.
func (a *Income) checkExemptShare(d *model.Declaration) []model.Finding {
	if !d.ExemptIncome.IsPositive() || !d.TaxableIncome.IsPositive() {
		return nil
	}
	total := d.TaxableIncome.Add(d.ExemptIncome)
	share := d.ExemptIncome.Div(total)
	if !share.GreaterThan(a.tables.ExemptIncomeRatio) {
		return nil
	}
	return []model.Finding{model.Warning{
		Category: model.WarnGeneral,
		Severity: model.SeverityLow,
		Field:    "rendimentos",
		Message: fmt.Sprintf(
			"Rendimentos isentos representam %s%% da renda total (R$ %s)",
			share.Mul(decimal.NewFromInt(100)).StringFixed(1), d.ExemptIncome.StringFixed(2)),
		Informational: true,
		Impact:        d.ExemptIncome,
	}}
}

// checkWithheldRate compares total withheld tax against the band expected
// for the filer's taxable income.
func (a *Income) checkWithheldRate(d *model.Declaration) []model.Finding {
	if len(d.Incomes) == 0 || !d.TaxableIncome.IsPositive() {
		return nil
	}
	withheld := decimal.Zero
	for _, in := range d.Incomes {
		withheld = withheld.Add(in.TaxWithheld)
	}
	band, ok := a.tables.WithheldBandFor(d.TaxableIncome)
	if !ok {
		return nil
	}

	ratio := withheld.Div(d.TaxableIncome)
	pct := ratio.Mul(decimal.NewFromInt(100))
	switch {
	case ratio.GreaterThan(band.MaxRate.Add(a.tables.WithheldHighSlack)):
		return []model.Finding{model.Warning{
			Category: model.WarnConsistency,
			Severity: model.SeverityMedium,
			Field:    "rendimentos",
			Message: fmt.Sprintf(
				"IRRF de %s%% acima da faixa esperada para a renda. Possível rendimento não declarado",
				pct.StringFixed(1)),
			Impact: withheld,
		}}
	case ratio.IsPositive() && ratio.LessThan(band.MinRate.Sub(a.tables.WithheldLowSlack)):
		return []model.Finding{model.Warning{
			Category: model.WarnConsistency,
			Severity: model.SeverityLow,
			Field:    "rendimentos",
			Message: fmt.Sprintf(
				"IRRF de %s%% abaixo da faixa esperada para a renda declarada",
				pct.StringFixed(1)),
			Impact: withheld,
		}}
	}
	return nil
}

// checkINSS verifies the official pension contribution against salaried
// income. Contribution is mandatory and capped at an annual ceiling.
func (a *Income) checkINSS(d *model.Declaration) []model.Finding {
	salaried := incomeInCategory(d, model.IncomeSalaried)
	if !salaried.IsPositive() {
		return nil
	}

	inss := d.DeductionTotal(model.DeductionOfficialPension)
	if inss.IsZero() {
		if !a.tables.MarginalRate(salaried).IsPositive() {
			return nil
		}
		return []model.Finding{model.Inconsistency{
			Category: model.CatSuspiciousZeroValue,
			Severity: model.SeverityHigh,
			Description: fmt.Sprintf(
				"Rendimento assalariado de R$ %s sem contribuição previdenciária oficial",
				salaried.StringFixed(2)),
			Expected:    salaried.Mul(a.tables.INSSMinRate),
			Remediation: "Contribuição ao INSS é obrigatória sobre rendimento de trabalho assalariado",
		}}
	}

	expectedMax := salaried.Mul(a.tables.INSSMaxRate.Add(a.tables.INSSRateSlack))
	if expectedMax.GreaterThan(a.tables.INSSAnnualCeiling) {
		expectedMax = a.tables.INSSAnnualCeiling
	}
	ratio := inss.Div(salaried)
	pct := ratio.Mul(decimal.NewFromInt(100))
	switch {
	case inss.GreaterThan(expectedMax):
		return []model.Finding{model.Warning{
			Category: model.WarnConsistency,
			Severity: model.SeverityMedium,
			Field:    "deducoes",
			Message: fmt.Sprintf(
				"Contribuição previdenciária (R$ %s) acima do máximo esperado de R$ %s",
				inss.StringFixed(2), expectedMax.StringFixed(2)),
			Impact: inss.Sub(expectedMax),
		}}
	case ratio.LessThan(a.tables.INSSMinRate.Sub(a.tables.INSSRateSlack)):
		return []model.Finding{model.Warning{
			Category: model.WarnConsistency,
			Severity: model.SeverityLow,
			Field:    "deducoes",
			Message: fmt.Sprintf(
				"Contribuição previdenciária de %s%% abaixo da alíquota mínima esperada",
				pct.StringFixed(1)),
			Impact: inss,
		}}
	}
	return nil
}

// checkConcentration notes work income concentrated in a single source.
func (a *Income) checkConcentration(d *model.Declaration) []model.Finding {
	var values []float64
	for _, in := range d.Incomes {
		if !in.Annual.IsPositive() {
			continue
		}
		switch in.Category {
		case model.IncomeSalaried, model.IncomeSelfEmployed, model.IncomeRental:
			values = append(values, in.Annual.InexactFloat64())
		}
	}
	if len(values) < 2 {
		return nil
	}

	gini := stats.GiniIndex(values)
	if gini <= a.tables.IncomeGiniAlert.InexactFloat64() {
		return nil
	}
	return []model.Finding{model.Warning{
		Category: model.WarnPattern,
		Severity: model.SeverityLow,
		Field:    "rendimentos",
		Message: fmt.Sprintf(
			"Renda de trabalho concentrada em uma única fonte (índice %.2f entre %d fontes)",
			gini, len(values)),
		Informational: true,
	}}
}

// checkRepeatedValues flags distinct income sources reporting the exact
// same annual amount.
func (a *Income) checkRepeatedValues(d *model.Declaration) []model.Finding {
	var values []float64
	for _, in := range d.Incomes {
		if in.Annual.IsPositive() {
			values = append(values, in.Annual.InexactFloat64())
		}
	}
	if len(values) < 2 {
		return nil
	}

	groups := stats.NearDuplicates(values, 2, a.tables.RepeatedIncomeFloor.InexactFloat64(), 0)
	keys := make([]float64, 0, len(groups))
	for v := range groups {
		keys = append(keys, v)
	}
	sort.Float64s(keys)

	var out []model.Finding
	for _, v := range keys {
		n := len(groups[v])
		amount := decimal.NewFromFloat(v)
		out = append(out, model.Warning{
			Category: model.WarnPattern,
			Severity: model.SeverityMedium,
			Field:    "rendimentos",
			Message: fmt.Sprintf("%d fontes de renda com valor anual idêntico: R$ %s",
				n, amount.StringFixed(2)),
			Impact: amount.Mul(decimal.NewFromInt(int64(n - 1))),
		})
	}
	return out
}

func incomeInCategory(d *model.Declaration, cat model.IncomeCategory) decimal.Decimal {
	var total decimal.Decimal
	for _, in := range d.Incomes {
		if in.Category == cat {
			total = total.Add(in.Annual)
		}
	}
	return total
}
