package analysis

import (
	"fmt"

	"github.com/shopspring/decimal"

	"irpfscan/internal/model"
	"irpfscan/internal/rules"
)

// Temporal cross-checks consecutive filings of the same taxpayer. It only
// runs under Compare, never on a single declaration.
type Temporal struct {
	tables rules.Tables
}

func NewTemporal(tables rules.Tables) *Temporal {
	return &Temporal{tables: tables}
}

func (a *Temporal) Name() string { return "temporal" }

// Compare receives declarations already validated and sorted by exercise
// year in ascending order.
func (a *Temporal) Compare(decls []*model.Declaration) []model.Finding {
	var out []model.Finding
	out = append(out, a.checkStagnantIncome(decls)...)
	out = append(out, a.checkIncomeDrops(decls)...)
	out = append(out, a.checkConstantMedical(decls)...)
	out = append(out, a.checkLiquidations(decls)...)
	return out
}

func declaredIncome(d *model.Declaration) decimal.Decimal {
	return d.TaxableIncome.Add(d.ExemptIncome)
}

// variation returns (curr-prev)/prev, or false when prev is not positive.
func variation(prev, curr decimal.Decimal) (decimal.Decimal, bool) {
	if !prev.IsPositive() {
		return decimal.Zero, false
	}
	return curr.Sub(prev).Div(prev), true
}

// checkStagnantIncome flags patrimony that grows year after year while the
// declared income stays flat over the whole window.
func (a *Temporal) checkStagnantIncome(decls []*model.Declaration) []model.Finding {
	for i := 1; i < len(decls); i++ {
		incVar, ok := variation(declaredIncome(decls[i-1]), declaredIncome(decls[i]))
		if !ok || incVar.Abs().GreaterThanOrEqual(a.tables.StagnantIncomeBand) {
			return nil
		}
		patVar, ok := variation(
			decls[i-1].Patrimony().CurrentTotal,
			decls[i].Patrimony().CurrentTotal,
		)
		if !ok || !patVar.GreaterThan(a.tables.PatrimonyGrowthBand) {
			return nil
		}
	}

	first, last := decls[0], decls[len(decls)-1]
	growth := last.Patrimony().CurrentTotal.Sub(first.Patrimony().CurrentTotal)
	return []model.Finding{model.Inconsistency{
		Category: model.CatStagnantIncomeGrowth,
		Severity: model.SeverityHigh,
		Description: fmt.Sprintf(
			"Patrimônio cresceu R$ %s entre %d e %d enquanto a renda declarada permaneceu estável",
			growth.StringFixed(2), first.ExerciseYear, last.ExerciseYear),
		Declared: last.Patrimony().CurrentTotal,
		Expected: first.Patrimony().CurrentTotal,
		Remediation: "Verifique se todas as fontes de renda foram declaradas. " +
			"Crescimento patrimonial sem renda compatível atrai malha fina",
		Impact: growth,
	}}
}

// checkIncomeDrops flags a sharp income drop between two consecutive years
// when the patrimony was preserved, which suggests undeclared income.
func (a *Temporal) checkIncomeDrops(decls []*model.Declaration) []model.Finding {
	var out []model.Finding
	for i := 1; i < len(decls); i++ {
		prev, curr := decls[i-1], decls[i]
		incVar, ok := variation(declaredIncome(prev), declaredIncome(curr))
		if !ok || !incVar.LessThan(a.tables.IncomeDropBand.Neg()) {
			continue
		}
		prevPat := prev.Patrimony().CurrentTotal
		currPat := curr.Patrimony().CurrentTotal
		if !prevPat.IsPositive() ||
			currPat.LessThan(prevPat.Mul(decimal.NewFromFloat(0.9))) {
			continue
		}
		out = append(out, model.Inconsistency{
			Category: model.CatSuddenIncomeDrop,
			Severity: model.SeverityMedium,
			Description: fmt.Sprintf(
				"Renda caiu %s%% de %d para %d mas o patrimônio foi mantido",
				incVar.Abs().Mul(decimal.NewFromInt(100)).StringFixed(1),
				prev.ExerciseYear, curr.ExerciseYear),
			Declared: declaredIncome(curr),
			Expected: declaredIncome(prev),
			Remediation: "Quedas bruscas de renda com patrimônio preservado podem indicar " +
				"rendimentos não declarados. Documente a origem dos recursos",
		})
	}
	return out
}

// checkConstantMedical flags medical deductions that barely move across at
// least three filings, a common mark of fabricated receipts.
func (a *Temporal) checkConstantMedical(decls []*model.Declaration) []model.Finding {
	var years []int
	var values []decimal.Decimal
	for _, d := range decls {
		medical := d.DeductionTotal(model.DeductionMedical)
		if medical.IsPositive() {
			years = append(years, d.ExerciseYear)
			values = append(values, medical)
		}
	}
	if len(values) < 3 {
		return nil
	}
	for i := 1; i < len(values); i++ {
		v, ok := variation(values[i-1], values[i])
		if !ok || v.Abs().GreaterThanOrEqual(a.tables.ConstantVariationBand) {
			return nil
		}
	}

	return []model.Finding{model.Inconsistency{
		Category: model.CatConstantMedical,
		Severity: model.SeverityMedium,
		Description: fmt.Sprintf(
			"Despesas médicas praticamente constantes em %d exercícios (%d a %d)",
			len(values), years[0], years[len(years)-1]),
		Declared: values[len(values)-1],
		Remediation: "Despesas médicas idênticas ano após ano são um padrão atípico. " +
			"Mantenha os recibos de cada exercício",
	}}
}

// assetKey identifies an asset across filings. Descriptions are free text
// retyped every year, so only a prefix is compared.
func assetKey(a model.Asset) string {
	desc := a.Description
	if r := []rune(desc); len(r) > 50 {
		desc = string(r[:50])
	}
	return string(a.Group) + "|" + desc
}

// checkLiquidations flags repeated years in which several assets vanish at
// once, a pattern of quiet patrimony liquidation.
func (a *Temporal) checkLiquidations(decls []*model.Declaration) []model.Finding {
	suspiciousYears := 0
	var total decimal.Decimal
	firstYear, lastYear := 0, 0

	for i := 1; i < len(decls); i++ {
		prev, curr := decls[i-1], decls[i]

		held := make(map[string]decimal.Decimal)
		for _, asset := range prev.Assets {
			if asset.CurrentValue.IsPositive() {
				held[assetKey(asset)] = asset.CurrentValue
			}
		}
		for _, asset := range curr.Assets {
			if asset.CurrentValue.IsPositive() {
				delete(held, assetKey(asset))
			}
		}

		if len(held) < 2 {
			continue
		}
		liquidated := decimal.Zero
		for _, v := range held {
			liquidated = liquidated.Add(v)
		}
		if !liquidated.GreaterThan(a.tables.LiquidationFloor) {
			continue
		}

		suspiciousYears++
		total = total.Add(liquidated)
		if firstYear == 0 {
			firstYear = curr.ExerciseYear
		}
		lastYear = curr.ExerciseYear
	}

	if suspiciousYears < 2 {
		return nil
	}
	return []model.Finding{model.Inconsistency{
		Category: model.CatLiquidationPattern,
		Severity: model.SeverityMedium,
		Description: fmt.Sprintf(
			"Liquidação recorrente de bens: %d exercícios (%d a %d) com múltiplos bens zerados, total de R$ %s",
			suspiciousYears, firstYear, lastYear, total.StringFixed(2)),
		Declared: total,
		Remediation: "Alienações de bens devem constar na ficha de ganhos de capital. " +
			"Verifique se os programas GCAP foram transmitidos",
		Impact: total,
	}}
}
