package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"irpfscan/internal/model"
	"irpfscan/internal/rules"
)

// donationKeywords mark deductions destined to incentive funds.
var donationKeywords = []string{
	"ECA", "CRIANÇA", "ADOLESCENTE",
	"IDOSO", "CULTURA", "AUDIOVISUAL",
	"DESPORTO", "PRONON", "PRONAS",
}

// Optimization looks for legal ways to lower the tax bill. It only ever
// emits suggestions, which never affect the risk score.
type Optimization struct {
	tables rules.Tables
}

func NewOptimization(tables rules.Tables) *Optimization {
	return &Optimization{tables: tables}
}

func (a *Optimization) Name() string { return "optimization" }

func (a *Optimization) Analyze(d *model.Declaration) []model.Finding {
	// A taxable income outside plausible bounds means the totals record
	// did not decode; suggestions would be noise.
	if !d.TaxableIncome.IsPositive() ||
		!d.TaxableIncome.LessThan(a.tables.MaxPlausibleIncome) {
		return nil
	}

	var suggs []model.Suggestion
	suggs = append(suggs, a.checkFilingType(d)...)
	suggs = append(suggs, a.checkPGBL(d)...)
	suggs = append(suggs, a.checkEducationUsage(d)...)
	suggs = append(suggs, a.checkDonations(d)...)
	suggs = append(suggs, a.checkCashBook(d)...)

	sort.SliceStable(suggs, func(i, j int) bool {
		return suggs[i].Priority < suggs[j].Priority
	})

	out := make([]model.Finding, len(suggs))
	for i, s := range suggs {
		out[i] = s
	}
	return out
}

// checkFilingType compares the simplified 20% discount against itemized
// deductions and suggests switching regimes when the other side wins.
func (a *Optimization) checkFilingType(d *model.Declaration) []model.Suggestion {
	discount := decimal.Min(
		d.TaxableIncome.Mul(decimal.NewFromFloat(0.20)),
		a.tables.SimplifiedDiscountCap,
	)
	itemized := decimal.Zero
	for _, ded := range d.Deductions {
		itemized = itemized.Add(ded.Amount)
	}
	rate := a.tables.MarginalRate(d.TaxableIncome)

	switch d.FilingType {
	case model.FilingComplete:
		if !discount.GreaterThan(itemized) {
			return nil
		}
		saving := discount.Sub(itemized).Mul(rate)
		if saving.LessThan(a.tables.MinSavingToReport) {
			return nil
		}
		return []model.Suggestion{{
			Title: "Considere declaração simplificada",
			Description: fmt.Sprintf(
				"Desconto simplificado (R$ %s) é maior que suas deduções (R$ %s). Economia estimada de IR: R$ %s",
				discount.StringFixed(2), itemized.StringFixed(2), saving.StringFixed(2)),
			PotentialSaving: saving,
			Priority:        1,
		}}
	case model.FilingSimplified:
		if !itemized.GreaterThan(discount) {
			return nil
		}
		saving := itemized.Sub(discount).Mul(rate)
		if saving.LessThan(a.tables.MinSavingToReport) {
			return nil
		}
		return []model.Suggestion{{
			Title: "Considere declaração completa",
			Description: fmt.Sprintf(
				"Suas deduções (R$ %s) são maiores que o desconto simplificado (R$ %s). Economia estimada de IR: R$ %s",
				itemized.StringFixed(2), discount.StringFixed(2), saving.StringFixed(2)),
			PotentialSaving: saving,
			Priority:        1,
		}}
	}
	return nil
}

// checkPGBL measures unused private pension deduction space, capped at
// 12% of gross taxable income.
func (a *Optimization) checkPGBL(d *model.Declaration) []model.Suggestion {
	if d.TaxableIncome.LessThan(a.tables.MinIncomeForPGBL) {
		return nil
	}

	limit := d.TaxableIncome.Mul(a.tables.PGBLRate)
	used := d.DeductionTotal(model.DeductionPrivatePension)
	headroom := limit.Sub(used)
	if headroom.LessThan(a.tables.MinPGBLHeadroom) {
		return nil
	}

	saving := headroom.Mul(a.tables.MarginalRate(d.TaxableIncome))
	if saving.LessThan(a.tables.MinSavingToReport) {
		return nil
	}
	return []model.Suggestion{{
		Title: "Oportunidade: contribuição PGBL",
		Description: fmt.Sprintf(
			"Você pode deduzir até R$ %s em PGBL (12%% da renda bruta tributável). Espaço disponível: R$ %s. Aporte até 31/12 do ano-calendário",
			limit.StringFixed(2), headroom.StringFixed(2)),
		PotentialSaving: saving,
		Priority:        1,
	}}
}

// checkEducationUsage points out when declared education expenses sit
// well under the legal ceiling, in case eligible expenses were missed.
func (a *Optimization) checkEducationUsage(d *model.Declaration) []model.Suggestion {
	education := d.DeductionTotal(model.DeductionEducation)
	if !education.IsPositive() {
		return nil
	}

	persons := int64(1 + len(d.Dependents))
	limit := a.tables.EducationPerPerson.Mul(decimal.NewFromInt(persons))
	if !education.LessThan(limit.Mul(decimal.NewFromFloat(0.5))) {
		return nil
	}
	return []model.Suggestion{{
		Title: "Verifique despesas com educação",
		Description: fmt.Sprintf(
			"Limite de educação: R$ %s/pessoa (%d pessoas = R$ %s). Declarado: R$ %s. Certifique-se de incluir todas as despesas elegíveis",
			a.tables.EducationPerPerson.StringFixed(2), persons,
			limit.StringFixed(2), education.StringFixed(2)),
		Priority: 3,
	}}
}

// checkDonations measures unused incentive donation space, deductible
// directly from the tax due up to 6%.
func (a *Optimization) checkDonations(d *model.Declaration) []model.Suggestion {
	if !d.TaxDue.IsPositive() {
		return nil
	}

	limit := d.TaxDue.Mul(a.tables.DonationRate)
	donated := decimal.Zero
	for _, ded := range d.Deductions {
		desc := strings.ToUpper(ded.Description)
		for _, kw := range donationKeywords {
			if strings.Contains(desc, kw) {
				donated = donated.Add(ded.Amount)
				break
			}
		}
	}

	headroom := limit.Sub(donated)
	if headroom.LessThan(a.tables.MinSavingToReport) {
		return nil
	}
	return []model.Suggestion{{
		Title: "Oportunidade: doações incentivadas",
		Description: fmt.Sprintf(
			"Você pode direcionar até R$ %s (6%% do IR devido) para fundos incentivados. Espaço disponível: R$ %s. O valor é abatido diretamente do imposto devido",
			limit.StringFixed(2), headroom.StringFixed(2)),
		PotentialSaving: headroom,
		Priority:        2,
	}}
}

// checkCashBook reminds self-employed filers of cash-book deductions
// when they declare none.
func (a *Optimization) checkCashBook(d *model.Declaration) []model.Suggestion {
	selfEmployed := decimal.Zero
	for _, inc := range d.Incomes {
		if inc.Category == model.IncomeSelfEmployed {
			selfEmployed = selfEmployed.Add(inc.Annual)
		}
	}
	if !selfEmployed.IsPositive() {
		return nil
	}
	if d.DeductionTotal(model.DeductionCashBook).IsPositive() {
		return nil
	}
	return []model.Suggestion{{
		Title: "Verifique deduções de livro-caixa",
		Description: fmt.Sprintf(
			"Você tem renda de trabalho autônomo (R$ %s) mas não declarou deduções de livro-caixa. Despesas do exercício profissional são dedutíveis",
			selfEmployed.StringFixed(2)),
		Priority: 3,
	}}
}
