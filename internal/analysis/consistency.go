package analysis

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"irpfscan/internal/model"
	"irpfscan/internal/rules"
)

// Consistency cross-checks the declared totals against each other:
// patrimony growth against income, per-asset variations against declared
// disposals, and patrimony against the absence of income.
type Consistency struct {
	tables rules.Tables
}

func NewConsistency(tables rules.Tables) *Consistency {
	return &Consistency{tables: tables}
}

func (c *Consistency) Name() string { return "consistency" }

func (c *Consistency) Analyze(d *model.Declaration) []model.Finding {
	var out []model.Finding
	out = append(out, c.checkPatrimonyVsIncome(d)...)
	out = append(out, c.checkAssetVariations(d)...)
	out = append(out, c.checkZeroIncome(d)...)
	return out
}

// checkPatrimonyVsIncome flags patrimony growth that declared income
// cannot explain. Half the income is assumed consumed by living expenses.
// Growth with no declared income at all is the strongest signal and is
// reported at high severity outright.
func (c *Consistency) checkPatrimonyVsIncome(d *model.Declaration) []model.Finding {
	variation := d.Patrimony().Delta()
	income := d.TotalIncome()

	if variation.Abs().LessThan(c.tables.MinPatrimonyVariation) || !variation.IsPositive() {
		return nil
	}

	if !income.IsPositive() {
		return []model.Finding{model.Inconsistency{
			Category: model.CatPatrimonyVsIncome,
			Severity: model.SeverityHigh,
			Description: fmt.Sprintf(
				"Variação patrimonial de R$ %s sem nenhum rendimento declarado",
				variation.StringFixed(2)),
			Declared:    variation,
			Expected:    decimal.Zero,
			Remediation: "Verifique se há rendimentos não declarados ou se valores de bens estão corretos",
			Impact:      variation,
		}}
	}

	disposable := income.Mul(decimal.NewFromFloat(0.5))
	if !variation.GreaterThan(disposable.Mul(c.tables.PatrimonyVariationRatio)) {
		return nil
	}

	ratio := variation.Div(disposable)
	var sev model.Severity
	switch {
	case ratio.GreaterThan(decimal.NewFromInt(3)):
		sev = model.SeverityHigh
	case ratio.GreaterThan(decimal.NewFromInt(2)):
		sev = model.SeverityMedium
	default:
		sev = model.SeverityLow
	}

	return []model.Finding{model.Inconsistency{
		Category: model.CatPatrimonyVsIncome,
		Severity: sev,
		Description: fmt.Sprintf(
			"Variação patrimonial (R$ %s) superior à renda disponível estimada (R$ %s)",
			variation.StringFixed(2), disposable.StringFixed(2)),
		Declared:    variation,
		Expected:    disposable,
		Remediation: "Verifique se há rendimentos não declarados ou se valores de bens estão corretos",
		Impact:      variation.Sub(disposable),
	}}
}

// checkAssetVariations inspects year-over-year movement of each asset.
// Large drops without a matching disposal suggest an undeclared sale;
// large jumps ask for the origin of the funds.
func (c *Consistency) checkAssetVariations(d *model.Declaration) []model.Finding {
	var out []model.Finding
	for _, a := range d.Assets {
		if isVariationExempt(a) {
			continue
		}
		delta := a.Delta()
		pct := a.DeltaPercent()

		if delta.LessThan(c.tables.MinPatrimonyVariation.Neg()) && pct.LessThan(decimal.NewFromInt(-50)) {
			switch {
			case a.HasDeclaredResult():
				out = append(out, model.Warning{
					Category: model.WarnConsistency,
					Severity: model.SeverityLow,
					Field:    "bens_direitos",
					Message: fmt.Sprintf("Venda declarada: %s (lucro/prejuízo informado no bem)",
						truncate(a.Description, 50)),
				})
			case hasMatchingDisposal(d, a):
				out = append(out, model.Warning{
					Category: model.WarnConsistency,
					Severity: model.SeverityLow,
					Field:    "bens_direitos",
					Message: fmt.Sprintf("Venda declarada: %s (alienação encontrada)",
						truncate(a.Description, 50)),
				})
			case isForeignStock(a):
				out = append(out, model.Warning{
					Category: model.WarnConsistency,
					Severity: model.SeverityMedium,
					Field:    "bens_direitos",
					Message: fmt.Sprintf(
						"Ação estrangeira zerada: %s. Pode ser venda sem lucro/prejuízo ou falta de declaração",
						truncate(a.Description, 50)),
					Informational: true,
				})
			default:
				out = append(out, model.Warning{
					Category: model.WarnConsistency,
					Severity: model.SeverityMedium,
					Field:    "bens_direitos",
					Message: fmt.Sprintf(
						"Grande redução em bem (%s%%): %s. Verifique se houve venda não declarada",
						pct.StringFixed(0), truncate(a.Description, 50)),
					Impact: delta.Abs(),
				})
			}
		}

		if delta.GreaterThan(decimal.NewFromInt(100000)) && pct.GreaterThan(decimal.NewFromInt(100)) {
			out = append(out, model.Warning{
				Category: model.WarnConsistency,
				Severity: model.SeverityLow,
				Field:    "bens_direitos",
				Message: fmt.Sprintf(
					"Grande aumento em bem (%s%%): %s. Verifique origem dos recursos",
					pct.StringFixed(0), truncate(a.Description, 50)),
				Impact: delta,
			})
		}
	}
	return out
}

// checkZeroIncome flags a sizable patrimony held by a filer that declares
// no income at all.
func (c *Consistency) checkZeroIncome(d *model.Declaration) []model.Finding {
	current := d.Patrimony().CurrentTotal
	income := d.TaxableIncome.Add(d.ExemptIncome)

	if !current.GreaterThan(c.tables.MinPatrimonyNoIncome) || income.IsPositive() {
		return nil
	}
	return []model.Finding{model.Inconsistency{
		Category: model.CatSuspiciousZeroValue,
		Severity: model.SeverityHigh,
		Description: fmt.Sprintf(
			"Patrimônio de R$ %s declarado mas nenhum rendimento informado",
			current.StringFixed(2)),
		Declared:    income,
		Remediation: "Verifique se todos os rendimentos foram declarados",
		Impact:      current,
	}}
}

// hasMatchingDisposal looks for a declared disposal covering the asset,
// matching by the disposal name's leading words or by registry number.
func hasMatchingDisposal(d *model.Declaration, a model.Asset) bool {
	desc := strings.ToUpper(a.Description)
	for _, disp := range d.Disposals {
		if disp.AssetName != "" {
			words := strings.Fields(strings.ToUpper(disp.AssetName))
			if len(words) > 3 {
				words = words[:3]
			}
			matches := 0
			for _, w := range words {
				if strings.Contains(desc, w) {
					matches++
				}
			}
			if matches >= 2 {
				return true
			}
		}
		if disp.RegistryNumber != "" && strings.Contains(a.Description, disp.RegistryNumber) {
			return true
		}
	}
	return false
}

// isForeignStock detects foreign equity positions, which are declared
// under sub-code 12 with currency or broker markers in the description.
func isForeignStock(a model.Asset) bool {
	if a.Code != "12" {
		return false
	}
	desc := strings.ToUpper(a.Description)
	for _, marker := range []string{"$", "US$", "USD", "AVENUE", "INTERACTIVE BROKERS"} {
		if strings.Contains(desc, marker) {
			return true
		}
	}
	return false
}

// isVariationExempt reports assets that legitimately go to zero: fixed
// income taxed at source and plain account balances.
func isVariationExempt(a model.Asset) bool {
	switch a.Group {
	case model.AssetInvestments, model.AssetSavings, model.AssetDeposits:
		return true
	}
	desc := strings.ToUpper(a.Description)
	keywords := []string{
		"CDB", "LCA", "LCI", "LF ",
		"RENDA FIXA", "POUPANCA", "POUPANÇA",
		"TESOURO", "DEBENTURE", "DEBÊNTURE",
		"SALDO EM CONTA", "SALDO DE CONTA",
		"CONTA CORRENTE", "CONTA POUPANÇA",
		"SALDO DE R$", "SALDO EM R$",
	}
	for _, k := range keywords {
		if strings.Contains(desc, k) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
