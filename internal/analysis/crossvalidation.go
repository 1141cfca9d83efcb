package analysis

import (
	"fmt"

	"github.com/shopspring/decimal"

	"irpfscan/internal/model"
	"irpfscan/internal/rules"
)

// landOnlyCodes are real-estate sub-codes for unbuilt land, which cannot
// produce rental income.
var landOnlyCodes = map[string]bool{"13": true, "18": true}

// CrossValidation simulates the revenue service's matching of the filing
// against third-party reports: employer withholding (DIRF), financial
// institutions (e-Financeira), health providers (DMED), real estate
// registries (DIMOB) and card operators (DECRED).
type CrossValidation struct {
	tables rules.Tables
}

func NewCrossValidation(tables rules.Tables) *CrossValidation {
	return &CrossValidation{tables: tables}
}

func (a *CrossValidation) Name() string { return "cross_validation" }

func (a *CrossValidation) Analyze(d *model.Declaration) []model.Finding {
	var out []model.Finding
	out = append(out, a.checkMissingWithheld(d)...)
	out = append(out, a.checkRealEstateAcquisitions(d)...)
	out = append(out, a.checkFinancialHoldings(d)...)
	out = append(out, a.checkMedicalProviders(d)...)
	out = append(out, a.checkLifestyle(d)...)
	out = append(out, a.checkRentalProperties(d)...)
	out = append(out, a.checkNewAssets(d)...)
	return out
}

// checkMissingWithheld flags work income large enough that the paying
// source must have reported withheld tax via DIRF, yet none appears.
func (a *CrossValidation) checkMissingWithheld(d *model.Declaration) []model.Finding {
	var out []model.Finding
	for _, in := range d.Incomes {
		if in.Category != model.IncomeSalaried && in.Category != model.IncomeSelfEmployed {
			continue
		}
		if in.Annual.GreaterThan(a.tables.WithheldReportFloor) && in.TaxWithheld.IsZero() {
			out = append(out, model.Warning{
				Category: model.WarnConsistency,
				Severity: model.SeverityMedium,
				Field:    "rendimentos",
				Message: fmt.Sprintf(
					"Rendimento de R$ %s (%s) sem IRRF. A fonte pagadora reporta retenções via DIRF",
					in.Annual.StringFixed(2), in.SourceName),
				Impact: in.Annual,
			})
		}
	}
	return out
}

// checkRealEstateAcquisitions flags real estate acquired in the year for
// more than the declared income could fund. Registries report every
// transaction via DIMOB.
func (a *CrossValidation) checkRealEstateAcquisitions(d *model.Declaration) []model.Finding {
	income := d.TaxableIncome.Add(d.ExemptIncome)
	var out []model.Finding
	for _, asset := range d.AssetsInGroup(model.AssetRealEstate) {
		if !asset.PriorValue.IsZero() {
			continue
		}
		if asset.CurrentValue.GreaterThan(a.tables.AcquisitionReportFloor) &&
			asset.CurrentValue.GreaterThan(income) {
			out = append(out, model.Warning{
				Category: model.WarnConsistency,
				Severity: model.SeverityMedium,
				Field:    "bens_direitos",
				Message: fmt.Sprintf(
					"Imóvel adquirido por R$ %s excede a renda declarada de R$ %s: %s",
					asset.CurrentValue.StringFixed(2), income.StringFixed(2),
					truncate(asset.Description, 50)),
				Impact: asset.CurrentValue.Sub(income),
			})
		}
	}
	return out
}

// checkFinancialHoldings notes bank and fund balances out of proportion
// to income. Institutions report balances and yields via e-Financeira.
func (a *CrossValidation) checkFinancialHoldings(d *model.Declaration) []model.Finding {
	income := d.TotalIncome()
	if !income.IsPositive() {
		return nil
	}

	var financial decimal.Decimal
	for _, asset := range d.Assets {
		switch asset.Group {
		case model.AssetSavings, model.AssetDeposits, model.AssetInvestments, model.AssetFunds:
			financial = financial.Add(asset.CurrentValue)
		}
	}
	if !financial.GreaterThan(income.Mul(a.tables.FinancialIncomeMultiple)) {
		return nil
	}
	return []model.Finding{model.Warning{
		Category: model.WarnGeneral,
		Severity: model.SeverityLow,
		Field:    "bens_direitos",
		Message: fmt.Sprintf(
			"Aplicações financeiras (R$ %s) superam %sx a renda total declarada",
			financial.StringFixed(2), a.tables.FinancialIncomeMultiple.StringFixed(0)),
		Informational: true,
		Impact:        financial,
	}}
}

// checkMedicalProviders notes large medical deductions with a provider
// id, which the revenue service matches against the provider's DMED.
func (a *CrossValidation) checkMedicalProviders(d *model.Declaration) []model.Finding {
	var out []model.Finding
	for _, ded := range d.Deductions {
		if ded.Category != model.DeductionMedical || ded.ProviderID == "" {
			continue
		}
		if ded.Amount.GreaterThan(a.tables.MedicalNeedsProvider) {
			out = append(out, model.Warning{
				Category: model.WarnDeduction,
				Severity: model.SeverityLow,
				Field:    "deducoes",
				Message: fmt.Sprintf(
					"Despesa médica de R$ %s será cruzada com a DMED do prestador %s",
					ded.Amount.StringFixed(2), rules.FormatCNPJ(ded.ProviderID)),
				Informational: true,
				Impact:        ded.Amount,
			})
		}
	}
	return out
}

// checkLifestyle flags a large patrimony next to a modest income, the
// profile DECRED card-spend reports are matched against.
func (a *CrossValidation) checkLifestyle(d *model.Declaration) []model.Finding {
	patrimony := d.Patrimony().CurrentTotal
	income := d.TaxableIncome.Add(d.ExemptIncome)
	if !patrimony.GreaterThan(a.tables.HighPatrimonyFloor) ||
		!income.LessThan(a.tables.ModestIncomeCeiling) {
		return nil
	}
	return []model.Finding{model.Warning{
		Category: model.WarnGeneral,
		Severity: model.SeverityLow,
		Field:    "geral",
		Message: fmt.Sprintf(
			"Patrimônio de R$ %s com renda declarada de R$ %s. Gastos com cartão são reportados via DECRED",
			patrimony.StringFixed(2), income.StringFixed(2)),
		Informational: true,
		Impact:        patrimony,
	}}
}

// checkRentalProperties notes multiple built properties with no rental
// income. Administrators report rent payments via DIMOB.
func (a *CrossValidation) checkRentalProperties(d *model.Declaration) []model.Finding {
	built := 0
	for _, asset := range d.AssetsInGroup(model.AssetRealEstate) {
		if !landOnlyCodes[asset.Code] && asset.CurrentValue.IsPositive() {
			built++
		}
	}
	if built < 2 || incomeInCategory(d, model.IncomeRental).IsPositive() {
		return nil
	}
	return []model.Finding{model.Warning{
		Category: model.WarnGeneral,
		Severity: model.SeverityLow,
		Field:    "bens_direitos",
		Message: fmt.Sprintf(
			"%d imóveis edificados sem rendimento de aluguel declarado", built),
		Informational: true,
	}}
}

// checkNewAssets aggregates assets that appeared during the year above
// the value banks report transfers for.
func (a *CrossValidation) checkNewAssets(d *model.Declaration) []model.Finding {
	count := 0
	total := decimal.Zero
	for _, asset := range d.Assets {
		if asset.PriorValue.IsZero() && asset.CurrentValue.GreaterThan(a.tables.TransferReportFloor) {
			count++
			total = total.Add(asset.CurrentValue)
		}
	}
	if count == 0 {
		return nil
	}
	return []model.Finding{model.Warning{
		Category: model.WarnGeneral,
		Severity: model.SeverityLow,
		Field:    "bens_direitos",
		Message: fmt.Sprintf(
			"%d bem(ns) adquirido(s) no ano somando R$ %s. Transferências bancárias acima de R$ %s deixam rastro de DOC/TED",
			count, total.StringFixed(2), a.tables.TransferReportFloor.StringFixed(2)),
		Informational: true,
		Impact:        total,
	}}
}
