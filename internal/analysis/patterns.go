package analysis

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"irpfscan/internal/model"
	"irpfscan/internal/rules"
	"irpfscan/internal/stats"
)

// nearDuplicateTolerance is the relative spread within which two
// deduction amounts count as the same value.
const nearDuplicateTolerance = 0.001

// Patterns runs the structural and statistical checks: fabricated-value
// heuristics, identifier validation and distribution tests.
type Patterns struct {
	tables rules.Tables
}

func NewPatterns(tables rules.Tables) *Patterns {
	return &Patterns{tables: tables}
}

func (a *Patterns) Name() string { return "patterns" }

func (a *Patterns) Analyze(d *model.Declaration) []model.Finding {
	var out []model.Finding
	out = append(out, a.checkRoundValues(d)...)
	out = append(out, a.checkVehicleDepreciation(d)...)
	out = append(out, a.checkMedicalConcentration(d)...)
	out = append(out, a.checkIdentifiers(d)...)
	out = append(out, a.checkRepeatedMedicalValues(d)...)
	out = append(out, a.checkDeductionOutliers(d)...)
	out = append(out, a.checkAssetOutliers(d)...)
	out = append(out, a.checkBenford(d)...)
	out = append(out, a.checkMedicalZScore(d)...)
	out = append(out, a.checkNearDuplicateDeductions(d)...)
	return out
}

// checkRoundValues flags deduction sets dominated by round amounts.
// Medical expenses are excluded since providers commonly charge round
// fees.
func (a *Patterns) checkRoundValues(d *model.Declaration) []model.Finding {
	var values []float64
	for _, ded := range d.Deductions {
		if ded.Category == model.DeductionMedical || !ded.Amount.IsPositive() {
			continue
		}
		values = append(values, ded.Amount.InexactFloat64())
	}
	if len(values) < 3 {
		return nil
	}

	round := stats.RoundValues(values,
		a.tables.RoundValueTolerance.InexactFloat64(),
		a.tables.RoundValueFloor.InexactFloat64())
	if len(round)*2 <= len(values) {
		return nil
	}

	impact := decimal.Zero
	for _, i := range round {
		impact = impact.Add(decimal.NewFromFloat(values[i]))
	}
	return []model.Finding{model.Warning{
		Category: model.WarnPattern,
		Severity: model.SeverityLow,
		Field:    "deducoes",
		Message: fmt.Sprintf("Muitas deduções com valores redondos (%d de %d)",
			len(round), len(values)),
		Impact: impact,
	}}
}

// checkVehicleDepreciation compares each vehicle's year-over-year drop
// against the usual depreciation band. Vehicles are identified by asset
// sub-codes 21 to 29.
func (a *Patterns) checkVehicleDepreciation(d *model.Declaration) []model.Finding {
	var out []model.Finding
	expected := a.tables.VehicleDepreciation
	low := expected.Sub(a.tables.VehicleDepreciationTolerance)
	high := expected.Add(a.tables.VehicleDepreciationTolerance)

	for _, asset := range d.Assets {
		if !isVehicleCode(asset.Code) {
			continue
		}
		if !asset.PriorValue.IsPositive() || asset.CurrentValue.IsZero() {
			continue
		}
		observed := asset.PriorValue.Sub(asset.CurrentValue).Div(asset.PriorValue)

		switch {
		case observed.LessThan(low):
			out = append(out, model.Warning{
				Category: model.WarnPattern,
				Severity: model.SeverityLow,
				Field:    "bens_direitos",
				Message: fmt.Sprintf(
					"Veículo com depreciação abaixo do esperado (%s%% vs esperado ~%s%%): %s",
					observed.Mul(decimal.NewFromInt(100)).StringFixed(0),
					expected.Mul(decimal.NewFromInt(100)).StringFixed(0),
					truncate(asset.Description, 50)),
				Impact: asset.Delta().Abs(),
			})
		case observed.GreaterThan(high.Mul(decimal.NewFromInt(2))):
			out = append(out, model.Warning{
				Category: model.WarnPattern,
				Severity: model.SeverityMedium,
				Field:    "bens_direitos",
				Message: fmt.Sprintf(
					"Veículo com depreciação acima do esperado (%s%% vs esperado ~%s%%): %s",
					observed.Mul(decimal.NewFromInt(100)).StringFixed(0),
					expected.Mul(decimal.NewFromInt(100)).StringFixed(0),
					truncate(asset.Description, 50)),
				Impact: asset.Delta().Abs(),
			})
		}
	}
	return out
}

// checkMedicalConcentration flags one provider holding most of the
// medical expense total.
func (a *Patterns) checkMedicalConcentration(d *model.Declaration) []model.Finding {
	byProvider := make(map[string]decimal.Decimal)
	total := decimal.Zero
	count := 0
	for _, ded := range d.Deductions {
		if ded.Category != model.DeductionMedical || !ded.Amount.IsPositive() {
			continue
		}
		key := ded.ProviderID
		if key == "" {
			key = "SEM_CNPJ"
		}
		byProvider[key] = byProvider[key].Add(ded.Amount)
		total = total.Add(ded.Amount)
		count++
	}
	if count < 2 || !total.IsPositive() {
		return nil
	}

	keys := make([]string, 0, len(byProvider))
	for k := range byProvider {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []model.Finding
	for _, k := range keys {
		v := byProvider[k]
		share := v.Div(total)
		if share.GreaterThan(a.tables.MedicalConcentration) {
			out = append(out, model.Warning{
				Category: model.WarnPattern,
				Severity: model.SeverityMedium,
				Field:    "deducoes",
				Message: fmt.Sprintf(
					"Despesas médicas concentradas: %s%% (R$ %s) em um único prestador",
					share.Mul(decimal.NewFromInt(100)).StringFixed(0), v.StringFixed(2)),
				Impact: v,
			})
		}
	}
	return out
}

// checkIdentifiers validates the check digits of every CPF and CNPJ in
// the declaration. A bad taxpayer CPF is fatal for the filing; third
// party identifiers degrade by how removed they are from the filer.
func (a *Patterns) checkIdentifiers(d *model.Declaration) []model.Finding {
	var out []model.Finding

	if !rules.ValidCPF(d.Taxpayer.CPF) {
		out = append(out, model.Inconsistency{
			Category:    model.CatInvalidCPF,
			Severity:    model.SeverityCritical,
			Description: "CPF do contribuinte inválido",
			Remediation: "Verificar CPF do contribuinte",
		})
	}

	for _, dep := range d.Dependents {
		if !rules.ValidCPF(dep.CPF) {
			out = append(out, model.Inconsistency{
				Category:    model.CatInvalidCPF,
				Severity:    model.SeverityHigh,
				Description: fmt.Sprintf("CPF de dependente (%s) inválido", dep.Name),
				Remediation: "Verificar CPF do dependente",
			})
		}
	}

	for _, inc := range d.Incomes {
		digits := onlyDigitsLen(inc.SourceID)
		if digits == 14 && !rules.ValidCNPJ(inc.SourceID) {
			out = append(out, model.Inconsistency{
				Category:    model.CatInvalidCNPJ,
				Severity:    model.SeverityHigh,
				Description: fmt.Sprintf("CNPJ de fonte pagadora inválido (%s)", inc.SourceName),
				Remediation: "Verificar CNPJ da fonte pagadora",
				Impact:      inc.Annual,
			})
		}
	}

	for _, ded := range d.Deductions {
		if ded.ProviderID == "" {
			continue
		}
		if onlyDigitsLen(ded.ProviderID) == 14 && !rules.ValidCNPJ(ded.ProviderID) {
			out = append(out, model.Warning{
				Category: model.WarnPattern,
				Severity: model.SeverityMedium,
				Field:    "deducoes",
				Message:  fmt.Sprintf("CNPJ de prestador de serviço inválido: %s", rules.FormatCNPJ(ded.ProviderID)),
				Impact:   ded.Amount,
			})
		}
	}
	return out
}

// checkRepeatedMedicalValues flags three or more medical expenses with
// the same amount above a small floor.
func (a *Patterns) checkRepeatedMedicalValues(d *model.Declaration) []model.Finding {
	values := medicalValues(d)
	if len(values) < 3 {
		return nil
	}

	groups := stats.NearDuplicates(values, 3, 200, 0)
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
			Field:    "deducoes",
			Message: fmt.Sprintf("Múltiplas despesas médicas com valor idêntico: %dx R$ %s",
				n, amount.StringFixed(2)),
			Impact: amount.Mul(decimal.NewFromInt(int64(n))),
		})
	}
	return out
}

// checkDeductionOutliers reports atypical deduction amounts. Outliers by
// themselves are legitimate, so these are informational only.
func (a *Patterns) checkDeductionOutliers(d *model.Declaration) []model.Finding {
	var values []float64
	for _, ded := range d.Deductions {
		if ded.Amount.IsPositive() {
			values = append(values, ded.Amount.InexactFloat64())
		}
	}
	if len(values) < 4 {
		return nil
	}

	var out []model.Finding
	for _, o := range stats.IQROutliers(values, 1.5) {
		amount := decimal.NewFromFloat(o.Value)
		out = append(out, model.Warning{
			Category: model.WarnPattern,
			Severity: model.SeverityLow,
			Field:    "deducoes",
			Message: fmt.Sprintf("Dedução com valor outlier (%s): R$ %s",
				o.Tag, amount.StringFixed(2)),
			Informational: true,
			Impact:        amount,
		})
	}
	return out
}

// checkAssetOutliers reports one asset towering over the rest of the
// portfolio. Only the upper side matters and a wider fence is used since
// asset values are naturally skewed.
func (a *Patterns) checkAssetOutliers(d *model.Declaration) []model.Finding {
	var values []float64
	for _, asset := range d.Assets {
		if asset.CurrentValue.IsPositive() {
			values = append(values, asset.CurrentValue.InexactFloat64())
		}
	}
	if len(values) < 4 {
		return nil
	}

	var out []model.Finding
	for _, o := range stats.IQROutliers(values, 2.0) {
		if o.Tag != "upper" {
			continue
		}
		amount := decimal.NewFromFloat(o.Value)
		out = append(out, model.Warning{
			Category: model.WarnPattern,
			Severity: model.SeverityLow,
			Field:    "bens_direitos",
			Message: fmt.Sprintf("Bem com valor significativamente maior que os demais: R$ %s",
				amount.StringFixed(2)),
			Informational: true,
			Impact:        amount,
		})
	}
	return out
}

// checkBenford tests the first-digit distribution of every monetary
// value in the declaration against Benford's law.
func (a *Patterns) checkBenford(d *model.Declaration) []model.Finding {
	var values []float64
	for _, inc := range d.Incomes {
		if inc.Annual.IsPositive() {
			values = append(values, inc.Annual.InexactFloat64())
		}
	}
	for _, ded := range d.Deductions {
		if ded.Amount.IsPositive() {
			values = append(values, ded.Amount.InexactFloat64())
		}
	}
	for _, asset := range d.Assets {
		if asset.CurrentValue.IsPositive() {
			values = append(values, asset.CurrentValue.InexactFloat64())
		}
	}

	res, ok := stats.BenfordChiSquared(values, a.tables.BenfordMinSamples)
	if !ok || !res.Anomalous {
		return nil
	}
	return []model.Finding{model.Warning{
		Category: model.WarnPattern,
		Severity: model.SeverityMedium,
		Field:    "geral",
		Message: fmt.Sprintf(
			"Distribuição de primeiros dígitos não segue Lei de Benford (χ² = %.2f). Pode indicar valores fabricados ou arredondados",
			res.ChiSquared),
	}}
}

// checkMedicalZScore flags statistically extreme medical expenses within
// the filer's own set.
func (a *Patterns) checkMedicalZScore(d *model.Declaration) []model.Finding {
	values := medicalValues(d)
	if len(values) < 5 {
		return nil
	}

	var out []model.Finding
	for _, o := range stats.ZScoreOutliers(values, 3) {
		amount := decimal.NewFromFloat(o.Value)
		out = append(out, model.Warning{
			Category: model.WarnPattern,
			Severity: model.SeverityMedium,
			Field:    "deducoes",
			Message: fmt.Sprintf("Despesa médica com valor estatisticamente extremo: R$ %s",
				amount.StringFixed(2)),
			Impact: amount,
		})
	}
	return out
}

// checkNearDuplicateDeductions flags the same amount repeated across the
// whole deduction set, medical or not.
func (a *Patterns) checkNearDuplicateDeductions(d *model.Declaration) []model.Finding {
	var values []float64
	for _, ded := range d.Deductions {
		if ded.Amount.GreaterThan(decimal.NewFromInt(100)) {
			values = append(values, ded.Amount.InexactFloat64())
		}
	}
	if len(values) < 3 {
		return nil
	}

	groups := stats.NearDuplicates(values, 3, 100, nearDuplicateTolerance)
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
			Field:    "deducoes",
			Message: fmt.Sprintf(
				"Valor de dedução repetido %d vezes: R$ %s. Pode indicar duplicação ou erro de digitação",
				n, amount.StringFixed(2)),
			Impact: amount.Mul(decimal.NewFromInt(int64(n - 1))),
		})
	}
	return out
}

func medicalValues(d *model.Declaration) []float64 {
	var values []float64
	for _, ded := range d.Deductions {
		if ded.Category == model.DeductionMedical && ded.Amount.IsPositive() {
			values = append(values, ded.Amount.InexactFloat64())
		}
	}
	return values
}

func isVehicleCode(code string) bool {
	return len(code) == 2 && code[0] == '2' && code[1] >= '1' && code[1] <= '9'
}

func onlyDigitsLen(s string) int {
	n := 0
	for _, c := range s {
		if c >= '0' && c <= '9' {
			n++
		}
	}
	return n
}
