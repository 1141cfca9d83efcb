package analysis

import (
	"fmt"
	"sort"
	"strings"

	"irpfscan/internal/model"
)

// Spouse cross-checks the separate filings of a couple. Each check looks
// for entries the revenue service rejects or questions when they appear
// in both declarations.
type Spouse struct{}

func NewSpouse() *Spouse {
	return &Spouse{}
}

func (a *Spouse) Name() string { return "spouse" }

func (a *Spouse) Compare(primary, spouse *model.Declaration) []model.Finding {
	var out []model.Finding
	out = append(out, a.checkSharedDependents(primary, spouse)...)
	out = append(out, a.checkSharedProviders(primary, spouse)...)
	out = append(out, a.checkSharedRealEstate(primary, spouse)...)
	return out
}

// checkSharedDependents flags a dependent claimed in both filings. The
// deduction is only allowed on one of them.
func (a *Spouse) checkSharedDependents(primary, spouse *model.Declaration) []model.Finding {
	names := make(map[string]string)
	for _, dep := range primary.Dependents {
		if dep.CPF != "" {
			names[dep.CPF] = dep.Name
		}
	}

	shared := make(map[string]string)
	for _, dep := range spouse.Dependents {
		if name, ok := names[dep.CPF]; ok {
			shared[dep.CPF] = name
		}
	}
	cpfs := make([]string, 0, len(shared))
	for cpf := range shared {
		cpfs = append(cpfs, cpf)
	}
	sort.Strings(cpfs)

	var out []model.Finding
	for _, cpf := range cpfs {
		out = append(out, model.Inconsistency{
			Category: model.CatDuplicateDependent,
			Severity: model.SeverityHigh,
			Description: fmt.Sprintf(
				"Dependente %s (CPF %s) declarado por ambos os cônjuges",
				shared[cpf], cpf),
			Remediation: "Cada dependente pode ser deduzido em apenas uma das declarações do casal",
		})
	}
	return out
}

// checkSharedProviders notes medical providers billed in both filings,
// a common shape for split or duplicated receipts.
func (a *Spouse) checkSharedProviders(primary, spouse *model.Declaration) []model.Finding {
	providers := make(map[string]bool)
	for _, ded := range primary.Deductions {
		if ded.Category == model.DeductionMedical && ded.ProviderID != "" {
			providers[ded.ProviderID] = true
		}
	}

	common := make(map[string]bool)
	for _, ded := range spouse.Deductions {
		if ded.Category == model.DeductionMedical && providers[ded.ProviderID] {
			common[ded.ProviderID] = true
		}
	}
	if len(common) == 0 {
		return nil
	}
	return []model.Finding{model.Warning{
		Category: model.WarnDeduction,
		Severity: model.SeverityMedium,
		Field:    "deducoes",
		Message: fmt.Sprintf(
			"%d prestador(es) de serviço médico presente(s) nas declarações de ambos os cônjuges",
			len(common)),
	}}
}

// checkSharedRealEstate flags the same property declared with diverging
// values across the couple's filings.
func (a *Spouse) checkSharedRealEstate(primary, spouse *model.Declaration) []model.Finding {
	values := make(map[string]model.Asset)
	for _, asset := range primary.AssetsInGroup(model.AssetRealEstate) {
		values[spouseAssetKey(asset.Description)] = asset
	}

	var out []model.Finding
	for _, asset := range spouse.AssetsInGroup(model.AssetRealEstate) {
		mine, ok := values[spouseAssetKey(asset.Description)]
		if !ok || mine.CurrentValue.Equal(asset.CurrentValue) {
			continue
		}
		out = append(out, model.Warning{
			Category: model.WarnConsistency,
			Severity: model.SeverityMedium,
			Field:    "bens_direitos",
			Message: fmt.Sprintf(
				"Imóvel declarado pelos dois cônjuges com valores divergentes (R$ %s vs R$ %s): %s",
				mine.CurrentValue.StringFixed(2), asset.CurrentValue.StringFixed(2),
				truncate(mine.Description, 50)),
			Impact: mine.CurrentValue.Sub(asset.CurrentValue).Abs(),
		})
	}
	return out
}

// spouseAssetKey normalizes an asset description for matching across
// filings, where the same property is rarely typed identically.
func spouseAssetKey(desc string) string {
	desc = strings.ToLower(strings.TrimSpace(desc))
	if r := []rune(desc); len(r) > 30 {
		desc = string(r[:30])
	}
	return desc
}
