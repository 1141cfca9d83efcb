package analysis

import (
	"fmt"
	"time"

	"irpfscan/internal/model"
	"irpfscan/internal/rules"
)

// Dependents validates dependent entries: the declared type against the
// dependent's age, and fabrication signals in the CPF digits.
type Dependents struct {
	tables rules.Tables
}

func NewDependents(tables rules.Tables) *Dependents {
	return &Dependents{tables: tables}
}

func (a *Dependents) Name() string { return "dependents" }

func (a *Dependents) Analyze(d *model.Declaration) []model.Finding {
	var out []model.Finding
	ref := time.Date(d.CalendarYear, 12, 31, 0, 0, 0, 0, time.UTC)

	for _, dep := range d.Dependents {
		out = append(out, a.checkAge(dep, ref)...)

		if rules.SequentialDigits(dep.CPF) {
			out = append(out, model.Warning{
				Category: model.WarnGeneral,
				Severity: model.SeverityMedium,
				Field:    "dependentes",
				Message: fmt.Sprintf(
					"CPF de dependente (%s) tem padrão sequencial de dígitos",
					dep.Name),
			})
		}
	}
	return out
}

// checkAge enforces the age ceilings tied to each dependent type. Ages
// are taken at the end of the calendar year the filing refers to.
func (a *Dependents) checkAge(dep model.Dependent, ref time.Time) []model.Finding {
	age := dep.AgeAt(ref)
	if age < 0 {
		return nil
	}

	var limit int
	switch dep.Type {
	case model.DependentChildUnder21, model.DependentSiblingGrandchild, model.DependentMinorInCustody:
		limit = a.tables.ChildAgeLimit
	case model.DependentChildUniversity:
		limit = a.tables.StudentAgeLimit
	default:
		// Spouses, parents and incapacitated dependents have no ceiling.
		return nil
	}

	if age <= limit {
		return nil
	}
	return []model.Finding{model.Inconsistency{
		Category: model.CatDependentAgeMismatch,
		Severity: model.SeverityHigh,
		Description: fmt.Sprintf(
			"Dependente %s tem %d anos, mas o tipo '%s' exige até %d anos",
			dep.Name, age, dep.Type, limit),
		Remediation: "Verificar o tipo do dependente ou a data de nascimento",
	}}
}
