package analysis

import (
	"testing"
	"time"

	"irpfscan/internal/model"
	"irpfscan/internal/rules"
)

func birth(year int) time.Time {
	return time.Date(year, 6, 15, 0, 0, 0, 0, time.UTC)
}

func TestDependentAgeLimits(t *testing.T) {
	cases := []struct {
		name      string
		depType   model.DependentType
		birthYear int
		wantFlag  bool
	}{
		{"child within limit", model.DependentChildUnder21, 2005, false},
		{"child over limit", model.DependentChildUnder21, 2000, true},
		{"student at limit", model.DependentChildUniversity, 2000, false},
		{"student over limit", model.DependentChildUniversity, 1999, true},
		{"sibling over limit", model.DependentSiblingGrandchild, 1998, true},
		{"parent has no ceiling", model.DependentParentGrandparent, 1950, false},
		{"spouse has no ceiling", model.DependentSpouse, 1980, false},
		{"incapacitated child has no ceiling", model.DependentChildIncapacitated, 1990, false},
	}

	a := NewDependents(rules.DefaultTables())
	for _, c := range cases {
		d := &model.Declaration{
			CalendarYear: 2024,
			Dependents: []model.Dependent{{
				Type:      c.depType,
				CPF:       validCPF2,
				Name:      "DEPENDENTE",
				BirthDate: birth(c.birthYear),
			}},
		}
		_, found := findInconsistency(a.Analyze(d), model.CatDependentAgeMismatch)
		if found != c.wantFlag {
			t.Errorf("%s: flagged = %v, want %v", c.name, found, c.wantFlag)
		}
	}
}

func TestDependentUnknownBirthDateSkipped(t *testing.T) {
	a := NewDependents(rules.DefaultTables())
	d := &model.Declaration{
		CalendarYear: 2024,
		Dependents: []model.Dependent{{
			Type: model.DependentChildUnder21, CPF: validCPF2, Name: "SEM DATA",
		}},
	}
	if fs := a.Analyze(d); len(fs) != 0 {
		t.Fatalf("findings = %+v, want none without a birth date", fs)
	}
}

func TestDependentSequentialCPF(t *testing.T) {
	a := NewDependents(rules.DefaultTables())
	d := &model.Declaration{
		CalendarYear: 2024,
		Dependents: []model.Dependent{{
			Type: model.DependentChildUnder21, CPF: "12345678901",
			Name: "FILHO", BirthDate: birth(2010),
		}},
	}
	if _, ok := findWarning(a.Analyze(d), "sequencial"); !ok {
		t.Fatal("expected sequential-CPF warning")
	}
}
