// Package analysis runs the rule analyzers over parsed declarations and
// aggregates their findings into a scored result.
package analysis

import (
	"irpfscan/internal/model"
	"irpfscan/internal/rules"
)

// Analyzer inspects a single declaration and reports findings. Analyzers
// must treat the declaration as read-only; the pipeline runs them
// concurrently over the same value.
type Analyzer interface {
	Name() string
	Analyze(d *model.Declaration) []model.Finding
}

// ComparativeAnalyzer inspects a filer's declarations across years.
// Compare receives them sorted by exercise year ascending; the pipeline
// guarantees they belong to the same filer and to distinct years.
type ComparativeAnalyzer interface {
	Name() string
	Compare(decls []*model.Declaration) []model.Finding
}

// DefaultAnalyzers returns the full single-declaration analyzer set.
// The slice order only affects presentation, never the score.
func DefaultAnalyzers(tables rules.Tables) []Analyzer {
	return []Analyzer{
		NewConsistency(tables),
		NewDeductions(tables),
		NewIncome(tables),
		NewPatterns(tables),
		NewDependents(tables),
		NewCrossValidation(tables),
		NewCrypto(tables),
		NewOptimization(tables),
	}
}

// DefaultComparativeAnalyzers returns the cross-year analyzer set.
func DefaultComparativeAnalyzers(tables rules.Tables) []ComparativeAnalyzer {
	return []ComparativeAnalyzer{
		NewTemporal(tables),
	}
}
