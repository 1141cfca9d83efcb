package analysis

import (
	"fmt"

	"irpfscan/internal/model"
)

// severityPoints is the fixed penalty per finding severity. Penalties are
// summed per finding, so the score is independent of analyzer order.
func severityPoints(s model.Severity) int {
	switch s {
	case model.SeverityLow:
		return 5
	case model.SeverityMedium:
		return 15
	case model.SeverityHigh:
		return 30
	case model.SeverityCritical:
		return 50
	default:
		return 10
	}
}

// Score computes the 0-100 compliance score from the findings of one
// analysis run. Inconsistencies carry the full penalty for their severity,
// non-informational warnings half of it, informational warnings and
// suggestions nothing.
func Score(incs []model.Inconsistency, warns []model.Warning) model.RiskScore {
	points := 100
	var factors []string
	scored := false

	for _, inc := range incs {
		p := severityPoints(inc.Severity)
		points -= p
		scored = true
		factors = append(factors, fmt.Sprintf("%s: -%d pts", inc.Category, p))
	}
	for _, w := range warns {
		if w.Informational {
			continue
		}
		p := severityPoints(w.Severity) / 2
		points -= p
		scored = true
		factors = append(factors, fmt.Sprintf("Aviso em %s: -%d pts", w.Field, p))
	}

	if !scored {
		factors = append(factors, "Nenhuma inconsistência detectada - declaração conforme")
	}
	return model.ScoreFromPoints(points, factors)
}
