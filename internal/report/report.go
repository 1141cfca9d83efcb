// Package report renders analysis results as plain text for the CLI.
package report

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"irpfscan/internal/analysis"
	"irpfscan/internal/model"
)

var levelLabels = map[model.RiskLevel]string{
	model.RiskLow:      "BAIXO",
	model.RiskMedium:   "MÉDIO",
	model.RiskHigh:     "ALTO",
	model.RiskCritical: "CRÍTICO",
}

var severityLabels = map[model.Severity]string{
	model.SeverityLow:      "baixa",
	model.SeverityMedium:   "média",
	model.SeverityHigh:     "alta",
	model.SeverityCritical: "crítica",
}

// BRL formats a monetary amount the Brazilian way: R$ 1.234,56.
func BRL(v decimal.Decimal) string {
	s := v.Abs().StringFixed(2)
	intPart := s[:len(s)-3]
	cents := s[len(s)-2:]

	var b strings.Builder
	if v.IsNegative() {
		b.WriteString("-")
	}
	b.WriteString("R$ ")
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteRune('.')
		}
		b.WriteRune(c)
	}
	b.WriteString(",")
	b.WriteString(cents)
	return b.String()
}

// Render writes the full sectioned report for one analysis result.
func Render(res *analysis.Result) string {
	var b strings.Builder

	header(&b, res)
	score(&b, res.Score)
	inconsistencies(&b, res.Inconsistencies)
	warnings(&b, res.Warnings)
	suggestions(&b, res.Suggestions)

	return b.String()
}

func header(b *strings.Builder, res *analysis.Result) {
	rule(b)
	fmt.Fprintf(b, "ANÁLISE DA DECLARAÇÃO IRPF\n")
	rule(b)
	fmt.Fprintf(b, "Contribuinte: %s\n", res.TaxpayerName)
	fmt.Fprintf(b, "CPF: %s\n", res.TaxpayerCPF)
	if len(res.Years) > 1 {
		years := make([]string, len(res.Years))
		for i, y := range res.Years {
			years[i] = fmt.Sprintf("%d", y)
		}
		fmt.Fprintf(b, "Exercícios: %s\n", strings.Join(years, ", "))
	} else {
		fmt.Fprintf(b, "Exercício: %d\n", res.ExerciseYear)
	}
	b.WriteString("\n")
}

func score(b *strings.Builder, s model.RiskScore) {
	fmt.Fprintf(b, "PONTUAÇÃO DE CONFORMIDADE: %d/100 (risco %s)\n",
		s.Score, levelLabels[s.Level])
	for _, f := range s.Factors {
		fmt.Fprintf(b, "  - %s\n", f)
	}
	b.WriteString("\n")
}

func inconsistencies(b *strings.Builder, incs []model.Inconsistency) {
	if len(incs) == 0 {
		return
	}
	fmt.Fprintf(b, "INCONSISTÊNCIAS (%d)\n", len(incs))
	for i, inc := range incs {
		fmt.Fprintf(b, "%d. [%s] %s\n", i+1, severityLabels[inc.Severity], inc.Description)
		if !inc.Declared.IsZero() || !inc.Expected.IsZero() {
			fmt.Fprintf(b, "   Declarado: %s | Esperado: %s\n", BRL(inc.Declared), BRL(inc.Expected))
		}
		if inc.Remediation != "" {
			fmt.Fprintf(b, "   Ação: %s\n", inc.Remediation)
		}
	}
	b.WriteString("\n")
}

func warnings(b *strings.Builder, warns []model.Warning) {
	if len(warns) == 0 {
		return
	}
	fmt.Fprintf(b, "AVISOS (%d)\n", len(warns))
	for i, w := range warns {
		marker := ""
		if w.Informational {
			marker = " (informativo)"
		}
		fmt.Fprintf(b, "%d. [%s] %s%s\n", i+1, severityLabels[w.Severity], w.Message, marker)
	}
	b.WriteString("\n")
}

func suggestions(b *strings.Builder, suggs []model.Suggestion) {
	if len(suggs) == 0 {
		return
	}
	fmt.Fprintf(b, "SUGESTÕES DE OTIMIZAÇÃO (%d)\n", len(suggs))
	for i, s := range suggs {
		fmt.Fprintf(b, "%d. %s\n", i+1, s.Title)
		fmt.Fprintf(b, "   %s\n", s.Description)
		if s.PotentialSaving.IsPositive() {
			fmt.Fprintf(b, "   Economia potencial: %s\n", BRL(s.PotentialSaving))
		}
	}
	b.WriteString("\n")
}

func rule(b *strings.Builder) {
	b.WriteString(strings.Repeat("=", 58))
	b.WriteString("\n")
}
