package model

import "github.com/shopspring/decimal"

// FindingKind discriminates the three finding variants.
type FindingKind string

const (
	KindInconsistency FindingKind = "inconsistency"
	KindWarning       FindingKind = "warning"
	KindSuggestion    FindingKind = "suggestion"
)

// Finding is the single output unit of every analyzer. The three variants
// below are immutable value objects; analyzers create them, nothing mutates
// them afterwards.
type Finding interface {
	Kind() FindingKind
}

// Inconsistency category tags, machine-readable and stable across releases.
const (
	CatPatrimonyVsIncome     = "PATRIMONIO_VS_RENDA"
	CatHighMedicalExpenses   = "DESPESAS_MEDICAS_ALTAS"
	CatEducationOverLimit    = "DESPESAS_EDUCACAO_LIMITE"
	CatSuspiciousVariation   = "VARIACAO_PATRIMONIO_SUSPEITA"
	CatDuplicateDependent    = "DEPENDENTE_DUPLICADO"
	CatSuspiciousZeroValue   = "VALOR_ZERADO_SUSPEITO"
	CatInvalidCPF            = "CPF_INVALIDO"
	CatInvalidCNPJ           = "CNPJ_INVALIDO"
	CatRoundDeductionValues  = "VALORES_REDONDOS_DEDUCOES"
	CatVehicleDepreciation   = "DEPRECIACAO_VEICULO_IRREGULAR"
	CatConcentratedMedical   = "DESPESAS_MEDICAS_CONCENTRADAS"
	CatValueOutlier          = "VALOR_OUTLIER"
	CatBenfordAnomaly        = "DISTRIBUICAO_BENFORD_ANOMALA"
	CatDependentAgeMismatch  = "DEPENDENTE_IDADE_INCOMPATIVEL"
	CatStagnantIncomeGrowth  = "RENDA_ESTAGNADA_PATRIMONIO_CRESCENTE"
	CatSuddenIncomeDrop      = "QUEDA_SUBITA_RENDA"
	CatConstantMedical       = "DESPESAS_MEDICAS_CONSTANTES"
	CatLiquidationPattern    = "PADRAO_LIQUIDACAO_SUSPEITO"
	CatCryptoGainThreshold   = "CRIPTO_GANHO_LIMITE"
	CatCryptoReporting       = "CRIPTO_IN1888"
	CatUndocumentedDeduction = "DEDUCAO_SEM_COMPROVANTE"
	CatHighAlimony           = "PENSAO_ALIMENTICIA_ALTA"
)

// Warning category tags used for grouping in the output.
const (
	WarnPattern     = "pattern"
	WarnConsistency = "consistency"
	WarnDeduction   = "deduction"
	WarnGeneral     = "general"
)

// Inconsistency is a hard rule violation.
type Inconsistency struct {
	Category    string
	Severity    Severity
	Description string
	Declared    decimal.Decimal // zero when not applicable
	Expected    decimal.Decimal // zero when not applicable
	Remediation string
	Impact      decimal.Decimal // monetary value at stake, zero when unknown
}

func (Inconsistency) Kind() FindingKind { return KindInconsistency }

// Warning is a soft signal. Informational warnings appear in the output but
// are excluded from scoring.
type Warning struct {
	Category      string
	Severity      Severity
	Field         string
	Message       string
	Informational bool
	Impact        decimal.Decimal
}

func (Warning) Kind() FindingKind { return KindWarning }

// Suggestion is an optimization opportunity; it never affects the score.
type Suggestion struct {
	Title           string
	Description     string
	PotentialSaving decimal.Decimal // zero when it cannot be estimated
	Priority        int             // 1 (highest) to 5, display ordering only
}

func (Suggestion) Kind() FindingKind { return KindSuggestion }

// RiskScore is the aggregated 0-100 compliance score. Higher is safer.
type RiskScore struct {
	Score   int
	Level   RiskLevel
	Factors []string
}

// ScoreFromPoints clamps the accumulated points into the displayed 0-100
// scale and derives the risk level.
func ScoreFromPoints(points int, factors []string) RiskScore {
	score := points
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	var level RiskLevel
	switch {
	case score >= 80:
		level = RiskLow
	case score >= 50:
		level = RiskMedium
	case score >= 25:
		level = RiskHigh
	default:
		level = RiskCritical
	}

	if factors == nil {
		factors = []string{}
	}
	return RiskScore{Score: score, Level: level, Factors: factors}
}
