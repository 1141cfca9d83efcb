package model

// Severity classifies how strongly a finding weighs on the risk score.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// RiskLevel classifies a computed score for display.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"      // score 80-100
	RiskMedium   RiskLevel = "medium"   // score 50-79
	RiskHigh     RiskLevel = "high"     // score 25-49
	RiskCritical RiskLevel = "critical" // score 0-24
)

// FilingType distinguishes the two legal declaration regimes.
type FilingType string

const (
	FilingComplete   FilingType = "complete"
	FilingSimplified FilingType = "simplified"
)

// DependentType is the legal classification of a dependent.
type DependentType string

const (
	DependentSpouse             DependentType = "spouse"
	DependentPartner            DependentType = "partner"
	DependentChildUnder21       DependentType = "child_under_21"
	DependentChildUniversity    DependentType = "child_university"
	DependentChildIncapacitated DependentType = "child_incapacitated"
	DependentSiblingGrandchild  DependentType = "sibling_grandchild"
	DependentParentGrandparent  DependentType = "parent_grandparent"
	DependentMinorInCustody     DependentType = "minor_in_custody"
	DependentIncapacitatedWard  DependentType = "incapacitated_ward"
)

// DependentTypeFromCode maps the 2-digit type code of a dependent record.
// Unknown codes fall back to child-under-21, matching the filing program's
// own default.
func DependentTypeFromCode(code string) DependentType {
	switch code {
	case "11":
		return DependentSpouse
	case "12":
		return DependentPartner
	case "21":
		return DependentChildUnder21
	case "22":
		return DependentChildUniversity
	case "23":
		return DependentChildIncapacitated
	case "31":
		return DependentSiblingGrandchild
	case "41":
		return DependentParentGrandparent
	case "51":
		return DependentMinorInCustody
	case "61":
		return DependentIncapacitatedWard
	default:
		return DependentChildUnder21
	}
}

// AssetGroup is the top-level asset classification of the filing format.
type AssetGroup string

const (
	AssetRealEstate   AssetGroup = "real_estate"
	AssetVehicles     AssetGroup = "vehicles"
	AssetEquityStakes AssetGroup = "equity_stakes"
	AssetInvestments  AssetGroup = "investments"
	AssetSavings      AssetGroup = "savings"
	AssetDeposits     AssetGroup = "deposits"
	AssetFunds        AssetGroup = "funds"
	AssetCrypto       AssetGroup = "crypto"
	AssetOther        AssetGroup = "other"
)

// AssetGroupFromCode maps the 2-digit group code of an asset record.
// Codes 11-13 are alternative real-estate codes seen in older files.
func AssetGroupFromCode(code string) AssetGroup {
	switch code {
	case "01", "11", "12", "13":
		return AssetRealEstate
	case "02":
		return AssetVehicles
	case "03":
		return AssetEquityStakes
	case "04":
		return AssetInvestments
	case "05":
		return AssetSavings
	case "06":
		return AssetDeposits
	case "07":
		return AssetFunds
	case "08":
		return AssetCrypto
	default:
		return AssetOther
	}
}

// DeductionCategory tags a deduction entry.
type DeductionCategory string

const (
	DeductionMedical         DeductionCategory = "medical"
	DeductionEducation       DeductionCategory = "education"
	DeductionOfficialPension DeductionCategory = "official_pension"
	DeductionPrivatePension  DeductionCategory = "private_pension"
	DeductionDependents      DeductionCategory = "dependents"
	DeductionAlimony         DeductionCategory = "alimony"
	DeductionCashBook        DeductionCategory = "cash_book"
	DeductionOther           DeductionCategory = "other"
)

// IncomeCategory tags an income entry.
type IncomeCategory string

const (
	IncomeSalaried     IncomeCategory = "salaried"
	IncomeSelfEmployed IncomeCategory = "self_employed"
	IncomeRental       IncomeCategory = "rental"
	IncomeDividends    IncomeCategory = "dividends"
	IncomeCapitalGain  IncomeCategory = "capital_gain"
	IncomeExempt       IncomeCategory = "exempt"
	IncomeExclusive    IncomeCategory = "exclusive"
	IncomeAbroad       IncomeCategory = "abroad"
	IncomeOther        IncomeCategory = "other"
)
