package analysis

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"irpfscan/internal/model"
	"irpfscan/internal/rules"
	"irpfscan/internal/stats"
)

// cryptoKeywords identify crypto-related disposals by name.
var cryptoKeywords = []string{
	"BITCOIN", "BTC", "ETHEREUM", "ETH", "CRIPTO", "CRIPTOMOEDA",
	"ALTCOIN", "TOKEN", "NFT", "STABLECOIN", "USDT", "USDC",
	"BINANCE", "LITECOIN", "LTC", "RIPPLE", "XRP", "CARDANO", "ADA",
	"SOLANA", "SOL", "POLKADOT", "DOT", "DOGECOIN", "DOGE",
}

// Crypto checks crypto asset holdings (group 08) against the reporting
// rules of IN RFB 1888/2019 and against value-fabrication heuristics.
type Crypto struct {
	tables rules.Tables
}

func NewCrypto(tables rules.Tables) *Crypto {
	return &Crypto{tables: tables}
}

func (a *Crypto) Name() string { return "crypto" }

func (a *Crypto) Analyze(d *model.Declaration) []model.Finding {
	cryptos := d.AssetsInGroup(model.AssetCrypto)
	if len(cryptos) == 0 {
		return nil
	}

	var out []model.Finding
	out = append(out, a.checkGainThreshold(d, cryptos)...)
	out = append(out, a.checkReportingFloor(cryptos)...)
	out = append(out, a.checkCustody(cryptos)...)
	out = append(out, a.checkRoundValues(cryptos)...)
	out = append(out, a.checkExtremeVariation(cryptos)...)
	out = append(out, a.checkConcentration(cryptos)...)
	return out
}

// checkGainThreshold estimates the monthly crypto capital gain and flags
// it when it exceeds the monthly reporting exemption. Gains come from
// results declared on the assets themselves plus crypto disposals.
func (a *Crypto) checkGainThreshold(d *model.Declaration, cryptos []model.Asset) []model.Finding {
	total := decimal.Zero
	for _, c := range cryptos {
		if c.Result.IsPositive() {
			total = total.Add(c.Result)
		}
	}
	for _, disp := range d.Disposals {
		if isCryptoDisposal(disp) && disp.CapitalGain.IsPositive() {
			total = total.Add(disp.CapitalGain)
		}
	}
	if !total.IsPositive() {
		return nil
	}

	monthly := total.Div(decimal.NewFromInt(12))
	if !monthly.GreaterThan(a.tables.CryptoMonthlyExemption) {
		return nil
	}
	return []model.Finding{model.Inconsistency{
		Category: model.CatCryptoGainThreshold,
		Severity: model.SeverityHigh,
		Description: fmt.Sprintf(
			"Ganho de capital em criptoativos estimado em R$ %s/mês excede o limite mensal de R$ %s da IN RFB 1888/2019 (total anual R$ %s)",
			monthly.StringFixed(2), a.tables.CryptoMonthlyExemption.StringFixed(2), total.StringFixed(2)),
		Declared:    monthly,
		Expected:    a.tables.CryptoMonthlyExemption,
		Remediation: "Operações com ganho acima do limite mensal devem ser declaradas mensalmente à Receita Federal",
		Impact:      total,
	}}
}

// checkReportingFloor reminds the filer of the annual reporting duty when
// total holdings pass the declaration floor.
func (a *Crypto) checkReportingFloor(cryptos []model.Asset) []model.Finding {
	total := decimal.Zero
	count := 0
	for _, c := range cryptos {
		if c.CurrentValue.IsPositive() {
			total = total.Add(c.CurrentValue)
			count++
		}
	}
	if total.LessThan(a.tables.CryptoReportingFloor) {
		return nil
	}
	return []model.Finding{model.Warning{
		Category: model.WarnConsistency,
		Severity: model.SeverityLow,
		Field:    "bens_direitos",
		Message: fmt.Sprintf(
			"Patrimônio em criptoativos: R$ %s (%d ativos). Holdings acima de R$ %s devem ser declarados conforme IN RFB 1888/2019",
			total.StringFixed(2), count, a.tables.CryptoReportingFloor.StringFixed(2)),
		Informational: true,
		Impact:        total,
	}}
}

// checkCustody warns about sizable positions without a custodian
// institution, which usually means self-custody.
func (a *Crypto) checkCustody(cryptos []model.Asset) []model.Finding {
	var out []model.Finding
	for _, c := range cryptos {
		if c.CustodianID != "" {
			if !rules.ValidCNPJ(c.CustodianID) {
				out = append(out, model.Inconsistency{
					Category: model.CatCryptoReporting,
					Severity: model.SeverityMedium,
					Description: fmt.Sprintf(
						"CNPJ inválido para exchange/custodiante no criptoativo '%s'",
						truncate(c.Description, 30)),
					Remediation: "Verifique e corrija o CNPJ da exchange/custodiante",
					Impact:      c.CurrentValue,
				})
			}
			continue
		}
		if c.CurrentValue.GreaterThanOrEqual(a.tables.CryptoReportingFloor) {
			out = append(out, model.Warning{
				Category: model.WarnConsistency,
				Severity: model.SeverityLow,
				Field:    "bens_direitos",
				Message: fmt.Sprintf(
					"Criptoativo sem CNPJ de exchange/custodiante: '%s' (R$ %s). Se em self-custody, documente as carteiras",
					truncate(c.Description, 50), c.CurrentValue.StringFixed(2)),
				Informational: true,
			})
		}
	}
	return out
}

// checkRoundValues flags multiple crypto positions declared at exact
// thousands. Market values are rarely round.
func (a *Crypto) checkRoundValues(cryptos []model.Asset) []model.Finding {
	thousand := decimal.NewFromInt(1000)
	var round []decimal.Decimal
	for _, c := range cryptos {
		if c.CurrentValue.LessThan(a.tables.CryptoMinAnalysisValue) {
			continue
		}
		if c.CurrentValue.Mod(thousand).IsZero() {
			round = append(round, c.CurrentValue)
		}
	}
	if len(round) < 2 {
		return nil
	}

	impact := decimal.Zero
	for _, v := range round {
		impact = impact.Add(v)
	}
	return []model.Finding{model.Warning{
		Category: model.WarnPattern,
		Severity: model.SeverityLow,
		Field:    "bens_direitos",
		Message: fmt.Sprintf(
			"%d criptoativos com valores redondos. Valores de mercado raramente são redondos; verifique se refletem cotações reais",
			len(round)),
		Impact: impact,
	}}
}

// checkExtremeVariation flags year-over-year swings beyond plausible
// market movement.
func (a *Crypto) checkExtremeVariation(cryptos []model.Asset) []model.Finding {
	var out []model.Finding
	for _, c := range cryptos {
		if c.PriorValue.LessThan(a.tables.CryptoMinAnalysisValue) {
			continue
		}
		variation := c.CurrentValue.Sub(c.PriorValue).Div(c.PriorValue)

		switch {
		case variation.GreaterThan(a.tables.CryptoMaxAppreciation):
			out = append(out, model.Warning{
				Category: model.WarnConsistency,
				Severity: model.SeverityMedium,
				Field:    "bens_direitos",
				Message: fmt.Sprintf(
					"Valorização atípica em '%s': %s%%. Documente as operações que justificam esta variação",
					truncate(c.Description, 30),
					variation.Mul(decimal.NewFromInt(100)).StringFixed(0)),
				Impact: c.Delta(),
			})
		case variation.LessThan(a.tables.CryptoMaxDepreciation.Neg()):
			out = append(out, model.Warning{
				Category: model.WarnConsistency,
				Severity: model.SeverityMedium,
				Field:    "bens_direitos",
				Message: fmt.Sprintf(
					"Desvalorização atípica em '%s': %s%%. Verifique se houve venda parcial não declarada como alienação",
					truncate(c.Description, 30),
					variation.Mul(decimal.NewFromInt(100)).StringFixed(0)),
				Impact: c.Delta().Abs(),
			})
		}
	}
	return out
}

// checkConcentration measures portfolio concentration with the Gini
// index over the significant positions.
func (a *Crypto) checkConcentration(cryptos []model.Asset) []model.Finding {
	var values []float64
	for _, c := range cryptos {
		if c.CurrentValue.GreaterThanOrEqual(a.tables.CryptoMinAnalysisValue) {
			values = append(values, c.CurrentValue.InexactFloat64())
		}
	}
	if len(values) < 2 {
		return nil
	}

	gini := stats.GiniIndex(values)
	if gini <= a.tables.CryptoGiniAlert.InexactFloat64() {
		return nil
	}
	return []model.Finding{model.Warning{
		Category: model.WarnGeneral,
		Severity: model.SeverityLow,
		Field:    "bens_direitos",
		Message: fmt.Sprintf(
			"Alta concentração no portfólio de criptoativos (índice %.2f). Considere diversificação para gestão de risco",
			gini),
		Informational: true,
	}}
}

func isCryptoDisposal(disp model.Disposal) bool {
	name := strings.ToUpper(disp.AssetName)
	for _, kw := range cryptoKeywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}
