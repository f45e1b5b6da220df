package recommending

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/vfg2006/ads-sync-api/internal/domain"
	"github.com/vfg2006/ads-sync-api/pkg/utils"
)

const notAvailable = "N/A"

var operators = map[string]func(a, b float64) bool{
	">":  func(a, b float64) bool { return a > b },
	">=": func(a, b float64) bool { return a >= b },
	"<":  func(a, b float64) bool { return a < b },
	"<=": func(a, b float64) bool { return a <= b },
	"==": func(a, b float64) bool { return math.Abs(a-b) < 1e-9 },
	"!=": func(a, b float64) bool { return math.Abs(a-b) >= 1e-9 },
}

// Matches aplica as condições com semântica AND; uma condição sobre um
// agregado N/A não é satisfeita
func Matches(p *domain.Playbook, agg Aggregates) (bool, error) {
	for _, c := range p.Conditions {
		cmp, ok := operators[c.Operator]
		if !ok {
			return false, fmt.Errorf("operador desconhecido %q", c.Operator)
		}
		v, ok := agg.Get(c.Key())
		if !ok || !cmp(v, c.Value) {
			return false, nil
		}
	}
	return true, nil
}

var tokenPattern = regexp.MustCompile(`\{\{\s*([\w.]+)\s*\}\}`)

// Interpolate troca {{token}} pelos agregados ou por vars; o resto vira N/A
func Interpolate(tpl string, agg Aggregates, vars map[string]string) string {
	return tokenPattern.ReplaceAllStringFunc(tpl, func(m string) string {
		key := tokenPattern.FindStringSubmatch(m)[1]
		if v, ok := vars[key]; ok {
			return v
		}
		if v, ok := agg.Get(key); ok {
			return formatNumber(v)
		}
		return notAvailable
	})
}

func formatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	if s == "-0" {
		return "0"
	}
	return s
}

// creativeRefreshLift é a heurística fixa de ganho de CTR após troca de criativo
const creativeRefreshLift = 0.25

// ProjectImpact devolve uma estimativa pontual por tipo de ação, nil quando
// não há projeção para o tipo
func ProjectImpact(action domain.PlaybookAction, agg Aggregates) *domain.Impact {
	switch action.Type {
	case domain.ActionPause:
		spend, ok := baseline(agg, "spend")
		if !ok {
			return nil
		}
		return &domain.Impact{
			Metric: "spend", Before: spend, After: 0, Delta: -spend,
			Note: fmt.Sprintf("economia estimada de %s por dia", formatNumber(spend)),
		}
	case domain.ActionBudgetIncrease, domain.ActionBudgetDecrease:
		conv, ok := baseline(agg, "conversions")
		if !ok {
			return nil
		}
		pct := math.Abs(action.ChangePercent) / 100
		if action.Type == domain.ActionBudgetDecrease {
			pct = -pct
		}
		after := conv * (1 + pct)
		return &domain.Impact{
			Metric: "conversions", Before: conv, After: after, Delta: after - conv,
			Note: "conversões escaladas linearmente pela variação do orçamento",
		}
	case domain.ActionCreativeRefresh:
		ctr, ok := baseline(agg, "ctr")
		if !ok {
			return nil
		}
		after := ctr * (1 + creativeRefreshLift)
		return &domain.Impact{
			Metric: "ctr", Before: ctr, After: after, Delta: after - ctr,
			Note: "ganho de CTR estimado em 25% com criativo novo",
		}
	}
	return nil
}

// baseline usa a média de 7 dias e cai para o último valor
func baseline(agg Aggregates, metric string) (float64, bool) {
	if v, ok := agg.Get(domain.AggregateKey(metric, domain.AggregateAvg7)); ok {
		return v, true
	}
	return agg.Get(metric)
}

// Confidence cresce com a cobertura de dias da janela
func Confidence(agg Aggregates, lookbackDays int) float64 {
	if lookbackDays <= 0 {
		lookbackDays = 30
	}
	coverage := math.Min(1, float64(agg.Points())/float64(lookbackDays))
	return utils.RoundWithTwoDecimalPlace(0.4 + 0.6*coverage)
}
