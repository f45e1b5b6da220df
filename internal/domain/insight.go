package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MaxInsightRangeDays é o maior intervalo aceito pela API de insights em uma única chamada
const MaxInsightRangeDays = 90

const (
	WindowDaily  = "1d"
	WindowWeekly = "7d"
)

var ErrInvalidDateRange = errors.New("invalid date range")

// DateRange é inclusivo nas duas pontas, com datas truncadas ao dia
type DateRange struct {
	Since time.Time `json:"since"`
	Until time.Time `json:"until"`
}

func NewDateRange(since, until time.Time) (DateRange, error) {
	dr := DateRange{Since: truncateDay(since), Until: truncateDay(until)}
	if dr.Until.Before(dr.Since) {
		return DateRange{}, fmt.Errorf("%w: %s > %s", ErrInvalidDateRange, dr.Since.Format(time.DateOnly), dr.Until.Format(time.DateOnly))
	}
	return dr, nil
}

// LastDays devolve o intervalo de n dias terminando em end (inclusive)
func LastDays(end time.Time, n int) DateRange {
	if n < 1 {
		n = 1
	}
	end = truncateDay(end)
	return DateRange{Since: end.AddDate(0, 0, -(n - 1)), Until: end}
}

func (d DateRange) Days() int {
	return int(d.Until.Sub(d.Since).Hours()/24) + 1
}

func (d DateRange) String() string {
	return d.Since.Format(time.DateOnly) + ".." + d.Until.Format(time.DateOnly)
}

// SplitDateRange quebra o intervalo em sub-intervalos consecutivos de no
// máximo maxDays dias, sem lacunas nem sobreposição.
func SplitDateRange(dr DateRange, maxDays int) []DateRange {
	if maxDays < 1 {
		maxDays = MaxInsightRangeDays
	}

	ranges := make([]DateRange, 0, dr.Days()/maxDays+1)
	for start := dr.Since; !start.After(dr.Until); start = start.AddDate(0, 0, maxDays) {
		end := start.AddDate(0, 0, maxDays-1)
		if end.After(dr.Until) {
			end = dr.Until
		}
		ranges = append(ranges, DateRange{Since: start, Until: end})
	}
	return ranges
}

// WindowDays converte o rótulo de janela ("1d", "7d") em número de dias
func WindowDays(window string) (int, error) {
	if !strings.HasSuffix(window, "d") {
		return 0, fmt.Errorf("invalid window %q", window)
	}
	n, err := strconv.Atoi(strings.TrimSuffix(window, "d"))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid window %q", window)
	}
	return n, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Metrics é o saco de métricas achatado de um Insight
type Metrics struct {
	Impressions int64   `json:"impressions"`
	Reach       int64   `json:"reach"`
	Clicks      int64   `json:"clicks"`
	Spend       float64 `json:"spend"`
	CTR         float64 `json:"ctr"`
	CPC         float64 `json:"cpc"`
	CPM         float64 `json:"cpm"`
	Frequency   float64 `json:"frequency"`
	Conversions float64 `json:"conversions"`
	Likes       float64 `json:"likes"`
	Comments    float64 `json:"comments"`
	Shares      float64 `json:"shares"`
	Saves       float64 `json:"saves"`
	VideoViews  float64 `json:"video_views"`
	VideoP25    float64 `json:"video_p25"`
	VideoP50    float64 `json:"video_p50"`
	VideoP75    float64 `json:"video_p75"`
	VideoP95    float64 `json:"video_p95"`
	VideoP100   float64 `json:"video_p100"`
	QualityRank string  `json:"quality_ranking,omitempty"`
	EngageRank  string  `json:"engagement_rate_ranking,omitempty"`
	ConvRank    string  `json:"conversion_rate_ranking,omitempty"`
	Currency    string  `json:"currency,omitempty"`

	// Conversões por tipo canônico
	ConversionsByType map[string]float64 `json:"conversions_by_type,omitempty"`
	// Marcado quando a conversão de moeda falhou e spend ficou na moeda original
	CurrencyConversionFailed bool `json:"currency_conversion_failed,omitempty"`
}

// Value devolve uma métrica numérica pelo nome, usado pelos playbooks e templates
func (m *Metrics) Value(name string) (float64, bool) {
	switch name {
	case "impressions":
		return float64(m.Impressions), true
	case "reach":
		return float64(m.Reach), true
	case "clicks":
		return float64(m.Clicks), true
	case "spend":
		return m.Spend, true
	case "ctr":
		return m.CTR, true
	case "cpc":
		return m.CPC, true
	case "cpm":
		return m.CPM, true
	case "frequency":
		return m.Frequency, true
	case "conversions":
		return m.Conversions, true
	case "cpa":
		if m.Conversions == 0 {
			return 0, false
		}
		return m.Spend / m.Conversions, true
	case "likes":
		return m.Likes, true
	case "comments":
		return m.Comments, true
	case "shares":
		return m.Shares, true
	case "saves":
		return m.Saves, true
	case "video_views":
		return m.VideoViews, true
	case "video_p25":
		return m.VideoP25, true
	case "video_p50":
		return m.VideoP50, true
	case "video_p75":
		return m.VideoP75, true
	case "video_p95":
		return m.VideoP95, true
	case "video_p100":
		return m.VideoP100, true
	}
	return 0, false
}

// MetricNames lista as métricas numéricas expostas aos playbooks
var MetricNames = []string{
	"impressions", "reach", "clicks", "spend", "ctr", "cpc", "cpm", "frequency",
	"conversions", "cpa", "likes", "comments", "shares", "saves", "video_views",
	"video_p25", "video_p50", "video_p75", "video_p95", "video_p100",
}

// Action é um evento bruto do array "actions" da API de origem
type Action struct {
	Type  string `json:"action_type"`
	Value string `json:"value"`
}

// RawInsight é uma linha de insights ainda não normalizada
type RawInsight struct {
	EntityType        EntityType
	EntityExternalID  string
	Date              time.Time
	Impressions       int64
	Reach             int64
	Clicks            int64
	Spend             float64
	CTR               float64
	CPC               float64
	CPM               float64
	Frequency         float64
	Actions           []Action
	VideoP25          []Action
	VideoP50          []Action
	VideoP75          []Action
	VideoP95          []Action
	VideoP100         []Action
	QualityRanking    string
	EngagementRanking string
	ConversionRanking string
}

// Insight é único por (account, provider, entity_type, entity_id, date, window)
type Insight struct {
	ID         string     `json:"id"`
	AccountID  string     `json:"account_id"`
	Provider   Provider   `json:"provider"`
	EntityType EntityType `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
	Date       time.Time  `json:"date"`
	Window     string     `json:"window"`
	Metrics    Metrics    `json:"metrics"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
