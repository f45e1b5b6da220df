package recommending

import (
	"sort"
	"time"

	"github.com/vfg2006/ads-sync-api/internal/domain"
)

// Aggregates guarda os valores calculados por token ("ctr", "ctr_avg7",
// "spend_trend"...). Tokens ausentes são N/A.
type Aggregates struct {
	values map[string]float64
	points int
}

func (a Aggregates) Get(key string) (float64, bool) {
	v, ok := a.values[key]
	return v, ok
}

// Points é o número de dias com insight na janela
func (a Aggregates) Points() int {
	return a.points
}

type point struct {
	date  time.Time
	value float64
}

// ComputeAggregates calcula, para cada métrica, o último valor, as médias de
// 7, 14 e 30 dias terminando em end e a tendência percentual entre o dia mais
// antigo e o mais recente.
func ComputeAggregates(insights []*domain.Insight, end time.Time) Aggregates {
	sorted := make([]*domain.Insight, len(insights))
	copy(sorted, insights)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	end = end.UTC().Truncate(24 * time.Hour)
	agg := Aggregates{values: make(map[string]float64), points: len(sorted)}

	for _, name := range domain.MetricNames {
		series := make([]point, 0, len(sorted))
		for _, in := range sorted {
			if v, ok := in.Metrics.Value(name); ok {
				series = append(series, point{date: in.Date, value: v})
			}
		}
		if len(series) == 0 {
			continue
		}

		agg.values[name] = series[len(series)-1].value
		for _, w := range []struct {
			agg  domain.Aggregate
			days int
		}{{domain.AggregateAvg7, 7}, {domain.AggregateAvg14, 14}, {domain.AggregateAvg30, 30}} {
			if v, ok := trailingAvg(series, end, w.days); ok {
				agg.values[domain.AggregateKey(name, w.agg)] = v
			}
		}
		if v, ok := trend(series); ok {
			agg.values[domain.AggregateKey(name, domain.AggregateTrend)] = v
		}
	}
	return agg
}

func trailingAvg(series []point, end time.Time, days int) (float64, bool) {
	since := end.AddDate(0, 0, -(days - 1))
	sum, n := 0.0, 0
	for _, p := range series {
		if p.date.Before(since) || p.date.After(end) {
			continue
		}
		sum += p.value
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// trend é N/A com menos de dois pontos ou com o valor mais antigo zerado
func trend(series []point) (float64, bool) {
	if len(series) < 2 {
		return 0, false
	}
	oldest, newest := series[0].value, series[len(series)-1].value
	if oldest == 0 {
		return 0, false
	}
	return (newest - oldest) / oldest * 100, true
}
