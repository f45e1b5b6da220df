package insighting

import (
	"strconv"

	"github.com/vfg2006/ads-sync-api/internal/domain"
)

type canonical struct {
	name     string
	synonyms []string
}

// conversionTypes é a lista de prioridade da deduplicação. Para cada tipo
// canônico vale o primeiro sinônimo presente; o tipo primário vem antes das
// variantes de pixel e omni.
var conversionTypes = []canonical{
	{"purchase", []string{"purchase", "omni_purchase", "onsite_web_purchase", "offsite_conversion.fb_pixel_purchase"}},
	{"lead", []string{"lead", "onsite_conversion.lead_grouped", "offsite_conversion.fb_pixel_lead"}},
	{"complete_registration", []string{"complete_registration", "omni_complete_registration", "offsite_conversion.fb_pixel_complete_registration"}},
	{"add_to_cart", []string{"add_to_cart", "omni_add_to_cart", "offsite_conversion.fb_pixel_add_to_cart"}},
	{"initiate_checkout", []string{"initiate_checkout", "omni_initiated_checkout", "offsite_conversion.fb_pixel_initiate_checkout"}},
	{"contact", []string{"contact", "onsite_conversion.messaging_conversation_started_7d", "offsite_conversion.fb_pixel_contact"}},
	{"subscribe", []string{"subscribe", "offsite_conversion.fb_pixel_subscribe"}},
	// conversões do Google Ads já chegam agregadas
	{"conversion", []string{"conversion"}},
}

// contadores de engajamento, mesma regra do primeiro sinônimo
var (
	likeTypes      = []string{"like", "post_reaction"}
	commentTypes   = []string{"comment"}
	shareTypes     = []string{"post", "share"}
	saveTypes      = []string{"onsite_conversion.post_save", "post_save"}
	videoViewTypes = []string{"video_view", "video_play"}
)

func actionValues(actions []domain.Action) map[string]float64 {
	values := make(map[string]float64, len(actions))
	for _, a := range actions {
		if _, ok := values[a.Type]; ok {
			continue
		}
		v, err := strconv.ParseFloat(a.Value, 64)
		if err != nil {
			continue
		}
		values[a.Type] = v
	}
	return values
}

func firstMatch(values map[string]float64, synonyms []string) (float64, bool) {
	for _, s := range synonyms {
		if v, ok := values[s]; ok {
			return v, true
		}
	}
	return 0, false
}

// Conversions aplica a deduplicação por prioridade e devolve o total e o valor por tipo
func Conversions(actions []domain.Action) (float64, map[string]float64) {
	values := actionValues(actions)
	seen := make(map[string]float64)
	total := 0.0
	for _, c := range conversionTypes {
		if _, done := seen[c.name]; done {
			continue
		}
		if v, ok := firstMatch(values, c.synonyms); ok {
			seen[c.name] = v
			total += v
		}
	}
	if len(seen) == 0 {
		return 0, nil
	}
	return total, seen
}

func videoValue(actions []domain.Action) float64 {
	v, _ := firstMatch(actionValues(actions), videoViewTypes)
	return v
}

// Normalize achata uma linha bruta no saco de métricas, ainda na moeda da conta
func Normalize(raw *domain.RawInsight) domain.Metrics {
	values := actionValues(raw.Actions)

	m := domain.Metrics{
		Impressions: raw.Impressions,
		Reach:       raw.Reach,
		Clicks:      raw.Clicks,
		Spend:       raw.Spend,
		CTR:         raw.CTR,
		CPC:         raw.CPC,
		CPM:         raw.CPM,
		Frequency:   raw.Frequency,
		VideoP25:    videoValue(raw.VideoP25),
		VideoP50:    videoValue(raw.VideoP50),
		VideoP75:    videoValue(raw.VideoP75),
		VideoP95:    videoValue(raw.VideoP95),
		VideoP100:   videoValue(raw.VideoP100),
		QualityRank: raw.QualityRanking,
		EngageRank:  raw.EngagementRanking,
		ConvRank:    raw.ConversionRanking,
	}
	m.Likes, _ = firstMatch(values, likeTypes)
	m.Comments, _ = firstMatch(values, commentTypes)
	m.Shares, _ = firstMatch(values, shareTypes)
	m.Saves, _ = firstMatch(values, saveTypes)
	m.VideoViews, _ = firstMatch(values, videoViewTypes)
	m.Conversions, m.ConversionsByType = Conversions(raw.Actions)

	// taxas ausentes são derivadas dos totais
	if m.CTR == 0 && m.Impressions > 0 {
		m.CTR = float64(m.Clicks) / float64(m.Impressions) * 100
	}
	if m.CPC == 0 && m.Clicks > 0 {
		m.CPC = m.Spend / float64(m.Clicks)
	}
	if m.CPM == 0 && m.Impressions > 0 {
		m.CPM = m.Spend / float64(m.Impressions) * 1000
	}
	if m.Frequency == 0 && m.Reach > 0 {
		m.Frequency = float64(m.Impressions) / float64(m.Reach)
	}
	return m
}
