package metadomain

import (
	"bytes"
	"strconv"
)

// Number aceita número JSON ou string numérica, como o Graph API devolve
type Number string

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}
	*n = Number(data)
	return nil
}

func (n Number) Float64() (float64, error) {
	if n == "" {
		return 0, nil
	}
	return strconv.ParseFloat(string(n), 64)
}

func (n Number) Int64() (int64, error) {
	f, err := n.Float64()
	return int64(f), err
}

func (n Number) IsSet() bool {
	return n != ""
}

type Action struct {
	ActionType string `json:"action_type"`
	Value      string `json:"value"`
}

type Insight struct {
	AccountID         string   `json:"account_id,omitempty"`
	CampaignID        string   `json:"campaign_id,omitempty"`
	AdSetID           string   `json:"adset_id,omitempty"`
	AdID              string   `json:"ad_id,omitempty"`
	DateStart         string   `json:"date_start"`
	DateStop          string   `json:"date_stop"`
	Impressions       Number   `json:"impressions"`
	Reach             Number   `json:"reach"`
	Clicks            Number   `json:"clicks"`
	Spend             Number   `json:"spend"`
	CTR               Number   `json:"ctr"`
	CPC               Number   `json:"cpc"`
	CPM               Number   `json:"cpm"`
	Frequency         Number   `json:"frequency"`
	Actions           []Action `json:"actions,omitempty"`
	VideoP25          []Action `json:"video_p25_watched_actions,omitempty"`
	VideoP50          []Action `json:"video_p50_watched_actions,omitempty"`
	VideoP75          []Action `json:"video_p75_watched_actions,omitempty"`
	VideoP95          []Action `json:"video_p95_watched_actions,omitempty"`
	VideoP100         []Action `json:"video_p100_watched_actions,omitempty"`
	QualityRanking    string   `json:"quality_ranking,omitempty"`
	EngagementRanking string   `json:"engagement_rate_ranking,omitempty"`
	ConversionRanking string   `json:"conversion_rate_ranking,omitempty"`
}

const InsightMetricFields = "date_start,date_stop,impressions,reach,clicks,spend,ctr,cpc,cpm,frequency,actions," +
	"video_p25_watched_actions,video_p50_watched_actions,video_p75_watched_actions,video_p95_watched_actions," +
	"video_p100_watched_actions,quality_ranking,engagement_rate_ranking,conversion_rate_ranking"

// LevelIDField é o campo de id pedido para cada nível de insights
var LevelIDField = map[string]string{
	"account":  "account_id",
	"campaign": "campaign_id",
	"adset":    "adset_id",
	"ad":       "ad_id",
}
