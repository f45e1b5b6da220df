package googledomain

import (
	"bytes"
	"strconv"
)

// Int64 do Google Ads chega como string no JSON
type Int64 string

func (n *Int64) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}
	*n = Int64(data)
	return nil
}

func (n Int64) Value() (int64, error) {
	if n == "" {
		return 0, nil
	}
	return strconv.ParseInt(string(n), 10, 64)
}

type Customer struct {
	ID              Int64  `json:"id"`
	DescriptiveName string `json:"descriptiveName"`
	CurrencyCode    string `json:"currencyCode"`
	TimeZone        string `json:"timeZone"`
	Status          string `json:"status"`
	Manager         bool   `json:"manager"`
}

type Campaign struct {
	ResourceName           string `json:"resourceName"`
	ID                     Int64  `json:"id"`
	Name                   string `json:"name"`
	Status                 string `json:"status"`
	AdvertisingChannelType string `json:"advertisingChannelType"`
}

type CampaignBudget struct {
	AmountMicros Int64  `json:"amountMicros"`
	Period       string `json:"period"`
}

type AdGroup struct {
	ResourceName string `json:"resourceName"`
	ID           Int64  `json:"id"`
	Name         string `json:"name"`
	Status       string `json:"status"`
	Type         string `json:"type"`
	CpcBidMicros Int64  `json:"cpcBidMicros"`
}

type AdTextAsset struct {
	Text string `json:"text"`
}

type ResponsiveSearchAd struct {
	Headlines    []AdTextAsset `json:"headlines,omitempty"`
	Descriptions []AdTextAsset `json:"descriptions,omitempty"`
}

type ImageAsset struct {
	Asset string `json:"asset"`
}

type ResponsiveDisplayAd struct {
	Headlines       []AdTextAsset `json:"headlines,omitempty"`
	Descriptions    []AdTextAsset `json:"descriptions,omitempty"`
	MarketingImages []ImageAsset  `json:"marketingImages,omitempty"`
}

type VideoAdAsset struct {
	Asset string `json:"asset"`
}

type VideoAd struct {
	Video *VideoAdAsset `json:"video,omitempty"`
}

type Ad struct {
	ID                  Int64                `json:"id"`
	Name                string               `json:"name"`
	Type                string               `json:"type"`
	FinalURLs           []string             `json:"finalUrls,omitempty"`
	ResponsiveSearchAd  *ResponsiveSearchAd  `json:"responsiveSearchAd,omitempty"`
	ResponsiveDisplayAd *ResponsiveDisplayAd `json:"responsiveDisplayAd,omitempty"`
	VideoAd             *VideoAd             `json:"videoAd,omitempty"`
}

type AdGroupAd struct {
	Status string `json:"status"`
	Ad     Ad     `json:"ad"`
}

type Metrics struct {
	Impressions       Int64   `json:"impressions"`
	Clicks            Int64   `json:"clicks"`
	CostMicros        Int64   `json:"costMicros"`
	Ctr               float64 `json:"ctr"`
	AverageCpc        float64 `json:"averageCpc"`
	AverageCpm        float64 `json:"averageCpm"`
	Conversions       float64 `json:"conversions"`
	VideoViews        Int64   `json:"videoViews"`
	VideoQuartileP25  float64 `json:"videoQuartileP25Rate"`
	VideoQuartileP50  float64 `json:"videoQuartileP50Rate"`
	VideoQuartileP75  float64 `json:"videoQuartileP75Rate"`
	VideoQuartileP100 float64 `json:"videoQuartileP100Rate"`
}

type Segments struct {
	Date string `json:"date,omitempty"`
	Week string `json:"week,omitempty"`
}

// Row é uma linha de resultado do googleAds:search
type Row struct {
	Customer       *Customer       `json:"customer,omitempty"`
	Campaign       *Campaign       `json:"campaign,omitempty"`
	CampaignBudget *CampaignBudget `json:"campaignBudget,omitempty"`
	AdGroup        *AdGroup        `json:"adGroup,omitempty"`
	AdGroupAd      *AdGroupAd      `json:"adGroupAd,omitempty"`
	Metrics        *Metrics        `json:"metrics,omitempty"`
	Segments       *Segments       `json:"segments,omitempty"`
}
