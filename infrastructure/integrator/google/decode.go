package google

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	googledomain "github.com/vfg2006/ads-sync-api/infrastructure/integrator/google/domain"
	"github.com/vfg2006/ads-sync-api/internal/domain"
)

var errMissingID = errors.New("linha sem id")

const micros = 1e6

var accountStatuses = map[string]domain.AdAccountStatus{
	"ENABLED":   domain.AdAccountStatusActive,
	"SUSPENDED": domain.AdAccountStatusDisabled,
	"CANCELED":  domain.AdAccountStatusClosed,
	"CLOSED":    domain.AdAccountStatusClosed,
}

func entityStatus(s string) domain.EntityStatus {
	switch strings.ToUpper(s) {
	case "ENABLED":
		return domain.EntityStatusActive
	case "PAUSED":
		return domain.EntityStatusPaused
	case "REMOVED":
		return domain.EntityStatusRemoved
	}
	return domain.EntityStatusUnknown
}

func isManager(raw json.RawMessage) bool {
	var row googledomain.Row
	if err := codec.Unmarshal(raw, &row); err != nil {
		return false
	}
	return row.Customer != nil && row.Customer.Manager
}

func decodeRow(op string, raw json.RawMessage) (*googledomain.Row, domain.JSONMap, error) {
	var row googledomain.Row
	if err := codec.Unmarshal(raw, &row); err != nil {
		return nil, nil, domain.NewValidationError(op, err)
	}
	metadata := domain.JSONMap{}
	if err := codec.Unmarshal(raw, &metadata); err != nil {
		return nil, nil, domain.NewValidationError(op, err)
	}
	return &row, metadata, nil
}

func (s *GoogleIntegrator) DecodeAccount(raw json.RawMessage) (*domain.AdAccount, error) {
	row, metadata, err := decodeRow("google.account", raw)
	if err != nil {
		return nil, err
	}
	if row.Customer == nil || row.Customer.ID == "" {
		return nil, domain.NewValidationError("google.account", errMissingID)
	}

	status, ok := accountStatuses[strings.ToUpper(row.Customer.Status)]
	if !ok {
		status = domain.AdAccountStatusUnknown
	}

	return &domain.AdAccount{
		Provider:   domain.ProviderGoogle,
		ExternalID: string(row.Customer.ID),
		Name:       row.Customer.DescriptiveName,
		Currency:   strings.ToUpper(row.Customer.CurrencyCode),
		Timezone:   row.Customer.TimeZone,
		Status:     status,
		Metadata:   metadata,
	}, nil
}

func (s *GoogleIntegrator) DecodeCampaign(raw json.RawMessage) (*domain.Campaign, error) {
	row, metadata, err := decodeRow("google.campaign", raw)
	if err != nil {
		return nil, err
	}
	c := row.Campaign
	if c == nil || c.ID == "" {
		return nil, domain.NewValidationError("google.campaign", errMissingID)
	}

	budget, err := budgetFromMicros(row.CampaignBudget)
	if err != nil {
		return nil, domain.NewValidationError("google.campaign", err)
	}

	return &domain.Campaign{
		Provider:   domain.ProviderGoogle,
		ExternalID: string(c.ID),
		Name:       c.Name,
		Status:     entityStatus(c.Status),
		Objective:  c.AdvertisingChannelType,
		Channel:    domain.ClassifyCampaignChannel(domain.ProviderGoogle, c.AdvertisingChannelType),
		Budget:     budget,
		Metadata:   metadata,
	}, nil
}

// DecodeAdGroup: no Google o orçamento fica na campanha, o grupo sai sem Budget
func (s *GoogleIntegrator) DecodeAdGroup(raw json.RawMessage) (*domain.AdGroup, error) {
	row, metadata, err := decodeRow("google.ad_group", raw)
	if err != nil {
		return nil, err
	}
	g := row.AdGroup
	if g == nil || g.ID == "" || row.Campaign == nil || row.Campaign.ID == "" {
		return nil, domain.NewValidationError("google.ad_group", errMissingID)
	}

	return &domain.AdGroup{
		Provider:           domain.ProviderGoogle,
		ExternalID:         string(g.ID),
		CampaignExternalID: string(row.Campaign.ID),
		Name:               g.Name,
		Status:             entityStatus(g.Status),
		Channel:            domain.ClassifyGoogleChannel(row.Campaign.AdvertisingChannelType),
		Metadata:           metadata,
	}, nil
}

func (s *GoogleIntegrator) DecodeAd(raw json.RawMessage) (*domain.Ad, error) {
	row, metadata, err := decodeRow("google.ad", raw)
	if err != nil {
		return nil, err
	}
	if row.AdGroupAd == nil || row.AdGroupAd.Ad.ID == "" || row.AdGroup == nil || row.AdGroup.ID == "" {
		return nil, domain.NewValidationError("google.ad", errMissingID)
	}

	var channelType string
	if row.Campaign != nil {
		channelType = row.Campaign.AdvertisingChannelType
	}
	ad := row.AdGroupAd.Ad

	return &domain.Ad{
		Provider:          domain.ProviderGoogle,
		ExternalID:        string(ad.ID),
		AdGroupExternalID: string(row.AdGroup.ID),
		Name:              ad.Name,
		Status:            entityStatus(row.AdGroupAd.Status),
		Channel:           domain.ClassifyGoogleChannel(channelType),
		Creative:          toCreative(ad),
		Metadata:          metadata,
	}, nil
}

// DecodeInsight converte micros para a moeda da conta e ctr de fração para percentual
func (s *GoogleIntegrator) DecodeInsight(raw json.RawMessage) (*domain.RawInsight, error) {
	var row googledomain.Row
	if err := codec.Unmarshal(raw, &row); err != nil {
		return nil, domain.NewValidationError("google.insight", err)
	}

	out := &domain.RawInsight{}
	switch {
	case row.AdGroupAd != nil && row.AdGroupAd.Ad.ID != "":
		out.EntityType, out.EntityExternalID = domain.EntityTypeAd, string(row.AdGroupAd.Ad.ID)
	case row.AdGroup != nil && row.AdGroup.ID != "":
		out.EntityType, out.EntityExternalID = domain.EntityTypeAdGroup, string(row.AdGroup.ID)
	case row.Campaign != nil && row.Campaign.ID != "":
		out.EntityType, out.EntityExternalID = domain.EntityTypeCampaign, string(row.Campaign.ID)
	case row.Customer != nil && row.Customer.ID != "":
		out.EntityType, out.EntityExternalID = domain.EntityTypeAccount, string(row.Customer.ID)
	default:
		return nil, domain.NewValidationError("google.insight", errMissingID)
	}

	if row.Segments == nil {
		return nil, domain.NewValidationError("google.insight", errors.New("linha sem segments"))
	}
	day := row.Segments.Date
	if day == "" {
		day = row.Segments.Week
	}
	date, err := time.Parse(time.DateOnly, day)
	if err != nil {
		return nil, domain.NewValidationError("google.insight", fmt.Errorf("data inválida %q: %w", day, err))
	}
	out.Date = date

	if m := row.Metrics; m != nil {
		if err := fillMetrics(out, m); err != nil {
			return nil, domain.NewValidationError("google.insight", err)
		}
	}
	return out, nil
}

func fillMetrics(out *domain.RawInsight, m *googledomain.Metrics) error {
	impressions, err := m.Impressions.Value()
	if err != nil {
		return err
	}
	clicks, err := m.Clicks.Value()
	if err != nil {
		return err
	}
	cost, err := m.CostMicros.Value()
	if err != nil {
		return err
	}
	views, err := m.VideoViews.Value()
	if err != nil {
		return err
	}

	out.Impressions = impressions
	out.Clicks = clicks
	out.Spend = float64(cost) / micros
	out.CTR = m.Ctr * 100
	out.CPC = m.AverageCpc / micros
	out.CPM = m.AverageCpm / micros

	if m.Conversions > 0 {
		out.Actions = append(out.Actions, action("conversion", m.Conversions))
	}
	if views > 0 {
		v := float64(views)
		out.Actions = append(out.Actions, action("video_view", v))
		out.VideoP25 = []domain.Action{action("video_view", m.VideoQuartileP25*v)}
		out.VideoP50 = []domain.Action{action("video_view", m.VideoQuartileP50*v)}
		out.VideoP75 = []domain.Action{action("video_view", m.VideoQuartileP75*v)}
		out.VideoP100 = []domain.Action{action("video_view", m.VideoQuartileP100*v)}
	}
	return nil
}

func action(t string, v float64) domain.Action {
	return domain.Action{Type: t, Value: strconv.FormatFloat(v, 'f', -1, 64)}
}

func budgetFromMicros(b *googledomain.CampaignBudget) (*domain.Budget, error) {
	if b == nil || b.AmountMicros == "" {
		return nil, nil
	}
	amount, err := b.AmountMicros.Value()
	if err != nil {
		return nil, fmt.Errorf("orçamento inválido %q: %w", b.AmountMicros, err)
	}
	if amount == 0 {
		return nil, nil
	}

	period := strings.ToLower(b.Period)
	if period == "" {
		period = "daily"
	}
	return &domain.Budget{Amount: float64(amount) / micros, Period: period}, nil
}

func toCreative(ad googledomain.Ad) *domain.Creative {
	c := &domain.Creative{
		ExternalID: string(ad.ID),
		Type:       domain.CreativeTypeUnknown,
	}
	if len(ad.FinalURLs) > 0 {
		c.LinkURL = ad.FinalURLs[0]
	}

	switch {
	case ad.ResponsiveSearchAd != nil:
		c.Type = domain.CreativeTypeText
		c.Title = firstText(ad.ResponsiveSearchAd.Headlines)
		c.Body = firstText(ad.ResponsiveSearchAd.Descriptions)
		c.Assets = textAssets(ad.ResponsiveSearchAd.Headlines, ad.ResponsiveSearchAd.Descriptions)
	case ad.VideoAd != nil && ad.VideoAd.Video != nil:
		c.Type = domain.CreativeTypeVideo
		c.VideoID = ad.VideoAd.Video.Asset
	case ad.ResponsiveDisplayAd != nil:
		c.Type = domain.CreativeTypeImage
		c.Title = firstText(ad.ResponsiveDisplayAd.Headlines)
		c.Body = firstText(ad.ResponsiveDisplayAd.Descriptions)
		for _, img := range ad.ResponsiveDisplayAd.MarketingImages {
			c.Assets = append(c.Assets, domain.CreativeAsset{Type: "image", Hash: img.Asset})
		}
	}
	return c
}

func firstText(assets []googledomain.AdTextAsset) string {
	for _, a := range assets {
		if a.Text != "" {
			return a.Text
		}
	}
	return ""
}

func textAssets(groups ...[]googledomain.AdTextAsset) []domain.CreativeAsset {
	var out []domain.CreativeAsset
	for _, g := range groups {
		for _, a := range g {
			out = append(out, domain.CreativeAsset{Type: "text", Text: a.Text})
		}
	}
	return out
}
