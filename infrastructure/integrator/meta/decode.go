package meta

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	metadomain "github.com/vfg2006/ads-sync-api/infrastructure/integrator/meta/domain"
	"github.com/vfg2006/ads-sync-api/internal/domain"
)

var errMissingID = errors.New("payload sem id")

var accountStatuses = map[int]domain.AdAccountStatus{
	1:   domain.AdAccountStatusActive,
	2:   domain.AdAccountStatusDisabled,
	3:   domain.AdAccountStatusUnsettled,
	7:   domain.AdAccountStatusPending,
	8:   domain.AdAccountStatusPending,
	9:   domain.AdAccountStatusActive,
	100: domain.AdAccountStatusPending,
	101: domain.AdAccountStatusClosed,
}

func entityStatus(s string) domain.EntityStatus {
	switch strings.ToUpper(s) {
	case "ACTIVE":
		return domain.EntityStatusActive
	case "PAUSED":
		return domain.EntityStatusPaused
	case "ARCHIVED":
		return domain.EntityStatusArchived
	case "DELETED":
		return domain.EntityStatusDeleted
	}
	return domain.EntityStatusUnknown
}

func decode(op string, raw json.RawMessage, v any) (domain.JSONMap, error) {
	if err := codec.Unmarshal(raw, v); err != nil {
		return nil, domain.NewValidationError(op, err)
	}
	metadata := domain.JSONMap{}
	if err := codec.Unmarshal(raw, &metadata); err != nil {
		return nil, domain.NewValidationError(op, err)
	}
	return metadata, nil
}

func (s *MetaIntegrator) DecodeAccount(raw json.RawMessage) (*domain.AdAccount, error) {
	var acc metadomain.AdAccount
	metadata, err := decode("meta.account", raw, &acc)
	if err != nil {
		return nil, err
	}

	externalID := acc.AccountID
	if externalID == "" {
		externalID = strings.TrimPrefix(acc.ID, "act_")
	}
	if externalID == "" {
		return nil, domain.NewValidationError("meta.account", errMissingID)
	}

	status, ok := accountStatuses[acc.AccountStatus]
	if !ok {
		status = domain.AdAccountStatusUnknown
	}

	return &domain.AdAccount{
		Provider:   domain.ProviderMeta,
		ExternalID: externalID,
		Name:       acc.Name,
		Currency:   strings.ToUpper(acc.Currency),
		Timezone:   acc.TimezoneName,
		Status:     status,
		Metadata:   metadata,
	}, nil
}

func (s *MetaIntegrator) DecodeCampaign(raw json.RawMessage) (*domain.Campaign, error) {
	var c metadomain.Campaign
	metadata, err := decode("meta.campaign", raw, &c)
	if err != nil {
		return nil, err
	}
	if c.ID == "" {
		return nil, domain.NewValidationError("meta.campaign", errMissingID)
	}

	budget, err := budgetFromCents(c.DailyBudget, c.LifetimeBudget)
	if err != nil {
		return nil, domain.NewValidationError("meta.campaign", err)
	}

	return &domain.Campaign{
		Provider:   domain.ProviderMeta,
		ExternalID: c.ID,
		Name:       c.Name,
		Status:     entityStatus(c.Status),
		Objective:  c.Objective,
		Channel:    domain.ClassifyCampaignChannel(domain.ProviderMeta, ""),
		Budget:     budget,
		Metadata:   metadata,
	}, nil
}

func (s *MetaIntegrator) DecodeAdGroup(raw json.RawMessage) (*domain.AdGroup, error) {
	var a metadomain.AdSet
	metadata, err := decode("meta.adset", raw, &a)
	if err != nil {
		return nil, err
	}
	if a.ID == "" || a.CampaignID == "" {
		return nil, domain.NewValidationError("meta.adset", errMissingID)
	}

	budget, err := budgetFromCents(a.DailyBudget, a.LifetimeBudget)
	if err != nil {
		return nil, domain.NewValidationError("meta.adset", err)
	}

	targeting := toTargeting(a.Targeting)
	var platforms []string
	if targeting != nil {
		platforms = targeting.Platforms
	}

	return &domain.AdGroup{
		Provider:           domain.ProviderMeta,
		ExternalID:         a.ID,
		CampaignExternalID: a.CampaignID,
		Name:               a.Name,
		Status:             entityStatus(a.Status),
		Channel:            domain.ClassifyAdGroupChannel(platforms),
		Budget:             budget,
		Targeting:          targeting,
		Metadata:           metadata,
	}, nil
}

func (s *MetaIntegrator) DecodeAd(raw json.RawMessage) (*domain.Ad, error) {
	var a metadomain.Ad
	metadata, err := decode("meta.ad", raw, &a)
	if err != nil {
		return nil, err
	}

	adSetID := a.AdSetID
	if adSetID == "" && a.AdSet != nil {
		adSetID = a.AdSet.ID
	}
	if a.ID == "" || adSetID == "" {
		return nil, domain.NewValidationError("meta.ad", errMissingID)
	}

	var platforms []string
	if a.AdSet != nil && a.AdSet.Targeting != nil {
		platforms = a.AdSet.Targeting.PublisherPlatforms
	}

	return &domain.Ad{
		Provider:          domain.ProviderMeta,
		ExternalID:        a.ID,
		AdGroupExternalID: adSetID,
		Name:              a.Name,
		Status:            entityStatus(a.Status),
		Channel:           domain.ClassifyAdChannel(platforms),
		Creative:          toCreative(a.Creative),
		Metadata:          metadata,
	}, nil
}

func (s *MetaIntegrator) DecodeInsight(raw json.RawMessage) (*domain.RawInsight, error) {
	var in metadomain.Insight
	if err := codec.Unmarshal(raw, &in); err != nil {
		return nil, domain.NewValidationError("meta.insight", err)
	}

	out := &domain.RawInsight{
		Actions:           toActions(in.Actions),
		VideoP25:          toActions(in.VideoP25),
		VideoP50:          toActions(in.VideoP50),
		VideoP75:          toActions(in.VideoP75),
		VideoP95:          toActions(in.VideoP95),
		VideoP100:         toActions(in.VideoP100),
		QualityRanking:    in.QualityRanking,
		EngagementRanking: in.EngagementRanking,
		ConversionRanking: in.ConversionRanking,
	}

	switch {
	case in.AdID != "":
		out.EntityType, out.EntityExternalID = domain.EntityTypeAd, in.AdID
	case in.AdSetID != "":
		out.EntityType, out.EntityExternalID = domain.EntityTypeAdGroup, in.AdSetID
	case in.CampaignID != "":
		out.EntityType, out.EntityExternalID = domain.EntityTypeCampaign, in.CampaignID
	case in.AccountID != "":
		out.EntityType, out.EntityExternalID = domain.EntityTypeAccount, in.AccountID
	default:
		return nil, domain.NewValidationError("meta.insight", errMissingID)
	}

	date, err := time.Parse(time.DateOnly, in.DateStart)
	if err != nil {
		return nil, domain.NewValidationError("meta.insight", fmt.Errorf("date_start inválido: %w", err))
	}
	out.Date = date

	var errs []error
	ints := []struct {
		n   metadomain.Number
		dst *int64
	}{
		{in.Impressions, &out.Impressions},
		{in.Reach, &out.Reach},
		{in.Clicks, &out.Clicks},
	}
	for _, f := range ints {
		v, err := f.n.Int64()
		errs = append(errs, err)
		*f.dst = v
	}
	floats := []struct {
		n   metadomain.Number
		dst *float64
	}{
		{in.Spend, &out.Spend},
		{in.CTR, &out.CTR},
		{in.CPC, &out.CPC},
		{in.CPM, &out.CPM},
		{in.Frequency, &out.Frequency},
	}
	for _, f := range floats {
		v, err := f.n.Float64()
		errs = append(errs, err)
		*f.dst = v
	}
	if err := errors.Join(errs...); err != nil {
		return nil, domain.NewValidationError("meta.insight", err)
	}

	return out, nil
}

// budgetFromCents: o Meta devolve orçamento em centavos; diário tem prioridade sobre vitalício
func budgetFromCents(daily, lifetime metadomain.Number) (*domain.Budget, error) {
	period := "daily"
	n := daily
	if !n.IsSet() || n == "0" {
		n, period = lifetime, "lifetime"
	}
	if !n.IsSet() || n == "0" {
		return nil, nil
	}

	cents, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("orçamento inválido %q: %w", n, err)
	}
	return &domain.Budget{Amount: cents / 100, Period: period}, nil
}

var genders = map[int]string{1: "male", 2: "female"}

func toTargeting(t *metadomain.Targeting) *domain.Targeting {
	if t == nil {
		return nil
	}

	out := &domain.Targeting{
		AgeMin:    t.AgeMin,
		AgeMax:    t.AgeMax,
		Platforms: t.PublisherPlatforms,
	}
	for _, g := range t.Genders {
		if name, ok := genders[g]; ok {
			out.Genders = append(out.Genders, name)
		}
	}
	if geo := t.GeoLocations; geo != nil {
		out.Countries = geo.Countries
		for _, r := range geo.Regions {
			out.Regions = append(out.Regions, firstNonEmpty(r.Name, r.Key))
		}
		for _, c := range geo.Cities {
			out.Cities = append(out.Cities, firstNonEmpty(c.Name, c.Key))
		}
	}
	for _, i := range t.Interests {
		out.Interests = append(out.Interests, i.Name)
	}
	for _, spec := range t.FlexibleSpec {
		for _, i := range spec.Interests {
			out.Interests = append(out.Interests, i.Name)
		}
	}
	for _, p := range t.FacebookPositions {
		out.Placements = append(out.Placements, "facebook_"+p)
	}
	for _, p := range t.InstagramPositions {
		out.Placements = append(out.Placements, "instagram_"+p)
	}
	return out
}

func toCreative(c *metadomain.Creative) *domain.Creative {
	if c == nil {
		return nil
	}

	out := &domain.Creative{
		ExternalID:   c.ID,
		Title:        c.Title,
		Body:         c.Body,
		CallToAction: c.CallToActionType,
		ImageURL:     c.ImageURL,
		VideoID:      c.VideoID,
	}

	var link *metadomain.LinkData
	var video *metadomain.VideoData
	if spec := c.ObjectStorySpec; spec != nil {
		link, video = spec.LinkData, spec.VideoData
	}

	switch {
	case link != nil && len(link.ChildAttachments) > 0:
		out.Type = domain.CreativeTypeCarousel
		out.LinkURL = link.Link
		for _, child := range link.ChildAttachments {
			asset := domain.CreativeAsset{Type: "image", URL: firstNonEmpty(child.Picture, child.Link), Hash: child.ImageHash, Text: child.Name}
			if child.VideoID != "" {
				asset.Type = "video"
			}
			out.Assets = append(out.Assets, asset)
		}
	case c.AssetFeedSpec != nil && len(c.AssetFeedSpec.Images)+len(c.AssetFeedSpec.Videos) > 1:
		out.Type = domain.CreativeTypeCarousel
		for _, img := range c.AssetFeedSpec.Images {
			out.Assets = append(out.Assets, domain.CreativeAsset{Type: "image", URL: img.URL, Hash: img.Hash})
		}
		for _, v := range c.AssetFeedSpec.Videos {
			out.Assets = append(out.Assets, domain.CreativeAsset{Type: "video", Hash: v.VideoID})
		}
	case video != nil || c.VideoID != "":
		out.Type = domain.CreativeTypeVideo
		if video != nil {
			out.VideoID = firstNonEmpty(out.VideoID, video.VideoID)
			out.Body = firstNonEmpty(out.Body, video.Message)
			out.Title = firstNonEmpty(out.Title, video.Title)
			out.ImageURL = firstNonEmpty(out.ImageURL, video.ImageURL)
		}
	case c.ImageURL != "" || c.ImageHash != "" || (link != nil && (link.Picture != "" || link.ImageHash != "")):
		out.Type = domain.CreativeTypeImage
		if link != nil {
			out.ImageURL = firstNonEmpty(out.ImageURL, link.Picture)
		}
	case c.Body != "" || c.Title != "":
		out.Type = domain.CreativeTypeText
	default:
		out.Type = domain.CreativeTypeUnknown
	}

	if link != nil {
		out.LinkURL = firstNonEmpty(out.LinkURL, link.Link)
		out.Body = firstNonEmpty(out.Body, link.Message)
		out.Title = firstNonEmpty(out.Title, link.Name)
	}

	return out
}

func toActions(in []metadomain.Action) []domain.Action {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.Action, len(in))
	for i, a := range in {
		out[i] = domain.Action{Type: a.ActionType, Value: a.Value}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
