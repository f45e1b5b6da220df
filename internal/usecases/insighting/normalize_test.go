package insighting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vfg2006/ads-sync-api/internal/domain"
)

func TestConversions_DedupPixelVariant(t *testing.T) {
	total, byType := Conversions([]domain.Action{
		{Type: "lead", Value: "3"},
		{Type: "offsite_conversion.fb_pixel_lead", Value: "3"},
	})

	assert.Equal(t, 3.0, total)
	assert.Equal(t, map[string]float64{"lead": 3}, byType)
}

func TestConversions_PrefersPrimaryType(t *testing.T) {
	total, byType := Conversions([]domain.Action{
		{Type: "offsite_conversion.fb_pixel_purchase", Value: "7"},
		{Type: "purchase", Value: "5"},
		{Type: "add_to_cart", Value: "2"},
	})

	assert.Equal(t, 7.0, total)
	assert.Equal(t, 5.0, byType["purchase"])
	assert.Equal(t, 2.0, byType["add_to_cart"])
}

func TestConversions_IgnoresUnknownAndInvalid(t *testing.T) {
	total, byType := Conversions([]domain.Action{
		{Type: "link_click", Value: "40"},
		{Type: "lead", Value: "abc"},
	})

	assert.Zero(t, total)
	assert.Nil(t, byType)
}

func TestNormalize(t *testing.T) {
	raw := &domain.RawInsight{
		EntityType:  domain.EntityTypeAd,
		Impressions: 2000,
		Reach:       1000,
		Clicks:      40,
		Spend:       20,
		Actions: []domain.Action{
			{Type: "post_reaction", Value: "9"},
			{Type: "like", Value: "4"},
			{Type: "comment", Value: "2"},
			{Type: "post", Value: "1"},
			{Type: "onsite_conversion.post_save", Value: "3"},
			{Type: "video_view", Value: "100"},
			{Type: "lead", Value: "2"},
		},
		VideoP25:       []domain.Action{{Type: "video_view", Value: "80"}},
		VideoP100:      []domain.Action{{Type: "video_view", Value: "10"}},
		QualityRanking: "ABOVE_AVERAGE",
	}

	m := Normalize(raw)

	assert.Equal(t, 4.0, m.Likes)
	assert.Equal(t, 2.0, m.Comments)
	assert.Equal(t, 1.0, m.Shares)
	assert.Equal(t, 3.0, m.Saves)
	assert.Equal(t, 100.0, m.VideoViews)
	assert.Equal(t, 80.0, m.VideoP25)
	assert.Equal(t, 10.0, m.VideoP100)
	assert.Equal(t, 2.0, m.Conversions)
	assert.Equal(t, "ABOVE_AVERAGE", m.QualityRank)

	t.Run("derived rates", func(t *testing.T) {
		assert.InDelta(t, 2.0, m.CTR, 1e-9)
		assert.InDelta(t, 0.5, m.CPC, 1e-9)
		assert.InDelta(t, 10.0, m.CPM, 1e-9)
		assert.InDelta(t, 2.0, m.Frequency, 1e-9)
	})

	t.Run("upstream rates are kept", func(t *testing.T) {
		raw.CTR = 1.7
		assert.Equal(t, 1.7, Normalize(raw).CTR)
	})
}
