package domain

import "strings"

type Channel string

const (
	ChannelInstagram      Channel = "instagram"
	ChannelFacebook       Channel = "facebook"
	ChannelMessenger      Channel = "messenger"
	ChannelThreads        Channel = "threads"
	ChannelAudienceNet    Channel = "audience_network"
	ChannelMeta           Channel = "meta"
	ChannelGoogleSearch   Channel = "google_search"
	ChannelGoogleDisplay  Channel = "google_display"
	ChannelGoogleShopping Channel = "google_shopping"
	ChannelYouTube        Channel = "youtube"
	ChannelPerformanceMax Channel = "performance_max"
	ChannelGoogle         Channel = "google"
)

// adChannelPriority define a preferência para anúncios: o primeiro canal
// presente nas plataformas vence
var adChannelPriority = []Channel{ChannelInstagram, ChannelFacebook, ChannelMessenger, ChannelThreads, ChannelAudienceNet}

var googleChannelTypes = map[string]Channel{
	"SEARCH":          ChannelGoogleSearch,
	"DISPLAY":         ChannelGoogleDisplay,
	"SHOPPING":        ChannelGoogleShopping,
	"VIDEO":           ChannelYouTube,
	"PERFORMANCE_MAX": ChannelPerformanceMax,
}

func platformSet(platforms []string) map[Channel]bool {
	set := make(map[Channel]bool, len(platforms))
	for _, p := range platforms {
		set[Channel(strings.ToLower(strings.TrimSpace(p)))] = true
	}
	return set
}

// ClassifyAdChannel deriva o canal de um anúncio Meta a partir das plataformas
// de publicação: instagram > facebook > messenger > threads.
func ClassifyAdChannel(platforms []string) Channel {
	set := platformSet(platforms)
	for _, ch := range adChannelPriority {
		if set[ch] {
			return ch
		}
	}
	return ChannelFacebook
}

// ClassifyAdGroupChannel deriva o canal de um ad set Meta. Posicionamentos
// mistos facebook+instagram ficam como facebook.
func ClassifyAdGroupChannel(platforms []string) Channel {
	set := platformSet(platforms)
	if set[ChannelFacebook] && set[ChannelInstagram] {
		return ChannelFacebook
	}
	return ClassifyAdChannel(platforms)
}

// ClassifyGoogleChannel mapeia advertising_channel_type do Google Ads
func ClassifyGoogleChannel(channelType string) Channel {
	if ch, ok := googleChannelTypes[strings.ToUpper(channelType)]; ok {
		return ch
	}
	return ChannelGoogle
}

// ClassifyCampaignChannel: campanhas Meta não têm plataforma própria, ficam como "meta"
func ClassifyCampaignChannel(provider Provider, channelType string) Channel {
	if provider == ProviderGoogle {
		return ClassifyGoogleChannel(channelType)
	}
	return ChannelMeta
}
