package metadomain

type ChildAttachment struct {
	Link        string `json:"link,omitempty"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	ImageHash   string `json:"image_hash,omitempty"`
	Picture     string `json:"picture,omitempty"`
	VideoID     string `json:"video_id,omitempty"`
}

type LinkData struct {
	Link             string            `json:"link,omitempty"`
	Message          string            `json:"message,omitempty"`
	Name             string            `json:"name,omitempty"`
	ImageHash        string            `json:"image_hash,omitempty"`
	Picture          string            `json:"picture,omitempty"`
	ChildAttachments []ChildAttachment `json:"child_attachments,omitempty"`
}

type VideoData struct {
	VideoID  string `json:"video_id,omitempty"`
	Message  string `json:"message,omitempty"`
	Title    string `json:"title,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

type ObjectStorySpec struct {
	LinkData  *LinkData  `json:"link_data,omitempty"`
	VideoData *VideoData `json:"video_data,omitempty"`
}

type AssetFeedSpec struct {
	Images []struct {
		Hash string `json:"hash,omitempty"`
		URL  string `json:"url,omitempty"`
	} `json:"images,omitempty"`
	Videos []struct {
		VideoID string `json:"video_id,omitempty"`
	} `json:"videos,omitempty"`
}

type Creative struct {
	ID               string           `json:"id"`
	Title            string           `json:"title,omitempty"`
	Body             string           `json:"body,omitempty"`
	ImageURL         string           `json:"image_url,omitempty"`
	ImageHash        string           `json:"image_hash,omitempty"`
	VideoID          string           `json:"video_id,omitempty"`
	CallToActionType string           `json:"call_to_action_type,omitempty"`
	ObjectStorySpec  *ObjectStorySpec `json:"object_story_spec,omitempty"`
	AssetFeedSpec    *AssetFeedSpec   `json:"asset_feed_spec,omitempty"`
}

type AdSetRef struct {
	ID        string     `json:"id"`
	Targeting *Targeting `json:"targeting,omitempty"`
}

type Ad struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Status   string    `json:"status"`
	AdSetID  string    `json:"adset_id"`
	AdSet    *AdSetRef `json:"adset,omitempty"`
	Creative *Creative `json:"creative,omitempty"`
}

const AdFields = "id,name,status,adset_id,adset{id,targeting{publisher_platforms}}," +
	"creative{id,title,body,image_url,image_hash,video_id,call_to_action_type,object_story_spec,asset_feed_spec}"
