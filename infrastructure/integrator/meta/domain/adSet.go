package metadomain

type GeoKey struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

type GeoLocations struct {
	Countries []string `json:"countries,omitempty"`
	Regions   []GeoKey `json:"regions,omitempty"`
	Cities    []GeoKey `json:"cities,omitempty"`
}

type Interest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type FlexibleSpec struct {
	Interests []Interest `json:"interests,omitempty"`
}

type Targeting struct {
	AgeMin             int            `json:"age_min,omitempty"`
	AgeMax             int            `json:"age_max,omitempty"`
	Genders            []int          `json:"genders,omitempty"`
	GeoLocations       *GeoLocations  `json:"geo_locations,omitempty"`
	Interests          []Interest     `json:"interests,omitempty"`
	FlexibleSpec       []FlexibleSpec `json:"flexible_spec,omitempty"`
	PublisherPlatforms []string       `json:"publisher_platforms,omitempty"`
	FacebookPositions  []string       `json:"facebook_positions,omitempty"`
	InstagramPositions []string       `json:"instagram_positions,omitempty"`
}

type AdSet struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Status           string     `json:"status"`
	CampaignID       string     `json:"campaign_id"`
	DailyBudget      Number     `json:"daily_budget,omitempty"`
	LifetimeBudget   Number     `json:"lifetime_budget,omitempty"`
	OptimizationGoal string     `json:"optimization_goal,omitempty"`
	Targeting        *Targeting `json:"targeting,omitempty"`
}

const AdSetFields = "id,name,status,campaign_id,daily_budget,lifetime_budget,optimization_goal,billing_event,targeting"
