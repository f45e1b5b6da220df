package metadomain

type Cursors struct {
	Before string `json:"before"`
	After  string `json:"after"`
}

type Paging struct {
	Cursors Cursors `json:"cursors"`
	Next    string  `json:"next,omitempty"`
}

// Budget em centavos da moeda da conta, como string
type Campaign struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Status         string `json:"status"`
	Objective      string `json:"objective"`
	DailyBudget    Number `json:"daily_budget,omitempty"`
	LifetimeBudget Number `json:"lifetime_budget,omitempty"`
}

const CampaignFields = "id,name,status,effective_status,objective,buying_type,daily_budget,lifetime_budget,start_time,stop_time"
