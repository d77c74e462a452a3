package model

// PriceEstimate holds the two price lines returned for a vehicle
type PriceEstimate struct {
	Retail string `json:"retail_text"`
	Used   string `json:"used_text"`
}

// Context joins both lines for the KPI prompt
func (p PriceEstimate) Context() string {
	return p.Retail + " | " + p.Used
}

// KPIScores are 1-10 ratings with one short explanation per score
type KPIScores struct {
	Performance  float64           `json:"performance"`
	Value        float64           `json:"value"`
	Reliability  float64           `json:"reliability"`
	Eco          float64           `json:"eco"`
	Explanations map[string]string `json:"explanations"`
}

// KPICard is one rendered score
type KPICard struct {
	Key         string  `json:"key"`
	Label       string  `json:"label"`
	Score       float64 `json:"score"`
	Color       string  `json:"color"`
	Explanation string  `json:"explanation"`
}

// EnergyPricing describes the price input offered for a partition
type EnergyPricing struct {
	VehicleType  VehicleType `json:"vehicle_type"`
	Label        string      `json:"label"`
	DefaultNote  string      `json:"default_note"`
	DefaultPrice float64     `json:"default_price"`
	Unit         string      `json:"unit"`
}

// VehicleReport is the result of one "Get Summary" cycle
type VehicleReport struct {
	Title      string        `json:"title"`
	Summary    string        `json:"summary"`
	Price      PriceEstimate `json:"price"`
	KPIs       *KPIScores    `json:"kpis,omitempty"`
	KPICards   []KPICard     `json:"kpi_cards,omitempty"`
	KPIMessage string        `json:"kpi_message,omitempty"`
	Pricing    EnergyPricing `json:"energy_pricing"`
	Degraded   []string      `json:"degraded,omitempty"`
}
