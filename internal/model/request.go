package model

// CascadeRequest applies one field change to a selection
type CascadeRequest struct {
	Selection FilterSelection `json:"selection"`
	Field     string          `json:"field" binding:"required,oneof=vehicle_type model_year make vehicle_class model"`
	Value     *string         `json:"value"` // nil or "" clears the field
}

// CascadeOptions are the choices offered at every level of the cascade
type CascadeOptions struct {
	Years   []int    `json:"years"`
	Makes   []string `json:"makes"`
	Classes []string `json:"classes"`
	Models  []string `json:"models"`
}

// CascadeResponse is the selection after a change plus the refreshed options
type CascadeResponse struct {
	Selection FilterSelection `json:"selection"`
	Options   CascadeOptions  `json:"options"`
	Vehicle   *VehicleRecord  `json:"vehicle,omitempty"`
}

// EstimateRequest asks for the annual energy cost of one vehicle
type EstimateRequest struct {
	VehicleType      string   `json:"vehicle_type" binding:"required"`
	Year             string   `json:"year"`
	Make             string   `json:"make"`
	Model            string   `json:"model"`
	CityPercent      *float64 `json:"city_percent" binding:"omitempty,gte=0,lte=100"`
	EnergyPrice      *float64 `json:"energy_price" binding:"omitempty,gte=0"`
	AnnualDistanceKm *float64 `json:"annual_distance_km" binding:"omitempty,gt=0"`
}

// EstimateResponse carries the computed cost and its display line
type EstimateResponse struct {
	AnnualCost       float64 `json:"annual_cost"`
	Message          string  `json:"message"`
	CityRatio        float64 `json:"city_ratio"`
	EnergyPrice      float64 `json:"energy_price"`
	AnnualDistanceKm float64 `json:"annual_distance_km"`
	Unit             string  `json:"unit"`
}

// AdvisoryRequest asks for the summary, price and KPI report of one vehicle
type AdvisoryRequest struct {
	VehicleType string `json:"vehicle_type"`
	Year        string `json:"year"`
	Make        string `json:"make"`
	Model       string `json:"model"`
}

// ChatMessageRequest is one user turn
type ChatMessageRequest struct {
	Text string `json:"text"`
}

// ChatSessionResponse is the visible state of a chat session
type ChatSessionResponse struct {
	SessionID string    `json:"session_id"`
	Messages  []Message `json:"messages"`
}

// ChatTurnResponse is the result of one chat turn
type ChatTurnResponse struct {
	SessionID       string               `json:"session_id"`
	Reply           string               `json:"reply"`
	Status          string               `json:"extraction_status"`
	Recommendations []Recommendation     `json:"recommendations,omitempty"`
	Cards           []RecommendationCard `json:"cards,omitempty"`
	Messages        []Message            `json:"messages"`
}

// MetaResponse describes the loaded dataset
type MetaResponse struct {
	LastUpdated  string        `json:"last_updated"`
	VehicleTypes []VehicleType `json:"vehicle_types"`
}
