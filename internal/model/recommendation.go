package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Recommendation is one vehicle suggestion extracted from an assistant reply.
// Zero values mean the model left the field out.
type Recommendation struct {
	Rank               int      `json:"rank,omitempty"`
	Model              string   `json:"model,omitempty"`
	Manufacturer       string   `json:"manufacturer,omitempty"`
	Year               int      `json:"year,omitempty"`
	Category           string   `json:"category,omitempty"`
	FuelType           string   `json:"fuel_type,omitempty"`
	PriceRange         string   `json:"price_range,omitempty"`
	Seats              int      `json:"seats,omitempty"`
	Transmission       string   `json:"transmission,omitempty"`
	Engine             string   `json:"engine,omitempty"`
	MaxSpeed           string   `json:"max_speed,omitempty"`
	FuelConsumption    string   `json:"fuel_consumption,omitempty"`
	RegionAvailability []string `json:"region_availability,omitempty"`
	Rationale          string   `json:"rationale,omitempty"`
}

// RecommendationCard is the display form of a Recommendation with placeholders filled in
type RecommendationCard struct {
	Rank         string `json:"rank"`
	Title        string `json:"title"`
	Category     string `json:"category"`
	PriceRange   string `json:"price_range"`
	FuelType     string `json:"fuel_type"`
	Seats        string `json:"seats"`
	Transmission string `json:"transmission"`
	Engine       string `json:"engine"`
	MaxSpeed     string `json:"max_speed"`
	Consumption  string `json:"consumption"`
	Regions      string `json:"regions"`
	Rationale    string `json:"rationale"`
}

// Card renders the recommendation for display
func (r Recommendation) Card() RecommendationCard {
	regions := "N/A"
	if len(r.RegionAvailability) > 0 {
		regions = strings.Join(r.RegionAvailability, ", ")
	}

	year := ""
	if r.Year != 0 {
		year = strconv.Itoa(r.Year)
	}

	return RecommendationCard{
		Rank:         "#" + intOr(r.Rank, "-"),
		Title:        strings.TrimSpace(fmt.Sprintf("%s %s (%s)", year, textOr(r.Model, "Unknown"), r.Manufacturer)),
		Category:     textOr(r.Category, "N/A"),
		PriceRange:   textOr(r.PriceRange, "N/A"),
		FuelType:     textOr(r.FuelType, "-"),
		Seats:        intOr(r.Seats, "-"),
		Transmission: textOr(r.Transmission, "-"),
		Engine:       textOr(r.Engine, "-"),
		MaxSpeed:     textOr(r.MaxSpeed, "-"),
		Consumption:  textOr(r.FuelConsumption, "-"),
		Regions:      regions,
		Rationale:    r.Rationale,
	}
}

func textOr(v, placeholder string) string {
	if strings.TrimSpace(v) == "" {
		return placeholder
	}
	return v
}

func intOr(v int, placeholder string) string {
	if v == 0 {
		return placeholder
	}
	return strconv.Itoa(v)
}
