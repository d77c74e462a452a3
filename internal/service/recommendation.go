package service

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"carintel/internal/apperr"
	"carintel/internal/model"
	"carintel/internal/utils"
)

// MaxRecommendations caps how many entries one reply may contribute
const MaxRecommendations = 5

// ExtractionStatus classifies an assistant reply
type ExtractionStatus string

const (
	// ExtractionOK means at least one recommendation was found
	ExtractionOK ExtractionStatus = "recommendations"
	// ExtractionEmpty means the JSON parsed but held no recommendations
	ExtractionEmpty ExtractionStatus = "empty"
	// ExtractionFailed means no parsable JSON object was found; the reply is plain text
	ExtractionFailed ExtractionStatus = "failed"
)

// Extraction is the outcome of scanning one reply
type Extraction struct {
	Status          ExtractionStatus
	Recommendations []model.Recommendation
	Err             error
}

// ExtractRecommendations pulls up to MaxRecommendations entries out of a model reply.
// The JSON span runs from the first '{' to the last '}'. Entries keep document
// order and their authored rank; unreadable fields are left empty.
func ExtractRecommendations(text string) Extraction {
	span, err := utils.ExtractGreedyObject(text)
	if err != nil {
		return Extraction{Status: ExtractionFailed, Err: apperr.ParseError(err, "no recommendation JSON in reply")}
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(span), &obj); err != nil {
		return Extraction{Status: ExtractionFailed, Err: apperr.ParseError(err, "invalid recommendation JSON")}
	}

	list, ok := obj["recommendations"].([]any)
	if !ok || len(list) == 0 {
		return Extraction{Status: ExtractionEmpty}
	}

	if len(list) > MaxRecommendations {
		list = list[:MaxRecommendations]
	}
	recs := make([]model.Recommendation, 0, len(list))
	for _, item := range list {
		entry, _ := item.(map[string]any)
		recs = append(recs, readRecommendation(entry))
	}
	return Extraction{Status: ExtractionOK, Recommendations: recs}
}

func readRecommendation(m map[string]any) model.Recommendation {
	return model.Recommendation{
		Rank:               asInt(m["rank"]),
		Model:              asText(m["model"]),
		Manufacturer:       asText(m["manufacturer"]),
		Year:               asInt(m["year"]),
		Category:           asText(m["category"]),
		FuelType:           asText(m["fuel_type"]),
		PriceRange:         asText(m["price_range"]),
		Seats:              asInt(m["seats"]),
		Transmission:       asText(m["transmission"]),
		Engine:             asText(m["engine"]),
		MaxSpeed:           asText(m["max_speed"]),
		FuelConsumption:    asText(m["fuel_consumption"]),
		RegionAvailability: asTexts(m["region_availability"]),
		Rationale:          asText(m["rationale"]),
	}
}

func asText(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

func asInt(v any) int {
	switch t := v.(type) {
	case float64:
		if t == math.Trunc(t) {
			return int(t)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(t, "#"))); err == nil {
			return n
		}
	}
	return 0
}

func asTexts(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := asText(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
	}
	return nil
}
