package service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carintel/internal/apperr"
)

func TestExtractRecommendations(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		status ExtractionStatus
		count  int
	}{
		{
			name:   "json inside prose",
			text:   `Here you go: {"recommendations": [{"rank":1,"model":"Civic"}]} thanks`,
			status: ExtractionOK,
			count:  1,
		},
		{
			name:   "plain text",
			text:   "What is your budget?",
			status: ExtractionFailed,
		},
		{
			name:   "empty list",
			text:   `{"recommendations": []}`,
			status: ExtractionEmpty,
		},
		{
			name:   "missing key",
			text:   `{"answer": "hello"}`,
			status: ExtractionEmpty,
		},
		{
			name:   "recommendations not a list",
			text:   `{"recommendations": "soon"}`,
			status: ExtractionEmpty,
		},
		{
			name:   "stray brace breaks the span",
			text:   `Use {braces} carefully: {"recommendations": [{"rank": 1}]}`,
			status: ExtractionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext := ExtractRecommendations(tt.text)
			assert.Equal(t, tt.status, ext.Status)
			assert.Len(t, ext.Recommendations, tt.count)
			if tt.status == ExtractionFailed {
				assert.True(t, apperr.IsParseError(ext.Err))
			}
		})
	}
}

func TestExtractRecommendations_CapsAtFive(t *testing.T) {
	entries := make([]string, 0, 8)
	for i := 1; i <= 8; i++ {
		entries = append(entries, fmt.Sprintf(`{"rank": %d, "model": "Car %d"}`, i, i))
	}
	text := `{"recommendations": [` + strings.Join(entries, ",") + `]}`

	ext := ExtractRecommendations(text)
	require.Equal(t, ExtractionOK, ext.Status)
	require.Len(t, ext.Recommendations, MaxRecommendations)
	for i, rec := range ext.Recommendations {
		assert.Equal(t, i+1, rec.Rank)
	}
}

func TestExtractRecommendations_Fields(t *testing.T) {
	text := "```json\n" + `{
  "recommendations": [
    {
      "rank": "#2",
      "model": "Toyota RAV4 Hybrid",
      "manufacturer": "Toyota",
      "year": 2025,
      "category": "SUV",
      "fuel_type": "Hybrid Gasoline",
      "price_range": "New: $38,000–$45,000",
      "seats": 5,
      "transmission": "Automatic",
      "engine": "2.5L I4 Hybrid",
      "max_speed": 180,
      "fuel_consumption": "5.8 L/100 km",
      "region_availability": ["North America", "Europe"],
      "rationale": "Reliable family SUV."
    },
    "not an object"
  ]
}` + "\n```"

	ext := ExtractRecommendations(text)
	require.Equal(t, ExtractionOK, ext.Status)
	require.Len(t, ext.Recommendations, 2)

	rec := ext.Recommendations[0]
	assert.Equal(t, 2, rec.Rank, "authored rank is kept")
	assert.Equal(t, "Toyota RAV4 Hybrid", rec.Model)
	assert.Equal(t, 2025, rec.Year)
	assert.Equal(t, 5, rec.Seats)
	assert.Equal(t, "180", rec.MaxSpeed)
	assert.Equal(t, []string{"North America", "Europe"}, rec.RegionAvailability)

	card := rec.Card()
	assert.Equal(t, "North America, Europe", card.Regions)

	placeholder := ext.Recommendations[1].Card()
	assert.Equal(t, "Unknown ()", placeholder.Title)
	assert.Equal(t, "#-", placeholder.Rank)
}
