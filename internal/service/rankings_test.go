package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankings_Years(t *testing.T) {
	rankings := NewRankingsService(testDataset())
	assert.Equal(t, []int{2025, 2024, 2023}, rankings.Years())
}

func TestRankings_ByYear(t *testing.T) {
	rankings := NewRankingsService(testDataset())

	categories := rankings.ByYear(2024)
	require.Len(t, categories, 2)

	assert.Equal(t, "Best Minivan", categories[0].Category)
	assert.Equal(t, DefaultCategoryIcon, categories[0].Icon)

	sedans := categories[1]
	assert.Equal(t, "Best Sedan", sedans.Category)
	assert.Equal(t, "🚗", sedans.Icon)
	require.Len(t, sedans.Entries, 2)
	assert.Equal(t, 1, sedans.Entries[0].Rank)
	assert.Equal(t, "Accord", sedans.Entries[0].Model)
	require.NotNil(t, sedans.Entries[0].Source)
	assert.Equal(t, "MotorTrend", *sedans.Entries[0].Source)
	assert.Equal(t, "Camry", sedans.Entries[1].Model)

	assert.Empty(t, rankings.ByYear(1990))
}

func TestRankings_ByYearDoesNotMutateDataset(t *testing.T) {
	ds := testDataset()
	NewRankingsService(ds).ByYear(2024)
	assert.Equal(t, "2024 2024 Camry", ds.Rankings()[0].Model)
}

func TestCategoryIcon(t *testing.T) {
	assert.Equal(t, "⚡", CategoryIcon("Best Electric Vehicle"))
	assert.Equal(t, "🏁", CategoryIcon("Best Compact Car"))
	assert.Equal(t, "🚘", CategoryIcon("Best Wagon"))
}

func TestRankings_LastUpdated(t *testing.T) {
	assert.Equal(t, "Data Last updated: 2025-01-15", NewRankingsService(testDataset()).LastUpdated())
}
