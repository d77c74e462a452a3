package service

import (
	"slices"
	"sort"

	"carintel/internal/model"
	"carintel/internal/repository"
	"carintel/internal/utils"
)

// DefaultCategoryIcon is used for categories without a dedicated icon
const DefaultCategoryIcon = "🚘"

var categoryIcons = map[string]string{
	"Best SUV":              "🚙",
	"Best Sedan":            "🚗",
	"Best Truck":            "🚚",
	"Best Electric Vehicle": "⚡",
	"Best Compact Car":      "🏁",
}

// RankingsService serves the industry rankings and dataset metadata
type RankingsService struct {
	dataset *repository.Dataset
}

// NewRankingsService creates a rankings service
func NewRankingsService(dataset *repository.Dataset) *RankingsService {
	return &RankingsService{dataset: dataset}
}

// Years returns the distinct ranking years, newest first
func (s *RankingsService) Years() []int {
	years := []int{}
	for _, e := range s.dataset.Rankings() {
		if !slices.Contains(years, e.Year) {
			years = append(years, e.Year)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}

// ByYear groups the entries of year by category. Categories are alphabetical
// and entries keep rank order.
func (s *RankingsService) ByYear(year int) []model.RankingCategory {
	groups := make(map[string][]model.RankingEntry)
	for _, e := range s.dataset.Rankings() {
		if e.Year != year {
			continue
		}
		e.Model = utils.CleanModelName(e.Model, e.Year)
		groups[e.Category] = append(groups[e.Category], e)
	}

	categories := make([]model.RankingCategory, 0, len(groups))
	for name, entries := range groups {
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Rank < entries[j].Rank })
		categories = append(categories, model.RankingCategory{
			Category: name,
			Icon:     CategoryIcon(name),
			Entries:  entries,
		})
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Category < categories[j].Category })
	return categories
}

// LastUpdated returns the dataset timestamp line
func (s *RankingsService) LastUpdated() string {
	return s.dataset.LastUpdated()
}

// CategoryIcon returns the icon shown next to a category heading
func CategoryIcon(category string) string {
	if icon, ok := categoryIcons[category]; ok {
		return icon
	}
	return DefaultCategoryIcon
}
