package model

// RankingEntry is one row of the industry rankings table
type RankingEntry struct {
	Year         int     `json:"year" db:"year"`
	Category     string  `json:"category" db:"category"`
	Rank         int     `json:"rank" db:"rank"`
	Model        string  `json:"model" db:"model"`
	Manufacturer string  `json:"manufacturer" db:"manufacturer"`
	Source       *string `json:"source,omitempty" db:"source"`
	Rationale    string  `json:"rationale" db:"rationale"`
}

// RankingCategory groups the entries of one award category
type RankingCategory struct {
	Category string         `json:"category"`
	Icon     string         `json:"icon"`
	Entries  []RankingEntry `json:"entries"`
}
