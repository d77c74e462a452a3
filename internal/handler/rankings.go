package handler

import (
	"net/http"

	"carintel/internal/service"

	"github.com/gin-gonic/gin"
)

// RankingsHandler serves the industry rankings
type RankingsHandler struct {
	rankings *service.RankingsService
}

// NewRankingsHandler creates a new rankings handler
func NewRankingsHandler(rankings *service.RankingsService) *RankingsHandler {
	return &RankingsHandler{rankings: rankings}
}

// Years handles GET /api/v1/rankings/years
func (h *RankingsHandler) Years(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"years": h.rankings.Years()})
}

// ByYear handles GET /api/v1/rankings?year=. Without a year the newest one is shown.
func (h *RankingsHandler) ByYear(c *gin.Context) {
	year, err := intQuery(c, "year")
	if err != nil {
		respondError(c, err)
		return
	}
	if year == nil {
		if years := h.rankings.Years(); len(years) > 0 {
			year = &years[0]
		}
	}
	if year == nil {
		c.JSON(http.StatusOK, gin.H{"year": nil, "categories": []any{}})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"year":       *year,
		"categories": h.rankings.ByYear(*year),
	})
}
