package handler

import (
	"net/http"

	"carintel/internal/model"
	"carintel/internal/service"

	"github.com/gin-gonic/gin"
)

// BuildInfo is stamped at link time
type BuildInfo struct {
	Version   string
	BuildTime string
	GitCommit string
}

// SystemHandler serves liveness, build and dataset metadata
type SystemHandler struct {
	rankings *service.RankingsService
	build    BuildInfo
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(rankings *service.RankingsService, build BuildInfo) *SystemHandler {
	return &SystemHandler{rankings: rankings, build: build}
}

// Health handles GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"service":    "carintel",
		"version":    h.build.Version,
		"build_time": h.build.BuildTime,
		"git_commit": h.build.GitCommit,
	})
}

// Version handles GET /version
func (h *SystemHandler) Version(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":    h.build.Version,
		"build_time": h.build.BuildTime,
		"git_commit": h.build.GitCommit,
	})
}

// Meta handles GET /api/v1/meta
func (h *SystemHandler) Meta(c *gin.Context) {
	c.JSON(http.StatusOK, model.MetaResponse{
		LastUpdated:  h.rankings.LastUpdated(),
		VehicleTypes: model.VehicleTypes,
	})
}
