package handler

import (
	"net/http"

	"carintel/internal/model"
	"carintel/internal/service"

	"github.com/gin-gonic/gin"
)

// SearchHandler serves the car search page: the filter cascade, the energy
// cost estimator and the advisory report
type SearchHandler struct {
	catalog   *service.CatalogService
	estimator *service.EstimatorService
	advisory  *service.AdvisoryService
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(catalog *service.CatalogService, estimator *service.EstimatorService, advisory *service.AdvisoryService) *SearchHandler {
	return &SearchHandler{
		catalog:   catalog,
		estimator: estimator,
		advisory:  advisory,
	}
}

// Years handles GET /api/v1/catalog/:type/years
func (h *SearchHandler) Years(c *gin.Context) {
	vt, err := vehicleTypeParam(c)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"vehicle_type": vt,
		"years":        h.catalog.ListYears(vt),
	})
}

// Makes handles GET /api/v1/catalog/:type/makes?year=
func (h *SearchHandler) Makes(c *gin.Context) {
	vt, err := vehicleTypeParam(c)
	if err != nil {
		respondError(c, err)
		return
	}
	year, err := intQuery(c, "year")
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"makes": h.catalog.ListMakes(vt, year)})
}

// Classes handles GET /api/v1/catalog/:type/classes?year=&make=
func (h *SearchHandler) Classes(c *gin.Context) {
	vt, err := vehicleTypeParam(c)
	if err != nil {
		respondError(c, err)
		return
	}
	year, err := intQuery(c, "year")
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"classes": h.catalog.ListClasses(vt, year, stringQuery(c, "make"))})
}

// Models handles GET /api/v1/catalog/:type/models?year=&make=&class=
func (h *SearchHandler) Models(c *gin.Context) {
	vt, err := vehicleTypeParam(c)
	if err != nil {
		respondError(c, err)
		return
	}
	year, err := intQuery(c, "year")
	if err != nil {
		respondError(c, err)
		return
	}

	models := h.catalog.ListModels(vt, year, stringQuery(c, "make"), stringQuery(c, "class"))
	c.JSON(http.StatusOK, gin.H{"models": models})
}

// Vehicle handles GET /api/v1/catalog/:type/vehicle?year=&make=&model=
func (h *SearchHandler) Vehicle(c *gin.Context) {
	vt, err := vehicleTypeParam(c)
	if err != nil {
		respondError(c, err)
		return
	}

	rec, err := h.catalog.Resolve(vt, c.Query("year"), c.Query("make"), c.Query("model"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

// Cascade handles POST /api/v1/catalog/cascade
func (h *SearchHandler) Cascade(c *gin.Context) {
	var req model.CascadeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	if req.Selection.VehicleType == "" {
		req.Selection.VehicleType = model.VehicleConventional
	}

	resp, err := h.catalog.Cascade(req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Estimate handles POST /api/v1/estimate
func (h *SearchHandler) Estimate(c *gin.Context) {
	var req model.EstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	resp, err := h.estimator.Estimate(req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// EnergyPricing handles GET /api/v1/energy-pricing/:type
func (h *SearchHandler) EnergyPricing(c *gin.Context) {
	vt, err := vehicleTypeParam(c)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.estimator.Pricing(vt))
}

// Report handles POST /api/v1/advisory/report
func (h *SearchHandler) Report(c *gin.Context) {
	var req model.AdvisoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	report, err := h.advisory.Report(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
