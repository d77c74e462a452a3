package service

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"carintel/internal/apperr"
	"carintel/internal/config"
	"carintel/internal/model"
	"carintel/internal/utils"
)

// Messages reported when a cost cannot be computed
const (
	MsgEnergyUnavailable      = "Energy data unavailable."
	MsgFuelUnavailable        = "Fuel data unavailable."
	MsgElectricityUnavailable = "Electricity data unavailable."
)

// CostInput holds the driving assumptions for one estimate
type CostInput struct {
	CityRatio        float64 `json:"city_ratio" validate:"gte=0,lte=1"`
	EnergyPrice      float64 `json:"energy_price" validate:"gte=0"`
	AnnualDistanceKm float64 `json:"annual_distance_km" validate:"gt=0"`
}

// AnnualEnergyCost blends the city and highway rates of rec by in.CityRatio and
// prices the yearly distance. bev records use kWh rates, the rest litres.
func AnnualEnergyCost(rec model.VehicleRecord, in CostInput) (float64, error) {
	city, highway := rec.ConsumptionRates()
	if city == nil || highway == nil {
		if rec.VehicleType.IsElectric() {
			return 0, apperr.DataUnavailable(MsgElectricityUnavailable)
		}
		return 0, apperr.DataUnavailable(MsgFuelUnavailable)
	}

	highwayRatio := 1 - in.CityRatio
	blended := in.CityRatio*(*city) + highwayRatio*(*highway)
	return (in.AnnualDistanceKm / 100) * blended * in.EnergyPrice, nil
}

// EstimatorService resolves vehicles and prices their yearly energy use
type EstimatorService struct {
	catalog  *CatalogService
	defaults config.EstimatorConfig
	validate *validator.Validate
}

// NewEstimatorService creates an estimator with the configured defaults
func NewEstimatorService(catalog *CatalogService, defaults config.EstimatorConfig) *EstimatorService {
	return &EstimatorService{
		catalog:  catalog,
		defaults: defaults,
		validate: newValidator(),
	}
}

// Pricing describes the price input for a partition
func (s *EstimatorService) Pricing(vt model.VehicleType) model.EnergyPricing {
	if vt.IsElectric() {
		return model.EnergyPricing{
			VehicleType:  vt,
			Label:        "Electricity price (CAD per kWh):",
			DefaultNote:  fmt.Sprintf("Default is %.2f CAD/kWh (national average)", s.defaults.DefaultElectricityPrice),
			DefaultPrice: s.defaults.DefaultElectricityPrice,
			Unit:         "kWh",
		}
	}
	return model.EnergyPricing{
		VehicleType:  vt,
		Label:        "Fuel price (CAD per litre):",
		DefaultNote:  fmt.Sprintf("Default is %.2f CAD/L", s.defaults.DefaultFuelPrice),
		DefaultPrice: s.defaults.DefaultFuelPrice,
		Unit:         "L",
	}
}

// Estimate computes the annual cost for the vehicle named in req. Omitted
// inputs take the configured defaults.
func (s *EstimatorService) Estimate(req model.EstimateRequest) (model.EstimateResponse, error) {
	vt, ok := model.ParseVehicleType(req.VehicleType)
	if !ok {
		return model.EstimateResponse{}, apperr.BadRequest(fmt.Sprintf("unknown vehicle_type %q", req.VehicleType))
	}
	if err := requireSelection(req.Year, req.Make, req.Model); err != nil {
		return model.EstimateResponse{}, err
	}

	in := CostInput{
		CityRatio:        valueOr(req.CityPercent, s.defaults.DefaultCityPercent) / 100,
		EnergyPrice:      valueOr(req.EnergyPrice, s.Pricing(vt).DefaultPrice),
		AnnualDistanceKm: valueOr(req.AnnualDistanceKm, s.defaults.DefaultAnnualDistanceKm),
	}
	if err := s.validate.Struct(in); err != nil {
		return model.EstimateResponse{}, validationError(err)
	}

	rec, err := s.catalog.Resolve(vt, req.Year, req.Make, req.Model)
	if err != nil {
		return model.EstimateResponse{}, apperr.DataUnavailable(MsgEnergyUnavailable)
	}

	cost, err := AnnualEnergyCost(rec, in)
	if err != nil {
		return model.EstimateResponse{}, err
	}

	unit := s.Pricing(vt).Unit
	return model.EstimateResponse{
		AnnualCost:       cost,
		Message:          CostMessage(vt, cost, in.EnergyPrice),
		CityRatio:        in.CityRatio,
		EnergyPrice:      in.EnergyPrice,
		AnnualDistanceKm: in.AnnualDistanceKm,
		Unit:             unit,
	}, nil
}

// CostMessage renders the estimate line, e.g. "Estimated annual fuel cost: $2,295 CAD (at 1.80 CAD/L)"
func CostMessage(vt model.VehicleType, cost, price float64) string {
	if vt.IsElectric() {
		return fmt.Sprintf("Estimated annual charging cost: $%s CAD (at %.2f CAD/kWh)", utils.FormatWholeAmount(cost), price)
	}
	return fmt.Sprintf("Estimated annual fuel cost: $%s CAD (at %.2f CAD/L)", utils.FormatWholeAmount(cost), price)
}

func valueOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}
