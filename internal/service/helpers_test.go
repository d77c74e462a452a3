package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"carintel/internal/model"
	"carintel/internal/repository"
)

// fakeGenerator answers every call with reply/err, or with respond when set
type fakeGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	respond func(req GenerateRequest) (string, error)
	calls   []GenerateRequest
}

func (f *fakeGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	respond := f.respond
	f.mu.Unlock()

	if respond != nil {
		return respond(req)
	}
	return f.reply, f.err
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func intPtr(v int) *int             { return &v }
func strPtr(v string) *string       { return &v }
func float64Ptr(v float64) *float64 { return &v }

func testLogger() *zap.Logger { return zap.NewNop() }

// testDataset holds a small conventional and bev partition plus rankings
func testDataset() *repository.Dataset {
	compact := "Compact"
	suv := "SUV: Small"
	conventional := []model.VehicleRecord{
		{VehicleType: model.VehicleConventional, ModelYear: 2024, Make: "Honda", VehicleClass: &compact, Model: "Civic",
			CityLPer100Km: float64Ptr(9.0), HighwayLPer100Km: float64Ptr(6.5)},
		{VehicleType: model.VehicleConventional, ModelYear: 2024, Make: "Honda", VehicleClass: &suv, Model: "CR-V",
			CityLPer100Km: float64Ptr(9.8), HighwayLPer100Km: float64Ptr(7.9)},
		{VehicleType: model.VehicleConventional, ModelYear: 2024, Make: "Acura", VehicleClass: &compact, Model: "Integra",
			CityLPer100Km: float64Ptr(8.4), HighwayLPer100Km: float64Ptr(6.5)},
		{VehicleType: model.VehicleConventional, ModelYear: 2023, Make: "Honda", VehicleClass: &compact, Model: "Civic",
			CityLPer100Km: float64Ptr(8.9)},
		// duplicate key; the first row stays canonical
		{VehicleType: model.VehicleConventional, ModelYear: 2024, Make: "Honda", VehicleClass: &compact, Model: "Civic",
			CityLPer100Km: float64Ptr(99), HighwayLPer100Km: float64Ptr(99)},
	}
	bev := []model.VehicleRecord{
		{VehicleType: model.VehicleBEV, ModelYear: 2024, Make: "Tesla", Model: "Model 3",
			CityKWhPer100Km: float64Ptr(15.0), HighwayKWhPer100Km: float64Ptr(17.0)},
	}

	source := "MotorTrend"
	rankings := []model.RankingEntry{
		{Year: 2024, Category: "Best Sedan", Rank: 2, Model: "2024 2024 Camry", Manufacturer: "Toyota"},
		{Year: 2024, Category: "Best Sedan", Rank: 1, Model: "2024 Accord", Manufacturer: "Honda", Source: &source},
		{Year: 2024, Category: "Best Minivan", Rank: 1, Model: "Sienna", Manufacturer: "Toyota"},
		{Year: 2023, Category: "Best SUV", Rank: 1, Model: "CX-50", Manufacturer: "Mazda"},
		{Year: 2025, Category: "Best SUV", Rank: 1, Model: "RAV4", Manufacturer: "Toyota"},
	}

	return repository.NewDataset(map[model.VehicleType]repository.Partition{
		model.VehicleConventional: {Records: conventional, Columns: repository.Columns{ModelYear: true, VehicleClass: true}},
		model.VehicleBEV:          {Records: bev, Columns: repository.Columns{ModelYear: true}},
	}, rankings, "Data Last updated: 2025-01-15")
}
