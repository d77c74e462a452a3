package model

import (
	"strconv"
	"strings"
)

// VehicleType selects a dataset partition
type VehicleType string

const (
	VehicleConventional VehicleType = "conventional"
	VehiclePHEV         VehicleType = "phev"
	VehicleBEV          VehicleType = "bev"
)

// VehicleTypes lists the partitions in display order
var VehicleTypes = []VehicleType{VehicleConventional, VehiclePHEV, VehicleBEV}

// ParseVehicleType accepts a partition name in any case
func ParseVehicleType(s string) (VehicleType, bool) {
	vt := VehicleType(strings.ToLower(strings.TrimSpace(s)))
	switch vt {
	case VehicleConventional, VehiclePHEV, VehicleBEV:
		return vt, true
	}
	return "", false
}

// IsElectric reports whether the partition is rated in kWh rather than litres
func (vt VehicleType) IsElectric() bool {
	return vt == VehicleBEV
}

// VehicleRecord is one row of a dataset partition
type VehicleRecord struct {
	VehicleType        VehicleType `json:"vehicle_type" db:"vehicle_type"`
	ModelYear          int         `json:"model_year" db:"model_year"`
	Make               string      `json:"make" db:"make"`
	VehicleClass       *string     `json:"vehicle_class,omitempty" db:"vehicle_class"`
	Model              string      `json:"model" db:"model"`
	CityLPer100Km      *float64    `json:"city_l_per_100km,omitempty" db:"city_l_per_100km"`
	HighwayLPer100Km   *float64    `json:"highway_l_per_100km,omitempty" db:"highway_l_per_100km"`
	CityKWhPer100Km    *float64    `json:"city_kwh_per_100km,omitempty" db:"city_kwh_per_100km"`
	HighwayKWhPer100Km *float64    `json:"highway_kwh_per_100km,omitempty" db:"highway_kwh_per_100km"`
}

// YearKey is the string form of the model year used for equality checks
func (r VehicleRecord) YearKey() string {
	return strconv.Itoa(r.ModelYear)
}

// ClassName returns the vehicle class or "" when null
func (r VehicleRecord) ClassName() string {
	if r.VehicleClass == nil {
		return ""
	}
	return *r.VehicleClass
}

// ConsumptionRates returns the city and highway rates for the record's partition.
// Either value is nil when the dataset did not carry it.
func (r VehicleRecord) ConsumptionRates() (city, highway *float64) {
	if r.VehicleType.IsElectric() {
		return r.CityKWhPer100Km, r.HighwayKWhPer100Km
	}
	return r.CityLPer100Km, r.HighwayLPer100Km
}
