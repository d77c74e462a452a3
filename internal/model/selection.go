package model

// Selection fields in chain order
const (
	FieldVehicleType  = "vehicle_type"
	FieldModelYear    = "model_year"
	FieldMake         = "make"
	FieldVehicleClass = "vehicle_class"
	FieldModel        = "model"
)

// FilterSelection is the user's progressive choice state.
// Transitions return a new value; assigning a field clears every field after it.
type FilterSelection struct {
	VehicleType  VehicleType `json:"vehicle_type"`
	ModelYear    *int        `json:"model_year,omitempty"`
	Make         *string     `json:"make,omitempty"`
	VehicleClass *string     `json:"vehicle_class,omitempty"`
	Model        *string     `json:"model,omitempty"`
}

// NewFilterSelection starts an empty selection for a partition
func NewFilterSelection(vt VehicleType) FilterSelection {
	return FilterSelection{VehicleType: vt}
}

// WithVehicleType switches partition and clears every dependent field
func (s FilterSelection) WithVehicleType(vt VehicleType) FilterSelection {
	if vt == s.VehicleType {
		return s
	}
	return FilterSelection{VehicleType: vt}
}

// WithYear sets or clears the model year, clearing make, class and model
func (s FilterSelection) WithYear(year *int) FilterSelection {
	if equalInt(s.ModelYear, year) {
		return s
	}
	return FilterSelection{VehicleType: s.VehicleType, ModelYear: cloneInt(year)}
}

// WithMake sets or clears the make. Ignored until a year is chosen.
func (s FilterSelection) WithMake(value *string) FilterSelection {
	if s.ModelYear == nil || equalString(s.Make, value) {
		return s
	}
	return FilterSelection{
		VehicleType: s.VehicleType,
		ModelYear:   s.ModelYear,
		Make:        cloneString(value),
	}
}

// WithClass sets or clears the vehicle class. Ignored until year and make are chosen.
func (s FilterSelection) WithClass(value *string) FilterSelection {
	if !s.hasYearAndMake() || equalString(s.VehicleClass, value) {
		return s
	}
	next := s
	next.VehicleClass = cloneString(value)
	next.Model = nil
	return next
}

// WithModel sets or clears the model. The class is optional.
func (s FilterSelection) WithModel(value *string) FilterSelection {
	if !s.hasYearAndMake() {
		return s
	}
	next := s
	next.Model = cloneString(value)
	return next
}

// Normalized replays the fields through the setters, dropping any field whose predecessors are unset
func (s FilterSelection) Normalized() FilterSelection {
	return NewFilterSelection(s.VehicleType).
		WithYear(s.ModelYear).
		WithMake(s.Make).
		WithClass(s.VehicleClass).
		WithModel(s.Model)
}

// Complete reports whether year, make and model are all chosen
func (s FilterSelection) Complete() bool {
	return s.hasYearAndMake() && s.Model != nil
}

func (s FilterSelection) hasYearAndMake() bool {
	return s.ModelYear != nil && s.Make != nil
}

func equalInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
