package service

import (
	"slices"
	"strconv"
	"strings"

	"carintel/internal/apperr"
	"carintel/internal/model"
	"carintel/internal/repository"
	"carintel/internal/utils"
)

// CatalogService answers the dependent year -> make -> class -> model lookups
type CatalogService struct {
	dataset *repository.Dataset
}

// NewCatalogService creates a catalog over an immutable dataset
func NewCatalogService(dataset *repository.Dataset) *CatalogService {
	return &CatalogService{dataset: dataset}
}

// ListYears returns the distinct model years of a partition in ascending order.
// An absent partition or year column yields an empty list.
func (s *CatalogService) ListYears(vt model.VehicleType) []int {
	p, ok := s.dataset.Partition(vt)
	if !ok || !p.Columns.ModelYear {
		return []int{}
	}

	seen := make(map[int]struct{})
	years := []int{}
	for _, r := range p.Records {
		if _, dup := seen[r.ModelYear]; dup {
			continue
		}
		seen[r.ModelYear] = struct{}{}
		years = append(years, r.ModelYear)
	}
	slices.Sort(years)
	return years
}

// ListMakes returns the makes offered for a year
func (s *CatalogService) ListMakes(vt model.VehicleType, year *int) []string {
	if year == nil {
		return []string{}
	}
	return s.distinct(vt, func(r model.VehicleRecord) (string, bool) {
		return r.Make, r.ModelYear == *year
	})
}

// ListClasses returns the vehicle classes offered for a year and make
func (s *CatalogService) ListClasses(vt model.VehicleType, year *int, makeName *string) []string {
	if year == nil || makeName == nil {
		return []string{}
	}
	if p, ok := s.dataset.Partition(vt); !ok || !p.Columns.VehicleClass {
		return []string{}
	}
	return s.distinct(vt, func(r model.VehicleRecord) (string, bool) {
		return r.ClassName(), r.ModelYear == *year && r.Make == *makeName
	})
}

// ListModels returns the models offered for a year and make, narrowed by class when one is given
func (s *CatalogService) ListModels(vt model.VehicleType, year *int, makeName, class *string) []string {
	if year == nil || makeName == nil {
		return []string{}
	}
	return s.distinct(vt, func(r model.VehicleRecord) (string, bool) {
		if r.ModelYear != *year || r.Make != *makeName {
			return "", false
		}
		if class != nil && r.ClassName() != *class {
			return "", false
		}
		return r.Model, true
	})
}

// Resolve returns the first record matching year, make and model. The year
// is compared in its string form so "2024" and "2024.0" both match.
func (s *CatalogService) Resolve(vt model.VehicleType, year, makeName, modelName string) (model.VehicleRecord, error) {
	if err := requireSelection(year, makeName, modelName); err != nil {
		return model.VehicleRecord{}, err
	}
	p, ok := s.dataset.Partition(vt)
	if ok {
		key := normalizeYear(year)
		for _, r := range p.Records {
			if r.YearKey() == key && r.Make == makeName && r.Model == modelName {
				return r, nil
			}
		}
	}
	return model.VehicleRecord{}, apperr.NotFound("vehicle")
}

// Options returns the choices for every level reachable from sel
func (s *CatalogService) Options(sel model.FilterSelection) model.CascadeOptions {
	vt := sel.VehicleType
	return model.CascadeOptions{
		Years:   s.ListYears(vt),
		Makes:   s.ListMakes(vt, sel.ModelYear),
		Classes: s.ListClasses(vt, sel.ModelYear, sel.Make),
		Models:  s.ListModels(vt, sel.ModelYear, sel.Make, sel.VehicleClass),
	}
}

// Cascade applies one field change and returns the new selection with refreshed options.
// When the selection is complete the resolved vehicle is attached.
func (s *CatalogService) Cascade(req model.CascadeRequest) (model.CascadeResponse, error) {
	vt, ok := model.ParseVehicleType(string(req.Selection.VehicleType))
	if !ok {
		return model.CascadeResponse{}, apperr.BadRequest("unknown vehicle_type " + strconv.Quote(string(req.Selection.VehicleType)))
	}
	current := req.Selection
	current.VehicleType = vt

	sel, err := applyChange(current.Normalized(), req.Field, req.Value)
	if err != nil {
		return model.CascadeResponse{}, err
	}

	resp := model.CascadeResponse{
		Selection: sel,
		Options:   s.Options(sel),
	}
	if sel.Complete() {
		if rec, err := s.Resolve(sel.VehicleType, strconv.Itoa(*sel.ModelYear), *sel.Make, *sel.Model); err == nil {
			resp.Vehicle = &rec
		}
	}
	return resp, nil
}

// requireSelection refuses lookups that are missing year, make or model
func requireSelection(year, makeName, modelName string) error {
	if strings.TrimSpace(year) == "" || strings.TrimSpace(makeName) == "" || strings.TrimSpace(modelName) == "" {
		return apperr.ValidationGap(MsgSelectionMissing)
	}
	return nil
}

func applyChange(sel model.FilterSelection, field string, raw *string) (model.FilterSelection, error) {
	var value *string
	if raw != nil && strings.TrimSpace(*raw) != "" {
		v := strings.TrimSpace(*raw)
		value = &v
	}

	switch field {
	case model.FieldVehicleType:
		if value == nil {
			return sel, apperr.BadRequest("vehicle_type is required")
		}
		vt, ok := model.ParseVehicleType(*value)
		if !ok {
			return sel, apperr.BadRequest("unknown vehicle_type " + strconv.Quote(*value))
		}
		return sel.WithVehicleType(vt), nil
	case model.FieldModelYear:
		if value == nil {
			return sel.WithYear(nil), nil
		}
		year, err := strconv.Atoi(normalizeYear(*value))
		if err != nil {
			return sel, apperr.BadRequest("model_year must be a number")
		}
		return sel.WithYear(&year), nil
	case model.FieldMake:
		return sel.WithMake(value), nil
	case model.FieldVehicleClass:
		return sel.WithClass(value), nil
	case model.FieldModel:
		return sel.WithModel(value), nil
	}
	return sel, apperr.BadRequest("unknown field " + strconv.Quote(field))
}

func (s *CatalogService) distinct(vt model.VehicleType, pick func(model.VehicleRecord) (string, bool)) []string {
	p, ok := s.dataset.Partition(vt)
	if !ok {
		return []string{}
	}

	seen := make(map[string]struct{})
	out := []string{}
	for _, r := range p.Records {
		v, keep := pick(r)
		if !keep || utils.IsBlank(v) {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// normalizeYear turns "2024", " 2024 " and "2024.0" into "2024"
func normalizeYear(s string) string {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int(f)) {
		return strconv.Itoa(int(f))
	}
	return s
}
