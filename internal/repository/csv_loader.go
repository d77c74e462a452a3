package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"carintel/internal/model"
)

// Dataset file names under the data directory
const (
	RankingsFile    = "car_rankings.csv"
	LastUpdatedFile = "last_updated.txt"
)

// CSV column headers
const (
	colModelYear    = "model_year"
	colMake         = "make"
	colVehicleClass = "vehicle_class"
	colModel        = "model"
	colCityL        = "city_(l/100_km)"
	colHighwayL     = "highway_(l/100_km)"
	colCityKWh      = "city_(kwh/100_km)"
	colHighwayKWh   = "highway_(kwh/100_km)"
)

// nullMarkers are cell values treated as missing
var nullMarkers = map[string]bool{
	"":     true,
	"na":   true,
	"n/a":  true,
	"nan":  true,
	"null": true,
	"none": true,
	"<na>": true,
	"#n/a": true,
}

// CSVLoader reads the dataset from a directory of CSV files
type CSVLoader struct {
	dir    string
	logger *zap.Logger
}

// NewCSVLoader creates a loader for dir
func NewCSVLoader(dir string, logger *zap.Logger) *CSVLoader {
	return &CSVLoader{dir: dir, logger: logger}
}

// Load reads every partition file, the rankings table and the timestamp file.
// Missing files leave the corresponding part of the dataset empty.
func (l *CSVLoader) Load(ctx context.Context) (*Dataset, error) {
	partitions := make(map[model.VehicleType]Partition, len(model.VehicleTypes))

	for _, vt := range model.VehicleTypes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := filepath.Join(l.dir, string(vt)+".csv")
		p, err := readCSVFile(path, func(r io.Reader) (Partition, error) { return ReadPartition(r, vt) })
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn("Dataset partition missing", zap.String("vehicle_type", string(vt)), zap.String("path", path))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}

		partitions[vt] = p
		l.logger.Info("Loaded dataset partition",
			zap.String("vehicle_type", string(vt)),
			zap.Int("records", len(p.Records)),
		)
	}

	rankingsPath := filepath.Join(l.dir, RankingsFile)
	rankings, err := readCSVFile(rankingsPath, ReadRankings)
	if errors.Is(err, fs.ErrNotExist) {
		l.logger.Warn("Rankings file missing", zap.String("path", rankingsPath))
	} else if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", rankingsPath, err)
	}

	return NewDataset(partitions, rankings, ReadLastUpdated(filepath.Join(l.dir, LastUpdatedFile))), nil
}

func readCSVFile[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, err
	}
	defer f.Close()
	return read(f)
}

// ReadLastUpdated returns the trimmed timestamp file content, or DefaultLastUpdated
func ReadLastUpdated(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultLastUpdated
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return DefaultLastUpdated
	}
	return text
}

// ReadPartition parses one vehicle CSV. Rows whose model year is not numeric are skipped.
func ReadPartition(r io.Reader, vt model.VehicleType) (Partition, error) {
	header, rows, err := readTable(r)
	if err != nil {
		return Partition{}, err
	}

	p := Partition{Columns: Columns{
		ModelYear:    header.has(colModelYear),
		VehicleClass: header.has(colVehicleClass),
	}}
	if !p.Columns.ModelYear {
		return p, nil
	}

	for _, row := range rows {
		year, ok := parseYear(header.cell(row, colModelYear))
		if !ok {
			continue
		}
		p.Records = append(p.Records, model.VehicleRecord{
			VehicleType:        vt,
			ModelYear:          year,
			Make:               header.text(row, colMake),
			VehicleClass:       header.optionalText(row, colVehicleClass),
			Model:              header.text(row, colModel),
			CityLPer100Km:      header.number(row, colCityL),
			HighwayLPer100Km:   header.number(row, colHighwayL),
			CityKWhPer100Km:    header.number(row, colCityKWh),
			HighwayKWhPer100Km: header.number(row, colHighwayKWh),
		})
	}
	return p, nil
}

// ReadRankings parses the rankings CSV
func ReadRankings(r io.Reader) ([]model.RankingEntry, error) {
	header, rows, err := readTable(r)
	if err != nil {
		return nil, err
	}

	var entries []model.RankingEntry
	for _, row := range rows {
		year, ok := parseYear(header.cell(row, "year"))
		if !ok {
			continue
		}
		rank, _ := parseYear(header.cell(row, "rank"))
		entries = append(entries, model.RankingEntry{
			Year:         year,
			Category:     header.text(row, "category"),
			Rank:         rank,
			Model:        header.text(row, "model"),
			Manufacturer: header.text(row, "manufacturer"),
			Source:       header.optionalText(row, "source"),
			Rationale:    header.text(row, "rationale"),
		})
	}
	return entries, nil
}

type tableHeader map[string]int

func readTable(r io.Reader) (tableHeader, [][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(records) == 0 {
		return tableHeader{}, nil, nil
	}

	header := make(tableHeader, len(records[0]))
	for i, name := range records[0] {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := header[name]; !dup {
			header[name] = i
		}
	}
	return header, records[1:], nil
}

func (h tableHeader) has(col string) bool {
	_, ok := h[col]
	return ok
}

func (h tableHeader) cell(row []string, col string) string {
	i, ok := h[col]
	if !ok || i >= len(row) {
		return ""
	}
	v := strings.TrimSpace(row[i])
	if nullMarkers[strings.ToLower(v)] {
		return ""
	}
	return v
}

func (h tableHeader) text(row []string, col string) string {
	return h.cell(row, col)
}

func (h tableHeader) optionalText(row []string, col string) *string {
	v := h.cell(row, col)
	if v == "" {
		return nil
	}
	return &v
}

func (h tableHeader) number(row []string, col string) *float64 {
	v := h.cell(row, col)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// parseYear accepts integer text and whole floats such as "2024.0"
func parseYear(v string) (int, bool) {
	if v == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}
