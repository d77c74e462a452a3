package repository

import (
	"context"

	"carintel/internal/model"
)

// DefaultLastUpdated is shown when the dataset carries no timestamp
const DefaultLastUpdated = "Data Last updated: Unknown"

// Columns records which optional columns a partition was loaded with
type Columns struct {
	ModelYear    bool
	VehicleClass bool
}

// Partition is the records of one vehicle type, in source order
type Partition struct {
	Records []model.VehicleRecord
	Columns Columns
}

// Dataset is the vehicle data loaded at startup. It is never mutated after
// construction, so concurrent readers need no locking.
type Dataset struct {
	partitions  map[model.VehicleType]Partition
	rankings    []model.RankingEntry
	lastUpdated string
}

// DatasetLoader produces a Dataset from some backing source
type DatasetLoader interface {
	Load(ctx context.Context) (*Dataset, error)
}

// NewDataset builds a Dataset. The inputs are copied.
func NewDataset(partitions map[model.VehicleType]Partition, rankings []model.RankingEntry, lastUpdated string) *Dataset {
	copied := make(map[model.VehicleType]Partition, len(partitions))
	for vt, p := range partitions {
		records := make([]model.VehicleRecord, len(p.Records))
		copy(records, p.Records)
		copied[vt] = Partition{Records: records, Columns: p.Columns}
	}

	ranked := make([]model.RankingEntry, len(rankings))
	copy(ranked, rankings)

	if lastUpdated == "" {
		lastUpdated = DefaultLastUpdated
	}

	return &Dataset{
		partitions:  copied,
		rankings:    ranked,
		lastUpdated: lastUpdated,
	}
}

// Partition returns the partition for vt. Callers must not modify the records.
func (d *Dataset) Partition(vt model.VehicleType) (Partition, bool) {
	p, ok := d.partitions[vt]
	return p, ok
}

// Rankings returns every ranking row. Callers must not modify the slice.
func (d *Dataset) Rankings() []model.RankingEntry {
	return d.rankings
}

// LastUpdated returns the display timestamp
func (d *Dataset) LastUpdated() string {
	return d.lastUpdated
}

// Size returns the number of vehicle records per partition
func (d *Dataset) Size() map[model.VehicleType]int {
	out := make(map[model.VehicleType]int, len(d.partitions))
	for vt, p := range d.partitions {
		out[vt] = len(p.Records)
	}
	return out
}
