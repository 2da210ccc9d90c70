package pipeline

import (
	"context"
	"fmt"
	"strings"
)

// DatasetKey is the categorical identity of a dataset.
type DatasetKey struct {
	Feature         string `json:"feature"`
	MeasurementType string `json:"measurement_type"`
	CollectionType  string `json:"collection_type"`
	DataCode        string `json:"data_code"`
	DataProvider    string `json:"data_provider"`
}

// DatasetType is a row of the active dataset type catalog.
type DatasetType struct {
	ID int `json:"dataset_type_id"`
	DatasetKey
}

// Dataset is a dataset type joined with its measurement units.
type Dataset struct {
	ID int `json:"dataset_type_id"`
	DatasetKey
	Units string `json:"units"`
	Name  string `json:"dataset_name"`
}

// Synthetic reports whether the dataset was numbered for a water-quality
// combination rather than read from the catalog.
func (d Dataset) Synthetic() bool {
	return d.ID >= SyntheticIDBase
}

// DatasetName renders "Feature - MeasurementType - CollectionType - DataCode - DataProvider (Units)".
func DatasetName(k DatasetKey, units string) string {
	return strings.Join([]string{k.Feature, k.MeasurementType, k.CollectionType, k.DataCode, k.DataProvider}, " - ") +
		" (" + units + ")"
}

// MergeCatalog inner-joins dataset types with measurement units on the
// measurement type. Types without units and units without types drop out.
// Repeated rows collapse.
func MergeCatalog(types []DatasetType, units []MeasurementUnit) []Dataset {
	byType := make(map[string][]string, len(units))
	for _, u := range units {
		byType[u.MeasurementType] = append(byType[u.MeasurementType], u.Units)
	}

	type seenKey struct {
		id    int
		key   DatasetKey
		units string
	}
	seen := make(map[seenKey]struct{}, len(types))

	out := make([]Dataset, 0, len(types))
	for _, t := range types {
		for _, u := range byType[t.MeasurementType] {
			k := seenKey{id: t.ID, key: t.DatasetKey, units: u}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, Dataset{
				ID:         t.ID,
				DatasetKey: t.DatasetKey,
				Units:      u,
				Name:       DatasetName(t.DatasetKey, u),
			})
		}
	}
	return out
}

// LoadCatalog reads dataset types and units matching f and merges them.
func LoadCatalog(ctx context.Context, src CatalogSource, f CatalogFilter) ([]Dataset, error) {
	types, err := src.DatasetTypes(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("load dataset types: %w", err)
	}
	if len(types) == 0 {
		return []Dataset{}, nil
	}

	units, err := src.MeasurementUnits(ctx, f.MeasurementTypes)
	if err != nil {
		return nil, fmt.Errorf("load measurement units: %w", err)
	}

	datasets := MergeCatalog(types, units)
	for _, d := range datasets {
		if d.Synthetic() {
			return nil, fmt.Errorf("%w: %d", ErrIDOverlap, d.ID)
		}
	}
	return datasets, nil
}
