package db

import (
	"context"

	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/pipeline"
)

const datasetTypesBase = `
    SELECT dataset_type_id, feature, measurement_type, collection_type, data_code, data_provider
    FROM hydro.dataset_type_names_active`

// DatasetTypes returns active dataset types matching the filter.
func (s *Store) DatasetTypes(ctx context.Context, f pipeline.CatalogFilter) ([]pipeline.DatasetType, error) {
	var w where
	in(&w, "feature", f.Features)
	in(&w, "measurement_type", f.MeasurementTypes)
	in(&w, "collection_type", f.CollectionTypes)
	in(&w, "data_code", f.DataCodes)
	in(&w, "data_provider", f.DataProviders)

	rows, err := s.pool.Query(ctx, datasetTypesBase+w.String()+" ORDER BY dataset_type_id", w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := make([]pipeline.DatasetType, 0)
	for rows.Next() {
		var t pipeline.DatasetType
		if err := rows.Scan(&t.ID, &t.Feature, &t.MeasurementType, &t.CollectionType, &t.DataCode, &t.DataProvider); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

const measurementUnitsBase = `
    SELECT measurement_type, units
    FROM hydro.measurement_type`

// MeasurementUnits returns units for the given measurement types, or all of
// them when the slice is empty.
func (s *Store) MeasurementUnits(ctx context.Context, measurementTypes []string) ([]pipeline.MeasurementUnit, error) {
	var w where
	in(&w, "measurement_type", measurementTypes)

	rows, err := s.pool.Query(ctx, measurementUnitsBase+w.String(), w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	units := make([]pipeline.MeasurementUnit, 0)
	for rows.Next() {
		var u pipeline.MeasurementUnit
		if err := rows.Scan(&u.MeasurementType, &u.Units); err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

const numericSummariesSQL = `
    SELECT ext_site_id, dataset_type_id, min, median, mean, max, count, from_date, to_date
    FROM hydro.ts_data_numeric_daily_summ
    WHERE dataset_type_id = ANY($1)
    ORDER BY ext_site_id, dataset_type_id
`

// NumericSummaries returns the numeric daily summaries of the given datasets.
func (s *Store) NumericSummaries(ctx context.Context, datasetIDs []int) ([]pipeline.SummaryRecord, error) {
	out := make([]pipeline.SummaryRecord, 0)
	if len(datasetIDs) == 0 {
		return out, nil
	}

	rows, err := s.pool.Query(ctx, numericSummariesSQL, datasetIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var r pipeline.SummaryRecord
		if err := rows.Scan(
			&r.SiteID,
			&r.DatasetID,
			&r.Min,
			&r.Median,
			&r.Mean,
			&r.Max,
			&r.Count,
			&r.FromDate,
			&r.ToDate,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const wqMeasurementsBase = `
    SELECT measurement_id, measurement
    FROM hydro.wq_measurement`

// WQMeasurements returns water-quality measurements with the given names.
func (s *Store) WQMeasurements(ctx context.Context, names []string) ([]pipeline.WQMeasurement, error) {
	var w where
	in(&w, "measurement", names)

	rows, err := s.pool.Query(ctx, wqMeasurementsBase+w.String()+" ORDER BY measurement_id", w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]pipeline.WQMeasurement, 0)
	for rows.Next() {
		var m pipeline.WQMeasurement
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

const wqSummariesSQL = `
    SELECT ext_site_id, measurement_id, units, from_date, to_date
    FROM hydro.wq_data_summ
    WHERE measurement_id = ANY($1) AND data_type = ANY($2)
    ORDER BY ext_site_id, measurement_id
`

// WQSummaries returns water-quality summaries for the given measurements and
// data types.
func (s *Store) WQSummaries(ctx context.Context, measurementIDs []int, dataTypes []string) ([]pipeline.WQSummaryRecord, error) {
	out := make([]pipeline.WQSummaryRecord, 0)
	if len(measurementIDs) == 0 || len(dataTypes) == 0 {
		return out, nil
	}

	rows, err := s.pool.Query(ctx, wqSummariesSQL, measurementIDs, dataTypes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var r pipeline.WQSummaryRecord
		if err := rows.Scan(&r.SiteID, &r.MeasurementID, &r.Units, &r.FromDate, &r.ToDate); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const dailyValuesBase = `
    SELECT ext_site_id, date_time, value
    FROM hydro.ts_data_numeric_daily`

// DailyValues returns daily values of the given datasets and sites dated
// within r.
func (s *Store) DailyValues(ctx context.Context, datasetIDs []int, siteIDs []string, r pipeline.DateRange) ([]pipeline.Point, error) {
	out := make([]pipeline.Point, 0)
	if len(datasetIDs) == 0 || len(siteIDs) == 0 {
		return out, nil
	}

	var w where
	in(&w, "dataset_type_id", datasetIDs)
	in(&w, "ext_site_id", siteIDs)
	w.between("date_time", r)

	rows, err := s.pool.Query(ctx, dailyValuesBase+w.String()+" ORDER BY ext_site_id, date_time", w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p pipeline.Point
		if err := rows.Scan(&p.SiteID, &p.Time, &p.Value); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
