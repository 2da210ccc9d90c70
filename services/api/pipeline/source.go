package pipeline

import (
	"context"
	"time"
)

// SiteRecord is a raw row of the external site register.
type SiteRecord struct {
	ID    string
	Name  *string
	NZTMX float64
	NZTMY float64
}

// SiteSource reads the site register. A nil ids slice reads every site.
type SiteSource interface {
	Sites(ctx context.Context, ids []string) ([]SiteRecord, error)
}

// CatalogFilter selects dataset types by their categorical key. An empty
// slice leaves that column unfiltered.
type CatalogFilter struct {
	Features         []string `json:"features,omitempty"`
	MeasurementTypes []string `json:"measurement_types,omitempty"`
	CollectionTypes  []string `json:"collection_types,omitempty"`
	DataCodes        []string `json:"data_codes,omitempty"`
	DataProviders    []string `json:"data_providers,omitempty"`
}

// MeasurementUnit maps a measurement type to its units.
type MeasurementUnit struct {
	MeasurementType string
	Units           string
}

// CatalogSource reads the active dataset types and measurement types.
type CatalogSource interface {
	DatasetTypes(ctx context.Context, f CatalogFilter) ([]DatasetType, error)
	MeasurementUnits(ctx context.Context, measurementTypes []string) ([]MeasurementUnit, error)
}

// SummaryRecord is a raw row of the numeric daily summary table.
type SummaryRecord struct {
	SiteID    string
	DatasetID int
	Min       *float64
	Median    *float64
	Mean      *float64
	Max       *float64
	Count     *int
	FromDate  time.Time
	ToDate    time.Time
}

// WQMeasurement maps a water-quality measurement id to its name.
type WQMeasurement struct {
	ID   int
	Name string
}

// WQSummaryRecord is a raw row of the water-quality summary table.
type WQSummaryRecord struct {
	SiteID        string
	MeasurementID int
	Units         string
	FromDate      time.Time
	ToDate        time.Time
}

// SummarySource reads both summary stores.
type SummarySource interface {
	CatalogSource
	NumericSummaries(ctx context.Context, datasetIDs []int) ([]SummaryRecord, error)
	WQMeasurements(ctx context.Context, names []string) ([]WQMeasurement, error)
	WQSummaries(ctx context.Context, measurementIDs []int, dataTypes []string) ([]WQSummaryRecord, error)
}

// Point is one value of a daily or sampled time series.
type Point struct {
	SiteID string    `json:"site_id"`
	Time   time.Time `json:"time"`
	Value  float64   `json:"value"`
}

// DailySource reads the numeric daily time-series table.
type DailySource interface {
	DailyValues(ctx context.Context, datasetIDs []int, siteIDs []string, r DateRange) ([]Point, error)
}

// SampleSource reads a single site/measurement series from the hydrological
// web service.
type SampleSource interface {
	GetData(ctx context.Context, site, measurement string, r DateRange) ([]Point, error)
}

// RestrictionSource reads daily low-flow restriction rows dated within r.
type RestrictionSource interface {
	Restrictions(ctx context.Context, r DateRange) ([]Restriction, error)
}

// LowFlowSource is everything the restriction summary reads.
type LowFlowSource interface {
	SiteSource
	RestrictionSource
}

// AllocationSource is everything the allocation/usage reconciler reads from
// the database.
type AllocationSource interface {
	DailySource
	ConsentBands(ctx context.Context, siteIDs []string, r DateRange) ([]ConsentBand, error)
	ConsentWaps(ctx context.Context, consents, waps []string) ([]ConsentWap, error)
}

// AllocationRequest is the query sent to the allocation computation service.
type AllocationRequest struct {
	Range    DateRange `json:"-"`
	Freq     string    `json:"freq"`
	Target   string    `json:"target"`
	Consents []string  `json:"consents"`
}

// AllocationRecord is one allocation value per consent, abstraction point and day.
type AllocationRecord struct {
	Consent    string
	Wap        string
	Date       time.Time
	Allocation float64
}

// Allocator computes allocation time series for a set of consents.
type Allocator interface {
	AllocationTS(ctx context.Context, req AllocationRequest) ([]AllocationRecord, error)
}
