package export

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/pipeline"
)

func TestCSV(t *testing.T) {
	out, err := CSV([]string{"a", "b"}, [][]string{{"1", "x, y"}, {"2", `say "hi"`}})
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,\"x, y\"\n2,\"say \"\"hi\"\"\"\n", string(out))
}

func TestCSV_HeaderOnly(t *testing.T) {
	out, err := CSV([]string{"a", "b"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(out))
}

func TestDataURI(t *testing.T) {
	got := DataURI([]byte("ExtSiteID,Date\nSQ1/a_b.c-d~e,2019-02-01 Ā\n"))
	assert.Equal(t,
		"data:text/csv;charset=utf-8,ExtSiteID%2CDate%0ASQ1/a_b.c-d~e%2C2019-02-01%20%C4%80%0A",
		got)
}

func TestDataURI_RoundTrip(t *testing.T) {
	payload := "site,hover\nS1,S1<br>Opihi River 3 day(s) ago\n"
	got := DataURI([]byte(payload))
	require.True(t, strings.HasPrefix(got, DataURIPrefix))

	decoded, err := url.PathUnescape(strings.TrimPrefix(got, DataURIPrefix))
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
}

func TestSiteSummaryRows(t *testing.T) {
	rows := SiteSummaryRows([]pipeline.SiteRestriction{{
		Site: pipeline.Site{ID: "S1", Name: "Opihi", NZTMX: 1600000, NZTMY: 5180000, Lon: 173, Lat: -43.5, Hover: "h"},
		Restriction: pipeline.Restriction{
			Date: time.Date(2019, 2, 1, 0, 0, 0, 0, time.UTC), SiteType: "LowFlow", DataSource: "Telemetered",
			DaysSinceEstimate: 2, Flow: 3.4, CrcCount: 12, MinTrigger: 2, MaxTrigger: 5.5, Category: "Partial",
		},
	}})

	require.Len(t, rows, 1)
	require.Len(t, rows[0], len(SiteSummaryHeader))
	assert.Equal(t, []string{
		"S1", "Opihi", "1600000", "5180000", "173", "-43.5", "2019-02-01", "LowFlow", "Telemetered",
		"2", "3.4", "12", "2", "5.5", "Partial", "h",
	}, rows[0])
}

func TestBandSeriesRows(t *testing.T) {
	rows := BandSeriesRows([]pipeline.Band{{
		SiteID: "S1", Date: time.Date(2019, 2, 1, 0, 0, 0, 0, time.UTC), BandNum: 1, BandName: "Band 1",
		SiteType: "LowFlow", Flow: 3.4, MinTrigger: 2, MaxTrigger: 5, BandAllocation: 50,
	}})
	require.Len(t, rows, 1)
	assert.Len(t, rows[0], len(BandSeriesHeader))
	assert.Equal(t, "50", rows[0][8])
}

func TestAllocationUsageRows_BlankMissing(t *testing.T) {
	usage := 0.5
	rows := AllocationUsageRows([]pipeline.AllocationUsage{
		{ConsentBand: pipeline.ConsentBand{SiteID: "S1", BandNum: 1, Consent: "C1"}, Allocation: 1},
		{ConsentBand: pipeline.ConsentBand{SiteID: "S1", BandNum: 1, Consent: "C2"}, Allocation: 0, Usage: &usage},
	})
	require.Len(t, rows, 2)
	assert.Equal(t, "", rows[0][5])
	assert.Equal(t, "", rows[0][6])
	assert.Equal(t, "0.5", rows[1][5])
	assert.Equal(t, "", rows[1][6])
}
