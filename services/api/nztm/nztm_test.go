package nztm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToWGS84_CentralMeridian(t *testing.T) {
	lon, lat, err := ToWGS84(1600000, 5180000)
	require.NoError(t, err)

	assert.InDelta(t, 173.0, lon, 1e-12)
	assert.Less(t, lat, -43.0)
	assert.Greater(t, lat, -44.0)
}

func TestToWGS84_WithinNewZealand(t *testing.T) {
	points := []Point{
		{Easting: 1570000, Northing: 5180000}, // Christchurch
		{Easting: 1748000, Northing: 5427000}, // Wellington
		{Easting: 1757000, Northing: 5920000}, // Auckland
		{Easting: 1406000, Northing: 4917000}, // Dunedin
	}

	out, err := ToWGS84All(points)
	require.NoError(t, err)
	require.Len(t, out, len(points))

	for i, ll := range out {
		assert.GreaterOrEqual(t, ll.Lon, 166.0, "point %d", i)
		assert.LessOrEqual(t, ll.Lon, 179.0, "point %d", i)
		assert.GreaterOrEqual(t, ll.Lat, -47.5, "point %d", i)
		assert.LessOrEqual(t, ll.Lat, -34.0, "point %d", i)
	}
}

func TestToWGS84_Deterministic(t *testing.T) {
	lon1, lat1, err := ToWGS84(1512345, 5123456)
	require.NoError(t, err)
	lon2, lat2, err := ToWGS84(1512345, 5123456)
	require.NoError(t, err)

	assert.Equal(t, lon1, lon2)
	assert.Equal(t, lat1, lat2)
}

func TestRoundTrip(t *testing.T) {
	cases := []Point{
		{Easting: 1600000, Northing: 5180000},
		{Easting: 1570000, Northing: 5180000},
		{Easting: 1748000, Northing: 5427000},
		{Easting: 1406000, Northing: 4917000},
		{Easting: 1250000, Northing: 5000000},
	}

	for _, pt := range cases {
		lon, lat, err := ToWGS84(pt.Easting, pt.Northing)
		require.NoError(t, err)

		e, n, err := FromWGS84(lon, lat)
		require.NoError(t, err)

		assert.InDelta(t, pt.Easting, e, 1e-2)
		assert.InDelta(t, pt.Northing, n, 1e-2)
	}
}

func TestFromWGS84_RoundTrip(t *testing.T) {
	e, n, err := FromWGS84(172.6362, -43.5321)
	require.NoError(t, err)

	lon, lat, err := ToWGS84(e, n)
	require.NoError(t, err)

	assert.InDelta(t, 172.6362, lon, 1e-7)
	assert.InDelta(t, -43.5321, lat, 1e-7)
}

func TestInvalidInput(t *testing.T) {
	_, _, err := ToWGS84(math.NaN(), 5180000)
	require.ErrorIs(t, err, ErrInvalidCoordinate)

	_, _, err = ToWGS84(1600000, math.Inf(1))
	require.ErrorIs(t, err, ErrInvalidCoordinate)

	_, _, err = FromWGS84(173, 90)
	require.ErrorIs(t, err, ErrInvalidCoordinate)

	_, err = ToWGS84All([]Point{{Easting: 1600000, Northing: 5180000}, {Easting: math.NaN()}})
	require.ErrorIs(t, err, ErrInvalidCoordinate)
}
