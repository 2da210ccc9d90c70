// Package nztm converts between New Zealand Transverse Mercator 2000
// (EPSG:2193) grid coordinates and geographic longitude/latitude.
//
// NZGD2000 is treated as coincident with WGS84, which holds to well under a
// metre and is the same assumption the site register makes.
package nztm

import (
	"errors"
	"fmt"
	"math"
)

// NZTM2000 projection parameters on the GRS80 ellipsoid.
const (
	semiMajorAxis   = 6378137.0
	inverseFlatten  = 298.257222101
	centralMeridian = 173.0
	originLatitude  = 0.0
	scaleFactor     = 0.9996
	falseEasting    = 1600000.0
	falseNorthing   = 10000000.0
)

// ErrInvalidCoordinate is returned for NaN or infinite input.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Point is a projected NZTM coordinate in metres.
type Point struct {
	Easting  float64
	Northing float64
}

// LonLat is a geographic coordinate in decimal degrees.
type LonLat struct {
	Lon float64
	Lat float64
}

type projection struct {
	a, e2  float64
	n      float64
	cm, om float64
}

var tm = newProjection()

func newProjection() projection {
	f := 1 / inverseFlatten
	p := projection{
		a:  semiMajorAxis,
		e2: 2*f - f*f,
		n:  f / (2 - f),
		cm: centralMeridian * math.Pi / 180,
	}
	p.om = p.meridianArc(originLatitude * math.Pi / 180)
	return p
}

// meridianArc returns the distance along the meridian from the equator to lat.
func (p projection) meridianArc(lat float64) float64 {
	e2 := p.e2
	e4 := e2 * e2
	e6 := e4 * e2

	a0 := 1 - e2/4 - 3*e4/64 - 5*e6/256
	a2 := 3.0 / 8.0 * (e2 + e4/4 + 15*e6/128)
	a4 := 15.0 / 256.0 * (e4 + 3*e6/4)
	a6 := 35 * e6 / 3072

	return p.a * (a0*lat - a2*math.Sin(2*lat) + a4*math.Sin(4*lat) - a6*math.Sin(6*lat))
}

// footPointLat returns the latitude whose meridian arc equals m.
func (p projection) footPointLat(m float64) float64 {
	n := p.n
	n2 := n * n
	n3 := n2 * n
	n4 := n2 * n2

	g := p.a * (1 - n) * (1 - n2) * (1 + 9*n2/4 + 225*n4/64)
	sig := m / g

	return sig + (3*n/2-27*n3/32)*math.Sin(2*sig) +
		(21*n2/16-55*n4/32)*math.Sin(4*sig) +
		(151*n3/96)*math.Sin(6*sig) +
		(1097*n4/512)*math.Sin(8*sig)
}

func (p projection) inverse(easting, northing float64) (lon, lat float64) {
	cn1 := (northing-falseNorthing)/scaleFactor + p.om
	fphi := p.footPointLat(cn1)

	slt := math.Sin(fphi)
	clt := math.Cos(fphi)
	eslt := 1 - p.e2*slt*slt
	eta := p.a / math.Sqrt(eslt)
	rho := eta * (1 - p.e2) / eslt
	psi := eta / rho

	e := easting - falseEasting
	x := e / (eta * scaleFactor)
	x2 := x * x

	t := slt / clt
	t2 := t * t
	t4 := t2 * t2

	trm1 := 0.5
	trm2 := ((-4*psi+9*(1-t2))*psi + 12*t2) / 24
	trm3 := ((((8*(11-24*t2)*psi-12*(21-71*t2))*psi+15*((15*t2-98)*t2+15))*psi+180*((-3*t2+5)*t2))*psi + 360*t4) / 720
	trm4 := (((1575*t2+4095)*t2+3633)*t2 + 1385) / 40320
	lat = fphi + (t*x*e/(scaleFactor*rho))*(((trm4*x2-trm3)*x2+trm2)*x2-trm1)

	trm1 = 1
	trm2 = (psi + 2*t2) / 6
	trm3 = (((-4*(1-6*t2)*psi+(9-68*t2))*psi+72*t2)*psi + 24*t4) / 120
	trm4 = (((720*t2+1320)*t2+662)*t2 + 61) / 5040
	lon = p.cm - (x/clt)*(((trm4*x2-trm3)*x2+trm2)*x2-trm1)

	return lon * 180 / math.Pi, lat * 180 / math.Pi
}

func (p projection) forward(lon, lat float64) (easting, northing float64) {
	lt := lat * math.Pi / 180
	dlon := lon*math.Pi/180 - p.cm
	for dlon > math.Pi {
		dlon -= 2 * math.Pi
	}
	for dlon < -math.Pi {
		dlon += 2 * math.Pi
	}

	m := p.meridianArc(lt)
	slt := math.Sin(lt)
	eslt := 1 - p.e2*slt*slt
	eta := p.a / math.Sqrt(eslt)
	rho := eta * (1 - p.e2) / eslt
	psi := eta / rho

	clt := math.Cos(lt)
	wc := clt * dlon
	wc2 := wc * wc

	t := slt / clt
	t2 := t * t
	t4 := t2 * t2
	t6 := t2 * t4

	trm1 := (psi - t2) / 6
	trm2 := (((4*(1-6*t2)*psi+(1+8*t2))*psi-2*t2)*psi + t4) / 120
	trm3 := (61 - 479*t2 + 179*t4 - t6) / 5040
	gce := (scaleFactor * eta * dlon * clt) * (((trm3*wc2+trm2)*wc2+trm1)*wc2 + 1)
	easting = gce + falseEasting

	trm1 = 0.5
	trm2 = ((4*psi+1)*psi - t2) / 24
	trm3 = ((((8*(11-24*t2)*psi-28*(1-6*t2))*psi+(1-32*t2))*psi-2*t2)*psi + t4) / 720
	trm4 := (1385 - 3111*t2 + 543*t4 - t6) / 40320
	gcn := (eta * t) * ((((trm4*wc2+trm3)*wc2+trm2)*wc2 + trm1) * wc2)
	northing = (gcn+m-p.om)*scaleFactor + falseNorthing

	return easting, northing
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// ToWGS84 converts an NZTM easting/northing pair to longitude/latitude.
func ToWGS84(easting, northing float64) (lon, lat float64, err error) {
	if !finite(easting, northing) {
		return 0, 0, fmt.Errorf("%w: (%v, %v)", ErrInvalidCoordinate, easting, northing)
	}
	lon, lat = tm.inverse(easting, northing)
	return lon, lat, nil
}

// FromWGS84 converts a longitude/latitude pair to NZTM easting/northing.
func FromWGS84(lon, lat float64) (easting, northing float64, err error) {
	if !finite(lon, lat) || math.Abs(lat) >= 90 {
		return 0, 0, fmt.Errorf("%w: (%v, %v)", ErrInvalidCoordinate, lon, lat)
	}
	easting, northing = tm.forward(lon, lat)
	return easting, northing, nil
}

// ToWGS84All converts a batch of points. The output is parallel to the input.
func ToWGS84All(points []Point) ([]LonLat, error) {
	out := make([]LonLat, 0, len(points))
	for _, pt := range points {
		lon, lat, err := ToWGS84(pt.Easting, pt.Northing)
		if err != nil {
			return nil, err
		}
		out = append(out, LonLat{Lon: lon, Lat: lat})
	}
	return out, nil
}
