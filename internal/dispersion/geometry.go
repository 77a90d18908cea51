package dispersion

import (
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/op"
)

const earthRadiusM = 6371000.0

func radians(deg float64) float64 { return deg * math.Pi / 180 }
func degrees(rad float64) float64 { return rad * 180 / math.Pi }

// destination returns the point reached by traveling distanceM along the
// initial bearing bearingDeg from (lat, lon) on a great circle.
func destination(lat, lon, distanceM, bearingDeg float64) (float64, float64) {
	delta := distanceM / earthRadiusM
	theta := radians(bearingDeg)
	phi1 := radians(lat)
	lambda1 := radians(lon)

	phi2 := math.Asin(math.Sin(phi1)*math.Cos(delta) +
		math.Cos(phi1)*math.Sin(delta)*math.Cos(theta))
	lambda2 := lambda1 + math.Atan2(
		math.Sin(theta)*math.Sin(delta)*math.Cos(phi1),
		math.Cos(delta)-math.Sin(phi1)*math.Sin(phi2))

	lon2 := math.Mod(degrees(lambda2)+540, 360) - 180
	return degrees(phi2), lon2
}

// GreatCircleDistance returns the haversine distance in meters between two
// WGS-84 coordinate pairs.
func GreatCircleDistance(lat1, lon1, lat2, lon2 float64) float64 {
	dPhi := radians(lat2 - lat1)
	dLambda := radians(lon2 - lon1)
	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return earthRadiusM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// InitialBearing returns the bearing in degrees (0-360, clockwise from
// north) from point 1 toward point 2.
func InitialBearing(lat1, lon1, lat2, lon2 float64) float64 {
	dLambda := radians(lon2 - lon1)
	phi1 := radians(lat1)
	phi2 := radians(lat2)

	y := math.Sin(dLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)
	return math.Mod(degrees(math.Atan2(y, x))+360, 360)
}

// plumeHalfWidths is the boundary drawn at ±2σy around each sample.
const plumeBoundarySigmas = 2.0

// buildPlumePolygon converts the centerline samples to a closed geographic
// polygon: the source point, the left boundary outbound, and the right
// boundary inbound. Samples with non-positive σy are skipped. The bool
// reports whether enough valid points existed for a real boundary.
func buildPlumePolygon(lat, lon float64, samples []sampleGeometry, downwindBearing float64) (geom.Polygon, bool) {
	var left, right []geom.Point
	for _, s := range samples {
		if s.distance <= 0 || s.sigmaY <= 0 || !finite(s.sigmaY) {
			continue
		}
		cLat, cLon := destination(lat, lon, s.distance, downwindBearing)
		halfWidth := plumeBoundarySigmas * s.sigmaY

		lLat, lLon := destination(cLat, cLon, halfWidth, math.Mod(downwindBearing+270, 360))
		rLat, rLon := destination(cLat, cLon, halfWidth, math.Mod(downwindBearing+90, 360))
		left = append(left, geom.Point{X: lLon, Y: lLat})
		right = append(right, geom.Point{X: rLon, Y: rLat})
	}

	if len(left) < 1 {
		return fallbackPolygon(lat, lon), false
	}

	ring := make([]geom.Point, 0, 2*len(left)+2)
	ring = append(ring, geom.Point{X: lon, Y: lat})
	ring = append(ring, left...)
	for i := len(right) - 1; i >= 0; i-- {
		ring = append(ring, right[i])
	}
	ring = append(ring, geom.Point{X: lon, Y: lat})
	return geom.Polygon{ring}, true
}

// fallbackPolygon is the degenerate no-data state: a small fixed-radius
// octagon centered on the source. It keeps the polygon contract (≥3
// vertices) when no valid downwind points exist.
const fallbackRadiusM = 100.0

func fallbackPolygon(lat, lon float64) geom.Polygon {
	ring := make([]geom.Point, 0, 9)
	for i := 0; i < 8; i++ {
		pLat, pLon := destination(lat, lon, fallbackRadiusM, float64(i)*45)
		ring = append(ring, geom.Point{X: pLon, Y: pLat})
	}
	ring = append(ring, ring[0])
	return geom.Polygon{ring}
}

// polygonAreaM2 projects the lon/lat polygon to a local tangent plane in
// meters around its first vertex and measures the planar area.
func polygonAreaM2(p geom.Polygon) float64 {
	if len(p) == 0 || len(p[0]) < 3 {
		return 0
	}
	refLat := p[0][0].Y
	refLon := p[0][0].X
	metersPerDegLat := earthRadiusM * math.Pi / 180
	metersPerDegLon := metersPerDegLat * math.Cos(radians(refLat))

	local := make(geom.Polygon, len(p))
	for i, ring := range p {
		local[i] = make([]geom.Point, len(ring))
		for j, pt := range ring {
			local[i][j] = geom.Point{
				X: (pt.X - refLon) * metersPerDegLon,
				Y: (pt.Y - refLat) * metersPerDegLat,
			}
		}
	}
	return math.Abs(op.Area(local))
}

// sampleGeometry is the subset of a sample needed for boundary drawing.
type sampleGeometry struct {
	distance float64
	sigmaY   float64
}
