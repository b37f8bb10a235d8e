// Package projection maps geographic coordinates onto the bundled base-map asset.
//
// The asset is a Robinson world map. Rather than evaluating the analytic Robinson
// formulas, positions are interpolated from the classic 5° table and then scaled by
// per-asset calibration constants measured against the artwork. The result is only
// meaningful for the asset those constants describe.
package projection

import "math"

// GeoCoordinate is a latitude/longitude pair in degrees.
type GeoCoordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// PlanarPoint is a position in the asset's native pixel space.
type PlanarPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Calibration describes where the asset puts the equator and the prime meridian and how
// many pixels separate them from the map edges. East/west and north/south differ because
// the artwork is not symmetric.
type Calibration struct {
	CenterX    float64 `koanf:"center_x" yaml:"center_x"`
	EquatorY   float64 `koanf:"equator_y" yaml:"equator_y"`
	EastScale  float64 `koanf:"east_scale" yaml:"east_scale"`
	WestScale  float64 `koanf:"west_scale" yaml:"west_scale"`
	NorthScale float64 `koanf:"north_scale" yaml:"north_scale"`
	SouthScale float64 `koanf:"south_scale" yaml:"south_scale"`
	Width      float64 `koanf:"width" yaml:"width"`
	Height     float64 `koanf:"height" yaml:"height"`
}

// DefaultCalibration matches the 2000x857 Simplemaps Robinson SVG.
func DefaultCalibration() Calibration {
	return Calibration{
		CenterX:    986,
		EquatorY:   497,
		EastScale:  1020,
		WestScale:  1000,
		NorthScale: 511,
		SouthScale: 528,
		Width:      2000,
		Height:     857,
	}
}

// Center returns the planar position of 0°N 0°E.
func (c Calibration) Center() PlanarPoint {
	return PlanarPoint{X: c.CenterX, Y: c.EquatorY}
}

type robinsonRow struct {
	plen float64 // parallel length, scales X
	pdfe float64 // distance from equator, drives Y
}

// robinsonTable holds one row per 5° of latitude from 0° to 90°.
var robinsonTable = [...]robinsonRow{
	{1.0000, 0.0000},
	{0.9986, 0.0620},
	{0.9954, 0.1240},
	{0.9900, 0.1860},
	{0.9822, 0.2480},
	{0.9730, 0.3100},
	{0.9600, 0.3720},
	{0.9427, 0.4340},
	{0.9216, 0.4958},
	{0.8962, 0.5571},
	{0.8679, 0.6176},
	{0.8350, 0.6769},
	{0.7986, 0.7346},
	{0.7597, 0.7903},
	{0.7186, 0.8435},
	{0.6732, 0.8936},
	{0.6213, 0.9394},
	{0.5722, 0.9761},
	{0.5322, 1.0000},
}

const tableStep = 5.0

// Engine projects coordinates with a fixed calibration. It holds no mutable state and is
// safe for concurrent use.
type Engine struct {
	cal Calibration
}

func New(cal Calibration) *Engine {
	return &Engine{cal: cal}
}

// Calibration returns the constants the engine was built with.
func (e *Engine) Calibration() Calibration {
	return e.cal
}

// Project converts c to asset pixels. ok is false when either component is NaN or
// infinite; callers must skip the point rather than substitute a default.
func (e *Engine) Project(c GeoCoordinate) (PlanarPoint, bool) {
	lat, lon := c.Latitude, c.Longitude
	if !finite(lat) || !finite(lon) {
		return PlanarPoint{}, false
	}

	plen, pdfe := interpolate(math.Abs(lat))

	xScale := e.cal.WestScale
	if lon >= 0 {
		xScale = e.cal.EastScale
	}
	x := e.cal.CenterX + (lon/180)*xScale*plen

	sign, yScale := -1.0, e.cal.SouthScale
	if lat >= 0 {
		sign, yScale = 1.0, e.cal.NorthScale
	}
	y := e.cal.EquatorY - sign*pdfe*yScale

	return PlanarPoint{X: x, Y: y}, true
}

// interpolate returns the table factors for an absolute latitude, clamping at the pole.
func interpolate(absLat float64) (plen, pdfe float64) {
	last := robinsonTable[len(robinsonTable)-1]
	if absLat >= 90 {
		return last.plen, last.pdfe
	}

	idx := int(math.Floor(absLat / tableStep))
	t := (absLat - float64(idx)*tableStep) / tableStep
	lo := robinsonTable[idx]
	hi := robinsonTable[min(idx+1, len(robinsonTable)-1)]

	plen = lo.plen + t*(hi.plen-lo.plen)
	pdfe = lo.pdfe + t*(hi.pdfe-lo.pdfe)
	return plen, pdfe
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
